package repository

import (
	"context"

	"github.com/yourusername/quiz-master/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	Create(ctx context.Context, question *entity.Question) error
	GetByID(ctx context.Context, id uint) (*entity.Question, error)
	GetByQuizID(ctx context.Context, quizID uint) ([]entity.Question, error)
	Update(ctx context.Context, question *entity.Question) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	Search(ctx context.Context, term string, limit int) ([]entity.Question, error)
}
