package repository

import (
	"context"

	"github.com/yourusername/quiz-master/internal/domain/entity"
)

// QuizRepository определяет методы для работы с викторинами
type QuizRepository interface {
	Create(ctx context.Context, quiz *entity.Quiz) error
	// GetByID подгружает Chapter и Chapter.Subject
	GetByID(ctx context.Context, id uint) (*entity.Quiz, error)
	// GetWithQuestions дополнительно подгружает вопросы, упорядоченные по id
	GetWithQuestions(ctx context.Context, id uint) (*entity.Quiz, error)
	ListByChapter(ctx context.Context, chapterID uint) ([]entity.Quiz, error)
	// List возвращает все викторины по возрастанию start_time
	List(ctx context.Context) ([]entity.Quiz, error)
	Update(ctx context.Context, quiz *entity.Quiz) error
	// Delete каскадно удаляет вопросы, результаты и попытки
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	Search(ctx context.Context, term string, limit int) ([]entity.Quiz, error)
}
