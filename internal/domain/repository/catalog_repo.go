package repository

import (
	"context"

	"github.com/yourusername/quiz-master/internal/domain/entity"
)

// SubjectRepository определяет методы для работы с предметами
type SubjectRepository interface {
	Create(ctx context.Context, subject *entity.Subject) error
	GetByID(ctx context.Context, id uint) (*entity.Subject, error)
	GetByName(ctx context.Context, name string) (*entity.Subject, error)
	List(ctx context.Context) ([]entity.Subject, error)
	Update(ctx context.Context, subject *entity.Subject) error
	// Delete каскадно удаляет главы, викторины, вопросы, результаты и попытки
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	Search(ctx context.Context, term string, limit int) ([]entity.Subject, error)
}

// ChapterRepository определяет методы для работы с главами
type ChapterRepository interface {
	Create(ctx context.Context, chapter *entity.Chapter) error
	// GetByID подгружает Subject
	GetByID(ctx context.Context, id uint) (*entity.Chapter, error)
	ListBySubject(ctx context.Context, subjectID uint) ([]entity.Chapter, error)
	Update(ctx context.Context, chapter *entity.Chapter) error
	// Delete каскадно удаляет викторины главы со всеми потомками
	Delete(ctx context.Context, id uint) error
}
