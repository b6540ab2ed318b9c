package repository

import (
	"context"
	"time"

	"github.com/yourusername/quiz-master/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	// Create возвращает apperrors.ErrConflict при дубликате username/email
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uint) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	UpdateLastSeen(ctx context.Context, userID uint, at time.Time) error
	List(ctx context.Context) ([]entity.User, error)
	// Delete удаляет пользователя вместе с его результатами и попытками
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	Search(ctx context.Context, term string, limit int) ([]entity.User, error)
}
