package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	apperrors "github.com/yourusername/quiz-master/internal/pkg/errors"
)

// UserRepo реализует repository.UserRepository
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo создает новый репозиторий пользователей
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create создает нового пользователя в транзакции.
// Дубликат username/email откатывает транзакцию и возвращает apperrors.ErrConflict.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(user).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username or email already taken", apperrors.ErrConflict)
		}
		return err
	}
	return nil
}

// GetByID возвращает пользователя по ID
func (r *UserRepo) GetByID(ctx context.Context, id uint) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &user, nil
}

// GetByEmail возвращает пользователя по email
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &user, nil
}

// GetByUsername возвращает пользователя по имени пользователя
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &user, nil
}

// Update сохраняет пользователя целиком. Пароль перехешируется только если он не bcrypt-хеш.
func (r *UserRepo) Update(ctx context.Context, user *entity.User) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: username or email already taken", apperrors.ErrConflict)
	}
	return err
}

// UpdateLastSeen точечно обновляет last_seen
func (r *UserRepo) UpdateLastSeen(ctx context.Context, userID uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_seen", at).
		Error
}

// List возвращает всех пользователей
func (r *UserRepo) List(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).Order("username").Find(&users).Error
	return users, err
}

// Delete удаляет пользователя с его результатами и попытками
func (r *UserRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user entity.User
		if err := tx.Select("id").First(&user, id).Error; err != nil {
			return mapNotFound(err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&entity.Score{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&entity.QuizAttempt{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.User{}, id).Error
	})
}

// Count возвращает количество пользователей
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&total).Error
	return total, err
}

// Search ищет пользователей по подстроке в username
func (r *UserRepo) Search(ctx context.Context, term string, limit int) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).
		Where("LOWER(username) LIKE ? ESCAPE '\\'", likePattern(term)).
		Order("username").
		Limit(searchLimit(limit)).
		Find(&users).Error
	return users, err
}
