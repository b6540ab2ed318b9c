package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	apperrors "github.com/yourusername/quiz-master/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create создает новый вопрос
func (r *QuestionRepo) Create(ctx context.Context, question *entity.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(ctx context.Context, id uint) (*entity.Question, error) {
	var question entity.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &question, nil
}

// GetByQuizID возвращает вопросы викторины по порядку создания
func (r *QuestionRepo) GetByQuizID(ctx context.Context, quizID uint) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.WithContext(ctx).Where("quiz_id = ?", quizID).Order("id").Find(&questions).Error
	return questions, err
}

// Update обновляет вопрос
func (r *QuestionRepo) Update(ctx context.Context, question *entity.Question) error {
	return r.db.WithContext(ctx).Save(question).Error
}

// Delete удаляет вопрос
func (r *QuestionRepo) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entity.Question{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Count возвращает количество вопросов
func (r *QuestionRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.Question{}).Count(&total).Error
	return total, err
}

// Search ищет вопросы по подстроке в формулировке
func (r *QuestionRepo) Search(ctx context.Context, term string, limit int) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.WithContext(ctx).
		Where("LOWER(question_statement) LIKE ? ESCAPE '\\'", likePattern(term)).
		Order("id").
		Limit(searchLimit(limit)).
		Find(&questions).Error
	return questions, err
}
