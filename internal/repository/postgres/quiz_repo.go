package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/quiz-master/internal/domain/entity"
)

// QuizRepo реализует repository.QuizRepository
type QuizRepo struct {
	db *gorm.DB
}

// NewQuizRepo создает новый репозиторий викторин
func NewQuizRepo(db *gorm.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// Create создает новую викторину
func (r *QuizRepo) Create(ctx context.Context, quiz *entity.Quiz) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(quiz).Error
}

// GetByID возвращает викторину по ID вместе с главой и предметом
func (r *QuizRepo) GetByID(ctx context.Context, id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	if err := r.db.WithContext(ctx).Preload("Chapter.Subject").First(&quiz, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &quiz, nil
}

// GetWithQuestions возвращает викторину вместе с вопросами
func (r *QuizRepo) GetWithQuestions(ctx context.Context, id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.WithContext(ctx).
		Preload("Chapter.Subject").
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("questions.id") }).
		First(&quiz, id).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &quiz, nil
}

// ListByChapter возвращает викторины главы
func (r *QuizRepo) ListByChapter(ctx context.Context, chapterID uint) ([]entity.Quiz, error) {
	var quizzes []entity.Quiz
	err := r.db.WithContext(ctx).
		Where("chapter_id = ?", chapterID).
		Order("start_time").
		Find(&quizzes).Error
	return quizzes, err
}

// List возвращает все викторины вместе с главой и предметом
func (r *QuizRepo) List(ctx context.Context) ([]entity.Quiz, error) {
	var quizzes []entity.Quiz
	err := r.db.WithContext(ctx).
		Preload("Chapter.Subject").
		Order("start_time, id").
		Find(&quizzes).Error
	return quizzes, err
}

// Update обновляет информацию о викторине
func (r *QuizRepo) Update(ctx context.Context, quiz *entity.Quiz) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(quiz).Error
}

// Delete удаляет викторину с вопросами, результатами и попытками
func (r *QuizRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var quiz entity.Quiz
		if err := tx.Select("id").First(&quiz, id).Error; err != nil {
			return mapNotFound(err)
		}
		return deleteQuizzesTx(tx, []uint{id})
	})
}

// Count возвращает количество викторин
func (r *QuizRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.Quiz{}).Count(&total).Error
	return total, err
}

// Search ищет викторины по подстроке в названии
func (r *QuizRepo) Search(ctx context.Context, term string, limit int) ([]entity.Quiz, error) {
	var quizzes []entity.Quiz
	err := r.db.WithContext(ctx).
		Where("LOWER(quiz_name) LIKE ? ESCAPE '\\'", likePattern(term)).
		Order("quiz_name").
		Limit(searchLimit(limit)).
		Find(&quizzes).Error
	return quizzes, err
}
