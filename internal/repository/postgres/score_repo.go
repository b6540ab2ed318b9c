package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/domain/repository"
)

// ScoreRepo реализует repository.ScoreRepository
type ScoreRepo struct {
	db *gorm.DB
}

// NewScoreRepo создает новый репозиторий результатов
func NewScoreRepo(db *gorm.DB) *ScoreRepo {
	return &ScoreRepo{db: db}
}

// Create сохраняет результат. Уникальный индекс idx_scores_user_quiz
// отсекает вторую попытку даже при гонке двух одновременных отправок.
func (r *ScoreRepo) Create(ctx context.Context, score *entity.Score) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(score).Error
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user #%d quiz #%d", repository.ErrDuplicateScore, score.UserID, score.QuizID)
		}
		return err
	}
	return nil
}

// GetByID возвращает результат вместе с пользователем и викториной
func (r *ScoreRepo) GetByID(ctx context.Context, id uint) (*entity.Score, error) {
	var score entity.Score
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Quiz.Chapter.Subject").
		First(&score, id).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &score, nil
}

// GetUserScore возвращает результат пользователя для конкретной викторины
func (r *ScoreRepo) GetUserScore(ctx context.Context, userID, quizID uint) (*entity.Score, error) {
	var score entity.Score
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		First(&score).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &score, nil
}

// ListByUser возвращает все результаты пользователя
func (r *ScoreRepo) ListByUser(ctx context.Context, userID uint, ascending bool) ([]entity.Score, error) {
	order := "time_stamp_of_attempt DESC, id DESC"
	if ascending {
		order = "time_stamp_of_attempt ASC, id ASC"
	}
	var scores []entity.Score
	err := r.db.WithContext(ctx).
		Preload("Quiz.Chapter.Subject").
		Where("user_id = ?", userID).
		Order(order).
		Find(&scores).Error
	return scores, err
}

// ListByQuiz возвращает все результаты по викторине
func (r *ScoreRepo) ListByQuiz(ctx context.Context, quizID uint) ([]entity.Score, error) {
	var scores []entity.Score
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("quiz_id = ?", quizID).
		Order("total_scored DESC, time_stamp_of_attempt ASC").
		Find(&scores).Error
	return scores, err
}

// ListAll возвращает все результаты, новые сверху
func (r *ScoreRepo) ListAll(ctx context.Context) ([]entity.Score, error) {
	var scores []entity.Score
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Quiz").
		Order("time_stamp_of_attempt DESC, id DESC").
		Find(&scores).Error
	return scores, err
}

// QuizTotals считает попытки и сумму баллов одним GROUP BY
func (r *ScoreRepo) QuizTotals(ctx context.Context) ([]repository.QuizScoreTotal, error) {
	var totals []repository.QuizScoreTotal
	err := r.db.WithContext(ctx).
		Model(&entity.Score{}).
		Select("quiz_id, COUNT(*) AS attempts, COALESCE(SUM(total_scored), 0) AS total").
		Group("quiz_id").
		Order("quiz_id").
		Scan(&totals).Error
	return totals, err
}
