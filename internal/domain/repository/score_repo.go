package repository

import (
	"context"

	"github.com/yourusername/quiz-master/internal/domain/entity"
)

// ScoreRepository определяет методы для работы с результатами попыток
type ScoreRepository interface {
	// Create возвращает ErrDuplicateScore, если результат для (user, quiz) уже есть
	Create(ctx context.Context, score *entity.Score) error
	// GetByID подгружает User и Quiz.Chapter.Subject
	GetByID(ctx context.Context, id uint) (*entity.Score, error)
	GetUserScore(ctx context.Context, userID, quizID uint) (*entity.Score, error)
	// ListByUser подгружает Quiz.Chapter.Subject; ascending задает хронологический порядок
	ListByUser(ctx context.Context, userID uint, ascending bool) ([]entity.Score, error)
	ListByQuiz(ctx context.Context, quizID uint) ([]entity.Score, error)
	// ListAll подгружает User и Quiz, новые сверху
	ListAll(ctx context.Context) ([]entity.Score, error)
	// QuizTotals агрегирует попытки и сумму баллов по викторинам без загрузки строк
	QuizTotals(ctx context.Context) ([]QuizScoreTotal, error)
}

// QuizScoreTotal сводка результатов одной викторины
type QuizScoreTotal struct {
	QuizID   uint
	Attempts int
	Total    int
}
