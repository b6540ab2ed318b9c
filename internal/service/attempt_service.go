package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/domain/repository"
	"github.com/yourusername/quiz-master/internal/logger"
	apperrors "github.com/yourusername/quiz-master/internal/pkg/errors"
	"github.com/yourusername/quiz-master/pkg/auth"
)

// AttemptSession данные страницы прохождения викторины
type AttemptSession struct {
	Quiz    *entity.Quiz
	EndTime time.Time
	// IsOpen false, если окно уже закрылось: ответы будут отклонены
	IsOpen bool
}

// AttemptResult результат попытки
type AttemptResult struct {
	Quiz       *entity.Quiz
	Score      *entity.Score
	Total      int
	Percentage float64
}

// AttemptService допуск к попытке и подсчет баллов
type AttemptService struct {
	quizRepo  repository.QuizRepository
	scoreRepo repository.ScoreRepository
	now       Clock
	log       *logger.Logger
}

// NewAttemptService создает новый сервис попыток
func NewAttemptService(
	quizRepo repository.QuizRepository,
	scoreRepo repository.ScoreRepository,
	now Clock,
	log *logger.Logger,
) *AttemptService {
	if now == nil {
		now = time.Now
	}
	return &AttemptService{
		quizRepo:  quizRepo,
		scoreRepo: scoreRepo,
		now:       now,
		log:       log.Component("AttemptService"),
	}
}

// Open проверяет допуск и возвращает викторину с вопросами.
// До начала возвращает *QuizNotStartedError, при наличии результата ErrAlreadyAttempted.
func (s *AttemptService) Open(ctx context.Context, id auth.Identity, quizID uint) (*AttemptSession, error) {
	quiz, now, err := s.admit(ctx, id, quizID)
	if err != nil {
		return nil, err
	}
	end := quiz.ComputedEndTime()
	return &AttemptSession{Quiz: quiz, EndTime: end, IsOpen: !now.After(end)}, nil
}

// Submit считает баллы и сохраняет результат. Ответы на чужие вопросы
// и номера вне 1..4 отбрасываются до сохранения.
func (s *AttemptService) Submit(ctx context.Context, id auth.Identity, quizID uint, answers entity.Answers) (*entity.Score, error) {
	quiz, now, err := s.admit(ctx, id, quizID)
	if err != nil {
		return nil, err
	}
	if now.After(quiz.ComputedEndTime()) {
		return nil, ErrQuizExpired
	}

	clean := answers.Sanitize(quiz.Questions)
	score := &entity.Score{
		TotalScored: entity.CalculateScore(quiz.Questions, clean),
		TimeStamp:   now,
		UserID:      id.UserID,
		QuizID:      quiz.ID,
		Answers:     clean,
	}
	if err := s.scoreRepo.Create(ctx, score); err != nil {
		if errors.Is(err, repository.ErrDuplicateScore) {
			s.log.Warn("Concurrent duplicate submission", "user_id", id.UserID, "quiz_id", quizID)
			return nil, ErrAlreadyAttempted
		}
		s.log.Error("Failed to save score", "user_id", id.UserID, "quiz_id", quizID, "error", err)
		return nil, fmt.Errorf("failed to save score: %w", err)
	}

	s.log.Info("Quiz submitted", "user_id", id.UserID, "quiz_id", quizID, "score", score.TotalScored)
	score.Quiz = quiz
	return score, nil
}

// Result возвращает результат пользователя по викторине или ErrNoAttempt
func (s *AttemptService) Result(ctx context.Context, id auth.Identity, quizID uint) (*AttemptResult, error) {
	quiz, err := s.quizRepo.GetWithQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}
	score, err := s.scoreRepo.GetUserScore(ctx, id.UserID, quizID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrNoAttempt
		}
		return nil, err
	}
	total := len(quiz.Questions)
	return &AttemptResult{
		Quiz:       quiz,
		Score:      score,
		Total:      total,
		Percentage: percentage(score.TotalScored, total),
	}, nil
}

// History возвращает попытки пользователя, новые сверху
func (s *AttemptService) History(ctx context.Context, id auth.Identity) ([]entity.Score, error) {
	return s.scoreRepo.ListByUser(ctx, id.UserID, false)
}

func (s *AttemptService) admit(ctx context.Context, id auth.Identity, quizID uint) (*entity.Quiz, time.Time, error) {
	if id.UserID == 0 {
		return nil, time.Time{}, apperrors.ErrUnauthorized
	}
	quiz, err := s.quizRepo.GetWithQuestions(ctx, quizID)
	if err != nil {
		return nil, time.Time{}, err
	}
	now := s.now()
	if now.Before(quiz.StartTime) {
		return nil, now, &QuizNotStartedError{StartTime: quiz.StartTime}
	}

	_, err = s.scoreRepo.GetUserScore(ctx, id.UserID, quizID)
	switch {
	case err == nil:
		return nil, now, ErrAlreadyAttempted
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, now, err
	}
	return quiz, now, nil
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) * 100 / float64(total))
}

// round1 округляет до одного знака после запятой
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
