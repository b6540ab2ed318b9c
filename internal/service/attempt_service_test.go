package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/domain/repository"
	"github.com/yourusername/quiz-master/internal/logger"
	apperrors "github.com/yourusername/quiz-master/internal/pkg/errors"
	"github.com/yourusername/quiz-master/pkg/auth"
)

var quizStart = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func attemptQuiz() *entity.Quiz {
	return &entity.Quiz{
		ID:        3,
		QuizName:  "Algebra",
		StartTime: quizStart,
		Duration:  30,
		Questions: []entity.Question{
			{ID: 10, QuizID: 3, Option1: "a", Option2: "b", CorrectOption: 1},
			{ID: 11, QuizID: 3, Option1: "a", Option2: "b", Option3: "c", CorrectOption: 3},
		},
	}
}

var student = auth.Identity{UserID: 42, Username: "student"}

func createTestAttemptService(quizRepo *MockQuizRepository, scoreRepo *MockScoreRepository, now time.Time) *AttemptService {
	return NewAttemptService(quizRepo, scoreRepo, fixedClock(now), logger.NewNop())
}

func TestAttemptService_Open(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		existing *entity.Score
		wantErr  error
		wantOpen bool
	}{
		{name: "before start", now: quizStart.Add(-time.Minute), wantErr: ErrQuizNotStarted},
		{name: "at start", now: quizStart, wantOpen: true},
		{name: "at inclusive end", now: quizStart.Add(30 * time.Minute), wantOpen: true},
		{name: "after end renders closed page", now: quizStart.Add(31 * time.Minute), wantOpen: false},
		{name: "already attempted", now: quizStart.Add(time.Minute), existing: &entity.Score{ID: 1}, wantErr: ErrAlreadyAttempted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			quizRepo := new(MockQuizRepository)
			scoreRepo := new(MockScoreRepository)
			quizRepo.On("GetWithQuestions", uint(3)).Return(attemptQuiz(), nil)
			if tt.existing != nil {
				scoreRepo.On("GetUserScore", uint(42), uint(3)).Return(tt.existing, nil)
			} else {
				scoreRepo.On("GetUserScore", uint(42), uint(3)).Return(nil, apperrors.ErrNotFound)
			}
			svc := createTestAttemptService(quizRepo, scoreRepo, tt.now)

			// Act
			session, err := svc.Open(context.Background(), student, 3)

			// Assert
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, session)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOpen, session.IsOpen)
			assert.Equal(t, quizStart.Add(30*time.Minute), session.EndTime)
			assert.Len(t, session.Quiz.Questions, 2)
		})
	}
}

func TestAttemptService_Open_NotStartedCarriesStartTime(t *testing.T) {
	// Arrange
	quizRepo := new(MockQuizRepository)
	quizRepo.On("GetWithQuestions", uint(3)).Return(attemptQuiz(), nil)
	svc := createTestAttemptService(quizRepo, new(MockScoreRepository), quizStart.Add(-time.Hour))

	// Act
	_, err := svc.Open(context.Background(), student, 3)

	// Assert
	var notStarted *QuizNotStartedError
	require.True(t, errors.As(err, &notStarted))
	assert.Equal(t, quizStart, notStarted.StartTime, "Ошибка должна нести время начала")
}

func TestAttemptService_Submit_ScoresSanitizedAnswers(t *testing.T) {
	// Arrange
	quizRepo := new(MockQuizRepository)
	scoreRepo := new(MockScoreRepository)
	now := quizStart.Add(10 * time.Minute)
	quizRepo.On("GetWithQuestions", uint(3)).Return(attemptQuiz(), nil)
	scoreRepo.On("GetUserScore", uint(42), uint(3)).Return(nil, apperrors.ErrNotFound)
	scoreRepo.On("Create", mock.MatchedBy(func(s *entity.Score) bool {
		return s.UserID == 42 && s.QuizID == 3 && s.TotalScored == 1 && s.TimeStamp.Equal(now)
	})).Return(nil)
	svc := createTestAttemptService(quizRepo, scoreRepo, now)

	// Act: один верный, один неверный и один ответ на чужой вопрос
	score, err := svc.Submit(context.Background(), student, 3, entity.Answers{10: 1, 11: 2, 99: 1})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, score.TotalScored)
	assert.Equal(t, entity.Answers{10: 1, 11: 2}, score.Answers, "Ответы на чужие вопросы должны отбрасываться")
	scoreRepo.AssertExpectations(t)
}

func TestAttemptService_Submit_Expired(t *testing.T) {
	// Arrange
	quizRepo := new(MockQuizRepository)
	scoreRepo := new(MockScoreRepository)
	quizRepo.On("GetWithQuestions", uint(3)).Return(attemptQuiz(), nil)
	scoreRepo.On("GetUserScore", uint(42), uint(3)).Return(nil, apperrors.ErrNotFound)
	svc := createTestAttemptService(quizRepo, scoreRepo, quizStart.Add(30*time.Minute+time.Second))

	// Act
	_, err := svc.Submit(context.Background(), student, 3, entity.Answers{10: 1})

	// Assert
	assert.ErrorIs(t, err, ErrQuizExpired)
	scoreRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestAttemptService_Submit_UsesStoredEndTime(t *testing.T) {
	// Arrange
	quiz := attemptQuiz()
	end := quizStart.Add(5 * time.Minute)
	quiz.EndTime = &end
	quizRepo := new(MockQuizRepository)
	scoreRepo := new(MockScoreRepository)
	quizRepo.On("GetWithQuestions", uint(3)).Return(quiz, nil)
	scoreRepo.On("GetUserScore", uint(42), uint(3)).Return(nil, apperrors.ErrNotFound)
	svc := createTestAttemptService(quizRepo, scoreRepo, quizStart.Add(10*time.Minute))

	// Act
	_, err := svc.Submit(context.Background(), student, 3, nil)

	// Assert
	assert.ErrorIs(t, err, ErrQuizExpired, "Сохраненный end_time имеет приоритет")
}

func TestAttemptService_Submit_ConcurrentDuplicate(t *testing.T) {
	// Arrange: проверка прошла, но вставка упала на уникальном индексе
	quizRepo := new(MockQuizRepository)
	scoreRepo := new(MockScoreRepository)
	quizRepo.On("GetWithQuestions", uint(3)).Return(attemptQuiz(), nil)
	scoreRepo.On("GetUserScore", uint(42), uint(3)).Return(nil, apperrors.ErrNotFound)
	scoreRepo.On("Create", mock.AnythingOfType("*entity.Score")).Return(repository.ErrDuplicateScore)
	svc := createTestAttemptService(quizRepo, scoreRepo, quizStart.Add(time.Minute))

	// Act
	_, err := svc.Submit(context.Background(), student, 3, entity.Answers{10: 1})

	// Assert
	assert.ErrorIs(t, err, ErrAlreadyAttempted)
}

func TestAttemptService_Submit_Anonymous(t *testing.T) {
	// Arrange
	svc := createTestAttemptService(new(MockQuizRepository), new(MockScoreRepository), quizStart)

	// Act
	_, err := svc.Submit(context.Background(), auth.Identity{}, 3, nil)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAttemptService_Result(t *testing.T) {
	// Arrange
	quizRepo := new(MockQuizRepository)
	scoreRepo := new(MockScoreRepository)
	quizRepo.On("GetWithQuestions", uint(3)).Return(attemptQuiz(), nil)
	scoreRepo.On("GetUserScore", uint(42), uint(3)).Return(&entity.Score{TotalScored: 1}, nil).Once()
	scoreRepo.On("GetUserScore", uint(42), uint(3)).Return(nil, apperrors.ErrNotFound).Once()
	svc := createTestAttemptService(quizRepo, scoreRepo, quizStart)

	// Act
	res, err := svc.Result(context.Background(), student, 3)
	_, errMissing := svc.Result(context.Background(), student, 3)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 50.0, res.Percentage)
	assert.ErrorIs(t, errMissing, ErrNoAttempt)
}
