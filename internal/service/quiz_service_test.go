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
	"github.com/yourusername/quiz-master/internal/logger"
	apperrors "github.com/yourusername/quiz-master/internal/pkg/errors"
)

func istLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Без tzdata используем фиксированное смещение IST
		loc = time.FixedZone("IST", 5*3600+30*60)
	}
	return loc
}

func TestQuizService_Create_ParsesLocalTimeAndDuration(t *testing.T) {
	// Arrange
	quizRepo := new(MockQuizRepository)
	chapterRepo := new(MockChapterRepository)
	chapterRepo.On("GetByID", uint(2)).Return(&entity.Chapter{ID: 2}, nil)
	quizRepo.On("Create", mock.AnythingOfType("*entity.Quiz")).Return(nil)
	svc := NewQuizService(quizRepo, chapterRepo, istLocation(t), fixedClock(testNow), logger.NewNop())

	// Act
	quiz, err := svc.Create(context.Background(), 2, QuizInput{
		QuizName:  " Midterm ",
		StartTime: "2026-03-10T15:30",
		Duration:  "01:15",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Midterm", quiz.QuizName)
	assert.Equal(t, 75, quiz.Duration, "01:15 это 75 минут")
	assert.True(t, quiz.StartTime.Equal(time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)),
		"15:30 IST это 10:00 UTC")
	require.NotNil(t, quiz.EndTime)
	assert.True(t, quiz.EndTime.Equal(quiz.StartTime.Add(75*time.Minute)), "end_time синхронизируется со start+duration")
	assert.True(t, quiz.Active)
	assert.Equal(t, uint(2), quiz.ChapterID)
}

func TestQuizService_Create_Validation(t *testing.T) {
	tests := []struct {
		name   string
		in     QuizInput
		field  string
		expect string
	}{
		{"missing name", QuizInput{StartTime: "2026-03-10T15:30", Duration: "00:30"}, "quiz_name", "This field is required."},
		{"bad start", QuizInput{QuizName: "Q", StartTime: "10/03/2026", Duration: "00:30"}, "start_time", "Not a valid datetime value."},
		{"bad duration", QuizInput{QuizName: "Q", StartTime: "2026-03-10T15:30", Duration: "90"}, "duration", "Use HH:MM format"},
		{"zero duration", QuizInput{QuizName: "Q", StartTime: "2026-03-10T15:30", Duration: "00:00"}, "duration", "Use HH:MM format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			quizRepo := new(MockQuizRepository)
			svc := NewQuizService(quizRepo, new(MockChapterRepository), istLocation(t), nil, logger.NewNop())

			// Act
			_, err := svc.Create(context.Background(), 1, tt.in)

			// Assert
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "Ожидалась ошибка валидации")
			assert.Equal(t, tt.expect, ve.Fields[tt.field])
			quizRepo.AssertNotCalled(t, "Create", mock.Anything)
		})
	}
}

func TestQuizService_ListAvailable_FiltersEnded(t *testing.T) {
	// Arrange
	quizRepo := new(MockQuizRepository)
	quizRepo.On("List").Return([]entity.Quiz{
		{ID: 1, StartTime: testNow.Add(-2 * time.Hour), Duration: 30},
		{ID: 2, StartTime: testNow.Add(-10 * time.Minute), Duration: 30},
		{ID: 3, StartTime: testNow.Add(time.Hour), Duration: 30},
	}, nil)
	svc := NewQuizService(quizRepo, new(MockChapterRepository), time.UTC, fixedClock(testNow), logger.NewNop())

	// Act
	quizzes, err := svc.ListAvailable(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, quizzes, 2, "Завершенные викторины не показываются")
	assert.Equal(t, uint(2), quizzes[0].ID)
	assert.Equal(t, uint(3), quizzes[1].ID)
}

func TestQuestionService_Create_CorrectOptionMustBeFilled(t *testing.T) {
	// Arrange
	questionRepo := new(MockQuestionRepository)
	svc := NewQuestionService(questionRepo, new(MockQuizRepository), logger.NewNop())

	// Act
	_, err := svc.Create(context.Background(), 1, QuestionInput{
		Statement: "2+2?", Option1: "3", Option2: "4", CorrectOption: 4,
	})

	// Assert
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "correct_option")
	questionRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestQuestionService_Create_OutOfRangeOption(t *testing.T) {
	// Arrange
	svc := NewQuestionService(new(MockQuestionRepository), new(MockQuizRepository), logger.NewNop())

	// Act
	_, err := svc.Create(context.Background(), 1, QuestionInput{
		Statement: "2+2?", Option1: "3", Option2: "4", CorrectOption: 5,
	})

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestQuestionService_Create_Success(t *testing.T) {
	// Arrange
	questionRepo := new(MockQuestionRepository)
	quizRepo := new(MockQuizRepository)
	quizRepo.On("GetByID", uint(1)).Return(&entity.Quiz{ID: 1}, nil)
	questionRepo.On("Create", mock.MatchedBy(func(q *entity.Question) bool {
		return q.QuizID == 1 && q.CorrectOption == 2 && q.Statement == "2+2?"
	})).Return(nil)
	svc := NewQuestionService(questionRepo, quizRepo, logger.NewNop())

	// Act
	question, err := svc.Create(context.Background(), 1, QuestionInput{
		Statement: " 2+2? ", Option1: "3", Option2: "4", CorrectOption: 2,
	})

	// Assert
	require.NoError(t, err)
	assert.True(t, question.IsCorrect(2))
	questionRepo.AssertExpectations(t)
}

func TestSubjectService_Create_DuplicateName(t *testing.T) {
	// Arrange
	subjectRepo := new(MockSubjectRepository)
	subjectRepo.On("GetByName", "Physics").Return(&entity.Subject{ID: 1, Name: "physics"}, nil)
	svc := NewSubjectService(subjectRepo, logger.NewNop())

	// Act
	_, err := svc.Create(context.Background(), SubjectInput{Name: "Physics"})

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Contains(t, err.Error(), "Subject already exists!")
	subjectRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestSubjectService_Update_SameNameKeepsSelf(t *testing.T) {
	// Arrange
	subjectRepo := new(MockSubjectRepository)
	subject := &entity.Subject{ID: 1, Name: "Physics"}
	subjectRepo.On("GetByID", uint(1)).Return(subject, nil)
	subjectRepo.On("GetByName", "Physics").Return(subject, nil)
	subjectRepo.On("Update", subject).Return(nil)
	svc := NewSubjectService(subjectRepo, logger.NewNop())

	// Act
	updated, err := svc.Update(context.Background(), 1, SubjectInput{Name: "Physics", Description: "Mechanics"})

	// Assert
	require.NoError(t, err, "Сохранение с тем же именем не является конфликтом")
	assert.Equal(t, "Mechanics", updated.Description)
}

func TestChapterService_Create_UnknownSubject(t *testing.T) {
	// Arrange
	chapterRepo := new(MockChapterRepository)
	subjectRepo := new(MockSubjectRepository)
	subjectRepo.On("GetByID", uint(9)).Return(nil, apperrors.ErrNotFound)
	svc := NewChapterService(chapterRepo, subjectRepo, logger.NewNop())

	// Act
	_, err := svc.Create(context.Background(), 9, ChapterInput{Name: "Kinematics"})

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	chapterRepo.AssertNotCalled(t, "Create", mock.Anything)
}
