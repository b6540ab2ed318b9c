package service

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/domain/repository"
)

// ============================================================================
// Моки репозиториев. Контекст в ожидания не передается.
// ============================================================================

// MockUserRepository реализует repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(_ context.Context, user *entity.User) error {
	return m.Called(user).Error(0)
}

func (m *MockUserRepository) GetByID(_ context.Context, id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) Update(_ context.Context, user *entity.User) error {
	return m.Called(user).Error(0)
}

func (m *MockUserRepository) UpdateLastSeen(_ context.Context, userID uint, at time.Time) error {
	return m.Called(userID, at).Error(0)
}

func (m *MockUserRepository) List(_ context.Context) ([]entity.User, error) {
	args := m.Called()
	return args.Get(0).([]entity.User), args.Error(1)
}

func (m *MockUserRepository) Delete(_ context.Context, id uint) error {
	return m.Called(id).Error(0)
}

func (m *MockUserRepository) Count(_ context.Context) (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) Search(_ context.Context, term string, limit int) ([]entity.User, error) {
	args := m.Called(term, limit)
	return args.Get(0).([]entity.User), args.Error(1)
}

// MockSubjectRepository реализует repository.SubjectRepository
type MockSubjectRepository struct {
	mock.Mock
}

func (m *MockSubjectRepository) Create(_ context.Context, subject *entity.Subject) error {
	return m.Called(subject).Error(0)
}

func (m *MockSubjectRepository) GetByID(_ context.Context, id uint) (*entity.Subject, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subject), args.Error(1)
}

func (m *MockSubjectRepository) GetByName(_ context.Context, name string) (*entity.Subject, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subject), args.Error(1)
}

func (m *MockSubjectRepository) List(_ context.Context) ([]entity.Subject, error) {
	args := m.Called()
	return args.Get(0).([]entity.Subject), args.Error(1)
}

func (m *MockSubjectRepository) Update(_ context.Context, subject *entity.Subject) error {
	return m.Called(subject).Error(0)
}

func (m *MockSubjectRepository) Delete(_ context.Context, id uint) error {
	return m.Called(id).Error(0)
}

func (m *MockSubjectRepository) Count(_ context.Context) (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubjectRepository) Search(_ context.Context, term string, limit int) ([]entity.Subject, error) {
	args := m.Called(term, limit)
	return args.Get(0).([]entity.Subject), args.Error(1)
}

// MockChapterRepository реализует repository.ChapterRepository
type MockChapterRepository struct {
	mock.Mock
}

func (m *MockChapterRepository) Create(_ context.Context, chapter *entity.Chapter) error {
	return m.Called(chapter).Error(0)
}

func (m *MockChapterRepository) GetByID(_ context.Context, id uint) (*entity.Chapter, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Chapter), args.Error(1)
}

func (m *MockChapterRepository) ListBySubject(_ context.Context, subjectID uint) ([]entity.Chapter, error) {
	args := m.Called(subjectID)
	return args.Get(0).([]entity.Chapter), args.Error(1)
}

func (m *MockChapterRepository) Update(_ context.Context, chapter *entity.Chapter) error {
	return m.Called(chapter).Error(0)
}

func (m *MockChapterRepository) Delete(_ context.Context, id uint) error {
	return m.Called(id).Error(0)
}

// MockQuizRepository реализует repository.QuizRepository
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) Create(_ context.Context, quiz *entity.Quiz) error {
	return m.Called(quiz).Error(0)
}

func (m *MockQuizRepository) GetByID(_ context.Context, id uint) (*entity.Quiz, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

func (m *MockQuizRepository) GetWithQuestions(_ context.Context, id uint) (*entity.Quiz, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

func (m *MockQuizRepository) ListByChapter(_ context.Context, chapterID uint) ([]entity.Quiz, error) {
	args := m.Called(chapterID)
	return args.Get(0).([]entity.Quiz), args.Error(1)
}

func (m *MockQuizRepository) List(_ context.Context) ([]entity.Quiz, error) {
	args := m.Called()
	return args.Get(0).([]entity.Quiz), args.Error(1)
}

func (m *MockQuizRepository) Update(_ context.Context, quiz *entity.Quiz) error {
	return m.Called(quiz).Error(0)
}

func (m *MockQuizRepository) Delete(_ context.Context, id uint) error {
	return m.Called(id).Error(0)
}

func (m *MockQuizRepository) Count(_ context.Context) (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuizRepository) Search(_ context.Context, term string, limit int) ([]entity.Quiz, error) {
	args := m.Called(term, limit)
	return args.Get(0).([]entity.Quiz), args.Error(1)
}

// MockQuestionRepository реализует repository.QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) Create(_ context.Context, question *entity.Question) error {
	return m.Called(question).Error(0)
}

func (m *MockQuestionRepository) GetByID(_ context.Context, id uint) (*entity.Question, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetByQuizID(_ context.Context, quizID uint) ([]entity.Question, error) {
	args := m.Called(quizID)
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) Update(_ context.Context, question *entity.Question) error {
	return m.Called(question).Error(0)
}

func (m *MockQuestionRepository) Delete(_ context.Context, id uint) error {
	return m.Called(id).Error(0)
}

func (m *MockQuestionRepository) Count(_ context.Context) (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuestionRepository) Search(_ context.Context, term string, limit int) ([]entity.Question, error) {
	args := m.Called(term, limit)
	return args.Get(0).([]entity.Question), args.Error(1)
}

// MockScoreRepository реализует repository.ScoreRepository
type MockScoreRepository struct {
	mock.Mock
}

func (m *MockScoreRepository) Create(_ context.Context, score *entity.Score) error {
	return m.Called(score).Error(0)
}

func (m *MockScoreRepository) GetByID(_ context.Context, id uint) (*entity.Score, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Score), args.Error(1)
}

func (m *MockScoreRepository) GetUserScore(_ context.Context, userID, quizID uint) (*entity.Score, error) {
	args := m.Called(userID, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Score), args.Error(1)
}

func (m *MockScoreRepository) ListByUser(_ context.Context, userID uint, ascending bool) ([]entity.Score, error) {
	args := m.Called(userID, ascending)
	return args.Get(0).([]entity.Score), args.Error(1)
}

func (m *MockScoreRepository) ListByQuiz(_ context.Context, quizID uint) ([]entity.Score, error) {
	args := m.Called(quizID)
	return args.Get(0).([]entity.Score), args.Error(1)
}

func (m *MockScoreRepository) ListAll(_ context.Context) ([]entity.Score, error) {
	args := m.Called()
	return args.Get(0).([]entity.Score), args.Error(1)
}

func (m *MockScoreRepository) QuizTotals(_ context.Context) ([]repository.QuizScoreTotal, error) {
	args := m.Called()
	return args.Get(0).([]repository.QuizScoreTotal), args.Error(1)
}

// MockAvatarStorage реализует AvatarStorage
type MockAvatarStorage struct {
	mock.Mock
}

func (m *MockAvatarStorage) Save(file *multipart.FileHeader) (string, error) {
	args := m.Called(file)
	return args.String(0), args.Error(1)
}

func (m *MockAvatarStorage) Delete(name string) bool {
	return m.Called(name).Bool(0)
}

// MockMailer реализует Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendWelcome(_ context.Context, toEmail, fullName string) error {
	return m.Called(toEmail, fullName).Error(0)
}

// fixedClock часы, всегда возвращающие t
func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
