package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/domain/repository"
	"github.com/yourusername/quiz-master/internal/logger"
)

// Clock источник текущего времени
type Clock func() time.Time

// QuizInput данные формы викторины. StartTime в формате datetime-local
// интерпретируется в часовом поясе приложения.
type QuizInput struct {
	QuizName  string `form:"quiz_name" validate:"required,max=100"`
	StartTime string `form:"start_time" validate:"required"`
	Duration  string `form:"duration" validate:"required"`
	Remarks   string `form:"remarks" validate:"max=1000"`
}

// QuestionInput данные формы вопроса
type QuestionInput struct {
	Statement     string `form:"question_statement" validate:"required,max=500"`
	Option1       string `form:"option1" validate:"required,max=200"`
	Option2       string `form:"option2" validate:"required,max=200"`
	Option3       string `form:"option3" validate:"max=200"`
	Option4       string `form:"option4" validate:"max=200"`
	CorrectOption int    `form:"correct_option" validate:"required,min=1,max=4"`
}

// QuizService предоставляет методы для работы с викторинами
type QuizService struct {
	quizRepo    repository.QuizRepository
	chapterRepo repository.ChapterRepository
	loc         *time.Location
	now         Clock
	log         *logger.Logger
}

// NewQuizService создает новый сервис викторин
func NewQuizService(
	quizRepo repository.QuizRepository,
	chapterRepo repository.ChapterRepository,
	loc *time.Location,
	now Clock,
	log *logger.Logger,
) *QuizService {
	if now == nil {
		now = time.Now
	}
	return &QuizService{
		quizRepo:    quizRepo,
		chapterRepo: chapterRepo,
		loc:         loc,
		now:         now,
		log:         log.Component("QuizService"),
	}
}

// Location часовой пояс, в котором вводятся и показываются времена викторин
func (s *QuizService) Location() *time.Location {
	return s.loc
}

// Now текущее время по часам сервиса
func (s *QuizService) Now() time.Time {
	return s.now()
}

// ListByChapter возвращает главу и ее викторины
func (s *QuizService) ListByChapter(ctx context.Context, chapterID uint) (*entity.Chapter, []entity.Quiz, error) {
	chapter, err := s.chapterRepo.GetByID(ctx, chapterID)
	if err != nil {
		return nil, nil, err
	}
	quizzes, err := s.quizRepo.ListByChapter(ctx, chapterID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return chapter, quizzes, nil
}

// ListAvailable возвращает викторины в статусах Active и Upcoming
func (s *QuizService) ListAvailable(ctx context.Context) ([]entity.Quiz, error) {
	quizzes, err := s.quizRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	now := s.now()
	available := make([]entity.Quiz, 0, len(quizzes))
	for _, q := range quizzes {
		if q.IsAvailable(now) {
			available = append(available, q)
		}
	}
	return available, nil
}

// Get возвращает викторину по ID
func (s *QuizService) Get(ctx context.Context, id uint) (*entity.Quiz, error) {
	return s.quizRepo.GetByID(ctx, id)
}

// GetWithQuestions возвращает викторину вместе с вопросами
func (s *QuizService) GetWithQuestions(ctx context.Context, id uint) (*entity.Quiz, error) {
	return s.quizRepo.GetWithQuestions(ctx, id)
}

// Create создает викторину в главе
func (s *QuizService) Create(ctx context.Context, chapterID uint, in QuizInput) (*entity.Quiz, error) {
	start, minutes, err := s.parseQuizInput(&in)
	if err != nil {
		return nil, err
	}
	if _, err := s.chapterRepo.GetByID(ctx, chapterID); err != nil {
		return nil, err
	}

	quiz := &entity.Quiz{
		QuizName:  in.QuizName,
		StartTime: start,
		Duration:  minutes,
		Remarks:   in.Remarks,
		Active:    true,
		ChapterID: chapterID,
	}
	quiz.SyncEndTime()

	if err := s.quizRepo.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}
	s.log.Info("Quiz created", "quiz_id", quiz.ID, "chapter_id", chapterID, "start", quiz.StartTime, "duration", quiz.Duration)
	return quiz, nil
}

// Update изменяет викторину. Глава не меняется.
func (s *QuizService) Update(ctx context.Context, id uint, in QuizInput) (*entity.Quiz, error) {
	start, minutes, err := s.parseQuizInput(&in)
	if err != nil {
		return nil, err
	}
	quiz, err := s.quizRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	quiz.QuizName = in.QuizName
	quiz.StartTime = start
	quiz.Duration = minutes
	quiz.Remarks = in.Remarks
	quiz.SyncEndTime()

	if err := s.quizRepo.Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}
	return quiz, nil
}

// Delete удаляет викторину каскадно и возвращает удаленную викторину
func (s *QuizService) Delete(ctx context.Context, id uint) (*entity.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.quizRepo.Delete(ctx, id); err != nil {
		s.log.Error("Quiz delete failed", "quiz_id", id, "error", err)
		return nil, fmt.Errorf("failed to delete quiz: %w", err)
	}
	s.log.Info("Quiz deleted", "quiz_id", id)
	return quiz, nil
}

func (s *QuizService) parseQuizInput(in *QuizInput) (time.Time, int, error) {
	trimAll(in)
	ve := NewValidationError()
	if err := validateStruct(*in); err != nil {
		fieldErrs, ok := err.(*ValidationError)
		if !ok {
			return time.Time{}, 0, err
		}
		ve = fieldErrs
	}

	var start time.Time
	if in.StartTime != "" {
		t, err := time.ParseInLocation(datetimeLayout, in.StartTime, s.loc)
		if err != nil {
			ve.Add("start_time", "Not a valid datetime value.")
		}
		start = t
	}

	var minutes int
	if in.Duration != "" {
		m, err := entity.ParseDurationHHMM(in.Duration)
		if err != nil {
			ve.Add("duration", "Use HH:MM format")
		}
		minutes = m
	}

	if err := ve.OrNil(); err != nil {
		return time.Time{}, 0, err
	}
	return start, minutes, nil
}

// QuestionService предоставляет методы для работы с вопросами
type QuestionService struct {
	questionRepo repository.QuestionRepository
	quizRepo     repository.QuizRepository
	log          *logger.Logger
}

// NewQuestionService создает новый сервис вопросов
func NewQuestionService(questionRepo repository.QuestionRepository, quizRepo repository.QuizRepository, log *logger.Logger) *QuestionService {
	return &QuestionService{questionRepo: questionRepo, quizRepo: quizRepo, log: log.Component("QuestionService")}
}

// ListByQuiz возвращает викторину и ее вопросы
func (s *QuestionService) ListByQuiz(ctx context.Context, quizID uint) (*entity.Quiz, []entity.Question, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	questions, err := s.questionRepo.GetByQuizID(ctx, quizID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return quiz, questions, nil
}

// Get возвращает вопрос по ID
func (s *QuestionService) Get(ctx context.Context, id uint) (*entity.Question, error) {
	return s.questionRepo.GetByID(ctx, id)
}

// Create добавляет вопрос в викторину
func (s *QuestionService) Create(ctx context.Context, quizID uint, in QuestionInput) (*entity.Question, error) {
	if err := validateQuestion(&in); err != nil {
		return nil, err
	}
	if _, err := s.quizRepo.GetByID(ctx, quizID); err != nil {
		return nil, err
	}

	question := &entity.Question{QuizID: quizID}
	applyQuestionInput(question, in)
	if err := s.questionRepo.Create(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	s.log.Info("Question created", "question_id", question.ID, "quiz_id", quizID)
	return question, nil
}

// Update изменяет вопрос
func (s *QuestionService) Update(ctx context.Context, id uint, in QuestionInput) (*entity.Question, error) {
	if err := validateQuestion(&in); err != nil {
		return nil, err
	}
	question, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyQuestionInput(question, in)
	if err := s.questionRepo.Update(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	return question, nil
}

// Delete удаляет вопрос и возвращает его (для редиректа к викторине)
func (s *QuestionService) Delete(ctx context.Context, id uint) (*entity.Question, error) {
	question, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.questionRepo.Delete(ctx, id); err != nil {
		s.log.Error("Question delete failed", "question_id", id, "error", err)
		return nil, fmt.Errorf("failed to delete question: %w", err)
	}
	return question, nil
}

// validateQuestion дополнительно требует, чтобы правильный вариант был заполнен
func validateQuestion(in *QuestionInput) error {
	trimAll(in)
	if err := validateStruct(*in); err != nil {
		return err
	}
	options := [...]string{in.Option1, in.Option2, in.Option3, in.Option4}
	if options[in.CorrectOption-1] == "" {
		return fieldError("correct_option", "Correct answer must point to a filled option.")
	}
	return nil
}

func applyQuestionInput(q *entity.Question, in QuestionInput) {
	q.Statement = in.Statement
	q.Option1 = in.Option1
	q.Option2 = in.Option2
	q.Option3 = in.Option3
	q.Option4 = in.Option4
	q.CorrectOption = in.CorrectOption
}
