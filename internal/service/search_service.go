package service

import (
	"context"
	"strings"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/domain/repository"
	"github.com/yourusername/quiz-master/internal/logger"
	"github.com/yourusername/quiz-master/pkg/auth"
)

// SearchResults результаты поиска. Users и Questions заполняются только для администратора.
type SearchResults struct {
	Term      string
	Empty     bool
	Full      bool
	Users     []entity.User
	Subjects  []entity.Subject
	Quizzes   []entity.Quiz
	Questions []entity.Question
}

// SearchService поиск по подстроке без учета регистра
type SearchService struct {
	userRepo     repository.UserRepository
	subjectRepo  repository.SubjectRepository
	quizRepo     repository.QuizRepository
	questionRepo repository.QuestionRepository
	limit        int
	log          *logger.Logger
}

// NewSearchService создает новый сервис поиска. limit <= 0 означает значение репозитория по умолчанию.
func NewSearchService(
	userRepo repository.UserRepository,
	subjectRepo repository.SubjectRepository,
	quizRepo repository.QuizRepository,
	questionRepo repository.QuestionRepository,
	limit int,
	log *logger.Logger,
) *SearchService {
	return &SearchService{
		userRepo:     userRepo,
		subjectRepo:  subjectRepo,
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		limit:        limit,
		log:          log.Component("SearchService"),
	}
}

// Search ищет предметы и викторины, а администратору еще пользователей и вопросы.
// Пустой запрос дает пустой результат.
func (s *SearchService) Search(ctx context.Context, id auth.Identity, term string) (*SearchResults, error) {
	term = strings.TrimSpace(term)
	res := &SearchResults{Term: term, Full: id.IsAdmin}
	if term == "" {
		res.Empty = true
		return res, nil
	}

	var err error
	if res.Subjects, err = s.subjectRepo.Search(ctx, term, s.limit); err != nil {
		return nil, err
	}
	if res.Quizzes, err = s.quizRepo.Search(ctx, term, s.limit); err != nil {
		return nil, err
	}
	if id.IsAdmin {
		if res.Users, err = s.userRepo.Search(ctx, term, s.limit); err != nil {
			return nil, err
		}
		if res.Questions, err = s.questionRepo.Search(ctx, term, s.limit); err != nil {
			return nil, err
		}
	}
	s.log.Debug("Search done", "user_id", id.UserID, "admin", id.IsAdmin, "subjects", len(res.Subjects), "quizzes", len(res.Quizzes))
	return res, nil
}
