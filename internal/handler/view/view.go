// Package view содержит типизированные модели страниц для html/template.
package view

import (
	"time"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/service"
	"github.com/yourusername/quiz-master/pkg/auth"
)

// Категории flash-сообщений
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Flash одноразовое сообщение, показываемое на следующей странице
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// Page общие поля каждой страницы
type Page struct {
	Title     string
	User      auth.Identity
	LoggedIn  bool
	CSRFToken string
	Flashes   []Flash
	Now       time.Time
}

// Form значения и ошибки полей формы для повторного показа
type Form struct {
	Values map[string]string
	Errors map[string]string
}

// NewForm создает пустую форму
func NewForm() Form {
	return Form{Values: map[string]string{}, Errors: map[string]string{}}
}

// Value значение поля
func (f Form) Value(name string) string { return f.Values[name] }

// Error сообщение об ошибке поля
func (f Form) Error(name string) string { return f.Errors[name] }

// Home главная страница
type Home struct {
	Page
}

// Message простая страница с сообщением (ошибки 403/404/500)
type Message struct {
	Page
	Status  int
	Message string
}

// Search страница результатов поиска
type Search struct {
	Page
	Results *service.SearchResults
}

// Register страница регистрации
type Register struct {
	Page
	Form Form
}

// Login страница входа (пользователя или администратора)
type Login struct {
	Page
	Form   Form
	Action string
	Admin  bool
	Next   string
}

// AdminDashboard панель администратора
type AdminDashboard struct {
	Page
	Counts *service.DashboardCounts
}

// Users список пользователей
type Users struct {
	Page
	Users []entity.User
}

// Subjects список предметов с формой создания
type Subjects struct {
	Page
	Subjects []entity.Subject
	Form     Form
}

// SubjectEdit форма редактирования предмета
type SubjectEdit struct {
	Page
	Subject *entity.Subject
	Form    Form
}

// Chapters главы предмета с формой создания
type Chapters struct {
	Page
	Subject  *entity.Subject
	Chapters []entity.Chapter
	Form     Form
}

// ChapterEdit форма редактирования главы
type ChapterEdit struct {
	Page
	Chapter *entity.Chapter
	Form    Form
}

// Quizzes викторины главы
type Quizzes struct {
	Page
	Chapter *entity.Chapter
	Quizzes []entity.Quiz
}

// QuizForm создание или редактирование викторины
type QuizForm struct {
	Page
	Chapter *entity.Chapter
	Quiz    *entity.Quiz
	Form    Form
	Action  string
}

// Questions вопросы викторины с формой создания
type Questions struct {
	Page
	Quiz      *entity.Quiz
	Questions []entity.Question
	Form      Form
}

// QuestionEdit форма редактирования вопроса
type QuestionEdit struct {
	Page
	Question *entity.Question
	Form     Form
}

// Attempts все попытки
type Attempts struct {
	Page
	Attempts []entity.Score
}

// AttemptDetails разбор одной попытки
type AttemptDetails struct {
	Page
	Score *entity.Score
	Quiz  *entity.Quiz
}

// UserDashboard панель пользователя
type UserDashboard struct {
	Page
	Quizzes       []entity.Quiz
	Attempted     map[uint]bool
	PastScores    []entity.Score
	TotalAttempts int
	Subjects      []entity.Subject
}

// QuizAttempt страница прохождения викторины
type QuizAttempt struct {
	Page
	Quiz    *entity.Quiz
	EndTime time.Time
	IsOpen  bool
}

// Results результат попытки пользователя
type Results struct {
	Page
	Result *service.AttemptResult
}

// Summary сводка пользователя
type Summary struct {
	Page
	Summary *service.UserSummary
}

// History история попыток (страницы attempt-history и scores)
type History struct {
	Page
	Scores []entity.Score
}

// Profile страница профиля
type Profile struct {
	Page
	Profile *entity.User
	IsOwn   bool
}

// ProfileEdit форма редактирования профиля
type ProfileEdit struct {
	Page
	Profile *entity.User
	Form    Form
}

// QuizAttempts попытки одной викторины
type QuizAttempts struct {
	Page
	Quiz *entity.Quiz
	Rows []service.AttemptRow
}
