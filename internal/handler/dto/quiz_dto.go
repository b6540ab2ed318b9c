package dto

import (
	"time"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/service"
)

// SubjectResponse предмет в результатах поиска
type SubjectResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// QuizResponse викторина в результатах поиска
type QuizResponse struct {
	ID       uint   `json:"id"`
	QuizName string `json:"quiz_name"`
}

// QuestionResponse вопрос в результатах поиска. Правильный вариант не раскрывается.
type QuestionResponse struct {
	ID        uint   `json:"id"`
	Statement string `json:"question_statement"`
	QuizID    uint   `json:"quiz_id"`
}

// QuizAnalyticsResponse данные графика попыток и средних баллов
type QuizAnalyticsResponse struct {
	Labels        []string  `json:"labels"`
	Attempts      []int     `json:"attempts"`
	AverageScores []float64 `json:"average_scores"`
}

// QuestionStatResponse доля верных ответов на вопрос
type QuestionStatResponse struct {
	QuestionID        uint    `json:"question_id"`
	CorrectPercentage float64 `json:"correct_percentage"`
}

// UserPerformanceResponse история баллов пользователя
type UserPerformanceResponse struct {
	Labels     []string `json:"labels"`
	Scores     []int    `json:"scores"`
	Timestamps []string `json:"timestamps"`
}

// NewSubjectList создает DTO для списка предметов
func NewSubjectList(subjects []entity.Subject) []SubjectResponse {
	out := make([]SubjectResponse, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, SubjectResponse{ID: s.ID, Name: s.Name, Description: s.Description})
	}
	return out
}

// NewQuizList создает DTO для списка викторин
func NewQuizList(quizzes []entity.Quiz) []QuizResponse {
	out := make([]QuizResponse, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, QuizResponse{ID: q.ID, QuizName: q.QuizName})
	}
	return out
}

// NewQuestionList создает DTO для списка вопросов
func NewQuestionList(questions []entity.Question) []QuestionResponse {
	out := make([]QuestionResponse, 0, len(questions))
	for _, q := range questions {
		out = append(out, QuestionResponse{ID: q.ID, Statement: q.Statement, QuizID: q.QuizID})
	}
	return out
}

// NewQuizAnalyticsResponse создает DTO аналитики викторин
func NewQuizAnalyticsResponse(a *service.QuizAnalytics) QuizAnalyticsResponse {
	return QuizAnalyticsResponse{
		Labels:        nonNil(a.Labels),
		Attempts:      nonNil(a.Attempts),
		AverageScores: nonNil(a.AverageScores),
	}
}

// NewQuestionStatsResponse создает DTO статистики по вопросам
func NewQuestionStatsResponse(stats []service.QuestionStat) []QuestionStatResponse {
	out := make([]QuestionStatResponse, 0, len(stats))
	for _, s := range stats {
		out = append(out, QuestionStatResponse{QuestionID: s.QuestionID, CorrectPercentage: s.CorrectPercentage})
	}
	return out
}

// NewUserPerformanceResponse создает DTO истории баллов. Метки времени
// выводятся в ISO 8601 в часовом поясе приложения.
func NewUserPerformanceResponse(p *service.UserPerformance, loc *time.Location) UserPerformanceResponse {
	timestamps := make([]string, 0, len(p.Timestamps))
	for _, ts := range p.Timestamps {
		timestamps = append(timestamps, ts.In(loc).Format(time.RFC3339))
	}
	return UserPerformanceResponse{
		Labels:     nonNil(p.Labels),
		Scores:     nonNil(p.Scores),
		Timestamps: timestamps,
	}
}

// nonNil заменяет nil на пустой срез, чтобы в JSON был [] вместо null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
