package dto

import (
	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/service"
)

// UserResponse пользователь в результатах поиска администратора
type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NewUserList создает DTO для списка пользователей
func NewUserList(users []entity.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, UserResponse{ID: u.ID, Username: u.Username, Email: u.Email})
	}
	return out
}

// NewSearchResponse собирает ответ /api/search. Пустой запрос дает пустой объект,
// обычный пользователь получает subjects и quizzes, администратор еще users и questions.
func NewSearchResponse(r *service.SearchResults) map[string]interface{} {
	if r == nil || r.Empty {
		return map[string]interface{}{}
	}
	out := map[string]interface{}{
		"subjects": NewSubjectList(r.Subjects),
		"quizzes":  NewQuizList(r.Quizzes),
	}
	if r.Full {
		out["users"] = NewUserList(r.Users)
		out["questions"] = NewQuestionList(r.Questions)
	}
	return out
}
