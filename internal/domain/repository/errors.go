package repository

import "errors"

var (
	// ErrDuplicateScore означает, что у пользователя уже есть результат по этой викторине
	// (нарушение уникального индекса idx_scores_user_quiz).
	ErrDuplicateScore = errors.New("score already exists for this user and quiz")
)
