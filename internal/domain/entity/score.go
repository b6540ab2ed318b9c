package entity

import (
	"time"
)

// Score представляет итоговый результат попытки пользователя.
// Пара (user_id, quiz_id) уникальна: повторная попытка отклоняется на уровне БД.
type Score struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TotalScored int       `gorm:"not null;default:0" json:"total_scored"`
	TimeStamp   time.Time `gorm:"column:time_stamp_of_attempt;not null" json:"time_stamp_of_attempt"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_scores_user_quiz" json:"user_id"`
	QuizID      uint      `gorm:"not null;uniqueIndex:idx_scores_user_quiz;index" json:"quiz_id"`
	Answers     Answers   `gorm:"column:answers" json:"answers"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Quiz *Quiz `gorm:"foreignKey:QuizID" json:"quiz,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (Score) TableName() string {
	return "scores"
}

// CalculateScore считает количество вопросов, для которых answers[q.ID] == q.CorrectOption.
// Вопросы без ответа дают 0. Результат в диапазоне [0, len(questions)].
func CalculateScore(questions []Question, answers Answers) int {
	total := 0
	for i := range questions {
		if opt, ok := answers[questions[i].ID]; ok && questions[i].IsCorrect(opt) {
			total++
		}
	}
	return total
}

// QuizAttempt запись о начале попытки. Таблица сохранена в схеме и участвует в каскадах,
// но ни допуск к попытке, ни подсчет баллов ее не используют.
type QuizAttempt struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	QuizID      uint      `gorm:"not null;index" json:"quiz_id"`
	AttemptTime time.Time `gorm:"not null" json:"attempt_time"`
}

// TableName определяет имя таблицы для GORM
func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
