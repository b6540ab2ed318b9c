package entity

import (
	"time"
)

// Допустимый диапазон номера варианта ответа
const (
	MinOption = 1
	MaxOption = 4
)

// QuestionOption вариант ответа с 1-based номером
type QuestionOption struct {
	Number int
	Text   string
}

// Question представляет вопрос в викторине
type Question struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	QuizID        uint      `gorm:"not null;index" json:"quiz_id"`
	Statement     string    `gorm:"column:question_statement;type:text;not null" json:"question_statement"`
	Option1       string    `gorm:"size:200;not null" json:"option1"`
	Option2       string    `gorm:"size:200;not null" json:"option2"`
	Option3       string    `gorm:"size:200;not null;default:''" json:"option3"`
	Option4       string    `gorm:"size:200;not null;default:''" json:"option4"`
	CorrectOption int       `gorm:"not null" json:"-"` // Скрыто от клиента
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsCorrect проверяет, является ли выбранный вариант правильным
func (q *Question) IsCorrect(selectedOption int) bool {
	return selectedOption == q.CorrectOption
}

// IsValidOption проверяет, что номер варианта в диапазоне 1..4
func IsValidOption(option int) bool {
	return option >= MinOption && option <= MaxOption
}

// Options возвращает непустые варианты ответа по порядку.
// option3/option4 необязательны.
func (q *Question) Options() []QuestionOption {
	all := [...]string{q.Option1, q.Option2, q.Option3, q.Option4}
	out := make([]QuestionOption, 0, len(all))
	for i, text := range all {
		if text == "" {
			continue
		}
		out = append(out, QuestionOption{Number: i + 1, Text: text})
	}
	return out
}

// OptionText возвращает текст варианта по номеру или "" если номер вне диапазона
func (q *Question) OptionText(option int) string {
	switch option {
	case 1:
		return q.Option1
	case 2:
		return q.Option2
	case 3:
		return q.Option3
	case 4:
		return q.Option4
	default:
		return ""
	}
}
