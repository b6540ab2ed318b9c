package entity

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// QuizStatus вычисляемый статус викторины. В базе не хранится.
type QuizStatus string

// Константы статусов викторины
const (
	QuizStatusUpcoming QuizStatus = "Upcoming"
	QuizStatusActive   QuizStatus = "Active"
	QuizStatusEnded    QuizStatus = "Ended"
)

// ErrInvalidDuration возвращается, если длительность не в формате HH:MM.
var ErrInvalidDuration = errors.New("duration must be in HH:MM format")

var durationPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

// Quiz представляет викторину
type Quiz struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	QuizName  string     `gorm:"size:100;not null" json:"quiz_name"`
	StartTime time.Time  `gorm:"not null;index" json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Duration  int        `gorm:"not null" json:"duration"` // минуты
	Remarks   string     `gorm:"type:text;not null;default:''" json:"remarks"`
	Active    bool       `gorm:"not null;default:true" json:"active"`
	ChapterID uint       `gorm:"not null;index" json:"chapter_id"`
	Chapter   *Chapter   `gorm:"foreignKey:ChapterID" json:"chapter,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Questions    []Question    `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	Scores       []Score       `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"-"`
	QuizAttempts []QuizAttempt `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName определяет имя таблицы для GORM
func (Quiz) TableName() string {
	return "quizzes"
}

// WindowEnd момент окончания окна попыток: start_time + duration.
func (q *Quiz) WindowEnd() time.Time {
	return q.StartTime.Add(time.Duration(q.Duration) * time.Minute)
}

// ComputedEndTime возвращает end_time, а если он не задан, start_time + duration.
func (q *Quiz) ComputedEndTime() time.Time {
	if q.EndTime != nil {
		return *q.EndTime
	}
	return q.WindowEnd()
}

// Status вычисляет статус на момент now. Конец окна включительно:
// now == start + duration еще Active.
func (q *Quiz) Status(now time.Time) QuizStatus {
	switch {
	case now.Before(q.StartTime):
		return QuizStatusUpcoming
	case now.After(q.WindowEnd()):
		return QuizStatusEnded
	default:
		return QuizStatusActive
	}
}

// IsAvailable true для Active и Upcoming, такие викторины показываются на дашборде пользователя.
func (q *Quiz) IsAvailable(now time.Time) bool {
	return q.Status(now) != QuizStatusEnded
}

// SyncEndTime выставляет end_time = start_time + duration.
func (q *Quiz) SyncEndTime() {
	end := q.WindowEnd()
	q.EndTime = &end
}

// DurationHHMM форматирует длительность для формы редактирования.
func (q *Quiz) DurationHHMM() string {
	return FormatDurationHHMM(q.Duration)
}

// ParseDurationHHMM переводит "HH:MM" в минуты.
func ParseDurationHHMM(s string) (int, error) {
	if !durationPattern.MatchString(s) {
		return 0, ErrInvalidDuration
	}
	hh, _ := strconv.Atoi(s[:2])
	mm, _ := strconv.Atoi(s[3:])
	if mm > 59 {
		return 0, fmt.Errorf("%w: minutes must be below 60", ErrInvalidDuration)
	}
	total := hh*60 + mm
	if total <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive", ErrInvalidDuration)
	}
	return total, nil
}

// FormatDurationHHMM переводит минуты в "HH:MM".
func FormatDurationHHMM(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
