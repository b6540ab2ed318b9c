package entity

import "time"

// Subject предмет. Имя по соглашению уникально, проверяется сервисом при создании.
type Subject struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;index" json:"name"`
	Description string    `gorm:"type:text;not null;default:''" json:"description"`
	Chapters    []Chapter `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"chapters,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Subject) TableName() string {
	return "subjects"
}

// Chapter глава внутри предмета
type Chapter struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;index" json:"name"`
	Description string    `gorm:"type:text;not null;default:''" json:"description"`
	SubjectID   uint      `gorm:"not null;index" json:"subject_id"`
	Subject     *Subject  `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
	Quizzes     []Quiz    `gorm:"foreignKey:ChapterID;constraint:OnDelete:CASCADE" json:"quizzes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Chapter) TableName() string {
	return "chapters"
}
