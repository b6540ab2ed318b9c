package entity

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User представляет пользователя в системе
type User struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Username      string          `gorm:"size:100;not null;uniqueIndex" json:"username"`
	Email         string          `gorm:"size:120;not null;uniqueIndex" json:"email"`
	Password      string          `gorm:"column:password_hash;size:128;not null" json:"-"`
	FullName      string          `gorm:"size:100;not null" json:"full_name"`
	Qualification string          `gorm:"size:100;not null;default:''" json:"qualification"`
	DOB           *datatypes.Date `gorm:"column:dob" json:"dob,omitempty"`
	Bio           string          `gorm:"type:text;not null;default:''" json:"bio"`
	Location      string          `gorm:"size:100;not null;default:''" json:"location"`
	Avatar        string          `gorm:"size:255;not null;default:''" json:"avatar"`
	Website       string          `gorm:"size:200;not null;default:''" json:"website"`
	IsAdmin       bool            `gorm:"not null;default:false" json:"is_admin"`
	IsActive      bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	LastSeen      time.Time       `json:"last_seen"`

	Scores       []Score       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	QuizAttempts []QuizAttempt `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// BeforeSave хеширует пароль перед сохранением, только если он не является bcrypt-хешем
func (u *User) BeforeSave(tx *gorm.DB) error {
	if len(u.Password) > 0 && !isBcryptHash(u.Password) {
		hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hashed)
	}
	return nil
}

// CheckPassword проверяет, соответствует ли переданный пароль хешу
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// DOBTime возвращает дату рождения как time.Time (nil если не указана)
func (u *User) DOBTime() *time.Time {
	if u.DOB == nil {
		return nil
	}
	t := time.Time(*u.DOB)
	return &t
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
