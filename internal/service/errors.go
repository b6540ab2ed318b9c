package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/yourusername/quiz-master/internal/pkg/errors"
)

// Ошибки допуска к попытке. Хендлеры превращают их в редирект с flash-сообщением.
var (
	ErrQuizNotStarted   = errors.New("quiz has not started yet")
	ErrAlreadyAttempted = errors.New("quiz already attempted")
	ErrQuizExpired      = errors.New("quiz expired")
	ErrNoAttempt        = errors.New("no attempt found for this quiz")
)

// QuizNotStartedError несет время начала для сообщения "Quiz opens at ..."
type QuizNotStartedError struct {
	StartTime time.Time
}

func (e *QuizNotStartedError) Error() string {
	return fmt.Sprintf("%s: opens at %s", ErrQuizNotStarted, e.StartTime.Format(time.RFC3339))
}

// Is позволяет errors.Is(err, ErrQuizNotStarted)
func (e *QuizNotStartedError) Is(target error) bool {
	return target == ErrQuizNotStarted
}

// ValidationError ошибки полей формы: поле -> сообщение.
// errors.Is(err, apperrors.ErrValidation) == true.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError создает пустую ошибку валидации
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add добавляет сообщение для поля. Первое сообщение для поля сохраняется.
func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors true, если есть хотя бы одно сообщение
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil возвращает nil для пустой ошибки, чтобы не вернуть ненулевой интерфейс
func (e *ValidationError) OrNil() error {
	if e == nil || !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", apperrors.ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrValidation
}

// fieldError короткий путь для одиночной ошибки поля
func fieldError(field, message string) error {
	ve := NewValidationError()
	ve.Add(field, message)
	return ve
}
