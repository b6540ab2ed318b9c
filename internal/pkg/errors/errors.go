package errors

import "errors"

// Общие ошибки приложения. Сервисы оборачивают их через fmt.Errorf("%w: ..."),
// хендлеры сопоставляют их с HTTP-ответами через errors.Is.
var (
	// ErrNotFound: запись не найдена (404 для админских edit/delete).
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized: нет сессии или неверные учетные данные.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden: пользователь аутентифицирован, но прав недостаточно.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation: ошибка валидации входных данных формы.
	ErrValidation = errors.New("validation failed")

	// ErrExpiredToken: сессионный токен истек или отозван.
	ErrExpiredToken = errors.New("token is expired")

	// ErrConflict: нарушение уникальности (username/email, повторная попытка и т.п.).
	ErrConflict = errors.New("resource state conflict")
)
