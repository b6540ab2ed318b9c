package middleware

import (
	"errors"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultMaxUploadSize лимит файла, если размер не задан конфигурацией
	DefaultMaxUploadSize int64 = 2 << 20
	// formOverhead запас на текстовые поля и границы multipart сверх лимита файла
	formOverhead int64 = 64 << 10

	tooLargeMessage = "File is too large."
)

// LimitBody ограничивает размер тела запроса лимитом загрузки плюс запас на поля формы.
// Объявленный Content-Length сверх лимита отклоняется до чтения тела, остальное
// читается через http.MaxBytesReader. Форма разбирается здесь же, чтобы превышение
// лимита давало 413, а не терялось внутри c.PostForm.
func LimitBody(maxUpload int64) gin.HandlerFunc {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadSize
	}
	limit := maxUpload + formOverhead

	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			AbortWithError(c, http.StatusRequestEntityTooLarge, tooLargeMessage)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

		if IsBodyTooLarge(parseForm(c.Request, maxUpload)) {
			AbortWithError(c, http.StatusRequestEntityTooLarge, tooLargeMessage)
			return
		}
		c.Next()
	}
}

// IsBodyTooLarge сообщает, что чтение тела уперлось в лимит LimitBody
func IsBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// parseForm разбирает формы заранее, остальные типы тела оставляет обработчику
func parseForm(r *http.Request, maxMemory int64) error {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil
	}
	switch mediaType {
	case "multipart/form-data":
		return r.ParseMultipartForm(maxMemory)
	case "application/x-www-form-urlencoded":
		return r.ParseForm()
	}
	return nil
}
