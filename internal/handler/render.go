package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/handler/view"
	"github.com/yourusername/quiz-master/internal/logger"
	"github.com/yourusername/quiz-master/internal/middleware"
	apperrors "github.com/yourusername/quiz-master/internal/pkg/errors"
	"github.com/yourusername/quiz-master/internal/service"
)

const (
	flashCookie = "flash"
	// displayLayout формат времени на страницах
	displayLayout = "02 Jan 2006, 03:04 PM"
	// formLayout формат значения поля datetime-local
	formLayout = "2006-01-02T15:04"
	maxFlashes = 5
)

// Renderer собирает общие поля страниц и отвечает HTML
type Renderer struct {
	loc *time.Location
	now service.Clock
	log *logger.Logger
}

// NewRenderer создает Renderer
func NewRenderer(loc *time.Location, now service.Clock, log *logger.Logger) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{loc: loc, now: now, log: log.Component("Renderer")}
}

// LoadTemplates разбирает все шаблоны *.html из dir с функциями для часового пояса loc
func LoadTemplates(dir string, loc *time.Location) (*template.Template, error) {
	tmpl, err := template.New("").Funcs(TemplateFuncs(loc)).ParseGlob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates in %s: %w", dir, err)
	}
	return tmpl, nil
}

// TemplateFuncs функции шаблонов. Время выводится в часовом поясе приложения.
func TemplateFuncs(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"fmtTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(loc).Format(displayLayout)
		},
		"isoTime": func(t time.Time) string { return t.In(loc).Format(time.RFC3339) },
		"status": func(q entity.Quiz, now time.Time) string {
			return string(q.Status(now))
		},
		"selected": func(a entity.Answers, questionID uint) int {
			opt, _ := a.Selected(questionID)
			return opt
		},
		"add": func(a, b int) int { return a + b },
	}
}

// Page собирает общие поля страницы и забирает накопленные flash-сообщения
func (r *Renderer) Page(c *gin.Context, title string) view.Page {
	id, ok := middleware.Identity(c)
	return view.Page{
		Title:     title,
		User:      id,
		LoggedIn:  ok,
		CSRFToken: middleware.CSRFToken(c),
		Flashes:   r.takeFlashes(c),
		Now:       r.now(),
	}
}

// HTML отвечает страницей name
func (r *Renderer) HTML(c *gin.Context, status int, name string, data interface{}) {
	c.HTML(status, name, data)
}

// Redirect отвечает 302 на location с flash-сообщением
func (r *Renderer) Redirect(c *gin.Context, location, category, message string) {
	if message != "" {
		r.AddFlash(c, category, message)
	}
	c.Redirect(http.StatusFound, location)
}

// AddFlash добавляет сообщение, которое покажется на следующей странице
func (r *Renderer) AddFlash(c *gin.Context, category, message string) {
	flashes := readFlashes(c)
	if len(flashes) >= maxFlashes {
		flashes = flashes[1:]
	}
	flashes = append(flashes, view.Flash{Category: category, Message: message})
	raw, err := json.Marshal(flashes)
	if err != nil {
		r.log.Warn("Failed to encode flash", "error", err)
		return
	}
	value := base64.RawURLEncoding.EncodeToString(raw)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, value, 0, "/", "", false, true)
	// Следующая страница в том же запросе (например, повторный показ формы) тоже видит сообщение
	c.Set(flashCookie, flashes)
}

func (r *Renderer) takeFlashes(c *gin.Context) []view.Flash {
	flashes := readFlashes(c)
	if len(flashes) > 0 {
		c.SetCookie(flashCookie, "", -1, "/", "", false, true)
		c.Set(flashCookie, []view.Flash(nil))
	}
	return flashes
}

func readFlashes(c *gin.Context) []view.Flash {
	if v, ok := c.Get(flashCookie); ok {
		flashes, _ := v.([]view.Flash)
		return flashes
	}
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var flashes []view.Flash
	if err := json.Unmarshal(data, &flashes); err != nil {
		return nil
	}
	return flashes
}

// Error отвечает страницей ошибки или JSON в зависимости от клиента
func (r *Renderer) Error(c *gin.Context, err error) {
	status, message := errorStatus(err)
	if status == http.StatusInternalServerError {
		r.log.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	}
	if status == http.StatusUnauthorized && !middleware.WantsJSON(c) {
		r.Redirect(c, middleware.LoginPath, view.FlashWarning, "Please log in to access this page.")
		return
	}
	if middleware.WantsJSON(c) {
		c.JSON(status, gin.H{"error": message})
		return
	}
	r.HTML(c, status, "message.html", view.Message{
		Page:    r.Page(c, http.StatusText(status)),
		Status:  status,
		Message: message,
	})
}

// errorStatus переводит ошибку сервиса в HTTP статус и безопасное сообщение
func errorStatus(err error) (int, string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, ve.Error()
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, reason(err, apperrors.ErrConflict)
	case errors.Is(err, apperrors.ErrUnauthorized), errors.Is(err, apperrors.ErrExpiredToken):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, reason(err, apperrors.ErrValidation)
	default:
		return http.StatusInternalServerError, "Something went wrong"
	}
}

// formFrom копирует значения полей запроса для повторного показа формы
func formFrom(c *gin.Context, fields ...string) view.Form {
	f := view.NewForm()
	for _, name := range fields {
		f.Values[name] = c.PostForm(name)
	}
	return f
}

// withErrors переносит ошибки валидации в форму. false, если err не ошибка валидации.
func withErrors(f *view.Form, err error) bool {
	var ve *service.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	for k, v := range ve.Fields {
		f.Errors[k] = v
	}
	return true
}

// reason выделяет пояснение из ошибки вида "<sentinel>: <пояснение>"
func reason(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if strings.HasPrefix(msg, prefix) {
		return strings.TrimPrefix(msg, prefix)
	}
	return msg
}
