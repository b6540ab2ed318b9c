package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-master/internal/logger"
	apperrors "github.com/yourusername/quiz-master/internal/pkg/errors"
	"github.com/yourusername/quiz-master/pkg/auth"
	"github.com/yourusername/quiz-master/pkg/auth/manager"
)

// Ключи контекста gin
const (
	sessionClaimsKey = "session_claims"
	csrfTokenKey     = "csrf_token"
)

// Адреса входа для редиректа анонимных пользователей
const (
	LoginPath      = "/login"
	AdminLoginPath = "/admin/login"
)

// SessionResolver проверяет токен сессии и возвращает личность пользователя
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*auth.SessionClaims, auth.Identity, error)
}

// AuthMiddleware обеспечивает аутентификацию для защищенных маршрутов
type AuthMiddleware struct {
	sessions     SessionResolver
	tokenManager *manager.TokenManager
	log          *logger.Logger
}

// NewAuthMiddleware создает middleware аутентификации
func NewAuthMiddleware(sessions SessionResolver, tokenManager *manager.TokenManager, log *logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		sessions:     sessions,
		tokenManager: tokenManager,
		log:          log.Component("AuthMiddleware"),
	}
}

// LoadSession определяет пользователя по cookie сессии и кладет auth.Identity
// в контекст запроса. Без cookie запрос остается анонимным. Недействительная
// сессия удаляет cookie.
func (m *AuthMiddleware) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := m.tokenManager.GetSessionFromCookie(c.Request)
		if err != nil {
			c.Next()
			return
		}

		claims, identity, err := m.sessions.ResolveSession(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, apperrors.ErrExpiredToken) || errors.Is(err, apperrors.ErrUnauthorized) {
				m.log.Debug("Dropping invalid session", "path", c.Request.URL.Path, "error", err)
			} else {
				m.log.Warn("Session lookup failed", "path", c.Request.URL.Path, "error", err)
			}
			m.tokenManager.ClearSessionCookies(c.Writer)
			c.Next()
			return
		}

		c.Set(sessionClaimsKey, claims)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// RequireLogin пропускает только вошедших пользователей. Анонимная HTML-страница
// перенаправляется на /login, анонимный API-запрос получает 401.
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Identity(c); !ok {
			m.rejectAnonymous(c, LoginPath)
			return
		}
		c.Next()
	}
}

// AdminOnly пропускает только администраторов; вошедший не-администратор получает 403
func (m *AuthMiddleware) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := Identity(c)
		if !ok {
			m.rejectAnonymous(c, AdminLoginPath)
			return
		}
		if !id.IsAdmin {
			m.log.Warn("Admin route denied", "user_id", id.UserID, "path", c.Request.URL.Path)
			AbortWithError(c, http.StatusForbidden, "Admin rights required")
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) rejectAnonymous(c *gin.Context, loginPath string) {
	if WantsJSON(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	target := loginPath
	if c.Request.Method == http.MethodGet {
		target += "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
	}
	c.Redirect(http.StatusFound, target)
	c.Abort()
}

// RequireCSRF реализует Double Submit Cookie. Для безопасных методов гарантирует
// наличие секрета в cookie и публикует токен для форм. Для остальных сверяет
// csrf_token из формы (или заголовка X-CSRF-Token) с хешем секрета из cookie,
// а у вошедшего пользователя еще и секрет cookie с секретом в JWT.
func (m *AuthMiddleware) RequireCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			secret, err := m.tokenManager.EnsureCSRFSecret(c.Writer, c.Request)
			if err != nil {
				m.log.Error("Failed to issue CSRF secret", "error", err)
				AbortWithError(c, http.StatusInternalServerError, "Something went wrong")
				return
			}
			c.Set(csrfTokenKey, manager.HashCSRFSecret(secret))
			c.Next()
			return
		}

		secret, err := m.tokenManager.GetCSRFSecretFromCookie(c.Request)
		if err != nil {
			m.log.Warn("CSRF secret cookie missing", "path", c.Request.URL.Path)
			AbortWithError(c, http.StatusForbidden, "The CSRF token is missing.")
			return
		}
		if claims, ok := SessionClaims(c); ok && claims.CSRFSecret != secret {
			m.log.Warn("CSRF secret mismatch (cookie vs token)", "user_id", claims.UserID, "path", c.Request.URL.Path)
			AbortWithError(c, http.StatusForbidden, "The CSRF tokens do not match.")
			return
		}

		token := c.GetHeader(manager.CSRFHeader)
		if token == "" {
			token = c.PostForm(manager.CSRFFormField)
		}
		if !manager.ValidCSRFToken(secret, token) {
			m.log.Warn("Invalid CSRF token", "path", c.Request.URL.Path)
			AbortWithError(c, http.StatusForbidden, "The CSRF token is invalid.")
			return
		}
		c.Set(csrfTokenKey, token)
		c.Next()
	}
}

// Identity возвращает личность текущего пользователя запроса
func Identity(c *gin.Context) (auth.Identity, bool) {
	return auth.IdentityFromContext(c.Request.Context())
}

// SessionClaims возвращает claims текущей сессии
func SessionClaims(c *gin.Context) (*auth.SessionClaims, bool) {
	v, ok := c.Get(sessionClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.SessionClaims)
	return claims, ok
}

// CSRFToken возвращает токен для скрытого поля csrf_token
func CSRFToken(c *gin.Context) string {
	return c.GetString(csrfTokenKey)
}

// WantsJSON true для API-маршрутов и запросов, ожидающих JSON
func WantsJSON(c *gin.Context) bool {
	path := c.Request.URL.Path
	if strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/stats/") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// AbortWithError прерывает запрос с ошибкой в формате, который ожидает клиент
func AbortWithError(c *gin.Context, status int, message string) {
	if WantsJSON(c) {
		c.AbortWithStatusJSON(status, gin.H{"error": message})
		return
	}
	c.Abort()
	c.Data(status, "text/plain; charset=utf-8", []byte(message))
}
