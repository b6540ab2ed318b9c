package manager

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/logger"
	apperrors "github.com/yourusername/quiz-master/internal/pkg/errors"
	"github.com/yourusername/quiz-master/pkg/auth"
)

// Константы для настройки сессий
const (
	// Имя cookie с токеном сессии
	SessionCookie = "session"
	// Имя cookie для CSRF секрета (HttpOnly). Префикс __Host- используется только при Secure.
	CSRFSecretCookie = "__Host-csrf-secret"
	// Имя поля формы с CSRF токеном (хешем секрета)
	CSRFFormField = "csrf_token"
	// Имя заголовка для CSRF токена (для fetch-запросов)
	CSRFHeader = "X-CSRF-Token"

	csrfSecretBytes = 32
)

// Session выданная сессия
type Session struct {
	Token      string
	CSRFSecret string
	ExpiresAt  time.Time
	Persistent bool
}

// CSRFToken возвращает значение для скрытого поля формы
func (s *Session) CSRFToken() string {
	return HashCSRFSecret(s.CSRFSecret)
}

// TokenManager выдает сессии и управляет cookie
type TokenManager struct {
	jwtService  *auth.JWTService
	sessionTTL  time.Duration
	rememberTTL time.Duration
	log         *logger.Logger

	// Настройки для Cookie
	cookiePath     string
	cookieDomain   string
	cookieSecure   bool
	cookieSameSite http.SameSite
}

// NewTokenManager создает менеджер сессий
func NewTokenManager(jwtService *auth.JWTService, sessionTTL, rememberTTL time.Duration, log *logger.Logger) *TokenManager {
	if log == nil {
		log = logger.NewNop()
	}
	return &TokenManager{
		jwtService:     jwtService,
		sessionTTL:     sessionTTL,
		rememberTTL:    rememberTTL,
		log:            log.Component("TokenManager"),
		cookiePath:     "/",
		cookieSameSite: http.SameSiteLaxMode,
	}
}

// SetCookieAttributes задает атрибуты cookie
func (m *TokenManager) SetCookieAttributes(path, domain string, secure bool, sameSite http.SameSite) {
	m.cookiePath = path
	m.cookieDomain = domain
	m.cookieSecure = secure
	m.cookieSameSite = sameSite
}

// IssueSession выпускает токен сессии с новым CSRF секретом и выставляет обе cookie.
// remember делает cookie постоянными на rememberTTL, иначе cookie живут до закрытия браузера.
func (m *TokenManager) IssueSession(w http.ResponseWriter, user *entity.User, remember bool) (*Session, error) {
	secret, err := GenerateCSRFSecret()
	if err != nil {
		return nil, err
	}

	ttl := m.sessionTTL
	if remember {
		ttl = m.rememberTTL
	}

	token, expiresAt, err := m.jwtService.GenerateToken(user, secret, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	maxAge := 0
	if remember {
		maxAge = int(ttl.Seconds())
	}
	m.setCookie(w, SessionCookie, token, maxAge)
	m.setCookie(w, m.csrfCookieName(), secret, maxAge)

	m.log.Debug("Session issued", "user_id", user.ID, "remember", remember)
	return &Session{Token: token, CSRFSecret: secret, ExpiresAt: expiresAt, Persistent: remember}, nil
}

// GetSessionFromCookie получает токен сессии из cookie
func (m *TokenManager) GetSessionFromCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return "", fmt.Errorf("%w: session cookie not found", apperrors.ErrUnauthorized)
	}
	return cookie.Value, nil
}

// GetCSRFSecretFromCookie получает CSRF секрет, с префиксом __Host- или без него
func (m *TokenManager) GetCSRFSecretFromCookie(r *http.Request) (string, error) {
	for _, name := range []string{CSRFSecretCookie, strings.TrimPrefix(CSRFSecretCookie, "__Host-")} {
		cookie, err := r.Cookie(name)
		if err == nil && cookie.Value != "" {
			return cookie.Value, nil
		}
		if err != nil && !errors.Is(err, http.ErrNoCookie) {
			return "", fmt.Errorf("%w: %v", apperrors.ErrForbidden, err)
		}
	}
	return "", fmt.Errorf("%w: csrf secret cookie not found", apperrors.ErrForbidden)
}

// EnsureCSRFSecret возвращает CSRF секрет из cookie, а при его отсутствии выпускает новый
// на время сессии браузера. Нужен анонимным формам (вход, регистрация).
func (m *TokenManager) EnsureCSRFSecret(w http.ResponseWriter, r *http.Request) (string, error) {
	if secret, err := m.GetCSRFSecretFromCookie(r); err == nil {
		return secret, nil
	}
	secret, err := GenerateCSRFSecret()
	if err != nil {
		return "", err
	}
	m.setCookie(w, m.csrfCookieName(), secret, 0)
	return secret, nil
}

// ClearSessionCookies удаляет cookie сессии и CSRF секрета
func (m *TokenManager) ClearSessionCookies(w http.ResponseWriter) {
	m.setCookie(w, SessionCookie, "", -1)
	m.setCookie(w, m.csrfCookieName(), "", -1)
}

func (m *TokenManager) csrfCookieName() string {
	if !m.cookieSecure {
		// __Host- требует Secure=true
		return strings.TrimPrefix(CSRFSecretCookie, "__Host-")
	}
	return CSRFSecretCookie
}

func (m *TokenManager) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	domain := m.cookieDomain
	if strings.HasPrefix(name, "__Host-") {
		domain = ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.cookiePath,
		Domain:   domain,
		HttpOnly: true,
		Secure:   m.cookieSecure,
		SameSite: m.cookieSameSite,
		MaxAge:   maxAge,
	})
}

// GenerateCSRFSecret генерирует случайный секрет в hex формате
func GenerateCSRFSecret() (string, error) {
	b := make([]byte, csrfSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate csrf secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashCSRFSecret хеширует CSRF секрет с использованием SHA-256
func HashCSRFSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// ValidCSRFToken сравнивает присланный токен с хешем секрета за постоянное время
func ValidCSRFToken(secret, token string) bool {
	if secret == "" || token == "" {
		return false
	}
	expected := HashCSRFSecret(secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1
}
