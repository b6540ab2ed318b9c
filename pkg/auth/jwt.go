package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/yourusername/quiz-master/internal/domain/entity"
	"github.com/yourusername/quiz-master/internal/domain/repository"
	"github.com/yourusername/quiz-master/internal/logger"
	apperrors "github.com/yourusername/quiz-master/internal/pkg/errors"
)

const (
	// Issuer издатель сессионных токенов
	Issuer = "quiz-master"
	// revokedKeyPrefix префикс ключей отозванных сессий в кеше
	revokedKeyPrefix = "session:revoked:"
)

// SessionClaims содержит поля сессионного токена
type SessionClaims struct {
	UserID     uint   `json:"user_id"`
	Username   string `json:"username"`
	IsAdmin    bool   `json:"is_admin"`
	CSRFSecret string `json:"csrf_secret,omitempty"`
	jwt.RegisteredClaims
}

// Identity возвращает личность пользователя из claims
func (c *SessionClaims) Identity() Identity {
	return Identity{UserID: c.UserID, Username: c.Username, IsAdmin: c.IsAdmin}
}

// JWTService подписывает и проверяет сессионные токены (HS256).
// Если задан кеш, отозванные при logout сессии хранятся в нем до истечения срока токена.
type JWTService struct {
	secret []byte
	cache  repository.CacheRepository
	log    *logger.Logger
	now    func() time.Time
}

// NewJWTService создает новый сервис JWT. cache может быть nil, тогда отзыв сессий не поддерживается.
func NewJWTService(secret string, cache repository.CacheRepository, log *logger.Logger) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("secret key is required for JWTService")
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &JWTService{
		secret: []byte(secret),
		cache:  cache,
		log:    log.Component("JWT"),
		now:    time.Now,
	}, nil
}

// SetClock подменяет источник времени (используется в тестах)
func (s *JWTService) SetClock(now func() time.Time) {
	s.now = now
}

// GenerateToken выпускает токен сессии на ttl. Возвращает токен и момент его истечения.
func (s *JWTService) GenerateToken(user *entity.User, csrfSecret string, ttl time.Duration) (string, time.Time, error) {
	if csrfSecret == "" {
		return "", time.Time{}, errors.New("CSRF secret cannot be empty for session tokens")
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(ttl)
	claims := &SessionClaims{
		UserID:     user.ID,
		Username:   user.Username,
		IsAdmin:    user.IsAdmin,
		CSRFSecret: csrfSecret,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Issuer:    Issuer,
			Subject:   fmt.Sprintf("%d", user.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		s.log.Error("Failed to sign session token", "user_id", user.ID, "error", err)
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken проверяет подпись, срок действия и отзыв токена.
// Истекший токен дает apperrors.ErrExpiredToken, любой другой дефект apperrors.ErrUnauthorized.
func (s *JWTService) ParseToken(ctx context.Context, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}, SkipClaimsValidation: true}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid session token", apperrors.ErrUnauthorized)
	}

	// Срок проверяется по часам сервиса, а не по глобальному jwt.TimeFunc
	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return nil, apperrors.ErrExpiredToken
	}
	if claims.Issuer != Issuer || claims.UserID == 0 {
		return nil, fmt.Errorf("%w: unexpected session claims", apperrors.ErrUnauthorized)
	}

	if s.isRevoked(ctx, claims.ID) {
		return nil, fmt.Errorf("%w: session has been revoked", apperrors.ErrUnauthorized)
	}
	return claims, nil
}

// Revoke помечает сессию отозванной до истечения ее токена
func (s *JWTService) Revoke(ctx context.Context, claims *SessionClaims) error {
	if s.cache == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, revokedKeyPrefix+claims.ID, claims.UserID, ttl); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// isRevoked при недоступности кеша пропускает токен: подпись и срок уже проверены
func (s *JWTService) isRevoked(ctx context.Context, jti string) bool {
	if s.cache == nil || jti == "" {
		return false
	}
	revoked, err := s.cache.Exists(ctx, revokedKeyPrefix+jti)
	if err != nil {
		s.log.Warn("Revocation check failed, accepting token", "error", err)
		return false
	}
	return revoked
}
