package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-master/internal/domain/repository"
	"github.com/yourusername/quiz-master/internal/logger"
)

// rateLimitTimeout ограничивает обращения к кешу на один запрос
const rateLimitTimeout = 2 * time.Second

// RateLimitConfig содержит настройки rate limiting
type RateLimitConfig struct {
	// MaxRequests максимальное количество запросов за Window
	MaxRequests int
	// Window временное окно для подсчёта запросов
	Window time.Duration
	// KeyPrefix префикс для ключей в кеше
	KeyPrefix string
}

// StrictAuthRateLimitConfig строгий лимит для login/register (защита от brute-force)
func StrictAuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 10,
		Window:      time.Minute,
		KeyPrefix:   "rl:auth",
	}
}

// SearchRateLimitConfig лимит для API поиска
func SearchRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 60,
		Window:      time.Minute,
		KeyPrefix:   "rl:search",
	}
}

// RateLimiter ограничивает частоту запросов счетчиками в кеше.
// При недоступности кеша запрос пропускается (fail-open).
type RateLimiter struct {
	cache repository.CacheRepository
	log   *logger.Logger
}

// NewRateLimiter создает новый RateLimiter. cache == nil отключает ограничения.
func NewRateLimiter(cache repository.CacheRepository, log *logger.Logger) *RateLimiter {
	return &RateLimiter{cache: cache, log: log.Component("RateLimiter")}
}

// Limit возвращает middleware; ключ формируется из IP и шаблона маршрута
func (rl *RateLimiter) Limit(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		rl.apply(c, cfg, fmt.Sprintf("%s:%s:%s", cfg.KeyPrefix, c.ClientIP(), path))
	}
}

// LimitByIP ограничивает группу маршрутов общим счетчиком на IP
func (rl *RateLimiter) LimitByIP(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		rl.apply(c, cfg, fmt.Sprintf("%s:%s", cfg.KeyPrefix, c.ClientIP()))
	}
}

func (rl *RateLimiter) apply(c *gin.Context, cfg RateLimitConfig, key string) {
	if rl.cache == nil {
		c.Next()
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), rateLimitTimeout)
	defer cancel()

	count, err := rl.cache.Increment(ctx, key)
	if err != nil {
		rl.log.Warn("Cache error, allowing request", "key", key, "error", err)
		c.Next()
		return
	}
	// Первый запрос в окне выставляет TTL
	if count == 1 {
		if err := rl.cache.Expire(ctx, key, cfg.Window); err != nil {
			rl.log.Warn("Failed to set TTL", "key", key, "error", err)
		}
	}

	remaining := cfg.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}
	retryAfter := int(cfg.Window.Seconds())
	if ttl, err := rl.cache.TTL(ctx, key); err == nil && ttl > 0 {
		retryAfter = int(ttl.Seconds())
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Header("X-RateLimit-Reset", strconv.Itoa(retryAfter))

	if int(count) > cfg.MaxRequests {
		rl.log.Warn("Rate limit exceeded", "ip", c.ClientIP(), "key", key, "count", count, "limit", cfg.MaxRequests)
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		AbortWithError(c, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}
	c.Next()
}
