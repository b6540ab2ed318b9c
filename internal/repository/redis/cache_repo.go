package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	apperrors "github.com/yourusername/quiz-master/internal/pkg/errors"
)

// CacheRepo реализует repository.CacheRepository
type CacheRepo struct {
	client redis.UniversalClient
}

// NewCacheRepo создает новый репозиторий кеша и возвращает ошибку при проблемах
func NewCacheRepo(client redis.UniversalClient) (*CacheRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil for CacheRepo")
	}
	return &CacheRepo{client: client}, nil
}

// Set сохраняет значение в кеше
func (r *CacheRepo) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

// Get получает значение из кеша. Отсутствующий ключ дает apperrors.ErrNotFound.
func (r *CacheRepo) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperrors.ErrNotFound
		}
		return "", err
	}
	return val, nil
}

// Delete удаляет значение из кеша
func (r *CacheRepo) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Increment увеличивает значение на 1
func (r *CacheRepo) Increment(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, key).Result()
}

// Expire задает время жизни ключа
func (r *CacheRepo) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return r.client.Expire(ctx, key, expiration).Err()
}

// TTL возвращает оставшееся время жизни ключа
func (r *CacheRepo) TTL(ctx context.Context, key string) (time.Duration, error) {
	return r.client.TTL(ctx, key).Result()
}

// Exists проверяет существование ключа
func (r *CacheRepo) Exists(ctx context.Context, key string) (bool, error) {
	result, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

// SetNX устанавливает значение ключа, только если ключ не существует.
// Возвращает true, если ключ был установлен, false - если ключ уже существовал.
func (r *CacheRepo) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, expiration).Result()
}
