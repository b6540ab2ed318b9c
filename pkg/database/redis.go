package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/yourusername/quiz-master/internal/config"
)

// redisPingTimeout ограничивает проверку подключения при старте
const redisPingTimeout = 5 * time.Second

// redisOptions переводит RedisConfig в опции UniversalClient
func redisOptions(cfg config.RedisConfig) (*redis.UniversalOptions, error) {
	addrs := cfg.Addrs
	if len(addrs) == 0 {
		if cfg.Addr == "" {
			return nil, fmt.Errorf("redis configuration error: addrs or addr must be provided")
		}
		addrs = []string{cfg.Addr}
	}

	opts := &redis.UniversalOptions{
		Addrs:    addrs,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.MaxRetries != 0 {
		opts.MaxRetries = cfg.MaxRetries
	}
	if cfg.MinRetryBackoff != 0 {
		opts.MinRetryBackoff = time.Duration(cfg.MinRetryBackoff) * time.Millisecond
	}
	if cfg.MaxRetryBackoff != 0 {
		opts.MaxRetryBackoff = time.Duration(cfg.MaxRetryBackoff) * time.Millisecond
	}

	switch cfg.Mode {
	case "", "single":
		// single: берется первый адрес
		opts.Addrs = addrs[:1]
	case "sentinel":
		if cfg.MasterName == "" {
			return nil, fmt.Errorf("redis sentinel mode requires master_name")
		}
		opts.MasterName = cfg.MasterName
	case "cluster":
		// UniversalClient сам переходит в режим кластера при нескольких адресах
	default:
		return nil, fmt.Errorf("unsupported redis mode: %s", cfg.Mode)
	}
	return opts, nil
}

// NewUniversalRedisClient создает клиент Redis (single, sentinel, cluster) и проверяет подключение.
func NewUniversalRedisClient(ctx context.Context, cfg config.RedisConfig) (redis.UniversalClient, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewUniversalClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis (mode: %s, addrs: %v): %w", cfg.Mode, opts.Addrs, err)
	}
	return client, nil
}
