package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vhours/internal/config"
)

const redisKeyPrefix = "vhours:"

// RedisStore shares session state between terminals, e.g. several
// check-in kiosks that should remember the same volunteer.
type RedisStore struct {
	redisdb *redis.Client
}

func NewRedisStore(ctx context.Context, cfg config.Redis) (*RedisStore, error) {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	if err := redisdb.Ping(ctx).Err(); err != nil {
		redisdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	return &RedisStore{redisdb: redisdb}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.redisdb.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("error reading setting %s: %w", key, err)
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.redisdb.Set(ctx, redisKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("error writing setting %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redisdb.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("error deleting setting %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.redisdb.Close()
}
