package redis

import (
	"context"
	"time"

	"github.com/clawnad/backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Service wraps the Redis client used as an optional cache backend.
type Service struct {
	client *redis.Client
}

// NewService connects to Redis when REDIS_URL is configured. Returns nil
// when Redis is unavailable; callers treat that as "use in-memory".
func NewService() *Service {
	url := config.GetRedisURL()
	if url == "" {
		log.Warn().Msg("Redis URL not configured - caches fall back to memory")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     url,
		Password: config.GetRedisPassword(),
		DB:       0,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Error().Err(err).Str("addr", url).Msg("Failed to establish Redis connection")
		return nil
	}

	return &Service{client: client}
}

// Set stores a value with an expiration.
func (s *Service) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := s.client.Set(ctx, key, value, expiration).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Redis SET failed")
		return err
	}
	return nil
}

// Get retrieves a value. Returns redis.Nil when the key is absent.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		log.Error().Err(err).Str("key", key).Msg("Redis GET failed")
	}
	return val, err
}

// IsMissing reports whether a Get error means "key not found".
func IsMissing(err error) bool {
	return err == redis.Nil
}

// Ping checks if Redis is accessible.
func (s *Service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Service) Close() error {
	return s.client.Close()
}
