package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ngenohkevin/lmsdesk/internal/config"
)

// KeyPrefix namespaces every key this service writes.
const KeyPrefix = "lmsdesk"

// ErrKeyNotFound is returned when a key does not exist.
var ErrKeyNotFound = errors.New("key not found")

type RedisClient struct {
	Client *redis.Client
	logger *slog.Logger
}

func NewRedis(cfg config.RedisConfig, logger *slog.Logger) (*RedisClient, error) {
	options := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,

		// Connection pool settings
		PoolSize:        10,
		MinIdleConns:    2,
		MaxRetries:      3,
		ConnMaxIdleTime: 30 * time.Minute,
		ConnMaxLifetime: time.Hour,

		// Timeouts
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Successfully connected to Redis", slog.String("addr", options.Addr))

	return &RedisClient{
		Client: client,
		logger: logger,
	}, nil
}

func (r *RedisClient) Close() error {
	if r.Client != nil {
		if err := r.Client.Close(); err != nil {
			return fmt.Errorf("failed to close Redis connection: %w", err)
		}
		r.logger.Info("Redis connection closed")
	}
	return nil
}

func (r *RedisClient) Health(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// PreferenceKey is the key of one persisted preference of a session.
func PreferenceKey(sessionID, name string) string {
	return fmt.Sprintf("%s:%s:%s", KeyPrefix, sessionID, name)
}

// Preference methods
func (r *RedisClient) SetPreference(ctx context.Context, sessionID, name string, value []byte, expiration time.Duration) error {
	return r.Set(ctx, PreferenceKey(sessionID, name), value, expiration)
}

func (r *RedisClient) GetPreference(ctx context.Context, sessionID, name string) ([]byte, error) {
	data, err := r.Client.Get(ctx, PreferenceKey(sessionID, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	return data, err
}

// DeletePreferences removes every preference stored for the session.
func (r *RedisClient) DeletePreferences(ctx context.Context, sessionID string, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = PreferenceKey(sessionID, name)
	}
	return r.Client.Del(ctx, keys...).Err()
}

// Cache management methods
func (r *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.Client.Set(ctx, key, value, expiration).Err()
}

func (r *RedisClient) Get(ctx context.Context, key string) (string, error) {
	value, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	return value, err
}

func (r *RedisClient) Delete(ctx context.Context, key string) error {
	return r.Client.Del(ctx, key).Err()
}

func (r *RedisClient) Exists(ctx context.Context, key string) (bool, error) {
	result, err := r.Client.Exists(ctx, key).Result()
	return result > 0, err
}
