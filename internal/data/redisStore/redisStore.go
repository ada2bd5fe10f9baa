package redisStore

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/VoiceRAG/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

type Store struct {
	client *redis.Client
	Type   int
	logger *logger_i.Logger
}

// NewStore connects to one redis database and pings it. An unreachable server is an error so
// callers can fall back to in-memory storage.
func NewStore(ctx context.Context, addr string, password string, dbType int) (*Store, error) {
	log := logger_i.NewLogger(fmt.Sprintf("RedisStore-%d", dbType))
	newClient := redis.NewClient(&redis.Options{
		Addr:                  addr,
		Password:              password,
		DB:                    dbType,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := newClient.Ping(pingCtx).Err(); err != nil {
		_ = newClient.Close()
		return nil, fmt.Errorf("redis is offline at %s: %w", addr, err)
	}

	log.Info("Redis store initialized", "addr", addr)
	return &Store{client: newClient, Type: dbType, logger: log}, nil
}

// NewTestStore wraps an existing client, typically one pointed at miniredis.
func NewTestStore(client *redis.Client) *Store {
	return &Store{client: client, logger: logger_i.NewLogger("RedisStore-test")}
}

func (s *Store) Close() error {
	s.logger.Info("Closing Redis store")
	return s.client.Close()
}
