package redisStore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

func (s *Store) IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

// ListPushCapped appends to a list, keeps only the newest max entries and refreshes the ttl,
// all in one round trip.
func (s *Store) ListPushCapped(ctx context.Context, key string, value interface{}, max int64, ttl time.Duration) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, value)
		pipe.LTrim(ctx, key, -max, -1)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

// ListGetLast returns up to n of the newest entries, oldest first.
func (s *Store) ListGetLast(ctx context.Context, key string, n int64) ([]string, error) {
	result, err := s.client.LRange(ctx, key, -n, -1).Result()
	if s.IsNil(err) {
		return []string{}, nil
	}
	return result, err
}
