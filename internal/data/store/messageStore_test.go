package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/akolanti/VoiceRAG/internal/config"
	"github.com/akolanti/VoiceRAG/internal/data/redisStore"
	"github.com/akolanti/VoiceRAG/internal/domain/jobModel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisMessageStore(t *testing.T) (*RedisMessageStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisMessageStore(redisStore.NewTestStore(client)), mr
}

func messageStores(t *testing.T) map[string]jobModel.MessageStore {
	rs, _ := newRedisMessageStore(t)
	return map[string]jobModel.MessageStore{
		"redis":    rs,
		"inMemory": NewInMemoryMessageStore(),
	}
}

func TestMessageStore_KeepsLastTurns(t *testing.T) {
	for name, s := range messageStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 8; i++ {
				require.NoError(t, s.SaveTurn(ctx, "s1", jobModel.Turn{
					Question: fmt.Sprintf("q%d", i),
					Answer:   fmt.Sprintf("a%d", i),
					At:       time.Now(),
				}))
			}

			history, err := s.GetMessageHistory(ctx, "s1")
			require.NoError(t, err)
			require.Len(t, history, config.HistoryTurns)
			assert.Equal(t, "q3", history[0].Question)
			assert.Equal(t, "q7", history[len(history)-1].Question)
			assert.Equal(t, "a7", history[len(history)-1].Answer)
		})
	}
}

func TestMessageStore_SessionsAreIsolated(t *testing.T) {
	for name, s := range messageStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.SaveTurn(ctx, "alice", jobModel.Turn{Question: "alice asks"}))
			require.NoError(t, s.SaveTurn(ctx, "bob", jobModel.Turn{Question: "bob asks"}))

			alice, err := s.GetMessageHistory(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, alice, 1)
			assert.Equal(t, "alice asks", alice[0].Question)

			empty, err := s.GetMessageHistory(ctx, "nobody")
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestRedisMessageStore_SetsTTL(t *testing.T) {
	s, mr := newRedisMessageStore(t)
	require.NoError(t, s.SaveTurn(context.Background(), "s1", jobModel.Turn{Question: "q"}))
	assert.Equal(t, config.RedisMessageStoreTTL, mr.TTL(sessionKeyPrefix+"s1"))

	mr.FastForward(config.RedisMessageStoreTTL + time.Second)
	history, err := s.GetMessageHistory(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRedisMessageStore_SkipsUnreadableTurns(t *testing.T) {
	s, mr := newRedisMessageStore(t)
	_, err := mr.RPush(sessionKeyPrefix+"s1", "not json")
	require.NoError(t, err)
	require.NoError(t, s.SaveTurn(context.Background(), "s1", jobModel.Turn{Question: "valid"}))

	history, err := s.GetMessageHistory(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "valid", history[0].Question)
}

func TestRedisMessageStore_Offline(t *testing.T) {
	s, mr := newRedisMessageStore(t)
	mr.Close()
	assert.Error(t, s.SaveTurn(context.Background(), "s1", jobModel.Turn{Question: "q"}))
	_, err := s.GetMessageHistory(context.Background(), "s1")
	assert.Error(t, err)
}

func TestInMemoryMessageStore_ReturnsCopies(t *testing.T) {
	s := NewInMemoryMessageStore()
	ctx := context.Background()
	require.NoError(t, s.SaveTurn(ctx, "s1", jobModel.Turn{Question: "original"}))

	history, _ := s.GetMessageHistory(ctx, "s1")
	history[0].Question = "mutated"

	again, _ := s.GetMessageHistory(ctx, "s1")
	assert.Equal(t, "original", again[0].Question)
}
