package store

import (
	"context"
	"sync"

	"github.com/akolanti/VoiceRAG/internal/config"
	"github.com/akolanti/VoiceRAG/internal/domain/jobModel"
)

// InMemoryMessageStore is used when redis is offline. History is lost on restart.
type InMemoryMessageStore struct {
	chatLock *sync.RWMutex
	chatMap  map[string][]jobModel.Turn
	turns    int
}

func NewInMemoryMessageStore() *InMemoryMessageStore {
	return &InMemoryMessageStore{
		chatLock: new(sync.RWMutex),
		chatMap:  make(map[string][]jobModel.Turn),
		turns:    config.HistoryTurns,
	}
}

func (store *InMemoryMessageStore) SaveTurn(_ context.Context, sessionId string, turn jobModel.Turn) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	history := append(store.chatMap[sessionId], turn)
	if len(history) > store.turns {
		history = append([]jobModel.Turn(nil), history[len(history)-store.turns:]...)
	}
	store.chatMap[sessionId] = history
	return nil
}

func (store *InMemoryMessageStore) GetMessageHistory(_ context.Context, sessionId string) ([]jobModel.Turn, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	history := store.chatMap[sessionId]
	out := make([]jobModel.Turn, len(history))
	copy(out, history)
	return out, nil
}
