package memoryDB

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/akolanti/VoiceRAG/internal/domain/commonModels"
)

type point struct {
	chunk  commonModels.DocChunk
	vector []float32
}

// Store keeps vectors in process. It is the fallback when Qdrant is unreachable and the
// backend for tests. Points are keyed by chunk id so re-upserting replaces them.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]point
}

func NewStore() *Store {
	return &Store{collections: make(map[string]map[string]point)}
}

func (s *Store) CreateCollection(_ context.Context, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collectionName]; !ok {
		s.collections[collectionName] = make(map[string]point)
	}
	return nil
}

func (s *Store) UpsertBatch(_ context.Context, collectionName string, chunks []commonModels.DocChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[collectionName]
	if !ok {
		return fmt.Errorf("collection %q does not exist", collectionName)
	}
	for i, c := range chunks {
		col[c.ChunkId] = point{chunk: c, vector: vectors[i]}
	}
	return nil
}

func (s *Store) Search(_ context.Context, collectionName string, vector []float32, k int) ([]commonModels.DocChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.collections[collectionName]
	if !ok {
		return nil, fmt.Errorf("collection %q does not exist", collectionName)
	}

	type scored struct {
		chunk commonModels.DocChunk
		score float64
	}
	all := make([]scored, 0, len(col))
	for _, p := range col {
		all = append(all, scored{chunk: p.chunk, score: cosine(vector, p.vector)})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score == all[j].score {
			return all[i].chunk.ChunkId < all[j].chunk.ChunkId
		}
		return all[i].score > all[j].score
	})

	if k > len(all) {
		k = len(all)
	}
	hits := make([]commonModels.DocChunk, 0, k)
	for _, sc := range all[:k] {
		hits = append(hits, sc.chunk)
	}
	return hits, nil
}

// Len returns the number of points in a collection.
func (s *Store) Len(collectionName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collectionName])
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
