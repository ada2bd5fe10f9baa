package vectorDB

import (
	"context"
	"fmt"

	"github.com/akolanti/VoiceRAG/internal/config"
	"github.com/akolanti/VoiceRAG/internal/domain/apperrors"
	"github.com/akolanti/VoiceRAG/internal/domain/commonModels"
	"github.com/akolanti/VoiceRAG/internal/rag/embedding"
	"github.com/akolanti/VoiceRAG/pkg/logger_i"
)

// Store is a vector backend holding chunks under a named collection.
type Store interface {
	CreateCollection(ctx context.Context, collectionName string) error
	UpsertBatch(ctx context.Context, collectionName string, chunks []commonModels.DocChunk, vectors [][]float32) error
	Search(ctx context.Context, collectionName string, vector []float32, k int) ([]commonModels.DocChunk, error)
}

// Index is the persistent embedding index shared by ingestion and retrieval.
type Index interface {
	Add(ctx context.Context, chunks []commonModels.DocChunk) error
	Retrieve(ctx context.Context, query string, k int) ([]commonModels.DocChunk, error)
	Ready(ctx context.Context) error
}

type embeddingIndex struct {
	store      Store
	embedder   embedding.Embedder
	collection string
	batchSize  int
	logger     *logger_i.Logger
}

func NewEmbeddingIndex(store Store, embedder embedding.Embedder, collection string) Index {
	if collection == "" {
		collection = config.CollectionName
	}
	return &embeddingIndex{
		store:      store,
		embedder:   embedder,
		collection: collection,
		batchSize:  config.EmbeddingBatchSize,
		logger:     logger_i.NewLogger("EmbeddingIndex"),
	}
}

// Ready makes sure the collection exists. Creating it twice is a no-op.
func (e *embeddingIndex) Ready(ctx context.Context) error {
	if err := e.store.CreateCollection(ctx, e.collection); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrIndexUnavailable, err)
	}
	return nil
}

// Add embeds and writes chunks in batches. A failed batch stops the write, earlier batches stay.
func (e *embeddingIndex) Add(ctx context.Context, chunks []commonModels.DocChunk) error {
	log := e.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	if len(chunks) == 0 {
		return nil
	}
	if err := e.store.CreateCollection(ctx, e.collection); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrIndexWrite, err)
	}

	for start := 0; start < len(chunks); start += e.batchSize {
		end := min(start+e.batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Chunk
		}

		vectors, err := e.embedder.BatchEmbedding(ctx, texts)
		if err != nil {
			log.Error("Embedding batch failed", "start", start, "error", err)
			return fmt.Errorf("%w: embedding: %v", apperrors.ErrIndexWrite, err)
		}
		if err := e.store.UpsertBatch(ctx, e.collection, batch, vectors); err != nil {
			log.Error("Upsert batch failed", "start", start, "error", err)
			return fmt.Errorf("%w: %v", apperrors.ErrIndexWrite, err)
		}
		log.Debug("Indexed batch", "start", start, "size", len(batch))
	}
	log.Info("Indexed chunks", "count", len(chunks), "collection", e.collection)
	return nil
}

func (e *embeddingIndex) Retrieve(ctx context.Context, query string, k int) ([]commonModels.DocChunk, error) {
	if k <= 0 {
		k = config.RetrieverTopK
	}
	vector, err := e.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", apperrors.ErrIndexUnavailable, err)
	}
	hits, err := e.store.Search(ctx, e.collection, vector, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrIndexUnavailable, err)
	}
	return hits, nil
}
