package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/VoiceRAG/internal/config"
	"github.com/akolanti/VoiceRAG/internal/domain/commonModels"
	"github.com/akolanti/VoiceRAG/internal/metrics"
	"github.com/akolanti/VoiceRAG/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

type Store struct {
	client    *qdrant.Client
	dimension uint64
	logger    *logger_i.Logger
}

// NewQdrantStore dials Qdrant over gRPC and checks it answers before returning.
func NewQdrantStore(ctx context.Context, host string, port int, dimension int32) (*Store, error) {
	log := logger_i.NewLogger("Qdrant")
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		return nil, fmt.Errorf("could not instantiate qdrant client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.HealthCheck(pingCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("qdrant health check failed: %w", err)
	}

	log.Info("Connected to Qdrant", "host", host, "port", port)
	return &Store{client: client, dimension: uint64(dimension), logger: log}, nil
}

func (db *Store) Close() error {
	db.logger.Info("Shutting down Qdrant")
	return db.client.Close()
}

func (db *Store) CreateCollection(ctx context.Context, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := db.client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	db.logger.Info("Creating collection", "collectionName", collectionName, "dimension", db.dimension)
	return db.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     db.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (db *Store) UpsertBatch(ctx context.Context, collectionName string, chunks []commonModels.DocChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	defer func(start time.Time) {
		metrics.CaptureExecutionMetrics("qdrant_upsert", time.Since(start))
	}(time.Now())

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.ChunkId),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":       chunk.Chunk,
				"source_doc_id": chunk.Doc.Id,
				"doc_name":      chunk.Doc.Name,
				"kind":          string(chunk.Doc.Kind),
				"chunk_order":   chunk.ChunkOrder,
				"chunk_id":      chunk.ChunkId,
				"ingested_at":   chunk.Doc.LastIngestTimestamp.Unix(),
			}),
		}
	}

	_, err := db.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (db *Store) Search(ctx context.Context, collectionName string, vector []float32, k int) ([]commonModels.DocChunk, error) {
	log := db.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	defer func(start time.Time) {
		metrics.CaptureExecutionMetrics("qdrant_search", time.Since(start))
	}(time.Now())

	result, err := db.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		log.Error("Error querying Qdrant", "error", err)
		return nil, err
	}

	hits := make([]commonModels.DocChunk, 0, len(result))
	for _, hit := range result {
		p := hit.Payload
		hits = append(hits, commonModels.DocChunk{
			Doc: commonModels.Document{
				Id:                  p["source_doc_id"].GetStringValue(),
				Name:                p["doc_name"].GetStringValue(),
				Kind:                commonModels.DocKind(p["kind"].GetStringValue()),
				LastIngestTimestamp: time.Unix(p["ingested_at"].GetIntegerValue(), 0),
			},
			ChunkId:    p["chunk_id"].GetStringValue(),
			Chunk:      p["content"].GetStringValue(),
			ChunkOrder: int(p["chunk_order"].GetIntegerValue()),
		})
	}
	log.Debug("Found matches", "count", len(hits))
	return hits, nil
}
