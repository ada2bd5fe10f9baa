package ingest

import (
	"fmt"

	"github.com/akolanti/VoiceRAG/internal/adapter/utils"
	"github.com/akolanti/VoiceRAG/internal/domain/commonModels"
	"github.com/tmc/langchaingo/textsplitter"
)

// Splitter cuts text into overlapping chunks, preferring paragraph, line and word boundaries.
// The same input always yields the same chunks.
type Splitter struct {
	splitter textsplitter.RecursiveCharacter
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	return &Splitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(overlap),
		),
	}
}

func (s *Splitter) Split(text string) ([]string, error) {
	return s.splitter.SplitText(text)
}

// PrepareChunks splits text and attaches the source document. Chunk ids derive from the
// document id and order.
func (s *Splitter) PrepareChunks(text string, doc commonModels.Document) ([]commonModels.DocChunk, error) {
	parts, err := s.Split(text)
	if err != nil {
		return nil, err
	}

	chunks := make([]commonModels.DocChunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, commonModels.DocChunk{
			Doc:        doc,
			ChunkId:    utils.GetStableUUID(fmt.Sprintf("%s/%d", doc.Id, i)),
			Chunk:      part,
			ChunkOrder: i,
		})
	}
	return chunks, nil
}
