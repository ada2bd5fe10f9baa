package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/VoiceRAG/internal/adapter/utils"
	"github.com/akolanti/VoiceRAG/internal/config"
	"github.com/akolanti/VoiceRAG/internal/domain/apperrors"
	"github.com/akolanti/VoiceRAG/internal/domain/commonModels"
	"github.com/akolanti/VoiceRAG/internal/metrics"
	"github.com/akolanti/VoiceRAG/internal/rag/vectorDB"
	"github.com/akolanti/VoiceRAG/pkg/logger_i"
)

// Transcriber turns a video file into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Extractor reads the text layer of a PDF.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// TranscriptRenderer writes a transcript out as a PDF at outPath.
type TranscriptRenderer interface {
	Render(ctx context.Context, title string, text string, outPath string) error
}

type Pipeline struct {
	transcriber Transcriber
	extractor   Extractor
	renderer    TranscriptRenderer
	splitter    *Splitter
	index       vectorDB.Index
	documentDir string
	now         func() time.Time
	logger      *logger_i.Logger
}

type PipelineConfig struct {
	Transcriber Transcriber
	Extractor   Extractor
	Renderer    TranscriptRenderer
	Index       vectorDB.Index
	// DocumentDir receives the rendered transcript PDFs.
	DocumentDir string
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Extractor == nil {
		cfg.Extractor = NewPDFExtractor(config.PageExtractTimeout)
	}
	if cfg.Renderer == nil {
		cfg.Renderer = NewPDFRenderer("")
	}
	if cfg.DocumentDir == "" {
		cfg.DocumentDir = config.PDFFolder
	}
	return &Pipeline{
		transcriber: cfg.Transcriber,
		extractor:   cfg.Extractor,
		renderer:    cfg.Renderer,
		splitter:    NewSplitter(config.ChunkSize, config.ChunkOverlap),
		index:       cfg.Index,
		documentDir: cfg.DocumentDir,
		now:         time.Now,
		logger:      logger_i.NewLogger("DocumentPipeline"),
	}
}

// Run extracts text from the file, splits it, and writes the chunks to the index.
// It returns the chunks that were indexed.
func (p *Pipeline) Run(ctx context.Context, filePath string, kind commonModels.DocKind) ([]commonModels.DocChunk, error) {
	log := p.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "file", filePath)
	name := filepath.Base(filePath)

	var text string
	var err error
	switch kind {
	case commonModels.Video:
		text, err = p.videoText(ctx, filePath, name)
	case commonModels.PDF:
		text, err = p.pdfText(ctx, filePath)
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedType, kind)
	}
	if err != nil {
		log.Error("Extraction failed", "kind", kind, "error", err)
		return nil, err
	}

	doc := commonModels.Document{
		Id:                  utils.GetNewUUID(),
		Name:                name,
		LastIngestTimestamp: p.now(),
		Kind:                kind,
	}
	chunks, err := p.splitter.PrepareChunks(text, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: splitting: %w", apperrors.ErrExtraction, err)
	}
	log.Debug("Prepared chunks", "count", len(chunks))

	if err := p.index.Add(ctx, chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

func (p *Pipeline) videoText(ctx context.Context, filePath, name string) (string, error) {
	if p.transcriber == nil {
		return "", fmt.Errorf("%w: no transcriber configured", apperrors.ErrExtraction)
	}
	start := time.Now()
	text, err := p.transcriber.Transcribe(ctx, filePath)
	metrics.CaptureExecutionMetrics("transcription", time.Since(start))
	if err != nil {
		return "", fmt.Errorf("%w: transcription: %w", apperrors.ErrExtraction, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: transcript is empty", apperrors.ErrExtraction)
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	outPath := filepath.Join(p.documentDir, stem+".pdf")
	if err := p.renderer.Render(ctx, "Transcription: "+stem, text, outPath); err != nil {
		return "", fmt.Errorf("%w: rendering transcript: %w", apperrors.ErrExtraction, err)
	}
	return text, nil
}

func (p *Pipeline) pdfText(ctx context.Context, filePath string) (string, error) {
	start := time.Now()
	text, err := p.extractor.Extract(ctx, filePath)
	metrics.CaptureExecutionMetrics("extraction", time.Since(start))
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrExtraction, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no text found in %s", apperrors.ErrExtraction, filepath.Base(filePath))
	}
	return text, nil
}
