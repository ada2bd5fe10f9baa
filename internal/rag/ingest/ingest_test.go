package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akolanti/VoiceRAG/internal/domain/apperrors"
	"github.com/akolanti/VoiceRAG/internal/domain/commonModels"
)

// --- Mocks ---

type mockTranscriber struct {
	transcribeFunc func(ctx context.Context, path string) (string, error)
}

func (m *mockTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	return m.transcribeFunc(ctx, path)
}

type mockExtractor struct {
	extractFunc func(ctx context.Context, path string) (string, error)
}

func (m *mockExtractor) Extract(ctx context.Context, path string) (string, error) {
	return m.extractFunc(ctx, path)
}

type mockIndex struct {
	added   []commonModels.DocChunk
	addFunc func(ctx context.Context, chunks []commonModels.DocChunk) error
}

func (m *mockIndex) Add(ctx context.Context, chunks []commonModels.DocChunk) error {
	m.added = append(m.added, chunks...)
	if m.addFunc != nil {
		return m.addFunc(ctx, chunks)
	}
	return nil
}

func (m *mockIndex) Retrieve(ctx context.Context, query string, k int) ([]commonModels.DocChunk, error) {
	return nil, nil
}

func (m *mockIndex) Ready(ctx context.Context) error { return nil }

func longText() string {
	var sb strings.Builder
	for i := 0; i < 60; i++ {
		sb.WriteString("The ingestion queue hands every upload to a worker which extracts the text. ")
		if i%7 == 6 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

// --- Splitter ---

func TestSplitter_Deterministic(t *testing.T) {
	s := NewSplitter(1000, 200)
	text := longText()

	first, err := s.Split(text)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	second, _ := s.Split(text)

	if len(first) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(first))
	}
	if len(first) != len(second) {
		t.Fatalf("Chunk count changed between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Chunk %d differs between runs", i)
		}
		if len([]rune(first[i])) > 1000 {
			t.Errorf("Chunk %d is %d runes, above the limit", i, len([]rune(first[i])))
		}
	}
}

func TestSplitter_ShortTextIsOneChunk(t *testing.T) {
	chunks, err := NewSplitter(1000, 200).Split("Just one sentence.")
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "Just one sentence." {
		t.Errorf("Expected the text back unchanged, got %q", chunks)
	}
}

func TestPrepareChunks(t *testing.T) {
	s := NewSplitter(1000, 200)
	doc := commonModels.Document{Id: "doc-1", Name: "manual.pdf", Kind: commonModels.PDF}

	first, err := s.PrepareChunks(longText(), doc)
	if err != nil {
		t.Fatalf("PrepareChunks failed: %v", err)
	}
	second, _ := s.PrepareChunks(longText(), doc)

	seen := make(map[string]bool)
	for i, c := range first {
		if c.ChunkOrder != i {
			t.Errorf("Chunk %d has order %d", i, c.ChunkOrder)
		}
		if c.Doc.Id != "doc-1" || c.Doc.Kind != commonModels.PDF {
			t.Errorf("Metadata mismatch in chunk %d: %+v", i, c.Doc)
		}
		if seen[c.ChunkId] {
			t.Errorf("Duplicate chunk id %s", c.ChunkId)
		}
		seen[c.ChunkId] = true
		if second[i].ChunkId != c.ChunkId {
			t.Errorf("Chunk id %d is not stable", i)
		}
	}
}

// --- Pipeline ---

func TestPipeline_PDF(t *testing.T) {
	idx := &mockIndex{}
	p := NewPipeline(PipelineConfig{
		Extractor: &mockExtractor{extractFunc: func(ctx context.Context, path string) (string, error) {
			return longText(), nil
		}},
		Index:       idx,
		DocumentDir: t.TempDir(),
	})

	chunks, err := p.Run(context.Background(), "PDFs/manual.pdf", commonModels.PDF)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(chunks) == 0 || len(idx.added) != len(chunks) {
		t.Fatalf("Expected every chunk indexed, got %d chunks and %d indexed", len(chunks), len(idx.added))
	}
	if chunks[0].Doc.Name != "manual.pdf" || chunks[0].Doc.Kind != commonModels.PDF {
		t.Errorf("Unexpected document on chunk: %+v", chunks[0].Doc)
	}
}

func TestPipeline_VideoRendersTranscript(t *testing.T) {
	dir := t.TempDir()
	idx := &mockIndex{}
	p := NewPipeline(PipelineConfig{
		Transcriber: &mockTranscriber{transcribeFunc: func(ctx context.Context, path string) (string, error) {
			return "Welcome to the onboarding video. Today we cover the deployment checklist.", nil
		}},
		Index:       idx,
		DocumentDir: dir,
	})

	chunks, err := p.Run(context.Background(), "Videos/onboarding.mp4", commonModels.Video)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(chunks) != 1 || !strings.Contains(chunks[0].Chunk, "deployment checklist") {
		t.Errorf("Unexpected chunks: %+v", chunks)
	}

	data, err := os.ReadFile(filepath.Join(dir, "onboarding.pdf"))
	if err != nil {
		t.Fatalf("Transcript pdf was not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Errorf("Rendered file is not a pdf")
	}
}

func TestPipeline_Errors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name        string
		cfg         PipelineConfig
		kind        commonModels.DocKind
		expectedErr error
	}{
		{
			name: "empty pdf text",
			cfg: PipelineConfig{Extractor: &mockExtractor{extractFunc: func(ctx context.Context, path string) (string, error) {
				return "   \n", nil
			}}},
			kind:        commonModels.PDF,
			expectedErr: apperrors.ErrExtraction,
		},
		{
			name: "extractor failure",
			cfg: PipelineConfig{Extractor: &mockExtractor{extractFunc: func(ctx context.Context, path string) (string, error) {
				return "", boom
			}}},
			kind:        commonModels.PDF,
			expectedErr: apperrors.ErrExtraction,
		},
		{
			name: "transcription failure",
			cfg: PipelineConfig{Transcriber: &mockTranscriber{transcribeFunc: func(ctx context.Context, path string) (string, error) {
				return "", boom
			}}},
			kind:        commonModels.Video,
			expectedErr: apperrors.ErrExtraction,
		},
		{
			name:        "no transcriber",
			cfg:         PipelineConfig{},
			kind:        commonModels.Video,
			expectedErr: apperrors.ErrExtraction,
		},
		{
			name: "index write failure",
			cfg: PipelineConfig{
				Extractor: &mockExtractor{extractFunc: func(ctx context.Context, path string) (string, error) {
					return "some text", nil
				}},
				Index: &mockIndex{addFunc: func(ctx context.Context, chunks []commonModels.DocChunk) error {
					return errors.Join(apperrors.ErrIndexWrite, boom)
				}},
			},
			kind:        commonModels.PDF,
			expectedErr: apperrors.ErrIndexWrite,
		},
		{
			name:        "unsupported kind",
			cfg:         PipelineConfig{},
			kind:        commonModels.Unsupported,
			expectedErr: apperrors.ErrUnsupportedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cfg.Index == nil {
				tt.cfg.Index = &mockIndex{}
			}
			tt.cfg.DocumentDir = t.TempDir()
			_, err := NewPipeline(tt.cfg).Run(context.Background(), "upload.bin", tt.kind)
			if !errors.Is(err, tt.expectedErr) {
				t.Errorf("Expected %v, got %v", tt.expectedErr, err)
			}
		})
	}
}

func TestPDFRenderer_MissingFontFallsBack(t *testing.T) {
	r := NewPDFRenderer(filepath.Join(t.TempDir(), "missing.ttf"))
	if got := r.(*pdfRenderer).fontPath; got != "" {
		t.Fatalf("Expected fallback to the core font, kept %q", got)
	}

	out := filepath.Join(t.TempDir(), "PDFs", "café.pdf")
	if err := r.Render(context.Background(), "Transcription: café", "Résumé of the meeting.", out); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Transcript was not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Errorf("Rendered file is not a pdf")
	}
}

func TestPDFRenderer_UTF8Font(t *testing.T) {
	var font string
	for _, candidate := range []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/dejavu/DejaVuSans.ttf",
		"/Library/Fonts/Arial Unicode.ttf",
	} {
		if _, err := os.Stat(candidate); err == nil {
			font = candidate
			break
		}
	}
	if font == "" {
		t.Skip("no unicode TrueType font installed")
	}

	out := filepath.Join(t.TempDir(), "lecture.pdf")
	err := NewPDFRenderer(font).Render(context.Background(), "Transcription: лекция", "Привет, мир. Γειά σου κόσμε.", out)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		t.Fatalf("Transcript was not written: %v", err)
	}
}

func TestRender_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := filepath.Join(t.TempDir(), "never.pdf")
	if err := NewPDFRenderer("").Render(ctx, "t", "x", out); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("Nothing should be written for a cancelled render")
	}
}
