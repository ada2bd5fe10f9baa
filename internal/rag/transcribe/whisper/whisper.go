package whisper

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/akolanti/VoiceRAG/internal/config"
	"github.com/akolanti/VoiceRAG/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Transcriber struct {
	client openai.Client
	model  string
	logger *logger_i.Logger
}

func NewTranscriber(apiKey string, model string, httpClient *http.Client) *Transcriber {
	if model == "" {
		model = config.WhisperModelName
	}
	return &Transcriber{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithHTTPClient(httpClient),
			option.WithRequestTimeout(config.TranscribeTimeout),
		),
		model:  model,
		logger: logger_i.NewLogger("WhisperTranscriber"),
	}
}

// Transcribe uploads the media file to the transcription endpoint and returns the text.
func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	log := t.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening media: %w", err)
	}
	defer f.Close()

	log.Info("Transcribing", "file", path, "model", t.model)
	res, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(t.model),
		File:  f,
	})
	if err != nil {
		return "", fmt.Errorf("whisper request failed: %w", err)
	}
	log.Debug("Transcription done", "length", len(res.Text))
	return res.Text, nil
}
