package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/akolanti/VoiceRAG/pkg/logger_i"
	"github.com/dslipak/pdf"
)

var errPageTimeout = errors.New("page extraction timed out")

type pdfExtractor struct {
	pageTimeout time.Duration
	logger      *logger_i.Logger
}

func NewPDFExtractor(pageTimeout time.Duration) Extractor {
	return &pdfExtractor{pageTimeout: pageTimeout, logger: logger_i.NewLogger("PDFExtractor")}
}

// Extract concatenates the plain text of every page. Pages that fail or hang are skipped.
func (e *pdfExtractor) Extract(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return "", err
	}
	f, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	numPages := f.NumPage()
	e.logger.Debug("Extracting pdf", "path", path, "pages", numPages)

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := e.protectExtract(page)
		if err != nil {
			e.logger.Warn("Error parsing page content", "page", i, "error", err)
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(content)
	}
	return sb.String(), nil
}

// protectExtract bounds GetPlainText, which can spin forever on malformed content streams.
func (e *pdfExtractor) protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{err: fmt.Errorf("page parser panicked: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()

	timer := time.NewTimer(e.pageTimeout)
	defer timer.Stop()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-timer.C:
		return "", errPageTimeout
	}
}
