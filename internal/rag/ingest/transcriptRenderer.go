package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/VoiceRAG/pkg/logger_i"
	"github.com/go-pdf/fpdf"
)

const utf8Family = "transcript"

type pdfRenderer struct {
	fontPath string
	now      func() time.Time
}

// NewPDFRenderer renders with the TrueType font at fontPath, which keeps non-Latin transcripts
// intact. Without a usable font it falls back to core Helvetica, which only covers cp1252.
func NewPDFRenderer(fontPath string) TranscriptRenderer {
	if fontPath != "" {
		if _, err := os.Stat(fontPath); err != nil {
			logger_i.NewLogger("TranscriptRenderer").Warn("Transcript font unusable, falling back to Helvetica", "font", fontPath, "error", err)
			fontPath = ""
		}
	}
	return &pdfRenderer{fontPath: fontPath, now: time.Now}
}

// Render lays out a title, the render date and the transcript body on letter pages.
func (r *pdfRenderer) Render(ctx context.Context, title string, text string, outPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(outPath), err)
	}

	doc := fpdf.New("P", "mm", "Letter", "")
	doc.SetTitle(title, true)
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)
	family, tr := "Helvetica", doc.UnicodeTranslatorFromDescriptor("")
	if r.fontPath != "" {
		doc.AddUTF8Font(utf8Family, "", r.fontPath)
		doc.AddUTF8Font(utf8Family, "B", r.fontPath)
		family, tr = utf8Family, func(s string) string { return s }
	}
	doc.AddPage()

	doc.SetFont(family, "B", 16)
	doc.SetTextColor(31, 71, 136)
	doc.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	doc.Ln(8)

	doc.SetTextColor(0, 0, 0)
	doc.SetFont(family, "B", 11)
	doc.CellFormat(12, 6, "Date:", "", 0, "L", false, 0, "")
	doc.SetFont(family, "", 11)
	doc.CellFormat(0, 6, r.now().Format("2006-01-02 15:04:05"), "", 1, "L", false, 0, "")
	doc.Ln(5)

	doc.MultiCell(0, 6, tr(text), "", "L", false)

	if err := doc.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}
