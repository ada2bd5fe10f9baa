package commonModels

import (
	"path/filepath"
	"strings"
	"time"
)

type Document struct {
	Id                  string    `json:"source_doc_id"`
	Name                string    `json:"doc_name"`
	LastIngestTimestamp time.Time `json:"ingested_at"`
	Kind                DocKind   `json:"kind"`
}

type DocChunk struct {
	Doc        Document
	ChunkId    string `json:"chunk_id"`
	Chunk      string `json:"content"`
	ChunkOrder int    `json:"chunk_order"`
}

type DocKind string

const (
	Video       DocKind = "video"
	PDF         DocKind = "pdf"
	Unsupported DocKind = ""
)

func (k DocKind) Valid() bool {
	return k == Video || k == PDF
}

var allowedExtensions = map[string]DocKind{
	"mp4": Video,
	"avi": Video,
	"mov": Video,
	"mkv": Video,
	"flv": Video,
	"wmv": Video,
	"pdf": PDF,
}

// KindFromFileName maps an upload name onto its kind using the extension allow-list.
func KindFromFileName(name string) DocKind {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return allowedExtensions[ext]
}

// KindFromContentType returns Unsupported for anything but video/* and application/pdf.
func KindFromContentType(contentType string) DocKind {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	switch {
	case strings.HasPrefix(contentType, "video/"):
		return Video
	case contentType == "application/pdf":
		return PDF
	default:
		return Unsupported
	}
}

func AllowedExtensions() []string {
	return []string{"mp4", "avi", "mov", "mkv", "flv", "wmv", "pdf"}
}
