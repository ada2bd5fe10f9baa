package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/akolanti/VoiceRAG/internal/adapter"
	"github.com/akolanti/VoiceRAG/internal/adapter/utils"
	"github.com/akolanti/VoiceRAG/internal/config"
	"github.com/akolanti/VoiceRAG/internal/domain/commonModels"
	"github.com/akolanti/VoiceRAG/internal/domain/jobModel"
	"github.com/akolanti/VoiceRAG/pkg/logger_i"
)

// IngestService is the orchestrator as the http layer sees it.
type IngestService interface {
	Submit(ctx context.Context, filePath string, kind commonModels.DocKind) (string, error)
	Status(id string) jobModel.Job
}

type JobHandler struct {
	service     IngestService
	videoDir    string
	documentDir string
	maxUpload   int64
	logger      *logger_i.Logger
}

func NewJobHandler(service IngestService, videoDir string, documentDir string) *JobHandler {
	return &JobHandler{
		service:     service,
		videoDir:    videoDir,
		documentDir: documentDir,
		maxUpload:   config.MaxUploadSize,
		logger:      logger_i.NewLogger("JobHandler"),
	}
}

// PostUploadHandler godoc
// @Summary      Upload a video or PDF for ingestion
// @Description  Saves the file, queues an ingestion job and returns its id. Poll /status/{id} for progress.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Video (mp4, avi, mov, mkv, flv, wmv) or PDF"
// @Success      202  {object}  api.UploadResponse  "Accepted - returns job_id"
// @Failure      400  {object}  api.ErrorResponse   "Missing file or unsupported type"
// @Failure      500  {object}  api.ErrorResponse   "Storage error"
// @Router       /upload [post]
func (h *JobHandler) PostUploadHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	log := h.logger.With("traceId", r.Context().Value(config.TRACE_ID_KEY))

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	filePart, err := nextFilePart(r)
	if err != nil {
		log.Warn("Bad upload form", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "File too large or bad request")
		return
	}
	if filePart == nil {
		WriteErrorResponse(w, http.StatusBadRequest, "No file selected")
		return
	}
	defer filePart.Close()

	filename := filepath.Base(filePart.FileName())
	if filename == "." || filename == string(filepath.Separator) || filename == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "No file selected")
		return
	}

	kind, msg := resolveKind(filename, filePart.Header.Get("Content-Type"))
	if kind == commonModels.Unsupported {
		log.Warn("Rejected upload", "file", filename, "reason", msg)
		WriteErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	targetDir := h.documentDir
	if kind == commonModels.Video {
		targetDir = h.videoDir
	}
	targetPath, err := saveUpload(filePart, targetDir, filename)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn("Upload too large", "file", filename, "limit", tooLarge.Limit)
			WriteErrorResponse(w, http.StatusBadRequest, "File too large or bad request")
			return
		}
		log.Error("Could not store upload", "file", filename, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Storage error")
		return
	}

	jobId, err := h.service.Submit(r.Context(), targetPath, kind)
	if err != nil {
		log.Error("Could not submit job", "file", filename, "error", err)
		WriteErrorResponse(w, statusForError(err), "Upload failed: "+err.Error())
		return
	}
	log.Info("Upload accepted", "file", filename, "kind", kind, "jobId", jobId)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToUploadResponse(jobId, kind))
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Returns the status of an ingestion job. Unknown ids answer with status "unknown".
// @Tags         Ingestion
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.StatusResponse
// @Router       /status/{id} [get]
func (h *JobHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	id := utils.GetChiURLParam(r, "id")
	h.logger.Debug("Get status request", "jobId", id, "traceId", r.Context().Value(config.TRACE_ID_KEY))
	writeJsonResponse(w, http.StatusOK, adapter.ToStatusResponse(h.service.Status(id)))
}

// resolveKind checks the name against the extension allow-list and, when the client declared a
// specific content type, that it agrees with the extension.
func resolveKind(filename string, contentType string) (commonModels.DocKind, string) {
	kind := commonModels.KindFromFileName(filename)
	if kind == commonModels.Unsupported {
		return kind, "File type not allowed. Allowed: " + strings.Join(commonModels.AllowedExtensions(), ", ")
	}
	if contentType == "" || strings.HasPrefix(strings.ToLower(contentType), "application/octet-stream") {
		return kind, ""
	}
	if declared := commonModels.KindFromContentType(contentType); declared != kind {
		return commonModels.Unsupported, fmt.Sprintf("Unsupported file type: %s", contentType)
	}
	return kind, ""
}

// nextFilePart streams the multipart body up to the "file" field, so the upload is written to
// disk once and never spooled to a temp file. A nil part means the field is missing.
func nextFilePart(r *http.Request) (*multipart.Part, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == "file" && part.FileName() != "" {
			return part, nil
		}
		_ = part.Close()
	}
}

func saveUpload(src io.Reader, dir string, filename string) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filename)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", errors.Join(err, os.Remove(path))
	}
	return path, nil
}
