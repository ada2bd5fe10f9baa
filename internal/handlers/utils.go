package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/akolanti/VoiceRAG/internal/adapter"
	"github.com/akolanti/VoiceRAG/internal/domain/apperrors"
	"github.com/akolanti/VoiceRAG/pkg/logger_i"
)

var logRH = logger_i.NewLogger("RequestHandler")

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are gone already, nothing left but logging
		logRH.Error("Error encoding response", "error", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, message string) {
	writeJsonResponse(w, httpCode, adapter.ToErrorResponse(message))
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logRH.Warn("Context error", "error", ctx.Err())
		return false
	}
	return true
}

// statusForError maps the error taxonomy onto http codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrUnsupportedType):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrGenerationTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
