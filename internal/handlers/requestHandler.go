package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/akolanti/VoiceRAG/internal/adapter"
	"github.com/akolanti/VoiceRAG/internal/api"
	"github.com/akolanti/VoiceRAG/internal/chat"
	"github.com/akolanti/VoiceRAG/internal/config"
	"github.com/akolanti/VoiceRAG/internal/domain/apperrors"
	"github.com/akolanti/VoiceRAG/pkg/logger_i"
)

const emptyMessageError = "Please enter a message."

// chat bodies are small, anything bigger is not a question
const maxChatBody = 1 << 20

type ChatService interface {
	Handle(ctx context.Context, message string, sessionID string) (chat.Reply, error)
}

type RequestHandler struct {
	chat   ChatService
	logger *logger_i.Logger
}

func NewRequestHandler(chatService ChatService) *RequestHandler {
	return &RequestHandler{chat: chatService, logger: logger_i.NewLogger("ChatHandler")}
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

// ChatHandler godoc
// @Summary      Ask a question
// @Description  Answers from the indexed videos and documents. The message may come as JSON, form data, a query parameter or a raw body.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Param        X-Session-ID  header    string           false  "Conversation to continue"
// @Param        request       body      api.ChatRequest  true   "Message and optional session id"
// @Success      200  {object}  api.ChatResponse
// @Failure      400  {object}  api.ErrorResponse  "Empty message"
// @Failure      413  {object}  api.ErrorResponse  "Message over 1 MiB"
// @Failure      500  {object}  api.ErrorResponse  "Retrieval or generation failed"
// @Failure      504  {object}  api.ErrorResponse  "Generation timed out"
// @Router       /chatting [post]
func (h *RequestHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	log := h.logger.With("traceId", r.Context().Value(config.TRACE_ID_KEY))

	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)
	req, err := parseChatRequest(r)
	if err != nil {
		log.Warn("Chat body rejected", "error", err)
		WriteErrorResponse(w, http.StatusRequestEntityTooLarge, "Message is too long.")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		WriteErrorResponse(w, http.StatusBadRequest, emptyMessageError)
		return
	}
	sessionID := strings.TrimSpace(r.Header.Get("X-Session-ID"))
	if sessionID == "" {
		sessionID = req.SessionId
	}

	reply, err := h.chat.Handle(r.Context(), req.Message, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			WriteErrorResponse(w, http.StatusBadRequest, emptyMessageError)
			return
		}
		code := statusForError(err)
		log.Error("Chat failed", "error", err, "httpCode", code)
		WriteErrorResponse(w, code, err.Error())
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToChatResponse(reply))
}

// parseChatRequest reads the message from whatever encoding the client used. JSON and form
// bodies are honoured by content type; anything else tries the query string, then JSON, then a
// form encoded body, and finally the raw text. Only an oversized body is an error.
func parseChatRequest(r *http.Request) (api.ChatRequest, error) {
	var req api.ChatRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		body, err := readBody(r)
		if err != nil {
			return req, err
		}
		_ = json.Unmarshal(body, &req)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			if tooLarge(err) {
				return req, err
			}
			break
		}
		req.Message = r.PostForm.Get("message")
		req.SessionId = r.PostForm.Get("session_id")
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxChatBody); err != nil {
			if tooLarge(err) {
				return req, err
			}
			break
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()
		req.Message = r.FormValue("message")
		req.SessionId = r.FormValue("session_id")
	default:
		req.Message = r.URL.Query().Get("message")
		if strings.TrimSpace(req.Message) != "" {
			break
		}
		body, err := readBody(r)
		if err != nil {
			return req, err
		}
		if json.Unmarshal(body, &req) == nil && req.Message != "" {
			break
		}
		if form, err := url.ParseQuery(string(body)); err == nil && form.Get("message") != "" {
			req.Message = form.Get("message")
			break
		}
		req.Message = string(body)
	}

	req.Message = strings.TrimSpace(req.Message)
	req.SessionId = strings.TrimSpace(req.SessionId)
	return req, nil
}

// readBody fails only when the body is over the limit, other read errors keep what arrived.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		if tooLarge(err) {
			return nil, err
		}
		logRH.Warn("Could not read chat body", "error", err)
	}
	return body, nil
}

func tooLarge(err error) bool {
	var maxBytes *http.MaxBytesError
	return errors.As(err, &maxBytes)
}
