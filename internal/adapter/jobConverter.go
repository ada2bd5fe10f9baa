package adapter

import (
	"github.com/akolanti/VoiceRAG/internal/api"
	"github.com/akolanti/VoiceRAG/internal/chat"
	"github.com/akolanti/VoiceRAG/internal/domain/commonModels"
	"github.com/akolanti/VoiceRAG/internal/domain/jobModel"
)

func ToUploadResponse(id string, kind commonModels.DocKind) api.UploadResponse {
	message := "PDF uploaded. Processing started."
	if kind == commonModels.Video {
		message = "Video uploaded. Processing started."
	}
	return api.UploadResponse{Success: true, JobId: id, Message: message}
}

// ToStatusResponse hides everything but the public status fields. Unknown jobs carry only the status.
func ToStatusResponse(job jobModel.Job) api.StatusResponse {
	if job.Status == jobModel.JobStatusUnknown {
		return api.StatusResponse{Status: string(job.Status)}
	}
	res := api.StatusResponse{
		Status:  string(job.Status),
		Message: job.Message,
	}
	if !job.StartedAt.IsZero() {
		started := job.StartedAt
		res.StartedAt = &started
	}
	return res
}

func ToChatResponse(reply chat.Reply) api.ChatResponse {
	return api.ChatResponse{Reply: reply.Reply, SessionId: reply.SessionId}
}

func ToErrorResponse(message string) api.ErrorResponse {
	return api.ErrorResponse{Error: message}
}
