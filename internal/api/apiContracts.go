package api

import "time"

type UploadResponse struct {
	Success bool   `json:"success" example:"true"`
	JobId   string `json:"job_id" example:"8c1f5a0e-3b4e-4c8e-9a55-2f1d0f3b7c11"`
	Message string `json:"message" example:"Video uploaded. Processing started."`
}

type StatusResponse struct {
	Status    string     `json:"status" example:"processing"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	Message   string     `json:"message,omitempty" example:"Processing started"`
}

type ErrorResponse struct {
	Error string `json:"error" example:"Please enter a message."`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// requests---------------------

type ChatRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionId string `json:"session_id,omitempty"`
}

type ChatResponse struct {
	Reply     string `json:"reply" example:"<p>The video explains how the ingestion queue works.</p>"`
	SessionId string `json:"session_id" example:"5f0c7d84-0a55-4f57-8f5e-1c9b2f4e6a10"`
}
