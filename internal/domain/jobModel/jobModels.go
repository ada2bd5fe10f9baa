package jobModel

import (
	"context"
	"time"

	"github.com/akolanti/VoiceRAG/internal/domain/commonModels"
)

type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusSuccess    JobStatus = "success"
	JobStatusFailed     JobStatus = "failed"
	JobStatusTimedOut   JobStatus = "timed_out"
	JobStatusUnknown    JobStatus = "unknown" //never stored
)

const (
	MessageStarted      = "Processing started"
	MessageCompleted    = "Processing completed successfully"
	MessageTimedOut     = "Processing timed out"
	MessageForceStopped = "Job force-stopped due to server restart"
)

func (s JobStatus) IsTerminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailed || s == JobStatusTimedOut
}

type Job struct {
	Id        string               `json:"id"`
	TraceId   string               `json:"trace_id,omitempty"`
	Kind      commonModels.DocKind `json:"kind,omitempty"`
	FileName  string               `json:"file_name,omitempty"`
	FilePath  string               `json:"-"`
	Status    JobStatus            `json:"status"`
	StartedAt time.Time            `json:"started_at"`
	EndTime   time.Time            `json:"end_time,omitempty"`
	Message   string               `json:"message"`
}

// Turn is one question/answer pair of a chat session.
type Turn struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	At       time.Time `json:"at"`
}

// MessageStore keeps the recent turns of each chat session.
type MessageStore interface {
	GetMessageHistory(ctx context.Context, sessionId string) ([]Turn, error)
	SaveTurn(ctx context.Context, sessionId string, turn Turn) error
}
