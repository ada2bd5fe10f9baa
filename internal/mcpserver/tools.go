package mcpserver

import (
	"context"

	"github.com/akolanti/VoiceRAG/internal/domain/jobModel"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type AskInput struct {
	Message   string `json:"message" jsonschema:"the question to answer from the uploaded videos and documents"`
	SessionId string `json:"session_id,omitempty" jsonschema:"session to continue, a new one is created when empty"`
}

type AskOutput struct {
	Reply     string `json:"reply"`
	SessionId string `json:"session_id"`
}

type JobStatusInput struct {
	JobId string `json:"job_id" jsonschema:"id returned by the upload endpoint"`
}

type JobStatusOutput struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only the ingested videos and documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "job_status",
		Description: "Report the processing status of an ingestion job",
	}, s.handleJobStatus)
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	reply, err := s.chat.Handle(ctx, input.Message, input.SessionId)
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{Reply: reply.Reply, SessionId: reply.SessionId}, nil
}

func (s *Server) handleJobStatus(_ context.Context, _ *mcp.CallToolRequest, input JobStatusInput) (*mcp.CallToolResult, JobStatusOutput, error) {
	job := s.jobs.Status(input.JobId)
	out := JobStatusOutput{Status: string(job.Status)}
	if job.Status != jobModel.JobStatusUnknown {
		out.Message = job.Message
	}
	return nil, out, nil
}
