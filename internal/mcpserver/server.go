package mcpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/akolanti/VoiceRAG/internal/chat"
	"github.com/akolanti/VoiceRAG/internal/domain/jobModel"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const Version = "1.0.0"

type ChatService interface {
	Handle(ctx context.Context, message string, sessionID string) (chat.Reply, error)
}

type StatusService interface {
	Status(id string) jobModel.Job
}

// Server exposes the chat router and job status as MCP tools.
type Server struct {
	chat   ChatService
	jobs   StatusService
	server *mcp.Server
}

func NewServer(chatService ChatService, jobs StatusService) (*Server, error) {
	if chatService == nil || jobs == nil {
		return nil, errors.New("mcp server needs a chat service and a status service")
	}
	s := &Server{
		chat: chatService,
		jobs: jobs,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "voicerag",
			Version: Version,
		}, nil),
	}
	s.registerTools()
	return s, nil
}

// Handler serves the streamable HTTP transport, mounted next to the REST api.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}
