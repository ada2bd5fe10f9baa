package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/akolanti/VoiceRAG/internal/adapter/utils"
	"github.com/akolanti/VoiceRAG/internal/config"
	"github.com/akolanti/VoiceRAG/internal/handlers"
	"github.com/akolanti/VoiceRAG/internal/middleware"
	"github.com/akolanti/VoiceRAG/pkg/logger_i"
)

type Routes struct {
	Jobs     *handlers.JobHandler
	Requests *handlers.RequestHandler
	// MCP is optional.
	MCP http.Handler
}

type Server struct {
	httpServer *http.Server
	logger     *logger_i.Logger
}

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	// CloseServices run in order once the listener has drained.
	CloseServices []func()
}

func NewRouter(routes Routes) http.Handler {
	r := utils.NewRouter()

	r.Get("/health", middleware.Wrap(handlers.GetHandler))
	r.Post("/upload", middleware.Wrap(routes.Jobs.PostUploadHandler))
	r.Get("/status/{id}", middleware.Wrap(routes.Jobs.GetStatusHandler))
	r.Post("/chatting", middleware.Wrap(routes.Requests.ChatHandler))
	r.Post("/chat", middleware.Wrap(routes.Requests.ChatHandler))
	if routes.MCP != nil {
		r.Handle("/mcp", routes.MCP)
		r.Handle("/mcp/*", routes.MCP)
	}
	return r
}

// NewServer builds the http server. A zero writeTimeout uses the default.
func NewServer(listenAddr string, handler http.Handler, writeTimeout time.Duration) *Server {
	if writeTimeout <= 0 {
		writeTimeout = config.WriteTimeout
	}
	return &Server{
		httpServer: &http.Server{
			Addr:         listenAddr,
			Handler:      handler,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		logger: logger_i.NewLogger("Server"),
	}
}

func (s *Server) Start() {
	s.logger.Info("Server is listening", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Server crashed", "error", err.Error(), "addr", s.httpServer.Addr)
	}
}

// ShutDownHandler waits for a signal, drains the listener, then closes services. If that takes
// longer than ShutdownContextTimeout the process exits.
func (s *Server) ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	s.logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.httpServer.SetKeepAlivesEnabled(false)
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("Could not shutdown gracefully", "error", err)
		}
		for _, closeService := range shutdownParams.CloseServices {
			closeService()
		}
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Gracefully shut down")
		close(shutdownParams.StopExecution)
	case <-ctx.Done():
		s.logger.Error("Force shut down")
		os.Exit(1)
	}
}
