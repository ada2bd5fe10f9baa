// @title           VoiceRAG API
// @version         1.0
// @description     Upload videos and PDFs, track their ingestion, and ask questions answered from the indexed content.

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/VoiceRAG/internal/chat"
	"github.com/akolanti/VoiceRAG/internal/config"
	"github.com/akolanti/VoiceRAG/internal/customHttpClient"
	"github.com/akolanti/VoiceRAG/internal/data/redisStore"
	"github.com/akolanti/VoiceRAG/internal/data/store"
	"github.com/akolanti/VoiceRAG/internal/domain/jobModel"
	"github.com/akolanti/VoiceRAG/internal/handlers"
	"github.com/akolanti/VoiceRAG/internal/job"
	"github.com/akolanti/VoiceRAG/internal/mcpserver"
	"github.com/akolanti/VoiceRAG/internal/rag"
	"github.com/akolanti/VoiceRAG/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/VoiceRAG/internal/rag/ingest"
	"github.com/akolanti/VoiceRAG/internal/rag/llm/gemini"
	"github.com/akolanti/VoiceRAG/internal/rag/transcribe/whisper"
	"github.com/akolanti/VoiceRAG/internal/rag/vectorDB"
	"github.com/akolanti/VoiceRAG/internal/rag/vectorDB/memoryDB"
	"github.com/akolanti/VoiceRAG/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/VoiceRAG/internal/server"
	"github.com/akolanti/VoiceRAG/internal/worker"
	"github.com/akolanti/VoiceRAG/pkg/logger_i"
)

func main() {
	settings := config.Load()
	logger_i.Init(settings.IsProd, settings.LogLevel)
	logger := logger_i.NewLogger("main")

	var listenAddr string
	flag.StringVar(&listenAddr, "listen-addr", settings.ListenAddr, "server listen address")
	flag.Parse()

	ctx := context.Background()
	var closers []func()

	if settings.GeminiAPIKey == "" {
		logger.Error("GEMINI_API_KEY is not set, embedding and generation calls will fail")
	}
	httpClient := customHttpClient.NewClient(0)

	embedder, err := googleEmbedding.NewGoogleEmbeddingClient(ctx, settings.EmbeddingModel, settings.GeminiAPIKey, httpClient)
	if err != nil {
		logger.Error("Embedding client failed to initialize. Shutting down.", "error", err)
		os.Exit(1)
	}
	llmProvider, err := gemini.NewGeminiClient(ctx, settings.GeminiModel, settings.GeminiAPIKey, httpClient)
	if err != nil {
		logger.Error("LLM client failed to initialize. Shutting down.", "error", err)
		os.Exit(1)
	}

	var vectorStore vectorDB.Store
	qdrantStore, err := qdrantDB.NewQdrantStore(ctx, settings.QdrantHost, settings.QdrantPort, config.EmbeddingOutputDimensionality)
	if err != nil {
		logger.Error("Qdrant is offline, falling back to an in-memory index", "error", err)
		vectorStore = memoryDB.NewStore()
	} else {
		vectorStore = qdrantStore
		closers = append(closers, func() {
			if err := qdrantStore.Close(); err != nil {
				logger.Error("Could not close Qdrant", "error", err)
			}
		})
	}
	index := vectorDB.NewEmbeddingIndex(vectorStore, embedder, settings.CollectionName)

	var messages jobModel.MessageStore
	redis, err := redisStore.NewStore(ctx, settings.RedisAddr, settings.RedisPassword, config.RedisMessageStore)
	if err != nil {
		logger.Error("Redis is offline, chat history stays in memory", "error", err)
		messages = store.NewInMemoryMessageStore()
	} else {
		messages = store.NewRedisMessageStore(redis)
		closers = append(closers, func() {
			if err := redis.Close(); err != nil {
				logger.Error("Could not close Redis", "error", err)
			}
		})
	}

	engine := rag.NewService(rag.Config{
		Index:             index,
		LLM:               llmProvider,
		Memory:            messages,
		GenerationTimeout: settings.GenerationTimeout,
	})

	var transcriber ingest.Transcriber
	if settings.OpenAIAPIKey != "" {
		transcriber = whisper.NewTranscriber(settings.OpenAIAPIKey, settings.WhisperModel, customHttpClient.NewClient(0))
	} else {
		logger.Warn("OPENAI_API_KEY is not set, video uploads will fail at transcription")
	}
	pipeline := ingest.NewPipeline(ingest.PipelineConfig{
		Transcriber: transcriber,
		Renderer:    ingest.NewPDFRenderer(settings.TranscriptFont),
		Index:       index,
		DocumentDir: settings.DocumentDir,
	})

	jobService := job.InitJobService(job.ServiceConfig{
		Registry: job.NewRegistry(settings.JobTimeout),
		Pipeline: pipeline,
		Chain:    engine,
		Workers: worker.Config{
			BufferLimit:    config.BufferLimit,
			MinWorkerCount: config.MinWorkerCount,
			MaxWorkerCount: config.MaxWorkerCount,
			IdleTimeout:    config.IdleWorkerTimeout,
		},
	})

	chatRouter, err := chat.NewRouter(engine, settings.ChatPoolSize)
	if err != nil {
		logger.Error("Chat router failed to initialize. Shutting down.", "error", err)
		os.Exit(1)
	}
	mcpServer, err := mcpserver.NewServer(chatRouter, jobService)
	if err != nil {
		logger.Error("MCP server failed to initialize. Shutting down.", "error", err)
		os.Exit(1)
	}

	router := server.NewRouter(server.Routes{
		Jobs:     handlers.NewJobHandler(jobService, settings.VideoDir, settings.DocumentDir),
		Requests: handlers.NewRequestHandler(chatRouter),
		MCP:      mcpServer.Handler(),
	})
	srv := server.NewServer(listenAddr, router, settings.WriteTimeout)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	// chat first, ingestion workers may still be writing to the stores
	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		CloseServices:    append([]func(){chatRouter.Close, jobService.Close}, closers...),
	}
	go srv.ShutDownHandler(shutdownParams)
	go srv.Start()

	<-stopExecution
	logger.Info("Server stopped")
}
