package config

import (
	"log/slog"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//knowledge base
	CollectionName                      = "project_kb"
	EmbeddingOutputDimensionality int32 = 768
	RetrieverTopK                       = 3
	ChunkSize                           = 1000 //characters
	ChunkOverlap                        = 200
	EmbeddingBatchSize                  = 100

	//jobs
	JobTimeout         = 30 * time.Minute
	GenerationTimeout  = 60 * time.Second
	TranscribeTimeout  = 30 * time.Minute
	PageExtractTimeout = 10 * time.Second

	//ingestion worker pool
	MaxWorkerCount    int64 = 6
	MinWorkerCount    int64 = 1
	IdleWorkerTimeout       = 1 * time.Minute
	BufferLimit             = 100 //job requests buffer limit

	//chat dispatch pool, mirrors THREADPOOL_WORKERS
	ChatPoolSize = 6

	//serverTimeouts
	ReadTimeout            = 15 * time.Minute //large video uploads
	WriteTimeout           = 90 * time.Second //chat waits on the model
	WriteTimeoutMargin     = 30 * time.Second //room for retrieval and the 504 reply past GenerationTimeout
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":8000"

	//uploads
	MaxUploadSize = 512 << 20 //512mb
	VideoFolder   = "Videos"
	PDFFolder     = "PDFs"

	//vectorDB
	QdrantHost     = "localhost"
	QdrantGrpcPort = 6334
	QdrantUseTLS   = false
	QdrantPoolSize = 1 //2-5 is preferred for prod according to documentation

	//llm
	GeminiModelName      = "gemini-2.5-flash-lite"
	GoogleEmbeddingModel = "text-embedding-004"
	WhisperModelName     = "whisper-1"

	BreakerMaxRequests      = 5
	BreakerInterval         = 10 * time.Second
	BreakerOpenTimeout      = 60 * time.Second
	BreakerConsecutiveFails = 5

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisMessageStore = 1

	RedisMessageStoreTTL = 24 * time.Hour
	HistoryTurns         = 5
)
