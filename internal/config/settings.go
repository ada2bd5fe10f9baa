package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Settings is the runtime view of the constants above, overridable from the environment.
type Settings struct {
	IsProd   bool
	LogLevel string

	ListenAddr string

	GeminiAPIKey   string
	OpenAIAPIKey   string
	GeminiModel    string
	EmbeddingModel string
	WhisperModel   string

	QdrantHost     string
	QdrantPort     int
	CollectionName string

	RedisAddr     string
	RedisPassword string

	JobTimeout        time.Duration
	GenerationTimeout time.Duration
	// WriteTimeout always outlasts GenerationTimeout so a slow answer still gets its 504.
	WriteTimeout      time.Duration
	ChatPoolSize      int

	VideoDir       string
	DocumentDir    string
	// TranscriptFont is a TrueType file used for transcript PDFs, empty means cp1252 Helvetica.
	TranscriptFont string
}

// Load reads .env when present, then the process environment.
func Load() Settings {
	_ = godotenv.Load()

	s := Settings{
		IsProd:            IS_PROD || os.Getenv("APP_ENV") == "production",
		LogLevel:          os.Getenv("LOG_LEVEL"),
		ListenAddr:        ServerListenAddr,
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		GeminiModel:       getEnv("GEMINI_MODEL", GeminiModelName),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", GoogleEmbeddingModel),
		WhisperModel:      getEnv("WHISPER_MODEL", WhisperModelName),
		QdrantHost:        getEnv("QDRANT_HOST", QdrantHost),
		QdrantPort:        getEnvInt("QDRANT_PORT", QdrantGrpcPort),
		CollectionName:    getEnv("COLLECTION_NAME", CollectionName),
		RedisAddr:         getEnv("REDIS_ADDR", RedisAddr),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		JobTimeout:        getEnvSeconds("JOB_TIMEOUT", JobTimeout),
		GenerationTimeout: getEnvSeconds("LLM_TIMEOUT", GenerationTimeout),
		ChatPoolSize:      getEnvInt("THREADPOOL_WORKERS", ChatPoolSize),
		VideoDir:          getEnv("VIDEO_DIR", VideoFolder),
		DocumentDir:       getEnv("DOCUMENT_DIR", PDFFolder),
		TranscriptFont:    os.Getenv("TRANSCRIPT_FONT"),
	}
	s.WriteTimeout = max(WriteTimeout, s.GenerationTimeout+WriteTimeoutMargin)
	if port := os.Getenv("PORT"); port != "" {
		s.ListenAddr = ":" + port
	}
	return s
}

func getEnv(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// durations are given in whole seconds
func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return time.Duration(v) * time.Second
}
