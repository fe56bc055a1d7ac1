package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Worker    WorkerConfig
	VideoAPI  VideoAPIConfig
	Ingestion IngestionConfig
	Embedding EmbeddingConfig
	Notify    NotifyConfig
	Storage   StorageConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	RateLimitRPS   int
	RateLimitBurst int
}

type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type WorkerConfig struct {
	Concurrency int
	SweepCron   string
}

type VideoAPIConfig struct {
	BaseURL            string
	HealthTimeout      time.Duration
	GenerateTimeout    time.Duration
	ConcurrencyCeiling int
	BackpressureDelay  time.Duration
	WebhookSecret      string
	AckMessage         string
}

type IngestionConfig struct {
	MediaRoot    string
	ChunkSize    int
	ChunkOverlap int
}

// VectorDimensions is the width of the vector_entries.embedding column.
const VectorDimensions = 1536

type EmbeddingConfig struct {
	OpenAIKey  string
	Model      string
	Dimensions int
}

type NotifyConfig struct {
	SendGridKey     string
	SendGridBaseURL string
	FromEmail       string
	OperatorEmail   string
}

type StorageConfig struct {
	SupabaseURL string
	SupabaseKey string
	Bucket      string
}

// DefaultAckMessage is the exact body message the video API returns when it accepts a job.
const DefaultAckMessage = "Video generation started. Use the job_id to check status."

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}

	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	concurrency, err := getEnvInt("WORKER_CONCURRENCY", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
	}

	ceiling, err := getEnvInt("VIDEOAPI_CONCURRENCY_CEILING", 4)
	if err != nil {
		return nil, fmt.Errorf("invalid VIDEOAPI_CONCURRENCY_CEILING: %w", err)
	}

	healthTimeout, err := getEnvDuration("VIDEOAPI_HEALTH_TIMEOUT", 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid VIDEOAPI_HEALTH_TIMEOUT: %w", err)
	}

	generateTimeout, err := getEnvDuration("VIDEOAPI_GENERATE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid VIDEOAPI_GENERATE_TIMEOUT: %w", err)
	}

	backpressure, err := getEnvDuration("VIDEOAPI_BACKPRESSURE_DELAY", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid VIDEOAPI_BACKPRESSURE_DELAY: %w", err)
	}

	rps, err := getEnvInt("RATE_LIMIT_RPS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := getEnvInt("RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	chunkSize, err := getEnvInt("INGEST_CHUNK_SIZE", 500)
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_CHUNK_SIZE: %w", err)
	}

	chunkOverlap, err := getEnvInt("INGEST_CHUNK_OVERLAP", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_CHUNK_OVERLAP: %w", err)
	}

	dims, err := getEnvInt("EMBEDDING_DIMENSIONS", VectorDimensions)
	if err != nil {
		return nil, fmt.Errorf("invalid EMBEDDING_DIMENSIONS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "*"), ","),
			RateLimitRPS:   rps,
			RateLimitBurst: burst,
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			MaxConns: maxConns,
			MinConns: minConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Worker: WorkerConfig{
			Concurrency: concurrency,
			SweepCron:   getEnv("RETRY_SWEEP_CRON", "@every 5m"),
		},
		VideoAPI: VideoAPIConfig{
			BaseURL:            strings.TrimRight(getEnv("VIDEOAPI_BASE_URL", "http://localhost:8001"), "/"),
			HealthTimeout:      healthTimeout,
			GenerateTimeout:    generateTimeout,
			ConcurrencyCeiling: ceiling,
			BackpressureDelay:  backpressure,
			WebhookSecret:      getEnv("VIDEOAPI_WEBHOOK_SECRET", ""),
			AckMessage:         getEnv("VIDEOAPI_ACK_MESSAGE", DefaultAckMessage),
		},
		Ingestion: IngestionConfig{
			MediaRoot:    getEnv("MEDIA_ROOT", "media"),
			ChunkSize:    chunkSize,
			ChunkOverlap: chunkOverlap,
		},
		Embedding: EmbeddingConfig{
			OpenAIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			Dimensions: dims,
		},
		Notify: NotifyConfig{
			SendGridKey:     getEnv("SENDGRID_API_KEY", ""),
			SendGridBaseURL: getEnv("SENDGRID_BASE_URL", "https://api.sendgrid.com"),
			FromEmail:       getEnv("DEFAULT_FROM_EMAIL", ""),
			OperatorEmail:   getEnv("CONTACT_FORM_RECIPIENT", ""),
		},
		Storage: StorageConfig{
			SupabaseURL: getEnv("SUPABASE_URL", ""),
			SupabaseKey: getEnv("SUPABASE_SERVICE_KEY", ""),
			Bucket:      getEnv("STORAGE_BUCKET", "videos"),
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.VideoAPI.WebhookSecret == "" {
		missing = append(missing, "VIDEOAPI_WEBHOOK_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if c.Ingestion.ChunkSize <= 0 {
		return fmt.Errorf("INGEST_CHUNK_SIZE must be positive, got %d", c.Ingestion.ChunkSize)
	}
	if c.Ingestion.ChunkOverlap < 0 || c.Ingestion.ChunkOverlap >= c.Ingestion.ChunkSize {
		return fmt.Errorf("INGEST_CHUNK_OVERLAP must be in [0, %d), got %d", c.Ingestion.ChunkSize, c.Ingestion.ChunkOverlap)
	}
	if c.VideoAPI.ConcurrencyCeiling < 0 {
		return fmt.Errorf("VIDEOAPI_CONCURRENCY_CEILING must not be negative")
	}
	if c.Embedding.Dimensions != VectorDimensions {
		return fmt.Errorf("EMBEDDING_DIMENSIONS must be %d to match the vector column, got %d", VectorDimensions, c.Embedding.Dimensions)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
