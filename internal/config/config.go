// Package config loads typed configuration from the environment, following
// the same getEnv/getEnvInt helper shape the rest of the pack uses.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ProviderConfig configures one AI orchestrator tier.
type ProviderConfig struct {
	Provider    string // "openai" | "anthropic" | "openai_compatible"
	APIKey      string
	BaseURL     string
	Model       string
	MinInterval time.Duration
}

func (p ProviderConfig) Enabled() bool {
	return p.APIKey != ""
}

// DBConfig configures the Postgres connection pool.
type DBConfig struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// QueueConfig configures the Redis Streams queue adapter.
type QueueConfig struct {
	Addr         string
	Stream       string
	Group        string
	Consumer     string
	DLQStream    string
	BatchSize    int64
	Block        time.Duration
	MaxAttempts  int
	RequeueDelay time.Duration
	ClaimIdle    time.Duration
}

type OTelConfig struct {
	ServiceName string
	Endpoint    string
}

func (o OTelConfig) Enabled() bool {
	return o.Endpoint != ""
}

// Config holds all application configuration, loaded once at worker start.
type Config struct {
	Env  string
	NodeID int64

	DB    DBConfig
	Queue QueueConfig
	OTel  OTelConfig

	PrimaryLLM  ProviderConfig
	SecondaryLLM ProviderConfig
	BackupLLM   ProviderConfig

	ResearchDeadline        time.Duration
	AdapterTimeout          time.Duration
	SOBaseCount             int
	SOMaxCount              int
	DevToPrimaryWindowDays  int
	DevToFallbackWindowDays int
	ModuleAssemblyDeadline  time.Duration
	SchemaVersion           int
	WorkerConcurrency       int
	ShutdownGrace           time.Duration
}

func (c Config) IsProduction() bool  { return c.Env == "production" }
func (c Config) IsDevelopment() bool { return c.Env == "development" }

// Load reads configuration from the environment. Missing .env files are ignored;
// this mirrors local-dev convenience without requiring exported env vars in prod.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:    getEnv("LESSONFORGE_ENV", "development"),
		NodeID: int64(getEnvInt("WORKER_NODE_ID", 1)),

		DB: DBConfig{
			DSN:      buildDSN(),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 2)),
		},

		Queue: QueueConfig{
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Stream:       getEnv("QUEUE_STREAM", "lesson_jobs"),
			Group:        getEnv("QUEUE_GROUP", "lessonforge_workers"),
			Consumer:     getEnv("QUEUE_CONSUMER", hostnameOr("worker-1")),
			DLQStream:    getEnv("QUEUE_DLQ_STREAM", "lesson_jobs_dlq"),
			BatchSize:    int64(getEnvInt("QUEUE_BATCH_SIZE", 10)),
			Block:        getEnvDuration("QUEUE_BLOCK", 5*time.Second),
			MaxAttempts:  getEnvInt("QUEUE_MAX_ATTEMPTS", 3),
			RequeueDelay: getEnvDuration("QUEUE_REQUEUE_DELAY", 0),
			ClaimIdle:    getEnvDuration("QUEUE_CLAIM_IDLE", 2*time.Minute),
		},

		OTel: OTelConfig{
			ServiceName: getEnv("OTEL_SERVICE_NAME", "lessonforge-worker"),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		},

		PrimaryLLM: ProviderConfig{
			Provider:    getEnv("PRIMARY_LLM_PROVIDER", "openai"),
			APIKey:      getEnv("PRIMARY_LLM_API_KEY", ""),
			BaseURL:     getEnv("PRIMARY_LLM_BASE_URL", ""),
			Model:       getEnv("PRIMARY_LLM_MODEL", "gpt-4o-mini"),
			MinInterval: getEnvDuration("PRIMARY_PROVIDER_MIN_INTERVAL_S", 3*time.Second),
		},
		SecondaryLLM: ProviderConfig{
			Provider:    getEnv("SECONDARY_LLM_PROVIDER", "anthropic"),
			APIKey:      getEnv("SECONDARY_LLM_API_KEY", ""),
			BaseURL:     getEnv("SECONDARY_LLM_BASE_URL", ""),
			Model:       getEnv("SECONDARY_LLM_MODEL", "claude-3-5-haiku-latest"),
			MinInterval: getEnvDuration("SECONDARY_PROVIDER_MIN_INTERVAL_S", 0),
		},
		BackupLLM: ProviderConfig{
			Provider:    getEnv("BACKUP_LLM_PROVIDER", "openai_compatible"),
			APIKey:      getEnv("BACKUP_LLM_API_KEY", ""),
			BaseURL:     getEnv("BACKUP_LLM_BASE_URL", ""),
			Model:       getEnv("BACKUP_LLM_MODEL", ""),
			MinInterval: getEnvDuration("BACKUP_PROVIDER_MIN_INTERVAL_S", 6*time.Second),
		},

		ResearchDeadline:        getEnvDuration("RESEARCH_DEADLINE_S", 30*time.Second),
		AdapterTimeout:          getEnvDuration("ADAPTER_TIMEOUT_S", 15*time.Second),
		SOBaseCount:             getEnvInt("SO_BASE_COUNT", 5),
		SOMaxCount:              getEnvInt("SO_MAX_COUNT", 8),
		DevToPrimaryWindowDays:  getEnvInt("DEVTO_PRIMARY_WINDOW_DAYS", 365),
		DevToFallbackWindowDays: getEnvInt("DEVTO_FALLBACK_WINDOW_DAYS", 730),
		ModuleAssemblyDeadline:  getEnvDuration("MODULE_ASSEMBLY_DEADLINE_S", 10*time.Minute),
		SchemaVersion:           getEnvInt("SCHEMA_VERSION", 1),
		WorkerConcurrency:       getEnvInt("WORKER_CONCURRENCY", 1),
		ShutdownGrace:           getEnvDuration("SHUTDOWN_GRACE_S", 30*time.Second),
	}

	if !cfg.PrimaryLLM.Enabled() {
		return Config{}, fmt.Errorf("PRIMARY_LLM_API_KEY is required")
	}

	return cfg, nil
}

func buildDSN() string {
	host := getEnv("DATABASE_HOST", "localhost")
	port := getEnv("DATABASE_PORT", "5432")
	user := getEnv("DATABASE_USER", "postgres")
	password := getEnv("DATABASE_PASSWORD", "postgres")
	name := getEnv("DATABASE_NAME", "lessonforge")
	sslMode := getEnv("DATABASE_SSLMODE", "disable")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user, password, host, port, name, sslMode,
	)
}

func hostnameOr(fallback string) string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return fallback
	}
	return h
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}
