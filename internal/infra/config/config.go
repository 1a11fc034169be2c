package config

import (
	"os"
	"strconv"
	"strings"
)

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// DSN renders the pgx connection string.
func (c DBConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.Name + "?sslmode=disable"
}

type EmbedderConfig struct {
	URL     string
	Model   string
	APIKey  string
	Timeout int
}

type IndexConfig struct {
	// Backend selects the vector index implementation: "http" for the
	// managed REST index, "pgvector" for Postgres.
	Backend string
	URL     string
	APIKey  string
	Timeout int
}

type GenerationConfig struct {
	URL     string
	Model   string
	Timeout int
}

type RAGConfig struct {
	TopK      int
	MaxTokens int

	// Hybrid ranking weights. They should sum to 1.0; defaults follow the
	// production ranking profile.
	WeightVector  float64
	WeightKeyword float64
	WeightMedical float64
	WeightLength  float64
}

type RetryConfig struct {
	MaxAttempts    int
	AttemptTimeout int
}

type CacheConfig struct {
	Size int
	TTL  int // minutes
}

type OTelConfig struct {
	Enabled  bool
	Endpoint string
}

type Config struct {
	Env  string
	Port string

	DB         DBConfig
	Embedder   EmbedderConfig
	Index      IndexConfig
	Generation GenerationConfig
	RAG        RAGConfig
	Retry      RetryConfig
	Cache      CacheConfig
	OTel       OTelConfig
}

func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9020"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "handbook-db"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "handbook_user"),
			Password: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "handbook_password"),
			Name:     getEnv("DB_NAME", "handbook_db"),
		},
		Embedder: EmbedderConfig{
			URL:     getEnv("EMBEDDER_URL", "https://api-inference.huggingface.co"),
			Model:   getEnv("EMBEDDING_MODEL", "sentence-transformers/all-MiniLM-L6-v2"),
			APIKey:  getSecret("EMBEDDER_API_KEY", "EMBEDDER_API_KEY_FILE", ""),
			Timeout: getEnvInt("EMBEDDER_TIMEOUT", 30),
		},
		Index: IndexConfig{
			Backend: getEnv("INDEX_BACKEND", "http"),
			URL:     getEnv("INDEX_URL", "http://vector-index:8080"),
			APIKey:  getSecret("INDEX_API_KEY", "INDEX_API_KEY_FILE", ""),
			Timeout: getEnvInt("INDEX_TIMEOUT", 30),
		},
		Generation: GenerationConfig{
			URL:     getEnv("GENERATION_URL", "http://generation:11434"),
			Model:   getEnv("GENERATION_MODEL", "gemini-pro"),
			Timeout: getEnvInt("GENERATION_TIMEOUT", 120),
		},
		RAG: RAGConfig{
			TopK:          getEnvInt("RAG_DEFAULT_TOP_K", 5),
			MaxTokens:     getEnvInt("RAG_DEFAULT_MAX_TOKENS", 768),
			WeightVector:  getEnvFloat("RAG_WEIGHT_VECTOR", 0.6),
			WeightKeyword: getEnvFloat("RAG_WEIGHT_KEYWORD", 0.25),
			WeightMedical: getEnvFloat("RAG_WEIGHT_MEDICAL", 0.10),
			WeightLength:  getEnvFloat("RAG_WEIGHT_LENGTH", 0.05),
		},
		Retry: RetryConfig{
			MaxAttempts:    getEnvInt("GENERATION_MAX_ATTEMPTS", 3),
			AttemptTimeout: getEnvInt("GENERATION_ATTEMPT_TIMEOUT", 30),
		},
		Cache: CacheConfig{
			Size: getEnvInt("CONVERSATION_CACHE_SIZE", 256),
			TTL:  getEnvInt("CONVERSATION_CACHE_TTL_MINUTES", 30),
		},
		OTel: OTelConfig{
			Enabled:  getEnvBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://otel-collector:4317"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getSecret reads envKey directly, then falls back to the file named by
// fileEnvKey (docker secrets style), then to the fallback.
func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
