package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the triage service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Images    ImagesConfig    `mapstructure:"images"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Prompts   PromptsConfig   `mapstructure:"prompts"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains the model provider configuration
type LLMConfig struct {
	Provider        string        `mapstructure:"provider"` // openai only for now
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	CompletionModel string        `mapstructure:"completion_model"`
	VisionModel     string        `mapstructure:"vision_model"`
	EmbeddingModel  string        `mapstructure:"embedding_model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
}

// RetrievalConfig contains hybrid retrieval settings
type RetrievalConfig struct {
	TopK         int    `mapstructure:"top_k"`
	MaxGraphHops int    `mapstructure:"max_graph_hops"`
	GraphFile    string `mapstructure:"graph_file"` // optional declarative graph override
}

// IngestConfig contains text chunking settings
type IngestConfig struct {
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
}

// ImagesConfig contains image storage settings
type ImagesConfig struct {
	StorageDir     string `mapstructure:"storage_dir"`
	MaxImageSizeMB int    `mapstructure:"max_image_size_mb"`
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DSN builds a connection string from the configured fields.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// RedisConfig contains Redis connection settings for session history
type RedisConfig struct {
	Host       string        `mapstructure:"host"`
	Port       string        `mapstructure:"port"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	Timeout    time.Duration `mapstructure:"timeout"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// TelemetryConfig contains monitoring settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// PromptsConfig carries the system instructions for every
// content-generating workflow stage plus the vision prompt templates.
// They are data, not code, so they can be tuned without a redeploy.
type PromptsConfig struct {
	Router             string `mapstructure:"router"`
	Triage             string `mapstructure:"triage"`
	SelfCare           string `mapstructure:"self_care"`
	DoctorReferral     string `mapstructure:"doctor_referral"`
	Clarification      string `mapstructure:"clarification"`
	RejectMessage      string `mapstructure:"reject_message"`
	FailureMessage     string `mapstructure:"failure_message"`
	VisionAnalyze      string `mapstructure:"vision_analyze"`
	VisionAnalyzeQuery string `mapstructure:"vision_analyze_query"` // %s = user query
	VisionSummary      string `mapstructure:"vision_summary"`
}

// LoadConfig loads configuration from file and environment variables.
// The config file is optional; defaults cover everything but the API key.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("MEDTRIAGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	overrideFromEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("general.debug", false)
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "30s")

	viper.SetDefault("server.address", ":8080")

	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.completion_model", "gpt-4o-mini")
	viper.SetDefault("llm.vision_model", "gpt-4o-mini")
	viper.SetDefault("llm.embedding_model", "text-embedding-3-small")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.max_tokens", 1000)
	viper.SetDefault("llm.timeout", "60s")
	viper.SetDefault("llm.max_retries", 2)

	viper.SetDefault("retrieval.top_k", 4)
	viper.SetDefault("retrieval.max_graph_hops", 2)

	viper.SetDefault("ingest.chunk_size", 1000)
	viper.SetDefault("ingest.chunk_overlap", 200)

	viper.SetDefault("images.storage_dir", "./medical_images")
	viper.SetDefault("images.max_image_size_mb", 10)

	viper.SetDefault("storage.postgres.sslmode", "disable")
	viper.SetDefault("storage.postgres.timeout", "5s")
	viper.SetDefault("storage.redis.host", "")
	viper.SetDefault("storage.redis.port", "6379")
	viper.SetDefault("storage.redis.db", 0)
	viper.SetDefault("storage.redis.timeout", "5s")
	viper.SetDefault("storage.redis.session_ttl", "24h")

	viper.SetDefault("telemetry.enabled", true)

	viper.SetDefault("prompts.router", DefaultRouterPrompt)
	viper.SetDefault("prompts.triage", DefaultTriagePrompt)
	viper.SetDefault("prompts.self_care", DefaultSelfCarePrompt)
	viper.SetDefault("prompts.doctor_referral", DefaultDoctorReferralPrompt)
	viper.SetDefault("prompts.clarification", DefaultClarificationPrompt)
	viper.SetDefault("prompts.reject_message", DefaultRejectMessage)
	viper.SetDefault("prompts.failure_message", DefaultFailureMessage)
	viper.SetDefault("prompts.vision_analyze", DefaultVisionAnalyzePrompt)
	viper.SetDefault("prompts.vision_analyze_query", DefaultVisionAnalyzeQueryPrompt)
	viper.SetDefault("prompts.vision_summary", DefaultVisionSummaryPrompt)
}

// overrideFromEnv overrides configuration with well-known environment variables
func overrideFromEnv() {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		viper.Set("llm.api_key", apiKey)
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		viper.Set("storage.postgres.url", url)
	}
	if host := os.Getenv("REDIS_HOST"); host != "" {
		viper.Set("storage.redis.host", host)
	}
	if port := os.Getenv("REDIS_PORT"); port != "" {
		viper.Set("storage.redis.port", port)
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		viper.Set("storage.redis.password", password)
	}
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.LLM.Provider != "openai" {
		return fmt.Errorf("unsupported llm provider: %s", config.LLM.Provider)
	}
	if config.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size must be > 0")
	}
	if config.Ingest.ChunkOverlap < 0 || config.Ingest.ChunkOverlap >= config.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be in [0, chunk_size)")
	}
	if config.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be > 0")
	}
	return nil
}
