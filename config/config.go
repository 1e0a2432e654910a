package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var (
	dotEnvOnce sync.Once
	dotEnvErr  error
)

// loadDotEnv loads .env once per process. A missing file is not fatal.
func loadDotEnv() error {
	dotEnvOnce.Do(func() {
		dotEnvErr = godotenv.Load()
	})
	return dotEnvErr
}

// Config is the application configuration.
type Config struct {
	Server    ServerConfig
	LLM       LLMConfig
	Database  DatabaseConfig
	MinIO     MinIOConfig
	TTS       TTSConfig
	Retention RetentionConfig
	Log       LogConfig

	// DotEnvErr is set when .env could not be loaded; callers log it.
	DotEnvErr error
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            string
	Env             string
	PublicDir       string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// LLMConfig selects and configures the completion backend.
type LLMConfig struct {
	Provider     string // "openai" (OpenRouter compatible) or "gemini"
	BaseURL      string
	APIKey       string
	Model        string
	GeminiAPIKey string
	GeminiModel  string
	MaxTokens    int
	Timeout      time.Duration
	MaxRetries   int
	Referer      string
	AppTitle     string
}

// DatabaseConfig configures lesson persistence.
type DatabaseConfig struct {
	Driver     string // "postgres", "sqlite" or "memory"
	URL        string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
	LogQueries bool
}

// MinIOConfig configures the object store used for archives and narration audio.
type MinIOConfig struct {
	Endpoint        string
	BucketName      string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether an endpoint was configured.
func (m MinIOConfig) Enabled() bool {
	return m.Endpoint != ""
}

// TTSConfig configures lesson narration.
type TTSConfig struct {
	EdgeURL      string
	OutputFormat string
	Timeout      time.Duration
}

// RetentionConfig configures the lesson retention sweep.
type RetentionConfig struct {
	Schedule string
	MaxAge   time.Duration
}

// LogConfig configures the logger.
type LogConfig struct {
	Mode string
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() *Config {
	err := loadDotEnv()

	return &Config{
		Server: ServerConfig{
			Host:            getEnvOrDefault("HOST", "0.0.0.0"),
			Port:            getEnvOrDefault("PORT", "10000"),
			Env:             getEnvOrDefault("APP_ENV", "development"),
			PublicDir:       getEnvOrDefault("PUBLIC_DIR", "public"),
			AllowedOrigins:  getEnvListOrDefault("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
			ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		LLM: LLMConfig{
			Provider:     getEnvOrDefault("LLM_PROVIDER", "openai"),
			BaseURL:      getEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			APIKey:       firstEnv("OPENROUTER_API_KEY", "OPENAI_API_KEY"),
			Model:        getEnvOrDefault("OPENROUTER_MODEL", "google/gemini-2.0-flash-001"),
			GeminiAPIKey: getEnvOrDefault("GEMINI_API_KEY", ""),
			GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
			MaxTokens:    getEnvIntOrDefault("LLM_MAX_TOKENS", 4096),
			Timeout:      getEnvDurationOrDefault("LLM_TIMEOUT", 90*time.Second),
			MaxRetries:   getEnvIntOrDefault("LLM_MAX_RETRIES", 3),
			Referer:      getEnvOrDefault("OPENROUTER_REFERER", "http://localhost"),
			AppTitle:     getEnvOrDefault("OPENROUTER_APP_TITLE", "EasyStory"),
		},
		Database: DatabaseConfig{
			Driver:     getEnvOrDefault("DB_DRIVER", "memory"),
			URL:        getEnvOrDefault("DATABASE_URL", ""),
			Host:       getEnvOrDefault("DB_HOST", "localhost"),
			Port:       getEnvOrDefault("DB_PORT", "5432"),
			User:       getEnvOrDefault("DB_USER", "postgres"),
			Password:   getEnvOrDefault("DB_PASSWORD", ""),
			Name:       getEnvOrDefault("DB_NAME", "postgres"),
			SSLMode:    getEnvOrDefault("DB_SSLMODE", "require"),
			SQLitePath: getEnvOrDefault("SQLITE_PATH", "easylesson.db"),
			LogQueries: getEnvBoolOrDefault("DB_LOG_QUERIES", false),
		},
		MinIO: MinIOConfig{
			Endpoint:        getEnvOrDefault("MINIO_ENDPOINT", ""),
			BucketName:      getEnvOrDefault("MINIO_BUCKET", "easylesson"),
			AccessKeyID:     getEnvOrDefault("MINIO_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnvOrDefault("MINIO_SECRET_KEY", "minioadmin"),
		},
		TTS: TTSConfig{
			EdgeURL:      getEnvOrDefault("EDGE_TTS_URL", "https://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"),
			OutputFormat: getEnvOrDefault("EDGE_TTS_FORMAT", "audio-16khz-32kbitrate-mono-mp3"),
			Timeout:      getEnvDurationOrDefault("EDGE_TTS_TIMEOUT", 30*time.Second),
		},
		Retention: RetentionConfig{
			Schedule: getEnvOrDefault("RETENTION_SCHEDULE", "0 0 3 * * *"),
			MaxAge:   getEnvDurationOrDefault("RETENTION_MAX_AGE", 0),
		},
		Log: LogConfig{
			Mode: getEnvOrDefault("LOG_MODE", "development"),
		},
		DotEnvErr: err,
	}
}

// getEnvOrDefault returns the variable or the default when unset or empty.
func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvIntOrDefault parses an integer variable, falling back on parse errors.
func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// getEnvDurationOrDefault accepts Go durations ("90s") or a bare number of seconds.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
