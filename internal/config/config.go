package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Looker   LookerConfig
	Stream   StreamConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Ai       AIConfig
	Export   ExportConfig
	Status   StatusConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

// LookerConfig points at the dashboard host API (Looker API 4.0).
type LookerConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

type StreamConfig struct {
	URL          string // ws://host:port/api/ws
	JWTSecret    string // empty disables handshake auth
	TokenTTL     time.Duration
	WriteTimeout time.Duration
}

type CacheConfig struct {
	Driver    string // "memory" | "redis" | "postgres"
	KeyPrefix string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider   string // "ollama"
	OllamaBaseURL string
	LLMModel      string
}

type ExportConfig struct {
	SlackBotToken  string
	SlackChannelID string
}

type StatusConfig struct {
	DismissDelay time.Duration
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Looker: LookerConfig{
			BaseURL:      getEnv("LOOKER_BASE_URL", ""),
			ClientID:     getEnv("LOOKER_CLIENT_ID", ""),
			ClientSecret: getEnv("LOOKER_CLIENT_SECRET", ""),
		},
		Stream: StreamConfig{
			URL:          getEnv("STREAM_URL", "ws://localhost:3000/api/ws"),
			JWTSecret:    getEnv("STREAM_JWT_SECRET", ""),
			TokenTTL:     getEnvAsDuration("STREAM_TOKEN_TTL", time.Hour),
			WriteTimeout: getEnvAsDuration("STREAM_WRITE_TIMEOUT", 10*time.Second),
		},
		Cache: CacheConfig{
			Driver:    getEnv("CACHE_DRIVER", "memory"),
			KeyPrefix: getEnv("CACHE_KEY_PREFIX", "dashsum:"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "ollama"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMModel:      getEnv("LLM_MODEL", "llama3"),
		},
		Export: ExportConfig{
			SlackBotToken:  getEnv("SLACK_BOT_TOKEN", ""),
			SlackChannelID: getEnv("SLACK_CHANNEL_ID", ""),
		},
		Status: StatusConfig{
			DismissDelay: getEnvAsDuration("STATUS_DISMISS_DELAY", time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("1500ms") or bare seconds ("2").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs := getEnvAsInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
