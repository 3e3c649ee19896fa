package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		BaseURL string
	}

	// Database configuration
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
	}

	// Redis configuration
	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	// Worker configuration for the message pipeline
	Worker struct {
		QueueKey      string
		PoolSize      int
		PollTimeout   time.Duration
		MaxRetries    int
		SweepInterval time.Duration
	}

	// AI provider configuration
	AI struct {
		GeminiAPIKey string
		Model        string
		MaxTokens    int
		CacheTTL     time.Duration
		Timeout      time.Duration
	}

	// Channel API endpoints
	Channels struct {
		InstagramAPIURL      string
		InstagramVerifyToken string
		KakaoAPIURL          string
		NaverAPIURL          string
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables.
// Uses singleton pattern to ensure only one instance exists.
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "8082")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.BaseURL = getEnvString("BASE_URL", "https://autoreplyx.com")

		// Database config
		instance.Database.Host = getEnvString("DB_HOST", "localhost")
		instance.Database.Port = getEnvString("DB_PORT", "5432")
		instance.Database.User = getEnvString("DB_USER", "postgres")
		instance.Database.Password = getEnvString("DB_PASSWORD", "postgres")
		instance.Database.Name = getEnvString("DB_NAME", "autoreplyx")
		instance.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
		instance.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)

		// Redis config
		instance.Redis.Addr = getEnvString("REDIS_URL", "localhost:6379")
		instance.Redis.Password = getEnvString("REDIS_PASSWORD", "")
		instance.Redis.DB = getEnvInt("REDIS_DB", 0)

		// Worker config
		instance.Worker.QueueKey = getEnvString("MESSAGE_QUEUE_KEY", "autoreplyx:message_queue")
		instance.Worker.PoolSize = getEnvInt("WORKER_POOL_SIZE", 4)
		instance.Worker.PollTimeout = getEnvDuration("WORKER_POLL_TIMEOUT", 5*time.Second)
		instance.Worker.MaxRetries = getEnvInt("WORKER_MAX_RETRIES", 3)
		instance.Worker.SweepInterval = getEnvDuration("WORKER_SWEEP_INTERVAL", 5*time.Minute)

		// AI config
		instance.AI.GeminiAPIKey = getEnvString("GEMINI_API_KEY", "")
		instance.AI.Model = getEnvString("GEMINI_MODEL", "gemini-2.0-flash")
		instance.AI.MaxTokens = getEnvInt("GEMINI_MAX_TOKENS", 200)
		instance.AI.CacheTTL = getEnvDuration("AI_CACHE_TTL", 24*time.Hour)
		instance.AI.Timeout = getEnvDuration("AI_TIMEOUT", 30*time.Second)

		// Channel API config
		instance.Channels.InstagramAPIURL = getEnvString("INSTAGRAM_API_URL", "https://graph.instagram.com/v21.0")
		instance.Channels.InstagramVerifyToken = getEnvString("INSTAGRAM_VERIFY_TOKEN", "")
		instance.Channels.KakaoAPIURL = getEnvString("KAKAO_API_URL", "https://kapi.kakao.com")
		instance.Channels.NaverAPIURL = getEnvString("NAVER_API_URL", "https://gw.talk.naver.com")

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
