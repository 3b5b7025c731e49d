package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Engine   EngineConfig
	Gemini   GeminiConfig
	Scoring  ScoringConfig
	Storage  StorageConfig
	Worker   WorkerConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	// Backend selects the job store: "redis", "memory" (single instance
	// only) or "none" for synchronous scoring.
	Backend  string
	Enabled  bool
	Addr     string
	Password string
	DB       int
	JobTTL   time.Duration
}

type EngineConfig struct {
	// Kind is either "http" or "gemini".
	Kind    string
	URL     string
	Timeout time.Duration
}

type GeminiConfig struct {
	APIKey           string
	Model            string
	MaxParseAttempts int
}

type ScoringConfig struct {
	MaxJobDescriptionLength int
}

type StorageConfig struct {
	MaxFileSize int64
}

type WorkerConfig struct {
	Concurrency int
	QueueSize   int
}

type LogConfig struct {
	JSON  bool
	Debug bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() *Config {
	env := getEnv("ENV", "development")

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  env,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "candidate_ranker"),
		},
		Redis: RedisConfig{
			Backend:  strings.ToLower(getEnv("JOB_STORE", "redis")),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			JobTTL:   getEnvAsDuration("JOB_TTL", "5m"),
		},
		Engine: EngineConfig{
			Kind:    strings.ToLower(getEnv("SCORING_ENGINE", "http")),
			URL:     getEnv("SCORING_ENGINE_URL", "http://localhost:8000/"),
			Timeout: getEnvAsDuration("SCORING_ENGINE_TIMEOUT", "60s"),
		},
		Gemini: GeminiConfig{
			APIKey:           getEnv("GEMINI_API_KEY", ""),
			Model:            getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			MaxParseAttempts: getEnvAsInt("MAX_PARSE_ATTEMPTS", 3),
		},
		Scoring: ScoringConfig{
			MaxJobDescriptionLength: getEnvAsInt("JD_MAX_LENGTH", 200),
		},
		Storage: StorageConfig{
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
		},
		Worker: WorkerConfig{
			Concurrency: getEnvAsInt("WORKER_CONCURRENCY", 4),
			QueueSize:   getEnvAsInt("WORKER_QUEUE_SIZE", 100),
		},
		Log: LogConfig{
			JSON:  getEnvAsBool("LOG_JSON", env == "production"),
			Debug: getEnvAsBool("LOG_DEBUG", env == "development"),
		},
	}
}

// Validate reports configuration that cannot be used to start the server.
func (c *Config) Validate() error {
	switch c.Engine.Kind {
	case "http":
		if c.Engine.URL == "" {
			return fmt.Errorf("SCORING_ENGINE_URL is required for the http engine")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini engine")
		}
	default:
		return fmt.Errorf("unknown SCORING_ENGINE %q", c.Engine.Kind)
	}
	switch c.Redis.Backend {
	case "redis", "memory", "none":
	default:
		return fmt.Errorf("unknown JOB_STORE %q", c.Redis.Backend)
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("WORKER_CONCURRENCY must be positive")
	}
	if c.Redis.JobTTL <= 0 {
		return fmt.Errorf("JOB_TTL must be positive")
	}
	return nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
