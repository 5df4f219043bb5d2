package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Archive  ArchiveConfig
	Groq     GroqConfig
	JWT      JWTConfig
	Sync     SyncConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel        string   `envconfig:"LOG_LEVEL" default:"info"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"meeting_taskflow"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// StorageConfig selects the backend for meetings, teams and notifications
type StorageConfig struct {
	Driver string `envconfig:"STORAGE_DRIVER" default:"postgres"`
}

// ArchiveConfig holds the MinIO settings for transcript archiving
type ArchiveConfig struct {
	Enabled         bool   `envconfig:"ARCHIVE_ENABLED" default:"false"`
	Endpoint        string `envconfig:"ARCHIVE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"ARCHIVE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"ARCHIVE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"ARCHIVE_BUCKET" default:"meeting-transcripts"`
	UseSSL          bool   `envconfig:"ARCHIVE_USE_SSL" default:"false"`
}

// GroqConfig holds the summarizer settings
type GroqConfig struct {
	APIKey          string        `envconfig:"GROQ_API_KEY"`
	BaseURL         string        `envconfig:"GROQ_API_URL" default:"https://api.groq.com"`
	Model           string        `envconfig:"GROQ_MODEL" default:"llama-3.3-70b-versatile"`
	Timeout         time.Duration `envconfig:"GROQ_TIMEOUT" default:"60s"`
	MaxRetryElapsed time.Duration `envconfig:"GROQ_MAX_RETRY_ELAPSED" default:"30s"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret string        `envconfig:"JWT_ACCESS_SECRET" default:"your-access-secret-change-in-production"`
	AccessExpiry time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"24h"`
}

// SyncConfig holds live sync settings
type SyncConfig struct {
	MaxQueuedUpdates  int           `envconfig:"SYNC_MAX_QUEUED_UPDATES" default:"100"`
	PollInterval      time.Duration `envconfig:"SYNC_POLL_INTERVAL" default:"2s"`
	ConnectivityCheck time.Duration `envconfig:"SYNC_CONNECTIVITY_CHECK" default:"5s"`
	OpenTimeout       time.Duration `envconfig:"SYNC_OPEN_TIMEOUT" default:"10s"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverRedis:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverRedis, c.Storage.Driver)
	}
	if c.Groq.APIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required")
	}
	if c.IsProduction() && strings.Contains(c.JWT.AccessSecret, "change-in-production") {
		return fmt.Errorf("JWT_ACCESS_SECRET must be set in production")
	}
	if c.Sync.MaxQueuedUpdates <= 0 {
		return fmt.Errorf("SYNC_MAX_QUEUED_UPDATES must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
