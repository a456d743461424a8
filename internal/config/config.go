package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	DriverBolt     = "bolt"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Storage     StorageConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Buffer      BufferConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
	LLM         LLMConfig
	Reference   ReferenceConfig
}

type HTTPConfig struct {
	Host          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	MaxConn       int
	EnablePprof   bool
	EnableMetrics bool
}

// StorageConfig selects where the ledger and calendar documents live.
type StorageConfig struct {
	Driver      string
	HistoryKey  string
	CalendarKey string
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	URL       string
	Password  string
	DB        int
	KeyPrefix string
}

type JWTConfig struct {
	Secret string
	Issuer string
}

// BufferConfig covers the local bbolt file. With the bolt driver it holds the documents
// themselves; with a remote driver it holds the pending-write buffer.
type BufferConfig struct {
	Path          string
	SyncInterval  time.Duration
	BatchSize     int
	MaxRetry      int
	CheckInterval time.Duration
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
}

type LLMConfig struct {
	APIKey           string
	Model            string
	MaxTokens        int
	BaseURL          string
	SystemPromptPath string
	MaxRetries       int
	Timeout          time.Duration
}

type ReferenceConfig struct {
	Path string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "tisabrain"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:          getString("SERVER_HOST", "0.0.0.0"),
			Port:          getString("SERVER_PORT", "8080"),
			ReadTimeout:   getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  getDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			IdleTimeout:   getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:       getInt("SERVER_MAX_CONN", 0),
			EnablePprof:   getBool("SERVER_ENABLE_PPROF", false),
			EnableMetrics: getBool("SERVER_ENABLE_METRICS", true),
		},
		Storage: StorageConfig{
			Driver:      getString("STORAGE_DRIVER", DriverBolt),
			HistoryKey:  getString("HISTORY_KEY", "tisa-brain-history"),
			CalendarKey: getString("CALENDAR_KEY", "tisa-brain-calendar"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "tisabrain"),
			User:            getString("DB_USER", "tisabrain"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 2),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:       getString("REDIS_URL", "redis://localhost:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        getInt("REDIS_DB", 0),
			KeyPrefix: getString("REDIS_KEY_PREFIX", "doc:"),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getString("JWT_ISSUER", "tisabrain"),
		},
		Buffer: BufferConfig{
			Path:          getString("BOLTDB_PATH", "./data/tisabrain.db"),
			SyncInterval:  getDuration("SYNC_INTERVAL_SECONDS", 30*time.Second),
			BatchSize:     getInt("BUFFER_BATCH_SIZE", 50),
			MaxRetry:      getInt("MAX_RETRY_ATTEMPTS", 3),
			CheckInterval: getDuration("MONITOR_INTERVAL_SECONDS", 10*time.Second),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
		},
		LLM: LLMConfig{
			APIKey:           os.Getenv("ANTHROPIC_API_KEY"),
			Model:            getString("LLM_MODEL", "claude-sonnet-4-5"),
			MaxTokens:        getInt("LLM_MAX_TOKENS", 4096),
			BaseURL:          os.Getenv("LLM_BASE_URL"),
			SystemPromptPath: os.Getenv("LLM_SYSTEM_PROMPT_PATH"),
			MaxRetries:       getInt("LLM_MAX_RETRIES", 2),
			Timeout:          getDuration("LLM_TIMEOUT_SECONDS", 60*time.Second),
		},
		Reference: ReferenceConfig{
			Path: os.Getenv("REFERENCE_PATH"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverBolt, DriverRedis, DriverPostgres:
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Storage.HistoryKey == "" || c.Storage.CalendarKey == "" {
		return fmt.Errorf("config: document keys must not be empty")
	}
	if c.Storage.HistoryKey == c.Storage.CalendarKey {
		return fmt.Errorf("config: history and calendar keys must differ")
	}
	if c.Buffer.Path == "" {
		return fmt.Errorf("config: BOLTDB_PATH is required")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("config: LLM_MAX_TOKENS must be positive")
	}
	return nil
}

// Remote reports whether documents live outside the local bbolt file.
func (c *Config) Remote() bool {
	return c.Storage.Driver != DriverBolt
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
