package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

const EnvDevelopment = "development"

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Storage    StorageConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Classifier ClassifierConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	CORSOrigin            string
}

// StorageConfig selects the request store.
type StorageConfig struct {
	Driver string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Enabled         bool
	Addr            string
	Password        string
	DB              int
	StatsTTLSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Development bool
}

// ClassifierConfig configures the AI classification call.
type ClassifierConfig struct {
	AnthropicAPIKey string
	Model           string
	MaxTokens       int
	TimeoutSeconds  int
}

// Load reads configuration from .env and environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name:                  v.GetString("APP_NAME"),
			Env:                   v.GetString("APP_ENV"),
			Host:                  v.GetString("APP_HOST"),
			Port:                  v.GetString("APP_PORT"),
			Version:               v.GetString("APP_VERSION"),
			RequestTimeoutSeconds: v.GetInt("HTTP_REQUEST_TIMEOUT_SECONDS"),
			CORSOrigin:            v.GetString("FRONTEND_URL"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
		},
		Postgres: PostgresConfig{
			DSN:            v.GetString("POSTGRES_DSN"),
			MaxConns:       v.GetInt32("POSTGRES_MAX_CONNS"),
			MinConns:       v.GetInt32("POSTGRES_MIN_CONNS"),
			RunMigrations:  v.GetBool("POSTGRES_RUN_MIGRATIONS"),
			ConnMaxIdleSec: v.GetInt32("POSTGRES_CONN_MAX_IDLE_SECONDS"),
			ConnMaxLifeSec: v.GetInt32("POSTGRES_CONN_MAX_LIFE_SECONDS"),
		},
		Redis: RedisConfig{
			Enabled:         v.GetBool("REDIS_ENABLED"),
			Addr:            v.GetString("REDIS_ADDR"),
			Password:        v.GetString("REDIS_PASSWORD"),
			DB:              v.GetInt("REDIS_DB"),
			StatsTTLSeconds: v.GetInt("REDIS_STATS_TTL_SECONDS"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Classifier: ClassifierConfig{
			AnthropicAPIKey: v.GetString("ANTHROPIC_API_KEY"),
			Model:           v.GetString("CLASSIFIER_MODEL"),
			MaxTokens:       v.GetInt("CLASSIFIER_MAX_TOKENS"),
			TimeoutSeconds:  v.GetInt("CLASSIFIER_TIMEOUT_SECONDS"),
		},
	}
	cfg.Logger.Development = cfg.App.Env == EnvDevelopment

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "campusdesk-api")
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("APP_HOST", "0.0.0.0")
	v.SetDefault("APP_PORT", "3001")
	v.SetDefault("APP_VERSION", "dev")
	v.SetDefault("HTTP_REQUEST_TIMEOUT_SECONDS", 30)
	v.SetDefault("FRONTEND_URL", "*")

	v.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)

	v.SetDefault("POSTGRES_MAX_CONNS", 10)
	v.SetDefault("POSTGRES_MIN_CONNS", 2)
	v.SetDefault("POSTGRES_RUN_MIGRATIONS", true)
	v.SetDefault("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)
	v.SetDefault("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_STATS_TTL_SECONDS", 60)

	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("CLASSIFIER_MODEL", "claude-haiku-4-5-20251001")
	v.SetDefault("CLASSIFIER_MAX_TOKENS", 200)
	v.SetDefault("CLASSIFIER_TIMEOUT_SECONDS", 15)
}

// Validate reports configuration the process cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres:
		dsn := strings.TrimSpace(c.Postgres.DSN)
		if dsn == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_DRIVER=postgres")
		}
		if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
			return errors.New("POSTGRES_DSN must be a postgres:// or postgresql:// URL")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, c.Storage.Driver)
	}
	if c.Classifier.MaxTokens <= 0 {
		return fmt.Errorf("invalid CLASSIFIER_MAX_TOKENS: %d", c.Classifier.MaxTokens)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// StatsTTL returns how long cached stats stay valid.
func (r RedisConfig) StatsTTL() time.Duration {
	if r.StatsTTLSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(r.StatsTTLSeconds) * time.Second
}

// Enabled reports whether an API key is available for AI classification.
func (c ClassifierConfig) Enabled() bool {
	return strings.TrimSpace(c.AnthropicAPIKey) != ""
}

// Timeout bounds a single classification call.
func (c ClassifierConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
