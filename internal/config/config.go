package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Helpdesk drivers
const (
	HelpdeskNone     = "none"
	HelpdeskZendesk  = "zendesk"
	HelpdeskPostgres = "postgres"
)

// State store drivers
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Helpdesk collaborator configuration
	Helpdesk HelpdeskConfig

	// Database configuration, used by the postgres helpdesk driver
	Database DatabaseConfig

	// Shared state store configuration
	StateStore StateStoreConfig

	// Telephony widget configuration
	Telephony TelephonyConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// WebSocket configuration
	WebSocket WebSocketConfig

	// CORS configuration
	CORS CORSConfig

	// Panel session configuration
	Session SessionConfig

	// Logging configuration
	Logging LoggingConfig

	// Application metadata
	App AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// HelpdeskConfig selects and configures the helpdesk client
type HelpdeskConfig struct {
	Driver  string // none, zendesk, postgres
	Zendesk ZendeskConfig
}

// ZendeskConfig holds Zendesk REST API configuration
type ZendeskConfig struct {
	Subdomain  string
	BaseURL    string // overrides Subdomain, mainly for tests and proxies
	Email      string
	APIToken   string
	Timeout    time.Duration
	MaxRetries int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
	RunMigrations   bool
}

// StateStoreConfig holds shared state store configuration
type StateStoreConfig struct {
	Driver        string // memory, redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
	TTL           time.Duration
}

// TelephonyConfig holds telephony widget configuration
type TelephonyConfig struct {
	Origin string // the only origin outbound call requests may be posted to
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
}

// WebSocketConfig holds WebSocket configuration
type WebSocketConfig struct {
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// SessionConfig holds panel session configuration
type SessionConfig struct {
	IdleTTL        time.Duration
	SweepInterval  time.Duration
	MaxUploadBytes int64
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

// fileConfig is the optional YAML overlay named by CONFIG_FILE. Secrets are
// never read from it. Environment variables win over file values.
type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Helpdesk struct {
		Driver  string `yaml:"driver"`
		Zendesk struct {
			Subdomain string `yaml:"subdomain"`
			BaseURL   string `yaml:"base_url"`
			Email     string `yaml:"email"`
			Timeout   string `yaml:"timeout"`
		} `yaml:"zendesk"`
	} `yaml:"helpdesk"`
	StateStore struct {
		Driver    string `yaml:"driver"`
		RedisAddr string `yaml:"redis_addr"`
		KeyPrefix string `yaml:"key_prefix"`
		TTL       string `yaml:"ttl"`
	} `yaml:"state_store"`
	Telephony struct {
		Origin string `yaml:"origin"`
	} `yaml:"telephony"`
	WebSocket struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"websocket"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	Session struct {
		IdleTTL string `yaml:"idle_ttl"`
	} `yaml:"session"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Load loads configuration from environment variables, layered over the
// optional CONFIG_FILE overlay.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var file fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		loaded, err := loadFileConfig(path)
		if err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		file = loaded
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", firstNonEmpty(file.Server.Port, ":8080")),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Helpdesk: HelpdeskConfig{
			Driver: strings.ToLower(getEnvOrDefault("HELPDESK_DRIVER", firstNonEmpty(file.Helpdesk.Driver, HelpdeskNone))),
			Zendesk: ZendeskConfig{
				Subdomain:  getEnvOrDefault("ZENDESK_SUBDOMAIN", file.Helpdesk.Zendesk.Subdomain),
				BaseURL:    getEnvOrDefault("ZENDESK_BASE_URL", file.Helpdesk.Zendesk.BaseURL),
				Email:      getEnvOrDefault("ZENDESK_EMAIL", file.Helpdesk.Zendesk.Email),
				APIToken:   os.Getenv("ZENDESK_API_TOKEN"),
				Timeout:    getDurationOrDefault("ZENDESK_TIMEOUT", parseDurationOr(file.Helpdesk.Zendesk.Timeout, 10*time.Second)),
				MaxRetries: getIntOrDefault("ZENDESK_MAX_RETRIES", 3),
			},
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxConns:        getIntOrDefault("DB_MAX_CONNS", 10),
			MinConns:        getIntOrDefault("DB_MIN_CONNS", 1),
			ConnMaxLifetime: getDurationOrDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getDurationOrDefault("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			MigrationsPath:  getEnvOrDefault("DB_MIGRATIONS_PATH", "file://migrations"),
			RunMigrations:   getBoolOrDefault("DB_RUN_MIGRATIONS", true),
		},
		StateStore: StateStoreConfig{
			Driver:        strings.ToLower(getEnvOrDefault("STATE_STORE_DRIVER", firstNonEmpty(file.StateStore.Driver, StoreMemory))),
			RedisAddr:     getEnvOrDefault("REDIS_ADDR", file.StateStore.RedisAddr),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getIntOrDefault("REDIS_DB", 0),
			KeyPrefix:     getEnvOrDefault("REDIS_KEY_PREFIX", firstNonEmpty(file.StateStore.KeyPrefix, "caller-panel")),
			TTL:           getDurationOrDefault("STATE_STORE_TTL", parseDurationOr(file.StateStore.TTL, 12*time.Hour)),
		},
		Telephony: TelephonyConfig{
			Origin: getEnvOrDefault("TELEPHONY_ORIGIN", firstNonEmpty(file.Telephony.Origin, "https://applications.zoom.us")),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolOrDefault("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getFloatOrDefault("RATE_LIMIT_RPS", 20),
			BurstSize:         getIntOrDefault("RATE_LIMIT_BURST", 40),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins:  getStringSliceOrDefault("WS_ALLOWED_ORIGINS", file.WebSocket.AllowedOrigins),
			ReadBufferSize:  getIntOrDefault("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: getIntOrDefault("WS_WRITE_BUFFER_SIZE", 1024),
		},
		CORS: CORSConfig{
			AllowedOrigins: getStringSliceOrDefault("CORS_ALLOWED_ORIGINS", file.CORS.AllowedOrigins),
		},
		Session: SessionConfig{
			IdleTTL:        getDurationOrDefault("SESSION_IDLE_TTL", parseDurationOr(file.Session.IdleTTL, 2*time.Hour)),
			SweepInterval:  getDurationOrDefault("SESSION_SWEEP_INTERVAL", 5*time.Minute),
			MaxUploadBytes: int64(getIntOrDefault("CALL_LOG_MAX_UPLOAD_BYTES", 10<<20)),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", firstNonEmpty(file.Logging.Level, "info")),
			Format: getEnvOrDefault("LOG_FORMAT", firstNonEmpty(file.Logging.Format, "json")),
		},
		App: AppConfig{
			Name:        getEnvOrDefault("APP_NAME", "caller-panel"),
			Version:     getEnvOrDefault("APP_VERSION", "dev"),
			Environment: getEnvOrDefault("APP_ENV", "development"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []string

	switch c.Helpdesk.Driver {
	case HelpdeskNone:
	case HelpdeskZendesk:
		z := c.Helpdesk.Zendesk
		if z.Subdomain == "" && z.BaseURL == "" {
			errs = append(errs, "ZENDESK_SUBDOMAIN or ZENDESK_BASE_URL is required for the zendesk driver")
		}
		if z.Email == "" {
			errs = append(errs, "ZENDESK_EMAIL is required for the zendesk driver")
		}
		if z.APIToken == "" {
			errs = append(errs, "ZENDESK_API_TOKEN is required for the zendesk driver")
		}
		if z.MaxRetries < 0 {
			errs = append(errs, "ZENDESK_MAX_RETRIES cannot be negative")
		}
	case HelpdeskPostgres:
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres driver")
		}
		if c.Database.MinConns > c.Database.MaxConns {
			errs = append(errs, "DB_MIN_CONNS cannot be greater than DB_MAX_CONNS")
		}
	default:
		errs = append(errs, fmt.Sprintf("HELPDESK_DRIVER %q is not one of none, zendesk, postgres", c.Helpdesk.Driver))
	}

	switch c.StateStore.Driver {
	case StoreMemory:
	case StoreRedis:
		if c.StateStore.RedisAddr == "" {
			errs = append(errs, "REDIS_ADDR is required for the redis state store")
		}
	default:
		errs = append(errs, fmt.Sprintf("STATE_STORE_DRIVER %q is not one of memory, redis", c.StateStore.Driver))
	}

	if u, err := url.Parse(c.Telephony.Origin); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "TELEPHONY_ORIGIN must be an absolute origin such as https://applications.zoom.us")
	}

	// Security validations
	if c.App.Environment == "production" {
		if len(c.WebSocket.AllowedOrigins) == 0 {
			errs = append(errs, "WS_ALLOWED_ORIGINS must be set in production")
		}
		if len(c.CORS.AllowedOrigins) == 0 {
			errs = append(errs, "CORS_ALLOWED_ORIGINS must be set in production")
		}
	}

	if len(errs) > 0 {
		return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if len(data) == 0 {
		return cfg, errors.New("empty config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Helper functions

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func parseDurationOr(value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	if defaultValue == nil {
		return []string{}
	}
	return defaultValue
}

// String returns a redacted string representation of the config (safe for logging)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s, Helpdesk: %s, DB: %s, StateStore: %s, RateLimit: %v, Environment: %s}",
		c.Server.Port,
		c.Helpdesk.Driver,
		redactURL(c.Database.URL),
		c.StateStore.Driver,
		c.RateLimit.Enabled,
		c.App.Environment,
	)
}

// redactURL redacts sensitive parts of a database URL
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	if idx := strings.Index(raw, "@"); idx > 0 {
		return "[REDACTED]" + raw[idx:]
	}
	return "[REDACTED]"
}
