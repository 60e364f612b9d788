package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	// Server configuration
	Environment string
	Port        int
	MetricsPort int
	HealthPort  int

	// Storage configuration
	StorageDriver   string
	DatabaseURL     string
	MigrationsPath  string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Rate Limiting
	RateLimitRPS   int
	RateLimitBurst int

	// CORS
	AllowedOrigins []string

	// TLS Configuration
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string

	// Observability
	OTLPEndpoint        string
	PrometheusNamespace string
	LogLevel            string
	LogFormat           string // json or console

	// Graceful Shutdown
	ShutdownTimeout time.Duration

	// Feature Flags
	EnableMetrics     bool
	EnableTracing     bool
	EnableHealthCheck bool

	// Timeouts
	RequestTimeout  time.Duration
	DatabaseTimeout time.Duration
}

func Load() (*Config, error) {
	// Load .env file if exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnvAsInt("PORT", 3000),
		MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
		HealthPort:  getEnvAsInt("HEALTH_PORT", 9091),

		// Storage
		StorageDriver:   getEnv("STORAGE_DRIVER", StorageDriverPostgres),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./internal/infrastructure/postgres/migrations"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute),

		// Rate Limiting
		RateLimitRPS:   getEnvAsInt("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 100),

		// CORS
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		// TLS
		TLSEnabled:  getEnvAsBool("TLS_ENABLED", false),
		TLSCertFile: getEnv("TLS_CERT_FILE", "/etc/tls/tls.crt"),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", "/etc/tls/tls.key"),

		// Observability
		OTLPEndpoint:        getEnv("OTLP_ENDPOINT", "localhost:4317"),
		PrometheusNamespace: getEnv("PROMETHEUS_NAMESPACE", "todo_api"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "json"),

		// Graceful Shutdown
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		// Feature Flags
		EnableMetrics:     getEnvAsBool("ENABLE_METRICS", true),
		EnableTracing:     getEnvAsBool("ENABLE_TRACING", false),
		EnableHealthCheck: getEnvAsBool("ENABLE_HEALTH_CHECK", true),

		// Timeouts
		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
		DatabaseTimeout: getEnvAsDuration("DATABASE_TIMEOUT", 10*time.Second),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER is postgres")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("invalid storage driver: %s (valid: postgres, memory)", c.StorageDriver)
	}

	// TLS files must exist if TLS is enabled
	if c.TLSEnabled {
		if c.TLSCertFile == "" || c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE are required when TLS is enabled")
		}
		if _, err := os.Stat(c.TLSCertFile); os.IsNotExist(err) {
			return fmt.Errorf("TLS certificate file not found: %s", c.TLSCertFile)
		}
		if _, err := os.Stat(c.TLSKeyFile); os.IsNotExist(err) {
			return fmt.Errorf("TLS key file not found: %s", c.TLSKeyFile)
		}
	}

	// Port validation
	for name, port := range map[string]int{"port": c.Port, "metrics port": c.MetricsPort, "health port": c.HealthPort} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid %s: %d", name, port)
		}
	}

	// Connection pool validation
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("max_open_conns must be positive, got %d", c.MaxOpenConns)
	}
	if c.MaxOpenConns < c.MaxIdleConns {
		return fmt.Errorf("max_open_conns (%d) must be >= max_idle_conns (%d)",
			c.MaxOpenConns, c.MaxIdleConns)
	}

	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit values cannot be negative")
	}

	// Log level validation
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.LogLevel)
	}

	// Log format validation
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.LogFormat)
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated value, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	Timeout         time.Duration
}

func (c *Config) GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:             c.DatabaseURL,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		ConnMaxIdleTime: c.ConnMaxIdleTime,
		Timeout:         c.DatabaseTimeout,
	}
}

type ServerConfig struct {
	Port            int
	MetricsPort     int
	HealthPort      int
	TLSEnabled      bool
	TLSCertFile     string
	TLSKeyFile      string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
}

func (c *Config) GetServerConfig() ServerConfig {
	origins := c.AllowedOrigins
	if !c.IsProduction() {
		origins = []string{"*"}
	}
	return ServerConfig{
		Port:            c.Port,
		MetricsPort:     c.MetricsPort,
		HealthPort:      c.HealthPort,
		TLSEnabled:      c.TLSEnabled,
		TLSCertFile:     c.TLSCertFile,
		TLSKeyFile:      c.TLSKeyFile,
		ShutdownTimeout: c.ShutdownTimeout,
		RequestTimeout:  c.RequestTimeout,
		RateLimitRPS:    c.RateLimitRPS,
		RateLimitBurst:  c.RateLimitBurst,
		AllowedOrigins:  origins,
	}
}

type ObservabilityConfig struct {
	EnableMetrics       bool
	EnableTracing       bool
	EnableHealthCheck   bool
	OTLPEndpoint        string
	PrometheusNamespace string
	LogLevel            string
	LogFormat           string
}

func (c *Config) GetObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		EnableMetrics:       c.EnableMetrics,
		EnableTracing:       c.EnableTracing,
		EnableHealthCheck:   c.EnableHealthCheck,
		OTLPEndpoint:        c.OTLPEndpoint,
		PrometheusNamespace: c.PrometheusNamespace,
		LogLevel:            c.LogLevel,
		LogFormat:           c.LogFormat,
	}
}
