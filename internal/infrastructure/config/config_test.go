package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/todos?sslmode=disable")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.StorageDriver != StorageDriverPostgres {
		t.Errorf("StorageDriver = %q", cfg.StorageDriver)
	}
	if cfg.Port != 3000 || cfg.MaxOpenConns != 10 || cfg.DatabaseTimeout != 10*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Error("default environment should be development")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("PORT", "8081")
	t.Setenv("DB_MAX_OPEN_CONNS", "40")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("ENABLE_METRICS", "false")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 8081 || cfg.MaxOpenConns != 40 || cfg.RequestTimeout != 3*time.Second || cfg.EnableMetrics {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if got := strings.Join(cfg.AllowedOrigins, "|"); got != "https://a.example|https://b.example" {
		t.Errorf("AllowedOrigins = %q", got)
	}
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("PORT", "eighty")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	t.Setenv("ENABLE_TRACING", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 3000 || cfg.ShutdownTimeout != 30*time.Second || cfg.EnableTracing {
		t.Errorf("malformed values should fall back to defaults: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StorageDriver: StorageDriverPostgres,
			DatabaseURL:   "postgres://x",
			Port:          3000,
			MetricsPort:   9090,
			HealthPort:    9091,
			MaxOpenConns:  10,
			MaxIdleConns:  5,
			LogLevel:      "info",
			LogFormat:     "json",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"memory without url", func(c *Config) { c.StorageDriver = StorageDriverMemory; c.DatabaseURL = "" }, ""},
		{"postgres without url", func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"unknown driver", func(c *Config) { c.StorageDriver = "mysql" }, "storage driver"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "invalid port"},
		{"bad health port", func(c *Config) { c.HealthPort = 0 }, "invalid health port"},
		{"idle above open", func(c *Config) { c.MaxIdleConns = 20 }, "max_open_conns"},
		{"zero pool", func(c *Config) { c.MaxOpenConns = 0; c.MaxIdleConns = 0 }, "must be positive"},
		{"bad level", func(c *Config) { c.LogLevel = "trace" }, "log level"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "log format"},
		{"missing tls files", func(c *Config) { c.TLSEnabled = true; c.TLSCertFile = "/nonexistent/cert.pem"; c.TLSKeyFile = "/nonexistent/key.pem" }, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetServerConfig_CORSOrigins(t *testing.T) {
	cfg := &Config{Environment: "development", AllowedOrigins: []string{"https://app.example"}}
	if got := cfg.GetServerConfig().AllowedOrigins; len(got) != 1 || got[0] != "*" {
		t.Errorf("development origins = %v, want [*]", got)
	}

	cfg.Environment = "production"
	if got := cfg.GetServerConfig().AllowedOrigins; len(got) != 1 || got[0] != "https://app.example" {
		t.Errorf("production origins = %v", got)
	}
}
