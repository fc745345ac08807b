package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9090
  timeout: 5s
database:
  driver: mysql
  host: db
  port: 3306
  user: adv
  password: secret
  name: ads
redis:
  enabled: true
  addr: redis:6379
logger:
  level: debug
`)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.HTTP.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %v", cfg.HTTP.Timeout)
	}
	if cfg.Database.Driver != "mysql" || cfg.Database.Host != "db" {
		t.Errorf("Unexpected database config: %+v", cfg.Database)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Addr != "redis:6379" {
		t.Errorf("Unexpected redis config: %+v", cfg.Redis)
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("Expected level debug, got %s", cfg.Logger.Level)
	}
	// untouched keys keep their defaults
	if cfg.Database.MaxOpenConns != 10 {
		t.Errorf("Expected default max_open_conns 10, got %d", cfg.Database.MaxOpenConns)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: postgres
`)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("HTTP_PORT", "8181")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("Expected env to override driver, got %s", cfg.Database.Driver)
	}
	if cfg.HTTP.Port != 8181 {
		t.Errorf("Expected env to override port, got %d", cfg.HTTP.Port)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown driver", content: "database:\n  driver: sqlite\n"},
		{name: "redis without addr", content: "redis:\n  enabled: true\n"},
		{name: "tracing without endpoint", content: "tracing:\n  enabled: true\n"},
		{name: "bad port", content: "http:\n  port: 70000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_PATH", writeConfig(t, tt.content))
			if _, err := LoadConfig(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestConnectionString(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "explicit dsn wins",
			cfg:  DatabaseConfig{Driver: "postgres", DSN: "postgres://x@y/z"},
			want: "postgres://x@y/z",
		},
		{
			name: "postgres",
			cfg:  DatabaseConfig{Driver: "postgres", Host: "db", Port: 5430, User: "aiohttp", Password: "p@ss", Name: "aiohttp", SSLMode: "disable"},
			want: "postgres://aiohttp:p%40ss@db:5430/aiohttp?sslmode=disable",
		},
		{
			name: "mysql",
			cfg:  DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, User: "adv", Password: "secret", Name: "ads"},
			want: "adv:secret@tcp(db:3306)/ads?parseTime=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ConnectionString(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
