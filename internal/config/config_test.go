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
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: memory
database:
  host: db.internal
  port: 5433
  user: app
  password: secret
  database: restaurant
rabbitmq:
  host: mq.internal
  port: 5673
  user: app
  password: secret
http:
  port: 8080
payment:
  base_url: http://payments.internal
  max_attempts: 5
  initial_interval_ms: 100
  max_interval_ms: 2000
  timeout_seconds: 5
workflow:
  deadline_minutes: 30
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Store.Backend != "memory" {
		t.Errorf("store backend: got %s", cfg.Store.Backend)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 5433 {
		t.Errorf("database: got %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.RabbitMQ.Host != "mq.internal" {
		t.Errorf("rabbitmq host: got %s", cfg.RabbitMQ.Host)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("http port: got %d", cfg.HTTP.Port)
	}
	if cfg.Payment.BaseURL != "http://payments.internal" || cfg.Payment.MaxAttempts != 5 {
		t.Errorf("payment: got %+v", cfg.Payment)
	}
	if cfg.Deadline() != 30*time.Minute {
		t.Errorf("deadline: got %v", cfg.Deadline())
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Store.Backend != "postgres" {
		t.Errorf("default backend: got %s", cfg.Store.Backend)
	}
	if cfg.HTTP.Port != 3000 {
		t.Errorf("default port: got %d", cfg.HTTP.Port)
	}
	if cfg.Payment.MaxAttempts != 3 || cfg.Payment.TimeoutSeconds != 10 {
		t.Errorf("payment defaults: got %+v", cfg.Payment)
	}
	if cfg.Deadline() != 15*time.Minute {
		t.Errorf("default deadline: got %v", cfg.Deadline())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "store: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
