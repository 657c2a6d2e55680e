package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	HTTP     HTTPConfig     `yaml:"http"`
	Payment  PaymentConfig  `yaml:"payment"`
	Workflow WorkflowConfig `yaml:"workflow"`
}

type StoreConfig struct {
	// Backend selects the store implementation: "postgres" or "memory".
	Backend string `yaml:"backend"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type PaymentConfig struct {
	BaseURL           string `yaml:"base_url"`
	MaxAttempts       int    `yaml:"max_attempts"`
	InitialIntervalMS int    `yaml:"initial_interval_ms"`
	MaxIntervalMS     int    `yaml:"max_interval_ms"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
}

type WorkflowConfig struct {
	// DeadlineMinutes is the wall-clock budget of a whole execution.
	DeadlineMinutes int `yaml:"deadline_minutes"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = "postgres"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3000
	}
	if c.Payment.MaxAttempts == 0 {
		c.Payment.MaxAttempts = 3
	}
	if c.Payment.InitialIntervalMS == 0 {
		c.Payment.InitialIntervalMS = 500
	}
	if c.Payment.MaxIntervalMS == 0 {
		c.Payment.MaxIntervalMS = 5000
	}
	if c.Payment.TimeoutSeconds == 0 {
		c.Payment.TimeoutSeconds = 10
	}
	if c.Workflow.DeadlineMinutes == 0 {
		c.Workflow.DeadlineMinutes = 15
	}
}

// Deadline returns the execution budget as a duration.
func (c *Config) Deadline() time.Duration {
	return time.Duration(c.Workflow.DeadlineMinutes) * time.Minute
}
