package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all service configuration.
type Config struct {
	Server    ServerConfig
	Registry  RegistryConfig
	Launcher  LauncherConfig
	Terminate TerminateConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"7070"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// RegistryConfig holds session registry liveness policy.
type RegistryConfig struct {
	SweepInterval     time.Duration `envconfig:"SWEEP_INTERVAL" default:"10s"`
	DegradedThreshold time.Duration `envconfig:"DEGRADED_THRESHOLD" default:"90s"`
	EvictionThreshold time.Duration `envconfig:"EVICTION_THRESHOLD" default:"180s"`
	HeartbeatInterval time.Duration `envconfig:"HEARTBEAT_INTERVAL" default:"30s"`
}

// LauncherConfig holds terminal launch configuration.
type LauncherConfig struct {
	Root         string `envconfig:"TERMHIVE_ROOT" default:"~/.termhive"`
	TemplateFile string `envconfig:"TEMPLATE_FILE" default:"templates.yaml"`
	TerminalApp  string `envconfig:"TERMINAL_APP" default:""`
	ShellCommand string `envconfig:"SHELL_COMMAND" default:"termhive-shell"`
	CallbackURL  string `envconfig:"CALLBACK_URL" default:"http://127.0.0.1:7070/heartbeat"`
}

// TerminateConfig holds graceful-kill escalation policy.
type TerminateConfig struct {
	GracePeriod  time.Duration `envconfig:"TERMINATE_GRACE_PERIOD" default:"3s"`
	PollInterval time.Duration `envconfig:"TERMINATE_POLL_INTERVAL" default:"500ms"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"50"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"100"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "7070",
			Host: "127.0.0.1",
		},
		Registry: RegistryConfig{
			SweepInterval:     10 * time.Second,
			DegradedThreshold: 90 * time.Second,
			EvictionThreshold: 180 * time.Second,
			HeartbeatInterval: 30 * time.Second,
		},
		Launcher: LauncherConfig{
			Root:         "~/.termhive",
			TemplateFile: "templates.yaml",
			ShellCommand: "termhive-shell",
			CallbackURL:  "http://127.0.0.1:7070/heartbeat",
		},
		Terminate: TerminateConfig{
			GracePeriod:  3 * time.Second,
			PollInterval: 500 * time.Millisecond,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
	}
}
