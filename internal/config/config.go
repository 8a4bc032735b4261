// Package config loads the server's YAML configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int      `yaml:"port"`
	BindAddress  string   `yaml:"bind_address"`
	AllowOrigins []string `yaml:"allow_origins"`
	BodyLimit    string   `yaml:"body_limit"`
	ReadTimeout  int      `yaml:"read_timeout_seconds"`
	WriteTimeout int      `yaml:"write_timeout_seconds"`
}

// ProcessingConfig contains ingestion pool and session lifetime settings.
type ProcessingConfig struct {
	Workers              int `yaml:"workers"`
	QueueSize            int `yaml:"queue_size"`
	SessionTTLSeconds    int `yaml:"session_ttl_seconds"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
}

// StorageConfig contains temp directory settings.
type StorageConfig struct {
	TempDir string `yaml:"temp_dir"`
	// MaxUploadMB bounds a single model upload.
	MaxUploadMB int `yaml:"max_upload_mb"`
}

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Processing ProcessingConfig `yaml:"processing"`
	Storage    StorageConfig    `yaml:"storage"`
	LogLevel   string           `yaml:"log_level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8000,
			BindAddress:  "0.0.0.0",
			AllowOrigins: []string{"http://localhost:5173", "http://localhost:3000", "http://127.0.0.1:5173"},
			BodyLimit:    "310M",
			ReadTimeout:  60,
			WriteTimeout: 60,
		},
		Processing: ProcessingConfig{
			Workers:              4,
			QueueSize:            16,
			SessionTTLSeconds:    3600,
			SweepIntervalSeconds: 300,
		},
		Storage: StorageConfig{
			TempDir:     "./data/temp",
			MaxUploadMB: 300,
		},
		LogLevel: "info",
	}
}

// Load reads the YAML file at path, falling back to defaults for any value
// not set. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Processing.Workers < 1 {
		cfg.Processing.Workers = 1
	}
	if cfg.Processing.QueueSize < 1 {
		cfg.Processing.QueueSize = cfg.Processing.Workers
	}
	return cfg, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// SessionTTL returns the session lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Processing.SessionTTLSeconds) * time.Second
}

// SweepInterval returns the expiry sweep period.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Processing.SweepIntervalSeconds) * time.Second
}

// MaxUploadBytes returns the model upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Storage.MaxUploadMB) * 1024 * 1024
}
