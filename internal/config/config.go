// Package config defines the application configuration and loads it from
// files, environment variables and flag bindings via viper.
package config

import (
	"fmt"

	"github.com/MeKo-Tech/fieldscan/internal/detector"
	"github.com/MeKo-Tech/fieldscan/internal/eval"
)

// Config represents the complete configuration for the fieldscan application.
// It covers all commands (detect, eval, batch, annotate, serve) and supports
// loading from configuration files, environment variables, and command-line
// flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Render scale of incoming page buffers; detector thresholds are tuned
	// per scale.
	Scale float64 `mapstructure:"scale" yaml:"scale" json:"scale"`

	// Detector thresholds
	Detector detector.Options `mapstructure:"detector" yaml:"detector" json:"detector"`

	// Evaluation settings
	Evaluation EvaluationConfig `mapstructure:"evaluation" yaml:"evaluation" json:"evaluation"`

	// Output settings
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// EvaluationConfig contains matching and scoring settings.
type EvaluationConfig struct {
	IoUThreshold float64 `mapstructure:"iou_threshold" yaml:"iou_threshold" json:"iou_threshold"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// BatchConfig contains batch evaluation settings.
type BatchConfig struct {
	Workers            int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	ContinueOnError    bool `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
	Recursive          bool `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	DocumentTimeoutSec int  `mapstructure:"document_timeout_sec" yaml:"document_timeout_sec" json:"document_timeout_sec"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Scale:    3.0,
		Detector: detector.DefaultOptions(),
		Evaluation: EvaluationConfig{
			IoUThreshold: eval.DefaultIoUThreshold,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
		},
		Batch: BatchConfig{
			Workers:         4,
			ContinueOnError: true,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	if c.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %g", c.Scale)
	}
	if err := c.Detector.Validate(); err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	if c.Evaluation.IoUThreshold <= 0 || c.Evaluation.IoUThreshold > 1 {
		return fmt.Errorf("iou threshold %g outside (0,1]", c.Evaluation.IoUThreshold)
	}
	switch c.Output.Format {
	case "", "text", "json", "csv":
	default:
		return fmt.Errorf("invalid output format: %s", c.Output.Format)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d", c.Server.MaxUploadMB)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch workers must be at least 1, got %d", c.Batch.Workers)
	}
	if c.Batch.DocumentTimeoutSec < 0 {
		return fmt.Errorf("document timeout must be non-negative, got %d", c.Batch.DocumentTimeoutSec)
	}
	return nil
}
