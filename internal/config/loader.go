package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "fieldscan"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "FIELDSCAN"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance so cobra flag
// bindings are honored.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewIsolatedLoader creates a loader with its own viper instance, used by
// tests and the server where flag bindings do not apply.
func NewIsolatedLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Load loads configuration from files, environment variables, and defaults.
// A missing config file is not an error; defaults and env vars apply.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.unmarshalAndValidate()
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	return l.unmarshalAndValidate()
}

func (l *Loader) unmarshalAndValidate() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// Set sets a value in the configuration.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for flag binding.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}

	l.v.AddConfigPath("/etc/fieldscan")

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "fieldscan"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "fieldscan"))
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)
	l.v.SetDefault("scale", defaults.Scale)

	l.v.SetDefault("detector.min_text_field_height", defaults.Detector.MinTextFieldHeight)
	l.v.SetDefault("detector.max_field_height", defaults.Detector.MaxFieldHeight)
	l.v.SetDefault("detector.min_checkbox_size", defaults.Detector.MinCheckboxSize)
	l.v.SetDefault("detector.max_checkbox_size", defaults.Detector.MaxCheckboxSize)
	l.v.SetDefault("detector.min_radio_size", defaults.Detector.MinRadioSize)
	l.v.SetDefault("detector.max_radio_size", defaults.Detector.MaxRadioSize)
	l.v.SetDefault("detector.merge_threshold", defaults.Detector.MergeThreshold)
	l.v.SetDefault("detector.confidence_threshold", defaults.Detector.ConfidenceThreshold)

	l.v.SetDefault("evaluation.iou_threshold", defaults.Evaluation.IoUThreshold)

	l.v.SetDefault("output.format", defaults.Output.Format)

	l.v.SetDefault("server.host", defaults.Server.Host)
	l.v.SetDefault("server.port", defaults.Server.Port)
	l.v.SetDefault("server.cors_origin", defaults.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", defaults.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", defaults.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", defaults.Server.ShutdownTimeout)

	l.v.SetDefault("batch.workers", defaults.Batch.Workers)
	l.v.SetDefault("batch.continue_on_error", defaults.Batch.ContinueOnError)
	l.v.SetDefault("batch.recursive", defaults.Batch.Recursive)
	l.v.SetDefault("batch.document_timeout_sec", defaults.Batch.DocumentTimeoutSec)
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
		paths = append(paths, filepath.Join(home, ".config", "fieldscan"))
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "fieldscan"))
	}

	paths = append(paths, "/etc/fieldscan")

	return paths
}
