// Package config provides configuration management using the Singleton pattern.
// It loads configuration from environment variables and config.yaml using Viper.
package config

import (
	"fmt"
	"sync"
	"time"
)

// Configuration holds all application configuration values.
type Configuration struct {
	// Server configuration
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Dispatch configuration
	Dispatch DispatchConfig `json:"dispatch" mapstructure:"dispatch"`

	// Cache configuration
	Cache CacheConfig `json:"cache" mapstructure:"cache"`

	// Settings store configuration
	Settings SettingsConfig `json:"settings" mapstructure:"settings"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	// Host is the server bind address.
	Host string `json:"host" mapstructure:"host"`

	// Port is the server port number.
	Port int `json:"port" mapstructure:"port"`

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeoutSeconds int `json:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeoutSeconds int `json:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`

	// ShutdownTimeout is the maximum duration to wait for active connections to finish.
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds" mapstructure:"shutdown_timeout_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level" mapstructure:"level"`

	// Format is the log format (json, text).
	Format string `json:"format" mapstructure:"format"`
}

// DispatchConfig controls outbound provider calls.
type DispatchConfig struct {
	RequestTimeoutSeconds int   `json:"request_timeout_seconds" mapstructure:"request_timeout_seconds"`
	TestTimeoutSeconds    int   `json:"test_timeout_seconds" mapstructure:"test_timeout_seconds"`
	MinInputLength        int   `json:"min_input_length" mapstructure:"min_input_length"`
	MaxResponseBytes      int64 `json:"max_response_bytes" mapstructure:"max_response_bytes"`

	// AllowTemplateFallback sends the default body when a custom template is malformed.
	AllowTemplateFallback bool `json:"allow_template_fallback" mapstructure:"allow_template_fallback"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	TTLSeconds           int `json:"ttl_seconds" mapstructure:"ttl_seconds"`
	SweepIntervalSeconds int `json:"sweep_interval_seconds" mapstructure:"sweep_interval_seconds"`
}

// SettingsConfig locates the persisted user settings.
type SettingsConfig struct {
	// Path is the JSON file backing the settings store.
	Path string `json:"path" mapstructure:"path"`
}

// configInstance holds the singleton configuration instance.
var (
	configInstance *Configuration
	configOnce     sync.Once
	configErr      error
)

// GetConfigWithPath returns the singleton Configuration instance.
// It initializes the configuration on first call from configPath, or from the
// default search paths when configPath is empty. Later paths are ignored.
func GetConfigWithPath(configPath string) (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig(configPath)
	})
	return configInstance, configErr
}

// ResetConfig resets the singleton instance.
// This is primarily used for testing purposes.
func ResetConfig() {
	configOnce = sync.Once{}
	configInstance = nil
	configErr = nil
}

// Validate validates the configuration and returns an error listing every bad field.
func (c *Configuration) Validate() error {
	var validationErrors []string

	// Validate server configuration
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		validationErrors = append(validationErrors, "server.port must be between 1 and 65535")
	}

	// Validate logging configuration
	if c.Logging.Level != "" && !isValidLogLevel(c.Logging.Level) {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.level '%s' is invalid, must be one of: debug, info, warn, error",
			c.Logging.Level,
		))
	}
	if c.Logging.Format != "" && c.Logging.Format != "json" && c.Logging.Format != "text" {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.format '%s' is invalid, must be one of: json, text",
			c.Logging.Format,
		))
	}

	// Validate dispatch configuration
	if c.Dispatch.RequestTimeoutSeconds <= 0 {
		validationErrors = append(validationErrors, "dispatch.request_timeout_seconds must be positive")
	}
	if c.Dispatch.TestTimeoutSeconds <= 0 {
		validationErrors = append(validationErrors, "dispatch.test_timeout_seconds must be positive")
	}
	if c.Dispatch.MinInputLength <= 0 {
		validationErrors = append(validationErrors, "dispatch.min_input_length must be positive")
	}
	if c.Dispatch.MaxResponseBytes <= 0 {
		validationErrors = append(validationErrors, "dispatch.max_response_bytes must be positive")
	}

	// Validate cache configuration
	if c.Cache.TTLSeconds <= 0 {
		validationErrors = append(validationErrors, "cache.ttl_seconds must be positive")
	}
	if c.Cache.SweepIntervalSeconds < 0 {
		validationErrors = append(validationErrors, "cache.sweep_interval_seconds cannot be negative")
	}

	if c.Settings.Path == "" {
		validationErrors = append(validationErrors, "settings.path is required")
	}

	if len(validationErrors) > 0 {
		return &ValidationError{Errors: validationErrors}
	}

	return nil
}

// isValidLogLevel checks if the log level is valid.
func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// RequestTimeout returns the optimize timeout.
func (c *Configuration) RequestTimeout() time.Duration {
	return time.Duration(c.Dispatch.RequestTimeoutSeconds) * time.Second
}

// TestTimeout returns the test-connection timeout.
func (c *Configuration) TestTimeout() time.Duration {
	return time.Duration(c.Dispatch.TestTimeoutSeconds) * time.Second
}

// CacheTTL returns the cache entry lifetime.
func (c *Configuration) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// SweepInterval returns the cache sweep period; zero disables the sweep.
func (c *Configuration) SweepInterval() time.Duration {
	return time.Duration(c.Cache.SweepIntervalSeconds) * time.Second
}

// Addr returns the listen address.
func (c *Configuration) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
