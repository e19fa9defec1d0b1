// Package config provides configuration management for bedrock using
// Viper for flexible loading from files, environment variables, and
// command-line flags.
//
// Configuration comes from .bedrock.yml, BEDROCK_-prefixed environment
// variables, and flag overrides. It covers the HTTP server, the content
// directory holding page documents, preload behavior, and logging.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment names accepted by ServerConfig.Environment.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Content ContentConfig `yaml:"content"`
	Preload PreloadConfig `yaml:"preload"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	Environment    string   `yaml:"environment"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type ContentConfig struct {
	// Dir holds the page documents (<slug>.json).
	Dir string `yaml:"dir"`
	// Watch reloads documents edited outside the API.
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
}

type PreloadConfig struct {
	Enabled bool          `yaml:"enabled"`
	Delay   time.Duration `yaml:"delay"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a fully-populated development configuration. Used by
// tests and as the baseline Load fills in.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "localhost",
			Port:        8080,
			Environment: EnvDevelopment,
		},
		Content: ContentConfig{
			Dir:      "./content",
			Watch:    true,
			Debounce: 300 * time.Millisecond,
		},
		Preload: PreloadConfig{
			Enabled: true,
			Delay:   150 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Viper only maps single-word keys onto fields automatically;
	// snake_case keys need explicit reads.
	if viper.IsSet("server.allowed_origins") && len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = viper.GetStringSlice("server.allowed_origins")
	}

	// Booleans that default to true cannot be told apart from "unset"
	// after Unmarshal, so consult viper directly.
	if !viper.IsSet("content.watch") {
		config.Content.Watch = true
	}
	if !viper.IsSet("preload.enabled") {
		config.Preload.Enabled = true
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.Environment == "" {
		config.Server.Environment = EnvDevelopment
	}
	if config.Content.Dir == "" {
		config.Content.Dir = "./content"
	}
	if config.Content.Debounce == 0 {
		config.Content.Debounce = 300 * time.Millisecond
	}
	if config.Preload.Delay == 0 {
		config.Preload.Delay = 150 * time.Millisecond
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
}

// Address returns the host:port pair the server binds to.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsProduction reports whether fallbacks should stay silent.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, EnvProduction)
}

// validateConfig validates configuration values for security and correctness.
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateContentConfig(&config.Content); err != nil {
		return fmt.Errorf("content config: %w", err)
	}
	if err := validatePreloadConfig(&config.Preload); err != nil {
		return fmt.Errorf("preload config: %w", err)
	}
	if err := validateLoggingConfig(&config.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

func validateServerConfig(config *ServerConfig) error {
	// Port 0 is allowed for system-assigned ports in testing.
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	switch strings.ToLower(config.Environment) {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("environment %q is not %q or %q",
			config.Environment, EnvDevelopment, EnvProduction)
	}

	return nil
}

func validateContentConfig(config *ContentConfig) error {
	if config.Dir == "" {
		return fmt.Errorf("dir must not be empty")
	}

	cleanPath := filepath.Clean(config.Dir)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("dir contains path traversal: %s", config.Dir)
	}

	if config.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative")
	}

	return nil
}

func validatePreloadConfig(config *PreloadConfig) error {
	if config.Delay < 0 {
		return fmt.Errorf("delay must not be negative")
	}
	return nil
}

func validateLoggingConfig(config *LoggingConfig) error {
	switch strings.ToLower(config.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", config.Level)
	}

	switch strings.ToLower(config.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", config.Format)
	}

	return nil
}
