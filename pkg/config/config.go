package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type TransportConfig struct {
	Type string `mapstructure:"type"` // "stdio" or "sse"
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type GatewayConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

type DiscoveryConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	SyncInterval time.Duration `mapstructure:"sync_interval"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type AssistantConfig struct {
	Model string `mapstructure:"model"`
}

type ServerConfig struct {
	Transport      TransportConfig `mapstructure:"transport"`
	LogLevel       string          `mapstructure:"log_level"`
	LogFormat      string          `mapstructure:"log_format"`
	Gateway        GatewayConfig   `mapstructure:"gateway"`
	Discovery      DiscoveryConfig `mapstructure:"capability_discovery"`
	Metrics        MetricsConfig   `mapstructure:"metrics"`
	Assistant      AssistantConfig `mapstructure:"assistant"`
	TraceDedupeTTL time.Duration   `mapstructure:"trace_dedupe_ttl"`
}

func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Transport: TransportConfig{
			Type: "stdio",
			Host: "localhost",
			Port: 8080,
		},
		LogLevel:  "info",
		LogFormat: "json",
		Gateway: GatewayConfig{
			BaseURL:    "http://localhost:9000",
			Timeout:    30 * time.Second,
			RetryCount: 1,
			RetryDelay: 2 * time.Second,
		},
		Discovery: DiscoveryConfig{
			Enabled:      true,
			SyncInterval: 1 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
		Assistant: AssistantConfig{
			Model: "gpt-4o-mini",
		},
		TraceDedupeTTL: 5 * time.Minute,
	}
}

func LoadConfig() (*ServerConfig, error) {
	config := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/trip-engine/")
	viper.AddConfigPath("$HOME/.trip-engine/")

	viper.SetEnvPrefix("TRIP_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Transport defaults
	viper.SetDefault("transport.type", config.Transport.Type)
	viper.SetDefault("transport.host", config.Transport.Host)
	viper.SetDefault("transport.port", config.Transport.Port)

	// Logging defaults
	viper.SetDefault("log_level", config.LogLevel)
	viper.SetDefault("log_format", config.LogFormat)

	// Gateway defaults
	viper.SetDefault("gateway.base_url", config.Gateway.BaseURL)
	viper.SetDefault("gateway.timeout", config.Gateway.Timeout)
	viper.SetDefault("gateway.retry_count", config.Gateway.RetryCount)
	viper.SetDefault("gateway.retry_delay", config.Gateway.RetryDelay)

	// Capability discovery defaults
	viper.SetDefault("capability_discovery.enabled", config.Discovery.Enabled)
	viper.SetDefault("capability_discovery.sync_interval", config.Discovery.SyncInterval)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", config.Metrics.Enabled)

	// Assistant defaults
	viper.SetDefault("assistant.model", config.Assistant.Model)

	viper.SetDefault("trace_dedupe_ttl", config.TraceDedupeTTL)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func validateConfig(config *ServerConfig) error {
	switch config.Transport.Type {
	case "stdio", "sse":
	default:
		return fmt.Errorf("invalid transport type: %s", config.Transport.Type)
	}

	if config.Transport.Port <= 0 || config.Transport.Port > 65535 {
		return fmt.Errorf("the transport port must be between 1 and 65535")
	}

	if config.Gateway.BaseURL == "" {
		return fmt.Errorf("the gateway base URL cannot be empty")
	}

	if config.Gateway.Timeout <= 0 {
		return fmt.Errorf("the gateway timeout must be positive")
	}

	if config.Gateway.RetryCount < 0 {
		return fmt.Errorf("the gateway retry count cannot be negative")
	}

	if config.Gateway.RetryDelay < 0 {
		return fmt.Errorf("the gateway retry delay cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return fmt.Errorf("invalid log level: %s", config.LogLevel)
	}

	validLogFormats := map[string]bool{
		"json": true, "text": true,
	}
	if !validLogFormats[config.LogFormat] {
		return fmt.Errorf("invalid log format: %s", config.LogFormat)
	}

	return nil
}
