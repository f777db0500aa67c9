// Package config loads the server-manager daemon and controller-client
// configuration from a config file and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config stores the daemon and client settings.
// The values are read by viper from a config file or environment variables
// and checked by validator before anything starts listening.
type Config struct {
	// Identity
	HostName string `mapstructure:"HOST_NAME" validate:"required"`

	// Server Configurations
	ListenAddress    string `mapstructure:"LISTEN_ADDRESS" validate:"required,hostname_port"`
	AdvertiseAddress string `mapstructure:"ADVERTISE_ADDRESS" validate:"omitempty,hostname_port"`

	// Registry Configurations (empty = no registration/discovery)
	EtcdEndpoints      []string `mapstructure:"ETCD_ENDPOINTS"`
	RegistryTTLSeconds int64    `mapstructure:"REGISTRY_TTL_SECONDS" validate:"gt=0"`

	// Protocol Configurations
	Codec             string `mapstructure:"CODEC" validate:"oneof=cbor json"`
	ConnectTimeoutMs  int    `mapstructure:"CONNECT_TIMEOUT_MS" validate:"gt=0"`
	ExchangeTimeoutMs int    `mapstructure:"EXCHANGE_TIMEOUT_MS" validate:"gt=0"`

	// Rate Limiting
	RateLimitPerSecond float64 `mapstructure:"RATE_LIMIT_PER_SECOND" validate:"gt=0"`
	RateLimitBurst     int     `mapstructure:"RATE_LIMIT_BURST" validate:"gt=0"`

	// Shutdown
	ShutdownTimeoutMs int `mapstructure:"SHUTDOWN_TIMEOUT_MS" validate:"gt=0"`
}

// ConnectTimeout returns the connect timeout as a duration.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMs) * time.Millisecond
}

// ExchangeTimeout returns the exchange timeout as a duration.
func (c *Config) ExchangeTimeout() time.Duration {
	return time.Duration(c.ExchangeTimeoutMs) * time.Millisecond
}

// ShutdownTimeout returns the graceful-shutdown bound as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMs) * time.Millisecond
}

// LoadConfig reads configuration from defaults, an optional config file at
// path, and environment variables (highest priority, prefix DMGMT_), then
// validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// 1. Defaults
	v.SetDefault("HOST_NAME", "")
	v.SetDefault("LISTEN_ADDRESS", "0.0.0.0:9990")
	v.SetDefault("ADVERTISE_ADDRESS", "")
	v.SetDefault("ETCD_ENDPOINTS", []string{})
	v.SetDefault("REGISTRY_TTL_SECONDS", 10)
	v.SetDefault("CODEC", "cbor")
	v.SetDefault("CONNECT_TIMEOUT_MS", 10_000)
	v.SetDefault("EXCHANGE_TIMEOUT_MS", 30_000)
	v.SetDefault("RATE_LIMIT_PER_SECOND", 100.0)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("SHUTDOWN_TIMEOUT_MS", 5_000)

	// 2. Optional config file
	if path != "" {
		v.AddConfigPath(path)
		v.SetConfigName("servermanager")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	// 3. Environment variables override everything: DMGMT_HOST_NAME etc.
	v.SetEnvPrefix("DMGMT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
