// Package config defines server configuration, loaded from an optional YAML
// file with command-line flags and WAGEREX_* environment variables able to
// override any field.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the top-level server configuration.
type Config struct {
	Address          string `mapstructure:"address"`
	Port             int    `mapstructure:"port"`
	Owner            string `mapstructure:"owner"`
	Workers          int    `mapstructure:"workers"`
	DefaultBatchSize int    `mapstructure:"default_batch_size"`
	WSAddress        string `mapstructure:"ws_address"`
	LogLevel         string `mapstructure:"log_level"`
}

// defaults are applied before the config file, flags, or environment are
// read, so every field always has a usable value.
func defaults() Config {
	return Config{
		Address:          "0.0.0.0",
		Port:             7700,
		Owner:            "owner",
		Workers:          10,
		DefaultBatchSize: 100,
		WSAddress:        ":7701",
		LogLevel:         "info",
	}
}

// Load reads configuration from an optional YAML file at path (ignored if
// empty or missing), then applies WAGEREX_*-prefixed environment variables
// and flags on top: environment variables take precedence over the file,
// and flags that were set on the command line take precedence over both.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	d := defaults()
	v.SetDefault("address", d.Address)
	v.SetDefault("port", d.Port)
	v.SetDefault("owner", d.Owner)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("default_batch_size", d.DefaultBatchSize)
	v.SetDefault("ws_address", d.WSAddress)
	v.SetDefault("log_level", d.LogLevel)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	v.SetEnvPrefix("WAGEREX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// Validate checks that address, port, owner, workers and default_batch_size
// hold usable values. ws_address and log_level are not checked.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("config: address is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port must be in 1-65535")
	}
	if c.Owner == "" {
		return fmt.Errorf("config: owner is required")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config: workers must be > 0")
	}
	if c.DefaultBatchSize <= 0 {
		return fmt.Errorf("config: default_batch_size must be > 0")
	}
	return nil
}
