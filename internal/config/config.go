package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DaemonPort    int    `mapstructure:"daemon_port"`
	BufferSize    int    `mapstructure:"buffer_size"`
	DebounceMs    int    `mapstructure:"debounce_ms"`
	SuppressTTLMs int    `mapstructure:"suppress_ttl_ms"`
	RetryCount    int    `mapstructure:"retry_count"`
	RetryDelayMs  int    `mapstructure:"retry_delay_ms"`
	RegistryPath  string `mapstructure:"registry_path"`
	DBPath        string `mapstructure:"db_path"`
	ConflictsPath string `mapstructure:"conflicts_path"`
}

var Default = Config{
	DaemonPort:    9010,
	BufferSize:    100,
	DebounceMs:    400,
	SuppressTTLMs: 10000,
	RetryCount:    3,
	RetryDelayMs:  200,
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

func (c *Config) SuppressTTL() time.Duration {
	return time.Duration(c.SuppressTTLMs) * time.Millisecond
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home dir: %w", err)
	}

	configDir := filepath.Join(home, ".kas-filesync")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)

	viper.SetDefault("daemon_port", Default.DaemonPort)
	viper.SetDefault("buffer_size", Default.BufferSize)
	viper.SetDefault("debounce_ms", Default.DebounceMs)
	viper.SetDefault("suppress_ttl_ms", Default.SuppressTTLMs)
	viper.SetDefault("retry_count", Default.RetryCount)
	viper.SetDefault("retry_delay_ms", Default.RetryDelayMs)
	viper.SetDefault("registry_path", filepath.Join(configDir, "sync-config.json"))
	viper.SetDefault("db_path", filepath.Join(configDir, "filesync.db"))
	viper.SetDefault("conflicts_path", filepath.Join(configDir, "conflicts.json"))

	viper.SetEnvPrefix("FILESYNC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := errors.AsType[viper.ConfigFileNotFoundError](err); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
