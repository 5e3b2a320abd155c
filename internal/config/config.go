// Package config loads server and CLI configuration with Viper:
// file, environment, then defaults.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the runtime configuration for the stayrate binaries.
type Config struct {
	Port int    `mapstructure:"port"`
	Env  string `mapstructure:"env"` // development | production

	// PostgresDSN enables the history repository when set; otherwise
	// requests must embed their own observations.
	PostgresDSN string `mapstructure:"postgres_dsn"`

	// HistoryLookbackDays bounds how far back the repository reads.
	HistoryLookbackDays int `mapstructure:"history_lookback_days"`

	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
}

// ClickHouseConfig configures the quote-outcome store. Enabled only
// when a host is set.
type ClickHouseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Debug    bool   `mapstructure:"debug"`
}

// Load reads configuration using Viper. A missing config file is not
// an error; environment variables and defaults still apply.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("stayrate")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("STAYRATE")
	v.AutomaticEnv()

	v.SetDefault("port", 8080)
	v.SetDefault("env", "production")
	v.SetDefault("history_lookback_days", 730)
	v.SetDefault("clickhouse.port", 9000)
	v.SetDefault("clickhouse.database", "stayrate")
	v.SetDefault("clickhouse.username", "default")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}
