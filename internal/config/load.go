package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TODO"

// defaults lists every key with its default value. Keys without a default
// are not picked up from the environment by viper.Unmarshal.
var defaults = map[string]any{
	"server.port":                       8080,
	"server.log_level":                  "info",
	"server.shutdown_timeout":           10 * time.Second,
	"database.driver":                   "sqlite",
	"database.url":                      "file:todo.db",
	"database.max_open_conns":           0,
	"projects.max_count":                10,
	"validation.project_name_max_words": 30,
	"validation.task_title_max_words":   30,
	"validation.description_max_words":  150,
	"scheduler.enabled":                 true,
	"scheduler.interval":                15 * time.Minute,
	"scheduler.run_on_start":            false,
	"scheduler.manual_trigger_interval": 10 * time.Second,
}

// Load configuration from environment variables and optionally config files.
// A file named todo.{yaml,toml,json} is looked up in the working directory
// and in $HOME/.todo. Environment variables take precedence over values
// from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path falls back
// to the default search locations. Unlike the search, an explicit file
// that cannot be read is an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("todo")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.todo")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.Database.Driver = normalizeDriver(cfg.Database.Driver)
	cfg.Database.URL = strings.TrimSpace(cfg.Database.URL)
	cfg.Server.LogLevel = strings.ToLower(strings.TrimSpace(cfg.Server.LogLevel))

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func normalizeDriver(name string) string {
	switch name = strings.ToLower(strings.TrimSpace(name)); name {
	case "postgresql", "pgx":
		return "postgres"
	case "sqlite3":
		return "sqlite"
	default:
		return name
	}
}
