package config

import (
	"time"

	"github.com/phrazzld/todo-api/internal/domain/validation"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Projects   ProjectsConfig   `mapstructure:"projects" validate:"required"`
	Validation ValidationConfig `mapstructure:"validation" validate:"required"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" validate:"required,oneof=sqlite postgres"`
	URL          string `mapstructure:"url" validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
}

// ProjectsConfig holds project business rules.
type ProjectsConfig struct {
	MaxCount int `mapstructure:"max_count" validate:"gt=0"`
}

// ValidationConfig holds the word limits applied to names and descriptions.
type ValidationConfig struct {
	ProjectNameMaxWords int `mapstructure:"project_name_max_words" validate:"gt=0"`
	TaskTitleMaxWords   int `mapstructure:"task_title_max_words" validate:"gt=0"`
	DescriptionMaxWords int `mapstructure:"description_max_words" validate:"gt=0"`
}

// Limits converts the settings to validation.Limits.
func (c ValidationConfig) Limits() validation.Limits {
	return validation.Limits{
		ProjectNameMaxWords: c.ProjectNameMaxWords,
		TaskTitleMaxWords:   c.TaskTitleMaxWords,
		DescriptionMaxWords: c.DescriptionMaxWords,
	}
}

// SchedulerConfig controls the background auto-close job.
type SchedulerConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval" validate:"gt=0"`
	RunOnStart bool          `mapstructure:"run_on_start"`
	// ManualTriggerInterval is the minimum spacing between on-demand runs
	// requested over HTTP.
	ManualTriggerInterval time.Duration `mapstructure:"manual_trigger_interval" validate:"gt=0"`
}
