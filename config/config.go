// Package config loads application configuration from an optional YAML
// file and environment variables (prefix STAFFING_), with sane defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/warp/staffing-engine/allocation"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Allocation AllocationConfig `mapstructure:"allocation"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds SQLite configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// AllocationConfig holds the admission engine's configurable rules.
type AllocationConfig struct {
	// MinStartDate is the earliest admissible allocation start, ISO format.
	MinStartDate string `mapstructure:"min_start_date"`

	// Approvers is the recognized timesheet approver set. Empty = any.
	Approvers []string `mapstructure:"approvers"`
}

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Load reads configuration. configPath may be empty, in which case only
// defaults and environment variables apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("STAFFING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.path", "staffing.db")

	v.SetDefault("allocation.min_start_date", "2020-01-01")
	v.SetDefault("allocation.approvers", []string{})

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.pretty", false)
}

// Validate checks the fields that would otherwise fail deep inside startup.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if _, err := allocation.ParseDate(c.Allocation.MinStartDate); err != nil {
		return fmt.Errorf("allocation.min_start_date %q: %w", c.Allocation.MinStartDate, err)
	}
	return nil
}

// Rules converts the allocation section into engine rules.
func (c *Config) Rules() allocation.Rules {
	min, _ := allocation.ParseDate(c.Allocation.MinStartDate) // validated in Load
	return allocation.Rules{
		MinStartDate: min,
		Approvers:    c.Allocation.Approvers,
	}
}
