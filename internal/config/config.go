// Package config provides configuration management for the walk-forward
// analysis service.
package config

import (
	"fmt"

	"github.com/yourusername/walkforward/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Analysis  AnalysisConfig  `mapstructure:"analysis" validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents the analysis store connection configuration.
// Persistence is optional; the engine runs without it.
type DatabaseConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections  int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds" validate:"omitempty,gt=0"`
}

// RangeConfig represents one tunable's [min, max, step] sweep
type RangeConfig struct {
	Min  float64 `mapstructure:"min"`
	Max  float64 `mapstructure:"max"`
	Step float64 `mapstructure:"step"`
}

// AnalysisConfig represents walk-forward analysis configuration
type AnalysisConfig struct {
	InSampleDays         int                    `mapstructure:"in_sample_days" validate:"required,gt=0"`
	OutOfSampleDays      int                    `mapstructure:"out_of_sample_days" validate:"required,gt=0"`
	StepSizeDays         int                    `mapstructure:"step_size_days" validate:"required,gt=0"`
	OptimizationTarget   string                 `mapstructure:"optimization_target" validate:"required,target"`
	MinInSampleTrades    int                    `mapstructure:"min_in_sample_trades" validate:"gte=0"`
	MinOutOfSampleTrades int                    `mapstructure:"min_out_of_sample_trades" validate:"gte=0"`
	Workers              int                    `mapstructure:"workers" validate:"gte=0"`
	InitialCapital       float64                `mapstructure:"initial_capital" validate:"gte=0"`
	ParameterRanges      map[string]RangeConfig `mapstructure:"parameter_ranges" validate:"required,min=1"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// SchedulerConfig represents scheduled re-analysis configuration
type SchedulerConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ReanalyzeCron string `mapstructure:"reanalyze_cron"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ToWalkForwardConfig converts the analysis section into the engine's
// run configuration.
func (a AnalysisConfig) ToWalkForwardConfig() models.WalkForwardConfig {
	ranges := make(map[string]models.ParameterRange, len(a.ParameterRanges))
	for name, r := range a.ParameterRanges {
		ranges[name] = models.ParameterRange{Min: r.Min, Max: r.Max, Step: r.Step}
	}
	return models.WalkForwardConfig{
		InSampleDays:         a.InSampleDays,
		OutOfSampleDays:      a.OutOfSampleDays,
		StepSizeDays:         a.StepSizeDays,
		OptimizationTarget:   models.OptimizationTarget(a.OptimizationTarget),
		ParameterRanges:      ranges,
		MinInSampleTrades:    a.MinInSampleTrades,
		MinOutOfSampleTrades: a.MinOutOfSampleTrades,
	}
}
