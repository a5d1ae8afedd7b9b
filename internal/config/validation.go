// Package config provides configuration management for the walk-forward
// analysis service.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yourusername/walkforward/internal/models"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Registration only fails for empty tags, which are all literals here
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("target", validateTarget)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	// Additional cross-field validations
	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateTarget validates the optimization target field
func validateTarget(fl validator.FieldLevel) bool {
	return models.OptimizationTarget(fl.Field().String()).Valid()
}

func validateCrossField(cfg *Config) error {
	for name, r := range cfg.Analysis.ParameterRanges {
		if !models.IsKnownTunable(name) {
			return fmt.Errorf("analysis.parameter_ranges: unknown tunable %q (known: %s)",
				name, strings.Join(models.KnownTunables, ", "))
		}
		if r.Step <= 0 {
			return fmt.Errorf("analysis.parameter_ranges.%s: step must be positive, got %v", name, r.Step)
		}
		if r.Min > r.Max {
			return fmt.Errorf("analysis.parameter_ranges.%s: min %v exceeds max %v", name, r.Min, r.Max)
		}
	}

	if cfg.Database.Enabled {
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("database: host, name and user are required when persistence is enabled")
		}
		if cfg.Database.Port == 0 {
			return fmt.Errorf("database: port is required when persistence is enabled")
		}
	}

	if cfg.Scheduler.Enabled && cfg.Scheduler.ReanalyzeCron == "" {
		return fmt.Errorf("scheduler: reanalyze_cron is required when the scheduler is enabled")
	}

	return nil
}

func formatValidationErrors(errs validator.ValidationErrors) error {
	messages := make([]string, 0, len(errs))
	for _, err := range errs {
		messages = append(messages, fmt.Sprintf("%s failed %q validation", err.Namespace(), err.Tag()))
	}
	return fmt.Errorf("configuration validation failed: %s", strings.Join(messages, "; "))
}
