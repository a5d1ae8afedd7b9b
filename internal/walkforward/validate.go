package walkforward

import "github.com/yourusername/walkforward/internal/models"

// ValidateConfig checks a run configuration before any evaluation work.
// Degenerate parameter ranges must fail here rather than silently
// producing a single candidate.
func ValidateConfig(cfg models.WalkForwardConfig) error {
	if cfg.InSampleDays <= 0 {
		return validationErrorf("inSampleDays", "must be positive, got %d", cfg.InSampleDays)
	}
	if cfg.OutOfSampleDays <= 0 {
		return validationErrorf("outOfSampleDays", "must be positive, got %d", cfg.OutOfSampleDays)
	}
	if cfg.StepSizeDays <= 0 {
		return validationErrorf("stepSizeDays", "must be positive, got %d", cfg.StepSizeDays)
	}
	if !cfg.OptimizationTarget.Valid() {
		return validationErrorf("optimizationTarget", "unrecognized target %q", cfg.OptimizationTarget)
	}
	if len(cfg.ParameterRanges) == 0 {
		return validationErrorf("parameterRanges", "at least one tunable range is required")
	}
	if cfg.MinInSampleTrades < 0 {
		return validationErrorf("minInSampleTrades", "cannot be negative, got %d", cfg.MinInSampleTrades)
	}
	if cfg.MinOutOfSampleTrades < 0 {
		return validationErrorf("minOutOfSampleTrades", "cannot be negative, got %d", cfg.MinOutOfSampleTrades)
	}
	for name, r := range cfg.ParameterRanges {
		if !models.IsKnownTunable(name) {
			return validationErrorf("parameterRanges", "unknown tunable %q", name)
		}
		if r.Step <= 0 {
			return validationErrorf("parameterRanges", "%s: step must be positive, got %v", name, r.Step)
		}
		if r.Min > r.Max {
			return validationErrorf("parameterRanges", "%s: min %v exceeds max %v", name, r.Min, r.Max)
		}
	}
	return nil
}
