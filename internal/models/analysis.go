package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WalkForwardConfig configures one walk-forward analysis run. It is
// immutable for the duration of the run and retained on the result for
// provenance.
type WalkForwardConfig struct {
	InSampleDays         int                       `json:"in_sample_days" validate:"required,gt=0"`
	OutOfSampleDays      int                       `json:"out_of_sample_days" validate:"required,gt=0"`
	StepSizeDays         int                       `json:"step_size_days" validate:"required,gt=0"`
	OptimizationTarget   OptimizationTarget        `json:"optimization_target" validate:"required"`
	ParameterRanges      map[string]ParameterRange `json:"parameter_ranges" validate:"required,min=1"`
	MinInSampleTrades    int                       `json:"min_in_sample_trades" validate:"gte=0"`
	MinOutOfSampleTrades int                       `json:"min_out_of_sample_trades" validate:"gte=0"`
}

// WalkForwardPeriod holds one evaluated window: the date ranges, the
// winning candidate, and its in-sample and out-of-sample metrics.
// Created once per window and never mutated afterward.
type WalkForwardPeriod struct {
	InSampleStart    time.Time `json:"in_sample_start"`
	InSampleEnd      time.Time `json:"in_sample_end"`
	OutOfSampleStart time.Time `json:"out_of_sample_start"`
	OutOfSampleEnd   time.Time `json:"out_of_sample_end"`

	OptimalParameters  ParameterSet   `json:"optimal_parameters"`
	InSampleMetrics    PortfolioStats `json:"in_sample_metrics"`
	OutOfSampleMetrics PortfolioStats `json:"out_of_sample_metrics"`

	// The scalar values actually compared, extracted from the metrics
	// via the configured optimization target.
	TargetMetricInSample    float64 `json:"target_metric_in_sample"`
	TargetMetricOutOfSample float64 `json:"target_metric_out_of_sample"`
}

// Summary aggregates degradation and robustness statistics across all
// evaluated periods.
type Summary struct {
	AvgInSamplePerformance    float64 `json:"avg_in_sample_performance"`
	AvgOutOfSamplePerformance float64 `json:"avg_out_of_sample_performance"`
	DegradationFactor         float64 `json:"degradation_factor"`
	ParameterStability        float64 `json:"parameter_stability"`
	RobustnessScore           float64 `json:"robustness_score"`
}

// Stats carries run accounting for one analysis.
type Stats struct {
	TotalPeriods            int     `json:"total_periods"`
	EvaluatedPeriods        int     `json:"evaluated_periods"`
	SkippedPeriods          int     `json:"skipped_periods"`
	TotalParameterTests     int     `json:"total_parameter_tests"`
	AnalyzedTrades          int     `json:"analyzed_trades"`
	DurationMs              int64   `json:"duration_ms"`
	ConsistencyScore        float64 `json:"consistency_score"`
	AveragePerformanceDelta float64 `json:"average_performance_delta"`
}

// Results bundles periods with their aggregate statistics.
type Results struct {
	Periods []WalkForwardPeriod `json:"periods"`
	Summary Summary             `json:"summary"`
	Stats   Stats               `json:"stats"`
}

// ToJSON exports results for the reporting layer.
func (r Results) ToJSON() string {
	data, _ := json.Marshal(r)
	return string(data)
}

// WalkForwardAnalysis is the top-level, immutable result of one run,
// persisted as an opaque record by the repository layer.
type WalkForwardAnalysis struct {
	ID          uuid.UUID         `db:"id" json:"id"`
	BlockID     uuid.UUID         `db:"block_id" json:"block_id"`
	Config      WalkForwardConfig `db:"config" json:"config"`
	Results     Results           `db:"results" json:"results"`
	StartedAt   time.Time         `db:"started_at" json:"started_at"`
	CompletedAt time.Time         `db:"completed_at" json:"completed_at"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}
