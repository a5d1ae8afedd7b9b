package walkforward

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/yourusername/walkforward/internal/models"
	"github.com/yourusername/walkforward/internal/stats"
)

func TestRunEndToEnd(t *testing.T) {
	trades := makeTrades(12, 3, 100, -50)
	r, err := NewRunner(stats.NewCalculator(100000))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	analysis, err := r.Run(context.Background(), uuid.New(), trades, testConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	s := analysis.Results.Stats
	if s.TotalPeriods != 1 || s.EvaluatedPeriods != 1 || s.SkippedPeriods != 0 {
		t.Fatalf("period accounting mismatch: %+v", s)
	}
	if s.TotalPeriods != s.EvaluatedPeriods+s.SkippedPeriods {
		t.Fatalf("period counts must add up: %+v", s)
	}
	if s.TotalParameterTests != 27 {
		t.Fatalf("expected 27 parameter tests, got %d", s.TotalParameterTests)
	}
	// The window covers trades opened on days 0 through 24.
	if s.AnalyzedTrades != 9 {
		t.Fatalf("expected 9 analyzed trades, got %d", s.AnalyzedTrades)
	}

	if len(analysis.Results.Periods) != 1 {
		t.Fatalf("expected 1 period, got %d", len(analysis.Results.Periods))
	}
	period := analysis.Results.Periods[0]

	// Net P/L scales linearly with the Kelly multiplier here, so the
	// highest multiplier wins; the other tunables tie and keep their
	// lowest values.
	want := models.ParameterSet{
		models.TunableKellyMultiplier: 1.5,
		models.TunableMaxDailyLossPct: 2,
		models.TunableMaxDrawdownPct:  5,
	}
	for name, v := range want {
		if got := period.OptimalParameters[name]; got != v {
			t.Fatalf("optimal %s: expected %v, got %v", name, v, got)
		}
	}

	if !almostEqual(period.TargetMetricInSample, 225) {
		t.Fatalf("in-sample target: expected 225, got %v", period.TargetMetricInSample)
	}
	if !almostEqual(period.TargetMetricOutOfSample, 225) {
		t.Fatalf("out-of-sample target: expected 225, got %v", period.TargetMetricOutOfSample)
	}
	if period.InSampleMetrics.TotalTrades != 6 || period.OutOfSampleMetrics.TotalTrades != 3 {
		t.Fatalf("trade counts mismatch: %+v", period)
	}
	if period.InSampleMetrics.MaxDrawdown > want[models.TunableMaxDrawdownPct] {
		t.Fatalf("winner breaches its drawdown ceiling: %v", period.InSampleMetrics.MaxDrawdown)
	}

	summary := analysis.Results.Summary
	if !almostEqual(summary.DegradationFactor, 1.0) {
		t.Fatalf("degradation: expected 1.0, got %v", summary.DegradationFactor)
	}
	if !almostEqual(summary.ParameterStability, 1.0) {
		t.Fatalf("single-window stability: expected 1.0, got %v", summary.ParameterStability)
	}
	if !almostEqual(analysis.Results.Stats.ConsistencyScore, 1.0) {
		t.Fatalf("consistency: expected 1.0, got %v", s.ConsistencyScore)
	}

	if analysis.ID == uuid.Nil || analysis.CompletedAt.Before(analysis.StartedAt) {
		t.Fatalf("provenance fields not populated: %+v", analysis)
	}
}

func TestRunPreCancelled(t *testing.T) {
	trades := makeTrades(12, 3, 100, -50)

	evaluations := 0
	stub := stubEvaluator{fn: func(_ []models.Trade, _ models.SimulationParams) (models.PortfolioStats, error) {
		evaluations++
		return models.PortfolioStats{}, nil
	}}
	r, err := NewRunner(stub)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	analysis, err := r.Run(ctx, uuid.New(), trades, testConfig())
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if analysis != nil {
		t.Fatalf("aborted run must produce no result")
	}
	if evaluations != 0 {
		t.Fatalf("aborted run must not evaluate, ran %d", evaluations)
	}
}

func TestRunCancelledMidway(t *testing.T) {
	trades := makeTrades(12, 3, 100, -50)
	ctx, cancel := context.WithCancel(context.Background())

	stub := stubEvaluator{fn: func(_ []models.Trade, _ models.SimulationParams) (models.PortfolioStats, error) {
		cancel()
		return models.PortfolioStats{NetPl: 1}, nil
	}}
	r, err := NewRunner(stub)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	analysis, err := r.Run(ctx, uuid.New(), trades, testConfig())
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if analysis != nil {
		t.Fatalf("aborted run must produce no result")
	}
}

func TestRunInvalidConfig(t *testing.T) {
	trades := makeTrades(12, 3, 100, -50)
	r, err := NewRunner(stats.NewCalculator(0))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	cfg := testConfig()
	cfg.InSampleDays = 0

	_, err = r.Run(context.Background(), uuid.New(), trades, cfg)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if verr.Field != "inSampleDays" {
		t.Fatalf("expected inSampleDays to be flagged, got %q", verr.Field)
	}
}

func TestRunUnsortedTrades(t *testing.T) {
	trades := makeTrades(12, 3, 100, -50)
	trades[0], trades[5] = trades[5], trades[0]

	r, err := NewRunner(stats.NewCalculator(0))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	_, err = r.Run(context.Background(), uuid.New(), trades, testConfig())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestRunEvaluatorFailure(t *testing.T) {
	trades := makeTrades(12, 3, 100, -50)

	wantErr := errors.New("metrics exploded")
	stub := stubEvaluator{fn: func(_ []models.Trade, _ models.SimulationParams) (models.PortfolioStats, error) {
		return models.PortfolioStats{}, wantErr
	}}
	r, err := NewRunner(stub)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	_, err = r.Run(context.Background(), uuid.New(), trades, testConfig())
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected evaluator error, got %v", err)
	}
	if errors.Is(err, ErrAborted) {
		t.Fatalf("evaluator failure must not masquerade as an abort")
	}
}

func TestRunSkipAccounting(t *testing.T) {
	// Dense daily history with the out-of-sample range of one window
	// hollowed out, so that single window skips while the rest evaluate.
	full := makeTrades(101, 1, 100, -50)
	gapStart := testStart.AddDate(0, 0, 60)
	gapEnd := testStart.AddDate(0, 0, 70)
	trades := make([]models.Trade, 0, len(full))
	for _, trade := range full {
		if !trade.OpenedAt.Before(gapStart) && trade.OpenedAt.Before(gapEnd) {
			continue
		}
		trades = append(trades, trade)
	}

	cfg := models.WalkForwardConfig{
		InSampleDays:       30,
		OutOfSampleDays:    10,
		StepSizeDays:       10,
		OptimizationTarget: models.TargetNetPl,
		ParameterRanges: map[string]models.ParameterRange{
			models.TunableKellyMultiplier: {Min: 1, Max: 1, Step: 1},
		},
		MinInSampleTrades:    3,
		MinOutOfSampleTrades: 2,
	}

	stub := stubEvaluator{fn: func(ts []models.Trade, _ models.SimulationParams) (models.PortfolioStats, error) {
		return models.PortfolioStats{NetPl: float64(len(ts))}, nil
	}}
	r, err := NewRunner(stub, WithWorkers(3))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	analysis, err := r.Run(context.Background(), uuid.New(), trades, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	s := analysis.Results.Stats
	if s.TotalPeriods != 7 {
		t.Fatalf("expected 7 total periods, got %d", s.TotalPeriods)
	}
	if s.SkippedPeriods != 1 || s.EvaluatedPeriods != 6 {
		t.Fatalf("expected 6 evaluated and 1 skipped, got %+v", s)
	}
	if s.TotalPeriods != s.EvaluatedPeriods+s.SkippedPeriods {
		t.Fatalf("period counts must add up: %+v", s)
	}
	// One candidate per window, skipped windows test nothing.
	if s.TotalParameterTests != 6 {
		t.Fatalf("expected 6 parameter tests, got %d", s.TotalParameterTests)
	}
}

func TestRunPeriodsChronological(t *testing.T) {
	trades := makeTrades(101, 1, 100, -50)
	cfg := models.WalkForwardConfig{
		InSampleDays:       30,
		OutOfSampleDays:    10,
		StepSizeDays:       10,
		OptimizationTarget: models.TargetNetPl,
		ParameterRanges: map[string]models.ParameterRange{
			models.TunableKellyMultiplier: {Min: 0.5, Max: 1.5, Step: 0.5},
		},
		MinInSampleTrades:    1,
		MinOutOfSampleTrades: 1,
	}

	stub := stubEvaluator{fn: func(ts []models.Trade, _ models.SimulationParams) (models.PortfolioStats, error) {
		return models.PortfolioStats{NetPl: float64(len(ts))}, nil
	}}
	r, err := NewRunner(stub, WithWorkers(4))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	analysis, err := r.Run(context.Background(), uuid.New(), trades, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	periods := analysis.Results.Periods
	if len(periods) != 7 {
		t.Fatalf("expected 7 periods, got %d", len(periods))
	}
	for i := 1; i < len(periods); i++ {
		if !periods[i].InSampleStart.After(periods[i-1].InSampleStart) {
			t.Fatalf("periods out of chronological order at %d", i)
		}
	}
}

func TestRunProgressMonotonic(t *testing.T) {
	trades := makeTrades(101, 1, 100, -50)
	cfg := models.WalkForwardConfig{
		InSampleDays:       30,
		OutOfSampleDays:    10,
		StepSizeDays:       10,
		OptimizationTarget: models.TargetNetPl,
		ParameterRanges: map[string]models.ParameterRange{
			models.TunableKellyMultiplier: {Min: 1, Max: 1, Step: 1},
		},
	}

	var percents []float64
	stub := stubEvaluator{fn: func(_ []models.Trade, _ models.SimulationParams) (models.PortfolioStats, error) {
		return models.PortfolioStats{NetPl: 1}, nil
	}}
	r, err := NewRunner(stub, WithWorkers(4), WithProgress(func(percent float64, _ string) {
		percents = append(percents, percent)
	}))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	if _, err := r.Run(context.Background(), uuid.New(), trades, cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(percents) < 2 {
		t.Fatalf("expected at least start and completion updates, got %v", percents)
	}
	if percents[0] != 0 {
		t.Fatalf("first update must be 0%%, got %v", percents[0])
	}
	if percents[len(percents)-1] != 100 {
		t.Fatalf("final update must be 100%%, got %v", percents[len(percents)-1])
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress went backwards: %v", percents)
		}
	}
}

func TestNewRunnerRequiresEvaluator(t *testing.T) {
	if _, err := NewRunner(nil); err == nil {
		t.Fatalf("expected error for nil evaluator")
	}
}

func TestProgressTrackerThrottles(t *testing.T) {
	calls := 0
	tracker := newProgressTracker(func(float64, string) { calls++ }, 1)

	tracker.report(10, "a", false)
	for i := 0; i < 50; i++ {
		tracker.report(float64(10+i), "b", false)
	}
	if calls > 2 {
		t.Fatalf("limiter must suppress rapid updates, got %d calls", calls)
	}

	tracker.report(100, "done", true)
	if calls < 2 {
		t.Fatalf("forced update must always fire, got %d calls", calls)
	}

	before := calls
	tracker.report(50, "late", true)
	if calls != before {
		t.Fatalf("out-of-order update must be dropped")
	}
}

func TestValidateConfigErrors(t *testing.T) {
	base := testConfig()

	cases := []struct {
		name   string
		mutate func(*models.WalkForwardConfig)
		field  string
	}{
		{"zero step", func(c *models.WalkForwardConfig) { c.StepSizeDays = 0 }, "stepSizeDays"},
		{"bad target", func(c *models.WalkForwardConfig) { c.OptimizationTarget = "alpha" }, "optimizationTarget"},
		{"no ranges", func(c *models.WalkForwardConfig) { c.ParameterRanges = nil }, "parameterRanges"},
		{"unknown tunable", func(c *models.WalkForwardConfig) {
			c.ParameterRanges = map[string]models.ParameterRange{"leverage": {Min: 1, Max: 2, Step: 1}}
		}, "parameterRanges"},
		{"zero range step", func(c *models.WalkForwardConfig) {
			c.ParameterRanges = map[string]models.ParameterRange{models.TunableKellyMultiplier: {Min: 1, Max: 2, Step: 0}}
		}, "parameterRanges"},
		{"inverted range", func(c *models.WalkForwardConfig) {
			c.ParameterRanges = map[string]models.ParameterRange{models.TunableKellyMultiplier: {Min: 2, Max: 1, Step: 1}}
		}, "parameterRanges"},
		{"negative floor", func(c *models.WalkForwardConfig) { c.MinInSampleTrades = -1 }, "minInSampleTrades"},
	}

	for _, tc := range cases {
		cfg := base
		cfg.ParameterRanges = base.ParameterRanges
		tc.mutate(&cfg)

		err := ValidateConfig(cfg)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
		if verr.Field != tc.field {
			t.Fatalf("%s: expected field %q, got %q", tc.name, tc.field, verr.Field)
		}
	}

	if err := ValidateConfig(testConfig()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestCountAnalyzedTrades(t *testing.T) {
	trades := makeTrades(12, 3, 100, -50)
	window := WindowSpec{
		InSampleStart:    testStart,
		InSampleEnd:      testStart.AddDate(0, 0, 18),
		OutOfSampleStart: testStart.AddDate(0, 0, 18),
		OutOfSampleEnd:   testStart.AddDate(0, 0, 27),
	}

	if got := countAnalyzedTrades(trades, []WindowSpec{window}); got != 9 {
		t.Fatalf("expected 9 analyzed trades, got %d", got)
	}
	// Overlapping windows must not double count.
	if got := countAnalyzedTrades(trades, []WindowSpec{window, window}); got != 9 {
		t.Fatalf("overlap double counted: got %d", got)
	}
	if got := countAnalyzedTrades(trades, nil); got != 0 {
		t.Fatalf("no windows must analyze nothing, got %d", got)
	}
}
