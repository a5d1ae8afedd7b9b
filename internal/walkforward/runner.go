// Package walkforward implements rolling train/test validation of
// options-trading logs: window segmentation, parameter grid search,
// constrained per-window optimization, and robustness aggregation.
package walkforward

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/walkforward/internal/metrics"
	"github.com/yourusername/walkforward/internal/models"
	"github.com/yourusername/walkforward/internal/stats"
)

const (
	defaultWorkers = 4

	// progressRate bounds callback frequency; completion updates bypass it.
	progressRate = rate.Limit(20)
)

// Runner orchestrates a walk-forward analysis end to end. Each call to
// Run is independent and stateless aside from its read-only inputs, so
// a single Runner may serve concurrent runs.
type Runner struct {
	evaluator stats.Evaluator
	logger    logrus.FieldLogger
	workers   int
	progress  ProgressFunc
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the size of the window-evaluation worker pool.
func WithWorkers(n int) Option {
	return func(r *Runner) { r.workers = n }
}

// WithLogger sets the structured logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) { r.progress = fn }
}

// NewRunner creates an analysis runner.
func NewRunner(evaluator stats.Evaluator, opts ...Option) (*Runner, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	r := &Runner{
		evaluator: evaluator,
		logger:    logrus.New(),
		workers:   defaultWorkers,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers <= 0 {
		r.workers = defaultWorkers
	}
	return r, nil
}

// Run executes the full pipeline: validate, segment, grid-search every
// window on a fixed-size worker pool, and aggregate. Windows are
// independent, so they are evaluated in parallel; the resulting periods
// are always emitted in chronological window order.
//
// Cancellation is cooperative and all-or-nothing: once the context is
// observed done at a yield point, in-flight work is abandoned and Run
// returns ErrAborted with no partial result. Evaluator failures abort
// the run as well, since a broken metrics function invalidates the
// comparison basis for every window.
func (r *Runner) Run(ctx context.Context, blockID uuid.UUID, trades []models.Trade, cfg models.WalkForwardConfig) (*models.WalkForwardAnalysis, error) {
	startedAt := time.Now().UTC()

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if !models.TradesSorted(trades) {
		return nil, validationErrorf("trades", "must be sorted ascending by open date")
	}
	if err := ctx.Err(); err != nil {
		return nil, ErrAborted
	}

	metrics.AnalysesStartedTotal.Inc()

	windows := SegmentWindows(trades, cfg)
	candidates := ExpandGrid(cfg.ParameterRanges)
	tracker := newProgressTracker(r.progress, progressRate)
	tracker.report(0, fmt.Sprintf("segmented %d windows, %d candidates per window", len(windows), len(candidates)), true)

	r.logger.WithFields(logrus.Fields{
		"block_id":   blockID,
		"windows":    len(windows),
		"candidates": len(candidates),
		"trades":     len(trades),
	}).Info("Starting walk-forward analysis")

	results, err := r.evaluateWindows(ctx, windows, trades, candidates, cfg, tracker)
	if err != nil {
		if ctx.Err() != nil {
			metrics.AnalysesAbortedTotal.Inc()
			return nil, ErrAborted
		}
		metrics.AnalysesFailedTotal.Inc()
		return nil, err
	}

	periods := make([]models.WalkForwardPeriod, 0, len(windows))
	evaluated := make([]WindowSpec, 0, len(windows))
	totalTests := 0
	skipped := 0
	for i, res := range results {
		totalTests += res.tests
		if res.skipped {
			skipped++
			continue
		}
		periods = append(periods, *res.period)
		evaluated = append(evaluated, windows[i])
	}

	summary, consistency, avgDelta := aggregate(periods)
	completedAt := time.Now().UTC()
	runStats := models.Stats{
		TotalPeriods:            len(windows),
		EvaluatedPeriods:        len(periods),
		SkippedPeriods:          skipped,
		TotalParameterTests:     totalTests,
		AnalyzedTrades:          countAnalyzedTrades(trades, evaluated),
		DurationMs:              completedAt.Sub(startedAt).Milliseconds(),
		ConsistencyScore:        consistency,
		AveragePerformanceDelta: avgDelta,
	}

	metrics.WindowsEvaluatedTotal.Add(float64(len(periods)))
	metrics.WindowsSkippedTotal.Add(float64(skipped))
	metrics.ParameterTestsTotal.Add(float64(totalTests))
	metrics.AnalysisDuration.Observe(completedAt.Sub(startedAt).Seconds())
	metrics.AnalysesCompletedTotal.Inc()
	tracker.report(100, "analysis complete", true)

	analysis := &models.WalkForwardAnalysis{
		ID:          uuid.New(),
		BlockID:     blockID,
		Config:      cfg,
		Results:     models.Results{Periods: periods, Summary: summary, Stats: runStats},
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		CreatedAt:   completedAt,
	}

	r.logger.WithFields(logrus.Fields{
		"analysis_id":       analysis.ID,
		"evaluated_periods": runStats.EvaluatedPeriods,
		"skipped_periods":   runStats.SkippedPeriods,
		"robustness_score":  summary.RobustnessScore,
		"duration_ms":       runStats.DurationMs,
	}).Info("Walk-forward analysis completed")

	return analysis, nil
}

// evaluateWindows fans windows out to a fixed-size worker pool and
// collects results indexed by window, preserving chronological order
// regardless of completion order. The first error cancels all remaining
// work.
func (r *Runner) evaluateWindows(ctx context.Context, windows []WindowSpec, trades []models.Trade, candidates []models.ParameterSet, cfg models.WalkForwardConfig, tracker *progressTracker) ([]windowResult, error) {
	results := make([]windowResult, len(windows))
	if len(windows) == 0 {
		return results, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		done     int
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	workers := r.workers
	if workers > len(windows) {
		workers = len(windows)
	}

	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				res, err := r.optimizeWindow(runCtx, windows[idx], trades, candidates, cfg)
				if err != nil {
					fail(err)
					return
				}
				mu.Lock()
				results[idx] = res
				done++
				completed := done
				mu.Unlock()
				tracker.report(float64(completed)/float64(len(windows))*100,
					fmt.Sprintf("evaluated window %d/%d", completed, len(windows)), false)
			}
		}()
	}

	for idx := range windows {
		select {
		case jobs <- idx:
		case <-runCtx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// countAnalyzedTrades counts the distinct trades touched by at least one
// evaluated window. A window's in-sample and out-of-sample ranges are
// contiguous, so one interval check per window suffices.
func countAnalyzedTrades(trades []models.Trade, windows []WindowSpec) int {
	count := 0
	for _, trade := range trades {
		for _, w := range windows {
			if !trade.OpenedAt.Before(w.InSampleStart) && trade.OpenedAt.Before(w.OutOfSampleEnd) {
				count++
				break
			}
		}
	}
	return count
}
