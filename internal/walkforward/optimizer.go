package walkforward

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/walkforward/internal/models"
)

// windowResult is the outcome of optimizing one window. Exactly one of
// period or skipped is meaningful; tests counts every candidate
// evaluation performed, including discarded candidates.
type windowResult struct {
	period  *models.WalkForwardPeriod
	skipped bool
	tests   int
}

// optimizeWindow runs the full grid search for one window: evaluate
// every candidate against the in-sample trades, discard candidates
// whose own drawdown ceiling was breached by their in-sample metrics,
// select the surviving best by the target metric, then validate the
// winner against the out-of-sample trades.
//
// A window is only ever skipped for insufficient trade counts. When the
// constraint filter discards the entire grid, the unconstrained best
// candidate is used instead.
func (r *Runner) optimizeWindow(ctx context.Context, window WindowSpec, trades []models.Trade, candidates []models.ParameterSet, cfg models.WalkForwardConfig) (windowResult, error) {
	inSample := tradesInRange(trades, window)
	outOfSample := tradesOutOfSampleRange(trades, window)

	if len(inSample) < cfg.MinInSampleTrades || len(outOfSample) < cfg.MinOutOfSampleTrades {
		return windowResult{skipped: true}, nil
	}

	var (
		bestFeasible       = -1
		bestFeasibleStats  models.PortfolioStats
		bestFeasibleTarget float64
		bestAny            = -1
		bestAnyStats       models.PortfolioStats
		bestAnyTarget      float64
	)

	tests := 0
	for i, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return windowResult{}, ErrAborted
		}

		inStats, err := r.evaluator.Stats(inSample, candidate.ToSimulationParams())
		if err != nil {
			return windowResult{}, fmt.Errorf("in-sample evaluation failed: %w", err)
		}
		tests++
		target := cfg.OptimizationTarget.Extract(inStats)

		// Strictly-greater keeps the earliest candidate on ties, so the
		// lower parameter values win deterministically.
		if bestAny < 0 || target > bestAnyTarget {
			bestAny = i
			bestAnyStats = inStats
			bestAnyTarget = target
		}

		if ceiling, ok := candidate.Value(models.TunableMaxDrawdownPct); ok && inStats.MaxDrawdown > ceiling {
			continue
		}
		if bestFeasible < 0 || target > bestFeasibleTarget {
			bestFeasible = i
			bestFeasibleStats = inStats
			bestFeasibleTarget = target
		}
	}

	winner := bestFeasible
	winnerStats := bestFeasibleStats
	winnerTarget := bestFeasibleTarget
	if winner < 0 {
		winner = bestAny
		winnerStats = bestAnyStats
		winnerTarget = bestAnyTarget
		r.logger.WithFields(logrus.Fields{
			"in_sample_start": window.InSampleStart,
			"candidates":      len(candidates),
		}).Warn("Drawdown constraint discarded every candidate, using unconstrained best")
	}

	outStats, err := r.evaluator.Stats(outOfSample, candidates[winner].ToSimulationParams())
	if err != nil {
		return windowResult{}, fmt.Errorf("out-of-sample evaluation failed: %w", err)
	}

	period := &models.WalkForwardPeriod{
		InSampleStart:           window.InSampleStart,
		InSampleEnd:             window.InSampleEnd,
		OutOfSampleStart:        window.OutOfSampleStart,
		OutOfSampleEnd:          window.OutOfSampleEnd,
		OptimalParameters:       candidates[winner].Clone(),
		InSampleMetrics:         winnerStats,
		OutOfSampleMetrics:      outStats,
		TargetMetricInSample:    winnerTarget,
		TargetMetricOutOfSample: cfg.OptimizationTarget.Extract(outStats),
	}
	return windowResult{period: period, tests: tests}, nil
}

// tradesInRange returns the contiguous subslice of trades whose open
// date falls inside the window's in-sample range. Trades are sorted by
// open date, so the bounds are found by binary search and the input is
// never copied or mutated.
func tradesInRange(trades []models.Trade, window WindowSpec) []models.Trade {
	return tradesBetween(trades, window.InSampleStart, window.InSampleEnd)
}

func tradesOutOfSampleRange(trades []models.Trade, window WindowSpec) []models.Trade {
	return tradesBetween(trades, window.OutOfSampleStart, window.OutOfSampleEnd)
}

// tradesBetween returns trades with start <= OpenedAt < end.
func tradesBetween(trades []models.Trade, start, end time.Time) []models.Trade {
	lo := sort.Search(len(trades), func(i int) bool {
		return !trades[i].OpenedAt.Before(start)
	})
	hi := sort.Search(len(trades), func(i int) bool {
		return !trades[i].OpenedAt.Before(end)
	})
	return trades[lo:hi]
}
