// Package stats replays trade subsets under candidate parameter sets and
// derives portfolio performance metrics.
package stats

import (
	"fmt"
	"math"
	"time"

	"github.com/yourusername/walkforward/internal/models"
)

// DefaultInitialCapital is assumed when the caller does not supply a
// starting capital.
const DefaultInitialCapital = 100000.0

// Evaluator produces portfolio metrics for a trade subset under a
// candidate parameter set. Implementations must be pure: same inputs,
// same outputs, no retained state between calls.
type Evaluator interface {
	Stats(trades []models.Trade, params models.SimulationParams) (models.PortfolioStats, error)
}

// Calculator is the default Evaluator. It replays trades in open-date
// order, scaling each trade's recorded P/L by the configured position
// sizing and enforcing drawdown and daily-loss ceilings as circuit
// breakers.
type Calculator struct {
	initialCapital float64
}

// NewCalculator creates a calculator with the given starting capital.
func NewCalculator(initialCapital float64) *Calculator {
	if initialCapital <= 0 {
		initialCapital = DefaultInitialCapital
	}
	return &Calculator{initialCapital: initialCapital}
}

// Stats replays the trade list and calculates portfolio metrics.
func (c *Calculator) Stats(trades []models.Trade, params models.SimulationParams) (models.PortfolioStats, error) {
	if err := validateParams(params); err != nil {
		return models.PortfolioStats{}, err
	}

	capital := c.initialCapital
	peak := capital
	maxDrawdownPct := 0.0
	halted := false

	var (
		pnls       []float64
		returns    []float64
		currentDay time.Time
		dayStart   float64
		dayLoss    float64
		daySkipped bool
	)

	for _, trade := range trades {
		if halted {
			break
		}

		day := trade.OpenedAt.UTC().Truncate(24 * time.Hour)
		if !day.Equal(currentDay) {
			currentDay = day
			dayStart = capital
			dayLoss = 0
			daySkipped = false
		}
		if daySkipped {
			continue
		}

		pnl := trade.ProfitLoss * positionScale(trade, capital, params)
		if capital > 0 {
			returns = append(returns, pnl/capital)
		}
		capital += pnl
		pnls = append(pnls, pnl)

		if capital > peak {
			peak = capital
		}
		if peak > 0 {
			drawdown := (peak - capital) / peak * 100
			if drawdown > maxDrawdownPct {
				maxDrawdownPct = drawdown
			}
			if params.MaxDrawdownPct != nil && drawdown > *params.MaxDrawdownPct {
				halted = true
			}
		}

		if pnl < 0 {
			dayLoss += -pnl
			if params.MaxDailyLossPct != nil && dayStart > 0 &&
				dayLoss > dayStart*(*params.MaxDailyLossPct)/100 {
				daySkipped = true
			}
		}
	}

	return buildStats(pnls, returns, maxDrawdownPct, capital), nil
}

// positionScale derives the sizing multiplier for one trade. With a
// fixed-fraction override the recorded P/L is re-scaled from the log's
// own margin to the target allocation; the Kelly multiplier scales on
// top of that.
func positionScale(trade models.Trade, capital float64, params models.SimulationParams) float64 {
	scale := 1.0
	if params.FixedFractionPct != nil && trade.MarginRequirement > 0 && capital > 0 {
		scale = capital * (*params.FixedFractionPct) / 100 / trade.MarginRequirement
	}
	if params.KellyMultiplier != nil {
		scale *= *params.KellyMultiplier
	}
	return scale
}

func buildStats(pnls, returns []float64, maxDrawdownPct, finalCapital float64) models.PortfolioStats {
	s := models.PortfolioStats{
		TotalTrades:  len(pnls),
		MaxDrawdown:  maxDrawdownPct,
		FinalCapital: finalCapital,
	}

	grossProfit := 0.0
	grossLoss := 0.0
	for _, pnl := range pnls {
		s.NetPl += pnl
		switch {
		case pnl > 0:
			s.WinningTrades++
			grossProfit += pnl
			if pnl > s.LargestWin {
				s.LargestWin = pnl
			}
		case pnl < 0:
			s.LosingTrades++
			grossLoss += -pnl
			if pnl < s.LargestLoss {
				s.LargestLoss = pnl
			}
		}
	}

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades)
		s.Expectancy = s.NetPl / float64(s.TotalTrades)
	}
	if s.WinningTrades > 0 {
		s.AverageWin = grossProfit / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AverageLoss = -grossLoss / float64(s.LosingTrades)
	}
	s.ProfitFactor = profitFactor(grossProfit, grossLoss)
	s.SharpeRatio = sharpeRatio(returns)
	return s
}

func validateParams(params models.SimulationParams) error {
	if params.KellyMultiplier != nil && *params.KellyMultiplier < 0 {
		return fmt.Errorf("kelly multiplier cannot be negative: %v", *params.KellyMultiplier)
	}
	if params.FixedFractionPct != nil && (*params.FixedFractionPct < 0 || *params.FixedFractionPct > 100) {
		return fmt.Errorf("fixed fraction must be between 0 and 100: %v", *params.FixedFractionPct)
	}
	if params.MaxDrawdownPct != nil && *params.MaxDrawdownPct < 0 {
		return fmt.Errorf("max drawdown ceiling cannot be negative: %v", *params.MaxDrawdownPct)
	}
	if params.MaxDailyLossPct != nil && *params.MaxDailyLossPct < 0 {
		return fmt.Errorf("max daily loss ceiling cannot be negative: %v", *params.MaxDailyLossPct)
	}
	return nil
}

func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return 999
		}
		return 0
	}
	return grossProfit / grossLoss
}

func sharpeRatio(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean := average(returns)
	std := stddev(returns)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(252)
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := average(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
