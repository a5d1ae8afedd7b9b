package walkforward

import (
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/walkforward/internal/models"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// makeTrades builds a sorted trade series starting at testStart with the
// given day spacing, cycling through the supplied P/L values.
func makeTrades(count, spacingDays int, pnls ...float64) []models.Trade {
	blockID := uuid.New()
	trades := make([]models.Trade, count)
	for i := 0; i < count; i++ {
		strategy := "iron-condor"
		if i%2 == 1 {
			strategy = "strangle"
		}
		opened := testStart.AddDate(0, 0, i*spacingDays)
		trades[i] = models.Trade{
			ID:                uuid.New(),
			BlockID:           blockID,
			Strategy:          strategy,
			OpenedAt:          opened,
			ClosedAt:          opened.AddDate(0, 0, 1),
			ProfitLoss:        pnls[i%len(pnls)],
			MarginRequirement: 1000,
			FundsAtClose:      100000,
		}
	}
	return trades
}

// stubEvaluator lets tests script evaluator behaviour per call.
type stubEvaluator struct {
	fn func(trades []models.Trade, params models.SimulationParams) (models.PortfolioStats, error)
}

func (s stubEvaluator) Stats(trades []models.Trade, params models.SimulationParams) (models.PortfolioStats, error) {
	return s.fn(trades, params)
}

func testConfig() models.WalkForwardConfig {
	return models.WalkForwardConfig{
		InSampleDays:         18,
		OutOfSampleDays:      9,
		StepSizeDays:         9,
		OptimizationTarget:   models.TargetNetPl,
		ParameterRanges: map[string]models.ParameterRange{
			models.TunableKellyMultiplier: {Min: 0.5, Max: 1.5, Step: 0.5},
			models.TunableMaxDrawdownPct:  {Min: 5, Max: 15, Step: 5},
			models.TunableMaxDailyLossPct: {Min: 2, Max: 6, Step: 2},
		},
		MinInSampleTrades:    3,
		MinOutOfSampleTrades: 2,
	}
}
