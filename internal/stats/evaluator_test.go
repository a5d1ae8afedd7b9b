package stats

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/walkforward/internal/models"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// tradesOn builds one trade per P/L value, spread across consecutive
// days with a fixed margin requirement.
func tradesOn(start time.Time, margin float64, pnls ...float64) []models.Trade {
	trades := make([]models.Trade, len(pnls))
	for i, pnl := range pnls {
		opened := start.AddDate(0, 0, i)
		trades[i] = models.Trade{
			ID:                uuid.New(),
			Strategy:          "iron-condor",
			OpenedAt:          opened,
			ClosedAt:          opened.Add(6 * time.Hour),
			ProfitLoss:        pnl,
			MarginRequirement: margin,
		}
	}
	return trades
}

func fptr(v float64) *float64 { return &v }

func TestStatsBasic(t *testing.T) {
	calc := NewCalculator(100000)
	trades := tradesOn(day0, 1000, 100, -50, 200, -25)

	got, err := calc.Stats(trades, models.SimulationParams{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if got.TotalTrades != 4 || got.WinningTrades != 2 || got.LosingTrades != 2 {
		t.Fatalf("trade counts mismatch: %+v", got)
	}
	if got.NetPl != 225 {
		t.Fatalf("net P/L: expected 225, got %v", got.NetPl)
	}
	if got.WinRate != 0.5 {
		t.Fatalf("win rate: expected 0.5, got %v", got.WinRate)
	}
	if got.Expectancy != 225.0/4 {
		t.Fatalf("expectancy: expected %v, got %v", 225.0/4, got.Expectancy)
	}
	if got.AverageWin != 150 || got.AverageLoss != -37.5 {
		t.Fatalf("averages mismatch: %+v", got)
	}
	if got.LargestWin != 200 || got.LargestLoss != -50 {
		t.Fatalf("extremes mismatch: %+v", got)
	}
	if got.ProfitFactor != 4 {
		t.Fatalf("profit factor: expected 4, got %v", got.ProfitFactor)
	}
	if got.FinalCapital != 100225 {
		t.Fatalf("final capital: expected 100225, got %v", got.FinalCapital)
	}
}

func TestStatsEmptyTrades(t *testing.T) {
	calc := NewCalculator(0)

	got, err := calc.Stats(nil, models.SimulationParams{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if got.TotalTrades != 0 || got.NetPl != 0 || got.WinRate != 0 {
		t.Fatalf("expected zero stats, got %+v", got)
	}
	if got.FinalCapital != DefaultInitialCapital {
		t.Fatalf("expected default capital, got %v", got.FinalCapital)
	}
}

func TestStatsKellyScaling(t *testing.T) {
	calc := NewCalculator(100000)
	trades := tradesOn(day0, 1000, 100, -50)

	got, err := calc.Stats(trades, models.SimulationParams{KellyMultiplier: fptr(2)})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if got.NetPl != 100 {
		t.Fatalf("doubled sizing: expected net 100, got %v", got.NetPl)
	}
	if got.LargestWin != 200 || got.LargestLoss != -100 {
		t.Fatalf("scaled extremes mismatch: %+v", got)
	}
}

func TestStatsFixedFraction(t *testing.T) {
	calc := NewCalculator(100000)
	trades := tradesOn(day0, 1000, 100)

	// 2% of 100k capital against a 1000 margin doubles the position.
	got, err := calc.Stats(trades, models.SimulationParams{FixedFractionPct: fptr(2)})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if got.NetPl != 200 {
		t.Fatalf("expected rescaled P/L 200, got %v", got.NetPl)
	}

	// Kelly stacks on top of the fixed fraction.
	got, err = calc.Stats(trades, models.SimulationParams{
		FixedFractionPct: fptr(2),
		KellyMultiplier:  fptr(0.5),
	})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if got.NetPl != 100 {
		t.Fatalf("expected kelly-damped P/L 100, got %v", got.NetPl)
	}
}

func TestStatsDrawdownHalt(t *testing.T) {
	calc := NewCalculator(10000)
	trades := tradesOn(day0, 1000, 1000, -1000, 500, 500)

	got, err := calc.Stats(trades, models.SimulationParams{MaxDrawdownPct: fptr(5)})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	// The second trade draws down 1000 against an 11000 peak, past the
	// 5% ceiling, so the remaining trades are never replayed.
	if got.TotalTrades != 2 {
		t.Fatalf("expected halt after 2 trades, got %d", got.TotalTrades)
	}
	if got.NetPl != 0 {
		t.Fatalf("expected net 0 at halt, got %v", got.NetPl)
	}
	wantDD := 1000.0 / 11000.0 * 100
	if math.Abs(got.MaxDrawdown-wantDD) > 1e-9 {
		t.Fatalf("max drawdown: expected %v, got %v", wantDD, got.MaxDrawdown)
	}
}

func TestStatsDailyLossSkip(t *testing.T) {
	calc := NewCalculator(10000)

	// Three trades on day one, one on day two. The first loss breaches
	// the 1% daily ceiling, skipping the rest of day one only.
	sameDay := tradesOn(day0, 1000, -200)
	second := tradesOn(day0.Add(2*time.Hour), 1000, 500)
	third := tradesOn(day0.Add(4*time.Hour), 1000, 300)
	nextDay := tradesOn(day0.AddDate(0, 0, 1), 1000, 100)
	trades := append(append(append(sameDay, second...), third...), nextDay...)

	got, err := calc.Stats(trades, models.SimulationParams{MaxDailyLossPct: fptr(1)})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if got.TotalTrades != 2 {
		t.Fatalf("expected 2 replayed trades, got %d", got.TotalTrades)
	}
	if got.NetPl != -100 {
		t.Fatalf("expected net -100, got %v", got.NetPl)
	}
}

func TestStatsParamValidation(t *testing.T) {
	calc := NewCalculator(100000)
	trades := tradesOn(day0, 1000, 100)

	cases := []struct {
		name   string
		params models.SimulationParams
	}{
		{"negative kelly", models.SimulationParams{KellyMultiplier: fptr(-1)}},
		{"fraction above 100", models.SimulationParams{FixedFractionPct: fptr(101)}},
		{"negative fraction", models.SimulationParams{FixedFractionPct: fptr(-1)}},
		{"negative drawdown ceiling", models.SimulationParams{MaxDrawdownPct: fptr(-5)}},
		{"negative daily ceiling", models.SimulationParams{MaxDailyLossPct: fptr(-5)}},
	}
	for _, tc := range cases {
		if _, err := calc.Stats(trades, tc.params); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestProfitFactorCap(t *testing.T) {
	calc := NewCalculator(100000)

	got, err := calc.Stats(tradesOn(day0, 1000, 100, 200), models.SimulationParams{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if got.ProfitFactor != 999 {
		t.Fatalf("lossless run must cap profit factor, got %v", got.ProfitFactor)
	}

	got, err = calc.Stats(tradesOn(day0, 1000, -100), models.SimulationParams{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if got.ProfitFactor != 0 {
		t.Fatalf("profitless run must score 0, got %v", got.ProfitFactor)
	}
}

func TestSharpeRatioSign(t *testing.T) {
	calc := NewCalculator(100000)

	winners, err := calc.Stats(tradesOn(day0, 1000, 100, 200, 100, 200), models.SimulationParams{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if winners.SharpeRatio <= 0 {
		t.Fatalf("profitable series must have positive sharpe, got %v", winners.SharpeRatio)
	}

	losers, err := calc.Stats(tradesOn(day0, 1000, -100, -200, -100, -200), models.SimulationParams{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if losers.SharpeRatio >= 0 {
		t.Fatalf("losing series must have negative sharpe, got %v", losers.SharpeRatio)
	}
}

func TestStatsDoesNotMutateInput(t *testing.T) {
	calc := NewCalculator(100000)
	trades := tradesOn(day0, 1000, 100, -50)
	original := trades[0].ProfitLoss

	if _, err := calc.Stats(trades, models.SimulationParams{KellyMultiplier: fptr(3)}); err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if trades[0].ProfitLoss != original {
		t.Fatalf("input trade mutated: %v", trades[0].ProfitLoss)
	}
}
