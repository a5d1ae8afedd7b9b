package models

import "encoding/json"

// PortfolioStats represents performance metrics for a trade subset
// replayed under a candidate parameter set.
type PortfolioStats struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	NetPl         float64 `json:"net_pl"`
	MaxDrawdown   float64 `json:"max_drawdown"` // peak-to-trough, percent of peak
	WinRate       float64 `json:"win_rate"`
	SharpeRatio   float64 `json:"sharpe_ratio"`
	ProfitFactor  float64 `json:"profit_factor"`
	Expectancy    float64 `json:"expectancy"`
	AverageWin    float64 `json:"average_win"`
	AverageLoss   float64 `json:"average_loss"`
	LargestWin    float64 `json:"largest_win"`
	LargestLoss   float64 `json:"largest_loss"`
	FinalCapital  float64 `json:"final_capital"`
}

// ToJSON exports stats to JSON.
func (s PortfolioStats) ToJSON() string {
	data, _ := json.Marshal(s)
	return string(data)
}

// OptimizationTarget selects the scalar metric that drives parameter
// selection.
type OptimizationTarget string

const (
	TargetNetPl        OptimizationTarget = "netPl"
	TargetSharpe       OptimizationTarget = "sharpe"
	TargetProfitFactor OptimizationTarget = "profitFactor"
	TargetWinRate      OptimizationTarget = "winRate"
	TargetExpectancy   OptimizationTarget = "expectancy"
)

// OptimizationTargets lists every recognized target.
var OptimizationTargets = []OptimizationTarget{
	TargetNetPl,
	TargetSharpe,
	TargetProfitFactor,
	TargetWinRate,
	TargetExpectancy,
}

// Valid reports whether the target is recognized.
func (t OptimizationTarget) Valid() bool {
	for _, known := range OptimizationTargets {
		if t == known {
			return true
		}
	}
	return false
}

// Extract returns the scalar metric value the target refers to.
func (t OptimizationTarget) Extract(stats PortfolioStats) float64 {
	switch t {
	case TargetSharpe:
		return stats.SharpeRatio
	case TargetProfitFactor:
		return stats.ProfitFactor
	case TargetWinRate:
		return stats.WinRate
	case TargetExpectancy:
		return stats.Expectancy
	default:
		return stats.NetPl
	}
}
