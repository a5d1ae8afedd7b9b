package models

import "sort"

// Tunable names accepted in WalkForwardConfig.ParameterRanges. Tunables
// absent from the ranges map are omitted from every candidate, never
// defaulted.
const (
	TunableKellyMultiplier  = "kellyMultiplier"
	TunableFixedFractionPct = "fixedFractionPct"
	TunableMaxDrawdownPct   = "maxDrawdownPct"
	TunableMaxDailyLossPct  = "maxDailyLossPct"
)

// KnownTunables lists every tunable the grid search understands, in
// canonical order.
var KnownTunables = []string{
	TunableFixedFractionPct,
	TunableKellyMultiplier,
	TunableMaxDailyLossPct,
	TunableMaxDrawdownPct,
}

// IsKnownTunable reports whether name is a sweepable tunable.
func IsKnownTunable(name string) bool {
	for _, t := range KnownTunables {
		if t == name {
			return true
		}
	}
	return false
}

// ParameterRange defines an inclusive arithmetic sweep for one tunable.
type ParameterRange struct {
	Min  float64 `mapstructure:"min" json:"min"`
	Max  float64 `mapstructure:"max" json:"max"`
	Step float64 `mapstructure:"step" json:"step"`
}

// ParameterSet is one candidate assignment of tunable values.
type ParameterSet map[string]float64

// Clone creates an independent copy of the parameter set.
func (ps ParameterSet) Clone() ParameterSet {
	clone := make(ParameterSet, len(ps))
	for k, v := range ps {
		clone[k] = v
	}
	return clone
}

// Names returns the tunable names in the set in sorted order.
func (ps ParameterSet) Names() []string {
	names := make([]string, 0, len(ps))
	for name := range ps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Value returns the tunable value and whether it is present in the set.
func (ps ParameterSet) Value(name string) (float64, bool) {
	v, ok := ps[name]
	return v, ok
}

// SimulationParams carries position-sizing and risk-ceiling overrides
// applied when replaying a trade subset. Nil fields mean the tunable was
// not swept and the simulation uses its neutral behaviour.
type SimulationParams struct {
	KellyMultiplier  *float64 `json:"kelly_multiplier,omitempty"`
	FixedFractionPct *float64 `json:"fixed_fraction_pct,omitempty"`
	MaxDrawdownPct   *float64 `json:"max_drawdown_pct,omitempty"`
	MaxDailyLossPct  *float64 `json:"max_daily_loss_pct,omitempty"`
}

// ToSimulationParams converts a candidate parameter set into evaluator
// overrides.
func (ps ParameterSet) ToSimulationParams() SimulationParams {
	params := SimulationParams{}
	if v, ok := ps[TunableKellyMultiplier]; ok {
		value := v
		params.KellyMultiplier = &value
	}
	if v, ok := ps[TunableFixedFractionPct]; ok {
		value := v
		params.FixedFractionPct = &value
	}
	if v, ok := ps[TunableMaxDrawdownPct]; ok {
		value := v
		params.MaxDrawdownPct = &value
	}
	if v, ok := ps[TunableMaxDailyLossPct]; ok {
		value := v
		params.MaxDailyLossPct = &value
	}
	return params
}
