package walkforward

import (
	"math"

	"github.com/yourusername/walkforward/internal/models"
)

// degradationWeight and stabilityWeight combine the two robustness
// components with equal weighting.
const (
	degradationWeight = 0.5
	stabilityWeight   = 0.5
)

// aggregate combines all evaluated periods into summary statistics plus
// the consistency score and average performance delta for the run stats.
func aggregate(periods []models.WalkForwardPeriod) (models.Summary, float64, float64) {
	if len(periods) == 0 {
		return models.Summary{}, 0, 0
	}

	var inSum, outSum, deltaSum float64
	consistent := 0
	for _, p := range periods {
		inSum += p.TargetMetricInSample
		outSum += p.TargetMetricOutOfSample
		deltaSum += p.TargetMetricOutOfSample - p.TargetMetricInSample
		if (p.TargetMetricInSample > 0) == (p.TargetMetricOutOfSample > 0) {
			consistent++
		}
	}

	n := float64(len(periods))
	summary := models.Summary{
		AvgInSamplePerformance:    inSum / n,
		AvgOutOfSamplePerformance: outSum / n,
	}
	summary.DegradationFactor = degradationFactor(summary.AvgInSamplePerformance, summary.AvgOutOfSamplePerformance)
	summary.ParameterStability = parameterStability(periods)
	summary.RobustnessScore = clamp01(
		degradationWeight*clamp01(summary.DegradationFactor) +
			stabilityWeight*summary.ParameterStability,
	)

	return summary, float64(consistent) / n, deltaSum / n
}

// degradationFactor is the ratio of out-of-sample to in-sample average
// performance. With a zero in-sample average the ratio is undefined, so
// it is reported as 0 regardless of the out-of-sample side; otherwise
// the raw ratio is kept, which may be negative or exceed 1.
func degradationFactor(avgInSample, avgOutOfSample float64) float64 {
	if avgInSample == 0 {
		return 0
	}
	return avgOutOfSample / avgInSample
}

// parameterStability scores how consistently the optimizer chose the
// same parameter values across windows. Each tunable present in any
// period contributes 1/(1+cv), where cv is the coefficient of variation
// of its chosen values; the per-tunable scores are averaged. A tunable
// chosen identically in every window contributes 1.0. A tunable whose
// chosen values average to zero while still varying has no meaningful
// cv and contributes 0.
func parameterStability(periods []models.WalkForwardPeriod) float64 {
	values := map[string][]float64{}
	for _, p := range periods {
		for name, v := range p.OptimalParameters {
			values[name] = append(values[name], v)
		}
	}
	if len(values) == 0 {
		return 0
	}

	total := 0.0
	for _, series := range values {
		total += stabilityScore(series)
	}
	return total / float64(len(values))
}

func stabilityScore(series []float64) float64 {
	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(len(series))

	variance := 0.0
	for _, v := range series {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(series))
	std := math.Sqrt(variance)

	if std == 0 {
		return 1
	}
	if mean == 0 {
		return 0
	}
	cv := std / math.Abs(mean)
	return 1 / (1 + cv)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
