package walkforward

import (
	"math"
	"sort"

	"github.com/yourusername/walkforward/internal/models"
)

// rangeValues expands one [min, max, step] triple into its inclusive
// arithmetic sequence. Values are derived by index rather than repeated
// addition so float accumulation cannot drop the final value.
func rangeValues(r models.ParameterRange) []float64 {
	count := int(math.Floor((r.Max-r.Min)/r.Step+1e-9)) + 1
	values := make([]float64, count)
	for i := 0; i < count; i++ {
		values[i] = r.Min + r.Step*float64(i)
	}
	return values
}

// GridSize returns the number of candidates ExpandGrid will generate.
func GridSize(ranges map[string]models.ParameterRange) int {
	size := 1
	for _, r := range ranges {
		size *= len(rangeValues(r))
	}
	return size
}

// ExpandGrid enumerates the Cartesian product of all configured tunable
// ranges. Tunables absent from the ranges map are omitted from every
// candidate. Generation order is deterministic: tunable names sorted
// alphabetically, lower values first, with the last name varying
// fastest, so the first candidate carries the lowest value of every
// tunable. Ranges must already have passed config validation.
func ExpandGrid(ranges map[string]models.ParameterRange) []models.ParameterSet {
	if len(ranges) == 0 {
		return nil
	}

	names := make([]string, 0, len(ranges))
	for name := range ranges {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make([][]float64, len(names))
	total := 1
	for i, name := range names {
		values[i] = rangeValues(ranges[name])
		total *= len(values[i])
	}

	candidates := make([]models.ParameterSet, 0, total)
	indices := make([]int, len(names))
	for {
		candidate := make(models.ParameterSet, len(names))
		for i, name := range names {
			candidate[name] = values[i][indices[i]]
		}
		candidates = append(candidates, candidate)

		// Advance the odometer, last name fastest.
		pos := len(indices) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(values[pos]) {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			return candidates
		}
	}
}
