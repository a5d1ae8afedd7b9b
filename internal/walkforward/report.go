package walkforward

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/walkforward/internal/models"
)

// GenerateConsoleReport formats an analysis for terminal output
func GenerateConsoleReport(analysis *models.WalkForwardAnalysis) string {
	summary := analysis.Results.Summary
	stats := analysis.Results.Stats

	var builder strings.Builder
	builder.WriteString("Walk-Forward Analysis Report\n")
	builder.WriteString("============================\n")
	builder.WriteString(fmt.Sprintf("Block: %s\n", analysis.BlockID))
	builder.WriteString(fmt.Sprintf("Windows: %d evaluated, %d skipped of %d\n",
		stats.EvaluatedPeriods, stats.SkippedPeriods, stats.TotalPeriods))
	builder.WriteString(fmt.Sprintf("Parameter Tests: %d\n", stats.TotalParameterTests))
	builder.WriteString(fmt.Sprintf("Avg In-Sample: %.4f\n", summary.AvgInSamplePerformance))
	builder.WriteString(fmt.Sprintf("Avg Out-of-Sample: %.4f\n", summary.AvgOutOfSamplePerformance))
	builder.WriteString(fmt.Sprintf("Degradation Factor: %.4f\n", summary.DegradationFactor))
	builder.WriteString(fmt.Sprintf("Parameter Stability: %.4f\n", summary.ParameterStability))
	builder.WriteString(fmt.Sprintf("Robustness Score: %.4f\n", summary.RobustnessScore))
	builder.WriteString(fmt.Sprintf("Consistency Score: %.4f\n", stats.ConsistencyScore))
	builder.WriteString(fmt.Sprintf("Duration: %dms\n", stats.DurationMs))
	return builder.String()
}

// PeriodsToCSV exports the evaluated periods for spreadsheets
func PeriodsToCSV(periods []models.WalkForwardPeriod) string {
	var buf bytes.Buffer
	buf.WriteString("in_sample_start,in_sample_end,out_of_sample_start,out_of_sample_end,target_in_sample,target_out_of_sample,optimal_parameters\n")
	for _, p := range periods {
		buf.WriteString(p.InSampleStart.Format(time.RFC3339))
		buf.WriteString(",")
		buf.WriteString(p.InSampleEnd.Format(time.RFC3339))
		buf.WriteString(",")
		buf.WriteString(p.OutOfSampleStart.Format(time.RFC3339))
		buf.WriteString(",")
		buf.WriteString(p.OutOfSampleEnd.Format(time.RFC3339))
		buf.WriteString(",")
		buf.WriteString(formatFloat(p.TargetMetricInSample))
		buf.WriteString(",")
		buf.WriteString(formatFloat(p.TargetMetricOutOfSample))
		buf.WriteString(",")
		buf.WriteString(formatParameters(p.OptimalParameters))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ExportCSV writes the period export to disk
func ExportCSV(analysis *models.WalkForwardAnalysis, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(PeriodsToCSV(analysis.Results.Periods)), 0o644)
}

// ExportJSON writes the full results document to disk
func ExportJSON(analysis *models.WalkForwardAnalysis, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(analysis.Results.ToJSON()), 0o644)
}

func formatParameters(params models.ParameterSet) string {
	parts := make([]string, 0, len(params))
	for _, name := range params.Names() {
		parts = append(parts, fmt.Sprintf("%s=%s", name, formatFloat(params[name])))
	}
	return strings.Join(parts, ";")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
