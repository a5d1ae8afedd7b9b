package walkforward

import (
	"time"

	"github.com/yourusername/walkforward/internal/models"
)

// WindowSpec describes one train/test window. The out-of-sample range
// starts exactly where the in-sample range ends; the two never overlap.
type WindowSpec struct {
	InSampleStart    time.Time
	InSampleEnd      time.Time
	OutOfSampleStart time.Time
	OutOfSampleEnd   time.Time
}

// SegmentWindows produces the ordered sequence of rolling windows for the
// given trade history. Starting at the earliest trade's open date, each
// window spans inSampleDays followed by outOfSampleDays, and the start
// advances by stepSizeDays until the out-of-sample end would pass the
// last trade's open date. Consecutive windows may overlap when the step
// is smaller than the window length. Zero windows is a valid result for
// a history shorter than one full window.
func SegmentWindows(trades []models.Trade, cfg models.WalkForwardConfig) []WindowSpec {
	if len(trades) == 0 {
		return nil
	}

	first := trades[0].OpenedAt
	last := trades[len(trades)-1].OpenedAt

	var windows []WindowSpec
	for start := first; ; start = start.AddDate(0, 0, cfg.StepSizeDays) {
		inSampleEnd := start.AddDate(0, 0, cfg.InSampleDays)
		outOfSampleEnd := inSampleEnd.AddDate(0, 0, cfg.OutOfSampleDays)
		if outOfSampleEnd.After(last) {
			break
		}
		windows = append(windows, WindowSpec{
			InSampleStart:    start,
			InSampleEnd:      inSampleEnd,
			OutOfSampleStart: inSampleEnd,
			OutOfSampleEnd:   outOfSampleEnd,
		})
	}
	return windows
}
