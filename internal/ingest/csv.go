// Package ingest loads trade logs from CSV exports into the model the
// analysis engine consumes.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourusername/walkforward/internal/models"
)

// Expected CSV header columns. Currency columns are parsed as exact
// decimals before conversion, so "1,234.50"-style rounding artifacts in
// exported logs never leak into the engine.
var requiredColumns = []string{"opened_at", "closed_at", "profit_loss", "margin_requirement"}

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// ReadTradesFile loads trades for one block from a CSV file on disk.
func ReadTradesFile(path string, blockID uuid.UUID) ([]models.Trade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trade log: %w", err)
	}
	defer f.Close()
	return ReadTrades(f, blockID)
}

// ReadTrades parses a CSV trade log. Rows are returned sorted ascending
// by open date, which is the ordering the engine requires.
func ReadTrades(r io.Reader, blockID uuid.UUID) ([]models.Trade, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var trades []models.Trade
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		line++

		trade, err := parseTrade(record, columns, blockID)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		trades = append(trades, trade)
	}

	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].OpenedAt.Before(trades[j].OpenedAt)
	})
	return trades, nil
}

func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	return columns, nil
}

func parseTrade(record []string, columns map[string]int, blockID uuid.UUID) (models.Trade, error) {
	trade := models.Trade{ID: uuid.New(), BlockID: blockID}

	openedAt, err := parseDate(field(record, columns, "opened_at"))
	if err != nil {
		return models.Trade{}, fmt.Errorf("opened_at: %w", err)
	}
	trade.OpenedAt = openedAt

	closedAt, err := parseDate(field(record, columns, "closed_at"))
	if err != nil {
		return models.Trade{}, fmt.Errorf("closed_at: %w", err)
	}
	trade.ClosedAt = closedAt

	trade.ProfitLoss, err = parseMoney(field(record, columns, "profit_loss"))
	if err != nil {
		return models.Trade{}, fmt.Errorf("profit_loss: %w", err)
	}
	trade.MarginRequirement, err = parseMoney(field(record, columns, "margin_requirement"))
	if err != nil {
		return models.Trade{}, fmt.Errorf("margin_requirement: %w", err)
	}

	if idx, ok := columns["funds_at_close"]; ok && idx < len(record) && record[idx] != "" {
		trade.FundsAtClose, err = parseMoney(record[idx])
		if err != nil {
			return models.Trade{}, fmt.Errorf("funds_at_close: %w", err)
		}
	}
	if idx, ok := columns["strategy"]; ok && idx < len(record) {
		trade.Strategy = strings.TrimSpace(record[idx])
	}

	return trade, nil
}

func field(record []string, columns map[string]int, name string) string {
	idx := columns[name]
	if idx >= len(record) {
		return ""
	}
	return record[idx]
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

func parseMoney(value string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(value)
	if cleaned == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return d.InexactFloat64(), nil
}
