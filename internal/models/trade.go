package models

import (
	"time"

	"github.com/google/uuid"
)

// Trade represents a single closed options trade from an uploaded trade log.
// Trades are read-only to the analysis engine; the engine requires them
// sorted ascending by OpenedAt and never mutates them.
type Trade struct {
	ID                uuid.UUID `db:"id" json:"id"`
	BlockID           uuid.UUID `db:"block_id" json:"block_id"`
	Strategy          string    `db:"strategy" json:"strategy"`
	OpenedAt          time.Time `db:"opened_at" json:"opened_at" validate:"required"`
	ClosedAt          time.Time `db:"closed_at" json:"closed_at"`
	ProfitLoss        float64   `db:"profit_loss" json:"profit_loss"`
	MarginRequirement float64   `db:"margin_requirement" json:"margin_requirement"`
	FundsAtClose      float64   `db:"funds_at_close" json:"funds_at_close"`
}

// TradesSorted reports whether trades are in ascending open-date order.
func TradesSorted(trades []Trade) bool {
	for i := 1; i < len(trades); i++ {
		if trades[i].OpenedAt.Before(trades[i-1].OpenedAt) {
			return false
		}
	}
	return true
}
