package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AvailableItem is the remaining quantity of one inbound lot. Derived, never persisted.
type AvailableItem struct {
	InboundID         string           `json:"inbound_id"`
	AvailableQuantity decimal.Decimal  `json:"available_quantity"`
	Product           string           `json:"product"`
	LotSupplier       string           `json:"lot_supplier"`
	LotTF             string           `json:"lot_tf"`
	Proteins          *decimal.Decimal `json:"proteins,omitempty"`
	Humidity          *decimal.Decimal `json:"humidity,omitempty"`
	Cleaned           bool             `json:"cleaned"`
	CreatedAt         time.Time        `json:"created_at"`
}

// SiloSnapshot is the stock composition of a silo as of a point in time.
type SiloSnapshot struct {
	Silo                  Silo            `json:"silo"`
	CurrentLevel          decimal.Decimal `json:"current_level"`
	AvailableItems        []AvailableItem `json:"available_items"`
	TotalInbound          decimal.Decimal `json:"total_inbound"`
	TotalOutbound         decimal.Decimal `json:"total_outbound"`
	UtilizationPercentage decimal.Decimal `json:"utilization_percentage"`
	AsOf                  time.Time       `json:"as_of"`
}

// IsConsistent is false when the ledger holds more withdrawals than receipts.
func (s SiloSnapshot) IsConsistent() bool {
	return !s.CurrentLevel.IsNegative()
}

// Item returns the available item for an inbound lot, if any.
func (s SiloSnapshot) Item(inboundID string) (AvailableItem, bool) {
	for _, item := range s.AvailableItems {
		if item.InboundID == inboundID {
			return item, true
		}
	}
	return AvailableItem{}, false
}
