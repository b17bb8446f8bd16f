// Package stock holds the silo stock logic: the FIFO projection of the
// ledger, the withdrawal planner and the movement validators. Everything in
// here is a pure function of its arguments.
package stock

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tracc-api/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Project replays the ledger of one silo up to asOf and returns its snapshot.
//
// Availability is derived from aggregate totals: the summed outbound quantity
// is consumed from the oldest inbound lots first, regardless of which lots the
// withdrawals itemized. Records created after asOf are ignored. A ledger with
// more outbound than inbound yields a negative CurrentLevel, which is reported
// as-is.
func Project(silo model.Silo, inbound []model.InboundRecord, outbound []model.OutboundRecord, asOf time.Time) model.SiloSnapshot {
	lots := make([]model.InboundRecord, 0, len(inbound))
	totalInbound := decimal.Zero
	for _, rec := range inbound {
		if rec.SiloID != silo.ID || rec.CreatedAt.After(asOf) {
			continue
		}
		lots = append(lots, rec)
		totalInbound = totalInbound.Add(rec.QuantityKg)
	}
	SortInbound(lots)

	totalOutbound := decimal.Zero
	for _, rec := range outbound {
		if rec.SiloID != silo.ID || rec.CreatedAt.After(asOf) {
			continue
		}
		totalOutbound = totalOutbound.Add(rec.QuantityKg)
	}

	items := make([]model.AvailableItem, 0, len(lots))
	remaining := totalOutbound
	for _, lot := range lots {
		switch {
		case !remaining.IsPositive():
			items = append(items, availableFrom(lot, lot.QuantityKg))
		case remaining.LessThan(lot.QuantityKg):
			items = append(items, availableFrom(lot, lot.QuantityKg.Sub(remaining)))
			remaining = decimal.Zero
		default:
			remaining = remaining.Sub(lot.QuantityKg)
		}
	}

	level := totalInbound.Sub(totalOutbound)
	return model.SiloSnapshot{
		Silo:                  silo,
		CurrentLevel:          level,
		AvailableItems:        items,
		TotalInbound:          totalInbound,
		TotalOutbound:         totalOutbound,
		UtilizationPercentage: Utilization(level, silo.CapacityKg),
		AsOf:                  asOf,
	}
}

// Utilization returns level as a percentage of capacity, rounded to two
// decimals. It is zero when capacity is not positive.
func Utilization(level, capacity decimal.Decimal) decimal.Decimal {
	if !capacity.IsPositive() {
		return decimal.Zero
	}
	return level.Div(capacity).Mul(hundred).Round(2)
}

// SortInbound orders lots oldest first. Equal timestamps fall back to the id
// so the order is deterministic.
func SortInbound(lots []model.InboundRecord) {
	sort.SliceStable(lots, func(i, j int) bool {
		if !lots[i].CreatedAt.Equal(lots[j].CreatedAt) {
			return lots[i].CreatedAt.Before(lots[j].CreatedAt)
		}
		return lots[i].ID < lots[j].ID
	})
}

func availableFrom(lot model.InboundRecord, qty decimal.Decimal) model.AvailableItem {
	return model.AvailableItem{
		InboundID:         lot.ID,
		AvailableQuantity: qty,
		Product:           lot.Product,
		LotSupplier:       lot.LotSupplier,
		LotTF:             lot.LotTF,
		Proteins:          lot.Proteins,
		Humidity:          lot.Humidity,
		Cleaned:           lot.Cleaned,
		CreatedAt:         lot.CreatedAt,
	}
}
