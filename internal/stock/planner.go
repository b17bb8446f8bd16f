package stock

import (
	"github.com/shopspring/decimal"

	"tracc-api/internal/model"
)

// PlanFIFO debits the available lots oldest first until requested is covered.
// items must already be in FIFO order, as returned by Project.
func PlanFIFO(items []model.AvailableItem, requested decimal.Decimal) ([]model.OutboundItem, error) {
	if !requested.IsPositive() {
		return nil, Validation("quantity_kg", "requested quantity must be greater than zero, got %s", requested)
	}

	plan := make([]model.OutboundItem, 0, len(items))
	remaining := requested
	for _, item := range items {
		if !remaining.IsPositive() {
			break
		}
		if !item.AvailableQuantity.IsPositive() {
			continue
		}
		take := decimal.Min(remaining, item.AvailableQuantity)
		plan = append(plan, debit(item, take))
		remaining = remaining.Sub(take)
	}

	if !remaining.IsZero() {
		return nil, Allocation("requested quantity %s kg exceeds available stock by %s kg", requested, remaining)
	}
	return plan, nil
}

// PlanManual debits operator-selected lots of a single silo. Each selection
// must name an available lot and satisfy 0 < quantity <= available. The plan
// keeps the selection order.
//
// Availability comes from the bulk FIFO projection, which ignores item
// attribution. After a blend takes a newer lot, a later FIFO withdrawal can
// itemize that lot again, so per-lot item totals may exceed the lot quantity
// while the silo level stays correct.
func PlanManual(items []model.AvailableItem, selections []model.LotSelection) ([]model.OutboundItem, error) {
	if len(selections) == 0 {
		return nil, Validation("selections", "at least one lot must be selected")
	}

	byID := make(map[string]model.AvailableItem, len(items))
	for _, item := range items {
		byID[item.InboundID] = item
	}

	used := make(map[string]decimal.Decimal, len(selections))
	plan := make([]model.OutboundItem, 0, len(selections))
	for _, sel := range selections {
		if !sel.WithdrawQuantity.IsPositive() {
			return nil, Validation("withdraw_quantity", "withdraw quantity for lot %s must be greater than zero", sel.InboundID)
		}
		if err := CheckScale("withdraw_quantity", sel.WithdrawQuantity); err != nil {
			return nil, err
		}
		item, ok := byID[sel.InboundID]
		if !ok {
			return nil, Business("lot %s has no available stock in silo %s", sel.InboundID, sel.SiloID)
		}
		total := used[sel.InboundID].Add(sel.WithdrawQuantity)
		if total.GreaterThan(item.AvailableQuantity) {
			return nil, Business("withdraw quantity %s kg for lot %s exceeds available %s kg", total, sel.InboundID, item.AvailableQuantity)
		}
		used[sel.InboundID] = total
		plan = append(plan, debit(item, sel.WithdrawQuantity))
	}
	return plan, nil
}

// GroupBySilo partitions selections by silo, keeping the order in which silos
// first appear.
func GroupBySilo(selections []model.LotSelection) ([]string, map[string][]model.LotSelection) {
	var order []string
	groups := make(map[string][]model.LotSelection)
	for _, sel := range selections {
		if _, ok := groups[sel.SiloID]; !ok {
			order = append(order, sel.SiloID)
		}
		groups[sel.SiloID] = append(groups[sel.SiloID], sel)
	}
	return order, groups
}

// PlanTotal sums the quantities of a plan.
func PlanTotal(plan []model.OutboundItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range plan {
		total = total.Add(item.QuantityKg)
	}
	return total
}

func debit(item model.AvailableItem, qty decimal.Decimal) model.OutboundItem {
	return model.OutboundItem{
		InboundID:       item.InboundID,
		QuantityKg:      qty,
		MaterialName:    item.Product,
		SupplierLot:     item.LotSupplier,
		TFLot:           item.LotTF,
		ProteinContent:  item.Proteins,
		MoistureContent: item.Humidity,
		CleaningStatus:  item.Cleaned,
		EntryDate:       item.CreatedAt,
	}
}
