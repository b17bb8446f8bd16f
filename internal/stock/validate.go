package stock

import (
	"time"

	"github.com/shopspring/decimal"

	"tracc-api/internal/model"
)

// Rules holds the tunable bounds enforced before a ledger write.
type Rules struct {
	MinQuantity decimal.Decimal
	MaxQuantity decimal.Decimal
	EditWindow  time.Duration
}

// DefaultRules returns the production bounds: quantities within [0.1, 100000]
// kg and a 24 hour edit window.
func DefaultRules() Rules {
	return Rules{
		MinQuantity: decimal.RequireFromString("0.1"),
		MaxQuantity: decimal.NewFromInt(100000),
		EditWindow:  24 * time.Hour,
	}
}

// Scale is the number of decimal places the ledger stores for quantities
// and percentages. Finer values would be rounded by the SQL dialects.
const Scale int32 = 3

// CheckScale rejects values with more than Scale decimal places.
func CheckScale(field string, value decimal.Decimal) error {
	if !value.Equal(value.Truncate(Scale)) {
		return Validation(field, "%s allows at most %d decimal places, got %s", field, Scale, value)
	}
	return nil
}

// CheckQuantity validates a movement quantity against the configured range.
func (r Rules) CheckQuantity(field string, qty decimal.Decimal) error {
	if qty.LessThan(r.MinQuantity) || qty.GreaterThan(r.MaxQuantity) {
		return Validation(field, "%s must be between %s and %s kg, got %s", field, r.MinQuantity, r.MaxQuantity, qty)
	}
	return CheckScale(field, qty)
}

// CheckPercentage validates an optional percentage field. Nil is accepted.
func CheckPercentage(field string, value *decimal.Decimal) error {
	if value == nil {
		return nil
	}
	if value.IsNegative() || value.GreaterThan(hundred) {
		return Validation(field, "%s must be between 0 and 100, got %s", field, *value)
	}
	return CheckScale(field, *value)
}

// CheckInbound runs the field-level checks for a receipt.
func (r Rules) CheckInbound(rec model.InboundRecord) error {
	if rec.SiloID == "" {
		return Validation("silo_id", "silo_id is required")
	}
	if rec.Product == "" {
		return Validation("product", "product is required")
	}
	if err := r.CheckQuantity("quantity_kg", rec.QuantityKg); err != nil {
		return err
	}
	if err := CheckPercentage("proteins", rec.Proteins); err != nil {
		return err
	}
	return CheckPercentage("humidity", rec.Humidity)
}

// CheckCapacity rejects a receipt that would overfill the silo. level is the
// silo's current level excluding the record being checked.
func CheckCapacity(silo model.Silo, level, qty decimal.Decimal) error {
	if level.Add(qty).GreaterThan(silo.CapacityKg) {
		return Business("capacity exceeded for silo %q: requested %s kg, capacity %s kg, current level %s kg",
			silo.Name, qty, silo.CapacityKg, level)
	}
	return nil
}

// CheckSufficiency rejects a withdrawal larger than the current level.
func CheckSufficiency(silo model.Silo, level, qty decimal.Decimal) error {
	if qty.GreaterThan(level) {
		return Business("insufficient stock in silo %q: requested %s kg, available %s kg", silo.Name, qty, level)
	}
	return nil
}

// CheckEditWindow rejects edits of records older than the edit window.
func (r Rules) CheckEditWindow(kind, id string, createdAt, now time.Time) error {
	if now.Sub(createdAt) > r.EditWindow {
		return Business("%s record %s is older than %s and can no longer be modified", kind, id, r.EditWindow)
	}
	return nil
}

// CheckNotConsumed rejects deletion of an inbound lot that any withdrawal itemized.
func CheckNotConsumed(inboundID string, outbound []model.OutboundRecord) error {
	for _, rec := range outbound {
		if rec.References(inboundID) {
			return Business("inbound record %s has been used by outbound record %s and cannot be deleted", inboundID, rec.ID)
		}
	}
	return nil
}

// CheckMaterialAllowed rejects materials outside the silo allow-list.
func CheckMaterialAllowed(silo model.Silo, materialID string) error {
	if !silo.Allows(materialID) {
		return Business("material %s is not allowed in silo %q", materialID, silo.Name)
	}
	return nil
}

// CheckSilo validates a silo definition.
func CheckSilo(silo model.Silo) error {
	if silo.Name == "" {
		return Validation("name", "name is required")
	}
	if !silo.CapacityKg.IsPositive() {
		return Validation("capacity_kg", "capacity_kg must be greater than zero, got %s", silo.CapacityKg)
	}
	return CheckScale("capacity_kg", silo.CapacityKg)
}
