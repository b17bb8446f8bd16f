package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InboundRecord is a receipt of material into a silo. CreatedAt defines FIFO order.
type InboundRecord struct {
	ID           string           `json:"id"`
	SiloID       string           `json:"silo_id"`
	QuantityKg   decimal.Decimal  `json:"quantity_kg"`
	CreatedAt    time.Time        `json:"created_at"`
	Product      string           `json:"product"`
	MaterialID   string           `json:"material_id,omitempty"`
	SupplierID   string           `json:"supplier_id,omitempty"`
	LotSupplier  string           `json:"lot_supplier"`
	LotTF        string           `json:"lot_tf"`
	Proteins     *decimal.Decimal `json:"proteins,omitempty"`
	Humidity     *decimal.Decimal `json:"humidity,omitempty"`
	Cleaned      bool             `json:"cleaned"`
	OperatorName string           `json:"operator_name,omitempty"`
}

// InboundPatch holds the editable fields of an inbound record.
type InboundPatch struct {
	SiloID      *string          `json:"silo_id,omitempty"`
	QuantityKg  *decimal.Decimal `json:"quantity_kg,omitempty"`
	Product     *string          `json:"product,omitempty"`
	MaterialID  *string          `json:"material_id,omitempty"`
	LotSupplier *string          `json:"lot_supplier,omitempty"`
	LotTF       *string          `json:"lot_tf,omitempty"`
	Proteins    *decimal.Decimal `json:"proteins,omitempty"`
	Humidity    *decimal.Decimal `json:"humidity,omitempty"`
	Cleaned     *bool            `json:"cleaned,omitempty"`
}

// Apply returns a copy of r with the patch applied.
func (p InboundPatch) Apply(r InboundRecord) InboundRecord {
	if p.SiloID != nil {
		r.SiloID = *p.SiloID
	}
	if p.QuantityKg != nil {
		r.QuantityKg = *p.QuantityKg
	}
	if p.Product != nil {
		r.Product = *p.Product
	}
	if p.MaterialID != nil {
		r.MaterialID = *p.MaterialID
	}
	if p.LotSupplier != nil {
		r.LotSupplier = *p.LotSupplier
	}
	if p.LotTF != nil {
		r.LotTF = *p.LotTF
	}
	if p.Proteins != nil {
		v := *p.Proteins
		r.Proteins = &v
	}
	if p.Humidity != nil {
		v := *p.Humidity
		r.Humidity = &v
	}
	if p.Cleaned != nil {
		r.Cleaned = *p.Cleaned
	}
	return r
}

// OutboundItem is a snapshot of how much of one inbound lot a withdrawal consumed.
type OutboundItem struct {
	InboundID       string           `json:"inbound_id"`
	QuantityKg      decimal.Decimal  `json:"quantity_kg"`
	MaterialName    string           `json:"material_name"`
	SupplierLot     string           `json:"supplier_lot"`
	TFLot           string           `json:"tf_lot"`
	ProteinContent  *decimal.Decimal `json:"protein_content,omitempty"`
	MoistureContent *decimal.Decimal `json:"moisture_content,omitempty"`
	CleaningStatus  bool             `json:"cleaning_status"`
	EntryDate       time.Time        `json:"entry_date"`
}

// OutboundRecord is a withdrawal from a silo. QuantityKg equals the sum of Items.
type OutboundRecord struct {
	ID           string          `json:"id"`
	SiloID       string          `json:"silo_id"`
	QuantityKg   decimal.Decimal `json:"quantity_kg"`
	OperatorName string          `json:"operator_name"`
	CreatedAt    time.Time       `json:"created_at"`
	BatchID      string          `json:"batch_id,omitempty"`
	Items        []OutboundItem  `json:"items"`
}

// ItemsTotal sums the quantities of the consumed lots.
func (r OutboundRecord) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.QuantityKg)
	}
	return total
}

// References reports whether the withdrawal consumed the given inbound lot.
func (r OutboundRecord) References(inboundID string) bool {
	for _, item := range r.Items {
		if item.InboundID == inboundID {
			return true
		}
	}
	return false
}

// OutboundPatch holds the editable fields of an outbound record.
type OutboundPatch struct {
	QuantityKg   *decimal.Decimal `json:"quantity_kg,omitempty"`
	OperatorName *string          `json:"operator_name,omitempty"`
	Items        []OutboundItem   `json:"-"`
}

// LedgerFilter narrows ledger queries. Zero values mean unbounded.
type LedgerFilter struct {
	SiloIDs []string
	Since   *time.Time
	Until   *time.Time
}

// Matches reports whether a record with the given silo and timestamp passes the filter.
func (f LedgerFilter) Matches(siloID string, createdAt time.Time) bool {
	if len(f.SiloIDs) > 0 {
		found := false
		for _, id := range f.SiloIDs {
			if id == siloID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Since != nil && createdAt.Before(*f.Since) {
		return false
	}
	if f.Until != nil && createdAt.After(*f.Until) {
		return false
	}
	return true
}

// LotSelection is one operator-chosen lot in a blend withdrawal.
type LotSelection struct {
	SiloID           string          `json:"silo_id"`
	InboundID        string          `json:"inbound_id"`
	WithdrawQuantity decimal.Decimal `json:"withdraw_quantity"`
}

// BatchResult groups the outbound records written by one blend withdrawal.
type BatchResult struct {
	BatchID string           `json:"batch_id,omitempty"`
	Records []OutboundRecord `json:"records"`
}
