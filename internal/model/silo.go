package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Silo represents a storage silo in the registry.
type Silo struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	CapacityKg         decimal.Decimal `json:"capacity_kg"`
	AllowedMaterialIDs []string        `json:"allowed_material_ids,omitempty"` // empty = all materials
	CreatedAt          time.Time       `json:"created_at"`
}

// Allows reports whether the silo accepts the given material.
func (s Silo) Allows(materialID string) bool {
	if len(s.AllowedMaterialIDs) == 0 || materialID == "" {
		return true
	}
	for _, id := range s.AllowedMaterialIDs {
		if id == materialID {
			return true
		}
	}
	return false
}

// SiloPatch holds the mutable fields of a silo. Nil fields are left unchanged.
type SiloPatch struct {
	Name               *string          `json:"name,omitempty"`
	CapacityKg         *decimal.Decimal `json:"capacity_kg,omitempty"`
	AllowedMaterialIDs *[]string        `json:"allowed_material_ids,omitempty"`
}

// Apply returns a copy of s with the patch applied.
func (p SiloPatch) Apply(s Silo) Silo {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.CapacityKg != nil {
		s.CapacityKg = *p.CapacityKg
	}
	if p.AllowedMaterialIDs != nil {
		s.AllowedMaterialIDs = append([]string(nil), (*p.AllowedMaterialIDs)...)
	}
	return s
}
