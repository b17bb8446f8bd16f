package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockReport is a point-in-time view over all silos, archived by the report scheduler.
type StockReport struct {
	ID            string          `json:"id" bson:"_id"`
	AsOf          time.Time       `json:"as_of" bson:"as_of"`
	Silos         []SiloSummary   `json:"silos" bson:"silos"`
	TotalLevel    decimal.Decimal `json:"total_level" bson:"-"`
	TotalCapacity decimal.Decimal `json:"total_capacity" bson:"-"`
	Warnings      []string        `json:"warnings,omitempty" bson:"warnings,omitempty"`
	CreatedAt     time.Time       `json:"created_at" bson:"created_at"`

	// string copies for storage backends without a decimal codec
	TotalLevelKg    string `json:"-" bson:"total_level_kg"`
	TotalCapacityKg string `json:"-" bson:"total_capacity_kg"`
}

// SiloSummary condenses one snapshot for reporting.
type SiloSummary struct {
	SiloID      string `json:"silo_id" bson:"silo_id"`
	SiloName    string `json:"silo_name" bson:"silo_name"`
	LevelKg     string `json:"level_kg" bson:"level_kg"`
	CapacityKg  string `json:"capacity_kg" bson:"capacity_kg"`
	Utilization string `json:"utilization" bson:"utilization"`
	Lots        int    `json:"lots" bson:"lots"`
}
