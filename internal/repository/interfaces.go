package repository

import (
	"context"

	"tracc-api/internal/model"
)

// LedgerStore defines access to the inbound/outbound movement ledger.
// Missing records are reported as stock.NotFound errors.
type LedgerStore interface {
	// ListInbound returns receipts matching the filter, oldest first.
	ListInbound(ctx context.Context, filter model.LedgerFilter) ([]model.InboundRecord, error)

	// ListOutbound returns withdrawals (with their items) matching the filter, oldest first.
	ListOutbound(ctx context.Context, filter model.LedgerFilter) ([]model.OutboundRecord, error)

	GetInbound(ctx context.Context, id string) (*model.InboundRecord, error)
	GetOutbound(ctx context.Context, id string) (*model.OutboundRecord, error)

	// InsertInbound stores a receipt. ID and CreatedAt must already be set.
	InsertInbound(ctx context.Context, rec model.InboundRecord) error

	// UpdateInbound applies patch to the receipt and returns the stored result.
	UpdateInbound(ctx context.Context, id string, patch model.InboundPatch) (*model.InboundRecord, error)

	DeleteInbound(ctx context.Context, id string) error

	// InsertOutbound stores a withdrawal header and its items together.
	InsertOutbound(ctx context.Context, rec model.OutboundRecord) error

	// UpdateOutbound applies patch to the withdrawal. A non-nil Items slice
	// replaces the stored items.
	UpdateOutbound(ctx context.Context, id string, patch model.OutboundPatch) (*model.OutboundRecord, error)

	DeleteOutbound(ctx context.Context, id string) error

	// ListOutboundReferencing returns withdrawals whose items consumed inboundID.
	ListOutboundReferencing(ctx context.Context, inboundID string) ([]model.OutboundRecord, error)

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error

	// Stats returns backend statistics for the admin endpoint.
	Stats(ctx context.Context) (map[string]interface{}, error)

	Close() error
}

// SiloRegistry defines silo master data access.
type SiloRegistry interface {
	GetSilo(ctx context.Context, id string) (*model.Silo, error)

	// ListSilos returns all silos ordered by name.
	ListSilos(ctx context.Context) ([]model.Silo, error)

	InsertSilo(ctx context.Context, silo model.Silo) error
	UpdateSilo(ctx context.Context, silo model.Silo) error
	DeleteSilo(ctx context.Context, id string) error
}

// Store is a ledger together with its silo registry.
type Store interface {
	LedgerStore
	SiloRegistry
}

// ReportRepository archives generated stock reports.
type ReportRepository interface {
	InsertReport(ctx context.Context, report *model.StockReport) error

	// ListReports returns the newest reports first.
	ListReports(ctx context.Context, limit, offset int) ([]model.StockReport, int64, error)

	Close() error
}
