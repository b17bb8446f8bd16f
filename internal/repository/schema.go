package repository

import (
	"fmt"
	"strings"
	"time"
)

// Dialect selects the SQL flavour spoken by SQLStore.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// driverName returns the database/sql driver registered for the dialect.
func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectSQLite:
		return "sqlite", nil
	case DialectPostgres:
		return "postgres", nil
	case DialectMySQL:
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported store dialect %q", d)
	}
}

// rebind rewrites ? placeholders into the dialect's native form.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sqliteTimeLayout is fixed width so that stored timestamps sort and compare
// correctly as text.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

// timeArg converts a timestamp into the query argument stored by the dialect.
func (d Dialect) timeArg(t time.Time) interface{} {
	t = t.UTC().Truncate(time.Microsecond)
	if d == DialectSQLite {
		return t.Format(sqliteTimeLayout)
	}
	return t
}

// schema returns the statements creating the ledger tables for the dialect.
func (d Dialect) schema() []string {
	switch d {
	case DialectPostgres:
		return []string{
			`CREATE TABLE IF NOT EXISTS silos (
				id VARCHAR(64) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				capacity_kg NUMERIC(14,3) NOT NULL,
				allowed_material_ids TEXT NOT NULL DEFAULT '[]',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE TABLE IF NOT EXISTS inbound_records (
				id VARCHAR(64) PRIMARY KEY,
				silo_id VARCHAR(64) NOT NULL,
				quantity_kg NUMERIC(14,3) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				product VARCHAR(255) NOT NULL,
				material_id VARCHAR(64) NOT NULL DEFAULT '',
				supplier_id VARCHAR(64) NOT NULL DEFAULT '',
				lot_supplier VARCHAR(255) NOT NULL DEFAULT '',
				lot_tf VARCHAR(255) NOT NULL DEFAULT '',
				proteins NUMERIC(6,3),
				humidity NUMERIC(6,3),
				cleaned BOOLEAN NOT NULL DEFAULT FALSE,
				operator_name VARCHAR(255) NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_inbound_silo_created ON inbound_records(silo_id, created_at)`,
			`CREATE TABLE IF NOT EXISTS outbound_records (
				id VARCHAR(64) PRIMARY KEY,
				silo_id VARCHAR(64) NOT NULL,
				quantity_kg NUMERIC(14,3) NOT NULL,
				operator_name VARCHAR(255) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				batch_id VARCHAR(64) NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_outbound_silo_created ON outbound_records(silo_id, created_at)`,
			`CREATE TABLE IF NOT EXISTS outbound_items (
				outbound_id VARCHAR(64) NOT NULL,
				seq INTEGER NOT NULL,
				inbound_id VARCHAR(64) NOT NULL,
				quantity_kg NUMERIC(14,3) NOT NULL,
				material_name VARCHAR(255) NOT NULL DEFAULT '',
				supplier_lot VARCHAR(255) NOT NULL DEFAULT '',
				tf_lot VARCHAR(255) NOT NULL DEFAULT '',
				protein_content NUMERIC(6,3),
				moisture_content NUMERIC(6,3),
				cleaning_status BOOLEAN NOT NULL DEFAULT FALSE,
				entry_date TIMESTAMPTZ NOT NULL,
				PRIMARY KEY (outbound_id, seq)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_outbound_items_inbound ON outbound_items(inbound_id)`,
		}
	case DialectMySQL:
		return []string{
			`CREATE TABLE IF NOT EXISTS silos (
				id VARCHAR(64) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				capacity_kg DECIMAL(14,3) NOT NULL,
				allowed_material_ids TEXT NOT NULL,
				created_at DATETIME(6) NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS inbound_records (
				id VARCHAR(64) PRIMARY KEY,
				silo_id VARCHAR(64) NOT NULL,
				quantity_kg DECIMAL(14,3) NOT NULL,
				created_at DATETIME(6) NOT NULL,
				product VARCHAR(255) NOT NULL,
				material_id VARCHAR(64) NOT NULL DEFAULT '',
				supplier_id VARCHAR(64) NOT NULL DEFAULT '',
				lot_supplier VARCHAR(255) NOT NULL DEFAULT '',
				lot_tf VARCHAR(255) NOT NULL DEFAULT '',
				proteins DECIMAL(6,3) NULL,
				humidity DECIMAL(6,3) NULL,
				cleaned BOOLEAN NOT NULL DEFAULT FALSE,
				operator_name VARCHAR(255) NOT NULL DEFAULT '',
				INDEX idx_inbound_silo_created (silo_id, created_at)
			)`,
			`CREATE TABLE IF NOT EXISTS outbound_records (
				id VARCHAR(64) PRIMARY KEY,
				silo_id VARCHAR(64) NOT NULL,
				quantity_kg DECIMAL(14,3) NOT NULL,
				operator_name VARCHAR(255) NOT NULL,
				created_at DATETIME(6) NOT NULL,
				batch_id VARCHAR(64) NOT NULL DEFAULT '',
				INDEX idx_outbound_silo_created (silo_id, created_at)
			)`,
			`CREATE TABLE IF NOT EXISTS outbound_items (
				outbound_id VARCHAR(64) NOT NULL,
				seq INT NOT NULL,
				inbound_id VARCHAR(64) NOT NULL,
				quantity_kg DECIMAL(14,3) NOT NULL,
				material_name VARCHAR(255) NOT NULL DEFAULT '',
				supplier_lot VARCHAR(255) NOT NULL DEFAULT '',
				tf_lot VARCHAR(255) NOT NULL DEFAULT '',
				protein_content DECIMAL(6,3) NULL,
				moisture_content DECIMAL(6,3) NULL,
				cleaning_status BOOLEAN NOT NULL DEFAULT FALSE,
				entry_date DATETIME(6) NOT NULL,
				PRIMARY KEY (outbound_id, seq),
				INDEX idx_outbound_items_inbound (inbound_id)
			)`,
		}
	default:
		return []string{
			`CREATE TABLE IF NOT EXISTS silos (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				capacity_kg TEXT NOT NULL,
				allowed_material_ids TEXT NOT NULL DEFAULT '[]',
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS inbound_records (
				id TEXT PRIMARY KEY,
				silo_id TEXT NOT NULL,
				quantity_kg TEXT NOT NULL,
				created_at TEXT NOT NULL,
				product TEXT NOT NULL,
				material_id TEXT NOT NULL DEFAULT '',
				supplier_id TEXT NOT NULL DEFAULT '',
				lot_supplier TEXT NOT NULL DEFAULT '',
				lot_tf TEXT NOT NULL DEFAULT '',
				proteins TEXT,
				humidity TEXT,
				cleaned INTEGER NOT NULL DEFAULT 0,
				operator_name TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_inbound_silo_created ON inbound_records(silo_id, created_at)`,
			`CREATE TABLE IF NOT EXISTS outbound_records (
				id TEXT PRIMARY KEY,
				silo_id TEXT NOT NULL,
				quantity_kg TEXT NOT NULL,
				operator_name TEXT NOT NULL,
				created_at TEXT NOT NULL,
				batch_id TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_outbound_silo_created ON outbound_records(silo_id, created_at)`,
			`CREATE TABLE IF NOT EXISTS outbound_items (
				outbound_id TEXT NOT NULL,
				seq INTEGER NOT NULL,
				inbound_id TEXT NOT NULL,
				quantity_kg TEXT NOT NULL,
				material_name TEXT NOT NULL DEFAULT '',
				supplier_lot TEXT NOT NULL DEFAULT '',
				tf_lot TEXT NOT NULL DEFAULT '',
				protein_content TEXT,
				moisture_content TEXT,
				cleaning_status INTEGER NOT NULL DEFAULT 0,
				entry_date TEXT NOT NULL,
				PRIMARY KEY (outbound_id, seq)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_outbound_items_inbound ON outbound_items(inbound_id)`,
		}
	}
}

// sqlTime scans timestamps that drivers return either as time.Time or as text.
type sqlTime struct {
	time.Time
}

var sqlTimeLayouts = []string{
	sqliteTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

func (t *sqlTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (t *sqlTime) parse(s string) error {
	for _, layout := range sqlTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}
