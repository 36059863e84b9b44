package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var sqliteSchema = []string{
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		category_id TEXT,
		brand_id TEXT,
		unit TEXT NOT NULL,
		default_price TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE product_units (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		unit_code TEXT NOT NULL,
		unit_name TEXT NOT NULL,
		conversion_rate TEXT NOT NULL,
		UNIQUE(product_id, unit_code)
	)`,
	`CREATE TABLE business_parties (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		default_price_application_mode TEXT NOT NULL DEFAULT 'automatic',
		forced_price_list_id TEXT,
		default_sales_price_list_id TEXT,
		default_purchase_price_list_id TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE document_headers (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		business_party_id TEXT,
		price_list_id TEXT,
		is_stock_increase INTEGER NOT NULL DEFAULT 0,
		document_date DATETIME NOT NULL
	)`,
	`CREATE TABLE document_lines (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		quantity TEXT NOT NULL,
		line_date DATETIME NOT NULL
	)`,
	`CREATE TABLE price_lists (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT,
		list_type TEXT NOT NULL,
		direction TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		priority INTEGER NOT NULL DEFAULT 0,
		is_default INTEGER NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'EUR',
		valid_from DATETIME,
		valid_to DATETIME,
		event_id TEXT,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		created_by TEXT,
		modified_by TEXT,
		gen_strategy TEXT,
		gen_supplier_id TEXT,
		gen_source_from DATETIME,
		gen_source_to DATETIME,
		gen_document_count INTEGER NOT NULL DEFAULT 0,
		gen_markup_percentage TEXT,
		gen_rounding TEXT,
		gen_generated_at DATETIME,
		version INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE price_list_entries (
		id TEXT PRIMARY KEY,
		price_list_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		price TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'EUR',
		unit_code TEXT,
		min_quantity TEXT NOT NULL DEFAULT '1',
		max_quantity TEXT NOT NULL DEFAULT '0',
		is_editable INTEGER NOT NULL DEFAULT 1,
		is_discountable INTEGER NOT NULL DEFAULT 1,
		score INTEGER NOT NULL DEFAULT 0,
		lead_time_days INTEGER,
		minimum_order_quantity TEXT,
		supplier_product_code TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		modified_by TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE price_list_business_parties (
		id TEXT PRIMARY KEY,
		price_list_id TEXT NOT NULL,
		business_party_id TEXT NOT NULL,
		priority_override INTEGER,
		global_discount_percentage TEXT,
		valid_from DATETIME,
		valid_to DATETIME,
		is_primary INTEGER NOT NULL DEFAULT 0,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE pricing_audit_log (
		id TEXT PRIMARY KEY,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		action TEXT NOT NULL,
		old_summary TEXT,
		new_summary TEXT,
		actor TEXT NOT NULL,
		recorded_at DATETIME NOT NULL
	)`,
}

// setupTestDB creates an in-memory SQLite database with the pricing tables
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// every pooled connection would otherwise open its own empty database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, ddl := range sqliteSchema {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}
