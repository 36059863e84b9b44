package persistence

import (
	"fmt"
	"time"

	"github.com/erp/pricing/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database holds the PostgreSQL connection backing the pricing stores
type Database struct {
	DB *gorm.DB
}

// OpenDatabase connects to PostgreSQL, sizes the pool from cfg and pings once
func OpenDatabase(cfg *config.DatabaseConfig, gormLogger logger.Interface) (*Database, error) {
	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Database{DB: db}, nil
}

// Stores returns the repositories bound to this connection
func (d *Database) Stores() *Stores {
	return NewStores(d.DB)
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Stores bundles the GORM-backed ports of the pricing engine
type Stores struct {
	Products        *GormProductRepository
	ProductUnits    *GormProductUnitRepository
	BusinessParties *GormBusinessPartyRepository
	Documents       *GormDocumentRepository
	PriceLists      *GormPriceListRepository
	Audit           *GormAuditRepository
	Tx              *GormTxRunner
}

// NewStores wires every repository on the same connection
func NewStores(db *gorm.DB) *Stores {
	return &Stores{
		Products:        NewGormProductRepository(db),
		ProductUnits:    NewGormProductUnitRepository(db),
		BusinessParties: NewGormBusinessPartyRepository(db),
		Documents:       NewGormDocumentRepository(db),
		PriceLists:      NewGormPriceListRepository(db),
		Audit:           NewGormAuditRepository(db),
		Tx:              NewGormTxRunner(db),
	}
}
