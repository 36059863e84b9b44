package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	apppricelist "github.com/erp/pricing/internal/application/pricelist"
	"github.com/erp/pricing/internal/application/pricing"
	"github.com/erp/pricing/internal/domain/catalog"
	"github.com/erp/pricing/internal/domain/partner"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/erp/pricing/internal/domain/trade"
	"github.com/erp/pricing/internal/infrastructure/cache"
	"github.com/erp/pricing/internal/infrastructure/config"
	"github.com/erp/pricing/internal/infrastructure/logger"
	"github.com/erp/pricing/internal/infrastructure/persistence"
	"github.com/erp/pricing/internal/infrastructure/persistence/snapshot"
	"github.com/erp/pricing/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// backend is the storage the services read from and write through
type backend struct {
	products    catalog.ProductReader
	units       catalog.ProductUnitReader
	parties     partner.Reader
	documents   trade.DocumentReader
	lists       pricelist.Reader
	entries     pricelist.EntryReader
	assignments pricelist.AssignmentReader
	tx          apppricelist.TxRunner

	// persist runs after a successful mutation
	persist func() error
	close   func() error
}

func snapshotBackend(path string) (*backend, error) {
	store, err := snapshot.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return &backend{
		products:    store.Products(),
		units:       store.ProductUnits(),
		parties:     store.BusinessParties(),
		documents:   store.Documents(),
		lists:       store.PriceLists(),
		entries:     store.Entries(),
		assignments: store.Assignments(),
		tx:          store,
		persist:     func() error { return store.SaveFile(path) },
		close:       func() error { return nil },
	}, nil
}

func openDatabase(cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	db, err := persistence.OpenDatabase(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
			logger.WithSlowThreshold(cfg.Database.SlowQueryThreshold)))
	if err != nil {
		return nil, err
	}
	tracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Database.SlowQueryThreshold,
	}, log)
	if err := tracing.Register(db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register database tracing: %w", err)
	}
	return db, nil
}

func databaseBackend(cfg *config.Config, log *zap.Logger) (*backend, error) {
	db, err := openDatabase(cfg, log)
	if err != nil {
		return nil, err
	}
	stores := db.Stores()
	return &backend{
		products:    stores.Products,
		units:       stores.ProductUnits,
		parties:     stores.BusinessParties,
		documents:   stores.Documents,
		lists:       stores.PriceLists,
		entries:     stores.PriceLists,
		assignments: stores.PriceLists,
		tx:          stores.Tx,
		persist:     func() error { return nil },
		close:       db.Close,
	}, nil
}

// app holds the wired services of one pricectl invocation
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	actor   string
	backend *backend

	price      *pricing.PriceApplicationService
	cascade    *pricing.CascadingResolver
	comparison *pricing.PurchaseComparisonService
	validator  *pricing.PrecedenceValidatorService
	bulk       *apppricelist.BulkTransformService
	generation *apppricelist.HistoricalGenerationService
	duplicate  *apppricelist.DuplicationService

	cache     cache.ResolutionStore
	telemetry *telemetry.Provider
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger, provider *telemetry.Provider, b *backend, actor string) (*app, error) {
	clock := shared.SystemClock{}
	currency, err := valueobject.ParseCurrency(cfg.Pricing.DefaultCurrency)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: log, actor: actor, backend: b, telemetry: provider}

	converter := pricing.NewUnitPriceConverter(b.products, b.units, log)
	forced := pricing.NewForcedListResolver(b.lists, b.entries, b.assignments, b.parties, log)
	forced.SetCurrency(currency)
	automatic := pricing.NewAutomaticResolver(b.products, b.lists, b.entries, b.assignments, log)
	automatic.SetCurrency(currency)
	a.price = pricing.NewPriceApplicationService(
		pricing.NewModeSelector(b.parties, log),
		forced,
		automatic,
		converter,
		clock,
		log,
	)
	a.price.SetCurrency(currency)
	a.cascade = pricing.NewCascadingResolver(b.products, b.lists, b.entries, b.documents, b.parties, clock, log)
	a.cascade.SetCurrency(currency)
	a.comparison = pricing.NewPurchaseComparisonService(b.lists, b.entries, b.assignments, b.parties, clock, log)
	a.validator = pricing.NewPrecedenceValidatorService(b.lists, pricelist.AnalysisOptions{
		ExpiryWarningWindow: time.Duration(cfg.Pricing.ExpiryWarningDays) * 24 * time.Hour,
		MaxActiveLists:      cfg.Pricing.MaxActiveLists,
	}, clock, log)
	a.bulk = apppricelist.NewBulkTransformService(b.lists, b.entries, b.products, b.tx, clock, log)
	a.generation = apppricelist.NewHistoricalGenerationService(b.lists, b.entries, b.products, b.parties, b.documents, b.tx, clock, log)
	a.generation.SetCurrency(currency)
	a.duplicate = apppricelist.NewDuplicationService(b.lists, b.entries, b.assignments, b.products, b.tx, clock, log)

	metrics, err := telemetry.NewPricingMetrics(provider.Meter(telemetry.MeterName))
	if err != nil {
		return nil, err
	}
	a.price.SetMetrics(metrics)
	a.cascade.SetMetrics(metrics)
	a.bulk.SetMetrics(metrics)
	a.generation.SetMetrics(metrics)

	store, err := cache.NewFactory(cfg.Pricing, cfg.Redis, cache.WithLogger(log)).CreateStore()
	if err != nil {
		return nil, err
	}
	if store != nil {
		a.cache = store
		a.price.SetCache(store)
		a.bulk.SetCacheInvalidator(store)
		a.generation.SetCacheInvalidator(store)
		a.duplicate.SetCacheInvalidator(store)
	}
	return a, nil
}

// Close releases the cache, the storage and the telemetry exporters
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	errs = append(errs, a.backend.close(), a.telemetry.Shutdown(ctx))
	return errors.Join(errs...)
}

// actorOr fills an empty request actor with the invoking user
func (a *app) actorOr(actor string) string {
	if actor != "" {
		return actor
	}
	return a.actor
}
