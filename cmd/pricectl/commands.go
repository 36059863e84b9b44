package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	apppricelist "github.com/erp/pricing/internal/application/pricelist"
	"github.com/erp/pricing/internal/application/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/infrastructure/config"
	"github.com/erp/pricing/internal/infrastructure/logger"
	"github.com/erp/pricing/internal/infrastructure/persistence"
	"github.com/erp/pricing/internal/infrastructure/persistence/snapshot"
	"github.com/erp/pricing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type command struct {
	name    string
	summary string
	mutates bool
	run     func(ctx context.Context, a *app, request []byte) (any, error)
}

var commands = []command{
	{name: "resolve", summary: "Resolve one price (PriceRequest)", run: func(ctx context.Context, a *app, in []byte) (any, error) {
		req, err := decode[pricing.PriceRequest](in)
		if err != nil {
			return nil, err
		}
		return a.price.Resolve(ctx, req)
	}},
	{name: "cascade", summary: "Resolve a price from a document context (CascadeRequest)", run: func(ctx context.Context, a *app, in []byte) (any, error) {
		req, err := decode[pricing.CascadeRequest](in)
		if err != nil {
			return nil, err
		}
		return a.cascade.Resolve(ctx, req)
	}},
	{name: "compare", summary: "Rank supplier offers for a product (ComparisonRequest)", run: func(ctx context.Context, a *app, in []byte) (any, error) {
		req, err := decode[pricing.ComparisonRequest](in)
		if err != nil {
			return nil, err
		}
		return a.comparison.Compare(ctx, req)
	}},
	{name: "validate", summary: `Check the precedence of an event's lists ({"event_id": ...})`, run: func(ctx context.Context, a *app, in []byte) (any, error) {
		req, err := decode[struct {
			EventID uuid.UUID `json:"event_id"`
		}](in)
		if err != nil {
			return nil, err
		}
		return a.validator.Validate(ctx, req.EventID)
	}},
	{name: "bulk-preview", summary: "Preview a bulk price transform (BulkTransformRequest)", run: func(ctx context.Context, a *app, in []byte) (any, error) {
		req, err := decode[apppricelist.BulkTransformRequest](in)
		if err != nil {
			return nil, err
		}
		return a.bulk.Preview(ctx, req)
	}},
	{name: "bulk-commit", summary: "Apply a bulk price transform", mutates: true, run: func(ctx context.Context, a *app, in []byte) (any, error) {
		req, err := decode[apppricelist.BulkTransformRequest](in)
		if err != nil {
			return nil, err
		}
		req.Actor = a.actorOr(req.Actor)
		return a.bulk.Commit(ctx, req)
	}},
	{name: "historical-preview", summary: "Preview prices derived from purchase history (HistoricalWindow)", run: func(ctx context.Context, a *app, in []byte) (any, error) {
		req, err := decode[apppricelist.HistoricalWindow](in)
		if err != nil {
			return nil, err
		}
		return a.generation.Preview(ctx, req)
	}},
	{name: "generate", summary: "Create a purchase list from history (GenerateRequest)", mutates: true, run: func(ctx context.Context, a *app, in []byte) (any, error) {
		req, err := decode[apppricelist.GenerateRequest](in)
		if err != nil {
			return nil, err
		}
		req.Actor = a.actorOr(req.Actor)
		return a.generation.Generate(ctx, req)
	}},
	{name: "update", summary: "Re-derive a generated list from history (UpdateFromHistoryRequest)", mutates: true, run: func(ctx context.Context, a *app, in []byte) (any, error) {
		req, err := decode[apppricelist.UpdateFromHistoryRequest](in)
		if err != nil {
			return nil, err
		}
		req.Actor = a.actorOr(req.Actor)
		return a.generation.Update(ctx, req)
	}},
	{name: "duplicate", summary: "Clone a price list (DuplicateRequest)", mutates: true, run: func(ctx context.Context, a *app, in []byte) (any, error) {
		req, err := decode[apppricelist.DuplicateRequest](in)
		if err != nil {
			return nil, err
		}
		req.Actor = a.actorOr(req.Actor)
		return a.duplicate.Duplicate(ctx, req)
	}},
	{name: "import-snapshot", summary: "Copy a JSON snapshot into the database: import-snapshot <file>"},
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// decode rejects unknown fields so typos in a request fail loudly
func decode[T any](in []byte) (T, error) {
	var req T
	dec := json.NewDecoder(bytes.NewReader(in))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, shared.NewInvalidInputError("INVALID_REQUEST", fmt.Sprintf("Invalid request: %v", err))
	}
	return req, nil
}

func run(ctx context.Context, opts options, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd, ok := findCommand(args[0])
	if !ok {
		return usageError(fmt.Sprintf("unknown command %q", args[0]))
	}

	cfg, err := config.LoadFrom(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return err
	}
	if opts.snapshotPath != "" {
		cfg.Pricing.SnapshotPath = opts.snapshotPath
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	log, provider, err := setupLogging(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx = logger.WithCommand(ctx, cmd.name)
	ctx = logger.WithActor(ctx, opts.actor)
	log = logger.Enrich(ctx, log)
	ctx = logger.WithContext(ctx, log)

	if cmd.name == "import-snapshot" {
		defer func() { _ = provider.Shutdown(context.Background()) }()
		if len(args) < 2 {
			return usageError("import-snapshot needs the snapshot file")
		}
		return importSnapshot(ctx, cfg, log, args[1], stdout)
	}

	var b *backend
	if cfg.Pricing.SnapshotPath != "" {
		b, err = snapshotBackend(cfg.Pricing.SnapshotPath)
	} else {
		b, err = databaseBackend(cfg, log)
	}
	if err != nil {
		log.Error("Failed to open storage", zap.Error(err))
		_ = provider.Shutdown(context.Background())
		return err
	}

	a, err := newApp(ctx, cfg, log, provider, b, opts.actor)
	if err != nil {
		log.Error("Failed to wire services", zap.Error(err))
		_ = b.close()
		_ = provider.Shutdown(context.Background())
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			log.Warn("Shutdown incomplete", zap.Error(err))
		}
	}()

	request, err := readRequest(opts.requestPath, stdin)
	if err != nil {
		log.Error("Failed to read request", zap.Error(err))
		return err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "pricectl", cmd.name)
	result, err := cmd.run(ctx, a, request)
	telemetry.End(span, err)
	if err != nil {
		log.Error("Command failed", zap.Error(err))
		return writeError(stdout, err)
	}

	if cmd.mutates {
		if err := b.persist(); err != nil {
			log.Error("Failed to persist snapshot", zap.Error(err))
			return err
		}
	}
	return writeJSON(stdout, result)
}

func setupLogging(ctx context.Context, cfg *config.Config) (*zap.Logger, *telemetry.Provider, error) {
	base, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, err
	}
	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.Telemetry.ServiceName,
		ExportInterval:    cfg.Telemetry.ExportInterval,
	}, base)
	if err != nil {
		return nil, nil, err
	}
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	return provider.Bridge(base, level), provider, nil
}

func importSnapshot(ctx context.Context, cfg *config.Config, log *zap.Logger, path string, stdout io.Writer) error {
	store, err := snapshot.LoadFile(path)
	if err != nil {
		log.Error("Failed to load snapshot", zap.String("path", path), zap.Error(err))
		return err
	}
	db, err := openDatabase(cfg, log)
	if err != nil {
		log.Error("Failed to open database", zap.Error(err))
		return err
	}
	defer db.Close()

	stats, err := persistence.ImportSnapshot(ctx, db.DB, store.Contents(), log)
	if err != nil {
		return writeError(stdout, err)
	}
	return writeJSON(stdout, stats)
}

func readRequest(path string, stdin io.Reader) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeError reports err as {"error": {...}} and returns it
func writeError(w io.Writer, err error) error {
	body := struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{Code: "INTERNAL_ERROR", Message: err.Error()}

	var domainErr *shared.DomainError
	switch {
	case errors.As(err, &domainErr):
		body.Code = domainErr.Code
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		body.Code = "CANCELLED"
	}
	_ = writeJSON(w, map[string]any{"error": body})
	return err
}
