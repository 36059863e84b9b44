package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db := openSQLite(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{}, zap.NewNop())

	require.NoError(t, plugin.Register(db))
	assert.Nil(t, db.Callback().Query().Get("pricing_timing:after_query"))
}

func TestDBTracingPlugin_RecordsQuerySpans(t *testing.T) {
	recorder := useRecorder(t)
	db := openSQLite(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, zap.NewNop())
	require.NoError(t, plugin.Register(db))
	assert.NotNil(t, db.Callback().Query().Get("pricing_timing:after_query"))

	require.NoError(t, db.Exec("CREATE TABLE probes (id INTEGER PRIMARY KEY, name TEXT)").Error)
	var names []string
	require.NoError(t, db.WithContext(context.Background()).Table("probes").Pluck("name", &names).Error)

	assert.NotEmpty(t, recorder.Ended())
}

func TestDBTracingPlugin_MarkSlow(t *testing.T) {
	recorder := useRecorder(t)
	db := openSQLite(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: time.Millisecond}, zap.NewNop())

	ctx, span := StartServiceSpan(context.Background(), "db", "query")
	ctx = context.WithValue(ctx, queryStartTimeKey, time.Now().Add(-time.Second))
	tx := db.WithContext(ctx)
	tx.Statement.Table = "price_lists"

	plugin.markSlow(tx)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := spans[0].Attributes()
	assert.Contains(t, attrs, attribute.String("db.sql.table", "price_lists"))
	assert.Contains(t, attrs, attribute.Bool("db.slow_query", true))
}
