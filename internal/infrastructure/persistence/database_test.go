package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/pricing/internal/domain/audit"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase creates a Database over a mocked SQL connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock, mockDB
}

func TestDatabase_Ping(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectPing()

	assert.NoError(t, db.Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()

	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Stores(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	stores := db.Stores()

	assert.NotNil(t, stores.Products)
	assert.NotNil(t, stores.ProductUnits)
	assert.NotNil(t, stores.BusinessParties)
	assert.NotNil(t, stores.Documents)
	assert.NotNil(t, stores.PriceLists)
	assert.NotNil(t, stores.Audit)
	assert.NotNil(t, stores.Tx)
}

func TestGormTxRunner_RunInTx(t *testing.T) {
	entry := audit.NewEntry(audit.EntityPriceList, uuid.New(), audit.ActionDuplicate, "tester", time.Now())

	t.Run("commits when fn succeeds", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "pricing_audit_log"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := NewGormTxRunner(db.DB).RunInTx(context.Background(),
			func(ctx context.Context, _ pricelist.Writer, sink audit.Sink) error {
				return sink.Record(ctx, entry)
			})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := NewGormTxRunner(db.DB).RunInTx(context.Background(),
			func(context.Context, pricelist.Writer, audit.Sink) error {
				return assert.AnError
			})

		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the context ends inside fn", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		ctx, cancel := context.WithCancel(context.Background())
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := NewGormTxRunner(db.DB).RunInTx(ctx,
			func(context.Context, pricelist.Writer, audit.Sink) error {
				cancel()
				return nil
			})

		assert.ErrorIs(t, err, context.Canceled)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
