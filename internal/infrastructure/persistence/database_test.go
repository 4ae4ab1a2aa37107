package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trainhub/backend/internal/domain/shared"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase creates a Database instance with a mocked SQL connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
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

func TestDatabase_Stats(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
}

func TestDatabase_Transaction(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "training_sessions" SET "invoice_status"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Exec(`UPDATE "training_sessions" SET "invoice_status" = ? WHERE id = ?`, "paid", "x").Error
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := db.Transaction(func(tx *gorm.DB) error {
			return assert.AnError
		})

		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPayableRepositories_FindByIDForUpdateLocksRow(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	ctx := context.Background()

	lookups := []struct {
		table string
		find  func(id uuid.UUID) error
	}{
		{"trainer_incomes", func(id uuid.UUID) error {
			_, err := NewGormTrainerIncomeRepository(db.DB).FindByIDForUpdate(ctx, id)
			return err
		}},
		{"coordinator_fees", func(id uuid.UUID) error {
			_, err := NewGormCoordinatorFeeRepository(db.DB).FindByIDForUpdate(ctx, id)
			return err
		}},
		{"marketing_commissions", func(id uuid.UUID) error {
			_, err := NewGormMarketingCommissionRepository(db.DB).FindByIDForUpdate(ctx, id)
			return err
		}},
	}
	for _, l := range lookups {
		mock.ExpectQuery(`SELECT \* FROM "` + l.table + `" WHERE id = .* FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		assert.ErrorIs(t, l.find(uuid.New()), shared.ErrNotFound, l.table)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
