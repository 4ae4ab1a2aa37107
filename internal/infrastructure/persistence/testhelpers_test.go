package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/domain/shared"
	"github.com/trainhub/backend/internal/domain/training"
	"github.com/trainhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory SQLite database with the full schema. The
// pool is pinned to one connection so every query sees the same database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func testNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := NewAuditIDNode(1)
	require.NoError(t, err)
	return node
}

func seedSession(t *testing.T, db *gorm.DB) *training.Session {
	t.Helper()
	ctx := context.Background()

	company, err := training.NewCompany("Petronas Dagangan")
	require.NoError(t, err)
	require.NoError(t, NewGormCompanyRepository(db).Create(ctx, company))

	programme, err := training.NewProgramme("Leadership Essentials", "LE-01")
	require.NoError(t, err)
	require.NoError(t, NewGormProgrammeRepository(db).Create(ctx, programme))

	start := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	session, err := training.NewSession("LE March", company.ID, programme.ID, start, start.AddDate(0, 0, 2), "Kuala Lumpur", 20, uuid.New())
	require.NoError(t, err)
	require.NoError(t, NewGormSessionRepository(db).Save(ctx, session))
	return session
}

func newInvoice(t *testing.T, number string, session *training.Session, subtotal int64) *finance.Invoice {
	t.Helper()
	inv, err := finance.NewAutoDraftInvoice(number, session.ID, session.CompanyID, "Petronas Dagangan", "Leadership Essentials",
		session.StartDate, session.EndDate, session.Venue, session.ParticipantCount, uuid.New())
	require.NoError(t, err)
	inv.LineItems = []finance.LineItem{{Description: "Training fee", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(subtotal), Amount: decimal.NewFromInt(subtotal)}}
	inv.Subtotal = decimal.NewFromInt(subtotal)
	inv.TotalAmount = decimal.NewFromInt(subtotal)
	return inv
}

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected domain error, got %v", err)
	require.Equal(t, code, de.Code)
}
