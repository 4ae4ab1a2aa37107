// Package integration runs the finance flows against PostgreSQL started with
// testcontainers.
package integration

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/trainhub/backend/internal/domain/training"
	"github.com/trainhub/backend/internal/infrastructure/migration"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// financeTables are truncated between tests, children first
var financeTables = []string{
	"finance_audit_logs", "payments", "cash_expenses", "coordinator_fees", "trainer_incomes",
	"marketing_commissions", "invoices", "invoice_counters", "training_sessions",
	"programmes", "companies", "users",
}

var (
	sharedContainer    testcontainers.Container
	sharedContainerMu  sync.Mutex
	sharedContainerDSN string
)

// TestDB is a connection to the package's migrated Postgres container
type TestDB struct {
	DB *gorm.DB
	t  *testing.T
}

// NewSharedTestDB starts the package container on first use, migrates it and
// returns a fresh connection that is closed when the test ends
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()

	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer == nil {
		ctx := context.Background()
		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("trainhub_test"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("admin123"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		require.NoError(t, err, "start postgres container")

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err, "container connection string")

		m, err := migration.NewFromURL(dsn, migrationsDir(t), nil)
		require.NoError(t, err)
		require.NoError(t, m.Up())
		require.NoError(t, m.Close())

		sharedContainer = container
		sharedContainerDSN = dsn
	}

	db, err := gorm.Open(gormpostgres.Open(sharedContainerDSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "connect to test database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return &TestDB{DB: db, t: t}
}

// CleanTables empties every finance table
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()
	err := tdb.DB.Exec("TRUNCATE TABLE " + strings.Join(financeTables, ", ") + " CASCADE").Error
	require.NoError(tdb.t, err, "truncate finance tables")
}

// CleanupSharedContainer terminates the package container. Call it from TestMain.
func CleanupSharedContainer() {
	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = sharedContainer.Terminate(ctx)
		sharedContainer = nil
		sharedContainerDSN = ""
	}
}

// migrationsDir resolves the repository's migrations/ from this file's location
func migrationsDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "locate testdb.go")
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// CreateTestCompany inserts a company and returns it
func (tdb *TestDB) CreateTestCompany(name string) *training.Company {
	tdb.t.Helper()

	company, err := training.NewCompany(name)
	require.NoError(tdb.t, err)
	err = tdb.DB.Exec(`INSERT INTO companies (id, name) VALUES (?, ?)`,
		company.ID, company.Name).Error
	require.NoError(tdb.t, err, "insert test company")
	return company
}

// CreateTestProgramme inserts a programme and returns it
func (tdb *TestDB) CreateTestProgramme(name, code string) *training.Programme {
	tdb.t.Helper()

	programme, err := training.NewProgramme(name, code)
	require.NoError(tdb.t, err)
	err = tdb.DB.Exec(`INSERT INTO programmes (id, name, code) VALUES (?, ?, ?)`,
		programme.ID, programme.Name, programme.Code).Error
	require.NoError(tdb.t, err, "insert test programme")
	return programme
}
