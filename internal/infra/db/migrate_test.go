package db

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var migrateUpStatements = []string{
	"CREATE TABLE IF NOT EXISTS users",
	"CREATE TABLE IF NOT EXISTS subscriptions",
	"CREATE TABLE IF NOT EXISTS feature_usage",
	"CREATE TABLE IF NOT EXISTS rate_windows",
	"CREATE INDEX IF NOT EXISTS idx_subscriptions_user_id",
	"CREATE INDEX IF NOT EXISTS idx_feature_usage_user_month",
	"CREATE INDEX IF NOT EXISTS idx_feature_usage_month_key",
	"CREATE INDEX IF NOT EXISTS idx_rate_windows_window_start",
}

// Drops run children-first so foreign keys never dangle.
var migrateDownStatements = []string{
	"DROP TABLE IF EXISTS rate_windows",
	"DROP TABLE IF EXISTS feature_usage",
	"DROP TABLE IF EXISTS subscriptions",
	"DROP TABLE IF EXISTS users",
}

func newMigrateMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestMigrateUp(t *testing.T) {
	db, mock := newMigrateMock(t)
	for _, stmt := range migrateUpStatements {
		mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	assert.NoError(t, MigrateUp(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUp_StopsOnFirstFailure(t *testing.T) {
	// Fail at each position in turn and check nothing past the failure
	// runs.
	for failAt := range migrateUpStatements {
		db, mock := newMigrateMock(t)
		for _, stmt := range migrateUpStatements[:failAt] {
			mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectExec(migrateUpStatements[failAt]).WillReturnError(sql.ErrConnDone)

		assert.Error(t, MigrateUp(db), "statement %d", failAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	}
}

func TestMigrateDown(t *testing.T) {
	db, mock := newMigrateMock(t)
	for _, stmt := range migrateDownStatements {
		mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	assert.NoError(t, MigrateDown(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateDown_Error(t *testing.T) {
	db, mock := newMigrateMock(t)
	mock.ExpectExec(migrateDownStatements[0]).WillReturnError(sql.ErrConnDone)

	assert.Error(t, MigrateDown(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
