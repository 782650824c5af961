// Package dbtest provides migrated in-memory databases for tests.
package dbtest

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/gatherle/notification-service/internal/database"
)

// New returns a fresh, fully migrated in-memory SQLite database closed at test cleanup
func New(tb testing.TB) *sqlx.DB {
	tb.Helper()

	db, err := database.NewSQLiteConnection(":memory:")
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}
