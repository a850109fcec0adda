// Package dbtest opens throwaway SQLite databases for package tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/mind-engage/quizgenix/internal/db"
)

// Open returns a fresh in-memory SQLite database with the schema applied.
// Each call gets its own database; it is closed when the test ends.
func Open(t testing.TB) *db.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	d, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}
