// Package dbtest provides throwaway databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"octofit/backend/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var seq atomic.Int64

// New returns a migrated in-memory sqlite database private to t. The pool is
// capped at one connection so transactions never contend for sqlite's table
// locks.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	db, err := database.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access connection pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
