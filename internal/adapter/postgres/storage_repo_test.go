package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"recipebook/internal/adapter/storagetest"
	"recipebook/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := Open(connStr)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.sql.Exec("DELETE FROM browser_storage WHERE browser_id LIKE 'browser-%'")
		_ = db.Close()
	})
	return db
}

func TestStorageContract(t *testing.T) {
	storagetest.Run(t, openTestDB(t))
}

func TestDeleteStale(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Set(ctx, "browser-stale", domain.KeyToken, "t"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	n, err := db.DeleteStale(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("DeleteStale: %v", err)
	}
	if n < 1 {
		t.Errorf("expected at least one row removed, got %d", n)
	}
	if _, err := db.Get(ctx, "browser-stale", domain.KeyToken); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
