package testsupport

import (
	"context"
	"testing"

	"servicedesk/internal/cargo"
	"servicedesk/internal/config"
)

// MustOpenStore opens a cargo.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *cargo.Store {
	t.Helper()

	store, err := cargo.Open(cfg)
	if err != nil {
		t.Fatalf("cargo.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewCargo registers a cargo record with the given tracking number and notes.
func NewCargo(t testing.TB, store *cargo.Store, tracking, notes string) *cargo.Record {
	t.Helper()

	record, err := store.Create(context.Background(), cargo.NewRecord{
		TrackingNumber: tracking,
		CustomerName:   "Test Customer",
		Device:         "Test Device",
		Notes:          notes,
	})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return record
}
