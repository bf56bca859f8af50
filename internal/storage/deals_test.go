package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shadatr/costsense-backend/internal/common"
	"github.com/shadatr/costsense-backend/internal/model"
)

// Helper function to create a deal.
func createTestDeal(t *testing.T, store *SQLiteStorage, id, category string, oldPrice, newPrice int64, validUntil time.Time) *model.Deal {
	t.Helper()
	deal := &model.Deal{
		ID:       id,
		Product:  "Product " + id,
		Store:    "Migros",
		Category: category,
		OldPrice: decimal.NewFromInt(oldPrice),
		NewPrice: decimal.NewFromInt(newPrice),
		Location: model.Location{
			Address: "Taksim, İstanbul",
			Lat:     41.0082,
			Lng:     28.9784,
		},
		ValidUntil: validUntil,
		IsActive:   true,
	}
	if err := store.CreateDeal(context.Background(), deal); err != nil {
		t.Fatalf("Failed to create deal %q: %v", id, err)
	}
	return deal
}

func TestSQLiteStorage_GetActiveDeals(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	createTestDeal(t, store, "deal-live", "groceries", 280, 210, now.AddDate(0, 0, 7))
	createTestDeal(t, store, "deal-expired", "groceries", 100, 80, now.AddDate(0, 0, -1))

	got, err := store.GetActiveDeals(ctx, now)
	if err != nil {
		t.Fatalf("GetActiveDeals() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 active deal, got %d", len(got))
	}
	if got[0].ID != "deal-live" {
		t.Errorf("Active deal = %q, want deal-live", got[0].ID)
	}
	if got[0].Location.Lat != 41.0082 || got[0].Location.Address == "" {
		t.Errorf("Location did not round-trip: %+v", got[0].Location)
	}
}

func TestSQLiteStorage_GetDealsByCategory(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	until := now.AddDate(0, 0, 7)
	createTestDeal(t, store, "deal-small", "groceries", 100, 90, until) // 10% off
	createTestDeal(t, store, "deal-big", "groceries", 100, 50, until)   // 50% off
	createTestDeal(t, store, "deal-dining", "dining", 400, 200, until)

	tests := []struct {
		name     string
		category string
		wantIDs  []string
	}{
		{
			name:     "exact match ordered by discount",
			category: "groceries",
			wantIDs:  []string{"deal-big", "deal-small"},
		},
		{
			name:     "case-insensitive substring match",
			category: "GROC",
			wantIDs:  []string{"deal-big", "deal-small"},
		},
		{
			name:     "no matches",
			category: "electronics",
			wantIDs:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.GetDealsByCategory(ctx, tt.category, now)
			if err != nil {
				t.Fatalf("GetDealsByCategory() error = %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Got %d deals, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("Deal[%d] = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestSQLiteStorage_DeactivateExpiredDeals(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	createTestDeal(t, store, "deal-live", "groceries", 280, 210, now.AddDate(0, 0, 7))
	createTestDeal(t, store, "deal-expired1", "groceries", 100, 80, now.AddDate(0, 0, -1))
	createTestDeal(t, store, "deal-expired2", "dining", 400, 200, now.AddDate(0, 0, -3))

	count, err := store.DeactivateExpiredDeals(ctx, now)
	if err != nil {
		t.Fatalf("DeactivateExpiredDeals() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Deactivated %d deals, want 2", count)
	}

	// A second sweep finds nothing left to do.
	count, err = store.DeactivateExpiredDeals(ctx, now)
	if err != nil {
		t.Fatalf("DeactivateExpiredDeals() second run error = %v", err)
	}
	if count != 0 {
		t.Errorf("Second sweep deactivated %d deals, want 0", count)
	}
}

func TestSQLiteStorage_SavedDeals(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	createTestDeal(t, store, "deal1", "groceries", 280, 210, now.AddDate(0, 0, 7))

	if err := store.UpsertSavedDeal(ctx, "user1", "deal1", now); err != nil {
		t.Fatalf("UpsertSavedDeal() error = %v", err)
	}
	// Saving again must refresh the timestamp, not add a row.
	if err := store.UpsertSavedDeal(ctx, "user1", "deal1", now.Add(time.Hour)); err != nil {
		t.Fatalf("UpsertSavedDeal() repeat error = %v", err)
	}

	records, err := store.GetSavedDeals(ctx, "user1")
	if err != nil {
		t.Fatalf("GetSavedDeals() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 saved deal after double save, got %d", len(records))
	}
	if !records[0].Saved.SavedAt.Equal(now.Add(time.Hour)) {
		t.Errorf("SavedAt = %v, want refreshed timestamp %v", records[0].Saved.SavedAt, now.Add(time.Hour))
	}
	if records[0].Deal.Product != "Product deal1" {
		t.Errorf("Joined deal product = %q, want Product deal1", records[0].Deal.Product)
	}

	if err := store.MarkSavedDealUsed(ctx, "user1", "deal1"); err != nil {
		t.Fatalf("MarkSavedDealUsed() error = %v", err)
	}
	records, err = store.GetSavedDeals(ctx, "user1")
	if err != nil {
		t.Fatalf("GetSavedDeals() error = %v", err)
	}
	if !records[0].Saved.Used {
		t.Error("Saved deal not flagged as used")
	}
}

func TestSQLiteStorage_MarkSavedDealUsed_NotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	err := store.MarkSavedDealUsed(ctx, "user1", "no-such-deal")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("MarkSavedDealUsed() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_UpsertSavedDeal_KeepsUsedFlag(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	createTestDeal(t, store, "deal1", "groceries", 280, 210, now.AddDate(0, 0, 7))

	if err := store.UpsertSavedDeal(ctx, "user1", "deal1", now); err != nil {
		t.Fatalf("UpsertSavedDeal() error = %v", err)
	}
	if err := store.MarkSavedDealUsed(ctx, "user1", "deal1"); err != nil {
		t.Fatalf("MarkSavedDealUsed() error = %v", err)
	}
	// Re-saving a used deal must not clear the used flag.
	if err := store.UpsertSavedDeal(ctx, "user1", "deal1", now.Add(time.Hour)); err != nil {
		t.Fatalf("UpsertSavedDeal() repeat error = %v", err)
	}

	records, err := store.GetSavedDeals(ctx, "user1")
	if err != nil {
		t.Fatalf("GetSavedDeals() error = %v", err)
	}
	if len(records) != 1 || !records[0].Saved.Used {
		t.Errorf("Expected 1 record still flagged used, got %+v", records)
	}
}
