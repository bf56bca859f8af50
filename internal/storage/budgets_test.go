package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shadatr/costsense-backend/internal/model"
)

// Helper function to create a budget with one allocation per category ID.
func createTestBudget(t *testing.T, store *SQLiteStorage, id, ownerID string, start, end time.Time, createdAt time.Time, categoryIDs ...string) *model.Budget {
	t.Helper()
	budget := &model.Budget{
		ID:          id,
		OwnerID:     ownerID,
		Name:        "Budget " + id,
		TotalAmount: decimal.NewFromInt(10000),
		StartDate:   start,
		EndDate:     end,
		IsActive:    true,
		CreatedAt:   createdAt,
	}
	for i, catID := range categoryIDs {
		budget.Allocations = append(budget.Allocations, model.CategoryAllocation{
			ID:         id + "-alloc-" + catID,
			BudgetID:   id,
			CategoryID: catID,
			Amount:     decimal.NewFromInt(int64((i + 1) * 1000)),
		})
	}
	if err := store.CreateBudget(context.Background(), budget); err != nil {
		t.Fatalf("Failed to create budget %q: %v", id, err)
	}
	return budget
}

func TestSQLiteStorage_GetBudget(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	catID := createTestCategory(t, store, "user1", "Groceries")
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)
	createTestBudget(t, store, "budget1", "user1", start, end, time.Now(), catID)

	got, err := store.GetBudget(ctx, "budget1", "user1")
	if err != nil {
		t.Fatalf("GetBudget() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetBudget() returned nil for existing budget")
	}
	if len(got.Allocations) != 1 {
		t.Fatalf("Expected 1 allocation, got %d", len(got.Allocations))
	}
	// The allocation carries the joined category name.
	if got.Allocations[0].CategoryName != "Groceries" {
		t.Errorf("Allocation category name = %q, want Groceries", got.Allocations[0].CategoryName)
	}
	if !got.TotalAmount.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("Total amount = %s, want 10000", got.TotalAmount)
	}
}

func TestSQLiteStorage_CreateBudget_RejectsForeignCategory(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	ownCat := createTestCategory(t, store, "user1", "Groceries")
	otherCat := createTestCategory(t, store, "user2", "Private")
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)

	budget := &model.Budget{
		ID:          "budget1",
		OwnerID:     "user1",
		Name:        "Monthly Budget",
		TotalAmount: decimal.NewFromInt(10000),
		StartDate:   start,
		EndDate:     end,
		IsActive:    true,
		Allocations: []model.CategoryAllocation{
			{ID: "a1", BudgetID: "budget1", CategoryID: ownCat, Amount: decimal.NewFromInt(3000)},
			{ID: "a2", BudgetID: "budget1", CategoryID: otherCat, Amount: decimal.NewFromInt(2000)},
		},
	}

	err := store.CreateBudget(ctx, budget)
	if !errors.Is(err, ErrForeignCategory) {
		t.Fatalf("CreateBudget() with another owner's category error = %v, want ErrForeignCategory", err)
	}

	// The transaction must roll back as a whole: no budget row survives.
	got, err := store.GetBudget(ctx, "budget1", "user1")
	if err != nil {
		t.Fatalf("GetBudget() error = %v", err)
	}
	if got != nil {
		t.Error("Budget persisted despite the rejected allocation")
	}
}

func TestSQLiteStorage_GetBudget_WrongOwner(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	catID := createTestCategory(t, store, "user1", "Groceries")
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)
	createTestBudget(t, store, "budget1", "user1", start, end, time.Now(), catID)

	got, err := store.GetBudget(ctx, "budget1", "user2")
	if err != nil {
		t.Fatalf("GetBudget() error = %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for another owner's budget, got %+v", got)
	}
}

func TestSQLiteStorage_GetActiveBudgets(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	catID := createTestCategory(t, store, "user1", "Groceries")
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	// Two budgets covering now, one created later than the other, plus one
	// whose window has already closed.
	createTestBudget(t, store, "older", "user1",
		now.AddDate(0, -1, 0), now.AddDate(0, 1, 0), now.AddDate(0, 0, -10), catID)
	createTestBudget(t, store, "newer", "user1",
		now.AddDate(0, 0, -14), now.AddDate(0, 0, 14), now.AddDate(0, 0, -1), catID)
	createTestBudget(t, store, "closed", "user1",
		now.AddDate(0, -2, 0), now.AddDate(0, -1, 0), now.AddDate(0, 0, -40), catID)

	got, err := store.GetActiveBudgets(ctx, "user1", now)
	if err != nil {
		t.Fatalf("GetActiveBudgets() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 active budgets, got %d", len(got))
	}
	// Most recently created first.
	if got[0].ID != "newer" || got[1].ID != "older" {
		t.Errorf("Active budget order = [%s, %s], want [newer, older]", got[0].ID, got[1].ID)
	}
	for _, b := range got {
		if len(b.Allocations) != 1 {
			t.Errorf("Budget %s came back with %d allocations, want 1", b.ID, len(b.Allocations))
		}
	}
}

func TestSQLiteStorage_GetActiveBudgets_WindowBoundsInclusive(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	catID := createTestCategory(t, store, "user1", "Groceries")
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	createTestBudget(t, store, "budget1", "user1", start, end, time.Now(), catID)

	for _, at := range []time.Time{start, end} {
		got, err := store.GetActiveBudgets(ctx, "user1", at)
		if err != nil {
			t.Fatalf("GetActiveBudgets(%v) error = %v", at, err)
		}
		if len(got) != 1 {
			t.Errorf("GetActiveBudgets(%v) returned %d budgets, want 1 (bounds inclusive)", at, len(got))
		}
	}
}
