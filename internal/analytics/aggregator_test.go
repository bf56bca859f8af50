package analytics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadatr/costsense-backend/internal/common"
	"github.com/shadatr/costsense-backend/internal/model"
	"github.com/shadatr/costsense-backend/internal/storage"
)

// newTestStore opens a migrated throwaway database.
func newTestStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedCategory(t *testing.T, store *storage.SQLiteStorage, id, name string) {
	t.Helper()
	require.NoError(t, store.CreateCategory(context.Background(), &model.Category{
		ID:      id,
		OwnerID: "user1",
		Name:    name,
		Color:   "#10B981",
		Icon:    "🛒",
	}))
}

func seedExpense(t *testing.T, store *storage.SQLiteStorage, id, categoryID string, amount int64, occurredAt time.Time) {
	t.Helper()
	require.NoError(t, store.CreateExpense(context.Background(), &model.Expense{
		ID:         id,
		OwnerID:    "user1",
		CategoryID: categoryID,
		Amount:     decimal.NewFromInt(amount),
		OccurredAt: occurredAt,
	}))
}

func TestGroupExpenses(t *testing.T) {
	day1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)
	julDay := time.Date(2026, 7, 20, 10, 0, 0, 0, time.UTC)

	expenses := []model.Expense{
		{ID: "e1", CategoryID: "cat-b", Amount: decimal.NewFromInt(100), OccurredAt: day1},
		{ID: "e2", CategoryID: "cat-a", Amount: decimal.NewFromInt(300), OccurredAt: day1},
		{ID: "e3", CategoryID: "cat-b", Amount: decimal.NewFromInt(50), OccurredAt: day2},
		{ID: "e4", CategoryID: "cat-c", Amount: decimal.NewFromInt(150), OccurredAt: julDay},
	}

	t.Run("by category ordered by sum descending", func(t *testing.T) {
		buckets, err := GroupExpenses(expenses, GroupByCategory)
		require.NoError(t, err)
		require.Len(t, buckets, 3)
		assert.Equal(t, "cat-a", buckets[0].Key)
		assert.Equal(t, "cat-c", buckets[1].Key)
		assert.Equal(t, "cat-b", buckets[2].Key)
		assert.True(t, buckets[2].Sum.Equal(decimal.NewFromInt(150)))
		assert.Equal(t, 2, buckets[2].Count)
	})

	t.Run("category ties break by key ascending", func(t *testing.T) {
		tied := []model.Expense{
			{ID: "e1", CategoryID: "cat-z", Amount: decimal.NewFromInt(100), OccurredAt: day1},
			{ID: "e2", CategoryID: "cat-a", Amount: decimal.NewFromInt(100), OccurredAt: day1},
		}
		buckets, err := GroupExpenses(tied, GroupByCategory)
		require.NoError(t, err)
		require.Len(t, buckets, 2)
		assert.Equal(t, "cat-a", buckets[0].Key)
		assert.Equal(t, "cat-z", buckets[1].Key)
	})

	t.Run("by day in chronological order", func(t *testing.T) {
		buckets, err := GroupExpenses(expenses, GroupByDay)
		require.NoError(t, err)
		require.Len(t, buckets, 3)
		assert.Equal(t, "2026-07-20", buckets[0].Key)
		assert.Equal(t, "2026-08-01", buckets[1].Key)
		assert.Equal(t, "2026-08-02", buckets[2].Key)
	})

	t.Run("by month in chronological order", func(t *testing.T) {
		buckets, err := GroupExpenses(expenses, GroupByMonth)
		require.NoError(t, err)
		require.Len(t, buckets, 2)
		assert.Equal(t, "2026-07", buckets[0].Key)
		assert.Equal(t, "2026-08", buckets[1].Key)
		assert.True(t, buckets[1].Sum.Equal(decimal.NewFromInt(450)))
	})

	t.Run("empty input yields no buckets", func(t *testing.T) {
		buckets, err := GroupExpenses(nil, GroupByCategory)
		require.NoError(t, err)
		assert.Empty(t, buckets)
	})

	t.Run("unknown grouping", func(t *testing.T) {
		_, err := GroupExpenses(expenses, GroupBy("week"))
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})
}

func TestAnalyzer_SpendingByCategory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedCategory(t, store, "cat1", "Groceries")
	// A category the expense owner cannot see; its bucket must not resolve.
	require.NoError(t, store.CreateCategory(ctx, &model.Category{
		ID:      "cat-foreign",
		OwnerID: "user2",
		Name:    "Private",
		Color:   "#000000",
		Icon:    "🔒",
	}))

	when := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	seedExpense(t, store, "e1", "cat1", 1200, when)
	seedExpense(t, store, "e2", "cat1", 950, when.AddDate(0, 0, 1))
	seedExpense(t, store, "e3", "cat-foreign", 300, when)

	analyzer := NewAnalyzer(store)
	spends, err := analyzer.SpendingByCategory(ctx, "user1", nil, nil)
	require.NoError(t, err)
	require.Len(t, spends, 2)

	assert.Equal(t, "Groceries", spends[0].Category)
	assert.True(t, spends[0].Amount.Equal(decimal.NewFromInt(2150)))
	assert.Equal(t, 2, spends[0].Count)

	// The orphaned bucket renders with the unknown placeholders.
	assert.Equal(t, model.UnknownCategoryName, spends[1].Category)
	assert.Equal(t, model.UnknownCategoryColor, spends[1].Color)
	assert.Equal(t, model.UnknownCategoryIcon, spends[1].Icon)
}

func TestAnalyzer_BudgetStatus_NotFound(t *testing.T) {
	store := newTestStore(t)
	analyzer := NewAnalyzer(store)

	_, err := analyzer.BudgetStatus(context.Background(), "no-such-budget", "user1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAnalyzer_BudgetAlerts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	seedCategory(t, store, "cat1", "Groceries")
	require.NoError(t, store.CreateBudget(ctx, &model.Budget{
		ID:          "budget1",
		OwnerID:     "user1",
		Name:        "Monthly Budget",
		TotalAmount: decimal.NewFromInt(10000),
		StartDate:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC),
		IsActive:    true,
	}))

	analyzer := NewAnalyzerWithClock(store, func() time.Time { return now })

	// Below the warn threshold: no alert.
	seedExpense(t, store, "e1", "cat1", 7000, now)
	alerts, err := analyzer.BudgetAlerts(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, alerts)

	// Push usage to 92%: warning severity.
	seedExpense(t, store, "e2", "cat1", 2200, now)
	alerts, err = analyzer.BudgetAlerts(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "budget1", alerts[0].BudgetID)
	assert.Equal(t, model.TierWarning, alerts[0].Tier)
	assert.Equal(t, model.SeverityWarning, alerts[0].Severity)

	// Past the ceiling: critical.
	seedExpense(t, store, "e3", "cat1", 1000, now)
	alerts, err = analyzer.BudgetAlerts(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.SeverityCritical, alerts[0].Severity)
}
