package inflation

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

var testNow = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return NewWithClock(store, func() time.Time { return testNow }), store
}

func seedSnapshot(t *testing.T, store *storage.SQLiteStorage, date time.Time, overall float64, rates map[string]float64) {
	t.Helper()
	require.NoError(t, store.UpsertInflationRecord(context.Background(), &model.InflationRecord{
		Date:          date,
		OverallRate:   overall,
		CategoryRates: rates,
		Trend:         model.TrendStable,
		Source:        "test",
	}))
}

func seedMonthlySnapshots(t *testing.T, store *storage.SQLiteStorage, rates []float64) {
	t.Helper()
	monthsBack := len(rates) - 1
	for i, rate := range rates {
		date := time.Date(testNow.Year(), testNow.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, i-monthsBack, 0)
		seedSnapshot(t, store, date, rate, nil)
	}
}

func TestService_Current(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Current(ctx)
	assert.ErrorIs(t, err, common.ErrNoInflationData)

	seedSnapshot(t, store, testNow.AddDate(0, -1, 0), 64.5, nil)
	seedSnapshot(t, store, testNow, 64.8, map[string]float64{"groceries": 72.1})

	record, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 64.8, record.OverallRate)
}

func TestService_History(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedMonthlySnapshots(t, store, []float64{62.0, 63.1, 64.8})

	records, err := svc.History(ctx, 6)
	require.NoError(t, err)
	require.Len(t, records, 3)
	// Newest first.
	assert.Equal(t, 64.8, records[0].OverallRate)
	assert.Equal(t, 62.0, records[2].OverallRate)

	_, err = svc.History(ctx, 0)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = svc.History(ctx, MaxHistoryMonths+1)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestService_Forecast(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	t.Run("insufficient data", func(t *testing.T) {
		_, err := svc.Forecast(ctx, 3)
		assert.ErrorIs(t, err, common.ErrInsufficientData)
	})

	t.Run("linear history extends linearly", func(t *testing.T) {
		seedMonthlySnapshots(t, store, []float64{60, 61, 62, 63})

		got, err := svc.Forecast(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.InDelta(t, 64.0, got[0], 1e-9)
		assert.InDelta(t, 65.0, got[1], 1e-9)
	})

	t.Run("horizon bounds", func(t *testing.T) {
		_, err := svc.Forecast(ctx, 0)
		assert.ErrorIs(t, err, common.ErrInvalidInput)
		_, err = svc.Forecast(ctx, MaxForecastMonths+1)
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})
}

func TestService_CategoryRate(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedSnapshot(t, store, testNow, 64.8, map[string]float64{"groceries": 72.1})

	rate, err := svc.CategoryRate(ctx, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, 72.1, rate)

	// Unknown categories fall back to the overall rate.
	rate, err = svc.CategoryRate(ctx, "Electronics")
	require.NoError(t, err)
	assert.Equal(t, 64.8, rate)

	_, err = svc.CategoryRate(ctx, "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func seedImpactBudget(t *testing.T, store *storage.SQLiteStorage) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.CreateCategory(ctx, &model.Category{
		ID: "cat-groc", OwnerID: "user1", Name: "Groceries", Color: "#10B981", Icon: "🛒",
	}))
	require.NoError(t, store.CreateCategory(ctx, &model.Category{
		ID: "cat-util", OwnerID: "user1", Name: "Utilities", Color: "#F59E0B", Icon: "💡",
	}))
	require.NoError(t, store.CreateBudget(ctx, &model.Budget{
		ID:          "budget1",
		OwnerID:     "user1",
		Name:        "Monthly Budget",
		TotalAmount: decimal.NewFromInt(30000),
		StartDate:   testNow.AddDate(0, 0, -14),
		EndDate:     testNow.AddDate(0, 0, 14),
		IsActive:    true,
		Allocations: []model.CategoryAllocation{
			{ID: "a1", BudgetID: "budget1", CategoryID: "cat-groc", Amount: decimal.NewFromInt(8000)},
			{ID: "a2", BudgetID: "budget1", CategoryID: "cat-util", Amount: decimal.NewFromInt(4000)},
		},
	}))
}

func TestService_Impact(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	seedImpactBudget(t, store)
	seedSnapshot(t, store, testNow, 64.8, map[string]float64{"groceries": 72.1})

	impact, err := svc.Impact(ctx, "user1", "")
	require.NoError(t, err)
	require.Len(t, impact.Categories, 2)

	// Allocations come back ordered by category name.
	groc := impact.Categories[0]
	assert.Equal(t, "Groceries", groc.Category)
	assert.Equal(t, 72.1, groc.Rate)
	// 8000 * 1.721 = 13768
	assert.True(t, groc.Adjusted.Equal(decimal.NewFromInt(13768)), "adjusted = %s", groc.Adjusted)
	assert.True(t, groc.Impact.Equal(decimal.NewFromInt(5768)), "impact = %s", groc.Impact)
	assert.InDelta(t, 72.1, groc.ImpactPercentage, 0.01)

	// Utilities has no category rate and falls back to the overall 64.8.
	util := impact.Categories[1]
	assert.Equal(t, 64.8, util.Rate)
	// 4000 * 1.648 = 6592
	assert.True(t, util.Adjusted.Equal(decimal.NewFromInt(6592)), "adjusted = %s", util.Adjusted)
	assert.True(t, util.Impact.Equal(decimal.NewFromInt(2592)), "impact = %s", util.Impact)

	assert.True(t, impact.TotalImpact.Equal(decimal.NewFromInt(8360)), "total = %s", impact.TotalImpact)
}

func TestService_Impact_Errors(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	// No snapshot at all.
	_, err := svc.Impact(ctx, "user1", "")
	assert.ErrorIs(t, err, common.ErrNoInflationData)

	seedSnapshot(t, store, testNow, 64.8, nil)

	// Snapshot present but no active budget.
	_, err = svc.Impact(ctx, "user1", "")
	assert.ErrorIs(t, err, common.ErrNoActiveBudget)

	// Explicit budget id that does not exist.
	_, err = svc.Impact(ctx, "user1", "no-such-budget")
	assert.ErrorIs(t, err, common.ErrNoActiveBudget)
}

func TestService_RefreshSnapshot(t *testing.T) {
	t.Run("nothing stored means upstream unavailable", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.RefreshSnapshot(context.Background())
		assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
	})

	t.Run("writes a snapshot for today with a one-step forecast", func(t *testing.T) {
		svc, store := newTestService(t)
		ctx := context.Background()

		seedMonthlySnapshots(t, store, []float64{62.0, 63.0, 64.0})

		record, err := svc.RefreshSnapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, 64.0, record.OverallRate)
		require.NotNil(t, record.PredictedRate)
		assert.InDelta(t, 65.0, *record.PredictedRate, 1e-9)

		latest, err := store.GetLatestInflationRecord(ctx)
		require.NoError(t, err)
		assert.Equal(t, testNow.Format("2006-01-02"), latest.Date.Format("2006-01-02"))
	})

	t.Run("runs twice in a day without duplicating", func(t *testing.T) {
		svc, store := newTestService(t)
		ctx := context.Background()

		seedSnapshot(t, store, testNow.AddDate(0, -1, 0), 64.5, nil)

		_, err := svc.RefreshSnapshot(ctx)
		require.NoError(t, err)
		_, err = svc.RefreshSnapshot(ctx)
		require.NoError(t, err)

		history, err := store.GetInflationHistory(ctx, testNow.AddDate(0, -2, 0))
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})

	t.Run("trend tracks the rate movement", func(t *testing.T) {
		svc, store := newTestService(t)
		ctx := context.Background()

		seedSnapshot(t, store, testNow.AddDate(0, -1, 0), 60.0, nil)
		seedSnapshot(t, store, testNow.AddDate(0, 0, -3), 63.0, nil)

		record, err := svc.RefreshSnapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.TrendUp, record.Trend)
	})

	t.Run("small movement stays stable", func(t *testing.T) {
		svc, store := newTestService(t)
		ctx := context.Background()

		seedSnapshot(t, store, testNow.AddDate(0, -1, 0), 64.5, nil)
		seedSnapshot(t, store, testNow.AddDate(0, 0, -3), 64.8, nil)

		record, err := svc.RefreshSnapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.TrendStable, record.Trend)
	})
}
