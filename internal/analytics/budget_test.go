package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadatr/costsense-backend/internal/common"
	"github.com/shadatr/costsense-backend/internal/model"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		percentage float64
		want       model.BudgetTier
	}{
		{0, model.TierOnTrack},
		{79.99, model.TierOnTrack},
		{80, model.TierWarning},
		{99.99, model.TierWarning},
		{100, model.TierOver},
		{150, model.TierOver},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.percentage), "percentage %v", tt.percentage)
	}
}

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		percentage float64
		want       model.AlertSeverity
	}{
		{80, model.SeverityInfo},
		{89.99, model.SeverityInfo},
		{90, model.SeverityWarning},
		{99.99, model.SeverityWarning},
		{100, model.SeverityCritical},
		{120, model.SeverityCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SeverityFor(tt.percentage), "percentage %v", tt.percentage)
	}
}

func testBudget(total int64) *model.Budget {
	return &model.Budget{
		ID:          "budget1",
		OwnerID:     "user1",
		Name:        "Monthly Budget",
		TotalAmount: decimal.NewFromInt(total),
		StartDate:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC),
		IsActive:    true,
	}
}

func testExpense(id, categoryID string, amount int64, occurredAt time.Time) model.Expense {
	return model.Expense{
		ID:         id,
		OwnerID:    "user1",
		CategoryID: categoryID,
		Amount:     decimal.NewFromInt(amount),
		OccurredAt: occurredAt,
	}
}

func TestEvaluateBudget(t *testing.T) {
	inWindow := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

	t.Run("warning tier at 85 percent", func(t *testing.T) {
		budget := testBudget(10000)
		expenses := []model.Expense{
			testExpense("e1", "cat1", 5000, inWindow),
			testExpense("e2", "cat1", 3500, inWindow),
		}

		status, err := EvaluateBudget(budget, expenses)
		require.NoError(t, err)
		assert.True(t, status.Spent.Equal(decimal.NewFromInt(8500)))
		assert.True(t, status.Remaining.Equal(decimal.NewFromInt(1500)))
		assert.InDelta(t, 85.0, status.Percentage, 1e-9)
		assert.Equal(t, model.TierWarning, status.Tier)
	})

	t.Run("over tier past the ceiling", func(t *testing.T) {
		budget := testBudget(10000)
		expenses := []model.Expense{testExpense("e1", "cat1", 10500, inWindow)}

		status, err := EvaluateBudget(budget, expenses)
		require.NoError(t, err)
		assert.Equal(t, model.TierOver, status.Tier)
		assert.InDelta(t, 105.0, status.Percentage, 1e-9)
		assert.True(t, status.Remaining.IsNegative())
	})

	t.Run("expenses outside the window do not count", func(t *testing.T) {
		budget := testBudget(10000)
		expenses := []model.Expense{
			testExpense("e1", "cat1", 5000, inWindow),
			testExpense("e2", "cat1", 9999, time.Date(2026, 7, 31, 23, 59, 59, 0, time.UTC)),
			testExpense("e3", "cat1", 9999, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)),
		}

		status, err := EvaluateBudget(budget, expenses)
		require.NoError(t, err)
		assert.True(t, status.Spent.Equal(decimal.NewFromInt(5000)))
		assert.Equal(t, model.TierOnTrack, status.Tier)
	})

	t.Run("window bounds are inclusive", func(t *testing.T) {
		budget := testBudget(10000)
		expenses := []model.Expense{
			testExpense("e1", "cat1", 1000, budget.StartDate),
			testExpense("e2", "cat1", 1000, budget.EndDate),
		}

		status, err := EvaluateBudget(budget, expenses)
		require.NoError(t, err)
		assert.True(t, status.Spent.Equal(decimal.NewFromInt(2000)))
	})

	t.Run("allocations evaluate independently", func(t *testing.T) {
		budget := testBudget(10000)
		budget.Allocations = []model.CategoryAllocation{
			{ID: "a1", CategoryID: "cat1", CategoryName: "Groceries", Amount: decimal.NewFromInt(2000)},
			{ID: "a2", CategoryID: "cat2", CategoryName: "Dining", Amount: decimal.NewFromInt(1000)},
		}
		expenses := []model.Expense{
			testExpense("e1", "cat1", 2100, inWindow), // over its allocation
			// cat2 saw no spending
		}

		status, err := EvaluateBudget(budget, expenses)
		require.NoError(t, err)
		require.Len(t, status.Categories, 2)

		groceries := status.Categories[0]
		assert.Equal(t, model.TierOver, groceries.Tier)
		assert.InDelta(t, 105.0, groceries.Percentage, 1e-9)

		dining := status.Categories[1]
		assert.True(t, dining.Spent.IsZero())
		assert.Equal(t, model.TierOnTrack, dining.Tier)
		assert.Zero(t, dining.Percentage)
	})

	t.Run("nil budget", func(t *testing.T) {
		_, err := EvaluateBudget(nil, nil)
		assert.ErrorIs(t, err, common.ErrInvalidBudget)
	})

	t.Run("non-positive total", func(t *testing.T) {
		budget := testBudget(0)
		_, err := EvaluateBudget(budget, nil)
		assert.ErrorIs(t, err, common.ErrInvalidBudget)
	})

	t.Run("no expenses at all", func(t *testing.T) {
		status, err := EvaluateBudget(testBudget(10000), nil)
		require.NoError(t, err)
		assert.True(t, status.Spent.IsZero())
		assert.Equal(t, model.TierOnTrack, status.Tier)
		assert.Zero(t, status.Percentage)
	})
}
