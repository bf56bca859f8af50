package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/shadatr/costsense-backend/internal/model"
	"github.com/shadatr/costsense-backend/internal/service"
	"github.com/shopspring/decimal"
)

// RecentExpenseLimit caps how many recent expenses the dashboard shows.
const RecentExpenseLimit = 10

// RecentExpense is an expense decorated with its category's display data.
type RecentExpense struct {
	Expense  model.Expense
	Category string
	Color    string
	Icon     string
}

// DashboardSummary is the aggregate-of-aggregates backing the landing view.
type DashboardSummary struct {
	TotalExpenses     decimal.Decimal
	ExpenseCount      int
	TotalBudget       decimal.Decimal
	BudgetUsage       float64 // percent, rounded to the nearest integer
	RecentExpenses    []RecentExpense
	CategoryBreakdown []CategorySpend
}

// DashboardSummary assembles the current-month totals, active-budget usage,
// latest expenses, and category breakdown in one pass.
func (a *Analyzer) DashboardSummary(ctx context.Context, ownerID string) (*DashboardSummary, error) {
	now := a.now()
	monthStart := startOfMonth(now)
	monthEnd := endOfMonth(now)

	expenses, err := a.store.GetExpenses(ctx, service.ExpenseFilter{
		OwnerID: ownerID,
		Start:   &monthStart,
		End:     &monthEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	totalSpent := decimal.Zero
	for _, exp := range expenses {
		totalSpent = totalSpent.Add(exp.Amount)
	}

	budgets, err := a.store.GetActiveBudgets(ctx, ownerID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load active budgets: %w", err)
	}
	totalBudget := decimal.Zero
	for _, b := range budgets {
		totalBudget = totalBudget.Add(b.TotalAmount)
	}

	// No active budget means zero usage, never a division error.
	usage := 0.0
	if totalBudget.IsPositive() {
		usage = math.Round(usagePercent(totalSpent, totalBudget))
	}

	recent, err := a.recentExpenses(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	breakdown, err := a.SpendingByCategory(ctx, ownerID, &monthStart, &monthEnd)
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{
		TotalExpenses:     totalSpent.Round(2),
		ExpenseCount:      len(expenses),
		TotalBudget:       totalBudget.Round(2),
		BudgetUsage:       usage,
		RecentExpenses:    recent,
		CategoryBreakdown: breakdown,
	}, nil
}

func (a *Analyzer) recentExpenses(ctx context.Context, ownerID string) ([]RecentExpense, error) {
	expenses, err := a.store.GetRecentExpenses(ctx, ownerID, RecentExpenseLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent expenses: %w", err)
	}

	categories, err := a.store.GetCategories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	byID := make(map[string]model.Category, len(categories))
	for _, cat := range categories {
		byID[cat.ID] = cat
	}

	recent := make([]RecentExpense, 0, len(expenses))
	for _, exp := range expenses {
		item := RecentExpense{
			Expense:  exp,
			Category: model.UnknownCategoryName,
			Color:    model.UnknownCategoryColor,
			Icon:     model.UnknownCategoryIcon,
		}
		if cat, ok := byID[exp.CategoryID]; ok {
			item.Category = cat.Name
			item.Color = cat.Color
			item.Icon = cat.Icon
		}
		recent = append(recent, item)
	}
	return recent, nil
}
