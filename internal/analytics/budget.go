package analytics

import (
	"context"
	"fmt"

	"github.com/shadatr/costsense-backend/internal/common"
	"github.com/shadatr/costsense-backend/internal/model"
	"github.com/shadatr/costsense-backend/internal/service"
	"github.com/shopspring/decimal"
)

// Budget usage thresholds in percent. Tests assert on these directly.
const (
	// WarnThreshold is the usage percentage where a budget leaves on_track.
	WarnThreshold = 80.0
	// CriticalThreshold is the usage percentage where an alert escalates
	// from info to warning severity.
	CriticalThreshold = 90.0
	// OverThreshold is the usage percentage where a budget is over.
	OverThreshold = 100.0
)

// AllocationStatus is the evaluation of one per-category ceiling.
type AllocationStatus struct {
	CategoryID   string
	CategoryName string
	Budgeted     decimal.Decimal
	Spent        decimal.Decimal
	Percentage   float64
	Tier         model.BudgetTier
}

// BudgetStatus is the full evaluation of a budget against its window's spend.
type BudgetStatus struct {
	Budget     model.Budget
	Spent      decimal.Decimal
	Remaining  decimal.Decimal
	Percentage float64
	Tier       model.BudgetTier
	Categories []AllocationStatus
}

// BudgetAlert is a surfaced warning for a budget at or past the warn threshold.
type BudgetAlert struct {
	BudgetID    string
	BudgetName  string
	TotalAmount decimal.Decimal
	Spent       decimal.Decimal
	Percentage  float64
	Tier        model.BudgetTier
	Severity    model.AlertSeverity
}

// TierFor classifies a usage percentage. Rules are checked in order; the
// first match wins.
func TierFor(percentage float64) model.BudgetTier {
	switch {
	case percentage >= OverThreshold:
		return model.TierOver
	case percentage >= WarnThreshold:
		return model.TierWarning
	default:
		return model.TierOnTrack
	}
}

// SeverityFor grades an alert from its usage percentage. Only meaningful for
// percentages at or past the warn threshold.
func SeverityFor(percentage float64) model.AlertSeverity {
	switch {
	case percentage >= OverThreshold:
		return model.SeverityCritical
	case percentage >= CriticalThreshold:
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}

// EvaluateBudget computes a budget's status from the given expenses. Only
// expenses inside the budget window (bounds inclusive) count. Each allocation
// is evaluated independently against the expenses matching its category; an
// allocation whose category saw no spending reports zero.
func EvaluateBudget(budget *model.Budget, expenses []model.Expense) (*BudgetStatus, error) {
	if budget == nil {
		return nil, fmt.Errorf("%w: budget is nil", common.ErrInvalidBudget)
	}
	if !budget.TotalAmount.IsPositive() {
		return nil, fmt.Errorf("%w: total amount %s", common.ErrInvalidBudget, budget.TotalAmount)
	}

	spent := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	for _, exp := range expenses {
		if !budget.Covers(exp.OccurredAt) {
			continue
		}
		spent = spent.Add(exp.Amount)
		byCategory[exp.CategoryID] = byCategory[exp.CategoryID].Add(exp.Amount)
	}

	percentage := usagePercent(spent, budget.TotalAmount)

	status := &BudgetStatus{
		Budget:     *budget,
		Spent:      spent.Round(2),
		Remaining:  budget.TotalAmount.Sub(spent).Round(2),
		Percentage: percentage,
		Tier:       TierFor(percentage),
	}

	for _, alloc := range budget.Allocations {
		catSpent := byCategory[alloc.CategoryID]
		catPct := 0.0
		if alloc.Amount.IsPositive() {
			catPct = usagePercent(catSpent, alloc.Amount)
		}
		status.Categories = append(status.Categories, AllocationStatus{
			CategoryID:   alloc.CategoryID,
			CategoryName: alloc.CategoryName,
			Budgeted:     alloc.Amount,
			Spent:        catSpent.Round(2),
			Percentage:   catPct,
			Tier:         TierFor(catPct),
		})
	}

	return status, nil
}

// BudgetStatus evaluates one budget by id, scoped to its owner.
func (a *Analyzer) BudgetStatus(ctx context.Context, budgetID, ownerID string) (*BudgetStatus, error) {
	budget, err := a.store.GetBudget(ctx, budgetID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load budget: %w", err)
	}
	if budget == nil {
		return nil, fmt.Errorf("%w: budget %s", common.ErrNotFound, budgetID)
	}

	expenses, err := a.store.GetExpenses(ctx, service.ExpenseFilter{
		OwnerID: ownerID,
		Start:   &budget.StartDate,
		End:     &budget.EndDate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	return EvaluateBudget(budget, expenses)
}

// BudgetAlerts returns one alert per active budget whose usage has reached the
// warn threshold. On-track budgets are never surfaced.
func (a *Analyzer) BudgetAlerts(ctx context.Context, ownerID string) ([]BudgetAlert, error) {
	budgets, err := a.store.GetActiveBudgets(ctx, ownerID, a.now())
	if err != nil {
		return nil, fmt.Errorf("failed to load active budgets: %w", err)
	}

	alerts := []BudgetAlert{}
	for i := range budgets {
		budget := &budgets[i]
		status, err := a.budgetWindowStatus(ctx, budget, ownerID)
		if err != nil {
			return nil, err
		}
		if status.Percentage < WarnThreshold {
			continue
		}
		alerts = append(alerts, BudgetAlert{
			BudgetID:    budget.ID,
			BudgetName:  budget.Name,
			TotalAmount: budget.TotalAmount,
			Spent:       status.Spent,
			Percentage:  status.Percentage,
			Tier:        status.Tier,
			Severity:    SeverityFor(status.Percentage),
		})
	}
	return alerts, nil
}

func (a *Analyzer) budgetWindowStatus(ctx context.Context, budget *model.Budget, ownerID string) (*BudgetStatus, error) {
	expenses, err := a.store.GetExpenses(ctx, service.ExpenseFilter{
		OwnerID: ownerID,
		Start:   &budget.StartDate,
		End:     &budget.EndDate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	return EvaluateBudget(budget, expenses)
}

func usagePercent(spent, total decimal.Decimal) float64 {
	pct, _ := spent.Mul(decimal.NewFromInt(100)).Div(total).Float64()
	return pct
}
