// Package service defines the storage contract the engine packages depend on.
// Engine components hold no per-call state; each takes a Storage by injection
// and computes from what it reads.
package service

import (
	"context"
	"time"

	"github.com/shadatr/costsense-backend/internal/model"
)

// ExpenseFilter defines filtering options for expense queries. Date bounds are
// inclusive; nil means unbounded on that side.
type ExpenseFilter struct {
	Start   *time.Time
	End     *time.Time
	OwnerID string
	Limit   int
}

// SavedDealRecord joins a saved-deal row with the deal it references.
type SavedDealRecord struct {
	Saved model.SavedDeal
	Deal  model.Deal
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Expense reads
	GetExpenses(ctx context.Context, filter ExpenseFilter) ([]model.Expense, error)
	GetRecentExpenses(ctx context.Context, ownerID string, limit int) ([]model.Expense, error)
	CreateExpense(ctx context.Context, expense *model.Expense) error

	// Category reads
	GetCategories(ctx context.Context, ownerID string) ([]model.Category, error)
	GetCategoryByName(ctx context.Context, ownerID, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error

	// Budget reads (budgets come back with their allocations attached)
	GetBudget(ctx context.Context, id, ownerID string) (*model.Budget, error)
	GetActiveBudgets(ctx context.Context, ownerID string, at time.Time) ([]model.Budget, error)
	CreateBudget(ctx context.Context, budget *model.Budget) error

	// Inflation snapshots
	GetLatestInflationRecord(ctx context.Context) (*model.InflationRecord, error)
	GetInflationHistory(ctx context.Context, since time.Time) ([]model.InflationRecord, error)
	UpsertInflationRecord(ctx context.Context, record *model.InflationRecord) error

	// Deals
	GetActiveDeals(ctx context.Context, now time.Time) ([]model.Deal, error)
	GetDealByID(ctx context.Context, id string) (*model.Deal, error)
	GetDealsByCategory(ctx context.Context, category string, now time.Time) ([]model.Deal, error)
	CreateDeal(ctx context.Context, deal *model.Deal) error
	DeactivateExpiredDeals(ctx context.Context, now time.Time) (int64, error)

	// Saved deals (idempotent upsert keyed by owner+deal)
	UpsertSavedDeal(ctx context.Context, ownerID, dealID string, savedAt time.Time) error
	GetSavedDeals(ctx context.Context, ownerID string) ([]SavedDealRecord, error)
	MarkSavedDealUsed(ctx context.Context, ownerID, dealID string) error

	// Savings tips
	GetActiveTips(ctx context.Context) ([]model.SavingsTip, error)
	GetTipByID(ctx context.Context, id string) (*model.SavingsTip, error)
	GetTipsByTipCategories(ctx context.Context, categories []string) ([]model.SavingsTip, error)
	CreateTip(ctx context.Context, tip *model.SavingsTip) error
	DeactivateTip(ctx context.Context, id string) error

	// Tip interactions (sticky upserts keyed by owner+tip)
	GetTipInteractions(ctx context.Context, ownerID string) ([]model.TipInteraction, error)
	MarkTipViewed(ctx context.Context, ownerID, tipID string, at time.Time) error
	SetTipFeedback(ctx context.Context, ownerID, tipID string, helpful bool, at time.Time) error
	DismissTip(ctx context.Context, ownerID, tipID string) error
	GetTipEffectiveness(ctx context.Context, tipID string) (*model.TipEffectiveness, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
