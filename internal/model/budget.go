package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget represents a spending ceiling over a date window.
type Budget struct {
	StartDate   time.Time
	EndDate     time.Time
	CreatedAt   time.Time
	ID          string
	OwnerID     string
	Name        string
	TotalAmount decimal.Decimal
	Allocations []CategoryAllocation
	IsActive    bool
}

// CategoryAllocation is a budget's per-category spending ceiling. The referenced
// category must be owned by the same user as the budget.
type CategoryAllocation struct {
	ID           string
	BudgetID     string
	CategoryID   string
	CategoryName string
	Amount       decimal.Decimal
}

// Covers reports whether t falls inside the budget window, bounds inclusive.
func (b *Budget) Covers(t time.Time) bool {
	return !t.Before(b.StartDate) && !t.After(b.EndDate)
}

// BudgetTier classifies a budget relative to its ceiling.
type BudgetTier string

const (
	// TierOnTrack means spending is below the warning threshold.
	TierOnTrack BudgetTier = "on_track"
	// TierWarning means spending has reached 80% of the ceiling.
	TierWarning BudgetTier = "warning"
	// TierOver means spending has reached or passed the ceiling.
	TierOver BudgetTier = "over"
)

// AlertSeverity grades a surfaced budget alert.
type AlertSeverity string

const (
	// SeverityInfo covers usage in [80%, 90%).
	SeverityInfo AlertSeverity = "info"
	// SeverityWarning covers usage in [90%, 100%).
	SeverityWarning AlertSeverity = "warning"
	// SeverityCritical covers usage at or past 100%.
	SeverityCritical AlertSeverity = "critical"
)
