// Package model defines the core domain types for the analytics engine.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense represents a single spending record owned by a user.
type Expense struct {
	OccurredAt  time.Time
	ID          string
	OwnerID     string
	CategoryID  string
	Description string
	Amount      decimal.Decimal
}

// Category represents a user-defined expense category. Names are unique per owner.
type Category struct {
	CreatedAt time.Time
	ID        string
	OwnerID   string
	Name      string
	Color     string
	Icon      string
}

// Defaults rendered when an expense references a category that no longer resolves.
const (
	UnknownCategoryName  = "Unknown"
	UnknownCategoryColor = "#6b7280"
	UnknownCategoryIcon  = "📌"
)
