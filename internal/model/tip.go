package model

import "time"

// TipPriority orders savings tips from most to least urgent.
type TipPriority string

const (
	TipPriorityHigh   TipPriority = "high"
	TipPriorityMedium TipPriority = "medium"
	TipPriorityLow    TipPriority = "low"
)

// Rank maps a priority to a sortable weight, high first. Unknown
// priorities sort last.
func (p TipPriority) Rank() int {
	switch p {
	case TipPriorityHigh:
		return 0
	case TipPriorityMedium:
		return 1
	case TipPriorityLow:
		return 2
	default:
		return 3
	}
}

// SavingsTip is a curated piece of money-saving advice. Tips are global
// content, not per-user rows; per-user state lives in TipInteraction.
type SavingsTip struct {
	CreatedAt   time.Time
	ID          string
	Title       string
	Description string
	Icon        string
	Category    string
	Priority    TipPriority
	IsActive    bool
}

// TipInteraction is one user's state for one tip. Helpful is nil until the
// user submits feedback either way.
type TipInteraction struct {
	ViewedAt  *time.Time
	Helpful   *bool
	OwnerID   string
	TipID     string
	Viewed    bool
	Dismissed bool
}

// PersonalizedTip is a tip decorated with the requesting user's interaction
// state.
type PersonalizedTip struct {
	SavingsTip
	Viewed  bool
	Helpful *bool
}

// TipEffectiveness aggregates interaction counts for a single tip.
type TipEffectiveness struct {
	TipID             string
	TotalViews        int
	HelpfulVotes      int
	NotHelpfulVotes   int
	Dismissals        int
	HelpfulPercentage int
}
