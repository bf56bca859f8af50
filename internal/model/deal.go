package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Location is a geographic point with an optional street address.
type Location struct {
	Address string  `json:"address,omitempty"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Deal is a discounted product offer at a store location. A deal whose ValidUntil
// has passed is invisible to all engine reads; deactivating it is housekeeping,
// not a correctness requirement.
type Deal struct {
	ValidUntil time.Time
	CreatedAt  time.Time
	ID         string
	Product    string
	Store      string
	Category   string
	Location   Location
	OldPrice   decimal.Decimal
	NewPrice   decimal.Decimal
	IsActive   bool
}

// DiscountPercent derives the discount from the price pair: (old-new)/old*100.
// A non-positive old price yields zero rather than a division error.
func (d *Deal) DiscountPercent() float64 {
	if !d.OldPrice.IsPositive() {
		return 0
	}
	pct, _ := d.OldPrice.Sub(d.NewPrice).Div(d.OldPrice).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// Visible reports whether the deal should be surfaced at the given instant.
func (d *Deal) Visible(now time.Time) bool {
	return d.IsActive && !d.ValidUntil.Before(now)
}

// SavedDeal links a user to a deal they chose to track. At most one row exists
// per (owner, deal); re-saving refreshes SavedAt.
type SavedDeal struct {
	SavedAt time.Time
	OwnerID string
	DealID  string
	Used    bool
}

// DealWithDistance is a deal annotated with its distance from a query point.
type DealWithDistance struct {
	Deal
	DistanceKm float64
}
