package geo

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shadatr/costsense-backend/internal/common"
	"github.com/shadatr/costsense-backend/internal/model"
	"github.com/shadatr/costsense-backend/internal/service"
)

const (
	// MaxRadiusKm is the largest radius a nearby query may ask for.
	MaxRadiusKm = 50.0
	// FallbackDistanceKm is how far the closest deal must be before an empty
	// radius search falls back to the globally closest deals.
	FallbackDistanceKm = 100.0
	// FallbackMaxDeals caps the fallback result.
	FallbackMaxDeals = 20
)

// NearbyResult is a distance-ordered deal list. Fallback is set when the
// radius matched nothing and the sparse-data fallback kicked in, in which
// case distances may exceed the requested radius.
type NearbyResult struct {
	Deals    []model.DealWithDistance
	Fallback bool
}

// Matcher finds deals near a point and manages a user's saved deals.
// Stateless; all reads and writes go through the injected storage.
type Matcher struct {
	store service.Storage
	now   func() time.Time
}

// NewMatcher creates a deal matcher backed by the given storage.
func NewMatcher(store service.Storage) *Matcher {
	return &Matcher{store: store, now: time.Now}
}

// NewMatcherWithClock creates a deal matcher with an injected clock for tests.
func NewMatcherWithClock(store service.Storage, now func() time.Time) *Matcher {
	return &Matcher{store: store, now: now}
}

// Nearby returns visible deals within radiusKm of the point, closest first
// (ties broken by deal id). When nothing is in range and even the closest
// deal is beyond FallbackDistanceKm, it returns up to FallbackMaxDeals of the
// globally closest deals instead of an empty list; with no visible deals at
// all the result is simply empty.
func (m *Matcher) Nearby(ctx context.Context, lat, lng, radiusKm float64) (*NearbyResult, error) {
	if err := validatePoint(lat, lng); err != nil {
		return nil, err
	}
	if radiusKm <= 0 || radiusKm > MaxRadiusKm {
		return nil, common.Invalidf("radius must be in (0, %.0f] km, got %g", MaxRadiusKm, radiusKm)
	}

	deals, err := m.store.GetActiveDeals(ctx, m.now())
	if err != nil {
		return nil, fmt.Errorf("failed to load active deals: %w", err)
	}
	if len(deals) == 0 {
		return &NearbyResult{Deals: []model.DealWithDistance{}}, nil
	}

	point := model.Location{Lat: lat, Lng: lng}
	measured := make([]model.DealWithDistance, 0, len(deals))
	for _, deal := range deals {
		measured = append(measured, model.DealWithDistance{
			Deal:       deal,
			DistanceKm: roundKm(Distance(point, deal.Location)),
		})
	}
	sort.Slice(measured, func(i, j int) bool {
		if measured[i].DistanceKm != measured[j].DistanceKm {
			return measured[i].DistanceKm < measured[j].DistanceKm
		}
		return measured[i].ID < measured[j].ID
	})

	inRange := make([]model.DealWithDistance, 0, len(measured))
	for _, deal := range measured {
		if deal.DistanceKm <= radiusKm {
			inRange = append(inRange, deal)
		}
	}

	if len(inRange) == 0 && measured[0].DistanceKm > FallbackDistanceKm {
		// Sparse-data fallback: the user is nowhere near any deal, so an
		// empty list helps less than the closest ones with honest distances.
		capped := measured
		if len(capped) > FallbackMaxDeals {
			capped = capped[:FallbackMaxDeals]
		}
		return &NearbyResult{Deals: capped, Fallback: true}, nil
	}

	return &NearbyResult{Deals: inRange}, nil
}

// ByCategory returns visible deals whose category contains the given string,
// case-insensitively, best discount first.
func (m *Matcher) ByCategory(ctx context.Context, category string) ([]model.Deal, error) {
	if category == "" {
		return nil, common.Invalidf("category name is required")
	}

	deals, err := m.store.GetDealsByCategory(ctx, category, m.now())
	if err != nil {
		return nil, fmt.Errorf("failed to load deals by category: %w", err)
	}
	return deals, nil
}

// Track saves a deal for a user. Saving an already-saved deal refreshes its
// timestamp and never creates a second row.
func (m *Matcher) Track(ctx context.Context, ownerID, dealID string) error {
	deal, err := m.store.GetDealByID(ctx, dealID)
	if err != nil {
		return fmt.Errorf("failed to load deal: %w", err)
	}
	if deal == nil || !deal.Visible(m.now()) {
		return fmt.Errorf("%w: deal %s not found or expired", common.ErrNotFound, dealID)
	}

	if err := m.store.UpsertSavedDeal(ctx, ownerID, dealID, m.now()); err != nil {
		return fmt.Errorf("failed to save deal: %w", err)
	}
	return nil
}

// Saved returns the user's saved deals that are still visible, most recently
// saved first.
func (m *Matcher) Saved(ctx context.Context, ownerID string) ([]model.Deal, error) {
	records, err := m.store.GetSavedDeals(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved deals: %w", err)
	}

	now := m.now()
	deals := []model.Deal{}
	for _, rec := range records {
		if rec.Deal.Visible(now) {
			deals = append(deals, rec.Deal)
		}
	}
	return deals, nil
}

// MarkUsed flags a saved deal as redeemed.
func (m *Matcher) MarkUsed(ctx context.Context, ownerID, dealID string) error {
	return m.store.MarkSavedDealUsed(ctx, ownerID, dealID)
}

// SweepExpired deactivates deals past their validity. Reads already ignore
// them; this keeps the table tidy and is safe to run concurrently.
func (m *Matcher) SweepExpired(ctx context.Context) (int64, error) {
	return m.store.DeactivateExpiredDeals(ctx, m.now())
}

func validatePoint(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return common.Invalidf("latitude must be in [-90, 90], got %g", lat)
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return common.Invalidf("longitude must be in [-180, 180], got %g", lng)
	}
	return nil
}

// roundKm rounds a distance to one decimal for reporting and comparison.
func roundKm(km float64) float64 {
	return math.Round(km*10) / 10
}
