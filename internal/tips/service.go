// Package tips serves curated savings advice, personalized against the
// user's last month of spending.
package tips

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shadatr/costsense-backend/internal/analytics"
	"github.com/shadatr/costsense-backend/internal/common"
	"github.com/shadatr/costsense-backend/internal/model"
	"github.com/shadatr/costsense-backend/internal/service"
	"github.com/shopspring/decimal"
)

// Tip categories. Every tip carries exactly one; personalization selects
// categories from recent spending.
const (
	CategoryRetail    = "RETAIL"
	CategoryTransport = "TRANSPORT"
	CategoryDining    = "DINING"
	CategoryBanking   = "BANKING"
	CategoryCrypto    = "CRYPTO"
	CategoryGeneral   = "GENERAL"
)

// Monthly spending cutoffs that trigger category-specific advice, and the cap
// on a personalized listing.
const (
	GroceriesCutoff      = 5000
	TransportationCutoff = 2000
	DiningCutoff         = 3000
	MaxPersonalizedTips  = 10
)

// Service lists savings tips and tracks per-user interaction with them.
// Stateless; all reads and writes go through the injected storage.
type Service struct {
	store    service.Storage
	analyzer *analytics.Analyzer
	now      func() time.Time
}

// NewService creates a tips service backed by the given storage.
func NewService(store service.Storage) *Service {
	return &Service{store: store, analyzer: analytics.NewAnalyzer(store), now: time.Now}
}

// NewServiceWithClock creates a tips service with an injected clock for tests.
func NewServiceWithClock(store service.Storage, now func() time.Time) *Service {
	return &Service{store: store, analyzer: analytics.NewAnalyzerWithClock(store, now), now: now}
}

// Active returns every active tip, highest priority first.
func (s *Service) Active(ctx context.Context) ([]model.SavingsTip, error) {
	tipList, err := s.store.GetActiveTips(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tips: %w", err)
	}
	return tipList, nil
}

// Personalized returns up to MaxPersonalizedTips tips chosen from the user's
// last month of spending. Heavy grocery spending pulls in retail advice,
// heavy transport spending pulls in transport advice, and so on; banking and
// crypto tips are always candidates. Tips the user dismissed never come back.
func (s *Service) Personalized(ctx context.Context, ownerID string) ([]model.PersonalizedTip, error) {
	if ownerID == "" {
		return nil, common.Invalidf("owner is required")
	}

	since := s.now().AddDate(0, -1, 0)
	spends, err := s.analyzer.SpendingByCategory(ctx, ownerID, &since, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate recent spending: %w", err)
	}

	byName := make(map[string]decimal.Decimal, len(spends))
	for _, spend := range spends {
		name := strings.ToLower(spend.Category)
		byName[name] = byName[name].Add(spend.Amount)
	}

	categories := make([]string, 0, 5)
	if byName["groceries"].GreaterThan(decimal.NewFromInt(GroceriesCutoff)) {
		categories = append(categories, CategoryRetail)
	}
	if byName["transportation"].GreaterThan(decimal.NewFromInt(TransportationCutoff)) {
		categories = append(categories, CategoryTransport)
	}
	if byName["dining"].GreaterThan(decimal.NewFromInt(DiningCutoff)) {
		categories = append(categories, CategoryDining)
	}
	categories = append(categories, CategoryBanking, CategoryCrypto)

	tipList, err := s.store.GetTipsByTipCategories(ctx, categories)
	if err != nil {
		return nil, fmt.Errorf("failed to load tips: %w", err)
	}

	interactions, err := s.store.GetTipInteractions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tip interactions: %w", err)
	}
	byTip := make(map[string]model.TipInteraction, len(interactions))
	for _, it := range interactions {
		byTip[it.TipID] = it
	}

	personalized := []model.PersonalizedTip{}
	for _, tip := range tipList {
		it, seen := byTip[tip.ID]
		if seen && it.Dismissed {
			continue
		}
		p := model.PersonalizedTip{SavingsTip: tip}
		if seen {
			p.Viewed = it.Viewed
			p.Helpful = it.Helpful
		}
		personalized = append(personalized, p)
		if len(personalized) == MaxPersonalizedTips {
			break
		}
	}
	return personalized, nil
}

// MarkViewed records that the user read a tip.
func (s *Service) MarkViewed(ctx context.Context, ownerID, tipID string) error {
	if err := s.requireTip(ctx, tipID); err != nil {
		return err
	}
	if err := s.store.MarkTipViewed(ctx, ownerID, tipID, s.now()); err != nil {
		return fmt.Errorf("failed to mark tip viewed: %w", err)
	}
	return nil
}

// Feedback records whether the user found a tip helpful. Either vote also
// marks the tip as viewed.
func (s *Service) Feedback(ctx context.Context, ownerID, tipID string, helpful bool) error {
	if err := s.requireTip(ctx, tipID); err != nil {
		return err
	}
	if err := s.store.SetTipFeedback(ctx, ownerID, tipID, helpful, s.now()); err != nil {
		return fmt.Errorf("failed to record tip feedback: %w", err)
	}
	return nil
}

// Dismiss removes a tip from the user's personalized listing for good.
func (s *Service) Dismiss(ctx context.Context, ownerID, tipID string) error {
	if err := s.requireTip(ctx, tipID); err != nil {
		return err
	}
	if err := s.store.DismissTip(ctx, ownerID, tipID); err != nil {
		return fmt.Errorf("failed to dismiss tip: %w", err)
	}
	return nil
}

// Effectiveness aggregates view, feedback, and dismissal counts for a tip.
func (s *Service) Effectiveness(ctx context.Context, tipID string) (*model.TipEffectiveness, error) {
	if err := s.requireTip(ctx, tipID); err != nil {
		return nil, err
	}
	eff, err := s.store.GetTipEffectiveness(ctx, tipID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tip effectiveness: %w", err)
	}
	return eff, nil
}

// Create persists a new tip; new tips are always born active.
func (s *Service) Create(ctx context.Context, tip *model.SavingsTip) error {
	if tip == nil {
		return common.Invalidf("tip is required")
	}
	tip.IsActive = true
	if err := s.store.CreateTip(ctx, tip); err != nil {
		return fmt.Errorf("failed to create tip: %w", err)
	}
	return nil
}

// Deactivate retires a tip from all listings.
func (s *Service) Deactivate(ctx context.Context, tipID string) error {
	return s.store.DeactivateTip(ctx, tipID)
}

func (s *Service) requireTip(ctx context.Context, tipID string) error {
	tip, err := s.store.GetTipByID(ctx, tipID)
	if err != nil {
		return fmt.Errorf("failed to load tip: %w", err)
	}
	if tip == nil {
		return fmt.Errorf("%w: tip %s", common.ErrNotFound, tipID)
	}
	return nil
}
