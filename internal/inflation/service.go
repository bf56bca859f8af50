// Package inflation exposes inflation snapshots, forecasts, and the budget
// impact calculator.
package inflation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/shadatr/costsense-backend/internal/common"
	"github.com/shadatr/costsense-backend/internal/forecast"
	"github.com/shadatr/costsense-backend/internal/model"
	"github.com/shadatr/costsense-backend/internal/service"
	"github.com/shopspring/decimal"
)

const (
	// MaxHistoryMonths bounds history queries.
	MaxHistoryMonths = 24
	// MaxForecastMonths bounds forecast horizons.
	MaxForecastMonths = 12
	// LargeSwingPct is the rate change that flags a notable swing. Delivery of
	// a notification for it is a future hook; today it is only logged.
	LargeSwingPct = 5.0
	// trendTolerance is how far the rate must move between snapshots before
	// the trend leaves stable.
	trendTolerance = 1.0
)

// CategoryImpact is the projected effect of inflation on one allocation.
type CategoryImpact struct {
	Category         string
	Rate             float64
	Current          decimal.Decimal
	Adjusted         decimal.Decimal
	Impact           decimal.Decimal
	ImpactPercentage float64
}

// Impact is the projected effect of current inflation on a whole budget.
type Impact struct {
	TotalImpact decimal.Decimal
	Categories  []CategoryImpact
}

// Service answers inflation queries against stored snapshots. Stateless; all
// data comes through the injected storage per call.
type Service struct {
	store service.Storage
	now   func() time.Time
}

// New creates an inflation service backed by the given storage.
func New(store service.Storage) *Service {
	return &Service{store: store, now: time.Now}
}

// NewWithClock creates an inflation service with an injected clock for tests.
func NewWithClock(store service.Storage, now func() time.Time) *Service {
	return &Service{store: store, now: now}
}

// Current returns the most recent snapshot.
func (s *Service) Current(ctx context.Context) (*model.InflationRecord, error) {
	record, err := s.store.GetLatestInflationRecord(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	if record == nil {
		return nil, common.ErrNoInflationData
	}
	return record, nil
}

// History returns snapshots from the trailing months, newest first.
func (s *Service) History(ctx context.Context, months int) ([]model.InflationRecord, error) {
	if months < 1 || months > MaxHistoryMonths {
		return nil, common.Invalidf("months must be between 1 and %d, got %d", MaxHistoryMonths, months)
	}

	since := s.now().AddDate(0, -months, 0)
	records, err := s.store.GetInflationHistory(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load inflation history: %w", err)
	}
	return records, nil
}

// Forecast projects the overall rate for the next months. The regression runs
// over the most recent snapshots (up to the forecast history window) and each
// prediction feeds the next, so the horizon is capped low.
func (s *Service) Forecast(ctx context.Context, months int) ([]float64, error) {
	if months < 1 || months > MaxForecastMonths {
		return nil, common.Invalidf("months must be between 1 and %d, got %d", MaxForecastMonths, months)
	}

	series, err := s.recentRates(ctx)
	if err != nil {
		return nil, err
	}
	return forecast.Project(series, months)
}

// CategoryRate resolves the current inflation rate for a category name,
// falling back to the overall rate when no category-specific rate exists.
func (s *Service) CategoryRate(ctx context.Context, category string) (float64, error) {
	if err := validateCategory(category); err != nil {
		return 0, err
	}
	record, err := s.Current(ctx)
	if err != nil {
		return 0, err
	}
	return record.RateFor(category), nil
}

// Impact projects the current inflation rates onto a budget's allocations.
// With an explicit budgetID the budget is looked up for the owner; otherwise
// the owner's currently-active budget is used. Each allocation resolves its
// own category rate before falling back to the overall rate, so the total is
// the sum of per-category impacts rather than a single flat adjustment.
func (s *Service) Impact(ctx context.Context, ownerID, budgetID string) (*Impact, error) {
	record, err := s.store.GetLatestInflationRecord(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	if record == nil {
		return nil, common.ErrNoInflationData
	}

	budget, err := s.resolveBudget(ctx, ownerID, budgetID)
	if err != nil {
		return nil, err
	}

	hundred := decimal.NewFromInt(100)
	result := &Impact{TotalImpact: decimal.Zero}
	for _, alloc := range budget.Allocations {
		rate := record.RateFor(alloc.CategoryName)
		factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(rate).Div(hundred))
		adjusted := alloc.Amount.Mul(factor).Round(2)
		impact := adjusted.Sub(alloc.Amount).Round(2)

		impactPct := 0.0
		if alloc.Amount.IsPositive() {
			pct, _ := impact.Mul(hundred).Div(alloc.Amount).Round(2).Float64()
			impactPct = pct
		}

		result.Categories = append(result.Categories, CategoryImpact{
			Category:         alloc.CategoryName,
			Rate:             rate,
			Current:          alloc.Amount,
			Adjusted:         adjusted,
			Impact:           impact,
			ImpactPercentage: impactPct,
		})
		result.TotalImpact = result.TotalImpact.Add(impact)
	}
	result.TotalImpact = result.TotalImpact.Round(2)

	return result, nil
}

// RefreshSnapshot writes today's snapshot from the freshest stored data. The
// live statistical-agency feed is out of scope, so the stored fallback is the
// source of record; with nothing stored there is nothing to degrade to.
// Writing is an upsert keyed by day, so overlapping refresh runs collapse to
// one logical snapshot.
func (s *Service) RefreshSnapshot(ctx context.Context) (*model.InflationRecord, error) {
	latest, err := s.store.GetLatestInflationRecord(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: no stored inflation data", common.ErrUpstreamUnavailable)
	}

	trend := model.TrendStable
	var previous *model.InflationRecord
	history, err := s.store.GetInflationHistory(ctx, s.now().AddDate(0, -2, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to load inflation history: %w", err)
	}
	if len(history) >= 2 {
		previous = &history[1]
		switch {
		case latest.OverallRate > previous.OverallRate+trendTolerance:
			trend = model.TrendUp
		case latest.OverallRate < previous.OverallRate-trendTolerance:
			trend = model.TrendDown
		}
	}

	// A one-step forecast is best effort: short history is not a failure.
	var predicted *float64
	if series, ratesErr := s.recentRates(ctx); ratesErr == nil {
		if next, nextErr := forecast.Next(series); nextErr == nil {
			predicted = &next
		}
	} else if !errors.Is(ratesErr, common.ErrInsufficientData) {
		return nil, ratesErr
	}

	record := &model.InflationRecord{
		Date:          s.now(),
		OverallRate:   latest.OverallRate,
		PredictedRate: predicted,
		Trend:         trend,
		Source:        latest.Source,
		CategoryRates: latest.CategoryRates,
	}

	if err := s.store.UpsertInflationRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}

	slog.Info("inflation snapshot refreshed",
		"rate", record.OverallRate,
		"trend", record.Trend,
		"predicted", predicted)

	if previous != nil {
		change := latest.OverallRate - previous.OverallRate
		if math.Abs(change) >= LargeSwingPct {
			// Future hook: notify users of the swing. Logged only for now.
			slog.Warn("significant inflation change detected",
				"change", change,
				"previous", previous.OverallRate,
				"current", latest.OverallRate)
		}
	}

	return record, nil
}

// recentRates returns the overall rates of the freshest snapshots, oldest
// first, capped at the forecast history window.
func (s *Service) recentRates(ctx context.Context) ([]float64, error) {
	history, err := s.store.GetInflationHistory(ctx, s.now().AddDate(0, -forecast.HistoryWindow, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to load inflation history: %w", err)
	}
	if len(history) < forecast.MinPoints {
		return nil, fmt.Errorf("%w: %d snapshots stored", common.ErrInsufficientData, len(history))
	}
	if len(history) > forecast.HistoryWindow {
		history = history[:forecast.HistoryWindow]
	}

	// History comes newest first; the regression wants oldest first.
	series := make([]float64, len(history))
	for i, record := range history {
		series[len(history)-1-i] = record.OverallRate
	}
	return series, nil
}

func (s *Service) resolveBudget(ctx context.Context, ownerID, budgetID string) (*model.Budget, error) {
	if budgetID != "" {
		budget, err := s.store.GetBudget(ctx, budgetID, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load budget: %w", err)
		}
		if budget == nil {
			return nil, fmt.Errorf("%w: budget %s", common.ErrNoActiveBudget, budgetID)
		}
		return budget, nil
	}

	budgets, err := s.store.GetActiveBudgets(ctx, ownerID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to load active budgets: %w", err)
	}
	if len(budgets) == 0 {
		return nil, common.ErrNoActiveBudget
	}
	// Multiple overlapping active budgets resolve to the most recent one.
	return &budgets[0], nil
}

func validateCategory(category string) error {
	if category == "" {
		return common.Invalidf("category name is required")
	}
	return nil
}
