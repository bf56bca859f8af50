// Package analytics implements the spending aggregator, budget status
// evaluation, monthly trends, and the dashboard summary.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shadatr/costsense-backend/internal/common"
	"github.com/shadatr/costsense-backend/internal/model"
	"github.com/shadatr/costsense-backend/internal/service"
	"github.com/shopspring/decimal"
)

// GroupBy selects the bucketing key for aggregation.
type GroupBy string

const (
	// GroupByCategory buckets expenses by category identifier.
	GroupByCategory GroupBy = "category"
	// GroupByDay buckets expenses by calendar day.
	GroupByDay GroupBy = "day"
	// GroupByMonth buckets expenses by calendar month.
	GroupByMonth GroupBy = "month"
)

// Bucket is one aggregation group: the key, the summed amount, and how many
// expenses landed in it. Sums stay exact; rounding happens at the boundary.
type Bucket struct {
	Key   string
	Sum   decimal.Decimal
	Count int
}

// CategorySpend is a category bucket decorated with category display data.
type CategorySpend struct {
	CategoryID string
	Category   string
	Color      string
	Icon       string
	Amount     decimal.Decimal
	Count      int
}

// Analyzer computes aggregates over a user's expenses. It holds no per-call
// state; every method reads what it needs through the injected storage.
type Analyzer struct {
	store service.Storage
	now   func() time.Time
}

// NewAnalyzer creates an analyzer backed by the given storage.
func NewAnalyzer(store service.Storage) *Analyzer {
	return &Analyzer{store: store, now: time.Now}
}

// NewAnalyzerWithClock creates an analyzer with an injected clock for tests.
func NewAnalyzerWithClock(store service.Storage, now func() time.Time) *Analyzer {
	return &Analyzer{store: store, now: now}
}

// GroupExpenses buckets expenses by the given key. Category buckets come back
// ordered by sum descending (ties by category identifier ascending); day and
// month buckets come back in chronological order. Buckets with no matching
// expenses are simply absent.
func GroupExpenses(expenses []model.Expense, groupBy GroupBy) ([]Bucket, error) {
	keyFn, err := bucketKey(groupBy)
	if err != nil {
		return nil, err
	}

	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	for _, exp := range expenses {
		key := keyFn(exp)
		sums[key] = sums[key].Add(exp.Amount)
		counts[key]++
	}

	buckets := make([]Bucket, 0, len(sums))
	for key, sum := range sums {
		buckets = append(buckets, Bucket{Key: key, Sum: sum, Count: counts[key]})
	}

	if groupBy == GroupByCategory {
		sort.Slice(buckets, func(i, j int) bool {
			if !buckets[i].Sum.Equal(buckets[j].Sum) {
				return buckets[i].Sum.GreaterThan(buckets[j].Sum)
			}
			return buckets[i].Key < buckets[j].Key
		})
	} else {
		// Day and month keys are zero-padded, so lexicographic is chronological.
		sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	}

	return buckets, nil
}

func bucketKey(groupBy GroupBy) (func(model.Expense) string, error) {
	switch groupBy {
	case GroupByCategory:
		return func(e model.Expense) string { return e.CategoryID }, nil
	case GroupByDay:
		return func(e model.Expense) string { return e.OccurredAt.Format("2006-01-02") }, nil
	case GroupByMonth:
		return func(e model.Expense) string { return e.OccurredAt.Format("2006-01") }, nil
	default:
		return nil, common.Invalidf("unknown grouping %q", groupBy)
	}
}

// Aggregate fetches an owner's expenses in the window (bounds inclusive, nil
// for unbounded) and buckets them.
func (a *Analyzer) Aggregate(ctx context.Context, ownerID string, start, end *time.Time, groupBy GroupBy) ([]Bucket, error) {
	expenses, err := a.store.GetExpenses(ctx, service.ExpenseFilter{OwnerID: ownerID, Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	return GroupExpenses(expenses, groupBy)
}

// SpendingByCategory aggregates an owner's spending per category over the
// window and decorates each bucket with the category's display data. Buckets
// for categories that no longer resolve render with the unknown placeholders.
func (a *Analyzer) SpendingByCategory(ctx context.Context, ownerID string, start, end *time.Time) ([]CategorySpend, error) {
	buckets, err := a.Aggregate(ctx, ownerID, start, end, GroupByCategory)
	if err != nil {
		return nil, err
	}
	if len(buckets) == 0 {
		return []CategorySpend{}, nil
	}

	categories, err := a.store.GetCategories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	byID := make(map[string]model.Category, len(categories))
	for _, cat := range categories {
		byID[cat.ID] = cat
	}

	result := make([]CategorySpend, 0, len(buckets))
	for _, bucket := range buckets {
		spend := CategorySpend{
			CategoryID: bucket.Key,
			Category:   model.UnknownCategoryName,
			Color:      model.UnknownCategoryColor,
			Icon:       model.UnknownCategoryIcon,
			Amount:     bucket.Sum.Round(2),
			Count:      bucket.Count,
		}
		if cat, ok := byID[bucket.Key]; ok {
			spend.Category = cat.Name
			spend.Color = cat.Color
			spend.Icon = cat.Icon
		}
		result = append(result, spend)
	}
	return result, nil
}
