package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shadatr/costsense-backend/internal/common"
	"github.com/shadatr/costsense-backend/internal/service"
	"github.com/shopspring/decimal"
)

// MaxTrendMonths bounds how far back a trend query may reach.
const MaxTrendMonths = 24

// TrendPoint is one month's aggregate in a trend series.
type TrendPoint struct {
	Month string // e.g. "Jan 2026"
	Total decimal.Decimal
	Count int
}

// MonthlyTrends returns per-month spending totals for the trailing months
// calendar months ending at the current month, oldest first.
func (a *Analyzer) MonthlyTrends(ctx context.Context, ownerID string, months int) ([]TrendPoint, error) {
	if months < 1 || months > MaxTrendMonths {
		return nil, common.Invalidf("months must be between 1 and %d, got %d", MaxTrendMonths, months)
	}

	now := a.now()
	first := startOfMonth(now).AddDate(0, -(months - 1), 0)
	last := endOfMonth(now)

	expenses, err := a.store.GetExpenses(ctx, service.ExpenseFilter{
		OwnerID: ownerID,
		Start:   &first,
		End:     &last,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	buckets, err := GroupExpenses(expenses, GroupByMonth)
	if err != nil {
		return nil, err
	}
	byMonth := make(map[string]Bucket, len(buckets))
	for _, b := range buckets {
		byMonth[b.Key] = b
	}

	// Every requested month appears in the output, spent or not.
	points := make([]TrendPoint, 0, months)
	for i := 0; i < months; i++ {
		month := first.AddDate(0, i, 0)
		bucket := byMonth[month.Format("2006-01")]
		points = append(points, TrendPoint{
			Month: month.Format("Jan 2006"),
			Total: bucket.Sum.Round(2),
			Count: bucket.Count,
		})
	}
	return points, nil
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func endOfMonth(t time.Time) time.Time {
	return startOfMonth(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}
