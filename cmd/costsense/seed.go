package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/shadatr/costsense-backend/internal/model"
	"github.com/shadatr/costsense-backend/internal/service"
	"github.com/shadatr/costsense-backend/internal/tips"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with demo data",
		Long: `Insert a demo dataset: categories, a monthly budget with per-category
allocations, a batch of expenses, Istanbul-area store deals, six months
of inflation snapshots, and a starter set of savings tips.

Useful for trying out the engine commands without wiring a real data feed.
Seeding is additive; run against a fresh database for predictable output.`,
		RunE: runSeed,
	}
	cmd.Flags().String("user", "demo", "User ID to own the seeded data")
	return cmd
}

type seedCategory struct {
	name  string
	icon  string
	color string
}

type seedExpense struct {
	category    string
	description string
	amount      string
	daysAgo     int
}

type seedDeal struct {
	product   string
	store     string
	category  string
	address   string
	oldPrice  string
	newPrice  string
	lat       float64
	lng       float64
	validDays int
}

var seedCategories = []seedCategory{
	{name: "Groceries", icon: "🛒", color: "#10B981"},
	{name: "Transportation", icon: "🚗", color: "#3B82F6"},
	{name: "Entertainment", icon: "🎬", color: "#8B5CF6"},
	{name: "Utilities", icon: "💡", color: "#F59E0B"},
	{name: "Healthcare", icon: "🏥", color: "#EF4444"},
	{name: "Dining", icon: "🍽️", color: "#EC4899"},
}

// Allocation ceilings per category, same order as seedCategories. They sum to
// 26000 against the 30000 total, leaving headroom for uncategorized spend.
var seedAllocations = []string{"8000", "5000", "3000", "4000", "2000", "4000"}

var seedExpenses = []seedExpense{
	{category: "Groceries", description: "Weekly grocery shopping at Migros", amount: "1200", daysAgo: 26},
	{category: "Groceries", description: "Fresh produce and bakery", amount: "950", daysAgo: 20},
	{category: "Groceries", description: "Monthly bulk shopping", amount: "1800", daysAgo: 13},
	{category: "Transportation", description: "Monthly fuel", amount: "2500", daysAgo: 25},
	{category: "Transportation", description: "Public transport card", amount: "500", daysAgo: 22},
	{category: "Entertainment", description: "Cinema tickets and popcorn", amount: "800", daysAgo: 21},
	{category: "Entertainment", description: "Concert tickets", amount: "650", daysAgo: 18},
	{category: "Utilities", description: "Electricity bill", amount: "1200", daysAgo: 27},
	{category: "Utilities", description: "Water bill", amount: "800", daysAgo: 27},
	{category: "Utilities", description: "Internet bill", amount: "600", daysAgo: 27},
	{category: "Healthcare", description: "Pharmacy - medications", amount: "500", daysAgo: 24},
	{category: "Dining", description: "Dinner at Italian restaurant", amount: "450", daysAgo: 19},
	{category: "Dining", description: "Lunch with colleagues", amount: "320", daysAgo: 16},
	{category: "Dining", description: "Coffee and breakfast", amount: "280", daysAgo: 15},
}

var seedDeals = []seedDeal{
	{product: "Olive oil (1L)", store: "Migros", category: "groceries", address: "Taksim, İstanbul", oldPrice: "280", newPrice: "210", lat: 41.0082, lng: 28.9784, validDays: 7},
	{product: "Fresh bread (5 pack)", store: "BİM", category: "groceries", address: "Şişli, İstanbul", oldPrice: "50", newPrice: "35", lat: 41.0154, lng: 28.9784, validDays: 3},
	{product: "Chicken breast (1kg)", store: "Şok", category: "groceries", address: "Beşiktaş, İstanbul", oldPrice: "180", newPrice: "144", lat: 41.0422, lng: 29.0094, validDays: 5},
	{product: "Rice (5kg)", store: "A101", category: "groceries", address: "Kadıköy, İstanbul", oldPrice: "200", newPrice: "170", lat: 40.9903, lng: 29.0233, validDays: 10},
	{product: "Fresh vegetables bundle", store: "CarrefourSA", category: "groceries", address: "Mecidiyeköy, İstanbul", oldPrice: "120", newPrice: "84", lat: 41.0255, lng: 28.9742, validDays: 4},
	{product: "Cheese (500g)", store: "Migros", category: "groceries", address: "Nişantaşı, İstanbul", oldPrice: "150", newPrice: "120", lat: 41.0350, lng: 28.9845, validDays: 6},
	{product: "2-for-1 Pizza deal", store: "Dominos", category: "dining", address: "Taksim, İstanbul", oldPrice: "400", newPrice: "200", lat: 41.0082, lng: 28.9784, validDays: 2},
	{product: "Burger combo meal", store: "Burger King", category: "dining", address: "Kadıköy, İstanbul", oldPrice: "250", newPrice: "175", lat: 40.9903, lng: 29.0233, validDays: 5},
	{product: "Multivitamin (60 tablets)", store: "Eczane Plus", category: "healthcare", address: "Şişli, İstanbul", oldPrice: "280", newPrice: "210", lat: 41.0082, lng: 28.9784, validDays: 30},
	{product: "Movie tickets (2 people)", store: "Cinemaximum", category: "entertainment", address: "Zorlu Center, İstanbul", oldPrice: "300", newPrice: "180", lat: 41.0082, lng: 28.9784, validDays: 7},
	{product: "Gym membership (1 month)", store: "Fit Club", category: "entertainment", address: "Kadıköy, İstanbul", oldPrice: "500", newPrice: "350", lat: 40.9903, lng: 29.0233, validDays: 20},
	{product: "Coffee beans (250g)", store: "Starbucks", category: "groceries", address: "Taksim, İstanbul", oldPrice: "180", newPrice: "135", lat: 41.0082, lng: 28.9784, validDays: 12},
}

// Overall rates for the trailing six months, oldest first. Category rates are
// held at a fixed offset from the overall figure for simplicity.
var seedOverallRates = []float64{61.4, 62.0, 63.1, 63.9, 64.5, 64.8}

type seedTip struct {
	title       string
	description string
	icon        string
	category    string
	priority    model.TipPriority
}

var seedTips = []seedTip{
	{title: "Consider USDT for savings", description: "Convert 20% of savings to stablecoins to hedge against lira depreciation", icon: "🪙", category: tips.CategoryCrypto, priority: model.TipPriorityHigh},
	{title: "Buy groceries at discount stores", description: "Shop at Şok or BİM for savings of up to 30% on staples", icon: "🛍️", category: tips.CategoryRetail, priority: model.TipPriorityHigh},
	{title: "Use an İstanbulkart for transit", description: "Transfers within two hours are discounted; skip single-ride tokens", icon: "🚇", category: tips.CategoryTransport, priority: model.TipPriorityMedium},
	{title: "Cook at home twice a week", description: "Replacing two restaurant meals a week saves over 2000 ₺ a month", icon: "🍳", category: tips.CategoryDining, priority: model.TipPriorityMedium},
	{title: "Open a high-interest deposit account", description: "Banks compete on lira deposit rates; shop around quarterly", icon: "🏦", category: tips.CategoryBanking, priority: model.TipPriorityHigh},
	{title: "Review subscriptions monthly", description: "Cancel streaming and app subscriptions you have not used in 30 days", icon: "📺", category: tips.CategoryGeneral, priority: model.TipPriorityLow},
}

func runSeed(cmd *cobra.Command, _ []string) error {
	user, err := requireUser(cmd.Flags().GetString)
	if err != nil {
		return err
	}

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	total := len(seedCategories) + 1 + len(seedExpenses) + len(seedDeals) + len(seedOverallRates) + len(seedTips)
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(cmd.OutOrStdout()),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Seeding demo data..."),
	)

	ctx := cmd.Context()
	now := time.Now()

	categoryIDs, err := seedCategoryRows(ctx, store, user, bar)
	if err != nil {
		return err
	}
	if err := seedBudgetRow(ctx, store, user, categoryIDs, now, bar); err != nil {
		return err
	}
	if err := seedExpenseRows(ctx, store, user, categoryIDs, now, bar); err != nil {
		return err
	}
	if err := seedDealRows(ctx, store, now, bar); err != nil {
		return err
	}
	if err := seedInflationRows(ctx, store, now, bar); err != nil {
		return err
	}
	if err := seedTipRows(ctx, store, bar); err != nil {
		return err
	}

	cmd.Printf("\nSeeded demo data for user %q\n", user)
	return nil
}

func seedCategoryRows(ctx context.Context, store service.Storage, user string, bar *progressbar.ProgressBar) (map[string]string, error) {
	ids := make(map[string]string, len(seedCategories))
	for _, sc := range seedCategories {
		// Re-running seed against the same database reuses existing categories.
		existing, err := store.GetCategoryByName(ctx, user, sc.name)
		if err != nil {
			return nil, fmt.Errorf("failed to look up category %q: %w", sc.name, err)
		}
		if existing != nil {
			ids[sc.name] = existing.ID
			_ = bar.Add(1)
			continue
		}

		cat := &model.Category{
			ID:      uuid.NewString(),
			OwnerID: user,
			Name:    sc.name,
			Color:   sc.color,
			Icon:    sc.icon,
		}
		if err := store.CreateCategory(ctx, cat); err != nil {
			return nil, fmt.Errorf("failed to create category %q: %w", sc.name, err)
		}
		ids[sc.name] = cat.ID
		_ = bar.Add(1)
	}
	return ids, nil
}

func seedBudgetRow(ctx context.Context, store service.Storage, user string, categoryIDs map[string]string, now time.Time, bar *progressbar.ProgressBar) error {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Second)

	budget := &model.Budget{
		ID:          uuid.NewString(),
		OwnerID:     user,
		Name:        "Monthly Budget",
		TotalAmount: decimal.NewFromInt(30000),
		StartDate:   monthStart,
		EndDate:     monthEnd,
		IsActive:    true,
	}
	for i, sc := range seedCategories {
		amount, err := decimal.NewFromString(seedAllocations[i])
		if err != nil {
			return fmt.Errorf("bad allocation amount %q: %w", seedAllocations[i], err)
		}
		budget.Allocations = append(budget.Allocations, model.CategoryAllocation{
			ID:         uuid.NewString(),
			BudgetID:   budget.ID,
			CategoryID: categoryIDs[sc.name],
			Amount:     amount,
		})
	}

	if err := store.CreateBudget(ctx, budget); err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}
	_ = bar.Add(1)
	return nil
}

func seedExpenseRows(ctx context.Context, store service.Storage, user string, categoryIDs map[string]string, now time.Time, bar *progressbar.ProgressBar) error {
	for _, se := range seedExpenses {
		amount, err := decimal.NewFromString(se.amount)
		if err != nil {
			return fmt.Errorf("bad expense amount %q: %w", se.amount, err)
		}
		expense := &model.Expense{
			ID:          uuid.NewString(),
			OwnerID:     user,
			CategoryID:  categoryIDs[se.category],
			Description: se.description,
			Amount:      amount,
			OccurredAt:  now.AddDate(0, 0, -se.daysAgo),
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			return fmt.Errorf("failed to create expense %q: %w", se.description, err)
		}
		_ = bar.Add(1)
	}
	return nil
}

func seedDealRows(ctx context.Context, store service.Storage, now time.Time, bar *progressbar.ProgressBar) error {
	for _, sd := range seedDeals {
		oldPrice, err := decimal.NewFromString(sd.oldPrice)
		if err != nil {
			return fmt.Errorf("bad deal price %q: %w", sd.oldPrice, err)
		}
		newPrice, err := decimal.NewFromString(sd.newPrice)
		if err != nil {
			return fmt.Errorf("bad deal price %q: %w", sd.newPrice, err)
		}
		deal := &model.Deal{
			ID:       uuid.NewString(),
			Product:  sd.product,
			Store:    sd.store,
			Category: sd.category,
			OldPrice: oldPrice,
			NewPrice: newPrice,
			Location: model.Location{
				Address: sd.address,
				Lat:     sd.lat,
				Lng:     sd.lng,
			},
			ValidUntil: now.AddDate(0, 0, sd.validDays),
			IsActive:   true,
		}
		if err := store.CreateDeal(ctx, deal); err != nil {
			return fmt.Errorf("failed to create deal %q: %w", sd.product, err)
		}
		_ = bar.Add(1)
	}
	return nil
}

func seedInflationRows(ctx context.Context, store service.Storage, now time.Time, bar *progressbar.ProgressBar) error {
	monthsBack := len(seedOverallRates) - 1
	for i, overall := range seedOverallRates {
		date := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, i-monthsBack, 0)
		trend := model.TrendStable
		if i > 0 {
			switch diff := overall - seedOverallRates[i-1]; {
			case diff > 1:
				trend = model.TrendUp
			case diff < -1:
				trend = model.TrendDown
			}
		}
		record := &model.InflationRecord{
			Date:        date,
			OverallRate: overall,
			CategoryRates: map[string]float64{
				"groceries":      overall + 7.3,
				"transportation": overall + 3.5,
				"utilities":      overall + 1.2,
				"dining":         overall + 5.0,
				"healthcare":     overall - 2.1,
				"entertainment":  overall - 4.0,
			},
			Source: "seed",
			Trend:  trend,
		}
		if err := store.UpsertInflationRecord(ctx, record); err != nil {
			return fmt.Errorf("failed to store inflation snapshot %s: %w", date.Format("2006-01"), err)
		}
		_ = bar.Add(1)
	}
	return nil
}

func seedTipRows(ctx context.Context, store service.Storage, bar *progressbar.ProgressBar) error {
	for _, st := range seedTips {
		tip := &model.SavingsTip{
			ID:          uuid.NewString(),
			Title:       st.title,
			Description: st.description,
			Icon:        st.icon,
			Priority:    st.priority,
			Category:    st.category,
			IsActive:    true,
		}
		if err := store.CreateTip(ctx, tip); err != nil {
			return fmt.Errorf("failed to create tip %q: %w", st.title, err)
		}
		_ = bar.Add(1)
	}
	return nil
}
