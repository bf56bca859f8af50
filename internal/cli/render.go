package cli

import (
	"fmt"
	"strings"

	"github.com/shadatr/costsense-backend/internal/analytics"
	"github.com/shadatr/costsense-backend/internal/inflation"
	"github.com/shadatr/costsense-backend/internal/model"
	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount with two decimals and a currency suffix.
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2) + " ₺"
}

// tierStyle picks a style for a budget tier.
func tierStyle(tier model.BudgetTier) func(...string) string {
	switch tier {
	case model.TierOver:
		return ErrorStyle.Render
	case model.TierWarning:
		return WarningStyle.Render
	default:
		return SuccessStyle.Render
	}
}

// RenderDashboard renders the dashboard summary.
func RenderDashboard(summary *analytics.DashboardSummary) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("This Month"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Spent:  %s across %d expenses\n",
		BoldStyle.Render(FormatMoney(summary.TotalExpenses)), summary.ExpenseCount))
	b.WriteString(fmt.Sprintf("  Budget: %s (%s%% used)\n",
		FormatMoney(summary.TotalBudget), BoldStyle.Render(fmt.Sprintf("%.0f", summary.BudgetUsage))))

	if len(summary.CategoryBreakdown) > 0 {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("By Category"))
		b.WriteString("\n")
		for _, cat := range summary.CategoryBreakdown {
			b.WriteString(fmt.Sprintf("  %s %-24s %s  %s\n",
				cat.Icon, cat.Category, FormatMoney(cat.Amount),
				SubtleStyle.Render(fmt.Sprintf("(%d)", cat.Count))))
		}
	}

	if len(summary.RecentExpenses) > 0 {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("Recent"))
		b.WriteString("\n")
		for _, exp := range summary.RecentExpenses {
			b.WriteString(fmt.Sprintf("  %s  %s %-20s %s\n",
				SubtleStyle.Render(exp.Expense.OccurredAt.Format("Jan 02")),
				exp.Icon, exp.Category, FormatMoney(exp.Expense.Amount)))
		}
	}

	return b.String()
}

// RenderBudgetStatus renders a budget evaluation with per-category rows.
func RenderBudgetStatus(status *analytics.BudgetStatus) string {
	var b strings.Builder

	style := tierStyle(status.Tier)
	b.WriteString(TitleStyle.Render("Budget Status"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Spent %s of %s (%s)\n",
		FormatMoney(status.Spent), FormatMoney(status.Budget.TotalAmount),
		style(fmt.Sprintf("%.1f%% %s", status.Percentage, status.Tier))))
	b.WriteString(fmt.Sprintf("  Remaining: %s\n", FormatMoney(status.Remaining)))

	for _, cat := range status.Categories {
		catStyle := tierStyle(cat.Tier)
		b.WriteString(fmt.Sprintf("    %-24s %s / %s %s\n",
			cat.CategoryName, FormatMoney(cat.Spent), FormatMoney(cat.Budgeted),
			catStyle(fmt.Sprintf("(%.1f%%)", cat.Percentage))))
	}

	return b.String()
}

// RenderAlerts renders budget alerts, most severe styling per row.
func RenderAlerts(alerts []analytics.BudgetAlert) string {
	if len(alerts) == 0 {
		return SuccessStyle.Render("All budgets on track.") + "\n"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Budget Alerts"))
	b.WriteString("\n")
	for _, alert := range alerts {
		style := SuccessStyle
		switch alert.Severity {
		case model.SeverityCritical:
			style = ErrorStyle
		case model.SeverityWarning:
			style = WarningStyle
		case model.SeverityInfo:
			style = SubtleStyle
		}
		b.WriteString(fmt.Sprintf("  %s %-20s %s of %s (%.0f%%)\n",
			style.Render(strings.ToUpper(string(alert.Severity))),
			alert.BudgetName, FormatMoney(alert.Spent), FormatMoney(alert.TotalAmount),
			alert.Percentage))
	}
	return b.String()
}

// RenderTrends renders a monthly trend table, oldest first.
func RenderTrends(points []analytics.TrendPoint) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Monthly Trends"))
	b.WriteString("\n")
	for _, p := range points {
		b.WriteString(fmt.Sprintf("  %-10s %s  %s\n",
			p.Month, FormatMoney(p.Total),
			SubtleStyle.Render(fmt.Sprintf("(%d expenses)", p.Count))))
	}
	return b.String()
}

// RenderDeals renders deals with distances when present.
func RenderDeals(deals []model.DealWithDistance, fallback bool) string {
	if len(deals) == 0 {
		return SubtleStyle.Render("No deals found.") + "\n"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Deals"))
	b.WriteString("\n")
	if fallback {
		b.WriteString(WarningStyle.Render("  No deals in range; showing the closest ones.") + "\n")
	}
	for _, deal := range deals {
		b.WriteString(fmt.Sprintf("  %-24s %-10s %s → %s (%.0f%% off, %.1f km)\n",
			deal.Product, deal.Store,
			FormatMoney(deal.OldPrice), FormatMoney(deal.NewPrice),
			deal.DiscountPercent(), deal.DistanceKm))
	}
	return b.String()
}

// RenderTips renders savings tips with per-user marks when present.
func RenderTips(tipList []model.PersonalizedTip) string {
	if len(tipList) == 0 {
		return SubtleStyle.Render("No tips right now.") + "\n"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Savings Tips"))
	b.WriteString("\n")
	for _, tip := range tipList {
		marks := ""
		if tip.Viewed {
			marks = SubtleStyle.Render(" · seen")
		}
		if tip.Helpful != nil {
			if *tip.Helpful {
				marks += SuccessStyle.Render(" · helpful")
			} else {
				marks += SubtleStyle.Render(" · not helpful")
			}
		}
		b.WriteString(fmt.Sprintf("  %s [%s] %s%s\n", tip.Icon,
			strings.ToUpper(string(tip.Priority)), BoldStyle.Render(tip.Title), marks))
		b.WriteString(fmt.Sprintf("     %s\n", SubtleStyle.Render(tip.Description)))
	}
	return b.String()
}

// RenderImpact renders an inflation impact projection.
func RenderImpact(impact *inflation.Impact) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Inflation Impact"))
	b.WriteString("\n")
	for _, cat := range impact.Categories {
		b.WriteString(fmt.Sprintf("  %-24s %s → %s %s\n",
			cat.Category, FormatMoney(cat.Current), FormatMoney(cat.Adjusted),
			WarningStyle.Render(fmt.Sprintf("(+%s, %.2f%%)", FormatMoney(cat.Impact), cat.ImpactPercentage))))
	}
	b.WriteString(fmt.Sprintf("  Total impact: %s\n", BoldStyle.Render(FormatMoney(impact.TotalImpact))))
	return b.String()
}
