package main

import (
	"github.com/spf13/cobra"

	"github.com/shadatr/costsense-backend/internal/analytics"
	"github.com/shadatr/costsense-backend/internal/cli"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the dashboard summary for a user",
		RunE:  runSummary,
	}
	cmd.Flags().String("user", "", "owner id to summarize")
	return cmd
}

func runSummary(cmd *cobra.Command, _ []string) error {
	user, err := requireUser(cmd.Flags().GetString)
	if err != nil {
		return err
	}

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	analyzer := analytics.NewAnalyzer(store)
	summary, err := analyzer.DashboardSummary(cmd.Context(), user)
	if err != nil {
		return err
	}

	cmd.Print(cli.RenderDashboard(summary))
	return nil
}

func trendsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Show monthly spending trends",
		RunE:  runTrends,
	}
	cmd.Flags().String("user", "", "owner id")
	cmd.Flags().Int("months", 6, "how many trailing months to include")
	return cmd
}

func runTrends(cmd *cobra.Command, _ []string) error {
	user, err := requireUser(cmd.Flags().GetString)
	if err != nil {
		return err
	}
	months, _ := cmd.Flags().GetInt("months")

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	analyzer := analytics.NewAnalyzer(store)
	points, err := analyzer.MonthlyTrends(cmd.Context(), user, months)
	if err != nil {
		return err
	}

	cmd.Print(cli.RenderTrends(points))
	return nil
}
