package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shadatr/costsense-backend/internal/analytics"
	"github.com/shadatr/costsense-backend/internal/cli"
)

func budgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget <budget-id>",
		Short: "Show a budget's status against its window's spending",
		Args:  cobra.ExactArgs(1),
		RunE:  runBudgetStatus,
	}
	cmd.Flags().String("user", "", "owner id")
	return cmd
}

func runBudgetStatus(cmd *cobra.Command, args []string) error {
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
	status, err := analyzer.BudgetStatus(cmd.Context(), args[0], user)
	if err != nil {
		return fmt.Errorf("budget status: %w", err)
	}

	cmd.Print(cli.RenderBudgetStatus(status))
	return nil
}

func alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show budgets at or past 80% usage",
		RunE:  runAlerts,
	}
	cmd.Flags().String("user", "", "owner id")
	return cmd
}

func runAlerts(cmd *cobra.Command, _ []string) error {
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
	alerts, err := analyzer.BudgetAlerts(cmd.Context(), user)
	if err != nil {
		return err
	}

	cmd.Print(cli.RenderAlerts(alerts))
	return nil
}
