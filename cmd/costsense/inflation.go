package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shadatr/costsense-backend/internal/cli"
	"github.com/shadatr/costsense-backend/internal/inflation"
)

func inflationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inflation",
		Short: "Inflation data, forecasts, and budget impact",
	}
	cmd.AddCommand(inflationCurrentCmd())
	cmd.AddCommand(inflationHistoryCmd())
	cmd.AddCommand(inflationForecastCmd())
	cmd.AddCommand(inflationImpactCmd())
	cmd.AddCommand(inflationCategoryCmd())
	return cmd
}

func inflationCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the latest inflation snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			record, err := inflation.New(store).Current(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("%s: %.1f%% (trend %s)\n",
				record.Date.Format("2006-01-02"), record.OverallRate, record.Trend)
			if record.PredictedRate != nil {
				cmd.Printf("predicted next: %.1f%%\n", *record.PredictedRate)
			}
			return nil
		},
	}
}

func inflationHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored snapshots for the trailing months",
		RunE: func(cmd *cobra.Command, _ []string) error {
			months, _ := cmd.Flags().GetInt("months")

			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := inflation.New(store).History(cmd.Context(), months)
			if err != nil {
				return err
			}
			for _, record := range records {
				cmd.Printf("%s  %6.1f%%  %s\n",
					record.Date.Format("2006-01-02"), record.OverallRate, record.Trend)
			}
			return nil
		},
	}
	cmd.Flags().Int("months", 6, "trailing months of history (1-24)")
	return cmd
}

func inflationForecastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project the overall rate for coming months",
		RunE: func(cmd *cobra.Command, _ []string) error {
			months, _ := cmd.Flags().GetInt("months")

			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			predictions, err := inflation.New(store).Forecast(cmd.Context(), months)
			if err != nil {
				return err
			}
			for i, rate := range predictions {
				cmd.Printf("month +%d: %.1f%%\n", i+1, rate)
			}
			return nil
		},
	}
	cmd.Flags().Int("months", 3, "forecast horizon (1-12)")
	return cmd
}

func inflationImpactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "impact",
		Short: "Project inflation onto a budget's allocations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := requireUser(cmd.Flags().GetString)
			if err != nil {
				return err
			}
			budgetID, _ := cmd.Flags().GetString("budget")

			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			impact, err := inflation.New(store).Impact(cmd.Context(), user, budgetID)
			if err != nil {
				return fmt.Errorf("impact calculation: %w", err)
			}
			cmd.Print(cli.RenderImpact(impact))
			return nil
		},
	}
	cmd.Flags().String("user", "", "owner id")
	cmd.Flags().String("budget", "", "budget id (defaults to the active budget)")
	return cmd
}

func inflationCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "category <name>",
		Short: "Show the current rate for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rate, err := inflation.New(store).CategoryRate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("%s: %.1f%%\n", args[0], rate)
			return nil
		},
	}
}
