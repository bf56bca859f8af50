package main

import (
	"github.com/spf13/cobra"

	"github.com/shadatr/costsense-backend/internal/geo"
	"github.com/shadatr/costsense-backend/internal/inflation"
	"github.com/shadatr/costsense-backend/internal/refresh"
)

func refreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run the background jobs: inflation snapshot and deal sweep",
		Long: `Refresh the daily inflation snapshot and deactivate expired deals.

By default the jobs run once and exit. With --watch the process stays up
and repeats them on an interval; job failures are logged and the next
run proceeds regardless.`,
		RunE: runRefresh,
	}
	cmd.Flags().Bool("watch", false, "keep running on an interval")
	cmd.Flags().Duration("interval", refresh.DefaultInterval, "interval between runs in watch mode")
	return cmd
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	watch, _ := cmd.Flags().GetBool("watch")
	interval, _ := cmd.Flags().GetDuration("interval")

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	refresher := refresh.NewWithInterval(
		inflation.New(store),
		geo.NewMatcher(store),
		interval,
	)

	if watch {
		refresher.Run(cmd.Context())
		return nil
	}

	refresher.RunOnce(cmd.Context())
	return nil
}
