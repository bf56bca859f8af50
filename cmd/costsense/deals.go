package main

import (
	"github.com/spf13/cobra"

	"github.com/shadatr/costsense-backend/internal/cli"
	"github.com/shadatr/costsense-backend/internal/geo"
	"github.com/shadatr/costsense-backend/internal/model"
)

func dealsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deals",
		Short: "Find, track, and redeem grocery deals",
	}
	cmd.AddCommand(dealsNearbyCmd())
	cmd.AddCommand(dealsCategoryCmd())
	cmd.AddCommand(dealsTrackCmd())
	cmd.AddCommand(dealsSavedCmd())
	cmd.AddCommand(dealsUseCmd())
	return cmd
}

func dealsNearbyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List deals near a point, closest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lat, _ := cmd.Flags().GetFloat64("lat")
			lng, _ := cmd.Flags().GetFloat64("lng")
			radius, _ := cmd.Flags().GetFloat64("radius")

			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			result, err := geo.NewMatcher(store).Nearby(cmd.Context(), lat, lng, radius)
			if err != nil {
				return err
			}
			cmd.Print(cli.RenderDeals(result.Deals, result.Fallback))
			return nil
		},
	}
	cmd.Flags().Float64("lat", 0, "latitude")
	cmd.Flags().Float64("lng", 0, "longitude")
	cmd.Flags().Float64("radius", 5, "search radius in km (0-50]")
	return cmd
}

func dealsCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "category <name>",
		Short: "List deals matching a category, best discount first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			deals, err := geo.NewMatcher(store).ByCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Print(cli.RenderDeals(withoutDistances(deals), false))
			return nil
		},
	}
}

func dealsTrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track <deal-id>",
		Short: "Save a deal for later",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser(cmd.Flags().GetString)
			if err != nil {
				return err
			}

			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := geo.NewMatcher(store).Track(cmd.Context(), user, args[0]); err != nil {
				return err
			}
			cmd.Println("Deal saved.")
			return nil
		},
	}
	cmd.Flags().String("user", "", "owner id")
	return cmd
}

func dealsSavedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saved",
		Short: "List your saved deals that are still valid",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := requireUser(cmd.Flags().GetString)
			if err != nil {
				return err
			}

			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			deals, err := geo.NewMatcher(store).Saved(cmd.Context(), user)
			if err != nil {
				return err
			}
			cmd.Print(cli.RenderDeals(withoutDistances(deals), false))
			return nil
		},
	}
	cmd.Flags().String("user", "", "owner id")
	return cmd
}

func dealsUseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <deal-id>",
		Short: "Mark a saved deal as redeemed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser(cmd.Flags().GetString)
			if err != nil {
				return err
			}

			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := geo.NewMatcher(store).MarkUsed(cmd.Context(), user, args[0]); err != nil {
				return err
			}
			cmd.Println("Deal marked as used.")
			return nil
		},
	}
	cmd.Flags().String("user", "", "owner id")
	return cmd
}

func withoutDistances(deals []model.Deal) []model.DealWithDistance {
	out := make([]model.DealWithDistance, 0, len(deals))
	for _, deal := range deals {
		out = append(out, model.DealWithDistance{Deal: deal})
	}
	return out
}
