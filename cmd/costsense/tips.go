package main

import (
	"github.com/spf13/cobra"

	"github.com/shadatr/costsense-backend/internal/cli"
	"github.com/shadatr/costsense-backend/internal/model"
	"github.com/shadatr/costsense-backend/internal/tips"
)

func tipsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tips",
		Short: "Savings tips, personalized from your spending",
	}
	cmd.AddCommand(tipsListCmd())
	cmd.AddCommand(tipsForMeCmd())
	cmd.AddCommand(tipsViewCmd())
	cmd.AddCommand(tipsFeedbackCmd())
	cmd.AddCommand(tipsDismissCmd())
	return cmd
}

func tipsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every active tip, highest priority first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			active, err := tips.NewService(store).Active(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Print(cli.RenderTips(withoutMarks(active)))
			return nil
		},
	}
}

func tipsForMeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "for-me",
		Short: "Show tips matched to your last month of spending",
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

			personalized, err := tips.NewService(store).Personalized(cmd.Context(), user)
			if err != nil {
				return err
			}
			cmd.Print(cli.RenderTips(personalized))
			return nil
		},
	}
	cmd.Flags().String("user", "", "owner id")
	return cmd
}

func tipsViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view <tip-id>",
		Short: "Mark a tip as read",
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

			if err := tips.NewService(store).MarkViewed(cmd.Context(), user, args[0]); err != nil {
				return err
			}
			cmd.Println("Tip marked as read.")
			return nil
		},
	}
	cmd.Flags().String("user", "", "owner id")
	return cmd
}

func tipsFeedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback <tip-id>",
		Short: "Tell the engine whether a tip helped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser(cmd.Flags().GetString)
			if err != nil {
				return err
			}
			helpful, _ := cmd.Flags().GetBool("helpful")

			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := tips.NewService(store).Feedback(cmd.Context(), user, args[0], helpful); err != nil {
				return err
			}
			cmd.Println("Thanks for the feedback.")
			return nil
		},
	}
	cmd.Flags().String("user", "", "owner id")
	cmd.Flags().Bool("helpful", true, "whether the tip was helpful")
	return cmd
}

func tipsDismissCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dismiss <tip-id>",
		Short: "Hide a tip from your personalized listing",
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

			if err := tips.NewService(store).Dismiss(cmd.Context(), user, args[0]); err != nil {
				return err
			}
			cmd.Println("Tip dismissed.")
			return nil
		},
	}
	cmd.Flags().String("user", "", "owner id")
	return cmd
}

func withoutMarks(tipList []model.SavingsTip) []model.PersonalizedTip {
	out := make([]model.PersonalizedTip, 0, len(tipList))
	for _, tip := range tipList {
		out = append(out, model.PersonalizedTip{SavingsTip: tip})
	}
	return out
}
