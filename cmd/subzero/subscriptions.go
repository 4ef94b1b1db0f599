package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TysunM/subzero/internal/cli"
)

func subscriptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscriptions",
		Aliases: []string{"subs"},
		Short:   "Manage saved subscriptions",
	}

	cmd.AddCommand(subscriptionsListCmd())
	cmd.AddCommand(subscriptionsSummaryCmd())
	cmd.AddCommand(subscriptionsRemoveCmd())

	return cmd
}

func subscriptionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved subscriptions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc, _, err := newDiscoveryService(store)
			if err != nil {
				return err
			}

			subs, err := svc.ListSubscriptions(ctx, currentUser())
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle("Saved subscriptions"))
			fmt.Println(cli.RenderSubscriptions(subs))
			return nil
		},
	}
}

func subscriptionsSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show spending analysis and savings recommendations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc, _, err := newDiscoveryService(store)
			if err != nil {
				return err
			}

			summary, err := svc.Summary(ctx, currentUser())
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle("Spending summary"))
			fmt.Println(cli.RenderAnalysis(summary.Analysis))
			fmt.Println(cli.FormatTitle("Recommendations"))
			fmt.Println(cli.RenderRecommendations(summary.Recommendations))
			return nil
		},
	}
}

func subscriptionsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a saved subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc, _, err := newDiscoveryService(store)
			if err != nil {
				return err
			}

			if err := svc.RemoveSubscription(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Subscription removed"))
			return nil
		},
	}
}
