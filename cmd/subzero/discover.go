package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/TysunM/subzero/internal/cli"
	"github.com/TysunM/subzero/internal/common"
	"github.com/TysunM/subzero/internal/service"
)

func discoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Scan email and bank activity for subscriptions",
		Long: `Scan connected accounts for recurring subscriptions.

By default every connected source is scanned. Use --email or --bank to
restrict the run to one source.

Examples:
  # Scan everything that is connected
  subzero discover

  # Email only, saving everything found
  subzero discover --email --save

  # Pull fresh bank transactions first, then scan
  subzero discover --bank --sync`,
		RunE: runDiscover,
	}

	cmd.Flags().Bool("email", false, "scan email only")
	cmd.Flags().Bool("bank", false, "scan bank activity only")
	cmd.Flags().Bool("sync", false, "pull fresh bank transactions before scanning")
	cmd.Flags().Bool("save", false, "save every candidate found")
	cmd.Flags().Int("max-results", 0, "cap on messages scanned across all email queries")

	return cmd
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	email, _ := cmd.Flags().GetBool("email")
	bank, _ := cmd.Flags().GetBool("bank")
	sync, _ := cmd.Flags().GetBool("sync")
	save, _ := cmd.Flags().GetBool("save")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	svc, _, err := newDiscoveryService(store)
	if err != nil {
		return err
	}
	user := currentUser()

	if sync {
		since := time.Now().AddDate(-1, 0, 0)
		count, syncErr := svc.SyncBankTransactions(ctx, user, since)
		if syncErr != nil {
			return fmt.Errorf("syncing bank transactions: %w", syncErr)
		}
		slog.Info("synced bank transactions", "count", count)
	}

	fmt.Println(cli.FormatTitle("Scanning for subscriptions..."))

	candidates, err := svc.Discover(ctx, user, service.DiscoverOptions{
		MaxResults: maxResults,
		Email:      email,
		Bank:       bank,
	})
	switch {
	case errors.Is(err, common.ErrNotConnected):
		fmt.Println(cli.FormatWarning("No accounts connected. Run 'subzero auth gmail' or 'subzero auth plaid' first."))
		return nil
	case errors.Is(err, common.ErrTokenRefresh):
		fmt.Println(cli.FormatWarning("Your Gmail token has expired. Run 'subzero auth gmail' to reconnect."))
		return nil
	case err != nil:
		return err
	}

	fmt.Println(cli.RenderCandidates(candidates))

	if !save {
		if len(candidates) > 0 {
			fmt.Println(cli.SubtleStyle.Render("Re-run with --save to track these subscriptions."))
		}
		return nil
	}

	saved := 0
	for _, cand := range candidates {
		if _, saveErr := svc.SaveDiscovered(ctx, user, cand); saveErr != nil {
			slog.Warn("failed to save candidate", "service", cand.Service, "error", saveErr)
			continue
		}
		saved++
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Saved %d of %d subscriptions", saved, len(candidates))))
	return nil
}
