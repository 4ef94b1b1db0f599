package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TysunM/subzero/internal/cli"
	"github.com/TysunM/subzero/internal/gmail"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Connect external accounts",
		Long:  `Connect the external accounts subzero scans: Gmail and bank accounts via Plaid.`,
	}

	cmd.AddCommand(authGmailCmd())
	cmd.AddCommand(authPlaidCmd())

	return cmd
}

func authGmailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gmail",
		Short: "Connect a Gmail account",
		Long: `Connect a Gmail account for subscription discovery.

This command will:
1. Start a local callback server
2. Print a Google consent URL to open in your browser
3. Wait for you to approve read-only access
4. Save the resulting token for future scans

Only the gmail.readonly scope is requested.`,
		RunE: runAuthGmail,
	}

	cmd.Flags().Bool("disconnect", false, "remove the stored Gmail credentials instead")

	return cmd
}

func runAuthGmail(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	disconnect, _ := cmd.Flags().GetBool("disconnect")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	oauthCfg := gmailOAuthConfig()
	if oauthCfg.ClientID == "" || oauthCfg.ClientSecret == "" {
		return fmt.Errorf("gmail OAuth is not configured; set gmail.client_id and gmail.client_secret in your config")
	}

	tokens := gmail.NewTokenStore(store, oauthCfg, nil)
	user := currentUser()

	if disconnect {
		if err := tokens.Disconnect(ctx, user); err != nil {
			return fmt.Errorf("disconnecting gmail: %w", err)
		}
		fmt.Println(cli.FormatSuccess("Gmail disconnected"))
		return nil
	}

	creds, err := gmail.AuthorizeInteractive(ctx, oauthCfg, user)
	if err != nil {
		return fmt.Errorf("gmail authorization failed: %w", err)
	}
	if err := tokens.Save(ctx, creds); err != nil {
		return fmt.Errorf("saving gmail credentials: %w", err)
	}

	fmt.Println(cli.FormatSuccess("Gmail connected. Run 'subzero discover' to scan for subscriptions."))
	return nil
}

func authPlaidCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plaid",
		Short: "Connect bank accounts via Plaid",
		Long: `Connect bank accounts using Plaid Link.

Without flags this prints a fresh Link token; open Plaid Link with it in
your frontend of choice, then finish here with the public token it hands
back:

  subzero auth plaid --public-token public-sandbox-...`,
		RunE: runAuthPlaid,
	}

	cmd.Flags().String("public-token", "", "public token from a completed Plaid Link session")

	return cmd
}

func runAuthPlaid(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	publicToken, _ := cmd.Flags().GetString("public-token")

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

	if publicToken == "" {
		token, linkErr := svc.LinkToken(ctx, user)
		if linkErr != nil {
			return fmt.Errorf("creating link token: %w", linkErr)
		}
		fmt.Println(cli.FormatTitle("Plaid Link token"))
		fmt.Println(token)
		fmt.Println(cli.SubtleStyle.Render("Complete Plaid Link with this token, then re-run with --public-token."))
		return nil
	}

	if err := svc.ConnectBank(ctx, user, publicToken); err != nil {
		return fmt.Errorf("linking bank account: %w", err)
	}
	fmt.Println(cli.FormatSuccess("Bank account connected. Run 'subzero discover --bank --sync' to scan it."))
	return nil
}
