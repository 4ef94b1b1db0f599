package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TysunM/subzero/internal/gmail"
	"github.com/TysunM/subzero/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Start the subzero HTTP API.

The API exposes discovery, subscription management, and the Gmail and
Plaid connection flows for a web or mobile frontend.`,
		RunE: runServe,
	}

	cmd.Flags().String("address", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.address", cmd.Flags().Lookup("address"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	svc, tokens, err := newDiscoveryService(store)
	if err != nil {
		return err
	}
	connector := gmail.NewConnector(gmailOAuthConfig(), tokens)

	address := viper.GetString("server.address")
	if address == "" {
		address = ":8080"
	}

	srv := server.New(server.Config{Address: address}, svc, connector, slog.Default())
	return srv.Run(ctx)
}
