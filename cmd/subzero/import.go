package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TysunM/subzero/internal/cli"
	"github.com/TysunM/subzero/internal/model"
	"github.com/TysunM/subzero/internal/ofx"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import bank transactions from OFX or QFX (Quicken) files.

Imported transactions feed recurring-charge detection, so banks without
Plaid support can still be scanned.

Examples:
  # Import a single export
  subzero import ~/Downloads/chase_jan_2024.qfx

  # Import everything in a directory
  subzero import ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	// Expand globs and collect all files
	var allFiles []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			// If no glob matches, check if it's a direct file
			if _, err := os.Stat(pattern); err == nil {
				allFiles = append(allFiles, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
		} else {
			allFiles = append(allFiles, matches...)
		}
	}

	if len(allFiles) == 0 {
		return fmt.Errorf("no files found to import")
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Importing %d file(s)...", len(allFiles))))

	user := currentUser()
	parser := ofx.NewParser()
	seen := make(map[string]bool)
	var transactions []model.Transaction

	bar := cli.NewProgressBar(os.Stderr, len(allFiles), "Parsing OFX files...")
	for _, filePath := range allFiles {
		f, err := os.Open(filePath)
		if err != nil {
			slog.Error("Failed to open file", "file", filePath, "error", err)
			_ = bar.Add(1)
			continue
		}

		parsed, err := parser.ParseFile(ctx, f, user)
		_ = f.Close()
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", filePath, "error", err)
			_ = bar.Add(1)
			continue
		}

		added := 0
		for _, tx := range parsed {
			if !seen[tx.Hash] {
				seen[tx.Hash] = true
				transactions = append(transactions, tx)
				added++
			}
		}
		slog.Info("Processed file",
			"file", filepath.Base(filePath),
			"transactions_found", len(parsed),
			"added", added,
			"duplicates", len(parsed)-added)
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Println()

	if len(transactions) == 0 {
		fmt.Println(cli.FormatWarning("No transactions found in any file"))
		return nil
	}

	if dryRun {
		fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("Dry run: %d unique transactions parsed, nothing saved.", len(transactions))))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveTransactions(ctx, transactions); err != nil {
		return fmt.Errorf("saving transactions: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d transactions", len(transactions))))
	fmt.Println(cli.SubtleStyle.Render("Run 'subzero discover --bank' to detect recurring charges."))
	return nil
}
