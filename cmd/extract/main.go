package main

// Extract DOCX core metadata into Postgres:
//   go run ./cmd/extract --input ./docs

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mdx-backend/internal/bootstrap"
	"mdx-backend/internal/shared/config"
	"mdx-backend/internal/shared/storage/db"
)

func main() {
	var (
		inputPath      string
		dbURL          string
		skipDuplicates bool
	)

	rootCmd := &cobra.Command{
		Use:           "extract",
		Short:         "Extract DOCX metadata into the document store",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if dbURL != "" {
				cfg.DatabaseURL = dbURL
			}
			if _, err := cfg.RequireDatabaseURL(); err != nil {
				return fmt.Errorf("configuration error: %w (provide --db-url or set it in .env)", err)
			}

			ctx := cmd.Context()
			app, err := bootstrap.Build(ctx, cfg, bootstrap.Options{
				DBOptions:      db.DefaultMigrateOptions(),
				RequireDB:      true,
				SkipDuplicates: skipDuplicates,
			})
			if err != nil {
				return err
			}
			defer app.Close()

			// CLI ingestion reads files straight from disk.
			app.Pipeline.Store = nil

			outcomes, err := app.Pipeline.IngestAll(ctx, inputPath)
			if err != nil {
				return err
			}

			failed := 0
			for _, outcome := range outcomes {
				if outcome.Failed() {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "FAILED %s: %v\n", outcome.Path, outcome.Err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "OK %s -> %s\n", outcome.Path, outcome.DocumentID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "processed %d file(s), %d failed\n", len(outcomes), failed)

			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed", failed, len(outcomes))
			}
			return nil
		},
	}

	rootCmd.Flags().StringVar(&inputPath, "input", "", "Path to a .docx file or a folder")
	rootCmd.Flags().StringVar(&dbURL, "db-url", "", "Postgres URL, overrides DATABASE_URL")
	rootCmd.Flags().BoolVar(&skipDuplicates, "skip-duplicates", false, "Reuse done documents with the same content hash")
	_ = rootCmd.MarkFlagRequired("input")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
