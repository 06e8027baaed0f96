package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/SashaBaych/steam-scrape/internal/config"
	"github.com/SashaBaych/steam-scrape/internal/enrich"
	"github.com/SashaBaych/steam-scrape/internal/observability"
	"github.com/SashaBaych/steam-scrape/internal/storage"
)

var enrichTop int

// enrichCmd creates the "enrich" subcommand.
func enrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Count Twitter mentions of the most recently ranked games",
		Long: `Reads the games with the latest top-seller sample from the database,
searches recent tweets for each cleaned title and stores one mention count
per game and day. Credentials come from the config file or the
STEAMSCRAPE_TWITTER_* environment variables.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("top") {
				cfg.Twitter.TopGames = enrichTop
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger, logCloser := observability.NewLogger(cfg.Logging, verbose)
			defer logCloser.Close()

			metrics := observability.NewMetrics(logger)
			if err := runEnrichment(cmd.Context(), cfg, metrics, logger); err != nil {
				logger.Error("enrichment failed", "error", err)
				return err
			}
			metrics.LogSummary()
			return nil
		},
	}

	cmd.Flags().IntVar(&enrichTop, "top", 10, "number of top games to query")
	return cmd
}

func runEnrichment(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) error {
	client, err := enrich.NewTwitterClient(cfg.Twitter, logger)
	if err != nil {
		return err
	}

	return observability.Stage(ctx, logger, "enrich", func(ctx context.Context) error {
		db, err := storage.OpenDatabase(cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		mentions, err := enrich.NewEnricher(client, db, cfg.Twitter.TopGames, metrics, logger).Run(ctx)
		for _, m := range mentions {
			fmt.Printf("%-50s %d\n", m.Title, m.Count)
		}
		return err
	})
}
