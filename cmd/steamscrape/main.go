package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SashaBaych/steam-scrape/internal/browser"
	"github.com/SashaBaych/steam-scrape/internal/catalog"
	"github.com/SashaBaych/steam-scrape/internal/config"
	"github.com/SashaBaych/steam-scrape/internal/engine"
	"github.com/SashaBaych/steam-scrape/internal/fetcher"
	"github.com/SashaBaych/steam-scrape/internal/listing"
	"github.com/SashaBaych/steam-scrape/internal/observability"
	"github.com/SashaBaych/steam-scrape/internal/pipeline"
	"github.com/SashaBaych/steam-scrape/internal/storage"
)

var (
	cfgFile    string
	verbose    bool
	category   string
	numGames   int
	dbFlag     string
	exportType string
	withEnrich bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "steamscrape",
		Short: "Scrape the Steam top sellers into a catalog and a relational database",
		Long: `steamscrape reads the top-selling games of a Steam category, fetches each
game's store page (passing the age gate in a browser when needed), prints
the resulting catalog and stores it with daily price and rank history.

Categories: ` + strings.Join(config.Categories, ", "),
		SilenceUsage: true,
		RunE:         runScrape,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config_file_path", "", "path to the JSON config file (required)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.Flags().StringVar(&category, "category", config.CategoryGlobal, "category to scrape: "+strings.Join(config.Categories, ", "))
	rootCmd.Flags().IntVar(&numGames, "num_games", 10, "number of top games to retrieve")
	rootCmd.Flags().StringVar(&dbFlag, "db", "y", "persist the catalog to the database (y/n)")
	rootCmd.Flags().StringVar(&exportType, "export", "", "also export records, comma-separated: json, jsonl, csv, mongodb")
	rootCmd.Flags().BoolVar(&withEnrich, "enrich", false, "count Twitter mentions of the top games after persisting")

	rootCmd.AddCommand(enrichCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads and validates the config named by --config_file_path.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return nil, errors.New("--config_file_path is required")
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("num_games") {
		cfg.NumGames = numGames
	}
	if exportType != "" {
		cfg.Export.Type = strings.ToLower(exportType)
	}
}

func parseYesNo(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, fmt.Errorf("--db must be y or n, got %q", s)
	}
}

// runScrape builds the catalog for one category, prints it and stores it.
func runScrape(cmd *cobra.Command, args []string) error {
	if err := config.ValidateCategory(category); err != nil {
		return err
	}
	persist, err := parseYesNo(dbFlag)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("num_games") && numGames <= 0 {
		return fmt.Errorf("--num_games must be positive, got %d", numGames)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyCLIOverrides(cmd, cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, logCloser := observability.NewLogger(cfg.Logging, verbose)
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		srv := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path)
		defer shutdown(srv, logger)
	}

	logger.Info("starting scrape",
		"category", category,
		"num_games", cfg.NumGames,
		"mode", cfg.ListingMode(category),
		"db", persist,
		"export", cfg.Export.Type,
	)

	start := time.Now()
	cat, err := buildCatalog(ctx, cfg, metrics, logger)
	if err != nil {
		logger.Error("scrape failed", "error", err)
		return err
	}

	records, err := pipeline.Default(logger).ProcessAll(cat.Records())
	if err != nil {
		return err
	}

	fmt.Printf("\nTop %d %s games\n", len(records), category)
	catalog.RenderRecords(os.Stdout, category, records)

	if persist {
		if err := persistCatalog(ctx, cfg, records, metrics, logger); err != nil {
			logger.Error("persist failed", "error", err)
			return err
		}
	}
	if err := exportCatalog(ctx, cfg, records, metrics, logger); err != nil {
		logger.Error("export failed", "error", err)
		return err
	}
	if withEnrich {
		if !persist {
			logger.Warn("mention enrichment needs --db=y, skipping")
		} else if err := runEnrichment(ctx, cfg, metrics, logger); err != nil {
			logger.Error("enrichment failed", "error", err)
			return err
		}
	}

	logger.Info("scrape complete", "elapsed", time.Since(start).Round(time.Millisecond), "games", len(records))
	metrics.LogSummary()
	return nil
}

// buildCatalog wires the fetchers, the listing scraper and the engine.
func buildCatalog(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*catalog.Catalog, error) {
	launcher, err := browser.NewLauncher(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create browser launcher: %w", err)
	}

	direct, err := fetcher.NewHTTPFetcher(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	defer direct.Close()

	gate := fetcher.NewAgeGateFetcher(cfg, launcher, logger)
	defer gate.Close()

	batch := engine.NewBatchFetcher(cfg, direct, gate, metrics, logger)
	lister := listing.NewScraper(cfg, launcher, logger)

	eng := engine.New(cfg, lister, batch, metrics, logger)
	return eng.BuildCatalog(ctx, category, cfg.NumGames)
}

func persistCatalog(ctx context.Context, cfg *config.Config, records []*catalog.GameRecord, metrics *observability.Metrics, logger *slog.Logger) error {
	return observability.Stage(ctx, logger, "persist", func(ctx context.Context) error {
		db, err := storage.OpenDatabase(cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Store(ctx, records); err != nil {
			return err
		}
		metrics.RecordsPersisted.Add(int64(len(records)))
		return nil
	})
}

func exportCatalog(ctx context.Context, cfg *config.Config, records []*catalog.GameRecord, metrics *observability.Metrics, logger *slog.Logger) error {
	exporter, err := storage.NewExporter(cfg, logger)
	if err != nil {
		return fmt.Errorf("create exporter: %w", err)
	}
	if exporter == nil {
		return nil
	}
	return observability.Stage(ctx, logger, "export", func(ctx context.Context) error {
		if err := exporter.Store(ctx, records); err != nil {
			exporter.Close()
			return err
		}
		if err := exporter.Close(); err != nil {
			return err
		}
		metrics.RecordsExported.Add(int64(len(records)))
		return nil
	})
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

func shutdown(srv shutdowner, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("metrics server shutdown", "error", err)
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("steamscrape %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Scrape:\n")
	fmt.Fprintf(w, "  Games to retrieve:  %d\n", cfg.NumGames)
	fmt.Fprintf(w, "  Games per page:     %d\n", cfg.GamesPerPage)
	for _, c := range config.Categories {
		fmt.Fprintf(w, "  %-19s %s (%s)\n", c+":", cfg.URLs[c], cfg.ListingMode(c))
	}
	fmt.Fprintf(w, "\nFetcher:\n")
	fmt.Fprintf(w, "  Request timeout:    %s\n", cfg.Fetcher.RequestTimeout)
	fmt.Fprintf(w, "  Max in flight:      %d\n", cfg.Fetcher.MaxInFlight)
	fmt.Fprintf(w, "  Browser fallbacks:  %d\n", cfg.Fetcher.MaxBrowserFallbacks)
	fmt.Fprintf(w, "  User agents:        %d configured\n", len(cfg.Fetcher.UserAgents))
	fmt.Fprintf(w, "\nBrowser:\n")
	fmt.Fprintf(w, "  Engine:             %s\n", cfg.Browser.Engine)
	fmt.Fprintf(w, "  Headless:           %v\n", cfg.Browser.Headless)
	fmt.Fprintf(w, "  Stealth:            %v\n", cfg.Browser.Stealth)
	fmt.Fprintf(w, "  Gate timeout:       %s\n", cfg.Browser.GateTimeout)
	fmt.Fprintf(w, "\nDatabase:\n")
	fmt.Fprintf(w, "  Driver:             %s\n", cfg.Database.Driver)
	fmt.Fprintf(w, "  Host:               %s:%d\n", cfg.Database.Host, cfg.Database.Port)
	fmt.Fprintf(w, "  Schema:             %s\n", cfg.Schema.Database)
	fmt.Fprintf(w, "\nExport:\n")
	fmt.Fprintf(w, "  Type:               %q\n", cfg.Export.Type)
	fmt.Fprintf(w, "  Output path:        %s\n", cfg.Export.OutputPath)
	fmt.Fprintf(w, "\nTwitter:\n")
	fmt.Fprintf(w, "  Base URL:           %s\n", cfg.Twitter.BaseURL)
	fmt.Fprintf(w, "  Credentials:        %v\n", cfg.Twitter.AccessToken != "" || cfg.Twitter.BearerToken != "")
	fmt.Fprintf(w, "  Top games:          %d\n", cfg.Twitter.TopGames)
	fmt.Fprintf(w, "\nMetrics:\n")
	fmt.Fprintf(w, "  Enabled:            %v\n", cfg.Metrics.Enabled)
	fmt.Fprintf(w, "  Port:               %d\n", cfg.Metrics.Port)
}
