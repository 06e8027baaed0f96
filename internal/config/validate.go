package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/SashaBaych/steam-scrape/internal/types"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.NumGames < 1 {
		return fmt.Errorf("num_of_games_to_retrieve must be >= 1, got %d", cfg.NumGames)
	}
	if cfg.GamesPerPage < 1 {
		return fmt.Errorf("games_per_page must be >= 1, got %d", cfg.GamesPerPage)
	}

	for cat, raw := range cfg.URLs {
		if err := ValidateURL(raw); err != nil {
			return fmt.Errorf("urls.%s: %w", cat, err)
		}
	}
	for cat, mode := range cfg.Listing.Modes {
		if mode != ModeScroll && mode != ModeButton && mode != ModeOffset {
			return fmt.Errorf("listing.modes.%s must be scroll/button/offset, got %q", cat, mode)
		}
	}
	if cfg.Listing.WaitTimeout <= 0 || cfg.Listing.StepTimeout <= 0 || cfg.Listing.PollInterval <= 0 {
		return fmt.Errorf("listing timeouts and poll_interval must be > 0")
	}
	if cfg.Listing.MaxRounds < 1 {
		return fmt.Errorf("listing.max_rounds must be >= 1, got %d", cfg.Listing.MaxRounds)
	}

	if cfg.Fetcher.MaxInFlight < 0 {
		return fmt.Errorf("fetcher.max_in_flight must be >= 0, got %d", cfg.Fetcher.MaxInFlight)
	}
	if cfg.Fetcher.MaxBrowserFallbacks < 1 {
		return fmt.Errorf("fetcher.max_browser_fallbacks must be >= 1, got %d", cfg.Fetcher.MaxBrowserFallbacks)
	}
	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}

	if cfg.Browser.Engine != "rod" && cfg.Browser.Engine != "chromedp" {
		return fmt.Errorf("browser.engine must be 'rod' or 'chromedp', got %q", cfg.Browser.Engine)
	}

	switch cfg.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("db_conf.driver must be mysql/postgres/sqlite, got %q", cfg.Database.Driver)
	}
	if cfg.Schema.Database == "" {
		return fmt.Errorf("alch_conf.database must not be empty")
	}

	validExportTypes := map[string]bool{
		"json": true, "jsonl": true, "csv": true, "mongodb": true,
	}
	for _, t := range cfg.Export.Types() {
		if !validExportTypes[t] {
			return fmt.Errorf("export.type %q is not supported (valid: json, jsonl, csv, mongodb)", t)
		}
		if t == "mongodb" && cfg.Export.MongoURI == "" {
			return fmt.Errorf("export.mongo_uri is required for the mongodb export")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Twitter.MaxPages < 1 {
		return fmt.Errorf("twitter.max_pages must be >= 1, got %d", cfg.Twitter.MaxPages)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateCategory checks that category is one of the supported names.
func ValidateCategory(category string) error {
	if slices.Contains(Categories, category) {
		return nil
	}
	return fmt.Errorf("%w %q (valid: %s)", types.ErrInvalidCategory, category, strings.Join(Categories, ", "))
}

// ValidateURL checks if a URL string is usable as a listing page.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
