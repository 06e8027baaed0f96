package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SashaBaych/steam-scrape/internal/types"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conf.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `{
		"urls": {"rpg": "https://example.com/rpg"},
		"num_of_games_to_retrieve": 25,
		"games_per_page": 20,
		"db_conf": {"driver": "postgres", "host": "db", "port": 5432, "user": "steam", "password": "pw"},
		"alch_conf": {"database": "steam_test"},
		"listing": {"modes": {"rpg": "offset"}, "wait_timeout": "3s"},
		"twitter": {"window": "12h"}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.NumGames != 25 || cfg.GamesPerPage != 20 {
		t.Errorf("counts = %d/%d, want 25/20", cfg.NumGames, cfg.GamesPerPage)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.Port != 5432 || cfg.Database.Password != "pw" {
		t.Errorf("unexpected db_conf %+v", cfg.Database)
	}
	if cfg.Schema.Database != "steam_test" {
		t.Errorf("alch_conf.database = %q", cfg.Schema.Database)
	}
	if cfg.URLs[CategoryRPG] != "https://example.com/rpg" {
		t.Errorf("rpg url = %q", cfg.URLs[CategoryRPG])
	}
	if cfg.URLs[CategoryGlobal] != DefaultURLs()[CategoryGlobal] {
		t.Errorf("global url should keep its default, got %q", cfg.URLs[CategoryGlobal])
	}
	if cfg.ListingMode(CategoryRPG) != ModeOffset {
		t.Errorf("rpg mode = %q, want offset", cfg.ListingMode(CategoryRPG))
	}
	if cfg.Listing.WaitTimeout != 3*time.Second || cfg.Twitter.Window != 12*time.Hour {
		t.Errorf("durations = %s/%s", cfg.Listing.WaitTimeout, cfg.Twitter.Window)
	}
	if cfg.Fetcher.MaxInFlight != 16 {
		t.Errorf("max_in_flight default = %d, want 16", cfg.Fetcher.MaxInFlight)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_Alias(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"num_games": 7, "GAMES_PER_PAGE": 24}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NumGames != 7 {
		t.Errorf("NumGames = %d, want 7", cfg.NumGames)
	}
	if cfg.GamesPerPage != 24 {
		t.Errorf("GamesPerPage = %d, want 24", cfg.GamesPerPage)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("STEAMSCRAPE_GAMES_PER_PAGE", "30")
	t.Setenv("STEAMSCRAPE_TWITTER_BEARER_TOKEN", "from-env")

	cfg, err := Load(writeConfig(t, `{"games_per_page": 12}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GamesPerPage != 30 {
		t.Errorf("GamesPerPage = %d, want 30", cfg.GamesPerPage)
	}
	if cfg.Twitter.BearerToken != "from-env" {
		t.Errorf("BearerToken = %q", cfg.Twitter.BearerToken)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, `{"urls": `)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero games", func(c *Config) { c.NumGames = 0 }, "num_of_games_to_retrieve"},
		{"bad url", func(c *Config) { c.URLs[CategoryRPG] = "ftp://x" }, "urls.rpg"},
		{"bad mode", func(c *Config) { c.Listing.Modes[CategoryAction] = "swipe" }, "listing.modes.action"},
		{"bad driver", func(c *Config) { c.Database.Driver = "oracle" }, "db_conf.driver"},
		{"no schema", func(c *Config) { c.Schema.Database = "" }, "alch_conf.database"},
		{"bad engine", func(c *Config) { c.Browser.Engine = "selenium" }, "browser.engine"},
		{"mongo without uri", func(c *Config) { c.Export.Type = "mongodb" }, "mongo_uri"},
		{"bad export", func(c *Config) { c.Export.Type = "xml" }, "export.type"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"zero rounds", func(c *Config) { c.Listing.MaxRounds = 0 }, "listing.max_rounds"},
		{"negative pages", func(c *Config) { c.Twitter.MaxPages = -1 }, "twitter.max_pages"},
		{"unbounded fetch", func(c *Config) { c.Fetcher.MaxInFlight = 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestValidateCategory(t *testing.T) {
	for _, c := range Categories {
		if err := ValidateCategory(c); err != nil {
			t.Errorf("ValidateCategory(%q): %v", c, err)
		}
	}
	err := ValidateCategory("puzzle")
	if !errors.Is(err, types.ErrInvalidCategory) {
		t.Fatalf("err = %v, want ErrInvalidCategory", err)
	}
}

func TestListingModeDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.ListingMode(CategoryGlobal); got != ModeScroll {
		t.Errorf("global = %q, want scroll", got)
	}
	if got := cfg.ListingMode(CategorySimulation); got != ModeButton {
		t.Errorf("simulation = %q, want button", got)
	}
}
