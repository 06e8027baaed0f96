package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from a JSON file, a .env file, and the environment.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied by the caller after Load returns.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("json")

	setDefaults(v, cfg)

	v.SetEnvPrefix("STEAMSCRAPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		return nil, errors.New("config file path is required")
	}
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// Registered after reading so values under the short key are moved over.
	v.RegisterAlias("num_games", "num_of_games_to_retrieve")

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Categories missing from the file keep their default URL.
	if cfg.URLs == nil {
		cfg.URLs = make(map[string]string)
	}
	for cat, u := range DefaultURLs() {
		if cfg.URLs[cat] == "" {
			cfg.URLs[cat] = u
		}
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env overrides resolve.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("num_of_games_to_retrieve", cfg.NumGames)
	v.SetDefault("games_per_page", cfg.GamesPerPage)

	v.SetDefault("db_conf.driver", cfg.Database.Driver)
	v.SetDefault("db_conf.host", cfg.Database.Host)
	v.SetDefault("db_conf.port", cfg.Database.Port)
	v.SetDefault("db_conf.user", cfg.Database.User)
	v.SetDefault("db_conf.password", cfg.Database.Password)
	v.SetDefault("alch_conf.database", cfg.Schema.Database)

	v.SetDefault("listing.wait_timeout", cfg.Listing.WaitTimeout)
	v.SetDefault("listing.step_timeout", cfg.Listing.StepTimeout)
	v.SetDefault("listing.poll_interval", cfg.Listing.PollInterval)
	v.SetDefault("listing.max_rounds", cfg.Listing.MaxRounds)

	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.max_in_flight", cfg.Fetcher.MaxInFlight)
	v.SetDefault("fetcher.max_browser_fallbacks", cfg.Fetcher.MaxBrowserFallbacks)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)

	v.SetDefault("browser.engine", cfg.Browser.Engine)
	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.window_width", cfg.Browser.WindowWidth)
	v.SetDefault("browser.window_height", cfg.Browser.WindowHeight)
	v.SetDefault("browser.gate_timeout", cfg.Browser.GateTimeout)
	v.SetDefault("browser.birth_year", cfg.Browser.BirthYear)
	v.SetDefault("browser.bin_path", cfg.Browser.BinPath)

	v.SetDefault("twitter.base_url", cfg.Twitter.BaseURL)
	v.SetDefault("twitter.consumer_key", "")
	v.SetDefault("twitter.consumer_secret", "")
	v.SetDefault("twitter.access_token", "")
	v.SetDefault("twitter.access_secret", "")
	v.SetDefault("twitter.bearer_token", "")
	v.SetDefault("twitter.top_games", cfg.Twitter.TopGames)
	v.SetDefault("twitter.window", cfg.Twitter.Window)
	v.SetDefault("twitter.max_pages", cfg.Twitter.MaxPages)
	v.SetDefault("twitter.timeout", cfg.Twitter.Timeout)

	v.SetDefault("export.type", cfg.Export.Type)
	v.SetDefault("export.output_path", cfg.Export.OutputPath)
	v.SetDefault("export.mongo_uri", cfg.Export.MongoURI)
	v.SetDefault("export.mongo_database", cfg.Export.MongoDatabase)
	v.SetDefault("export.mongo_collection", cfg.Export.MongoCollection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
