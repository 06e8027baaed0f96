package config

import (
	"strings"
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Category names accepted on the command line.
const (
	CategoryGlobal       = "global"
	CategoryRPG          = "rpg"
	CategoryAction       = "action"
	CategoryStrategy     = "strategy"
	CategoryAdventure    = "adventure"
	CategorySimulation   = "simulation"
	CategorySportsRacing = "sports_racing"
)

// Categories lists every supported category in display order.
var Categories = []string{
	CategoryRPG,
	CategoryAction,
	CategoryStrategy,
	CategoryAdventure,
	CategorySimulation,
	CategorySportsRacing,
	CategoryGlobal,
}

// Listing modes.
const (
	ModeScroll = "scroll"
	ModeButton = "button"
	ModeOffset = "offset"
)

// Config is the root configuration for a scrape run.
type Config struct {
	URLs         map[string]string `mapstructure:"urls"                     json:"urls"`
	NumGames     int               `mapstructure:"num_of_games_to_retrieve" json:"num_of_games_to_retrieve"`
	GamesPerPage int               `mapstructure:"games_per_page"           json:"GAMES_PER_PAGE"`
	Database     DatabaseConfig    `mapstructure:"db_conf"                  json:"db_conf"`
	Schema       SchemaConfig      `mapstructure:"alch_conf"                json:"alch_conf"`
	Listing      ListingConfig     `mapstructure:"listing"                  json:"listing"`
	Fetcher      FetcherConfig     `mapstructure:"fetcher"                  json:"fetcher"`
	Browser      BrowserConfig     `mapstructure:"browser"                  json:"browser"`
	Twitter      TwitterConfig     `mapstructure:"twitter"                  json:"twitter"`
	Export       ExportConfig      `mapstructure:"export"                   json:"export"`
	Logging      LoggingConfig     `mapstructure:"logging"                  json:"logging"`
	Metrics      MetricsConfig     `mapstructure:"metrics"                  json:"metrics"`
}

// DatabaseConfig holds the relational store connection settings.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"   json:"driver"`
	Host     string `mapstructure:"host"     json:"host"`
	Port     int    `mapstructure:"port"     json:"port"`
	User     string `mapstructure:"user"     json:"user"`
	Password string `mapstructure:"password" json:"-"`
}

// SchemaConfig names the database (or sqlite file) the tables live in.
type SchemaConfig struct {
	Database string `mapstructure:"database" json:"database"`
}

// ListingConfig controls how listing pages are walked.
type ListingConfig struct {
	Modes        map[string]string `mapstructure:"modes"         json:"modes"`
	WaitTimeout  time.Duration     `mapstructure:"wait_timeout"  json:"wait_timeout"`
	StepTimeout  time.Duration     `mapstructure:"step_timeout"  json:"step_timeout"`
	PollInterval time.Duration     `mapstructure:"poll_interval" json:"poll_interval"`
	MaxRounds    int               `mapstructure:"max_rounds"    json:"max_rounds"`
}

// FetcherConfig controls direct detail page fetching.
type FetcherConfig struct {
	RequestTimeout      time.Duration `mapstructure:"request_timeout"       json:"request_timeout"`
	MaxInFlight         int           `mapstructure:"max_in_flight"         json:"max_in_flight"`
	MaxBrowserFallbacks int           `mapstructure:"max_browser_fallbacks" json:"max_browser_fallbacks"`
	MaxBodySize         int64         `mapstructure:"max_body_size"         json:"max_body_size"`
	UserAgents          []string      `mapstructure:"user_agents"           json:"user_agents"`
}

// BrowserConfig controls the headless browser used for listings and the age gate.
type BrowserConfig struct {
	Engine       string        `mapstructure:"engine"        json:"engine"`
	Headless     bool          `mapstructure:"headless"      json:"headless"`
	Stealth      bool          `mapstructure:"stealth"       json:"stealth"`
	WindowWidth  int           `mapstructure:"window_width"  json:"window_width"`
	WindowHeight int           `mapstructure:"window_height" json:"window_height"`
	GateTimeout  time.Duration `mapstructure:"gate_timeout"  json:"gate_timeout"`
	BirthYear    string        `mapstructure:"birth_year"    json:"birth_year"`
	BinPath      string        `mapstructure:"bin_path"      json:"bin_path"`
}

// TwitterConfig holds the search API credentials for the mention enricher.
type TwitterConfig struct {
	BaseURL        string        `mapstructure:"base_url"        json:"base_url"`
	ConsumerKey    string        `mapstructure:"consumer_key"    json:"-"`
	ConsumerSecret string        `mapstructure:"consumer_secret" json:"-"`
	AccessToken    string        `mapstructure:"access_token"    json:"-"`
	AccessSecret   string        `mapstructure:"access_secret"   json:"-"`
	BearerToken    string        `mapstructure:"bearer_token"    json:"-"`
	TopGames       int           `mapstructure:"top_games"       json:"top_games"`
	Window         time.Duration `mapstructure:"window"          json:"window"`
	MaxPages       int           `mapstructure:"max_pages"       json:"max_pages"`
	Timeout        time.Duration `mapstructure:"timeout"         json:"timeout"`
}

// ExportConfig controls the optional record export after a run. Type is a
// comma-separated list of sinks.
type ExportConfig struct {
	Type            string `mapstructure:"type"             json:"type"`
	OutputPath      string `mapstructure:"output_path"      json:"output_path"`
	MongoURI        string `mapstructure:"mongo_uri"        json:"-"`
	MongoDatabase   string `mapstructure:"mongo_database"   json:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" json:"mongo_collection"`
}

// Types returns the configured sink names, lower-cased, without blanks.
func (e ExportConfig) Types() []string {
	var out []string
	for _, t := range strings.Split(e.Type, ",") {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level      string `mapstructure:"level"       json:"level"`
	Format     string `mapstructure:"format"      json:"format"`
	File       string `mapstructure:"file"        json:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups"`
}

// MetricsConfig controls the metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Port    int    `mapstructure:"port"    json:"port"`
	Path    string `mapstructure:"path"    json:"path"`
}

// DefaultURLs are the top-seller pages per category.
func DefaultURLs() map[string]string {
	return map[string]string{
		CategoryGlobal:       "https://store.steampowered.com/search/?filter=topsellers",
		CategoryRPG:          "https://store.steampowered.com/category/rpg/?flavor=contenthub_topsellers",
		CategoryAction:       "https://store.steampowered.com/category/action/?flavor=contenthub_topsellers",
		CategoryStrategy:     "https://store.steampowered.com/category/strategy/?flavor=contenthub_topsellers",
		CategoryAdventure:    "https://store.steampowered.com/category/adventure/?flavor=contenthub_topsellers",
		CategorySimulation:   "https://store.steampowered.com/category/simulation/?flavor=contenthub_topsellers",
		CategorySportsRacing: "https://store.steampowered.com/category/sports_and_racing/?flavor=contenthub_topsellers",
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		URLs:         DefaultURLs(),
		NumGames:     10,
		GamesPerPage: 12,
		Database: DatabaseConfig{
			Driver: "mysql",
			Host:   "localhost",
			Port:   3306,
			User:   "root",
		},
		Schema: SchemaConfig{Database: "steam_scrape"},
		Listing: ListingConfig{
			Modes:        map[string]string{},
			WaitTimeout:  10 * time.Second,
			StepTimeout:  5 * time.Second,
			PollInterval: 500 * time.Millisecond,
			MaxRounds:    50,
		},
		Fetcher: FetcherConfig{
			RequestTimeout:      30 * time.Second,
			MaxInFlight:         16,
			MaxBrowserFallbacks: 1,
			MaxBodySize:         10 * 1024 * 1024,
		},
		Browser: BrowserConfig{
			Engine:       "rod",
			Headless:     true,
			Stealth:      true,
			WindowWidth:  1024,
			WindowHeight: 2000,
			GateTimeout:  5 * time.Second,
			BirthYear:    "1980",
		},
		Twitter: TwitterConfig{
			BaseURL:  "https://api.twitter.com/1.1",
			TopGames: 10,
			Window:   24 * time.Hour,
			MaxPages: 50,
			Timeout:  30 * time.Second,
		},
		Export: ExportConfig{
			OutputPath:      "./output",
			MongoDatabase:   "steam_scrape",
			MongoCollection: "games",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			File:       "steam_scrape_" + time.Now().Format("2006-01-02_15-04") + ".log",
			MaxSizeMB:  20,
			MaxBackups: 5,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// ListingMode returns the configured listing mode for a category.
func (c *Config) ListingMode(category string) string {
	if m, ok := c.Listing.Modes[category]; ok && m != "" {
		return m
	}
	if category == CategoryGlobal {
		return ModeScroll
	}
	return ModeButton
}
