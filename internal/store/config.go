package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"stock-dashboard/internal/date"
	"stock-dashboard/internal/types"
)

type Config struct {
	Data   types.Descriptor `yaml:"data"`
	Filter struct {
		Tickers     []string `yaml:"tickers"`
		Start       string   `yaml:"start"`
		End         string   `yaml:"end"`
		StartPolicy string   `yaml:"start_policy"`
	} `yaml:"filter"`
	Report struct {
		Title    string `yaml:"title"`
		Currency string `yaml:"currency"`
		Style    string `yaml:"style"`
		// LastRows is nil when unset; an explicit 0 hides the rows section.
		LastRows *int   `yaml:"last_rows"`
	} `yaml:"report"`
	Server struct {
		Addr                string `yaml:"addr"`
		ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	} `yaml:"server"`
	Bulk struct {
		HTTP struct {
			Targets         []HTTPTarget `yaml:"targets"`
			TimeoutSeconds  int          `yaml:"timeout_seconds"`
			MaxAttempts     int          `yaml:"max_attempts"`
			CacheDir        string       `yaml:"cache_dir"`
			CacheTTLMinutes int          `yaml:"cache_ttl_minutes"`
		} `yaml:"http"`
		Kite struct {
			Exchange     string   `yaml:"exchange"`
			Symbols      []string `yaml:"symbols"`
			LookbackDays int      `yaml:"lookback_days"`
		} `yaml:"kite"`
		Scrape struct {
			URLTemplate    string   `yaml:"url_template"`
			TableSelector  string   `yaml:"table_selector"`
			Symbols        []string `yaml:"symbols"`
			TimeoutSeconds int      `yaml:"timeout_seconds"`
			RateLimitMs    int      `yaml:"rate_limit_ms"`
		} `yaml:"scrape"`
		ClickHouse struct {
			Addr     string   `yaml:"addr"`
			Database string   `yaml:"database"`
			Username string   `yaml:"username"`
			Table    string   `yaml:"table"`
			Symbols  []string `yaml:"symbols"`
		} `yaml:"clickhouse"`
	} `yaml:"bulk"`

	// Env is filled from the environment, never from the file.
	Env Env `yaml:"-"`
}

type HTTPTarget struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Env holds secrets and deployment overrides read from the environment.
type Env struct {
	KiteAPIKey         string `envconfig:"KITE_API_KEY"`
	KiteAccessToken    string `envconfig:"KITE_ACCESS_TOKEN"`
	ClickHousePassword string `envconfig:"CLICKHOUSE_PASSWORD"`
	DataPath           string `envconfig:"DASHBOARD_DATA_PATH"`
	DataSource         string `envconfig:"DASHBOARD_DATA_SOURCE"`
	ServerAddr         string `envconfig:"DASHBOARD_ADDR"`
}

var validSources = []string{"", "http", "kite", "scrape", "clickhouse"}

func (c *Config) Validate() error {
	if c.Data.Path == "" {
		return errors.New("data.path cannot be empty")
	}
	if c.Data.MaxFiles < 0 {
		return fmt.Errorf("data.max_files must be >= 0, got %d", c.Data.MaxFiles)
	}
	if c.Report.LastRows != nil && *c.Report.LastRows < 0 {
		return fmt.Errorf("report.last_rows must be >= 0, got %d", *c.Report.LastRows)
	}
	if !contains(validSources, c.Data.Source) {
		return fmt.Errorf("data.source must be one of http, kite, scrape, clickhouse, got '%s'", c.Data.Source)
	}
	if c.Data.Pattern != "" {
		if _, err := filepath.Match(c.Data.Pattern, "x"); err != nil {
			return fmt.Errorf("data.pattern: %w", err)
		}
	}

	start, end, err := c.FilterDates()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return fmt.Errorf("filter: %w", types.ErrInvalidRange)
	}
	switch types.StartPolicy(c.Filter.StartPolicy) {
	case "", types.StartExact, types.StartFirst:
	default:
		return fmt.Errorf("filter.start_policy must be 'EXACT' or 'FIRST', got '%s'", c.Filter.StartPolicy)
	}

	switch c.Data.Source {
	case "http":
		if len(c.Bulk.HTTP.Targets) == 0 {
			return errors.New("bulk.http.targets cannot be empty when data.source is http")
		}
	case "kite":
		if len(c.Bulk.Kite.Symbols) == 0 {
			return errors.New("bulk.kite.symbols cannot be empty when data.source is kite")
		}
		if c.Env.KiteAPIKey == "" || c.Env.KiteAccessToken == "" {
			return errors.New("KITE_API_KEY and KITE_ACCESS_TOKEN must be set when data.source is kite")
		}
	case "scrape":
		if !strings.Contains(c.Bulk.Scrape.URLTemplate, "{symbol}") {
			return fmt.Errorf("bulk.scrape.url_template must contain {symbol}, got '%s'", c.Bulk.Scrape.URLTemplate)
		}
	case "clickhouse":
		if c.Bulk.ClickHouse.Addr == "" {
			return errors.New("bulk.clickhouse.addr cannot be empty when data.source is clickhouse")
		}
	}
	return nil
}

// FilterDates parses the configured default bounds; zero means unset.
func (c *Config) FilterDates() (start, end date.Date, err error) {
	if c.Filter.Start != "" {
		if start, err = date.Parse(c.Filter.Start); err != nil {
			return start, end, fmt.Errorf("filter.start: %w", err)
		}
	}
	if c.Filter.End != "" {
		if end, err = date.Parse(c.Filter.End); err != nil {
			return start, end, fmt.Errorf("filter.end: %w", err)
		}
	}
	return start, end, nil
}

// ReportRows is the number of trailing rows the report lists.
func (c *Config) ReportRows() int {
	if c.Report.LastRows == nil {
		return 0
	}
	return *c.Report.LastRows
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Bulk.HTTP.TimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Bulk.HTTP.CacheTTLMinutes) * time.Minute
}

// LoadConfig reads the YAML file, applies environment overrides and
// defaults, and validates the result.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

func ParseConfig(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &c.Env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	c.applyEnv()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	if c.Env.DataPath != "" {
		c.Data.Path = c.Env.DataPath
	}
	if c.Env.DataSource != "" {
		c.Data.Source = c.Env.DataSource
	}
	if c.Env.ServerAddr != "" {
		c.Server.Addr = c.Env.ServerAddr
	}
}

func (c *Config) applyDefaults() {
	c.Filter.StartPolicy = strings.ToUpper(c.Filter.StartPolicy)
	if c.Filter.StartPolicy == "" {
		c.Filter.StartPolicy = string(types.StartExact)
	}
	if c.Report.Currency == "" {
		c.Report.Currency = "USD"
	}
	if c.Report.LastRows == nil {
		rows := 10
		c.Report.LastRows = &rows
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 30
	}
	if c.Bulk.HTTP.TimeoutSeconds == 0 {
		c.Bulk.HTTP.TimeoutSeconds = 30
	}
	if c.Bulk.HTTP.MaxAttempts == 0 {
		c.Bulk.HTTP.MaxAttempts = 3
	}
	if c.Bulk.HTTP.CacheDir == "" {
		c.Bulk.HTTP.CacheDir = "cache/downloads"
	}
	if c.Bulk.HTTP.CacheTTLMinutes == 0 {
		c.Bulk.HTTP.CacheTTLMinutes = 24 * 60
	}
	if c.Bulk.Kite.Exchange == "" {
		c.Bulk.Kite.Exchange = "NSE"
	}
	if c.Bulk.Kite.LookbackDays == 0 {
		c.Bulk.Kite.LookbackDays = 365
	}
	if c.Bulk.Scrape.TimeoutSeconds == 0 {
		c.Bulk.Scrape.TimeoutSeconds = 30
	}
	if c.Bulk.ClickHouse.Table == "" {
		c.Bulk.ClickHouse.Table = "market_ticks"
	}
	if c.Bulk.ClickHouse.Database == "" {
		c.Bulk.ClickHouse.Database = "default"
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
