// Package config provides configuration management for the crawler.
// Every retry, timeout and cap knob lives here so tests can run with zero
// sleeps and low limits.
package config

import "time"

// CrawlConfig holds the crawl run configuration.
type CrawlConfig struct {
	// Inputs and collaborators
	SeedFile      string `mapstructure:"seed_file" yaml:"seed_file"`           // Path to the |||-delimited crawl target list
	DatabasePath  string `mapstructure:"database_path" yaml:"database_path"`   // Path to the SQLite database file
	ArchivePrefix string `mapstructure:"archive_prefix" yaml:"archive_prefix"` // Lookup path prepended to original URLs

	// Fetch behaviour
	UserAgent       string        `mapstructure:"user_agent" yaml:"user_agent"`             // HTTP User-Agent header, plain and rendered fetches alike
	RequestDelay    time.Duration `mapstructure:"request_delay" yaml:"request_delay"`       // Minimum spacing between requests to one domain
	SleepCeiling    time.Duration `mapstructure:"sleep_ceiling" yaml:"sleep_ceiling"`       // Upper bound of the random post-fetch sleep
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`       // Whole-call budget for one fetch, retries included
	PageLoadTimeout time.Duration `mapstructure:"page_load_timeout" yaml:"page_load_timeout"` // Browser page-load budget
	SearchTimeout   time.Duration `mapstructure:"search_timeout" yaml:"search_timeout"`     // Deadline for one in-HTML link search
	RetryAttempts   int           `mapstructure:"retry_attempts" yaml:"retry_attempts"`     // GET attempts before escalating to timeout
	RetryWait       time.Duration `mapstructure:"retry_wait" yaml:"retry_wait"`             // Wait between GET attempts
	RetryBudget     time.Duration `mapstructure:"retry_budget" yaml:"retry_budget"`         // Overall ceiling on retrying one GET
	Headless        bool          `mapstructure:"headless" yaml:"headless"`                 // Run the rendering browser headless

	// Walk and seed policy
	MaxPages     int           `mapstructure:"max_pages" yaml:"max_pages"`         // Page cap per article walk
	SeedCooldown time.Duration `mapstructure:"seed_cooldown" yaml:"seed_cooldown"` // Sleep before retrying a failed seed
	SeedRetryCap int           `mapstructure:"seed_retry_cap" yaml:"seed_retry_cap"` // Retries per seed before skipping it (0=retry forever)

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"` // debug, info, warn or error
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`   // Log file path; empty logs to stdout only
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *CrawlConfig {
	return &CrawlConfig{
		DatabasePath:    "./kijitori.db",
		ArchivePrefix:   "https://web.archive.org/web/*/",
		UserAgent:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_12_6) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/62.0.3202.94 Safari/537.36",
		RequestDelay:    1 * time.Second,
		SleepCeiling:    4 * time.Second,
		FetchTimeout:    90 * time.Second,
		PageLoadTimeout: 60 * time.Second,
		SearchTimeout:   10 * time.Second,
		RetryAttempts:   5,
		RetryWait:       2 * time.Second,
		RetryBudget:     10 * time.Second,
		Headless:        true,
		MaxPages:        10,
		SeedCooldown:    60 * time.Second,
		SeedRetryCap:    0, // never give up on a seed
		LogLevel:        "info",
	}
}

// Validate checks if the configuration is valid.
func (c *CrawlConfig) Validate() error {
	if c.SeedFile == "" {
		return ErrNoSeedFile
	}
	if c.DatabasePath == "" {
		return ErrEmptyDatabasePath
	}
	if c.ArchivePrefix == "" {
		return ErrEmptyArchivePrefix
	}
	if c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.RetryAttempts <= 0 {
		return ErrInvalidRetryAttempts
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	return nil
}
