// Package cmd provides the command-line interface for kijitori.
// It handles command parsing, configuration loading, and crawl execution.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/AkihikoWatanabe/kijitori/internal/config"
	"github.com/AkihikoWatanabe/kijitori/internal/crawler"
	"github.com/AkihikoWatanabe/kijitori/internal/logging"
	"github.com/AkihikoWatanabe/kijitori/internal/seed"
	"github.com/AkihikoWatanabe/kijitori/internal/storage"
)

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kijitori [seed-file]",
	Short: "Resolve full multi-page news articles through a web archive",
	Long: `Kijitori resolves the full text of historical news articles.

For each seed URL it locates an archived snapshot through a web-archive
lookup service, then follows "show full article" and "next page" links
until every page of the article is captured and stored.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCrawl,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information for the CLI.
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./kijitori.yml)")

	rootCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")

	rootCmd.Flags().StringP("database", "d", "./kijitori.db", "Path to SQLite database file")
	rootCmd.Flags().String("archive-prefix", "https://web.archive.org/web/*/", "Archive-service lookup prefix")
	rootCmd.Flags().StringP("user-agent", "u", "", "HTTP User-Agent header")
	rootCmd.Flags().DurationP("delay", "r", 1*time.Second, "Minimum spacing between requests per domain")
	rootCmd.Flags().Duration("sleep-ceiling", 4*time.Second, "Upper bound of the random post-fetch sleep")
	rootCmd.Flags().DurationP("timeout", "t", 90*time.Second, "Whole-call budget for one fetch")
	rootCmd.Flags().Duration("page-load-timeout", 60*time.Second, "Browser page-load budget")
	rootCmd.Flags().Duration("search-timeout", 10*time.Second, "Deadline for one in-HTML link search")
	rootCmd.Flags().Int("retry-attempts", 5, "GET attempts before escalating to timeout")
	rootCmd.Flags().Duration("retry-wait", 2*time.Second, "Wait between GET attempts")
	rootCmd.Flags().Duration("retry-budget", 10*time.Second, "Overall ceiling on retrying one GET")
	rootCmd.Flags().Bool("headless", true, "Run the rendering browser headless")
	rootCmd.Flags().IntP("max-pages", "m", 10, "Page cap per article walk")
	rootCmd.Flags().Duration("cooldown", 60*time.Second, "Sleep before retrying a failed seed")
	rootCmd.Flags().Int("retry-cap", 0, "Retries per seed before skipping it (0=retry forever)")
	rootCmd.Flags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.Flags().String("log-file", "", "Log file path (stdout only when empty)")

	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"database_path", "database"},
		{"archive_prefix", "archive-prefix"},
		{"user_agent", "user-agent"},
		{"request_delay", "delay"},
		{"sleep_ceiling", "sleep-ceiling"},
		{"fetch_timeout", "timeout"},
		{"page_load_timeout", "page-load-timeout"},
		{"search_timeout", "search-timeout"},
		{"retry_attempts", "retry-attempts"},
		{"retry_wait", "retry-wait"},
		{"retry_budget", "retry-budget"},
		{"headless", "headless"},
		{"max_pages", "max-pages"},
		{"seed_cooldown", "cooldown"},
		{"seed_retry_cap", "retry-cap"},
		{"log_level", "log-level"},
		{"log_file", "log-file"},
	}

	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.Flags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("kijitori")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("KJ")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func showCurrentConfig(cfg *config.CrawlConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Configuration validation failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "Displaying configuration anyway...\n\n")
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Printf("# Current kijitori configuration\n")
	fmt.Printf("# Generated at: %s\n", time.Now().Format(time.RFC3339))
	fmt.Printf("# Configuration file search paths: ./kijitori.yml\n")
	fmt.Printf("# Environment variables prefix: KJ_\n\n")
	fmt.Print(string(yamlData))

	return nil
}

func runCrawl(cmd *cobra.Command, args []string) error {
	showConfig, _ := cmd.Flags().GetBool("show-config")

	cfg := config.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if len(args) > 0 {
		cfg.SeedFile = args[0]
	}

	if showConfig {
		return showCurrentConfig(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logging.Setup(cfg.LogLevel, cfg.LogFile); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	seeds, err := seed.Load(cfg.SeedFile)
	if err != nil {
		return fmt.Errorf("failed to load seed list: %w", err)
	}
	if len(seeds) == 0 {
		fmt.Printf("Seed file %s holds no targets. Nothing to crawl.\n", cfg.SeedFile)
		return nil
	}

	dbDir := filepath.Dir(cfg.DatabasePath)
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	fmt.Printf("Starting crawl with configuration:\n")
	fmt.Printf("  Seed file: %s (%d targets)\n", cfg.SeedFile, len(seeds))
	fmt.Printf("  Database: %s\n", cfg.DatabasePath)
	fmt.Printf("  Archive prefix: %s\n", cfg.ArchivePrefix)
	fmt.Printf("  Max pages per article: %d\n", cfg.MaxPages)
	fmt.Printf("  Fetch timeout: %v\n", cfg.FetchTimeout)

	driver, cleanup, err := initializeDriver(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize crawler: %w", err)
	}
	defer cleanup()

	return driver.Run(cmd.Context(), seeds)
}

// initializeDriver wires the storage, renderer, fetcher, resolver and
// walker into a ready-to-run driver.
func initializeDriver(cfg *config.CrawlConfig) (*crawler.Driver, func(), error) {
	store, err := storage.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	renderer := crawler.NewChromeRenderer(cfg)
	fetcher := crawler.NewFetcher(cfg, renderer)
	resolver := crawler.NewArchiveResolver(fetcher, store, cfg.ArchivePrefix)
	walker := crawler.NewPageWalker(fetcher, crawler.NewNavigator(cfg.SearchTimeout), cfg.MaxPages)
	driver := crawler.NewDriver(resolver, walker, store, cfg)

	cleanup := func() {
		_ = fetcher.Close()
		_ = store.Close()
	}
	return driver, cleanup, nil
}
