// sastocks: stock ticker, news and daily-metric ingestion.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/seenimoa/sastocks/internal/config"
	"github.com/seenimoa/sastocks/internal/infra"
	"github.com/seenimoa/sastocks/internal/logging"
	"github.com/seenimoa/sastocks/internal/polygon"
	"github.com/seenimoa/sastocks/internal/store"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set by the root PersistentPreRunE.
var (
	cfg    *config.Config
	logger *log.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sastocks",
	Short: "Ingest stock tickers, news and daily metrics into a relational store",
	Long: `sastocks tracks a set of stock symbols and pulls, for every day of a
date range, their news articles and daily price/indicator metrics from
Polygon.io into SQLite, PostgreSQL or MySQL. Articles can then be labelled
with a headline sentiment and everything is readable over a small JSON API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if override, _ := cmd.Flags().GetString("log-level"); override != "" {
			level = override
		}
		logger = logging.New(logging.Options{Level: level, Format: cfg.Logging.Format})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(tickerCmd)
	rootCmd.AddCommand(financeCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(sentimentCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sastocks %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Wiring ---

func openStore() (*store.Store, error) {
	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Database.Driver, err)
	}
	return st, nil
}

func newPolygonClient() (*polygon.Client, error) {
	if cfg.Polygon.APIKey == "" {
		return nil, fmt.Errorf("polygon API key not set (config polygon.api_key or %s)", config.EnvPolygonKey)
	}
	return polygon.New(cfg.Polygon.APIKey,
		polygon.WithBaseURL(cfg.Polygon.BaseURL),
		polygon.WithTimeout(cfg.Polygon.Timeout),
		polygon.WithRateLimiter(infra.NewRateLimiter(cfg.Polygon.RateLimit, cfg.Polygon.RateWindow)),
	), nil
}
