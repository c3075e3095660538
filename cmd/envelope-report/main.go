package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	flagConfig       string
	flagLedger       string
	flagMonth        string
	flagStart        string
	flagToken        string
	flagFormat       string
	flagShowAccounts bool
	flagNoFutureRoll bool
	flagFutureMonths int
	flagVerbose      bool
)

// fileConfig mirrors the command-line flags in a YAML file, so a budget
// can be rendered with just "envelope-report --config budget.yaml".
type fileConfig struct {
	Ledger         string `yaml:"ledger"`
	Token          string `yaml:"token"`
	StartDate      string `yaml:"startDate"`
	FutureMonths   int    `yaml:"futureMonths"`
	FutureRollover *bool  `yaml:"futureRollover"`
	ShowAccounts   bool   `yaml:"showAccounts"`
	SentryDSN      string `yaml:"sentryDsn"`
}

var rootCmd = &cobra.Command{
	Use:   "envelope-report",
	Short: "Envelope budget reports from a ledger export",
	Long: `envelope-report computes envelope budget tables from a double-entry
ledger export and renders one month of them: budgeted, activity and
available per bucket, the income summary and any goals.

The ledger is a JSON export, read from a file or fetched over HTTP.

Example usage:
  envelope-report --ledger ledger.json
  envelope-report --ledger https://books.example.com/export --month 2024-02
  envelope-report --config budget.yaml --show-accounts`,
	RunE:          runReport,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "YAML config file")
	rootCmd.Flags().StringVar(&flagLedger, "ledger", "", "Ledger export: file path or http(s) URL")
	rootCmd.Flags().StringVar(&flagMonth, "month", "", "Month to render (YYYY-MM, default current)")
	rootCmd.Flags().StringVar(&flagStart, "start", "", "Period start date (YYYY-MM-DD)")
	rootCmd.Flags().StringVar(&flagToken, "token", "", "Bearer token for HTTP ledger sources")
	rootCmd.Flags().StringVar(&flagFormat, "format", "table", "Output format: table, json")
	rootCmd.Flags().BoolVar(&flagShowAccounts, "show-accounts", false, "Show real accounts beneath their buckets")
	rootCmd.Flags().BoolVar(&flagNoFutureRoll, "no-future-rollover", false, "Stop carrying balances past the current month")
	rootCmd.Flags().IntVar(&flagFutureMonths, "future-months", 0, "Months to compute past the last allocation")
	rootCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Debug logging")
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// loadFileConfig reads the YAML config and folds it under the flags: an
// explicit flag always wins.
func loadFileConfig(path string) (*fileConfig, error) {
	if path == "" {
		return &fileConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &cfg, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
