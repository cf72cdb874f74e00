package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "DukaPulse"
	version = "v1.4.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     "dukapulse",
		Short:   "Retail dashboard alerting and predictive-insight engine",
		Version: version,
		Long: `DukaPulse evaluates the shop's live business metrics into ranked alerts,
AI-style insights, and short-horizon forecasts for the operator dashboard.

Run 'dukapulse serve' to start the evaluation loop and the widget API.
Run 'dukapulse evaluate' for a one-shot evaluation against a snapshot file.`,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the evaluation loop and widget API",
		Long:  "Polls the shop database on a fixed interval and serves alerts, insights, forecasts, and trends over HTTP and WebSocket.",
		RunE:  runServe,
	}
	serveCmd.Flags().String("config", "", "Path to YAML config file")
	serveCmd.Flags().String("dsn", "", "Postgres DSN (overrides config)")
	serveCmd.Flags().String("redis", "", "Redis address for the shared snapshot cache (overrides config)")
	serveCmd.Flags().Int("port", 0, "HTTP port (overrides config)")

	evaluateCmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run one evaluation tick against a snapshot file",
		Long:  "Reads a JSON metrics snapshot, runs the full rules-merge-rank pass once, and prints the result.",
		RunE:  runEvaluate,
	}
	evaluateCmd.Flags().String("snapshot", "", "Path to JSON snapshot file (required)")
	evaluateCmd.Flags().String("thresholds", "", "Path to YAML thresholds file")
	evaluateCmd.Flags().Int("horizon", 7, "Forecast horizon in days")
	_ = evaluateCmd.MarkFlagRequired("snapshot")

	rootCmd.AddCommand(serveCmd, evaluateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
