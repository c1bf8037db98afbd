package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"flowcare/internal/assessment/metrics"
	"flowcare/internal/platform/config"
	"flowcare/internal/platform/logger"
)

var (
	cfg     config.Config
	log     *slog.Logger
	mets    *metrics.Metrics
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "flowcare",
	Short: "Normalize, classify and inspect menstrual-health assessments",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.FromEnv()
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		log = logger.New(os.Stderr, level, cfg.LogFormat)
		mets = metrics.New(prometheus.NewRegistry())
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(normalizeCmd, classifyCmd, getCmd, listCmd, submitCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
