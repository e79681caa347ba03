package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-analyzer/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "photo-analyzer",
	Short: "Batch image analysis: face tagging, duplicate grouping and blur screening",
	Long: `Photo Analyzer tags known people in batches of images, groups near-duplicate
pictures and flags blurry ones. It runs as an HTTP service with job status
tracking, or as one-shot CLI commands that print JSON results.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
	setupLogging(config.Load().Log)
}

// setupLogging installs the default slog logger. Logs go to stderr so JSON
// results on stdout stay clean.
func setupLogging(cfg config.LogConfig) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
