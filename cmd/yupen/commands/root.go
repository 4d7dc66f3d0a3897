package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luofan/yupen/internal/app"
	"github.com/luofan/yupen/pkg/config"
	"github.com/luofan/yupen/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "yupen",
	Short: "鱼盆 ETF 量化引擎",
	Long: `Yupen ETF quant engine.

Daily OHLCV acquisition over a resilient vendor ladder, flat-file
caching, five-factor scoring and stable/aggressive pool selection.

Examples:
  go run ./cmd/yupen serve
  go run ./cmd/yupen crawl
  go run ./cmd/yupen score sh.510300`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// buildApp loads config and assembles the pipeline. Every subcommand
// goes through here so they all share the same wiring.
func buildApp() (*app.App, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	a, err := app.New(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("wire application: %w", err)
	}
	return a, log, nil
}
