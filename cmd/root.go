package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cedar-analytics/traffic-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "traffic-cli",
	Short: "Traffic probe ingestion and dashboard API",
	Long:  "Imports GPS probe CSVs with governorate classification, serves an authenticated REST API over the traffic table, and computes dashboard statistics client-side.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
