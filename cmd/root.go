package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oneka/sitewatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sitewatch",
	Short: "Satellite AOI feature extraction for construction monitoring",
	Long: `Clips Sentinel-1 radar and Sentinel-2 optical rasters to a site AOI, computes
backscatter and spectral index statistics, and builds a monthly feature table
per monitoring project.`,
	SilenceUsage: true,
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
