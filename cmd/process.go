package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oneka/sitewatch/internal/aoi"
	"github.com/oneka/sitewatch/internal/raster/gdal"
	"github.com/oneka/sitewatch/internal/scene"
)

var processS1Cmd = &cobra.Command{
	Use:   "process-s1-month",
	Short: "Clip one Sentinel-1 month to the AOI",
	Long:  "Clips the VV and VH rasters of one month to the AOI and writes vv.tif and vh.tif as COGs.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		vv, _ := cmd.Flags().GetString("vv")
		vh, _ := cmd.Flags().GetString("vh")
		outDir, _ := cmd.Flags().GetString("output-dir")

		proc, area, err := processSetup(cmd)
		if err != nil {
			return err
		}
		if _, err := proc.ProcessSAR(ctx, vv, vh, outDir, area); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Saved Sentinel-1 clipped files in: %s\n", outDir)
		return nil
	},
}

var processS2Cmd = &cobra.Command{
	Use:   "process-s2-month",
	Short: "Clip one Sentinel-2 month to the AOI",
	Long: `Clips each --band NAME=PATH raster to the AOI and writes <NAME>.tif as a COG.
Repeat --band for each band, e.g. --band B04=... --band B08=...`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		items, _ := cmd.Flags().GetStringArray("band")
		bands, err := scene.ParseBands(items)
		if err != nil {
			return err
		}
		outDir, _ := cmd.Flags().GetString("output-dir")

		proc, area, err := processSetup(cmd)
		if err != nil {
			return err
		}
		outs, err := proc.ProcessOptical(ctx, bands, outDir, area)
		if err != nil {
			return err
		}

		zap.L().Info("process-s2-month: complete", zap.Int("bands", len(outs)))
		fmt.Fprintf(cmd.OutOrStdout(), "Saved Sentinel-2 clipped files in: %s\n", outDir)
		return nil
	},
}

func processSetup(cmd *cobra.Command) (*scene.Processor, *aoi.AOI, error) {
	aoiPath, _ := cmd.Flags().GetString("aoi")
	area, err := aoi.Load(aoiPath)
	if err != nil {
		return nil, nil, err
	}
	ex, err := newExtractor(cfg)
	if err != nil {
		return nil, nil, err
	}
	w := gdal.NewCOGWriter(cfg.COG.Compress, cfg.COG.BlockSize)
	return scene.NewProcessor(ex, w, cfg.COG.Concurrency), area, nil
}

func init() {
	processS1Cmd.Flags().String("vv", "", "Sentinel-1 VV raster")
	processS1Cmd.Flags().String("vh", "", "Sentinel-1 VH raster")
	_ = processS1Cmd.MarkFlagRequired("vv")
	_ = processS1Cmd.MarkFlagRequired("vh")

	processS2Cmd.Flags().StringArray("band", nil, "band mapping BAND_NAME=PATH (repeatable)")

	for _, c := range []*cobra.Command{processS1Cmd, processS2Cmd} {
		c.Flags().String("output-dir", "", "output folder for clipped COGs")
		c.Flags().String("aoi", "", "AOI GeoJSON or Shapefile path")
		_ = c.MarkFlagRequired("output-dir")
		_ = c.MarkFlagRequired("aoi")
		rootCmd.AddCommand(c)
	}
}
