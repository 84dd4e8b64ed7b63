package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oneka/sitewatch/internal/aoi"
	"github.com/oneka/sitewatch/internal/config"
	"github.com/oneka/sitewatch/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Compute AOI statistics for a single scene",
}

var extractSARCmd = &cobra.Command{
	Use:   "sar",
	Short: "VV/VH backscatter statistics for a Sentinel-1 product",
	Long: `Locates the VV and VH measurement rasters of a Sentinel-1 SAFE folder (or
zipped SAFE, or flat folder), clips them to the AOI and prints dB statistics.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ex, area, format, err := extractSetup(cmd)
		if err != nil {
			return err
		}
		root, _ := cmd.Flags().GetString("safe-folder")

		res, err := ex.SAR(root, area)
		if err != nil {
			return err
		}
		if res.Warning != "" {
			zap.L().Warn("extract: crs fallback", zap.String("warning", res.Warning))
		}
		return printResult(cmd.OutOrStdout(), format, res)
	},
}

var extractOpticalCmd = &cobra.Command{
	Use:   "optical",
	Short: "NDVI/NDWI/NDBI statistics for a Sentinel-2 product",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ex, area, format, err := extractSetup(cmd)
		if err != nil {
			return err
		}
		root, _ := cmd.Flags().GetString("safe-folder")

		res, err := ex.Optical(root, area)
		if err != nil {
			return err
		}
		if res.Warning != "" {
			zap.L().Warn("extract: crs fallback", zap.String("warning", res.Warning))
		}
		return printResult(cmd.OutOrStdout(), format, res)
	},
}

// extractSetup applies flag overrides to the configuration and loads the AOI.
func extractSetup(cmd *cobra.Command) (*extract.Extractor, *aoi.AOI, string, error) {
	format, _ := cmd.Flags().GetString("format")
	if format != "json" && format != "yaml" {
		return nil, nil, "", eris.Errorf("extract: unknown --format %q (want json or yaml)", format)
	}

	c := *cfg
	if err := applyRasterFlags(cmd, &c); err != nil {
		return nil, nil, "", err
	}

	aoiPath, _ := cmd.Flags().GetString("aoi")
	area, err := aoi.Load(aoiPath)
	if err != nil {
		return nil, nil, "", err
	}

	ex, err := newExtractor(&c)
	if err != nil {
		return nil, nil, "", err
	}
	return ex, area, format, nil
}

// applyRasterFlags copies explicitly set raster flags onto c.
func applyRasterFlags(cmd *cobra.Command, c *config.Config) error {
	if cmd.Flags().Changed("assume-raster-crs") {
		c.Raster.AssumedCRS, _ = cmd.Flags().GetString("assume-raster-crs")
	}
	if cmd.Flags().Changed("allow-unaligned") {
		c.Raster.AllowUnaligned, _ = cmd.Flags().GetBool("allow-unaligned")
	}
	if cmd.Flags().Changed("linear-scale-factor") {
		c.Raster.LinearScaleFactor, _ = cmd.Flags().GetFloat64("linear-scale-factor")
		if c.Raster.LinearScaleFactor <= 0 {
			return eris.Errorf("extract: --linear-scale-factor must be positive, got %v", c.Raster.LinearScaleFactor)
		}
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{extractSARCmd, extractOpticalCmd} {
		c.Flags().String("safe-folder", "", "product folder, zipped SAFE, or flat folder of band rasters")
		c.Flags().String("aoi", "", "AOI GeoJSON or Shapefile path")
		c.Flags().String("format", "json", "output format: json or yaml")
		c.Flags().String("assume-raster-crs", "", "CRS for rasters without CRS or GCPs (default: from config); empty disables")
		c.Flags().Bool("allow-unaligned", false, "continue without reprojection when no raster CRS can be established")
		_ = c.MarkFlagRequired("safe-folder")
		_ = c.MarkFlagRequired("aoi")
		extractCmd.AddCommand(c)
	}
	extractSARCmd.Flags().Float64("linear-scale-factor", 10000, "divisor applied to digital numbers before dB conversion")
	rootCmd.AddCommand(extractCmd)
}
