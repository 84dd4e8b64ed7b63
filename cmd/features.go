package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/oneka/sitewatch/internal/features"
)

var buildFeaturesCmd = &cobra.Command{
	Use:   "build-features",
	Short: "Build the monthly feature table of a project",
	Long: `Walks <project>/sentinel1/<YYYY-MM> and <project>/sentinel2/<YYYY-MM>, extracts
radar and optical statistics for every month and writes
<project>/features/features.parquet. Any failing month aborts the run.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		root, _ := cmd.Flags().GetString("project-path")
		aoiPath, _ := cmd.Flags().GetString("aoi")

		ex, err := newExtractor(cfg)
		if err != nil {
			return err
		}
		b := features.NewBuilder(cfg, ex)
		b.AOIPath = aoiPath
		if cmd.Flags().Changed("xlsx") {
			b.XLSX, _ = cmd.Flags().GetBool("xlsx")
		}

		res, err := b.Build(ctx, root)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printRows(out, res.Rows)
		fmt.Fprintf(out, "Saved: %s\n", res.TablePath)
		if res.XLSXPath != "" {
			fmt.Fprintf(out, "Saved: %s\n", res.XLSXPath)
		}
		return nil
	},
}

func printRows(w io.Writer, rows []features.Row) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MONTH\tNDVI\tNDWI\tNDBI\tVV_DB\tVH_DB\tVV-VH")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\t%.2f\t%.2f\t%.2f\n",
			r.Month, r.NDVIMean, r.NDWIMean, r.NDBIMean, r.VVDBMean, r.VHDBMean, r.VVMinusVHMean)
	}
	_ = tw.Flush()
}

func init() {
	buildFeaturesCmd.Flags().String("project-path", "", "project root containing sentinel1/<month> and sentinel2/<month>")
	buildFeaturesCmd.Flags().String("aoi", "", "AOI path (default: project.yaml aoi, then <project>/aoi.geojson)")
	buildFeaturesCmd.Flags().Bool("xlsx", false, "also export features.xlsx (default: from config)")
	_ = buildFeaturesCmd.MarkFlagRequired("project-path")
	rootCmd.AddCommand(buildFeaturesCmd)
}
