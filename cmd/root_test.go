package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneka/sitewatch/internal/config"
	"github.com/oneka/sitewatch/internal/crs"
	"github.com/oneka/sitewatch/internal/features"
	"github.com/oneka/sitewatch/internal/index"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"extract", "process-s1-month", "process-s2-month", "build-features"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "sitewatch", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestExtractCommand_Flags(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range extractCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["sar"])
	assert.True(t, names["optical"])

	f := extractSARCmd.Flags().Lookup("format")
	require.NotNil(t, f)
	assert.Equal(t, "json", f.DefValue)

	f = extractSARCmd.Flags().Lookup("linear-scale-factor")
	require.NotNil(t, f)
	assert.Equal(t, "10000", f.DefValue)
	assert.Nil(t, extractOpticalCmd.Flags().Lookup("linear-scale-factor"))
	assert.NotNil(t, extractOpticalCmd.Flags().Lookup("assume-raster-crs"))
}

func TestProcessCommands_Flags(t *testing.T) {
	for _, name := range []string{"vv", "vh", "output-dir", "aoi"} {
		assert.NotNil(t, processS1Cmd.Flags().Lookup(name), "process-s1-month --%s", name)
	}
	f := processS2Cmd.Flags().Lookup("band")
	require.NotNil(t, f)
	assert.Equal(t, "stringArray", f.Value.Type())
}

func TestBuildFeaturesCommand_Flags(t *testing.T) {
	for _, name := range []string{"project-path", "aoi", "xlsx"} {
		assert.NotNil(t, buildFeaturesCmd.Flags().Lookup(name), "build-features --%s", name)
	}
}

func TestApplyRasterFlags(t *testing.T) {
	c := config.Config{Raster: config.RasterConfig{AssumedCRS: "EPSG:4326", LinearScaleFactor: 10000}}
	require.NoError(t, extractSARCmd.Flags().Set("assume-raster-crs", "EPSG:32737"))
	require.NoError(t, extractSARCmd.Flags().Set("linear-scale-factor", "1"))
	t.Cleanup(func() {
		_ = extractSARCmd.Flags().Set("assume-raster-crs", "")
		_ = extractSARCmd.Flags().Set("linear-scale-factor", "10000")
	})

	require.NoError(t, applyRasterFlags(extractSARCmd, &c))
	assert.Equal(t, "EPSG:32737", c.Raster.AssumedCRS)
	assert.Equal(t, 1.0, c.Raster.LinearScaleFactor)
	assert.False(t, c.Raster.AllowUnaligned)
}

func TestNewProjector(t *testing.T) {
	p, err := newProjector(&config.Config{Raster: config.RasterConfig{Projector: "builtin"}})
	require.NoError(t, err)
	assert.Equal(t, crs.Builtin{}, p)

	_, err = newProjector(&config.Config{Raster: config.RasterConfig{Projector: "proj4"}})
	assert.Error(t, err)
}

func TestPrintResult(t *testing.T) {
	v := map[string]index.Stats{"ndvi": {Mean: 0.5, Min: 0, Max: 1, Std: 0.25}}

	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, "json", v))
	assert.JSONEq(t, `{"ndvi":{"mean":0.5,"min":0,"max":1,"std":0.25}}`, buf.String())

	buf.Reset()
	require.NoError(t, printResult(&buf, "yaml", v))
	assert.YAMLEq(t, "ndvi:\n  mean: 0.5\n  min: 0\n  max: 1\n  std: 0.25\n", buf.String())

	assert.Error(t, printResult(&buf, "csv", v))
}

func TestPrintRows(t *testing.T) {
	var buf bytes.Buffer
	printRows(&buf, []features.Row{{Month: "2024-01", NDVIMean: 0.25, VVDBMean: -7.5}})
	out := buf.String()
	assert.Contains(t, out, "MONTH")
	assert.Contains(t, out, "2024-01")
	assert.Contains(t, out, "0.2500")
	assert.Contains(t, out, "-7.50")
}
