package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "gdal", cfg.Raster.Projector)
	assert.Equal(t, "EPSG:4326", cfg.Raster.AssumedCRS)
	assert.False(t, cfg.Raster.AllowUnaligned)
	assert.InDelta(t, 10000.0, cfg.Raster.LinearScaleFactor, 0.001)
	assert.NotEmpty(t, cfg.Raster.ScratchDir)
	assert.Equal(t, "measurement", cfg.SAR.MeasurementDir)
	assert.Equal(t, []string{".tiff", ".tif"}, cfg.SAR.Extensions)
	assert.Equal(t, "IMG_DATA", cfg.Optical.ImageDir)
	assert.Equal(t, "B04", cfg.Optical.Red)
	assert.Equal(t, "B08", cfg.Optical.NIR)
	assert.Equal(t, "B03", cfg.Optical.Green)
	assert.Equal(t, "B11", cfg.Optical.SWIR)
	assert.Equal(t, "sentinel1", cfg.Features.SARDir)
	assert.Equal(t, "sentinel2", cfg.Features.OpticalDir)
	assert.Equal(t, "aoi.geojson", cfg.Features.AOIFile)
	assert.Equal(t, "features", cfg.Features.OutputDir)
	assert.Equal(t, "features.parquet", cfg.Features.TableFile)
	assert.False(t, cfg.Features.XLSX)
	assert.Equal(t, "DEFLATE", cfg.COG.Compress)
	assert.Equal(t, 512, cfg.COG.BlockSize)
	assert.Equal(t, 4, cfg.COG.Concurrency)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
raster:
  projector: builtin
  assumed_crs: ""
  allow_unaligned: true
  linear_scale_factor: 1
optical:
  swir: B12
features:
  xlsx: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "builtin", cfg.Raster.Projector)
	assert.Empty(t, cfg.Raster.AssumedCRS)
	assert.True(t, cfg.Raster.AllowUnaligned)
	assert.InDelta(t, 1.0, cfg.Raster.LinearScaleFactor, 0.001)
	assert.Equal(t, "B12", cfg.Optical.SWIR)
	assert.True(t, cfg.Features.XLSX)
	// Defaults still apply for unset values
	assert.Equal(t, "B08", cfg.Optical.NIR)
	assert.Equal(t, 512, cfg.COG.BlockSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
raster:
  assumed_crs: EPSG:32737
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SITEWATCH_RASTER_ASSUMED_CRS", "EPSG:3857")
	t.Setenv("SITEWATCH_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "EPSG:3857", cfg.Raster.AssumedCRS)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("SITEWATCH_COG_CONCURRENCY", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.COG.Concurrency)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("raster: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Raster: RasterConfig{Projector: "gdal", LinearScaleFactor: 10000},
			COG:    COGConfig{BlockSize: 512},
		}
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Raster.Projector = "proj4"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown raster.projector")

	cfg = valid()
	cfg.Raster.LinearScaleFactor = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "linear_scale_factor")

	cfg = valid()
	cfg.COG.BlockSize = 100
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "block_size")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
