package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Raster   RasterConfig   `yaml:"raster" mapstructure:"raster"`
	SAR      SARConfig      `yaml:"sar" mapstructure:"sar"`
	Optical  OpticalConfig  `yaml:"optical" mapstructure:"optical"`
	Features FeaturesConfig `yaml:"features" mapstructure:"features"`
	COG      COGConfig      `yaml:"cog" mapstructure:"cog"`
}

// RasterConfig configures raster access and CRS reconciliation.
type RasterConfig struct {
	// Projector selects the coordinate transformer: "gdal" or "builtin".
	Projector string `yaml:"projector" mapstructure:"projector"`
	// AssumedCRS is applied when a raster declares neither a CRS nor GCPs.
	// Empty disables the assumption.
	AssumedCRS string `yaml:"assumed_crs" mapstructure:"assumed_crs"`
	// AllowUnaligned lets extraction continue without reprojection when no
	// CRS can be established for the raster.
	AllowUnaligned    bool    `yaml:"allow_unaligned" mapstructure:"allow_unaligned"`
	LinearScaleFactor float64 `yaml:"linear_scale_factor" mapstructure:"linear_scale_factor"`
	ScratchDir        string  `yaml:"scratch_dir" mapstructure:"scratch_dir"`
}

// SARConfig configures Sentinel-1 archive lookup.
type SARConfig struct {
	MeasurementDir string   `yaml:"measurement_dir" mapstructure:"measurement_dir"`
	Extensions     []string `yaml:"extensions" mapstructure:"extensions"`
}

// OpticalConfig configures Sentinel-2 archive lookup and band codes.
type OpticalConfig struct {
	ImageDir   string   `yaml:"image_dir" mapstructure:"image_dir"`
	Extensions []string `yaml:"extensions" mapstructure:"extensions"`
	Red        string   `yaml:"red" mapstructure:"red"`
	NIR        string   `yaml:"nir" mapstructure:"nir"`
	Green      string   `yaml:"green" mapstructure:"green"`
	SWIR       string   `yaml:"swir" mapstructure:"swir"`
}

// FeaturesConfig configures the monthly feature table build.
type FeaturesConfig struct {
	SARDir     string `yaml:"sar_dir" mapstructure:"sar_dir"`
	OpticalDir string `yaml:"optical_dir" mapstructure:"optical_dir"`
	AOIFile    string `yaml:"aoi_file" mapstructure:"aoi_file"`
	OutputDir  string `yaml:"output_dir" mapstructure:"output_dir"`
	TableFile  string `yaml:"table_file" mapstructure:"table_file"`
	XLSX       bool   `yaml:"xlsx" mapstructure:"xlsx"`
}

// COGConfig configures clipped GeoTIFF output.
type COGConfig struct {
	Compress    string `yaml:"compress" mapstructure:"compress"`
	BlockSize   int    `yaml:"block_size" mapstructure:"block_size"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SITEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("raster.projector", "gdal")
	v.SetDefault("raster.assumed_crs", "EPSG:4326")
	v.SetDefault("raster.allow_unaligned", false)
	v.SetDefault("raster.linear_scale_factor", 10000.0)
	v.SetDefault("raster.scratch_dir", filepath.Join(os.TempDir(), "sitewatch"))
	v.SetDefault("sar.measurement_dir", "measurement")
	v.SetDefault("sar.extensions", []string{".tiff", ".tif"})
	v.SetDefault("optical.image_dir", "IMG_DATA")
	v.SetDefault("optical.extensions", []string{".jp2", ".tif", ".tiff"})
	v.SetDefault("optical.red", "B04")
	v.SetDefault("optical.nir", "B08")
	v.SetDefault("optical.green", "B03")
	v.SetDefault("optical.swir", "B11")
	v.SetDefault("features.sar_dir", "sentinel1")
	v.SetDefault("features.optical_dir", "sentinel2")
	v.SetDefault("features.aoi_file", "aoi.geojson")
	v.SetDefault("features.output_dir", "features")
	v.SetDefault("features.table_file", "features.parquet")
	v.SetDefault("features.xlsx", false)
	v.SetDefault("cog.compress", "DEFLATE")
	v.SetDefault("cog.block_size", 512)
	v.SetDefault("cog.concurrency", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside the pipeline.
func (c *Config) Validate() error {
	switch c.Raster.Projector {
	case "gdal", "builtin":
	default:
		return eris.Errorf("config: unknown raster.projector %q (want gdal or builtin)", c.Raster.Projector)
	}
	if c.Raster.LinearScaleFactor <= 0 {
		return eris.Errorf("config: raster.linear_scale_factor must be positive, got %v", c.Raster.LinearScaleFactor)
	}
	if c.COG.BlockSize <= 0 || c.COG.BlockSize%16 != 0 {
		return eris.Errorf("config: cog.block_size must be a positive multiple of 16, got %d", c.COG.BlockSize)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
