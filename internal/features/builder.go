// Package features builds the monthly AOI feature table of a monitoring
// project from its Sentinel-1 and Sentinel-2 month folders.
package features

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oneka/sitewatch/internal/aoi"
	"github.com/oneka/sitewatch/internal/config"
	"github.com/oneka/sitewatch/internal/extract"
	"github.com/oneka/sitewatch/internal/geoerr"
	"github.com/oneka/sitewatch/internal/locator"
)

// Extractor computes single-scene statistics for one month folder.
type Extractor interface {
	SAR(root string, area *aoi.AOI) (*extract.SARResult, error)
	Optical(root string, area *aoi.AOI) (*extract.OpticalResult, error)
}

// Builder turns a project folder into a feature table.
type Builder struct {
	cfg       config.FeaturesConfig
	bandCodes []string
	extractor Extractor

	// AOIPath overrides both the manifest AOI and the default
	// <root>/aoi.geojson.
	AOIPath string
	// XLSX also exports the table as a workbook next to the Parquet file.
	XLSX bool
}

// Result describes a completed build.
type Result struct {
	RunID     string
	Project   string
	Rows      []Row
	TablePath string
	XLSXPath  string
}

// NewBuilder creates a Builder.
func NewBuilder(cfg *config.Config, ex Extractor) *Builder {
	opt := locator.NewOptical(cfg.Optical)
	codes := make([]string, 0, len(locator.BandRoles))
	for _, role := range locator.BandRoles {
		codes = append(codes, opt.Code(role))
	}
	return &Builder{
		cfg:       cfg.Features,
		bandCodes: codes,
		extractor: ex,
		XLSX:      cfg.Features.XLSX,
	}
}

// Build processes every month of the project at root in sorted order and
// writes the feature table. The first failing month aborts the run and no
// table is written.
func (b *Builder) Build(ctx context.Context, root string) (*Result, error) {
	runID := uuid.NewString()
	log := zap.L().With(
		zap.String("component", "features"),
		zap.String("run_id", runID),
		zap.String("project_path", root),
	)

	m, err := LoadManifest(root)
	if err != nil {
		return nil, err
	}
	sarRoot := filepath.Join(root, firstNonEmpty(m.SARDir, b.cfg.SARDir, "sentinel1"))
	optRoot := filepath.Join(root, firstNonEmpty(m.OpticalDir, b.cfg.OpticalDir, "sentinel2"))

	area, err := aoi.Load(b.aoiPath(root, m))
	if err != nil {
		return nil, err
	}

	months, err := listMonths(log, sarRoot, optRoot)
	if err != nil {
		return nil, err
	}
	if len(months) == 0 {
		return nil, geoerr.New(geoerr.KindMonthValidation,
			"features: no month folders under %s or %s", sarRoot, optRoot)
	}

	project := m.Name
	if project == "" {
		project = projectName(root)
	}
	log.Info("features: build started",
		zap.String("project", project),
		zap.Strings("months", months),
		zap.String("aoi", area.Path),
	)

	rows := make([]Row, 0, len(months))
	for _, month := range months {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := b.buildMonth(month, filepath.Join(sarRoot, month), filepath.Join(optRoot, month), area)
		if err != nil {
			log.Error("features: month failed", zap.String("month", month), zap.Error(err))
			return nil, err
		}
		row.Project = project
		rows = append(rows, row)
		log.Info("features: month complete",
			zap.String("month", month),
			zap.Float64("ndvi_mean", row.NDVIMean),
			zap.Float64("vv_db_mean", row.VVDBMean),
		)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })

	out := filepath.Join(root, firstNonEmpty(b.cfg.OutputDir, "features"))
	res := &Result{
		RunID:     runID,
		Project:   project,
		Rows:      rows,
		TablePath: filepath.Join(out, firstNonEmpty(b.cfg.TableFile, "features.parquet")),
	}
	if err := WriteTable(res.TablePath, rows); err != nil {
		return nil, err
	}
	if b.XLSX {
		res.XLSXPath = filepath.Join(out, "features.xlsx")
		if err := WriteXLSX(res.XLSXPath, rows); err != nil {
			return nil, err
		}
	}

	log.Info("features: build complete",
		zap.Int("rows", len(rows)),
		zap.String("table", res.TablePath),
	)
	return res, nil
}

func (b *Builder) buildMonth(month, sarDir, optDir string, area *aoi.AOI) (Row, error) {
	if err := validateSAR(month, sarDir); err != nil {
		return Row{}, err
	}
	if err := validateOptical(month, optDir, b.bandCodes); err != nil {
		return Row{}, err
	}

	sar, err := b.extractor.SAR(sarDir, area)
	if err != nil {
		return Row{}, geoerr.WithContext(err, "features: month %s sentinel-1", month)
	}
	opt, err := b.extractor.Optical(optDir, area)
	if err != nil {
		return Row{}, geoerr.WithContext(err, "features: month %s sentinel-2", month)
	}

	return Row{
		Month:         month,
		NDVIMean:      opt.NDVI.Mean,
		NDWIMean:      opt.NDWI.Mean,
		NDBIMean:      opt.NDBI.Mean,
		VVDBMean:      sar.VVDB.Mean,
		VHDBMean:      sar.VHDB.Mean,
		VVMinusVHMean: sar.VVMinusVHDB.Mean,
	}, nil
}

func (b *Builder) aoiPath(root string, m *Manifest) string {
	if b.AOIPath != "" {
		return b.AOIPath
	}
	if m.AOI != "" {
		return resolve(root, m.AOI)
	}
	return filepath.Join(root, firstNonEmpty(b.cfg.AOIFile, "aoi.geojson"))
}

// listMonths returns the sorted union of month folder names of both sensor
// roots.
func listMonths(log *zap.Logger, roots ...string) ([]string, error) {
	seen := make(map[string]bool)
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, geoerr.Wrap(geoerr.KindArchiveNotFound, err, "features: read sensor folder %s", root)
		}
		for _, e := range entries {
			if !e.IsDir() || seen[e.Name()] {
				continue
			}
			seen[e.Name()] = true
			if !monthPattern.MatchString(e.Name()) {
				log.Warn("features: folder name is not YYYY-MM", zap.String("folder", filepath.Join(root, e.Name())))
			}
		}
	}

	months := make([]string, 0, len(seen))
	for name := range seen {
		months = append(months, name)
	}
	sort.Strings(months)
	return months, nil
}

func projectName(root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return filepath.Base(root)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
