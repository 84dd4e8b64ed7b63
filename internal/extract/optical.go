package extract

import (
	"go.uber.org/zap"

	"github.com/oneka/sitewatch/internal/aoi"
	"github.com/oneka/sitewatch/internal/clip"
	"github.com/oneka/sitewatch/internal/crs"
	"github.com/oneka/sitewatch/internal/geoerr"
	"github.com/oneka/sitewatch/internal/index"
	"github.com/oneka/sitewatch/internal/locator"
	"github.com/oneka/sitewatch/internal/raster"
)

// OpticalResult holds Sentinel-2 spectral index statistics for one scene.
type OpticalResult struct {
	NDVI        index.Stats `json:"ndvi" yaml:"ndvi"`
	NDWI        index.Stats `json:"ndwi" yaml:"ndwi"`
	NDBI        index.Stats `json:"ndbi" yaml:"ndbi"`
	RedPath     string      `json:"red_path" yaml:"red_path"`
	NIRPath     string      `json:"nir_path" yaml:"nir_path"`
	GreenPath   string      `json:"green_path" yaml:"green_path"`
	SWIRPath    string      `json:"swir_path" yaml:"swir_path"`
	ImgDataPath string      `json:"img_data_path" yaml:"img_data_path"`
	CRS         string      `json:"crs" yaml:"crs"`
	CRSSource   string      `json:"crs_source" yaml:"crs_source"`
	Warning     string      `json:"warning,omitempty" yaml:"warning,omitempty"`
}

// nirGrid is the reference grid every optical band is aligned to.
type nirGrid struct {
	profile raster.Profile
	res     crs.Resolution
}

// Optical extracts NDVI, NDWI and NDBI statistics over area from the
// Sentinel-2 product at root. Bands whose grid differs from NIR are
// resampled onto the NIR grid before clipping.
func (e *Extractor) Optical(root string, area *aoi.AOI) (*OpticalResult, error) {
	dir, cleanup, err := locator.Unpack(root, e.opts.ScratchDir)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	files, err := e.optical.FindRequiredFiles(dir)
	if err != nil {
		return nil, err
	}
	paths := make(map[string]string, len(locator.BandRoles))
	for _, role := range locator.BandRoles {
		p, ok := files.First(role)
		if !ok {
			return nil, geoerr.New(geoerr.KindBandNotFound, "extract: no %s band in %s", role, files.Dir)
		}
		paths[role] = p
	}

	var warnings crs.Warnings
	ref, err := e.referenceGrid(paths[locator.RoleNIR], area, &warnings)
	if err != nil {
		return nil, err
	}

	bands := make(map[string]*raster.Masked, len(paths))
	for _, role := range locator.BandRoles {
		m, err := e.clipOnto(paths[role], area, ref.profile, ref.res.AOI, &warnings)
		if err != nil {
			return nil, err
		}
		bands[role] = m
	}

	out := &OpticalResult{
		RedPath:     paths[locator.RoleRed],
		NIRPath:     paths[locator.RoleNIR],
		GreenPath:   paths[locator.RoleGreen],
		SWIRPath:    paths[locator.RoleSWIR],
		ImgDataPath: files.Dir,
		CRS:         ref.res.CRS(),
		CRSSource:   ref.res.Decision.Source.String(),
	}

	specs := []struct {
		name string
		a, b string
		dst  *index.Stats
	}{
		{index.NDVI, locator.RoleNIR, locator.RoleRed, &out.NDVI},
		{index.NDWI, locator.RoleGreen, locator.RoleNIR, &out.NDWI},
		{index.NDBI, locator.RoleSWIR, locator.RoleNIR, &out.NDBI},
	}
	for _, s := range specs {
		values, err := index.NormalizedDifference(bands[s.a], bands[s.b], s.name)
		if err != nil {
			return nil, err
		}
		if *s.dst, err = index.Summarize(values, s.name); err != nil {
			return nil, err
		}
	}
	out.Warning = warnings.String()

	zap.L().Info("extract: optical complete",
		zap.String("nir", out.NIRPath),
		zap.Float64("ndvi_mean", out.NDVI.Mean),
		zap.Float64("ndwi_mean", out.NDWI.Mean),
		zap.Float64("ndbi_mean", out.NDBI.Mean),
		zap.String("crs_source", out.CRSSource),
	)
	return out, nil
}

// referenceGrid reconciles the AOI with the NIR band and applies the overlap
// gate.
func (e *Extractor) referenceGrid(nirPath string, area *aoi.AOI, w *crs.Warnings) (*nirGrid, error) {
	s, err := raster.OpenGeoreferenced(e.opener, nirPath)
	if err != nil {
		return nil, err
	}
	defer s.Close() //nolint:errcheck

	res, err := crs.Resolve(area, e.facts(s), e.projector)
	if err != nil {
		return nil, err
	}
	w.Add(res.Decision.Warnings...)

	p := s.Profile()
	if err := clip.CheckOverlap(p, res.AOI, nirPath); err != nil {
		return nil, err
	}
	return &nirGrid{profile: p, res: res}, nil
}
