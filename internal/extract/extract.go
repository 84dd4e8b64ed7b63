// Package extract computes single-scene AOI statistics for Sentinel-1 and
// Sentinel-2 products.
package extract

import (
	"github.com/rotisserie/eris"

	"github.com/oneka/sitewatch/internal/aoi"
	"github.com/oneka/sitewatch/internal/clip"
	"github.com/oneka/sitewatch/internal/config"
	"github.com/oneka/sitewatch/internal/crs"
	"github.com/oneka/sitewatch/internal/index"
	"github.com/oneka/sitewatch/internal/locator"
	"github.com/oneka/sitewatch/internal/raster"
)

// Options tune CRS reconciliation and radiometric conversion.
type Options struct {
	// AssumedCRS is applied to rasters without CRS or usable GCPs.
	AssumedCRS string
	// AllowUnaligned continues without reprojection when no CRS can be
	// established and no AssumedCRS is set.
	AllowUnaligned bool
	// LinearScale divides Sentinel-1 digital numbers before dB conversion.
	LinearScale float64
	// ScratchDir receives extracted zipped archives.
	ScratchDir string
}

// OptionsFromConfig maps configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AssumedCRS:     cfg.Raster.AssumedCRS,
		AllowUnaligned: cfg.Raster.AllowUnaligned,
		LinearScale:    cfg.Raster.LinearScaleFactor,
		ScratchDir:     cfg.Raster.ScratchDir,
	}
}

// Extractor runs single-scene extractions. Each call opens and closes its own
// datasets.
type Extractor struct {
	opener    raster.Opener
	projector crs.Projector
	sar       locator.Locator
	optical   locator.Locator
	opts      Options
}

// New creates an Extractor.
func New(opener raster.Opener, projector crs.Projector, sar, optical locator.Locator, opts Options) *Extractor {
	if opts.LinearScale <= 0 {
		opts.LinearScale = index.DefaultLinearScale
	}
	return &Extractor{
		opener:    opener,
		projector: projector,
		sar:       sar,
		optical:   optical,
		opts:      opts,
	}
}

// NewFromConfig creates an Extractor with locators built from cfg.
func NewFromConfig(cfg *config.Config, opener raster.Opener, projector crs.Projector) *Extractor {
	return New(opener, projector,
		locator.NewSAR(cfg.SAR),
		locator.NewOptical(cfg.Optical),
		OptionsFromConfig(cfg),
	)
}

// facts describes a scene for CRS reconciliation.
func (e *Extractor) facts(s *raster.Scene) crs.Facts {
	f := crs.Facts{
		AssumedCRS:     e.opts.AssumedCRS,
		AllowUnaligned: e.opts.AllowUnaligned,
		Raster:         s.Source.Path(),
	}
	if s.GCPDerived {
		f.GCPCRS = s.GCPCRS
	} else {
		f.DeclaredCRS = s.Source.Profile().CRS
	}
	return f
}

func (e *Extractor) sameCRS(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	return a == b || e.projector.Same(a, b)
}

// clipOnto clips the raster at path to area on the reference grid. When the
// raster's georeferenced grid differs from ref it is resampled onto ref first
// and clipped with refAOI, which must be area expressed in ref's CRS.
func (e *Extractor) clipOnto(path string, area *aoi.AOI, ref raster.Profile, refAOI *aoi.AOI, w *crs.Warnings) (*raster.Masked, error) {
	s, err := raster.OpenGeoreferenced(e.opener, path)
	if err != nil {
		return nil, err
	}
	defer s.Close() //nolint:errcheck

	res, err := crs.Resolve(area, e.facts(s), e.projector)
	if err != nil {
		return nil, err
	}
	w.Add(res.Decision.Warnings...)

	vp := s.Profile()
	if vp.SameGrid(ref) {
		if err := clip.CheckOverlap(vp, res.AOI, path); err != nil {
			return nil, err
		}
		return clip.Clip(s.View, res.AOI)
	}

	if !e.sameCRS(vp.CRS, ref.CRS) {
		return nil, eris.Errorf("extract: %s is in %s but the reference grid is in %s",
			path, crs.Label(vp.CRS), crs.Label(ref.CRS))
	}
	target := ref
	target.CRS = vp.CRS
	warped, err := raster.Warp(s.View, target)
	if err != nil {
		return nil, err
	}
	defer warped.Close() //nolint:errcheck

	return clip.Clip(warped, refAOI)
}
