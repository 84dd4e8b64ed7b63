package extract

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/oneka/sitewatch/internal/aoi"
	"github.com/oneka/sitewatch/internal/clip"
	"github.com/oneka/sitewatch/internal/crs"
	"github.com/oneka/sitewatch/internal/geoerr"
	"github.com/oneka/sitewatch/internal/index"
	"github.com/oneka/sitewatch/internal/locator"
	"github.com/oneka/sitewatch/internal/raster"
)

// SARResult holds Sentinel-1 backscatter statistics for one scene.
type SARResult struct {
	VVDB              index.Stats `json:"vv_db" yaml:"vv_db"`
	VHDB              index.Stats `json:"vh_db" yaml:"vh_db"`
	VVMinusVHDB       index.Stats `json:"vv_minus_vh_db" yaml:"vv_minus_vh_db"`
	ValueMode         string      `json:"value_mode" yaml:"value_mode"`
	LinearScaleFactor float64     `json:"linear_scale_factor" yaml:"linear_scale_factor"`
	VVRaw             index.Stats `json:"vv_raw" yaml:"vv_raw"`
	VHRaw             index.Stats `json:"vh_raw" yaml:"vh_raw"`
	MeasurementPath   string      `json:"measurement_path" yaml:"measurement_path"`
	VVPath            string      `json:"vv_path" yaml:"vv_path"`
	VHPath            string      `json:"vh_path" yaml:"vh_path"`
	// CRS is the comparison CRS; empty when the AOI was used unaligned.
	CRS       string `json:"crs" yaml:"crs"`
	CRSSource string `json:"crs_source" yaml:"crs_source"`
	Warning   string `json:"warning,omitempty" yaml:"warning,omitempty"`
}

// candidate is a VV raster that passed the overlap gate.
type candidate struct {
	path    string
	profile raster.Profile
	res     crs.Resolution
}

// SAR extracts VV/VH statistics over area from the Sentinel-1 product at
// root (a SAFE folder, zipped SAFE or flat month folder).
func (e *Extractor) SAR(root string, area *aoi.AOI) (*SARResult, error) {
	dir, cleanup, err := locator.Unpack(root, e.opts.ScratchDir)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	files, err := e.sar.FindRequiredFiles(dir)
	if err != nil {
		return nil, err
	}

	var warnings crs.Warnings
	sel, err := e.selectVV(files.Candidates[locator.RoleVV], area, &warnings)
	if err != nil {
		return nil, err
	}
	vhPath := locator.MatchVH(sel.path, files.Candidates[locator.RoleVH])

	vv, err := e.clipOnto(sel.path, area, sel.profile, sel.res.AOI, &warnings)
	if err != nil {
		return nil, err
	}
	vh, err := e.clipOnto(vhPath, area, sel.profile, sel.res.AOI, &warnings)
	if err != nil {
		return nil, err
	}

	out := &SARResult{
		ValueMode:         "linear",
		LinearScaleFactor: e.opts.LinearScale,
		MeasurementPath:   files.Dir,
		VVPath:            sel.path,
		VHPath:            vhPath,
		CRS:               sel.res.CRS(),
		CRSSource:         sel.res.Decision.Source.String(),
	}
	if err := e.sarStats(vv, vh, out); err != nil {
		return nil, err
	}
	out.Warning = warnings.String()

	zap.L().Info("extract: sar complete",
		zap.String("vv", sel.path),
		zap.String("vh", vhPath),
		zap.Float64("vv_db_mean", out.VVDB.Mean),
		zap.Float64("vh_db_mean", out.VHDB.Mean),
		zap.String("crs_source", out.CRSSource),
	)
	return out, nil
}

// selectVV returns the first VV candidate, in sorted order, whose extent
// overlaps the AOI. Each candidate is opened and closed in turn.
func (e *Extractor) selectVV(paths []string, area *aoi.AOI, w *crs.Warnings) (*candidate, error) {
	var misses []string
	for _, p := range paths {
		c, miss, err := e.evaluateVV(p, area)
		if err != nil {
			return nil, err
		}
		if c != nil {
			w.Add(c.res.Decision.Warnings...)
			return c, nil
		}
		misses = append(misses, miss)
	}
	return nil, geoerr.New(geoerr.KindOverlap,
		"extract: no VV measurement raster overlaps the AOI (bounds=%s, CRS=%s). "+
			"Check AOI location, Sentinel-1 scene coverage, or CRS. Candidates: %s",
		clip.FormatBounds(clip.AOIBounds(area)), crs.Label(area.CRS), strings.Join(misses, "; "))
}

func (e *Extractor) evaluateVV(path string, area *aoi.AOI) (*candidate, string, error) {
	s, err := raster.OpenGeoreferenced(e.opener, path)
	if err != nil {
		return nil, "", err
	}
	defer s.Close() //nolint:errcheck

	res, err := crs.Resolve(area, e.facts(s), e.projector)
	if err != nil {
		return nil, "", err
	}
	p := s.Profile()
	if clip.Overlaps(p.Bounds(), clip.AOIBounds(res.AOI)) {
		return &candidate{path: path, profile: p, res: res}, "", nil
	}

	zap.L().Debug("extract: vv candidate does not overlap",
		zap.String("path", path),
		zap.String("crs", crs.Label(res.CRS())),
	)
	miss := fmt.Sprintf("%s bounds=%s (CRS=%s, AOI bounds=%s)",
		path, clip.FormatBounds(p.Bounds()), crs.Label(p.CRS), clip.FormatBounds(clip.AOIBounds(res.AOI)))
	return nil, miss, nil
}

func (e *Extractor) sarStats(vv, vh *raster.Masked, out *SARResult) error {
	vvDB, err := index.Decibels(vv, e.opts.LinearScale, "VV")
	if err != nil {
		return err
	}
	vhDB, err := index.Decibels(vh, e.opts.LinearScale, "VH")
	if err != nil {
		return err
	}
	diff, err := index.Difference(vvDB, vhDB, "VV-VH")
	if err != nil {
		return err
	}

	if out.VVDB, err = index.Summarize(vvDB, "VV"); err != nil {
		return err
	}
	if out.VHDB, err = index.Summarize(vhDB, "VH"); err != nil {
		return err
	}
	if out.VVMinusVHDB, err = index.Summarize(diff, "VV-VH"); err != nil {
		return err
	}
	if out.VVRaw, err = index.SummarizeRaw(vv, "VV raw"); err != nil {
		return err
	}
	if out.VHRaw, err = index.SummarizeRaw(vh, "VH raw"); err != nil {
		return err
	}
	return nil
}
