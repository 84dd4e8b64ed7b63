package extract

import (
	"github.com/oneka/sitewatch/internal/aoi"
	"github.com/oneka/sitewatch/internal/clip"
	"github.com/oneka/sitewatch/internal/crs"
	"github.com/oneka/sitewatch/internal/raster"
)

// ClipRaster clips one raster to area on its own grid after CRS
// reconciliation and the overlap gate. The returned warnings describe any CRS
// fallback that was applied.
func (e *Extractor) ClipRaster(path string, area *aoi.AOI) (*raster.Masked, []string, error) {
	s, err := raster.OpenGeoreferenced(e.opener, path)
	if err != nil {
		return nil, nil, err
	}
	defer s.Close() //nolint:errcheck

	res, err := crs.Resolve(area, e.facts(s), e.projector)
	if err != nil {
		return nil, nil, err
	}
	p := s.Profile()
	if err := clip.CheckOverlap(p, res.AOI, path); err != nil {
		return nil, nil, err
	}
	m, err := clip.Clip(s.View, res.AOI)
	if err != nil {
		return nil, nil, err
	}
	return m, res.Decision.Warnings, nil
}
