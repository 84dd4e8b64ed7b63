// Package clip intersects rasters with AOI polygons.
package clip

import (
	"fmt"

	"github.com/oneka/sitewatch/internal/aoi"
	"github.com/oneka/sitewatch/internal/crs"
	"github.com/oneka/sitewatch/internal/geoerr"
	"github.com/oneka/sitewatch/internal/raster"
)

// AOIBounds returns the normalised bounding box of all AOI polygons.
func AOIBounds(a *aoi.AOI) raster.Bounds {
	b := a.Bounds()
	return raster.NewBounds(b.Min(0), b.Min(1), b.Max(0), b.Max(1))
}

// Overlaps reports whether two boxes intersect. Touching edges count as
// overlap.
func Overlaps(r, a raster.Bounds) bool {
	disjoint := a.MaxX < r.MinX || a.MinX > r.MaxX || a.MaxY < r.MinY || a.MinY > r.MaxY
	return !disjoint
}

// CheckOverlap fails with an OverlapError when the AOI misses the raster grid.
// The AOI must already be expressed in the raster's comparison CRS.
func CheckOverlap(p raster.Profile, a *aoi.AOI, rasterPath string) error {
	rb, ab := p.Bounds(), AOIBounds(a)
	if Overlaps(rb, ab) {
		return nil
	}
	return geoerr.New(geoerr.KindOverlap,
		"clip: AOI does not overlap %s. Raster bounds=%s (CRS=%s); AOI bounds=%s (CRS=%s)",
		rasterPath, FormatBounds(rb), crs.Label(p.CRS), FormatBounds(ab), crs.Label(a.CRS))
}

// FormatBounds renders a box as (minx, miny, maxx, maxy).
func FormatBounds(b raster.Bounds) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f, %.6f)", b.MinX, b.MinY, b.MaxX, b.MaxY)
}
