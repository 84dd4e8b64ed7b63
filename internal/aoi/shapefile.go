package aoi

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// readShapefile reads polygon records from a shapefile. Each record becomes one
// polygon holding all of its rings; the CRS comes from the .prj sidecar.
func readShapefile(shpPath string) (*geom.MultiPolygon, string, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, "", eris.Wrapf(err, "shapefile: open %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	mp := geom.NewMultiPolygon(geom.XY)
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		var parts []int32
		var points []shp.Point
		switch s := shape.(type) {
		case *shp.Polygon:
			parts, points = s.Parts, s.Points
		case *shp.PolygonZ:
			parts, points = s.Parts, s.Points
		case *shp.PolygonM:
			parts, points = s.Parts, s.Points
		default:
			skipped++
			continue
		}

		rings := splitRings(parts, points)
		if len(rings) == 0 {
			skipped++
			continue
		}
		if err := pushPolygon(mp, rings); err != nil {
			zap.L().Debug("aoi: skipping malformed shapefile polygon", zap.Error(err))
			skipped++
		}
	}
	if err := reader.Err(); err != nil {
		return nil, "", eris.Wrap(err, "shapefile: read records")
	}

	if skipped > 0 {
		zap.L().Debug("aoi: skipped shapefile records", zap.String("path", shpPath), zap.Int("skipped", skipped))
	}

	crs, err := readPrj(shpPath)
	if err != nil {
		return nil, "", err
	}

	return mp, crs, nil
}

// splitRings cuts a shapefile point array into rings using the part offsets.
func splitRings(parts []int32, points []shp.Point) [][]geom.Coord {
	rings := make([][]geom.Coord, 0, len(parts))
	for i := range parts {
		start := parts[i]
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || end > int32(len(points)) || end-start < 3 {
			continue
		}
		ring := make([]geom.Coord, 0, end-start)
		for j := start; j < end; j++ {
			ring = append(ring, geom.Coord{points[j].X, points[j].Y})
		}
		rings = append(rings, ring)
	}
	return rings
}

// readPrj returns the WKT of the .prj sidecar, or "" when none exists.
func readPrj(shpPath string) (string, error) {
	base := strings.TrimSuffix(shpPath, filepath.Ext(shpPath))
	for _, ext := range []string{".prj", ".PRJ"} {
		data, err := os.ReadFile(base + ext)
		if err == nil {
			return strings.TrimSpace(string(data)), nil
		}
		if !os.IsNotExist(err) {
			return "", eris.Wrapf(err, "shapefile: read %s", base+ext)
		}
	}
	return "", nil
}
