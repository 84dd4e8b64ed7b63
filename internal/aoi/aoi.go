// Package aoi loads area-of-interest polygons from vector files.
package aoi

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/oneka/sitewatch/internal/geoerr"
)

// AOI is a read-only set of polygons expressed in one CRS.
type AOI struct {
	Geometry *geom.MultiPolygon
	// CRS is the coordinate reference system of Geometry as declared by the
	// source file. Empty when the source declares none.
	CRS  string
	Path string
}

// Bounds returns the axis-aligned extent of all polygons.
func (a *AOI) Bounds() *geom.Bounds {
	return a.Geometry.Bounds()
}

// NumPolygons returns the number of polygons in the AOI.
func (a *AOI) NumPolygons() int {
	return a.Geometry.NumPolygons()
}

// WithGeometry returns a copy of the AOI carrying new geometry in a new CRS.
func (a *AOI) WithGeometry(mp *geom.MultiPolygon, crs string) *AOI {
	return &AOI{Geometry: mp, CRS: crs, Path: a.Path}
}

// Load reads an AOI from a GeoJSON or ESRI Shapefile path.
func Load(path string) (*AOI, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, geoerr.Wrap(geoerr.KindAOIRead, err, "aoi: stat %s", path)
	}
	if info.IsDir() {
		return nil, geoerr.New(geoerr.KindAOIRead, "aoi: %s is a directory", path)
	}

	var (
		mp  *geom.MultiPolygon
		crs string
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		mp, crs, err = readGeoJSON(path)
	case ".shp":
		mp, crs, err = readShapefile(path)
	default:
		return nil, geoerr.New(geoerr.KindAOIRead, "aoi: unsupported file type %q", path)
	}
	if err != nil {
		return nil, geoerr.Wrap(geoerr.KindAOIRead, err, "aoi: read %s", path)
	}
	if mp.NumPolygons() == 0 {
		return nil, geoerr.New(geoerr.KindAOIRead, "aoi: %s has no polygon features", path)
	}

	zap.L().Debug("aoi: loaded",
		zap.String("path", path),
		zap.String("crs", crs),
		zap.Int("polygons", mp.NumPolygons()),
	)

	return &AOI{Geometry: mp, CRS: crs, Path: path}, nil
}

// appendPolygons flattens polygonal geometries into mp as 2D polygons.
// Returns false when g holds no polygonal geometry.
func appendPolygons(mp *geom.MultiPolygon, g geom.T) (bool, error) {
	switch t := g.(type) {
	case *geom.Polygon:
		return true, pushPolygon(mp, t.Coords())
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			if err := pushPolygon(mp, t.Polygon(i).Coords()); err != nil {
				return true, err
			}
		}
		return t.NumPolygons() > 0, nil
	case *geom.GeometryCollection:
		found := false
		for _, child := range t.Geoms() {
			ok, err := appendPolygons(mp, child)
			if err != nil {
				return found, err
			}
			found = found || ok
		}
		return found, nil
	default:
		return false, nil
	}
}

func pushPolygon(mp *geom.MultiPolygon, rings [][]geom.Coord) error {
	flat := make([][]geom.Coord, 0, len(rings))
	for _, ring := range rings {
		if len(ring) < 3 {
			continue
		}
		r := make([]geom.Coord, len(ring))
		for i, c := range ring {
			r[i] = geom.Coord{c[0], c[1]}
		}
		flat = append(flat, r)
	}
	if len(flat) == 0 {
		return nil
	}
	p, err := geom.NewPolygon(geom.XY).SetCoords(flat)
	if err != nil {
		return err
	}
	return mp.Push(p)
}
