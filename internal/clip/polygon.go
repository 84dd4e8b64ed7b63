package clip

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"github.com/twpayne/go-geom/xy/location"
)

type polygon struct {
	*geom.Polygon
	bounds *geom.Bounds
}

// polygons splits a multipolygon into its parts, caching each part's bounds.
func polygons(mp *geom.MultiPolygon) []polygon {
	out := make([]polygon, 0, mp.NumPolygons())
	for i := 0; i < mp.NumPolygons(); i++ {
		p := mp.Polygon(i)
		if p.NumLinearRings() == 0 || p.LinearRing(0).NumCoords() < 4 {
			continue
		}
		out = append(out, polygon{Polygon: p, bounds: p.Bounds()})
	}
	return out
}

// contains reports whether (x, y) lies strictly inside the shell and outside
// every hole. Points on any boundary are excluded.
func (p polygon) contains(x, y float64) bool {
	if x < p.bounds.Min(0) || x > p.bounds.Max(0) || y < p.bounds.Min(1) || y > p.bounds.Max(1) {
		return false
	}
	pt := geom.Coord{x, y}
	layout := p.Layout()
	if xy.LocatePointInRing(layout, pt, p.LinearRing(0).FlatCoords()) != location.Interior {
		return false
	}
	for k := 1; k < p.NumLinearRings(); k++ {
		if xy.IsPointInRing(layout, pt, p.LinearRing(k).FlatCoords()) {
			return false
		}
	}
	return true
}

func anyContains(ps []polygon, x, y float64) bool {
	for _, p := range ps {
		if p.contains(x, y) {
			return true
		}
	}
	return false
}
