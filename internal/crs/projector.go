// Package crs reconciles coordinate reference systems between AOIs and rasters.
package crs

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/oneka/sitewatch/internal/aoi"
	"github.com/oneka/sitewatch/internal/geoerr"
)

// Projector transforms coordinates between CRSs given as user input strings
// (EPSG codes, URNs or WKT).
type Projector interface {
	// Same reports whether a and b describe the same CRS.
	Same(a, b string) bool
	// Transform converts xs/ys in place from one CRS to another.
	Transform(from, to string, xs, ys []float64) error
}

var wktNameRE = regexp.MustCompile(`^\s*[A-Z_0-9]+\s*\[\s*"([^"]*)"`)

// Label returns a short human-readable name for a CRS string. WKT is reduced
// to its top-level name; empty input renders as "none".
func Label(crs string) string {
	s := strings.TrimSpace(crs)
	if s == "" {
		return "none"
	}
	if code, ok := epsgCode(s); ok {
		return "EPSG:" + strconv.Itoa(code)
	}
	if m := wktNameRE.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// Reproject returns a copy of a expressed in the target CRS.
func Reproject(a *aoi.AOI, to string, p Projector) (*aoi.AOI, error) {
	if to == "" {
		return a, nil
	}
	if a.CRS == "" {
		return nil, geoerr.New(geoerr.KindCRSResolution,
			"crs: AOI %s has no CRS; cannot reproject it into %s", a.Path, Label(to))
	}
	if p.Same(a.CRS, to) {
		return a.WithGeometry(a.Geometry, to), nil
	}

	src := a.Geometry
	flat := src.FlatCoords()
	stride := src.Stride()
	n := len(flat) / stride
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = flat[i*stride]
		ys[i] = flat[i*stride+1]
	}

	if err := p.Transform(a.CRS, to, xs, ys); err != nil {
		return nil, geoerr.Wrap(geoerr.KindCRSResolution, err,
			"crs: reproject AOI from %s to %s", Label(a.CRS), Label(to))
	}

	out := make([]float64, 0, n*2)
	for i := 0; i < n; i++ {
		out = append(out, xs[i], ys[i])
	}
	endss := src.Endss()
	if stride != 2 {
		endss = rescaleEnds(endss, stride)
	}
	mp := geom.NewMultiPolygonFlat(geom.XY, out, endss)
	return a.WithGeometry(mp, to), nil
}

func rescaleEnds(endss [][]int, stride int) [][]int {
	out := make([][]int, len(endss))
	for i, ends := range endss {
		out[i] = make([]int, len(ends))
		for j, e := range ends {
			out[i][j] = e / stride * 2
		}
	}
	return out
}

var errUnsupported = eris.New("crs: unsupported coordinate reference system")
