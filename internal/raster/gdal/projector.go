package gdal

import (
	"strings"

	"github.com/airbusgeo/godal"
	"github.com/rotisserie/eris"
)

// Projector implements crs.Projector with OSR. Coordinates use traditional
// GIS axis order (x=easting/longitude, y=northing/latitude).
type Projector struct{}

// NewProjector registers drivers and returns a Projector.
func NewProjector() Projector {
	Register()
	return Projector{}
}

// Same reports whether a and b describe the same CRS. Unparseable inputs
// compare textually.
func (Projector) Same(a, b string) bool {
	sa, errA := godal.NewSpatialRef(a)
	if errA != nil {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	defer sa.Close()
	sb, errB := godal.NewSpatialRef(b)
	if errB != nil {
		return false
	}
	defer sb.Close()
	return sa.IsSame(sb)
}

// Transform converts xs/ys in place.
func (Projector) Transform(from, to string, xs, ys []float64) error {
	if len(xs) != len(ys) {
		return eris.Errorf("gdal: coordinate length mismatch %d vs %d", len(xs), len(ys))
	}
	src, err := godal.NewSpatialRef(from)
	if err != nil {
		return eris.Wrapf(err, "gdal: parse source CRS %q", from)
	}
	defer src.Close()
	dst, err := godal.NewSpatialRef(to)
	if err != nil {
		return eris.Wrapf(err, "gdal: parse target CRS %q", to)
	}
	defer dst.Close()

	tr, err := godal.NewTransform(src, dst)
	if err != nil {
		return eris.Wrap(err, "gdal: create transform")
	}
	defer tr.Close()

	ok := make([]bool, len(xs))
	if err := tr.TransformEx(xs, ys, nil, ok); err != nil {
		return eris.Wrap(err, "gdal: transform coordinates")
	}
	for i, good := range ok {
		if !good {
			return eris.Errorf("gdal: point %d (%v, %v) failed to transform", i, xs[i], ys[i])
		}
	}
	return nil
}
