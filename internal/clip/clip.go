package clip

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/oneka/sitewatch/internal/aoi"
	"github.com/oneka/sitewatch/internal/crs"
	"github.com/oneka/sitewatch/internal/geoerr"
	"github.com/oneka/sitewatch/internal/raster"
)

// Window maps the AOI bounding box onto the raster grid, rounding outwards and
// clamping to the raster extent.
func Window(p raster.Profile, a *aoi.AOI) (raster.Window, error) {
	inv, ok := p.Transform.Invert()
	if !ok {
		return raster.Window{}, eris.Errorf("clip: raster transform %v is not invertible", p.Transform)
	}
	ab := AOIBounds(a)

	minC, minR := math.Inf(1), math.Inf(1)
	maxC, maxR := math.Inf(-1), math.Inf(-1)
	for _, c := range [][2]float64{{ab.MinX, ab.MinY}, {ab.MaxX, ab.MinY}, {ab.MinX, ab.MaxY}, {ab.MaxX, ab.MaxY}} {
		col, row := inv.Apply(c[0], c[1])
		minC, maxC = math.Min(minC, col), math.Max(maxC, col)
		minR, maxR = math.Min(minR, row), math.Max(maxR, row)
	}

	w, h := float64(p.Width), float64(p.Height)
	c0 := int(clamp(math.Floor(minC), 0, w))
	r0 := int(clamp(math.Floor(minR), 0, h))
	c1 := int(clamp(math.Ceil(maxC), 0, w))
	r1 := int(clamp(math.Ceil(maxR), 0, h))
	return raster.Window{Col: c0, Row: r0, Width: c1 - c0, Height: r1 - r0}, nil
}

// Clip reads band 1 of ds inside the AOI. The AOI must be expressed in the
// dataset's CRS. A pixel is valid when its centre lies inside an AOI polygon
// and its value is neither nodata nor NaN.
func Clip(ds raster.Dataset, a *aoi.AOI) (*raster.Masked, error) {
	p := ds.Profile()
	win, err := Window(p, a)
	if err != nil {
		return nil, err
	}
	if win.Empty() {
		return nil, geoerr.New(geoerr.KindClip,
			"clip: AOI window over %s is empty. Raster bounds=%s (CRS=%s); AOI bounds=%s (CRS=%s)",
			ds.Path(), FormatBounds(p.Bounds()), crs.Label(p.CRS), FormatBounds(AOIBounds(a)), crs.Label(a.CRS))
	}

	data, err := ds.Read(win)
	if err != nil {
		return nil, eris.Wrapf(err, "clip: read window of %s", ds.Path())
	}

	out := p
	out.Width, out.Height = win.Width, win.Height
	out.Transform = p.Transform.Shift(win.Col, win.Row)

	polys := polygons(a.Geometry)
	mask := make([]bool, len(data))
	for r := 0; r < win.Height; r++ {
		for c := 0; c < win.Width; c++ {
			i := r*win.Width + c
			x, y := out.Transform.Apply(float64(c)+0.5, float64(r)+0.5)
			mask[i] = p.IsNoData(data[i]) || !anyContains(polys, x, y)
		}
	}

	m, err := raster.NewMasked(data, mask, out)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("clip: clipped raster",
		zap.String("path", ds.Path()),
		zap.Int("width", win.Width),
		zap.Int("height", win.Height),
		zap.Int("valid", m.CountValid()),
	)
	return m, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
