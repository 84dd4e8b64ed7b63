// Package raster models single-band raster datasets, their georeferencing and
// masked pixel arrays.
package raster

import (
	"math"

	"github.com/rotisserie/eris"
)

// GeoTransform is a GDAL-ordered affine transform:
//
//	X = T[0] + col*T[1] + row*T[2]
//	Y = T[3] + col*T[4] + row*T[5]
type GeoTransform [6]float64

// Identity is the transform used when a file declares none.
func Identity() GeoTransform {
	return GeoTransform{0, 1, 0, 0, 0, 1}
}

// Apply maps a pixel/line position to world coordinates.
func (gt GeoTransform) Apply(col, row float64) (float64, float64) {
	return gt[0] + col*gt[1] + row*gt[2], gt[3] + col*gt[4] + row*gt[5]
}

// Invert returns the world-to-pixel transform. ok is false for degenerate
// transforms.
func (gt GeoTransform) Invert() (GeoTransform, bool) {
	det := gt[1]*gt[5] - gt[2]*gt[4]
	if det == 0 || math.IsNaN(det) {
		return GeoTransform{}, false
	}
	inv := GeoTransform{}
	inv[1] = gt[5] / det
	inv[2] = -gt[2] / det
	inv[4] = -gt[4] / det
	inv[5] = gt[1] / det
	inv[0] = -gt[0]*inv[1] - gt[3]*inv[2]
	inv[3] = -gt[0]*inv[4] - gt[3]*inv[5]
	return inv, true
}

// Shift returns the transform of a sub-grid starting at col/row.
func (gt GeoTransform) Shift(col, row int) GeoTransform {
	x, y := gt.Apply(float64(col), float64(row))
	out := gt
	out[0], out[3] = x, y
	return out
}

// Equal reports whether two transforms agree within a relative tolerance.
func (gt GeoTransform) Equal(o GeoTransform) bool {
	for i := range gt {
		tol := 1e-9 * math.Max(1, math.Max(math.Abs(gt[i]), math.Abs(o[i])))
		if math.Abs(gt[i]-o[i]) > tol {
			return false
		}
	}
	return true
}

// Bounds is an axis-aligned box with Min <= Max on both axes.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// NewBounds normalises two corners into a Bounds.
func NewBounds(x0, y0, x1, y1 float64) Bounds {
	return Bounds{
		MinX: math.Min(x0, x1),
		MinY: math.Min(y0, y1),
		MaxX: math.Max(x0, x1),
		MaxY: math.Max(y0, y1),
	}
}

// Extend grows b to include x, y.
func (b Bounds) Extend(x, y float64) Bounds {
	return Bounds{
		MinX: math.Min(b.MinX, x),
		MinY: math.Min(b.MinY, y),
		MaxX: math.Max(b.MaxX, x),
		MaxY: math.Max(b.MaxY, y),
	}
}

// Contains reports whether o lies within b, allowing eps slack.
func (b Bounds) Contains(o Bounds, eps float64) bool {
	return o.MinX >= b.MinX-eps && o.MinY >= b.MinY-eps &&
		o.MaxX <= b.MaxX+eps && o.MaxY <= b.MaxY+eps
}

// Window is a pixel rectangle.
type Window struct {
	Col, Row      int
	Width, Height int
}

// Empty reports whether the window holds no pixels.
func (w Window) Empty() bool {
	return w.Width <= 0 || w.Height <= 0
}

// Size returns the number of pixels in the window.
func (w Window) Size() int {
	if w.Empty() {
		return 0
	}
	return w.Width * w.Height
}

// Profile describes a raster grid.
type Profile struct {
	Width     int
	Height    int
	Bands     int
	Transform GeoTransform
	// CRS is the raster's coordinate reference system (EPSG string or WKT).
	// Empty when the file declares none.
	CRS       string
	NoData    float64
	HasNoData bool
}

// Bounds returns the extent of the grid computed from all four corners.
func (p Profile) Bounds() Bounds {
	w, h := float64(p.Width), float64(p.Height)
	x0, y0 := p.Transform.Apply(0, 0)
	b := NewBounds(x0, y0, x0, y0)
	for _, c := range [][2]float64{{w, 0}, {0, h}, {w, h}} {
		b = b.Extend(p.Transform.Apply(c[0], c[1]))
	}
	return b
}

// SameGrid reports whether two profiles share dimensions, transform and CRS.
func (p Profile) SameGrid(o Profile) bool {
	return p.Width == o.Width && p.Height == o.Height &&
		p.CRS == o.CRS && p.Transform.Equal(o.Transform)
}

// IsNoData reports whether v is the nodata value or NaN.
func (p Profile) IsNoData(v float64) bool {
	if math.IsNaN(v) {
		return true
	}
	return p.HasNoData && v == p.NoData
}

// GCP is a ground control point tying a pixel/line position to world
// coordinates.
type GCP struct {
	Pixel, Line float64
	X, Y        float64
}

// Dataset is an opened single-band raster. Implementations are not safe for
// concurrent use.
type Dataset interface {
	// Path is the file the dataset was opened from.
	Path() string
	Profile() Profile
	// GCPs returns the ground control points and their CRS, if any.
	GCPs() ([]GCP, string)
	// Read returns band 1 values for win in row-major order.
	Read(win Window) ([]float64, error)
	Close() error
}

// Opener opens datasets by path.
type Opener interface {
	Open(path string) (Dataset, error)
}

// Masked is a band 1 pixel array with a validity mask. Mask[i] is true when
// pixel i is invalid.
type Masked struct {
	Data    []float64
	Mask    []bool
	Profile Profile
}

// NewMasked checks the length invariant and returns a Masked.
func NewMasked(data []float64, mask []bool, p Profile) (*Masked, error) {
	n := p.Width * p.Height
	if len(data) != n || len(mask) != n {
		return nil, eris.Errorf("raster: masked array size mismatch: data=%d mask=%d grid=%dx%d",
			len(data), len(mask), p.Width, p.Height)
	}
	return &Masked{Data: data, Mask: mask, Profile: p}, nil
}

// Valid returns the unmasked values.
func (m *Masked) Valid() []float64 {
	out := make([]float64, 0, len(m.Data))
	for i, v := range m.Data {
		if !m.Mask[i] {
			out = append(out, v)
		}
	}
	return out
}

// CountValid returns the number of unmasked pixels.
func (m *Masked) CountValid() int {
	n := 0
	for _, masked := range m.Mask {
		if !masked {
			n++
		}
	}
	return n
}

// Filled returns Data with masked pixels replaced by fill.
func (m *Masked) Filled(fill float64) []float64 {
	out := make([]float64, len(m.Data))
	for i, v := range m.Data {
		if m.Mask[i] {
			out[i] = fill
			continue
		}
		out[i] = v
	}
	return out
}

// CheckWindow reports an error unless win is non-empty and inside the grid.
func (p Profile) CheckWindow(win Window) error {
	if win.Empty() {
		return eris.Errorf("raster: empty window %+v", win)
	}
	if win.Col < 0 || win.Row < 0 || win.Col+win.Width > p.Width || win.Row+win.Height > p.Height {
		return eris.Errorf("raster: window %+v outside %dx%d grid", win, p.Width, p.Height)
	}
	return nil
}
