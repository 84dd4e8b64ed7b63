package raster

import (
	"math"

	"github.com/rotisserie/eris"
)

// Warp returns a lazy view of src resampled onto the target grid with
// bilinear interpolation. Both grids must share a CRS; the view does not
// reproject. Target pixels falling outside src read as NaN. Closing the view
// does not close src.
func Warp(src Dataset, target Profile) (Dataset, error) {
	sp := src.Profile()
	if sp.CRS != target.CRS {
		return nil, eris.Errorf("raster: warp %s requires matching CRS, got %q and %q",
			src.Path(), sp.CRS, target.CRS)
	}
	inv, ok := sp.Transform.Invert()
	if !ok {
		return nil, eris.Errorf("raster: warp %s: source transform is not invertible", src.Path())
	}
	if target.Width <= 0 || target.Height <= 0 {
		return nil, eris.Errorf("raster: warp %s: empty target grid %dx%d", src.Path(), target.Width, target.Height)
	}

	p := target
	p.Bands = 1
	p.NoData = math.NaN()
	p.HasNoData = true
	return &warped{src: src, srcProfile: sp, srcInv: inv, profile: p}, nil
}

type warped struct {
	src        Dataset
	srcProfile Profile
	srcInv     GeoTransform
	profile    Profile
}

func (w *warped) Path() string { return w.src.Path() }

func (w *warped) Profile() Profile { return w.profile }

func (w *warped) GCPs() ([]GCP, string) { return nil, "" }

func (w *warped) Close() error { return nil }

func (w *warped) Read(win Window) ([]float64, error) {
	if err := w.profile.CheckWindow(win); err != nil {
		return nil, eris.Wrapf(err, "raster: warp read %s", w.src.Path())
	}

	// Source pixel-space positions (pixel centre convention) for each target pixel.
	n := win.Size()
	fx := make([]float64, n)
	fy := make([]float64, n)
	minC, minR := math.MaxInt, math.MaxInt
	maxC, maxR := math.MinInt, math.MinInt
	sw, sh := w.srcProfile.Width, w.srcProfile.Height
	for r := 0; r < win.Height; r++ {
		for c := 0; c < win.Width; c++ {
			i := r*win.Width + c
			x, y := w.profile.Transform.Apply(float64(win.Col+c)+0.5, float64(win.Row+r)+0.5)
			sx, sy := w.srcInv.Apply(x, y)
			if sx < 0 || sy < 0 || sx > float64(sw) || sy > float64(sh) {
				fx[i], fy[i] = math.NaN(), math.NaN()
				continue
			}
			fx[i], fy[i] = sx-0.5, sy-0.5
			c0 := clampInt(int(math.Floor(fx[i])), 0, sw-1)
			r0 := clampInt(int(math.Floor(fy[i])), 0, sh-1)
			c1 := clampInt(c0+1, 0, sw-1)
			r1 := clampInt(r0+1, 0, sh-1)
			minC, maxC = min(minC, c0), max(maxC, c1)
			minR, maxR = min(minR, r0), max(maxR, r1)
		}
	}

	out := make([]float64, n)
	if maxC < minC {
		for i := range out {
			out[i] = math.NaN()
		}
		return out, nil
	}

	srcWin := Window{Col: minC, Row: minR, Width: maxC - minC + 1, Height: maxR - minR + 1}
	block, err := w.src.Read(srcWin)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: warp read %s", w.src.Path())
	}

	at := func(c, r int) float64 {
		return block[(r-srcWin.Row)*srcWin.Width+(c-srcWin.Col)]
	}
	for i := range out {
		if math.IsNaN(fx[i]) {
			out[i] = math.NaN()
			continue
		}
		out[i] = w.bilinear(at, fx[i], fy[i])
	}
	return out, nil
}

// bilinear interpolates at fractional pixel position fx, fy. When any of the
// four neighbours is nodata the valid neighbour with the largest weight is used instead.
func (w *warped) bilinear(at func(c, r int) float64, fx, fy float64) float64 {
	sw, sh := w.srcProfile.Width, w.srcProfile.Height
	c0 := clampInt(int(math.Floor(fx)), 0, sw-1)
	r0 := clampInt(int(math.Floor(fy)), 0, sh-1)
	c1 := clampInt(c0+1, 0, sw-1)
	r1 := clampInt(r0+1, 0, sh-1)
	tx := clampFloat(fx-float64(c0), 0, 1)
	ty := clampFloat(fy-float64(r0), 0, 1)

	type sample struct {
		v, weight float64
	}
	s := [4]sample{
		{at(c0, r0), (1 - tx) * (1 - ty)},
		{at(c1, r0), tx * (1 - ty)},
		{at(c0, r1), (1 - tx) * ty},
		{at(c1, r1), tx * ty},
	}

	allValid := true
	for _, smp := range s {
		if w.srcProfile.IsNoData(smp.v) {
			allValid = false
			break
		}
	}
	if allValid {
		var v float64
		for _, smp := range s {
			v += smp.v * smp.weight
		}
		return v
	}

	best, bestWeight := math.NaN(), 0.0
	for _, smp := range s {
		if w.srcProfile.IsNoData(smp.v) {
			continue
		}
		if smp.weight > bestWeight {
			best, bestWeight = smp.v, smp.weight
		}
	}
	return best
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
