package index

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/oneka/sitewatch/internal/geoerr"
	"github.com/oneka/sitewatch/internal/raster"
)

// DefaultLinearScale converts Sentinel-1 digital numbers to linear power.
const DefaultLinearScale = 10000.0

// Decibels converts masked digital numbers to backscatter in dB:
// 10*log10(DN/scale). Masked and non-positive pixels become NaN. label names
// the layer in errors.
func Decibels(m *raster.Masked, scale float64, label string) ([]float64, error) {
	if scale <= 0 {
		return nil, eris.Errorf("index: linear scale factor must be positive, got %v", scale)
	}
	out := make([]float64, len(m.Data))
	valid := 0
	for i, dn := range m.Data {
		linear := dn / scale
		if m.Mask[i] || !(linear > 0) {
			out[i] = math.NaN()
			continue
		}
		out[i] = 10 * math.Log10(linear)
		valid++
	}
	if valid == 0 {
		return nil, geoerr.New(geoerr.KindNoValidPixels, "index: no valid %s pixels after dB conversion", label)
	}
	return out, nil
}

// Difference returns a-b per pixel; NaN where either side is NaN.
func Difference(a, b []float64, label string) ([]float64, error) {
	if len(a) != len(b) {
		return nil, eris.Errorf("index: %s layers differ in size: %d vs %d", label, len(a), len(b))
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out, nil
}
