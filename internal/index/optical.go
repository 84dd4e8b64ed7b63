package index

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/oneka/sitewatch/internal/geoerr"
	"github.com/oneka/sitewatch/internal/raster"
)

// Spectral index names.
const (
	NDVI = "NDVI"
	NDWI = "NDWI"
	NDBI = "NDBI"
)

// NormalizedDifference computes (a-b)/(a+b) per pixel. A pixel is valid
// where both inputs are unmasked and a+b is non-zero; others are NaN. Both
// inputs must share a grid.
func NormalizedDifference(a, b *raster.Masked, name string) ([]float64, error) {
	if len(a.Data) != len(b.Data) || a.Profile.Width != b.Profile.Width || a.Profile.Height != b.Profile.Height {
		return nil, eris.Errorf("index: %s inputs differ in shape: %dx%d vs %dx%d",
			name, a.Profile.Width, a.Profile.Height, b.Profile.Width, b.Profile.Height)
	}
	out := make([]float64, len(a.Data))
	valid := 0
	for i := range a.Data {
		sum := a.Data[i] + b.Data[i]
		if a.Mask[i] || b.Mask[i] || sum == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (a.Data[i] - b.Data[i]) / sum
		if !math.IsNaN(out[i]) {
			valid++
		}
	}
	if valid == 0 {
		return nil, geoerr.New(geoerr.KindNoValidPixels, "index: no valid pixels for %s", name)
	}
	return out, nil
}
