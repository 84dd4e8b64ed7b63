// Package index converts clipped rasters into radar backscatter and spectral
// indices and summarises them.
package index

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/oneka/sitewatch/internal/geoerr"
	"github.com/oneka/sitewatch/internal/raster"
)

// Stats summarises the finite values of a layer.
type Stats struct {
	Mean float64 `json:"mean" yaml:"mean"`
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
	// Std is the population standard deviation.
	Std float64 `json:"std" yaml:"std"`
}

// Summarize computes stats over the finite entries of values, ignoring NaN.
// It fails with NoValidPixelsError naming label when nothing is finite.
func Summarize(values []float64, label string) (Stats, error) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return Stats{}, geoerr.New(geoerr.KindNoValidPixels, "index: no valid pixels for %s", label)
	}

	mean, variance := stat.PopMeanVariance(finite, nil)
	if len(finite) == 1 || variance < 0 {
		variance = 0
	}
	return Stats{
		Mean: mean,
		Min:  floats.Min(finite),
		Max:  floats.Max(finite),
		Std:  math.Sqrt(variance),
	}, nil
}

// SummarizeRaw computes stats over the unmasked raw values of m.
func SummarizeRaw(m *raster.Masked, label string) (Stats, error) {
	return Summarize(m.Valid(), label)
}
