package gdal

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneka/sitewatch/internal/raster"
)

func maskedGrid(w, h int) *raster.Masked {
	data := make([]float64, w*h)
	mask := make([]bool, w*h)
	for i := range data {
		data[i] = float64(i + 1)
	}
	mask[0] = true
	return &raster.Masked{
		Data: data,
		Mask: mask,
		Profile: raster.Profile{
			Width:     w,
			Height:    h,
			Bands:     1,
			Transform: raster.GeoTransform{500000, 10, 0, 9900000, 0, -10},
			CRS:       "EPSG:32737",
		},
	}
}

func TestCOGWriter_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vv.tif")
	require.NoError(t, NewCOGWriter("DEFLATE", 512).Write(path, maskedGrid(4, 3)))

	ds, err := NewOpener().Open(path)
	require.NoError(t, err)
	defer ds.Close()

	p := ds.Profile()
	assert.Equal(t, 4, p.Width)
	assert.Equal(t, 3, p.Height)
	assert.True(t, p.Transform.Equal(raster.GeoTransform{500000, 10, 0, 9900000, 0, -10}))
	assert.True(t, NewProjector().Same(p.CRS, "EPSG:32737"))
	assert.True(t, p.HasNoData)
	assert.True(t, math.IsNaN(p.NoData))

	vals, err := ds.Read(raster.Window{Width: 4, Height: 3})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(vals[0]), "masked pixel written as nodata")
	assert.Equal(t, 2.0, vals[1])
	assert.Equal(t, 12.0, vals[11])

	_, err = ds.Read(raster.Window{Col: 3, Width: 2, Height: 1})
	assert.Error(t, err)
}

func TestOpener_MissingFile(t *testing.T) {
	_, err := NewOpener().Open(filepath.Join(t.TempDir(), "nope.tif"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gdal: open")
}

func TestProjector_UTM(t *testing.T) {
	xs, ys := []float64{39}, []float64{0}
	require.NoError(t, NewProjector().Transform("EPSG:4326", "EPSG:32737", xs, ys))
	assert.InDelta(t, 500000, xs[0], 1e-3)
	assert.InDelta(t, 10000000, ys[0], 1e-3)
}

func TestProjector_Same(t *testing.T) {
	p := NewProjector()
	assert.True(t, p.Same("EPSG:4326", "EPSG:4326"))
	assert.False(t, p.Same("EPSG:4326", "EPSG:32737"))
}

func TestCOGWriter_Switches(t *testing.T) {
	assert.Equal(t, []string{"-of", "COG", "-co", "COMPRESS=DEFLATE", "-co", "BLOCKSIZE=512"},
		COGWriter{Compress: "DEFLATE", BlockSize: 512}.switches())
	assert.Equal(t, []string{"-of", "COG"}, COGWriter{}.switches())
}
