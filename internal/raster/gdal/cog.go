package gdal

import (
	"math"
	"strconv"

	"github.com/airbusgeo/godal"
	"github.com/rotisserie/eris"

	"github.com/oneka/sitewatch/internal/raster"
)

// COGWriter writes masked arrays as Cloud Optimized GeoTIFFs.
type COGWriter struct {
	Compress  string
	BlockSize int
}

// NewCOGWriter registers drivers and returns a writer.
func NewCOGWriter(compress string, blockSize int) COGWriter {
	Register()
	return COGWriter{Compress: compress, BlockSize: blockSize}
}

// Write stores m at path. Masked pixels are written as the profile's nodata
// value, or NaN when the profile has none.
func (w COGWriter) Write(path string, m *raster.Masked) error {
	p := m.Profile
	fill := math.NaN()
	if p.HasNoData {
		fill = p.NoData
	}

	mem, err := godal.Create(godal.Memory, "", 1, godal.Float64, p.Width, p.Height)
	if err != nil {
		return eris.Wrap(err, "gdal: create in-memory dataset")
	}
	defer mem.Close()

	if err := mem.SetGeoTransform([6]float64(p.Transform)); err != nil {
		return eris.Wrap(err, "gdal: set geotransform")
	}
	if p.CRS != "" {
		sr, err := godal.NewSpatialRef(p.CRS)
		if err != nil {
			return eris.Wrapf(err, "gdal: parse CRS %q", p.CRS)
		}
		err = mem.SetSpatialRef(sr)
		sr.Close()
		if err != nil {
			return eris.Wrap(err, "gdal: set spatial ref")
		}
	}

	band := mem.Bands()[0]
	if err := band.SetNoData(fill); err != nil {
		return eris.Wrap(err, "gdal: set nodata")
	}
	if err := band.Write(0, 0, m.Filled(fill), p.Width, p.Height); err != nil {
		return eris.Wrap(err, "gdal: write band")
	}

	out, err := mem.Translate(path, w.switches())
	if err != nil {
		return eris.Wrapf(err, "gdal: write COG %s", path)
	}
	if err := out.Close(); err != nil {
		return eris.Wrapf(err, "gdal: close %s", path)
	}
	return nil
}

func (w COGWriter) switches() []string {
	sw := []string{"-of", "COG"}
	if w.Compress != "" {
		sw = append(sw, "-co", "COMPRESS="+w.Compress)
	}
	if w.BlockSize > 0 {
		sw = append(sw, "-co", "BLOCKSIZE="+strconv.Itoa(w.BlockSize))
	}
	return sw
}
