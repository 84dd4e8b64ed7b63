// Package gdal backs the raster interfaces with GDAL through godal.
package gdal

import (
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/rotisserie/eris"

	"github.com/oneka/sitewatch/internal/raster"
)

var registerOnce sync.Once

// Register registers all GDAL drivers. Safe to call more than once.
func Register() {
	registerOnce.Do(godal.RegisterAll)
}

// Opener opens files with GDAL.
type Opener struct{}

// NewOpener registers drivers and returns an Opener.
func NewOpener() Opener {
	Register()
	return Opener{}
}

// Open implements raster.Opener.
func (Opener) Open(path string) (raster.Dataset, error) {
	ds, err := godal.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "gdal: open %s", path)
	}
	st := ds.Structure()
	if st.NBands < 1 {
		_ = ds.Close()
		return nil, eris.Errorf("gdal: %s has no bands", path)
	}

	p := raster.Profile{
		Width:     st.SizeX,
		Height:    st.SizeY,
		Bands:     st.NBands,
		Transform: raster.Identity(),
		CRS:       ds.Projection(),
	}
	if gt, err := ds.GeoTransform(); err == nil {
		p.Transform = raster.GeoTransform(gt)
	}
	band := ds.Bands()[0]
	if nd, ok := band.NoData(); ok {
		p.NoData, p.HasNoData = nd, true
	}

	return &dataset{ds: ds, band: band, path: path, profile: p}, nil
}

type dataset struct {
	ds      *godal.Dataset
	band    godal.Band
	path    string
	profile raster.Profile
	closed  bool
}

func (d *dataset) Path() string { return d.path }

func (d *dataset) Profile() raster.Profile { return d.profile }

func (d *dataset) GCPs() ([]raster.GCP, string) {
	list := d.ds.GCPs()
	if len(list) == 0 {
		return nil, ""
	}
	out := make([]raster.GCP, len(list))
	for i, g := range list {
		out[i] = raster.GCP{Pixel: g.DfGCPPixel, Line: g.DfGCPLine, X: g.DfGCPX, Y: g.DfGCPY}
	}
	return out, d.ds.GCPProjection()
}

func (d *dataset) Read(win raster.Window) ([]float64, error) {
	if d.closed {
		return nil, eris.Errorf("gdal: read from closed dataset %s", d.path)
	}
	if err := d.profile.CheckWindow(win); err != nil {
		return nil, eris.Wrapf(err, "gdal: read %s", d.path)
	}
	buf := make([]float64, win.Size())
	if err := d.band.Read(win.Col, win.Row, buf, win.Width, win.Height); err != nil {
		return nil, eris.Wrapf(err, "gdal: read %s", d.path)
	}
	return buf, nil
}

func (d *dataset) Close() error {
	if d.closed {
		return eris.Errorf("gdal: %s already closed", d.path)
	}
	d.closed = true
	if err := d.ds.Close(); err != nil {
		return eris.Wrapf(err, "gdal: close %s", d.path)
	}
	return nil
}
