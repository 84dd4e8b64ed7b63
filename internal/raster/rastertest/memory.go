// Package rastertest provides in-memory rasters for tests of code that reads
// through raster.Opener.
package rastertest

import (
	"sync"

	"github.com/rotisserie/eris"

	"github.com/oneka/sitewatch/internal/raster"
)

// Memory is an in-memory single-band raster.
type Memory struct {
	Name   string
	Grid   raster.Profile
	Values []float64
	Points []raster.GCP
	// PointsCRS is the CRS of Points.
	PointsCRS string
}

// NewMemory builds a Memory raster with the given grid. Values are row-major.
func NewMemory(name string, p raster.Profile, values []float64) *Memory {
	if p.Bands == 0 {
		p.Bands = 1
	}
	return &Memory{Name: name, Grid: p, Values: values}
}

// MemoryOpener serves Memory rasters by path and tracks open handles.
type MemoryOpener struct {
	mu    sync.Mutex
	files map[string]*Memory
	open  int
	opens int
}

// NewMemoryOpener returns an empty opener.
func NewMemoryOpener() *MemoryOpener {
	return &MemoryOpener{files: make(map[string]*Memory)}
}

// Add registers m under path.
func (o *MemoryOpener) Add(path string, m *Memory) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if m.Name == "" {
		m.Name = path
	}
	o.files[path] = m
}

// Open implements raster.Opener.
func (o *MemoryOpener) Open(path string) (raster.Dataset, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	m, ok := o.files[path]
	if !ok {
		return nil, eris.Errorf("rastertest: no in-memory dataset at %s", path)
	}
	if len(m.Values) != m.Grid.Width*m.Grid.Height {
		return nil, eris.Errorf("rastertest: %s has %d values for a %dx%d grid",
			path, len(m.Values), m.Grid.Width, m.Grid.Height)
	}
	o.open++
	o.opens++
	return &memHandle{m: m, path: path, owner: o}, nil
}

// Outstanding returns the number of handles opened but not yet closed.
func (o *MemoryOpener) Outstanding() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open
}

// Opens returns the total number of successful opens.
func (o *MemoryOpener) Opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

type memHandle struct {
	m      *Memory
	path   string
	owner  *MemoryOpener
	closed bool
}

func (h *memHandle) Path() string { return h.path }

func (h *memHandle) Profile() raster.Profile { return h.m.Grid }

func (h *memHandle) GCPs() ([]raster.GCP, string) {
	return append([]raster.GCP(nil), h.m.Points...), h.m.PointsCRS
}

func (h *memHandle) Read(win raster.Window) ([]float64, error) {
	if h.closed {
		return nil, eris.Errorf("rastertest: read from closed dataset %s", h.path)
	}
	p := h.m.Grid
	if err := p.CheckWindow(win); err != nil {
		return nil, eris.Wrapf(err, "rastertest: read %s", h.path)
	}
	out := make([]float64, 0, win.Size())
	for r := win.Row; r < win.Row+win.Height; r++ {
		start := r*p.Width + win.Col
		out = append(out, h.m.Values[start:start+win.Width]...)
	}
	return out, nil
}

func (h *memHandle) Close() error {
	if h.closed {
		return eris.Errorf("rastertest: %s already closed", h.path)
	}
	h.closed = true
	h.owner.mu.Lock()
	h.owner.open--
	h.owner.mu.Unlock()
	return nil
}
