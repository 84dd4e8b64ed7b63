// Package scene clips single-month Sentinel-1 and Sentinel-2 rasters to an AOI
// and stores them as Cloud Optimized GeoTIFFs.
package scene

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oneka/sitewatch/internal/aoi"
	"github.com/oneka/sitewatch/internal/raster"
)

// Clipper clips one raster to an AOI on the raster's own grid.
type Clipper interface {
	ClipRaster(path string, area *aoi.AOI) (*raster.Masked, []string, error)
}

// Writer stores a clipped raster.
type Writer interface {
	Write(path string, m *raster.Masked) error
}

// Band names one input raster of a month.
type Band struct {
	Name string
	Path string
}

// Output describes one written file.
type Output struct {
	Name     string   `json:"name" yaml:"name"`
	Source   string   `json:"source" yaml:"source"`
	Path     string   `json:"path" yaml:"path"`
	Width    int      `json:"width" yaml:"width"`
	Height   int      `json:"height" yaml:"height"`
	Valid    int      `json:"valid_pixels" yaml:"valid_pixels"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Processor clips month rasters and writes them under an output directory.
type Processor struct {
	clipper     Clipper
	writer      Writer
	concurrency int
}

// NewProcessor creates a Processor. concurrency bounds parallel band clipping
// in ProcessOptical; values below 1 mean one band at a time.
func NewProcessor(c Clipper, w Writer, concurrency int) *Processor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Processor{clipper: c, writer: w, concurrency: concurrency}
}

// ProcessSAR clips the VV and VH rasters of one month to vv.tif and vh.tif.
func (p *Processor) ProcessSAR(ctx context.Context, vvPath, vhPath, outDir string, area *aoi.AOI) ([]Output, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "scene: create output dir %s", outDir)
	}
	var outs []Output
	for _, b := range []Band{{Name: "vv", Path: vvPath}, {Name: "vh", Path: vhPath}} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		o, err := p.process(b, outDir, area)
		if err != nil {
			return nil, err
		}
		outs = append(outs, o)
	}
	return outs, nil
}

// ProcessOptical clips each band to <outDir>/<name>.tif. Bands are processed
// concurrently; outputs keep the order of bands.
func (p *Processor) ProcessOptical(ctx context.Context, bands []Band, outDir string, area *aoi.AOI) ([]Output, error) {
	if len(bands) == 0 {
		return nil, eris.New("scene: at least one band is required")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "scene: create output dir %s", outDir)
	}

	outs := make([]Output, len(bands))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, b := range bands {
		i, b := i, b
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o, err := p.process(b, outDir, area)
			if err != nil {
				return err
			}
			outs[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outs, nil
}

func (p *Processor) process(b Band, outDir string, area *aoi.AOI) (Output, error) {
	m, warnings, err := p.clipper.ClipRaster(b.Path, area)
	if err != nil {
		return Output{}, err
	}
	for _, w := range warnings {
		zap.L().Warn("scene: crs fallback", zap.String("band", b.Name), zap.String("warning", w))
	}

	dst := filepath.Join(outDir, b.Name+".tif")
	if err := p.writer.Write(dst, m); err != nil {
		return Output{}, eris.Wrapf(err, "scene: write %s", b.Name)
	}

	o := Output{
		Name:     b.Name,
		Source:   b.Path,
		Path:     dst,
		Width:    m.Profile.Width,
		Height:   m.Profile.Height,
		Valid:    m.CountValid(),
		Warnings: warnings,
	}
	zap.L().Info("scene: wrote clipped raster",
		zap.String("band", o.Name),
		zap.String("path", o.Path),
		zap.Int("valid_pixels", o.Valid),
	)
	return o, nil
}

// ParseBands parses repeated NAME=PATH arguments.
func ParseBands(items []string) ([]Band, error) {
	seen := make(map[string]bool, len(items))
	bands := make([]Band, 0, len(items))
	for _, item := range items {
		name, path, ok := strings.Cut(item, "=")
		if !ok {
			return nil, eris.Errorf("scene: invalid band %q, expected BAND_NAME=PATH", item)
		}
		name, path = strings.TrimSpace(name), strings.TrimSpace(path)
		if name == "" || path == "" {
			return nil, eris.Errorf("scene: invalid band %q, BAND_NAME and PATH are required", item)
		}
		if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return nil, eris.Errorf("scene: invalid band name %q", name)
		}
		if seen[name] {
			return nil, eris.Errorf("scene: band %s given more than once", name)
		}
		seen[name] = true
		bands = append(bands, Band{Name: name, Path: path})
	}
	if len(bands) == 0 {
		return nil, eris.New("scene: at least one --band BAND_NAME=PATH is required")
	}
	return bands, nil
}
