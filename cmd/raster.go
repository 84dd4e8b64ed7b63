package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/oneka/sitewatch/internal/config"
	"github.com/oneka/sitewatch/internal/crs"
	"github.com/oneka/sitewatch/internal/extract"
	"github.com/oneka/sitewatch/internal/raster/gdal"
)

// newProjector returns the coordinate transformer selected by
// raster.projector.
func newProjector(c *config.Config) (crs.Projector, error) {
	switch c.Raster.Projector {
	case "gdal":
		return gdal.NewProjector(), nil
	case "builtin":
		return crs.Builtin{}, nil
	default:
		return nil, eris.Errorf("unknown raster.projector %q", c.Raster.Projector)
	}
}

// newExtractor wires the GDAL opener and the configured projector.
func newExtractor(c *config.Config) (*extract.Extractor, error) {
	p, err := newProjector(c)
	if err != nil {
		return nil, err
	}
	return extract.NewFromConfig(c, gdal.NewOpener(), p), nil
}

// printResult writes v to w as indented JSON or YAML.
func printResult(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	default:
		return eris.Errorf("unknown output format %q (want json or yaml)", format)
	}
}
