package aoi

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// defaultGeoJSONCRS is the RFC 7946 CRS for GeoJSON without a crs member.
const defaultGeoJSONCRS = "EPSG:4326"

type geojsonHeader struct {
	Type string `json:"type"`
	CRS  *struct {
		Type       string `json:"type"`
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	} `json:"crs"`
}

func readGeoJSON(path string) (*geom.MultiPolygon, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", eris.Wrap(err, "geojson: read file")
	}

	var hdr geojsonHeader
	if err := json.Unmarshal(data, &hdr); err != nil {
		return nil, "", eris.Wrap(err, "geojson: decode header")
	}

	crs := defaultGeoJSONCRS
	if hdr.CRS != nil && hdr.CRS.Properties.Name != "" {
		crs = normalizeCRSName(hdr.CRS.Properties.Name)
	}

	var geoms []geom.T
	switch hdr.Type {
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, "", eris.Wrap(err, "geojson: decode feature collection")
		}
		for _, f := range fc.Features {
			if f.Geometry != nil {
				geoms = append(geoms, f.Geometry)
			}
		}
	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, "", eris.Wrap(err, "geojson: decode feature")
		}
		if f.Geometry != nil {
			geoms = append(geoms, f.Geometry)
		}
	default:
		var g geom.T
		if err := geojson.Unmarshal(data, &g); err != nil {
			return nil, "", eris.Wrapf(err, "geojson: decode geometry of type %q", hdr.Type)
		}
		geoms = append(geoms, g)
	}

	mp := geom.NewMultiPolygon(geom.XY)
	var skipped int
	for _, g := range geoms {
		ok, err := appendPolygons(mp, g)
		if err != nil {
			return nil, "", eris.Wrap(err, "geojson: build polygon")
		}
		if !ok {
			skipped++
		}
	}

	if skipped > 0 {
		zap.L().Debug("aoi: skipped non-polygon features", zap.String("path", path), zap.Int("skipped", skipped))
	}

	return mp, crs, nil
}

// normalizeCRSName maps GeoJSON crs names onto "AUTHORITY:CODE" form.
func normalizeCRSName(name string) string {
	n := strings.TrimSpace(name)
	upper := strings.ToUpper(n)
	switch {
	case strings.HasSuffix(upper, "CRS84"):
		return "EPSG:4326"
	case strings.HasPrefix(upper, "URN:OGC:DEF:CRS:"):
		// urn:ogc:def:crs:EPSG::32737 or urn:ogc:def:crs:EPSG:6.6:4326
		parts := strings.Split(n, ":")
		if len(parts) >= 7 {
			return strings.ToUpper(parts[4]) + ":" + parts[len(parts)-1]
		}
	}
	return n
}
