package crs

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/wroge/wgs84"
)

// utmFE is the UTM false easting.
const utmFE = 500000.0

// Builtin is a Projector backed by github.com/wroge/wgs84, covering WGS84
// geographic (EPSG:4326, CRS84), Web Mercator (EPSG:3857) and WGS84 UTM zones
// (EPSG:32601-32660, EPSG:32701-32760). It needs no GDAL install.
type Builtin struct{}

// Same reports whether a and b resolve to the same supported EPSG code, or are
// textually identical.
func (Builtin) Same(a, b string) bool {
	ca, okA := epsgCode(a)
	cb, okB := epsgCode(b)
	if okA && okB {
		return ca == cb
	}
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

// Transform converts coordinates in place. Geographic coordinates are
// longitude/latitude in degrees.
func (Builtin) Transform(from, to string, xs, ys []float64) error {
	if len(xs) != len(ys) {
		return eris.Errorf("crs: coordinate length mismatch %d vs %d", len(xs), len(ys))
	}
	src, srcSys, ok := system(from)
	if !ok {
		return eris.Wrapf(errUnsupported, "crs: source %s", Label(from))
	}
	dst, dstSys, ok := system(to)
	if !ok {
		return eris.Wrapf(errUnsupported, "crs: target %s", Label(to))
	}
	if src == dst {
		return nil
	}

	t := wgs84.Transform(srcSys, dstSys)
	for i := range xs {
		if src == 4326 && (ys[i] < -90 || ys[i] > 90 || math.IsNaN(ys[i]) || math.IsNaN(xs[i])) {
			return eris.Errorf("crs: latitude %v out of range", ys[i])
		}
		x, y, _ := t(xs[i], ys[i], 0)
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			return eris.Errorf("crs: (%v, %v) has no image in %s", xs[i], ys[i], Label(to))
		}
		xs[i], ys[i] = x, y
	}
	return nil
}

// system maps a CRS string onto the wgs84 reference system for its EPSG code.
func system(s string) (code int, sys wgs84.CoordinateReferenceSystem, ok bool) {
	code, ok = epsgCode(s)
	if !ok {
		return 0, sys, false
	}
	switch {
	case code == 4326:
		return code, wgs84.LonLat(), true
	case code == 3857:
		return code, wgs84.WebMercator(), true
	case code >= 32601 && code <= 32660:
		return code, wgs84.UTM(float64(code-32600), true), true
	case code >= 32701 && code <= 32760:
		return code, wgs84.UTM(float64(code-32700), false), true
	}
	return 0, sys, false
}

var (
	epsgRE      = regexp.MustCompile(`(?i)^\s*EPSG\s*:\s*(\d+)\s*$`)
	authorityRE = regexp.MustCompile(`(?i)(?:AUTHORITY|ID)\[\s*"EPSG"\s*,\s*"?(\d+)"?\s*\]\s*\]\s*$`)
	utmNameRE   = regexp.MustCompile(`(?i)WGS[ _]?(?:19)?84[ _/]+UTM[ _]zone[ _](\d{1,2})([NS])`)
	geogNameRE  = regexp.MustCompile(`(?i)^\s*GEOG(?:CS|CRS)\[\s*"(?:GCS_)?WGS[ _]?(?:19)?84"`)
	mercNameRE  = regexp.MustCompile(`(?i)Pseudo[ _-]Mercator|Popular[ _]Visualisation|WGS_1984_Web_Mercator`)
)

// epsgCode extracts an EPSG code from "EPSG:n", OGC URNs, CRS84 or WKT.
func epsgCode(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	upper := strings.ToUpper(s)
	if strings.HasSuffix(upper, "CRS84") {
		return 4326, true
	}
	if m := epsgRE.FindStringSubmatch(s); m != nil {
		code, err := strconv.Atoi(m[1])
		return code, err == nil
	}
	if strings.HasPrefix(upper, "URN:OGC:DEF:CRS:EPSG:") {
		parts := strings.Split(s, ":")
		code, err := strconv.Atoi(parts[len(parts)-1])
		return code, err == nil
	}
	// WKT1 and WKT2 put the top-level authority last.
	if m := authorityRE.FindStringSubmatch(s); m != nil {
		code, err := strconv.Atoi(m[1])
		return code, err == nil
	}
	if m := utmNameRE.FindStringSubmatch(s); m != nil {
		zone, err := strconv.Atoi(m[1])
		if err != nil || zone < 1 || zone > 60 {
			return 0, false
		}
		if strings.EqualFold(m[2], "S") {
			return 32700 + zone, true
		}
		return 32600 + zone, true
	}
	if mercNameRE.MatchString(s) {
		return 3857, true
	}
	if geogNameRE.MatchString(s) {
		return 4326, true
	}
	return 0, false
}
