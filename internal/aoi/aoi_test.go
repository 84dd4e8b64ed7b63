package aoi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneka/sitewatch/internal/geoerr"
)

const squareCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "site"},
     "geometry": {"type": "Polygon", "coordinates": [[[36.8,-1.3],[36.9,-1.3],[36.9,-1.2],[36.8,-1.2],[36.8,-1.3]]]}}
  ]
}`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_GeoJSONFeatureCollection(t *testing.T) {
	path := writeFile(t, "aoi.geojson", squareCollection)

	a, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "EPSG:4326", a.CRS)
	assert.Equal(t, path, a.Path)
	assert.Equal(t, 1, a.NumPolygons())

	b := a.Bounds()
	assert.InDelta(t, 36.8, b.Min(0), 1e-9)
	assert.InDelta(t, -1.3, b.Min(1), 1e-9)
	assert.InDelta(t, 36.9, b.Max(0), 1e-9)
	assert.InDelta(t, -1.2, b.Max(1), 1e-9)
}

func TestLoad_GeoJSONLegacyCRSMember(t *testing.T) {
	body := `{
  "type": "FeatureCollection",
  "crs": {"type": "name", "properties": {"name": "urn:ogc:def:crs:EPSG::32737"}},
  "features": [
    {"type": "Feature", "properties": {},
     "geometry": {"type": "MultiPolygon", "coordinates": [
       [[[0,0],[10,0],[10,10],[0,10],[0,0]]],
       [[[20,20],[30,20],[30,30],[20,30],[20,20]]]
     ]}}
  ]
}`
	a, err := Load(writeFile(t, "utm.geojson", body))
	require.NoError(t, err)

	assert.Equal(t, "EPSG:32737", a.CRS)
	assert.Equal(t, 2, a.NumPolygons())
}

func TestLoad_GeoJSONBareGeometryDropsZ(t *testing.T) {
	body := `{"type": "Polygon", "coordinates": [[[0,0,5],[1,0,5],[1,1,5],[0,1,5],[0,0,5]]]}`

	a, err := Load(writeFile(t, "bare.json", body))
	require.NoError(t, err)

	require.Equal(t, 1, a.NumPolygons())
	assert.Equal(t, 2, a.Geometry.Polygon(0).Stride())
}

func TestLoad_GeoJSONSingleFeature(t *testing.T) {
	body := `{"type": "Feature", "properties": {},
  "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}}`

	a, err := Load(writeFile(t, "feature.geojson", body))
	require.NoError(t, err)
	assert.Equal(t, 1, a.NumPolygons())
}

func TestLoad_ZeroPolygonFeatures(t *testing.T) {
	body := `{"type": "FeatureCollection", "features": [
  {"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [1, 2]}}
]}`

	_, err := Load(writeFile(t, "points.geojson", body))
	require.Error(t, err)
	assert.True(t, geoerr.Is(err, geoerr.KindAOIRead))
	assert.Contains(t, err.Error(), "no polygon features")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.geojson"))
	require.Error(t, err)
	assert.True(t, geoerr.Is(err, geoerr.KindAOIRead))
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeFile(t, "broken.geojson", `{"type": "FeatureCollection", "features": [`))
	require.Error(t, err)
	assert.True(t, geoerr.Is(err, geoerr.KindAOIRead))
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load(writeFile(t, "aoi.kml", "<kml/>"))
	require.Error(t, err)
	assert.True(t, geoerr.Is(err, geoerr.KindAOIRead))
	assert.Contains(t, err.Error(), "unsupported file type")
}

func writeShapefile(t *testing.T, dir string, rings ...[]shp.Point) string {
	t.Helper()
	path := filepath.Join(dir, "aoi.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("NAME", 25)}))

	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{rings[0]}))
	if len(rings) > 1 {
		poly = shp.Polygon(*shp.NewPolyLine(rings))
	}
	n := w.Write(&poly)
	require.NoError(t, w.WriteAttribute(int(n), 0, "site"))
	w.Close()
	return path
}

func TestLoad_ShapefileWithPrj(t *testing.T) {
	dir := t.TempDir()
	path := writeShapefile(t, dir,
		[]shp.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}},
		[]shp.Point{{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 4}, {X: 2, Y: 4}, {X: 2, Y: 2}},
	)
	wkt := `PROJCS["WGS_1984_UTM_Zone_37S",GEOGCS["GCS_WGS_1984"]]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aoi.prj"), []byte(wkt+"\n"), 0o644))

	a, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, wkt, a.CRS)
	require.Equal(t, 1, a.NumPolygons())
	assert.Equal(t, 2, a.Geometry.Polygon(0).NumLinearRings())
}

func TestLoad_ShapefileWithoutPrjHasNoCRS(t *testing.T) {
	path := writeShapefile(t, t.TempDir(),
		[]shp.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}},
	)

	a, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, a.CRS)
	assert.Equal(t, 1, a.NumPolygons())
}

func TestNormalizeCRSName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"EPSG:4326", "EPSG:4326"},
		{"urn:ogc:def:crs:OGC:1.3:CRS84", "EPSG:4326"},
		{"urn:ogc:def:crs:EPSG::32737", "EPSG:32737"},
		{"urn:ogc:def:crs:EPSG:6.6:3857", "EPSG:3857"},
		{" EPSG:3857 ", "EPSG:3857"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeCRSName(tt.in))
		})
	}
}

func TestWithGeometry_KeepsPath(t *testing.T) {
	a, err := Load(writeFile(t, "aoi.geojson", squareCollection))
	require.NoError(t, err)

	b := a.WithGeometry(a.Geometry, "EPSG:3857")
	assert.Equal(t, a.Path, b.Path)
	assert.Equal(t, "EPSG:3857", b.CRS)
	assert.Equal(t, "EPSG:4326", a.CRS)
}
