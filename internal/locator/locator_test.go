package locator

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneka/sitewatch/internal/config"
	"github.com/oneka/sitewatch/internal/geoerr"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		p := filepath.Join(root, filepath.FromSlash(r))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
}

func createTestZIP(t *testing.T, files map[string]string) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "S1A_IW_GRDH.SAFE.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return zipPath
}

// ---------------------------------------------------------------------------
// SAR
// ---------------------------------------------------------------------------

const (
	vv1 = "s1a-iw-grd-vv-20250726t033115-20250726t033140-060268-077d1a-001.tiff"
	vh1 = "s1a-iw-grd-vh-20250726t033115-20250726t033140-060268-077d1a-002.tiff"
	vv2 = "s1a-iw-grd-vv-20250726t033140-20250726t033205-060268-077d1a-001.tiff"
	vh2 = "s1a-iw-grd-vh-20250726t033140-20250726t033205-060268-077d1a-002.tiff"
)

func TestSAR_DirectMeasurementFolder(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "measurement/"+vv2, "measurement/"+vv1, "measurement/"+vh1, "measurement/"+vh2,
		"measurement/notes.txt", "annotation/s1a-iw-grd-vv-001.xml")

	files, err := NewSAR(config.SARConfig{}).FindRequiredFiles(root)
	require.NoError(t, err)

	dir := filepath.Join(root, "measurement")
	assert.Equal(t, dir, files.Dir)
	assert.Equal(t, []string{filepath.Join(dir, vv1), filepath.Join(dir, vv2)}, files.Candidates[RoleVV])
	first, ok := files.First(RoleVH)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, vh1), first)
}

func TestSAR_NestedSAFE(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "b/S1A.SAFE/measurement/"+vv1, "b/S1A.SAFE/measurement/"+vh1,
		"c/S1B.SAFE/measurement/"+vv2, "c/S1B.SAFE/measurement/"+vh2)

	files, err := NewSAR(config.SARConfig{}).FindRequiredFiles(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "b", "S1A.SAFE", "measurement"), files.Dir)
}

func TestSAR_FlatMonthFolder(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "vv.tif", "VH.TIF")

	files, err := NewSAR(config.SARConfig{}).FindRequiredFiles(root)
	require.NoError(t, err)
	assert.Equal(t, root, files.Dir)
	assert.Equal(t, []string{filepath.Join(root, "vv.tif")}, files.Candidates[RoleVV])
	assert.Equal(t, []string{filepath.Join(root, "VH.TIF")}, files.Candidates[RoleVH])
}

func TestSAR_SuffixedPolarizationNames(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "s1_20240101vv.tif", "s1_20240101vh.tif")

	files, err := NewSAR(config.SARConfig{}).FindRequiredFiles(root)
	require.NoError(t, err)
	assert.Equal(t, root, files.Dir)
	assert.Equal(t, []string{filepath.Join(root, "s1_20240101vv.tif")}, files.Candidates[RoleVV])
	assert.Equal(t, []string{filepath.Join(root, "s1_20240101vh.tif")}, files.Candidates[RoleVH])
}

func TestMatchTag_PrefersWholeTokens(t *testing.T) {
	files := []string{"/m/a_vv.tif", "/m/bvv.tif", "/m/c_vh.tif"}
	assert.Equal(t, []string{"/m/a_vv.tif"}, matchTag(files, "vv"))
	assert.Equal(t, []string{"/m/bvv.tif"}, matchTag([]string{"/m/bvv.tif", "/m/c_vh.tif"}, "VV"))
	assert.Empty(t, matchTag(files, "hh"))
}

func TestSAR_Errors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		_, err := NewSAR(config.SARConfig{}).FindRequiredFiles(filepath.Join(t.TempDir(), "nope"))
		assert.True(t, geoerr.Is(err, geoerr.KindArchiveNotFound))
	})

	t.Run("no measurement folder", func(t *testing.T) {
		root := t.TempDir()
		touch(t, root, "annotation/a.xml")
		_, err := NewSAR(config.SARConfig{}).FindRequiredFiles(root)
		require.Error(t, err)
		assert.True(t, geoerr.Is(err, geoerr.KindArchiveNotFound))
		assert.Contains(t, err.Error(), root)
	})

	t.Run("missing vh", func(t *testing.T) {
		root := t.TempDir()
		touch(t, root, "measurement/"+vv1)
		_, err := NewSAR(config.SARConfig{}).FindRequiredFiles(root)
		require.Error(t, err)
		assert.True(t, geoerr.Is(err, geoerr.KindBandNotFound))
		assert.Contains(t, err.Error(), "VH")
		assert.Contains(t, err.Error(), filepath.Join(root, "measurement"))
	})
}

func TestMatchVH(t *testing.T) {
	cands := []string{"/m/s1a-iw-grd-vh-2.tiff", "/m/s1a-iw-grd-vh-1.tiff"}
	assert.Equal(t, "/m/s1a-iw-grd-vh-1.tiff", MatchVH("/m/s1a-iw-grd-vv-1.tiff", cands))

	// No exact counterpart: first candidate.
	assert.Equal(t, "/m/s1a-iw-grd-vh-2.tiff", MatchVH("/m/"+vv1, cands))
	assert.Equal(t, "", MatchVH("/m/"+vv1, nil))

	assert.Equal(t, "/m/VH.TIF", MatchVH("/m/VV.TIF", []string{"/m/a-vh.tif", "/m/VH.TIF"}))

	// Polarization glued to the date.
	assert.Equal(t, "/m/s1_20240102vh.tif",
		MatchVH("/m/s1_20240102vv.tif", []string{"/m/s1_20240101vh.tif", "/m/s1_20240102vh.tif"}))
}

func TestSwapToken(t *testing.T) {
	assert.Equal(t, "s1a-iw-grd-vh-001.tiff", swapToken("s1a-iw-grd-vv-001.tiff", "vv", "vh"))
	assert.Equal(t, "S1A_IW_VH_001.TIFF", swapToken("S1A_IW_VV_001.TIFF", "vv", "vh"))
	assert.Equal(t, "vvx-vh.tif", swapToken("vvx-vv.tif", "vv", "vh"))
}

// ---------------------------------------------------------------------------
// Optical
// ---------------------------------------------------------------------------

func TestOptical_L2AResolutionFolders(t *testing.T) {
	root := t.TempDir()
	img := "S2A_MSIL2A.SAFE/GRANULE/L2A_T37MBU/IMG_DATA"
	touch(t, root,
		img+"/R10m/T37MBU_20250726T073641_B04_10m.jp2",
		img+"/R10m/T37MBU_20250726T073641_B08_10m.jp2",
		img+"/R10m/T37MBU_20250726T073641_B03_10m.jp2",
		img+"/R20m/T37MBU_20250726T073641_B04_20m.jp2",
		img+"/R20m/T37MBU_20250726T073641_B11_20m.jp2",
		img+"/R20m/T37MBU_20250726T073641_B8A_20m.jp2",
		img+"/R60m/T37MBU_20250726T073641_B11_60m.jp2",
	)

	files, err := NewOptical(config.OpticalConfig{}).FindRequiredFiles(root)
	require.NoError(t, err)

	base := filepath.Join(root, filepath.FromSlash(img))
	assert.Equal(t, base, files.Dir)
	red, _ := files.First(RoleRed)
	assert.Equal(t, filepath.Join(base, "R10m", "T37MBU_20250726T073641_B04_10m.jp2"), red)
	nir, _ := files.First(RoleNIR)
	assert.Equal(t, filepath.Join(base, "R10m", "T37MBU_20250726T073641_B08_10m.jp2"), nir)
	swir, _ := files.First(RoleSWIR)
	assert.Equal(t, filepath.Join(base, "R20m", "T37MBU_20250726T073641_B11_20m.jp2"), swir)
	assert.Len(t, files.Candidates[RoleSWIR], 2)
}

func TestOptical_CaseInsensitiveImageDir(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "x/img_data/B04.tif", "x/img_data/B08.tif", "x/img_data/B03.tif", "x/img_data/B11.tif")

	files, err := NewOptical(config.OpticalConfig{}).FindRequiredFiles(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "x", "img_data"), files.Dir)
}

func TestOptical_FlatMonthFolder(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "B04.tif", "B08.tif", "B03.tif", "B11.tif")

	files, err := NewOptical(config.OpticalConfig{}).FindRequiredFiles(root)
	require.NoError(t, err)
	assert.Equal(t, root, files.Dir)
	nir, _ := files.First(RoleNIR)
	assert.Equal(t, filepath.Join(root, "B08.tif"), nir)
}

func TestOptical_MissingBand(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "IMG_DATA/T_B04.jp2", "IMG_DATA/T_B08.jp2", "IMG_DATA/T_B03.jp2")

	_, err := NewOptical(config.OpticalConfig{}).FindRequiredFiles(root)
	require.Error(t, err)
	assert.True(t, geoerr.Is(err, geoerr.KindBandNotFound))
	assert.Contains(t, err.Error(), "B11")
	assert.Contains(t, err.Error(), filepath.Join(root, "IMG_DATA"))
}

func TestOptical_SuffixedBandCodes(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "s2_20240101B04.tif", "s2_20240101B08.tif", "s2_20240101B03.tif", "s2_20240101B11.tif")

	files, err := NewOptical(config.OpticalConfig{}).FindRequiredFiles(root)
	require.NoError(t, err)
	nir, _ := files.First(RoleNIR)
	assert.Equal(t, filepath.Join(root, "s2_20240101B08.tif"), nir)
}

func TestOptical_CustomCodes(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "B04.tif", "B8A.tif", "B03.tif", "B12.tif")

	l := NewOptical(config.OpticalConfig{NIR: "B8A", SWIR: "B12"})
	files, err := l.FindRequiredFiles(root)
	require.NoError(t, err)
	assert.Equal(t, "B8A", l.Code(RoleNIR))
	swir, _ := files.First(RoleSWIR)
	assert.Equal(t, filepath.Join(root, "B12.tif"), swir)
}

// ---------------------------------------------------------------------------
// Archives
// ---------------------------------------------------------------------------

func TestUnpack_Directory(t *testing.T) {
	root := t.TempDir()
	dir, cleanup, err := Unpack(root, t.TempDir())
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, root, dir)
}

func TestUnpack_ZippedSAFE(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{
		"S1A.SAFE/measurement/" + vv1: "vv",
		"S1A.SAFE/measurement/" + vh1: "vh",
	})
	scratch := t.TempDir()

	dir, cleanup, err := Unpack(zipPath, scratch)
	require.NoError(t, err)

	files, err := NewSAR(config.SARConfig{}).FindRequiredFiles(dir)
	require.NoError(t, err)
	vv, _ := files.First(RoleVV)
	data, err := os.ReadFile(vv)
	require.NoError(t, err)
	assert.Equal(t, "vv", string(data))

	cleanup()
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestUnpack_SkipsNonRasterMembers(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{
		"S1A.SAFE/manifest.safe":                    "<xfdu/>",
		"S1A.SAFE/annotation/s1a-iw-grd-vv-001.xml": "<product/>",
		"S1A.SAFE/measurement/" + vv1:               "vv",
		"S1A.SAFE/measurement/" + vh1:               "vh",
		"S1A.SAFE/preview/quick-look.png":           "png",
		"S1A.SAFE/preview/product-preview.html":     "<html/>",
		"S1A.SAFE/support/s1-level-1-product.xsd":   "<xsd/>",
	})

	dir, cleanup, err := Unpack(zipPath, t.TempDir())
	require.NoError(t, err)
	defer cleanup()

	assert.FileExists(t, filepath.Join(dir, "S1A.SAFE", "manifest.safe"))
	assert.FileExists(t, filepath.Join(dir, "S1A.SAFE", "annotation", "s1a-iw-grd-vv-001.xml"))
	assert.FileExists(t, filepath.Join(dir, "S1A.SAFE", "measurement", vh1))
	assert.NoFileExists(t, filepath.Join(dir, "S1A.SAFE", "preview", "quick-look.png"))
	assert.NoDirExists(t, filepath.Join(dir, "S1A.SAFE", "preview"))
	assert.NoDirExists(t, filepath.Join(dir, "S1A.SAFE", "support"))
}

func TestUnpack_ZipSlipInSkippedMember(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{"../notes.txt": "x"})
	_, _, err := Unpack(zipPath, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip slip")
}

func TestUnpack_ZipSlip(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{"../../evil.tiff": "x"})
	_, _, err := Unpack(zipPath, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip slip")
}

func TestUnpack_MissingArchive(t *testing.T) {
	_, _, err := Unpack(filepath.Join(t.TempDir(), "gone.zip"), t.TempDir())
	assert.True(t, geoerr.Is(err, geoerr.KindArchiveNotFound))
}
