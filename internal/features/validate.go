package features

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/oneka/sitewatch/internal/geoerr"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

var (
	sarExts     = []string{".tif", ".tiff"}
	opticalExts = []string{".tif", ".tiff", ".jp2"}
)

// lowerNames returns the lowercased base names of regular files under dir
// whose extension is one of exts.
func lowerNames(dir string, exts []string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		name := strings.ToLower(d.Name())
		for _, e := range exts {
			if strings.HasSuffix(name, e) {
				names = append(names, name)
				break
			}
		}
		return nil
	})
	return names, err
}

func anyContains(names []string, sub string) bool {
	for _, n := range names {
		if strings.Contains(n, sub) {
			return true
		}
	}
	return false
}

func checkMonthDir(month, sensor, dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return geoerr.New(geoerr.KindMonthValidation,
			"features: month %s: missing %s folder %s", month, sensor, dir)
	}
	return nil
}

// validateSAR requires at least one VV and one VH raster anywhere under dir.
func validateSAR(month, dir string) error {
	if err := checkMonthDir(month, "sentinel-1", dir); err != nil {
		return err
	}
	names, err := lowerNames(dir, sarExts)
	if err != nil {
		return geoerr.Wrap(geoerr.KindMonthValidation, err, "features: month %s: list %s", month, dir)
	}
	var missing []string
	for _, pol := range []string{"VV", "VH"} {
		if !anyContains(names, strings.ToLower(pol)) {
			missing = append(missing, pol)
		}
	}
	if len(missing) > 0 {
		return geoerr.New(geoerr.KindMonthValidation,
			"features: month %s: sentinel-1 folder %s is missing required bands: %s",
			month, dir, strings.Join(missing, ", "))
	}
	return nil
}

// validateOptical requires every band code anywhere under dir.
func validateOptical(month, dir string, codes []string) error {
	if err := checkMonthDir(month, "sentinel-2", dir); err != nil {
		return err
	}
	names, err := lowerNames(dir, opticalExts)
	if err != nil {
		return geoerr.Wrap(geoerr.KindMonthValidation, err, "features: month %s: list %s", month, dir)
	}
	var missing []string
	for _, code := range codes {
		if !anyContains(names, strings.ToLower(code)) {
			missing = append(missing, strings.ToUpper(code))
		}
	}
	if len(missing) > 0 {
		return geoerr.New(geoerr.KindMonthValidation,
			"features: month %s: sentinel-2 folder %s is missing required bands: %s",
			month, dir, strings.Join(missing, ", "))
	}
	return nil
}
