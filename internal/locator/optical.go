package locator

import (
	"strings"

	"go.uber.org/zap"

	"github.com/oneka/sitewatch/internal/config"
	"github.com/oneka/sitewatch/internal/geoerr"
)

// Optical locates the red, NIR, green and SWIR band rasters of a Sentinel-2
// product.
type Optical struct {
	ImageDir   string
	Extensions []string
	// Bands maps a role to its band code, e.g. RoleNIR to "B08".
	Bands map[string]string
}

// NewOptical builds an Optical locator from configuration.
func NewOptical(cfg config.OpticalConfig) *Optical {
	l := &Optical{
		ImageDir:   cfg.ImageDir,
		Extensions: cfg.Extensions,
		Bands: map[string]string{
			RoleRed:   orDefault(cfg.Red, "B04"),
			RoleNIR:   orDefault(cfg.NIR, "B08"),
			RoleGreen: orDefault(cfg.Green, "B03"),
			RoleSWIR:  orDefault(cfg.SWIR, "B11"),
		},
	}
	if l.ImageDir == "" {
		l.ImageDir = "IMG_DATA"
	}
	if len(l.Extensions) == 0 {
		l.Extensions = []string{".jp2", ".tif", ".tiff"}
	}
	return l
}

// BandRoles lists the optical roles in extraction order.
var BandRoles = []string{RoleNIR, RoleRed, RoleGreen, RoleSWIR}

// FindRequiredFiles implements Locator. Each role maps to every matching
// file; the first is canonical.
func (l *Optical) FindRequiredFiles(root string) (Files, error) {
	if err := checkRoot(root); err != nil {
		return Files{}, err
	}
	dir, ok := findDir(root, l.ImageDir, strings.EqualFold)
	if !ok {
		dir = root
	}

	files, err := listFiles(dir, l.Extensions, true)
	if err != nil {
		return Files{}, geoerr.Wrap(geoerr.KindArchiveNotFound, err, "locator: list %s", dir)
	}

	out := Files{Dir: dir, Candidates: map[string][]string{}}
	for _, role := range BandRoles {
		code := l.Bands[role]
		matches := matchTag(files, code)
		if len(matches) == 0 {
			return Files{}, geoerr.New(geoerr.KindBandNotFound,
				"locator: band %s not found in %s", code, dir)
		}
		out.Candidates[role] = matches
	}

	zap.L().Debug("locator: optical files",
		zap.String("dir", dir),
		zap.Any("bands", out.Candidates),
	)
	return out, nil
}

// Code returns the band code configured for role.
func (l *Optical) Code(role string) string {
	return l.Bands[role]
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
