package locator

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/oneka/sitewatch/internal/config"
	"github.com/oneka/sitewatch/internal/geoerr"
)

// SAR locates VV and VH measurement rasters of a Sentinel-1 product.
type SAR struct {
	MeasurementDir string
	Extensions     []string
}

// NewSAR builds a SAR locator from configuration.
func NewSAR(cfg config.SARConfig) *SAR {
	l := &SAR{MeasurementDir: cfg.MeasurementDir, Extensions: cfg.Extensions}
	if l.MeasurementDir == "" {
		l.MeasurementDir = "measurement"
	}
	if len(l.Extensions) == 0 {
		l.Extensions = []string{".tiff", ".tif"}
	}
	return l
}

// FindRequiredFiles implements Locator. Candidates are stored under RoleVV
// and RoleVH.
func (l *SAR) FindRequiredFiles(root string) (Files, error) {
	if err := checkRoot(root); err != nil {
		return Files{}, err
	}
	dir, err := l.measurementDir(root)
	if err != nil {
		return Files{}, err
	}

	files, err := listFiles(dir, l.Extensions, false)
	if err != nil {
		return Files{}, geoerr.Wrap(geoerr.KindArchiveNotFound, err, "locator: list %s", dir)
	}

	out := Files{Dir: dir, Candidates: map[string][]string{}}
	for _, pol := range []string{RoleVV, RoleVH} {
		matches := matchTag(files, pol)
		if len(matches) == 0 {
			return Files{}, geoerr.New(geoerr.KindBandNotFound,
				"locator: could not find %s raster in %s", strings.ToUpper(pol), dir)
		}
		out.Candidates[pol] = matches
	}

	zap.L().Debug("locator: sar files",
		zap.String("dir", dir),
		zap.Strings("vv", out.Candidates[RoleVV]),
		zap.Strings("vh", out.Candidates[RoleVH]),
	)
	return out, nil
}

// measurementDir resolves the folder holding polarization rasters: a direct
// measurement child, the first one found walking root, or root itself when it
// already holds polarization files.
func (l *SAR) measurementDir(root string) (string, error) {
	direct := filepath.Join(root, l.MeasurementDir)
	if info, err := os.Stat(direct); err == nil && info.IsDir() {
		return direct, nil
	}
	if dir, ok := findDir(root, l.MeasurementDir, func(a, b string) bool { return a == b }); ok {
		return dir, nil
	}

	files, err := listFiles(root, l.Extensions, false)
	if err == nil && (len(matchTag(files, RoleVV)) > 0 || len(matchTag(files, RoleVH)) > 0) {
		return root, nil
	}
	return "", geoerr.New(geoerr.KindArchiveNotFound,
		"locator: could not find a Sentinel-1 %q folder under %s", l.MeasurementDir, root)
}

// MatchVH picks the VH raster paired with vv: the candidate whose name equals
// vv's with the vv token swapped for vh, then one equal to vv's lowercased
// name with "vv" replaced by "vh", or the first candidate otherwise.
func MatchVH(vv string, vhCandidates []string) string {
	if len(vhCandidates) == 0 {
		return ""
	}
	want := swapToken(filepath.Base(vv), RoleVV, RoleVH)
	for _, c := range vhCandidates {
		if filepath.Base(c) == want {
			return c
		}
	}
	loose := strings.ReplaceAll(strings.ToLower(filepath.Base(vv)), RoleVV, RoleVH)
	for _, c := range vhCandidates {
		if strings.ToLower(filepath.Base(c)) == loose {
			return c
		}
	}
	return vhCandidates[0]
}

// swapToken replaces whole-token occurrences of from with to in a file name,
// keeping the case of each replaced token and the extension.
func swapToken(name, from, to string) string {
	ext := filepath.Ext(name)
	tokens, seps := splitName(strings.TrimSuffix(name, ext))
	for i, t := range tokens {
		if !strings.EqualFold(t, from) {
			continue
		}
		repl := []rune(to)
		for j, r := range []rune(t) {
			if j < len(repl) && r >= 'A' && r <= 'Z' {
				repl[j] = []rune(strings.ToUpper(string(repl[j])))[0]
			}
		}
		tokens[i] = string(repl)
	}
	return joinName(tokens, seps) + ext
}
