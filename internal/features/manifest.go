package features

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the optional per-project manifest name.
const ManifestFile = "project.yaml"

// Manifest holds per-project overrides read from project.yaml:
//
//	project:
//	  name: talanta
//	  aoi: aoi/site.geojson
type Manifest struct {
	// Name labels the rows of the feature table. Defaults to the base name
	// of the project root.
	Name string `yaml:"name"`
	// AOI is an AOI path, relative to the project root unless absolute.
	AOI        string `yaml:"aoi"`
	SARDir     string `yaml:"sar_dir"`
	OpticalDir string `yaml:"optical_dir"`
}

// LoadManifest reads root/project.yaml. A missing manifest yields an empty
// Manifest.
func LoadManifest(root string) (*Manifest, error) {
	path := filepath.Join(root, ManifestFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "features: read manifest %s", path)
	}

	var wrapper struct {
		Project Manifest `yaml:"project"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrapf(err, "features: parse manifest %s", path)
	}
	return &wrapper.Project, nil
}

// resolve returns p relative to root unless it is absolute or empty.
func resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
