// Package locator finds the band rasters of Sentinel-1 and Sentinel-2
// archives on disk.
package locator

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oneka/sitewatch/internal/geoerr"
)

// Roles of the files a locator resolves.
const (
	RoleVV    = "vv"
	RoleVH    = "vh"
	RoleRed   = "red"
	RoleNIR   = "nir"
	RoleGreen = "green"
	RoleSWIR  = "swir"
)

// Files maps each role to its sorted candidate paths.
type Files struct {
	// Dir is the folder that was searched.
	Dir        string
	Candidates map[string][]string
}

// First returns the canonical (lexicographically first) candidate for role.
func (f Files) First(role string) (string, bool) {
	c := f.Candidates[role]
	if len(c) == 0 {
		return "", false
	}
	return c[0], true
}

// Locator resolves the rasters an extraction needs under an archive root.
type Locator interface {
	FindRequiredFiles(root string) (Files, error)
}

// splitName splits a file name (without extension) into tokens and the
// separators between them.
func splitName(name string) (tokens []string, seps []rune) {
	start := 0
	for i, r := range name {
		if r == '-' || r == '_' || r == '.' {
			tokens = append(tokens, name[start:i])
			seps = append(seps, r)
			start = i + 1
		}
	}
	tokens = append(tokens, name[start:])
	return tokens, seps
}

func joinName(tokens []string, seps []rune) string {
	var b strings.Builder
	for i, t := range tokens {
		b.WriteString(t)
		if i < len(seps) {
			b.WriteRune(seps[i])
		}
	}
	return b.String()
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// hasToken reports whether the file name holds tag as a whole token,
// case-insensitively.
func hasToken(path, tag string) bool {
	tokens, _ := splitName(stem(path))
	for _, t := range tokens {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// matchTag returns the files naming tag. Whole-token matches win; when there
// are none, any file whose lowercased name contains tag is accepted, so
// "s1_20240101vv.tif" still resolves as VV.
func matchTag(files []string, tag string) []string {
	var out []string
	for _, f := range files {
		if hasToken(f, tag) {
			out = append(out, f)
		}
	}
	if len(out) > 0 {
		return out
	}
	lower := strings.ToLower(tag)
	for _, f := range files {
		if strings.Contains(strings.ToLower(filepath.Base(f)), lower) {
			out = append(out, f)
		}
	}
	return out
}

func hasExtension(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// listFiles returns regular files under dir with one of exts, sorted. When
// recursive is false only direct children are considered.
func listFiles(dir string, exts []string, recursive bool) ([]string, error) {
	var out []string
	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.Type().IsRegular() && hasExtension(e.Name(), exts) {
				out = append(out, filepath.Join(dir, e.Name()))
			}
		}
		sort.Strings(out)
		return out, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && hasExtension(path, exts) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// findDir walks root in lexical order and returns the first directory named
// name. match decides name equality.
func findDir(root, name string, match func(a, b string) bool) (string, bool) {
	found := ""
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && match(d.Name(), name) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	return found, found != ""
}

func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return geoerr.Wrap(geoerr.KindArchiveNotFound, err, "locator: archive root %s", root)
	}
	if !info.IsDir() {
		return geoerr.New(geoerr.KindArchiveNotFound, "locator: archive root %s is not a directory", root)
	}
	return nil
}
