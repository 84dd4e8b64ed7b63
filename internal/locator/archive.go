package locator

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/oneka/sitewatch/internal/geoerr"
)

// Unpack returns a directory to search for root. Zipped SAFE archives are
// extracted into a fresh directory under scratch; cleanup removes it. For
// plain directories cleanup is a no-op.
func Unpack(root, scratch string) (dir string, cleanup func(), err error) {
	noop := func() {}
	if !strings.EqualFold(filepath.Ext(root), ".zip") {
		return root, noop, nil
	}
	if _, err := os.Stat(root); err != nil {
		return "", noop, geoerr.Wrap(geoerr.KindArchiveNotFound, err, "locator: archive %s", root)
	}

	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return "", noop, eris.Wrap(err, "zip: create scratch directory")
	}
	dest, err := os.MkdirTemp(scratch, "safe-*")
	if err != nil {
		return "", noop, eris.Wrap(err, "zip: create extraction directory")
	}
	cleanup = func() {
		if err := os.RemoveAll(dest); err != nil {
			zap.L().Warn("locator: remove extracted archive", zap.String("dir", dest), zap.Error(err))
		}
	}

	st, err := extractSAFE(root, dest)
	if err != nil {
		cleanup()
		return "", noop, err
	}
	zap.L().Debug("locator: extracted archive",
		zap.String("archive", root),
		zap.String("dir", dest),
		zap.Int("files", st.written),
		zap.Int("skipped", st.skipped),
		zap.Int64("bytes", st.bytes),
	)
	return dest, cleanup, nil
}

// safeExts are the archive members worth unpacking: band rasters plus the
// SAFE manifest and XML metadata. Previews, HTML reports and schemas stay in
// the archive.
var safeExts = []string{".tif", ".tiff", ".jp2", ".safe", ".xml"}

type extractStats struct {
	written, skipped int
	bytes            int64
}

// extractSAFE writes the raster and metadata members of a zipped SAFE
// product under destDir. Every member name is checked for zip slip, including
// the ones that are skipped.
func extractSAFE(zipPath, destDir string) (extractStats, error) {
	var st extractStats
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return st, geoerr.Wrap(geoerr.KindArchiveNotFound, err, "zip: open archive %s", zipPath)
	}
	defer r.Close() //nolint:errcheck

	root := filepath.Clean(destDir) + string(os.PathSeparator)
	for _, f := range r.File {
		destPath := filepath.Join(destDir, f.Name)
		if !strings.HasPrefix(filepath.Clean(destPath), root) {
			return st, eris.Errorf("zip: illegal path %q in %s (zip slip attempt)", f.Name, zipPath)
		}
		if f.FileInfo().IsDir() {
			continue
		}
		if !hasExtension(f.Name, safeExts) {
			st.skipped++
			continue
		}

		n, err := extractMember(f, destPath)
		if err != nil {
			return st, eris.Wrapf(err, "zip: extract %s from %s", f.Name, zipPath)
		}
		zap.L().Debug("locator: extracted member", zap.String("name", f.Name), zap.Int64("bytes", n))
		st.written++
		st.bytes += n
	}
	return st, nil
}

func extractMember(f *zip.File, destPath string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, eris.Wrap(err, "zip: create parent directory")
	}
	rc, err := f.Open()
	if err != nil {
		return 0, eris.Wrap(err, "zip: open member")
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return 0, eris.Wrap(err, "zip: create file")
	}
	n, err := io.Copy(out, rc)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, eris.Wrap(err, "zip: write file")
	}
	return n, nil
}
