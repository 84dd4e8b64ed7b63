package features

import (
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/rotisserie/eris"
)

// Row is one month of AOI features.
type Row struct {
	Project       string  `parquet:"project" json:"project"`
	Month         string  `parquet:"month" json:"month"`
	NDVIMean      float64 `parquet:"ndvi_mean" json:"ndvi_mean"`
	NDWIMean      float64 `parquet:"ndwi_mean" json:"ndwi_mean"`
	NDBIMean      float64 `parquet:"ndbi_mean" json:"ndbi_mean"`
	VVDBMean      float64 `parquet:"vv_db_mean" json:"vv_db_mean"`
	VHDBMean      float64 `parquet:"vh_db_mean" json:"vh_db_mean"`
	VVMinusVHMean float64 `parquet:"vv_minus_vh_mean" json:"vv_minus_vh_mean"`
}

// Columns lists the table columns in file order.
var Columns = []string{
	"project", "month",
	"ndvi_mean", "ndwi_mean", "ndbi_mean",
	"vv_db_mean", "vh_db_mean", "vv_minus_vh_mean",
}

func (r Row) values() []float64 {
	return []float64{r.NDVIMean, r.NDWIMean, r.NDBIMean, r.VVDBMean, r.VHDBMean, r.VVMinusVHMean}
}

// WriteTable writes rows to a Parquet file at path. The file is written to a
// temporary sibling and renamed into place, so readers never see a partial
// table.
func WriteTable(path string, rows []Row) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "features: create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".features-*.parquet")
	if err != nil {
		return eris.Wrap(err, "features: create temp table")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	w := parquet.NewGenericWriter[Row](tmp)
	if _, err := w.Write(rows); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return eris.Wrap(err, "features: write rows")
	}
	if err := w.Close(); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return eris.Wrap(err, "features: finish table")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "features: close temp table")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "features: move table to %s", path)
	}
	return nil
}

// ReadTable reads a feature table written by WriteTable.
func ReadTable(path string) ([]Row, error) {
	rows, err := parquet.ReadFile[Row](path)
	if err != nil {
		return nil, eris.Wrapf(err, "features: read table %s", path)
	}
	return rows, nil
}
