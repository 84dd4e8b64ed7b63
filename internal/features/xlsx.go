package features

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// SheetName is the worksheet the XLSX export writes.
const SheetName = "features"

// WriteXLSX exports rows to a single-sheet workbook with a header row.
func WriteXLSX(path string, rows []Row) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, c := range Columns {
		header.AddCell().SetString(c)
	}
	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Project)
		row.AddCell().SetString(r.Month)
		for _, v := range r.values() {
			row.AddCell().SetFloat(v)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}
