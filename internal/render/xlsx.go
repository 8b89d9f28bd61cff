package render

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/censusmap/internal/geo"
)

// ExportXLSX writes the dataset's attribute table (no geometries) to an XLSX
// workbook. Columns follow the dataset's field order; headers may be relabeled
// through the labels map (column name -> display label).
func ExportXLSX(ds *geo.Dataset, path, sheetName string, labels map[string]string) error {
	if sheetName == "" {
		sheetName = "data"
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range ds.Fields {
		label := col
		if l, ok := labels[col]; ok && l != "" {
			label = l
		}
		header.AddCell().Value = label
	}

	for _, f := range ds.Features {
		row := sheet.AddRow()
		for _, col := range ds.Fields {
			cell := row.AddCell()
			raw := f.Props[col]
			// GEOIDs carry leading zeros, so anything that would not round-trip
			// through a float stays text.
			if v, err := strconv.ParseFloat(raw, 64); err == nil && !hasLeadingZero(raw) {
				cell.SetFloat(v)
			} else {
				cell.Value = raw
			}
		}
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func hasLeadingZero(s string) bool {
	return len(s) > 1 && s[0] == '0'
}
