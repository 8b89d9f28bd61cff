package render

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counties.xlsx")
	err := ExportXLSX(countyDataset(), path, "counties", map[string]string{
		"B01003_001E": "Total population",
	})
	require.NoError(t, err)

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	sheet := file.Sheets[0]
	assert.Equal(t, "counties", sheet.Name)
	require.Len(t, sheet.Rows, 6)

	header := sheet.Rows[0]
	assert.Equal(t, "geoid", header.Cells[0].Value)
	assert.Equal(t, "name", header.Cells[1].Value)
	assert.Equal(t, "Total population", header.Cells[2].Value)

	first := sheet.Rows[1]
	assert.Equal(t, "44001", first.Cells[0].Value)
	assert.Equal(t, "Bristol", first.Cells[1].Value)
	pop, err := first.Cells[2].Float()
	require.NoError(t, err)
	assert.Equal(t, 50793.0, pop)
}

func TestExportXLSX_KeepsLeadingZeros(t *testing.T) {
	ds := countyDataset()
	ds.Features[0].Props["geoid"] = "01001"

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, ExportXLSX(ds, path, "", nil))

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, "01001", file.Sheets[0].Rows[1].Cells[0].Value)
}

func TestExportXLSX_DefaultSheetName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, ExportXLSX(countyDataset(), path, "", nil))

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	assert.Equal(t, "data", file.Sheets[0].Name)
}
