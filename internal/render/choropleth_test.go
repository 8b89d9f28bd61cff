package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"

	"github.com/sells-group/censusmap/internal/geo"
)

func square(x, y float64) *geom.MultiPolygon {
	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	poly := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{x, y}, {x + 1, y}, {x + 1, y + 1}, {x, y + 1}, {x, y},
	}})
	if err := mp.Push(poly); err != nil {
		panic(err)
	}
	return mp
}

func countyDataset() *geo.Dataset {
	return &geo.Dataset{
		Fields: []string{"geoid", "name", "B01003_001E"},
		Features: []geo.Feature{
			{Geometry: square(-71.5, 41.5), Props: map[string]string{"geoid": "44001", "name": "Bristol", "B01003_001E": "50793"}},
			{Geometry: square(-71.6, 41.6), Props: map[string]string{"geoid": "44003", "name": "Kent", "B01003_001E": "170363"}},
			{Geometry: square(-71.7, 41.7), Props: map[string]string{"geoid": "44005", "name": "Newport", "B01003_001E": "85643"}},
			{Geometry: square(-71.8, 41.8), Props: map[string]string{"geoid": "44007", "name": "Providence", "B01003_001E": "660741"}},
			{Geometry: square(-71.9, 41.9), Props: map[string]string{"geoid": "44009", "name": "Washington", "B01003_001E": "129839"}},
		},
	}
}

func TestWriteMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "county.html")
	err := WriteMap(countyDataset(), path, Options{
		Title:       "Rhode Island population",
		ValueColumn: "B01003_001E",
		ValueLabel:  "Total population",
		NameColumn:  "name",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "Rhode Island population")
	assert.Contains(t, html, "Total population")
	assert.Contains(t, html, "FeatureCollection")
	assert.Contains(t, html, "44007")
	assert.Contains(t, html, "Providence")
	assert.Contains(t, html, "leaflet")
	// Legend labels group digits.
	assert.Contains(t, html, "660,741")
}

func TestWriteMap_MissingValueColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.html")
	err := WriteMap(countyDataset(), path, Options{})
	assert.Error(t, err)
}

func TestWriteMap_NoNumericValues(t *testing.T) {
	ds := &geo.Dataset{
		Fields: []string{"geoid", "val"},
		Features: []geo.Feature{
			{Geometry: square(0, 0), Props: map[string]string{"geoid": "44001", "val": "n/a"}},
		},
	}

	err := WriteMap(ds, filepath.Join(t.TempDir(), "out.html"), Options{ValueColumn: "val"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no numeric")
}

func TestFeatureCollection(t *testing.T) {
	ds := countyDataset()
	ds.Features[0].Props["B01003_001E"] = "not a number"

	fc, values, err := featureCollection(ds, Options{
		ValueColumn: "B01003_001E",
		NameColumn:  "name",
		GEOIDColumn: "geoid",
	})
	require.NoError(t, err)
	require.Len(t, fc.Features, 5)
	assert.Len(t, values, 4)

	// Non-numeric values render as null so the map can hatch them.
	assert.Nil(t, fc.Features[0].Properties["value"])
	assert.Equal(t, "44001", fc.Features[0].Properties["geoid"])
	assert.Equal(t, float64(170363), fc.Features[1].Properties["value"])
}

func TestQuantileBreaks(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

	breaks := quantileBreaks(values, 5)
	require.Len(t, breaks, 5)
	assert.Equal(t, 100.0, breaks[len(breaks)-1])
	assert.True(t, sortedAscending(breaks))
}

func TestQuantileBreaks_FewerValuesThanBins(t *testing.T) {
	breaks := quantileBreaks([]float64{5, 7}, 5)
	require.Len(t, breaks, 5)
	assert.Equal(t, 7.0, breaks[len(breaks)-1])
}

func sortedAscending(vals []float64) bool {
	for i := 1; i < len(vals); i++ {
		if vals[i] < vals[i-1] {
			return false
		}
	}
	return true
}

func TestLegendRows(t *testing.T) {
	breaks := []float64{1000, 5000, 12345}
	colors := []string{"#ffffb2", "#fd8d3c", "#b10026"}

	rows := legendRows(breaks, colors)
	require.Len(t, rows, 3)
	assert.Equal(t, "<= 1,000", rows[0].Label)
	assert.Equal(t, "1,000 to 5,000", rows[1].Label)
	assert.Equal(t, "5,000 to 12,345", rows[2].Label)
	assert.Equal(t, "#b10026", rows[2].Color)
}
