package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func testDataset() *Dataset {
	square := func(x float64) geom.T {
		mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
		poly := geom.NewPolygon(geom.XY)
		_ = poly.Push(geom.NewLinearRingFlat(geom.XY, []float64{
			x, 0, x, 1, x + 1, 1, x + 1, 0, x, 0,
		}))
		_ = mp.Push(poly)
		return mp
	}

	return &Dataset{
		Fields: []string{"geoid", "name"},
		Features: []Feature{
			{Geometry: square(0), Props: map[string]string{"geoid": "44007010100", "name": "Tract 101"}},
			{Geometry: square(1), Props: map[string]string{"geoid": "44007010200", "name": "Tract 102"}},
			{Geometry: square(2), Props: map[string]string{"geoid": "44009990100", "name": "Tract 9901"}},
		},
	}
}

func TestJoin_MatchedAndDropped(t *testing.T) {
	ds := testDataset()
	stats := map[string]map[string]string{
		"44007010100": {"B01003_001E": "4321"},
		"44007010200": {"B01003_001E": "1234"},
		"44999999999": {"B01003_001E": "555"}, // no geometry: silently ignored
	}

	joined, dropped, err := Join(ds, stats, "geoid")
	require.NoError(t, err)

	assert.Equal(t, 2, joined.Len())
	assert.Equal(t, 1, dropped) // tract 9901 had no record

	assert.Equal(t, "4321", joined.Features[0].Props["B01003_001E"])
	assert.Equal(t, "Tract 101", joined.Features[0].Props["name"])
	assert.NotNil(t, joined.Features[0].Geometry)
	assert.Contains(t, joined.Fields, "B01003_001E")
}

func TestJoin_Idempotent(t *testing.T) {
	ds := testDataset()
	stats := map[string]map[string]string{
		"44007010100": {"POP": "10"},
		"44007010200": {"POP": "20"},
	}

	first, firstDropped, err := Join(ds, stats, "geoid")
	require.NoError(t, err)
	second, secondDropped, err := Join(ds, stats, "geoid")
	require.NoError(t, err)

	assert.Equal(t, first.Len(), second.Len())
	assert.Equal(t, firstDropped, secondDropped)
	for i := range first.Features {
		assert.Equal(t, first.Features[i].Props, second.Features[i].Props)
	}

	// Joining the joined dataset again yields the same rows.
	third, thirdDropped, err := Join(first, stats, "geoid")
	require.NoError(t, err)
	assert.Equal(t, first.Len(), third.Len())
	assert.Zero(t, thirdDropped)
}

func TestJoin_DoesNotModifyInput(t *testing.T) {
	ds := testDataset()
	stats := map[string]map[string]string{"44007010100": {"POP": "10"}}

	_, _, err := Join(ds, stats, "geoid")
	require.NoError(t, err)

	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, []string{"geoid", "name"}, ds.Fields)
	_, hasPOP := ds.Features[0].Props["POP"]
	assert.False(t, hasPOP)
}

func TestJoin_MissingGEOIDField(t *testing.T) {
	ds := &Dataset{Fields: []string{"name"}}
	_, _, err := Join(ds, nil, "geoid")
	assert.Error(t, err)
}

func TestJoin_NoMatches(t *testing.T) {
	ds := testDataset()
	joined, dropped, err := Join(ds, map[string]map[string]string{}, "geoid")
	require.NoError(t, err)
	assert.Zero(t, joined.Len())
	assert.Equal(t, 3, dropped)
}
