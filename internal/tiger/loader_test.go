package tiger

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tractFixture struct {
	geoid string
	name  string
	pop   string
}

// squarePoly returns a closed unit square offset by (x, y).
func squarePoly(x, y float64) *shp.Polygon {
	return &shp.Polygon{
		NumParts:  1,
		NumPoints: 5,
		Parts:     []int32{0},
		Points: []shp.Point{
			{X: x, Y: y},
			{X: x, Y: y + 1},
			{X: x + 1, Y: y + 1},
			{X: x + 1, Y: y},
			{X: x, Y: y},
		},
	}
}

// writeShapefile writes a polygon shapefile with GEOID/NAME/POP attributes and
// returns the paths of its component files.
func writeShapefile(t *testing.T, dir string, feats []tractFixture) []string {
	t.Helper()

	base := filepath.Join(dir, "tl_2018_44_tract")
	w, err := shp.Create(base+".shp", shp.POLYGON)
	require.NoError(t, err)

	w.SetFields([]shp.Field{
		shp.StringField("GEOID", 15),
		shp.StringField("NAME", 30),
		shp.StringField("POP", 10),
	})

	for i, f := range feats {
		w.Write(squarePoly(float64(i), 0))
		w.WriteAttribute(i, 0, f.geoid)
		w.WriteAttribute(i, 1, f.name)
		w.WriteAttribute(i, 2, f.pop)
	}
	w.Close()

	return []string{base + ".shp", base + ".shx", base + ".dbf"}
}

// zipFiles packs the given files into a zip archive at zipPath.
func zipFiles(t *testing.T, zipPath string, files []string) {
	t.Helper()

	out, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(out)

	for _, path := range files {
		entry, err := zw.Create(filepath.Base(path))
		require.NoError(t, err)
		in, err := os.Open(path)
		require.NoError(t, err)
		_, err = io.Copy(entry, in)
		require.NoError(t, err)
		require.NoError(t, in.Close())
	}

	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
}

func testFixtures() []tractFixture {
	return []tractFixture{
		{geoid: "44007010100", name: "Census Tract 101", pop: "4321"},
		{geoid: "44007010200", name: "Census Tract 102", pop: "1234"},
		{geoid: "44007010300", name: "Census Tract 103", pop: "987"},
	}
}

func TestLoad_Success(t *testing.T) {
	dir := t.TempDir()
	files := writeShapefile(t, dir, testFixtures())
	zipPath := filepath.Join(dir, "tl_2018_44_tract.zip")
	zipFiles(t, zipPath, files)

	ds, err := Load(zipPath)
	require.NoError(t, err)

	assert.Equal(t, 3, ds.Len())
	assert.Contains(t, ds.Fields, "geoid")
	assert.Contains(t, ds.Fields, "name")

	for _, f := range ds.Features {
		assert.NotNil(t, f.Geometry)
		assert.True(t, strings.HasPrefix(f.Props["geoid"], "44007"))
	}
	assert.Equal(t, "Census Tract 101", ds.Features[0].Props["name"])
	assert.Equal(t, "4321", ds.Features[0].Props["pop"])
}

func TestLoad_MissingComponent(t *testing.T) {
	dir := t.TempDir()
	files := writeShapefile(t, dir, testFixtures())

	// Drop the .shx component; loading must fail, not return a partial dataset.
	var withoutSHX []string
	for _, f := range files {
		if filepath.Ext(f) != ".shx" {
			withoutSHX = append(withoutSHX, f)
		}
	}
	zipPath := filepath.Join(dir, "incomplete.zip")
	zipFiles(t, zipPath, withoutSHX)

	ds, err := Load(zipPath)
	require.Error(t, err)
	assert.Nil(t, ds)
	assert.Contains(t, err.Error(), ".shx")
}

func TestLoad_MalformedArchive(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(zipPath, []byte("not a zip archive"), 0o644))

	_, err := Load(zipPath)
	assert.Error(t, err)
}

func TestLoad_CleansUpTempDir(t *testing.T) {
	// Point TMPDIR at a fresh directory so extraction temp dirs are observable.
	tmpRoot := t.TempDir()
	t.Setenv("TMPDIR", tmpRoot)

	dir := t.TempDir()
	files := writeShapefile(t, dir, testFixtures())
	zipPath := filepath.Join(dir, "tl_2018_44_tract.zip")
	zipFiles(t, zipPath, files)

	_, err := Load(zipPath)
	require.NoError(t, err)

	entries, err := os.ReadDir(tmpRoot)
	require.NoError(t, err)
	assert.Empty(t, entries, "extraction temp dir must be removed on success")
}

func TestLoad_CleansUpTempDirOnFailure(t *testing.T) {
	tmpRoot := t.TempDir()
	t.Setenv("TMPDIR", tmpRoot)

	dir := t.TempDir()
	files := writeShapefile(t, dir, testFixtures())
	zipPath := filepath.Join(dir, "incomplete.zip")
	zipFiles(t, zipPath, files[:1]) // .shp only

	_, err := Load(zipPath)
	require.Error(t, err)

	entries, err := os.ReadDir(tmpRoot)
	require.NoError(t, err)
	assert.Empty(t, entries, "extraction temp dir must be removed on failure")
}
