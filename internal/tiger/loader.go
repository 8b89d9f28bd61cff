package tiger

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/censusmap/internal/fetcher"
	"github.com/sells-group/censusmap/internal/geo"
)

// requiredComponents are the shapefile member extensions that must all be
// present before parsing is attempted. go-shp reads the .dbf lazily, so a
// missing component would otherwise surface as a partial dataset.
var requiredComponents = []string{".shp", ".shx", ".dbf"}

// Load unpacks a zipped shapefile into a temporary directory and parses it
// into a geographic dataset. The temporary directory is removed before Load
// returns, on success and on failure.
func Load(zipPath string) (*geo.Dataset, error) {
	tmpDir, err := os.MkdirTemp("", "censusmap-shp-")
	if err != nil {
		return nil, eris.Wrap(err, "tiger: create temp dir")
	}
	defer os.RemoveAll(tmpDir) //nolint:errcheck

	extracted, err := fetcher.ExtractZIP(zipPath, tmpDir)
	if err != nil {
		return nil, eris.Wrapf(err, "tiger: extract %s", zipPath)
	}

	byExt := make(map[string]string, len(extracted))
	for _, path := range extracted {
		byExt[strings.ToLower(filepath.Ext(path))] = path
	}
	for _, ext := range requiredComponents {
		if _, ok := byExt[ext]; !ok {
			return nil, eris.Errorf("tiger: archive %s missing %s component", filepath.Base(zipPath), ext)
		}
	}

	ds, err := readShapefile(byExt[".shp"])
	if err != nil {
		return nil, err
	}

	zap.L().Debug("shapefile loaded",
		zap.String("component", "tiger.load"),
		zap.String("archive", filepath.Base(zipPath)),
		zap.Int("features", ds.Len()),
	)

	return ds, nil
}

// readShapefile parses a .shp/.dbf pair into a dataset. Attribute names are
// lowercased; records without a convertible geometry are skipped.
func readShapefile(shpPath string) (*geo.Dataset, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "tiger: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		names[i] = strings.ToLower(name)
	}

	ds := &geo.Dataset{Fields: names}
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		g := geo.FromShape(shape)
		if g == nil {
			skipped++
			continue
		}

		props := make(map[string]string, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			props[name] = val
		}

		ds.Features = append(ds.Features, geo.Feature{Geometry: g, Props: props})
	}

	if skipped > 0 {
		zap.L().Debug("tiger: skipped shapefile records without usable geometry",
			zap.String("shapefile", filepath.Base(shpPath)),
			zap.Int("skipped", skipped),
		)
	}

	return ds, nil
}
