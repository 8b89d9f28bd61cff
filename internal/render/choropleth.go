// Package render writes choropleth map documents: self-contained HTML pages
// embedding the joined dataset as GeoJSON, shaded across quantile bins.
package render

import (
	"bytes"
	"encoding/json"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/censusmap/internal/geo"
)

// Options configures a choropleth rendering.
type Options struct {
	Title       string
	ValueColumn string // property shaded on the map
	ValueLabel  string // legend/popup label; defaults to ValueColumn
	NameColumn  string // property shown in popups, e.g. "name"
	GEOIDColumn string // defaults to "geoid"
	Bins        int    // quantile bins, 3..7; defaults to 5
}

// yellow-to-red sequential ramp; sliced to the bin count.
var ramp = []string{"#ffffb2", "#fed976", "#feb24c", "#fd8d3c", "#fc4e2a", "#e31a1c", "#b10026"}

// WriteMap renders a dataset to a choropleth HTML document at path.
func WriteMap(ds *geo.Dataset, path string, opts Options) error {
	if opts.ValueColumn == "" {
		return eris.New("render: value column required")
	}
	if opts.ValueLabel == "" {
		opts.ValueLabel = opts.ValueColumn
	}
	if opts.GEOIDColumn == "" {
		opts.GEOIDColumn = "geoid"
	}
	if opts.Bins < 3 || opts.Bins > len(ramp) {
		opts.Bins = 5
	}
	if opts.Title == "" {
		opts.Title = opts.ValueLabel
	}

	fc, values, err := featureCollection(ds, opts)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return eris.Errorf("render: no numeric %q values to map", opts.ValueColumn)
	}

	breaks := quantileBreaks(values, opts.Bins)
	colors := ramp[:opts.Bins]

	data, err := json.Marshal(fc)
	if err != nil {
		return eris.Wrap(err, "render: marshal geojson")
	}

	page := pageData{
		Title:      opts.Title,
		ValueLabel: opts.ValueLabel,
		NameProp:   opts.NameColumn,
		GeoJSON:    string(data),
		Breaks:     breaks,
		Colors:     colors,
		Legend:     legendRows(breaks, colors),
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		return eris.Wrap(err, "render: execute template")
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "render: write %s", path)
	}

	zap.L().Info("map rendered",
		zap.String("component", "render"),
		zap.String("path", path),
		zap.Int("features", len(fc.Features)),
		zap.Int("bins", opts.Bins),
	)
	return nil
}

// featureCollection converts the dataset into GeoJSON, carrying geoid, name,
// and the shaded value as properties. Returns the numeric values encountered.
func featureCollection(ds *geo.Dataset, opts Options) (*geojson.FeatureCollection, []float64, error) {
	fc := &geojson.FeatureCollection{}
	var values []float64

	for _, f := range ds.Features {
		props := map[string]any{
			"geoid": f.Props[opts.GEOIDColumn],
		}
		if opts.NameColumn != "" {
			props["name"] = f.Props[opts.NameColumn]
		}
		if v, ok := f.Float(opts.ValueColumn); ok {
			props["value"] = v
			values = append(values, v)
		} else {
			props["value"] = nil
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   f.Geometry,
			Properties: props,
		})
	}

	return fc, values, nil
}

// quantileBreaks returns bin upper bounds placed at equal quantiles.
// The last break is the maximum value.
func quantileBreaks(values []float64, bins int) []float64 {
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)

	breaks := make([]float64, bins)
	for i := 1; i <= bins; i++ {
		idx := i * len(sorted) / bins
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		} else if idx > 0 {
			idx--
		}
		breaks[i-1] = sorted[idx]
	}
	return breaks
}

// legendRow is one entry of the rendered legend.
type legendRow struct {
	Color string
	Label string
}

// legendRows formats bin ranges for the legend with English digit grouping.
func legendRows(breaks []float64, colors []string) []legendRow {
	p := message.NewPrinter(language.English)

	rows := make([]legendRow, len(breaks))
	lower := 0.0
	if len(breaks) > 0 {
		lower = breaks[0]
	}
	for i, b := range breaks {
		if i == 0 {
			rows[i] = legendRow{Color: colors[i], Label: p.Sprintf("<= %.0f", b)}
		} else {
			rows[i] = legendRow{Color: colors[i], Label: p.Sprintf("%.0f to %.0f", lower, b)}
		}
		lower = b
	}
	return rows
}
