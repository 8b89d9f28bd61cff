// Package geo holds the in-memory geographic dataset model: shapefile rows
// with geometries and attribute maps, plus GEOID join and dissolve operations.
package geo

import (
	"sort"
	"strconv"

	"github.com/twpayne/go-geom"
)

// Feature is one geographic unit: a geometry plus its attribute properties.
type Feature struct {
	Geometry geom.T
	Props    map[string]string
}

// Dataset is an ordered table of features loaded from a shapefile.
// Fields lists the property names in shapefile column order (lowercased);
// columns added later (joined statistics) are appended.
type Dataset struct {
	Fields   []string
	Features []Feature
}

// Len returns the number of features.
func (d *Dataset) Len() int {
	return len(d.Features)
}

// HasField reports whether the dataset carries the named property column.
func (d *Dataset) HasField(name string) bool {
	for _, f := range d.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Float reads a feature property as a float64. Missing or non-numeric values
// return ok=false.
func (f Feature) Float(name string) (float64, bool) {
	raw, ok := f.Props[name]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Values returns the distinct non-empty values of a property, sorted.
func (d *Dataset) Values(name string) []string {
	seen := make(map[string]struct{})
	for _, f := range d.Features {
		if v := f.Props[name]; v != "" {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
