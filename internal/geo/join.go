package geo

import (
	"sort"

	"github.com/rotisserie/eris"
)

// Join matches dataset features to statistical records by the GEOID property
// and returns a new dataset whose features carry the record columns merged
// into their properties. Features without a matching record are dropped, as
// are records without a matching feature; the count of dropped features is
// returned so callers can surface it. The input dataset is not modified.
func Join(ds *Dataset, stats map[string]map[string]string, geoidField string) (*Dataset, int, error) {
	if !ds.HasField(geoidField) {
		return nil, 0, eris.Errorf("geo: dataset has no %q field", geoidField)
	}

	// Collect the statistical column names once so every joined feature
	// carries the same schema.
	statCols := make(map[string]struct{})
	for _, rec := range stats {
		for col := range rec {
			statCols[col] = struct{}{}
		}
	}
	added := make([]string, 0, len(statCols))
	for col := range statCols {
		if !contains(ds.Fields, col) {
			added = append(added, col)
		}
	}
	sort.Strings(added)

	out := &Dataset{Fields: append(append([]string{}, ds.Fields...), added...)}

	var dropped int
	for _, f := range ds.Features {
		rec, ok := stats[f.Props[geoidField]]
		if !ok {
			dropped++
			continue
		}

		props := make(map[string]string, len(f.Props)+len(rec))
		for k, v := range f.Props {
			props[k] = v
		}
		for k, v := range rec {
			props[k] = v
		}

		out.Features = append(out.Features, Feature{Geometry: f.Geometry, Props: props})
	}

	return out, dropped, nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
