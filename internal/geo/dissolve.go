package geo

import (
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Dissolve merges features sharing a GEOID prefix into one feature per group:
// tract rows dissolve to counties with keyLen 5, block groups to tracts with
// keyLen 11. Group geometries are combined into a single MultiPolygon and the
// named numeric columns are summed; all other properties are dropped except
// the group key, stored under geoidField. Output features are ordered by key.
func Dissolve(ds *Dataset, geoidField string, keyLen int, sumCols []string) (*Dataset, error) {
	if !ds.HasField(geoidField) {
		return nil, eris.Errorf("geo: dataset has no %q field", geoidField)
	}
	if keyLen <= 0 {
		return nil, eris.Errorf("geo: invalid dissolve key length %d", keyLen)
	}

	type group struct {
		geom *geom.MultiPolygon
		sums map[string]float64
	}
	groups := make(map[string]*group)

	for _, f := range ds.Features {
		geoid := f.Props[geoidField]
		if len(geoid) < keyLen {
			return nil, eris.Errorf("geo: GEOID %q shorter than dissolve key length %d", geoid, keyLen)
		}
		key := geoid[:keyLen]

		g, ok := groups[key]
		if !ok {
			g = &group{
				geom: geom.NewMultiPolygon(geom.XY).SetSRID(4326),
				sums: make(map[string]float64, len(sumCols)),
			}
			groups[key] = g
		}

		if err := appendPolygons(g.geom, f.Geometry); err != nil {
			return nil, eris.Wrapf(err, "geo: dissolve geometry for %s", geoid)
		}

		for _, col := range sumCols {
			if v, ok := f.Float(col); ok {
				g.sums[col] += v
			}
		}
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := &Dataset{Fields: append([]string{geoidField}, sumCols...)}
	for _, key := range keys {
		g := groups[key]
		props := map[string]string{geoidField: key}
		for _, col := range sumCols {
			props[col] = strconv.FormatFloat(g.sums[col], 'f', -1, 64)
		}
		out.Features = append(out.Features, Feature{Geometry: g.geom, Props: props})
	}

	return out, nil
}

// appendPolygons pushes every polygon of g onto mp. Non-polygonal geometries
// are rejected; dissolve is defined for area features only.
func appendPolygons(mp *geom.MultiPolygon, g geom.T) error {
	switch s := g.(type) {
	case *geom.Polygon:
		return mp.Push(s)
	case *geom.MultiPolygon:
		for i := 0; i < s.NumPolygons(); i++ {
			if err := mp.Push(s.Polygon(i)); err != nil {
				return err
			}
		}
		return nil
	case nil:
		return eris.New("nil geometry")
	default:
		return eris.Errorf("unsupported geometry type %T", g)
	}
}
