// Package acs queries the Census Bureau American Community Survey API and
// caches its responses.
package acs

import (
	"github.com/sells-group/censusmap/internal/tiger"
)

// Record is one geography's worth of ACS data: raw variable values keyed by
// variable code plus the FIPS segments identifying the geography.
type Record struct {
	Values     map[string]string
	State      string
	County     string
	Tract      string
	BlockGroup string
}

// GEOID concatenates the FIPS segments present at the given level.
func (r Record) GEOID(level tiger.Level) string {
	switch level {
	case tiger.LevelState:
		return r.State
	case tiger.LevelCounty:
		return r.State + r.County
	case tiger.LevelTract:
		return r.State + r.County + r.Tract
	default:
		return r.State + r.County + r.Tract + r.BlockGroup
	}
}

// ByGEOID indexes records by GEOID for joining against a geographic dataset.
// Variable values become the per-GEOID column map.
func ByGEOID(recs []Record, level tiger.Level) map[string]map[string]string {
	out := make(map[string]map[string]string, len(recs))
	for _, r := range recs {
		cols := make(map[string]string, len(r.Values))
		for k, v := range r.Values {
			cols[k] = v
		}
		out[r.GEOID(level)] = cols
	}
	return out
}
