// Package tiger fetches Census TIGER/Line shapefile archives and loads them
// into in-memory geographic datasets.
package tiger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Level identifies a TIGER/Line geography level. The value is the uppercase
// path segment used by the Census archive.
type Level string

const (
	LevelState  Level = "STATE"
	LevelCounty Level = "COUNTY"
	LevelTract  Level = "TRACT"
	LevelBG     Level = "BG"
)

// Levels lists the supported geography levels, coarsest first.
var Levels = []Level{LevelState, LevelCounty, LevelTract, LevelBG}

// ParseLevel resolves a case-insensitive level name. "blockgroup" and
// "block-group" are accepted aliases for BG.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.ReplaceAll(s, "-", "")) {
	case "STATE":
		return LevelState, nil
	case "COUNTY":
		return LevelCounty, nil
	case "TRACT":
		return LevelTract, nil
	case "BG", "BLOCKGROUP":
		return LevelBG, nil
	}
	return "", eris.Errorf("tiger: unknown geography level %q", s)
}

// National reports whether the archive publishes a single national file for
// this level (tl_{year}_us_{level}.zip) in addition to per-state files.
func (l Level) National() bool {
	return l == LevelState || l == LevelCounty
}

// OutputName returns the fixed map document filename for a level.
func (l Level) OutputName() string {
	return strings.ToLower(string(l)) + ".html"
}

// GEOIDLen returns the length of a full GEOID at this level
// (state 2, county 5, tract 11, block group 12).
func (l Level) GEOIDLen() int {
	switch l {
	case LevelState:
		return 2
	case LevelCounty:
		return 5
	case LevelTract:
		return 11
	default:
		return 12
	}
}

// ArchiveURL builds the Census Bureau download URL for a per-state TIGER/Line
// shapefile. The level is uppercase in the path segment and lowercase in the
// filename segment; this templating is the archive's fixed contract.
func ArchiveURL(level Level, year int, stateFIPS string) string {
	return fmt.Sprintf(
		"https://www2.census.gov/geo/tiger/TIGER%d/%s/tl_%d_%s_%s.zip",
		year, string(level), year, stateFIPS, strings.ToLower(string(level)),
	)
}

// NationalArchiveURL builds the download URL for a national file
// (STATE and COUNTY levels only).
func NationalArchiveURL(level Level, year int) string {
	return fmt.Sprintf(
		"https://www2.census.gov/geo/tiger/TIGER%d/%s/tl_%d_us_%s.zip",
		year, string(level), year, strings.ToLower(string(level)),
	)
}

// FTPArchiveURL builds the equivalent URL on the Census FTP mirror, which
// serves the same /geo/tiger tree.
func FTPArchiveURL(level Level, year int, stateFIPS string) string {
	return fmt.Sprintf(
		"ftp://ftp2.census.gov/geo/tiger/TIGER%d/%s/tl_%d_%s_%s.zip",
		year, string(level), year, stateFIPS, strings.ToLower(string(level)),
	)
}

// NationalFTPArchiveURL builds the national file URL on the Census FTP mirror
// (STATE and COUNTY levels only).
func NationalFTPArchiveURL(level Level, year int) string {
	return fmt.Sprintf(
		"ftp://ftp2.census.gov/geo/tiger/TIGER%d/%s/tl_%d_us_%s.zip",
		year, string(level), year, strings.ToLower(string(level)),
	)
}

// FIPSCodes maps state abbreviation to 2-digit FIPS code for all 50 states + DC.
var FIPSCodes = map[string]string{
	"AL": "01", "AK": "02", "AZ": "04", "AR": "05", "CA": "06",
	"CO": "08", "CT": "09", "DE": "10", "DC": "11", "FL": "12",
	"GA": "13", "HI": "15", "ID": "16", "IL": "17", "IN": "18",
	"IA": "19", "KS": "20", "KY": "21", "LA": "22", "ME": "23",
	"MD": "24", "MA": "25", "MI": "26", "MN": "27", "MS": "28",
	"MO": "29", "MT": "30", "NE": "31", "NV": "32", "NH": "33",
	"NJ": "34", "NM": "35", "NY": "36", "NC": "37", "ND": "38",
	"OH": "39", "OK": "40", "OR": "41", "PA": "42", "RI": "44",
	"SC": "45", "SD": "46", "TN": "47", "TX": "48", "UT": "49",
	"VT": "50", "VA": "51", "WA": "53", "WV": "54", "WI": "55",
	"WY": "56",
}

// abbrByFIPS is a reverse lookup from FIPS code to state abbreviation.
var abbrByFIPS map[string]string

func init() {
	abbrByFIPS = make(map[string]string, len(FIPSCodes))
	for abbr, fips := range FIPSCodes {
		abbrByFIPS[fips] = abbr
	}
}

// ResolveState normalizes a state identifier (two-letter abbreviation or
// two-digit FIPS string) to its FIPS code.
func ResolveState(s string) (string, error) {
	s = strings.TrimSpace(s)
	if fips, ok := FIPSCodes[strings.ToUpper(s)]; ok {
		return fips, nil
	}
	if _, ok := abbrByFIPS[s]; ok {
		return s, nil
	}
	return "", eris.Errorf("tiger: unknown state %q", s)
}

// AbbrFromFIPS returns the state abbreviation for a FIPS code.
func AbbrFromFIPS(fips string) (string, bool) {
	abbr, ok := abbrByFIPS[fips]
	return abbr, ok
}

// AllStateFIPS returns a sorted list of all state FIPS codes.
func AllStateFIPS() []string {
	codes := make([]string, 0, len(FIPSCodes))
	for _, fips := range FIPSCodes {
		codes = append(codes, fips)
	}
	sort.Strings(codes)
	return codes
}
