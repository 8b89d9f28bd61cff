package tiger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveURL_Template(t *testing.T) {
	// Level uppercase in the path segment, lowercase in the filename segment.
	url := ArchiveURL(LevelTract, 2018, "44")
	assert.Equal(t,
		"https://www2.census.gov/geo/tiger/TIGER2018/TRACT/tl_2018_44_tract.zip",
		url,
	)
}

func TestArchiveURL_AllLevels(t *testing.T) {
	cases := map[Level]string{
		LevelState:  "https://www2.census.gov/geo/tiger/TIGER2024/STATE/tl_2024_06_state.zip",
		LevelCounty: "https://www2.census.gov/geo/tiger/TIGER2024/COUNTY/tl_2024_06_county.zip",
		LevelTract:  "https://www2.census.gov/geo/tiger/TIGER2024/TRACT/tl_2024_06_tract.zip",
		LevelBG:     "https://www2.census.gov/geo/tiger/TIGER2024/BG/tl_2024_06_bg.zip",
	}
	for level, want := range cases {
		assert.Equal(t, want, ArchiveURL(level, 2024, "06"), "level %s", level)
	}
}

func TestNationalArchiveURL(t *testing.T) {
	assert.Equal(t,
		"https://www2.census.gov/geo/tiger/TIGER2024/COUNTY/tl_2024_us_county.zip",
		NationalArchiveURL(LevelCounty, 2024),
	)
}

func TestFTPArchiveURL(t *testing.T) {
	assert.Equal(t,
		"ftp://ftp2.census.gov/geo/tiger/TIGER2018/TRACT/tl_2018_44_tract.zip",
		FTPArchiveURL(LevelTract, 2018, "44"),
	)
}

func TestNationalFTPArchiveURL(t *testing.T) {
	assert.Equal(t,
		"ftp://ftp2.census.gov/geo/tiger/TIGER2024/COUNTY/tl_2024_us_county.zip",
		NationalFTPArchiveURL(LevelCounty, 2024),
	)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"tract":       LevelTract,
		"TRACT":       LevelTract,
		"bg":          LevelBG,
		"blockgroup":  LevelBG,
		"block-group": LevelBG,
		"state":       LevelState,
		"County":      LevelCounty,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("zcta")
	assert.Error(t, err)
}

func TestLevelNational(t *testing.T) {
	assert.True(t, LevelState.National())
	assert.True(t, LevelCounty.National())
	assert.False(t, LevelTract.National())
	assert.False(t, LevelBG.National())
}

func TestLevelGEOIDLen(t *testing.T) {
	assert.Equal(t, 2, LevelState.GEOIDLen())
	assert.Equal(t, 5, LevelCounty.GEOIDLen())
	assert.Equal(t, 11, LevelTract.GEOIDLen())
	assert.Equal(t, 12, LevelBG.GEOIDLen())
}

func TestLevelOutputName(t *testing.T) {
	assert.Equal(t, "tract.html", LevelTract.OutputName())
	assert.Equal(t, "bg.html", LevelBG.OutputName())
}

func TestResolveState(t *testing.T) {
	fips, err := ResolveState("RI")
	require.NoError(t, err)
	assert.Equal(t, "44", fips)

	fips, err = ResolveState("ri")
	require.NoError(t, err)
	assert.Equal(t, "44", fips)

	fips, err = ResolveState("44")
	require.NoError(t, err)
	assert.Equal(t, "44", fips)

	_, err = ResolveState("99")
	assert.Error(t, err)

	_, err = ResolveState("Rhode Island")
	assert.Error(t, err)
}

func TestAbbrFromFIPS(t *testing.T) {
	abbr, ok := AbbrFromFIPS("44")
	require.True(t, ok)
	assert.Equal(t, "RI", abbr)

	_, ok = AbbrFromFIPS("00")
	assert.False(t, ok)
}

func TestAllStateFIPS(t *testing.T) {
	codes := AllStateFIPS()
	assert.Len(t, codes, 51) // 50 states + DC
	assert.Equal(t, "01", codes[0])
	assert.Equal(t, "56", codes[len(codes)-1])
}
