package acs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/censusmap/internal/tiger"
)

const defaultBaseURL = "https://api.census.gov/data"

// Options configures the ACS client.
type Options struct {
	APIKey      string
	Year        int
	Dataset     string // e.g. "acs/acs5"
	BaseURL     string
	Timeout     time.Duration
	Concurrency int        // parallel per-county queries
	RateLimit   rate.Limit // requests per second against the API
	RateBurst   int
	Cache       *Cache
}

// Client queries the Census data API.
type Client struct {
	httpc   *http.Client
	opts    Options
	limiter *rate.Limiter
}

// New creates an ACS client.
func New(opts Options) *Client {
	if opts.Dataset == "" {
		opts.Dataset = "acs/acs5"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 5
	}
	return &Client{
		httpc:   &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: rate.NewLimiter(opts.RateLimit, opts.RateBurst),
	}
}

// Geography selects which geographies a query covers. State is a 2-digit FIPS
// code; County a 3-digit code. The queried level uses a wildcard, so e.g.
// Level=TRACT, State="44", County="007" asks for every tract in that county.
type Geography struct {
	Level  tiger.Level
	State  string
	County string
}

// forName maps a level to the API's geography name.
func forName(level tiger.Level) string {
	switch level {
	case tiger.LevelState:
		return "state"
	case tiger.LevelCounty:
		return "county"
	case tiger.LevelTract:
		return "tract"
	default:
		return "block group"
	}
}

// QueryURL builds the request URL for a variable list and geography filter.
func (c *Client) QueryURL(vars []string, g Geography) string {
	params := url.Values{}
	params.Set("get", strings.Join(vars, ","))
	if g.Level == tiger.LevelState && g.State != "" {
		params.Set("for", "state:"+g.State)
	} else {
		params.Set("for", forName(g.Level)+":*")
	}

	var in []string
	if g.Level != tiger.LevelState && g.State != "" {
		in = append(in, "state:"+g.State)
	}
	if (g.Level == tiger.LevelTract || g.Level == tiger.LevelBG) && g.County != "" {
		in = append(in, "county:"+g.County)
	}
	for _, clause := range in {
		params.Add("in", clause)
	}
	if c.opts.APIKey != "" {
		params.Set("key", c.opts.APIKey)
	}

	base := strings.TrimRight(c.opts.BaseURL, "/")
	return base + "/" + strconv.Itoa(c.opts.Year) + "/" + c.opts.Dataset + "?" + params.Encode()
}

// Query fetches the given variables for one geography filter.
func (c *Client) Query(ctx context.Context, vars []string, g Geography) ([]Record, error) {
	if len(vars) == 0 {
		return nil, eris.New("acs: no variables requested")
	}

	reqURL := c.QueryURL(vars, g)
	body, err := c.fetch(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	recs, err := parseResponse(body)
	if err != nil {
		return nil, eris.Wrapf(err, "acs: parse response for %s %s", forName(g.Level), g.State)
	}
	return recs, nil
}

// QueryCounties fans a query out across counties of a state with bounded
// concurrency, preserving county order in the combined result.
func (c *Client) QueryCounties(ctx context.Context, vars []string, level tiger.Level, state string, counties []string) ([]Record, error) {
	results := make([][]Record, len(counties))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for i, county := range counties {
		g.Go(func() error {
			recs, err := c.Query(gCtx, vars, Geography{Level: level, State: state, County: county})
			if err != nil {
				return eris.Wrapf(err, "acs: county %s", county)
			}
			results[i] = recs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Record
	for _, recs := range results {
		all = append(all, recs...)
	}
	return all, nil
}

// Counties returns the county FIPS codes of a state, from a county-level query
// on the first requested variable.
func (c *Client) Counties(ctx context.Context, state string) ([]string, error) {
	recs, err := c.Query(ctx, []string{"NAME"}, Geography{Level: tiger.LevelCounty, State: state})
	if err != nil {
		return nil, err
	}
	counties := make([]string, 0, len(recs))
	for _, r := range recs {
		counties = append(counties, r.County)
	}
	sort.Strings(counties)
	return counties, nil
}

// fetch returns the response body for a URL, consulting the cache first.
// Cache keys strip the API key so rotating credentials keeps hits warm.
func (c *Client) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	cacheKey := stripKey(reqURL)

	if c.opts.Cache != nil {
		if body, ok, err := c.opts.Cache.Get(ctx, cacheKey); err != nil {
			zap.L().Warn("acs: cache read failed", zap.Error(err))
		} else if ok {
			zap.L().Debug("acs: cache hit", zap.String("url", cacheKey))
			return body, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "acs: rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "acs: build request")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "acs: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	// The API answers 204 for geography filters that match nothing. The empty
	// body is cached like any other so reruns do not spend quota re-learning it.
	if resp.StatusCode == http.StatusNoContent {
		if c.opts.Cache != nil {
			if err := c.opts.Cache.Put(ctx, cacheKey, []byte{}); err != nil {
				zap.L().Warn("acs: cache write failed", zap.Error(err))
			}
		}
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("acs: unexpected status %d from %s", resp.StatusCode, cacheKey)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "acs: read body")
	}

	if c.opts.Cache != nil {
		if err := c.opts.Cache.Put(ctx, cacheKey, body); err != nil {
			zap.L().Warn("acs: cache write failed", zap.Error(err))
		}
	}

	return body, nil
}

// parseResponse decodes the API's array-of-arrays format: a header row of
// variable codes and FIPS segment names, then one row per geography. Nulls
// become empty strings.
func parseResponse(body []byte) ([]Record, error) {
	if len(body) == 0 {
		return nil, nil
	}

	var rows [][]*string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, eris.Wrap(err, "decode rows")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		if h == nil {
			return nil, eris.New("null column name in header row")
		}
		header[i] = *h
	}

	recs := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, eris.Errorf("row has %d columns, header has %d", len(row), len(header))
		}

		rec := Record{Values: make(map[string]string)}
		for i, cell := range row {
			val := ""
			if cell != nil {
				val = *cell
			}
			switch header[i] {
			case "state":
				rec.State = val
			case "county":
				rec.County = val
			case "tract":
				rec.Tract = val
			case "block group":
				rec.BlockGroup = val
			default:
				rec.Values[header[i]] = val
			}
		}
		recs = append(recs, rec)
	}

	return recs, nil
}

// stripKey removes the key parameter from a request URL.
func stripKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Del("key")
	u.RawQuery = q.Encode()
	return u.String()
}
