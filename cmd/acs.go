package main

import (
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/censusmap/internal/acs"
	"github.com/sells-group/censusmap/internal/tiger"
)

var acsCmd = &cobra.Command{
	Use:   "acs",
	Short: "Query ACS variables and print the results",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		varsStr, _ := cmd.Flags().GetString("vars")
		varsFile, _ := cmd.Flags().GetString("vars-file")
		state, _ := cmd.Flags().GetString("state")
		county, _ := cmd.Flags().GetString("county")
		levelStr, _ := cmd.Flags().GetString("level")
		year, _ := cmd.Flags().GetInt("year")

		if varsStr == "" {
			return eris.New("acs: --vars is required")
		}
		vars := splitAndTrim(varsStr)

		level, err := tiger.ParseLevel(levelStr)
		if err != nil {
			return err
		}

		fips := ""
		if state != "" {
			if fips, err = tiger.ResolveState(state); err != nil {
				return err
			}
		}

		var catalog *acs.Catalog
		if varsFile != "" {
			if catalog, err = acs.LoadCatalog(varsFile); err != nil {
				return err
			}
		}

		client, closeCache, err := newACSClient(year)
		if err != nil {
			return err
		}
		defer closeCache()

		recs, err := client.Query(ctx, append([]string{"NAME"}, vars...), acs.Geography{
			Level:  level,
			State:  fips,
			County: county,
		})
		if err != nil {
			return eris.Wrap(err, "acs")
		}

		printRecords(recs, vars, level, catalog)
		return nil
	},
}

func init() {
	acsCmd.Flags().String("vars", "", "comma-separated ACS variable codes, e.g. B01003_001E")
	acsCmd.Flags().String("vars-file", "", "YAML catalog mapping variable codes to labels")
	acsCmd.Flags().String("state", "", "state abbreviation or 2-digit FIPS code")
	acsCmd.Flags().String("county", "", "3-digit county FIPS code (tract/bg queries)")
	acsCmd.Flags().String("level", "county", "geography level: state, county, tract, bg")
	acsCmd.Flags().Int("year", 0, "ACS year (default: from config)")
	rootCmd.AddCommand(acsCmd)
}

// newACSClient builds an ACS client from config, with the SQLite response
// cache attached when it can be opened. Returns a cleanup func.
func newACSClient(year int) (*acs.Client, func(), error) {
	if year == 0 {
		year = cfg.Census.Year
	}

	var cache *acs.Cache
	closeCache := func() {}
	if cfg.Census.CachePath != "" {
		c, err := acs.OpenCache(cfg.Census.CachePath, time.Duration(cfg.Census.CacheTTLHrs)*time.Hour)
		if err != nil {
			zap.L().Warn("acs cache unavailable, querying without it", zap.Error(err))
		} else {
			cache = c
			closeCache = func() { _ = c.Close() }
		}
	}

	client := acs.New(acs.Options{
		APIKey:      cfg.Census.APIKey,
		Year:        year,
		Dataset:     cfg.Census.Dataset,
		Concurrency: cfg.Census.Concurrency,
		Cache:       cache,
	})
	return client, closeCache, nil
}

// printRecords writes an aligned table of records with grouped numbers.
func printRecords(recs []acs.Record, vars []string, level tiger.Level, catalog *acs.Catalog) {
	p := message.NewPrinter(language.English)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	headers := []string{"GEOID", "NAME"}
	for _, v := range vars {
		headers = append(headers, catalog.Label(v))
	}
	p.Fprintln(w, strings.Join(headers, "\t"))

	for _, r := range recs {
		cols := []string{r.GEOID(level), r.Values["NAME"]}
		for _, v := range vars {
			raw := r.Values[v]
			if n, err := strconv.ParseFloat(raw, 64); err == nil {
				cols = append(cols, p.Sprintf("%.0f", n))
			} else {
				cols = append(cols, raw)
			}
		}
		p.Fprintln(w, strings.Join(cols, "\t"))
	}

	_ = w.Flush()
}

// splitAndTrim splits a comma-separated flag value into trimmed parts.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
