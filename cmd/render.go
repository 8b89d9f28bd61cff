package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/censusmap/internal/acs"
	"github.com/sells-group/censusmap/internal/fetcher"
	"github.com/sells-group/censusmap/internal/geo"
	"github.com/sells-group/censusmap/internal/render"
	"github.com/sells-group/censusmap/internal/tiger"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Fetch, join, and render a choropleth map",
	Long: `Runs the full pipeline: downloads the TIGER/Line shapefile for the
requested geography, queries the ACS API for the given variable, joins the two
by GEOID, and writes a choropleth HTML document named after the level
(state.html, county.html, tract.html, bg.html).

With --dissolve, tract-level data is additionally aggregated to counties and
written as county.html. Rows whose GEOID has no matching ACS record are
dropped from the map; the drop count is logged.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		state, _ := cmd.Flags().GetString("state")
		levelStr, _ := cmd.Flags().GetString("level")
		varCode, _ := cmd.Flags().GetString("var")
		varsFile, _ := cmd.Flags().GetString("vars-file")
		year, _ := cmd.Flags().GetInt("year")
		tigerYear, _ := cmd.Flags().GetInt("tiger-year")
		dissolve, _ := cmd.Flags().GetBool("dissolve")
		xlsxOut, _ := cmd.Flags().GetString("xlsx")
		outDir, _ := cmd.Flags().GetString("out-dir")
		useFTP, _ := cmd.Flags().GetBool("ftp")

		if varCode == "" {
			return eris.New("render: --var is required")
		}
		level, err := tiger.ParseLevel(levelStr)
		if err != nil {
			return err
		}
		if dissolve && level != tiger.LevelTract {
			return eris.New("render: --dissolve requires --level tract")
		}
		if tigerYear == 0 {
			tigerYear = cfg.Tiger.Year
		}
		if outDir == "" {
			outDir = cfg.Output.Dir
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return eris.Wrap(err, "render: create output dir")
		}

		national := state == ""
		if national && !level.National() {
			return eris.Errorf("render: --state is required for level %s", level)
		}
		fips := ""
		if !national {
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

		log := zap.L().With(zap.String("command", "render"))

		// Shapefile side.
		var f fetcher.Fetcher
		if useFTP || cfg.Tiger.UseFTP {
			f = fetcher.NewFTPFetcher(fetcher.FTPOptions{})
		} else {
			f = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
		}
		zipPath, err := tiger.Fetch(ctx, f, tiger.FetchOptions{
			Level:    level,
			Year:     tigerYear,
			State:    state,
			National: national,
			UseFTP:   useFTP || cfg.Tiger.UseFTP,
			DestDir:  cfg.Tiger.TempDir,
		})
		if err != nil {
			return eris.Wrap(err, "render: fetch shapefile")
		}

		ds, err := tiger.Load(zipPath)
		if err != nil {
			return eris.Wrap(err, "render: load shapefile")
		}
		log.Info("shapefile loaded", zap.Int("features", ds.Len()))

		// Statistical side.
		client, closeCache, err := newACSClient(year)
		if err != nil {
			return err
		}
		defer closeCache()

		recs, err := queryLevel(ctx, client, level, fips, varCode)
		if err != nil {
			return eris.Wrap(err, "render: query ACS")
		}
		log.Info("ACS records fetched", zap.Int("records", len(recs)))

		vars := []string{varCode}
		joined, dropped, err := geo.Join(ds, acs.ByGEOID(recs, level), "geoid")
		if err != nil {
			return eris.Wrap(err, "render: join")
		}
		if dropped > 0 {
			log.Warn("geometries without matching ACS records were dropped",
				zap.Int("dropped", dropped),
				zap.Int("kept", joined.Len()),
			)
		}

		outPath := filepath.Join(outDir, level.OutputName())
		if err := render.WriteMap(joined, outPath, render.Options{
			ValueColumn: varCode,
			ValueLabel:  catalog.Label(varCode),
			NameColumn:  "name",
		}); err != nil {
			return err
		}
		fmt.Println(outPath)

		if dissolve {
			counties, err := geo.Dissolve(joined, "geoid", tiger.LevelCounty.GEOIDLen(), vars)
			if err != nil {
				return eris.Wrap(err, "render: dissolve to counties")
			}
			countyPath := filepath.Join(outDir, tiger.LevelCounty.OutputName())
			if err := render.WriteMap(counties, countyPath, render.Options{
				ValueColumn: varCode,
				ValueLabel:  catalog.Label(varCode),
			}); err != nil {
				return err
			}
			fmt.Println(countyPath)
		}

		if xlsxOut != "" {
			labels := map[string]string{varCode: catalog.Label(varCode)}
			if err := render.ExportXLSX(joined, xlsxOut, string(level), labels); err != nil {
				return err
			}
			fmt.Println(xlsxOut)
		}

		return nil
	},
}

func init() {
	renderCmd.Flags().String("state", "", "state abbreviation or 2-digit FIPS code (omit for a national state/county map)")
	renderCmd.Flags().String("level", "tract", "geography level: state, county, tract, bg")
	renderCmd.Flags().String("var", "", "ACS variable code to shade, e.g. B01003_001E")
	renderCmd.Flags().String("vars-file", "", "YAML catalog mapping variable codes to labels")
	renderCmd.Flags().Int("year", 0, "ACS year (default: from config)")
	renderCmd.Flags().Int("tiger-year", 0, "TIGER/Line year (default: from config)")
	renderCmd.Flags().Bool("dissolve", false, "also aggregate tracts to counties and render county.html")
	renderCmd.Flags().String("xlsx", "", "export the joined attribute table to this XLSX path")
	renderCmd.Flags().String("out-dir", "", "output directory (default: from config)")
	renderCmd.Flags().Bool("ftp", false, "download shapefiles from the Census FTP mirror")
	rootCmd.AddCommand(renderCmd)
}

// queryLevel fetches ACS records for the level. Tract and block-group queries
// fan out per county; state-level queries cover all states when fips is empty.
// Only the shaded variable is requested: the shapefile already carries a name
// column, so joining the API's NAME would duplicate it in exports.
func queryLevel(ctx context.Context, client *acs.Client, level tiger.Level, fips, varCode string) ([]acs.Record, error) {
	vars := []string{varCode}

	switch level {
	case tiger.LevelState, tiger.LevelCounty:
		return client.Query(ctx, vars, acs.Geography{Level: level, State: fips})
	default:
		counties, err := client.Counties(ctx, fips)
		if err != nil {
			return nil, eris.Wrap(err, "list counties")
		}
		return client.QueryCounties(ctx, vars, level, fips, counties)
	}
}
