package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/censusmap/internal/fetcher"
	"github.com/sells-group/censusmap/internal/tiger"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a TIGER/Line shapefile archive",
	Long: `Downloads the zipped Census TIGER/Line shapefile for a state, geography
level, and year from the public archive. With --national, downloads the single
national file instead (STATE and COUNTY levels only).`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		state, _ := cmd.Flags().GetString("state")
		levelStr, _ := cmd.Flags().GetString("level")
		year, _ := cmd.Flags().GetInt("year")
		out, _ := cmd.Flags().GetString("out")
		national, _ := cmd.Flags().GetBool("national")
		useFTP, _ := cmd.Flags().GetBool("ftp")

		level, err := tiger.ParseLevel(levelStr)
		if err != nil {
			return err
		}
		if year == 0 {
			year = cfg.Tiger.Year
		}
		if state == "" && !national {
			return eris.New("fetch: --state is required unless --national is set")
		}

		var f fetcher.Fetcher
		if useFTP || cfg.Tiger.UseFTP {
			f = fetcher.NewFTPFetcher(fetcher.FTPOptions{})
		} else {
			f = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
		}

		path, err := tiger.Fetch(ctx, f, tiger.FetchOptions{
			Level:    level,
			Year:     year,
			State:    state,
			National: national,
			UseFTP:   useFTP || cfg.Tiger.UseFTP,
			DestPath: out,
			DestDir:  cfg.Tiger.TempDir,
		})
		if err != nil {
			return eris.Wrap(err, "fetch")
		}

		fmt.Println(path)
		return nil
	},
}

func init() {
	fetchCmd.Flags().String("state", "", "state abbreviation or 2-digit FIPS code")
	fetchCmd.Flags().String("level", "tract", "geography level: state, county, tract, bg")
	fetchCmd.Flags().Int("year", 0, "TIGER/Line year (default: from config)")
	fetchCmd.Flags().String("out", "", "output zip path (default: derived from URL under tiger.temp_dir)")
	fetchCmd.Flags().Bool("national", false, "download the national file instead of a per-state file")
	fetchCmd.Flags().Bool("ftp", false, "download from the Census FTP mirror")
	rootCmd.AddCommand(fetchCmd)
}
