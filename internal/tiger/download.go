package tiger

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/censusmap/internal/fetcher"
)

// FetchOptions configures a shapefile archive download.
type FetchOptions struct {
	Level    Level
	Year     int
	State    string // abbreviation or 2-digit FIPS; empty with National=true
	National bool   // use the national file (STATE/COUNTY only)
	UseFTP   bool   // fetch from the FTP mirror instead of HTTPS
	DestPath string // target zip path; derived from the URL when empty
	DestDir  string // directory for the derived path
}

// Fetch downloads the zipped shapefile for the given options and returns the
// local path of the archive. An existing non-empty archive at the target path
// is reused without a network call.
func Fetch(ctx context.Context, f fetcher.Fetcher, opts FetchOptions) (string, error) {
	var url, fips string

	switch {
	case opts.National:
		if !opts.Level.National() {
			return "", eris.Errorf("tiger: no national file for level %s", opts.Level)
		}
		if opts.UseFTP {
			url = NationalFTPArchiveURL(opts.Level, opts.Year)
		} else {
			url = NationalArchiveURL(opts.Level, opts.Year)
		}
	default:
		var err error
		fips, err = ResolveState(opts.State)
		if err != nil {
			return "", err
		}
		if opts.UseFTP {
			url = FTPArchiveURL(opts.Level, opts.Year, fips)
		} else {
			url = ArchiveURL(opts.Level, opts.Year, fips)
		}
	}

	destPath := opts.DestPath
	if destPath == "" {
		destPath = filepath.Join(opts.DestDir, filepath.Base(url))
	}
	if dir := filepath.Dir(destPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", eris.Wrap(err, "tiger: create dest dir")
		}
	}

	log := zap.L().With(
		zap.String("component", "tiger.fetch"),
		zap.String("url", url),
	)

	// Skip download if the archive already exists with content.
	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		log.Debug("archive already exists, skipping download", zap.String("path", destPath))
		return destPath, nil
	}

	log.Info("downloading TIGER shapefile",
		zap.String("level", string(opts.Level)),
		zap.Int("year", opts.Year),
		zap.String("state_fips", fips),
	)

	n, err := f.DownloadToFile(ctx, url, destPath)
	if err != nil {
		return "", eris.Wrapf(err, "tiger: download %s", url)
	}

	log.Info("shapefile downloaded", zap.String("path", destPath), zap.Int64("bytes", n))
	return destPath, nil
}
