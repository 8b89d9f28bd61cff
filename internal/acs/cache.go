package acs

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Cache stores raw ACS API responses in SQLite keyed by request URL, so
// repeated renders of the same state do not burn API quota.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
}

const cacheMigration = `
CREATE TABLE IF NOT EXISTS acs_responses (
	url        TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	fetched_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_acs_responses_fetched_at ON acs_responses(fetched_at);
`

// OpenCache opens (creating if needed) the response cache at the given path.
// Entries older than ttl are treated as misses and overwritten on next fetch.
func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "acs: open cache")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "acs: exec %s", pragma)
		}
	}
	if _, err := db.Exec(cacheMigration); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "acs: migrate cache")
	}
	return &Cache{db: db, ttl: ttl}, nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached body for a URL if present and fresh.
func (c *Cache) Get(ctx context.Context, url string) ([]byte, bool, error) {
	var body []byte
	var fetchedAt time.Time
	err := c.db.QueryRowContext(ctx,
		`SELECT body, fetched_at FROM acs_responses WHERE url = ?`, url,
	).Scan(&body, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "acs: cache select")
	}
	if c.ttl > 0 && time.Since(fetchedAt) > c.ttl {
		return nil, false, nil
	}
	return body, true, nil
}

// Put stores or refreshes the cached body for a URL.
func (c *Cache) Put(ctx context.Context, url string, body []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO acs_responses (url, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT (url) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		url, body, time.Now().UTC(),
	)
	return eris.Wrap(err, "acs: cache insert")
}

// Prune deletes entries older than the TTL. Returns the number removed.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM acs_responses WHERE fetched_at < ?`,
		time.Now().UTC().Add(-c.ttl),
	)
	if err != nil {
		return 0, eris.Wrap(err, "acs: cache prune")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "acs: cache prune rows affected")
	}
	return n, nil
}
