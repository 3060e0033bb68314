package fetch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/signadot/tony-format/jsonschema/format"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

// Cache keeps fetched documents in a sqlite database, compressed with
// zstd. Only URLs whose scheme is in Schemes are cached.
type Cache struct {
	Fetcher Fetcher
	// TTL bounds the age of cached documents; zero means forever.
	TTL     time.Duration
	Schemes []string

	db     *sql.DB
	enc    *zstd.Encoder
	dec    *zstd.Decoder
	logger *slog.Logger
	now    func() time.Time
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS documents (
	url        TEXT PRIMARY KEY,
	format     INTEGER NOT NULL,
	body       BLOB NOT NULL,
	fetched_at INTEGER NOT NULL
)`

// OpenCache opens or creates the cache database at path.
func OpenCache(path string, f Fetcher, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Cache{
		Fetcher: f,
		Schemes: []string{"http", "https"},
		db:      db,
		enc:     enc,
		dec:     dec,
		logger:  logger,
		now:     time.Now,
	}, nil
}

func (c *Cache) Close() error {
	c.dec.Close()
	if err := c.enc.Close(); err != nil {
		_ = c.db.Close()
		return err
	}
	return c.db.Close()
}

func (c *Cache) Fetch(ctx context.Context, u *url.URL) (*Document, error) {
	if !slices.Contains(c.Schemes, u.Scheme) {
		return c.Fetcher.Fetch(ctx, u)
	}
	loc := docURL(u)
	doc, err := c.get(ctx, loc)
	if err != nil {
		c.logger.Warn("cache read failed", "url", loc, "error", err)
	}
	if doc != nil {
		return doc, nil
	}
	doc, err = c.Fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	if err := c.put(ctx, doc); err != nil {
		c.logger.Warn("cache write failed", "url", loc, "error", err)
	}
	return doc, nil
}

func (c *Cache) get(ctx context.Context, loc string) (*Document, error) {
	var (
		fmat    int
		body    []byte
		fetched int64
	)
	row := c.db.QueryRowContext(ctx,
		`SELECT format, body, fetched_at FROM documents WHERE url = ?`, loc)
	if err := row.Scan(&fmat, &body, &fetched); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if c.TTL > 0 && c.now().Sub(time.Unix(fetched, 0)) > c.TTL {
		return nil, nil
	}
	d, err := c.dec.DecodeAll(body, nil)
	if err != nil {
		return nil, fmt.Errorf("corrupt cache entry: %w", err)
	}
	return &Document{URL: loc, Data: d, Format: format.Format(fmat)}, nil
}

func (c *Cache) put(ctx context.Context, doc *Document) error {
	body := c.enc.EncodeAll(doc.Data, nil)
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO documents (url, format, body, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET format = excluded.format, body = excluded.body, fetched_at = excluded.fetched_at`,
		doc.URL, int(doc.Format), body, c.now().Unix())
	return err
}

// Purge removes every cached document.
func (c *Cache) Purge(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM documents`)
	return err
}

// Len returns the number of cached documents.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}
