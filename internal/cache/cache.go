// Package cache persists extracted tags per file so unchanged files are
// never re-parsed. The store is a pure acceleration layer: every failure
// degrades to a cache miss and the parser falls back to a fresh parse.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"codemap/internal/tag"
)

// TagCache is a SQLite-backed file path → tags store with fingerprint
// invalidation. *sql.DB serializes access, and each write is a single
// upsert, so concurrent Set calls cannot leave a partial entry visible.
type TagCache struct {
	db       *sql.DB
	location string
}

// Stats describes the cache contents.
type Stats struct {
	CachedFiles int    `json:"cached_files"`
	TotalTags   int    `json:"total_tags"`
	Location    string `json:"cache_location"`
	SizeBytes   int64  `json:"approx_size_bytes"`
}

// DefaultLocation returns the user-scoped default database path.
func DefaultLocation() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(dir, "codemap", "tags.db"), nil
}

// Open creates or opens the cache database at path, creating parent
// directories as needed.
func Open(path string) (*TagCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	c := &TagCache{db: db, location: path}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return c, nil
}

func (c *TagCache) Close() error {
	return c.db.Close()
}

// Location returns the database path.
func (c *TagCache) Location() string {
	return c.location
}

func (c *TagCache) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS files (
			path TEXT PRIMARY KEY,
			size INTEGER NOT NULL,
			mtime_ns INTEGER NOT NULL,
			content_hash INTEGER NOT NULL,
			tag_count INTEGER NOT NULL,
			tags JSON NOT NULL
		);`,
		`PRAGMA journal_mode=WAL;`,
	}
	for _, q := range queries {
		if _, err := c.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the cached tags for path, or ok=false when the path was never
// cached or its fingerprint no longer matches the file on disk. A deleted
// file fails fingerprinting and therefore reads as a miss, not an error.
func (c *TagCache) Get(path string) ([]tag.Tag, bool) {
	row := c.db.QueryRow(
		`SELECT size, mtime_ns, content_hash, tags FROM files WHERE path = ?`, path)

	var (
		size, mtimeNS int64
		hash          int64
		blob          []byte
	)
	if err := row.Scan(&size, &mtimeNS, &hash, &blob); err != nil {
		if err != sql.ErrNoRows {
			log.Warn().Err(err).Str("file", path).Msg("cache read failed, treating as miss")
		}
		return nil, false
	}

	current, err := fingerprintFile(path)
	if err != nil {
		return nil, false
	}
	if current.size != size || current.mtimeNS != mtimeNS || int64(current.hash) != hash {
		return nil, false
	}

	var tags []tag.Tag
	if err := json.Unmarshal(blob, &tags); err != nil {
		log.Warn().Err(err).Str("file", path).Msg("cache entry corrupt, treating as miss")
		return nil, false
	}
	if tags == nil {
		tags = []tag.Tag{}
	}
	return tags, true
}

// Set stores tags for path together with the file's current fingerprint,
// atomically replacing any prior entry. Failures are logged and swallowed;
// a failed write only costs a reparse later.
func (c *TagCache) Set(path string, tags []tag.Tag) {
	fp, err := fingerprintFile(path)
	if err != nil {
		log.Debug().Err(err).Str("file", path).Msg("cannot fingerprint, not caching")
		return
	}

	if tags == nil {
		tags = []tag.Tag{}
	}
	blob, err := json.Marshal(tags)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("cannot encode tags, not caching")
		return
	}

	_, err = c.db.Exec(`
		INSERT INTO files (path, size, mtime_ns, content_hash, tag_count, tags)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size=excluded.size,
			mtime_ns=excluded.mtime_ns,
			content_hash=excluded.content_hash,
			tag_count=excluded.tag_count,
			tags=excluded.tags
	`, path, fp.size, fp.mtimeNS, int64(fp.hash), len(tags), blob)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("cache write failed")
	}
}

// Invalidate removes any entry for path.
func (c *TagCache) Invalidate(path string) error {
	_, err := c.db.Exec(`DELETE FROM files WHERE path = ?`, path)
	return err
}

// Clear removes all entries.
func (c *TagCache) Clear() error {
	_, err := c.db.Exec(`DELETE FROM files`)
	return err
}

// GetStats reports cache contents and on-disk size.
func (c *TagCache) GetStats() Stats {
	st := Stats{Location: c.location}

	row := c.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(tag_count), 0) FROM files`)
	if err := row.Scan(&st.CachedFiles, &st.TotalTags); err != nil {
		log.Warn().Err(err).Msg("cache stats query failed")
	}
	if info, err := os.Stat(c.location); err == nil {
		st.SizeBytes = info.Size()
	}
	return st
}
