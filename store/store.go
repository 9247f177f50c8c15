// Package store persists compiled bundles in SQLite, keyed by a
// fingerprint of everything that went into the build.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/pyjs/compiler"
)

const schema = `
CREATE TABLE IF NOT EXISTS bundles (
	key          BLOB PRIMARY KEY,
	content_hash TEXT NOT NULL,
	record       BLOB NOT NULL,
	created_at   INTEGER NOT NULL,
	used_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS bundles_used_at ON bundles (used_at);
`

// Store is a persistent bundle cache. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	log commonlog.Logger
	now func() time.Time

	mu     sync.Mutex
	hits   int
	misses int
}

// Open opens or creates the cache database at path. The path ":memory:"
// opens a private in-memory cache.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("store: creating cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// One connection keeps an in-memory database alive and serializes
	// writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &Store{db: db, log: commonlog.GetLogger("pyjs.store"), now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the record stored under key, or nil.
func (s *Store) Get(ctx context.Context, key Key) (*Record, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT record FROM bundles WHERE key = ?`, key[:]).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		s.count(false)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", key, err)
	}
	rec, err := UnmarshalRecord(data)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE bundles SET used_at = ? WHERE key = ?`, s.now().Unix(), key[:]); err != nil {
		return nil, fmt.Errorf("store: touch %s: %w", key, err)
	}
	s.count(true)
	return rec, nil
}

// Put stores rec, replacing any record under the same key.
func (s *Store) Put(ctx context.Context, rec *Record) error {
	now := s.now().Unix()
	if rec.CreatedAt == 0 {
		rec.CreatedAt = now
	}
	data, err := MarshalRecord(rec)
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", rec.Key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO bundles (key, content_hash, record, created_at, used_at) VALUES (?, ?, ?, ?, ?)`,
		rec.Key[:], rec.ContentHash, data, rec.CreatedAt, now)
	if err != nil {
		return fmt.Errorf("store: put %s: %w", rec.Key, err)
	}
	s.log.Debugf("stored bundle %s (%d bytes)", rec.Key, len(data))
	return nil
}

// Bundle returns the bundle stored under key, or builds, stores and
// returns it. hit reports whether the bundle came from the store.
func (s *Store) Bundle(ctx context.Context, key Key, build func() (*compiler.Bundle, error)) (b *compiler.Bundle, hit bool, err error) {
	rec, err := s.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if rec != nil {
		s.log.Debugf("cache hit: %s", key)
		return rec.Bundle(), true, nil
	}
	b, err = build()
	if err != nil {
		return nil, false, err
	}
	if err := s.Put(ctx, NewRecord(key, b)); err != nil {
		return nil, false, err
	}
	return b, false, nil
}

// Prune deletes all but the keep most recently used records and returns
// how many were deleted.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bundles WHERE key NOT IN (SELECT key FROM bundles ORDER BY used_at DESC, created_at DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("store: prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Infof("pruned %d bundle(s)", n)
	}
	return n, nil
}

// Stats describes the store's contents and this process's lookups.
type Stats struct {
	Records int
	Bytes   int64
	Hits    int
	Misses  int
}

// Stats returns the current statistics.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(LENGTH(record)), 0) FROM bundles`).Scan(&st.Records, &st.Bytes)
	if err != nil {
		return st, fmt.Errorf("store: stats: %w", err)
	}
	s.mu.Lock()
	st.Hits, st.Misses = s.hits, s.misses
	s.mu.Unlock()
	return st, nil
}

func (s *Store) count(hit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hit {
		s.hits++
	} else {
		s.misses++
	}
}
