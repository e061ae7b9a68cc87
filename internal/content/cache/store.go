// Package cache keeps fetched topic content in SQLite so repeated plans for
// the same topic skip the upstream API.
//
// Only content items are cached. Conversations and their cursors live in
// the in-memory plan store and are never written here.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/HendryAvila/bibly/internal/content"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Config holds cache configuration.
type Config struct {
	// DataDir holds cache.db. Empty means an in-memory database.
	DataDir string
	// TTL is how long a topic stays fresh.
	TTL time.Duration
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir: filepath.Join(home, ".bibly"),
		TTL:     24 * time.Hour,
	}
}

// Store is a topic -> items cache backed by SQLite.
type Store struct {
	db  *sql.DB
	cfg Config
	now func() time.Time
}

// New opens (or creates) the cache database and runs migrations.
func New(cfg Config) (*Store, error) {
	dsn := ":memory:"
	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return nil, fmt.Errorf("cache: create data dir: %w", err)
		}
		dsn = filepath.Join(cfg.DataDir, "cache.db")
	}

	db, err := openDB("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}
	if cfg.DataDir == "" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	if cfg.DataDir != "" {
		pragmas = append([]string{"PRAGMA journal_mode = WAL"}, pragmas...)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("cache: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS topic_items (
			topic      TEXT    PRIMARY KEY,
			items      TEXT    NOT NULL,
			item_count INTEGER NOT NULL,
			fetched_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_topic_items_fetched ON topic_items(fetched_at);
	`)
	return err
}

// Key normalises a topic into its cache key.
func Key(topic string) string {
	return strings.Join(strings.Fields(strings.ToLower(topic)), " ")
}

// Get returns the cached items for topic. A stale or absent entry reports
// ok=false without an error.
func (s *Store) Get(topic string) ([]content.Item, bool, error) {
	var (
		raw       string
		fetchedAt int64
	)
	err := s.db.QueryRow(
		`SELECT items, fetched_at FROM topic_items WHERE topic = ?`, Key(topic),
	).Scan(&raw, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %q: %w", topic, err)
	}

	if s.cfg.TTL > 0 && s.now().Sub(time.Unix(fetchedAt, 0)) > s.cfg.TTL {
		return nil, false, nil
	}

	var items []content.Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false, fmt.Errorf("cache: decode %q: %w", topic, err)
	}
	return items, true, nil
}

// Put stores items for topic, replacing any previous entry.
func (s *Store) Put(topic string, items []content.Item) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("cache: encode %q: %w", topic, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO topic_items (topic, items, item_count, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(topic) DO UPDATE SET
			items = excluded.items,
			item_count = excluded.item_count,
			fetched_at = excluded.fetched_at`,
		Key(topic), string(data), len(items), s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache: put %q: %w", topic, err)
	}
	return nil
}

// Purge deletes entries older than the TTL and returns how many were removed.
func (s *Store) Purge() (int64, error) {
	if s.cfg.TTL <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.cfg.TTL).Unix()
	res, err := s.db.Exec(`DELETE FROM topic_items WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cache: purge: %w", err)
	}
	return res.RowsAffected()
}

// Stats holds aggregate cache counters.
type Stats struct {
	Topics int `json:"topics"`
	Items  int `json:"items"`
}

// Stats reports how many topics and items are cached.
func (s *Store) Stats() (*Stats, error) {
	var st Stats
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(item_count), 0) FROM topic_items`,
	).Scan(&st.Topics, &st.Items)
	if err != nil {
		return nil, fmt.Errorf("cache: stats: %w", err)
	}
	return &st, nil
}
