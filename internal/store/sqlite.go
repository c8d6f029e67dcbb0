package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSeenStore persists the seen set across matches
type SQLiteSeenStore struct {
	conn      *sql.DB
	catalogue []string
	rng       *rand.Rand
	mu        sync.Mutex
}

// NewSQLiteSeenStore opens (or creates) the database at dbPath
func NewSQLiteSeenStore(dbPath string, catalogue []string) (*SQLiteSeenStore, error) {
	dsn := ":memory:"
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory failed: %w", err)
		}
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database failed: %w", err)
	}
	// a single connection also keeps :memory: databases alive
	conn.SetMaxOpenConns(1)

	s := &SQLiteSeenStore{
		conn:      conn,
		catalogue: append([]string(nil), catalogue...),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteSeenStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS seen_articles (
		path TEXT PRIMARY KEY,
		seen_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// UnseenCandidates returns up to n shuffled unseen paths. The table is
// cleared when the catalogue runs low.
func (s *SQLiteSeenStore) UnseenCandidates(ctx context.Context, n int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.conn.QueryContext(ctx, `SELECT path FROM seen_articles`)
	if err != nil {
		return nil, fmt.Errorf("query seen: %w", err)
	}
	seen := make(map[string]bool)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan seen: %w", err)
		}
		seen[path] = true
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	picked, reset := selectUnseen(s.catalogue, seen, n, s.rng)
	if reset {
		if _, err := s.conn.ExecContext(ctx, `DELETE FROM seen_articles`); err != nil {
			return nil, fmt.Errorf("reset seen: %w", err)
		}
		log.Printf("[store] seen articles reset (%d were seen)", len(seen))
	}
	return picked, nil
}

// MarkSeen records paths as used
func (s *SQLiteSeenStore) MarkSeen(ctx context.Context, paths []string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO seen_articles (path, seen_at) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range paths {
		if _, err := stmt.ExecContext(ctx, p, now); err != nil {
			return fmt.Errorf("mark %s: %w", p, err)
		}
	}
	return tx.Commit()
}

// Close closes the database connection
func (s *SQLiteSeenStore) Close() error {
	return s.conn.Close()
}
