package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"BidSentinel/internal/model"
)

// SQLite persists the cycle state and the rolling bid window to a SQLite
// database so state survives restarts.
type SQLite struct {
	db     *sql.DB
	mu     sync.Mutex
	window int
}

// NewSQLite opens (or creates) the database and runs migrations.
func NewSQLite(dbPath string, bidWindow int) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so the status endpoint can read while the loop writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLite{db: db, window: bidWindow}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bid_records (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			listing_id INTEGER NOT NULL,
			title      TEXT,
			amount     REAL,
			currency   TEXT,
			bid_id     INTEGER,
			status     TEXT,
			placed_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bid_records_placed ON bid_records(placed_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:30], err)
		}
	}
	return nil
}

func (s *SQLite) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLite) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO kv (key, value, updated_at) VALUES (?,?,?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *SQLite) RecordBid(rec model.BidRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO bid_records
		(listing_id, title, amount, currency, bid_id, status, placed_at)
		VALUES (?,?,?,?,?,?,?)`,
		rec.ListingID, rec.Title, rec.Amount, rec.Currency, rec.BidID, rec.Status, rec.PlacedAt.Unix())
	if err != nil {
		return fmt.Errorf("record bid: %w", err)
	}

	if s.window > 0 {
		_, err = s.db.Exec(`DELETE FROM bid_records WHERE id NOT IN
			(SELECT id FROM bid_records ORDER BY id DESC LIMIT ?)`, s.window)
		if err != nil {
			return fmt.Errorf("trim bid records: %w", err)
		}
	}
	return nil
}

func (s *SQLite) RecentBids(limit int) ([]model.BidRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT listing_id, title, amount, currency, bid_id, status, placed_at
		FROM bid_records ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent bids: %w", err)
	}
	defer rows.Close()

	var out []model.BidRecord
	for rows.Next() {
		var rec model.BidRecord
		var placedAt int64
		if err := rows.Scan(&rec.ListingID, &rec.Title, &rec.Amount, &rec.Currency,
			&rec.BidID, &rec.Status, &placedAt); err != nil {
			return nil, fmt.Errorf("scan bid record: %w", err)
		}
		rec.PlacedAt = time.Unix(placedAt, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
