// Package traffic counts site visits per UTC calendar day.
//
// One row exists per day: the first visit of a day creates it with count 1
// and every later visit increments it. The increment is a single atomic
// upsert so concurrent requests hitting the same date cannot lose counts.
package traffic

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DateLayout is the storage key format for a calendar day.
const DateLayout = "2006-01-02"

// Day is one stored traffic record.
type Day struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Store provides database operations for traffic counting. It owns its own
// SQLite database, separate from the content store.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the traffic database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open traffic db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
	`); err != nil {
		return nil, fmt.Errorf("configure traffic db: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS traffic (
			date TEXT PRIMARY KEY,
			count INTEGER NOT NULL
		);
	`)
	return err
}

// RecordVisit counts one visit against now's UTC calendar day.
func (s *Store) RecordVisit(now time.Time) error {
	date := now.UTC().Format(DateLayout)
	_, err := s.db.Exec(`
		INSERT INTO traffic (date, count) VALUES (?, 1)
		ON CONFLICT(date) DO UPDATE SET count = count + 1
	`, date)
	if err != nil {
		return fmt.Errorf("record visit for %s: %w", date, err)
	}
	return nil
}

// Count returns the stored visit count for the given day, or 0 when no
// record exists yet.
func (s *Store) Count(day time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT count FROM traffic WHERE date = ?`, day.UTC().Format(DateLayout)).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return count, err
}

// Range returns the daily records between from and to inclusive, oldest
// first. Days without visits have no record and are simply absent.
func (s *Store) Range(from, to time.Time) ([]Day, error) {
	rows, err := s.db.Query(`SELECT date, count FROM traffic WHERE date >= ? AND date <= ? ORDER BY date ASC`,
		from.UTC().Format(DateLayout), to.UTC().Format(DateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var days []Day
	for rows.Next() {
		var d Day
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// Cleanup removes records older than retentionDays.
func (s *Store) Cleanup(retentionDays int) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(DateLayout)
	if _, err := s.db.Exec(`DELETE FROM traffic WHERE date < ?`, cutoff); err != nil {
		return fmt.Errorf("cleanup traffic: %w", err)
	}
	return nil
}
