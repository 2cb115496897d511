package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type SQLiteDB struct {
	db *sqlx.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// A single connection serializes transactions and keeps ":memory:"
	// databases shared across callers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("error setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('donor', 'shelter', 'volunteer')),
			completed_deliveries INTEGER NOT NULL DEFAULT 0,
			rating REAL,
			version INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS user_availability (
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			day INTEGER NOT NULL CHECK (day BETWEEN 0 AND 6),
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			PRIMARY KEY (user_id, position)
		);

		CREATE TABLE IF NOT EXISTS foods (
			id TEXT PRIMARY KEY,
			donor_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			quantity INTEGER NOT NULL CHECK (quantity >= 1),
			unit TEXT NOT NULL,
			category TEXT NOT NULL,
			expiry_date INTEGER NOT NULL,
			pickup_start INTEGER NOT NULL,
			pickup_end INTEGER NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL CHECK (status IN ('available', 'reserved', 'picked-up', 'expired')),
			allergens TEXT NOT NULL DEFAULT '[]',
			dietary_restrictions TEXT NOT NULL DEFAULT '[]',
			matched_shelter_id TEXT,
			assigned_volunteer_id TEXT,
			version INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			CHECK (pickup_start < pickup_end),
			CHECK ((matched_shelter_id IS NULL) = (assigned_volunteer_id IS NULL))
		);

		CREATE TABLE IF NOT EXISTS deliveries (
			id TEXT PRIMARY KEY,
			food_id TEXT NOT NULL,
			volunteer_id TEXT NOT NULL,
			shelter_id TEXT NOT NULL,
			status TEXT NOT NULL CHECK (status IN ('scheduled', 'in-progress', 'completed', 'cancelled')),
			pickup_time INTEGER NOT NULL,
			estimated_delivery_time INTEGER NOT NULL,
			actual_delivery_time INTEGER,
			notes TEXT NOT NULL DEFAULT '',
			rating INTEGER CHECK (rating BETWEEN 1 AND 5),
			feedback TEXT NOT NULL DEFAULT '',
			version INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			CHECK ((status = 'completed') = (actual_delivery_time IS NOT NULL)),
			CHECK (rating IS NULL OR status = 'completed')
		);

		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			shelter_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			priority TEXT NOT NULL CHECK (priority IN ('high', 'medium', 'low')),
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			deadline INTEGER NOT NULL,
			status TEXT NOT NULL CHECK (status IN ('active', 'partially-fulfilled', 'fulfilled', 'cancelled')),
			version INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS alert_food_needs (
			alert_id TEXT NOT NULL REFERENCES alerts(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			category TEXT NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity >= 1),
			unit TEXT NOT NULL,
			urgency TEXT NOT NULL CHECK (urgency IN ('immediate', 'today', 'this-week')),
			PRIMARY KEY (alert_id, position)
		);

		CREATE TABLE IF NOT EXISTS alert_responses (
			alert_id TEXT NOT NULL REFERENCES alerts(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			donor_id TEXT NOT NULL,
			food_id TEXT NOT NULL,
			status TEXT NOT NULL CHECK (status IN ('pending', 'accepted', 'delivered', 'cancelled')),
			response_time INTEGER NOT NULL,
			PRIMARY KEY (alert_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_foods_status ON foods(status, category);
		CREATE INDEX IF NOT EXISTS idx_foods_expiry ON foods(expiry_date);
		CREATE INDEX IF NOT EXISTS idx_deliveries_volunteer ON deliveries(volunteer_id, status);
		CREATE INDEX IF NOT EXISTS idx_deliveries_pickup ON deliveries(pickup_time);
		CREATE INDEX IF NOT EXISTS idx_deliveries_shelter ON deliveries(shelter_id);
		CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status, deadline);
		CREATE INDEX IF NOT EXISTS idx_alert_needs_category ON alert_food_needs(category);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

type sqliteTx struct {
	tx *sqlx.Tx
}

// Timestamps are stored as unix nanoseconds so strict comparisons in SQL
// agree with time.Time comparisons in Go.
func toUnix(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnix(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// checkUpdated maps a zero-row conditional update to ErrConflict.
func checkUpdated(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking %s update: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrConflict)
	}
	return nil
}
