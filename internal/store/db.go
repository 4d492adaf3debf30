package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB opens a Postgres connection pool and pings it. The DB is returned
// even when the ping fails so callers can decide to run degraded.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return &DB{Client: db}, db.PingContext(ctx)
}

// Healthy verifies database connectivity.
func (d *DB) Healthy(ctx context.Context) bool {
	if d == nil || d.Client == nil {
		return false
	}
	return d.Client.PingContext(ctx) == nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	organizer    TEXT NOT NULL,
	day          TEXT NOT NULL,
	subject_type TEXT NOT NULL CHECK (subject_type IN ('INDIVIDUAL', 'GROUP')),
	marking_type TEXT CHECK (marking_type IN ('SOLO', 'DUO'))
);

CREATE TABLE IF NOT EXISTS schedules (
	id           TEXT PRIMARY KEY,
	event_id     TEXT NOT NULL REFERENCES events(id),
	title        TEXT NOT NULL,
	venue        TEXT NOT NULL DEFAULT '',
	date         TEXT NOT NULL DEFAULT '',
	start_time   TEXT NOT NULL DEFAULT '',
	end_time     TEXT NOT NULL DEFAULT '',
	subject_type TEXT NOT NULL CHECK (subject_type IN ('INDIVIDUAL', 'GROUP')),
	marking_type TEXT NOT NULL CHECK (marking_type IN ('SOLO', 'DUO'))
);

CREATE INDEX IF NOT EXISTS idx_schedules_event ON schedules(event_id);

CREATE TABLE IF NOT EXISTS attendance_history (
	id             TEXT PRIMARY KEY,
	schedule_id    TEXT NOT NULL,
	participant_id TEXT NOT NULL,
	action         TEXT NOT NULL,
	direction      TEXT NOT NULL,
	source         TEXT NOT NULL DEFAULT '',
	success        BOOLEAN NOT NULL,
	error          TEXT NOT NULL DEFAULT '',
	occurred_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_schedule ON attendance_history(schedule_id, occurred_at DESC);
`

// Migrate creates the catalog and history tables if they are missing.
func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.Client.ExecContext(ctx, schema)
	return err
}
