// Package history keeps an append-only journal of committed pool events
// in a relational database, queryable for audit and debugging. SQLite is
// the default standalone backend; PostgreSQL is available for deployments
// that already run one.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

// ErrJournalClosed is returned when operating on a closed journal.
var ErrJournalClosed = errors.New("journal is closed")

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the journal's connection settings.
type Config struct {
	// Driver is "sqlite" or "postgres".
	Driver string `mapstructure:"driver"`

	// DSN is the database file path for sqlite, or a connection string
	// for postgres.
	DSN string `mapstructure:"dsn"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DefaultConfig returns the standalone defaults.
func DefaultConfig() Config {
	return Config{
		Driver:          DriverSQLite,
		DSN:             "data/history.db",
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	}
}

// Entry is one journal row.
type Entry struct {
	ID      int64           `json:"id"`
	At      time.Time       `json:"at"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Journal is an open event journal.
type Journal struct {
	db     *sql.DB
	driver string
}

// Open connects, verifies the connection and creates the schema.
func Open(ctx context.Context, cfg Config) (*Journal, error) {
	switch cfg.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported history driver: %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	j := &Journal{db: db, driver: cfg.Driver}
	if err := j.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initSchema(ctx context.Context) error {
	var schema string
	switch j.driver {
	case DriverPostgres:
		schema = `CREATE TABLE IF NOT EXISTS pool_events (
			id BIGSERIAL PRIMARY KEY,
			at BIGINT NOT NULL,
			kind TEXT NOT NULL,
			payload TEXT NOT NULL
		)`
	default:
		schema = `CREATE TABLE IF NOT EXISTS pool_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at BIGINT NOT NULL,
			kind TEXT NOT NULL,
			payload TEXT NOT NULL
		)`
	}
	if _, err := j.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	idx := `CREATE INDEX IF NOT EXISTS pool_events_kind ON pool_events (kind, id)`
	_, err := j.db.ExecContext(ctx, idx)
	return err
}

// Append journals one event. The payload is stored as JSON.
func (j *Journal) Append(ctx context.Context, at time.Time, kind string, payload any) error {
	if j.db == nil {
		return ErrJournalClosed
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", kind, err)
	}

	query := `INSERT INTO pool_events (at, kind, payload) VALUES (?, ?, ?)`
	if j.driver == DriverPostgres {
		query = `INSERT INTO pool_events (at, kind, payload) VALUES ($1, $2, $3)`
	}
	_, err = j.db.ExecContext(ctx, query, at.UnixNano(), kind, string(raw))
	return err
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if j.db == nil {
		return nil, ErrJournalClosed
	}
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, at, kind, payload FROM pool_events ORDER BY id DESC LIMIT ?`
	if j.driver == DriverPostgres {
		query = `SELECT id, at, kind, payload FROM pool_events ORDER BY id DESC LIMIT $1`
	}
	return j.queryEntries(ctx, query, limit)
}

// ByKind returns up to limit entries of one event kind, newest first.
func (j *Journal) ByKind(ctx context.Context, kind string, limit int) ([]Entry, error) {
	if j.db == nil {
		return nil, ErrJournalClosed
	}
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, at, kind, payload FROM pool_events WHERE kind = ? ORDER BY id DESC LIMIT ?`
	if j.driver == DriverPostgres {
		query = `SELECT id, at, kind, payload FROM pool_events WHERE kind = $1 ORDER BY id DESC LIMIT $2`
	}
	return j.queryEntries(ctx, query, kind, limit)
}

// Count reports the number of journaled events.
func (j *Journal) Count(ctx context.Context) (int64, error) {
	if j.db == nil {
		return 0, ErrJournalClosed
	}

	var n int64
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pool_events`).Scan(&n)
	return n, err
}

func (j *Journal) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			entry   Entry
			atNanos int64
			payload string
		)
		if err := rows.Scan(&entry.ID, &atNanos, &entry.Kind, &payload); err != nil {
			return nil, err
		}
		entry.At = time.Unix(0, atNanos).UTC()
		entry.Payload = json.RawMessage(payload)
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Close closes the underlying connection pool.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}
