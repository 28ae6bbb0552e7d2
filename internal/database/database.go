package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database/sql driver names
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

const tableName = "status_report"

// DB is the status report store backed by SQLite or PostgreSQL
type DB struct {
	db     *sqlx.DB
	driver string
	sb     sq.StatementBuilderType
	clock  clockwork.Clock
}

// New opens the store, applies driver tuning and creates the schema if needed.
// The clock stamps last_updated on every insert and update.
func New(driver, dsn string, clock clockwork.Clock) (*DB, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	var placeholder sq.PlaceholderFormat
	switch driver {
	case DriverSQLite:
		placeholder = sq.Question
	case DriverPostgres:
		placeholder = sq.Dollar
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	if driver == DriverSQLite {
		tuned, err := optimizeSQLite(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to configure database: %w", err)
		}
		dsn = tuned
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &DB{
		db:     db,
		driver: driver,
		sb:     sq.StatementBuilder.PlaceholderFormat(placeholder),
		clock:  clock,
	}

	if err := database.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// sqlitePragmas are applied by the driver to every pooled connection. Each
// entry lists the driver's accepted spellings, the first one is used when
// the DSN sets none of them.
var sqlitePragmas = []struct {
	keys  []string
	value string
}{
	// WAL lets readers (e.g. the read API) query while a cycle is writing
	{keys: []string{"_journal_mode", "_journal"}, value: "WAL"},
	{keys: []string{"_synchronous", "_sync"}, value: "NORMAL"},
	{keys: []string{"_busy_timeout", "_timeout"}, value: "5000"},
}

// optimizeSQLite adds the single-writer pragmas to a DSN unless it already
// sets them. Pragmas run with db.Exec would only reach one pooled connection.
func optimizeSQLite(dsn string) (string, error) {
	base, rawQuery, _ := strings.Cut(dsn, "?")
	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("invalid sqlite DSN parameters: %w", err)
	}

	for _, p := range sqlitePragmas {
		set := false
		for _, k := range p.keys {
			if params.Has(k) {
				set = true
				break
			}
		}
		if !set {
			params.Set(p.keys[0], p.value)
		}
	}
	return base + "?" + params.Encode(), nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks that the store is reachable
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// initSchema creates the status_report table and its indexes if they don't exist
func (d *DB) initSchema() error {
	schema := `CREATE TABLE IF NOT EXISTS status_report (
		report_id INTEGER PRIMARY KEY AUTOINCREMENT,
		facility_id TEXT NOT NULL,
		status_type TEXT NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP,
		raw_notam_text TEXT,
		last_updated TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`
	if d.driver == DriverPostgres {
		schema = `CREATE TABLE IF NOT EXISTS status_report (
			report_id SERIAL PRIMARY KEY,
			facility_id VARCHAR NOT NULL,
			status_type VARCHAR NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ,
			raw_notam_text VARCHAR,
			last_updated TIMESTAMPTZ NOT NULL DEFAULT now()
		);`
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_status_report_facility_id ON status_report(facility_id)`,
		// At most one row per natural key. A second ingester racing on the same
		// key fails its cycle here instead of writing a duplicate row.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_status_report_natural_key ON status_report(facility_id, status_type, start_time)`,
	}

	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create status_report table: %w", err)
	}

	for _, idx := range indexes {
		if _, err := d.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// reportColumns are selected for every read. raw_notam_text is nullable in
// the shared table, so NULL reads back as an empty string.
var reportColumns = []string{
	"report_id",
	"facility_id",
	"status_type",
	"start_time",
	"end_time",
	"COALESCE(raw_notam_text, '') AS raw_notam_text",
	"last_updated",
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
