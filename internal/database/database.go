package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver ("pgx")
	_ "modernc.org/sqlite"             // SQLite driver ("sqlite")
)

// Dialect selects placeholder style and DDL flavour.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DB is the process-wide connection pool. It is built once in main and handed
// to every service; there is no package-level handle.
type DB struct {
	*sql.DB
	dialect Dialect
}

// New opens a connection pool for the given driver ("sqlite" or "postgres") and pings it.
func New(ctx context.Context, driver, dataSourceName string) (*DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch Dialect(driver) {
	case SQLite:
		db, err = sql.Open("sqlite", sqliteDSN(dataSourceName))
		if err != nil {
			return nil, err
		}
		// SQLite allows one writer; a single connection also keeps :memory: databases coherent.
		db.SetMaxOpenConns(1)
	case Postgres:
		db, err = sql.Open("pgx", dataSourceName)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{DB: db, dialect: Dialect(driver)}, nil
}

// Wrap adopts an already opened *sql.DB.
func Wrap(db *sql.DB, dialect Dialect) *DB {
	return &DB{DB: db, dialect: dialect}
}

// Dialect returns the SQL dialect of the pool.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Migrate creates the schema. Safe to call multiple times - uses IF NOT EXISTS.
func Migrate(ctx context.Context, db *DB) error {
	stmts := sqliteSchema
	if db.dialect == Postgres {
		stmts = postgresSchema
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT UNIQUE,
		phone TEXT UNIQUE,
		hashed_password TEXT,
		display_name TEXT,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS search_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
		query TEXT NOT NULL,
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		ts DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_search_history_user_id ON search_history(user_id)`,
	`CREATE TABLE IF NOT EXISTS route_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
		type TEXT NOT NULL,
		description TEXT,
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		ts DATETIME NOT NULL,
		trust_score INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_route_reports_user_id ON route_reports(user_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR(200) UNIQUE,
		phone VARCHAR(32) UNIQUE,
		hashed_password VARCHAR(256),
		display_name VARCHAR(200),
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS search_history (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT REFERENCES users(id) ON DELETE CASCADE,
		query VARCHAR(512) NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		ts TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_search_history_user_id ON search_history(user_id)`,
	`CREATE TABLE IF NOT EXISTS route_reports (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
		type VARCHAR(64) NOT NULL,
		description TEXT,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		ts TIMESTAMPTZ NOT NULL,
		trust_score INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_route_reports_user_id ON route_reports(user_id)`,
}
