package database

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// Session is a transaction scoped to one unit of work. Queries are written
// with '?' placeholders and rebound for the pool's dialect.
type Session struct {
	tx      *sql.Tx
	dialect Dialect
}

func (s *Session) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.tx.ExecContext(ctx, Rebind(s.dialect, query), args...)
}

func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.tx.QueryContext(ctx, Rebind(s.dialect, query), args...)
}

func (s *Session) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.tx.QueryRowContext(ctx, Rebind(s.dialect, query), args...)
}

// WithSession begins a transaction, runs fn with it, and then commits on
// success or rolls back on error/panic. Panics are rethrown. The session is
// released on every path.
//
// Typical use:
//
//	err := db.WithSession(ctx, func(ctx context.Context, s *database.Session) error {
//	    _, err := s.ExecContext(ctx, "INSERT ...")
//	    return err
//	})
func (db *DB) WithSession(ctx context.Context, fn func(ctx context.Context, s *Session) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, &Session{tx: tx, dialect: db.dialect})
	return err
}

// Rebind rewrites '?' placeholders to '$n' for PostgreSQL. Question marks
// inside single-quoted literals are left alone.
func Rebind(d Dialect, query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
