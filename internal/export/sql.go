package export

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	// Registers the "sqlite" database/sql driver (pure Go).
	_ "modernc.org/sqlite"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLite opens a SQLite database for writing report tables.
func SQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return db, nil
}

// WriteSQL replaces the table named t.Name with t's columns and rows in a
// single transaction. Columns are TEXT and NULL cells are stored as SQL NULL.
// It returns the number of rows written.
func WriteSQL(ctx context.Context, db *sql.DB, t Table) (int64, error) {
	if len(t.Columns) == 0 {
		return 0, ErrEmptyTable
	}
	if !identRe.MatchString(t.Name) {
		return 0, fmt.Errorf("invalid table name %q", t.Name)
	}
	defs := make([]string, len(t.Columns))
	placeholders := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		if !identRe.MatchString(c) {
			return 0, fmt.Errorf("invalid column name %q", c)
		}
		defs[i] = c + " TEXT"
		placeholders[i] = "?"
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+t.Name); err != nil {
		return 0, fmt.Errorf("drop table %s: %w", t.Name, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", t.Name, strings.Join(defs, ", "))); err != nil {
		return 0, fmt.Errorf("create table %s: %w", t.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.Name, strings.Join(t.Columns, ", "), strings.Join(placeholders, ", ")))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var n int64
	args := make([]any, len(t.Columns))
	for i, cells := range t.Rows {
		for j := range args {
			args[j] = nil
			if j < len(cells) && cells[j].Valid {
				args[j] = cells[j].Value
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}
