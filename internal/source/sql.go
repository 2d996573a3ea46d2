package source

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	// Registers the "sqlite" database/sql driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/loanlens/loanlens/internal/config"
	"github.com/loanlens/loanlens/internal/model"
	"github.com/loanlens/loanlens/internal/snapshot"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQL reads snapshot rows from a database table. Every column is selected as
// text so that dates and amounts go through the same parsing as CSV input.
type SQL struct {
	db    *sql.DB
	kind  string
	table string
}

// NewSQL wraps an open database handle. table may be schema-qualified.
func NewSQL(db *sql.DB, kind, table string) (*SQL, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SQL{db: db, kind: kind, table: table}, nil
}

func openSQLite(ctx context.Context, cfg config.SourceConfig) (Source, error) {
	return openSQL(ctx, "sqlite", "sqlite", cfg)
}

func openPostgres(ctx context.Context, cfg config.SourceConfig) (Source, error) {
	return openSQL(ctx, "postgres", "pgx", cfg)
}

func openSQL(ctx context.Context, kind, driver string, cfg config.SourceConfig) (Source, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("%s source: dsn is required", kind)
	}
	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s source: open: %w", kind, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s source: ping: %w", kind, err)
	}

	src, err := NewSQL(db, kind, cfg.Table)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s source: %w", kind, err)
	}
	return src, nil
}

// Describe returns the source kind and table.
func (s *SQL) Describe() string { return s.kind + ":" + s.table }

// Close closes the underlying database.
func (s *SQL) Close() error { return s.db.Close() }

// Query returns the statement used to read the table.
func (s *SQL) Query() string {
	cols := make([]string, len(snapshot.Columns))
	for i, c := range snapshot.Columns {
		cols[i] = fmt.Sprintf("CAST(%s AS TEXT)", c)
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), s.table)
}

// checkColumns reads the table's column names without fetching rows and
// fails with snapshot.ErrMissingColumn when a required one is absent.
func (s *SQL) checkColumns(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", s.table))
	if err != nil {
		return fmt.Errorf("%s query failed: %w", s.Describe(), err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("%s columns: %w", s.Describe(), err)
	}
	if _, err := snapshot.ParseHeader(cols); err != nil {
		return fmt.Errorf("%s: %w", s.Describe(), err)
	}
	return nil
}

// Load reads every row of the table.
func (s *SQL) Load(ctx context.Context) ([]model.RawRecord, error) {
	if err := s.checkColumns(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.Query())
	if err != nil {
		return nil, fmt.Errorf("%s query failed: %w", s.Describe(), err)
	}
	defer rows.Close()

	var recs []model.RawRecord
	for rows.Next() {
		var borrower, loan, issued, reported, balance, repaid sql.NullString
		if err := rows.Scan(&borrower, &loan, &issued, &reported, &balance, &repaid); err != nil {
			return nil, fmt.Errorf("%s scan: %w", s.Describe(), err)
		}
		recs = append(recs, model.RawRecord{
			BorrowerID:         borrower.String,
			LoanID:             loan.String,
			LoanIssuedAt:       issued.String,
			ReportDateLocal:    reported.String,
			OutstandingBalance: snapshot.ParseAmount(balance.String),
			RepaidAmountDay:    snapshot.ParseAmount(repaid.String),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", s.Describe(), err)
	}
	return recs, nil
}
