package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/scatterclass/pkg/config"
	"github.com/vanderheijden86/scatterclass/pkg/loader"
	"github.com/vanderheijden86/scatterclass/pkg/model"
)

// SQLiteReader provides read access to a points table in a SQLite database
type SQLiteReader struct {
	db    *sql.DB
	path  string
	table string
	cols  config.SQLiteConfig
}

// NewSQLiteReader opens a SQLite database read-only. The table comes from
// source.Table when set, otherwise from cols.Table.
func NewSQLiteReader(source DataSource, cols config.SQLiteConfig) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}
	table := source.Table
	if table == "" {
		table = cols.Table
	}
	if table == "" {
		return nil, fmt.Errorf("no table configured for %s", source.Path)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	return &SQLiteReader{
		db:    db,
		path:  source.Path,
		table: table,
		cols:  cols,
	}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadRows reads label, y and x from every row of the table in rowid order.
// Rows whose numbers do not parse are skipped and reported to warn, the same
// way the text loader treats bad lines.
func (r *SQLiteReader) LoadRows(ctx context.Context, warn func(string)) ([]model.Row, error) {
	if warn == nil {
		warn = func(string) {}
	}
	query := fmt.Sprintf("SELECT %s, %s, %s FROM %s",
		quoteIdent(r.cols.LabelColumn), quoteIdent(r.cols.YColumn), quoteIdent(r.cols.XColumn),
		quoteIdent(r.table))

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.table, err)
	}
	defer rows.Close()

	var out []model.Row
	n := 0
	for rows.Next() {
		n++
		var label, yText, xText sql.NullString
		if err := rows.Scan(&label, &yText, &xText); err != nil {
			warn(fmt.Sprintf("skipping row %d: %v", n, err))
			continue
		}
		row, err := toRow(label, yText, xText)
		if err != nil {
			warn(fmt.Sprintf("skipping row %d: %v", n, err))
			continue
		}
		row.Line = n
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", r.table, err)
	}
	if len(out) == 0 {
		return nil, loader.ErrNoRows
	}
	return out, nil
}

// CountRows returns the number of rows in the table.
func (r *SQLiteReader) CountRows(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(r.table)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", r.table, err)
	}
	return count, nil
}

func toRow(label, yText, xText sql.NullString) (model.Row, error) {
	if !yText.Valid || !xText.Valid {
		return model.Row{}, fmt.Errorf("null coordinate")
	}
	y, err := loader.ParseNumber(yText.String)
	if err != nil {
		return model.Row{}, fmt.Errorf("y: %w", err)
	}
	x, err := loader.ParseNumber(xText.String)
	if err != nil {
		return model.Row{}, fmt.Errorf("x: %w", err)
	}
	row := model.Row{Label: strings.TrimSpace(label.String), Y: y, X: x}
	if err := row.Validate(); err != nil {
		return model.Row{}, err
	}
	return row, nil
}

// quoteIdent quotes a SQL identifier so configured names cannot inject SQL.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
