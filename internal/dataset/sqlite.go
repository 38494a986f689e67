package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/sitesales/internal/db"
	"github.com/sells-group/sitesales/internal/model"
)

// OpenSQLite opens a SQLite database and configures it for read-mostly use.
func OpenSQLite(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return conn, nil
}

// LoadSQLite reads every district row from table in rowid order, which is
// the order rows were imported.
func LoadSQLite(ctx context.Context, conn *sql.DB, table string) ([]model.DistrictRecord, error) {
	if !db.ValidIdentifier(table) {
		return nil, eris.Errorf("dataset: invalid table name %q", table)
	}

	rows, err := conn.QueryContext(ctx, selectSQL(table)+" ORDER BY rowid")
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query %s", table)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.DistrictRecord
	s := newScanner()
	for rows.Next() {
		if err := rows.Scan(s.dest...); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan %s row %d", table, len(out)+1)
		}
		out = append(out, s.record())
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "sqlite: iterate %s", table)
	}
	return out, nil
}

// ImportSQLite creates table if needed and inserts rows in one transaction.
func ImportSQLite(ctx context.Context, conn *sql.DB, table string, rows []model.DistrictRecord) (int64, error) {
	if !db.ValidIdentifier(table) {
		return 0, eris.Errorf("dataset: invalid table name %q", table)
	}
	if _, err := conn.ExecContext(ctx, createSQL(table, "REAL")); err != nil {
		return 0, eris.Wrapf(err, "sqlite: create %s", table)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	cols := Columns()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), placeholders))
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i := range rows {
		if _, err := stmt.ExecContext(ctx, values(&rows[i])...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert row %d", i+1)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}

	zap.L().Info("dataset: imported rows", zap.String("table", table), zap.Int("rows", len(rows)))
	return int64(len(rows)), nil
}
