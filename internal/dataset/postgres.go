package dataset

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sitesales/internal/db"
	"github.com/sells-group/sitesales/internal/model"
)

// LoadPostgres reads every district row from table ordered by period,
// district code and category.
func LoadPostgres(ctx context.Context, pool db.Pool, table string) ([]model.DistrictRecord, error) {
	if !db.ValidIdentifier(table) {
		return nil, eris.Errorf("dataset: invalid table name %q", table)
	}

	rows, err := pool.Query(ctx, selectSQL(table)+" ORDER BY period, district_code, category")
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: query %s", table)
	}
	defer rows.Close()

	var out []model.DistrictRecord
	s := newScanner()
	for rows.Next() {
		if err := rows.Scan(s.dest...); err != nil {
			return nil, eris.Wrapf(err, "dataset: scan %s row %d", table, len(out)+1)
		}
		out = append(out, s.record())
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "dataset: iterate %s", table)
	}
	return out, nil
}

// ImportPostgres creates table if needed and bulk-loads rows via COPY.
func ImportPostgres(ctx context.Context, pool db.Pool, table string, rows []model.DistrictRecord) (int64, error) {
	if !db.ValidIdentifier(table) {
		return 0, eris.Errorf("dataset: invalid table name %q", table)
	}
	if _, err := pool.Exec(ctx, createSQL(table, "DOUBLE PRECISION")); err != nil {
		return 0, eris.Wrapf(err, "dataset: create %s", table)
	}

	batch := make([][]any, len(rows))
	for i := range rows {
		batch[i] = values(&rows[i])
	}
	n, err := db.CopyFrom(ctx, pool, table, Columns(), batch)
	if err != nil {
		return 0, eris.Wrap(err, "dataset: import postgres")
	}
	zap.L().Info("dataset: imported rows", zap.String("table", table), zap.Int64("rows", n))
	return n, nil
}
