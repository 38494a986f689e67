package dataset

import (
	"context"
	"fmt"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sitesales/internal/model"
)

func TestLoadPostgres(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	want := sampleRows()
	rows := pgxmock.NewRows(Columns())
	for i := range want {
		rows.AddRow(values(&want[i])...)
	}
	mock.ExpectQuery(`SELECT .* FROM geo\.districts ORDER BY period, district_code, category`).
		WillReturnRows(rows)

	got, err := LoadPostgres(context.Background(), mock, "geo.districts")
	require.NoError(t, err)
	require.Len(t, got, len(want))
	assert.Equal(t, "건대입구역", got[0].DistrictName)
	assert.Equal(t, 1000.0, model.Value(got[0].MonthlySales))
	assert.Nil(t, got[1].MonthlySales)
	assert.Equal(t, 7.0, model.Value(got[1].Competitors300m))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadPostgres_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT .* FROM districts`).WillReturnError(fmt.Errorf("relation does not exist"))

	_, err = LoadPostgres(context.Background(), mock, "districts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query districts")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadPostgres_InvalidTable(t *testing.T) {
	_, err := LoadPostgres(context.Background(), nil, "districts; --")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid table name")
}

func TestImportPostgres(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS districts`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom([]string{"districts"}, Columns()).WillReturnResult(4)

	n, err := ImportPostgres(context.Background(), mock, "districts", sampleRows())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportPostgres_CreateError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE`).WillReturnError(fmt.Errorf("permission denied"))

	_, err = ImportPostgres(context.Background(), mock, "districts", sampleRows())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create districts")
}
