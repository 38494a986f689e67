package dataset

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_ImportThenLoad(t *testing.T) {
	conn, err := OpenSQLite(filepath.Join(t.TempDir(), "districts.db"))
	require.NoError(t, err)
	defer conn.Close() //nolint:errcheck

	ctx := context.Background()
	n, err := ImportSQLite(ctx, conn, "districts", sampleRows())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	got, err := LoadSQLite(ctx, conn, "districts")
	require.NoError(t, err)
	assert.Equal(t, sampleRows(), got)
}

func TestSQLite_LoadMissingTable(t *testing.T) {
	conn, err := OpenSQLite(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer conn.Close() //nolint:errcheck

	_, err = LoadSQLite(context.Background(), conn, "districts")
	require.Error(t, err)
}

func TestSQLite_InvalidTable(t *testing.T) {
	_, err := ImportSQLite(context.Background(), nil, "x y", nil)
	require.Error(t, err)
	_, err = LoadSQLite(context.Background(), nil, "x y")
	require.Error(t, err)
}
