package dataset

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"

	"github.com/sells-group/sitesales/internal/model"
)

const sampleCSV = "기준_년분기_코드,상권_코드,상권_코드_명,위도,경도,서비스_업종_코드_명,상권_변화_지표_명,300m내_경쟁_업종_수,당월_매출_금액,총_유동인구_수,월요일_매출_금액,비고\n" +
	"20234,3110001,건대입구역,37.540,127.070,한식음식점,HH,5,1500000,,120.5,memo\n" +
	"20234,3110002,어린이대공원역,37.550,127.074,커피-음료,LL,0,,300,nan,\n"

func TestReadCSV_UTF8WithBOM(t *testing.T) {
	input := "\ufeff" + sampleCSV
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), "utf-8")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	r := rows[0]
	assert.Equal(t, "20234", r.Period)
	assert.Equal(t, "3110001", r.DistrictCode)
	assert.Equal(t, "건대입구역", r.DistrictName)
	assert.InDelta(t, 37.540, r.Lat, 1e-9)
	assert.Equal(t, "한식음식점", r.Category)
	assert.Equal(t, 5.0, model.Value(r.Competitors300m))
	assert.True(t, r.HasSales())
	assert.Nil(t, r.FootTotal)
	assert.Equal(t, 120.5, model.Value(r.SalesMon))
	// Columns absent from the file stay nil.
	assert.Nil(t, r.Residents)

	assert.False(t, rows[1].HasSales())
	// "nan" cells decode but read as zero.
	require.NotNil(t, rows[1].SalesMon)
	assert.Equal(t, 0.0, model.Value(rows[1].SalesMon))
}

func TestReadCSV_CP949(t *testing.T) {
	encoded, err := korean.EUCKR.NewEncoder().String(sampleCSV)
	require.NoError(t, err)

	rows, err := ReadCSV(context.Background(), strings.NewReader(encoded), "cp949")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "어린이대공원역", rows[1].DistrictName)
	assert.Equal(t, "커피-음료", rows[1].Category)
}

func TestReadCSV_Empty(t *testing.T) {
	rows, err := ReadCSV(context.Background(), strings.NewReader(""), "")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadCSV_BadNumber(t *testing.T) {
	input := "위도,경도,총_유동인구_수\n37.5,127.0,lots\n"
	_, err := ReadCSV(context.Background(), strings.NewReader(input), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
}

func TestReadCSV_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadCSV(ctx, strings.NewReader(sampleCSV), "")
	require.Error(t, err)
}

func TestDecoder_Unsupported(t *testing.T) {
	_, err := Decoder("klingon")
	require.Error(t, err)

	_, err = Decoder("windows-1252")
	require.NoError(t, err)
}

func TestWriteCSV_RoundTripsThroughReader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))

	rows, err := ReadCSV(context.Background(), &buf, "utf-8")
	require.NoError(t, err)
	assert.Equal(t, sampleRows(), rows)
}

func TestLoadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "districts.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	rows, err := LoadCSVFile(context.Background(), path, "")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = LoadCSVFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), "")
	require.Error(t, err)
}
