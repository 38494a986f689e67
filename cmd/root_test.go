package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sitesales/internal/config"
	"github.com/sells-group/sitesales/internal/dataset"
	"github.com/sells-group/sitesales/internal/model"
	"github.com/sells-group/sitesales/internal/transit"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "predict", "import", "transit"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "sitesales", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestPredictCommand_Flags(t *testing.T) {
	for _, name := range []string{"lat", "lon", "category", "radius", "time", "days", "geojson"} {
		assert.NotNil(t, predictCmd.Flags().Lookup(name), "predict should have --%s flag", name)
	}
	assert.Equal(t, "300", predictCmd.Flags().Lookup("radius").DefValue)
	assert.Equal(t, "0-24", predictCmd.Flags().Lookup("time").DefValue)
}

func TestTransitCommand_HasSync(t *testing.T) {
	var names []string
	for _, c := range transitCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "sync")
	assert.NotNil(t, transitSyncCmd.Flags().Lookup("area"))
}

func TestSplitDays(t *testing.T) {
	assert.Equal(t, []string{"월", "화", "Sunday"}, splitDays(" 월, 화,,Sunday "))
	assert.Nil(t, splitDays(""))
}

// withConfig installs c as the package config for one test.
func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func writeDistrictCSV(t *testing.T, dir string) string {
	t.Helper()
	rows := []model.DistrictRecord{
		{
			Period: "20234", DistrictCode: "A", DistrictName: "건대입구역", Lat: 37.54, Lon: 127.07,
			Category: "한식음식점", ChangeIndicator: "HH",
			Competitors300m: model.Float(5), MonthlySales: model.Float(1000), FootTotal: model.Float(200),
		},
		{
			Period: "20234", DistrictCode: "B", DistrictName: "어린이대공원역", Lat: 37.55, Lon: 127.07,
			Category: "커피-음료", ChangeIndicator: "LL",
			Competitors300m: model.Float(2), MonthlySales: model.Float(300),
		},
	}
	var buf bytes.Buffer
	require.NoError(t, dataset.WriteCSV(&buf, rows))
	path := filepath.Join(dir, "districts.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestLoadDataset_CSV(t *testing.T) {
	c := &config.Config{}
	c.Dataset.Driver = "csv"
	c.Dataset.Path = writeDistrictCSV(t, t.TempDir())
	c.Dataset.Encoding = "utf-8"
	withConfig(t, c)

	rows, err := loadDataset(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "건대입구역", rows[0].DistrictName)
}

func TestLoadDataset_UnknownDriver(t *testing.T) {
	c := &config.Config{}
	c.Dataset.Driver = "mysql"
	withConfig(t, c)

	_, err := loadDataset(context.Background())
	assert.Error(t, err)
}

func TestImportCommand_SQLiteThenLoad(t *testing.T) {
	dir := t.TempDir()
	c := &config.Config{}
	c.Dataset.Driver = "sqlite"
	c.Dataset.Path = writeDistrictCSV(t, dir)
	c.Dataset.Encoding = "utf-8"
	c.Dataset.DatabaseURL = filepath.Join(dir, "sitesales.db")
	c.Dataset.Table = "district_sales"
	withConfig(t, c)

	importCmd.SetContext(context.Background())
	require.NoError(t, importCmd.RunE(importCmd, nil))

	rows, err := loadDataset(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[1].DistrictCode)
}

func TestImportCommand_RejectsCSVDriver(t *testing.T) {
	c := &config.Config{}
	c.Dataset.Driver = "csv"
	c.Dataset.Path = "districts.csv"
	withConfig(t, c)

	importCmd.SetContext(context.Background())
	err := importCmd.RunE(importCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres or sqlite for import")
}

func TestLoadStations(t *testing.T) {
	dir := t.TempDir()
	c := &config.Config{}
	c.Transit.Path = filepath.Join(dir, "missing.csv")
	withConfig(t, c)

	ix, err := loadStations()
	require.NoError(t, err)
	assert.Equal(t, 0, ix.Len())

	path := filepath.Join(dir, "stations.csv")
	require.NoError(t, transit.WriteFile(path, []transit.Station{{Name: "건대입구", Lat: 37.5404, Lon: 127.0696}}))
	c.Transit.Path = path

	ix, err = loadStations()
	require.NoError(t, err)
	assert.Equal(t, 1, ix.Len())
}

func TestInitService_InvalidConfig(t *testing.T) {
	c := &config.Config{}
	c.Dataset.Driver = "bogus"
	withConfig(t, c)

	_, err := initService(context.Background(), "predict")
	assert.Error(t, err)
}
