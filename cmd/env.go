package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sitesales/internal/dataset"
	"github.com/sells-group/sitesales/internal/db"
	"github.com/sells-group/sitesales/internal/features"
	"github.com/sells-group/sitesales/internal/labels"
	"github.com/sells-group/sitesales/internal/model"
	"github.com/sells-group/sitesales/internal/predict"
	"github.com/sells-group/sitesales/internal/recommend"
	"github.com/sells-group/sitesales/internal/salesmodel"
	"github.com/sells-group/sitesales/internal/transit"
)

// initService loads the dataset, label vocabulary, models and stations and
// wires the prediction service used by serve and predict. Any load failure
// is fatal.
func initService(ctx context.Context, mode string) (*predict.Service, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	rows, err := loadDataset(ctx)
	if err != nil {
		return nil, err
	}
	table := dataset.NewTable(rows)
	if table.Len() == 0 {
		return nil, eris.New("dataset: no rows loaded")
	}

	enc, err := labels.Load(cfg.Model.LabelsPath)
	if err != nil {
		return nil, err
	}

	reg, err := salesmodel.LoadRegistry(cfg.Model.Families)
	if err != nil {
		return nil, err
	}
	for _, fam := range cfg.Model.Families {
		m, err := reg.For(fam.Labels[0])
		if err != nil {
			return nil, err
		}
		if err := features.Validate(m.Features()); err != nil {
			return nil, eris.Wrapf(err, "model %s", m.Name())
		}
	}

	categories := cfg.CategoryMap()
	for code, label := range categories {
		if _, err := reg.For(label); err != nil {
			zap.L().Warn("category has no model", zap.String("code", code), zap.String("label", label))
		}
	}

	stations, err := loadStations()
	if err != nil {
		return nil, err
	}

	zap.L().Info("service ready",
		zap.Int("rows", table.Len()),
		zap.Int("locations", table.Locations()),
		zap.Strings("models", reg.Labels()),
		zap.Int("stations", stations.Len()),
	)

	return predict.New(predict.Config{
		Districts:   table,
		Assembler:   features.New(enc),
		Models:      reg,
		Stations:    stations,
		Recommender: recommend.New(cfg.Recommend.Workers),
		Categories:  categories,
	}), nil
}

// loadDataset reads every district row from the configured source.
func loadDataset(ctx context.Context) ([]model.DistrictRecord, error) {
	ds := cfg.Dataset
	switch ds.Driver {
	case "csv":
		return dataset.LoadCSVFile(ctx, ds.Path, ds.Encoding)
	case "postgres":
		pool, err := db.Connect(ctx, ds.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer pool.Close()
		return dataset.LoadPostgres(ctx, pool, ds.Table)
	case "sqlite":
		conn, err := dataset.OpenSQLite(ds.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer conn.Close() //nolint:errcheck
		return dataset.LoadSQLite(ctx, conn, ds.Table)
	}
	return nil, eris.Errorf("dataset: unknown driver %q", ds.Driver)
}

// loadStations reads the station file. A missing file disables transit
// features rather than failing startup.
func loadStations() (*transit.Index, error) {
	if cfg.Transit.Path == "" {
		return transit.NewIndex(nil), nil
	}
	stations, err := transit.LoadFile(cfg.Transit.Path)
	if err != nil {
		if _, statErr := os.Stat(cfg.Transit.Path); os.IsNotExist(statErr) {
			zap.L().Warn("transit: station file not found, transit features disabled",
				zap.String("path", cfg.Transit.Path))
			return transit.NewIndex(nil), nil
		}
		return nil, err
	}
	return transit.NewIndex(stations), nil
}
