package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sitesales/internal/dataset"
	"github.com/sells-group/sitesales/internal/db"
)

var importCSVPath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import district rows from CSV into the configured database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if importCSVPath != "" {
			cfg.Dataset.Path = importCSVPath
		}
		if err := cfg.Validate("import"); err != nil {
			return err
		}

		ds := cfg.Dataset
		rows, err := dataset.LoadCSVFile(ctx, ds.Path, ds.Encoding)
		if err != nil {
			return eris.Wrap(err, "import csv")
		}
		if len(rows) == 0 {
			return eris.Errorf("import csv: %s has no rows", ds.Path)
		}

		var imported int64
		switch ds.Driver {
		case "postgres":
			pool, err := db.Connect(ctx, ds.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			imported, err = dataset.ImportPostgres(ctx, pool, ds.Table, rows)
			if err != nil {
				return err
			}
		case "sqlite":
			conn, err := dataset.OpenSQLite(ds.DatabaseURL)
			if err != nil {
				return err
			}
			defer conn.Close() //nolint:errcheck
			imported, err = dataset.ImportSQLite(ctx, conn, ds.Table, rows)
			if err != nil {
				return err
			}
		}

		zap.L().Info("import complete",
			zap.Int64("rows", imported),
			zap.String("csv", ds.Path),
			zap.String("driver", ds.Driver),
			zap.String("table", ds.Table),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to CSV file (default from config)")
	rootCmd.AddCommand(importCmd)
}
