package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sitesales/internal/resilience"
	"github.com/sells-group/sitesales/internal/transit"
)

var transitArea string

var transitCmd = &cobra.Command{
	Use:   "transit",
	Short: "Manage the subway station list",
}

var transitSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh subway stations from OpenStreetMap via Overpass",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if transitArea != "" {
			cfg.Transit.OverpassArea = transitArea
		}
		if err := cfg.Validate("sync"); err != nil {
			return err
		}

		var existing []transit.Station
		if _, err := os.Stat(cfg.Transit.Path); err == nil {
			existing, err = transit.LoadFile(cfg.Transit.Path)
			if err != nil {
				return err
			}
		}

		policy := resilience.DefaultPolicy()
		policy.Attempts = cfg.Transit.RetryAttempts
		fetcher := transit.Retrying{
			Fetcher: transit.NewOverpassFetcher(cfg.Transit.OverpassURL,
				time.Duration(cfg.Transit.TimeoutSecs)*time.Second),
			Policy: policy,
		}
		stations, err := transit.Sync(ctx, fetcher, cfg.Transit.OverpassArea, existing)
		if err != nil {
			return eris.Wrap(err, "transit sync")
		}

		if err := transit.WriteFile(cfg.Transit.Path, stations); err != nil {
			return err
		}

		zap.L().Info("transit sync complete",
			zap.String("area", cfg.Transit.OverpassArea),
			zap.Int("stations", len(stations)),
			zap.String("path", cfg.Transit.Path),
		)
		return nil
	},
}

func init() {
	transitSyncCmd.Flags().StringVar(&transitArea, "area", "", "OSM area name (default from config)")
	transitCmd.AddCommand(transitSyncCmd)
	rootCmd.AddCommand(transitCmd)
}
