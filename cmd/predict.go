package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/sitesales/internal/api"
	"github.com/sells-group/sitesales/internal/model"
)

var (
	predictLat      float64
	predictLon      float64
	predictCategory string
	predictRadius   float64
	predictTime     string
	predictDays     string
	predictGeoJSON  bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Estimate sales for one location and print the result as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		svc, err := initService(ctx, "predict")
		if err != nil {
			return err
		}

		req := model.PredictRequest{
			Lat:          model.Float(predictLat),
			Lon:          model.Float(predictLon),
			CategoryCode: predictCategory,
			Radius:       model.Float(predictRadius),
			TimeRange:    predictTime,
			DayOfWeek:    splitDays(predictDays),
		}
		p, err := svc.PredictRequest(ctx, req, "")
		if err != nil {
			return eris.Wrap(err, "predict")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if predictGeoJSON {
			return enc.Encode(api.FeatureCollection(p))
		}
		return enc.Encode(p)
	},
}

func splitDays(s string) []string {
	var out []string
	for _, d := range strings.Split(s, ",") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

func init() {
	f := predictCmd.Flags()
	f.Float64Var(&predictLat, "lat", 0, "latitude (required)")
	f.Float64Var(&predictLon, "lon", 0, "longitude (required)")
	f.StringVar(&predictCategory, "category", "", "category code, e.g. I201 (required)")
	f.Float64Var(&predictRadius, "radius", 300, "recommendation radius in meters")
	f.StringVar(&predictTime, "time", "0-24", "operating hours as start-end")
	f.StringVar(&predictDays, "days", "월,화,수,목,금,토,일", "comma-separated operating days")
	f.BoolVar(&predictGeoJSON, "geojson", false, "print a GeoJSON FeatureCollection")
	_ = predictCmd.MarkFlagRequired("lat")
	_ = predictCmd.MarkFlagRequired("lon")
	_ = predictCmd.MarkFlagRequired("category")
	rootCmd.AddCommand(predictCmd)
}
