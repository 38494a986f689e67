package api

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/sitesales/internal/model"
)

func point(lat, lon float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lon, lat})
}

// FeatureCollection renders p for map clients: the query point first, then
// every listed tier member with its rank.
func FeatureCollection(p *model.Prediction) *geojson.FeatureCollection {
	query := map[string]any{
		"kind":            "query",
		"request_id":      p.RequestID,
		"category":        p.Category,
		"district":        p.District.Name,
		"district_code":   p.District.Code,
		"competitors":     p.Competitors,
		"confidence":      string(p.Confidence),
		"baseline_sales":  p.BaselineSales,
		"predicted_sales": p.Sales,
		"per_store_sales": p.PerStoreSales,
	}
	if p.Transit != nil {
		query["transit"] = p.Transit.Name
		query["transit_distance_m"] = p.Transit.DistanceM
	}

	fc := &geojson.FeatureCollection{
		Features: []*geojson.Feature{{
			ID:         "query",
			Geometry:   point(p.Lat, p.Lon),
			Properties: query,
		}},
	}
	for _, tier := range p.Tiers {
		for _, c := range tier.Members {
			props := map[string]any{
				"kind":            "recommendation",
				"rank":            tier.Rank,
				"tied":            tier.Tied,
				"predicted_sales": c.Sales,
				"percent_of_base": c.Percent,
				"distance_m":      c.DistanceM,
				"district":        c.District.Name,
				"district_code":   c.District.Code,
			}
			if c.Transit != nil {
				props["transit"] = c.Transit.Name
				props["transit_distance_m"] = c.Transit.DistanceM
			}
			fc.Features = append(fc.Features, &geojson.Feature{
				Geometry:   point(c.Lat, c.Lon),
				Properties: props,
			})
		}
	}
	return fc
}
