// Package predict runs the location-to-sales pipeline: resolve the query
// point, evaluate competition, predict a baseline, correct it for the
// requested schedule and sweep the neighbourhood for better locations.
package predict

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sitesales/internal/competition"
	"github.com/sells-group/sitesales/internal/dataset"
	"github.com/sells-group/sitesales/internal/features"
	"github.com/sells-group/sitesales/internal/model"
	"github.com/sells-group/sitesales/internal/recommend"
	"github.com/sells-group/sitesales/internal/salesmodel"
	"github.com/sells-group/sitesales/internal/temporal"
	"github.com/sells-group/sitesales/internal/transit"
)

// ErrNoCompetitionData is returned when the resolved district has no
// competitors or no rows for the category, so no estimate is meaningful.
var ErrNoCompetitionData = eris.New("predict: no competition data")

// MinCandidateSalesRows is the number of historical rows with observed
// sales a candidate district needs to be recommended.
const MinCandidateSalesRows = 4

// Districts is the read side of the district table.
type Districts interface {
	Nearest(lat, lon float64) (*model.DistrictRecord, float64, error)
	Basis(district, category string) []*model.DistrictRecord
	Latest(district, category string) (*model.DistrictRecord, bool)
	CountWithSales(district, category string) int
	SalesRowsWithin(lat, lon, radiusM float64, category string) int
}

// Models selects a sales model by category label.
type Models interface {
	For(category string) (salesmodel.Model, error)
}

// Service is safe for concurrent use; every collaborator is read-only.
type Service struct {
	districts   Districts
	assembler   *features.Assembler
	models      Models
	evaluator   *competition.Evaluator
	stations    *transit.Index
	recommender *recommend.Recommender
	categories  map[string]string
}

// Config wires a Service. Stations may be nil.
type Config struct {
	Districts   Districts
	Assembler   *features.Assembler
	Models      Models
	Stations    *transit.Index
	Recommender *recommend.Recommender
	// Categories maps request category codes to dataset labels.
	Categories map[string]string
}

// New builds a Service.
func New(cfg Config) *Service {
	rec := cfg.Recommender
	if rec == nil {
		rec = recommend.New(0)
	}
	return &Service{
		districts:   cfg.Districts,
		assembler:   cfg.Assembler,
		models:      cfg.Models,
		evaluator:   competition.New(cfg.Districts),
		stations:    cfg.Stations,
		recommender: rec,
		categories:  cfg.Categories,
	}
}

// Categories returns the code to label map requests are validated against.
func (s *Service) Categories() map[string]string { return s.categories }

// estimate is one location's pipeline output.
type estimate struct {
	modelName string
	baseline  float64
	ratios    temporal.Ratios
	sales     float64
	transit   *model.Transit
}

// Predict answers q: the estimate at the query point plus recommendations.
func (s *Service) Predict(ctx context.Context, q model.Query) (*model.Prediction, error) {
	log := zap.L().With(
		zap.Float64("lat", q.Lat),
		zap.Float64("lon", q.Lon),
		zap.String("category", q.Category),
	)

	nearest, distM, err := s.districts.Nearest(q.Lat, q.Lon)
	if err != nil {
		return nil, eris.Wrap(err, "predict: resolve district")
	}
	key := dataset.DistrictKey(nearest)

	comp := s.evaluator.Evaluate(q.Lat, q.Lon, key, q.Category)
	basis := s.districts.Basis(key, q.Category)
	if comp.Competitors <= 0 || len(basis) == 0 {
		return nil, eris.Wrapf(ErrNoCompetitionData, "district %s category %s", key, q.Category)
	}

	m, err := s.models.For(q.Category)
	if err != nil {
		return nil, eris.Wrap(err, "predict: select model")
	}

	sched := temporal.Schedule{Days: q.Days, Start: q.StartHour, End: q.EndHour}
	est, err := s.estimate(q.Lat, q.Lon, key, q.Category, comp.Competitors, m, sched)
	if err != nil {
		return nil, err
	}

	p := &model.Prediction{
		Lat:           q.Lat,
		Lon:           q.Lon,
		Category:      q.Category,
		District:      district(nearest, distM),
		Competitors:   comp.Competitors,
		Confidence:    comp.Confidence,
		HasSalesData:  comp.HasSalesData,
		BaselineSales: est.baseline,
		DayRatio:      est.ratios.Day,
		HourRatio:     est.ratios.Hour,
		Sales:         est.sales,
		PerStoreSales: est.sales / float64(comp.Competitors),
		Model:         est.modelName,
		Transit:       est.transit,
	}

	score := func(_ context.Context, lat, lon float64) (model.Candidate, bool, error) {
		return s.scoreCandidate(lat, lon, q.Category, m, sched)
	}
	tiers, err := s.recommender.Sweep(ctx, q.Lat, q.Lon, q.RadiusM, p.Sales, score)
	if err != nil {
		return nil, eris.Wrap(err, "predict: recommend")
	}
	p.Tiers = tiers
	if p.Tiers == nil {
		p.Tiers = []model.Tier{}
	}

	log.Debug("predict: estimated",
		zap.String("district", key),
		zap.Int("competitors", p.Competitors),
		zap.Float64("baseline", p.BaselineSales),
		zap.Float64("sales", p.Sales),
		zap.Int("tiers", len(p.Tiers)),
	)
	return p, nil
}

// PredictRequest validates req and answers it, tagging the result with a
// fresh request id when none is given.
func (s *Service) PredictRequest(ctx context.Context, req model.PredictRequest, requestID string) (*model.Prediction, error) {
	q, err := req.Query(s.categories)
	if err != nil {
		return nil, err
	}
	p, err := s.Predict(ctx, q)
	if err != nil {
		return nil, err
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	p.RequestID = requestID
	return p, nil
}

// estimate runs assembly, prediction and correction for one location
// resolved to district key.
func (s *Service) estimate(lat, lon float64, key, category string, competitors int, m salesmodel.Model, sched temporal.Schedule) (estimate, error) {
	row, ok := s.districts.Latest(key, category)
	if !ok {
		return estimate{}, eris.Wrapf(ErrNoCompetitionData, "district %s category %s", key, category)
	}

	in := features.Inputs{
		District:    row,
		Category:    category,
		Competitors: competitors,
	}
	var tr *model.Transit
	in.TransitDistanceM, in.TransitRidership, tr = s.stations.FeatureInputs(lat, lon)

	v, err := s.assembler.Build(in, m.Features())
	if err != nil {
		return estimate{}, eris.Wrap(err, "predict: assemble features")
	}
	baseline, err := m.Predict(v)
	if err != nil {
		return estimate{}, eris.Wrapf(err, "predict: run model %s", m.Name())
	}

	ratios := temporal.Compute(s.districts.Basis(key, category), sched)
	return estimate{
		modelName: m.Name(),
		baseline:  baseline,
		ratios:    ratios,
		sales:     math.Max(0, baseline*ratios.Factor()),
		transit:   tr,
	}, nil
}

// scoreCandidate resolves and estimates one grid point. Points whose
// district lacks sales history are skipped. Any other failure, an unknown
// label included, fails the whole sweep.
func (s *Service) scoreCandidate(lat, lon float64, category string, m salesmodel.Model, sched temporal.Schedule) (model.Candidate, bool, error) {
	nearest, distM, err := s.districts.Nearest(lat, lon)
	if err != nil {
		return model.Candidate{}, false, eris.Wrap(err, "predict: resolve candidate")
	}
	key := dataset.DistrictKey(nearest)
	if s.districts.CountWithSales(key, category) < MinCandidateSalesRows {
		return model.Candidate{}, false, nil
	}

	comp := s.evaluator.Evaluate(lat, lon, key, category)
	est, err := s.estimate(lat, lon, key, category, comp.Competitors, m, sched)
	if err != nil {
		return model.Candidate{}, false, eris.Wrapf(err, "predict: score candidate in %s", key)
	}
	return model.Candidate{
		Sales:    est.sales,
		District: district(nearest, distM),
		Transit:  est.transit,
	}, true, nil
}

func district(r *model.DistrictRecord, distM float64) model.District {
	return model.District{
		Code:      r.DistrictCode,
		Name:      r.DistrictName,
		Lat:       r.Lat,
		Lon:       r.Lon,
		DistanceM: distM,
	}
}
