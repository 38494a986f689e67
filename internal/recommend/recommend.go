// Package recommend sweeps a fixed grid of offsets around a query point,
// scores every admissible offset and groups the best into ranked tiers.
package recommend

import (
	"context"
	"math"
	"runtime"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/sitesales/internal/geospatial"
	"github.com/sells-group/sitesales/internal/model"
)

const (
	// GridExtentM is the half-width of the square grid searched.
	GridExtentM = 300
	// GridStepM is the spacing between grid points.
	GridStepM = 30

	// TierBand is the widest gap, in won, between a tier leader and a member.
	TierBand = 1_000_000
	// MaxTiers caps the number of tiers returned.
	MaxTiers = 3
	// MaxMembers caps the locations reported per tier.
	MaxMembers = 3

	// selfEpsilon is the coordinate delta below which an offset is the
	// query point itself.
	selfEpsilon = 1e-6
)

// Offset is a grid displacement in meters (north, east).
type Offset struct {
	DY, DX float64
}

// Offsets returns the grid in enumeration order: rows south to north, each
// row west to east.
func Offsets() []Offset {
	n := 2*GridExtentM/GridStepM + 1
	out := make([]Offset, 0, n*n)
	for i := 0; i < n; i++ {
		dy := float64(-GridExtentM + i*GridStepM)
		for j := 0; j < n; j++ {
			dx := float64(-GridExtentM + j*GridStepM)
			out = append(out, Offset{DY: dy, DX: dx})
		}
	}
	return out
}

// ScoreFunc evaluates one candidate point. ok is false when the point lacks
// the data to be scored and should be skipped.
type ScoreFunc func(ctx context.Context, lat, lon float64) (c model.Candidate, ok bool, err error)

// Recommender runs grid sweeps. Safe for concurrent use.
type Recommender struct {
	workers int
}

// New returns a Recommender scoring up to workers candidates at once.
// workers <= 0 uses GOMAXPROCS.
func New(workers int) *Recommender {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Recommender{workers: workers}
}

// Sweep scores every grid point within radiusM of (lat, lon) and returns the
// ranked tiers. baseline is the query point's sales, used for percentages.
func (r *Recommender) Sweep(ctx context.Context, lat, lon, radiusM, baseline float64, score ScoreFunc) ([]model.Tier, error) {
	cands, err := r.Candidates(ctx, lat, lon, radiusM, baseline, score)
	if err != nil {
		return nil, err
	}
	return Tiers(cands, baseline), nil
}

// Candidates returns every scored grid point sorted by descending sales.
// Equal sales keep grid enumeration order.
func (r *Recommender) Candidates(ctx context.Context, lat, lon, radiusM, baseline float64, score ScoreFunc) ([]model.Candidate, error) {
	offsets := Offsets()
	slots := make([]*model.Candidate, len(offsets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, off := range offsets {
		clat, clon := geospatial.Offset(lat, lon, off.DY, off.DX)
		if math.Abs(clat-lat) < selfEpsilon && math.Abs(clon-lon) < selfEpsilon {
			continue
		}
		dist := geospatial.Haversine(lat, lon, clat, clon)
		if dist > radiusM {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, ok, err := score(gctx, clat, clon)
			if err != nil {
				return eris.Wrapf(err, "recommend: score offset (%.0f, %.0f)", off.DY, off.DX)
			}
			if !ok {
				return nil
			}
			c.Lat, c.Lon = clat, clon
			c.DistanceM = dist
			c.Percent = percent(c.Sales, baseline)
			slots[i] = &c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.Candidate, 0, len(slots))
	for _, c := range slots {
		if c != nil {
			out = append(out, *c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sales > out[j].Sales })

	zap.L().Debug("recommend: sweep complete",
		zap.Float64("radius_m", radiusM),
		zap.Int("candidates", len(out)),
	)
	return out, nil
}

// Tiers groups sorted candidates: each tier absorbs the consecutive
// candidates within TierBand of its leader.
func Tiers(sorted []model.Candidate, baseline float64) []model.Tier {
	var tiers []model.Tier
	for i := 0; i < len(sorted) && len(tiers) < MaxTiers; {
		leader := sorted[i]
		j := i + 1
		for j < len(sorted) && leader.Sales-sorted[j].Sales <= TierBand {
			j++
		}
		group := sorted[i:j]
		members := append([]model.Candidate(nil), group[:min(len(group), MaxMembers)]...)
		tiers = append(tiers, model.Tier{
			Rank:    len(tiers) + 1,
			Sales:   leader.Sales,
			Percent: percent(leader.Sales, baseline),
			Tied:    len(group) > 1,
			Size:    len(group),
			Members: members,
		})
		i = j
	}
	return tiers
}

// percent expresses v as a percentage of baseline, 0 when baseline is not
// positive.
func percent(v, baseline float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return math.Round(v/baseline*1000) / 10
}
