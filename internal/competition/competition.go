// Package competition counts competing businesses around a resolved
// district and labels how far a prediction there can be trusted.
package competition

import (
	"github.com/sells-group/sitesales/internal/model"
)

// SalesRadiusM is the neighbourhood searched for observed sales. It matches
// the radius the dataset's competitor counts were computed with and is
// independent of the caller's search radius.
const SalesRadiusM = 300.0

// minCompetitors is the competitor count below which confidence is low.
const minCompetitors = 3

// Source is the slice of the district table the evaluator reads.
type Source interface {
	Latest(district, category string) (*model.DistrictRecord, bool)
	SalesRowsWithin(lat, lon, radiusM float64, category string) int
}

// Result is the outcome of one evaluation.
type Result struct {
	Competitors  int
	Confidence   model.Confidence
	HasSalesData bool
}

// Evaluator derives competition and confidence. Safe for concurrent use.
type Evaluator struct {
	src Source
}

// New returns an Evaluator over src.
func New(src Source) *Evaluator {
	return &Evaluator{src: src}
}

// Evaluate inspects district (a dataset key) and category around the query
// point (lat, lon).
func (e *Evaluator) Evaluate(lat, lon float64, district, category string) Result {
	var res Result
	if row, ok := e.src.Latest(district, category); ok {
		res.Competitors = int(model.Value(row.Competitors300m))
	}
	res.HasSalesData = e.src.SalesRowsWithin(lat, lon, SalesRadiusM, category) > 0
	res.Confidence = Label(res.Competitors, res.HasSalesData)
	return res
}

// Label maps competition facts onto a confidence label.
func Label(competitors int, hasSalesData bool) model.Confidence {
	switch {
	case competitors <= 0:
		return model.ConfidenceNotComputable
	case competitors < minCompetitors || !hasSalesData:
		return model.ConfidenceLow
	default:
		return model.ConfidenceGood
	}
}
