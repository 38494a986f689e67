package salesmodel

import (
	"math"

	"github.com/sells-group/sitesales/internal/model"
)

// Linear is an intercept plus weighted sum. Missing (NaN) inputs contribute
// zero.
type Linear struct {
	name      string
	features  []string
	intercept float64
	weights   []float64
}

// NewLinear builds a linear model; weights align with features.
func NewLinear(name string, features []string, intercept float64, weights []float64) *Linear {
	return &Linear{
		name:      name,
		features:  append([]string(nil), features...),
		intercept: intercept,
		weights:   append([]float64(nil), weights...),
	}
}

func (l *Linear) Name() string { return l.name }

func (l *Linear) Features() []string { return l.features }

func (l *Linear) Predict(v model.FeatureVector) (float64, error) {
	if err := checkVector(l.name, l.features, v); err != nil {
		return 0, err
	}
	sum := l.intercept
	for i, x := range v.Values {
		if math.IsNaN(x) {
			continue
		}
		sum += l.weights[i] * x
	}
	return sum, nil
}
