// Package salesmodel adapts trained regression artifacts to a common
// predictor interface and selects a model per business category.
package salesmodel

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sitesales/internal/model"
)

var (
	// ErrModelUnavailable is returned when an artifact cannot be loaded.
	// It is fatal at startup.
	ErrModelUnavailable = eris.New("salesmodel: model unavailable")
	// ErrNoModel is returned when no model serves a category label.
	ErrNoModel = eris.New("salesmodel: no model for category")
	// ErrFeatureMismatch is returned when a vector does not match the
	// model's declared features.
	ErrFeatureMismatch = eris.New("salesmodel: feature mismatch")
)

// Model predicts monthly sales from a feature vector.
type Model interface {
	// Name identifies the artifact in logs and responses.
	Name() string
	// Features lists the inputs the model was fit on, in order.
	Features() []string
	// Predict returns the raw (unclamped) prediction.
	Predict(v model.FeatureVector) (float64, error)
}

// Registry selects a model by category label. Related categories share a
// model family. Safe for concurrent use once built.
type Registry struct {
	byLabel map[string]Model
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byLabel: make(map[string]Model)}
}

// Register serves every label in labels with m.
func (r *Registry) Register(m Model, labels ...string) error {
	for _, l := range labels {
		if existing, ok := r.byLabel[l]; ok {
			return eris.Errorf("salesmodel: label %q already served by %s", l, existing.Name())
		}
		r.byLabel[l] = m
	}
	return nil
}

// For returns the model serving category.
func (r *Registry) For(category string) (Model, error) {
	m, ok := r.byLabel[category]
	if !ok {
		return nil, eris.Wrapf(ErrNoModel, "%q", category)
	}
	return m, nil
}

// Labels returns every served label, sorted.
func (r *Registry) Labels() []string {
	out := make([]string, 0, len(r.byLabel))
	for l := range r.byLabel {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// checkVector verifies v carries exactly the declared features in order.
func checkVector(name string, features []string, v model.FeatureVector) error {
	if len(v.Names) != len(features) || len(v.Values) != len(features) {
		return eris.Wrapf(ErrFeatureMismatch, "%s expects %d features, got %d", name, len(features), len(v.Names))
	}
	for i, f := range features {
		if v.Names[i] != f {
			return eris.Wrapf(ErrFeatureMismatch, "%s feature %d is %q, got %q", name, i, f, v.Names[i])
		}
	}
	return nil
}
