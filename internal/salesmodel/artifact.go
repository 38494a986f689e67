package salesmodel

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Artifact is the on-disk model format.
//
//	{"name": "restaurant-2024q4", "type": "tree_ensemble",
//	 "features": ["total_foot_traffic", ...], "base_score": 0.5,
//	 "transform": "expm1", "trees": [<xgboost json dump>...]}
//
//	{"name": "coffee-linear", "type": "linear",
//	 "features": [...], "intercept": 120000, "weights": [...]}
type Artifact struct {
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Features  []string   `json:"features"`
	BaseScore float64    `json:"base_score"`
	Transform Transform  `json:"transform"`
	Trees     []DumpNode `json:"trees"`
	Intercept float64    `json:"intercept"`
	Weights   []float64  `json:"weights"`
}

// Build compiles the artifact into a Model.
func (a Artifact) Build() (Model, error) {
	if len(a.Features) == 0 {
		return nil, eris.Errorf("salesmodel: %s declares no features", a.Name)
	}
	switch a.Type {
	case "tree_ensemble", "xgboost":
		if len(a.Trees) == 0 {
			return nil, eris.Errorf("salesmodel: %s has no trees", a.Name)
		}
		return NewTreeEnsemble(a.Name, a.Features, a.BaseScore, a.Transform, a.Trees)
	case "linear":
		if len(a.Weights) != len(a.Features) {
			return nil, eris.Errorf("salesmodel: %s has %d weights for %d features", a.Name, len(a.Weights), len(a.Features))
		}
		return NewLinear(a.Name, a.Features, a.Intercept, a.Weights), nil
	}
	return nil, eris.Errorf("salesmodel: %s has unknown type %q", a.Name, a.Type)
}

// LoadFile reads and compiles a model artifact. Any failure wraps
// ErrModelUnavailable.
func LoadFile(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(ErrModelUnavailable, "read %s: %v", path, err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, eris.Wrapf(ErrModelUnavailable, "parse %s: %v", path, err)
	}
	if a.Name == "" {
		a.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	m, err := a.Build()
	if err != nil {
		return nil, eris.Wrapf(ErrModelUnavailable, "build %s: %v", path, err)
	}
	return m, nil
}

// Family binds one artifact to the category labels it serves.
type Family struct {
	Labels []string `yaml:"labels" mapstructure:"labels"`
	Path   string   `yaml:"path" mapstructure:"path"`
}

// LoadRegistry loads every family's artifact.
func LoadRegistry(families []Family) (*Registry, error) {
	if len(families) == 0 {
		return nil, eris.Wrap(ErrModelUnavailable, "no model families configured")
	}
	reg := NewRegistry()
	for _, fam := range families {
		m, err := LoadFile(fam.Path)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(m, fam.Labels...); err != nil {
			return nil, err
		}
		zap.L().Info("salesmodel: loaded model",
			zap.String("model", m.Name()),
			zap.String("path", fam.Path),
			zap.Strings("labels", fam.Labels),
			zap.Int("features", len(m.Features())),
		)
	}
	return reg, nil
}
