package salesmodel

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sitesales/internal/model"
)

func leaf(id int, v float64) DumpNode { return DumpNode{NodeID: id, Leaf: &v} }

// stump splits on traffic < 100 (missing goes "no").
func stump() DumpNode {
	return DumpNode{
		NodeID: 0, Split: "traffic", SplitCondition: 100, Yes: 1, No: 2, Missing: 2,
		Children: []DumpNode{leaf(1, 10), leaf(2, 50)},
	}
}

func vec(traffic, competitors float64) model.FeatureVector {
	return model.FeatureVector{Names: []string{"traffic", "competitors"}, Values: []float64{traffic, competitors}}
}

func TestTreeEnsemble_Predict(t *testing.T) {
	second := DumpNode{
		NodeID: 0, Split: "f1", SplitCondition: 3, Yes: 1, No: 2, Missing: 1,
		Children: []DumpNode{leaf(1, 1), leaf(2, -1)},
	}
	te, err := NewTreeEnsemble("rest", []string{"traffic", "competitors"}, 0.5, TransformIdentity, []DumpNode{stump(), second})
	require.NoError(t, err)

	tests := []struct {
		name string
		v    model.FeatureVector
		want float64
	}{
		{"both yes", vec(50, 1), 0.5 + 10 + 1},
		{"both no", vec(150, 5), 0.5 + 50 - 1},
		{"at threshold goes no", vec(100, 3), 0.5 + 50 - 1},
		{"missing routes", vec(math.NaN(), math.NaN()), 0.5 + 50 + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := te.Predict(tt.v)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestTreeEnsemble_Expm1(t *testing.T) {
	te, err := NewTreeEnsemble("log", []string{"traffic", "competitors"}, 0, TransformExpm1, []DumpNode{stump()})
	require.NoError(t, err)
	got, err := te.Predict(vec(10, 0))
	require.NoError(t, err)
	assert.InDelta(t, math.Expm1(10), got, 1e-6)
}

func TestTreeEnsemble_CompileErrors(t *testing.T) {
	bad := stump()
	bad.Split = "unknown"
	_, err := NewTreeEnsemble("x", []string{"traffic"}, 0, TransformIdentity, []DumpNode{bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown feature")

	loop := stump()
	loop.Yes = 0
	_, err = NewTreeEnsemble("x", []string{"traffic"}, 0, TransformIdentity, []DumpNode{loop})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid child")

	_, err = NewTreeEnsemble("x", []string{"traffic"}, 0, "sqrt", []DumpNode{stump()})
	require.Error(t, err)
}

func TestPredict_FeatureMismatch(t *testing.T) {
	lin := NewLinear("lin", []string{"traffic", "competitors"}, 1, []float64{2, 3})
	_, err := lin.Predict(model.FeatureVector{Names: []string{"competitors", "traffic"}, Values: []float64{1, 1}})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrFeatureMismatch))

	_, err = lin.Predict(model.FeatureVector{Names: []string{"traffic"}, Values: []float64{1}})
	assert.True(t, eris.Is(err, ErrFeatureMismatch))
}

func TestLinear_Predict(t *testing.T) {
	lin := NewLinear("lin", []string{"traffic", "competitors"}, 1, []float64{2, 3})
	got, err := lin.Predict(vec(10, math.NaN()))
	require.NoError(t, err)
	assert.InDelta(t, 21, got, 1e-9)
	assert.Equal(t, "lin", lin.Name())
	assert.Equal(t, []string{"traffic", "competitors"}, lin.Features())
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	rest := NewLinear("rest", []string{"a"}, 0, []float64{1})
	coffee := NewLinear("coffee", []string{"a"}, 0, []float64{2})
	require.NoError(t, reg.Register(rest, "한식음식점", "중식음식점"))
	require.NoError(t, reg.Register(coffee, "커피-음료"))
	require.Error(t, reg.Register(coffee, "한식음식점"))

	m, err := reg.For("중식음식점")
	require.NoError(t, err)
	assert.Equal(t, "rest", m.Name())

	_, err = reg.For("제과점")
	assert.True(t, eris.Is(err, ErrNoModel))
	assert.Equal(t, []string{"중식음식점", "커피-음료", "한식음식점"}, reg.Labels())
}

func writeArtifact(t *testing.T, dir, name string, a Artifact) string {
	t.Helper()
	data, err := json.Marshal(a)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	treePath := writeArtifact(t, dir, "restaurant.json", Artifact{
		Type: "tree_ensemble", Features: []string{"traffic", "competitors"}, BaseScore: 1, Trees: []DumpNode{stump()},
	})
	linPath := writeArtifact(t, dir, "coffee.json", Artifact{
		Name: "coffee", Type: "linear", Features: []string{"traffic"}, Intercept: 5, Weights: []float64{1},
	})

	reg, err := LoadRegistry([]Family{
		{Labels: []string{"한식음식점", "중식음식점"}, Path: treePath},
		{Labels: []string{"커피-음료"}, Path: linPath},
	})
	require.NoError(t, err)

	m, err := reg.For("한식음식점")
	require.NoError(t, err)
	assert.Equal(t, "restaurant", m.Name())
	got, err := m.Predict(vec(10, 0))
	require.NoError(t, err)
	assert.InDelta(t, 11, got, 1e-9)
}

func TestLoadFile_Unavailable(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.json"))
	assert.True(t, eris.Is(err, ErrModelUnavailable))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadFile(bad)
	assert.True(t, eris.Is(err, ErrModelUnavailable))

	noWeights := writeArtifact(t, dir, "lin.json", Artifact{Type: "linear", Features: []string{"a", "b"}, Weights: []float64{1}})
	_, err = LoadFile(noWeights)
	assert.True(t, eris.Is(err, ErrModelUnavailable))

	unknown := writeArtifact(t, dir, "svm.json", Artifact{Type: "svm", Features: []string{"a"}})
	_, err = LoadFile(unknown)
	assert.True(t, eris.Is(err, ErrModelUnavailable))

	_, err = LoadRegistry(nil)
	assert.True(t, eris.Is(err, ErrModelUnavailable))
}
