package salesmodel

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sitesales/internal/model"
)

// DumpNode is one node of an XGBoost JSON model dump
// (booster.dump_model(path, dump_format="json")).
type DumpNode struct {
	NodeID         int        `json:"nodeid"`
	Split          string     `json:"split,omitempty"`
	SplitCondition float64    `json:"split_condition,omitempty"`
	Yes            int        `json:"yes,omitempty"`
	No             int        `json:"no,omitempty"`
	Missing        int        `json:"missing,omitempty"`
	Leaf           *float64   `json:"leaf,omitempty"`
	Children       []DumpNode `json:"children,omitempty"`
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	yes, no   int
	missing   int
}

// tree is a flattened decision tree indexed by node id.
type tree []treeNode

// Transform post-processes the summed margin.
type Transform string

const (
	TransformIdentity Transform = ""
	// TransformExpm1 undoes a log1p target transform.
	TransformExpm1 Transform = "expm1"
)

// TreeEnsemble evaluates a gradient-boosted regression forest:
// prediction = base_score + sum of reached leaves. A split sends x to "yes"
// when x < split_condition and to "missing" when x is NaN.
type TreeEnsemble struct {
	name      string
	features  []string
	baseScore float64
	transform Transform
	trees     []tree
}

// NewTreeEnsemble compiles dumped trees. Split names resolve against
// features, either by name or by XGBoost's positional "f<i>" form.
func NewTreeEnsemble(name string, features []string, baseScore float64, transform Transform, dump []DumpNode) (*TreeEnsemble, error) {
	pos := make(map[string]int, len(features))
	for i, f := range features {
		pos[f] = i
	}
	resolve := func(split string) (int, error) {
		if i, ok := pos[split]; ok {
			return i, nil
		}
		if strings.HasPrefix(split, "f") {
			if i, err := strconv.Atoi(split[1:]); err == nil && i >= 0 && i < len(features) {
				return i, nil
			}
		}
		return 0, eris.Errorf("salesmodel: %s splits on unknown feature %q", name, split)
	}

	switch transform {
	case TransformIdentity, TransformExpm1:
	default:
		return nil, eris.Errorf("salesmodel: %s has unknown transform %q", name, transform)
	}

	te := &TreeEnsemble{
		name:      name,
		features:  append([]string(nil), features...),
		baseScore: baseScore,
		transform: transform,
		trees:     make([]tree, 0, len(dump)),
	}
	for ti := range dump {
		t, err := compileTree(&dump[ti], resolve)
		if err != nil {
			return nil, eris.Wrapf(err, "salesmodel: %s tree %d", name, ti)
		}
		te.trees = append(te.trees, t)
	}
	return te, nil
}

func compileTree(root *DumpNode, resolve func(string) (int, error)) (tree, error) {
	var nodes []*DumpNode
	var collect func(n *DumpNode)
	maxID := -1
	collect = func(n *DumpNode) {
		nodes = append(nodes, n)
		if n.NodeID > maxID {
			maxID = n.NodeID
		}
		for i := range n.Children {
			collect(&n.Children[i])
		}
	}
	collect(root)

	t := make(tree, maxID+1)
	seen := make([]bool, maxID+1)
	for _, n := range nodes {
		if n.NodeID < 0 || seen[n.NodeID] {
			return nil, eris.Errorf("duplicate or negative node id %d", n.NodeID)
		}
		seen[n.NodeID] = true
		if n.Leaf != nil {
			t[n.NodeID] = treeNode{leaf: true, value: *n.Leaf}
			continue
		}
		f, err := resolve(n.Split)
		if err != nil {
			return nil, err
		}
		t[n.NodeID] = treeNode{feature: f, threshold: n.SplitCondition, yes: n.Yes, no: n.No, missing: n.Missing}
	}
	for id, n := range t {
		if !seen[id] {
			return nil, eris.Errorf("node id %d missing", id)
		}
		if n.leaf {
			continue
		}
		for _, child := range []int{n.yes, n.no, n.missing} {
			if child <= id || child > maxID {
				return nil, eris.Errorf("node %d points to invalid child %d", id, child)
			}
		}
	}
	return t, nil
}

func (t tree) eval(x []float64) float64 {
	i := 0
	for {
		n := t[i]
		if n.leaf {
			return n.value
		}
		v := x[n.feature]
		switch {
		case math.IsNaN(v):
			i = n.missing
		case v < n.threshold:
			i = n.yes
		default:
			i = n.no
		}
	}
}

func (te *TreeEnsemble) Name() string { return te.name }

func (te *TreeEnsemble) Features() []string { return te.features }

func (te *TreeEnsemble) Predict(v model.FeatureVector) (float64, error) {
	if err := checkVector(te.name, te.features, v); err != nil {
		return 0, err
	}
	sum := te.baseScore
	for _, t := range te.trees {
		sum += t.eval(v.Values)
	}
	if te.transform == TransformExpm1 {
		sum = math.Expm1(sum)
	}
	return sum, nil
}
