package model

import "math"

// FeatureVector is an ordered set of named model inputs. NaN marks a value
// the model should treat as missing.
type FeatureVector struct {
	Names  []string  `json:"names"`
	Values []float64 `json:"values"`
}

// Len returns the number of features.
func (v FeatureVector) Len() int { return len(v.Names) }

// Get returns the value of the named feature.
func (v FeatureVector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Map returns the vector as name -> value with NaN rendered as nil, suitable
// for JSON output.
func (v FeatureVector) Map() map[string]*float64 {
	out := make(map[string]*float64, len(v.Names))
	for i, n := range v.Names {
		if math.IsNaN(v.Values[i]) {
			out[n] = nil
			continue
		}
		out[n] = Float(v.Values[i])
	}
	return out
}
