// Package labels encodes categorical dataset fields with the fixed
// vocabularies the sales models were trained on.
package labels

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ErrUnknownCategory is returned for a field or value outside the trained
// vocabulary. It is never silently defaulted.
var ErrUnknownCategory = eris.New("labels: unknown category")

// Encoded fields.
const (
	FieldServiceCategory = "service_category"
	FieldChangeIndicator = "change_indicator"
)

// Encoder maps labels to the integer codes a trained model expects. The code
// of a label is its position in the stored class list.
type Encoder struct {
	classes map[string][]string
	codes   map[string]map[string]int
}

// New builds an Encoder from per-field class lists.
func New(classes map[string][]string) (*Encoder, error) {
	e := &Encoder{
		classes: make(map[string][]string, len(classes)),
		codes:   make(map[string]map[string]int, len(classes)),
	}
	for field, list := range classes {
		if len(list) == 0 {
			return nil, eris.Errorf("labels: field %q has no classes", field)
		}
		idx := make(map[string]int, len(list))
		for i, label := range list {
			if _, dup := idx[label]; dup {
				return nil, eris.Errorf("labels: field %q lists %q twice", field, label)
			}
			idx[label] = i
		}
		e.classes[field] = append([]string(nil), list...)
		e.codes[field] = idx
	}
	return e, nil
}

type vocabularyFile struct {
	Fields map[string][]string `yaml:"fields"`
}

// Load reads a vocabulary artifact. The file is YAML (JSON is accepted as a
// YAML subset):
//
//	fields:
//	  service_category: [중식음식점, 커피-음료, 한식음식점]
//	  change_indicator: [HH, HL, LH, LL]
func Load(path string) (*Encoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "labels: read %s", path)
	}
	var vf vocabularyFile
	if err := yaml.Unmarshal(data, &vf); err != nil {
		return nil, eris.Wrapf(err, "labels: parse %s", path)
	}
	return New(vf.Fields)
}

// Encode returns the code of label within field.
func (e *Encoder) Encode(field, label string) (int, error) {
	idx, ok := e.codes[field]
	if !ok {
		return 0, eris.Wrapf(ErrUnknownCategory, "field %q", field)
	}
	code, ok := idx[label]
	if !ok {
		return 0, eris.Wrapf(ErrUnknownCategory, "%s %q", field, label)
	}
	return code, nil
}

// Classes returns the vocabulary of field.
func (e *Encoder) Classes(field string) []string {
	return append([]string(nil), e.classes[field]...)
}
