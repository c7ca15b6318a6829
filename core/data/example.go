// Package data holds labeled examples and the datasets learners train on.
//
// An Example stores only the features it actually has; every other index reads
// as 0. A DataSet keeps examples in input order together with the global
// feature index set and the distinct labels it contains.
package data

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// LabelTolerance is the absolute tolerance used whenever two labels are
// compared, including comparisons against the binary labels -1 and +1.
const LabelTolerance = 1e-3

// SameLabel reports whether a and b denote the same label.
func SameLabel(a, b float64) bool {
	return math.Abs(a-b) < LabelTolerance
}

// Example is one labeled instance with sparse numeric features.
type Example struct {
	features map[int]float64
	label    float64
}

// NewExample creates an example from a feature map. The map is copied.
func NewExample(label float64, features map[int]float64) *Example {
	e := &Example{
		features: make(map[int]float64, len(features)),
		label:    label,
	}
	for idx, v := range features {
		e.features[idx] = v
	}
	return e
}

// Label returns the example's label.
func (e *Example) Label() float64 {
	return e.label
}

// SetLabel overwrites the label.
func (e *Example) SetLabel(label float64) {
	e.label = label
}

// Feature returns the stored value for index, or 0 when absent.
func (e *Example) Feature(index int) float64 {
	return e.features[index]
}

// HasFeature reports whether index is stored on this example.
func (e *Example) HasFeature(index int) bool {
	_, ok := e.features[index]
	return ok
}

// SetFeature stores value under index.
func (e *Example) SetFeature(index int, value float64) {
	if e.features == nil {
		e.features = make(map[int]float64)
	}
	e.features[index] = value
}

// FeatureSet returns the stored indices in ascending order.
func (e *Example) FeatureSet() []int {
	indices := lo.Keys(e.features)
	sort.Ints(indices)
	return indices
}

// NumFeatures returns how many indices are stored.
func (e *Example) NumFeatures() int {
	return len(e.features)
}

// Clone returns a deep copy. Relabeling the copy leaves e untouched.
func (e *Example) Clone() *Example {
	return NewExample(e.label, e.features)
}

// Equal reports whether both examples have identical labels and stored
// features.
func (e *Example) Equal(other *Example) bool {
	if other == nil || e.label != other.label || len(e.features) != len(other.features) {
		return false
	}
	for idx, v := range e.features {
		ov, ok := other.features[idx]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// String formats the example as "label idx:val ...", the sparse file format.
func (e *Example) String() string {
	var b strings.Builder
	b.WriteString(formatFloat(e.label))
	for _, idx := range e.FeatureSet() {
		fmt.Fprintf(&b, " %d:%s", idx, formatFloat(e.features[idx]))
	}
	return b.String()
}
