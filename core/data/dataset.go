package data

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// FeatureMap maps feature indices to human-readable names. It defines the
// feature schema shared by a dataset and the datasets derived from it.
type FeatureMap struct {
	names   map[int]string
	indices map[string]int
}

// NewFeatureMap returns an empty schema.
func NewFeatureMap() *FeatureMap {
	return &FeatureMap{
		names:   make(map[int]string),
		indices: make(map[string]int),
	}
}

// Add registers index under name. An empty name registers the index without
// a name; Name then falls back to "f<index>".
func (m *FeatureMap) Add(index int, name string) {
	if old, ok := m.names[index]; ok && old != "" {
		delete(m.indices, old)
	}
	m.names[index] = name
	if name != "" {
		m.indices[name] = index
	}
}

// Contains reports whether index is part of the schema.
func (m *FeatureMap) Contains(index int) bool {
	_, ok := m.names[index]
	return ok
}

// Name returns the name registered for index.
func (m *FeatureMap) Name(index int) string {
	if name := m.names[index]; name != "" {
		return name
	}
	return fmt.Sprintf("f%d", index)
}

// Index looks up the index registered for name.
func (m *FeatureMap) Index(name string) (int, bool) {
	idx, ok := m.indices[name]
	return idx, ok
}

// Indices returns every registered index in ascending order.
func (m *FeatureMap) Indices() []int {
	indices := lo.Keys(m.names)
	sort.Ints(indices)
	return indices
}

// Len returns the number of registered indices.
func (m *FeatureMap) Len() int {
	return len(m.names)
}

// Clone returns an independent copy of the schema.
func (m *FeatureMap) Clone() *FeatureMap {
	c := NewFeatureMap()
	for idx, name := range m.names {
		c.Add(idx, name)
	}
	return c
}

// DataSet is an ordered collection of examples with its global feature index
// set and the set of distinct labels. Example order is preserved because it
// determines the SGD trajectory.
type DataSet struct {
	examples []*Example
	features *FeatureMap
	labels   map[float64]int

	sortedFeatures []int
}

// NewDataSet creates an empty dataset with a copy of the given schema. A nil
// schema starts empty.
func NewDataSet(features *FeatureMap) *DataSet {
	if features == nil {
		features = NewFeatureMap()
	} else {
		features = features.Clone()
	}
	return &DataSet{
		features:       features,
		labels:         make(map[float64]int),
		sortedFeatures: features.Indices(),
	}
}

// AddData appends e. Indices not yet in the schema are registered, so the
// global feature index set always covers every example. The dataset keeps the
// pointer; callers that intend to relabel must add a Clone.
func (d *DataSet) AddData(e *Example) {
	for idx := range e.features {
		if !d.features.Contains(idx) {
			d.features.Add(idx, "")
			d.sortedFeatures = insertSorted(d.sortedFeatures, idx)
		}
	}
	d.examples = append(d.examples, e)
	d.labels[e.label]++
}

// Data returns the examples in insertion order. The slice must not be
// modified.
func (d *DataSet) Data() []*Example {
	return d.examples
}

// Len returns the number of examples.
func (d *DataSet) Len() int {
	return len(d.examples)
}

// Labels returns the distinct labels in ascending order.
func (d *DataSet) Labels() []float64 {
	labels := lo.Keys(d.labels)
	sort.Float64s(labels)
	return labels
}

// LabelCounts returns how many examples carry each label.
func (d *DataSet) LabelCounts() map[float64]int {
	counts := make(map[float64]int, len(d.labels))
	for l, n := range d.labels {
		counts[l] = n
	}
	return counts
}

// AllFeatureIndices returns the global feature index set in ascending order.
// The slice must not be modified.
func (d *DataSet) AllFeatureIndices() []int {
	return d.sortedFeatures
}

func insertSorted(s []int, v int) []int {
	i := sort.SearchInts(s, v)
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// FeatureMap returns the schema, used to build derived datasets. Treat it as
// read-only; NewDataSet copies it.
func (d *DataSet) FeatureMap() *FeatureMap {
	return d.features
}

// Subset returns a dataset with the examples at the given positions, in the
// given order. Examples are shared, not copied.
func (d *DataSet) Subset(positions []int) *DataSet {
	sub := NewDataSet(d.features)
	for _, p := range positions {
		sub.AddData(d.examples[p])
	}
	return sub
}

// Clone returns a dataset holding deep copies of every example.
func (d *DataSet) Clone() *DataSet {
	c := NewDataSet(d.features)
	for _, e := range d.examples {
		c.AddData(e.Clone())
	}
	return c
}
