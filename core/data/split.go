package data

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/tabclass/pkg/errors"
)

// Split is a train/test partition of a dataset.
type Split struct {
	Train *DataSet
	Test  *DataSet
}

// permutation returns 0..n-1, shuffled with a PCG source when shuffle is set.
func permutation(n int, shuffle bool, seed uint64) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if shuffle {
		r := rand.New(rand.NewPCG(seed, seed))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}
	return indices
}

// Split shuffles the examples with seed and puts round(fraction*n) of them in
// the training set, the rest in the test set. Both sides keep the schema.
func (d *DataSet) Split(fraction float64, seed uint64) (Split, error) {
	if !(fraction > 0 && fraction < 1) {
		return Split{}, errors.NewValidationError("fraction", "must be in (0, 1)", fraction)
	}
	if d.Len() < 2 {
		return Split{}, errors.NewPreconditionErrorf("DataSet.Split", "need at least 2 examples, got %d", d.Len())
	}

	perm := permutation(d.Len(), true, seed)
	nTrain := int(math.Round(fraction * float64(d.Len())))
	nTrain = min(max(nTrain, 1), d.Len()-1)

	return Split{
		Train: d.Subset(perm[:nTrain]),
		Test:  d.Subset(perm[nTrain:]),
	}, nil
}

// CrossValidationSet partitions a dataset into k folds. Fold sizes differ by
// at most one.
type CrossValidationSet struct {
	data  *DataSet
	folds [][]int
}

// CrossValidationSet builds k folds. With shuffle unset the folds are
// contiguous runs of the input order.
func (d *DataSet) CrossValidationSet(k int, shuffle bool, seed uint64) (*CrossValidationSet, error) {
	if k < 2 {
		return nil, errors.NewValidationError("k", "must be at least 2", k)
	}
	if k > d.Len() {
		return nil, errors.NewPreconditionErrorf("DataSet.CrossValidationSet",
			"cannot make %d folds from %d examples", k, d.Len())
	}

	perm := permutation(d.Len(), shuffle, seed)
	folds := make([][]int, k)
	foldSize := d.Len() / k
	remainder := d.Len() % k

	start := 0
	for i := range folds {
		size := foldSize
		if i < remainder {
			size++
		}
		folds[i] = perm[start : start+size]
		start += size
	}
	return &CrossValidationSet{data: d, folds: folds}, nil
}

// StratifiedCrossValidationSet builds k folds that each hold about the same
// share of every label. Examples are dealt round-robin to the folds, label by
// label in ascending order, so fold sizes still differ by at most one. With
// shuffle set, examples are shuffled within each label first.
func (d *DataSet) StratifiedCrossValidationSet(k int, shuffle bool, seed uint64) (*CrossValidationSet, error) {
	if k < 2 {
		return nil, errors.NewValidationError("k", "must be at least 2", k)
	}
	if k > d.Len() {
		return nil, errors.NewPreconditionErrorf("DataSet.StratifiedCrossValidationSet",
			"cannot make %d folds from %d examples", k, d.Len())
	}

	byLabel := make(map[float64][]int, len(d.labels))
	for i, e := range d.examples {
		byLabel[e.label] = append(byLabel[e.label], i)
	}
	r := rand.New(rand.NewPCG(seed, seed))

	folds := make([][]int, k)
	next := 0
	for _, label := range d.Labels() {
		positions := byLabel[label]
		if shuffle {
			r.Shuffle(len(positions), func(i, j int) {
				positions[i], positions[j] = positions[j], positions[i]
			})
		}
		for _, p := range positions {
			folds[next%k] = append(folds[next%k], p)
			next++
		}
	}
	return &CrossValidationSet{data: d, folds: folds}, nil
}

// NumSplits returns the number of folds.
func (c *CrossValidationSet) NumSplits() int {
	return len(c.folds)
}

// ValidationSet returns fold i as the test set and every other fold, in fold
// order, as the training set.
func (c *CrossValidationSet) ValidationSet(fold int) (Split, error) {
	if fold < 0 || fold >= len(c.folds) {
		return Split{}, errors.NewValidationError("fold", "out of range", fold)
	}
	train := make([]int, 0, c.data.Len()-len(c.folds[fold]))
	for i, f := range c.folds {
		if i != fold {
			train = append(train, f...)
		}
	}
	return Split{
		Train: c.data.Subset(train),
		Test:  c.data.Subset(c.folds[fold]),
	}, nil
}
