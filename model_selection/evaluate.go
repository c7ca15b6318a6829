// Package model_selection estimates how well a learner generalizes: hold-out
// evaluation, k-fold cross validation, repeated shuffle splits, and sweeps
// over one hyperparameter.
package model_selection

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/core/model"
	"github.com/YuminosukeSato/tabclass/core/parallel"
	"github.com/YuminosukeSato/tabclass/metrics"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
)

// parallelThreshold is the test set size above which Evaluate classifies in
// parallel chunks.
const parallelThreshold = 2048

// probabilistic is implemented by binary learners that expose P(y = 1 | x).
type probabilistic interface {
	PredictProba(e *data.Example) (float64, error)
}

// Result scores one trained classifier on one test set.
type Result struct {
	Correct  int
	Total    int
	Accuracy float64

	// Labels indexes both axes of Confusion: the distinct true and
	// predicted labels in ascending order.
	Labels    []float64
	Confusion *mat.Dense

	// HasProba is set when the classifier reports P(y = 1 | x) and every
	// test label is 0 or 1. AUC and LogLoss are only meaningful then.
	HasProba bool
	AUC      float64
	LogLoss  float64
}

// Evaluate classifies every example of test with an already trained clf.
func Evaluate(clf model.Classifier, test *data.DataSet) (Result, error) {
	n := test.Len()
	if n == 0 {
		return Result{}, errors.NewPreconditionError("Evaluate", "test set is empty")
	}

	examples := test.Data()
	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	var (
		mu       sync.Mutex
		firstErr error
	)
	parallel.ParallelizeWithThreshold(n, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			pred, err := clf.Classify(examples[i])
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			// Rows are disjoint, so concurrent SetVec calls do not overlap.
			yTrue.SetVec(i, examples[i].Label())
			yPred.SetVec(i, pred)
		}
	})
	if firstErr != nil {
		return Result{}, errors.Wrap(firstErr, "Evaluate")
	}

	acc, err := metrics.Accuracy(yTrue, yPred)
	if err != nil {
		return Result{}, err
	}
	labels := distinctLabels(yTrue, yPred)
	cm, err := metrics.ConfusionMatrix(yTrue, yPred, labels)
	if err != nil {
		return Result{}, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if data.SameLabel(yTrue.AtVec(i), yPred.AtVec(i)) {
			correct++
		}
	}
	res := Result{
		Correct:   correct,
		Total:     n,
		Accuracy:  acc,
		Labels:    labels,
		Confusion: cm,
	}
	if p, ok := clf.(probabilistic); ok && zeroOne(test) {
		if err := res.scoreProba(p, examples, yTrue); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

func (r *Result) scoreProba(p probabilistic, examples []*data.Example, yTrue *mat.VecDense) error {
	proba := mat.NewVecDense(len(examples), nil)
	for i, e := range examples {
		v, err := p.PredictProba(e)
		if err != nil {
			return errors.Wrap(err, "Evaluate")
		}
		proba.SetVec(i, v)
	}
	auc, err := metrics.AUC(yTrue, proba)
	if err != nil {
		return err
	}
	logLoss, err := metrics.BinaryLogLoss(yTrue, proba)
	if err != nil {
		return err
	}
	r.HasProba, r.AUC, r.LogLoss = true, auc, logLoss
	return nil
}

func zeroOne(ds *data.DataSet) bool {
	for _, l := range ds.Labels() {
		if l != 0 && l != 1 {
			return false
		}
	}
	return true
}

// distinctLabels returns the values of both vectors, merged within
// data.LabelTolerance, in ascending order.
func distinctLabels(vs ...*mat.VecDense) []float64 {
	var all []float64
	for _, v := range vs {
		all = append(all, v.RawVector().Data...)
	}
	sort.Float64s(all)
	var out []float64
	for _, v := range all {
		if len(out) == 0 || !data.SameLabel(out[len(out)-1], v) {
			out = append(out, v)
		}
	}
	return out
}
