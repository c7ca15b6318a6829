// Package multiclass reduces a K-class problem to binary ones. OVAClassifier
// trains one learner per class against the rest; AVAClassifier trains one per
// unordered pair of classes. Both rewrite labels on copies of the training
// examples, so the caller's dataset is never modified.
package multiclass

import (
	"context"
	"fmt"

	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/core/model"
	"github.com/YuminosukeSato/tabclass/core/parallel"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
)

// Binary labels fed to the inner learners.
const (
	Positive = 1.0
	Negative = -1.0
)

// Option configures a reduction.
type Option func(*config)

type config struct {
	workers int
}

func defaultConfig() config {
	return config{workers: 1}
}

// WithWorkers trains up to n binary sub-problems concurrently. The default of
// 1 trains them sequentially in class order; n <= 0 uses every CPU. The
// trained reduction is the same for any n.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// relabel maps a source label to its binary label, or reports false when the
// example is left out of the sub-problem.
type relabel func(label float64) (float64, bool)

// binaryDataSet copies the examples of src that relabel keeps into a new
// dataset with the same feature map.
func binaryDataSet(src *data.DataSet, fn relabel) *data.DataSet {
	out := data.NewDataSet(src.FeatureMap())
	for _, e := range src.Data() {
		label, ok := fn(e.Label())
		if !ok {
			continue
		}
		c := e.Clone()
		c.SetLabel(label)
		out.AddData(c)
	}
	return out
}

// checkTrainable enforces the preconditions shared by both reductions and
// returns the frozen class order.
func checkTrainable(op string, factory model.Factory, ds *data.DataSet) ([]float64, error) {
	if factory == nil {
		return nil, errors.NewValidationError("factory", "must not be nil", nil)
	}
	if factory.IsMulticlass() {
		return nil, errors.NewPreconditionError(op, "factory mints a multiclass learner; reductions need a binary learner")
	}
	if err := model.RequireTrainable(op, ds.Len(), len(ds.AllFeatureIndices())); err != nil {
		return nil, err
	}
	classes := ds.Labels()
	if len(classes) < 2 {
		return nil, errors.NewPreconditionErrorf(op, "need at least 2 distinct labels, got %d", len(classes))
	}
	return classes, nil
}

// trainAll trains a fresh learner per derived dataset. Learners are stored by
// index, so the result does not depend on the worker count.
func trainAll(op string, factory model.Factory, subsets []*data.DataSet, workers int) ([]model.Classifier, error) {
	learners := make([]model.Classifier, len(subsets))
	err := parallel.ForEach(context.Background(), len(subsets), workers, func(_ context.Context, i int) error {
		return errors.SafeExecute(fmt.Sprintf("%s sub-problem %d", op, i), func() error {
			c := factory.New()
			if err := c.Train(subsets[i]); err != nil {
				return errors.NewModelError(op, fmt.Sprintf("binary sub-problem %d", i), err)
			}
			learners[i] = c
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return learners, nil
}
