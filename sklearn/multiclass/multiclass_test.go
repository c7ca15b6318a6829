package multiclass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/core/model"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
	"github.com/YuminosukeSato/tabclass/sklearn/linear_model"
	"github.com/YuminosukeSato/tabclass/sklearn/tree"
)

var (
	_ model.Classifier = (*OVAClassifier)(nil)
	_ model.Classifier = (*AVAClassifier)(nil)
)

// disjoint builds {i:1} -> labels[i].
func disjoint(labels ...float64) *data.DataSet {
	ds := data.NewDataSet(nil)
	for i, l := range labels {
		ds.AddData(data.NewExample(l, map[int]float64{i: 1}))
	}
	return ds
}

func lrFactory(opts ...linear_model.LogisticRegressionOption) model.Factory {
	opts = append([]linear_model.LogisticRegressionOption{
		linear_model.WithLRIterations(200),
		linear_model.WithLRLearningRate(0.1),
	}, opts...)
	return func() model.Classifier {
		return linear_model.NewLogisticRegression(opts...)
	}
}

func treeFactory() model.Factory {
	return func() model.Classifier {
		return tree.NewDecisionTreeClassifier(tree.WithMaxDepth(6))
	}
}

func blobs(t *testing.T, k int) *data.DataSet {
	t.Helper()
	ds, err := data.MakeBlobs(20*k, 3, k, 1.0, 11)
	require.NoError(t, err)
	return ds
}

// stub answers a fixed prediction and confidence.
type stub struct {
	pred, conf float64
	trainErr   error
	panics     bool
	trainedOn  *data.DataSet
}

func (s *stub) Train(ds *data.DataSet) error {
	if s.panics {
		panic("boom")
	}
	s.trainedOn = ds
	return s.trainErr
}

func (s *stub) Classify(*data.Example) (float64, error)   { return s.pred, nil }
func (s *stub) Confidence(*data.Example) (float64, error) { return s.conf, nil }

// stubFactory mints the given stubs in order, after the throwaway instance
// Train uses to probe for a multiclass learner. Reductions using it must
// train sequentially.
func stubFactory(stubs ...*stub) model.Factory {
	next := -1
	return func() model.Classifier {
		defer func() { next++ }()
		if next < 0 || next >= len(stubs) {
			return &stub{}
		}
		return stubs[next]
	}
}

func TestReductions_SingleClassIsPrecondition(t *testing.T) {
	ds := disjoint(3, 3, 3)
	for name, c := range map[string]model.Classifier{
		"ova": NewOVAClassifier(lrFactory()),
		"ava": NewAVAClassifier(lrFactory()),
	} {
		t.Run(name, func(t *testing.T) {
			err := c.Train(ds)
			require.Error(t, err)
			assert.True(t, errors.IsPrecondition(err), "got %v", err)
		})
	}
}

func TestReductions_RejectInvalidInput(t *testing.T) {
	multi := model.Factory(func() model.Classifier {
		return linear_model.NewMultinomialLogisticRegression()
	})
	noFeatures := data.NewDataSet(nil)
	noFeatures.AddData(data.NewExample(0, nil))
	noFeatures.AddData(data.NewExample(1, nil))

	tests := []struct {
		name    string
		factory model.Factory
		ds      *data.DataSet
		check   func(error) bool
	}{
		{"multiclass factory", multi, disjoint(0, 1), errors.IsPrecondition},
		{"empty dataset", lrFactory(), data.NewDataSet(nil), errors.IsPrecondition},
		{"no features", lrFactory(), noFeatures, errors.IsPrecondition},
		{"nil factory", nil, disjoint(0, 1), func(err error) bool {
			var v *errors.ValidationError
			return errors.As(err, &v)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(NewOVAClassifier(tt.factory).Train(tt.ds)))
			assert.True(t, tt.check(NewAVAClassifier(tt.factory).Train(tt.ds)))
		})
	}
}

func TestReductions_NotTrained(t *testing.T) {
	e := data.NewExample(0, map[int]float64{0: 1})
	for name, c := range map[string]model.Classifier{
		"ova": NewOVAClassifier(lrFactory()),
		"ava": NewAVAClassifier(lrFactory()),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := c.Classify(e)
			assert.True(t, errors.IsNotTrained(err))
			_, err = c.Confidence(e)
			assert.True(t, errors.IsNotTrained(err))

			require.NoError(t, c.Train(disjoint(0, 1, 2)))
			conf, err := c.Confidence(e)
			require.NoError(t, err)
			assert.Zero(t, conf)
		})
	}
	_, err := NewAVAClassifier(lrFactory()).Votes(e)
	assert.True(t, errors.IsNotTrained(err))
}

func TestReductions_NonMutation(t *testing.T) {
	ds := disjoint(0, 1, 2)
	before := ds.Clone()

	for name, c := range map[string]model.Classifier{
		"ova": NewOVAClassifier(lrFactory()),
		"ava": NewAVAClassifier(lrFactory()),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, c.Train(ds))
			require.Equal(t, before.Len(), ds.Len())
			for i, e := range ds.Data() {
				assert.True(t, e.Equal(before.Data()[i]), "example %d changed to %s", i, e)
			}
			assert.Equal(t, before.Labels(), ds.Labels())
		})
	}
}

func TestReductions_SubproblemFailure(t *testing.T) {
	boom := errors.New("diverged")

	err := NewOVAClassifier(stubFactory(&stub{}, &stub{trainErr: boom})).Train(disjoint(0, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	var modelErr *errors.ModelError
	require.True(t, errors.As(err, &modelErr))
	assert.Equal(t, "binary sub-problem 1", modelErr.Kind)

	err = NewAVAClassifier(stubFactory(&stub{panics: true})).Train(disjoint(0, 1))
	var panicErr *errors.PanicError
	require.True(t, errors.As(err, &panicErr), "got %v", err)
	assert.Equal(t, "boom", panicErr.PanicValue)
}

func TestReductions_WorkerCountDoesNotMatter(t *testing.T) {
	ds := blobs(t, 4)
	seq := NewAVAClassifier(treeFactory())
	par := NewAVAClassifier(treeFactory(), WithWorkers(4))
	require.NoError(t, seq.Train(ds))
	require.NoError(t, par.Train(ds))
	assert.Equal(t, seq.Pairs(), par.Pairs())

	ovaSeq := NewOVAClassifier(lrFactory(linear_model.WithLRZeroOneTargets(true)))
	ovaPar := NewOVAClassifier(lrFactory(linear_model.WithLRZeroOneTargets(true)), WithWorkers(0))
	require.NoError(t, ovaSeq.Train(ds))
	require.NoError(t, ovaPar.Train(ds))

	for _, e := range ds.Data() {
		a, err := seq.Classify(e)
		require.NoError(t, err)
		b, err := par.Classify(e)
		require.NoError(t, err)
		assert.Equal(t, a, b)

		a, err = ovaSeq.Classify(e)
		require.NoError(t, err)
		b, err = ovaPar.Classify(e)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestReductions_Deterministic(t *testing.T) {
	ds := blobs(t, 3)
	for name, mk := range map[string]func() model.Classifier{
		"ova": func() model.Classifier { return NewOVAClassifier(lrFactory()) },
		"ava": func() model.Classifier { return NewAVAClassifier(lrFactory()) },
	} {
		t.Run(name, func(t *testing.T) {
			a, b := mk(), mk()
			require.NoError(t, a.Train(ds))
			require.NoError(t, b.Train(ds))
			for _, e := range ds.Data() {
				la, _ := a.Classify(e)
				lb, _ := b.Classify(e)
				assert.Equal(t, la, lb)
			}
		})
	}
}
