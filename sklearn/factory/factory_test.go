package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/core/model"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
	"github.com/YuminosukeSato/tabclass/preprocessing"
	"github.com/YuminosukeSato/tabclass/sklearn/linear_model"
	"github.com/YuminosukeSato/tabclass/sklearn/multiclass"
	"github.com/YuminosukeSato/tabclass/sklearn/naive_bayes"
	"github.com/YuminosukeSato/tabclass/sklearn/tree"
)

func TestConfig_FactoryKinds(t *testing.T) {
	tests := []struct {
		cfg        Config
		check      func(t *testing.T, c model.Classifier)
		multiclass bool
	}{
		{
			cfg: Config{Kind: KindDecisionTree, Param: 3},
			check: func(t *testing.T, c model.Classifier) {
				dt, ok := c.(*tree.DecisionTreeClassifier)
				require.True(t, ok)
				assert.Equal(t, 3, dt.GetParams()["max_depth"])
			},
		},
		{
			cfg: Config{Kind: KindLR, Param: 40, LearningRate: 0.5, ZeroOneTargets: true},
			check: func(t *testing.T, c model.Classifier) {
				lr, ok := c.(*linear_model.LogisticRegression)
				require.True(t, ok)
				params := lr.GetParams()
				assert.Equal(t, 40, params["iterations"])
				assert.Equal(t, 0.5, params["learning_rate"])
				assert.Equal(t, true, params["zero_one_targets"])
			},
		},
		{
			cfg: Config{Kind: KindLR, Param: 7},
			check: func(t *testing.T, c model.Classifier) {
				params := c.(*linear_model.LogisticRegression).GetParams()
				assert.Equal(t, linear_model.DefaultLearningRate, params["learning_rate"])
			},
		},
		{
			cfg: Config{Kind: KindMultiLR, Param: 20, Lambda: 0.01},
			check: func(t *testing.T, c model.Classifier) {
				m, ok := c.(*linear_model.MultinomialLogisticRegression)
				require.True(t, ok)
				params := m.GetParams()
				assert.Equal(t, 20, params["iterations"])
				assert.Equal(t, 0.01, params["lambda"])
				assert.Equal(t, true, params["label_index"])
			},
			multiclass: true,
		},
		{
			cfg: Config{Kind: KindNaiveBayes, Lambda: 0.5},
			check: func(t *testing.T, c model.Classifier) {
				nb, ok := c.(*naive_bayes.MultinomialNB)
				require.True(t, ok)
				assert.Equal(t, 0.5, nb.GetParams()["alpha"])
			},
			multiclass: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.cfg.String(), func(t *testing.T) {
			f, err := tt.cfg.Factory()
			require.NoError(t, err)
			assert.Equal(t, tt.multiclass, f.IsMulticlass())

			a, b := f.New(), f.New()
			assert.NotSame(t, a, b, "each call must mint a fresh learner")
			tt.check(t, a)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		param string
	}{
		{"unknown kind", Config{Kind: "svm"}, "kind"},
		{"negative param", Config{Kind: KindLR, Param: -1}, "param"},
		{"negative learning rate", Config{Kind: KindLR, LearningRate: -0.1}, "learning_rate"},
		{"negative lambda", Config{Kind: KindMultiLR, Lambda: -1}, "lambda"},
		{"unknown reduction", Config{Kind: KindLR, Reduction: "ecoc"}, "reduction"},
		{"multiclass under reduction", Config{Kind: KindMultiLR, Reduction: ReductionOVA}, "reduction"},
		{"unknown scaler", Config{Kind: KindLR, Scale: "robust"}, "scale"},
		{"scaled naive Bayes", Config{Kind: KindNaiveBayes, Scale: preprocessing.ScaleStandard}, "scale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			var valErr *errors.ValidationError
			require.True(t, errors.As(err, &valErr), "got %v", err)
			assert.Equal(t, tt.param, valErr.ParamName)

			_, err = tt.cfg.Factory()
			assert.Error(t, err)
			_, err = tt.cfg.ClassifierFactory()
			assert.Error(t, err)
		})
	}
}

func TestConfig_Reductions(t *testing.T) {
	ds := data.NewDataSet(nil)
	for i, l := range []float64{0, 1, 2} {
		ds.AddData(data.NewExample(l, map[int]float64{i: 1}))
	}

	ova, err := Config{Kind: KindLR, Param: 200, LearningRate: 0.1, Reduction: ReductionOVA}.Classifier()
	require.NoError(t, err)
	require.IsType(t, &multiclass.OVAClassifier{}, ova)
	require.NoError(t, ova.Train(ds))
	assert.Len(t, ova.(*multiclass.OVAClassifier).Estimators(), 3)

	f, err := Config{Kind: KindDecisionTree, Reduction: ReductionAVA, Workers: -1}.ClassifierFactory()
	require.NoError(t, err)
	assert.False(t, f.IsMulticlass())
	ava := f.New()
	require.IsType(t, &multiclass.AVAClassifier{}, ava)
	require.NoError(t, ava.Train(ds))
	assert.Len(t, ava.(*multiclass.AVAClassifier).Pairs(), 3)
	for _, e := range ds.Data() {
		got, err := ava.Classify(e)
		require.NoError(t, err)
		assert.Equal(t, e.Label(), got)
	}
}

func TestConfig_ZeroValuesSelectLearnerDefaults(t *testing.T) {
	lr, err := Config{Kind: KindLR}.Classifier()
	require.NoError(t, err)
	assert.Equal(t, linear_model.DefaultIterations, lr.(*linear_model.LogisticRegression).GetParams()["iterations"])

	m, err := Config{Kind: KindMultiLR}.Classifier()
	require.NoError(t, err)
	assert.Equal(t, linear_model.DefaultIterations, m.(*linear_model.MultinomialLogisticRegression).GetParams()["iterations"])

	nb, err := Config{Kind: KindNaiveBayes}.Classifier()
	require.NoError(t, err)
	assert.Equal(t, naive_bayes.DefaultAlpha, nb.(*naive_bayes.MultinomialNB).GetParams()["alpha"])

	// A default-configured LR actually moves off the zero model.
	ds := data.NewDataSet(nil)
	ds.AddData(data.NewExample(1, map[int]float64{0: 1}))
	ds.AddData(data.NewExample(-1, map[int]float64{0: -1}))
	require.NoError(t, lr.Train(ds))
	got, err := lr.Classify(data.NewExample(0, map[int]float64{0: -1}))
	require.NoError(t, err)
	assert.Equal(t, -1.0, got)
}

func TestConfig_MultiLRTrainsOnAnyLabelSubset(t *testing.T) {
	// Labels {0, 2} break the label-as-index contract; the factory's
	// learner maps them itself.
	ds := data.NewDataSet(nil)
	ds.AddData(data.NewExample(0, map[int]float64{0: 1}))
	ds.AddData(data.NewExample(2, map[int]float64{1: 1}))

	clf, err := Config{Kind: KindMultiLR, Param: 200, LearningRate: 0.1}.Classifier()
	require.NoError(t, err)
	require.NoError(t, clf.Train(ds))
	for _, e := range ds.Data() {
		got, err := clf.Classify(e)
		require.NoError(t, err)
		assert.Equal(t, e.Label(), got)
	}

	bare := linear_model.NewMultinomialLogisticRegression()
	assert.True(t, errors.IsPrecondition(bare.Train(ds)))
}

func TestConfig_Scale(t *testing.T) {
	ds := data.NewDataSet(nil)
	for i := 0; i < 10; i++ {
		label := 0.0
		if i >= 5 {
			label = 1
		}
		ds.AddData(data.NewExample(label, map[int]float64{0: 1000 + float64(i)*100}))
	}

	f, err := Config{Kind: KindLR, Param: 100, ZeroOneTargets: true, Scale: preprocessing.ScaleStandard}.Factory()
	require.NoError(t, err)
	clf := f.New()
	require.IsType(t, &preprocessing.ScaledProbabilisticClassifier{}, clf)
	require.NoError(t, clf.Train(ds))
	for _, e := range ds.Data() {
		p, err := clf.(*preprocessing.ScaledProbabilisticClassifier).PredictProba(e)
		require.NoError(t, err)
		if e.Label() == 1 {
			assert.Greater(t, p, 0.5)
		} else {
			assert.Less(t, p, 0.5)
		}
	}

	dt, err := Config{Kind: KindDecisionTree, Scale: preprocessing.ScaleMinMax, Reduction: ReductionOVA}.Classifier()
	require.NoError(t, err)
	require.NoError(t, dt.Train(ds))
	for _, e := range ds.Data() {
		got, err := dt.Classify(e)
		require.NoError(t, err)
		assert.Equal(t, e.Label(), got)
	}
}

func TestConfig_String(t *testing.T) {
	assert.Equal(t, "lr", Config{Kind: KindLR}.String())
	assert.Equal(t, "ava(dt)", Config{Kind: KindDecisionTree, Reduction: ReductionAVA}.String())
	assert.Equal(t, "ova(lr/standard)", Config{Kind: KindLR, Reduction: ReductionOVA, Scale: preprocessing.ScaleStandard}.String())
}
