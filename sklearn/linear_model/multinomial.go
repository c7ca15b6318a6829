package linear_model

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/core/model"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
	"github.com/YuminosukeSato/tabclass/pkg/log"
)

// DefaultLambda is the L2 strength of the regularized variant.
const DefaultLambda = 0.001

// MultinomialLogisticRegression is a softmax classifier over K classes
// trained by SGD on the cross-entropy loss, with optional L2 decay on the
// weights.
//
// By default labels must already be the class indices 0..K-1 and Classify
// returns an index. With WithMultiLRLabelIndex(true) any label set is
// accepted: labels are mapped to indices in ascending order and Classify
// returns the original label.
type MultinomialLogisticRegression struct {
	state *model.StateManager

	learningRate float64
	iterations   int
	lambda       float64
	labelIndex   bool

	classes  []float64   // Observed labels, ascending
	features []int       // Global feature index set, ascending
	column   map[int]int // Feature index -> weight column
	coef     *mat.Dense  // K x F
	bias     *mat.VecDense
}

// MultinomialOption is a functional option for MultinomialLogisticRegression
type MultinomialOption func(*MultinomialLogisticRegression)

// NewMultinomialLogisticRegression creates an untrained softmax learner
// without regularization.
func NewMultinomialLogisticRegression(opts ...MultinomialOption) *MultinomialLogisticRegression {
	m := &MultinomialLogisticRegression{
		state:        model.NewStateManager(),
		learningRate: DefaultLearningRate,
		iterations:   DefaultIterations,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewRegularizedMultinomialLogisticRegression is NewMultinomialLogisticRegression
// with λ = DefaultLambda unless an option overrides it.
func NewRegularizedMultinomialLogisticRegression(opts ...MultinomialOption) *MultinomialLogisticRegression {
	return NewMultinomialLogisticRegression(append([]MultinomialOption{WithMultiLRLambda(DefaultLambda)}, opts...)...)
}

// WithMultiLRLearningRate sets the SGD step size.
func WithMultiLRLearningRate(alpha float64) MultinomialOption {
	return func(m *MultinomialLogisticRegression) {
		m.learningRate = alpha
	}
}

// WithMultiLRIterations sets the number of passes over the training data.
func WithMultiLRIterations(iterations int) MultinomialOption {
	return func(m *MultinomialLogisticRegression) {
		m.iterations = iterations
	}
}

// WithMultiLRLambda sets the L2 strength applied to weights, not biases.
func WithMultiLRLambda(lambda float64) MultinomialOption {
	return func(m *MultinomialLogisticRegression) {
		m.lambda = lambda
	}
}

// WithMultiLRLabelIndex enables the label -> class index table.
func WithMultiLRLabelIndex(enabled bool) MultinomialOption {
	return func(m *MultinomialLogisticRegression) {
		m.labelIndex = enabled
	}
}

// SetIterations changes the number of passes used by the next Train.
func (m *MultinomialLogisticRegression) SetIterations(iterations int) {
	m.iterations = iterations
}

// targets resolves every example's class index.
func (m *MultinomialLogisticRegression) targets(ds *data.DataSet, classes []float64) ([]int, error) {
	k := len(classes)
	out := make([]int, ds.Len())
	if m.labelIndex {
		pos := make(map[float64]int, k)
		for i, c := range classes {
			pos[c] = i
		}
		for i, e := range ds.Data() {
			out[i] = pos[e.Label()]
		}
		return out, nil
	}
	for i, e := range ds.Data() {
		y := math.Round(e.Label())
		if !data.SameLabel(e.Label(), y) || y < 0 || y > float64(k-1) {
			return nil, errors.NewPreconditionErrorf("MultinomialLogisticRegression.Train",
				"label %v of example %d is not a class index in [0, %d]", e.Label(), i, k-1)
		}
		out[i] = int(y)
	}
	return out, nil
}

// Train fixes K and F from ds, then runs SGD. Prior state is discarded; on
// error the previous model is kept.
func (m *MultinomialLogisticRegression) Train(ds *data.DataSet) error {
	if err := validateSGD(m.learningRate, m.iterations); err != nil {
		return err
	}
	if m.lambda < 0 || math.IsNaN(m.lambda) {
		return errors.NewValidationError("lambda", "must be non-negative", m.lambda)
	}
	features := ds.AllFeatureIndices()
	if err := model.RequireTrainable("MultinomialLogisticRegression.Train", ds.Len(), len(features)); err != nil {
		return err
	}
	classes := ds.Labels()
	y, err := m.targets(ds, classes)
	if err != nil {
		return err
	}

	k, f := len(classes), len(features)
	logger := log.GetLoggerWithName("linear_model").With(log.ModelNameKey, "MultinomialLogisticRegression")
	logger.Debug("Training started",
		log.OperationKey, log.OperationTrain,
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, f,
		log.ClassesKey, k,
		log.LearningRateKey, m.learningRate,
		log.RegularizationKey, m.lambda,
		log.IterationKey, m.iterations,
	)
	start := time.Now()

	column := columnIndex(features)
	coef := mat.NewDense(k, f, nil)
	bias := mat.NewVecDense(k, nil)
	rows := sparseRows(ds, column)
	probs := make([]float64, k)

	alpha, lambda := m.learningRate, m.lambda
	for iter := 0; iter < m.iterations; iter++ {
		for i, row := range rows {
			softmax(coef, bias, row, probs)
			for c := 0; c < k; c++ {
				e := probs[c]
				if c == y[i] {
					e -= 1
				}
				w := coef.RawRowView(c)
				for j, pos := range row.pos {
					w[pos] -= alpha * (e*row.val[j] + lambda*w[pos])
				}
				bias.SetVec(c, bias.AtVec(c)-alpha*e)
			}
		}
	}

	errors.WarnIfUnstable(errors.CheckMatrix("MultinomialLogisticRegression.Train", coef, k, f, m.iterations))
	errors.WarnIfUnstable(errors.CheckNumericalStability("MultinomialLogisticRegression.Train bias", bias.RawVector().Data, m.iterations))

	_ = m.state.WithStateMut(func() error {
		m.classes = classes
		m.features = features
		m.column = column
		m.coef = coef
		m.bias = bias
		return nil
	})
	m.state.SetTrained(f, ds.Len(), k)

	logger.Debug("Training completed",
		log.OperationKey, log.OperationTrain,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// softmax writes p_c = exp(z_c - max z) / Σ exp(z_c - max z) into probs,
// where z_c = b_c + Σ W[c,f] x_f.
func softmax(coef *mat.Dense, bias *mat.VecDense, row sparseRow, probs []float64) {
	for c := range probs {
		w := coef.RawRowView(c)
		z := bias.AtVec(c)
		for j, pos := range row.pos {
			z += w[pos] * row.val[j]
		}
		probs[c] = z
	}
	maxZ := floats.Max(probs)
	for c, z := range probs {
		probs[c] = math.Exp(z - maxZ)
	}
	floats.Scale(1/floats.Sum(probs), probs)
}

// PredictProba returns the softmax distribution over the K classes.
func (m *MultinomialLogisticRegression) PredictProba(e *data.Example) ([]float64, error) {
	if err := m.state.RequireTrained("MultinomialLogisticRegression", "PredictProba"); err != nil {
		return nil, err
	}
	var probs []float64
	_ = m.state.WithState(func() error {
		probs = make([]float64, len(m.classes))
		softmax(m.coef, m.bias, toSparseRow(e, m.column), probs)
		return nil
	})
	return probs, nil
}

// Classify returns the most probable class; ties go to the lowest index.
// Without the label table the index itself is returned.
func (m *MultinomialLogisticRegression) Classify(e *data.Example) (float64, error) {
	if err := m.state.RequireTrained("MultinomialLogisticRegression", "Classify"); err != nil {
		return 0, err
	}
	probs, _ := m.PredictProba(e)
	best := floats.MaxIdx(probs)
	if m.labelIndex {
		return m.classes[best], nil
	}
	return float64(best), nil
}

// Confidence returns the largest softmax probability, in [1/K, 1].
func (m *MultinomialLogisticRegression) Confidence(e *data.Example) (float64, error) {
	if err := m.state.RequireTrained("MultinomialLogisticRegression", "Confidence"); err != nil {
		return 0, err
	}
	probs, _ := m.PredictProba(e)
	return floats.Max(probs), nil
}

// NumClasses returns K as fixed by the last Train, or 0 before training.
func (m *MultinomialLogisticRegression) NumClasses() int {
	_, _, k := m.state.GetDimensions()
	return k
}

// Classes returns the labels in class index order.
func (m *MultinomialLogisticRegression) Classes() []float64 {
	var out []float64
	_ = m.state.WithState(func() error {
		out = append(out, m.classes...)
		return nil
	})
	return out
}

// Coefficients returns a copy of the K x F weight matrix. Column j belongs
// to the j-th smallest feature index.
func (m *MultinomialLogisticRegression) Coefficients() *mat.Dense {
	var out *mat.Dense
	_ = m.state.WithState(func() error {
		if m.coef != nil {
			out = mat.DenseCopyOf(m.coef)
		}
		return nil
	})
	return out
}

// Intercepts returns a copy of the K biases.
func (m *MultinomialLogisticRegression) Intercepts() *mat.VecDense {
	var out *mat.VecDense
	_ = m.state.WithState(func() error {
		if m.bias != nil {
			out = mat.VecDenseCopyOf(m.bias)
		}
		return nil
	})
	return out
}

// IsTrained reports whether Train has completed.
func (m *MultinomialLogisticRegression) IsTrained() bool {
	return m.state.IsTrained()
}

// GetParams returns the model hyperparameters
func (m *MultinomialLogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"learning_rate": m.learningRate,
		"iterations":    m.iterations,
		"lambda":        m.lambda,
		"label_index":   m.labelIndex,
	}
}
