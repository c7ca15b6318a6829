package linear_model

import (
	"math"
	"time"

	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/core/model"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
	"github.com/YuminosukeSato/tabclass/pkg/log"
)

// Default SGD hyperparameters shared by both logistic learners.
const (
	DefaultLearningRate = 0.01
	DefaultIterations   = 10
)

// LogisticRegression is a binary classifier trained by stochastic gradient
// descent on the logistic loss.
//
// The gradient uses the raw numeric label, so training on {-1, +1} and on
// {0, 1} gives different models. Classify always answers -1 or +1.
type LogisticRegression struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	learningRate   float64 // SGD step size α
	iterations     int     // Passes over the data T
	zeroOneTargets bool    // Train labels near -1 as target 0

	// Model parameters
	features  []int       // Global feature index set, ascending
	column    map[int]int // Feature index -> position in weights
	weights   []float64
	intercept float64
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates an untrained binary logistic regression.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		learningRate: DefaultLearningRate,
		iterations:   DefaultIterations,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRLearningRate sets the SGD step size.
func WithLRLearningRate(alpha float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.learningRate = alpha
	}
}

// WithLRIterations sets the number of passes over the training data.
func WithLRIterations(iterations int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.iterations = iterations
	}
}

// WithLRZeroOneTargets makes Train use target 0 for examples labeled -1
// (within data.LabelTolerance). Other labels keep their raw value. The
// reductions feed -1/+1 labels; without this option every negative example
// keeps pushing the bias down.
func WithLRZeroOneTargets(on bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.zeroOneTargets = on
	}
}

// SetIterations changes the number of passes used by the next Train.
func (lr *LogisticRegression) SetIterations(iterations int) {
	lr.iterations = iterations
}

func validateSGD(learningRate float64, iterations int) error {
	if !(learningRate > 0) || math.IsInf(learningRate, 0) {
		return errors.NewValidationError("learning_rate", "must be a positive finite number", learningRate)
	}
	if iterations < 0 {
		return errors.NewValidationError("iterations", "must be non-negative", iterations)
	}
	return nil
}

// Train fits weights and bias by SGD, visiting examples in dataset order on
// each pass. Prior state is discarded; on error the previous model is kept.
func (lr *LogisticRegression) Train(ds *data.DataSet) error {
	if err := validateSGD(lr.learningRate, lr.iterations); err != nil {
		return err
	}
	features := ds.AllFeatureIndices()
	if err := model.RequireTrainable("LogisticRegression.Train", ds.Len(), len(features)); err != nil {
		return err
	}

	logger := log.GetLoggerWithName("linear_model").With(log.ModelNameKey, "LogisticRegression")
	logger.Debug("Training started",
		log.OperationKey, log.OperationTrain,
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, len(features),
		log.LearningRateKey, lr.learningRate,
		log.IterationKey, lr.iterations,
	)
	start := time.Now()

	column := columnIndex(features)
	weights := make([]float64, len(features))
	intercept := 0.0

	// Absent features have x_f = 0 and neither contribute to the score nor
	// receive an update, so only the example's stored features are visited.
	rows := sparseRows(ds, column)
	for iter := 0; iter < lr.iterations; iter++ {
		for i, e := range ds.Data() {
			row := rows[i]
			s := intercept
			for k, pos := range row.pos {
				s += weights[pos] * row.val[k]
			}
			d := sigmoid(s) - lr.target(e.Label())
			for k, pos := range row.pos {
				weights[pos] -= lr.learningRate * d * row.val[k]
			}
			intercept -= lr.learningRate * d
		}
	}

	// Overflow degrades the model but is not a training failure.
	errors.WarnIfUnstable(errors.CheckNumericalStability("LogisticRegression.Train", weights, lr.iterations))
	errors.WarnIfUnstable(errors.CheckScalar("LogisticRegression.Train intercept", intercept, lr.iterations))

	_ = lr.state.WithStateMut(func() error {
		lr.features = features
		lr.column = column
		lr.weights = weights
		lr.intercept = intercept
		return nil
	})
	lr.state.SetTrained(len(features), ds.Len(), len(ds.Labels()))

	logger.Debug("Training completed",
		log.OperationKey, log.OperationTrain,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (lr *LogisticRegression) target(label float64) float64 {
	if lr.zeroOneTargets && data.SameLabel(label, -1) {
		return 0
	}
	return label
}

// DecisionFunction returns s = b + w·x. Features outside the training index
// set are ignored.
func (lr *LogisticRegression) DecisionFunction(e *data.Example) (float64, error) {
	if err := lr.state.RequireTrained("LogisticRegression", "DecisionFunction"); err != nil {
		return 0, err
	}
	var s float64
	_ = lr.state.WithState(func() error {
		s = lr.score(e)
		return nil
	})
	return s, nil
}

func (lr *LogisticRegression) score(e *data.Example) float64 {
	s := lr.intercept
	for _, idx := range e.FeatureSet() {
		if pos, ok := lr.column[idx]; ok {
			s += lr.weights[pos] * e.Feature(idx)
		}
	}
	return s
}

// PredictProba returns σ(s), the modelled probability of the positive class.
func (lr *LogisticRegression) PredictProba(e *data.Example) (float64, error) {
	if err := lr.state.RequireTrained("LogisticRegression", "PredictProba"); err != nil {
		return 0, err
	}
	s, _ := lr.DecisionFunction(e)
	return sigmoid(s), nil
}

// Classify returns +1 when σ(s) >= 0.5 and -1 otherwise.
func (lr *LogisticRegression) Classify(e *data.Example) (float64, error) {
	if err := lr.state.RequireTrained("LogisticRegression", "Classify"); err != nil {
		return 0, err
	}
	s, _ := lr.DecisionFunction(e)
	if sigmoid(s) >= 0.5 {
		return 1, nil
	}
	return -1, nil
}

// Confidence returns |σ(s) - 0.5|, which lies in [0, 0.5].
func (lr *LogisticRegression) Confidence(e *data.Example) (float64, error) {
	if err := lr.state.RequireTrained("LogisticRegression", "Confidence"); err != nil {
		return 0, err
	}
	s, _ := lr.DecisionFunction(e)
	return math.Abs(sigmoid(s) - 0.5), nil
}

// Weights returns a copy of the learned weights keyed by feature index.
func (lr *LogisticRegression) Weights() map[int]float64 {
	var out map[int]float64
	_ = lr.state.WithState(func() error {
		out = make(map[int]float64, len(lr.features))
		for i, idx := range lr.features {
			out[idx] = lr.weights[i]
		}
		return nil
	})
	return out
}

// Intercept returns the learned bias.
func (lr *LogisticRegression) Intercept() float64 {
	var b float64
	_ = lr.state.WithState(func() error {
		b = lr.intercept
		return nil
	})
	return b
}

// IsTrained reports whether Train has completed.
func (lr *LogisticRegression) IsTrained() bool {
	return lr.state.IsTrained()
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"learning_rate":    lr.learningRate,
		"iterations":       lr.iterations,
		"zero_one_targets": lr.zeroOneTargets,
	}
}

// sigmoid computes the sigmoid function
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
