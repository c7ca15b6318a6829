package multiclass

import (
	"time"

	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/core/model"
	"github.com/YuminosukeSato/tabclass/pkg/log"
)

// Pair is an unordered pair of classes. A pair learner predicts +1 for First
// and -1 for Second.
type Pair struct {
	First, Second float64
}

// AVAClassifier is the all-versus-all reduction. For every pair of classes
// i < j it trains a binary learner on copies of just those two classes'
// examples, and classifies by confidence-weighted voting.
type AVAClassifier struct {
	state   *model.StateManager
	factory model.Factory
	cfg     config

	classes    []float64
	pairs      [][2]int // class positions of each pair learner
	estimators []model.Classifier
}

// NewAVAClassifier creates an untrained reduction over learners minted by
// factory.
func NewAVAClassifier(factory model.Factory, opts ...Option) *AVAClassifier {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &AVAClassifier{
		state:   model.NewStateManager(),
		factory: factory,
		cfg:     cfg,
	}
}

// Train freezes the class order and trains K(K-1)/2 pair learners, ordered
// by (i, j) with i < j. Prior state is discarded; on error the previous model
// is kept.
func (a *AVAClassifier) Train(ds *data.DataSet) error {
	const op = "AVAClassifier.Train"
	classes, err := checkTrainable(op, a.factory, ds)
	if err != nil {
		return err
	}
	k := len(classes)

	logger := log.GetLoggerWithName("multiclass").With(log.ModelNameKey, "AVAClassifier")
	logger.Debug("Training started",
		log.OperationKey, log.OperationTrain,
		log.SamplesKey, ds.Len(),
		log.ClassesKey, k,
		log.SubproblemsKey, k*(k-1)/2,
	)
	start := time.Now()

	pairs := make([][2]int, 0, k*(k-1)/2)
	subsets := make([]*data.DataSet, 0, k*(k-1)/2)
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			first, second := classes[i], classes[j]
			pairs = append(pairs, [2]int{i, j})
			subsets = append(subsets, binaryDataSet(ds, func(label float64) (float64, bool) {
				switch {
				case data.SameLabel(label, first):
					return Positive, true
				case data.SameLabel(label, second):
					return Negative, true
				}
				return 0, false
			}))
		}
	}
	estimators, err := trainAll(op, a.factory, subsets, a.cfg.workers)
	if err != nil {
		return err
	}

	_ = a.state.WithStateMut(func() error {
		a.classes = classes
		a.pairs = pairs
		a.estimators = estimators
		return nil
	})
	a.state.SetTrained(len(ds.AllFeatureIndices()), ds.Len(), k)

	logger.Debug("Training completed",
		log.OperationKey, log.OperationTrain,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Votes returns the confidence-weighted vote tally per class, aligned with
// Classes. A pair learner predicting +1 adds its confidence to the first class
// and subtracts it from the second; -1 does the reverse; any other prediction
// is ignored.
func (a *AVAClassifier) Votes(e *data.Example) ([]float64, error) {
	if err := a.state.RequireTrained("AVAClassifier", "Votes"); err != nil {
		return nil, err
	}
	var votes []float64
	err := a.state.WithState(func() error {
		var err error
		votes, err = a.votes(e)
		return err
	})
	return votes, err
}

func (a *AVAClassifier) votes(e *data.Example) ([]float64, error) {
	votes := make([]float64, len(a.classes))
	for k, est := range a.estimators {
		conf, err := est.Confidence(e)
		if err != nil {
			return nil, err
		}
		pred, err := est.Classify(e)
		if err != nil {
			return nil, err
		}
		i, j := a.pairs[k][0], a.pairs[k][1]
		switch {
		case data.SameLabel(pred, Positive):
			votes[i] += conf
			votes[j] -= conf
		case data.SameLabel(pred, Negative):
			votes[i] -= conf
			votes[j] += conf
		}
	}
	return votes, nil
}

// Classify returns the class with the most votes; ties go to the earlier
// class.
func (a *AVAClassifier) Classify(e *data.Example) (float64, error) {
	if err := a.state.RequireTrained("AVAClassifier", "Classify"); err != nil {
		return 0, err
	}
	var label float64
	err := a.state.WithState(func() error {
		votes, err := a.votes(e)
		if err != nil {
			return err
		}
		best := 0
		for i, v := range votes {
			if v > votes[best] {
				best = i
			}
		}
		label = a.classes[best]
		return nil
	})
	return label, err
}

// Confidence is not defined for the reduction; it returns 0 once trained.
func (a *AVAClassifier) Confidence(e *data.Example) (float64, error) {
	if err := a.state.RequireTrained("AVAClassifier", "Confidence"); err != nil {
		return 0, err
	}
	return 0, nil
}

// Classes returns the frozen class order.
func (a *AVAClassifier) Classes() []float64 {
	var out []float64
	_ = a.state.WithState(func() error {
		out = append(out, a.classes...)
		return nil
	})
	return out
}

// Pairs returns the class pair of each learner, aligned with Estimators.
func (a *AVAClassifier) Pairs() []Pair {
	var out []Pair
	_ = a.state.WithState(func() error {
		for _, p := range a.pairs {
			out = append(out, Pair{First: a.classes[p[0]], Second: a.classes[p[1]]})
		}
		return nil
	})
	return out
}

// Estimators returns the pair learners aligned with Pairs.
func (a *AVAClassifier) Estimators() []model.Classifier {
	var out []model.Classifier
	_ = a.state.WithState(func() error {
		out = append(out, a.estimators...)
		return nil
	})
	return out
}

// IsTrained reports whether Train has completed.
func (a *AVAClassifier) IsTrained() bool {
	return a.state.IsTrained()
}

// GetParams returns the reduction's settings.
func (a *AVAClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"strategy": "ava",
		"workers":  a.cfg.workers,
	}
}
