package multiclass

import (
	"time"

	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/core/model"
	"github.com/YuminosukeSato/tabclass/pkg/log"
)

// OVAClassifier is the one-versus-all reduction. For each class it trains a
// binary learner on copies of the data labeled +1 for that class and -1 for
// every other class.
type OVAClassifier struct {
	state   *model.StateManager
	factory model.Factory
	cfg     config

	classes    []float64
	estimators []model.Classifier
}

// NewOVAClassifier creates an untrained reduction over learners minted by
// factory.
func NewOVAClassifier(factory model.Factory, opts ...Option) *OVAClassifier {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &OVAClassifier{
		state:   model.NewStateManager(),
		factory: factory,
		cfg:     cfg,
	}
}

// Train freezes the class order (ascending labels) and trains one binary
// learner per class. Prior state is discarded; on error the previous model
// is kept.
func (o *OVAClassifier) Train(ds *data.DataSet) error {
	const op = "OVAClassifier.Train"
	classes, err := checkTrainable(op, o.factory, ds)
	if err != nil {
		return err
	}

	logger := log.GetLoggerWithName("multiclass").With(log.ModelNameKey, "OVAClassifier")
	logger.Debug("Training started",
		log.OperationKey, log.OperationTrain,
		log.SamplesKey, ds.Len(),
		log.ClassesKey, len(classes),
		log.SubproblemsKey, len(classes),
	)
	start := time.Now()

	subsets := make([]*data.DataSet, len(classes))
	for i, c := range classes {
		subsets[i] = binaryDataSet(ds, func(label float64) (float64, bool) {
			if data.SameLabel(label, c) {
				return Positive, true
			}
			return Negative, true
		})
	}
	estimators, err := trainAll(op, o.factory, subsets, o.cfg.workers)
	if err != nil {
		return err
	}

	_ = o.state.WithStateMut(func() error {
		o.classes = classes
		o.estimators = estimators
		return nil
	})
	o.state.SetTrained(len(ds.AllFeatureIndices()), ds.Len(), len(classes))

	logger.Debug("Training completed",
		log.OperationKey, log.OperationTrain,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Classify returns the class whose learner predicts +1 with the largest
// confidence. When no learner predicts +1 it returns the class whose learner
// is least confident. Ties go to the earlier class.
func (o *OVAClassifier) Classify(e *data.Example) (float64, error) {
	if err := o.state.RequireTrained("OVAClassifier", "Classify"); err != nil {
		return 0, err
	}
	var label float64
	err := o.state.WithState(func() error {
		best, weakest := -1, -1
		var bestConf, weakestConf float64
		for i, est := range o.estimators {
			conf, err := est.Confidence(e)
			if err != nil {
				return err
			}
			pred, err := est.Classify(e)
			if err != nil {
				return err
			}
			if data.SameLabel(pred, Positive) && (best < 0 || conf > bestConf) {
				best, bestConf = i, conf
			}
			if weakest < 0 || conf < weakestConf {
				weakest, weakestConf = i, conf
			}
		}
		if best < 0 {
			best = weakest
		}
		label = o.classes[best]
		return nil
	})
	return label, err
}

// Confidence is not defined for the reduction; it returns 0 once trained.
func (o *OVAClassifier) Confidence(e *data.Example) (float64, error) {
	if err := o.state.RequireTrained("OVAClassifier", "Confidence"); err != nil {
		return 0, err
	}
	return 0, nil
}

// Classes returns the frozen class order.
func (o *OVAClassifier) Classes() []float64 {
	var out []float64
	_ = o.state.WithState(func() error {
		out = append(out, o.classes...)
		return nil
	})
	return out
}

// Estimators returns the binary learners aligned with Classes.
func (o *OVAClassifier) Estimators() []model.Classifier {
	var out []model.Classifier
	_ = o.state.WithState(func() error {
		out = append(out, o.estimators...)
		return nil
	})
	return out
}

// IsTrained reports whether Train has completed.
func (o *OVAClassifier) IsTrained() bool {
	return o.state.IsTrained()
}

// GetParams returns the reduction's settings.
func (o *OVAClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"strategy": "ova",
		"workers":  o.cfg.workers,
	}
}
