package preprocessing

import (
	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/core/model"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
)

// ScaledClassifier fits a scaler on the training set and feeds rescaled
// examples to the wrapped classifier, both in Train and at prediction time.
type ScaledClassifier struct {
	scaler Scaler
	inner  model.Classifier
}

type probabilistic interface {
	PredictProba(e *data.Example) (float64, error)
}

// ScaledProbabilisticClassifier is a ScaledClassifier whose wrapped
// classifier reports P(y = 1 | x).
type ScaledProbabilisticClassifier struct {
	*ScaledClassifier
	proba probabilistic
}

// NewScaledClassifier wraps inner. Train refits scaler every time. The
// result is a *ScaledProbabilisticClassifier when inner has PredictProba and
// a *ScaledClassifier otherwise.
func NewScaledClassifier(scaler Scaler, inner model.Classifier) model.Classifier {
	c := &ScaledClassifier{scaler: scaler, inner: inner}
	if p, ok := inner.(probabilistic); ok {
		return &ScaledProbabilisticClassifier{ScaledClassifier: c, proba: p}
	}
	return c
}

// Train fits the scaler on ds, then trains the wrapped classifier on the
// rescaled copy. ds is not modified.
func (c *ScaledClassifier) Train(ds *data.DataSet) error {
	if err := c.scaler.Fit(ds); err != nil {
		return err
	}
	scaled, err := Transform(c.scaler, ds)
	if err != nil {
		return err
	}
	return c.inner.Train(scaled)
}

// Classify rescales e and classifies it.
func (c *ScaledClassifier) Classify(e *data.Example) (float64, error) {
	s, err := c.transform(e, "Classify")
	if err != nil {
		return 0, err
	}
	return c.inner.Classify(s)
}

// Confidence rescales e and returns the wrapped classifier's confidence.
func (c *ScaledClassifier) Confidence(e *data.Example) (float64, error) {
	s, err := c.transform(e, "Confidence")
	if err != nil {
		return 0, err
	}
	return c.inner.Confidence(s)
}

// PredictProba rescales e and returns the wrapped classifier's P(y = 1 | x).
func (c *ScaledProbabilisticClassifier) PredictProba(e *data.Example) (float64, error) {
	s, err := c.transform(e, "PredictProba")
	if err != nil {
		return 0, err
	}
	return c.proba.PredictProba(s)
}

// Unwrap returns the wrapped classifier.
func (c *ScaledClassifier) Unwrap() model.Classifier {
	return c.inner
}

func (c *ScaledClassifier) transform(e *data.Example, method string) (*data.Example, error) {
	s, err := c.scaler.TransformExample(e)
	if errors.IsNotTrained(err) {
		return nil, errors.NewNotTrainedError("ScaledClassifier", method)
	}
	return s, err
}
