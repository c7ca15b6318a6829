// Package model defines the capability every learner implements and the
// factory the multiclass reductions use to mint fresh learners.
package model

import (
	"github.com/YuminosukeSato/tabclass/core/data"
)

// Classifier is the contract every learner satisfies.
//
// Train replaces any prior model state; calling it twice on the same dataset
// yields an equivalent model. Classify and Confidence fail with a
// NotTrainedError before the first successful Train.
type Classifier interface {
	// Train fits the model to ds. It fails only on malformed input.
	Train(ds *data.DataSet) error

	// Classify returns the predicted label for e.
	Classify(e *data.Example) (float64, error)

	// Confidence returns a non-negative score where larger means more sure.
	// Only comparisons within one trained model are meaningful.
	Confidence(e *data.Example) (float64, error)
}

// MulticlassLearner is implemented by learners that model K classes directly.
// The binary reductions reject factories that mint one, since its confidence
// is not on the binary scale.
type MulticlassLearner interface {
	Classifier

	// NumClasses returns K as fixed by the last Train.
	NumClasses() int
}

// ParameterGetter is the interface for learners that expose their
// hyperparameters.
type ParameterGetter interface {
	// GetParams returns the learner's hyperparameters.
	GetParams() map[string]interface{}
}
