// Package factory turns a small configuration record into a model.Factory, so
// reductions and experiment plans do not hard-code which learner they build.
package factory

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/tabclass/core/model"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
	"github.com/YuminosukeSato/tabclass/preprocessing"
	"github.com/YuminosukeSato/tabclass/sklearn/linear_model"
	"github.com/YuminosukeSato/tabclass/sklearn/multiclass"
	"github.com/YuminosukeSato/tabclass/sklearn/naive_bayes"
	"github.com/YuminosukeSato/tabclass/sklearn/tree"
)

// Learner kinds.
const (
	KindDecisionTree = "dt"
	KindLR           = "lr"
	KindMultiLR      = "multilr"
	KindNaiveBayes   = "nb"
)

// Reductions that wrap a binary learner.
const (
	ReductionNone = ""
	ReductionOVA  = "ova"
	ReductionAVA  = "ava"
)

// Config describes one learner. Param is the decision tree's maximum depth
// (0 means unlimited) or the number of SGD passes for the logistic kinds (0
// means linear_model.DefaultIterations); the naive Bayes kind ignores it.
// Zero LearningRate selects the learner default. Lambda is the MultiLR L2
// strength or the naive Bayes smoothing strength (0 means
// naive_bayes.DefaultAlpha). The multilr kind maps labels to class indices
// itself, so any label values and any fold's label subset train.
// Workers bounds concurrent sub-problem training in a reduction: 0 trains
// sequentially and a negative value uses every CPU. Scale names a scaler
// ("standard" or "minmax") fitted on each training set before the learner.
type Config struct {
	Kind           string  `yaml:"kind"`
	Param          int     `yaml:"param"`
	LearningRate   float64 `yaml:"learning_rate"`
	Lambda         float64 `yaml:"lambda"`
	ZeroOneTargets bool    `yaml:"zero_one_targets"`
	Reduction      string  `yaml:"reduction"`
	Workers        int     `yaml:"workers"`
	Scale          string  `yaml:"scale"`
}

// String names the learner the way summary tables print it, e.g. "ova(lr)"
// or "lr/standard" for a scaled learner.
func (c Config) String() string {
	name := c.Kind
	if c.Scale != preprocessing.ScaleNone {
		name += "/" + c.Scale
	}
	if c.Reduction == ReductionNone {
		return name
	}
	return fmt.Sprintf("%s(%s)", c.Reduction, name)
}

// Validate checks the configuration without building anything.
func (c Config) Validate() error {
	switch c.Kind {
	case KindDecisionTree, KindLR, KindMultiLR, KindNaiveBayes:
	default:
		return errors.NewValidationError("kind", "unknown learner kind", c.Kind)
	}
	if c.Param < 0 {
		return errors.NewValidationError("param", "must be non-negative", c.Param)
	}
	if c.LearningRate < 0 || math.IsNaN(c.LearningRate) || math.IsInf(c.LearningRate, 0) {
		return errors.NewValidationError("learning_rate", "must be a non-negative finite number", c.LearningRate)
	}
	if c.Lambda < 0 || math.IsNaN(c.Lambda) || math.IsInf(c.Lambda, 0) {
		return errors.NewValidationError("lambda", "must be a non-negative finite number", c.Lambda)
	}
	switch c.Scale {
	case preprocessing.ScaleNone:
	case preprocessing.ScaleStandard, preprocessing.ScaleMinMax:
		if c.Kind == KindNaiveBayes {
			return errors.NewValidationError("scale", "naive Bayes needs raw counts", c.Scale)
		}
	default:
		return errors.NewValidationError("scale", "must be empty, 'standard' or 'minmax'", c.Scale)
	}
	switch c.Reduction {
	case ReductionNone:
	case ReductionOVA, ReductionAVA:
		if c.Kind == KindMultiLR || c.Kind == KindNaiveBayes {
			return errors.NewValidationError("reduction", "needs a binary learner kind", c.String())
		}
	default:
		return errors.NewValidationError("reduction", "must be empty, 'ova' or 'ava'", c.Reduction)
	}
	return nil
}

// Factory returns a factory for the learner kind, ignoring Reduction. With
// Scale set every learner it mints is wrapped in a ScaledClassifier.
func (c Config) Factory() (model.Factory, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	f := c.learner()
	if c.Scale == preprocessing.ScaleNone {
		return f, nil
	}
	scale := c.Scale
	return func() model.Classifier {
		// Validate accepted the name, so NewScaler cannot fail.
		scaler, _ := preprocessing.NewScaler(scale)
		return preprocessing.NewScaledClassifier(scaler, f.New())
	}, nil
}

func (c Config) learner() model.Factory {
	switch c.Kind {
	case KindDecisionTree:
		depth := c.Param
		return func() model.Classifier {
			return tree.NewDecisionTreeClassifier(tree.WithMaxDepth(depth))
		}
	case KindLR:
		opts := []linear_model.LogisticRegressionOption{
			linear_model.WithLRIterations(c.iterations()),
			linear_model.WithLRZeroOneTargets(c.ZeroOneTargets),
		}
		if c.LearningRate > 0 {
			opts = append(opts, linear_model.WithLRLearningRate(c.LearningRate))
		}
		return func() model.Classifier {
			return linear_model.NewLogisticRegression(opts...)
		}
	case KindMultiLR:
		opts := []linear_model.MultinomialOption{
			linear_model.WithMultiLRIterations(c.iterations()),
			linear_model.WithMultiLRLambda(c.Lambda),
			linear_model.WithMultiLRLabelIndex(true),
		}
		if c.LearningRate > 0 {
			opts = append(opts, linear_model.WithMultiLRLearningRate(c.LearningRate))
		}
		return func() model.Classifier {
			return linear_model.NewMultinomialLogisticRegression(opts...)
		}
	default:
		alpha := c.Lambda
		if alpha == 0 {
			alpha = naive_bayes.DefaultAlpha
		}
		return func() model.Classifier {
			return naive_bayes.NewMultinomialNB(naive_bayes.WithAlpha(alpha))
		}
	}
}

// Classifier builds a fresh learner, wrapped in the configured reduction.
func (c Config) Classifier() (model.Classifier, error) {
	f, err := c.Factory()
	if err != nil {
		return nil, err
	}
	switch c.Reduction {
	case ReductionOVA:
		return multiclass.NewOVAClassifier(f, multiclass.WithWorkers(c.workers())), nil
	case ReductionAVA:
		return multiclass.NewAVAClassifier(f, multiclass.WithWorkers(c.workers())), nil
	default:
		return f.New(), nil
	}
}

// ClassifierFactory is Classifier as a model.Factory, for evaluation loops
// that need a fresh model per fold.
func (c Config) ClassifierFactory() (model.Factory, error) {
	if _, err := c.Classifier(); err != nil {
		return nil, err
	}
	return func() model.Classifier {
		clf, _ := c.Classifier()
		return clf
	}, nil
}

func (c Config) iterations() int {
	if c.Param == 0 {
		return linear_model.DefaultIterations
	}
	return c.Param
}

func (c Config) workers() int {
	if c.Workers == 0 {
		return 1
	}
	return c.Workers
}
