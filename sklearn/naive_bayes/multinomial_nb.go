// Package naive_bayes provides a multinomial naive Bayes classifier over
// sparse count features.
package naive_bayes

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

// DefaultAlpha is the additive smoothing strength.
const DefaultAlpha = 1.0

// MultinomialNB is a naive Bayes classifier for count features. Absent
// features count as 0. Labels may be any reals; classes are the distinct
// training labels in ascending order.
type MultinomialNB struct {
	state *model.StateManager

	// Hyperparameters
	alpha    float64 // Additive (Laplace/Lidstone) smoothing
	fitPrior bool    // Learn class priors, or use a uniform prior

	// Model parameters
	classes        []float64
	column         map[int]int
	classLogPrior  []float64
	featureLogProb *mat.Dense // K × F
}

// Option is a functional option for MultinomialNB
type Option func(*MultinomialNB)

// NewMultinomialNB creates an untrained classifier with alpha = 1 and learned
// priors.
func NewMultinomialNB(opts ...Option) *MultinomialNB {
	nb := &MultinomialNB{
		state:    model.NewStateManager(),
		alpha:    DefaultAlpha,
		fitPrior: true,
	}
	for _, opt := range opts {
		opt(nb)
	}
	return nb
}

// WithAlpha sets the smoothing strength. Zero disables smoothing.
func WithAlpha(alpha float64) Option {
	return func(nb *MultinomialNB) {
		nb.alpha = alpha
	}
}

// WithFitPrior selects learned (true) or uniform (false) class priors.
func WithFitPrior(fit bool) Option {
	return func(nb *MultinomialNB) {
		nb.fitPrior = fit
	}
}

// Train counts features per class. Prior state is discarded; on error the
// previous model is kept.
func (nb *MultinomialNB) Train(ds *data.DataSet) error {
	if nb.alpha < 0 || math.IsNaN(nb.alpha) || math.IsInf(nb.alpha, 0) {
		return errors.NewValidationError("alpha", "must be a non-negative finite number", nb.alpha)
	}
	features := ds.AllFeatureIndices()
	if err := model.RequireTrainable("MultinomialNB.Train", ds.Len(), len(features)); err != nil {
		return err
	}

	logger := log.GetLoggerWithName("naive_bayes").With(log.ModelNameKey, "MultinomialNB")
	start := time.Now()

	classes := ds.Labels()
	classIdx := make(map[float64]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}
	column := make(map[int]int, len(features))
	for j, f := range features {
		column[f] = j
	}

	k, nFeatures := len(classes), len(features)
	counts := mat.NewDense(k, nFeatures, nil)
	classCount := make([]float64, k)
	for _, e := range ds.Data() {
		c := classIdx[e.Label()]
		classCount[c]++
		row := counts.RawRowView(c)
		for _, f := range e.FeatureSet() {
			v := e.Feature(f)
			if v < 0 {
				return errors.NewPreconditionErrorf("MultinomialNB.Train", "negative count %g for feature %d", v, f)
			}
			row[column[f]] += v
		}
	}

	logPrior := make([]float64, k)
	for c := range logPrior {
		if nb.fitPrior {
			logPrior[c] = math.Log(classCount[c] / float64(ds.Len()))
		} else {
			logPrior[c] = -math.Log(float64(k))
		}
	}

	logProb := mat.NewDense(k, nFeatures, nil)
	for c := 0; c < k; c++ {
		row := counts.RawRowView(c)
		total := floats.Sum(row) + nb.alpha*float64(nFeatures)
		out := logProb.RawRowView(c)
		for j, n := range row {
			out[j] = math.Log((n + nb.alpha) / total)
		}
	}

	_ = nb.state.WithStateMut(func() error {
		nb.classes = classes
		nb.column = column
		nb.classLogPrior = logPrior
		nb.featureLogProb = logProb
		return nil
	})
	nb.state.SetTrained(nFeatures, ds.Len(), k)

	logger.Debug("Training completed",
		log.OperationKey, log.OperationTrain,
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, nFeatures,
		log.ClassesKey, k,
		log.RegularizationKey, nb.alpha,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// jointLogLikelihood returns log P(c) + Σ x_f log P(f|c) per class. Features
// outside the training index set are ignored.
func (nb *MultinomialNB) jointLogLikelihood(e *data.Example) []float64 {
	jll := append([]float64(nil), nb.classLogPrior...)
	for _, f := range e.FeatureSet() {
		j, ok := nb.column[f]
		if !ok {
			continue
		}
		x := e.Feature(f)
		if x == 0 {
			continue
		}
		for c := range jll {
			jll[c] += x * nb.featureLogProb.At(c, j)
		}
	}
	return jll
}

// PredictLogProba returns the normalized log posterior, aligned with Classes.
func (nb *MultinomialNB) PredictLogProba(e *data.Example) ([]float64, error) {
	if err := nb.state.RequireTrained("MultinomialNB", "PredictLogProba"); err != nil {
		return nil, err
	}
	var out []float64
	_ = nb.state.WithState(func() error {
		out = nb.logProba(e)
		return nil
	})
	return out, nil
}

func (nb *MultinomialNB) logProba(e *data.Example) []float64 {
	jll := nb.jointLogLikelihood(e)
	if math.IsInf(floats.Max(jll), -1) {
		// Every class ruled out by an unsmoothed zero count
		uniform := -math.Log(float64(len(jll)))
		for c := range jll {
			jll[c] = uniform
		}
		return jll
	}
	floats.AddConst(-floats.LogSumExp(jll), jll)
	return jll
}

// PredictProba returns the posterior distribution, aligned with Classes.
func (nb *MultinomialNB) PredictProba(e *data.Example) ([]float64, error) {
	logProba, err := nb.PredictLogProba(e)
	if err != nil {
		return nil, err
	}
	for c, lp := range logProba {
		logProba[c] = math.Exp(lp)
	}
	return logProba, nil
}

// Classify returns the label with the largest posterior; ties go to the
// smallest label.
func (nb *MultinomialNB) Classify(e *data.Example) (float64, error) {
	if err := nb.state.RequireTrained("MultinomialNB", "Classify"); err != nil {
		return 0, err
	}
	var label float64
	_ = nb.state.WithState(func() error {
		label = nb.classes[floats.MaxIdx(nb.jointLogLikelihood(e))]
		return nil
	})
	return label, nil
}

// Confidence returns the largest posterior probability.
func (nb *MultinomialNB) Confidence(e *data.Example) (float64, error) {
	probs, err := nb.PredictProba(e)
	if err != nil {
		return 0, err
	}
	return floats.Max(probs), nil
}

// Classes returns the training labels in ascending order.
func (nb *MultinomialNB) Classes() []float64 {
	var out []float64
	_ = nb.state.WithState(func() error {
		out = append(out, nb.classes...)
		return nil
	})
	return out
}

// NumClasses returns K as fixed by the last Train.
func (nb *MultinomialNB) NumClasses() int {
	_, _, k := nb.state.GetDimensions()
	return k
}

// IsTrained reports whether Train has completed.
func (nb *MultinomialNB) IsTrained() bool {
	return nb.state.IsTrained()
}

// GetParams returns the model hyperparameters
func (nb *MultinomialNB) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha":     nb.alpha,
		"fit_prior": nb.fitPrior,
	}
}
