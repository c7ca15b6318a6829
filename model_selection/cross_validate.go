package model_selection

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/core/model"
	"github.com/YuminosukeSato/tabclass/core/parallel"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
	"github.com/YuminosukeSato/tabclass/pkg/log"
)

// Default cross-validation settings.
const (
	DefaultFolds = 10
	DefaultSeed  = 42
)

// Option configures CrossValidate and ShuffleSplit.
type Option func(*options)

type options struct {
	folds      int
	shuffle    bool
	stratified bool
	seed       uint64
	workers    int
}

func defaultOptions() options {
	return options{
		folds:   DefaultFolds,
		shuffle: true,
		seed:    DefaultSeed,
		workers: 1,
	}
}

// WithFolds sets k for CrossValidate, or the number of repeats for
// ShuffleSplit.
func WithFolds(k int) Option {
	return func(o *options) {
		o.folds = k
	}
}

// WithShuffle controls whether CrossValidate shuffles before building folds.
func WithShuffle(shuffle bool) Option {
	return func(o *options) {
		o.shuffle = shuffle
	}
}

// WithStratified keeps each label's share roughly equal across folds.
func WithStratified(stratified bool) Option {
	return func(o *options) {
		o.stratified = stratified
	}
}

// WithSeed sets the shuffle seed.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithWorkers evaluates up to n folds concurrently; n <= 0 uses every CPU.
// Results do not depend on n.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// FoldResult is one fold's train/test outcome.
type FoldResult struct {
	Result
	TrainSize int
	FitTime   time.Duration
}

// CVResult aggregates fold results.
type CVResult struct {
	Folds []FoldResult

	// Correct and Total are pooled over every fold's test set, so
	// Accuracy = Correct / Total weighs folds by their size.
	Correct  int
	Total    int
	Accuracy float64

	// Mean and StdDev summarize the per-fold accuracies (sample standard
	// deviation; 0 for a single fold).
	Mean   float64
	StdDev float64
}

// FoldAccuracies returns each fold's test accuracy.
func (r *CVResult) FoldAccuracies() []float64 {
	out := make([]float64, len(r.Folds))
	for i, f := range r.Folds {
		out[i] = f.Accuracy
	}
	return out
}

func summarize(folds []FoldResult) *CVResult {
	res := &CVResult{Folds: folds}
	for _, f := range folds {
		res.Correct += f.Correct
		res.Total += f.Total
	}
	if res.Total > 0 {
		res.Accuracy = float64(res.Correct) / float64(res.Total)
	}
	accs := res.FoldAccuracies()
	if len(accs) > 1 {
		res.Mean, res.StdDev = stat.MeanStdDev(accs, nil)
	} else if len(accs) == 1 {
		res.Mean = accs[0]
	}
	return res
}

// runSplits trains a fresh learner per split and evaluates it. A panicking
// learner fails its split with a PanicError instead of crashing the run.
func runSplits(ctx context.Context, op string, factory model.Factory, n, workers int,
	split func(i int) (data.Split, error)) ([]FoldResult, error) {
	if factory == nil {
		return nil, errors.NewValidationError("factory", "must not be nil", nil)
	}
	logger := log.GetLoggerWithName("model_selection")

	folds := make([]FoldResult, n)
	err := parallel.ForEach(ctx, n, workers, func(_ context.Context, i int) error {
		return errors.SafeExecute(fmt.Sprintf("%s fold %d", op, i), func() error {
			s, err := split(i)
			if err != nil {
				return err
			}
			clf := factory.New()
			start := time.Now()
			if err := clf.Train(s.Train); err != nil {
				return errors.Wrapf(err, "%s: fold %d", op, i)
			}
			fit := time.Since(start)
			res, err := Evaluate(clf, s.Test)
			if err != nil {
				return errors.Wrapf(err, "%s: fold %d", op, i)
			}
			folds[i] = FoldResult{Result: res, TrainSize: s.Train.Len(), FitTime: fit}
			logger.Debug("Fold evaluated",
				log.OperationKey, log.OperationCrossValidate,
				log.FoldKey, i,
				log.SamplesKey, s.Train.Len(),
				log.AccuracyKey, res.Accuracy,
				log.DurationMsKey, fit.Milliseconds(),
			)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return folds, nil
}

// CrossValidate runs k-fold cross validation: for each fold a fresh learner
// from factory is trained on the other folds and scored on this one.
func CrossValidate(ctx context.Context, factory model.Factory, ds *data.DataSet, opts ...Option) (*CVResult, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var (
		cv  *data.CrossValidationSet
		err error
	)
	if o.stratified {
		cv, err = ds.StratifiedCrossValidationSet(o.folds, o.shuffle, o.seed)
	} else {
		cv, err = ds.CrossValidationSet(o.folds, o.shuffle, o.seed)
	}
	if err != nil {
		return nil, err
	}

	folds, err := runSplits(ctx, "CrossValidate", factory, cv.NumSplits(), o.workers, cv.ValidationSet)
	if err != nil {
		return nil, err
	}
	res := summarize(folds)
	log.GetLoggerWithName("model_selection").Debug("Cross validation completed",
		log.OperationKey, log.OperationCrossValidate,
		log.SamplesKey, ds.Len(),
		log.RandomSeedKey, o.seed,
		log.AccuracyKey, res.Accuracy,
		log.StdDevKey, res.StdDev,
	)
	return res, nil
}

// ShuffleSplit repeats a random train/test split WithFolds times, using seed
// + i for repeat i, and pools the results the way CrossValidate does.
func ShuffleSplit(ctx context.Context, factory model.Factory, ds *data.DataSet, trainFraction float64, opts ...Option) (*CVResult, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.folds < 1 {
		return nil, errors.NewValidationError("repeats", "must be at least 1", o.folds)
	}
	if _, err := ds.Split(trainFraction, o.seed); err != nil {
		return nil, err
	}

	folds, err := runSplits(ctx, "ShuffleSplit", factory, o.folds, o.workers, func(i int) (data.Split, error) {
		return ds.Split(trainFraction, o.seed+uint64(i))
	})
	if err != nil {
		return nil, err
	}
	return summarize(folds), nil
}
