package main

import (
	"strconv"

	"github.com/pborman/getopt"

	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/model_selection"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
	"github.com/YuminosukeSato/tabclass/sklearn/factory"
)

// learnerFlags are the options shared by commands that build one learner.
type learnerFlags struct {
	kind         *string
	param        *int
	reduction    *string
	learningRate *string
	lambda       *string
	zeroOne      *bool
	workers      *int
	scale        *string
}

func addLearnerFlags(options *getopt.Set) *learnerFlags {
	return &learnerFlags{
		kind:         options.StringLong("kind", 'k', "lr", "learner: dt, lr, multilr or nb"),
		param:        options.IntLong("param", 'p', 0, "tree depth or number of SGD passes (0: unlimited depth, default passes)"),
		reduction:    options.StringLong("reduction", 'r', "", "multiclass reduction: ova or ava"),
		learningRate: options.StringLong("learning-rate", 0, "0", "SGD step size (0 for the default)"),
		lambda:       options.StringLong("lambda", 0, "0", "MultiLR L2 strength or naive Bayes smoothing (0: default smoothing)"),
		zeroOne:      options.BoolLong("zero-one", 0, "train binary LR against 0/1 targets"),
		workers:      options.IntLong("workers", 0, 0, "concurrent sub-problems (negative: all CPUs)"),
		scale:        options.StringLong("scale", 0, "", "rescale features first: standard or minmax"),
	}
}

func (f *learnerFlags) config() (factory.Config, error) {
	rate, err := strconv.ParseFloat(*f.learningRate, 64)
	if err != nil {
		return factory.Config{}, errors.NewValidationError("learning-rate", "not a number", *f.learningRate)
	}
	lambda, err := strconv.ParseFloat(*f.lambda, 64)
	if err != nil {
		return factory.Config{}, errors.NewValidationError("lambda", "not a number", *f.lambda)
	}
	cfg := factory.Config{
		Kind:           *f.kind,
		Param:          *f.param,
		LearningRate:   rate,
		Lambda:         lambda,
		ZeroOneTargets: *f.zeroOne,
		Reduction:      *f.reduction,
		Workers:        *f.workers,
		Scale:          *f.scale,
	}
	return cfg, cfg.Validate()
}

// dataFlags locate a dataset file.
type dataFlags struct {
	format      *string
	labelColumn *string
}

func addDataFlags(options *getopt.Set) *dataFlags {
	return &dataFlags{
		format:      options.StringLong("format", 'f', "csv", "dataset format: csv, sparse or text"),
		labelColumn: options.StringLong("label-column", 0, "", "CSV label column (default: last)"),
	}
}

func (f *dataFlags) load(path string) (*data.DataSet, error) {
	format, err := data.ParseFormat(*f.format)
	if err != nil {
		return nil, err
	}
	var opts []data.ReadOption
	if *f.labelColumn != "" {
		opts = append(opts, data.WithLabelColumn(*f.labelColumn))
	}
	return data.Load(path, format, opts...)
}

// cvFlags control fold construction.
type cvFlags struct {
	folds      *int
	seed       *int
	stratified *bool
	jobs       *int
}

func addCVFlags(options *getopt.Set) *cvFlags {
	return &cvFlags{
		folds:      options.IntLong("folds", 0, model_selection.DefaultFolds, "number of folds"),
		seed:       options.IntLong("seed", 0, model_selection.DefaultSeed, "shuffle seed"),
		stratified: options.BoolLong("stratified", 0, "keep label shares equal across folds"),
		jobs:       options.IntLong("jobs", 'j', 1, "folds evaluated concurrently (0: all CPUs)"),
	}
}

func (f *cvFlags) options() ([]model_selection.Option, error) {
	if *f.seed < 0 {
		return nil, errors.NewValidationError("seed", "must be non-negative", *f.seed)
	}
	return []model_selection.Option{
		model_selection.WithFolds(*f.folds),
		model_selection.WithSeed(uint64(*f.seed)),
		model_selection.WithStratified(*f.stratified),
		model_selection.WithWorkers(*f.jobs),
	}, nil
}
