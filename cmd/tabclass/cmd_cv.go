package main

import (
	"context"
	"fmt"
	"io"

	"github.com/pborman/getopt"

	"github.com/YuminosukeSato/tabclass/model_selection"
)

func mainCV(args []string, stdout, stderr io.Writer) error {
	options := getopt.New()
	learner := addLearnerFlags(options)
	dataset := addDataFlags(options)
	cv := addCVFlags(options)
	optHelp := options.BoolLong("help", 'h', "print help")
	options.SetParameters("<DATA>")

	ok, err := parseArgs(options, args, optHelp, func(n int) bool { return n == 1 }, stdout, stderr)
	if !ok {
		return err
	}

	cfg, err := learner.config()
	if err != nil {
		return err
	}
	f, err := cfg.ClassifierFactory()
	if err != nil {
		return err
	}
	opts, err := cv.options()
	if err != nil {
		return err
	}
	ds, err := dataset.load(options.Args()[0])
	if err != nil {
		return err
	}

	res, err := model_selection.CrossValidate(context.Background(), f, ds, opts...)
	if err != nil {
		return err
	}
	for i, fold := range res.Folds {
		fmt.Fprintf(stdout, "fold %2d: %d/%d correct, accuracy %.4f\n", i, fold.Correct, fold.Total, fold.Accuracy)
	}
	fmt.Fprintf(stdout, "%s: accuracy %.4f (%d/%d), mean %.4f, sd %.4f\n",
		cfg, res.Accuracy, res.Correct, res.Total, res.Mean, res.StdDev)
	return nil
}
