package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pborman/getopt"

	"github.com/YuminosukeSato/tabclass/internal/experiment"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
)

func mainCurve(args []string, stdout, stderr io.Writer) error {
	options := getopt.New()
	learner := addLearnerFlags(options)
	dataset := addDataFlags(options)
	cv := addCVFlags(options)
	optParams := options.StringLong("params", 0, "1,5,10,20,50", "comma separated parameter values")
	optPNG := options.StringLong("png", 0, "", "write the plot to this file")
	optHelp := options.BoolLong("help", 'h', "print help")
	options.SetParameters("<DATA> [RESULT.csv]")

	ok, err := parseArgs(options, args, optHelp, func(n int) bool { return n == 1 || n == 2 }, stdout, stderr)
	if !ok {
		return err
	}

	params, err := parseInts(*optParams)
	if err != nil {
		return err
	}
	cfg, err := learner.config()
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

	points, err := experiment.LearningCurve(context.Background(), cfg, params, ds, opts...)
	if err != nil {
		return err
	}
	if *optPNG != "" {
		if err := experiment.SaveCurvePNG(*optPNG, cfg, points); err != nil {
			return err
		}
	}
	if options.NArgs() == 1 {
		return experiment.WriteCurveCSV(stdout, points)
	}
	return writeFile(options.Args()[1], func(w io.Writer) error {
		return experiment.WriteCurveCSV(w, points)
	})
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, errors.NewValidationError("params", "not an integer", field)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, errors.NewValidationError("params", "must not be empty", s)
	}
	return out, nil
}

func writeFile(path string, fn func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		return err
	}
	return w.Flush()
}
