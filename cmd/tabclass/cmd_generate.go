package main

import (
	"io"
	"strconv"

	"github.com/pborman/getopt"

	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
)

func mainGenerate(args []string, stdout, stderr io.Writer) error {
	options := getopt.New()
	optSamples := options.IntLong("samples", 'n', 300, "number of examples")
	optFeatures := options.IntLong("features", 0, 2, "number of features")
	optClasses := options.IntLong("classes", 'c', 3, "number of classes")
	optSpread := options.StringLong("spread", 0, "1.0", "cluster standard deviation")
	optSeed := options.IntLong("seed", 0, 1, "random seed")
	optFormat := options.StringLong("format", 'f', "csv", "output format: csv or sparse")
	optHelp := options.BoolLong("help", 'h', "print help")
	options.SetParameters("[OUTPUT]")

	ok, err := parseArgs(options, args, optHelp, func(n int) bool { return n <= 1 }, stdout, stderr)
	if !ok {
		return err
	}

	spread, err := strconv.ParseFloat(*optSpread, 64)
	if err != nil {
		return errors.NewValidationError("spread", "not a number", *optSpread)
	}
	if *optSeed < 0 {
		return errors.NewValidationError("seed", "must be non-negative", *optSeed)
	}
	format, err := data.ParseFormat(*optFormat)
	if err != nil {
		return err
	}
	ds, err := data.MakeBlobs(*optSamples, *optFeatures, *optClasses, spread, uint64(*optSeed))
	if err != nil {
		return err
	}

	if options.NArgs() == 0 {
		return data.Write(stdout, ds, format)
	}
	return writeFile(options.Args()[0], func(w io.Writer) error {
		return data.Write(w, ds, format)
	})
}
