package main

import (
	"context"
	"io"

	"github.com/pborman/getopt"

	"github.com/YuminosukeSato/tabclass/internal/experiment"
)

func mainExperiment(args []string, stdout, stderr io.Writer) error {
	options := getopt.New()
	optQuiet := options.BoolLong("quiet", 'q', "print only the summary table")
	optHelp := options.BoolLong("help", 'h', "print help")
	options.SetParameters("<PLAN.yaml>")

	ok, err := parseArgs(options, args, optHelp, func(n int) bool { return n == 1 }, stdout, stderr)
	if !ok {
		return err
	}

	plan, err := experiment.LoadPlan(options.Args()[0])
	if err != nil {
		return err
	}
	ds, err := plan.Data.Load()
	if err != nil {
		return err
	}

	progress := stdout
	if *optQuiet {
		progress = nil
	}
	report, err := experiment.NewRunner(progress).Execute(context.Background(), plan, ds)
	if err != nil {
		return err
	}
	return report.WriteSummary(stdout)
}
