// Command tabclass trains and evaluates the tabclass learners from the
// command line.
//
//	tabclass [--log-level LEVEL] [--log-backend zerolog|zap] <COMMAND> ...
//
// Commands:
//
//	cv          cross validate one learner on a dataset
//	experiment  run a YAML experiment plan and print a summary table
//	curve       plot accuracy against the iteration count or tree depth
//	generate    write a synthetic Gaussian blob dataset
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pborman/getopt"

	"github.com/YuminosukeSato/tabclass/pkg/errors"
	"github.com/YuminosukeSato/tabclass/pkg/log"
)

func main() {
	if err := run(os.Args, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "tabclass: %v\n", err)
		os.Exit(1)
	}
}

// errUsage reports that usage text was printed instead of running anything.
var errUsage = errors.New("invalid arguments")

func run(args []string, stdout, stderr io.Writer) error {
	options := getopt.New()
	options.SetProgram("tabclass")

	optLevel := options.StringLong("log-level", 0, "warn", "log level: debug, info, warn or error")
	optBackend := options.StringLong("log-backend", 0, "zerolog", "log backend: zerolog or zap")
	optHelp := options.BoolLong("help", 'h', "print help")

	options.SetParameters("<COMMAND>\n\n" +
		" Commands:\n" +
		"     cv         - cross validate a learner\n" +
		"     experiment - run a YAML experiment plan\n" +
		"     curve      - learning curve as PNG and CSV\n" +
		"     generate   - write a synthetic blob dataset\n")
	if err := options.Getopt(args, nil); err != nil {
		options.PrintUsage(stderr)
		return err
	}
	if *optHelp {
		options.PrintUsage(stdout)
		return nil
	}
	if err := setupLogging(*optLevel, *optBackend, stderr); err != nil {
		return err
	}
	if options.NArgs() == 0 {
		options.PrintUsage(stderr)
		return errUsage
	}

	command := options.Args()
	switch command[0] {
	case "cv":
		return mainCV(command, stdout, stderr)
	case "experiment":
		return mainExperiment(command, stdout, stderr)
	case "curve":
		return mainCurve(command, stdout, stderr)
	case "generate":
		return mainGenerate(command, stdout, stderr)
	default:
		options.PrintUsage(stderr)
		return errors.Newf("unknown command %q", command[0])
	}
}

func setupLogging(level, backend string, stderr io.Writer) error {
	lvl, ok := log.ParseLevel(level)
	if !ok {
		return errors.NewValidationError("log-level", "must be debug, info, warn or error", level)
	}
	switch backend {
	case "zerolog":
		log.SetProvider(log.NewZerologProvider(stderr, lvl))
	case "zap":
		p, err := log.NewZapProvider(lvl)
		if err != nil {
			return errors.Wrap(err, "building zap logger")
		}
		log.SetProvider(p)
	default:
		return errors.NewValidationError("log-backend", "must be zerolog or zap", backend)
	}
	return nil
}

// parseArgs parses a command's own options. args[0] is the command name.
func parseArgs(options *getopt.Set, args []string, help *bool, nArgs func(int) bool, stdout, stderr io.Writer) (bool, error) {
	if err := options.Getopt(args, nil); err != nil {
		options.PrintUsage(stderr)
		return false, err
	}
	if *help {
		options.PrintUsage(stdout)
		return false, nil
	}
	if !nArgs(options.NArgs()) {
		options.PrintUsage(stderr)
		return false, errUsage
	}
	return true, nil
}
