package experiment

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/lo"

	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/core/model"
	"github.com/YuminosukeSato/tabclass/model_selection"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
	"github.com/YuminosukeSato/tabclass/pkg/log"
)

// RunResult holds every grid point of one run and its best point.
type RunResult struct {
	Run    Run
	Points []model_selection.SweepPoint
	Best   model_selection.SweepPoint
}

// Report is the outcome of a whole plan.
type Report struct {
	Results []RunResult
}

// Best returns the run whose best point has the highest accuracy; ties go to
// the earlier run. It returns false for an empty report.
func (r *Report) Best() (RunResult, bool) {
	if len(r.Results) == 0 {
		return RunResult{}, false
	}
	best := r.Results[0]
	for _, res := range r.Results[1:] {
		if res.Best.Result.Accuracy > best.Best.Result.Accuracy {
			best = res
		}
	}
	return best, true
}

// Runner executes plans. Progress lines go to Out when it is set.
type Runner struct {
	Out    io.Writer
	logger log.Logger
}

// NewRunner creates a runner that prints progress to out (nil for none).
func NewRunner(out io.Writer) *Runner {
	return &Runner{Out: out, logger: log.GetLoggerWithName("experiment")}
}

// Execute scores every run of plan on ds.
func (r *Runner) Execute(ctx context.Context, plan *Plan, ds *data.DataSet) (*Report, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	score := r.scorer(plan.Validation)

	report := &Report{Results: make([]RunResult, 0, len(plan.Runs))}
	for i, run := range plan.Runs {
		start := time.Now()
		points := make([]model_selection.SweepPoint, 0, len(run.Grid()))
		for _, param := range run.Grid() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			cfg := run.Config()
			cfg.Param = param
			f, err := cfg.ClassifierFactory()
			if err != nil {
				return nil, errors.Wrapf(err, "run %d (%s)", i, run.Label())
			}
			res, err := score(ctx, f, ds)
			if err != nil {
				return nil, errors.Wrapf(err, "run %d (%s) param %d", i, run.Label(), param)
			}
			points = append(points, model_selection.SweepPoint{Param: param, Result: res})
			r.printf("%-16s param=%-5d accuracy=%.4f (+/- %.4f)\n", run.Label(), param, res.Accuracy, res.StdDev)
		}

		best, _ := model_selection.Best(points)
		report.Results = append(report.Results, RunResult{Run: run, Points: points, Best: best})
		r.logger.Info("Run completed",
			log.ModelNameKey, run.Label(),
			log.OperationKey, log.OperationEvaluate,
			log.SamplesKey, ds.Len(),
			log.AccuracyKey, best.Result.Accuracy,
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	}
	return report, nil
}

type scoreFunc func(ctx context.Context, f model.Factory, ds *data.DataSet) (*model_selection.CVResult, error)

func (r *Runner) scorer(v Validation) scoreFunc {
	opts := v.Options()
	if v.Method == MethodShuffle {
		fraction := v.trainFraction()
		return func(ctx context.Context, f model.Factory, ds *data.DataSet) (*model_selection.CVResult, error) {
			return model_selection.ShuffleSplit(ctx, f, ds, fraction, opts...)
		}
	}
	return func(ctx context.Context, f model.Factory, ds *data.DataSet) (*model_selection.CVResult, error) {
		return model_selection.CrossValidate(ctx, f, ds, opts...)
	}
}

func (r *Runner) printf(format string, args ...any) {
	if r.Out != nil {
		fmt.Fprintf(r.Out, format, args...)
	}
}

// WriteSummary prints one row per run, "Method | param=accuracy ... | Best",
// followed by the overall best run.
func (r *Report) WriteSummary(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Method\tResults\tBest")
	for _, res := range r.Results {
		cells := lo.Map(res.Points, func(p model_selection.SweepPoint, _ int) string {
			return fmt.Sprintf("%d=%.4f", p.Param, p.Result.Accuracy)
		})
		fmt.Fprintf(tw, "%s\t%s\t%d (%.4f)\n",
			res.Run.Label(), strings.Join(cells, " "), res.Best.Param, res.Best.Result.Accuracy)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if best, ok := r.Best(); ok {
		_, err := fmt.Fprintf(w, "\nBest: %s with param %d, accuracy %.4f\n",
			best.Run.Label(), best.Best.Param, best.Best.Result.Accuracy)
		return err
	}
	return nil
}
