package experiment

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/core/model"
	"github.com/YuminosukeSato/tabclass/model_selection"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
	"github.com/YuminosukeSato/tabclass/sklearn/factory"
)

// CurvePoint is the cross-validated accuracy at one parameter value.
type CurvePoint struct {
	Param    int
	Accuracy float64
	StdDev   float64
}

// LearningCurve cross validates cfg once per value in params, substituting
// each value for cfg.Param (SGD passes for the logistic kinds, maximum depth
// for the tree).
func LearningCurve(ctx context.Context, cfg factory.Config, params []int, ds *data.DataSet,
	opts ...model_selection.Option) ([]CurvePoint, error) {
	if cfg.Kind == factory.KindNaiveBayes {
		return nil, errors.NewValidationError("kind", "naive Bayes has no iteration parameter", cfg.Kind)
	}
	build := func(param int) (model.Factory, error) {
		c := cfg
		c.Param = param
		return c.ClassifierFactory()
	}
	points, err := model_selection.IterationSweep(ctx, params, build, ds, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]CurvePoint, len(points))
	for i, p := range points {
		out[i] = CurvePoint{Param: p.Param, Accuracy: p.Result.Accuracy, StdDev: p.Result.StdDev}
	}
	return out, nil
}

func paramAxis(kind string) string {
	if kind == factory.KindDecisionTree {
		return "max depth"
	}
	return "iterations"
}

// SaveCurvePNG draws accuracy against the parameter and writes a PNG (or any
// format plot.Save infers from the extension).
func SaveCurvePNG(path string, cfg factory.Config, points []CurvePoint) error {
	if len(points) == 0 {
		return errors.NewValueError("experiment.SaveCurvePNG", "no points to plot")
	}
	p := plot.New()
	p.Title.Text = "Learning curve: " + cfg.String()
	p.X.Label.Text = paramAxis(cfg.Kind)
	p.Y.Label.Text = "accuracy"
	p.Y.Min, p.Y.Max = 0, 1

	acc := make(plotter.XYs, len(points))
	lower := make(plotter.XYs, len(points))
	upper := make(plotter.XYs, len(points))
	for i, pt := range points {
		x := float64(pt.Param)
		acc[i].X, acc[i].Y = x, pt.Accuracy
		lower[i].X, lower[i].Y = x, pt.Accuracy-pt.StdDev
		upper[i].X, upper[i].Y = x, pt.Accuracy+pt.StdDev
	}
	if err := plotutil.AddLinePoints(p, "CV accuracy", acc, "-1 sd", lower, "+1 sd", upper); err != nil {
		return errors.Wrap(err, "experiment: building plot")
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "experiment: saving %s", path)
	}
	return nil
}

// WriteCurveCSV writes "param,accuracy,stddev" rows under a header.
func WriteCurveCSV(w io.Writer, points []CurvePoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"param", "accuracy", "stddev"}); err != nil {
		return err
	}
	for _, p := range points {
		row := []string{
			strconv.Itoa(p.Param),
			strconv.FormatFloat(p.Accuracy, 'f', 6, 64),
			strconv.FormatFloat(p.StdDev, 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
