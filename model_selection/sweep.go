package model_selection

import (
	"context"

	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/core/model"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
)

// SweepPoint is the cross-validated score of one parameter value.
type SweepPoint struct {
	Param  int
	Result *CVResult
}

// IterationSweep cross validates one learner per value in params, typically
// SGD pass counts or tree depths. build maps a value to its factory. Every
// value sees the same folds.
func IterationSweep(ctx context.Context, params []int, build func(param int) (model.Factory, error),
	ds *data.DataSet, opts ...Option) ([]SweepPoint, error) {
	if len(params) == 0 {
		return nil, errors.NewValidationError("params", "must not be empty", params)
	}
	points := make([]SweepPoint, 0, len(params))
	for _, p := range params {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := build(p)
		if err != nil {
			return nil, err
		}
		res, err := CrossValidate(ctx, f, ds, opts...)
		if err != nil {
			return nil, errors.Wrapf(err, "param %d", p)
		}
		points = append(points, SweepPoint{Param: p, Result: res})
	}
	return points, nil
}

// Best returns the point with the highest pooled accuracy; ties go to the
// earlier point. It returns false for an empty sweep.
func Best(points []SweepPoint) (SweepPoint, bool) {
	if len(points) == 0 {
		return SweepPoint{}, false
	}
	best := points[0]
	for _, p := range points[1:] {
		if p.Result.Accuracy > best.Result.Accuracy {
			best = p
		}
	}
	return best, true
}
