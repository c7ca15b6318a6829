// Package experiment runs YAML experiment plans: every run cross validates one
// learner over a parameter grid, and the runner reports a summary table and
// the overall best configuration.
package experiment

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/model_selection"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
	"github.com/YuminosukeSato/tabclass/sklearn/factory"
)

// Validation methods.
const (
	MethodCV      = "cv"
	MethodShuffle = "shuffle"
)

// DefaultTrainFraction is the shuffle-split training share.
const DefaultTrainFraction = 0.8

// Plan is a decoded experiment file.
//
//	data:
//	  path: wines.csv
//	  format: csv
//	validation:
//	  method: cv
//	  folds: 10
//	runs:
//	  - kind: lr
//	    reduction: ova
//	    params: [1, 5, 10, 20, 50]
type Plan struct {
	Data       DataSource `yaml:"data"`
	Validation Validation `yaml:"validation"`
	Runs       []Run      `yaml:"runs"`
}

// DataSource is either a file or a synthetic blob dataset.
type DataSource struct {
	Path        string     `yaml:"path"`
	Format      string     `yaml:"format"`
	LabelColumn string     `yaml:"label_column"`
	Blobs       *BlobsSpec `yaml:"blobs"`
}

// BlobsSpec mirrors the arguments of data.MakeBlobs.
type BlobsSpec struct {
	Samples  int     `yaml:"samples"`
	Features int     `yaml:"features"`
	Classes  int     `yaml:"classes"`
	Spread   float64 `yaml:"spread"`
	Seed     uint64  `yaml:"seed"`
}

// Validation selects how each grid point is scored. Folds doubles as the
// repeat count for shuffle splits. Workers 0 evaluates folds sequentially and
// a negative value uses every CPU.
type Validation struct {
	Method        string  `yaml:"method"`
	Folds         int     `yaml:"folds"`
	TrainFraction float64 `yaml:"train_fraction"`
	Stratified    bool    `yaml:"stratified"`
	Seed          *uint64 `yaml:"seed"`
	Workers       int     `yaml:"workers"`
}

// Run is one learner configuration and the values of Param to try. An empty
// grid tries only Param. The learner fields mean what they mean in
// factory.Config.
type Run struct {
	Name           string  `yaml:"name"`
	Kind           string  `yaml:"kind"`
	Param          int     `yaml:"param"`
	LearningRate   float64 `yaml:"learning_rate"`
	Lambda         float64 `yaml:"lambda"`
	ZeroOneTargets bool    `yaml:"zero_one_targets"`
	Reduction      string  `yaml:"reduction"`
	Workers        int     `yaml:"workers"`
	Scale          string  `yaml:"scale"`
	Params         []int   `yaml:"params"`
}

// Config returns the learner configuration at the run's own Param.
func (r Run) Config() factory.Config {
	return factory.Config{
		Kind:           r.Kind,
		Param:          r.Param,
		LearningRate:   r.LearningRate,
		Lambda:         r.Lambda,
		ZeroOneTargets: r.ZeroOneTargets,
		Reduction:      r.Reduction,
		Workers:        r.Workers,
		Scale:          r.Scale,
	}
}

// Label names the run in reports.
func (r Run) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Config().String()
}

// Grid returns the parameter values to sweep.
func (r Run) Grid() []int {
	if len(r.Params) == 0 {
		return []int{r.Param}
	}
	return r.Params
}

// LoadPlan reads and validates the plan at path.
func LoadPlan(path string) (*Plan, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "experiment: reading plan %s", path)
	}
	p, err := ParsePlan(b)
	if err != nil {
		return nil, errors.Wrapf(err, "experiment: plan %s", path)
	}
	return p, nil
}

// ParsePlan decodes a YAML plan. Unknown keys are rejected.
func ParsePlan(b []byte) (*Plan, error) {
	var p Plan
	if err := yaml.UnmarshalWithOptions(b, &p, yaml.DisallowUnknownField()); err != nil {
		return nil, errors.NewValueError("experiment.ParsePlan", yaml.FormatError(err, false, true))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks every run and the validation settings.
func (p *Plan) Validate() error {
	if len(p.Runs) == 0 {
		return errors.NewValidationError("runs", "plan has no runs", 0)
	}
	for i, r := range p.Runs {
		if err := r.Config().Validate(); err != nil {
			return errors.Wrapf(err, "run %d (%s)", i, r.Label())
		}
		for _, v := range r.Params {
			if v < 0 {
				return errors.Wrapf(errors.NewValidationError("params", "must be non-negative", v), "run %d (%s)", i, r.Label())
			}
		}
	}
	switch p.Validation.Method {
	case "", MethodCV, MethodShuffle:
	default:
		return errors.NewValidationError("validation.method", "must be 'cv' or 'shuffle'", p.Validation.Method)
	}
	if p.Validation.Folds < 0 {
		return errors.NewValidationError("validation.folds", "must be non-negative", p.Validation.Folds)
	}
	if f := p.Validation.TrainFraction; f != 0 && !(f > 0 && f < 1) {
		return errors.NewValidationError("validation.train_fraction", "must be in (0, 1)", f)
	}
	if p.Data.Path == "" && p.Data.Blobs == nil {
		return errors.NewValidationError("data", "needs a path or a blobs section", nil)
	}
	return nil
}

// Load reads or generates the plan's dataset.
func (d DataSource) Load() (*data.DataSet, error) {
	if d.Path == "" {
		b := d.Blobs
		if b == nil {
			return nil, errors.NewValidationError("data", "needs a path or a blobs section", nil)
		}
		spread := b.Spread
		if spread == 0 {
			spread = 1
		}
		return data.MakeBlobs(b.Samples, b.Features, b.Classes, spread, b.Seed)
	}

	format := data.FormatCSV
	if d.Format != "" {
		f, err := data.ParseFormat(d.Format)
		if err != nil {
			return nil, err
		}
		format = f
	}
	var opts []data.ReadOption
	if d.LabelColumn != "" {
		opts = append(opts, data.WithLabelColumn(d.LabelColumn))
	}
	return data.Load(d.Path, format, opts...)
}

// Options converts the validation settings to model_selection options.
func (v Validation) Options() []model_selection.Option {
	workers := v.Workers
	if workers == 0 {
		workers = 1
	}
	opts := []model_selection.Option{
		model_selection.WithStratified(v.Stratified),
		model_selection.WithWorkers(workers),
	}
	if v.Folds > 0 {
		opts = append(opts, model_selection.WithFolds(v.Folds))
	}
	if v.Seed != nil {
		opts = append(opts, model_selection.WithSeed(*v.Seed))
	}
	return opts
}

func (v Validation) trainFraction() float64 {
	if v.TrainFraction == 0 {
		return DefaultTrainFraction
	}
	return v.TrainFraction
}
