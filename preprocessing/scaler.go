// Package preprocessing rescales feature values before training. Scalers are
// fitted on a training set and then applied to every example the learner
// sees, so SGD learners get comparable step sizes across features.
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/core/model"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
)

// Scaler names.
const (
	ScaleNone     = ""
	ScaleStandard = "standard"
	ScaleMinMax   = "minmax"
)

// Scaler learns a per-feature affine map from a dataset.
type Scaler interface {
	// Fit learns the map from ds. Absent features count as 0.
	Fit(ds *data.DataSet) error
	// TransformExample returns a rescaled copy of e. Features the scaler was
	// not fitted on are copied unchanged.
	TransformExample(e *data.Example) (*data.Example, error)
}

// NewScaler returns a fresh scaler by name.
func NewScaler(name string) (Scaler, error) {
	switch name {
	case ScaleStandard:
		return NewStandardScalerDefault(), nil
	case ScaleMinMax:
		return NewMinMaxScalerDefault(), nil
	default:
		return nil, errors.NewValidationError("scale", "must be 'standard' or 'minmax'", name)
	}
}

// Transform rescales every example of ds into a new dataset with the same
// schema. ds is not modified.
func Transform(s Scaler, ds *data.DataSet) (*data.DataSet, error) {
	out := data.NewDataSet(ds.FeatureMap())
	for _, e := range ds.Data() {
		t, err := s.TransformExample(e)
		if err != nil {
			return nil, err
		}
		out.AddData(t)
	}
	return out, nil
}

// affine is the map x -> (x - offset[j]) / scale[j] over the fitted indices.
type affine struct {
	indices []int
	offset  map[int]float64
	scale   map[int]float64
}

func (a *affine) apply(e *data.Example) *data.Example {
	out := e.Clone()
	for _, idx := range a.indices {
		out.SetFeature(idx, (e.Feature(idx)-a.offset[idx])/a.scale[idx])
	}
	return out
}

func (a *affine) invert(e *data.Example) *data.Example {
	out := e.Clone()
	for _, idx := range a.indices {
		out.SetFeature(idx, e.Feature(idx)*a.scale[idx]+a.offset[idx])
	}
	return out
}

// column returns feature idx of every example, 0 where absent.
func column(ds *data.DataSet, idx int) []float64 {
	col := make([]float64, ds.Len())
	for i, e := range ds.Data() {
		col[i] = e.Feature(idx)
	}
	return col
}

// nearZero is the spread below which a feature is treated as constant and
// left unscaled.
const nearZero = 1e-8

// StandardScaler は各特徴量を平均0、標準偏差1に変換する
type StandardScaler struct {
	state *model.StateManager
	affine

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(train)
//	scaled, err := preprocessing.Transform(scaler, test)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は訓練データから統計情報（平均、母標準偏差）を計算する
func (s *StandardScaler) Fit(ds *data.DataSet) error {
	indices := ds.AllFeatureIndices()
	if err := model.RequireTrainable("StandardScaler.Fit", ds.Len(), len(indices)); err != nil {
		return err
	}

	a := affine{
		indices: indices,
		offset:  make(map[int]float64, len(indices)),
		scale:   make(map[int]float64, len(indices)),
	}
	for _, idx := range indices {
		mean, std := stat.PopMeanStdDev(column(ds, idx), nil)
		if !s.WithMean {
			mean = 0
		}
		// 標準偏差が0に近い場合は1に設定（ゼロ除算を避ける）
		if !s.WithStd || std < nearZero {
			std = 1
		}
		a.offset[idx], a.scale[idx] = mean, std
	}
	s.affine = a
	s.state.SetTrained(len(indices), ds.Len(), 0)
	return nil
}

// TransformExample は学習済みの統計情報を使って例を標準化する
func (s *StandardScaler) TransformExample(e *data.Example) (*data.Example, error) {
	if err := s.state.RequireTrained("StandardScaler", "TransformExample"); err != nil {
		return nil, err
	}
	return s.apply(e), nil
}

// InverseTransformExample は標準化された例を元のスケールに戻す
func (s *StandardScaler) InverseTransformExample(e *data.Example) (*data.Example, error) {
	if err := s.state.RequireTrained("StandardScaler", "InverseTransformExample"); err != nil {
		return nil, err
	}
	return s.invert(e), nil
}

// Mean returns the fitted mean of feature idx (0 when WithMean is off).
func (s *StandardScaler) Mean(idx int) float64 { return s.offset[idx] }

// Scale returns the fitted divisor of feature idx.
func (s *StandardScaler) Scale(idx int) float64 { return s.scale[idx] }

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.state.IsTrained() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, len(s.indices))
}

// MinMaxScaler はデータを指定した範囲（デフォルト[0,1]）にスケーリングする
type MinMaxScaler struct {
	state *model.StateManager
	affine

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		state:        model.NewStateManager(),
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit は訓練データから最小値・最大値を計算する
func (m *MinMaxScaler) Fit(ds *data.DataSet) error {
	lo, hi := m.FeatureRange[0], m.FeatureRange[1]
	if !(hi > lo) || math.IsInf(hi-lo, 0) {
		return errors.NewValidationError("feature_range", "max must be greater than min", m.FeatureRange)
	}
	indices := ds.AllFeatureIndices()
	if err := model.RequireTrainable("MinMaxScaler.Fit", ds.Len(), len(indices)); err != nil {
		return err
	}

	// x' = (x - dataMin) / (dataMax - dataMin) * (hi - lo) + lo, written as
	// (x - offset) / scale.
	width := hi - lo
	a := affine{
		indices: indices,
		offset:  make(map[int]float64, len(indices)),
		scale:   make(map[int]float64, len(indices)),
	}
	for _, idx := range indices {
		col := column(ds, idx)
		dataMin, dataMax := floats.Min(col), floats.Max(col)
		dataRange := dataMax - dataMin
		// 定数特徴量の場合、スケールを1に設定
		if dataRange < nearZero {
			dataRange = width
		}
		scale := dataRange / width
		a.scale[idx] = scale
		a.offset[idx] = dataMin - lo*scale
	}
	m.affine = a
	m.state.SetTrained(len(indices), ds.Len(), 0)
	return nil
}

// TransformExample は学習済みの統計情報を使って例をスケーリングする
func (m *MinMaxScaler) TransformExample(e *data.Example) (*data.Example, error) {
	if err := m.state.RequireTrained("MinMaxScaler", "TransformExample"); err != nil {
		return nil, err
	}
	return m.apply(e), nil
}

// InverseTransformExample はスケーリングされた例を元の範囲に戻す
func (m *MinMaxScaler) InverseTransformExample(e *data.Example) (*data.Example, error) {
	if err := m.state.RequireTrained("MinMaxScaler", "InverseTransformExample"); err != nil {
		return nil, err
	}
	return m.invert(e), nil
}

// GetParams はスケーラーのパラメータを取得する
func (m *MinMaxScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"feature_range": m.FeatureRange,
	}
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	if !m.state.IsTrained() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], len(m.indices))
}
