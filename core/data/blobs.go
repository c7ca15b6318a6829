package data

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/tabclass/pkg/errors"
)

// MakeBlobs generates isotropic Gaussian clusters, one per class, with labels
// 0..nClasses-1 assigned round-robin. Centers are drawn uniformly from
// [-10, 10] in every dimension. The same seed yields the same dataset.
func MakeBlobs(nSamples, nFeatures, nClasses int, spread float64, seed uint64) (*DataSet, error) {
	switch {
	case nSamples < 1:
		return nil, errors.NewValidationError("n_samples", "must be positive", nSamples)
	case nFeatures < 1:
		return nil, errors.NewValidationError("n_features", "must be positive", nFeatures)
	case nClasses < 1:
		return nil, errors.NewValidationError("n_classes", "must be positive", nClasses)
	case spread <= 0:
		return nil, errors.NewValidationError("spread", "must be positive", spread)
	}

	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	uniform := distuv.Uniform{Min: -10, Max: 10, Src: src}
	centers := make([][]float64, nClasses)
	for k := range centers {
		centers[k] = make([]float64, nFeatures)
		for j := range centers[k] {
			centers[k][j] = uniform.Rand()
		}
	}

	fm := NewFeatureMap()
	for j := 0; j < nFeatures; j++ {
		fm.Add(j, fmt.Sprintf("x%d", j))
	}
	ds := NewDataSet(fm)

	noise := distuv.Normal{Mu: 0, Sigma: spread, Src: src}
	for i := 0; i < nSamples; i++ {
		k := i % nClasses
		e := NewExample(float64(k), nil)
		for j := 0; j < nFeatures; j++ {
			e.SetFeature(j, centers[k][j]+noise.Rand())
		}
		ds.AddData(e)
	}
	return ds, nil
}
