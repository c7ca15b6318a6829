// Package metrics scores predictions against true labels. Label comparisons
// use the same absolute tolerance as the rest of the module.
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
)

// logLossEpsilon clips probabilities away from 0 and 1.
const logLossEpsilon = 1e-15

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != yTrue.Len() {
		return 0, errors.NewValueError(op, "yTrue and yPred have different lengths")
	}
	return yTrue.Len(), nil
}

// Accuracy returns the fraction of predictions within data.LabelTolerance of
// the true label.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if data.SameLabel(yTrue.AtVec(i), yPred.AtVec(i)) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率（1 - Accuracy）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "ClassificationError")
	}
	return 1 - acc, nil
}

// ConfusionMatrix counts (true, predicted) label pairs. Row i is the true
// label labels[i], column j the predicted label labels[j]. A value not within
// tolerance of any listed label is an error.
func ConfusionMatrix(yTrue, yPred *mat.VecDense, labels []float64) (*mat.Dense, error) {
	n, err := checkPair("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "no labels")
	}
	index := func(v float64) (int, error) {
		for i, l := range labels {
			if data.SameLabel(v, l) {
				return i, nil
			}
		}
		return 0, errors.NewValueError("ConfusionMatrix", "value is not one of the labels")
	}

	cm := mat.NewDense(len(labels), len(labels), nil)
	for i := 0; i < n; i++ {
		r, err := index(yTrue.AtVec(i))
		if err != nil {
			return nil, err
		}
		c, err := index(yPred.AtVec(i))
		if err != nil {
			return nil, err
		}
		cm.Set(r, c, cm.At(r, c)+1)
	}
	return cm, nil
}

func binaryLabels(op string, y *mat.VecDense) error {
	for i := 0; i < y.Len(); i++ {
		if v := y.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, "labels must be 0 or 1")
		}
	}
	return nil
}

// AUC は ROC 曲線下の面積を計算する。yTrue は 0/1、yPred はスコア。
// 同点のスコアは平均順位で扱う。片方のクラスしか存在しない場合は 0.5 を返す。
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := binaryLabels("AUC", yTrue); err != nil {
		return 0, err
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return yPred.AtVec(order[a]) < yPred.AtVec(order[b]) })

	// Mann-Whitney U: 正例の順位和から計算
	var rankSum float64
	nPos := 0
	for i := 0; i < n; {
		j := i
		for j < n && yPred.AtVec(order[j]) == yPred.AtVec(order[i]) {
			j++
		}
		avgRank := float64(i+j+1) / 2 // 1始まりの平均順位
		for k := i; k < j; k++ {
			if yTrue.AtVec(order[k]) == 1 {
				rankSum += avgRank
				nPos++
			}
		}
		i = j
	}
	nNeg := n - nPos
	if nPos == 0 || nNeg == 0 {
		return 0.5, nil
	}
	u := rankSum - float64(nPos*(nPos+1))/2
	return u / float64(nPos*nNeg), nil
}

// BinaryLogLoss は二値交差エントロピーを計算する。yPred は正例の確率。
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := binaryLabels("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < n; i++ {
		p := math.Min(math.Max(yPred.AtVec(i), logLossEpsilon), 1-logLossEpsilon)
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}
