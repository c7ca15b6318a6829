package naive_bayes

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/tabclass/core/data"
	"github.com/YuminosukeSato/tabclass/core/model"
	"github.com/YuminosukeSato/tabclass/pkg/errors"
)

var _ model.MulticlassLearner = (*MultinomialNB)(nil)

// counts builds a dataset whose feature j holds rows[i][j]. Zeros are not
// stored.
func counts(rows [][]float64, labels []float64) *data.DataSet {
	ds := data.NewDataSet(nil)
	for i, row := range rows {
		features := make(map[int]float64)
		for j, v := range row {
			if v != 0 {
				features[j] = v
			}
		}
		ds.AddData(data.NewExample(labels[i], features))
	}
	return ds
}

func doc(row ...float64) *data.Example {
	return counts([][]float64{row}, []float64{0}).Data()[0]
}

// TestMultinomialNBBasicTrain tests basic training functionality
func TestMultinomialNBBasicTrain(t *testing.T) {
	// Features: [count_word1, count_word2, count_word3]
	ds := counts([][]float64{
		{2, 1, 0}, // class 0
		{1, 1, 1}, // class 0
		{1, 0, 1}, // class 0
		{0, 1, 2}, // class 1
		{0, 2, 1}, // class 1
		{1, 2, 2}, // class 1
	}, []float64{0, 0, 0, 1, 1, 1})

	nb := NewMultinomialNB()
	if err := nb.Train(ds); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if !nb.IsTrained() {
		t.Error("Model should be trained after Train()")
	}
	if nb.NumClasses() != 2 {
		t.Errorf("Expected 2 classes, got %d", nb.NumClasses())
	}
}

// TestMultinomialNBClassify tests prediction functionality
func TestMultinomialNBClassify(t *testing.T) {
	ds := counts([][]float64{
		{3, 0, 0}, // strongly class 0
		{2, 1, 0}, // class 0
		{1, 0, 0}, // class 0
		{0, 0, 3}, // strongly class 1
		{0, 1, 2}, // class 1
		{0, 0, 1}, // class 1
	}, []float64{0, 0, 0, 1, 1, 1})

	nb := NewMultinomialNB()
	if err := nb.Train(ds); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	tests := []struct {
		e    *data.Example
		want float64
	}{
		{doc(2, 0, 0), 0},
		{doc(0, 0, 2), 1},
	}
	for i, tt := range tests {
		got, err := nb.Classify(tt.e)
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if got != tt.want {
			t.Errorf("Sample %d should be predicted as class %v, got %v", i, tt.want, got)
		}
	}
}

// TestMultinomialNBPredictProba tests probability prediction
func TestMultinomialNBPredictProba(t *testing.T) {
	ds := counts([][]float64{
		{3, 0, 0}, {2, 1, 0}, {1, 0, 0},
		{0, 0, 3}, {0, 1, 2}, {0, 0, 1},
	}, []float64{0, 0, 0, 1, 1, 1})

	nb := NewMultinomialNB()
	if err := nb.Train(ds); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	for i, e := range []*data.Example{doc(2, 0, 0), doc(0, 0, 2)} {
		proba, err := nb.PredictProba(e)
		if err != nil {
			t.Fatalf("PredictProba failed: %v", err)
		}
		if len(proba) != 2 {
			t.Fatalf("Proba should have 2 entries, got %d", len(proba))
		}

		sum := 0.0
		for _, p := range proba {
			if p < 0 || p > 1 {
				t.Errorf("Probability should be in [0, 1], got %f", p)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > 1e-10 {
			t.Errorf("Probabilities should sum to 1, got %f", sum)
		}

		// Sample i should favour class i
		if proba[i] <= proba[1-i] {
			t.Errorf("Sample %d should have higher probability for class %d: %v", i, i, proba)
		}

		conf, _ := nb.Confidence(e)
		if conf != proba[i] {
			t.Errorf("Confidence = %v, want %v", conf, proba[i])
		}
	}
}

// TestMultinomialNBPredictLogProba tests log probability prediction
func TestMultinomialNBPredictLogProba(t *testing.T) {
	ds := counts([][]float64{{2, 0}, {1, 1}, {0, 2}, {1, 1}}, []float64{0, 0, 1, 1})

	nb := NewMultinomialNB()
	if err := nb.Train(ds); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	logProba, err := nb.PredictLogProba(doc(1, 1))
	if err != nil {
		t.Fatalf("PredictLogProba failed: %v", err)
	}

	sum := 0.0
	for _, lp := range logProba {
		if lp > 0 {
			t.Errorf("Log probability should be <= 0, got %f", lp)
		}
		sum += math.Exp(lp)
	}
	if math.Abs(sum-1.0) > 1e-10 {
		t.Errorf("Exp of log probabilities should sum to 1, got %f", sum)
	}
}

// TestMultinomialNBWithAlpha tests Laplace smoothing
func TestMultinomialNBWithAlpha(t *testing.T) {
	// Data with zero counts for some features
	ds := counts([][]float64{{2, 0, 0}, {1, 0, 0}, {0, 0, 5}, {0, 0, 1}}, []float64{0, 0, 1, 1})
	// Feature 1 never occurs, so register it explicitly
	fm := data.NewFeatureMap()
	for j := 0; j < 3; j++ {
		fm.Add(j, "")
	}
	withSchema := data.NewDataSet(fm)
	for _, e := range ds.Data() {
		withSchema.AddData(e)
	}

	prevDiff := math.Inf(1)
	for _, alpha := range []float64{0.0, 1.0, 10.0} {
		nb := NewMultinomialNB(WithAlpha(alpha))
		if err := nb.Train(withSchema); err != nil {
			t.Fatalf("Train with alpha=%f failed: %v", alpha, err)
		}

		// Unseen feature combination
		proba, err := nb.PredictProba(doc(1, 1, 1))
		if err != nil {
			t.Fatalf("PredictProba with alpha=%f failed: %v", alpha, err)
		}
		for j, p := range proba {
			if math.IsNaN(p) || math.IsInf(p, 0) {
				t.Errorf("With alpha=%f, got invalid probability %d: %f", alpha, j, p)
			}
		}
		if alpha > 0 {
			// With higher alpha, probabilities should be more uniform
			diff := math.Abs(proba[0] - proba[1])
			if diff > prevDiff {
				t.Errorf("alpha=%f: |p0-p1| = %f grew from %f", alpha, diff, prevDiff)
			}
			prevDiff = diff
		}
	}
}

// TestMultinomialNBAccuracy tests training accuracy on separable data
func TestMultinomialNBAccuracy(t *testing.T) {
	ds := counts([][]float64{
		{5, 0}, {4, 1}, {3, 0},
		{0, 5}, {1, 4}, {0, 3},
	}, []float64{0, 0, 0, 1, 1, 1})

	nb := NewMultinomialNB()
	if err := nb.Train(ds); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	correct := 0
	for _, e := range ds.Data() {
		got, _ := nb.Classify(e)
		if data.SameLabel(got, e.Label()) {
			correct++
		}
	}
	if score := float64(correct) / float64(ds.Len()); score < 0.9 {
		t.Errorf("Score should be high for separable data, got %f", score)
	}
}

// TestMultinomialNBInvalidInput tests error handling
func TestMultinomialNBInvalidInput(t *testing.T) {
	// Negative values are invalid counts
	invalid := data.NewDataSet(nil)
	invalid.AddData(data.NewExample(0, map[int]float64{0: 1, 1: -1}))
	invalid.AddData(data.NewExample(1, map[int]float64{0: 2, 1: 3}))

	if err := NewMultinomialNB().Train(invalid); !errors.IsPrecondition(err) {
		t.Errorf("Train should fail with a precondition error on negative values, got %v", err)
	}

	var valErr *errors.ValidationError
	if err := NewMultinomialNB(WithAlpha(-1)).Train(invalid); !errors.As(err, &valErr) {
		t.Errorf("Train should reject a negative alpha, got %v", err)
	}

	untrained := NewMultinomialNB()
	if _, err := untrained.Classify(doc(1, 2)); !errors.IsNotTrained(err) {
		t.Errorf("Classify should fail on an untrained model, got %v", err)
	}
	if _, err := untrained.Confidence(doc(1, 2)); !errors.IsNotTrained(err) {
		t.Errorf("Confidence should fail on an untrained model, got %v", err)
	}
}

// TestMultinomialNBFitPrior tests class prior handling
func TestMultinomialNBFitPrior(t *testing.T) {
	// 4 samples of class 0, 1 sample of class 1
	ds := counts([][]float64{{2, 1}, {1, 2}, {1, 1}, {1, 0}, {0, 1}}, []float64{0, 0, 0, 0, 1})

	withPrior := NewMultinomialNB()
	if err := withPrior.Train(ds); err != nil {
		t.Fatalf("Train with prior failed: %v", err)
	}
	withoutPrior := NewMultinomialNB(WithFitPrior(false))
	if err := withoutPrior.Train(ds); err != nil {
		t.Fatalf("Train without prior failed: %v", err)
	}

	p1, _ := withPrior.PredictProba(doc(1, 1))
	p2, _ := withoutPrior.PredictProba(doc(1, 1))

	// The imbalance should widen the gap when the prior is learned
	if math.Abs(p1[0]-p1[1]) <= math.Abs(p2[0]-p2[1]) {
		t.Errorf("Prior should affect probability distribution for imbalanced data: %v vs %v", p1, p2)
	}
	if withoutPrior.GetParams()["fit_prior"] != false {
		t.Error("fit_prior should be reported as false")
	}
}
