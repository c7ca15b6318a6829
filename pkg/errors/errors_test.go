package errors

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "OVAClassifier.Train",
			kind:     "binary sub-problem 2",
			err:      fmt.Errorf("test error"),
			wantMsg:  "tabclass: OVAClassifier.Train: binary sub-problem 2: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Classify",
			kind:     "not trained",
			err:      nil,
			wantMsg:  "tabclass: Classify: not trained",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
			if tt.err != nil && !Is(err, tt.err) {
				t.Error("ModelError should unwrap to the original error")
			}
		})
	}
}

func TestNewNotTrainedError(t *testing.T) {
	err := NewNotTrainedError("LogisticRegression", "Classify")

	want := "tabclass: LogisticRegression: this classifier is not trained yet. Call Train() before using Classify()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notTrained *NotTrainedError
	if !As(err, &notTrained) {
		t.Fatal("Error should be castable to *NotTrainedError")
	}
	if notTrained.Method != "Classify" {
		t.Errorf("Method = %q, want Classify", notTrained.Method)
	}
	if !IsNotTrained(Wrap(err, "fold 1")) {
		t.Error("IsNotTrained should see through wrapping")
	}
	if IsPrecondition(err) {
		t.Error("NotTrainedError must not be reported as a precondition violation")
	}
}

func TestNewPreconditionError(t *testing.T) {
	err := NewPreconditionErrorf("AVAClassifier.Train", "need at least 2 distinct labels, got %d", 1)

	want := "tabclass: AVAClassifier.Train: precondition violated: need at least 2 distinct labels, got 1"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
	if !IsPrecondition(err) {
		t.Error("IsPrecondition() = false, want true")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("learning_rate", "must be positive", -0.1)

	want := "tabclass: validation failed for parameter 'learning_rate': must be positive (got: -0.1)"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var valErr *ValidationError
	if !As(err, &valErr) {
		t.Error("Error should be castable to *ValidationError")
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "with path", err: NewParseError("wines.train", 7, "bad label"), want: "tabclass: wines.train:7: bad label"},
		{name: "without path", err: NewParseError("", 3, "bad label"), want: "tabclass: line 3: bad label"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.want {
				t.Errorf("Error() = %v, want %v", tt.err.Error(), tt.want)
			}
		})
	}
}

func TestMarshalZerologObject(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logger.Error().Object("err", &PreconditionError{Op: "Train", Reason: "empty dataset"}).Msg("training failed")

	out := buf.String()
	for _, want := range []string{`"operation":"Train"`, `"reason":"empty dataset"`, `"type":"PreconditionError"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestWarnRoutesToZerolog(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	WarnIfUnstable(CheckScalar("sgd_update", math.Inf(1), 4))
	WarnIfUnstable(CheckScalar("sgd_update", 1.5, 4))

	if len(got) != 1 {
		t.Fatalf("expected exactly one warning, got %d", len(got))
	}
	var numErr *NumericalInstabilityError
	if !As(got[0], &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %T", got[0])
	}
	if numErr.Iteration != 4 {
		t.Errorf("Iteration = %d, want 4", numErr.Iteration)
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("weights", []float64{0, 1, -2}, 0); err != nil {
		t.Errorf("finite values reported unstable: %v", err)
	}
	err := CheckNumericalStability("weights", []float64{0, math.NaN(), math.Inf(-1)}, 2)
	if err == nil {
		t.Fatal("expected instability error")
	}
	if !strings.Contains(err.Error(), "weights at iteration 2") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestWrapAndIs(t *testing.T) {
	original := New("original error")
	wrapped := Wrap(original, "wrapped")
	twice := Wrapf(wrapped, "fold %d", 3)

	if !Is(twice, original) {
		t.Error("Is() should find the original error through two wraps")
	}
	if !strings.Contains(twice.Error(), "fold 3: wrapped: original error") {
		t.Errorf("unexpected message %q", twice.Error())
	}
}
