package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	tcerrors "github.com/YuminosukeSato/tabclass/pkg/errors"
)

func TestTestLoggerCapturesLevels(t *testing.T) {
	logger, buffer := NewTestLogger(LevelDebug)

	logger.Debug("debug message", "key1", "value1", "number", 42)
	logger.Info("info message", OperationKey, OperationTrain)
	logger.Warn("warning message", "warning_code", "TEST_WARNING")
	logger.Error("error message", fmt.Errorf("test error"), "error_code", "TEST_ERROR")

	require.NotEmpty(t, buffer.String())
	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		assert.True(t, logger.ContainsMessage(msg), "missing %q", msg)
	}
	assert.True(t, logger.ContainsField("key1", "value1"))
	assert.True(t, logger.ContainsField("number", 42.0))
	assert.True(t, logger.ContainsField("error", "test error"))
	assert.True(t, logger.ContainsField("error_code", "TEST_ERROR"))
}

func TestTestLoggerLevelFilter(t *testing.T) {
	tests := []struct {
		level Level
		want  int
	}{
		{LevelDebug, 4},
		{LevelInfo, 3},
		{LevelWarn, 2},
		{LevelError, 1},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			logger, _ := NewTestLogger(tt.level)
			logger.Debug("d")
			logger.Info("i")
			logger.Warn("w")
			logger.Error("e")

			entries, err := logger.GetLogEntries()
			require.NoError(t, err)
			assert.Len(t, entries, tt.want)
			assert.Equal(t, tt.level <= LevelInfo, logger.Enabled(context.Background(), LevelInfo))
		})
	}
}

func TestTestLoggerWith(t *testing.T) {
	base, _ := NewTestLogger(LevelDebug)
	child := base.With(ModelNameKey, "OVAClassifier", ClassesKey, 3)

	child.Debug("Training started", SamplesKey, 178)

	entries, err := base.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "OVAClassifier", entries[0][ModelNameKey])
	assert.Equal(t, 3.0, entries[0][ClassesKey])
	assert.Equal(t, 178.0, entries[0][SamplesKey])
	assert.Equal(t, "DEBUG", entries[0]["level"])
}

func TestTestLoggerConcurrentWrites(t *testing.T) {
	base, _ := NewTestLogger(LevelInfo)

	var wg sync.WaitGroup
	for fold := 0; fold < 8; fold++ {
		wg.Add(1)
		go func(fold int) {
			defer wg.Done()
			base.With(FoldKey, fold).Info("fold done", AccuracyKey, 0.5)
		}(fold)
	}
	wg.Wait()

	entries, err := base.GetLogEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 8)
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelInfo)
	logger := p.GetLoggerWithName("linear_model").With(ModelNameKey, "LogisticRegression")

	logger.Debug("dropped")
	logger.Info("Training completed", IterationKey, 10, LearningRateKey, 0.01, "converged", true)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Training completed", entry["message"])
	assert.Equal(t, "linear_model", entry[ComponentKey])
	assert.Equal(t, "LogisticRegression", entry[ModelNameKey])
	assert.Equal(t, 10.0, entry[IterationKey])
	assert.Equal(t, 0.01, entry[LearningRateKey])
	assert.Equal(t, true, entry["converged"])

	buf.Reset()
	p.SetLevel(LevelDebug)
	assert.True(t, logger.Enabled(context.Background(), LevelDebug), "SetLevel must reach existing loggers")
	logger.Debug("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestZerologLoggerError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug)

	err := tcerrors.NewPreconditionError("AVAClassifier.Train", "need at least 2 distinct labels")
	logger.Error("Training failed", err, FoldKey, 2, "cause", &tcerrors.PreconditionError{Op: "Train", Reason: "x"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Contains(t, entry["error"], "precondition violated")
	assert.NotEmpty(t, entry[StacktraceKey])
	assert.Equal(t, 2.0, entry[FoldKey])
	cause, ok := entry["cause"].(map[string]any)
	require.True(t, ok, "typed errors are written as objects")
	assert.Equal(t, "PreconditionError", cause["type"])
}

func TestZapLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	p := NewZapProviderFromCore(core, LevelInfo)
	logger := p.GetLoggerWithName("model_selection")

	logger.Debug("hidden")
	logger.Info("Fold evaluated", FoldKey, 1, AccuracyKey, 0.9)
	logger.Error("Fold failed", fmt.Errorf("boom"), FoldKey, 2)

	entries := recorded.All()
	require.Len(t, entries, 2, "observer records everything the atomic level lets through")
	assert.Equal(t, "Fold evaluated", entries[0].Message)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "model_selection", ctx[ComponentKey])
	assert.Equal(t, int64(1), ctx[FoldKey])
	assert.Equal(t, 0.9, ctx[AccuracyKey])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])

	assert.False(t, logger.Enabled(context.Background(), LevelDebug))
	p.SetLevel(LevelDebug)
	assert.True(t, logger.Enabled(context.Background(), LevelDebug))
}

func TestGlobalProviderRoutesWarnings(t *testing.T) {
	provider, buffer := NewTestLoggerProvider(LevelDebug)
	SetProvider(provider)
	defer SetProvider(nil)

	tcerrors.Warn(tcerrors.NewNumericalInstabilityError("sgd_update", []float64{math.Inf(1)}, 3))

	out := buffer.String()
	assert.Contains(t, out, "numerical instability")
	assert.Contains(t, out, "NumericalInstabilityError")
	assert.Contains(t, out, `"`+ComponentKey+`":"warnings"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"info", LevelInfo, true},
		{"warning", LevelWarn, true},
		{"error", LevelError, true},
		{"trace", LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
