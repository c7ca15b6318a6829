package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/tabclass/core/data"
)

func tabclass(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(append([]string{"tabclass"}, args...), &stdout, &stderr)
	return stdout.String(), err
}

func generated(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blobs.csv")
	_, err := tabclass(t, "generate", "--samples", "60", "--classes", "3", "--seed", "4", path)
	require.NoError(t, err)
	return path
}

func TestGenerate(t *testing.T) {
	path := generated(t)
	ds, err := data.Load(path, data.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 60, ds.Len())
	assert.Equal(t, []float64{0, 1, 2}, ds.Labels())

	out, err := tabclass(t, "generate", "-n", "5", "--format", "sparse")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 5)

	_, err = tabclass(t, "generate", "--spread", "wide")
	assert.Error(t, err)
}

func TestCV(t *testing.T) {
	path := generated(t)

	out, err := tabclass(t, "--log-level", "error", "cv", "--kind", "dt", "--param", "3", "--folds", "3", path)
	require.NoError(t, err)
	assert.Contains(t, out, "fold  2:")
	assert.Contains(t, out, "dt: accuracy")

	out, err = tabclass(t, "cv", "-k", "lr", "-r", "ava", "-p", "20", "--zero-one", "--folds", "3", "--jobs", "2", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ava(lr): accuracy")

	_, err = tabclass(t, "cv", "--kind", "multilr", "--reduction", "ova", path)
	assert.Error(t, err)
	_, err = tabclass(t, "cv", "--kind", "dt")
	assert.Error(t, err)
}

func TestCV_DefaultFlagsTrain(t *testing.T) {
	ds := data.NewDataSet(nil)
	for i := 2; i < 22; i++ {
		x := float64(i) / 4
		ds.AddData(data.NewExample(1, map[int]float64{0: x}))
		ds.AddData(data.NewExample(-1, map[int]float64{0: -x}))
	}
	path := filepath.Join(t.TempDir(), "signs.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, data.Write(f, ds, data.FormatCSV))
	require.NoError(t, f.Close())

	// An untrained LR predicts +1 everywhere and would score 0.5 here.
	out, err := tabclass(t, "cv", path)
	require.NoError(t, err)
	assert.Contains(t, out, "lr: accuracy 1.0000 (40/40)")
}

func TestExperiment(t *testing.T) {
	dir := t.TempDir()
	plan := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(plan, []byte(`
data:
  blobs: {samples: 45, features: 2, classes: 3, seed: 8}
validation: {folds: 3}
runs:
  - kind: dt
    params: [1, 2]
  - kind: multilr
    param: 10
`), 0o644))

	out, err := tabclass(t, "experiment", plan)
	require.NoError(t, err)
	assert.Contains(t, out, "param=1")
	assert.Contains(t, out, "Method")
	assert.Contains(t, out, "Best: ")

	quiet, err := tabclass(t, "experiment", "-q", plan)
	require.NoError(t, err)
	assert.NotContains(t, quiet, "param=1")
}

func TestCurve(t *testing.T) {
	path := generated(t)
	dir := t.TempDir()
	png := filepath.Join(dir, "curve.png")
	csvPath := filepath.Join(dir, "curve.csv")

	_, err := tabclass(t, "curve", "--kind", "dt", "--params", "1, 2,4", "--folds", "3", "--png", png, path, csvPath)
	require.NoError(t, err)

	b, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "param,accuracy,stddev", lines[0])
	assert.True(t, strings.HasPrefix(lines[3], "4,"))

	info, err := os.Stat(png)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	_, err = tabclass(t, "curve", "--params", "1,x", path)
	assert.Error(t, err)
}

func TestRun_Usage(t *testing.T) {
	out, err := tabclass(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "experiment")

	_, err = tabclass(t)
	assert.ErrorIs(t, err, errUsage)
	_, err = tabclass(t, "train")
	assert.Error(t, err)
	_, err = tabclass(t, "--log-backend", "syslog", "generate")
	assert.Error(t, err)
	_, err = tabclass(t, "--log-level", "loud", "generate")
	assert.Error(t, err)
}
