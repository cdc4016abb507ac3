package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/dmatrix/pkg/log"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := log.GetLogger()
	t.Cleanup(func() { log.SetLogger(prev) })

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("x,color,y\n")
	colors := []string{"red", "blue", "green"}
	for i := 0; i < 30; i++ {
		label := 0
		if i >= 15 {
			label = 1
		}
		if i%7 == 0 {
			label = 1 - label
		}
		sb.WriteString(strconv.Itoa(i - 15))
		sb.WriteString("," + colors[i%3] + ",")
		sb.WriteString(strconv.Itoa(label))
		sb.WriteString("\n")
	}
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o600))
	return path
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dmatrix v"+version)
}

func TestConvertAndInfo(t *testing.T) {
	csv := writeCSV(t)
	bin := filepath.Join(t.TempDir(), "train.dmtx.zst")

	out, err := run(t, "convert", "--data", csv, "--label", "y", "--categorical", "color", "--out", bin)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 30 rows x 2 columns")

	out, err = run(t, "info", bin)
	require.NoError(t, err)
	var info matrixInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, 30, info.Rows)
	assert.Equal(t, 2, info.Columns)
	assert.Equal(t, []string{"x", "color"}, info.FeatureNames)
	assert.Equal(t, []string{"int", "c"}, info.FeatureTypes)
	assert.True(t, info.HasLabel)
	assert.False(t, info.HasWeight)

	_, err = run(t, "convert", "--data", csv, "--label", "y", "--categorical", "color")
	assert.Error(t, err, "--out is required")
}

func TestInfoFromEnv(t *testing.T) {
	csv := writeCSV(t)
	t.Setenv("DMATRIX_DATA", csv)
	t.Setenv("DMATRIX_LABEL", "y")
	t.Setenv("DMATRIX_ENABLE_CATEGORICAL", "true")
	t.Setenv("DMATRIX_CATEGORICAL", "color")

	out, err := run(t, "info")
	require.NoError(t, err)
	assert.Contains(t, out, `"num_row": 30`)
}

func TestCV(t *testing.T) {
	csv := writeCSV(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cv.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
log:
  level: error
data:
  path: `+csv+`
  label: y
  categorical: [color]
cv:
  params:
    objective: binary:logistic
    eval_metric: error
  num_boost_round: 4
`), 0o600))
	plotPath := filepath.Join(dir, "curves.png")

	out, err := run(t, "cv", "--config", cfgPath, "--metrics", "auc", "--nfold", "2", "--plot", plotPath, "--output", "json")
	require.NoError(t, err)
	var res cvOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"train-auc-mean", "train-auc-std", "test-auc-mean", "test-auc-std"}, res.Columns)
	assert.Len(t, res.History["test-auc-mean"], 4)
	assert.Equal(t, 3, res.BestIteration)

	st, err := os.Stat(plotPath)
	require.NoError(t, err)
	assert.Greater(t, st.Size(), int64(0))

	out, err = run(t, "cv", "--config", cfgPath, "--rounds", "2", "--param", "eta=0.1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "train-error-mean")

	_, err = run(t, "cv", "--config", cfgPath, "--param", "novalue")
	assert.Error(t, err)
	_, err = run(t, "cv", "--config", cfgPath, "--output", "xml")
	assert.Error(t, err)
	_, err = run(t, "cv", "--config", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
