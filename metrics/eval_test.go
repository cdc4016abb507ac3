package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

func TestEvaluate(t *testing.T) {
	labels := []float64{0, 0, 1, 1}
	preds := []float64{0.1, 0.6, 0.35, 0.8}

	tests := []struct {
		name    string
		weights []float64
		want    float64
	}{
		{name: "rmse", want: math.Sqrt((0.01 + 0.36 + 0.4225 + 0.04) / 4)},
		{name: "mse", want: (0.01 + 0.36 + 0.4225 + 0.04) / 4},
		{name: "mae", want: (0.1 + 0.6 + 0.65 + 0.2) / 4},
		{name: "error", want: 0.5},
		{name: "error@0.3", want: 0.25},
		{name: "error", weights: []float64{1, 3, 1, 1}, want: 4.0 / 6.0},
		{name: "auc", want: 0.75},
		{name: "auc", weights: []float64{1, 1, 2, 2}, want: 0.75},
		{name: "map", want: (1.0 + 2.0/3) / 2},
		{name: "logloss", want: -(math.Log(0.9) + math.Log(0.4) + math.Log(0.35) + math.Log(0.8)) / 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.name, labels, preds, tt.weights)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name    string
		metric  string
		labels  []float64
		preds   []float64
		weights []float64
	}{
		{name: "unknown metric", metric: "gini", labels: []float64{1}, preds: []float64{1}},
		{name: "empty", metric: "rmse"},
		{name: "length mismatch", metric: "rmse", labels: []float64{1, 2}, preds: []float64{1}},
		{name: "weight mismatch", metric: "rmse", labels: []float64{1}, preds: []float64{1}, weights: []float64{1, 1}},
		{name: "bad threshold", metric: "error@x", labels: []float64{1}, preds: []float64{1}},
		{name: "bad cutoff", metric: "ndcg@0", labels: []float64{1}, preds: []float64{1}},
		{name: "auc non-binary", metric: "auc", labels: []float64{2}, preds: []float64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.metric, tt.labels, tt.preds, tt.weights)
			require.Error(t, err)
			var ve *errors.ValueError
			var de *errors.DimensionError
			assert.True(t, errors.As(err, &ve) || errors.As(err, &de))
		})
	}
}

func TestMaximizeAndKnown(t *testing.T) {
	assert.True(t, Maximize("auc"))
	assert.True(t, Maximize("ndcg@5"))
	assert.True(t, Maximize("map"))
	assert.False(t, Maximize("rmse"))
	assert.False(t, Maximize("error@0.7"))

	assert.True(t, Known("logloss"))
	assert.True(t, Known("error@0.2"))
	assert.False(t, Known("gini"))
}
