package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func vec(vals ...float64) *mat.VecDense {
	if len(vals) == 0 {
		return nil
	}
	return mat.NewVecDense(len(vals), vals)
}

func TestRegressionMetrics(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(a, b *mat.VecDense) (float64, error)
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		want    float64
		wantErr bool
	}{
		{name: "MSE perfect", fn: MSE, yTrue: vec(1, 2, 3, 4, 5), yPred: vec(1, 2, 3, 4, 5), want: 0},
		// ((0.5)^2 * 4) / 4
		{name: "MSE simple", fn: MSE, yTrue: vec(1, 2, 3, 4), yPred: vec(1.5, 2.5, 2.5, 3.5), want: 0.25},
		{name: "MSE larger errors", fn: MSE, yTrue: vec(10, 20, 30), yPred: vec(12, 18, 33), want: 17.0 / 3.0},
		{name: "MSE dimension mismatch", fn: MSE, yTrue: vec(1, 2, 3), yPred: vec(1, 2), wantErr: true},
		{name: "MSE empty", fn: MSE, yTrue: &mat.VecDense{}, yPred: &mat.VecDense{}, wantErr: true},
		{name: "RMSE", fn: RMSE, yTrue: vec(1, 2, 3, 4), yPred: vec(1.5, 2.5, 2.5, 3.5), want: 0.5},
		{name: "RMSE nil", fn: RMSE, yTrue: nil, yPred: vec(1), wantErr: true},
		{name: "MAE", fn: MAE, yTrue: vec(1, 2, 3), yPred: vec(2, 2, 1), want: 1},
		{name: "MAE mismatch", fn: MAE, yTrue: vec(1, 2), yPred: vec(1), wantErr: true},
		{name: "R2 perfect", fn: R2Score, yTrue: vec(1, 2, 3, 4, 5), yPred: vec(1, 2, 3, 4, 5), want: 1},
		{name: "R2 worse than mean", fn: R2Score, yTrue: vec(1, 2, 3, 4), yPred: vec(4, 3, 2, 1), want: -3},
		{name: "R2 no variance", fn: R2Score, yTrue: vec(3, 3, 3), yPred: vec(2, 3, 4), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.yTrue, tt.yPred)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-10)
		})
	}
}

func TestMSEMatrix(t *testing.T) {
	got, err := MSEMatrix(mat.NewDense(4, 1, []float64{1, 2, 3, 4}), mat.NewDense(4, 1, []float64{1.5, 2.5, 2.5, 3.5}))
	require.NoError(t, err)
	assert.InDelta(t, 0.25, got, 1e-10)

	_, err = MSEMatrix(mat.NewDense(2, 2, []float64{1, 2, 3, 4}), mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	require.Error(t, err)

	_, err = MSEMatrix(mat.NewDense(3, 1, nil), mat.NewDense(2, 1, nil))
	require.Error(t, err)
}
