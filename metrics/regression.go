// Package metrics は学習・評価に使う指標を提供します。
//
// 各指標は重み付きのスライス版（Evaluateから使う）と、gonumのベクトルを受け取る版の両方を持ちます。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

// vecPair はベクトルの入力を検証してスライスに変換する
func vecPair(op string, yTrue, yPred *mat.VecDense) ([]float64, []float64, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return nil, nil, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != yTrue.Len() {
		return nil, nil, errors.NewDimensionError(op, yTrue.Len(), yPred.Len(), 0)
	}
	return mat.Col(nil, 0, yTrue), mat.Col(nil, 0, yPred), nil
}

// firstColumns は行列の先頭列を取り出す。列ベクトル以外は先頭列を使う。
func firstColumns(op string, yTrue, yPred mat.Matrix) (*mat.VecDense, *mat.VecDense, error) {
	if yTrue == nil || yPred == nil {
		return nil, nil, errors.NewValueError(op, "nil matrix")
	}
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if rTrue == 0 || cTrue == 0 || cPred == 0 {
		return nil, nil, errors.NewValueError(op, "empty matrix")
	}
	if rTrue != rPred {
		return nil, nil, errors.NewDimensionError(op, rTrue, rPred, 0)
	}
	return mat.NewVecDense(rTrue, mat.Col(nil, 0, yTrue)), mat.NewVecDense(rPred, mat.Col(nil, 0, yPred)), nil
}

// checkWeights は重みの長さを確認する。nilは全て1として扱う。
func checkWeights(op string, n int, weights []float64) error {
	if weights != nil && len(weights) != n {
		return errors.NewDimensionError(op, n, len(weights), 0)
	}
	return nil
}

func weightAt(weights []float64, i int) float64 {
	if weights == nil {
		return 1
	}
	return weights[i]
}

// weightedMean は重み付き平均。重みの合計が0の場合はNaNになる。
func weightedMean(values, weights []float64) float64 {
	return stat.Mean(values, weights)
}

// squaredErrors は (y - p)² の列を返す
func squaredErrors(labels, preds []float64) []float64 {
	out := make([]float64, len(labels))
	for i := range labels {
		d := labels[i] - preds[i]
		out[i] = d * d
	}
	return out
}

// absoluteErrors は |y - p| の列を返す
func absoluteErrors(labels, preds []float64) []float64 {
	out := make([]float64, len(labels))
	for i := range labels {
		out[i] = math.Abs(labels[i] - preds[i])
	}
	return out
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	labels, preds, err := vecPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return weightedMean(squaredErrors(labels, preds), nil), nil
}

// MSEMatrix は列ベクトル（n×1行列）の入力に対してMSEを計算する
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	if yTrue != nil && yPred != nil {
		_, cTrue := yTrue.Dims()
		_, cPred := yPred.Dims()
		if cTrue > 1 || cPred > 1 {
			return 0, errors.NewValueError("MSEMatrix", "must be a column vector (n×1 matrix)")
		}
	}
	t, p, err := firstColumns("MSEMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return MSE(t, p)
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	labels, preds, err := vecPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return weightedMean(absoluteErrors(labels, preds), nil), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	labels, preds, err := vecPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	// 全変動が0の場合（すべてのyTrueが同じ値）は定義できない
	tss := stat.Variance(labels, nil) * float64(len(labels)-1)
	if len(labels) < 2 || tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}
	var rss float64
	for _, se := range squaredErrors(labels, preds) {
		rss += se
	}
	return 1 - rss/tss, nil
}
