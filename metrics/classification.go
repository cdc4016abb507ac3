package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

// logLossEps はlog(0)を避けるためのクリップ幅
const logLossEps = 1e-15

// checkBinary はラベルが0か1であることを確認する
func checkBinary(op string, labels []float64) error {
	for i, y := range labels {
		if y != 0 && y != 1 {
			return errors.NewValueErrorf(op, "labels must be 0 or 1, got %v at index %d", y, i)
		}
	}
	return nil
}

// aucWeighted は同順位を平均ランクで扱う重み付きAUCを計算する。
// 正例か負例のどちらかしかない場合は定義できないため0.5を返す。
func aucWeighted(labels, preds, weights []float64) float64 {
	order := make([]int, len(preds))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return preds[order[a]] < preds[order[b]] })

	var area, negSeen, totalPos, totalNeg float64
	for start := 0; start < len(order); {
		end := start
		var pos, neg float64
		for end < len(order) && preds[order[end]] == preds[order[start]] {
			i := order[end]
			w := weightAt(weights, i)
			if labels[i] == 1 {
				pos += w
			} else {
				neg += w
			}
			end++
		}
		// 同じスコアの正例と負例のペアは半分として数える
		area += pos*negSeen + 0.5*pos*neg
		negSeen += neg
		totalPos += pos
		totalNeg += neg
		start = end
	}
	if totalPos == 0 || totalNeg == 0 {
		return 0.5
	}
	return area / (totalPos * totalNeg)
}

func logLossWeighted(labels, preds, weights []float64) float64 {
	losses := make([]float64, len(labels))
	for i, y := range labels {
		p := errors.ClipValue(preds[i], logLossEps, 1-logLossEps)
		losses[i] = -(y*math.Log(p) + (1-y)*math.Log(1-p))
	}
	return weightedMean(losses, weights)
}

// errorRateWeighted はスコアがthresholdを超えたものを正例と予測したときの誤り率
func errorRateWeighted(labels, preds, weights []float64, threshold float64) float64 {
	wrong := make([]float64, len(labels))
	for i, y := range labels {
		predicted := 0.0
		if preds[i] > threshold {
			predicted = 1
		}
		if predicted != y {
			wrong[i] = 1
		}
	}
	return weightedMean(wrong, weights)
}

// AUC はROC曲線下面積を計算する。ラベルは0か1でなければならない。
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	labels, preds, err := vecPair("AUC", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("AUC", labels); err != nil {
		return 0, err
	}
	return aucWeighted(labels, preds, nil), nil
}

// AUCMatrix は行列入力の先頭列に対してAUCを計算する
func AUCMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := firstColumns("AUCMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return AUC(t, p)
}

// BinaryLogLoss は二値分類の対数損失を計算する。予測値は確率として扱う。
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	labels, preds, err := vecPair("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("BinaryLogLoss", labels); err != nil {
		return 0, err
	}
	return logLossWeighted(labels, preds, nil), nil
}

// ClassificationError は予測クラスが正解と異なる割合を返す（多クラス可）
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	labels, preds, err := vecPair("ClassificationError", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var wrong int
	for i := range labels {
		if labels[i] != preds[i] {
			wrong++
		}
	}
	return float64(wrong) / float64(len(labels)), nil
}

// Accuracy は正解率
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	e, err := ClassificationError(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - e, nil
}
