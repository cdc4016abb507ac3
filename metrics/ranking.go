package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

type rankPair = struct {
	score     float64
	relevance float64
}

// rankByScore はスコアの降順に並べたペアを返す
func rankByScore(labels, preds []float64) []rankPair {
	pairs := make([]rankPair, len(labels))
	for i := range labels {
		pairs[i] = rankPair{score: preds[i], relevance: labels[i]}
	}
	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].score > pairs[b].score })
	return pairs
}

// dcg は与えられた順序のまま上位k件の割引累積利得を計算する（利得は 2^rel - 1）
func dcg(pairs []rankPair, k int) float64 {
	var sum float64
	for i := 0; i < k && i < len(pairs); i++ {
		sum += (math.Pow(2, pairs[i].relevance) - 1) / math.Log2(float64(i)+2)
	}
	return sum
}

// ndcg は一つのクエリとして全体のNDCG@kを計算する。k<0は全件。
func ndcg(labels, preds []float64, k int) float64 {
	if k < 0 || k > len(labels) {
		k = len(labels)
	}
	ideal := make([]rankPair, len(labels))
	for i, y := range labels {
		ideal[i] = rankPair{score: y, relevance: y}
	}
	sort.SliceStable(ideal, func(a, b int) bool { return ideal[a].relevance > ideal[b].relevance })
	idcg := dcg(ideal, k)
	if idcg == 0 {
		return 0
	}
	return dcg(rankByScore(labels, preds), k) / idcg
}

func averagePrecision(labels, preds []float64) float64 {
	var hits, sum float64
	for rank, p := range rankByScore(labels, preds) {
		if p.relevance == 1 {
			hits++
			sum += hits / float64(rank+1)
		}
	}
	if hits == 0 {
		return 0
	}
	return sum / hits
}

// NDCG は正規化割引累積利得を計算する。k=-1で全件、関連度は非負。
func NDCG(yTrue, yPred *mat.VecDense, k int) (float64, error) {
	labels, preds, err := vecPair("NDCG", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if k == 0 || k < -1 {
		return 0, errors.NewValueErrorf("NDCG", "k must be positive or -1, got %d", k)
	}
	for i, y := range labels {
		if y < 0 {
			return 0, errors.NewValueErrorf("NDCG", "relevance must be non-negative, got %v at index %d", y, i)
		}
	}
	return ndcg(labels, preds, k), nil
}

// NDCGMatrix は行列入力の先頭列に対してNDCGを計算する
func NDCGMatrix(yTrue, yPred mat.Matrix, k int) (float64, error) {
	t, p, err := firstColumns("NDCGMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return NDCG(t, p, k)
}

// AveragePrecision は二値の関連度に対する平均適合率を計算する
func AveragePrecision(yTrue, yPred *mat.VecDense) (float64, error) {
	labels, preds, err := vecPair("AveragePrecision", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("AveragePrecision", labels); err != nil {
		return 0, err
	}
	return averagePrecision(labels, preds), nil
}

// MeanAveragePrecision は複数クエリのAveragePrecisionの平均
func MeanAveragePrecision(yTrueList, yPredList []*mat.VecDense) (float64, error) {
	if len(yTrueList) == 0 {
		return 0, errors.NewValueError("MeanAveragePrecision", "no queries")
	}
	if len(yTrueList) != len(yPredList) {
		return 0, errors.NewDimensionError("MeanAveragePrecision", len(yTrueList), len(yPredList), 0)
	}
	var sum float64
	for q := range yTrueList {
		ap, err := AveragePrecision(yTrueList[q], yPredList[q])
		if err != nil {
			return 0, errors.Wrapf(err, "query %d", q)
		}
		sum += ap
	}
	return sum / float64(len(yTrueList)), nil
}
