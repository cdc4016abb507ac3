package metrics

import (
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

// Evaluate computes a named evaluation metric over labels and predictions.
// weights may be nil.
//
// Supported names: rmse, mse, mae, logloss, error, error@<threshold>, auc,
// ndcg, ndcg@<k> and map. Ranking metrics treat all rows as one query.
func Evaluate(name string, labels, preds, weights []float64) (float64, error) {
	const op = "Evaluate"
	if len(labels) == 0 {
		return 0, errors.NewValueError(op, "empty labels")
	}
	if len(preds) != len(labels) {
		return 0, errors.NewDimensionError(op, len(labels), len(preds), 0)
	}
	if err := checkWeights(op, len(labels), weights); err != nil {
		return 0, err
	}

	base, arg, hasArg := strings.Cut(name, "@")
	switch base {
	case "rmse":
		return math.Sqrt(weightedMean(squaredErrors(labels, preds), weights)), nil
	case "mse":
		return weightedMean(squaredErrors(labels, preds), weights), nil
	case "mae":
		return weightedMean(absoluteErrors(labels, preds), weights), nil
	case "logloss":
		return logLossWeighted(labels, preds, weights), nil
	case "error":
		threshold := 0.5
		if hasArg {
			t, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return 0, errors.NewValueErrorf(op, "invalid threshold in metric %q", name)
			}
			threshold = t
		}
		return errorRateWeighted(labels, preds, weights, threshold), nil
	case "auc":
		if err := checkBinary(op, labels); err != nil {
			return 0, err
		}
		return aucWeighted(labels, preds, weights), nil
	case "ndcg":
		k := -1
		if hasArg {
			v, err := strconv.Atoi(arg)
			if err != nil || v <= 0 {
				return 0, errors.NewValueErrorf(op, "invalid cutoff in metric %q", name)
			}
			k = v
		}
		return ndcg(labels, preds, k), nil
	case "map":
		if err := checkBinary(op, labels); err != nil {
			return 0, err
		}
		return averagePrecision(labels, preds), nil
	}
	return 0, errors.NewValueErrorf(op, "unknown metric %q", name)
}

// Known reports whether Evaluate accepts name.
func Known(name string) bool {
	_, err := Evaluate(name, []float64{0, 1}, []float64{0, 1}, nil)
	return err == nil
}

// Maximize reports whether larger values of the metric are better.
func Maximize(name string) bool {
	base, _, _ := strings.Cut(name, "@")
	switch base {
	case "auc", "ndcg", "map":
		return true
	}
	return false
}
