package booster

import (
	"math"

	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

// Objective defines the loss minimized by the booster.
type Objective interface {
	// Name returns the parameter value selecting this objective.
	Name() string

	// Gradient returns the first and second derivative of the loss with
	// respect to the margin.
	Gradient(margin, label float64) (grad, hess float64)

	// Transform maps a margin to a prediction.
	Transform(margin float64) float64

	// ProbToMargin converts base_score to the margin scale.
	ProbToMargin(baseScore float64) float64

	// DefaultMetric is used when no eval_metric is configured.
	DefaultMetric() string

	// CheckLabel validates one label.
	CheckLabel(label float64) error
}

const hessEps = 1e-16

type squaredError struct{}

func (squaredError) Name() string                             { return "reg:squarederror" }
func (squaredError) Gradient(m, y float64) (float64, float64) { return m - y, 1 }
func (squaredError) Transform(m float64) float64              { return m }
func (squaredError) ProbToMargin(b float64) float64           { return b }
func (squaredError) DefaultMetric() string                    { return "rmse" }
func (squaredError) CheckLabel(float64) error                 { return nil }

type absoluteError struct{}

func (absoluteError) Name() string { return "reg:absoluteerror" }
func (absoluteError) Gradient(m, y float64) (float64, float64) {
	switch {
	case m > y:
		return 1, 1
	case m < y:
		return -1, 1
	}
	return 0, 1
}
func (absoluteError) Transform(m float64) float64    { return m }
func (absoluteError) ProbToMargin(b float64) float64 { return b }
func (absoluteError) DefaultMetric() string          { return "mae" }
func (absoluteError) CheckLabel(float64) error       { return nil }

// logistic implements binary:logistic and, with raw set, binary:logitraw.
type logistic struct {
	raw bool
}

func (o logistic) Name() string {
	if o.raw {
		return "binary:logitraw"
	}
	return "binary:logistic"
}

func sigmoid(m float64) float64 {
	return 1 / (1 + errors.StabilizeExp(-m))
}

func (logistic) Gradient(m, y float64) (float64, float64) {
	p := sigmoid(m)
	return p - y, math.Max(p*(1-p), hessEps)
}

func (o logistic) Transform(m float64) float64 {
	if o.raw {
		return m
	}
	return sigmoid(m)
}

func (logistic) ProbToMargin(b float64) float64 {
	return -errors.StabilizeLog(1/b - 1)
}

func (o logistic) DefaultMetric() string {
	if o.raw {
		return "auc"
	}
	return "logloss"
}

func (logistic) CheckLabel(y float64) error {
	if y < 0 || y > 1 {
		return errors.NewValueErrorf("CheckLabel", "label must be in [0,1] for logistic loss, got %v", y)
	}
	return nil
}

// ObjectiveByName resolves an objective parameter value.
func ObjectiveByName(name string) (Objective, error) {
	switch name {
	case "reg:squarederror", "reg:linear":
		return squaredError{}, nil
	case "reg:absoluteerror":
		return absoluteError{}, nil
	case "binary:logistic":
		return logistic{}, nil
	case "binary:logitraw":
		return logistic{raw: true}, nil
	}
	return nil, errors.NewValidationError("objective", "unknown objective", name)
}
