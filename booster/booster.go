// Package booster implements a coordinate-descent linear booster trained on
// a DMatrix. Missing entries contribute nothing to the margin, so a sparse and
// a dense matrix holding the same stored values train and predict identically.
//
//	b, err := booster.Train(booster.Params{{Key: "objective", Value: "binary:logistic"}}, dtrain, 10)
//	preds, err := b.Predict(dtest, false)
package booster

import (
	"io"
	"math"

	json "github.com/goccy/go-json"

	"github.com/YuminosukeSato/dmatrix/core/parallel"
	"github.com/YuminosukeSato/dmatrix/dmatrix"
	"github.com/YuminosukeSato/dmatrix/metrics"
	"github.com/YuminosukeSato/dmatrix/pkg/errors"
	"github.com/YuminosukeSato/dmatrix/pkg/log"
)

// Defaults of the linear booster.
const (
	DefaultEta       = 0.5
	DefaultBaseScore = 0.5

	// rows handled inline before gradient work is split across cores
	parallelThreshold = 1 << 14
)

// Booster is a trained (or training) linear model: bias + Σ w_j x_j on the
// margin scale, mapped to predictions by the objective.
type Booster struct {
	params      Params
	obj         Objective
	evalMetrics []string

	eta, alpha, lambda float64
	baseScore          float64

	bias         float64
	weights      []float64
	numFeature   int
	featureNames []string

	rounds        int
	bestIteration int
	bestScore     float64

	logger log.Logger
}

// EvalEntry is one evaluation result. Std is zero outside cross-validation.
type EvalEntry struct {
	Data   string
	Metric string
	Score  float64
	Std    float64
}

// New creates an untrained booster shaped after dtrain.
//
// Recognized parameters: objective (default reg:squarederror), eval_metric,
// eta or learning_rate, alpha or reg_alpha, lambda or reg_lambda, base_score.
// Unknown keys are ignored.
func New(params any, dtrain *dmatrix.DMatrix) (*Booster, error) {
	if dtrain == nil {
		return nil, errors.NewValueError("booster.New", "training matrix is nil")
	}
	p, err := ParseParams(params)
	if err != nil {
		return nil, err
	}
	b := &Booster{
		params:        p,
		numFeature:    dtrain.NumCol(),
		weights:       make([]float64, dtrain.NumCol()),
		featureNames:  dtrain.FeatureNames(),
		bestIteration: -1,
		bestScore:     math.NaN(),
		logger:        log.GetLoggerWithName("booster"),
	}
	if err := b.configure(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Booster) configure() error {
	p := b.params
	name, err := p.String("objective", "reg:squarederror")
	if err != nil {
		return err
	}
	if b.obj, err = ObjectiveByName(name); err != nil {
		return err
	}
	if b.evalMetrics, err = p.EvalMetrics(); err != nil {
		return err
	}
	if len(b.evalMetrics) == 0 {
		b.evalMetrics = []string{b.obj.DefaultMetric()}
	}
	for _, m := range b.evalMetrics {
		if !metrics.Known(m) {
			return errors.NewValidationError("eval_metric", "unknown metric", m)
		}
	}

	eta, err := p.Float("learning_rate", DefaultEta)
	if err != nil {
		return err
	}
	if b.eta, err = p.Float("eta", eta); err != nil {
		return err
	}
	alpha, err := p.Float("reg_alpha", 0)
	if err != nil {
		return err
	}
	if b.alpha, err = p.Float("alpha", alpha); err != nil {
		return err
	}
	lambda, err := p.Float("reg_lambda", 0)
	if err != nil {
		return err
	}
	if b.lambda, err = p.Float("lambda", lambda); err != nil {
		return err
	}
	if b.baseScore, err = p.Float("base_score", DefaultBaseScore); err != nil {
		return err
	}

	switch {
	case b.eta <= 0:
		return errors.NewValidationError("eta", "must be positive", b.eta)
	case b.alpha < 0:
		return errors.NewValidationError("alpha", "must be non-negative", b.alpha)
	case b.lambda < 0:
		return errors.NewValidationError("lambda", "must be non-negative", b.lambda)
	}
	if _, isLogistic := b.obj.(logistic); isLogistic && (b.baseScore <= 0 || b.baseScore >= 1) {
		return errors.NewValidationError("base_score", "must be in (0,1) for logistic loss", b.baseScore)
	}
	return nil
}

// Params returns a copy of the parameters the booster was built with.
func (b *Booster) Params() Params { return b.params.Clone() }

// Objective returns the objective name.
func (b *Booster) Objective() string { return b.obj.Name() }

// EvalMetrics returns the metrics Eval uses by default.
func (b *Booster) EvalMetrics() []string { return append([]string(nil), b.evalMetrics...) }

// NumFeature returns the number of features the model expects.
func (b *Booster) NumFeature() int { return b.numFeature }

// NumBoostedRounds returns how many updates have been applied.
func (b *Booster) NumBoostedRounds() int { return b.rounds }

// Weights returns a copy of the feature weights and the bias.
func (b *Booster) Weights() ([]float64, float64) {
	return append([]float64(nil), b.weights...), b.bias
}

// BestIteration returns the best iteration found by early stopping, or the
// last iteration when training ran to completion. -1 before any update.
func (b *Booster) BestIteration() int {
	if b.bestIteration >= 0 {
		return b.bestIteration
	}
	return b.rounds - 1
}

// BestScore returns the score at BestIteration, NaN without early stopping.
func (b *Booster) BestScore() float64 { return b.bestScore }

func (b *Booster) checkFeatures(op string, d *dmatrix.DMatrix) error {
	if d == nil {
		return errors.NewValueError(op, "matrix is nil")
	}
	if d.NumCol() != b.numFeature {
		return errors.NewValueErrorf(op, "feature shape mismatch, expected: %d, got %d", b.numFeature, d.NumCol())
	}
	names := d.FeatureNames()
	if b.featureNames != nil && names != nil {
		for i := range names {
			if names[i] != b.featureNames[i] {
				return errors.NewValueErrorf(op, "feature_names mismatch: %v %v", b.featureNames, names)
			}
		}
	}
	return nil
}

// baseMargins returns the starting margin of every row: the matrix base margin
// when one column of it is set, base_score on the margin scale otherwise.
func (b *Booster) baseMargins(d *dmatrix.DMatrix) []float64 {
	out := make([]float64, d.NumRow())
	bm, cols := d.BaseMargin()
	if cols == 1 && len(bm) == len(out) {
		for i, v := range bm {
			out[i] = float64(v)
		}
		return out
	}
	base := b.obj.ProbToMargin(b.baseScore)
	for i := range out {
		out[i] = base
	}
	return out
}

func (b *Booster) margins(d *dmatrix.DMatrix) []float64 {
	out := b.baseMargins(d)
	parallel.ParallelizeWithThreshold(len(out), parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			m := out[i] + b.bias
			idx, vals := d.Row(i)
			for k, j := range idx {
				m += b.weights[j] * float64(vals[k])
			}
			out[i] = m
		}
	})
	return out
}

// Predict returns one prediction per row. With outputMargin the raw margin is
// returned instead of the transformed prediction.
func (b *Booster) Predict(d *dmatrix.DMatrix, outputMargin bool) ([]float64, error) {
	if err := b.checkFeatures("Predict", d); err != nil {
		return nil, err
	}
	out := b.margins(d)
	if !outputMargin {
		for i, m := range out {
			out[i] = b.obj.Transform(m)
		}
	}
	return out, nil
}

// column-major copy of the stored entries
type columnView struct {
	indptr []int
	rows   []int
	vals   []float64
}

func newColumnView(d *dmatrix.DMatrix) columnView {
	ncol := d.NumCol()
	counts := make([]int, ncol+1)
	for i := 0; i < d.NumRow(); i++ {
		idx, _ := d.Row(i)
		for _, j := range idx {
			counts[j+1]++
		}
	}
	for j := 0; j < ncol; j++ {
		counts[j+1] += counts[j]
	}
	v := columnView{
		indptr: counts,
		rows:   make([]int, d.NumNonMissing()),
		vals:   make([]float64, d.NumNonMissing()),
	}
	next := append([]int(nil), counts[:ncol]...)
	for i := 0; i < d.NumRow(); i++ {
		idx, vals := d.Row(i)
		for k, j := range idx {
			p := next[j]
			v.rows[p] = i
			v.vals[p] = float64(vals[k])
			next[j]++
		}
	}
	return v
}

// coordinateDelta is the L1/L2 regularized Newton step for one weight
// (soft thresholding: the L1 term is applied on the side of zero the weight
// lands on).
func coordinateDelta(sumGrad, sumHess, w, alpha, lambda float64) float64 {
	if sumHess < 1e-5 {
		return 0
	}
	g := sumGrad + lambda*w
	h := sumHess + lambda
	if w-g/h >= 0 {
		return math.Max(-(g+alpha)/h, -w)
	}
	return math.Min(-(g-alpha)/h, -w)
}

// Update runs one boosting round on dtrain: a bias step followed by one
// coordinate step per feature in index order.
func (b *Booster) Update(dtrain *dmatrix.DMatrix, iteration int) error {
	const op = "Update"
	if err := b.checkFeatures(op, dtrain); err != nil {
		return err
	}
	labels := dtrain.Label()
	n := dtrain.NumRow()
	if len(labels) != n {
		return errors.NewValueErrorf(op, "training matrix needs a label for each of its %d rows, got %d", n, len(labels))
	}
	for _, y := range labels {
		if err := b.obj.CheckLabel(float64(y)); err != nil {
			return err
		}
	}
	rowWeight := dtrain.Weight()

	margin := b.margins(dtrain)
	grad := make([]float64, n)
	hess := make([]float64, n)
	parallel.ParallelizeWithThreshold(n, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			g, h := b.obj.Gradient(margin[i], float64(labels[i]))
			if rowWeight != nil {
				g *= float64(rowWeight[i])
				h *= float64(rowWeight[i])
			}
			grad[i], hess[i] = g, h
		}
	})

	sumWeight := float64(n)
	if rowWeight != nil {
		sumWeight = 0
		for _, w := range rowWeight {
			sumWeight += float64(w)
		}
	}
	alpha, lambda := b.alpha*sumWeight, b.lambda*sumWeight

	var sg, sh float64
	for i := range grad {
		sg += grad[i]
		sh += hess[i]
	}
	if sh > 1e-5 {
		db := -b.eta * sg / sh
		b.bias += db
		for i := range grad {
			grad[i] += hess[i] * db
		}
	}

	cols := newColumnView(dtrain)
	for j := range b.weights {
		lo, hi := cols.indptr[j], cols.indptr[j+1]
		sg, sh = 0, 0
		for p := lo; p < hi; p++ {
			r, v := cols.rows[p], cols.vals[p]
			sg += grad[r] * v
			sh += hess[r] * v * v
		}
		dw := b.eta * coordinateDelta(sg, sh, b.weights[j], alpha, lambda)
		if dw == 0 {
			continue
		}
		b.weights[j] += dw
		for p := lo; p < hi; p++ {
			r := cols.rows[p]
			grad[r] += hess[r] * cols.vals[p] * dw
		}
	}

	b.rounds++
	b.logger.Debug("round finished", log.IterationKey, iteration, "bias", b.bias)
	return nil
}

// Eval scores d under the given metrics, or the booster's eval metrics when
// metricNames is empty. name labels the entries ("train", "test", ...).
func (b *Booster) Eval(d *dmatrix.DMatrix, name string, metricNames []string) ([]EvalEntry, error) {
	if len(metricNames) == 0 {
		metricNames = b.evalMetrics
	}
	preds, err := b.Predict(d, false)
	if err != nil {
		return nil, err
	}
	labels := toF64(d.Label())
	if len(labels) != len(preds) {
		return nil, errors.NewValueErrorf("Eval", "matrix %q has %d labels for %d rows", name, len(labels), len(preds))
	}
	weights := toF64(d.Weight())
	out := make([]EvalEntry, 0, len(metricNames))
	for _, m := range metricNames {
		score, err := metrics.Evaluate(m, labels, preds, weights)
		if err != nil {
			return nil, errors.Wrapf(err, "evaluating %s-%s", name, m)
		}
		out = append(out, EvalEntry{Data: name, Metric: m, Score: score})
	}
	return out, nil
}

func toF64(vals []float32) []float64 {
	if vals == nil {
		return nil
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = float64(v)
	}
	return out
}

type modelJSON struct {
	Params        [][2]any  `json:"params"`
	Objective     string    `json:"objective"`
	BaseScore     float64   `json:"base_score"`
	NumFeature    int       `json:"num_feature"`
	FeatureNames  []string  `json:"feature_names,omitempty"`
	Bias          float64   `json:"bias"`
	Weights       []float64 `json:"weights"`
	Rounds        int       `json:"num_boosted_rounds"`
	BestIteration int       `json:"best_iteration"`
	BestScore     *float64  `json:"best_score,omitempty"`
}

// Save writes the model as JSON.
func (b *Booster) Save(w io.Writer) error {
	m := modelJSON{
		Objective:     b.obj.Name(),
		BaseScore:     b.baseScore,
		NumFeature:    b.numFeature,
		FeatureNames:  b.featureNames,
		Bias:          b.bias,
		Weights:       b.weights,
		Rounds:        b.rounds,
		BestIteration: b.bestIteration,
	}
	for _, kv := range b.params {
		m.Params = append(m.Params, [2]any{kv.Key, kv.Value})
	}
	if !math.IsNaN(b.bestScore) {
		s := b.bestScore
		m.BestScore = &s
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(m), "encoding booster")
}

// Load reads a model written by Save.
func Load(r io.Reader) (*Booster, error) {
	var m modelJSON
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, errors.Wrap(err, "decoding booster")
	}
	if len(m.Weights) != m.NumFeature {
		return nil, errors.Newf("decoding booster: %d weights for %d features", len(m.Weights), m.NumFeature)
	}
	p, err := ParseParams(m.Params)
	if err != nil {
		return nil, err
	}
	// JSON numbers decode as float64, the parameter readers accept that
	b := &Booster{
		params:        p,
		numFeature:    m.NumFeature,
		featureNames:  m.FeatureNames,
		bias:          m.Bias,
		weights:       m.Weights,
		rounds:        m.Rounds,
		bestIteration: m.BestIteration,
		bestScore:     math.NaN(),
		logger:        log.GetLoggerWithName("booster"),
	}
	if m.BestScore != nil {
		b.bestScore = *m.BestScore
	}
	if err := b.configure(); err != nil {
		return nil, err
	}
	if b.obj.Name() != m.Objective {
		return nil, errors.Newf("decoding booster: objective %q does not match parameters", m.Objective)
	}
	b.baseScore = m.BaseScore
	return b, nil
}
