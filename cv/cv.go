// Package cv runs k-fold cross-validation of the linear booster.
//
// Folds are boosted in lockstep: every round updates all fold boosters, then
// the per-fold train and test scores are reduced to a mean and a population
// standard deviation. Callbacks, early stopping included, see those
// aggregated scores.
//
//	res, err := cv.CV(map[string]any{"objective": "binary:logistic"}, dtrain, 10,
//	    cv.WithNFold(5), cv.WithMetrics("auc"), cv.WithEarlyStoppingRounds(2))
//	tbl, err := res.Table()
package cv

import (
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/dmatrix/booster"
	"github.com/YuminosukeSato/dmatrix/core/parallel"
	"github.com/YuminosukeSato/dmatrix/dmatrix"
	"github.com/YuminosukeSato/dmatrix/frame"
	"github.com/YuminosukeSato/dmatrix/metrics"
	"github.com/YuminosukeSato/dmatrix/pkg/errors"
	"github.com/YuminosukeSato/dmatrix/pkg/log"
)

// Defaults used when a value is not given.
const (
	DefaultNFold         = 3
	DefaultNumBoostRound = 10
)

type options struct {
	nfold               int
	stratified          bool
	folds               Splitter
	metrics             []string
	earlyStoppingRounds int
	verboseEval         int
	showStdv            bool
	seed                int
	shuffle             bool
	callbacks           []booster.Callback
}

func defaultOptions() options {
	return options{nfold: DefaultNFold, showStdv: true, shuffle: true}
}

// Option configures CV.
type Option func(*options)

// WithNFold sets the number of folds.
func WithNFold(n int) Option { return func(o *options) { o.nfold = n } }

// WithStratified deals each label class across folds separately.
func WithStratified(stratified bool) Option { return func(o *options) { o.stratified = stratified } }

// WithFolds uses a custom splitter, or explicit folds via Folds, instead of
// nfold/stratified.
func WithFolds(s Splitter) Option { return func(o *options) { o.folds = s } }

// WithMetrics evaluates these metrics instead of the eval_metric parameter.
// The caller's parameters are not modified.
func WithMetrics(names ...string) Option {
	return func(o *options) { o.metrics = append([]string(nil), names...) }
}

// WithEarlyStoppingRounds stops once the last metric on the test folds has not
// improved for n rounds and truncates the result to the best round.
func WithEarlyStoppingRounds(n int) Option { return func(o *options) { o.earlyStoppingRounds = n } }

// WithVerboseEval logs the aggregated scores every period rounds; 0 disables.
func WithVerboseEval(period int) Option { return func(o *options) { o.verboseEval = period } }

// WithShowStdv includes the standard deviation in verbose output.
func WithShowStdv(show bool) Option { return func(o *options) { o.showStdv = show } }

// WithSeed seeds the fold shuffle.
func WithSeed(seed int) Option { return func(o *options) { o.seed = seed } }

// WithShuffle shuffles rows before splitting.
func WithShuffle(shuffle bool) Option { return func(o *options) { o.shuffle = shuffle } }

// WithCallbacks adds callbacks run once per round on the aggregated scores.
// CallbackEnv.Booster is nil for these calls.
func WithCallbacks(cbs ...booster.Callback) Option {
	return func(o *options) { o.callbacks = append(o.callbacks, cbs...) }
}

// Result is the per-round cross-validation history.
type Result struct {
	// Columns lists the history keys in order: train-<m>-mean, train-<m>-std
	// for every metric, then the same for test.
	Columns []string
	History map[string][]float64

	// BestIteration is the round picked by early stopping, or the last round.
	BestIteration int
}

// NumRounds returns the number of recorded rounds.
func (r *Result) NumRounds() int {
	if len(r.Columns) == 0 {
		return 0
	}
	return len(r.History[r.Columns[0]])
}

// Table returns the history as a table with one float64 column per key.
func (r *Result) Table() (*frame.Table, error) {
	cols := make([]*frame.Column, len(r.Columns))
	for i, name := range r.Columns {
		cols[i] = frame.Float64s(name, r.History[name]...)
	}
	return frame.NewTable(cols...)
}

type foldState struct {
	train, test *dmatrix.DMatrix
	booster     *booster.Booster
}

func (f *foldState) round(iteration int) (res []booster.EvalEntry, err error) {
	defer errors.Recover(&err, "cv fold")
	if err := f.booster.Update(f.train, iteration); err != nil {
		return nil, err
	}
	tr, err := f.booster.Eval(f.train, "train", nil)
	if err != nil {
		return nil, err
	}
	te, err := f.booster.Eval(f.test, "test", nil)
	if err != nil {
		return nil, err
	}
	return append(tr, te...), nil
}

// CV cross-validates a booster configured by params on dtrain for up to
// numBoostRound rounds. params accepts anything booster.ParseParams does.
func CV(params any, dtrain *dmatrix.DMatrix, numBoostRound int, opts ...Option) (*Result, error) {
	const op = "CV"
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if dtrain == nil {
		return nil, errors.NewValueError(op, "training matrix is nil")
	}
	if numBoostRound < 0 {
		return nil, errors.NewValidationError("num_boost_round", "must be non-negative", numBoostRound)
	}

	p, err := booster.ParseParams(params)
	if err != nil {
		return nil, err
	}
	if len(o.metrics) > 0 {
		p = p.With("eval_metric", o.metrics)
	}

	splitter := o.folds
	if splitter == nil {
		if o.nfold < 2 {
			return nil, errors.NewValidationError("nfold", "must be at least 2", o.nfold)
		}
		if o.stratified {
			splitter = NewStratifiedKFold(o.nfold, o.shuffle, o.seed)
		} else {
			splitter = NewKFold(o.nfold, o.shuffle, o.seed)
		}
	}
	splits, err := splitter.Split(dtrain)
	if err != nil {
		return nil, err
	}
	if len(splits) == 0 {
		return nil, errors.NewValueError(op, "no folds")
	}

	folds := make([]*foldState, len(splits))
	for k, s := range splits {
		f := &foldState{}
		if f.train, err = dtrain.Slice(s.Train); err != nil {
			return nil, err
		}
		if f.test, err = dtrain.Slice(s.Test); err != nil {
			return nil, err
		}
		if f.booster, err = booster.New(p, f.train); err != nil {
			return nil, err
		}
		folds[k] = f
	}
	metricNames := folds[0].booster.EvalMetrics()

	callbacks := append([]booster.Callback(nil), o.callbacks...)
	if o.verboseEval > 0 {
		callbacks = append(callbacks, booster.PrintEvaluation(o.verboseEval, o.showStdv))
	}
	if o.earlyStoppingRounds > 0 {
		last := metricNames[len(metricNames)-1]
		callbacks = append(callbacks, booster.EarlyStopping(o.earlyStoppingRounds, last, "test", metrics.Maximize(last)))
	}
	list := booster.NewCallbackList(callbacks...)

	res := &Result{History: make(map[string][]float64)}
	for _, data := range []string{"train", "test"} {
		for _, m := range metricNames {
			res.Columns = append(res.Columns, data+"-"+m+"-mean", data+"-"+m+"-std")
		}
	}

	logger := log.GetLoggerWithName("cv")
	logger.Info("cross-validation started",
		log.NFoldKey, len(folds),
		log.RoundsKey, numBoostRound,
		log.MetricKey, strings.Join(metricNames, ","),
	)

	stopped := false
	perFold := make([][]booster.EvalEntry, len(folds))
	for i := 0; i < numBoostRound; i++ {
		err := parallel.ForEach(len(folds), func(k int) error {
			r, err := folds[k].round(i)
			if err != nil {
				return errors.Wrapf(err, "fold %d", k)
			}
			perFold[k] = r
			return nil
		})
		if err != nil {
			return nil, err
		}

		agg := aggregate(perFold)
		for _, e := range agg {
			prefix := e.Data + "-" + e.Metric
			res.History[prefix+"-mean"] = append(res.History[prefix+"-mean"], e.Score)
			res.History[prefix+"-std"] = append(res.History[prefix+"-std"], e.Std)
		}
		stop, err := list.AfterIteration(nil, i, agg)
		if err != nil {
			return nil, errors.Wrapf(err, "callback at iteration %d", i)
		}
		if stop {
			stopped = true
			break
		}
	}

	res.BestIteration = res.NumRounds() - 1
	if stopped && o.earlyStoppingRounds > 0 && list.BestIteration() >= 0 {
		res.BestIteration = list.BestIteration()
		for k, v := range res.History {
			res.History[k] = v[:res.BestIteration+1]
		}
	}
	logger.Info("cross-validation finished",
		log.RoundsKey, res.NumRounds(),
		log.BestIterationKey, res.BestIteration,
	)
	return res, nil
}

// aggregate reduces per-fold results, all in the same entry order, to
// mean and population standard deviation per entry.
func aggregate(perFold [][]booster.EvalEntry) []booster.EvalEntry {
	out := make([]booster.EvalEntry, len(perFold[0]))
	scores := make([]float64, len(perFold))
	for j, e := range perFold[0] {
		for k := range perFold {
			scores[k] = perFold[k][j].Score
		}
		mean, std := stat.PopMeanStdDev(scores, nil)
		out[j] = booster.EvalEntry{Data: e.Data, Metric: e.Metric, Score: mean, Std: std}
	}
	return out
}
