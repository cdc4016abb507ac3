package booster

import (
	"github.com/YuminosukeSato/dmatrix/dmatrix"
	"github.com/YuminosukeSato/dmatrix/metrics"
	"github.com/YuminosukeSato/dmatrix/pkg/errors"
	"github.com/YuminosukeSato/dmatrix/pkg/log"
)

// EvalSet names a matrix evaluated after every round.
type EvalSet struct {
	Data *dmatrix.DMatrix
	Name string
}

type trainOptions struct {
	evals               []EvalSet
	callbacks           []Callback
	earlyStoppingRounds int
	verbosePeriod       int
}

// TrainOption configures Train.
type TrainOption func(*trainOptions)

// WithEvals sets the matrices evaluated after every round. Early stopping
// monitors the last one.
func WithEvals(evals ...EvalSet) TrainOption {
	return func(o *trainOptions) { o.evals = evals }
}

// WithCallbacks adds callbacks run after every round.
func WithCallbacks(callbacks ...Callback) TrainOption {
	return func(o *trainOptions) { o.callbacks = append(o.callbacks, callbacks...) }
}

// WithEarlyStoppingRounds stops training when the last metric on the last
// evaluation set has not improved for n rounds.
func WithEarlyStoppingRounds(n int) TrainOption {
	return func(o *trainOptions) { o.earlyStoppingRounds = n }
}

// WithVerboseEval logs evaluation results every period rounds.
func WithVerboseEval(period int) TrainOption {
	return func(o *trainOptions) { o.verbosePeriod = period }
}

// Train boosts a new model on dtrain for up to rounds iterations.
func Train(params any, dtrain *dmatrix.DMatrix, rounds int, opts ...TrainOption) (*Booster, error) {
	const op = "Train"
	if rounds < 0 {
		return nil, errors.NewValidationError("num_boost_round", "must be non-negative", rounds)
	}
	var o trainOptions
	for _, opt := range opts {
		opt(&o)
	}
	b, err := New(params, dtrain)
	if err != nil {
		return nil, err
	}

	callbacks := append([]Callback(nil), o.callbacks...)
	if o.verbosePeriod > 0 {
		callbacks = append(callbacks, PrintEvaluation(o.verbosePeriod, false))
	}
	if o.earlyStoppingRounds > 0 {
		if len(o.evals) == 0 {
			return nil, errors.NewValueError(op, "early stopping requires at least one evaluation set")
		}
		metric := b.evalMetrics[len(b.evalMetrics)-1]
		last := o.evals[len(o.evals)-1].Name
		callbacks = append(callbacks, EarlyStopping(o.earlyStoppingRounds, metric, last, metrics.Maximize(metric)))
	}
	list := NewCallbackList(callbacks...)

	b.logger.Info("training started",
		log.ObjectiveKey, b.obj.Name(),
		log.RoundsKey, rounds,
		log.RowsKey, dtrain.NumRow(),
		log.ColumnsKey, dtrain.NumCol(),
	)
	for i := 0; i < rounds; i++ {
		if err := b.Update(dtrain, i); err != nil {
			return nil, err
		}
		var results []EvalEntry
		for _, e := range o.evals {
			r, err := b.Eval(e.Data, e.Name, nil)
			if err != nil {
				return nil, err
			}
			results = append(results, r...)
		}
		stop, err := list.AfterIteration(b, i, results)
		if err != nil {
			return nil, errors.Wrapf(err, "callback at iteration %d", i)
		}
		if stop {
			break
		}
	}
	if list.BestIteration() >= 0 && o.earlyStoppingRounds > 0 {
		b.bestIteration = list.BestIteration()
		b.bestScore = list.BestScore()
	}
	b.logger.Info("training finished",
		log.RoundsKey, b.rounds,
		log.BestIterationKey, b.BestIteration(),
	)
	return b, nil
}
