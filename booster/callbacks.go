package booster

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/dmatrix/pkg/errors"
	"github.com/YuminosukeSato/dmatrix/pkg/log"
)

// CallbackEnv is the state handed to callbacks after every round.
type CallbackEnv struct {
	// Booster is nil during cross-validation, where one round spans all folds.
	Booster     *Booster
	Iteration   int
	EvalResults []EvalEntry

	BestIteration int
	BestScore     float64
	StopTraining  bool
}

// Callback is called once per round after evaluation.
type Callback func(env *CallbackEnv) error

// CallbackList runs callbacks in order and carries the environment between rounds.
type CallbackList struct {
	callbacks []Callback
	env       CallbackEnv
}

// NewCallbackList creates a list with no best iteration recorded yet.
func NewCallbackList(callbacks ...Callback) *CallbackList {
	return &CallbackList{
		callbacks: callbacks,
		env:       CallbackEnv{BestIteration: -1, BestScore: math.NaN()},
	}
}

// AfterIteration runs every callback for one finished round and reports
// whether training should stop.
func (l *CallbackList) AfterIteration(b *Booster, iteration int, results []EvalEntry) (bool, error) {
	l.env.Booster = b
	l.env.Iteration = iteration
	l.env.EvalResults = results
	for _, cb := range l.callbacks {
		if err := cb(&l.env); err != nil {
			return true, err
		}
	}
	return l.env.StopTraining, nil
}

// BestIteration returns the iteration recorded by early stopping, -1 if none.
func (l *CallbackList) BestIteration() int { return l.env.BestIteration }

// BestScore returns the score recorded by early stopping, NaN if none.
func (l *CallbackList) BestScore() float64 { return l.env.BestScore }

// FormatEval renders one round the usual way:
//
//	[3]	train-rmse:0.12345	test-rmse:0.23456
//
// with "+std" appended to every score when showStdv is set.
func FormatEval(iteration int, results []EvalEntry, showStdv bool) string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(strconv.Itoa(iteration))
	sb.WriteString("]")
	for _, r := range results {
		sb.WriteString("\t")
		sb.WriteString(r.Data)
		sb.WriteString("-")
		sb.WriteString(r.Metric)
		sb.WriteString(":")
		sb.WriteString(strconv.FormatFloat(r.Score, 'f', 5, 64))
		if showStdv {
			sb.WriteString("+")
			sb.WriteString(strconv.FormatFloat(r.Std, 'f', 5, 64))
		}
	}
	return sb.String()
}

// PrintEvaluation logs the results every period rounds at info level.
// A non-positive period disables it.
func PrintEvaluation(period int, showStdv bool) Callback {
	logger := log.GetLoggerWithName("booster")
	return func(env *CallbackEnv) error {
		if period <= 0 || env.Iteration%period != 0 || len(env.EvalResults) == 0 {
			return nil
		}
		if !logger.Enabled(context.Background(), log.LevelInfo) {
			return nil
		}
		logger.Info(FormatEval(env.Iteration, env.EvalResults, showStdv), log.IterationKey, env.Iteration)
		return nil
	}
}

// RecordEvaluation appends every score to history[data][metric].
func RecordEvaluation(history map[string]map[string][]float64) Callback {
	return func(env *CallbackEnv) error {
		if history == nil {
			return errors.New("RecordEvaluation: history map is nil")
		}
		for _, r := range env.EvalResults {
			if history[r.Data] == nil {
				history[r.Data] = make(map[string][]float64)
			}
			history[r.Data][r.Metric] = append(history[r.Data][r.Metric], r.Score)
		}
		return nil
	}
}

// EarlyStopping stops training once the monitored score has not improved for
// rounds iterations. An empty dataName monitors the last evaluation set and an
// empty metric the last metric of that set.
func EarlyStopping(rounds int, metric, dataName string, maximize bool) Callback {
	logger := log.GetLoggerWithName("booster")
	best := math.Inf(1)
	if maximize {
		best = math.Inf(-1)
	}
	bestIteration := -1

	return func(env *CallbackEnv) error {
		if rounds <= 0 {
			return errors.NewValidationError("early_stopping_rounds", "must be positive", rounds)
		}
		r, ok := monitored(env.EvalResults, metric, dataName)
		if !ok {
			return errors.New("early stopping requires at least one evaluation result")
		}
		improved := r.Score < best
		if maximize {
			improved = r.Score > best
		}
		if improved || bestIteration < 0 {
			best = r.Score
			bestIteration = env.Iteration
			env.BestIteration = bestIteration
			env.BestScore = best
			return nil
		}
		if env.Iteration-bestIteration >= rounds {
			logger.Info("early stopping",
				log.IterationKey, env.Iteration,
				log.BestIterationKey, bestIteration,
				log.EvalKey, r.Data,
				log.MetricKey, r.Metric,
				log.ScoreKey, best,
			)
			env.StopTraining = true
		}
		return nil
	}
}

func monitored(results []EvalEntry, metric, dataName string) (EvalEntry, bool) {
	if dataName == "" && len(results) > 0 {
		dataName = results[len(results)-1].Data
	}
	for i := len(results) - 1; i >= 0; i-- {
		r := results[i]
		if r.Data == dataName && (metric == "" || r.Metric == metric) {
			return r, true
		}
	}
	return EvalEntry{}, false
}
