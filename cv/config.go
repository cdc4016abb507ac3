package cv

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/dmatrix/booster"
	"github.com/YuminosukeSato/dmatrix/dmatrix"
	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

// Config is the file form of a cross-validation run.
//
//	params:
//	  objective: binary:logistic
//	  eval_metric: error
//	num_boost_round: 10
//	nfold: 5
//	metrics: [auc]
//	verbose_eval: 2
type Config struct {
	Params              map[string]any `yaml:"params" json:"params"`
	NumBoostRound       int            `yaml:"num_boost_round" json:"num_boost_round"`
	NFold               int            `yaml:"nfold" json:"nfold"`
	Stratified          bool           `yaml:"stratified" json:"stratified"`
	Metrics             any            `yaml:"metrics" json:"metrics,omitempty"`
	EarlyStoppingRounds int            `yaml:"early_stopping_rounds" json:"early_stopping_rounds"`
	VerboseEval         any            `yaml:"verbose_eval" json:"verbose_eval,omitempty"`
	ShowStdv            *bool          `yaml:"show_stdv" json:"show_stdv,omitempty"`
	Seed                int            `yaml:"seed" json:"seed"`
	Shuffle             *bool          `yaml:"shuffle" json:"shuffle,omitempty"`
}

// ParseConfig decodes a YAML config.
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "parsing cv config")
	}
	return &c, nil
}

// MetricNames normalizes the metrics field: a string names one metric, a list
// names several, nil names none.
func (c *Config) MetricNames() ([]string, error) {
	if c.Metrics == nil {
		return nil, nil
	}
	names, err := booster.StringList(c.Metrics)
	if err != nil {
		return nil, errors.NewValidationError("metrics", "expected a string or a list of strings", c.Metrics)
	}
	return names, nil
}

// VerbosePeriod normalizes verbose_eval: true logs every round, false or nil
// never, an integer every that many rounds.
func (c *Config) VerbosePeriod() (int, error) {
	switch v := c.VerboseEval.(type) {
	case nil:
		return 0, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case int:
		if v >= 0 {
			return v, nil
		}
	case float64:
		if v >= 0 && v == float64(int(v)) {
			return int(v), nil
		}
	}
	return 0, errors.NewValidationError("verbose_eval", "expected a bool or a non-negative integer", fmt.Sprint(c.VerboseEval))
}

// Options converts the config to CV options. Zero values keep the defaults.
func (c *Config) Options() ([]Option, error) {
	var opts []Option
	if c.NFold != 0 {
		opts = append(opts, WithNFold(c.NFold))
	}
	if c.Stratified {
		opts = append(opts, WithStratified(true))
	}
	names, err := c.MetricNames()
	if err != nil {
		return nil, err
	}
	if len(names) > 0 {
		opts = append(opts, WithMetrics(names...))
	}
	if c.EarlyStoppingRounds < 0 {
		return nil, errors.NewValidationError("early_stopping_rounds", "must be non-negative", c.EarlyStoppingRounds)
	}
	if c.EarlyStoppingRounds > 0 {
		opts = append(opts, WithEarlyStoppingRounds(c.EarlyStoppingRounds))
	}
	period, err := c.VerbosePeriod()
	if err != nil {
		return nil, err
	}
	if period > 0 {
		opts = append(opts, WithVerboseEval(period))
	}
	if c.ShowStdv != nil {
		opts = append(opts, WithShowStdv(*c.ShowStdv))
	}
	if c.Seed != 0 {
		opts = append(opts, WithSeed(c.Seed))
	}
	if c.Shuffle != nil {
		opts = append(opts, WithShuffle(*c.Shuffle))
	}
	return opts, nil
}

// Run cross-validates dtrain as the config describes.
func (c *Config) Run(dtrain *dmatrix.DMatrix) (*Result, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	rounds := c.NumBoostRound
	if rounds == 0 {
		rounds = DefaultNumBoostRound
	}
	return CV(c.Params, dtrain, rounds, opts...)
}
