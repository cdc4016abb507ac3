package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/dmatrix/cv"
	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

func (a *app) cvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cv",
		Short: "Cross-validate the linear booster",
		Long: `Cv runs k-fold cross-validation and prints one row per boosting round with the
mean and standard deviation of every metric on the train and test folds.

Example:
  dmatrix cv --data train.csv --label y --param objective=binary:logistic --metrics auc --nfold 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.cvConfig()
			if err != nil {
				return err
			}
			d, err := a.cfg.Data.Load()
			if err != nil {
				return err
			}
			res, err := c.Run(d)
			if err != nil {
				return err
			}
			if path := a.v.GetString("plot"); path != "" {
				if err := plotHistory(res, path); err != nil {
					return err
				}
			}
			switch format := a.v.GetString("output"); format {
			case "json":
				return writeJSON(a.out, res)
			case "table", "":
				return writeTable(a.out, res)
			default:
				return errors.Newf("unknown output format %q", format)
			}
		},
	}
	addDataFlags(cmd.Flags())
	fs := cmd.Flags()
	fs.StringArray("param", nil, "Booster parameter as key=value, repeatable")
	fs.Int("rounds", cv.DefaultNumBoostRound, "Number of boosting rounds")
	fs.Int("nfold", cv.DefaultNFold, "Number of folds")
	fs.Bool("stratified", false, "Stratify folds by label")
	fs.StringSlice("metrics", nil, "Metrics to evaluate, overriding eval_metric")
	fs.Int("early-stopping-rounds", 0, "Stop when the test metric has not improved for this many rounds")
	fs.Int("verbose-eval", 0, "Log scores every this many rounds")
	fs.Bool("show-stdv", true, "Include standard deviations in logged scores")
	fs.Int("seed", 0, "Fold shuffle seed")
	fs.Bool("shuffle", true, "Shuffle rows before splitting")
	fs.String("plot", "", "Write learning curves to this image file (.png, .svg, .pdf)")
	fs.String("output", "table", "Output format: table or json")
	return cmd
}

// cvConfig merges flags into the cv section of the config.
func (a *app) cvConfig() (*cv.Config, error) {
	c := a.cfg.CV
	if c.Params == nil {
		c.Params = map[string]any{}
	} else {
		params := make(map[string]any, len(c.Params))
		for k, v := range c.Params {
			params[k] = v
		}
		c.Params = params
	}
	for _, kv := range a.v.GetStringSlice("param") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, errors.NewValidationError("param", "expected key=value", kv)
		}
		c.Params[k] = v
	}
	if a.v.IsSet("rounds") {
		c.NumBoostRound = a.v.GetInt("rounds")
	}
	if a.v.IsSet("nfold") {
		c.NFold = a.v.GetInt("nfold")
	}
	if a.v.IsSet("stratified") {
		c.Stratified = a.v.GetBool("stratified")
	}
	if a.v.IsSet("metrics") {
		c.Metrics = a.v.GetStringSlice("metrics")
	}
	if a.v.IsSet("early-stopping-rounds") {
		c.EarlyStoppingRounds = a.v.GetInt("early-stopping-rounds")
	}
	if a.v.IsSet("verbose-eval") {
		c.VerboseEval = a.v.GetInt("verbose-eval")
	}
	if a.v.IsSet("show-stdv") {
		show := a.v.GetBool("show-stdv")
		c.ShowStdv = &show
	}
	if a.v.IsSet("seed") {
		c.Seed = a.v.GetInt("seed")
	}
	if a.v.IsSet("shuffle") {
		shuffle := a.v.GetBool("shuffle")
		c.Shuffle = &shuffle
	}
	return &c, nil
}

func writeTable(w io.Writer, res *cv.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "round\t"+strings.Join(res.Columns, "\t")+"\t")
	for i := 0; i < res.NumRounds(); i++ {
		cells := make([]string, len(res.Columns))
		for j, c := range res.Columns {
			cells[j] = strconv.FormatFloat(res.History[c][i], 'f', 6, 64)
		}
		fmt.Fprintln(tw, strconv.Itoa(i)+"\t"+strings.Join(cells, "\t")+"\t")
	}
	return tw.Flush()
}

type cvOutput struct {
	Columns       []string             `json:"columns"`
	History       map[string][]float64 `json:"history"`
	BestIteration int                  `json:"best_iteration"`
}

func writeJSON(w io.Writer, res *cv.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cvOutput{Columns: res.Columns, History: res.History, BestIteration: res.BestIteration})
}
