package main

import (
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/dmatrix/dmatrix"
)

type matrixInfo struct {
	Rows           int      `json:"num_row"`
	Columns        int      `json:"num_col"`
	NonMissing     int      `json:"num_nonmissing"`
	FeatureNames   []string `json:"feature_names,omitempty"`
	FeatureTypes   []string `json:"feature_types,omitempty"`
	HasLabel       bool     `json:"has_label"`
	HasWeight      bool     `json:"has_weight"`
	BaseMarginCols int      `json:"base_margin_cols,omitempty"`
}

func describe(d *dmatrix.DMatrix) matrixInfo {
	_, bmCols := d.BaseMargin()
	return matrixInfo{
		Rows:           d.NumRow(),
		Columns:        d.NumCol(),
		NonMissing:     d.NumNonMissing(),
		FeatureNames:   d.FeatureNames(),
		FeatureTypes:   dmatrix.Strings(d.FeatureTypes()),
		HasLabel:       d.Label() != nil,
		HasWeight:      d.Weight() != nil,
		BaseMarginCols: bmCols,
	}
}

func (a *app) infoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info [path]",
		Short: "Print a JSON summary of a matrix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data := a.cfg.Data
			if len(args) == 1 {
				data.Path = args[0]
			}
			d, err := data.Load()
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(describe(d), "", "  ")
			if err != nil {
				return err
			}
			_, err = a.out.Write(append(b, '\n'))
			return err
		},
	}
	addDataFlags(cmd.Flags())
	return cmd
}
