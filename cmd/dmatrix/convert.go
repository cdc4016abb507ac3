package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

func (a *app) convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a CSV table to a binary matrix",
		Long: `Convert reads the table named by --data, splits off the label and weight
columns, and saves the matrix. Output paths ending in .zst are compressed.

Example:
  dmatrix convert --data train.csv --label y --categorical color --out train.dmtx.zst`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := a.v.GetString("out")
			if out == "" {
				return errors.New("--out is required")
			}
			d, err := a.cfg.Data.Load()
			if err != nil {
				return err
			}
			if err := d.SaveBinary(out); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "wrote %d rows x %d columns (%d stored) to %s\n",
				d.NumRow(), d.NumCol(), d.NumNonMissing(), out)
			return nil
		},
	}
	addDataFlags(cmd.Flags())
	cmd.Flags().String("out", "", "Output matrix path")
	return cmd
}
