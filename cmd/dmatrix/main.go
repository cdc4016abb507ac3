// Command dmatrix converts tables to training matrices, inspects saved
// matrices and cross-validates the linear booster on them.
//
//	dmatrix convert --data train.csv --label y --out train.dmtx.zst
//	dmatrix info train.dmtx.zst
//	dmatrix cv --config cv.yaml --plot curves.png
//
// Every flag can also be set through a DMATRIX_<FLAG> environment variable,
// dashes replaced by underscores.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
