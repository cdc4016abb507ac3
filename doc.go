// Package dmatrix converts typed tables into sparse training matrices for
// gradient boosting, and provides a small linear booster and a
// cross-validation driver on top of them.
//
// # Packages
//
//   - frame: columnar tables with dtype tags (int, float, bool, categorical,
//     nullable, sparse, object), Arrow and CSV import, one-hot encoding
//   - dmatrix: table to matrix conversion, the DMatrix sparse page with
//     label/weight/base margin, and its binary (optionally zstd) format
//   - metrics: regression, classification and ranking metrics plus the
//     name-based Evaluate registry
//   - booster: coordinate-descent linear booster, objectives and callbacks
//   - cv: k-fold and stratified cross-validation with early stopping
//   - core/parallel: chunked parallel loops
//   - pkg/errors, pkg/log: error types on cockroachdb/errors and structured
//     logging on zerolog
//
// # Quick Start
//
//	tbl, err := frame.FromRecords([][]any{
//	    {1, 2.0, true},
//	    {2, 3.0, false},
//	    {3, nil, true},
//	}, "a", "b", "c")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d, err := dmatrix.New(tbl, dmatrix.WithLabel([]float64{0, 1, 1}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(d.FeatureNames(), d.FeatureTypes()) // [a b c] [int float i]
//
//	res, err := cv.CV(map[string]any{"objective": "binary:logistic"}, d, 10,
//	    cv.WithNFold(3), cv.WithMetrics("auc"))
//
// # Missing values
//
// NaN, nullable nulls, categorical -1 codes and the configured missing value
// are never stored in a DMatrix. Boosters skip them, so a sparse table and
// its dense conversion give identical predictions.
//
// # Command line
//
// cmd/dmatrix wraps conversion, inspection and cross-validation; see its
// package documentation.
package dmatrix
