package config

import (
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/YuminosukeSato/dmatrix/dmatrix"
	"github.com/YuminosukeSato/dmatrix/frame"
	"github.com/YuminosukeSato/dmatrix/pkg/errors"
	"github.com/YuminosukeSato/dmatrix/pkg/log"
)

// DataConfig describes where a training matrix comes from. Paths ending in
// .csv are read as tables; anything else as a saved binary matrix.
type DataConfig struct {
	Path              string   `yaml:"path"`
	Label             string   `yaml:"label"`
	Weight            string   `yaml:"weight"`
	Categorical       []string `yaml:"categorical"`
	EnableCategorical bool     `yaml:"enable_categorical"`
	Missing           *float64 `yaml:"missing"`
	Comma             string   `yaml:"comma"`
	NullValues        []string `yaml:"null_values"`
}

// IsCSV reports whether Path names a CSV file.
func (d DataConfig) IsCSV() bool {
	return strings.HasSuffix(strings.ToLower(d.Path), ".csv")
}

// Validate checks the CSV options.
func (d DataConfig) Validate() error {
	if d.Comma != "" && utf8.RuneCountInString(d.Comma) != 1 {
		return errors.NewValidationError("data.comma", "must be a single character", d.Comma)
	}
	if d.Label != "" && d.Label == d.Weight {
		return errors.NewValidationError("data.weight", "must differ from data.label", d.Weight)
	}
	return nil
}

// Load builds the matrix described by the config.
func (d DataConfig) Load() (*dmatrix.DMatrix, error) {
	if d.Path == "" {
		return nil, errors.NewValidationError("data.path", "is required", d.Path)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if !d.IsCSV() {
		return dmatrix.LoadBinary(d.Path)
	}

	f, err := os.Open(d.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", d.Path)
	}
	defer f.Close()

	var csvOpts []frame.CSVOption
	if d.Comma != "" {
		r, _ := utf8.DecodeRuneInString(d.Comma)
		csvOpts = append(csvOpts, frame.WithComma(r))
	}
	if d.NullValues != nil {
		csvOpts = append(csvOpts, frame.WithNullValues(d.NullValues...))
	}
	if len(d.Categorical) > 0 {
		csvOpts = append(csvOpts, frame.WithCategorical(d.Categorical...))
	}
	tbl, err := frame.ReadCSV(f, csvOpts...)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", d.Path)
	}

	missing := math.NaN()
	if d.Missing != nil {
		missing = *d.Missing
	}
	opts := []dmatrix.Option{
		dmatrix.WithMissing(missing),
		dmatrix.WithEnableCategorical(d.EnableCategorical || len(d.Categorical) > 0),
	}
	for _, meta := range []struct {
		name string
		with func(any) dmatrix.Option
	}{{d.Label, dmatrix.WithLabel}, {d.Weight, dmatrix.WithWeight}} {
		if meta.name == "" {
			continue
		}
		col, ok := tbl.Column(meta.name)
		if !ok {
			return nil, errors.NewValueErrorf("DataConfig.Load", "column %q not found in %s", meta.name, d.Path)
		}
		opts = append(opts, meta.with(col))
		tbl = tbl.Drop(meta.name)
	}

	log.GetLoggerWithName("config").Debug("table read",
		log.PathKey, d.Path,
		log.RowsKey, tbl.NumRows(),
		log.ColumnsKey, tbl.NumCols(),
	)
	return dmatrix.New(tbl, opts...)
}
