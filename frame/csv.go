package frame

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow/csv"

	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

type csvConfig struct {
	comma       rune
	nullValues  []string
	categorical []string
}

// CSVOption configures ReadCSV.
type CSVOption func(*csvConfig)

// WithComma sets the field delimiter.
func WithComma(r rune) CSVOption {
	return func(c *csvConfig) { c.comma = r }
}

// WithNullValues replaces the tokens read as missing ("", "NA", "NaN", "null").
func WithNullValues(tokens ...string) CSVOption {
	return func(c *csvConfig) { c.nullValues = tokens }
}

// WithCategorical converts the named columns to the category dtype after reading.
func WithCategorical(columns ...string) CSVOption {
	return func(c *csvConfig) { c.categorical = append(c.categorical, columns...) }
}

// ReadCSV reads a CSV file with a header row, inferring column types with the
// Arrow CSV reader.
func ReadCSV(r io.Reader, opts ...CSVOption) (*Table, error) {
	cfg := csvConfig{comma: ',', nullValues: []string{"", "NA", "NaN", "null"}}
	for _, opt := range opts {
		opt(&cfg)
	}

	rdr := csv.NewInferringReader(r,
		csv.WithHeader(true),
		csv.WithComma(cfg.comma),
		csv.WithNullReader(true, cfg.nullValues...),
		csv.WithChunk(-1),
	)
	defer rdr.Release()

	var t *Table
	for rdr.Next() {
		rec := rdr.Record()
		if t != nil {
			return nil, errors.NewValueError("ReadCSV", "unexpected second record batch")
		}
		var err error
		if t, err = FromArrow(rec); err != nil {
			return nil, err
		}
	}
	if err := rdr.Err(); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "ReadCSV")
	}
	if t == nil {
		return nil, errors.Wrap(errors.ErrEmptyData, "ReadCSV")
	}

	for _, name := range cfg.categorical {
		col, ok := t.Column(name)
		if !ok {
			return nil, errors.NewValueErrorf("ReadCSV", "categorical column %q not found", name)
		}
		cat, err := col.Astype(Category)
		if err != nil {
			return nil, err
		}
		if t, err = t.With(cat); err != nil {
			return nil, err
		}
	}
	return t, nil
}
