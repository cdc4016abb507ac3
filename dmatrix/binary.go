package dmatrix

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/YuminosukeSato/dmatrix/pkg/errors"
	"github.com/YuminosukeSato/dmatrix/pkg/log"
)

// Binary layout, all integers little endian:
//
//	magic "DMTX" | version uint32 | header length uint32 | JSON header
//	indptr []uint64 (num_row+1) | indices []uint32 | values []float32
//	label []float32 | weight []float32 | base_margin []float32
const (
	binaryMagic   = "DMTX"
	binaryVersion = uint32(1)
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

type binaryHeader struct {
	NumRow         uint64   `json:"num_row"`
	NumCol         uint64   `json:"num_col"`
	NumNonMissing  uint64   `json:"num_nonmissing"`
	FeatureNames   []string `json:"feature_names,omitempty"`
	FeatureTypes   []string `json:"feature_types,omitempty"`
	LabelLen       uint64   `json:"label_len"`
	WeightLen      uint64   `json:"weight_len"`
	BaseMarginLen  uint64   `json:"base_margin_len"`
	BaseMarginCols uint64   `json:"base_margin_cols"`
	// Missing is the sentinel in strconv form; empty means NaN.
	Missing string `json:"missing,omitempty"`
}

// maxDim bounds row, column and base margin column counts read from a header.
const maxDim = math.MaxInt32

// readChunk bounds allocations while reading arrays, so a header announcing
// more data than the stream holds fails on the read instead of on make.
const readChunk = 1 << 16

func (h *binaryHeader) validate() error {
	bad := func(format string, args ...any) error {
		return errors.Wrapf(errors.ErrInvalidFormat, format, args...)
	}
	if h.NumRow > maxDim || h.NumCol > maxDim {
		return bad("shape %dx%d out of range", h.NumRow, h.NumCol)
	}
	if h.NumNonMissing > 0 {
		// ceil(nnz / cols) > rows, without multiplying
		if h.NumCol == 0 || (h.NumNonMissing-1)/h.NumCol >= h.NumRow {
			return bad("%d stored entries do not fit %dx%d cells", h.NumNonMissing, h.NumRow, h.NumCol)
		}
	}
	if h.LabelLen != 0 && h.LabelLen != h.NumRow {
		return bad("label length %d, expected %d", h.LabelLen, h.NumRow)
	}
	if h.WeightLen != 0 && h.WeightLen != h.NumRow {
		return bad("weight length %d, expected %d", h.WeightLen, h.NumRow)
	}
	if h.BaseMarginLen != 0 {
		k := h.BaseMarginCols
		if k == 0 || k > maxDim || h.BaseMarginLen%k != 0 || h.BaseMarginLen/k != h.NumRow {
			return bad("base margin length %d does not match %d rows of %d columns", h.BaseMarginLen, h.NumRow, k)
		}
	}
	return nil
}

func (h *binaryHeader) missing() (float64, error) {
	if h.Missing == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(h.Missing, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInvalidFormat, "missing value %q", h.Missing)
	}
	return v, nil
}

// readArray reads n little endian values of T in bounded chunks.
func readArray[T uint32 | uint64 | float32](r io.Reader, n uint64) ([]T, error) {
	out := make([]T, 0, min(n, readChunk))
	buf := make([]T, min(n, readChunk))
	for rem := n; rem > 0; {
		k := min(rem, readChunk)
		if err := binary.Read(r, binary.LittleEndian, buf[:k]); err != nil {
			return nil, err
		}
		out = append(out, buf[:k]...)
		rem -= k
	}
	return out, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// WriteTo serializes the matrix. Identical matrices always produce identical
// bytes.
func (d *DMatrix) WriteTo(w io.Writer) (int64, error) {
	hdr := binaryHeader{
		NumRow:         uint64(d.nrow),
		NumCol:         uint64(d.ncol),
		NumNonMissing:  uint64(len(d.values)),
		FeatureNames:   d.featureNames,
		FeatureTypes:   Strings(d.featureTypes),
		LabelLen:       uint64(len(d.label)),
		WeightLen:      uint64(len(d.weight)),
		BaseMarginLen:  uint64(len(d.baseMargin)),
		BaseMarginCols: uint64(d.baseMarginCols),
	}
	if !math.IsNaN(d.missing) {
		hdr.Missing = strconv.FormatFloat(d.missing, 'g', -1, 64)
	}
	hdrBytes, err := json.Marshal(hdr)
	if err != nil {
		return 0, errors.Wrap(err, "encode header")
	}

	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)
	indptr := make([]uint64, len(d.indptr))
	for i, p := range d.indptr {
		indptr[i] = uint64(p)
	}
	parts := []any{
		[]byte(binaryMagic),
		binaryVersion,
		uint32(len(hdrBytes)),
		hdrBytes,
		indptr,
		d.indices,
		d.values,
		d.label,
		d.weight,
		d.baseMargin,
	}
	for _, p := range parts {
		if err := binary.Write(bw, binary.LittleEndian, p); err != nil {
			return cw.n, errors.Wrap(err, "write dmatrix")
		}
	}
	if err := bw.Flush(); err != nil {
		return cw.n, errors.Wrap(err, "write dmatrix")
	}
	return cw.n, nil
}

// ReadFrom replaces the matrix with one decoded from r. zstd compressed input
// is detected and decompressed.
func (d *DMatrix) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingReader{r: r}
	br := bufio.NewReader(cr)
	if head, err := br.Peek(len(zstdMagic)); err == nil && bytes.Equal(head, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return cr.n, errors.Wrap(err, "open zstd stream")
		}
		defer dec.Close()
		return cr.n, d.decode(bufio.NewReader(dec))
	}
	return cr.n, d.decode(br)
}

func (d *DMatrix) decode(r io.Reader) error {
	magic := make([]byte, len(binaryMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return errors.Wrap(errors.ErrInvalidFormat, "read magic")
	}
	if string(magic) != binaryMagic {
		return errors.Wrapf(errors.ErrInvalidFormat, "bad magic %q", magic)
	}
	var version, hdrLen uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return errors.Wrap(errors.ErrInvalidFormat, "read version")
	}
	if version != binaryVersion {
		return errors.Wrapf(errors.ErrInvalidFormat, "unsupported version %d", version)
	}
	if err := binary.Read(r, binary.LittleEndian, &hdrLen); err != nil {
		return errors.Wrap(errors.ErrInvalidFormat, "read header length")
	}
	hdrBytes, err := io.ReadAll(io.LimitReader(r, int64(hdrLen)))
	if err != nil || len(hdrBytes) != int(hdrLen) {
		return errors.Wrap(errors.ErrInvalidFormat, "read header")
	}
	var hdr binaryHeader
	if err := json.Unmarshal(hdrBytes, &hdr); err != nil {
		return errors.Wrapf(errors.ErrInvalidFormat, "decode header: %v", err)
	}
	if err := hdr.validate(); err != nil {
		return err
	}
	missing, err := hdr.missing()
	if err != nil {
		return err
	}

	truncated := errors.Wrap(errors.ErrInvalidFormat, "truncated data")
	indptr, err := readArray[uint64](r, hdr.NumRow+1)
	if err != nil {
		return truncated
	}
	out := &DMatrix{nrow: int(hdr.NumRow), ncol: int(hdr.NumCol), missing: missing}
	if out.indices, err = readArray[uint32](r, hdr.NumNonMissing); err != nil {
		return truncated
	}
	if out.values, err = readArray[float32](r, hdr.NumNonMissing); err != nil {
		return truncated
	}
	label, err := readArray[float32](r, hdr.LabelLen)
	if err != nil {
		return truncated
	}
	weight, err := readArray[float32](r, hdr.WeightLen)
	if err != nil {
		return truncated
	}
	margin, err := readArray[float32](r, hdr.BaseMarginLen)
	if err != nil {
		return truncated
	}

	if indptr[0] != 0 || indptr[len(indptr)-1] != hdr.NumNonMissing {
		return errors.Wrap(errors.ErrInvalidFormat, "corrupt row pointer")
	}
	out.indptr = make([]int, len(indptr))
	for i, p := range indptr {
		if i > 0 && p < indptr[i-1] {
			return errors.Wrap(errors.ErrInvalidFormat, "corrupt row pointer")
		}
		out.indptr[i] = int(p)
	}
	for _, j := range out.indices {
		if uint64(j) >= hdr.NumCol {
			return errors.Wrap(errors.ErrInvalidFormat, "column index out of range")
		}
	}
	if hdr.LabelLen > 0 {
		out.label = label
	}
	if hdr.WeightLen > 0 {
		out.weight = weight
	}
	if hdr.BaseMarginLen > 0 {
		out.baseMargin, out.baseMarginCols = margin, int(hdr.BaseMarginCols)
	}
	if err := out.SetFeatureNames(hdr.FeatureNames); err != nil {
		return err
	}
	types, err := ParseFeatureTypes(hdr.FeatureTypes)
	if err != nil {
		return err
	}
	if err := out.SetFeatureTypes(types); err != nil {
		return err
	}
	*d = *out
	return nil
}

// SaveBinary writes the matrix to path. A ".zst" suffix compresses the file
// with zstd.
func (d *DMatrix) SaveBinary(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()

	var w io.Writer = f
	var enc *zstd.Encoder
	if strings.HasSuffix(path, ".zst") {
		if enc, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault)); err != nil {
			return errors.Wrap(err, "open zstd writer")
		}
		w = enc
	}
	n, err := d.WriteTo(w)
	if err != nil {
		return err
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return errors.Wrap(err, "flush zstd writer")
		}
	}

	log.GetLoggerWithName("dmatrix").Debug("dmatrix saved",
		log.OperationKey, log.OperationSaveBinary,
		log.PathKey, path,
		log.BytesKey, n,
		log.RowsKey, d.nrow,
		log.ColumnsKey, d.ncol,
	)
	return nil
}

// LoadBinary reads a matrix written by SaveBinary.
func LoadBinary(path string) (*DMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	d := &DMatrix{}
	n, err := d.ReadFrom(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	log.GetLoggerWithName("dmatrix").Debug("dmatrix loaded",
		log.OperationKey, log.OperationLoadBinary,
		log.PathKey, path,
		log.BytesKey, n,
		log.RowsKey, d.nrow,
		log.ColumnsKey, d.ncol,
	)
	return d, nil
}
