// Standard attribute keys for conversion, training and cross-validation logs.
//
// Keys follow a hierarchical naming convention ("data.rows", "cv.fold") so
// that log lines can be filtered by prefix.

package log

// Operation context.
const (
	// ComponentKey identifies the package emitting the record.
	// Examples: "dmatrix", "booster", "cv", "frame"
	ComponentKey = "component"

	// OperationKey names the operation being performed.
	// Examples: "transform", "train", "cv", "save_binary"
	OperationKey = "op"
)

// Data shape.
const (
	RowsKey       = "data.rows"
	ColumnsKey    = "data.columns"
	NonMissingKey = "data.non_missing"
	SparseKey     = "data.sparse"
	DTypeKey      = "data.dtype"
	ColumnKey     = "data.column"
	MetaKey       = "data.meta"
	PathKey       = "data.path"
	BytesKey      = "data.bytes"
)

// Training and evaluation.
const (
	ObjectiveKey     = "train.objective"
	RoundsKey        = "train.rounds"
	IterationKey     = "train.iteration"
	BestIterationKey = "train.best_iteration"
	MetricKey        = "metric.name"
	ScoreKey         = "metric.score"
	EvalKey          = "metric.eval"
)

// Cross-validation.
const (
	FoldKey  = "cv.fold"
	NFoldKey = "cv.nfold"
)

// Errors.
const (
	ErrorKey      = "error"
	StacktraceKey = "stacktrace"
)

// Standard operation values.
const (
	OperationTransform  = "transform"
	OperationExtract    = "extract_meta"
	OperationTrain      = "train"
	OperationCV         = "cv"
	OperationSaveBinary = "save_binary"
	OperationLoadBinary = "load_binary"
)
