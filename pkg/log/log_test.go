package log

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/dmatrix/pkg/errors"
)

func TestTestLogger(t *testing.T) {
	logger, buffer := NewTestLogger(LevelDebug)

	logger.Debug("debug message", "key1", "value1", "number", 42)
	logger.Info("info message", OperationKey, OperationTransform)
	logger.Warn("warning message")
	logger.Error("error message", fmt.Errorf("boom"), ColumnKey, "c")

	require.NotEmpty(t, buffer.String())
	assert.True(t, logger.ContainsMessage("debug message"))
	assert.True(t, logger.ContainsMessage("error message"))
	assert.True(t, logger.ContainsField("key1", "value1"))
	assert.True(t, logger.ContainsField("number", 42.0))
	assert.True(t, logger.ContainsField(ErrorKey, "boom"))
	assert.True(t, logger.ContainsField(ColumnKey, "c"))

	entries, err := logger.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 4)
	assert.Equal(t, "ERROR", entries[3]["level"])
}

func TestTestLoggerLevelFilter(t *testing.T) {
	logger, _ := NewTestLogger(LevelWarn)
	logger.Info("dropped")
	logger.Warn("kept")

	assert.False(t, logger.ContainsMessage("dropped"))
	assert.True(t, logger.ContainsMessage("kept"))
	assert.False(t, logger.Enabled(context.Background(), LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), LevelError))
}

func TestTestLoggerWith(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)
	child := logger.With(ComponentKey, "cv", NFoldKey, 5)
	child.Info("fold done", FoldKey, 2)

	assert.True(t, logger.ContainsField(ComponentKey, "cv"))
	assert.True(t, logger.ContainsField(NFoldKey, 5.0))
	assert.True(t, logger.ContainsField(FoldKey, 2.0))

	provider, _ := NewTestLoggerProvider(LevelInfo)
	provider.GetLoggerWithName("frame").Info("named")
	assert.True(t, provider.GetLogger().(*TestLogger).ContainsField(ComponentKey, "frame"))
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelInfo)

	logger.Debug("hidden")
	logger.With(ComponentKey, "dmatrix").Info("converted", RowsKey, 2, ColumnsKey, 3)
	logger.Error("failed", errors.NewValueError("TransformTable", "bad dtype"), ColumnKey, "c")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"component":"dmatrix"`)
	assert.Contains(t, out, `"data.rows":2`)
	assert.Contains(t, out, `"error":"dmatrix: TransformTable: bad dtype"`)
	assert.Contains(t, out, `"data.column":"c"`)
	assert.Equal(t, 2, strings.Count(out, "\n"))

	assert.False(t, logger.Enabled(context.Background(), LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), LevelWarn))
}

func TestZerologLoggerDropsDanglingKey(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug)
	logger.Info("odd", "a", 1, "dangling")
	assert.Contains(t, buf.String(), `"a":1`)
	assert.NotContains(t, buf.String(), "dangling")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("verbose")
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestSetLogger(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)
	prev := SetLogger(logger)
	defer SetLogger(prev)

	GetLogger().Info("through global")
	assert.True(t, logger.ContainsMessage("through global"))
}
