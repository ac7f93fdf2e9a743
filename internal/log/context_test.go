package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		Component: component,
	})
}

func TestStructuredLoggerWritesComponentOnce(t *testing.T) {
	ctx := context.Background()
	req := httptest.NewRequest("GET", "/api/expenses?sort=amount", nil)

	tests := []struct {
		name string
		emit func(sl *StructuredLogger)
		want string
	}{
		{
			name: "transaction created",
			emit: func(sl *StructuredLogger) {
				sl.LogTransactionCreated(ctx, "u1", "expense", "t1", 1250, "Gas")
			},
			want: "component=" + ComponentTransaction,
		},
		{
			name: "http end",
			emit: func(sl *StructuredLogger) { sl.LogHTTPEnd(ctx, req, 200, 3) },
			want: "component=" + ComponentHTTP,
		},
		{
			name: "error",
			emit: func(sl *StructuredLogger) {
				fields := NewFields().WithComponent("stale")
				sl.LogError(ctx, "Export failed", errors.New("boom"), ComponentSheets, OpExport, fields)
			},
			want: "component=" + ComponentSheets,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(NewStructuredLogger(bufferLogger(&buf, "app")))
			out := buf.String()
			require.NotEmpty(t, out)
			assert.Equal(t, 1, strings.Count(out, "component="), out)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := bufferLogger(&buf, ComponentHTTP)
	got := FromContext(NewContext(context.Background(), logger))
	assert.Same(t, logger, got)

	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}
