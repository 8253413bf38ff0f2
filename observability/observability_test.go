package observability

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tmikov/c99/diag"
)

func TestObserveFile(t *testing.T) {
	m := NewMetrics()
	ds := []diag.Diagnostic{
		{Kind: diag.Redefinition, Severity: diag.Error},
		{Kind: diag.Redefinition, Severity: diag.Error},
		{Kind: diag.ImplicitInt, Severity: diag.Warning},
	}
	m.ObserveFile(4, ds, 10*time.Millisecond)
	m.ObserveFile(1, nil, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FilesTotal))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.DeclarationsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DiagnosticsTotal.WithLabelValues("redefinition", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DiagnosticsTotal.WithLabelValues("implicit-int", "warning")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ParseDuration))

	// A second run starts from zero.
	assert.Equal(t, 0.0, testutil.ToFloat64(NewMetrics().FilesTotal))
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.ObserveFile(3, nil, time.Millisecond)
	path := filepath.Join(t.TempDir(), "c99.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "c99_files_total 1")
	assert.Contains(t, string(data), "c99_declarations_total 3")
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "", false, "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestFileSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	saved := Tracer
	Tracer = tp.Tracer(instrumentation)
	defer func() { Tracer = saved }()

	_, span := StartFile(context.Background(), "a.c")
	EndFile(span, 2, 1, 0, nil)
	_, span = StartFile(context.Background(), "b.c")
	EndFile(span, 0, 0, 0, errors.New("unreadable"))
	_, span = StartFile(context.Background(), "c.c")
	EndFile(span, 1, 0, 3, nil)

	ended := sr.Ended()
	require.Len(t, ended, 3)
	assert.Equal(t, "parse.File", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("c99.file", "a.c"))
	assert.Contains(t, ended[0].Attributes(), attribute.Int("c99.declarations", 2))
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "unreadable", ended[1].Status().Description)
	assert.Equal(t, codes.Unset, ended[2].Status().Code)
}
