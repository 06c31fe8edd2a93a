package observability

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_LogsToConfiguredWriter(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("STOREFRONT_TRACE_STDOUT", "")
	var logs bytes.Buffer

	instruments, shutdown, err := Init(context.Background(), "storefront-test",
		WithLogOutput(&logs), WithLevel(slog.LevelInfo))
	require.NoError(t, err)
	defer shutdown(context.Background())

	instruments.Logger.Info("hello", slog.String("k", "v"))
	assert.Contains(t, logs.String(), `"msg":"hello"`)
	assert.Contains(t, logs.String(), `"k":"v"`)

	instruments.Logger.Debug("hidden")
	assert.NotContains(t, logs.String(), "hidden")
}

func TestInit_StdoutExporterWritesSpans(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	var spans bytes.Buffer

	instruments, shutdown, err := Init(context.Background(), "storefront-test",
		WithLogOutput(&bytes.Buffer{}), WithTraceOutput(&spans))
	require.NoError(t, err)

	_, span := instruments.Tracer("test").Start(context.Background(), "unit-span")
	span.End()
	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, spans.String(), "unit-span")
}

func TestTransport_PropagatesTraceContext(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("Traceparent"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	instruments, shutdown, err := Init(context.Background(), "storefront-test", WithLogOutput(&bytes.Buffer{}))
	require.NoError(t, err)
	defer shutdown(context.Background())

	ctx, span := instruments.Tracer("test").Start(context.Background(), "parent")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/products", nil)
	require.NoError(t, err)
	res, err := (&http.Client{Transport: instruments.Transport(nil)}).Do(req)
	require.NoError(t, err)
	res.Body.Close()
	span.End()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
}
