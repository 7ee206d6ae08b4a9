package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTracerProvider_WritesSpans(t *testing.T) {
	var buf bytes.Buffer
	tp, err := newFileTracerProvider(context.Background(), &buf)
	require.NoError(t, err)

	_, span := tp.Tracer(tracerName).Start(context.Background(), "stage.run")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	out := buf.String()
	assert.True(t, strings.Contains(out, `"Name": "stage.run"`), "span missing from output: %s", out)
	assert.Contains(t, out, "trafficsim")
}

func TestInitTracing_EmptyPathIsNoop(t *testing.T) {
	shutdown, err := initTracing(context.Background(), "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_FileCreatedAndFlushed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spans.json")
	shutdown, err := initTracing(context.Background(), path)
	require.NoError(t, err)
	shutdownWithTimeout(context.Background(), shutdown)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
