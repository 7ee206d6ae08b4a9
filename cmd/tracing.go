package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/trafficsim/trafficsim"

// initTracing installs a tracer provider that writes spans as JSON to path.
// An empty path installs a no-op provider. The returned function flushes
// spans and closes the file.
func initTracing(ctx context.Context, path string) (func(context.Context) error, error) {
	if path == "" {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating trace file: %w", err)
	}
	tp, err := newFileTracerProvider(ctx, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	otel.SetTracerProvider(tp)
	logrus.Infof("otel tracing enabled, spans written to %s", path)

	return func(ctx context.Context) error {
		shutdownErr := tp.Shutdown(ctx)
		if err := f.Close(); err != nil && shutdownErr == nil {
			return err
		}
		return shutdownErr
	}, nil
}

func newFileTracerProvider(ctx context.Context, w io.Writer) (*sdktrace.TracerProvider, error) {
	exp, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
		stdouttrace.WithoutTimestamps(),
	)
	if err != nil {
		return nil, fmt.Errorf("create stdout trace exporter: %w", err)
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", "trafficsim"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exp),
		sdktrace.WithResource(res),
	), nil
}

// shutdownWithTimeout flushes tracing with a bounded timeout, logging failures.
func shutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error) {
	if shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logrus.Warnf("tracing shutdown failed: %v", err)
	}
}
