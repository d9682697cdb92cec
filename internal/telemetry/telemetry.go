// Package telemetry sets up structured logging, tracing and metrics for Storeadmin.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// ServiceName identifies Storeadmin in traces and metrics.
const ServiceName = "storeadmin"

// LogOpts configures NewLogger.
type LogOpts struct {
	Level string    // debug, info, warn, error; defaults to info
	File  string    // rotate into this file when set
	Out   io.Writer // used when File is empty; defaults to os.Stderr
}

// NewLogger builds a JSON slog.Logger. When opts.File is set the output is
// rotated with lumberjack; the returned closer releases the file.
func NewLogger(opts LogOpts) (*slog.Logger, io.Closer, error) {
	var w io.Writer = opts.Out
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("telemetry: create log dir: %w", err)
		}
		lj := rotatingFile(opts.File)
		w, closer = lj, lj
	}
	if w == nil {
		w = os.Stderr
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
	})
	return slog.New(handler), closer, nil
}

// ParseLevel maps a config level name to a slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Providers holds the tracer and meter handed to the controllers.
type Providers struct {
	Tracer   trace.Tracer
	Meter    metric.Meter
	Shutdown func(context.Context) error
}

// Init installs OpenTelemetry providers. With an empty dir the global no-op
// providers are used; otherwise traces and metrics are exported as JSON to
// rotated files under dir.
func Init(ctx context.Context, dir string) (*Providers, error) {
	if dir == "" {
		return &Providers{
			Tracer:   otel.Tracer(ServiceName),
			Meter:    otel.Meter(ServiceName),
			Shutdown: func(context.Context) error { return nil },
		}, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("telemetry: create dir: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}

	traceFile := rotatingFile(filepath.Join(dir, "traces.log"))
	traceExporter, err := stdouttrace.New(stdouttrace.WithWriter(traceFile))
	if err != nil {
		return nil, fmt.Errorf("telemetry: trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)

	metricsFile := rotatingFile(filepath.Join(dir, "metrics.log"))
	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(metricsFile))
	if err != nil {
		return nil, fmt.Errorf("telemetry: metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
			sdkmetric.WithInterval(30*time.Second))),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	shutdown := func(ctx context.Context) error {
		var firstErr error
		for _, fn := range []func(context.Context) error{tp.Shutdown, mp.Shutdown} {
			if err := fn(ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		traceFile.Close()
		metricsFile.Close()
		return firstErr
	}

	return &Providers{
		Tracer:   tp.Tracer(ServiceName),
		Meter:    mp.Meter(ServiceName),
		Shutdown: shutdown,
	}, nil
}

func rotatingFile(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
