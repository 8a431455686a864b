package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"

	"github.com/benz9527/rbzip/lib/infra"
)

type ExporterType uint8

const (
	NoopExporter ExporterType = iota
	ConsoleExporter
	PrometheusExporter
	_exporterMax
)

func (typ ExporterType) String() string {
	switch typ {
	case ConsoleExporter:
		return "console"
	case PrometheusExporter:
		return "prometheus"
	default:
	}
	return "noop"
}

func ExporterTypeOf(name string) (ExporterType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "noop", "none":
		return NoopExporter, nil
	case "console", "stdout":
		return ConsoleExporter, nil
	case "prometheus", "prom":
		return PrometheusExporter, nil
	default:
	}
	return _exporterMax, infra.NewErrorStack("unknown metrics exporter " + name)
}

// ShutdownFunc flushes the pending metrics and stops the meter provider.
type ShutdownFunc func(ctx context.Context) error

type ExporterConfig struct {
	Type     ExporterType
	Interval time.Duration
	Timeout  time.Duration
	// Writer is the console exporter output, stdout if nil.
	Writer io.Writer
}

// NewMetricsExporter installs the global meter provider read by
// InitAppStats and the bench stats.
func NewMetricsExporter(cfg ExporterConfig) (ShutdownFunc, error) {
	switch cfg.Type {
	case NoopExporter:
		return func(context.Context) error { return nil }, nil
	case ConsoleExporter:
		opts := make([]stdoutmetric.Option, 0, 1)
		if cfg.Writer != nil {
			opts = append(opts, stdoutmetric.WithWriter(cfg.Writer))
		}
		return newConsoleMetricsExporter(cfg.Interval, cfg.Timeout, opts...)
	case PrometheusExporter:
		return newPrometheusMetricsExporter()
	default:
	}
	return nil, infra.NewErrorStack("unknown metrics exporter " + cfg.Type.String())
}

// Serves for test/dev environment.
func newConsoleMetricsExporter(interval, timeout time.Duration, opts ...stdoutmetric.Option) (ShutdownFunc, error) {
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "stdout metrics exporter")
	}
	readerOpts := make([]metric.PeriodicReaderOption, 0, 2)
	if interval > 0 {
		readerOpts = append(readerOpts, metric.WithInterval(interval))
	}
	if timeout > 0 {
		readerOpts = append(readerOpts, metric.WithTimeout(timeout))
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(exporter, readerOpts...)))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// Serves for the product environment and fetch stats metrics by HTTP.
func newPrometheusMetricsExporter() (ShutdownFunc, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "prometheus metrics exporter")
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}
