package bench

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	BenchStatsName = "rbzip/bench"
)

type benchStats struct {
	attrs          metric.MeasurementOption
	height         atomic.Int64
	insertedCount  metric.Int64Counter
	duplicateCount metric.Int64Counter
	buildDurations metric.Int64Histogram
	foldDurations  metric.Int64Histogram
	treeHeight     metric.Int64ObservableGauge
}

func (stats *benchStats) RecordBuild(inserted, duplicates int, elapsed time.Duration) {
	if stats == nil {
		return
	}
	ctx := context.Background()
	stats.insertedCount.Add(ctx, int64(inserted), stats.attrs)
	stats.duplicateCount.Add(ctx, int64(duplicates), stats.attrs)
	stats.buildDurations.Record(ctx, elapsed.Milliseconds(), stats.attrs)
}

func (stats *benchStats) RecordFold(parallel bool, elapsed time.Duration) {
	if stats == nil {
		return
	}
	stats.foldDurations.Record(context.Background(), elapsed.Milliseconds(),
		metric.WithAttributes(attribute.Bool("rbzip.fold.parallel", parallel)),
		stats.attrs,
	)
}

func (stats *benchStats) RecordHeight(height int) {
	if stats == nil {
		return
	}
	stats.height.Store(int64(height))
}

func newBenchStats(opts *Options) *benchStats {
	meter := otel.Meter(fmt.Sprintf("%s/%s", BenchStatsName, opts.name))
	stats := &benchStats{
		attrs: metric.WithAttributeSet(attribute.NewSet(
			attribute.String("rbzip.build.mode", opts.mode.String()),
			attribute.String("rbzip.key.order", opts.order.String()),
		)),
		insertedCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"rbzip.inserted.count",
			metric.WithDescription("The number of keys fed to the tree."),
		)),
		duplicateCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"rbzip.duplicate.count",
			metric.WithDescription("The number of fed keys already present in the tree."),
		)),
		buildDurations: lo.Must[metric.Int64Histogram](meter.Int64Histogram(
			"rbzip.build.duration",
			metric.WithDescription("The duration of building the tree. In milliseconds."),
			metric.WithUnit("ms"),
		)),
		foldDurations: lo.Must[metric.Int64Histogram](meter.Int64Histogram(
			"rbzip.fold.duration",
			metric.WithDescription("The duration of counting the marked values. In milliseconds."),
			metric.WithUnit("ms"),
		)),
	}
	stats.treeHeight = lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
		"rbzip.tree.height",
		metric.WithDescription("The node count of the longest root to leaf path of the last built tree."),
		metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
			ob.Observe(stats.height.Load())
			return nil
		}),
	))
	return stats
}
