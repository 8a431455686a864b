package bench

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/benz9527/rbzip/lib/infra"
	"github.com/benz9527/rbzip/lib/tree"
	"github.com/benz9527/rbzip/lib/xlog"
)

// Report is the outcome of one Run.
type Report struct {
	Name          string
	Mode          BuildMode
	Order         KeyOrder
	Fed           int
	Len           int
	Duplicates    int
	Count         int
	ParallelCount int
	Workers       int
	Height        int
	BuildElapsed  time.Duration
	FoldElapsed   time.Duration
	Verified      bool
	RSS           uint64
}

func (r *Report) Fields() []zap.Field {
	return []zap.Field{
		zap.String("name", r.Name),
		zap.String("mode", r.Mode.String()),
		zap.String("order", r.Order.String()),
		zap.Int("fed", r.Fed),
		zap.Int("len", r.Len),
		zap.Int("duplicates", r.Duplicates),
		zap.Int("count", r.Count),
		zap.Int("parallelCount", r.ParallelCount),
		zap.Int("workers", r.Workers),
		zap.Int("height", r.Height),
		zap.Duration("build", r.BuildElapsed),
		zap.Duration("fold", r.FoldElapsed),
		zap.Bool("verified", r.Verified),
		zap.Uint64("rss", r.RSS),
	}
}

// Runner builds a tree from a key sequence and counts its marked values.
type Runner struct {
	opts   *Options
	logger xlog.XLogger
	stats  *benchStats
}

func NewRunner(logger xlog.XLogger, opts ...Option) (*Runner, error) {
	if logger == nil {
		return nil, infra.NewErrorStack("nil bench logger")
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return &Runner{
		opts:   o,
		logger: logger.Named("bench"),
		stats:  newBenchStats(o),
	}, nil
}

func (r *Runner) Options() *Options {
	return r.opts
}

func (r *Runner) Run(ctx context.Context) (*Report, error) {
	keys, err := r.opts.loadKeys(ctx)
	if err != nil {
		return nil, err
	}
	report := &Report{
		Name:    r.opts.name,
		Mode:    r.opts.mode,
		Order:   r.opts.order,
		Fed:     len(keys),
		Workers: r.opts.workers,
	}
	r.logger.Debug("bench keys loaded", zap.Int("fed", report.Fed))

	start := time.Now()
	snapshot, err := r.build(ctx, keys)
	if err != nil {
		return nil, err
	}
	report.BuildElapsed = time.Since(start)
	report.Len = snapshot.Len()
	report.Duplicates = report.Fed - report.Len
	report.Height = snapshot.Height()
	r.stats.RecordBuild(report.Fed, report.Duplicates, report.BuildElapsed)
	r.stats.RecordHeight(report.Height)

	start = time.Now()
	report.Count = CountMarked(snapshot)
	report.FoldElapsed = time.Since(start)
	r.stats.RecordFold(false, report.FoldElapsed)
	report.ParallelCount = report.Count

	if r.opts.workers > 1 {
		start = time.Now()
		if report.ParallelCount, err = r.parallelCount(ctx, snapshot); err != nil {
			return nil, err
		}
		r.stats.RecordFold(true, time.Since(start))
		if report.ParallelCount != report.Count {
			return nil, infra.NewErrorStack("parallel fold count differs from the sequential count")
		}
	}

	if r.opts.verify {
		if err = tree.Validate(snapshot); err != nil {
			return nil, infra.WrapErrorStackWithMessage(err, "tree validation")
		}
		report.Verified = true
	}

	if proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfoWithContext(ctx); err == nil && mem != nil {
			report.RSS = mem.RSS
		}
	}
	r.logger.Info("bench finished", report.Fields()...)
	return report, nil
}

func (r *Runner) build(ctx context.Context, keys []int) (tree.Tree[int, bool], error) {
	switch r.opts.mode {
	case Persistent:
		t := tree.Empty[int, bool]()
		for i, key := range keys {
			if i%checkEvery == 0 {
				if err := ctx.Err(); err != nil {
					return t, infra.WrapErrorStackWithMessage(err, "persistent build")
				}
			}
			t = t.Insert(key, valueOf(key))
		}
		return t, nil
	case Builder:
		b := tree.NewBuilder[int, bool](tree.WithBuilderZipperCapacity[int, bool](len(keys)))
		for i, key := range keys {
			if i%checkEvery == 0 {
				if err := ctx.Err(); err != nil {
					return b.Freeze(), infra.WrapErrorStackWithMessage(err, "builder build")
				}
			}
			b.Insert(key, valueOf(key))
		}
		return b.Freeze(), nil
	default:
	}
	return tree.Empty[int, bool](), infra.NewErrorStack("unknown build mode " + r.opts.mode.String())
}

// CountMarked folds t counting the true values.
func CountMarked(t tree.Tree[int, bool]) int {
	return tree.Fold(t, 0, countMarked)
}

func countMarked(_ int, marked bool, acc int) int {
	if marked {
		return acc + 1
	}
	return acc
}

type keyRange struct {
	lo, hi int
}

// splitRanges partitions [lo, hi) into at most n contiguous ranges.
func splitRanges(lo, hi, n int) []keyRange {
	if hi <= lo || n <= 0 {
		return nil
	}
	span := uint(hi - lo)
	if uint(n) > span {
		n = int(span)
	}
	step := span / uint(n)
	ranges := make([]keyRange, 0, n)
	for i := 0; i < n; i++ {
		from := lo + int(step*uint(i))
		to := from + int(step)
		if i == n-1 {
			to = hi
		}
		ranges = append(ranges, keyRange{lo: from, hi: to})
	}
	return ranges
}

// parallelCount folds disjoint key ranges of the frozen snapshot on an
// ants pool. Readers never synchronize on a snapshot.
func (r *Runner) parallelCount(ctx context.Context, snapshot tree.Tree[int, bool]) (int, error) {
	minKey, _, ok := snapshot.Min()
	if !ok {
		return 0, nil
	}
	maxKey, maxMarked, _ := snapshot.Max()

	pool, err := ants.NewPool(r.opts.workers,
		ants.WithLogger(xlog.NewAntsXLogger(r.logger)),
		ants.WithPanicHandler(func(v any) {
			r.logger.Error(nil, "fold worker panic", zap.Any("recover", v))
		}),
	)
	if err != nil {
		return 0, infra.WrapErrorStackWithMessage(err, "fold workers pool")
	}
	defer pool.Release()

	var (
		total atomic.Int64
		wg    sync.WaitGroup
	)
	// maxKey is excluded from the half-open ranges, so it is counted apart.
	if maxMarked {
		total.Add(1)
	}
	for _, kr := range splitRanges(minKey, maxKey, r.opts.workers) {
		if err = ctx.Err(); err != nil {
			break
		}
		kr := kr
		wg.Add(1)
		if err = pool.Submit(func() {
			defer wg.Done()
			total.Add(int64(tree.FoldRange(snapshot, kr.lo, kr.hi, 0, countMarked)))
		}); err != nil {
			wg.Done()
			break
		}
	}
	wg.Wait()
	if err != nil {
		return 0, infra.WrapErrorStackWithMessage(err, "parallel fold")
	}
	return int(total.Load()), nil
}
