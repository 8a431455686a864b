package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/rbzip/bench"
	"github.com/benz9527/rbzip/lib/infra"
	"github.com/benz9527/rbzip/lib/xlog"
	"github.com/benz9527/rbzip/observability"
)

type config struct {
	name       string
	benchOpts  []bench.Option
	exporter   observability.ExporterConfig
	logLevel   xlog.LogLevel
	logEncoder xlog.LogEncoderType
	timeout    time.Duration
}

func parseFlags(args []string) (*config, error) {
	fs := pflag.NewFlagSet("rbbench", pflag.ContinueOnError)
	var (
		size       = fs.IntP("size", "n", bench.DefaultSize, "number of keys to insert")
		order      = fs.StringP("order", "o", "descending", "key order: descending, ascending, shuffled")
		mode       = fs.StringP("mode", "m", "builder", "build mode: builder, persistent")
		keysDir    = fs.String("keys-dir", ".", "directory the keys file must resolve beneath")
		keysFile   = fs.String("keys-file", "", "file of integer keys, one per line")
		workers    = fs.IntP("workers", "w", 1, "recount the tree over this many key ranges in parallel")
		verify     = fs.Bool("verify", false, "validate the red-black invariants of the built tree")
		name       = fs.String("name", "default", "bench name used by logs and metrics")
		metrics    = fs.String("metrics", "noop", "metrics exporter: noop, console, prometheus")
		interval   = fs.Duration("metrics-interval", 10*time.Second, "console exporter interval")
		logLevel   = fs.String("log-level", os.Getenv("XLOG_LVL"), "log level: debug, info, warn, error")
		logEncoder = fs.String("log-encoder", "json", "log encoder: json, text")
		timeout    = fs.Duration("timeout", 0, "abort the bench after this duration, 0 disables")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &config{
		name:     *name,
		logLevel: xlog.LogLevelOf(*logLevel),
		timeout:  *timeout,
		exporter: observability.ExporterConfig{Interval: *interval},
	}
	var err error
	if cfg.logEncoder, err = xlog.LogEncoderTypeOf(*logEncoder); err != nil {
		return nil, err
	}
	if cfg.exporter.Type, err = observability.ExporterTypeOf(*metrics); err != nil {
		return nil, err
	}
	keyOrder, err := bench.KeyOrderOf(*order)
	if err != nil {
		return nil, err
	}
	buildMode, err := bench.BuildModeOf(*mode)
	if err != nil {
		return nil, err
	}
	cfg.benchOpts = []bench.Option{
		bench.WithName(*name),
		bench.WithSize(*size),
		bench.WithKeyOrder(keyOrder),
		bench.WithBuildMode(buildMode),
		bench.WithParallelFold(*workers),
	}
	if len(*keysFile) > 0 {
		cfg.benchOpts = append(cfg.benchOpts, bench.WithKeysFile(*keysDir, *keysFile))
	}
	if *verify {
		cfg.benchOpts = append(cfg.benchOpts, bench.WithVerify())
	}
	if cfg.timeout < 0 {
		return nil, infra.NewErrorStack("negative timeout")
	}
	return cfg, nil
}

type banner struct{}

func (banner) JSON() string {
	return `rbzip bench, zipper red-black tree`
}

func (banner) PlainText() string {
	return `
       _         _         _
  _ __| |__ ___ (_)_ __   | |__   ___ _ __   ___| |__
 | '__| '_ \_  /| | '_ \  | '_ \ / _ \ '_ \ / __| '_ \
 | |  | |_) / / | | |_) | | |_) |  __/ | | | (__| | | |
 |_|  |_.__/___||_| .__/  |_.__/ \___|_| |_|\___|_| |_|
                  |_|
`
}

func newExporter(lc fx.Lifecycle, cfg *config, logger xlog.XLogger) (observability.ShutdownFunc, error) {
	shutdown, err := observability.NewMetricsExporter(cfg.exporter)
	if err != nil {
		return nil, err
	}
	if err = observability.InitAppStats(cfg.name); err != nil {
		logger.ErrorStack(infra.WrapErrorStack(err), "runtime instrumentation")
	}
	lc.Append(fx.StopHook(func(ctx context.Context) error {
		logger.Debug("flushing metrics", zap.String("exporter", cfg.exporter.Type.String()))
		return shutdown(ctx)
	}))
	return shutdown, nil
}

func newRunner(cfg *config, logger xlog.XLogger) (*bench.Runner, error) {
	return bench.NewRunner(logger, cfg.benchOpts...)
}

func runBench(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	cfg *config,
	runner *bench.Runner,
	logger xlog.XLogger,
	_ observability.ShutdownFunc,
) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				runCtx := ctx
				if cfg.timeout > 0 {
					var timeoutCancel context.CancelFunc
					runCtx, timeoutCancel = context.WithTimeout(ctx, cfg.timeout)
					defer timeoutCancel()
				}
				code := 0
				if _, err := runner.Run(runCtx); err != nil {
					logger.ErrorStack(err, "rbbench failed")
					code = 1
				}
				if err := sd.Shutdown(fx.ExitCode(code)); err != nil {
					logger.Error(err, "rbbench shutdown")
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
			_ = logger.Sync()
			return nil
		},
	})
}

func newApp(cfg *config, logger xlog.XLogger, opts ...fx.Option) *fx.App {
	return fx.New(append([]fx.Option{
		fx.Supply(cfg),
		fx.Provide(func() xlog.XLogger { return logger }),
		fx.WithLogger(func(l xlog.XLogger) fxevent.Logger { return xlog.NewFxXLogger(l) }),
		fx.Provide(newExporter, newRunner),
		fx.Invoke(runBench),
	}, opts...)...)
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := xlog.NewXLogger(
		xlog.WithXLoggerLevel(cfg.logLevel),
		xlog.WithXLoggerEncoder(cfg.logEncoder),
		xlog.WithXLoggerWriter(xlog.StdOut),
	)
	logger.Banner(banner{})
	if _, err = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Logf(zapcore.InfoLevel, format, args...)
	})); err != nil {
		logger.Warn("GOMAXPROCS not adjusted", zap.Error(err))
	}
	newApp(cfg, logger).Run()
}
