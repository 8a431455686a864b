package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/rbzip/lib/xlog"
	"github.com/benz9527/rbzip/observability"
)

func TestParseFlags(t *testing.T) {
	cfg, err := parseFlags([]string{
		"-n", "100",
		"--order", "shuffled",
		"--mode", "persistent",
		"-w", "4",
		"--verify",
		"--metrics", "console",
		"--log-level", "warn",
		"--log-encoder", "text",
		"--timeout", "3s",
	})
	require.NoError(t, err)
	require.Equal(t, xlog.LogLevelWarn, cfg.logLevel)
	require.Equal(t, xlog.PlainText, cfg.logEncoder)
	require.Equal(t, observability.ConsoleExporter, cfg.exporter.Type)
	require.Equal(t, 3*time.Second, cfg.timeout)
	require.Len(t, cfg.benchOpts, 6)
}

func TestParseFlagsErrors(t *testing.T) {
	testcases := [][]string{
		{"--order", "zigzag"},
		{"--mode", "mutable"},
		{"--metrics", "otlp"},
		{"--log-encoder", "yaml"},
		{"--timeout", "-1s"},
		{"--unknown"},
	}
	for _, args := range testcases {
		_, err := parseFlags(args)
		require.Error(t, err, args)
	}
}

func runApp(t *testing.T, args ...string) int {
	cfg, err := parseFlags(args)
	require.NoError(t, err)
	logger := xlog.NewXLogger(xlog.WithXLoggerLevel(xlog.LogLevelError))
	app := newApp(cfg, logger)
	require.NoError(t, app.Err())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx))
	var code int
	select {
	case sig := <-app.Wait():
		code = sig.ExitCode
	case <-ctx.Done():
		t.Fatal("rbbench did not finish")
	}
	require.NoError(t, app.Stop(ctx))
	return code
}

func TestAppRun(t *testing.T) {
	require.Equal(t, 0, runApp(t, "-n", "2000", "-w", "3", "--verify", "--name", "app"))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keys.txt"), []byte("1\nx\n"), 0o600))
	require.Equal(t, 1, runApp(t, "--keys-dir", dir, "--keys-file", "keys.txt"))
}
