package infra

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

var initPC = caller()

func caller() Frame {
	var PCs [3]uintptr
	n := runtime.Callers(2, PCs[:])
	frames := runtime.CallersFrames(PCs[:n])
	frame, _ := frames.Next()
	return Frame(frame.PC)
}

func TestFrameFormat(t *testing.T) {
	testcases := []struct {
		Frame
		format string
		want   func(string) bool
	}{
		{
			initPC,
			"%s",
			func(s string) bool { return s == "err_stack_test.go" },
		},
		{
			initPC,
			"%+s",
			func(s string) bool {
				return strings.HasPrefix(s, "github.com/benz9527/rbzip/lib/infra.init\n\t") &&
					strings.HasSuffix(s, "lib/infra/err_stack_test.go")
			},
		},
		{
			initPC,
			"%n",
			func(s string) bool { return s == "init" },
		},
		{
			initPC,
			"%d",
			func(s string) bool { return s == "15" },
		},
		{
			initPC,
			"%v",
			func(s string) bool { return s == "err_stack_test.go:15" },
		},
		{
			Frame(0),
			"%s",
			func(s string) bool { return s == "unknownFile" },
		},
		{
			Frame(0),
			"%n",
			func(s string) bool { return s == "unknownFunc" },
		},
		{
			Frame(0),
			"%d",
			func(s string) bool { return s == "0" },
		},
	}

	for _, tc := range testcases {
		frameRes := fmt.Sprintf(tc.format, tc.Frame)
		require.Truef(t, tc.want(frameRes), "format %q got %q", tc.format, frameRes)
	}
}

func TestFrameMarshalText(t *testing.T) {
	text, err := initPC.MarshalText()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(text), "github.com/benz9527/rbzip/lib/infra.init "))
	require.True(t, strings.HasSuffix(string(text), "err_stack_test.go:15"))

	text, err = Frame(0).MarshalText()
	require.NoError(t, err)
	require.Equal(t, "unknownFrame", string(text))
}

//go:noinline
func newTestErr() error {
	return NewErrorStack("rbtree red violation")
}

func TestErrorStack(t *testing.T) {
	err := newTestErr()
	require.EqualError(t, err, "rbtree red violation")
	var es ErrorStack
	require.True(t, errors.As(err, &es))
	require.NotEmpty(t, es.Frames())
	require.Equal(t, "newTestErr", fmt.Sprintf("%n", es.Frames()[0]))
	require.Nil(t, es.Unwrap())

	base := errors.New("base")
	wrapped := WrapErrorStackWithMessage(base, "bench")
	require.EqualError(t, wrapped, "bench: base")
	require.ErrorIs(t, wrapped, base)
	require.EqualError(t, WrapErrorStack(base), "base")

	require.NoError(t, WrapErrorStack(nil))
	require.NoError(t, WrapErrorStackWithMessage(nil, "nothing"))
}

func TestErrorStackMarshalLogObject(t *testing.T) {
	merr := multierr.Combine(errors.New("e1"), errors.New("e2"))
	err := WrapErrorStackWithMessage(merr, "validate")

	enc := zapcore.NewMapObjectEncoder()
	require.NoError(t, err.(ErrorStack).MarshalLogObject(enc))
	require.Equal(t, "validate: e1; e2", enc.Fields["error"])
	require.Equal(t, []any{"e1", "e2"}, enc.Fields["errors"])
	stack, ok := enc.Fields["errorStack"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, stack)
	require.Contains(t, stack[0], "TestErrorStackMarshalLogObject")
}
