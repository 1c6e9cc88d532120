package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok, s)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestContextLogger checks that loggers travel through contexts with their fields.
func TestContextLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWithWriter(&buf, zapcore.DebugLevel)

	ctx := ToContext(context.Background(), l)
	ctx = WithName(ctx, "esc")
	ctx = WithKV(ctx, "policy", "ranged")
	InfoKV(ctx, "mode change", "to", "armed")

	out := buf.String()
	require.Contains(t, out, "esc")
	require.Contains(t, out, "mode change")
	require.Contains(t, out, "policy")
	require.Contains(t, out, "armed")
}

// TestFromContextFallsBack returns the global logger for bare contexts.
func TestFromContextFallsBack(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}

// TestLevelFiltering drops messages below the configured level.
func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWithWriter(&buf, zapcore.WarnLevel)
	ctx := ToContext(context.Background(), l)

	Infof(ctx, "hidden %d", 1)
	require.Empty(t, buf.String())

	Warnf(ctx, "shown %d", 2)
	require.Contains(t, buf.String(), "shown 2")
}
