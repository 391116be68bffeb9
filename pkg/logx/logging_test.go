package logx

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func render(t *testing.T, fields ...Field) string {
	t.Helper()
	var buf bytes.Buffer
	zl := zerolog.New(&buf)
	e := zl.Info()
	for _, f := range fields {
		f(e)
	}
	e.Msg("m")
	return buf.String()
}

func TestFieldHelpers(t *testing.T) {
	t.Parallel()
	out := render(t,
		String("s", "v"),
		Int("i", 7),
		Bool("b", true),
		Duration("d", 1500*time.Millisecond),
		Any("a", []string{"x"}),
		Err(errors.New("boom")),
	)
	for _, want := range []string{`"s":"v"`, `"i":7`, `"b":true`, `"a":["x"]`, "boom"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestErrNilEmitsNothing(t *testing.T) {
	t.Parallel()
	out := render(t, Err(nil))
	if strings.Contains(out, "err") {
		t.Fatalf("nil error produced a field: %q", out)
	}
}

func TestLoggerWithAccumulatesFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := Logger{base: zerolog.New(&buf), hasBase: true}

	l.With(String("comp", "sched")).Info("reconciled", Int("admitted", 3))
	out := buf.String()
	for _, want := range []string{`"comp":"sched"`, `"admitted":3`, "reconciled"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestLoggerEnabled(t *testing.T) {
	t.Parallel()
	l := Logger{base: zerolog.New(io.Discard).Level(LevelInfo), hasBase: true}
	if l.Enabled(LevelDebug) {
		t.Fatal("debug enabled on an info logger")
	}
	if !l.Enabled(LevelWarn) {
		t.Fatal("warn disabled on an info logger")
	}
	if Nop().Enabled(LevelError) {
		t.Fatal("nop logger reports enabled")
	}
}

func TestZeroLoggerIsSafe(t *testing.T) {
	t.Parallel()
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero logger not detected")
	}
	l.Info("no sink, no panic", String("k", "v"))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want zerolog.Level
	}{
		{raw: "debug", want: zerolog.DebugLevel},
		{raw: "  WARN  ", want: zerolog.WarnLevel},
		{raw: "warning", want: zerolog.WarnLevel},
		{raw: "error", want: zerolog.ErrorLevel},
		{raw: "trace", want: zerolog.TraceLevel},
		{raw: "", want: zerolog.InfoLevel},
		{raw: "verbose", want: zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.raw, zerolog.InfoLevel); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
