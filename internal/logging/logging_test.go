package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{input: "", want: zapcore.InfoLevel},
		{input: LevelTerse, want: zapcore.InfoLevel},
		{input: " Verbose ", want: zapcore.DebugLevel},
		{input: LevelQuiet, want: zapcore.WarnLevel},
	}

	for _, tc := range tests {
		got, err := ParseLevel(tc.input)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("parse %q: want %s got %s", tc.input, tc.want, got)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected unknown level error")
	}
}

func TestNewBuildsLoggerAtLevel(t *testing.T) {
	t.Parallel()

	logger, err := New(LevelVerbose)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug to be enabled for verbose")
	}

	logger, err = New(LevelQuiet)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("expected info to be disabled for quiet")
	}

	if _, err := New("bogus"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
