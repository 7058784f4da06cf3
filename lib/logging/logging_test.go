package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestSetLevel(t *testing.T) {
	New("test-set")
	SetLevel("test-set", zapcore.DebugLevel)
	if got := GetLevel("test-set"); got != zapcore.DebugLevel {
		t.Errorf("got %v, want %v", got, zapcore.DebugLevel)
	}
}

func TestSetDefaultLevel(t *testing.T) {
	New("test-default")
	SetDefaultLevel(zapcore.WarnLevel)
	t.Cleanup(func() { SetDefaultLevel(zapcore.InfoLevel) })

	if got := GetLevel("test-default"); got != zapcore.WarnLevel {
		t.Errorf("existing: got %v, want %v", got, zapcore.WarnLevel)
	}
	if got := GetLevel("test-default-later"); got != zapcore.WarnLevel {
		t.Errorf("new: got %v, want %v", got, zapcore.WarnLevel)
	}
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("warn")
	if err != nil {
		t.Fatal(err)
	}
	if l != zapcore.WarnLevel {
		t.Errorf("got %v, want %v", l, zapcore.WarnLevel)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
