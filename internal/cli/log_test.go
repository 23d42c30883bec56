package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerFiltersByLevel(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		emit  func(*log.Logger)
		want  bool
	}{
		{"info passes at info", log.InfoLevel, func(l *log.Logger) { l.Info("resolving") }, true},
		{"debug dropped at info", log.InfoLevel, func(l *log.Logger) { l.Debug("resolving") }, false},
		{"debug passes at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("resolving") }, true},
		{"warn passes at info", log.InfoLevel, func(l *log.Logger) { l.Warn("resolving") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("wrote output = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgressReportsDuration(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))

	time.Sleep(10 * time.Millisecond)
	prog.done("resolved 3 templates")

	out := buf.String()
	if !strings.Contains(out, "resolved 3 templates") {
		t.Errorf("output %q missing message", out)
	}
	if !strings.Contains(out, "ms") && !strings.Contains(out, "s)") {
		t.Errorf("output %q missing duration", out)
	}
}

func TestLoggerContextRoundTrip(t *testing.T) {
	logger := newLogger(&bytes.Buffer{}, log.DebugLevel)
	ctx := withLogger(context.Background(), logger)

	if got := loggerFromContext(ctx); got != logger {
		t.Error("loggerFromContext should return the attached logger")
	}
	if loggerFromContext(context.Background()) == nil {
		t.Error("loggerFromContext without attachment should fall back to default")
	}
}
