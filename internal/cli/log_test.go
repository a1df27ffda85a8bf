package cli

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		log   func(*log.Logger)
		want  string
	}{
		{
			name:  "discovery summary at info",
			level: log.InfoLevel,
			log:   func(l *log.Logger) { l.Info("discovered configuration", "files", 3, "trees", 2) },
			want:  "discovered configuration files=3 trees=2",
		},
		{
			name:  "batch plan hidden at info",
			level: log.InfoLevel,
			log:   func(l *log.Logger) { l.Debug("planned batches", "batches", 1) },
		},
		{
			name:  "batch plan shown with verbose",
			level: log.DebugLevel,
			log:   func(l *log.Logger) { l.Debug("planned batches", "batches", 1) },
			want:  "planned batches batches=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(newLogger(&buf, tt.level))

			if tt.want == "" {
				if buf.Len() != 0 {
					t.Errorf("unexpected output %q", buf.String())
				}
				return
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q missing %q", buf.String(), tt.want)
			}
		})
	}
}

func TestNewLoggerTimestamp(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, log.InfoLevel).Info("sending batches")

	if !regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `).MatchString(buf.String()) {
		t.Errorf("output %q should start with an HH:MM:SS.ms timestamp", buf.String())
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.done("Analysis finished")

	if !regexp.MustCompile(`Analysis finished \(\d+(\.\d+)?(ns|µs|ms|s)\)`).MatchString(buf.String()) {
		t.Errorf("progress output %q should report elapsed time", buf.String())
	}
}

func TestLoggerContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("a context without a logger should yield log.Default()")
	}

	var buf bytes.Buffer
	l := newLogger(&buf, log.DebugLevel)
	got := loggerFromContext(withLogger(context.Background(), l))
	if got != l {
		t.Fatal("loggerFromContext should return the attached logger")
	}
	got.Debug("discovery started", "dir", "/etc/nginx")
	if !strings.Contains(buf.String(), "dir=/etc/nginx") {
		t.Errorf("attached logger wrote %q", buf.String())
	}
}
