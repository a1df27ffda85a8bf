package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nginly/nginx-analyze-ci/pkg/observability"
)

func TestRegisterDebugHooks(t *testing.T) {
	var buf bytes.Buffer
	registerDebugHooks(newLogger(&buf, log.DebugLevel))
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	observability.Pipeline().OnDiscoverComplete(ctx, "/etc/nginx", 3, 2, time.Millisecond, nil)
	observability.Pipeline().OnBatchComplete(ctx, 0, 2, time.Millisecond, errors.New("boom"))
	observability.Cache().OnCacheHit(ctx, "file")
	observability.HTTP().OnResponse(ctx, "POST", "example.com", "/analyze", 200, time.Millisecond)

	got := buf.String()
	for _, want := range []string{"discovery finished", "trees=2", "batch failed", "error=boom", "cache hit", "backend=file", "http response", "status=200"} {
		if !strings.Contains(got, want) {
			t.Errorf("log missing %q:\n%s", want, got)
		}
	}
}

func TestDebugHooksSilentAtInfo(t *testing.T) {
	var buf bytes.Buffer
	registerDebugHooks(newLogger(&buf, log.InfoLevel))
	t.Cleanup(observability.Reset)

	observability.Cache().OnCacheMiss(context.Background(), "redis")
	if buf.Len() != 0 {
		t.Errorf("debug hooks logged at info level: %q", buf.String())
	}
}
