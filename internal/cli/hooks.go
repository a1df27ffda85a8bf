package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nginly/nginx-analyze-ci/pkg/observability"
)

// debugHooks logs pipeline, cache and HTTP events at debug level.
type debugHooks struct {
	logger *log.Logger
}

// registerDebugHooks routes every observability event to l.
func registerDebugHooks(l *log.Logger) {
	h := debugHooks{logger: l}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h debugHooks) OnDiscoverStart(_ context.Context, dir string) {
	h.logger.Debug("discovery started", "dir", dir)
}

func (h debugHooks) OnDiscoverComplete(_ context.Context, dir string, files, trees int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("discovery failed", "dir", dir, "error", err)
		return
	}
	h.logger.Debug("discovery finished", "files", files, "trees", trees, "duration", d.Round(time.Millisecond))
}

func (h debugHooks) OnBatchStart(_ context.Context, index, total, size int) {
	h.logger.Debug("sending batch", "batch", index+1, "of", total, "bytes", size)
}

func (h debugHooks) OnBatchComplete(_ context.Context, index, total int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("batch failed", "batch", index+1, "of", total, "error", err)
		return
	}
	h.logger.Debug("batch done", "batch", index+1, "of", total, "duration", d.Round(time.Millisecond))
}

func (h debugHooks) OnCacheHit(_ context.Context, backend string) {
	h.logger.Debug("cache hit", "backend", backend)
}

func (h debugHooks) OnCacheMiss(_ context.Context, backend string) {
	h.logger.Debug("cache miss", "backend", backend)
}

func (h debugHooks) OnCacheSet(_ context.Context, backend string, size int) {
	h.logger.Debug("cache write", "backend", backend, "bytes", size)
}

func (h debugHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h debugHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (h debugHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "error", err)
}

var (
	_ observability.PipelineHooks = debugHooks{}
	_ observability.CacheHooks    = debugHooks{}
	_ observability.HTTPHooks     = debugHooks{}
)
