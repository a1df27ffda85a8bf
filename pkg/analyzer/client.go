package analyzer

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/nginly/nginx-analyze-ci/pkg/batch"
	"github.com/nginly/nginx-analyze-ci/pkg/buildinfo"
	"github.com/nginly/nginx-analyze-ci/pkg/cache"
	"github.com/nginly/nginx-analyze-ci/pkg/errors"
	"github.com/nginly/nginx-analyze-ci/pkg/observability"
	"github.com/nginly/nginx-analyze-ci/pkg/report"
	"github.com/nginly/nginx-analyze-ci/pkg/sslref"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 120 * time.Second

// Request is one batch plus the run's credentials and mode.
type Request struct {
	Key         string
	Strict      bool
	Environment string
	Batch       batch.Batch
}

type requestBody struct {
	Key          string             `json:"key"`
	Strict       bool               `json:"strict"`
	Trees        []batch.Tree       `json:"trees"`
	Files        map[string]string  `json:"files"`
	SSLFiles     []sslref.Reference `json:"sslFiles"`
	Environment  string             `json:"environment"`
	BatchIndex   *int               `json:"batchIndex,omitempty"`
	TotalBatches *int               `json:"totalBatches,omitempty"`
}

// MarshalJSON encodes the request body sent to the analyzer.
func (r Request) MarshalJSON() ([]byte, error) {
	b := requestBody{
		Key:         r.Key,
		Strict:      r.Strict,
		Trees:       r.Batch.Trees,
		Files:       r.Batch.Files,
		SSLFiles:    r.Batch.SSLFiles,
		Environment: r.Environment,
	}
	if b.Trees == nil {
		b.Trees = []batch.Tree{}
	}
	if b.Files == nil {
		b.Files = map[string]string{}
	}
	if b.SSLFiles == nil {
		b.SSLFiles = []sslref.Reference{}
	}
	if r.Batch.TotalBatches > 1 {
		idx, total := r.Batch.BatchIndex, r.Batch.TotalBatches
		b.BatchIndex, b.TotalBatches = &idx, &total
	}
	return batch.EncodeJSON(b)
}

// Options configures a Client.
type Options struct {
	// URL is the full analyze endpoint.
	URL string
	// HTTPClient defaults to a client without a global timeout; per-request
	// deadlines come from Timeout.
	HTTPClient *http.Client
	// Timeout bounds each attempt; defaults to DefaultTimeout.
	Timeout time.Duration
	// Compress enables gzip request bodies.
	Compress bool
	// RequestID is sent as X-Request-ID; a random UUID when empty.
	RequestID string

	// Cache stores successful responses; nil disables caching.
	Cache cache.Cache
	// CacheName labels cache events ("file", "redis").
	CacheName string
	// Keyer defaults to cache.DefaultKeyer.
	Keyer    cache.Keyer
	CacheTTL time.Duration

	Logger *log.Logger
}

// Client talks to the analyzer. It is safe for concurrent use.
type Client struct {
	url       string
	http      *http.Client
	timeout   time.Duration
	compress  atomic.Bool
	requestID string

	cache     cache.Cache
	cacheName string
	keyer     cache.Keyer
	cacheTTL  time.Duration

	logger *log.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	c := &Client{
		url:       opts.URL,
		http:      opts.HTTPClient,
		timeout:   opts.Timeout,
		requestID: opts.RequestID,
		cache:     opts.Cache,
		cacheName: opts.CacheName,
		keyer:     opts.Keyer,
		cacheTTL:  opts.CacheTTL,
		logger:    opts.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.requestID == "" {
		c.requestID = uuid.NewString()
	}
	if c.keyer == nil {
		c.keyer = cache.NewDefaultKeyer()
	}
	if c.cacheName == "" {
		c.cacheName = "cache"
	}
	c.compress.Store(opts.Compress)
	return c
}

// RequestID returns the X-Request-ID shared by every request of the client.
func (c *Client) RequestID() string { return c.requestID }

// Analyze submits one batch and returns the analyzer's result.
func (c *Client) Analyze(ctx context.Context, req Request) (*report.Result, error) {
	body, err := batch.EncodeJSON(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode request")
	}

	var key string
	if c.cache != nil {
		key = c.keyer.AnalysisKey(body, cache.AnalysisKeyOpts{Server: c.url, Strict: req.Strict})
		if res, ok := c.cached(ctx, key); ok {
			return res, nil
		}
	}

	var (
		res *report.Result
		raw []byte
	)
	err = cache.RetryWithBackoff(ctx, func() error {
		var err error
		res, raw, err = c.send(ctx, body, req.Batch.BatchIndex)
		if err != nil && cache.IsRetryable(err) {
			c.debug("retrying analyzer request", "batch", req.Batch.BatchIndex, "error", err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, raw, c.cacheTTL); err != nil {
			c.debug("cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, c.cacheName, len(raw))
		}
	}
	return res, nil
}

func (c *Client) cached(ctx context.Context, key string) (*report.Result, bool) {
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.debug("cache read failed", "error", err)
		return nil, false
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, c.cacheName)
		return nil, false
	}
	res, err := report.Parse(data)
	if err != nil {
		_ = c.cache.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, c.cacheName)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, c.cacheName)
	c.debug("using cached analyzer response")
	return res, true
}

func (c *Client) send(ctx context.Context, body []byte, batchIndex int) (*report.Result, []byte, error) {
	compressed := c.compress.Load()
	payload := body
	if compressed {
		var err error
		if payload, err = gzipBytes(body); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "compress request")
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid analyzer URL %q", c.url)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set("X-Request-ID", c.requestID)
	req.Header.Set("X-Batch-Index", strconv.Itoa(batchIndex))
	if compressed {
		req.Header.Set("Content-Encoding", "gzip")
	}

	host, path := endpoint(c.url)
	observability.HTTP().OnRequest(ctx, http.MethodPost, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodPost, host, path, err)
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		if reqCtx.Err() == context.DeadlineExceeded {
			return nil, nil, cache.Retryable(errors.Wrap(errors.ErrCodeTimeout, err, "Request failed: no response within %s", c.timeout))
		}
		return nil, nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "Request failed: %v", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodPost, host, path, err)
		return nil, nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "Request failed: %v", err))
	}
	observability.HTTP().OnResponse(ctx, http.MethodPost, host, path, resp.StatusCode, time.Since(start))
	c.debug("analyzer response", "status", resp.StatusCode, "bytes", len(data), "duration", time.Since(start).Round(time.Millisecond))

	if resp.StatusCode == http.StatusUnsupportedMediaType && compressed {
		c.debug("analyzer rejected gzip body, sending uncompressed")
		c.compress.Store(false)
		return c.send(ctx, body, batchIndex)
	}

	res, err := decodeResponse(resp.StatusCode, data)
	return res, data, err
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func endpoint(raw string) (host, path string) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", raw
	}
	return u.Host, u.Path
}

func (c *Client) debug(msg string, keyvals ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, keyvals...)
	}
}
