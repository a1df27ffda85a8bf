package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nginly/nginx-analyze-ci/pkg/analyzer"
	"github.com/nginly/nginx-analyze-ci/pkg/batch"
	"github.com/nginly/nginx-analyze-ci/pkg/cache"
	"github.com/nginly/nginx-analyze-ci/pkg/depgraph"
	"github.com/nginly/nginx-analyze-ci/pkg/discovery"
	"github.com/nginly/nginx-analyze-ci/pkg/loader"
	"github.com/nginly/nginx-analyze-ci/pkg/observability"
	"github.com/nginly/nginx-analyze-ci/pkg/report"
	"github.com/nginly/nginx-analyze-ci/pkg/sslref"
)

// Runner encapsulates pipeline execution with response caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete discover → plan → analyze pipeline.
// When no files are found, or opts.DryRun is set, it stops before
// contacting the analyzer and Result.Report is nil.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if opts.DryRun {
		if err := opts.Validate(); err != nil {
			return nil, err
		}
	} else if err := opts.ValidateForAnalyze(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Discover
	start := time.Now()
	d, err := r.Discover(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	result.Discovery = d
	result.Stats.DiscoverTime = time.Since(start)
	result.Stats.FileCount = d.FileCount()
	result.Stats.TreeCount = len(d.Trees)
	if len(d.Trees) == 0 {
		return result, nil
	}

	// Stage 2: Plan
	start = time.Now()
	result.Plan = r.Plan(ctx, d, opts)
	result.Stats.PlanTime = time.Since(start)
	result.Stats.BatchCount = len(result.Plan.Batches)
	result.Stats.SSLRefCount = len(result.Plan.Payload.SSLFiles)
	if opts.DryRun {
		return result, ctx.Err()
	}

	// Stage 3: Analyze
	start = time.Now()
	client := newClient(opts, r)
	result.RequestID = client.RequestID()
	result.Report, err = r.AnalyzeWith(ctx, client, result.Plan, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.AnalyzeTime = time.Since(start)
	return result, nil
}

// Discover finds configuration files under opts.Dir, loads them and
// partitions them into trees. Unreadable or malformed files stay in the
// file list but contribute no edges.
func (r *Runner) Discover(ctx context.Context, opts Options) (d *Discovery, err error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnDiscoverStart(ctx, opts.Dir)
	start := time.Now()
	defer func() {
		files, trees := 0, 0
		if d != nil {
			files, trees = len(d.Files), len(d.Trees)
		}
		hooks.OnDiscoverComplete(ctx, opts.Dir, files, trees, time.Since(start), err)
	}()

	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, err
	}
	var patterns []string
	if opts.Pattern != "" {
		patterns = []string{opts.Pattern}
	}
	files, err := discovery.Find(ctx, dir, discovery.Options{Patterns: patterns, Exclude: opts.Exclude})
	if err != nil {
		return nil, err
	}

	l := loader.New(loader.Options{Workers: opts.Workers, Logger: opts.Logger})
	if err := l.LoadAll(ctx, files); err != nil {
		return nil, err
	}
	for _, f := range l.Failures() {
		opts.Logger.Debug("skipping file contents", "file", f.Path, "error", f.Err)
	}

	g := depgraph.Build(ctx, files, l)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	trees := depgraph.Partition(files, g)

	opts.Logger.Info("discovered configuration",
		"files", len(files),
		"trees", len(trees),
		"edges", len(g.Edges()),
		"duration", time.Since(start))

	return &Discovery{Dir: dir, Files: files, Graph: g, Trees: trees, Loader: l}, nil
}

// Plan extracts SSL references and packs the discovered trees into batches.
// References are extracted in tree order, so a certificate declared in
// several files is attributed to the first one within the trees.
func (r *Runner) Plan(ctx context.Context, d *Discovery, opts Options) Plan {
	r.applyLogger(&opts)
	start := time.Now()

	refs := sslref.Extract(ctx, d.TreeFiles(), d.Dir, d.Loader)
	payload := batch.BuildPayload(d.Trees, d.Dir, d.Loader.Contents(), refs)
	batches := batch.Pack(payload, opts.MaxBatchBytes)

	opts.Logger.Debug("planned batches",
		"batches", len(batches),
		"files", len(payload.Files),
		"ssl_refs", len(refs),
		"duration", time.Since(start))

	return Plan{Payload: payload, Batches: batches}
}

// Analyze sends every batch of plan to the analyzer and merges the results.
func (r *Runner) Analyze(ctx context.Context, plan Plan, opts Options) (*report.Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForAnalyze(); err != nil {
		return nil, err
	}
	return r.AnalyzeWith(ctx, newClient(opts, r), plan, opts)
}

// AnalyzeWith is Analyze with a caller-supplied client. Batches are sent in
// order; the first failure aborts the run and is returned unwrapped so
// callers can inspect its code.
func (r *Runner) AnalyzeWith(ctx context.Context, client *analyzer.Client, plan Plan, opts Options) (*report.Result, error) {
	r.applyLogger(&opts)
	hooks := observability.Pipeline()
	total := len(plan.Batches)
	results := make([]*report.Result, 0, total)

	for i, b := range plan.Batches {
		size := batch.EstimateSize(b)
		hooks.OnBatchStart(ctx, i, total, size)
		start := time.Now()

		res, err := client.Analyze(ctx, analyzer.Request{
			Key:         opts.Key,
			Strict:      opts.Strict,
			Environment: opts.Environment,
			Batch:       b,
		})
		hooks.OnBatchComplete(ctx, i, total, time.Since(start), err)
		if err != nil {
			return nil, err
		}

		opts.Logger.Debug("analyzed batch",
			"batch", i+1,
			"of", total,
			"trees", len(b.Trees),
			"bytes", size,
			"duration", time.Since(start))
		results = append(results, res)
	}
	return report.Merge(results...), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func backendName(c cache.Cache) string {
	switch c.(type) {
	case *cache.FileCache:
		return "file"
	case *cache.RedisCache:
		return "redis"
	case *cache.NullCache:
		return "null"
	}
	return "cache"
}
