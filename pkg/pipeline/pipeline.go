// Package pipeline provides the analysis pipeline for nginx-analyze-ci.
//
// This package implements the complete discover → plan → analyze pipeline
// used by every CLI command. Centralizing it keeps the analyze, trees and
// graph commands consistent about which files form a configuration tree.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Discover: find candidate files, read and parse them, build the include
//     graph and partition it into trees
//  2. Plan: extract SSL references, assemble the payload and pack it into
//     size-bounded batches
//  3. Analyze: send each batch to the analyzer and merge the results
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Dir:       "./deploy",
//	    ServerURL: "https://nginly.com/analyze",
//	    Key:       key,
//	})
//
// Run individual stages:
//
//	d, err := runner.Discover(ctx, opts)
//	plan := runner.Plan(ctx, d, opts)
//	res, err := runner.Analyze(ctx, plan, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nginly/nginx-analyze-ci/pkg/analyzer"
	"github.com/nginly/nginx-analyze-ci/pkg/batch"
	"github.com/nginly/nginx-analyze-ci/pkg/depgraph"
	"github.com/nginly/nginx-analyze-ci/pkg/errors"
	"github.com/nginly/nginx-analyze-ci/pkg/loader"
	"github.com/nginly/nginx-analyze-ci/pkg/report"
)

// Options contains all configuration for a pipeline run.
type Options struct {
	// Discover options
	Dir     string
	Pattern string   // replaces the default discovery patterns when set
	Exclude []string // added to the default excludes
	Workers int      // parallel file loads; 0 means one per CPU

	// Plan options
	MaxBatchBytes int // 0 means batch.DefaultMaxBytes

	// Analyze options
	ServerURL   string // full analyze endpoint
	Key         string
	Environment string
	Strict      bool
	Timeout     time.Duration
	Compress    bool
	CacheTTL    time.Duration
	RequestID   string // shared by every batch; random when empty
	DryRun      bool   // stop after Plan

	// Runtime options
	Logger *log.Logger
}

// Validate checks the fields needed by Discover and Plan.
func (o *Options) Validate() error {
	if o.Dir == "" {
		o.Dir = "."
	}
	if o.MaxBatchBytes < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max batch bytes must not be negative: %d", o.MaxBatchBytes)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ValidateForAnalyze additionally checks what Analyze needs.
func (o *Options) ValidateForAnalyze() error {
	if err := o.Validate(); err != nil {
		return err
	}
	if o.ServerURL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "analyzer URL is required")
	}
	if o.Key == "" {
		return errors.New(errors.ErrCodeUnauthorized, "Missing API key")
	}
	return nil
}

// Discovery is the outcome of the discover stage.
type Discovery struct {
	// Dir is the absolute analysed directory.
	Dir string
	// Files are the discovered configuration files, in discovery order.
	Files []string
	Graph depgraph.Graph
	Trees []depgraph.Tree
	// Loader holds the contents and parsed documents of Files.
	Loader *loader.Loader
}

// FileCount returns the number of files across all trees.
func (d *Discovery) FileCount() int {
	n := 0
	for _, t := range d.Trees {
		n += len(t.AllFiles)
	}
	return n
}

// TreeFiles returns every tree's files, tree by tree, in the order the
// partition visited them.
func (d *Discovery) TreeFiles() []string {
	files := make([]string, 0, d.FileCount())
	for _, t := range d.Trees {
		files = append(files, t.AllFiles...)
	}
	return files
}

// Plan is the outcome of the plan stage.
type Plan struct {
	Payload batch.Payload
	Batches []batch.Batch
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Discovery *Discovery
	Plan      Plan

	// Report is the merged analyzer result; nil for dry runs or when no
	// files were found.
	Report *report.Result

	// RequestID is the X-Request-ID sent with every batch.
	RequestID string

	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	FileCount    int
	TreeCount    int
	BatchCount   int
	SSLRefCount  int
	DiscoverTime time.Duration
	PlanTime     time.Duration
	AnalyzeTime  time.Duration
}

func newClient(opts Options, r *Runner) *analyzer.Client {
	return analyzer.New(analyzer.Options{
		URL:       opts.ServerURL,
		Timeout:   opts.Timeout,
		Compress:  opts.Compress,
		RequestID: opts.RequestID,
		Cache:     r.Cache,
		CacheName: backendName(r.Cache),
		Keyer:     r.Keyer,
		CacheTTL:  opts.CacheTTL,
		Logger:    opts.Logger,
	})
}
