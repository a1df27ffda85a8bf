// Package loader reads configuration files and memoizes their parsed form.
//
// A [Loader] is the single place the analysis touches file contents: the
// graph builder, the SSL reference extractor and the payload builder all ask
// it for documents or raw text, so each file is read once per run. Parsed
// documents are additionally memoized by content hash, so identical files
// (a common pattern for per-environment copies) are parsed once.
//
// Read and parse failures are not fatal. They are recorded per file, logged
// at debug level, and surfaced to callers as an error from [Loader.Document],
// which the graph builder and extractor treat as "no contribution".
package loader

import (
	"context"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/nginly/nginx-analyze-ci/pkg/errors"
	"github.com/nginly/nginx-analyze-ci/pkg/nginxconf"
)

// DefaultMemoSize bounds the number of distinct parsed documents kept.
const DefaultMemoSize = 4096

// Reader reads a file's contents.
type Reader interface {
	Read(path string) (string, error)
}

// OSReader reads from the local filesystem.
type OSReader struct{}

// Read returns the file's contents as UTF-8 text.
func (OSReader) Read(path string) (string, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "file not found: %s", path)
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "read %s", path)
	}
	return string(b), nil
}

// Options configures a Loader.
type Options struct {
	// Reader defaults to OSReader.
	Reader Reader
	// Workers bounds parallel reads in LoadAll; defaults to runtime.NumCPU().
	Workers int
	// MemoSize bounds the parsed-document memo; defaults to DefaultMemoSize.
	MemoSize int
	// Logger receives debug output for tolerated failures; nil discards it.
	Logger *log.Logger
}

// Failure is a file that could not be read or parsed.
type Failure struct {
	Path string
	Err  error
}

type parsed struct {
	doc *nginxconf.Document
	err error
}

type entry struct {
	content string
	readErr error
	hash    uint64
}

// Loader reads and parses files on demand. It is safe for concurrent use.
type Loader struct {
	reader  Reader
	workers int
	logger  *log.Logger
	memo    *lru.Cache[uint64, parsed]

	mu        sync.RWMutex
	entries   map[string]entry
	parseErrs map[string]error
}

// New creates a Loader.
func New(opts Options) *Loader {
	if opts.Reader == nil {
		opts.Reader = OSReader{}
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.MemoSize <= 0 {
		opts.MemoSize = DefaultMemoSize
	}
	memo, _ := lru.New[uint64, parsed](opts.MemoSize)
	return &Loader{
		reader:    opts.Reader,
		workers:   opts.Workers,
		logger:    opts.Logger,
		memo:      memo,
		entries:   make(map[string]entry),
		parseErrs: make(map[string]error),
	}
}

// LoadAll reads and parses files in parallel. Individual failures are
// recorded, not returned; the only error is ctx's.
func (l *Loader) LoadAll(ctx context.Context, files []string) error {
	results := make([]entry, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = l.read(f)
			l.parse(f, results[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	l.mu.Lock()
	for i, f := range files {
		l.entries[f] = results[i]
	}
	l.mu.Unlock()
	return ctx.Err()
}

// Document returns the parsed document for path, reading it if needed.
func (l *Loader) Document(path string) (*nginxconf.Document, error) {
	e := l.load(path)
	if e.readErr != nil {
		return nil, e.readErr
	}
	p := l.parse(path, e)
	return p.doc, p.err
}

// Content returns the raw text of path. ok is false if it cannot be read.
func (l *Loader) Content(path string) (string, bool) {
	e := l.load(path)
	return e.content, e.readErr == nil
}

// Contents returns the raw text of every readable file loaded so far.
func (l *Loader) Contents() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]string, len(l.entries))
	for p, e := range l.entries {
		if e.readErr == nil {
			out[p] = e.content
		}
	}
	return out
}

// Failures lists files that could not be read or parsed, sorted by path.
func (l *Loader) Failures() []Failure {
	l.mu.RLock()
	var out []Failure
	for p, e := range l.entries {
		if e.readErr != nil {
			out = append(out, Failure{Path: p, Err: e.readErr})
		}
	}
	for p, err := range l.parseErrs {
		out = append(out, Failure{Path: p, Err: err})
	}
	l.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (l *Loader) load(path string) entry {
	l.mu.RLock()
	e, ok := l.entries[path]
	l.mu.RUnlock()
	if ok {
		return e
	}

	e = l.read(path)
	l.mu.Lock()
	if existing, ok := l.entries[path]; ok {
		e = existing
	} else {
		l.entries[path] = e
	}
	l.mu.Unlock()
	return e
}

func (l *Loader) read(path string) entry {
	content, err := l.reader.Read(path)
	if err != nil {
		l.debug("read failed", "file", path, "error", err)
		return entry{readErr: err}
	}
	return entry{content: content, hash: xxh3.HashString(content)}
}

func (l *Loader) parse(path string, e entry) parsed {
	if e.readErr != nil {
		return parsed{err: e.readErr}
	}
	p, ok := l.memo.Get(e.hash)
	if !ok {
		doc, err := nginxconf.ParseString(e.content)
		p = parsed{doc: doc, err: err}
		l.memo.Add(e.hash, p)
	}
	if p.err == nil {
		return p
	}

	err := errors.Wrap(errors.ErrCodeParse, p.err, "parse %s", path)
	l.mu.Lock()
	_, seen := l.parseErrs[path]
	l.parseErrs[path] = err
	l.mu.Unlock()
	if !seen {
		l.debug("parse failed", "file", path, "error", p.err)
	}
	return parsed{err: err}
}

func (l *Loader) debug(msg string, keyvals ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, keyvals...)
	}
}
