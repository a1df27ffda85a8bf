// Package discovery locates candidate nginx configuration files in a
// directory tree.
//
// Files are matched against a list of doublestar glob patterns, filtered by
// exclude patterns, and finally checked with [IsValidConfig]. The default
// patterns cast a wide net (every `*.conf` file plus everything under
// sites-available and sites-enabled), so the include graph, not the file
// name, decides which files belong together. Hidden files and anything under
// a hidden directory are skipped unless a pattern names the dot segment.
package discovery

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/nginly/nginx-analyze-ci/pkg/errors"
)

// MaxFileSize is the largest file considered a configuration file.
const MaxFileSize = 10 * 1024 * 1024

// DefaultPatterns are the globs searched when no pattern is given.
var DefaultPatterns = []string{
	"**/nginx.conf",
	"**/nginx/**/*.conf",
	"**/*.nginx.conf",
	"**/conf.d/**/*.conf",
	"**/sites-available/**/*",
	"**/sites-enabled/**/*",
	"**/*.conf",
}

// DefaultExcludes are always skipped.
var DefaultExcludes = []string{
	"**/node_modules/**",
	"**/dist/**",
	"**/build/**",
	"**/.git/**",
	"**/binaries/**",
}

// Options configures [Find].
type Options struct {
	// Patterns replaces DefaultPatterns when non-empty.
	Patterns []string
	// Exclude is added to DefaultExcludes.
	Exclude []string
}

// Find returns the absolute paths of configuration files under dir, in the
// order patterns first match them, without duplicates.
func Find(ctx context.Context, dir string, opts Options) ([]string, error) {
	if err := errors.ValidateDirectory(dir); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve directory")
	}

	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	excludes := append(append([]string(nil), DefaultExcludes...), opts.Exclude...)
	for _, p := range append(append([]string(nil), patterns...), excludes...) {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid glob pattern: %s", p)
		}
	}

	fsys := os.DirFS(root)
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeIO, err, "glob %s", pattern)
		}
		dotted := hasDotSegment(pattern)
		for _, m := range matches {
			if !dotted && hasDotSegment(m) {
				continue
			}
			if excluded(m, excludes) {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			abs := filepath.Join(root, filepath.FromSlash(m))
			if IsValidConfig(abs) {
				out = append(out, abs)
			}
		}
	}
	return out, nil
}

// hasDotSegment reports whether any slash-separated segment of p starts with
// a dot. Hidden files and directories only match patterns that name them.
func hasDotSegment(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}

func excluded(path string, excludes []string) bool {
	for _, ex := range excludes {
		if ok, _ := doublestar.Match(ex, path); ok {
			return true
		}
	}
	return false
}

// IsValidConfig reports whether path is a non-empty regular file no larger
// than MaxFileSize.
func IsValidConfig(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return isValid(info)
}

func isValid(info fs.FileInfo) bool {
	return info.Mode().IsRegular() && info.Size() > 0 && info.Size() <= MaxFileSize
}
