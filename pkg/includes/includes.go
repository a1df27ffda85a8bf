// Package includes resolves nginx `include` directives to the files they pull in.
//
// Include arguments are either literal paths or glob patterns (anything
// containing `*`, `?` or `[`). Relative arguments are resolved against the
// directory of the file that declares them, matching how configuration trees
// are laid out in repositories rather than nginx's own prefix rules.
package includes

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/nginly/nginx-analyze-ci/pkg/nginxconf"
)

// Directive is the directive name followed by the resolver.
const Directive = "include"

// Targets returns the first argument of every include directive in doc,
// depth-first in source order. Includes without arguments are ignored.
func Targets(doc *nginxconf.Document) []string {
	var out []string
	for _, d := range nginxconf.Directives(doc, Directive) {
		if len(d.Args) > 0 {
			out = append(out, d.Args[0])
		}
	}
	return out
}

// HasGlob reports whether target is a glob pattern.
func HasGlob(target string) bool {
	return strings.ContainsAny(target, "*?[")
}

// Resolve expands target into absolute file paths.
//
// A relative target is joined with baseDir. Globs expand to the regular files
// they match, sorted; a malformed pattern yields nil. A literal path is
// returned only if it exists.
func Resolve(target, baseDir string) []string {
	path := target
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	if !HasGlob(target) {
		if _, err := os.Stat(path); err != nil {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil
		}
		return []string{abs}
	}

	matches, err := doublestar.FilepathGlob(path, doublestar.WithFilesOnly())
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		abs, err := filepath.Abs(m)
		if err != nil {
			continue
		}
		out = append(out, abs)
	}
	sort.Strings(out)
	return out
}

// Resolver limits include resolution to a known set of candidate files.
type Resolver struct {
	candidates map[string]struct{}
}

// NewResolver returns a Resolver whose edges only point at files.
// Paths are expected to be absolute.
func NewResolver(files []string) *Resolver {
	c := make(map[string]struct{}, len(files))
	for _, f := range files {
		c[f] = struct{}{}
	}
	return &Resolver{candidates: c}
}

// Dependencies returns the candidate files that doc, parsed from file,
// includes. The result is duplicate-free and ordered by first appearance.
func (r *Resolver) Dependencies(doc *nginxconf.Document, file string) []string {
	baseDir := filepath.Dir(file)
	seen := make(map[string]struct{})
	var out []string
	for _, target := range Targets(doc) {
		for _, p := range Resolve(target, baseDir) {
			if _, ok := r.candidates[p]; !ok {
				continue
			}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
