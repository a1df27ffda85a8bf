// Package sslref finds the certificate and key files nginx configurations
// point at and checks whether they exist on disk.
//
// Only the first argument of `ssl_certificate` and `ssl_certificate_key`
// directives is considered. Relative arguments are resolved against the
// directory of the declaring file. Arguments containing nginx variables are
// reported as written and will normally not exist.
package sslref

import (
	"context"
	"os"
	"path/filepath"

	"github.com/nginly/nginx-analyze-ci/pkg/nginxconf"
)

// Kind is the directive a reference came from.
type Kind string

const (
	KindCertificate Kind = "ssl_certificate"
	KindKey         Kind = "ssl_certificate_key"
)

// Reference is one certificate or key path found in a configuration file.
// Path and ReferencedIn are slash-separated and relative to the base
// directory given to [Extract].
type Reference struct {
	Path         string `json:"path"`
	Exists       bool   `json:"exists"`
	Directive    Kind   `json:"directive"`
	ReferencedIn string `json:"referencedIn"`
}

// DocumentSource supplies parsed documents by absolute path.
type DocumentSource interface {
	Document(path string) (*nginxconf.Document, error)
}

// Extract collects references from files in order. A (Path, Directive) pair
// is reported once, by the first file that declares it. Files that cannot be
// read or parsed contribute nothing.
func Extract(ctx context.Context, files []string, baseDir string, src DocumentSource) []Reference {
	if abs, err := filepath.Abs(baseDir); err == nil {
		baseDir = abs
	}

	type key struct {
		path string
		kind Kind
	}
	seen := make(map[key]struct{})
	var out []Reference

	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		doc, err := src.Document(file)
		if err != nil || doc == nil {
			continue
		}
		for _, ref := range fromDocument(doc, file, baseDir) {
			k := key{ref.Path, ref.Directive}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, ref)
		}
	}
	return out
}

func fromDocument(doc *nginxconf.Document, file, baseDir string) []Reference {
	declaredIn := relative(baseDir, file)
	dir := filepath.Dir(file)

	var out []Reference
	for _, d := range nginxconf.Directives(doc, string(KindCertificate), string(KindKey)) {
		if len(d.Args) == 0 || d.Args[0] == "" {
			continue
		}
		target := d.Args[0]
		if !filepath.IsAbs(target) {
			target = filepath.Join(dir, target)
		}
		out = append(out, Reference{
			Path:         relative(baseDir, target),
			Exists:       isFile(target),
			Directive:    Kind(d.Name),
			ReferencedIn: declaredIn,
		})
	}
	return out
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func relative(baseDir, path string) string {
	rel, err := filepath.Rel(baseDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
