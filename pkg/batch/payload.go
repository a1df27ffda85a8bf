package batch

import (
	"path/filepath"
	"strings"

	"github.com/nginly/nginx-analyze-ci/pkg/depgraph"
	"github.com/nginly/nginx-analyze-ci/pkg/sslref"
)

// Tree is a configuration tree as sent to the analyzer.
type Tree struct {
	AllFiles []string `json:"allFiles"`
}

// Payload is the complete, unbatched analysis input.
type Payload struct {
	Trees    []Tree
	Files    map[string]string
	SSLFiles []sslref.Reference
}

// BuildPayload converts trees to base-relative paths and collects the file
// contents they reference. Files absent from contents are left out of Files.
func BuildPayload(trees []depgraph.Tree, baseDir string, contents map[string]string, refs []sslref.Reference) Payload {
	if abs, err := filepath.Abs(baseDir); err == nil {
		baseDir = abs
	}
	p := Payload{
		Trees:    make([]Tree, 0, len(trees)),
		Files:    make(map[string]string),
		SSLFiles: refs,
	}
	if p.SSLFiles == nil {
		p.SSLFiles = []sslref.Reference{}
	}
	for _, t := range trees {
		rel := make([]string, 0, len(t.AllFiles))
		for _, abs := range t.AllFiles {
			r := RelativePath(baseDir, abs)
			rel = append(rel, r)
			if _, ok := p.Files[r]; ok {
				continue
			}
			if c, ok := contents[abs]; ok {
				p.Files[r] = c
			}
		}
		p.Trees = append(p.Trees, Tree{AllFiles: rel})
	}
	return p
}

// RelativePath strips the path components full shares with base and joins
// the rest with slashes. When nothing remains, the last component of full is
// returned. Unlike filepath.Rel it never produces "..".
func RelativePath(base, full string) string {
	baseParts := splitPath(base)
	fullParts := splitPath(full)
	i := 0
	for i < len(baseParts) && i < len(fullParts) && baseParts[i] == fullParts[i] {
		i++
	}
	if rel := strings.Join(fullParts[i:], "/"); rel != "" {
		return rel
	}
	if len(fullParts) == 0 {
		return ""
	}
	return fullParts[len(fullParts)-1]
}

func splitPath(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' })
}
