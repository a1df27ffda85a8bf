package depgraph

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nginly/nginx-analyze-ci/pkg/nginxconf"
)

type diskSource struct{}

func (diskSource) Document(path string) (*nginxconf.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return nginxconf.ParseString(string(b))
}

type failingSource struct{}

func (failingSource) Document(string) (*nginxconf.Document, error) {
	return nil, errors.New("boom")
}

func writeTree(t *testing.T, files map[string]string) (string, func(string) string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir, func(name string) string { return filepath.Join(dir, name) }
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		edges map[string][]string
		want  []Tree
	}{
		{
			name:  "shared include",
			files: []string{"A", "B", "C", "D"},
			edges: map[string][]string{"A": {"B"}, "C": {"B"}},
			want: []Tree{
				{RootFiles: []string{"A", "C"}, AllFiles: []string{"A", "B", "C"}},
				{RootFiles: []string{"D"}, AllFiles: []string{"D"}},
			},
		},
		{
			name:  "shared include visited from the leaf",
			files: []string{"B", "A", "C", "D"},
			edges: map[string][]string{"A": {"B"}, "C": {"B"}},
			want: []Tree{
				{RootFiles: []string{"A", "C"}, AllFiles: []string{"B", "A", "C"}},
				{RootFiles: []string{"D"}, AllFiles: []string{"D"}},
			},
		},
		{
			name:  "cycle falls back to first visited",
			files: []string{"A", "B"},
			edges: map[string][]string{"A": {"B"}, "B": {"A"}},
			want:  []Tree{{RootFiles: []string{"A"}, AllFiles: []string{"A", "B"}}},
		},
		{
			name:  "self include is still a root",
			files: []string{"A"},
			edges: map[string][]string{"A": {"A"}},
			want:  []Tree{{RootFiles: []string{"A"}, AllFiles: []string{"A"}}},
		},
		{
			name:  "chain",
			files: []string{"C", "B", "A"},
			edges: map[string][]string{"A": {"B"}, "B": {"C"}},
			want:  []Tree{{RootFiles: []string{"A"}, AllFiles: []string{"C", "B", "A"}}},
		},
		{
			name:  "empty",
			files: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph(tt.files, tt.edges)
			got := Partition(tt.files, g)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Partition() = %+v, want %+v", got, tt.want)
			}
			if again := Partition(tt.files, g); !reflect.DeepEqual(again, got) {
				t.Errorf("Partition() not idempotent: %+v vs %+v", again, got)
			}
		})
	}
}

func TestPartitionCoversEveryFileOnce(t *testing.T) {
	files := []string{"a", "b", "c", "d", "e", "f"}
	g := NewGraph(files, map[string][]string{"a": {"c"}, "e": {"c", "f"}, "b": {"b"}})
	seen := map[string]int{}
	for _, tr := range Partition(files, g) {
		for _, f := range tr.AllFiles {
			seen[f]++
		}
	}
	for _, f := range files {
		if seen[f] != 1 {
			t.Errorf("file %s appears in %d trees", f, seen[f])
		}
	}
}

func TestBuild(t *testing.T) {
	_, p := writeTree(t, map[string]string{
		"nginx.conf":              "http { include conf.d/*.conf; include mime.types; }",
		"conf.d/b.conf":           "server { listen 80; }",
		"conf.d/a.conf":           "server { include ../snippets/ssl.conf; }",
		"snippets/ssl.conf":       "ssl_protocols TLSv1.3;",
		"broken.conf":             "http {",
		"sites-enabled/site.conf": "include /does/not/exist.conf;",
	})
	files := []string{
		p("nginx.conf"), p("conf.d/a.conf"), p("conf.d/b.conf"),
		p("snippets/ssl.conf"), p("broken.conf"), p("sites-enabled/site.conf"),
	}

	g := Build(context.Background(), files, diskSource{})

	if got, want := g.Dependencies(p("nginx.conf")), []string{p("conf.d/a.conf"), p("conf.d/b.conf")}; !reflect.DeepEqual(got, want) {
		t.Errorf("nginx.conf deps = %v, want %v", got, want)
	}
	if got, want := g.Dependencies(p("conf.d/a.conf")), []string{p("snippets/ssl.conf")}; !reflect.DeepEqual(got, want) {
		t.Errorf("a.conf deps = %v, want %v", got, want)
	}
	if got := g.Dependencies(p("broken.conf")); len(got) != 0 {
		t.Errorf("broken.conf deps = %v, want none", got)
	}

	trees := Partition(files, g)
	if len(trees) != 3 {
		t.Fatalf("got %d trees, want 3: %+v", len(trees), trees)
	}
	if want := []string{p("nginx.conf")}; !reflect.DeepEqual(trees[0].RootFiles, want) {
		t.Errorf("roots = %v, want %v", trees[0].RootFiles, want)
	}
	if len(trees[0].AllFiles) != 4 {
		t.Errorf("first tree has %d files, want 4", len(trees[0].AllFiles))
	}
}

func TestBuildToleratesSourceErrors(t *testing.T) {
	files := []string{"/a.conf", "/b.conf"}
	g := Build(context.Background(), files, failingSource{})
	if len(g.Edges()) != 0 {
		t.Errorf("Edges() = %v, want none", g.Edges())
	}
	if got := Partition(files, g); len(got) != 2 {
		t.Errorf("got %d trees, want 2", len(got))
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := Build(ctx, []string{"/a.conf"}, failingSource{})
	if !reflect.DeepEqual(g.Files(), []string{"/a.conf"}) {
		t.Errorf("Files() = %v", g.Files())
	}
}

func TestEdgesAndReverse(t *testing.T) {
	g := NewGraph([]string{"b", "a"}, map[string][]string{"b": {"c", "a"}, "a": {"c"}})
	want := []Edge{{"a", "c"}, {"b", "a"}, {"b", "c"}}
	if got := g.Edges(); !reflect.DeepEqual(got, want) {
		t.Errorf("Edges() = %v, want %v", got, want)
	}
	rev := g.Reverse()
	if got := rev.Dependencies("c"); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("Reverse().Dependencies(c) = %v", got)
	}
}

func TestToDOT(t *testing.T) {
	files := []string{"/etc/nginx/nginx.conf", "/etc/nginx/conf.d/x.conf", "/etc/nginx/other.conf"}
	g := NewGraph(files, map[string][]string{files[0]: {files[1]}})
	dot := ToDOT(g, Partition(files, g), "/etc/nginx")

	for _, want := range []string{
		"subgraph cluster_0",
		"subgraph cluster_1",
		`label="conf.d/x.conf"`,
		`"/etc/nginx/nginx.conf" [label="nginx.conf", penwidth=2`,
		`"/etc/nginx/nginx.conf" -> "/etc/nginx/conf.d/x.conf";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	g := NewGraph([]string{"/a", "/b"}, map[string][]string{"/a": {"/b"}})
	svg, err := RenderSVG(context.Background(), ToDOT(g, Partition(g.Files(), g), "/"))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Errorf("output is not SVG: %.100s", svg)
	}
}
