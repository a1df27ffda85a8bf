package includes

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nginly/nginx-analyze-ci/pkg/nginxconf"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func mustParse(t *testing.T, src string) *nginxconf.Document {
	t.Helper()
	doc, err := nginxconf.ParseString(src)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestTargets(t *testing.T) {
	doc := mustParse(t, `
include a.conf;
include;
http {
    server { include b.conf c.conf; }
}
`)
	want := []string{"a.conf", "b.conf"}
	if got := Targets(doc); !reflect.DeepEqual(got, want) {
		t.Errorf("Targets() = %v, want %v", got, want)
	}
}

func TestTargetsAfterByteOrderMark(t *testing.T) {
	doc := mustParse(t, "\ufeffinclude conf.d/*.conf;\n")
	want := []string{"conf.d/*.conf"}
	if got := Targets(doc); !reflect.DeepEqual(got, want) {
		t.Errorf("Targets() = %v, want %v", got, want)
	}
}

func TestHasGlob(t *testing.T) {
	tests := map[string]bool{
		"conf.d/*.conf":   true,
		"site?.conf":      true,
		"[ab].conf":       true,
		"mime.types":      false,
		"/etc/nginx/x.cf": false,
	}
	for in, want := range tests {
		if got := HasGlob(in); got != want {
			t.Errorf("HasGlob(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"conf.d/b.conf":     "",
		"conf.d/a.conf":     "",
		"conf.d/sub/c.conf": "",
		"mime.types":        "",
	})

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"glob sorted files only", "conf.d/*", []string{
			filepath.Join(dir, "conf.d/a.conf"),
			filepath.Join(dir, "conf.d/b.conf"),
		}},
		{"doublestar", "conf.d/**/*.conf", []string{
			filepath.Join(dir, "conf.d/a.conf"),
			filepath.Join(dir, "conf.d/b.conf"),
			filepath.Join(dir, "conf.d/sub/c.conf"),
		}},
		{"literal", "mime.types", []string{filepath.Join(dir, "mime.types")}},
		{"absolute literal", filepath.Join(dir, "mime.types"), []string{filepath.Join(dir, "mime.types")}},
		{"missing literal", "missing.conf", nil},
		{"no matches", "nothing/*.conf", []string{}},
		{"bad pattern", "conf.d/[", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.target, dir)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}

func TestResolverDependencies(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"nginx.conf":        "",
		"conf.d/a.conf":     "",
		"conf.d/b.conf":     "",
		"conf.d/ignored.cf": "",
	})
	main := filepath.Join(dir, "nginx.conf")
	a := filepath.Join(dir, "conf.d/a.conf")
	b := filepath.Join(dir, "conf.d/b.conf")

	r := NewResolver([]string{main, a, b})
	doc := mustParse(t, `
include conf.d/b.conf;
http { include conf.d/*; }
include /outside/nginx.conf;
`)
	want := []string{b, a}
	if got := r.Dependencies(doc, main); !reflect.DeepEqual(got, want) {
		t.Errorf("Dependencies() = %v, want %v", got, want)
	}
}
