package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nginly/nginx-analyze-ci/pkg/cache"
)

func TestTreesCommand(t *testing.T) {
	dir := sampleConfigs(t)

	o, err := runCLI(t, nil, "trees", dir, "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var views []treeView
	if err := json.Unmarshal(o.result.Bytes(), &views); err != nil {
		t.Fatalf("trees JSON: %v\n%s", err, o.result.String())
	}
	if len(views) != 2 {
		t.Fatalf("trees = %+v", views)
	}
	first := views[0]
	if len(first.AllFiles) != 2 || len(first.RootFiles) != 1 || first.RootFiles[0] != "nginx.conf" {
		t.Errorf("first tree = %+v", first)
	}
	if views[1].AllFiles[0] != "other/nginx.conf" {
		t.Errorf("second tree = %+v", views[1])
	}

	o, err = runCLI(t, nil, "trees", dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Tree 1", "(2 file(s))", iconRoot + " nginx.conf", iconMember + " conf.d/app.conf"} {
		if !strings.Contains(o.result.String(), want) {
			t.Errorf("trees output missing %q:\n%s", want, o.result.String())
		}
	}
}

func TestTreesCommandInvalidFormat(t *testing.T) {
	if _, err := runCLI(t, nil, "trees", sampleConfigs(t), "--format", "yaml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestGraphCommand(t *testing.T) {
	dir := sampleConfigs(t)

	o, err := runCLI(t, nil, "graph", dir)
	if err != nil {
		t.Fatal(err)
	}
	dot := o.result.String()
	if !strings.HasPrefix(dot, "digraph includes {") {
		t.Errorf("DOT output = %q", dot)
	}
	if !strings.Contains(dot, "subgraph cluster_1") || !strings.Contains(dot, "->") {
		t.Errorf("DOT output lacks clusters or edges:\n%s", dot)
	}

	outFile := filepath.Join(t.TempDir(), "graph.dot")
	o, err = runCLI(t, nil, "graph", dir, "-o", outFile)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != dot {
		t.Error("file output should match stdout output")
	}
	if !strings.Contains(o.status.String(), outFile) {
		t.Errorf("status should name the output file: %q", o.status.String())
	}
}

func TestCacheCommands(t *testing.T) {
	cacheRoot := t.TempDir()
	t.Chdir(writeConfigs(t, map[string]string{
		".nginx-analyze.toml": "[cache]\ndir = \"" + filepath.ToSlash(cacheRoot) + "\"\n",
	}))

	o, err := runCLI(t, nil, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(o.result.String()); got != filepath.ToSlash(cacheRoot) && got != cacheRoot {
		t.Errorf("cache path = %q, want %q", got, cacheRoot)
	}

	fc, err := cache.NewFileCache(cacheRoot)
	if err != nil {
		t.Fatal(err)
	}
	if err := fc.Set(t.Context(), "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}

	o, err = runCLI(t, nil, "cache", "clear")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(o.status.String(), "Cache cleared") {
		t.Errorf("status = %q", o.status.String())
	}
	if _, ok, _ := fc.Get(t.Context(), "k"); ok {
		t.Error("entry survived cache clear")
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			o, err := runCLI(t, nil, "completion", shell)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(o.result.String(), appName) {
				t.Errorf("%s completion does not mention %s", shell, appName)
			}
		})
	}

	if _, err := runCLI(t, nil, "completion", "tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}
