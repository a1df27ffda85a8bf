package sslref

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nginly/nginx-analyze-ci/pkg/nginxconf"
)

type mapSource map[string]string

func (m mapSource) Document(path string) (*nginxconf.Document, error) {
	src, ok := m[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return nginxconf.ParseString(src)
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "certs"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "certs/site.pem"), []byte("cert"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "certs/dir.key"), 0o755); err != nil {
		t.Fatal(err)
	}

	main := filepath.Join(dir, "nginx.conf")
	site := filepath.Join(dir, "sites/site.conf")
	src := mapSource{
		main: `
http {
    server {
        ssl_certificate certs/site.pem;
        ssl_certificate_key certs/site.key;
        ssl_certificate;
    }
}`,
		site: `
ssl_certificate ../certs/site.pem;
ssl_certificate_key ../certs/dir.key;
ssl_certificate /etc/ssl/$host.pem;
`,
	}

	variable, err := filepath.Rel(dir, "/etc/ssl/$host.pem")
	if err != nil {
		t.Fatal(err)
	}

	got := Extract(context.Background(), []string{main, filepath.Join(dir, "missing.conf"), site}, dir, src)
	want := []Reference{
		{Path: "certs/site.pem", Exists: true, Directive: KindCertificate, ReferencedIn: "nginx.conf"},
		{Path: "certs/site.key", Exists: false, Directive: KindKey, ReferencedIn: "nginx.conf"},
		{Path: "certs/dir.key", Exists: false, Directive: KindKey, ReferencedIn: "sites/site.conf"},
		{Path: filepath.ToSlash(variable), Exists: false, Directive: KindCertificate, ReferencedIn: "sites/site.conf"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestExtractDedupFirstWins(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.conf")
	b := filepath.Join(dir, "b.conf")
	src := mapSource{
		a: "ssl_certificate x.pem;",
		b: "ssl_certificate x.pem; ssl_certificate_key x.pem;",
	}
	got := Extract(context.Background(), []string{b, a}, dir, src)
	if len(got) != 2 {
		t.Fatalf("got %d references, want 2: %+v", len(got), got)
	}
	for _, r := range got {
		if r.ReferencedIn != "b.conf" {
			t.Errorf("reference %+v should come from b.conf", r)
		}
	}
}

func TestReferenceJSON(t *testing.T) {
	b, err := json.Marshal(Reference{Path: "a.pem", Exists: true, Directive: KindCertificate, ReferencedIn: "n.conf"})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"path":"a.pem","exists":true,"directive":"ssl_certificate","referencedIn":"n.conf"}`
	if string(b) != want {
		t.Errorf("json = %s, want %s", b, want)
	}
}
