package nginxconf

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestParseNested(t *testing.T) {
	src := "http {\n  server {\n    listen 80;\n  }\n}\n"
	doc, err := ParseString(src)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if len(doc.Children) != 1 {
		t.Fatalf("got %d top-level nodes, want 1", len(doc.Children))
	}
	http, ok := doc.Children[0].(*Block)
	if !ok || http.Name != "http" {
		t.Fatalf("top-level node = %#v, want http block", doc.Children[0])
	}
	server := http.Children[0].(*Block)
	listen := server.Children[0].(*Directive)

	if !reflect.DeepEqual(listen.Args, []string{"80"}) {
		t.Errorf("listen args = %v", listen.Args)
	}
	wantListen := Span{Start: Position{3, 5}, End: Position{3, 14}}
	if listen.Span != wantListen {
		t.Errorf("listen span = %+v, want %+v", listen.Span, wantListen)
	}
	wantHTTP := Span{Start: Position{1, 1}, End: Position{5, 1}}
	if http.Span != wantHTTP {
		t.Errorf("http span = %+v, want %+v", http.Span, wantHTTP)
	}

	Walk(doc.Children, func(n Node) {
		b, ok := n.(*Block)
		if !ok {
			return
		}
		for _, c := range b.Children {
			if !b.Span.Contains(c.Pos()) {
				t.Errorf("block %s span %+v does not contain child %+v", b.Name, b.Span, c.Pos())
			}
		}
	})
}

func TestParseTolerant(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Node
	}{
		{
			name: "missing semicolon at eof",
			src:  "listen 80",
			want: []Node{&Directive{Name: "listen", Args: []string{"80"}, Span: Span{Position{1, 1}, Position{1, 8}}}},
		},
		{
			name: "stray tokens skipped",
			src:  `} ; "x" { server_name a;`,
			want: []Node{&Directive{Name: "server_name", Args: []string{"a"}, Span: Span{Position{1, 11}, Position{1, 24}}}},
		},
		{
			name: "directive cut off by brace",
			src:  "a b }",
			want: []Node{&Directive{Name: "a", Args: []string{"b"}, Span: Span{Position{1, 1}, Position{1, 3}}}},
		},
		{
			name: "string arguments",
			src:  `return 200 "ok";`,
			want: []Node{&Directive{Name: "return", Args: []string{"200", "ok"}, Span: Span{Position{1, 1}, Position{1, 16}}}},
		},
		{
			name: "comment",
			src:  "# note\n",
			want: []Node{&Comment{Text: "note", Span: Span{Position{1, 1}, Position{1, 1}}}},
		},
		{
			name: "empty block",
			src:  "events {}",
			want: []Node{&Block{Name: "events", Span: Span{Position{1, 1}, Position{1, 9}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseString(tt.src)
			if err != nil {
				t.Fatalf("ParseString(%q): %v", tt.src, err)
			}
			if !reflect.DeepEqual(doc.Children, tt.want) {
				t.Errorf("ParseString(%q) =\n%s\nwant\n%s", tt.src, dump(doc.Children), dump(tt.want))
			}
		})
	}
}

func TestParseUnclosedBlock(t *testing.T) {
	_, err := ParseString("http {\n  server {\n")
	if err == nil {
		t.Fatal("expected error for unclosed block")
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error %T is not *ParseError", err)
	}
	want := ParseError{Expected: TokenRBrace, Found: TokenEOF, Line: 3, Column: 1}
	if *perr != want {
		t.Errorf("ParseError = %+v, want %+v", *perr, want)
	}
	if got := perr.Error(); got != "expected RBRACE but got EOF at line 3, column 1" {
		t.Errorf("Error() = %q", got)
	}
}

func TestParseWithoutEOF(t *testing.T) {
	doc, err := Parse([]Token{{Kind: TokenWord, Text: "a", Line: 1, Column: 1}})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Children) != 1 {
		t.Errorf("got %d nodes, want 1", len(doc.Children))
	}
	if _, err := Parse(nil); err != nil {
		t.Errorf("Parse(nil): %v", err)
	}
}

func TestDirectives(t *testing.T) {
	doc, err := ParseString(`
include mime.types;
http {
    include conf.d/*.conf;
    server {
        include snippets/ssl.conf;
    }
    include { }
}
`)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, d := range Directives(doc, "include") {
		got = append(got, d.Args[0])
	}
	want := []string{"mime.types", "conf.d/*.conf", "snippets/ssl.conf"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Directives(include) = %v, want %v", got, want)
	}
	if Directives(nil, "include") != nil {
		t.Error("Directives(nil) should be nil")
	}
}

func ExampleParseString() {
	doc, _ := ParseString(`
server {
    listen 443 ssl;
    ssl_certificate /etc/ssl/site.pem;
}
`)
	Walk(doc.Children, func(n Node) {
		switch n := n.(type) {
		case *Block:
			fmt.Printf("block %s at line %d\n", n.Name, n.Span.Start.Line)
		case *Directive:
			fmt.Printf("  %s %v\n", n.Name, n.Args)
		}
	})
	// Output:
	// block server at line 2
	//   listen [443 ssl]
	//   ssl_certificate [/etc/ssl/site.pem]
}

func dump(nodes []Node) string {
	s := ""
	for _, n := range nodes {
		s += fmt.Sprintf("%#v\n", n)
	}
	return s
}
