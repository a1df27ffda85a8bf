package nginxconf

// Position is a 1-based line and column in a source file.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Before reports whether p comes strictly before q.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Span is the source range covered by a syntax node. End is the position of
// the first character of the node's last token.
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Contains reports whether s encloses o.
func (s Span) Contains(o Span) bool {
	return !o.Start.Before(s.Start) && !s.End.Before(o.End)
}

// Node is a syntax tree node: a [*Directive], a [*Block] or a [*Comment].
// The set of implementations is closed.
type Node interface {
	// Pos returns the source span of the node.
	Pos() Span
	node()
}

// Directive is a simple statement such as `worker_processes 4;`.
type Directive struct {
	Name string
	Args []string
	Span Span
}

// Block is a statement with a body, such as `server { ... }`.
// A block owns its children; the tree is never mutated after parsing.
type Block struct {
	Name     string
	Args     []string
	Children []Node
	Span     Span
}

// Comment is a `#` line comment. Text excludes the `#` and surrounding whitespace.
type Comment struct {
	Text string
	Span Span
}

func (d *Directive) Pos() Span { return d.Span }
func (b *Block) Pos() Span     { return b.Span }
func (c *Comment) Pos() Span   { return c.Span }

func (*Directive) node() {}
func (*Block) node()     {}
func (*Comment) node()   {}

// Document is the root of a parsed file: its top-level statements in source order.
type Document struct {
	Children []Node
}

// Walk visits nodes depth-first in source order, calling fn for each node
// before descending into a block's children.
func Walk(nodes []Node, fn func(Node)) {
	for _, n := range nodes {
		fn(n)
		if b, ok := n.(*Block); ok {
			Walk(b.Children, fn)
		}
	}
}

// Directives returns every directive in doc whose name is one of names,
// including those nested in blocks, in source order. Blocks are never
// returned even if their name matches.
func Directives(doc *Document, names ...string) []*Directive {
	if doc == nil {
		return nil
	}
	var out []*Directive
	Walk(doc.Children, func(n Node) {
		d, ok := n.(*Directive)
		if !ok {
			return
		}
		for _, name := range names {
			if d.Name == name {
				out = append(out, d)
				return
			}
		}
	})
	return out
}
