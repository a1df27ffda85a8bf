package nginxconf

import "fmt"

// ParseError reports a structural error: a token of kind Expected was
// required at Line:Column but Found was there instead. In practice the only
// such error is a block whose closing brace is missing.
type ParseError struct {
	Expected TokenKind
	Found    TokenKind
	Line     int
	Column   int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("expected %s but got %s at line %d, column %d", e.Expected, e.Found, e.Line, e.Column)
}

// ParseString tokenizes and parses src.
func ParseString(src string) (*Document, error) {
	return Parse(Tokenize(src))
}

// Parse builds a [Document] from tokens produced by [Tokenize].
//
// NEWLINE tokens are discarded. Tokens that cannot start a statement are
// skipped, so Parse only fails with a [*ParseError] when a block is left
// open at the end of input.
func Parse(tokens []Token) (*Document, error) {
	p := newParser(tokens)
	doc := &Document{}
	for !p.atEnd() {
		n, err := p.statement()
		if err != nil {
			return nil, err
		}
		if n != nil {
			doc.Children = append(doc.Children, n)
		}
	}
	return doc, nil
}

type parser struct {
	tokens []Token
	cur    int
}

func newParser(tokens []Token) *parser {
	filtered := make([]Token, 0, len(tokens)+1)
	for _, t := range tokens {
		if t.Kind != TokenNewline {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 || filtered[len(filtered)-1].Kind != TokenEOF {
		eof := Token{Kind: TokenEOF, Line: 1, Column: 1}
		if n := len(filtered); n > 0 {
			eof.Line, eof.Column = filtered[n-1].Line, filtered[n-1].Column
		}
		filtered = append(filtered, eof)
	}
	return &parser{tokens: filtered}
}

func (p *parser) peek() Token { return p.tokens[p.cur] }

func (p *parser) atEnd() bool { return p.peek().Kind == TokenEOF }

func (p *parser) check(kind TokenKind) bool {
	return !p.atEnd() && p.peek().Kind == kind
}

func (p *parser) advance() Token {
	t := p.peek()
	if !p.atEnd() {
		p.cur++
	}
	return t
}

func (p *parser) previous() Token {
	if p.cur == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.cur-1]
}

func (p *parser) consume(kind TokenKind) (Token, error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	t := p.peek()
	return Token{}, &ParseError{Expected: kind, Found: t.Kind, Line: t.Line, Column: t.Column}
}

// statement returns nil, nil when the current token was skipped.
func (p *parser) statement() (Node, error) {
	switch p.peek().Kind {
	case TokenComment:
		t := p.advance()
		return &Comment{Text: t.Text, Span: Span{Start: t.Pos(), End: t.Pos()}}, nil
	case TokenWord:
		return p.directiveOrBlock()
	default:
		p.advance()
		return nil, nil
	}
}

func (p *parser) directiveOrBlock() (Node, error) {
	name := p.advance()
	var args []string
	for p.check(TokenWord) || p.check(TokenString) {
		args = append(args, p.advance().Text)
	}

	switch {
	case p.check(TokenLBrace):
		return p.block(name, args)
	case p.check(TokenSemicolon):
		semi := p.advance()
		return &Directive{Name: name.Text, Args: args, Span: Span{Start: name.Pos(), End: semi.Pos()}}, nil
	default:
		return &Directive{Name: name.Text, Args: args, Span: Span{Start: name.Pos(), End: p.previous().Pos()}}, nil
	}
}

func (p *parser) block(name Token, args []string) (Node, error) {
	if _, err := p.consume(TokenLBrace); err != nil {
		return nil, err
	}
	b := &Block{Name: name.Text, Args: args}
	for !p.atEnd() && !p.check(TokenRBrace) {
		n, err := p.statement()
		if err != nil {
			return nil, err
		}
		if n != nil {
			b.Children = append(b.Children, n)
		}
	}
	rbrace, err := p.consume(TokenRBrace)
	if err != nil {
		return nil, err
	}
	b.Span = Span{Start: name.Pos(), End: rbrace.Pos()}
	return b, nil
}
