package nginxconf

import "strings"

// TokenKind classifies a [Token].
type TokenKind int

const (
	TokenWord TokenKind = iota
	TokenString
	TokenLBrace
	TokenRBrace
	TokenSemicolon
	TokenComment
	TokenNewline
	TokenEOF
)

var tokenKindNames = [...]string{
	TokenWord:      "WORD",
	TokenString:    "STRING",
	TokenLBrace:    "LBRACE",
	TokenRBrace:    "RBRACE",
	TokenSemicolon: "SEMICOLON",
	TokenComment:   "COMMENT",
	TokenNewline:   "NEWLINE",
	TokenEOF:       "EOF",
}

func (k TokenKind) String() string {
	if k < 0 || int(k) >= len(tokenKindNames) {
		return "UNKNOWN"
	}
	return tokenKindNames[k]
}

// Token is a lexical unit with the position of its first character.
// For strings, Text excludes the delimiting quotes; for comments it excludes
// the `#` and is trimmed.
type Token struct {
	Kind   TokenKind
	Text   string
	Line   int
	Column int
}

// Pos returns the token's position.
func (t Token) Pos() Position { return Position{Line: t.Line, Column: t.Column} }

// Tokenize splits src into tokens. It is total: every input produces a token
// slice ending in a single EOF token positioned just after the last character.
//
// NEWLINE tokens are emitted so positions can be tracked; [Parse] discards them.
// A byte order mark is skipped like whitespace, wherever it appears.
func Tokenize(src string) []Token {
	lx := &lexer{src: src, line: 1, col: 1}
	lx.run()
	return lx.tokens
}

type lexer struct {
	src    string
	i      int
	line   int
	col    int
	tokens []Token
}

func (lx *lexer) emit(kind TokenKind, text string, line, col int) {
	lx.tokens = append(lx.tokens, Token{Kind: kind, Text: text, Line: line, Column: col})
}

// step advances over one byte, keeping line and column in sync.
func (lx *lexer) step() {
	if lx.src[lx.i] == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	lx.i++
}

// byteOrderMark is U+FEFF in UTF-8, written by some Windows editors.
const byteOrderMark = "\ufeff"

func (lx *lexer) atBOM() bool {
	return strings.HasPrefix(lx.src[lx.i:], byteOrderMark)
}

func (lx *lexer) run() {
	for lx.i < len(lx.src) {
		c := lx.src[lx.i]
		switch {
		case lx.atBOM():
			for range len(byteOrderMark) {
				lx.step()
			}
		case c == '\n':
			lx.emit(TokenNewline, "\n", lx.line, lx.col)
			lx.step()
		case c == ' ' || c == '\t' || c == '\r':
			lx.step()
		case c == '#':
			lx.comment()
		case c == '{':
			lx.emit(TokenLBrace, "{", lx.line, lx.col)
			lx.step()
		case c == '}':
			lx.emit(TokenRBrace, "}", lx.line, lx.col)
			lx.step()
		case c == ';':
			lx.emit(TokenSemicolon, ";", lx.line, lx.col)
			lx.step()
		case c == '"' || c == '\'':
			lx.quoted(c)
		case isWordByte(c):
			lx.word()
		default:
			// Vertical tab, form feed: not skipped, not part of a word.
			lx.step()
		}
	}
	lx.emit(TokenEOF, "", lx.line, lx.col)
}

func (lx *lexer) comment() {
	line, col := lx.line, lx.col
	start := lx.i
	lx.step()
	for lx.i < len(lx.src) && lx.src[lx.i] != '\n' {
		lx.step()
	}
	lx.emit(TokenComment, strings.TrimSpace(lx.src[start+1:lx.i]), line, col)
}

func (lx *lexer) quoted(quote byte) {
	line, col := lx.line, lx.col
	lx.step()
	start := lx.i
	for lx.i < len(lx.src) && lx.src[lx.i] != quote {
		if lx.src[lx.i] == '\\' && lx.i+1 < len(lx.src) {
			lx.step()
		}
		lx.step()
	}
	end := lx.i
	if lx.i < len(lx.src) {
		lx.step()
	}
	lx.emit(TokenString, lx.src[start:end], line, col)
}

func (lx *lexer) word() {
	line, col := lx.line, lx.col
	start := lx.i
	for lx.i < len(lx.src) && isWordByte(lx.src[lx.i]) && !lx.atBOM() {
		lx.step()
	}
	lx.emit(TokenWord, lx.src[start:lx.i], line, col)
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isWordByte(c byte) bool {
	switch c {
	case '{', '}', ';', '"', '\'', '#':
		return false
	}
	return !isSpace(c)
}
