// Package nginxconf tokenizes and parses nginx configuration files into a
// syntax tree of blocks, directives and comments.
//
// # Overview
//
// Only the structural subset of the nginx grammar is modeled: directives with
// arguments, brace-delimited blocks, `#` line comments and single- or
// double-quoted strings. Directive semantics (whether `listen` is legal inside
// `location`, for example) are not checked.
//
// Parsing happens in two stages:
//
//  1. [Tokenize] turns source text into a flat slice of [Token] values with
//     1-based line and column positions. It never fails: malformed input
//     degrades to extra WORD or COMMENT tokens.
//  2. [Parse] consumes the tokens with a recursive descent parser and returns
//     a [Document]. Unrecognized tokens at statement position are skipped, and
//     a directive that is cut off by the end of the file still produces a
//     [Directive] node. The only failure is an unterminated block, reported as
//     a [*ParseError].
//
// # Usage
//
//	doc, err := nginxconf.ParseString(src)
//	if err != nil {
//	    var perr *nginxconf.ParseError
//	    if errors.As(err, &perr) {
//	        fmt.Printf("unbalanced braces at %d:%d\n", perr.Line, perr.Column)
//	    }
//	    return err
//	}
//	for _, d := range nginxconf.Directives(doc, "include") {
//	    fmt.Println(d.Args)
//	}
//
// # Positions
//
// Every node carries a [Span]. A block's span runs from its name to its
// closing brace and always encloses the spans of its children. A directive's
// span ends at its terminating semicolon, or at its last argument when the
// semicolon is missing. Columns count bytes.
package nginxconf
