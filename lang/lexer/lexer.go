/*
Copyright (C) 2023  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package lexer tokenizes BX source using packrat grammar combinators: the
// whole token stream is one grammar, `(token)* $`, parsed in a single
// packrat.Parse call, and the Kleene node's alternating element children
// are walked off to recover the token sequence in order.
package lexer

import (
	"strconv"

	packrat "github.com/launix-de/go-packrat/v2"

	"github.com/launix-de/bxc/lang/diag"
	"github.com/launix-de/bxc/lang/token"
)

// kindParser tags a packrat alternative with the token.Kind it produces,
// a wrapper-parser trick for carrying extra information through a
// packrat.Node's Parser field.
type kindParser struct {
	kind  token.Kind
	inner packrat.Parser
}

func (p *kindParser) Match(s *packrat.Scanner) *packrat.Node {
	m := p.inner.Match(s)
	if m == nil {
		return nil
	}
	return &packrat.Node{Matched: m.Matched, Start: m.Start, Parser: p, Children: []*packrat.Node{m}}
}

// skipWsAndComments mirrors packrat.SkipWhitespaceAndCommentsRegex but
// also accepts BX's "//" line comments.
const skipWsAndComments = `(\s|//[^\n]*)*`

var punctAlternatives = []struct {
	lit  string
	kind token.Kind
}{
	{"(", token.LParen}, {")", token.RParen},
	{"{", token.LBrace}, {"}", token.RBrace},
	{",", token.Comma}, {":", token.Colon}, {";", token.Semicolon},
	// two-char operators must precede their one-char prefixes: OrParser
	// takes the first alternative that matches.
	{"==", token.EqEq}, {"!=", token.NotEq},
	{"<<", token.Shl}, {">>", token.Shr},
	{"<=", token.LtEq}, {">=", token.GtEq},
	{"&&", token.AndAnd}, {"||", token.OrOr},
	{"<", token.Lt}, {">", token.Gt},
	{"&", token.Amp}, {"|", token.Pipe}, {"^", token.Caret},
	{"=", token.Assign},
	{"+", token.Plus}, {"-", token.Minus}, {"*", token.Star},
	{"/", token.Slash}, {"%", token.Percent},
	{"!", token.Bang}, {"~", token.Tilde},
}

func buildRoot() packrat.Parser {
	alts := make([]packrat.Parser, 0, len(punctAlternatives)+2)
	alts = append(alts, &kindParser{token.Number, packrat.NewRegexParser(`-?[0-9]+`, false, true)})
	alts = append(alts, &kindParser{token.Ident, packrat.NewRegexParser(`[A-Za-z_][A-Za-z0-9_]*`, false, true)})
	for _, p := range punctAlternatives {
		alts = append(alts, &kindParser{p.kind, packrat.NewAtomParser(p.lit, false, true)})
	}
	tok := packrat.NewOrParser(alts...)
	stream := packrat.NewKleeneParser(tok, packrat.NewEmptyParser())
	return packrat.NewAndParser(stream, packrat.NewEndParser(true))
}

// Lex tokenizes the whole source, returning a positioned token stream
// terminated by a single token.EOF. file is used only for diagnostics.
func Lex(file, src string) ([]token.Token, *diag.Error) {
	scanner := packrat.NewScanner(src, skipWsAndComments)
	node, err := packrat.Parse(buildRoot(), scanner)
	if err != nil || node == nil {
		return nil, &diag.Error{Kind: diag.LexError, Message: "unexpected character", Pos: rowCol(src, 0), File: file}
	}
	stream := node.Children[0] // KleeneParser node: AndParser(stream, end)
	var out []token.Token
	for i := 0; i < len(stream.Children); i += 2 {
		leaf := stream.Children[i] // kindParser node, one per token
		kp := leaf.Parser.(*kindParser)
		text := leaf.Matched
		pos := rowCol(src, leaf.Start)
		kind := kp.kind
		if kind == token.Ident {
			if kw, ok := token.Lookup(text); ok {
				kind = kw
			}
		}
		out = append(out, token.Token{Kind: kind, Text: text, Pos: pos})
	}
	out = append(out, token.Token{Kind: token.EOF, Pos: rowCol(src, len(src))})
	return out, nil
}

// ParseInt converts a lexed Number token's text to its int64 value;
// lexing already guarantees the text matches -?[0-9]+.
func ParseInt(text string) int64 {
	n, _ := strconv.ParseInt(text, 10, 64)
	return n
}

func rowCol(src string, offset int) token.Pos {
	if offset > len(src) {
		offset = len(src)
	}
	if offset < 0 {
		offset = 0
	}
	row, col := 1, 1
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			row++
			col = 1
		} else {
			col++
		}
	}
	return token.Pos{Row: row, Col: col}
}
