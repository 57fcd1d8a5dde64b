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

// Package token names the lexical categories produced by the lexer and
// consumed by the parser. Positions are 1-based (row, col) for diagnostics.
package token

type Kind uint8

const (
	EOF Kind = iota
	Ident
	Number

	// keywords
	KwDef
	KwVar
	KwReturn
	KwInt
	KwBool
	KwTrue
	KwFalse
	KwVoid
	KwIf
	KwElse
	KwWhile
	KwBreak
	KwContinue

	// punctuation
	LParen
	RParen
	LBrace
	RBrace
	Comma
	Colon
	Semicolon
	Assign

	// operators
	OrOr
	AndAnd
	Pipe
	Caret
	Amp
	EqEq
	NotEq
	Lt
	LtEq
	Gt
	GtEq
	Shl
	Shr
	Plus
	Minus
	Star
	Slash
	Percent
	Bang
	Tilde
)

var keywords = map[string]Kind{
	"def":      KwDef,
	"var":      KwVar,
	"return":   KwReturn,
	"int":      KwInt,
	"bool":     KwBool,
	"true":     KwTrue,
	"false":    KwFalse,
	"void":     KwVoid,
	"if":       KwIf,
	"else":     KwElse,
	"while":    KwWhile,
	"break":    KwBreak,
	"continue": KwContinue,
}

// Lookup classifies an identifier-shaped lexeme as a keyword, if it is one.
func Lookup(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}

// Pos is a source position, 1-based row/col, for diagnostics.
type Pos struct {
	Row, Col int
}

func (p Pos) String() string {
	return itoa(p.Row) + ":" + itoa(p.Col)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Token is a positioned lexeme. Text carries the literal spelling for
// Ident and Number; it is empty (or the canonical spelling) otherwise.
type Token struct {
	Kind Kind
	Text string
	Pos  Pos
}
