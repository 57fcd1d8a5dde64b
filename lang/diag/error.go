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

// Package diag carries structured compile diagnostics. Every phase reports
// failure by returning a *Error rather than panicking, so the driver can
// print file/row/column and exit with a nonzero status without recovering
// from a panic.
package diag

import (
	"fmt"

	"github.com/launix-de/bxc/lang/token"
)

type Kind uint8

const (
	LexError Kind = iota
	ParseError
	Redeclaration
	UndeclaredName
	TypeMismatch
	ArityMismatch
	BadGlobalInit
	MissingReturn
	UnknownOpcode
)

func (k Kind) String() string {
	switch k {
	case LexError:
		return "lex error"
	case ParseError:
		return "parse error"
	case Redeclaration:
		return "redeclaration"
	case UndeclaredName:
		return "undeclared name"
	case TypeMismatch:
		return "type mismatch"
	case ArityMismatch:
		return "arity mismatch"
	case BadGlobalInit:
		return "bad global initializer"
	case MissingReturn:
		return "missing return"
	case UnknownOpcode:
		return "unknown opcode"
	}
	return "error"
}

// Error is the one error type every phase returns. No recovery is
// attempted: the first Error aborts the pipeline.
type Error struct {
	Kind    Kind
	Message string
	Pos     token.Pos
	File    string
}

func (e *Error) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s:%s: %s: %s", e.File, e.Pos, e.Kind, e.Message)
}

// New builds a diagnostic at the given position.
func New(kind Kind, pos token.Pos, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Pos: pos}
}
