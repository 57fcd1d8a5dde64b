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
package parser

import (
	"testing"

	"github.com/launix-de/bxc/lang/ast"
)

func parseExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	prog, err := Parse("test.bx", "def main() { var r = "+src+" : int; }")
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	fd := prog.Decls[0].(*ast.FuncDecl)
	return fd.Body.Stmts[0].(*ast.VarDecl).Init
}

func binOp(e ast.Expr) *ast.BinOp {
	return e.(*ast.BinOp)
}

// `*` binds tighter than `+`: `1 + 2 * 3` parses as `1 + (2 * 3)`.
func TestParse_MulBindsTighterThanAdd(t *testing.T) {
	e := binOp(parseExpr(t, "1 + 2 * 3"))
	if e.Op != "+" {
		t.Fatalf("expected top-level +, got %s", e.Op)
	}
	rhs := binOp(e.Right)
	if rhs.Op != "*" {
		t.Fatalf("expected right operand *, got %s", rhs.Op)
	}
}

// `&&` binds tighter than `||`.
func TestParse_AndBindsTighterThanOr(t *testing.T) {
	e := binOp(parseExpr(t, "true || true && false"))
	if e.Op != "||" {
		t.Fatalf("expected top-level ||, got %s", e.Op)
	}
	if binOp(e.Right).Op != "&&" {
		t.Fatalf("expected right operand &&, got %s", binOp(e.Right).Op)
	}
}

// Comparison operators are non-associative: chaining is a parse error.
func TestParse_ComparisonChainIsError(t *testing.T) {
	_, err := Parse("test.bx", "def main() { var r = 1 < 2 < 3 : bool; }")
	if err == nil {
		t.Fatalf("expected a parse error for chained comparisons")
	}
}

// Unary `-` binds tighter than any binary operator.
func TestParse_UnaryBindsTighterThanBinary(t *testing.T) {
	e := binOp(parseExpr(t, "-a * 2"))
	if e.Op != "*" {
		t.Fatalf("expected top-level *, got %s", e.Op)
	}
	if _, ok := e.Left.(*ast.UnOp); !ok {
		t.Fatalf("expected left operand to be a unary op, got %T", e.Left)
	}
}

// Parenthesization overrides precedence.
func TestParse_ParensOverridePrecedence(t *testing.T) {
	e := binOp(parseExpr(t, "(1 + 2) * 3"))
	if e.Op != "*" {
		t.Fatalf("expected top-level *, got %s", e.Op)
	}
	if binOp(e.Left).Op != "+" {
		t.Fatalf("expected left operand +, got %s", binOp(e.Left).Op)
	}
}

func TestParse_CallWithArgs(t *testing.T) {
	e := parseExpr(t, "f(1, 2 + 3)")
	call, ok := e.(*ast.Call)
	if !ok {
		t.Fatalf("expected a Call, got %T", e)
	}
	if call.Callee.Name != "f" || len(call.Args) != 2 {
		t.Fatalf("unexpected call shape: %+v", call)
	}
}

func TestParse_FunctionType(t *testing.T) {
	prog, err := Parse("test.bx", `def apply(f: function(int) -> int, v: int): int { return f(v); }`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fd := prog.Decls[0].(*ast.FuncDecl)
	ft := fd.Params[0].Type
	if ft.Kind != ast.KindFunction || len(ft.Params) != 1 || ft.Params[0].Kind != ast.KindInt {
		t.Fatalf("unexpected function parameter type: %+v", ft)
	}
}
