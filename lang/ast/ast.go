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

// Package ast defines the typed syntax tree the parser produces and the
// type checker annotates in place. Rather than the virtual-dispatch node
// hierarchy of a C++ AST, every node family is a closed Go interface with
// an unexported marker method, so the set of concrete cases is fixed at
// compile time and exhaustiveness is a switch away.
package ast

import "github.com/launix-de/bxc/lang/token"

// Expr is any expression node. Every concrete case also gets a Type slot
// that the type checker fills in; it starts as the zero Type (KindInt)
// and must not be read before type checking has run.
type Expr interface {
	exprNode()
	Position() token.Pos
	ExprType() Type
	SetExprType(Type)
}

type ExprBase struct {
	Pos token.Pos
	Typ Type
}

func (e *ExprBase) exprNode()            {}
func (e *ExprBase) Position() token.Pos  { return e.Pos }
func (e *ExprBase) ExprType() Type       { return e.Typ }
func (e *ExprBase) SetExprType(t Type)   { e.Typ = t }

type NumberLit struct {
	ExprBase
	Value int64
}

type BoolLit struct {
	ExprBase
	Value bool
}

type Ident struct {
	ExprBase
	Name string
}

// UnOp is one of the unary operators: "!" "-" "~".
type UnOp struct {
	ExprBase
	Op      string
	Operand Expr
}

// BinOp is a binary operator expression. Op is the operator's source
// spelling (e.g. "+", "&&", "=="); the muncher picks one of its three
// lowering strategies (arithmetic/bitwise, short-circuit boolean,
// comparison) from Op.
type BinOp struct {
	ExprBase
	Op    string
	Left  Expr
	Right Expr
}

// Call is a function call `f(e1, ..., en)`. Callee is always an Ident:
// either a plain variable/parameter holding a closure value (higher-order
// call, e.g. `f(v)` inside `apply`), a top-level procedure name, or the
// special built-in `print`.
type Call struct {
	ExprBase
	Callee *Ident
	Args   []Expr
}

func (*NumberLit) exprNode() {}
func (*BoolLit) exprNode()   {}
func (*Ident) exprNode()     {}
func (*UnOp) exprNode()      {}
func (*BinOp) exprNode()     {}
func (*Call) exprNode()      {}

// Stmt is any statement node.
type Stmt interface {
	stmtNode()
	Position() token.Pos
}

type StmtBase struct {
	Pos token.Pos
}

func (s *StmtBase) stmtNode()           {}
func (s *StmtBase) Position() token.Pos { return s.Pos }

// VarDecl declares one or more locals of the same declared type in the
// current scope: `var x = e : int`. Source allows chaining (x=e1, y=e2)
// sharing one declared Type; the parser splits multi-declarations so each
// VarDecl here binds exactly one name, mirroring the muncher's per-name
// scope insertion in §4.4.
type VarDecl struct {
	StmtBase
	Name string
	Type Type
	Init Expr
}

type Assign struct {
	StmtBase
	Name  string
	Value Expr
}

// ExprStmt is a call used as a statement; its value (if any) is discarded.
type ExprStmt struct {
	StmtBase
	X Expr
}

type If struct {
	StmtBase
	Cond Expr
	Then *Block
	Else *Block // nil if no else-branch
}

type While struct {
	StmtBase
	Cond Expr
	Body *Block
}

type Break struct{ StmtBase }
type Continue struct{ StmtBase }

type Return struct {
	StmtBase
	Value Expr // nil for a bare `return;`
}

// FuncDeclStmt wraps a nested `def` appearing inside a block; the muncher
// hoists it per §4.3 rather than executing it in sequence.
type FuncDeclStmt struct {
	StmtBase
	Decl *FuncDecl
}

func (*VarDecl) stmtNode()      {}
func (*Assign) stmtNode()       {}
func (*ExprStmt) stmtNode()     {}
func (*If) stmtNode()           {}
func (*While) stmtNode()        {}
func (*Break) stmtNode()        {}
func (*Continue) stmtNode()     {}
func (*Return) stmtNode()       {}
func (*FuncDeclStmt) stmtNode() {}

// Block is an ordered sequence of statements forming one lexical scope.
type Block struct {
	Pos   token.Pos
	Stmts []Stmt
}

// Param is one formal parameter of a function declaration.
type Param struct {
	Name string
	Type Type
}

// FuncDecl is a top-level or nested procedure declaration:
// `def name(p1: T1, ...): Tret { body }`. A function with no declared
// return type is Void.
type FuncDecl struct {
	Pos    token.Pos
	Name   string
	Params []Param
	Ret    Type
	Body   *Block

	// Nested set by the parser when this FuncDecl is lexically inside
	// another function's body. The muncher does not read it: it hoists a
	// def through the lambda queue whenever it meets one as a statement.
	Nested bool
}

// GlobalVarDecl declares a module-level variable; its initializer must be
// a constant literal per §4.1.
type GlobalVarDecl struct {
	Pos  token.Pos
	Name string
	Type Type
	Init Expr
}

// Decl is either a FuncDecl or a GlobalVarDecl at the top level.
type Decl interface {
	declNode()
	Position() token.Pos
}

func (*FuncDecl) declNode()       {}
func (*GlobalVarDecl) declNode()  {}
func (f *FuncDecl) Position() token.Pos      { return f.Pos }
func (g *GlobalVarDecl) Position() token.Pos { return g.Pos }

// Program is the whole compilation unit: an ordered list of top-level
// declarations, in source order.
type Program struct {
	Decls []Decl
}
