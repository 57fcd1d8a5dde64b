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

// Package typecheck annotates every ast.Expr with its Type and rejects
// ill-typed programs. It keeps its own lexical scope of
// name -> Type, separate from the muncher's ir.Context scope (which maps
// name -> (Type, Temporary)); the two stacks shadow each other one for
// one, but typecheck never needs a Temporary and the muncher never needs
// to re-derive a Type once typecheck has stamped the AST.
package typecheck

import (
	"github.com/launix-de/bxc/lang/ast"
	"github.com/launix-de/bxc/lang/diag"
	"github.com/launix-de/bxc/lang/token"
)

// PrintIntName and PrintBoolName are the mangled runtime symbols `print`
// resolves to at munch time.
const (
	PrintIntName  = "__bx_print_int"
	PrintBoolName = "__bx_print_bool"
)

type frame struct {
	vars    map[string]ast.Type
	isFunc  bool
	retType ast.Type
}

// Checker walks the Program once, depth-first, left-to-right, aborting on
// the first ill-typed expression; there is no error recovery.
type Checker struct {
	file     string
	scopes   []frame
	loopDepth int
	Warnings []string
}

func NewChecker(file string) *Checker {
	return &Checker{file: file}
}

func (c *Checker) pushScope()             { c.scopes = append(c.scopes, frame{vars: make(map[string]ast.Type)}) }
func (c *Checker) pushFuncScope(ret ast.Type) {
	c.scopes = append(c.scopes, frame{vars: make(map[string]ast.Type), isFunc: true, retType: ret})
}
func (c *Checker) popScope() { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *Checker) declare(pos token.Pos, name string, t ast.Type) *diag.Error {
	top := &c.scopes[len(c.scopes)-1]
	if _, exists := top.vars[name]; exists {
		return diag.New(diag.Redeclaration, pos, "%q is already declared in this scope", name)
	}
	top.vars[name] = t
	return nil
}

func (c *Checker) lookup(name string) (ast.Type, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if t, ok := c.scopes[i].vars[name]; ok {
			return t, true
		}
	}
	return ast.Type{}, false
}

func (c *Checker) enclosingFunc() (ast.Type, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if c.scopes[i].isFunc {
			return c.scopes[i].retType, true
		}
	}
	return ast.Void, false
}

// Check type-checks an entire program. On success every ast.Expr node has
// had SetExprType called; on failure the first ill-typed expression's
// diagnostic is returned.
func Check(file string, prog *ast.Program) (*Checker, *diag.Error) {
	c := NewChecker(file)
	c.pushScope() // global scope
	for _, d := range prog.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok {
			if err := c.declare(fd.Pos, fd.Name, funcType(fd)); err != nil {
				return c, err
			}
		}
	}
	for _, d := range prog.Decls {
		switch n := d.(type) {
		case *ast.GlobalVarDecl:
			if err := c.checkGlobal(n); err != nil {
				return c, err
			}
		case *ast.FuncDecl:
			if err := c.checkFuncDecl(n); err != nil {
				return c, err
			}
		}
	}
	c.popScope()
	return c, nil
}

func funcType(fd *ast.FuncDecl) ast.Type {
	params := make([]ast.Type, len(fd.Params))
	for i, p := range fd.Params {
		params[i] = p.Type
	}
	return ast.Function(params, fd.Ret)
}

func (c *Checker) checkGlobal(g *ast.GlobalVarDecl) *diag.Error {
	switch lit := g.Init.(type) {
	case *ast.NumberLit:
		lit.SetExprType(ast.Int)
	case *ast.BoolLit:
		lit.SetExprType(ast.Bool)
	default:
		return diag.New(diag.BadGlobalInit, g.Pos, "global %q must be initialized with a constant literal", g.Name)
	}
	if !g.Init.ExprType().Equal(g.Type) {
		return diag.New(diag.TypeMismatch, g.Pos, "global %q declared %s but initialized with %s", g.Name, g.Type, g.Init.ExprType())
	}
	return c.declare(g.Pos, g.Name, g.Type)
}

func (c *Checker) checkFuncDecl(fd *ast.FuncDecl) *diag.Error {
	if !fd.Ret.IsScalar() && fd.Ret.Kind != ast.KindVoid {
		return diag.New(diag.TypeMismatch, fd.Pos, "function %q must return int, bool, or void", fd.Name)
	}
	if fd.Name == "main" && fd.Ret.Kind != ast.KindVoid {
		return diag.New(diag.TypeMismatch, fd.Pos, "main must return void")
	}
	c.pushFuncScope(fd.Ret)
	for _, p := range fd.Params {
		if p.Type.Kind == ast.KindVoid {
			return diag.New(diag.TypeMismatch, fd.Pos, "parameter %q cannot have type void", p.Name)
		}
		if err := c.declare(fd.Pos, p.Name, p.Type); err != nil {
			return err
		}
	}
	if err := c.checkBlock(fd.Body); err != nil {
		return err
	}
	if fd.Ret.Kind != ast.KindVoid && !blockAlwaysReturns(fd.Body) {
		return diag.New(diag.MissingReturn, fd.Pos, "function %q does not return on all paths", fd.Name)
	}
	c.popScope()
	return nil
}

// blockAlwaysReturns is a conservative structural check: a block
// definitely returns only if its last statement definitely returns.
// Loops are never considered definitely-returning (their condition may be
// false on entry), matching common compiler practice for this analysis.
func blockAlwaysReturns(b *ast.Block) bool {
	if len(b.Stmts) == 0 {
		return false
	}
	return stmtAlwaysReturns(b.Stmts[len(b.Stmts)-1])
}

func stmtAlwaysReturns(s ast.Stmt) bool {
	switch n := s.(type) {
	case *ast.Return:
		return true
	case *ast.If:
		return n.Else != nil && blockAlwaysReturns(n.Then) && blockAlwaysReturns(n.Else)
	}
	return false
}

func (c *Checker) checkBlock(b *ast.Block) *diag.Error {
	c.pushScope()
	for _, s := range b.Stmts {
		if err := c.checkStmt(s); err != nil {
			return err
		}
	}
	c.popScope()
	return nil
}

func (c *Checker) checkStmt(s ast.Stmt) *diag.Error {
	switch n := s.(type) {
	case *ast.VarDecl:
		t, err := c.checkExpr(n.Init)
		if err != nil {
			return err
		}
		if !t.Equal(n.Type) {
			return diag.New(diag.TypeMismatch, n.Pos, "variable %q declared %s but initialized with %s", n.Name, n.Type, t)
		}
		return c.declare(n.Pos, n.Name, n.Type)

	case *ast.Assign:
		declared, ok := c.lookup(n.Name)
		if !ok {
			return diag.New(diag.UndeclaredName, n.Pos, "undeclared name %q", n.Name)
		}
		t, err := c.checkExpr(n.Value)
		if err != nil {
			return err
		}
		if !t.Equal(declared) {
			return diag.New(diag.TypeMismatch, n.Pos, "cannot assign %s to %q of type %s", t, n.Name, declared)
		}
		return nil

	case *ast.ExprStmt:
		t, err := c.checkExpr(n.X)
		if err != nil {
			return err
		}
		if t.Kind != ast.KindVoid {
			c.Warnings = append(c.Warnings, n.Pos.String()+": result of call is ignored")
		}
		return nil

	case *ast.If:
		t, err := c.checkExpr(n.Cond)
		if err != nil {
			return err
		}
		if t.Kind != ast.KindBool {
			return diag.New(diag.TypeMismatch, n.Pos, "if condition must be bool, got %s", t)
		}
		if err := c.checkBlock(n.Then); err != nil {
			return err
		}
		if n.Else != nil {
			return c.checkBlock(n.Else)
		}
		return nil

	case *ast.While:
		t, err := c.checkExpr(n.Cond)
		if err != nil {
			return err
		}
		if t.Kind != ast.KindBool {
			return diag.New(diag.TypeMismatch, n.Pos, "while condition must be bool, got %s", t)
		}
		c.loopDepth++
		err2 := c.checkBlock(n.Body)
		c.loopDepth--
		return err2

	case *ast.Break:
		if c.loopDepth == 0 {
			return diag.New(diag.ParseError, n.Pos, "break outside of a loop")
		}
		return nil

	case *ast.Continue:
		if c.loopDepth == 0 {
			return diag.New(diag.ParseError, n.Pos, "continue outside of a loop")
		}
		return nil

	case *ast.Return:
		ret, _ := c.enclosingFunc()
		if n.Value == nil {
			if ret.Kind != ast.KindVoid {
				return diag.New(diag.TypeMismatch, n.Pos, "missing return value, function returns %s", ret)
			}
			return nil
		}
		t, err := c.checkExpr(n.Value)
		if err != nil {
			return err
		}
		if ret.Kind == ast.KindVoid {
			return diag.New(diag.TypeMismatch, n.Pos, "void function cannot return a value")
		}
		if !t.Equal(ret) {
			return diag.New(diag.TypeMismatch, n.Pos, "return type %s does not match function's declared %s", t, ret)
		}
		return nil

	case *ast.FuncDeclStmt:
		if err := c.declare(n.Decl.Pos, n.Decl.Name, funcType(n.Decl)); err != nil {
			return err
		}
		return c.checkFuncDecl(n.Decl)
	}
	return diag.New(diag.ParseError, s.Position(), "unhandled statement kind")
}

func (c *Checker) checkExpr(e ast.Expr) (ast.Type, *diag.Error) {
	switch n := e.(type) {
	case *ast.NumberLit:
		n.SetExprType(ast.Int)
		return ast.Int, nil

	case *ast.BoolLit:
		n.SetExprType(ast.Bool)
		return ast.Bool, nil

	case *ast.Ident:
		t, ok := c.lookup(n.Name)
		if !ok {
			return ast.Type{}, diag.New(diag.UndeclaredName, n.Pos, "undeclared name %q", n.Name)
		}
		n.SetExprType(t)
		return t, nil

	case *ast.UnOp:
		t, err := c.checkExpr(n.Operand)
		if err != nil {
			return ast.Type{}, err
		}
		switch n.Op {
		case "!":
			if t.Kind != ast.KindBool {
				return ast.Type{}, diag.New(diag.TypeMismatch, n.Pos, "operator ! requires bool, got %s", t)
			}
			n.SetExprType(ast.Bool)
			return ast.Bool, nil
		case "-", "~":
			if t.Kind != ast.KindInt {
				return ast.Type{}, diag.New(diag.TypeMismatch, n.Pos, "operator %s requires int, got %s", n.Op, t)
			}
			n.SetExprType(ast.Int)
			return ast.Int, nil
		}
		return ast.Type{}, diag.New(diag.ParseError, n.Pos, "unknown unary operator %q", n.Op)

	case *ast.BinOp:
		return c.checkBinOp(n)

	case *ast.Call:
		return c.checkCall(n)
	}
	return ast.Type{}, diag.New(diag.ParseError, e.Position(), "unhandled expression kind")
}

var shortCircuitOps = map[string]bool{"&&": true, "||": true}
var comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (c *Checker) checkBinOp(n *ast.BinOp) (ast.Type, *diag.Error) {
	lt, err := c.checkExpr(n.Left)
	if err != nil {
		return ast.Type{}, err
	}
	rt, err := c.checkExpr(n.Right)
	if err != nil {
		return ast.Type{}, err
	}
	switch {
	case shortCircuitOps[n.Op]:
		if lt.Kind != ast.KindBool || rt.Kind != ast.KindBool {
			return ast.Type{}, diag.New(diag.TypeMismatch, n.Pos, "operator %s requires bool operands, got %s and %s", n.Op, lt, rt)
		}
		n.SetExprType(ast.Bool)
		return ast.Bool, nil
	case comparisonOps[n.Op]:
		if lt.Kind != ast.KindInt || rt.Kind != ast.KindInt {
			return ast.Type{}, diag.New(diag.TypeMismatch, n.Pos, "operator %s requires int operands, got %s and %s", n.Op, lt, rt)
		}
		n.SetExprType(ast.Bool)
		return ast.Bool, nil
	default: // arithmetic / bitwise / shift
		if lt.Kind != ast.KindInt || rt.Kind != ast.KindInt {
			return ast.Type{}, diag.New(diag.TypeMismatch, n.Pos, "operator %s requires int operands, got %s and %s", n.Op, lt, rt)
		}
		n.SetExprType(ast.Int)
		return ast.Int, nil
	}
}

func (c *Checker) checkCall(n *ast.Call) (ast.Type, *diag.Error) {
	if n.Callee.Name == "print" {
		if len(n.Args) != 1 {
			return ast.Type{}, diag.New(diag.ArityMismatch, n.Pos, "print takes exactly one argument")
		}
		at, err := c.checkExpr(n.Args[0])
		if err != nil {
			return ast.Type{}, err
		}
		if at.Kind != ast.KindInt && at.Kind != ast.KindBool {
			return ast.Type{}, diag.New(diag.TypeMismatch, n.Pos, "print requires int or bool, got %s", at)
		}
		n.Callee.SetExprType(ast.Function([]ast.Type{at}, ast.Void))
		n.SetExprType(ast.Void)
		return ast.Void, nil
	}

	ft, ok := c.lookup(n.Callee.Name)
	if !ok {
		return ast.Type{}, diag.New(diag.UndeclaredName, n.Pos, "undeclared name %q", n.Callee.Name)
	}
	if ft.Kind != ast.KindFunction {
		return ast.Type{}, diag.New(diag.TypeMismatch, n.Pos, "%q is not callable (type %s)", n.Callee.Name, ft)
	}
	n.Callee.SetExprType(ft)
	if len(n.Args) != len(ft.Params) {
		return ast.Type{}, diag.New(diag.ArityMismatch, n.Pos, "%q expects %d argument(s), got %d", n.Callee.Name, len(ft.Params), len(n.Args))
	}
	for i, a := range n.Args {
		at, err := c.checkExpr(a)
		if err != nil {
			return ast.Type{}, err
		}
		if !at.Equal(ft.Params[i]) {
			return ast.Type{}, diag.New(diag.TypeMismatch, n.Pos, "argument %d of %q: expected %s, got %s", i+1, n.Callee.Name, ft.Params[i], at)
		}
	}
	n.SetExprType(*ft.Ret)
	return *ft.Ret, nil
}
