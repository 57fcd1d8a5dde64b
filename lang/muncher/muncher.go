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

// Package muncher lowers a type-checked ast.Program to a flat TAC
// instruction list. It dispatches every expression
// through one of two strategies: value mode (munchValue, producing a
// Temp) or boolean mode (munchBool, threaded on a (Ltrue, Lfalse) label
// pair) — the latter is what makes short-circuit && / || and comparison
// lowering fall straight out of control flow instead of needing a
// separate boolean-materialization step at every use site.
package muncher

import (
	"github.com/launix-de/bxc/lang/ast"
	"github.com/launix-de/bxc/lang/diag"
	"github.com/launix-de/bxc/lang/ir"
	"github.com/launix-de/bxc/lang/token"
	"github.com/launix-de/bxc/lang/typecheck"
)

// Munch lowers an entire type-checked program into ctx.Insns. It emits
// globals first, then every top-level procedure in source order, then
// drains the lambda queue, appending the already-munched bodies of
// hoisted nested `def`s (including defs nested inside other lambdas).
func Munch(ctx *ir.Context, prog *ast.Program) *diag.Error {
	ctx.PushScope() // global scope

	for _, d := range prog.Decls {
		if g, ok := d.(*ast.GlobalVarDecl); ok {
			if err := munchGlobal(ctx, g); err != nil {
				return err
			}
		}
	}

	for _, d := range prog.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok {
			if err := munchFuncDecl(ctx, fd); err != nil {
				return err
			}
		}
	}

	for len(ctx.PendingLambdas) > 0 {
		next := ctx.PendingLambdas[0]
		ctx.PendingLambdas = ctx.PendingLambdas[1:]
		if err := next(); err != nil {
			return err
		}
	}

	ctx.PopScope()
	ctx.Process()
	return nil
}

func munchGlobal(ctx *ir.Context, g *ast.GlobalVarDecl) *diag.Error {
	var lit int64
	switch n := g.Init.(type) {
	case *ast.NumberLit:
		lit = n.Value
	case *ast.BoolLit:
		if n.Value {
			lit = 1
		}
	}
	gt := ir.NewGlobal(g.Name)
	ctx.Emit(ir.Insn{Op: ir.OpConst, Args: []ir.Operand{ir.ConstOp(lit)}, Result: resultOp(ir.Op(gt))})
	return ctx.Declare(g.Pos, g.Name, g.Type, gt)
}

func resultOp(o ir.Operand) *ir.Operand { return &o }

func munchFuncDecl(ctx *ir.Context, fd *ast.FuncDecl) *diag.Error {
	ctx.PushFuncName(fd.Name)
	err := munchFuncBody(ctx, fd, ctx.QualifiedFuncName())
	ctx.PopFuncName()
	return err
}

func funcTypeOf(fd *ast.FuncDecl) ast.Type {
	params := make([]ast.Type, len(fd.Params))
	for i, p := range fd.Params {
		params[i] = p.Type
	}
	return ast.Function(params, fd.Ret)
}

// munchFuncBody emits `proc ... -> name`, the entry label, the parameter
// prologue, the body, and a trailing `ret` guaranteeing the muncher's
// "every procedure ends in ret" invariant even when the function body
// does not syntactically end in a return statement (e.g. a `void main`).
func munchFuncBody(ctx *ir.Context, fd *ast.FuncDecl, qualifiedName string) *diag.Error {
	paramNames := make([]ir.Operand, len(fd.Params))
	for i, p := range fd.Params {
		paramNames[i] = ir.NameOp(p.Name)
	}
	ctx.Emit(ir.Insn{Op: ir.OpProc, Args: paramNames, Result: resultOp(ir.NameOp(qualifiedName))})
	entry := ctx.NewLabel()
	ctx.Emit(ir.Insn{Op: ir.OpLabel, Args: []ir.Operand{ir.Op(entry)}})

	ctx.PushFuncScope(qualifiedName, fd.Ret)
	ctx.ResetParamCounter()

	for _, p := range fd.Params {
		if p.Type.Kind == ast.KindFunction {
			codeParam := ctx.NewParamTemp()
			codeT := ctx.NewOrdinaryFor(qualifiedName)
			emitCopy(ctx, ir.Op(codeParam), codeT)
			slParam := ctx.NewParamTemp()
			slT := ctx.NewOrdinaryFor(qualifiedName)
			emitCopy(ctx, ir.Op(slParam), slT)
			if err := ctx.Declare(fd.Pos, p.Name, p.Type, codeT); err != nil {
				return err
			}
			if err := ctx.Declare(fd.Pos, p.Name+"$static_link", p.Type, slT); err != nil {
				return err
			}
		} else {
			pt := ctx.NewParamTemp()
			t := ctx.NewOrdinaryFor(qualifiedName)
			emitCopy(ctx, ir.Op(pt), t)
			if err := ctx.Declare(fd.Pos, p.Name, p.Type, t); err != nil {
				return err
			}
		}
	}

	slParam := ctx.NewParamTemp()
	slT := ctx.NewOrdinaryFor(qualifiedName)
	ctx.Emit(ir.Insn{Op: ir.OpCopy, Args: []ir.Operand{ir.Op(slParam), ir.NameOp("static_link_flag")}, Result: resultOp(ir.Op(slT))})
	ctx.IncomingStaticLink[qualifiedName] = slT

	if err := munchBlock(ctx, fd.Body); err != nil {
		return err
	}

	switch fd.Ret.Kind {
	case ast.KindVoid:
		ctx.Emit(ir.Insn{Op: ir.OpRet})
	default:
		fallback := ctx.NewOrdinaryFor(qualifiedName)
		ctx.Emit(ir.Insn{Op: ir.OpConst, Args: []ir.Operand{ir.ConstOp(0)}, Result: resultOp(ir.Op(fallback))})
		ctx.Emit(ir.Insn{Op: ir.OpRet, Args: []ir.Operand{ir.Op(fallback)}})
	}

	ctx.PopScope()
	return nil
}

func emitCopy(ctx *ir.Context, src ir.Operand, dst ir.Temp) {
	ctx.Emit(ir.Insn{Op: ir.OpCopy, Args: []ir.Operand{src}, Result: resultOp(ir.Op(dst))})
}

func munchBlock(ctx *ir.Context, b *ast.Block) *diag.Error {
	ctx.PushScope()
	for _, s := range b.Stmts {
		if err := munchStmt(ctx, s); err != nil {
			return err
		}
	}
	ctx.PopScope()
	return nil
}

func curFunc(ctx *ir.Context) string {
	name, _, _ := ctx.CurrentFunc()
	return name
}

func munchStmt(ctx *ir.Context, s ast.Stmt) *diag.Error {
	switch n := s.(type) {
	case *ast.VarDecl:
		t, err := munchValue(ctx, n.Init)
		if err != nil {
			return err
		}
		return ctx.Declare(n.Pos, n.Name, n.Type, t)

	case *ast.Assign:
		b, ok := ctx.Lookup(n.Name)
		if !ok {
			return diag.New(diag.UndeclaredName, n.Pos, "undeclared name %q", n.Name)
		}
		t, err := munchValue(ctx, n.Value)
		if err != nil {
			return err
		}
		emitCopy(ctx, ir.Op(t), b.Temp)
		return nil

	case *ast.ExprStmt:
		call, ok := n.X.(*ast.Call)
		if !ok {
			return diag.New(diag.ParseError, n.Pos, "statement expression must be a call")
		}
		_, _, err := munchCall(ctx, call)
		return err

	case *ast.If:
		return munchIf(ctx, n)

	case *ast.While:
		return munchWhile(ctx, n)

	case *ast.Break:
		l, ok := ctx.CurrentBreak()
		if !ok {
			return diag.New(diag.ParseError, n.Pos, "break outside of a loop")
		}
		emitJmp(ctx, l)
		return nil

	case *ast.Continue:
		l, ok := ctx.CurrentContinue()
		if !ok {
			return diag.New(diag.ParseError, n.Pos, "continue outside of a loop")
		}
		emitJmp(ctx, l)
		return nil

	case *ast.Return:
		return munchReturn(ctx, n)

	case *ast.FuncDeclStmt:
		return munchLambda(ctx, n.Decl)
	}
	return diag.New(diag.ParseError, s.Position(), "unhandled statement kind")
}

func emitJmp(ctx *ir.Context, target ir.Temp) {
	ctx.Emit(ir.Insn{Op: ir.OpJmp, Result: resultOp(ir.Op(target))})
}

func emitLabel(ctx *ir.Context, l ir.Temp) {
	ctx.Emit(ir.Insn{Op: ir.OpLabel, Args: []ir.Operand{ir.Op(l)}})
}

func munchIf(ctx *ir.Context, n *ast.If) *diag.Error {
	if n.Else == nil {
		lthen, lend := ctx.NewLabel(), ctx.NewLabel()
		if err := munchBool(ctx, n.Cond, lthen, lend); err != nil {
			return err
		}
		emitLabel(ctx, lthen)
		if err := munchBlock(ctx, n.Then); err != nil {
			return err
		}
		emitLabel(ctx, lend)
		return nil
	}
	lthen, lelse, lend := ctx.NewLabel(), ctx.NewLabel(), ctx.NewLabel()
	if err := munchBool(ctx, n.Cond, lthen, lelse); err != nil {
		return err
	}
	emitLabel(ctx, lthen)
	if err := munchBlock(ctx, n.Then); err != nil {
		return err
	}
	emitJmp(ctx, lend)
	emitLabel(ctx, lelse)
	if err := munchBlock(ctx, n.Else); err != nil {
		return err
	}
	emitLabel(ctx, lend)
	return nil
}

func munchWhile(ctx *ir.Context, n *ast.While) *diag.Error {
	lstart, lbody, lend := ctx.NewLabel(), ctx.NewLabel(), ctx.NewLabel()
	ctx.PushBreak(lend)
	ctx.PushContinue(lstart)
	emitLabel(ctx, lstart)
	if err := munchBool(ctx, n.Cond, lbody, lend); err != nil {
		ctx.PopContinue()
		ctx.PopBreak()
		return err
	}
	emitLabel(ctx, lbody)
	err := munchBlock(ctx, n.Body)
	emitJmp(ctx, lstart)
	emitLabel(ctx, lend)
	ctx.PopContinue()
	ctx.PopBreak()
	return err
}

func munchReturn(ctx *ir.Context, n *ast.Return) *diag.Error {
	_, ret, _ := ctx.CurrentFunc()
	q := curFunc(ctx)
	if n.Value == nil {
		ctx.Emit(ir.Insn{Op: ir.OpRet})
		return nil
	}
	switch ret.Kind {
	case ast.KindInt:
		t, err := munchValue(ctx, n.Value)
		if err != nil {
			return err
		}
		t2 := ctx.NewOrdinaryFor(q)
		emitCopy(ctx, ir.Op(t), t2)
		ctx.Emit(ir.Insn{Op: ir.OpRet, Args: []ir.Operand{ir.Op(t2)}})
	case ast.KindBool:
		ltrue, lfalse := ctx.NewLabel(), ctx.NewLabel()
		if err := munchBool(ctx, n.Value, ltrue, lfalse); err != nil {
			return err
		}
		emitLabel(ctx, ltrue)
		t1 := ctx.NewOrdinaryFor(q)
		ctx.Emit(ir.Insn{Op: ir.OpConst, Args: []ir.Operand{ir.ConstOp(1)}, Result: resultOp(ir.Op(t1))})
		ctx.Emit(ir.Insn{Op: ir.OpRet, Args: []ir.Operand{ir.Op(t1)}})
		emitLabel(ctx, lfalse)
		t2 := ctx.NewOrdinaryFor(q)
		ctx.Emit(ir.Insn{Op: ir.OpConst, Args: []ir.Operand{ir.ConstOp(0)}, Result: resultOp(ir.Op(t2))})
		ctx.Emit(ir.Insn{Op: ir.OpRet, Args: []ir.Operand{ir.Op(t2)}})
	default:
		return diag.New(diag.TypeMismatch, n.Pos, "cannot return a value from a void function")
	}
	return nil
}

// munchLambda hoists a nested `def`: bind its closure value in the
// current scope, munch its body right away (while the enclosing scopes
// that its captured names resolve in are still open) into a separate
// buffer, and queue that buffer to be appended after the rest of the
// program has been emitted.
func munchLambda(ctx *ir.Context, fd *ast.FuncDecl) *diag.Error {
	enclosing := ctx.QualifiedFuncName()
	q := enclosing
	label := ctx.NextLambdaLabel(enclosing, fd.Name)

	codeT := ctx.NewOrdinaryFor(q)
	ctx.Emit(ir.Insn{Op: ir.OpConst, Args: []ir.Operand{ir.NameOp(label)}, Result: resultOp(ir.Op(codeT))})
	slT := ctx.NewOrdinaryFor(q)
	ctx.Emit(ir.Insn{Op: ir.OpGetFp, Result: resultOp(ir.Op(slT))})

	ft := funcTypeOf(fd)
	if err := ctx.Declare(fd.Pos, fd.Name, ft, codeT); err != nil {
		return err
	}
	if err := ctx.Declare(fd.Pos, fd.Name+"$static_link", ft, slT); err != nil {
		return err
	}

	outer := ctx.Insns
	ctx.Insns = nil
	ctx.PushFuncName(fd.Name)
	err := munchFuncBody(ctx, fd, label)
	ctx.PopFuncName()
	body := ctx.Insns
	ctx.Insns = outer
	if err != nil {
		return err
	}
	ctx.PendingLambdas = append(ctx.PendingLambdas, func() *diag.Error {
		ctx.Insns = append(ctx.Insns, body...)
		return nil
	})
	return nil
}

// munchValue lowers e in value mode: the returned Temp holds e's value.
func munchValue(ctx *ir.Context, e ast.Expr) (ir.Temp, *diag.Error) {
	q := curFunc(ctx)
	switch n := e.(type) {
	case *ast.NumberLit:
		t := ctx.NewOrdinaryFor(q)
		ctx.Emit(ir.Insn{Op: ir.OpConst, Args: []ir.Operand{ir.ConstOp(n.Value)}, Result: resultOp(ir.Op(t))})
		return t, nil

	case *ast.BoolLit:
		return materializeBool(ctx, n)

	case *ast.Ident:
		b, ok := ctx.Lookup(n.Name)
		if !ok {
			return ir.Temp{}, diag.New(diag.UndeclaredName, n.Pos, "undeclared name %q", n.Name)
		}
		t := ctx.NewOrdinaryFor(q)
		emitCopy(ctx, ir.Op(b.Temp), t)
		return t, nil

	case *ast.UnOp:
		return munchUnOp(ctx, n)

	case *ast.BinOp:
		if n.ExprType().Kind == ast.KindBool {
			return materializeBool(ctx, n)
		}
		return munchArithBinOp(ctx, n)

	case *ast.Call:
		t, has, err := munchCall(ctx, n)
		if err != nil {
			return ir.Temp{}, err
		}
		if !has {
			return ir.Temp{}, diag.New(diag.TypeMismatch, n.Pos, "call does not produce a value")
		}
		return t, nil
	}
	return ir.Temp{}, diag.New(diag.ParseError, e.Position(), "unhandled expression kind")
}

var unaryOpcode = map[string]ir.Opcode{"-": ir.OpNeg, "~": ir.OpNot}

func munchUnOp(ctx *ir.Context, n *ast.UnOp) (ir.Temp, *diag.Error) {
	if n.Op == "!" {
		return materializeBool(ctx, n)
	}
	q := curFunc(ctx)
	te, err := munchValue(ctx, n.Operand)
	if err != nil {
		return ir.Temp{}, err
	}
	t := ctx.NewOrdinaryFor(q)
	ctx.Emit(ir.Insn{Op: unaryOpcode[n.Op], Args: []ir.Operand{ir.Op(te)}, Result: resultOp(ir.Op(t))})
	return t, nil
}

var arithOpcode = map[string]ir.Opcode{
	"+": ir.OpAdd, "-": ir.OpSub, "&": ir.OpAnd, "|": ir.OpOr, "^": ir.OpXor,
	"*": ir.OpMul, "/": ir.OpDiv, "%": ir.OpMod, "<<": ir.OpShl, ">>": ir.OpShr,
}

func munchArithBinOp(ctx *ir.Context, n *ast.BinOp) (ir.Temp, *diag.Error) {
	q := curFunc(ctx)
	tl, err := munchValue(ctx, n.Left)
	if err != nil {
		return ir.Temp{}, err
	}
	tr, err := munchValue(ctx, n.Right)
	if err != nil {
		return ir.Temp{}, err
	}
	t := ctx.NewOrdinaryFor(q)
	ctx.Emit(ir.Insn{Op: arithOpcode[n.Op], Args: []ir.Operand{ir.Op(tl), ir.Op(tr)}, Result: resultOp(ir.Op(t))})
	return t, nil
}

// materializeBool builds a Bool value by running e in boolean mode
// against fresh labels and joining the two branches into one temp. The
// temp is intentionally defined at two
// sites (one per mutually exclusive branch) — equivalent to a variable
// written from both arms of an if/else, not a violation of single-temp
// discipline for straight-line code.
func materializeBool(ctx *ir.Context, e ast.Expr) (ir.Temp, *diag.Error) {
	q := curFunc(ctx)
	ltrue, lfalse, lend := ctx.NewLabel(), ctx.NewLabel(), ctx.NewLabel()
	if err := munchBool(ctx, e, ltrue, lfalse); err != nil {
		return ir.Temp{}, err
	}
	t := ctx.NewOrdinaryFor(q)
	emitLabel(ctx, ltrue)
	ctx.Emit(ir.Insn{Op: ir.OpConst, Args: []ir.Operand{ir.ConstOp(1)}, Result: resultOp(ir.Op(t))})
	emitJmp(ctx, lend)
	emitLabel(ctx, lfalse)
	ctx.Emit(ir.Insn{Op: ir.OpConst, Args: []ir.Operand{ir.ConstOp(0)}, Result: resultOp(ir.Op(t))})
	emitJmp(ctx, lend)
	emitLabel(ctx, lend)
	return t, nil
}

// munchBool lowers e in boolean mode, threaded on (ltrue, lfalse). This is
// where short-circuit evaluation and comparison-to-branch fusion happen:
// a plain Ident in boolean mode threads a single jnz to Ltrue followed by
// an unconditional jmp to Lfalse, and a comparison branches on the `sub`
// result rather than re-testing the raw operand.
func munchBool(ctx *ir.Context, e ast.Expr, ltrue, lfalse ir.Temp) *diag.Error {
	switch n := e.(type) {
	case *ast.BoolLit:
		if n.Value {
			emitJmp(ctx, ltrue)
		} else {
			emitJmp(ctx, lfalse)
		}
		return nil

	case *ast.UnOp:
		if n.Op == "!" {
			return munchBool(ctx, n.Operand, lfalse, ltrue)
		}

	case *ast.BinOp:
		switch n.Op {
		case "&&":
			lmid := ctx.NewLabel()
			if err := munchBool(ctx, n.Left, lmid, lfalse); err != nil {
				return err
			}
			emitLabel(ctx, lmid)
			return munchBool(ctx, n.Right, ltrue, lfalse)
		case "||":
			lmid := ctx.NewLabel()
			if err := munchBool(ctx, n.Left, ltrue, lmid); err != nil {
				return err
			}
			emitLabel(ctx, lmid)
			return munchBool(ctx, n.Right, ltrue, lfalse)
		default:
			if op, ok := ir.CondOpcodes[n.Op]; ok {
				tl, err := munchValue(ctx, n.Left)
				if err != nil {
					return err
				}
				tr, err := munchValue(ctx, n.Right)
				if err != nil {
					return err
				}
				q := curFunc(ctx)
				t := ctx.NewOrdinaryFor(q)
				ctx.Emit(ir.Insn{Op: ir.OpSub, Args: []ir.Operand{ir.Op(tl), ir.Op(tr)}, Result: resultOp(ir.Op(t))})
				ctx.Emit(ir.Insn{Op: op, Args: []ir.Operand{ir.Op(t)}, Result: resultOp(ir.Op(ltrue))})
				emitJmp(ctx, lfalse)
				return nil
			}
		}
	}

	// Default: evaluate in value mode (covers Ident and any other
	// Bool-valued expression) and test the resulting temp against zero.
	t, err := munchValue(ctx, e)
	if err != nil {
		return err
	}
	ctx.Emit(ir.Insn{Op: ir.OpJnz, Args: []ir.Operand{ir.Op(t)}, Result: resultOp(ir.Op(ltrue))})
	emitJmp(ctx, lfalse)
	return nil
}

// resolveCallee computes the (code_ptr, static_link) pair for invoking
// name. There are two cases: a name already bound in the lexical scope
// (a hoisted lambda or a Function-typed parameter) is copied from its two
// bound temps; a bare top-level procedure name is loaded as a constant
// code pointer with a zero static link.
func resolveCallee(ctx *ir.Context, pos token.Pos, name string) (ir.Temp, ir.Temp, *diag.Error) {
	q := curFunc(ctx)
	if b, ok := ctx.Lookup(name); ok {
		slB, ok := ctx.LookupStaticLink(name)
		if !ok {
			return ir.Temp{}, ir.Temp{}, diag.New(diag.UndeclaredName, pos, "%q has no associated static link", name)
		}
		codeT := ctx.NewOrdinaryFor(q)
		emitCopy(ctx, ir.Op(b.Temp), codeT)
		slT := ctx.NewOrdinaryFor(q)
		emitCopy(ctx, ir.Op(slB.Temp), slT)
		return codeT, slT, nil
	}
	codeT := ctx.NewOrdinaryFor(q)
	ctx.Emit(ir.Insn{Op: ir.OpConst, Args: []ir.Operand{ir.NameOp(name)}, Result: resultOp(ir.Op(codeT))})
	slT := ctx.NewOrdinaryFor(q)
	ctx.Emit(ir.Insn{Op: ir.OpConst, Args: []ir.Operand{ir.ConstOp(0)}, Result: resultOp(ir.Op(slT))})
	return codeT, slT, nil
}

// munchArgSlots munches one source argument into the one or two physical
// param slots it occupies: a Function-typed argument is a closure and
// needs its code pointer and static link passed as two consecutive slots,
// matching how a Function-typed parameter is received in the prologue.
func munchArgSlots(ctx *ir.Context, a ast.Expr) ([]ir.Temp, *diag.Error) {
	if id, ok := a.(*ast.Ident); ok && id.ExprType().Kind == ast.KindFunction {
		codeT, slT, err := resolveCallee(ctx, id.Pos, id.Name)
		if err != nil {
			return nil, err
		}
		return []ir.Temp{codeT, slT}, nil
	}
	t, err := munchValue(ctx, a)
	if err != nil {
		return nil, err
	}
	return []ir.Temp{t}, nil
}

// munchCall lowers a call expression or call statement. It returns the
// result temp and whether one exists (false for Void calls, including
// every `print`).
func munchCall(ctx *ir.Context, call *ast.Call) (ir.Temp, bool, *diag.Error) {
	if call.Callee.Name == "print" {
		return munchPrint(ctx, call)
	}

	codeT, slT, err := resolveCallee(ctx, call.Pos, call.Callee.Name)
	if err != nil {
		return ir.Temp{}, false, err
	}

	var slots []ir.Temp
	for _, a := range call.Args {
		s, err := munchArgSlots(ctx, a)
		if err != nil {
			return ir.Temp{}, false, err
		}
		slots = append(slots, s...)
	}
	slots = append(slots, slT) // the static link is always the last, highest-indexed param

	for i := len(slots) - 1; i >= 0; i-- {
		ctx.Emit(ir.Insn{Op: ir.OpParam, Args: []ir.Operand{ir.Op(slots[i])}, Result: resultOp(ir.ConstOp(int64(i + 1)))})
	}

	retType := call.ExprType()
	args := []ir.Operand{ir.Op(codeT), ir.ConstOp(int64(len(slots)))}
	if retType.Kind == ast.KindVoid {
		ctx.Emit(ir.Insn{Op: ir.OpCall, Args: args})
		return ir.Temp{}, false, nil
	}
	q := curFunc(ctx)
	t := ctx.NewOrdinaryFor(q)
	ctx.Emit(ir.Insn{Op: ir.OpCall, Args: args, Result: resultOp(ir.Op(t))})
	return t, true, nil
}

func munchPrint(ctx *ir.Context, call *ast.Call) (ir.Temp, bool, *diag.Error) {
	q := curFunc(ctx)
	arg := call.Args[0]
	t, err := munchValue(ctx, arg)
	if err != nil {
		return ir.Temp{}, false, err
	}
	name := typecheck.PrintIntName
	if arg.ExprType().Kind == ast.KindBool {
		name = typecheck.PrintBoolName
	}
	codeT := ctx.NewOrdinaryFor(q)
	ctx.Emit(ir.Insn{Op: ir.OpConst, Args: []ir.Operand{ir.NameOp(name)}, Result: resultOp(ir.Op(codeT))})
	slT := ctx.NewOrdinaryFor(q)
	ctx.Emit(ir.Insn{Op: ir.OpConst, Args: []ir.Operand{ir.ConstOp(0)}, Result: resultOp(ir.Op(slT))})
	ctx.Emit(ir.Insn{Op: ir.OpParam, Args: []ir.Operand{ir.Op(t)}, Result: resultOp(ir.ConstOp(1))})
	ctx.Emit(ir.Insn{Op: ir.OpParam, Args: []ir.Operand{ir.Op(slT)}, Result: resultOp(ir.ConstOp(2))})
	ctx.Emit(ir.Insn{Op: ir.OpCall, Args: []ir.Operand{ir.Op(codeT), ir.ConstOp(2)}})
	return ir.Temp{}, false, nil
}
