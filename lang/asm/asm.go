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

// Package asm lowers the final (possibly optimized) flat TAC stream to GAS
// syntax x86-64 System V assembly text: a conservative register policy
// (everything lives in a per-procedure stack frame, %r10 is the universal
// scratch register, %r11/%r12 alternate for static-link walking),
// explicit stack-frame layout computed by a first pass over each
// procedure's body (slot indices are assigned densely in first-seen
// order rather than derived from a minimum temp index, so the layout
// survives optimization passes that remove the lowest-numbered
// temporary), and indirect calls through a code-pointer operand because
// closures keep their code pointer in a stack slot rather than a register.
package asm

import (
	"fmt"
	"strings"

	"github.com/launix-de/bxc/lang/diag"
	"github.com/launix-de/bxc/lang/ir"
	"github.com/launix-de/bxc/lang/token"
)

// paramRegs64 is the System V integer argument register order for the
// first six incoming parameter slots.
var paramRegs64 = [6]string{"%rdi", "%rsi", "%rdx", "%rcx", "%r8", "%r9"}

var condMnemonic = map[ir.Opcode]string{
	ir.OpJz: "je", ir.OpJnz: "jne", ir.OpJl: "jl", ir.OpJle: "jle", ir.OpJg: "jg", ir.OpJge: "jge",
}

// frame is one procedure's stack-frame layout: a dense slot index for
// every ordinary temp it locally defines (excluding the incoming static
// link, which is pinned to -8(%rbp) per §4.8), its reserved param-slot
// count, and the rounded-up frame size in 8-byte words.
type frame struct {
	name          string
	slotOf        map[ir.Temp]int
	paramCount    int
	size          int
	hasStaticLink bool
	staticLink    ir.Temp
}

// Assembler accumulates GAS text for one compilation unit.
type Assembler struct {
	ctx    *ir.Context
	frames map[string]*frame
	buf    strings.Builder
}

// Generate renders ctx's globals and every procedure to GAS syntax x86-64
// assembly text. ctx.Process must already have been called (directly or
// via an optimization round) so Globals/Procs are current.
func Generate(ctx *ir.Context) (string, *diag.Error) {
	a := &Assembler{ctx: ctx, frames: map[string]*frame{}}
	for _, p := range ctx.Procs {
		a.frames[p.Name] = buildFrame(ctx, p)
	}

	a.emitDataSection()
	a.emitf(".text")
	for _, p := range ctx.Procs {
		if err := a.emitProc(p); err != nil {
			return "", err
		}
	}
	return a.buf.String(), nil
}

func (a *Assembler) emitf(format string, args ...any) {
	fmt.Fprintf(&a.buf, format+"\n", args...)
}

// mangle turns a muncher-qualified function name ("main::add") into a valid
// GAS symbol ("main.add"); top-level names and runtime symbols
// (__bx_print_int etc.) contain no "::" and pass through unchanged.
func mangle(name string) string {
	return strings.ReplaceAll(name, "::", ".")
}

// labelSym strips the textual "%" prefix off a Label temp's rendering so
// "%.L3" becomes ".L3" — already valid GAS local-label syntax, so no
// further mangling is needed.
func labelSym(t ir.Temp) string {
	return strings.TrimPrefix(t.String(), "%")
}

func allOperands(insn ir.Insn) []ir.Operand {
	out := append([]ir.Operand(nil), insn.Args...)
	if insn.Result != nil {
		out = append(out, *insn.Result)
	}
	return out
}

// buildFrame is the dedicated first pass over one procedure's body that
// assigns dense per-function slot indices to every locally defined
// ordinary temp in first-seen order, separately tracks the incoming
// static-link temp (pinned at -8(%rbp), never part of the dense
// numbering), and measures the highest parameter index used so the
// stack size can be computed.
func buildFrame(ctx *ir.Context, proc ir.Proc) *frame {
	f := &frame{name: proc.Name, slotOf: map[ir.Temp]int{}}
	slTemp, hasSL := ctx.IncomingStaticLink[proc.Name]
	f.hasStaticLink = hasSL
	f.staticLink = slTemp

	maxParam := -1
	for i := proc.Start; i <= proc.Finish; i++ {
		for _, o := range allOperands(ctx.Insns[i]) {
			if !o.IsTemp {
				continue
			}
			t := o.T
			switch t.Kind {
			case ir.Param:
				if int(t.Index) > maxParam {
					maxParam = int(t.Index)
				}
			case ir.Ordinary:
				if ctx.FuncOfTemp[t] != proc.Name {
					continue // captured from an enclosing function
				}
				if hasSL && t == slTemp {
					continue // reserved at -8(%rbp)
				}
				if _, ok := f.slotOf[t]; !ok {
					f.slotOf[t] = len(f.slotOf)
				}
			}
		}
	}

	f.paramCount = maxParam + 1
	size := len(f.slotOf) + 2 + f.paramCount // §4.7: round_up_even(mx-mn+2+A)
	if size%2 != 0 {
		size++
	}
	f.size = size
	return f
}

func (a *Assembler) emitDataSection() {
	if len(a.ctx.Globals) == 0 {
		return
	}
	a.emitf(".data")
	for _, insn := range a.ctx.Globals {
		if insn.Op != ir.OpConst || insn.Result == nil {
			continue
		}
		a.emitf("%s:", insn.Result.T.Name)
		a.emitf(".quad %d", insn.Args[0].Const)
	}
}

func (a *Assembler) emitProc(proc ir.Proc) *diag.Error {
	f := a.frames[proc.Name]
	name := mangle(proc.Name)
	a.emitf(".globl %s", name)
	a.emitf("%s:", name)
	a.emitf("pushq %%rbp")
	a.emitf("movq %%rsp, %%rbp")
	a.emitf("subq $%d, %%rsp", 8*f.size)

	for i := proc.Start + 1; i <= proc.Finish; i++ {
		if err := a.emitInsn(f, a.ctx.Insns[i]); err != nil {
			return err
		}
	}
	return nil
}

func (a *Assembler) emitInsn(f *frame, insn ir.Insn) *diag.Error {
	switch insn.Op {
	case ir.OpLabel:
		a.emitf("%s:", labelSym(insn.Args[0].T))
	case ir.OpConst:
		a.constOp(f, insn)
	case ir.OpCopy:
		a.copyOp(f, insn)
	case ir.OpAdd:
		a.binary(f, insn, "add")
	case ir.OpSub:
		a.binary(f, insn, "sub")
	case ir.OpAnd:
		a.binary(f, insn, "and")
	case ir.OpOr:
		a.binary(f, insn, "or")
	case ir.OpXor:
		a.binary(f, insn, "xor")
	case ir.OpMul:
		a.mulOp(f, insn)
	case ir.OpDiv:
		a.divOp(f, insn, false)
	case ir.OpMod:
		a.divOp(f, insn, true)
	case ir.OpShl:
		a.shiftOp(f, insn, "shl")
	case ir.OpShr:
		a.shiftOp(f, insn, "shr")
	case ir.OpNeg:
		a.unary(f, insn, "neg")
	case ir.OpNot:
		a.unary(f, insn, "not")
	case ir.OpJmp:
		a.emitf("jmp %s", labelSym(jmpTarget(insn).T))
	case ir.OpJz, ir.OpJnz, ir.OpJl, ir.OpJle, ir.OpJg, ir.OpJge:
		a.condJump(f, insn)
	case ir.OpParam:
		a.paramOp(f, insn)
	case ir.OpCall:
		a.callOp(f, insn)
	case ir.OpRet:
		a.retOp(f, insn)
	case ir.OpGetFp:
		a.getFpOp(f, insn)
	case ir.OpProc:
		// proc boundaries are handled by emitProc itself.
	default:
		return diag.New(diag.UnknownOpcode, token.Pos{}, "unknown TAC opcode %q", insn.Op)
	}
	return nil
}

func jmpTarget(insn ir.Insn) ir.Operand {
	if insn.Result != nil {
		return *insn.Result
	}
	return insn.Args[0]
}

// operand renders o's addressing-mode text. Ordinary temps owned by an
// enclosing function trigger a static-link walk (§4.8), which must emit
// its chase instructions into a.buf *before* the instruction that
// consumes the returned address operand — hence this function takes the
// scratch counter by pointer and may itself call a.emitf.
func (a *Assembler) operand(f *frame, scratch *int, o ir.Operand) string {
	if o.IsConst {
		return fmt.Sprintf("$%d", o.Const)
	}
	if o.IsName {
		return "$" + mangle(o.Name)
	}
	t := o.T
	switch t.Kind {
	case ir.Global:
		return fmt.Sprintf("%s(%%rip)", t.Name)
	case ir.FuncConst:
		return "$" + mangle(t.Name)
	case ir.Label:
		return labelSym(t)
	case ir.Param:
		idx := int(t.Index)
		if idx < 6 {
			return paramRegs64[idx]
		}
		return fmt.Sprintf("%d(%%rbp)", 8*(idx-6+2))
	case ir.Ordinary:
		owner := a.ctx.FuncOfTemp[t]
		if owner == f.name {
			if f.hasStaticLink && t == f.staticLink {
				return "-8(%rbp)"
			}
			return fmt.Sprintf("%d(%%rbp)", -8*(f.slotOf[t]+2))
		}
		return a.nonLocalOperand(f, owner, t, scratch)
	}
	return "?"
}

// nonLocalOperand implements §4.8's static-link walk: load the current
// frame's incoming static link, dereference depth-1 further times, then
// address the temp relative to its owner's own slot numbering. Scratch
// registers alternate %r11/%r12 so two captured operands in one
// instruction don't clobber each other.
func (a *Assembler) nonLocalOperand(f *frame, owner string, t ir.Temp, scratch *int) string {
	reg := "%r11"
	if *scratch%2 == 1 {
		reg = "%r12"
	}
	*scratch++

	a.emitf("movq -8(%%rbp), %s", reg)
	depth := depthDiff(f.name, owner)
	for i := 0; i < depth-1; i++ {
		a.emitf("movq -8(%s), %s", reg, reg)
	}

	of := a.frames[owner]
	if of.hasStaticLink && t == of.staticLink {
		return fmt.Sprintf("-8(%s)", reg)
	}
	return fmt.Sprintf("%d(%s)", -8*(of.slotOf[t]+2), reg)
}

// depthDiff computes the lexical nesting distance between cur and target,
// both "A::B::C" qualified function names where target is a (possibly
// indirect) lexical ancestor of cur.
func depthDiff(cur, target string) int {
	return len(strings.Split(cur, "::")) - len(strings.Split(target, "::"))
}

// loadTo materializes o into register dst, routing through movabsq for
// immediates and bare names (function addresses) since a 64-bit literal
// cannot be encoded as a memory-destination immediate.
func (a *Assembler) loadTo(f *frame, scratch *int, o ir.Operand, dst string) {
	if o.IsConst {
		a.emitf("movabsq $%d, %s", o.Const, dst)
		return
	}
	if o.IsName {
		a.emitf("movabsq $%s, %s", mangle(o.Name), dst)
		return
	}
	a.emitf("movq %s, %s", a.operand(f, scratch, o), dst)
}

func (a *Assembler) storeFrom(f *frame, scratch *int, dst ir.Operand, src string) {
	a.emitf("movq %s, %s", src, a.operand(f, scratch, dst))
}

func (a *Assembler) constOp(f *frame, insn ir.Insn) {
	scratch := 0
	a.loadTo(f, &scratch, insn.Args[0], "%r10")
	a.storeFrom(f, &scratch, *insn.Result, "%r10")
}

// copyOp uses only Args[0] as the source; a `static_link_flag` sentinel
// occasionally riding along in Args[1] (§4.3 step 3) is a dead-copy-pass
// deterrent, not a real second operand.
func (a *Assembler) copyOp(f *frame, insn ir.Insn) {
	scratch := 0
	a.loadTo(f, &scratch, insn.Args[0], "%r10")
	a.storeFrom(f, &scratch, *insn.Result, "%r10")
}

// binary implements the two-operand add/sub/and/or/xor templates. Operands
// are staged through %r10 one at a time (with a pushq/popq around the
// first) rather than kept live across the materialization of the second,
// since materializing either operand can itself emit static-link-walk
// instructions that would otherwise clobber a register holding the first
// operand's value — an accepted cost of the conservative register policy.
func (a *Assembler) binary(f *frame, insn ir.Insn, mnemonic string) {
	scratch := 0
	a.loadTo(f, &scratch, insn.Args[0], "%r10")
	a.emitf("pushq %%r10")
	a.loadTo(f, &scratch, insn.Args[1], "%r10")
	a.emitf("movq %%r10, %%r11")
	a.emitf("popq %%r10")
	a.emitf("%sq %%r11, %%r10", mnemonic)
	a.storeFrom(f, &scratch, *insn.Result, "%r10")
}

func (a *Assembler) unary(f *frame, insn ir.Insn, mnemonic string) {
	scratch := 0
	a.loadTo(f, &scratch, insn.Args[0], "%r10")
	a.emitf("%sq %%r10", mnemonic)
	a.storeFrom(f, &scratch, *insn.Result, "%r10")
}

// mulOp follows §4.7's template: movq a,%rax ; imulq b ; movq %rax, r.
// b must itself land in a register (imulq rejects an immediate operand).
func (a *Assembler) mulOp(f *frame, insn ir.Insn) {
	scratch := 0
	a.loadTo(f, &scratch, insn.Args[0], "%rax")
	a.emitf("pushq %%rax")
	a.loadTo(f, &scratch, insn.Args[1], "%r10")
	a.emitf("popq %%rax")
	a.emitf("imulq %%r10")
	a.storeFrom(f, &scratch, *insn.Result, "%rax")
}

// divOp follows §4.7's template: movq a,%rax ; cqto ; idivq b ; movq
// %rax/%rdx, r depending on whether the caller wants the quotient or the
// remainder.
func (a *Assembler) divOp(f *frame, insn ir.Insn, remainder bool) {
	scratch := 0
	a.loadTo(f, &scratch, insn.Args[0], "%rax")
	a.emitf("pushq %%rax")
	a.loadTo(f, &scratch, insn.Args[1], "%r10")
	a.emitf("popq %%rax")
	a.emitf("cqto")
	a.emitf("idivq %%r10")
	if remainder {
		a.storeFrom(f, &scratch, *insn.Result, "%rdx")
	} else {
		a.storeFrom(f, &scratch, *insn.Result, "%rax")
	}
}

// shiftOp routes the shift count through %cl, as x86 requires.
func (a *Assembler) shiftOp(f *frame, insn ir.Insn, mnemonic string) {
	scratch := 0
	a.loadTo(f, &scratch, insn.Args[0], "%r10")
	a.emitf("pushq %%r10")
	a.loadTo(f, &scratch, insn.Args[1], "%rcx")
	a.emitf("popq %%r10")
	a.emitf("%sq %%cl, %%r10", mnemonic)
	a.storeFrom(f, &scratch, *insn.Result, "%r10")
}

func (a *Assembler) condJump(f *frame, insn ir.Insn) {
	scratch := 0
	a.loadTo(f, &scratch, insn.Args[0], "%r10")
	a.emitf("testq %%r10, %%r10")
	a.emitf("%s %s", condMnemonic[insn.Op], labelSym(insn.Result.T))
}

// paramOp marks s as the (1-based) k-th outgoing argument: the first six
// ABI positions go to their fixed register, the rest are pushed in the
// order the muncher already emits them (highest index first), which lines
// up exactly with the `8*(k-6+2)(%rbp)` offsets the callee's prologue
// expects without any further reordering.
func (a *Assembler) paramOp(f *frame, insn ir.Insn) {
	scratch := 0
	idx := int(insn.Result.Const) - 1
	if idx < 6 {
		a.loadTo(f, &scratch, insn.Args[0], paramRegs64[idx])
		return
	}
	a.loadTo(f, &scratch, insn.Args[0], "%r10")
	a.emitf("pushq %%r10")
}

// callOp always calls indirectly through the code-pointer operand (§4.7:
// "necessary because code pointers live in stack slots") and cleans up any
// stack-passed arguments afterward, since the callee's epilogue only
// restores %rsp to its value at entry.
func (a *Assembler) callOp(f *frame, insn ir.Insn) {
	scratch := 0
	target := a.operand(f, &scratch, insn.Args[0])
	a.emitf("call *%s", target)

	n := int(insn.Args[1].Const)
	if overflow := n - 6; overflow > 0 {
		a.emitf("addq $%d, %%rsp", 8*overflow)
	}

	if insn.Result != nil {
		scratch2 := 0
		a.storeFrom(f, &scratch2, *insn.Result, "%rax")
	}
}

func (a *Assembler) retOp(f *frame, insn ir.Insn) {
	if len(insn.Args) > 0 {
		scratch := 0
		a.loadTo(f, &scratch, insn.Args[0], "%rax")
	} else {
		a.emitf("movq $0, %%rax")
	}
	a.emitf("movq %%rbp, %%rsp")
	a.emitf("popq %%rbp")
	a.emitf("retq")
}

func (a *Assembler) getFpOp(f *frame, insn ir.Insn) {
	scratch := 0
	a.emitf("movq %%rbp, %%r10")
	a.storeFrom(f, &scratch, *insn.Result, "%r10")
}
