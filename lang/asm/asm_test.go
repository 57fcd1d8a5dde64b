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
package asm

import (
	"testing"

	"github.com/launix-de/bxc/lang/ir"
)

func resultOp(o ir.Operand) *ir.Operand { return &o }

func TestMangle(t *testing.T) {
	cases := map[string]string{
		"main":            "main",
		"main::add":       "main.add",
		"main::add::aux":  "main.add.aux",
		"__bx_print_int":  "__bx_print_int",
	}
	for in, want := range cases {
		if got := mangle(in); got != want {
			t.Fatalf("mangle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLabelSym(t *testing.T) {
	if got := labelSym(ir.NewLabel(3)); got != ".L3" {
		t.Fatalf("labelSym(.L3) = %q, want .L3", got)
	}
}

func TestDepthDiff(t *testing.T) {
	cases := []struct {
		cur, target string
		want        int
	}{
		{"main::add", "main", 1},
		{"main::add::aux", "main", 2},
		{"main::add::aux", "main::add", 1},
		{"main", "main", 0},
	}
	for _, c := range cases {
		if got := depthDiff(c.cur, c.target); got != c.want {
			t.Fatalf("depthDiff(%q,%q) = %d, want %d", c.cur, c.target, got, c.want)
		}
	}
}

// buildFrame must assign dense, first-seen-order slot indices to every
// locally owned ordinary temp, excluding the incoming static link, and
// compute a stack size rounded up to an even word count (Property 6).
func TestBuildFrame_SlotsAndSize(t *testing.T) {
	ctx := ir.NewContext()
	t0 := ir.NewOrdinary(5)
	t1 := ir.NewOrdinary(9)
	ctx.FuncOfTemp[t0] = "main"
	ctx.FuncOfTemp[t1] = "main"

	label := ir.NewLabel(0)
	insns := []ir.Insn{
		{Op: ir.OpProc, Result: &ir.Operand{IsName: true, Name: "main"}},
		{Op: ir.OpLabel, Args: []ir.Operand{ir.Op(label)}},
		{Op: ir.OpConst, Args: []ir.Operand{ir.ConstOp(5)}, Result: resultOp(ir.Op(t0))},
		{Op: ir.OpConst, Args: []ir.Operand{ir.ConstOp(7)}, Result: resultOp(ir.Op(t1))},
		{Op: ir.OpRet, Args: []ir.Operand{ir.Op(t1)}},
	}
	ctx.Insns = insns
	proc := ir.Proc{Name: "main", Start: 0, Finish: len(insns) - 1}
	ctx.Procs = []ir.Proc{proc}

	f := buildFrame(ctx, proc)
	if f.hasStaticLink {
		t.Fatalf("main has no static link, but buildFrame reported one")
	}
	if len(f.slotOf) != 2 {
		t.Fatalf("expected 2 local slots, got %d: %v", len(f.slotOf), f.slotOf)
	}
	if f.slotOf[t0] != 0 || f.slotOf[t1] != 1 {
		t.Fatalf("expected first-seen slot order 0,1, got %d,%d", f.slotOf[t0], f.slotOf[t1])
	}
	// size = len(slots)=2 + 2 + paramCount=0 = 4, already even.
	if f.size != 4 {
		t.Fatalf("expected stack size 4, got %d", f.size)
	}
}

// A procedure with an incoming static link must pin it out of the dense
// slot numbering and still account for it in the stack size.
func TestBuildFrame_StaticLinkExcludedFromSlots(t *testing.T) {
	ctx := ir.NewContext()
	slT := ir.NewOrdinary(0)
	body := ir.NewOrdinary(1)
	ctx.FuncOfTemp[slT] = "main::add"
	ctx.FuncOfTemp[body] = "main::add"
	ctx.IncomingStaticLink["main::add"] = slT

	label := ir.NewLabel(1)
	insns := []ir.Insn{
		{Op: ir.OpProc, Result: &ir.Operand{IsName: true, Name: "main::add"}},
		{Op: ir.OpLabel, Args: []ir.Operand{ir.Op(label)}},
		{Op: ir.OpCopy, Args: []ir.Operand{ir.Op(ir.NewParam(0))}, Result: resultOp(ir.Op(slT))},
		{Op: ir.OpConst, Args: []ir.Operand{ir.ConstOp(1)}, Result: resultOp(ir.Op(body))},
		{Op: ir.OpRet, Args: []ir.Operand{ir.Op(body)}},
	}
	ctx.Insns = insns
	proc := ir.Proc{Name: "main::add", Start: 0, Finish: len(insns) - 1}
	ctx.Procs = []ir.Proc{proc}

	f := buildFrame(ctx, proc)
	if !f.hasStaticLink {
		t.Fatalf("expected buildFrame to recognize the static link")
	}
	if _, ok := f.slotOf[slT]; ok {
		t.Fatalf("the static-link temp must not receive a dense slot")
	}
	if len(f.slotOf) != 1 {
		t.Fatalf("expected exactly 1 dense slot (for body), got %d: %v", len(f.slotOf), f.slotOf)
	}
	// 1 dense slot + 2 + 1 param (%p0) = 4, already even.
	if f.size != 4 {
		t.Fatalf("expected stack size 4, got %d", f.size)
	}
}
