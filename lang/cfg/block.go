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

// Package cfg rebuilds a control flow graph out of a flat TAC stream and
// runs a fixed set of peephole optimizations: unreachable code
// elimination, block coalescing, jump threading (both the unconditional
// "sequencing" form and the conditional-to-unconditional form), liveness,
// copy propagation and dead copy elimination. It deliberately does not
// build SSA/phi nodes — the closed, non-SSA TAC vocabulary has no phi
// opcode, so the optimizations here all operate directly on plain TAC
// temporaries.
package cfg

import "github.com/launix-de/bxc/lang/ir"

// jumps is the set of opcodes that transfer control, including the
// unconditional "jmp".
var jumps = map[ir.Opcode]bool{
	ir.OpJmp: true, ir.OpJz: true, ir.OpJnz: true,
	ir.OpJl: true, ir.OpJle: true, ir.OpJg: true, ir.OpJge: true,
}

// Block is one label-delimited run of instructions. IsEntry marks the
// block that opens a procedure, in which case Insns[0] is the `proc`
// instruction itself and the label follows at index 1.
type Block struct {
	Label ir.Temp
	Insns []ir.Insn
	IsEntry bool

	def, use         []Set
	liveIn, liveOut  []Set
}

func newBlock(insns []ir.Insn, isEntry bool) *Block {
	labelIdx := 0
	if isEntry {
		labelIdx = 1
	}
	return &Block{Label: insns[labelIdx].Args[0].T, Insns: insns, IsEntry: isEntry}
}

// Jumps returns every outgoing-edge instruction in the block, in order.
func (b *Block) Jumps() []int {
	var idx []int
	for i, insn := range b.Insns {
		if jumps[insn.Op] {
			idx = append(idx, i)
		}
	}
	return idx
}

// jumpTarget is the label an edge instruction transfers to: a
// conditional jump's Result, or an unconditional jmp's Result.
func jumpTarget(insn ir.Insn) ir.Temp {
	return insn.Result.T
}

// buildDefUse fills b.def/b.use and returns the block-level union of
// both, skipping label instructions. A conditional jump uses the temp it
// tests; its Label result is not an ordinary temp, so it defines nothing.
func (b *Block) buildDefUse() (defBlock, useBlock Set) {
	n := len(b.Insns)
	b.def = make([]Set, n)
	b.use = make([]Set, n)
	defBlock, useBlock = Set{}, Set{}
	for i, insn := range b.Insns {
		b.def[i], b.use[i] = Set{}, Set{}
		if insn.Op == ir.OpLabel {
			continue
		}
		for _, u := range insn.Uses() {
			if u.IsOrdinary() {
				b.use[i][u] = true
				useBlock[u] = true
			}
		}
		if d, ok := insn.Defs(); ok && d.IsOrdinary() {
			b.def[i][d] = true
			defBlock[d] = true
		}
	}
	return
}

// buildLiveness back-propagates liveOut (the join of successor live-ins,
// computed by the caller) through the block's instructions.
func (b *Block) buildLiveness(liveOutBlock Set) {
	n := len(b.Insns)
	b.liveIn = make([]Set, n)
	b.liveOut = make([]Set, n)
	live := liveOutBlock
	for i := n - 1; i >= 0; i-- {
		b.liveOut[i] = live
		b.liveIn[i] = b.use[i].Join(b.liveOut[i].Minus(b.def[i]))
		live = b.liveIn[i]
	}
}

func (b *Block) liveInAt(i int) Set {
	if i < len(b.liveIn) {
		return b.liveIn[i]
	}
	return Set{}
}

func (b *Block) liveOutAt(i int) Set {
	if i < len(b.liveOut) {
		return b.liveOut[i]
	}
	return Set{}
}
