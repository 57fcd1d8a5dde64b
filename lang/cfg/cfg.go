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

package cfg

import (
	"strings"

	"github.com/launix-de/bxc/lang/ir"
)

// CFG holds the blocks of every procedure in one compilation unit plus
// the successor graph between their labels. graph[label][target] is the
// index, within the block's Insns, of the edge instruction that jumps to
// target.
type CFG struct {
	Blocks  []*Block
	byLabel map[ir.Temp]*Block
	graph   map[ir.Temp]map[ir.Temp]int
}

// Build partitions ctx.Insns into per-procedure blocks, one per label:
// block boundaries fall exactly at label instructions.
func Build(ctx *ir.Context) *CFG {
	g := &CFG{byLabel: map[ir.Temp]*Block{}}
	for _, proc := range ctx.Procs {
		g.buildProcBlocks(ctx.Insns, proc)
	}
	g.rebuildGraph()
	return g
}

func resultOp(o ir.Operand) *ir.Operand { return &o }

func (g *CFG) buildProcBlocks(insns []ir.Insn, proc ir.Proc) {
	start, finish := proc.Start, proc.Finish
	i := start + 1
	first := true
	for i <= finish {
		var block []ir.Insn
		if first {
			block = append(block, insns[start]) // the `proc` header
		}
		j := i + 1
		for j <= finish && insns[j].Op != ir.OpLabel {
			j++
		}
		block = append(block, insns[i:j]...)

		last := block[len(block)-1]
		if last.Op != ir.OpJmp && last.Op != ir.OpRet && j <= finish {
			target := insns[j].Args[0].T
			block = append(block, ir.Insn{Op: ir.OpJmp, Result: resultOp(ir.Op(target))})
		}

		b := newBlock(block, first)
		g.Blocks = append(g.Blocks, b)
		g.byLabel[b.Label] = b
		first = false
		i = j
	}
}

func (g *CFG) rebuildGraph() {
	g.graph = make(map[ir.Temp]map[ir.Temp]int, len(g.Blocks))
	for _, b := range g.Blocks {
		edges := make(map[ir.Temp]int)
		for _, idx := range b.Jumps() {
			target := jumpTarget(b.Insns[idx])
			if _, exists := edges[target]; !exists {
				edges[target] = idx
			}
		}
		g.graph[b.Label] = edges
	}
}

func (g *CFG) Block(label ir.Temp) (*Block, bool) {
	b, ok := g.byLabel[label]
	return b, ok
}

// ToTAC re-flattens globals followed by every surviving block's
// instructions, the Go analogue of CFG::make_tac.
func ToTAC(ctx *ir.Context, g *CFG) []ir.Insn {
	out := append([]ir.Insn(nil), ctx.Globals...)
	for _, b := range g.Blocks {
		out = append(out, b.Insns...)
	}
	return out
}

func (g *CFG) dfs(label ir.Temp, vis map[ir.Temp]bool) {
	vis[label] = true
	for child := range g.graph[label] {
		if !vis[child] {
			g.dfs(child, vis)
		}
	}
}

// UCE (unreachable code elimination): keep only blocks reachable from
// some procedure's entry label.
func (g *CFG) UCE() {
	vis := map[ir.Temp]bool{}
	for _, b := range g.Blocks {
		if b.IsEntry {
			g.dfs(b.Label, vis)
		}
	}
	var kept []*Block
	for _, b := range g.Blocks {
		if vis[b.Label] {
			kept = append(kept, b)
		} else {
			delete(g.byLabel, b.Label)
		}
	}
	g.Blocks = kept
	g.rebuildGraph()
}

// Coalesce merges L0 -> L1 into one block wherever L0 has exactly one
// successor L1 and L1 has exactly one predecessor, repeating to a fixed
// point.
func (g *CFG) Coalesce() {
	for {
		indeg := map[ir.Temp]int{}
		for _, edges := range g.graph {
			for child := range edges {
				indeg[child]++
			}
		}

		found := false
		for _, b := range g.Blocks {
			edges := g.graph[b.Label]
			if len(edges) != 1 {
				continue
			}
			var child ir.Temp
			for c := range edges {
				child = c
			}
			if child == b.Label || indeg[child] != 1 {
				continue
			}
			cb, ok := g.byLabel[child]
			if !ok || cb.IsEntry {
				continue
			}

			b.Insns = b.Insns[:len(b.Insns)-1] // drop the trailing jmp
			b.Insns = append(b.Insns, cb.Insns[1:]...) // drop child's label
			delete(g.byLabel, child)
			found = true
			break
		}
		if !found {
			break
		}
		g.rebuildGraphFromBlocks()
		g.UCE()
	}
}

// rebuildGraphFromBlocks drops g.Blocks entries whose label was coalesced
// away (removed from byLabel) before recomputing edges.
func (g *CFG) rebuildGraphFromBlocks() {
	var kept []*Block
	for _, b := range g.Blocks {
		if _, ok := g.byLabel[b.Label]; ok {
			kept = append(kept, b)
		}
	}
	g.Blocks = kept
	g.rebuildGraph()
}

// JTSeqUncond threads L0 -jmp-> L1 -jmp-> L2 into L0 -jmp-> L2 whenever
// L1 is a two-instruction dummy block (label + jmp) with no other
// predecessor reachable through this edge, repeating to a fixed point.
func (g *CFG) JTSeqUncond() {
	for {
		found := false
		for _, b := range g.Blocks {
			for child := range g.graph[b.Label] {
				cb, ok := g.byLabel[child]
				if !ok || len(cb.Insns) != 2 || len(g.graph[child]) != 1 {
					continue
				}
				target := jumpTarget(cb.Insns[1])
				idx := g.graph[b.Label][child]
				b.Insns[idx].Result = resultOp(ir.Op(target))
				found = true
				break
			}
			if found {
				break
			}
		}
		if !found {
			break
		}
		g.rebuildGraph()
		g.UCE()
	}
}

// JTCondToUncond looks, for each conditional-jump edge B -> C, for an
// instruction anywhere in C with the same conditional opcode and the
// same argument operands as B's jump. That re-test is redundant on this
// edge, so it is rewritten into an unconditional jmp to its own target
// and the rest of C is dropped. Operands are compared literally: a
// re-test of the same condition through a different temporary is not
// recognised.
func (g *CFG) JTCondToUncond() {
	for {
		found := false
		for _, b := range g.Blocks {
			for child, idx := range g.graph[b.Label] {
				insn := b.Insns[idx]
				if !jumps[insn.Op] || insn.Op == ir.OpJmp {
					continue
				}
				cb, ok := g.byLabel[child]
				if !ok {
					continue
				}
				for ci, cinsn := range cb.Insns {
					if cinsn.Op == insn.Op && sameOperand(cinsn.Args, insn.Args) {
						cb.Insns[ci] = ir.Insn{Op: ir.OpJmp, Result: resultOp(ir.Op(jumpTarget(cinsn)))}
						cb.Insns = cb.Insns[:ci+1]
						found = true
						break
					}
				}
				if found {
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			break
		}
		g.rebuildGraph()
		g.UCE()
	}
}

func sameOperand(a, b []ir.Operand) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// BuildLiveness runs the block-level fixed-point dataflow then refines
// it to per-instruction liveness within each block.
func (g *CFG) BuildLiveness() {
	defBlock := map[ir.Temp]Set{}
	useBlock := map[ir.Temp]Set{}
	for _, b := range g.Blocks {
		d, u := b.buildDefUse()
		defBlock[b.Label] = d
		useBlock[b.Label] = u
	}

	liveIn := map[ir.Temp]Set{}
	liveOut := map[ir.Temp]Set{}
	for _, b := range g.Blocks {
		liveIn[b.Label] = Set{}
		liveOut[b.Label] = Set{}
	}

	changed := true
	for changed {
		changed = false
		for i := len(g.Blocks) - 1; i >= 0; i-- {
			b := g.Blocks[i]
			prevIn, prevOut := liveIn[b.Label], liveOut[b.Label]

			out := Set{}
			for succ := range g.graph[b.Label] {
				out = out.Join(liveIn[succ])
			}
			in := useBlock[b.Label].Join(out.Minus(defBlock[b.Label]))

			liveOut[b.Label] = out
			liveIn[b.Label] = in
			if !in.Equal(prevIn) || !out.Equal(prevOut) {
				changed = true
			}
		}
	}

	for _, b := range g.Blocks {
		b.buildLiveness(liveOut[b.Label])
	}
}

// CopyPropagation rewrites every use of a copy's destination with its
// source, then drops now-redundant self-copies, to a fixed point. This
// runs directly on plain (non-SSA) TAC, so only copies between two
// ordinary temps that each have exactly one static definition in the
// whole CFG are propagated; temps defined more than once (assigned
// variables, materializeBool's two-armed results) and parameter or
// global sources are left alone.
func (g *CFG) CopyPropagation() {
	changed := true
	for changed {
		changed = false
		defs := map[ir.Temp]int{}
		for _, b := range g.Blocks {
			for _, insn := range b.Insns {
				if d, ok := insn.Defs(); ok && d.IsOrdinary() {
					defs[d]++
				}
			}
		}
		copyMap := map[ir.Temp]ir.Operand{}
		for _, b := range g.Blocks {
			for _, insn := range b.Insns {
				if insn.Op == ir.OpCopy && insn.Result != nil && insn.Result.IsTemp && insn.Result.T.IsOrdinary() {
					if len(insn.Args) == 1 && insn.Args[0].IsTemp && insn.Args[0].T.IsOrdinary() &&
						defs[insn.Result.T] == 1 && defs[insn.Args[0].T] == 1 {
						copyMap[insn.Result.T] = insn.Args[0]
					}
				}
			}
		}
		if len(copyMap) == 0 {
			break
		}

		for _, b := range g.Blocks {
			for i, insn := range b.Insns {
				for ai, arg := range insn.Args {
					if arg.IsTemp {
						if repl, ok := copyMap[arg.T]; ok {
							b.Insns[i].Args[ai] = repl
							changed = true
						}
					}
				}
			}
		}

		var kept []ir.Insn
		for _, b := range g.Blocks {
			kept = kept[:0]
			for _, insn := range b.Insns {
				if insn.Op == ir.OpCopy && insn.Result != nil && len(insn.Args) == 1 &&
					insn.Args[0].IsTemp && insn.Result.IsTemp && insn.Args[0].T == insn.Result.T {
					changed = true
					continue
				}
				kept = append(kept, insn)
			}
			b.Insns = append([]ir.Insn(nil), kept...)
		}
	}
}

// EliminateDeadCopies removes `copy` instructions into an ordinary temp
// that is not live immediately afterward, recomputing liveness between
// rounds since removing one dead copy can expose another. Copies into
// globals are always kept, and so is the static_link_flag copy of a
// nested ("A::B") procedure, whose result the assembler pins at
// -8(%rbp) for static-link walks; in a top-level procedure that copy is
// removed like any other dead copy.
func (g *CFG) EliminateDeadCopies() {
	changed := true
	for changed {
		g.BuildLiveness()
		changed = false
		for _, b := range g.Blocks {
			nested := b.IsEntry && strings.Contains(b.Insns[0].Result.Name, "::")
			var kept []ir.Insn
			for i, insn := range b.Insns {
				if insn.Op != ir.OpCopy || (nested && len(insn.Args) > 1) {
					kept = append(kept, insn)
					continue
				}
				d, ok := insn.Defs()
				if ok && (!d.IsOrdinary() || b.liveOutAt(i)[d]) {
					kept = append(kept, insn)
				} else {
					changed = true
				}
			}
			b.Insns = kept
		}
	}
	g.rebuildGraph()
}

// Optimize runs the fixed `-fenable-opt` sequence: dead copy removal,
// then unconditional jump-threading, then conditional-to-unconditional
// jump threading, then coalescing, each run once.
func (g *CFG) Optimize() {
	g.EliminateDeadCopies()
	g.JTSeqUncond()
	g.JTCondToUncond()
	g.Coalesce()
}
