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

// Package compiler is the driver that sequences the whole pipeline —
// lex+parse, typecheck, munch, optionally optimize, then assemble — as a
// single-threaded, phase-ordered batch. It owns no state of its own
// beyond one compilation's ir.Context; nothing here is safe or intended
// to be reused across concurrent compilations.
package compiler

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/launix-de/bxc/lang/asm"
	"github.com/launix-de/bxc/lang/cfg"
	"github.com/launix-de/bxc/lang/diag"
	"github.com/launix-de/bxc/lang/ir"
	"github.com/launix-de/bxc/lang/muncher"
	"github.com/launix-de/bxc/lang/parser"
	"github.com/launix-de/bxc/lang/token"
	"github.com/launix-de/bxc/lang/typecheck"
)

// Options controls optional driver behavior.
type Options struct {
	EnableOpt bool // -fenable-opt: run the peephole optimizer once
}

// Result is everything a successful compilation produces.
type Result struct {
	BuildID  string   // stamped into the .tac.json dump's first element
	Assembly string   // GAS-syntax x86-64 text, the ".s" output
	TACJSON  []byte   // the ".tac.json" output
	Warnings []string // non-fatal diagnostics, e.g. a discarded non-void call result (spec §7)
}

// Compile runs one source file through the whole pipeline: parse (which
// internally lexes), typecheck, munch to TAC, an optional optimization
// round, and final assembly. The first diagnostic from any phase aborts
// the pipeline — a compilation either completes or aborts on the first
// error, with no partial results returned on failure.
func Compile(file, src string, opts Options) (*Result, *diag.Error) {
	prog, err := parser.Parse(file, src)
	if err != nil {
		return nil, err
	}

	checker, err := typecheck.Check(file, prog)
	if err != nil {
		return nil, err
	}

	ctx := ir.NewContext()
	if err := muncher.Munch(ctx, prog); err != nil {
		return nil, err
	}

	if opts.EnableOpt {
		optimize(ctx)
	}

	asmText, err := asm.Generate(ctx)
	if err != nil {
		return nil, err
	}

	buildID := uuid.NewString()
	dump, jerr := dumpTAC(ctx, buildID)
	if jerr != nil {
		return nil, diag.New(diag.UnknownOpcode, token.Pos{}, "tac json encode: %v", jerr)
	}

	return &Result{BuildID: buildID, Assembly: asmText, TACJSON: dump, Warnings: checker.Warnings}, nil
}

// optimize builds one CFG from the current TAC, runs the fixed
// -fenable-opt sequence on it via cfg.CFG.Optimize (dead-copy removal,
// sequential jump threading, conditional-to-unconditional jump
// threading, then block coalescing), and flattens the result back into
// TAC once, refreshing the indexing with Context.Process. The CFG is not
// rebuilt between passes.
func optimize(ctx *ir.Context) {
	g := cfg.Build(ctx)
	g.Optimize()
	ctx.Insns = cfg.ToTAC(ctx, g)
	ctx.Process()
}

type procDump struct {
	Proc string    `json:"proc"`
	Body []ir.Insn `json:"body"`
}

// dumpTAC renders the TAC wire format: a flat JSON array of either raw
// instruction objects (globals) or {"proc","body"} entries, one per
// procedure. The build ID is stamped as the array's first element (its
// own small object) rather than wrapping the whole thing in a header
// object, so the output stays a flat array.
func dumpTAC(ctx *ir.Context, buildID string) ([]byte, error) {
	items := make([]any, 0, len(ctx.Globals)+len(ctx.Procs)+1)
	items = append(items, map[string]string{"build_id": buildID})
	for _, insn := range ctx.Globals {
		items = append(items, insn)
	}
	for _, p := range ctx.Procs {
		items = append(items, procDump{Proc: p.Name, Body: ctx.Insns[p.Start : p.Finish+1]})
	}
	return json.MarshalIndent(items, "", "  ")
}
