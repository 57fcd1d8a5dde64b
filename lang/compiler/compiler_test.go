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
package compiler

import (
	"encoding/json"
	"strings"
	"testing"
)

func compileOK(t *testing.T, src string, opts Options) *Result {
	t.Helper()
	res, err := Compile("test.bx", src, opts)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return res
}

// S1: arithmetic, no control flow.
func TestCompile_Arithmetic(t *testing.T) {
	res := compileOK(t, `def main() { print(1 + 41 * 1); }`, Options{})
	if !strings.Contains(res.Assembly, ".globl main") {
		t.Fatalf("expected a main symbol, got:\n%s", res.Assembly)
	}
	if !strings.Contains(res.Assembly, "call *") {
		t.Fatalf("expected an indirect call to __bx_print_int, got:\n%s", res.Assembly)
	}
}

// S2: a short-circuit `&&` whose right operand divides by zero still
// type-checks and compiles, and that division is still lowered (idivq
// appears in the output).
func TestCompile_ShortCircuitStillTypechecks(t *testing.T) {
	src := `def main() { var x = 0 : int; if (false && (1/0 > 0)) { x = 1; } print(x); }`
	res := compileOK(t, src, Options{})
	if !strings.Contains(res.Assembly, "idivq") {
		t.Fatalf("expected the guarded divide to still be lowered, got:\n%s", res.Assembly)
	}
}

// S3: while-break compiles, and the break's `i == 3` test lowers to at
// least one conditional jump.
func TestCompile_WhileBreak(t *testing.T) {
	src := `def main() { var i = 0 : int; while (true) { if (i == 3) { break; } i = i + 1; } print(i); }`
	res := compileOK(t, src, Options{})
	if strings.Count(res.Assembly, "je ") == 0 && strings.Count(res.Assembly, "jne ") == 0 {
		t.Fatalf("expected at least one conditional jump for the break test, got:\n%s", res.Assembly)
	}
}

// S4: a capturing closure passed by (code pointer, static link) pair must
// produce two distinct symbols and a static-link chase inside add.
func TestCompile_CapturingClosure(t *testing.T) {
	src := `
def main() {
  var a = 10 : int;
  def add(x: int): int { return x + a; }
  def apply(f: function(int) -> int, v: int): int { return f(v); }
  print(apply(add, 5));
}
`
	res := compileOK(t, src, Options{})
	if !strings.Contains(res.Assembly, ".globl main.add") {
		t.Fatalf("expected a mangled main.add symbol, got:\n%s", res.Assembly)
	}
	if !strings.Contains(res.Assembly, ".globl main.apply") {
		t.Fatalf("expected a mangled main.apply symbol, got:\n%s", res.Assembly)
	}
	if !strings.Contains(res.Assembly, "movq -8(%rbp)") {
		t.Fatalf("expected add's body to chase its static link, got:\n%s", res.Assembly)
	}
}

// S5: with -fenable-opt, nested identical x==0 tests collapse so the inner
// block no longer re-tests the condition.
func TestCompile_JTCondToUncond(t *testing.T) {
	src := `
def main() {
  var x = 0 : int;
  if (x == 0) { if (x == 0) { print(1); } else { print(2); } } else { print(3); }
}
`
	unopt := compileOK(t, src, Options{})
	opt := compileOK(t, src, Options{EnableOpt: true})

	countCmp := func(s string) int {
		n := 0
		for _, line := range strings.Split(s, "\n") {
			if strings.Contains(line, "testq %r10, %r10") {
				n++
			}
		}
		return n
	}
	if countCmp(opt.Assembly) >= countCmp(unopt.Assembly) {
		t.Fatalf("expected fewer comparisons after optimization: unopt=%d opt=%d\n%s",
			countCmp(unopt.Assembly), countCmp(opt.Assembly), opt.Assembly)
	}
}

// S6: with -fenable-opt, the dead copy defining an unused `y` must not
// survive into the TAC dump.
func TestCompile_DeadCopyEliminated(t *testing.T) {
	src := `def main() { var x = 5 : int; var y = x : int; print(x); }`
	res := compileOK(t, src, Options{EnableOpt: true})

	var items []json.RawMessage
	if err := json.Unmarshal(res.TACJSON, &items); err != nil {
		t.Fatalf("unmarshal tac dump: %v", err)
	}

	var procBody struct {
		Proc string `json:"proc"`
		Body []struct {
			Opcode string            `json:"opcode"`
			Args   []json.RawMessage `json:"args"`
			Result *string           `json:"result"`
		} `json:"body"`
	}
	found := false
	for _, raw := range items {
		if err := json.Unmarshal(raw, &procBody); err != nil {
			continue
		}
		if procBody.Proc != "main" {
			continue
		}
		found = true
		seenUse := map[string]bool{}
		for _, insn := range procBody.Body {
			for _, a := range insn.Args {
				var s string
				if json.Unmarshal(a, &s) == nil {
					seenUse[s] = true
				}
			}
		}
		for _, insn := range procBody.Body {
			if insn.Opcode != "copy" || insn.Result == nil {
				continue
			}
			if !seenUse[*insn.Result] {
				t.Fatalf("dead copy into %s survived optimization: %+v", *insn.Result, procBody.Body)
			}
		}
	}
	if !found {
		t.Fatalf("expected a main proc entry in the tac dump: %s", res.TACJSON)
	}
}

func TestCompile_TACDumpHasBuildID(t *testing.T) {
	res := compileOK(t, `def main() { print(1); }`, Options{EnableOpt: true})
	var items []map[string]any
	if err := json.Unmarshal(res.TACJSON, &items); err != nil {
		t.Fatalf("unmarshal tac dump: %v", err)
	}
	if len(items) == 0 {
		t.Fatalf("expected a non-empty tac dump")
	}
	if _, ok := items[0]["build_id"]; !ok {
		t.Fatalf("expected the first dump element to carry a build_id, got %v", items[0])
	}
	if items[0]["build_id"] != res.BuildID {
		t.Fatalf("dump build_id %v does not match Result.BuildID %v", items[0]["build_id"], res.BuildID)
	}
}

func TestCompile_TypeErrorPropagates(t *testing.T) {
	_, err := Compile("test.bx", `def main() { var x = true : bool; print(x + 1); }`, Options{})
	if err == nil {
		t.Fatalf("expected a type error, got success")
	}
}
