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
package typecheck

import (
	"testing"

	"github.com/launix-de/bxc/lang/diag"
	"github.com/launix-de/bxc/lang/parser"
)

func checkSrc(t *testing.T, src string) (*Checker, *diag.Error) {
	t.Helper()
	prog, perr := parser.Parse("test.bx", src)
	if perr != nil {
		t.Fatalf("parse: %v", perr)
	}
	return Check("test.bx", prog)
}

func TestCheck_ValidProgramsPass(t *testing.T) {
	cases := []string{
		`def main() { print(1 + 2); }`,
		`var x = 41 : int; def main() { print(x); }`,
		`def add(a: int, b: int): int { return a + b; } def main() { print(add(1, 2)); }`,
		`def main() { if (1 < 2) { print(true); } else { print(false); } }`,
		`def main() { var i = 0 : int; while (i < 10) { i = i + 1; } }`,
		`def f(): bool { return true; } def main() { print(f()); }`,
	}
	for _, src := range cases {
		if _, err := checkSrc(t, src); err != nil {
			t.Errorf("src %q: unexpected error: %v", src, err)
		}
	}
}

func TestCheck_ErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind diag.Kind
	}{
		{"undeclared ident", `def main() { print(x); }`, diag.UndeclaredName},
		{"redeclared local", `def main() { var x = 1 : int; var x = 2 : int; }`, diag.Redeclaration},
		{"assign type mismatch", `def main() { var x = 1 : int; x = true; }`, diag.TypeMismatch},
		{"if cond not bool", `def main() { if (1) { } }`, diag.TypeMismatch},
		{"while cond not bool", `def main() { while (1) { } }`, diag.TypeMismatch},
		{"call arity", `def f(a: int): int { return a; } def main() { print(f(1, 2)); }`, diag.ArityMismatch},
		{"print arity", `def main() { print(1, 2); }`, diag.ArityMismatch},
		{"non-void main", `def main(): int { return 0; }`, diag.TypeMismatch},
		{"global non-constant init", `def f(): int { return 1; } var x = f() : int; def main() { }`, diag.BadGlobalInit},
		{"missing return", `def f(): int { var x = 1 : int; } def main() { }`, diag.MissingReturn},
		{"void parameter", `def f(a: void) { } def main() { }`, diag.TypeMismatch},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := checkSrc(t, tc.src)
			if err == nil {
				t.Fatalf("expected a %s error, got none", tc.kind)
			}
			if err.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %s (%s)", tc.kind, err.Kind, err.Message)
			}
		})
	}
}

// Calling a non-void function and discarding its result warns but does
// not abort the pipeline — spec §7's Warnings row.
func TestCheck_DiscardedCallResultWarns(t *testing.T) {
	checker, err := checkSrc(t, `def f(): int { return 1; } def main() { f(); }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(checker.Warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %v", checker.Warnings)
	}
}

func TestCheck_PrintIsVariadicArityOne(t *testing.T) {
	if _, err := checkSrc(t, `def main() { print(true); }`); err != nil {
		t.Fatalf("print(bool) should type-check: %v", err)
	}
	if _, err := checkSrc(t, `def main() { print(); }`); err == nil || err.Kind != diag.ArityMismatch {
		t.Fatalf("print() should be an arity error, got %v", err)
	}
}
