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
package ir

import "testing"

func TestTempString(t *testing.T) {
	cases := []struct {
		name string
		temp Temp
		want string
	}{
		{"ordinary", NewOrdinary(12), "%12"},
		{"param", NewParam(3), "%p3"},
		{"label", NewLabel(4), "%.L4"},
		{"global", NewGlobal("x"), "@x"},
		{"funcconst", NewFuncConst("add"), "#add"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.temp.String(); got != c.want {
				t.Fatalf("String() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestTempPredicates(t *testing.T) {
	if !NewOrdinary(1).IsOrdinary() {
		t.Fatalf("expected ordinary temp to report IsOrdinary")
	}
	if NewParam(1).IsOrdinary() {
		t.Fatalf("param temp must not report IsOrdinary")
	}
	if !NewLabel(1).IsLabel() {
		t.Fatalf("expected label temp to report IsLabel")
	}
	if !NewParam(1).IsParam() {
		t.Fatalf("expected param temp to report IsParam")
	}
}

func TestOperandString(t *testing.T) {
	if got := Op(NewOrdinary(5)).String(); got != "%5" {
		t.Fatalf("Op(...).String() = %q, want %%5", got)
	}
	if got := ConstOp(42).String(); got != "42" {
		t.Fatalf("ConstOp(42).String() = %q, want 42", got)
	}
	if got := ConstOp(-7).String(); got != "-7" {
		t.Fatalf("ConstOp(-7).String() = %q, want -7", got)
	}
	if got := NameOp("__bx_print_int").String(); got != "__bx_print_int" {
		t.Fatalf("NameOp(...).String() = %q, want __bx_print_int", got)
	}
}

func TestTempsComparable(t *testing.T) {
	m := map[Temp]bool{}
	m[NewOrdinary(1)] = true
	if !m[NewOrdinary(1)] {
		t.Fatalf("expected Temp to be usable as a map key")
	}
	if m[NewOrdinary(2)] {
		t.Fatalf("distinct ordinary temps must not collide as map keys")
	}
	if m[NewParam(1)] {
		t.Fatalf("an ordinary and a param temp sharing an index must not collide")
	}
}
