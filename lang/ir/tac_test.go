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

import (
	"encoding/json"
	"testing"
)

func TestInsnMarshalJSON_Shape(t *testing.T) {
	insn := Insn{
		Op:     OpAdd,
		Args:   []Operand{Op(NewOrdinary(1)), ConstOp(41)},
		Result: &Operand{IsTemp: true, T: NewOrdinary(2)},
	}
	b, err := json.Marshal(insn)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m["opcode"] != "add" {
		t.Fatalf("expected opcode %q, got %v", "add", m["opcode"])
	}
	args, ok := m["args"].([]any)
	if !ok || len(args) != 2 {
		t.Fatalf("expected 2 args, got %v", m["args"])
	}
	if args[0] != "%1" {
		t.Fatalf("expected first arg %%1 (temp as string), got %v", args[0])
	}
	if _, ok := args[1].(float64); !ok {
		t.Fatalf("expected const arg to encode as a JSON number, got %T", args[1])
	}
	if m["result"] != "%2" {
		t.Fatalf("expected result %%2, got %v", m["result"])
	}
}

func TestInsnMarshalJSON_NilResult(t *testing.T) {
	insn := Insn{Op: OpRet}
	b, err := json.Marshal(insn)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := m["result"]; !ok {
		t.Fatalf("expected an explicit null result field, got %v", m)
	}
	if m["result"] != nil {
		t.Fatalf("expected null result, got %v", m["result"])
	}
}

func TestInsnJSONRoundtrip(t *testing.T) {
	cases := []Insn{
		{Op: OpConst, Args: []Operand{ConstOp(7)}, Result: &Operand{IsTemp: true, T: NewOrdinary(0)}},
		{Op: OpLabel, Args: []Operand{Op(NewLabel(3))}},
		{Op: OpCopy, Args: []Operand{Op(NewGlobal("x"))}, Result: &Operand{IsTemp: true, T: NewOrdinary(1)}},
		{Op: OpCall, Args: []Operand{Op(NewFuncConst("main::add")), ConstOp(2)}},
	}
	for _, want := range cases {
		b, err := json.Marshal(want)
		if err != nil {
			t.Fatalf("marshal %v: %v", want, err)
		}
		var got Insn
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if got.Op != want.Op {
			t.Fatalf("opcode mismatch: got %v want %v", got.Op, want.Op)
		}
		if got.String() != want.String() {
			t.Fatalf("roundtrip mismatch: got %q want %q", got.String(), want.String())
		}
	}
}

func TestCondOpcodesCoversEveryComparisonOperator(t *testing.T) {
	for _, op := range []string{"==", "!=", "<", "<=", ">", ">="} {
		if _, ok := CondOpcodes[op]; !ok {
			t.Fatalf("missing CondOpcodes entry for %q", op)
		}
	}
}
