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
	"bytes"
	"encoding/json"
	"fmt"
)

// Opcode is BX's closed three-address-code instruction vocabulary.
type Opcode uint8

const (
	OpLabel Opcode = iota
	OpConst
	OpCopy
	OpAdd
	OpSub
	OpAnd
	OpOr
	OpXor
	OpMul
	OpDiv
	OpMod
	OpShl
	OpShr
	OpNeg
	OpNot
	OpJmp
	OpJz
	OpJnz
	OpJl
	OpJle
	OpJg
	OpJge
	OpParam
	OpCall
	OpRet
	OpProc
	OpGetFp
)

var opcodeNames = [...]string{
	OpLabel: "label", OpConst: "const", OpCopy: "copy",
	OpAdd: "add", OpSub: "sub", OpAnd: "and", OpOr: "or", OpXor: "xor",
	OpMul: "mul", OpDiv: "div", OpMod: "mod", OpShl: "shl", OpShr: "shr",
	OpNeg: "neg", OpNot: "not",
	OpJmp: "jmp", OpJz: "jz", OpJnz: "jnz", OpJl: "jl", OpJle: "jle", OpJg: "jg", OpJge: "jge",
	OpParam: "param", OpCall: "call", OpRet: "ret", OpProc: "proc", OpGetFp: "get_fp",
}

func (o Opcode) String() string {
	if int(o) < len(opcodeNames) {
		return opcodeNames[o]
	}
	return "?"
}

// CondOpcodes maps a comparison operator spelling to the branch opcode
// that tests the `sub` result against zero.
var CondOpcodes = map[string]Opcode{
	"==": OpJz, "!=": OpJnz, "<": OpJl, "<=": OpJle, ">": OpJg, ">=": OpJge,
}

// Insn is one TAC instruction: opcode, ordered args, optional result.
type Insn struct {
	Op     Opcode
	Args   []Operand
	Result *Operand
}

func (i Insn) HasResult() bool { return i.Result != nil }

// Defs returns the Temp this instruction defines, if any: an Ordinary,
// Param or Label temp, or a Global for a global's initializer or an
// assignment to a global. FuncConst temps are never results.
func (i Insn) Defs() (Temp, bool) {
	if i.Result == nil || !i.Result.IsTemp {
		return Temp{}, false
	}
	return i.Result.T, true
}

// Uses appends every Temp this instruction reads, in arg order.
func (i Insn) Uses() []Temp {
	var out []Temp
	for _, a := range i.Args {
		if a.IsTemp {
			out = append(out, a.T)
		}
	}
	return out
}

func (i Insn) String() string {
	var b bytes.Buffer
	b.WriteString(i.Op.String())
	if len(i.Args) > 0 {
		b.WriteByte('[')
		for j, a := range i.Args {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(a.String())
		}
		b.WriteByte(']')
	}
	if i.Result != nil {
		b.WriteString(" -> ")
		b.WriteString(i.Result.String())
	}
	return b.String()
}

// jsonInsn is the TAC wire format: {"opcode","args","result"} with
// integer-literal args as JSON numbers and everything else as strings.
// The custom marshaler/unmarshaler pair hand-rolls a stable wire encoding
// for an internally-tagged value rather than deriving it from Go's
// default struct reflection.
type jsonInsn struct {
	Opcode string        `json:"opcode"`
	Args   []json.RawMessage `json:"args"`
	Result *json.RawMessage  `json:"result"`
}

func operandJSON(o Operand) json.RawMessage {
	if o.IsConst {
		b, _ := json.Marshal(o.Const)
		return b
	}
	b, _ := json.Marshal(o.String())
	return b
}

func (i Insn) MarshalJSON() ([]byte, error) {
	args := make([]json.RawMessage, len(i.Args))
	for idx, a := range i.Args {
		args[idx] = operandJSON(a)
	}
	var result *json.RawMessage
	if i.Result != nil {
		r := operandJSON(*i.Result)
		result = &r
	}
	return json.Marshal(jsonInsn{Opcode: i.Op.String(), Args: args, Result: result})
}

func opcodeFromName(name string) (Opcode, bool) {
	for idx, n := range opcodeNames {
		if n == name {
			return Opcode(idx), true
		}
	}
	return 0, false
}

func operandFromRaw(raw json.RawMessage) (Operand, error) {
	var asNum int64
	if err := json.Unmarshal(raw, &asNum); err == nil {
		return ConstOp(asNum), nil
	}
	var asStr string
	if err := json.Unmarshal(raw, &asStr); err != nil {
		return Operand{}, fmt.Errorf("bad TAC operand %s: %w", raw, err)
	}
	return parseOperandText(asStr), nil
}

func (i *Insn) UnmarshalJSON(data []byte) error {
	var raw jsonInsn
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	op, ok := opcodeFromName(raw.Opcode)
	if !ok {
		return fmt.Errorf("unknown TAC opcode %q", raw.Opcode)
	}
	i.Op = op
	i.Args = make([]Operand, len(raw.Args))
	for idx, a := range raw.Args {
		o, err := operandFromRaw(a)
		if err != nil {
			return err
		}
		i.Args[idx] = o
	}
	if raw.Result != nil {
		o, err := operandFromRaw(*raw.Result)
		if err != nil {
			return err
		}
		i.Result = &o
	}
	return nil
}
