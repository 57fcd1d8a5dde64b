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

import "strconv"

// TempKind is the tag of a Temp: a compact handle rather than a
// prefix-sniffed string key. Temp keeps the tag as a field and renders
// the textual prefix only in String(), rather than re-deriving its kind
// from the printed form.
type TempKind uint8

const (
	Ordinary TempKind = iota // %<digits>
	Param                    // %p<digits>
	Label                    // %.L<digits>
	Global                   // @<name>
	FuncConst                // #<name>, rendered with the function name
)

// Temp is a 24-byte value type: comparable, copyable, safe as a map key.
type Temp struct {
	Kind  TempKind
	Index int32  // meaningful for Ordinary, Param, Label
	Name  string // meaningful for Global and FuncConst (the function's name)
}

func NewOrdinary(n int) Temp   { return Temp{Kind: Ordinary, Index: int32(n)} }
func NewParam(n int) Temp      { return Temp{Kind: Param, Index: int32(n)} }
func NewLabel(n int) Temp      { return Temp{Kind: Label, Index: int32(n)} }
func NewGlobal(name string) Temp    { return Temp{Kind: Global, Name: name} }
func NewFuncConst(name string) Temp { return Temp{Kind: FuncConst, Name: name} }

// String renders Temp's canonical textual form. The assembler and the
// .tac.json writer both use this, so operand prefixes stay consistent
// even though nothing internally sniffs them.
func (t Temp) String() string {
	switch t.Kind {
	case Ordinary:
		return "%" + strconv.Itoa(int(t.Index))
	case Param:
		return "%p" + strconv.Itoa(int(t.Index))
	case Label:
		return "%.L" + strconv.Itoa(int(t.Index))
	case Global:
		return "@" + t.Name
	case FuncConst:
		return "#" + t.Name
	}
	return "?"
}

func (t Temp) IsOrdinary() bool { return t.Kind == Ordinary }
func (t Temp) IsLabel() bool    { return t.Kind == Label }
func (t Temp) IsParam() bool    { return t.Kind == Param }

// Operand is a TAC instruction's argument or result: either a Temp or, for
// `const`, a raw integer literal or a bare function name. Using an
// interface-free tagged struct (rather than `any`) keeps operands
// comparable and keeps JSON encoding deterministic.
type Operand struct {
	IsTemp  bool
	T       Temp
	IsConst bool
	Const   int64
	IsName  bool
	Name    string // bare function/global name, used by `const` and `proc`
}

func Op(t Temp) Operand          { return Operand{IsTemp: true, T: t} }
func ConstOp(v int64) Operand    { return Operand{IsConst: true, Const: v} }
func NameOp(name string) Operand { return Operand{IsName: true, Name: name} }

func (o Operand) String() string {
	switch {
	case o.IsTemp:
		return o.T.String()
	case o.IsConst:
		return strconv.FormatInt(o.Const, 10)
	case o.IsName:
		return o.Name
	}
	return ""
}
