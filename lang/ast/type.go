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

package ast

import "strings"

// Kind tags the variant of a Type. Function is the only recursive case.
type Kind uint8

const (
	KindInt Kind = iota
	KindBool
	KindVoid
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindVoid:
		return "void"
	case KindFunction:
		return "function"
	}
	return "?"
}

// Type is the tagged variant Int | Bool | Void | Function(params, ret).
// Equality is structural; Function recurses into Params and Ret.
type Type struct {
	Kind   Kind
	Params []Type // only meaningful when Kind == KindFunction
	Ret    *Type  // only meaningful when Kind == KindFunction
}

var Int = Type{Kind: KindInt}
var Bool = Type{Kind: KindBool}
var Void = Type{Kind: KindVoid}

// Function builds a first-class function type. Only Int/Bool/Void may be
// the return type; params may themselves be Function (higher-order).
func Function(params []Type, ret Type) Type {
	r := ret
	return Type{Kind: KindFunction, Params: params, Ret: &r}
}

// Equal is structural equality, recursive through Function.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	if t.Kind != KindFunction {
		return true
	}
	if len(t.Params) != len(o.Params) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].Equal(o.Params[i]) {
			return false
		}
	}
	return t.Ret.Equal(*o.Ret)
}

func (t Type) IsScalar() bool {
	return t.Kind == KindInt || t.Kind == KindBool
}

func (t Type) String() string {
	if t.Kind != KindFunction {
		return t.Kind.String()
	}
	var b strings.Builder
	b.WriteString("function(")
	for i, p := range t.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString(") -> ")
	b.WriteString(t.Ret.String())
	return b.String()
}
