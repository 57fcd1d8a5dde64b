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

import "github.com/launix-de/bxc/lang/ir"

// Set is a set of ordinary temporaries, used by liveness and def/use
// analysis.
type Set map[ir.Temp]bool

func (s Set) Clone() Set {
	out := make(Set, len(s))
	for t := range s {
		out[t] = true
	}
	return out
}

// Join is set union.
func (s Set) Join(other Set) Set {
	out := s.Clone()
	for t := range other {
		out[t] = true
	}
	return out
}

// Minus is set difference.
func (s Set) Minus(other Set) Set {
	out := make(Set, len(s))
	for t := range s {
		if !other[t] {
			out[t] = true
		}
	}
	return out
}

func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for t := range s {
		if !other[t] {
			return false
		}
	}
	return true
}
