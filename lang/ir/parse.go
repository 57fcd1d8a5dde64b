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

// parseOperandText recovers a Temp/Name operand from its textual form.
// Used only when re-reading a .tac.json dump (e.g. in tests); the
// compiler itself never round-trips through text, it keeps Operand values
// structured end to end.
func parseOperandText(s string) Operand {
	if s == "" {
		return NameOp(s)
	}
	switch s[0] {
	case '@':
		return Op(NewGlobal(s[1:]))
	case '#':
		return Op(NewFuncConst(s[1:]))
	case '%':
		rest := s[1:]
		switch {
		case len(rest) > 0 && rest[0] == 'p':
			if n, err := strconv.Atoi(rest[1:]); err == nil {
				return Op(NewParam(n))
			}
		case len(rest) > 2 && rest[:2] == ".L":
			if n, err := strconv.Atoi(rest[2:]); err == nil {
				return Op(NewLabel(n))
			}
		default:
			if n, err := strconv.Atoi(rest); err == nil {
				return Op(NewOrdinary(n))
			}
		}
	}
	return NameOp(s)
}
