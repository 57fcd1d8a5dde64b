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
	"strings"

	"github.com/launix-de/bxc/lang/ast"
	"github.com/launix-de/bxc/lang/diag"
	"github.com/launix-de/bxc/lang/token"
)

// Binding is what a scope maps a source name to: its declared type and the
// temporary currently holding its value.
type Binding struct {
	Type ast.Type
	Temp Temp
}

// scopeFrame is one stack frame of the lexical scope. FuncName/RetType are
// only set on the frame introduced at a function's entry; the innermost
// such frame walking outward identifies the enclosing function.
type scopeFrame struct {
	vars     map[string]Binding
	funcName string
	retType  ast.Type
	isFunc   bool
}

// Proc is a procedure's inclusive index range into Context.Insns, set by
// Process after the whole program (including hoisted lambdas) is emitted.
type Proc struct {
	Name   string
	Start  int
	Finish int // index of the procedure's last ret before the next proc
}

// Context is the muncher's mutable scratchpad, passed explicitly by
// pointer rather than held as a singleton. It owns every counter and
// stack the muncher needs across a whole compilation: fresh
// temp/label/param numbering, the scope stack, break/continue targets,
// the function-nesting nest for static-link naming, and the queue of
// lambda bodies deferred until the top-level program has been munched.
type Context struct {
	Insns []Insn

	Globals []Insn // filled in by Process(): insns before the first proc
	Procs   []Proc // filled in by Process()

	tempCounter  int
	labelCounter int
	paramCounter int // reset at the start of every procedure

	scopes []scopeFrame

	breakLabels    []Temp
	continueLabels []Temp

	funcNameStack []string

	// PendingLambdas holds one callback per hoisted lambda, queued in the
	// order the lambdas' bodies finished munching; each appends that
	// already-munched body to Insns. muncher.Munch drains the queue after
	// the top-level program has been fully munched.
	PendingLambdas []func() *diag.Error

	lambdaCounters map[string]int // per-enclosing-function lambda index, for unique labels

	// FuncOfTemp records, for every Ordinary temp minted while munching a
	// function body, the qualified ("A::B::C") name of the function that
	// owns it. The assembler's static-link walker consults this to decide
	// whether an operand lives in the current frame or must be reached by
	// dereferencing static links.
	FuncOfTemp map[Temp]string

	// IncomingStaticLink maps a qualified function name to the Temp that
	// receives its caller-supplied static link in the prologue. The
	// assembler spills this temp to a fixed, well-known frame offset
	// (-8(%rbp)) rather than a general stack slot.
	IncomingStaticLink map[string]Temp
}

func NewContext() *Context {
	return &Context{
		lambdaCounters:     make(map[string]int),
		FuncOfTemp:         make(map[Temp]string),
		IncomingStaticLink: make(map[string]Temp),
	}
}

// NewOrdinaryFor mints a fresh ordinary temp and records funcName as its
// owner for later static-link resolution.
func (c *Context) NewOrdinaryFor(funcName string) Temp {
	t := c.NewTemp()
	c.FuncOfTemp[t] = funcName
	return t
}

// SaveFuncNameStack returns a copy of the current function-nesting stack,
// which RestoreFuncNameStack can later reinstate.
func (c *Context) SaveFuncNameStack() []string {
	saved := make([]string, len(c.funcNameStack))
	copy(saved, c.funcNameStack)
	return saved
}

func (c *Context) RestoreFuncNameStack(saved []string) {
	c.funcNameStack = append([]string(nil), saved...)
}

func (c *Context) NewTemp() Temp {
	t := NewOrdinary(c.tempCounter)
	c.tempCounter++
	return t
}

func (c *Context) NewLabel() Temp {
	t := NewLabel(c.labelCounter)
	c.labelCounter++
	return t
}

// NewParamTemp mints the next %p<k> slot for the procedure currently being
// munched; ResetParamCounter must be called when entering a new procedure.
func (c *Context) NewParamTemp() Temp {
	t := NewParam(c.paramCounter)
	c.paramCounter++
	return t
}

func (c *Context) ResetParamCounter() { c.paramCounter = 0 }

func (c *Context) Emit(insn Insn) int {
	c.Insns = append(c.Insns, insn)
	return len(c.Insns) - 1
}

// --- scope stack ---

func (c *Context) PushScope() {
	c.scopes = append(c.scopes, scopeFrame{vars: make(map[string]Binding)})
}

func (c *Context) PushFuncScope(name string, ret ast.Type) {
	c.scopes = append(c.scopes, scopeFrame{vars: make(map[string]Binding), funcName: name, retType: ret, isFunc: true})
}

func (c *Context) PopScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// Declare binds name in the current (top) scope frame. Returns a
// Redeclaration diagnostic if the name already exists in that frame.
func (c *Context) Declare(pos token.Pos, name string, typ ast.Type, t Temp) *diag.Error {
	top := &c.scopes[len(c.scopes)-1]
	if _, exists := top.vars[name]; exists {
		return diag.New(diag.Redeclaration, pos, "%q is already declared in this scope", name)
	}
	top.vars[name] = Binding{Type: typ, Temp: t}
	return nil
}

// Lookup walks the scope stack outward from the top frame.
func (c *Context) Lookup(name string) (Binding, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if b, ok := c.scopes[i].vars[name]; ok {
			return b, true
		}
	}
	return Binding{}, false
}

// LookupStaticLink returns the binding for name's auxiliary static-link
// temp, stored under "<name>$static_link".
func (c *Context) LookupStaticLink(name string) (Binding, bool) {
	return c.Lookup(name + "$static_link")
}

// CurrentFunc returns the nearest enclosing function scope frame's name
// and declared return type. ok is false only at the true top level,
// which never happens once munching a function body has begun.
func (c *Context) CurrentFunc() (name string, ret ast.Type, ok bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if c.scopes[i].isFunc {
			return c.scopes[i].funcName, c.scopes[i].retType, true
		}
	}
	return "", ast.Void, false
}

// --- break/continue stacks ---

func (c *Context) PushBreak(l Temp)     { c.breakLabels = append(c.breakLabels, l) }
func (c *Context) PopBreak()            { c.breakLabels = c.breakLabels[:len(c.breakLabels)-1] }
func (c *Context) PushContinue(l Temp)  { c.continueLabels = append(c.continueLabels, l) }
func (c *Context) PopContinue()         { c.continueLabels = c.continueLabels[:len(c.continueLabels)-1] }

func (c *Context) CurrentBreak() (Temp, bool) {
	if len(c.breakLabels) == 0 {
		return Temp{}, false
	}
	return c.breakLabels[len(c.breakLabels)-1], true
}

func (c *Context) CurrentContinue() (Temp, bool) {
	if len(c.continueLabels) == 0 {
		return Temp{}, false
	}
	return c.continueLabels[len(c.continueLabels)-1], true
}

// --- function-nesting stack (for "A::B::C" naming) ---

func (c *Context) PushFuncName(name string) { c.funcNameStack = append(c.funcNameStack, name) }
func (c *Context) PopFuncName()             { c.funcNameStack = c.funcNameStack[:len(c.funcNameStack)-1] }

// QualifiedFuncName joins the nesting stack with "::", e.g. "main::add".
func (c *Context) QualifiedFuncName() string {
	return strings.Join(c.funcNameStack, "::")
}

// NextLambdaLabel mints a unique label for a newly hoisted lambda, using
// the enclosing qualified function name and a per-enclosing-function
// counter.
func (c *Context) NextLambdaLabel(enclosing, name string) string {
	idx := c.lambdaCounters[enclosing]
	c.lambdaCounters[enclosing] = idx + 1
	if enclosing == "" {
		return name
	}
	return enclosing + "::" + name
}

// Process partitions the flat instruction list into Globals (everything
// before the first `proc`) and Procs (one inclusive range per procedure,
// from each `proc` to the last `ret` before the next `proc`). Re-run after
// every optimization pass that rewrites Insns, so downstream phases
// (assembler, next optimization round) see up to date indexing.
func (c *Context) Process() {
	c.Globals = nil
	c.Procs = nil
	i := 0
	for i < len(c.Insns) && c.Insns[i].Op != OpProc {
		c.Globals = append(c.Globals, c.Insns[i])
		i++
	}
	for i < len(c.Insns) {
		if c.Insns[i].Op != OpProc {
			i++
			continue
		}
		start := i
		name := ""
		if c.Insns[i].Result != nil {
			name = c.Insns[i].Result.Name
		}
		finish := start
		j := i + 1
		for j < len(c.Insns) && c.Insns[j].Op != OpProc {
			if c.Insns[j].Op == OpRet {
				finish = j
			}
			j++
		}
		c.Procs = append(c.Procs, Proc{Name: name, Start: start, Finish: finish})
		i = j
	}
}
