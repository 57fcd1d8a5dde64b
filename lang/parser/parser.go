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

// Package parser turns a token.Token stream into an ast.Program:
// recursive descent for statements and declarations, precedence-climbing
// (Pratt) for expressions using BX's fixed operator precedence table.
package parser

import (
	"github.com/launix-de/bxc/lang/ast"
	"github.com/launix-de/bxc/lang/diag"
	"github.com/launix-de/bxc/lang/lexer"
	"github.com/launix-de/bxc/lang/token"
)

type parser struct {
	file   string
	toks   []token.Token
	pos    int
	nested int // >0 while parsing a nested `def`'s body
}

// Parse lexes and parses a whole source file into an ast.Program.
func Parse(file, src string) (*ast.Program, *diag.Error) {
	toks, err := lexer.Lex(file, src)
	if err != nil {
		return nil, err
	}
	p := &parser{file: file, toks: toks}
	return p.parseProgram()
}

func (p *parser) cur() token.Token  { return p.toks[p.pos] }
func (p *parser) peekKind() token.Kind { return p.toks[p.pos].Kind }

func (p *parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) errorf(format string, args ...any) *diag.Error {
	return diag.New(diag.ParseError, p.cur().Pos, format, args...)
}

func (p *parser) expect(k token.Kind, what string) (token.Token, *diag.Error) {
	if p.peekKind() != k {
		return token.Token{}, p.errorf("expected %s", what)
	}
	return p.advance(), nil
}

func (p *parser) parseProgram() (*ast.Program, *diag.Error) {
	prog := &ast.Program{}
	for p.peekKind() != token.EOF {
		d, err := p.parseTopDecl()
		if err != nil {
			return nil, err
		}
		prog.Decls = append(prog.Decls, d...)
	}
	return prog, nil
}

// parseTopDecl returns a slice because `var x=1, y=2 : int;` expands to
// multiple GlobalVarDecl nodes sharing one declared type.
func (p *parser) parseTopDecl() ([]ast.Decl, *diag.Error) {
	switch p.peekKind() {
	case token.KwDef:
		fd, err := p.parseFuncDecl(false)
		if err != nil {
			return nil, err
		}
		return []ast.Decl{fd}, nil
	case token.KwVar:
		return p.parseGlobalVarDecl()
	}
	return nil, p.errorf("expected a top-level declaration (def or var)")
}

func (p *parser) parseType() (ast.Type, *diag.Error) {
	switch p.peekKind() {
	case token.KwInt:
		p.advance()
		return ast.Int, nil
	case token.KwBool:
		p.advance()
		return ast.Bool, nil
	case token.KwVoid:
		p.advance()
		return ast.Void, nil
	case token.Ident:
		if p.cur().Text == "function" {
			p.advance()
			if _, err := p.expect(token.LParen, "("); err != nil {
				return ast.Type{}, err
			}
			var params []ast.Type
			for p.peekKind() != token.RParen {
				if len(params) > 0 {
					if _, err := p.expect(token.Comma, ","); err != nil {
						return ast.Type{}, err
					}
				}
				pt, err := p.parseType()
				if err != nil {
					return ast.Type{}, err
				}
				params = append(params, pt)
			}
			p.advance() // ')'
			ret := ast.Void
			if p.peekKind() == token.Minus { // '->' : lexed as '-' then '>' ; accept that spelling
				p.advance()
				if _, err := p.expect(token.Gt, ">"); err != nil {
					return ast.Type{}, err
				}
				var err *diag.Error
				ret, err = p.parseType()
				if err != nil {
					return ast.Type{}, err
				}
			}
			return ast.Function(params, ret), nil
		}
	}
	return ast.Type{}, p.errorf("expected a type")
}

func (p *parser) parseGlobalVarDecl() ([]ast.Decl, *diag.Error) {
	p.advance() // 'var'
	type pending struct {
		pos  token.Pos
		name string
		init ast.Expr
	}
	var items []pending
	for {
		pos := p.cur().Pos
		name, err := p.expect(token.Ident, "identifier")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Assign, "="); err != nil {
			return nil, err
		}
		init, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		items = append(items, pending{pos, name.Text, init})
		if p.peekKind() != token.Comma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(token.Colon, ":"); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon, ";"); err != nil {
		return nil, err
	}
	out := make([]ast.Decl, len(items))
	for i, it := range items {
		out[i] = &ast.GlobalVarDecl{Pos: it.pos, Name: it.name, Type: typ, Init: it.init}
	}
	return out, nil
}

func (p *parser) parseFuncDecl(nested bool) (*ast.FuncDecl, *diag.Error) {
	pos := p.cur().Pos
	p.advance() // 'def'
	name, err := p.expect(token.Ident, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen, "("); err != nil {
		return nil, err
	}
	var params []ast.Param
	for p.peekKind() != token.RParen {
		if len(params) > 0 {
			if _, err := p.expect(token.Comma, ","); err != nil {
				return nil, err
			}
		}
		pn, err := p.expect(token.Ident, "parameter name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon, ":"); err != nil {
			return nil, err
		}
		pt, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: pn.Text, Type: pt})
	}
	p.advance() // ')'
	ret := ast.Void
	if p.peekKind() == token.Colon {
		p.advance()
		ret, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDecl{Pos: pos, Name: name.Text, Params: params, Ret: ret, Body: body, Nested: nested}, nil
}

func (p *parser) parseBlock() (*ast.Block, *diag.Error) {
	pos := p.cur().Pos
	if _, err := p.expect(token.LBrace, "{"); err != nil {
		return nil, err
	}
	b := &ast.Block{Pos: pos}
	for p.peekKind() != token.RBrace {
		stmts, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, stmts...)
	}
	p.advance() // '}'
	return b, nil
}

// parseStmt returns a slice for the same reason parseGlobalVarDecl does:
// a chained `var` statement expands to multiple VarDecl nodes.
func (p *parser) parseStmt() ([]ast.Stmt, *diag.Error) {
	switch p.peekKind() {
	case token.KwVar:
		return p.parseVarDecl()
	case token.KwReturn:
		pos := p.cur().Pos
		p.advance()
		if p.peekKind() == token.Semicolon {
			p.advance()
			return []ast.Stmt{&ast.Return{StmtBase: ast.StmtBase{Pos: pos}}}, nil
		}
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon, ";"); err != nil {
			return nil, err
		}
		return []ast.Stmt{&ast.Return{StmtBase: ast.StmtBase{Pos: pos}, Value: e}}, nil
	case token.KwIf:
		s, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{s}, nil
	case token.KwWhile:
		s, err := p.parseWhile()
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{s}, nil
	case token.KwBreak:
		pos := p.cur().Pos
		p.advance()
		if _, err := p.expect(token.Semicolon, ";"); err != nil {
			return nil, err
		}
		return []ast.Stmt{&ast.Break{StmtBase: ast.StmtBase{Pos: pos}}}, nil
	case token.KwContinue:
		pos := p.cur().Pos
		p.advance()
		if _, err := p.expect(token.Semicolon, ";"); err != nil {
			return nil, err
		}
		return []ast.Stmt{&ast.Continue{StmtBase: ast.StmtBase{Pos: pos}}}, nil
	case token.KwDef:
		fd, err := p.parseFuncDecl(true)
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{&ast.FuncDeclStmt{StmtBase: ast.StmtBase{Pos: fd.Pos}, Decl: fd}}, nil
	case token.Ident:
		return p.parseIdentStmt()
	}
	return nil, p.errorf("unexpected token in statement position")
}

func (p *parser) parseVarDecl() ([]ast.Stmt, *diag.Error) {
	p.advance() // 'var'
	type pending struct {
		pos  token.Pos
		name string
		init ast.Expr
	}
	var items []pending
	for {
		pos := p.cur().Pos
		name, err := p.expect(token.Ident, "identifier")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Assign, "="); err != nil {
			return nil, err
		}
		init, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		items = append(items, pending{pos, name.Text, init})
		if p.peekKind() != token.Comma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(token.Colon, ":"); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon, ";"); err != nil {
		return nil, err
	}
	out := make([]ast.Stmt, len(items))
	for i, it := range items {
		out[i] = &ast.VarDecl{StmtBase: ast.StmtBase{Pos: it.pos}, Name: it.name, Type: typ, Init: it.init}
	}
	return out, nil
}

// parseIdentStmt disambiguates `x = e;` (Assign) from `f(...);` (ExprStmt)
// by looking one token past the identifier.
func (p *parser) parseIdentStmt() ([]ast.Stmt, *diag.Error) {
	pos := p.cur().Pos
	name := p.cur().Text
	if p.toks[p.pos+1].Kind == token.Assign {
		p.advance() // ident
		p.advance() // '='
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon, ";"); err != nil {
			return nil, err
		}
		return []ast.Stmt{&ast.Assign{StmtBase: ast.StmtBase{Pos: pos}, Name: name, Value: e}}, nil
	}
	e, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon, ";"); err != nil {
		return nil, err
	}
	return []ast.Stmt{&ast.ExprStmt{StmtBase: ast.StmtBase{Pos: pos}, X: e}}, nil
}

func (p *parser) parseIf() (ast.Stmt, *diag.Error) {
	pos := p.cur().Pos
	p.advance() // 'if'
	if _, err := p.expect(token.LParen, "("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen, ")"); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elseBlock *ast.Block
	if p.peekKind() == token.KwElse {
		p.advance()
		elseBlock, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return &ast.If{StmtBase: ast.StmtBase{Pos: pos}, Cond: cond, Then: then, Else: elseBlock}, nil
}

func (p *parser) parseWhile() (ast.Stmt, *diag.Error) {
	pos := p.cur().Pos
	p.advance() // 'while'
	if _, err := p.expect(token.LParen, "("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen, ")"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.While{StmtBase: ast.StmtBase{Pos: pos}, Cond: cond, Body: body}, nil
}

// binPrec is BX's binary operator precedence table. Levels 33 (==, !=)
// and 36 (<, <=, >, >=) are non-associative: chaining them (`a < b < c`)
// is a parse error rather than left-associating.
var binPrec = map[token.Kind]int{
	token.OrOr:    3,
	token.AndAnd:  6,
	token.Pipe:    10,
	token.Caret:   20,
	token.Amp:     30,
	token.EqEq:    33,
	token.NotEq:   33,
	token.Lt:      36,
	token.LtEq:    36,
	token.Gt:      36,
	token.GtEq:    36,
	token.Shl:     40,
	token.Shr:     40,
	token.Plus:    50,
	token.Minus:   50,
	token.Star:    60,
	token.Slash:   60,
	token.Percent: 60,
}

var binOpText = map[token.Kind]string{
	token.OrOr:    "||",
	token.AndAnd:  "&&",
	token.Pipe:    "|",
	token.Caret:   "^",
	token.Amp:     "&",
	token.EqEq:    "==",
	token.NotEq:   "!=",
	token.Lt:      "<",
	token.LtEq:    "<=",
	token.Gt:      ">",
	token.GtEq:    ">=",
	token.Shl:     "<<",
	token.Shr:     ">>",
	token.Plus:    "+",
	token.Minus:   "-",
	token.Star:    "*",
	token.Slash:   "/",
	token.Percent: "%",
}

var unOpText = map[token.Kind]string{
	token.Bang:  "!",
	token.Minus: "-",
	token.Tilde: "~",
}

var nonAssoc = map[token.Kind]bool{
	token.EqEq: true, token.NotEq: true,
	token.Lt: true, token.LtEq: true, token.Gt: true, token.GtEq: true,
}

// parseExpr is precedence-climbing over binPrec; minPrec is the lowest
// operator precedence this call is willing to consume, so nested calls
// naturally bind tighter-binding operators first.
func (p *parser) parseExpr(minPrec int) (ast.Expr, *diag.Error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		k := p.peekKind()
		prec, ok := binPrec[k]
		if !ok || prec < minPrec {
			break
		}
		opPos := p.cur().Pos
		opText := binOpText[k]
		p.advance()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.BinOp{ExprBase: ast.ExprBase{Pos: opPos}, Op: opText, Left: left, Right: right}
		if nonAssoc[k] {
			break
		}
	}
	return left, nil
}

// parseUnary handles the two unary precedence levels (`!` at 70, `-`/`~`
// at 80) by recursing directly into itself rather than consulting binPrec,
// since a unary operand is always another unary expression or a primary.
func (p *parser) parseUnary() (ast.Expr, *diag.Error) {
	switch p.peekKind() {
	case token.Bang, token.Minus, token.Tilde:
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnOp{ExprBase: ast.ExprBase{Pos: tok.Pos}, Op: unOpText[tok.Kind], Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (ast.Expr, *diag.Error) {
	switch p.peekKind() {
	case token.Number:
		tok := p.advance()
		return &ast.NumberLit{ExprBase: ast.ExprBase{Pos: tok.Pos}, Value: lexer.ParseInt(tok.Text)}, nil
	case token.KwTrue:
		tok := p.advance()
		return &ast.BoolLit{ExprBase: ast.ExprBase{Pos: tok.Pos}, Value: true}, nil
	case token.KwFalse:
		tok := p.advance()
		return &ast.BoolLit{ExprBase: ast.ExprBase{Pos: tok.Pos}, Value: false}, nil
	case token.LParen:
		p.advance()
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen, ")"); err != nil {
			return nil, err
		}
		return e, nil
	case token.Ident:
		tok := p.advance()
		id := &ast.Ident{ExprBase: ast.ExprBase{Pos: tok.Pos}, Name: tok.Text}
		if p.peekKind() != token.LParen {
			return id, nil
		}
		p.advance() // '('
		var args []ast.Expr
		for p.peekKind() != token.RParen {
			if len(args) > 0 {
				if _, err := p.expect(token.Comma, ","); err != nil {
					return nil, err
				}
			}
			a, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		p.advance() // ')'
		return &ast.Call{ExprBase: ast.ExprBase{Pos: tok.Pos}, Callee: id, Args: args}, nil
	}
	return nil, p.errorf("expected an expression")
}
