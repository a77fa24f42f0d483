// Package parser implements a recursive-descent, Pratt-style parser
// producing an ast.Program from a lexer token stream.
package parser

import (
	"github.com/burnlang/saplin/pkg/ast"
	"github.com/burnlang/saplin/pkg/diag"
	"github.com/burnlang/saplin/pkg/lexer"
	"github.com/burnlang/saplin/pkg/token"
)

// Parser walks a fixed token slice with a single cursor.
type Parser struct {
	tokens []token.Token
	pos    int
}

// New creates a Parser over tokens.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse lexes source and parses it into a Program.
func Parse(source string) (*ast.Program, error) {
	tokens, err := lexer.Lex(source)
	if err != nil {
		return nil, err
	}
	return New(tokens).ParseProgram()
}

// ParseProgram parses the whole token stream as a Program.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	start := p.current().Span
	var stmts []ast.Stmt

	for !p.isEOF() {
		p.consumeNewlines()
		if p.isEOF() {
			break
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}

	span := start
	if len(stmts) > 0 {
		span = diag.Merge(start, stmts[len(stmts)-1].Span())
	}

	return &ast.Program{Stmts: stmts, Span: span}, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch {
	case p.matchSimple(token.KwFn):
		return p.parseFnDef()
	case p.matchSimple(token.KwIf):
		return p.parseIf()
	case p.matchSimple(token.KwFor):
		return p.parseFor()
	case p.matchSimple(token.KwReturn):
		return p.parseReturn()
	case p.matchSimple(token.KwAssert):
		return p.parseAssert()
	}

	if p.isAssignStmtStart() {
		return p.parseAssign()
	}

	return p.parseExprStmt()
}

func (p *Parser) parseFnDef() (ast.Stmt, error) {
	start := p.previous().Span
	name, _, err := p.expectIdent("expected function name after 'f'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSimple(token.LParen, "expected '(' after function name"); err != nil {
		return nil, err
	}

	var params []ast.FnParam
	if !p.checkSimple(token.RParen) {
		for {
			paramName, paramSpan, err := p.expectIdent("expected parameter name in function signature")
			if err != nil {
				return nil, err
			}
			var schema ast.SchemaExpr
			if p.matchSimple(token.Colon) {
				schema, err = p.parseSchemaExpr()
				if err != nil {
					return nil, err
				}
			}
			params = append(params, ast.FnParam{Name: paramName, Schema: schema, SpanVal: paramSpan})

			if !p.matchSimple(token.Comma) {
				break
			}
		}
	}

	if _, err := p.expectSimple(token.RParen, "expected ')' after parameter list"); err != nil {
		return nil, err
	}

	var returnSchema ast.SchemaExpr
	if p.matchSimple(token.Arrow) {
		returnSchema, err = p.parseSchemaExpr()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expectSimple(token.Colon, "expected ':' after function signature"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	end := start
	if len(body) > 0 {
		end = body[len(body)-1].Span()
	}

	return &ast.FnDef{
		Name:         name,
		Params:       params,
		ReturnSchema: returnSchema,
		Body:         body,
		SpanVal:      diag.Merge(start, end),
	}, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	start := p.previous().Span
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSimple(token.Colon, "expected ':' after if condition"); err != nil {
		return nil, err
	}
	thenBlock, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	end := start
	if len(thenBlock) > 0 {
		end = thenBlock[len(thenBlock)-1].Span()
	}

	var elseBlock []ast.Stmt
	if p.matchSimple(token.KwElse) {
		if _, err := p.expectSimple(token.Colon, "expected ':' after else"); err != nil {
			return nil, err
		}
		elseBlock, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
		if len(elseBlock) > 0 {
			end = elseBlock[len(elseBlock)-1].Span()
		}
	}

	return &ast.If{Cond: cond, Then: thenBlock, Else: elseBlock, SpanVal: diag.Merge(start, end)}, nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	start := p.previous().Span
	pattern, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSimple(token.KwIn, "expected 'in' in for loop"); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSimple(token.Colon, "expected ':' after for loop header"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	end := start
	if len(body) > 0 {
		end = body[len(body)-1].Span()
	}

	return &ast.For{Pattern: pattern, Iter: iter, Body: body, SpanVal: diag.Merge(start, end)}, nil
}

func (p *Parser) parsePattern() (ast.Pattern, error) {
	first, _, err := p.expectIdent("expected pattern name in for loop")
	if err != nil {
		return nil, err
	}
	if !p.matchSimple(token.Comma) {
		return ast.NamePattern{Name: first}, nil
	}

	names := []string{first}
	for {
		name, _, err := p.expectIdent("expected name in tuple destructuring pattern")
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if !p.matchSimple(token.Comma) {
			break
		}
	}

	return ast.TuplePattern{Names: names}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	start := p.previous().Span
	if p.checkSimple(token.Newline) {
		nl := p.advance()
		return &ast.Return{Value: nil, SpanVal: diag.Merge(start, nl.Span)}, nil
	}

	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	nl, err := p.expectSimple(token.Newline, "expected newline after return")
	if err != nil {
		return nil, err
	}
	return &ast.Return{Value: value, SpanVal: diag.Merge(start, nl.Span)}, nil
}

func (p *Parser) parseAssert() (ast.Stmt, error) {
	start := p.previous().Span
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	nl, err := p.expectSimple(token.Newline, "expected newline after assert")
	if err != nil {
		return nil, err
	}
	return &ast.Assert{Expr: expr, SpanVal: diag.Merge(start, nl.Span)}, nil
}

func (p *Parser) parseAssign() (ast.Stmt, error) {
	name, nameSpan, err := p.expectIdent("expected assignment target")
	if err != nil {
		return nil, err
	}

	var annotation ast.SchemaExpr
	if p.matchSimple(token.Colon) {
		annotation, err = p.parseSchemaExpr()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expectSimple(token.Eq, "expected '=' in assignment"); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	nl, err := p.expectSimple(token.Newline, "expected newline after assignment")
	if err != nil {
		return nil, err
	}

	return &ast.Assign{
		Name:       name,
		Annotation: annotation,
		Value:      value,
		SpanVal:    diag.Merge(nameSpan, nl.Span),
	}, nil
}

func (p *Parser) parseExprStmt() (ast.Stmt, error) {
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	nl, err := p.expectSimple(token.Newline, "expected newline after expression")
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Expr: expr, SpanVal: diag.Merge(expr.Span(), nl.Span)}, nil
}

func (p *Parser) parseBlock() ([]ast.Stmt, error) {
	if _, err := p.expectSimple(token.Newline, "expected newline before block"); err != nil {
		return nil, err
	}
	if _, err := p.expectSimple(token.Indent, "expected indented block"); err != nil {
		return nil, err
	}

	var stmts []ast.Stmt
	for !p.checkSimple(token.Dedent) && !p.isEOF() {
		p.consumeNewlines()
		if p.checkSimple(token.Dedent) {
			break
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}

	if _, err := p.expectSimple(token.Dedent, "expected end of block"); err != nil {
		return nil, err
	}
	if len(stmts) == 0 {
		return nil, diag.WithSpan("empty block is not allowed", p.previous().Span)
	}
	return stmts, nil
}

func (p *Parser) isAssignStmtStart() bool {
	if p.current().Kind != token.Ident {
		return false
	}
	next := p.peek(1).Kind
	return next == token.Eq || next == token.Colon
}

func (p *Parser) consumeNewlines() {
	for p.matchSimple(token.Newline) {
	}
}

func (p *Parser) consumeSoftBreaks() {
	for {
		k := p.current().Kind
		if k != token.Newline && k != token.Indent && k != token.Dedent {
			return
		}
		p.advance()
	}
}

func (p *Parser) expectSimple(expected token.Kind, message string) (token.Token, error) {
	if p.checkSimple(expected) {
		return p.advance(), nil
	}
	return token.Token{}, diag.WithSpan(message, p.current().Span)
}

func (p *Parser) checkSimple(expected token.Kind) bool {
	return p.current().Kind == expected
}

func (p *Parser) matchSimple(expected token.Kind) bool {
	if p.checkSimple(expected) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectIdent(message string) (string, diag.Span, error) {
	if name, span, ok := p.matchIdent(); ok {
		return name, span, nil
	}
	return "", diag.Span{}, diag.WithSpan(message, p.current().Span)
}

func (p *Parser) matchIdent() (string, diag.Span, bool) {
	if p.current().Kind == token.Ident {
		tok := p.current()
		p.advance()
		return tok.Str, tok.Span, true
	}
	return "", diag.Span{}, false
}

func (p *Parser) matchInt() (int64, diag.Span, bool) {
	if p.current().Kind == token.Int {
		tok := p.current()
		p.advance()
		return tok.Int, tok.Span, true
	}
	return 0, diag.Span{}, false
}

func (p *Parser) isEOF() bool {
	return p.checkSimple(token.EOF)
}

func (p *Parser) current() token.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek(offset int) token.Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) advance() token.Token {
	tok := p.current()
	if !p.isEOF() {
		p.pos++
	}
	return tok
}

func (p *Parser) previous() token.Token {
	idx := p.pos - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(p.tokens) {
		idx = len(p.tokens) - 1
	}
	return p.tokens[idx]
}
