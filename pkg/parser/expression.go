package parser

import (
	"strings"

	"github.com/burnlang/saplin/pkg/ast"
	"github.com/burnlang/saplin/pkg/diag"
	"github.com/burnlang/saplin/pkg/lexer"
	"github.com/burnlang/saplin/pkg/token"
)

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseLogicOr()
}

func (p *Parser) parseLogicOr() (ast.Expr, error) {
	expr, err := p.parseLogicAnd()
	if err != nil {
		return nil, err
	}
	for p.matchSimple(token.KwOr) {
		right, err := p.parseLogicAnd()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Op: ast.Or, Right: right, SpanVal: diag.Merge(expr.Span(), right.Span())}
	}
	return expr, nil
}

func (p *Parser) parseLogicAnd() (ast.Expr, error) {
	expr, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.matchSimple(token.KwAnd) {
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Op: ast.And, Right: right, SpanVal: diag.Merge(expr.Span(), right.Span())}
	}
	return expr, nil
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	expr, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch {
		case p.matchSimple(token.EqEq):
			op = ast.Eq
		case p.matchSimple(token.BangEq):
			op = ast.Ne
		default:
			return expr, nil
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Op: op, Right: right, SpanVal: diag.Merge(expr.Span(), right.Span())}
	}
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	expr, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch {
		case p.matchSimple(token.Lt):
			op = ast.Lt
		case p.matchSimple(token.LtEq):
			op = ast.Le
		case p.matchSimple(token.Gt):
			op = ast.Gt
		case p.matchSimple(token.GtEq):
			op = ast.Ge
		default:
			return expr, nil
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Op: op, Right: right, SpanVal: diag.Merge(expr.Span(), right.Span())}
	}
}

func (p *Parser) parseTerm() (ast.Expr, error) {
	expr, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch {
		case p.matchSimple(token.Plus):
			op = ast.Add
		case p.matchSimple(token.Minus):
			op = ast.Sub
		default:
			return expr, nil
		}
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Op: op, Right: right, SpanVal: diag.Merge(expr.Span(), right.Span())}
	}
}

func (p *Parser) parseFactor() (ast.Expr, error) {
	expr, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch {
		case p.matchSimple(token.Star):
			op = ast.Mul
		case p.matchSimple(token.Slash):
			op = ast.Div
		case p.matchSimple(token.Percent):
			op = ast.Mod
		default:
			return expr, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Op: op, Right: right, SpanVal: diag.Merge(expr.Span(), right.Span())}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.matchSimple(token.Minus) {
		start := p.previous().Span
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.Neg, Expr: expr, SpanVal: diag.Merge(start, expr.Span())}, nil
	}

	if p.matchSimple(token.KwNot) {
		start := p.previous().Span
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.Not, Expr: expr, SpanVal: diag.Merge(start, expr.Span())}, nil
	}

	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		if p.matchSimple(token.LParen) {
			var args []ast.Expr
			if !p.checkSimple(token.RParen) {
				for {
					arg, err := p.parseExpr()
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
					if !p.matchSimple(token.Comma) {
						break
					}
				}
			}
			end, err := p.expectSimple(token.RParen, "expected ')' after arguments")
			if err != nil {
				return nil, err
			}
			expr = &ast.Call{Callee: expr, Args: args, SpanVal: diag.Merge(expr.Span(), end.Span)}
			continue
		}

		if p.matchSimple(token.LBracket) {
			idxExpr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			end, err := p.expectSimple(token.RBracket, "expected ']' after index")
			if err != nil {
				return nil, err
			}
			expr = &ast.Index{Target: expr, IndexE: idxExpr, SpanVal: diag.Merge(expr.Span(), end.Span)}
			continue
		}

		if p.matchSimple(token.Dot) {
			if idx, idxSpan, ok := p.matchInt(); ok {
				if idx < 0 {
					return nil, diag.WithSpan("tuple index must be non-negative", idxSpan)
				}
				expr = &ast.TupleIndex{Target: expr, Index: int(idx), SpanVal: diag.Merge(expr.Span(), idxSpan)}
				continue
			}

			if name, nameSpan, ok := p.matchIdent(); ok {
				expr = &ast.Member{Target: expr, Name: name, SpanVal: diag.Merge(expr.Span(), nameSpan)}
				continue
			}

			return nil, diag.WithSpan("expected field name or tuple index after '.'", p.current().Span)
		}

		break
	}

	return expr, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.current()
	switch tok.Kind {
	case token.Int:
		p.advance()
		return &ast.IntLit{Value: tok.Int, SpanVal: tok.Span}, nil
	case token.Float:
		p.advance()
		return &ast.FloatLit{Value: tok.Float, SpanVal: tok.Span}, nil
	case token.String:
		p.advance()
		return &ast.StrLit{Value: tok.Str, SpanVal: tok.Span}, nil
	case token.KwTrue:
		p.advance()
		return &ast.BoolLit{Value: true, SpanVal: tok.Span}, nil
	case token.KwFalse:
		p.advance()
		return &ast.BoolLit{Value: false, SpanVal: tok.Span}, nil
	case token.KwNil:
		p.advance()
		return &ast.NilLit{SpanVal: tok.Span}, nil
	case token.Ident:
		p.advance()
		return &ast.Var{Name: tok.Str, SpanVal: tok.Span}, nil
	case token.LBracket:
		return p.parseListLit()
	case token.LBrace:
		return p.parseObjectLit()
	case token.LParen:
		return p.parseGroupOrTuple()
	case token.Prompt:
		return p.parsePromptExpr()
	default:
		return nil, diag.WithSpan("expected expression", tok.Span)
	}
}

func (p *Parser) parseListLit() (ast.Expr, error) {
	start, err := p.expectSimple(token.LBracket, "expected '['")
	if err != nil {
		return nil, err
	}
	var items []ast.Expr
	if !p.checkSimple(token.RBracket) {
		for {
			item, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if !p.matchSimple(token.Comma) {
				break
			}
		}
	}
	end, err := p.expectSimple(token.RBracket, "expected ']' after list")
	if err != nil {
		return nil, err
	}
	return &ast.ListLit{Items: items, SpanVal: diag.Merge(start.Span, end.Span)}, nil
}

func (p *Parser) parseGroupOrTuple() (ast.Expr, error) {
	start, err := p.expectSimple(token.LParen, "expected '('")
	if err != nil {
		return nil, err
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if p.matchSimple(token.Comma) {
		items := []ast.Expr{first}
		for {
			item, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if !p.matchSimple(token.Comma) {
				break
			}
		}
		end, err := p.expectSimple(token.RParen, "expected ')' after tuple")
		if err != nil {
			return nil, err
		}
		return &ast.TupleLit{Items: items, SpanVal: diag.Merge(start.Span, end.Span)}, nil
	}

	if _, err := p.expectSimple(token.RParen, "expected ')' after expression"); err != nil {
		return nil, err
	}
	return first, nil
}

func (p *Parser) parseObjectLit() (ast.Expr, error) {
	start, err := p.expectSimple(token.LBrace, "expected '{'")
	if err != nil {
		return nil, err
	}
	p.consumeSoftBreaks()

	var fields []ast.ObjectField
	if !p.checkSimple(token.RBrace) {
		for {
			p.consumeSoftBreaks()
			name, _, err := p.expectIdent("expected object field name")
			if err != nil {
				return nil, err
			}
			if _, err := p.expectSimple(token.Colon, "expected ':' after object field name"); err != nil {
				return nil, err
			}
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			fields = append(fields, ast.ObjectField{Name: name, Value: value})
			p.consumeSoftBreaks()

			if !p.matchSimple(token.Comma) {
				break
			}
			p.consumeSoftBreaks()
		}
	}

	p.consumeSoftBreaks()
	end, err := p.expectSimple(token.RBrace, "expected '}' after object")
	if err != nil {
		return nil, err
	}
	return &ast.ObjectLit{Fields: fields, SpanVal: diag.Merge(start.Span, end.Span)}, nil
}

// --- schema mini-grammar ---

func (p *Parser) parseSchemaExpr() (ast.SchemaExpr, error) {
	return p.parseUnionSchema()
}

func (p *Parser) parseUnionSchema() (ast.SchemaExpr, error) {
	first, err := p.parseSchemaPrimary()
	if err != nil {
		return nil, err
	}
	variants := []ast.SchemaExpr{first}

	for p.matchSimple(token.Pipe) {
		next, err := p.parseSchemaPrimary()
		if err != nil {
			return nil, err
		}
		variants = append(variants, next)
	}

	var schema ast.SchemaExpr
	if len(variants) == 1 {
		schema = variants[0]
	} else {
		schema = ast.UnionSchema{Variants: variants}
	}

	if p.matchSimple(token.Question) {
		schema = ast.OptionalSchema{Inner: schema}
	}

	return schema, nil
}

func (p *Parser) parseSchemaPrimary() (ast.SchemaExpr, error) {
	if name, span, ok := p.matchIdent(); ok {
		switch name {
		case "any":
			return ast.AnySchema{}, nil
		case "int":
			return ast.IntSchema{}, nil
		case "float":
			return ast.FloatSchema{}, nil
		case "bool":
			return ast.BoolSchema{}, nil
		case "string":
			return ast.StringSchema{}, nil
		default:
			return nil, diag.WithSpanf(span, "unknown schema type '%s'", name)
		}
	}

	if p.matchSimple(token.LBracket) {
		inner, err := p.parseSchemaExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSimple(token.RBracket, "expected ']' in list schema"); err != nil {
			return nil, err
		}
		return ast.ListSchema{Inner: inner}, nil
	}

	if p.matchSimple(token.LParen) {
		first, err := p.parseSchemaExpr()
		if err != nil {
			return nil, err
		}
		if p.matchSimple(token.Comma) {
			items := []ast.SchemaExpr{first}
			for {
				item, err := p.parseSchemaExpr()
				if err != nil {
					return nil, err
				}
				items = append(items, item)
				if !p.matchSimple(token.Comma) {
					break
				}
			}
			if _, err := p.expectSimple(token.RParen, "expected ')' after tuple schema"); err != nil {
				return nil, err
			}
			return ast.TupleSchema{Items: items}, nil
		}
		if _, err := p.expectSimple(token.RParen, "expected ')' after grouped schema"); err != nil {
			return nil, err
		}
		return first, nil
	}

	if p.matchSimple(token.LBrace) {
		p.consumeSoftBreaks()
		var fields []ast.SchemaField
		if p.checkSimple(token.RBrace) {
			return nil, diag.WithSpan("object schema requires at least one field", p.current().Span)
		}

		for {
			p.consumeSoftBreaks()
			name, _, err := p.expectIdent("expected field name in object schema")
			if err != nil {
				return nil, err
			}
			if _, err := p.expectSimple(token.Colon, "expected ':' after field name"); err != nil {
				return nil, err
			}
			schema, err := p.parseSchemaExpr()
			if err != nil {
				return nil, err
			}
			fields = append(fields, ast.SchemaField{Name: name, Schema: schema})
			p.consumeSoftBreaks()
			if !p.matchSimple(token.Comma) {
				break
			}
			p.consumeSoftBreaks()
		}

		p.consumeSoftBreaks()
		if _, err := p.expectSimple(token.RBrace, "expected '}' after object schema"); err != nil {
			return nil, err
		}
		return ast.ObjectSchema{Fields: fields}, nil
	}

	return nil, diag.WithSpan("expected schema expression", p.current().Span)
}

// --- prompt interpolation sub-parse ---

func (p *Parser) parsePromptExpr() (ast.Expr, error) {
	tok := p.advance()
	span := tok.Span

	parts, err := parsePromptParts(tok.Str, span)
	if err != nil {
		return nil, err
	}
	return &ast.Prompt{Parts: parts, SpanVal: span}, nil
}

func parsePromptParts(raw string, span diag.Span) ([]ast.PromptPart, error) {
	var parts []ast.PromptPart
	textStart := 0
	bytes := []byte(raw)
	idx := 0

	for idx < len(bytes) {
		if bytes[idx] != '{' {
			idx++
			continue
		}

		if textStart < idx {
			parts = append(parts, ast.PromptText{Text: raw[textStart:idx]})
		}

		closeIdx, ok := findPromptInterpolationEnd(raw, idx)
		if !ok {
			return nil, diag.WithSpan("unterminated prompt interpolation", span)
		}

		exprSource := strings.TrimSpace(raw[idx+1 : closeIdx])
		if exprSource == "" {
			return nil, diag.WithSpan("empty prompt interpolation is not allowed", span)
		}

		expr, err := parseEmbeddedExpr(exprSource, span)
		if err != nil {
			return nil, err
		}
		parts = append(parts, ast.PromptInterpolation{Expr: expr})

		idx = closeIdx + 1
		textStart = idx
	}

	if textStart < len(raw) {
		parts = append(parts, ast.PromptText{Text: raw[textStart:]})
	}

	if len(parts) == 0 {
		parts = append(parts, ast.PromptText{Text: ""})
	}

	return parts, nil
}

func findPromptInterpolationEnd(raw string, openIdx int) (int, bool) {
	bytes := []byte(raw)
	idx := openIdx + 1
	braceDepth := 1
	inString := false
	escaped := false

	for idx < len(bytes) {
		b := bytes[idx]

		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			idx++
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{':
			braceDepth++
		case '}':
			braceDepth--
			if braceDepth == 0 {
				return idx, true
			}
		}
		idx++
	}

	return 0, false
}

func parseEmbeddedExpr(source string, promptSpan diag.Span) (ast.Expr, error) {
	tokens, err := lexer.Lex(source + "\n")
	if err != nil {
		return nil, diag.WithSpanf(promptSpan, "invalid prompt interpolation: %s", err.Error())
	}

	sub := New(tokens)
	sub.consumeNewlines()
	expr, err := sub.parseExpr()
	if err != nil {
		return nil, diag.WithSpanf(promptSpan, "invalid prompt interpolation: %s", err.Error())
	}
	sub.consumeNewlines()

	if !sub.isEOF() {
		return nil, diag.WithSpan("invalid prompt interpolation: trailing tokens", promptSpan)
	}

	return expr, nil
}
