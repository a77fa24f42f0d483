// Package lexer scans source text into a token stream, handling
// indentation-sensitive layout and the prompt-body sub-mode.
package lexer

import (
	"strconv"
	"strings"

	"github.com/burnlang/saplin/pkg/diag"
	"github.com/burnlang/saplin/pkg/token"
)

// Lexer scans one source string into tokens, one logical line at a time.
type Lexer struct {
	source string
	tokens []token.Token

	indentStack []int

	inPromptBlock   bool
	promptStartSpan diag.Span
	promptBuffer    strings.Builder
}

// New creates a Lexer over source.
func New(source string) *Lexer {
	return &Lexer{
		source:      source,
		indentStack: []int{0},
	}
}

// Lex scans source and returns its token stream, or the first fatal
// lexical error encountered.
func Lex(source string) ([]token.Token, error) {
	return New(source).Lex()
}

// Lex runs the scan.
func (l *Lexer) Lex() ([]token.Token, error) {
	offset := 0
	lineNo := 1

	for _, rawLine := range splitInclusive(l.source, '\n') {
		if err := l.lexLine(rawLine, lineNo, offset); err != nil {
			return nil, err
		}
		offset += len(rawLine)
		lineNo++
	}

	eofLine := lineNo - 1
	if eofLine < 1 {
		eofLine = 1
	}

	if l.inPromptBlock {
		return nil, diag.WithSpan("unterminated prompt block", diag.NewSpan(offset, offset, eofLine, 1))
	}

	for len(l.indentStack) > 1 {
		l.indentStack = l.indentStack[:len(l.indentStack)-1]
		l.tokens = append(l.tokens, token.Token{Kind: token.Dedent, Span: diag.NewSpan(offset, offset, eofLine, 1)})
	}

	l.tokens = append(l.tokens, token.Token{Kind: token.EOF, Span: diag.NewSpan(offset, offset, eofLine, 1)})
	return l.tokens, nil
}

func splitInclusive(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			out = append(out, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentContinue(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func (l *Lexer) lexLine(rawLine string, lineNo, lineStart int) error {
	hasNewline := strings.HasSuffix(rawLine, "\n")
	line := strings.TrimSuffix(rawLine, "\n")
	bytes := []byte(line)

	if l.inPromptBlock {
		return l.lexPromptLine(line, lineNo, lineStart, hasNewline)
	}

	idx := 0
	indent := 0
scan:
	for idx < len(bytes) {
		switch bytes[idx] {
		case ' ':
			indent++
			idx++
		case '\t':
			span := diag.NewSpan(lineStart+idx, lineStart+idx+1, lineNo, idx+1)
			return diag.WithSpan("tabs are not supported for indentation; use spaces", span)
		default:
			break scan
		}
	}

	rest := line[idx:]
	if strings.TrimSpace(rest) == "" || strings.HasPrefix(strings.TrimLeft(rest, " "), "//") {
		return nil
	}

	if err := l.handleIndentation(indent, lineNo, lineStart); err != nil {
		return err
	}

	for idx < len(bytes) {
		if bytes[idx] == ' ' {
			idx++
			continue
		}

		if strings.HasPrefix(line[idx:], "//") {
			break
		}

		if bytes[idx] == '$' {
			return l.startPrompt(line, lineNo, lineStart, idx, hasNewline)
		}

		tokenStart := idx
		startCol := tokenStart + 1
		var tok token.Token
		var err error

		switch {
		case bytes[idx] == '(':
			idx++
			tok.Kind = token.LParen
		case bytes[idx] == ')':
			idx++
			tok.Kind = token.RParen
		case bytes[idx] == '[':
			idx++
			tok.Kind = token.LBracket
		case bytes[idx] == ']':
			idx++
			tok.Kind = token.RBracket
		case bytes[idx] == '{':
			idx++
			tok.Kind = token.LBrace
		case bytes[idx] == '}':
			idx++
			tok.Kind = token.RBrace
		case bytes[idx] == ',':
			idx++
			tok.Kind = token.Comma
		case bytes[idx] == ':':
			idx++
			tok.Kind = token.Colon
		case bytes[idx] == '.':
			idx++
			tok.Kind = token.Dot
		case bytes[idx] == '+':
			idx++
			tok.Kind = token.Plus
		case bytes[idx] == '-':
			if idx+1 < len(bytes) && bytes[idx+1] == '>' {
				idx += 2
				tok.Kind = token.Arrow
			} else {
				idx++
				tok.Kind = token.Minus
			}
		case bytes[idx] == '*':
			idx++
			tok.Kind = token.Star
		case bytes[idx] == '/':
			idx++
			tok.Kind = token.Slash
		case bytes[idx] == '%':
			idx++
			tok.Kind = token.Percent
		case bytes[idx] == '=':
			if idx+1 < len(bytes) && bytes[idx+1] == '=' {
				idx += 2
				tok.Kind = token.EqEq
			} else {
				idx++
				tok.Kind = token.Eq
			}
		case bytes[idx] == '!':
			if idx+1 < len(bytes) && bytes[idx+1] == '=' {
				idx += 2
				tok.Kind = token.BangEq
			} else {
				span := diag.NewSpan(lineStart+tokenStart, lineStart+tokenStart+1, lineNo, startCol)
				return diag.WithSpan("unexpected '!' (did you mean '!=')", span)
			}
		case bytes[idx] == '<':
			if idx+1 < len(bytes) && bytes[idx+1] == '=' {
				idx += 2
				tok.Kind = token.LtEq
			} else {
				idx++
				tok.Kind = token.Lt
			}
		case bytes[idx] == '>':
			if idx+1 < len(bytes) && bytes[idx+1] == '=' {
				idx += 2
				tok.Kind = token.GtEq
			} else {
				idx++
				tok.Kind = token.Gt
			}
		case bytes[idx] == '|':
			idx++
			tok.Kind = token.Pipe
		case bytes[idx] == '?':
			idx++
			tok.Kind = token.Question
		case bytes[idx] == '"':
			idx, tok, err = l.lexString(line, bytes, idx, lineNo, lineStart, tokenStart, startCol)
			if err != nil {
				return err
			}
		case isIdentStart(bytes[idx]):
			idx, tok = lexIdent(line, bytes, idx, tokenStart)
		case isDigit(bytes[idx]):
			idx, tok, err = lexNumber(line, bytes, idx, tokenStart, lineNo, lineStart, startCol)
			if err != nil {
				return err
			}
		default:
			span := diag.NewSpan(lineStart+tokenStart, lineStart+tokenStart+1, lineNo, startCol)
			return diag.WithSpanf(span, "unexpected character '%c'", bytes[idx])
		}

		tok.Span = diag.NewSpan(lineStart+tokenStart, lineStart+idx, lineNo, startCol)
		l.tokens = append(l.tokens, tok)
	}

	nlCol := len(line) + 1
	nlSpan := diag.NewSpan(lineStart+len(line), lineStart+len(line), lineNo, nlCol)
	l.tokens = append(l.tokens, token.Token{Kind: token.Newline, Span: nlSpan})
	return nil
}

func (l *Lexer) lexString(line string, bytes []byte, idx int, lineNo, lineStart, tokenStart, startCol int) (int, token.Token, error) {
	idx++
	var out strings.Builder
	closed := false

loop:
	for idx < len(bytes) {
		switch bytes[idx] {
		case '"':
			idx++
			closed = true
			break loop
		case '\\':
			idx++
			if idx >= len(bytes) {
				break loop
			}
			var escaped byte
			switch bytes[idx] {
			case 'n':
				escaped = '\n'
			case 't':
				escaped = '\t'
			case 'r':
				escaped = '\r'
			case '"':
				escaped = '"'
			case '\\':
				escaped = '\\'
			default:
				span := diag.NewSpan(lineStart+idx, lineStart+idx+1, lineNo, idx+1)
				return 0, token.Token{}, diag.WithSpanf(span, "unsupported string escape: \\%c", bytes[idx])
			}
			out.WriteByte(escaped)
			idx++
		default:
			out.WriteByte(bytes[idx])
			idx++
		}
	}

	if !closed {
		span := diag.NewSpan(lineStart+tokenStart, lineStart+idx, lineNo, startCol)
		return 0, token.Token{}, diag.WithSpan("unterminated string literal", span)
	}

	return idx, token.Token{Kind: token.String, Str: out.String()}, nil
}

func lexIdent(line string, bytes []byte, idx, tokenStart int) (int, token.Token) {
	idx++
	for idx < len(bytes) && isIdentContinue(bytes[idx]) {
		idx++
	}
	text := line[tokenStart:idx]
	if kw, ok := token.Keywords[text]; ok {
		return idx, token.Token{Kind: kw}
	}
	return idx, token.Token{Kind: token.Ident, Str: text}
}

func lexNumber(line string, bytes []byte, idx, tokenStart, lineNo, lineStart, startCol int) (int, token.Token, error) {
	idx++
	for idx < len(bytes) && isDigit(bytes[idx]) {
		idx++
	}

	isFloat := false
	if idx+1 < len(bytes) && bytes[idx] == '.' && isDigit(bytes[idx+1]) {
		isFloat = true
		idx++
		for idx < len(bytes) && isDigit(bytes[idx]) {
			idx++
		}
	}

	text := line[tokenStart:idx]
	if isFloat {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			span := diag.NewSpan(lineStart+tokenStart, lineStart+idx, lineNo, startCol)
			return 0, token.Token{}, diag.WithSpan("invalid float literal", span)
		}
		return idx, token.Token{Kind: token.Float, Float: v}, nil
	}

	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		span := diag.NewSpan(lineStart+tokenStart, lineStart+idx, lineNo, startCol)
		return 0, token.Token{}, diag.WithSpan("invalid integer literal", span)
	}
	return idx, token.Token{Kind: token.Int, Int: v}, nil
}

func (l *Lexer) startPrompt(line string, lineNo, lineStart, dollarIdx int, hasNewline bool) error {
	startSpan := diag.NewSpan(lineStart+dollarIdx, lineStart+dollarIdx+1, lineNo, dollarIdx+1)

	afterOpen := dollarIdx + 1
	if relClose := strings.IndexByte(line[afterOpen:], '$'); relClose >= 0 {
		closeIdx := afterOpen + relClose
		content := line[afterOpen:closeIdx]
		closeSpan := diag.NewSpan(lineStart+closeIdx, lineStart+closeIdx+1, lineNo, closeIdx+1)

		l.tokens = append(l.tokens, token.Token{Kind: token.Prompt, Str: content, Span: diag.Merge(startSpan, closeSpan)})

		if err := checkTrailingAfterPrompt(line, closeIdx, closeSpan); err != nil {
			return err
		}

		nlCol := len(line) + 1
		nlSpan := diag.NewSpan(lineStart+len(line), lineStart+len(line), lineNo, nlCol)
		l.tokens = append(l.tokens, token.Token{Kind: token.Newline, Span: nlSpan})
		return nil
	}

	l.inPromptBlock = true
	l.promptStartSpan = startSpan
	l.promptBuffer.Reset()
	l.promptBuffer.WriteString(line[afterOpen:])
	if hasNewline {
		l.promptBuffer.WriteByte('\n')
	}
	return nil
}

func (l *Lexer) lexPromptLine(line string, lineNo, lineStart int, hasNewline bool) error {
	if closeIdx := strings.IndexByte(line, '$'); closeIdx >= 0 {
		l.promptBuffer.WriteString(line[:closeIdx])

		startSpan := l.promptStartSpan
		closeSpan := diag.NewSpan(lineStart+closeIdx, lineStart+closeIdx+1, lineNo, closeIdx+1)

		content := l.promptBuffer.String()
		l.promptBuffer.Reset()
		l.tokens = append(l.tokens, token.Token{Kind: token.Prompt, Str: content, Span: diag.Merge(startSpan, closeSpan)})
		l.inPromptBlock = false

		if err := checkTrailingAfterPrompt(line, closeIdx, closeSpan); err != nil {
			return err
		}

		nlCol := len(line) + 1
		nlSpan := diag.NewSpan(lineStart+len(line), lineStart+len(line), lineNo, nlCol)
		l.tokens = append(l.tokens, token.Token{Kind: token.Newline, Span: nlSpan})
		return nil
	}

	l.promptBuffer.WriteString(line)
	if hasNewline {
		l.promptBuffer.WriteByte('\n')
	}
	return nil
}

func checkTrailingAfterPrompt(line string, closeIdx int, closeSpan diag.Span) error {
	rest := line[closeIdx+1:]
	if strings.TrimSpace(rest) != "" && !strings.HasPrefix(strings.TrimLeft(rest, " "), "//") {
		return diag.WithSpan("unexpected text after closing '$'", closeSpan)
	}
	return nil
}

func (l *Lexer) handleIndentation(indent, lineNo, lineStart int) error {
	current := l.indentStack[len(l.indentStack)-1]

	if indent > current {
		l.indentStack = append(l.indentStack, indent)
		span := diag.NewSpan(lineStart, lineStart+indent, lineNo, 1)
		l.tokens = append(l.tokens, token.Token{Kind: token.Indent, Span: span})
		return nil
	}

	if indent < current {
		for len(l.indentStack) > 1 {
			top := l.indentStack[len(l.indentStack)-1]
			if indent >= top {
				break
			}
			l.indentStack = l.indentStack[:len(l.indentStack)-1]
			span := diag.NewSpan(lineStart, lineStart+indent, lineNo, 1)
			l.tokens = append(l.tokens, token.Token{Kind: token.Dedent, Span: span})
		}

		top := l.indentStack[len(l.indentStack)-1]
		if indent != top {
			span := diag.NewSpan(lineStart, lineStart+indent, lineNo, 1)
			return diag.WithSpan("inconsistent indentation level", span)
		}
	}

	return nil
}
