// Package token defines the lexical token kinds of the language.
package token

import "github.com/burnlang/saplin/pkg/diag"

// Kind discriminates token variants. The parser's lookahead helpers
// compare tokens by Kind alone, ignoring payload (as SameKind does).
type Kind int

const (
	LParen Kind = iota
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Comma
	Colon
	Dot
	Arrow
	Plus
	Minus
	Star
	Slash
	Percent
	Eq
	EqEq
	BangEq
	Lt
	LtEq
	Gt
	GtEq
	Pipe
	Question

	Prompt // payload: raw prompt body text

	Ident
	Int
	Float
	String

	KwFn
	KwIf
	KwElse
	KwFor
	KwIn
	KwReturn
	KwAssert
	KwAnd
	KwOr
	KwNot
	KwTrue
	KwFalse
	KwNil

	Newline
	Indent
	Dedent
	EOF
)

// Keywords maps the reserved identifiers to their keyword kind.
var Keywords = map[string]Kind{
	"f":      KwFn,
	"if":     KwIf,
	"else":   KwElse,
	"for":    KwFor,
	"in":     KwIn,
	"ret":    KwReturn,
	"assert": KwAssert,
	"and":    KwAnd,
	"or":     KwOr,
	"not":    KwNot,
	"true":   KwTrue,
	"false":  KwFalse,
	"nil":    KwNil,
}

// Token is a single lexical unit: a kind, its source span, and an
// optional payload (identifier text, literal value, or prompt body).
type Token struct {
	Kind   Kind
	Span   diag.Span
	Str    string  // Ident, String, Prompt
	Int    int64   // Int
	Float  float64 // Float
}

// SameKind compares two tokens' kinds, ignoring payload — the
// equivalent of the original's discriminant comparison.
func SameKind(a, b Kind) bool {
	return a == b
}

func (k Kind) String() string {
	switch k {
	case LParen:
		return "("
	case RParen:
		return ")"
	case LBracket:
		return "["
	case RBracket:
		return "]"
	case LBrace:
		return "{"
	case RBrace:
		return "}"
	case Comma:
		return ","
	case Colon:
		return ":"
	case Dot:
		return "."
	case Arrow:
		return "->"
	case Plus:
		return "+"
	case Minus:
		return "-"
	case Star:
		return "*"
	case Slash:
		return "/"
	case Percent:
		return "%"
	case Eq:
		return "="
	case EqEq:
		return "=="
	case BangEq:
		return "!="
	case Lt:
		return "<"
	case LtEq:
		return "<="
	case Gt:
		return ">"
	case GtEq:
		return ">="
	case Pipe:
		return "|"
	case Question:
		return "?"
	case Prompt:
		return "prompt"
	case Ident:
		return "identifier"
	case Int:
		return "int literal"
	case Float:
		return "float literal"
	case String:
		return "string literal"
	case Newline:
		return "newline"
	case Indent:
		return "indent"
	case Dedent:
		return "dedent"
	case EOF:
		return "eof"
	default:
		return "keyword"
	}
}
