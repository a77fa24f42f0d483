// Package diag implements source spans and the diagnostic error type
// shared by every compiler phase.
package diag

import (
	"fmt"
	"strings"
)

// Span is a byte-range plus 1-based line/column into a single source file.
type Span struct {
	Start int
	End   int
	Line  int
	Col   int
}

// NewSpan builds a Span from explicit coordinates.
func NewSpan(start, end, line, col int) Span {
	return Span{Start: start, End: end, Line: line, Col: col}
}

// Merge combines two spans: the earlier start wins (ties favor left),
// carrying that side's line/col, and the end is the later of the two.
func Merge(left, right Span) Span {
	start, line, col := left.Start, left.Line, left.Col
	if right.Start < left.Start {
		start, line, col = right.Start, right.Line, right.Col
	}
	end := left.End
	if right.End > end {
		end = right.End
	}
	return Span{Start: start, End: end, Line: line, Col: col}
}

// Error is the single fallible-result error type used across every
// phase: lexer, parser, resolver, schema, and runtime all return this.
type Error struct {
	Message string
	Span    *Span
}

// New creates a span-less error.
func New(message string) *Error {
	return &Error{Message: message}
}

// Newf creates a span-less error with formatting.
func Newf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// WithSpan creates an error anchored at a span.
func WithSpan(message string, span Span) *Error {
	return &Error{Message: message, Span: &span}
}

// WithSpanf creates a span-anchored error with formatting.
func WithSpanf(span Span, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Span: &span}
}

func (e *Error) Error() string {
	if e.Span == nil {
		return e.Message
	}
	return fmt.Sprintf("%s at %d:%d", e.Message, e.Span.Line, e.Span.Col)
}

// Render produces the exact boxed diagnostic format: a caret-underlined
// source excerpt when a span is present, or otherwise a single line with
// the message and the file path in parentheses.
func (e *Error) Render(filePath, source string) string {
	if e.Span == nil {
		return fmt.Sprintf("error: %s (%s)", e.Message, filePath)
	}

	lines := strings.Split(source, "\n")
	lineText := ""
	if idx := e.Span.Line - 1; idx >= 0 && idx < len(lines) {
		lineText = lines[idx]
	}

	caretPad := strings.Repeat(" ", max(e.Span.Col-1, 0))
	width := e.Span.End - e.Span.Start
	if width < 1 {
		width = 1
	}
	if width > 120 {
		width = 120
	}
	carets := strings.Repeat("^", width)

	return fmt.Sprintf(
		"error: %s\n  --> %s:%d:%d\n   |\n%3d | %s\n   | %s%s",
		e.Message, filePath, e.Span.Line, e.Span.Col,
		e.Span.Line, lineText, caretPad, carets,
	)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
