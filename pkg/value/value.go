// Package value implements the tagged runtime value union, including an
// insertion-ordered object map so diagnostics and JSON serialization stay
// deterministic.
package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/repr"
)

// Kind discriminates Value variants.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindList
	KindTuple
	KindObject
	KindFunction
	KindNil
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindObject:
		return "object"
	case KindFunction:
		return "function"
	case KindNil:
		return "nil"
	default:
		return "unknown"
	}
}

// FunctionID is an opaque handle into the runtime's function table.
type FunctionID int

// Value is the tagged runtime value union. Exactly one field is
// meaningful, selected by Kind.
type Value struct {
	Kind   Kind
	Int    int64
	Float  float64
	Bool   bool
	Str    string
	List   []Value // used for both List and Tuple
	Object *Object
	Fn     FunctionID
}

// Tabular is the optional contract a Value may satisfy to expose
// sampling/profiling of a bulk/tabular payload. The core Value union
// carries no concrete dataframe variant — this exists only as an
// extension point for a future tabular value, never constructed by the
// core interpreter itself.
type Tabular interface {
	Sample(n int) Value
	Profile() Value
}

func Int(v int64) Value     { return Value{Kind: KindInt, Int: v} }
func Float(v float64) Value { return Value{Kind: KindFloat, Float: v} }
func Bool(v bool) Value     { return Value{Kind: KindBool, Bool: v} }
func Str(v string) Value    { return Value{Kind: KindString, Str: v} }
func List(items []Value) Value  { return Value{Kind: KindList, List: items} }
func Tuple(items []Value) Value { return Value{Kind: KindTuple, List: items} }
func Obj(o *Object) Value       { return Value{Kind: KindObject, Object: o} }
func Fn(id FunctionID) Value    { return Value{Kind: KindFunction, Fn: id} }

var Nil = Value{Kind: KindNil}

// TypeName returns the source-level type name of v.
func (v Value) TypeName() string { return v.Kind.String() }

// IsTruthy implements the language's truthiness rule: everything is
// truthy except Bool(false) and Nil.
func (v Value) IsTruthy() bool {
	return !((v.Kind == KindBool && !v.Bool) || v.Kind == KindNil)
}

// Equal implements strict, per-variant equality: Int(1) != Float(1.0).
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindInt:
		return a.Int == b.Int
	case KindFloat:
		return a.Float == b.Float
	case KindBool:
		return a.Bool == b.Bool
	case KindString:
		return a.Str == b.Str
	case KindList, KindTuple:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !Equal(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return objectsEqual(a.Object, b.Object)
	case KindFunction:
		return a.Fn == b.Fn
	case KindNil:
		return true
	default:
		return false
	}
}

func objectsEqual(a, b *Object) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, k := range a.Keys() {
		bv, ok := b.Get(k)
		if !ok {
			return false
		}
		av, _ := a.Get(k)
		if !Equal(av, bv) {
			return false
		}
	}
	return true
}

// String renders v the way the language displays values.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindString:
		return fmt.Sprintf("%q", v.Str)
	case KindList:
		return joinValues(v.List, "[", "]")
	case KindTuple:
		return joinValues(v.List, "(", ")")
	case KindObject:
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range v.Object.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			val, _ := v.Object.Get(k)
			fmt.Fprintf(&b, "%s: %s", k, val.String())
		}
		b.WriteByte('}')
		return b.String()
	case KindFunction:
		return fmt.Sprintf("<function:%d>", v.Fn)
	case KindNil:
		return "nil"
	default:
		return "<invalid>"
	}
}

func joinValues(items []Value, open, close string) string {
	var b strings.Builder
	b.WriteString(open)
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(item.String())
	}
	b.WriteString(close)
	return b.String()
}

// Repr renders any internal node — a runtime Value or an AST node — as
// a Go-syntax debug dump, for the CLI's verbose mode and for tests that
// want to assert on shape rather than maintain hand-written String()
// golden text.
func Repr(v any) string {
	return repr.String(v)
}

// Object is an insertion-ordered string-to-Value map. Objects are
// iterated in insertion order (not sorted), per the language's
// diagnostic- and JSON-determinism requirement.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject creates an empty ordered object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Set inserts or overwrites a key. A first insertion appends to the key
// order; overwriting an existing key keeps its original position.
func (o *Object) Set(key string, v Value) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get looks up a key.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string { return o.keys }

// Len returns the number of fields.
func (o *Object) Len() int { return len(o.keys) }
