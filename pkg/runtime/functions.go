package runtime

import (
	"strconv"

	"github.com/burnlang/saplin/pkg/ast"
	"github.com/burnlang/saplin/pkg/value"
)

// BuiltinFn is the native implementation behind a builtin function table
// entry.
type BuiltinFn func(args []value.Value) (value.Value, error)

// userFunction is a function table entry backing a source-defined `f`
// declaration, closing over the frame it was defined in.
type userFunction struct {
	name         string
	params       []ast.FnParam
	returnSchema ast.SchemaExpr
	body         []ast.Stmt
	closure      *Env
}

// builtinFunction is a function table entry backing a native builtin.
type builtinFunction struct {
	name  string
	arity int
	fn    BuiltinFn
}

// functionEntry is the append-only function table's element type: exactly
// one of user/builtin is set.
type functionEntry struct {
	user    *userFunction
	builtin *builtinFunction
}

func (f functionEntry) paramNames() []string {
	if f.user != nil {
		names := make([]string, len(f.user.params))
		for i, p := range f.user.params {
			names[i] = p.Name
		}
		return names
	}
	names := make([]string, f.builtin.arity)
	for i := range names {
		names[i] = syntheticArgName(i)
	}
	return names
}

func syntheticArgName(idx int) string {
	return "arg" + strconv.Itoa(idx)
}

func (f functionEntry) displayName() string {
	if f.user != nil {
		return f.user.name
	}
	return f.builtin.name
}

func (f functionEntry) arity() int {
	if f.user != nil {
		return len(f.user.params)
	}
	return f.builtin.arity
}

// functionTable is a process-wide, append-only registry of callables.
// A value.FunctionID is simply an index into it and never dangles within
// a single interpretation.
type functionTable struct {
	entries []functionEntry
}

func (t *functionTable) registerBuiltin(name string, arity int, fn BuiltinFn) value.FunctionID {
	id := value.FunctionID(len(t.entries))
	t.entries = append(t.entries, functionEntry{builtin: &builtinFunction{name: name, arity: arity, fn: fn}})
	return id
}

func (t *functionTable) registerUser(def *ast.FnDef, closure *Env) value.FunctionID {
	id := value.FunctionID(len(t.entries))
	t.entries = append(t.entries, functionEntry{user: &userFunction{
		name:         def.Name,
		params:       def.Params,
		returnSchema: def.ReturnSchema,
		body:         def.Body,
		closure:      closure,
	}})
	return id
}

func (t *functionTable) get(id value.FunctionID) (functionEntry, bool) {
	if int(id) < 0 || int(id) >= len(t.entries) {
		return functionEntry{}, false
	}
	return t.entries[id], true
}
