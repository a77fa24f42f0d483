// Package runtime implements the tree-walking evaluator: environment
// chain, operator semantics, function dispatch, and the prompt/tool
// orchestration loop.
package runtime

import (
	"github.com/burnlang/saplin/pkg/ast"
	"github.com/burnlang/saplin/pkg/diag"
	"github.com/burnlang/saplin/pkg/provider"
	"github.com/burnlang/saplin/pkg/schema"
	"github.com/burnlang/saplin/pkg/value"
	"github.com/sirupsen/logrus"
)

// Options bounds the prompt/tool-calling loop.
type Options struct {
	MaxToolRounds int
	MaxToolCalls  int
}

// DefaultOptions matches the distilled language's documented defaults.
func DefaultOptions() Options {
	return Options{MaxToolRounds: 8, MaxToolCalls: 32}
}

// Runtime holds the global frame, the function table, and the provider
// driving prompt evaluation for one program run.
type Runtime struct {
	global    *Env
	functions functionTable
	provider  provider.Provider
	options   Options
	log       *logrus.Entry
}

// New builds a Runtime against the given provider and options, with
// builtins pre-installed in the global frame.
func New(p provider.Provider, options Options) *Runtime {
	rt := &Runtime{
		global:   NewEnv(nil),
		provider: p,
		options:  options,
		log:      logrus.WithField("component", "runtime"),
	}
	rt.installBuiltins()
	return rt
}

// flow is the statement-execution control signal: either fall through to
// the next statement, or unwind to the nearest function call with a
// return value.
type flow struct {
	isReturn bool
	value    value.Value
}

var flowContinue = flow{}

func flowReturn(v value.Value) flow { return flow{isReturn: true, value: v} }

// RunProgram executes every top-level statement against the global
// frame. A bare `ret` at top level is rejected.
func (rt *Runtime) RunProgram(program *ast.Program) error {
	f, err := rt.execBlock(program.Stmts, rt.global)
	if err != nil {
		return err
	}
	if f.isReturn {
		return diag.WithSpan("return statement is only valid inside a function", program.Span)
	}
	return nil
}

func (rt *Runtime) execBlock(stmts []ast.Stmt, env *Env) (flow, error) {
	for _, stmt := range stmts {
		f, err := rt.execStmt(stmt, env)
		if err != nil {
			return flow{}, err
		}
		if f.isReturn {
			return f, nil
		}
	}
	return flowContinue, nil
}

func (rt *Runtime) execStmt(stmt ast.Stmt, env *Env) (flow, error) {
	switch s := stmt.(type) {
	case *ast.FnDef:
		id := rt.functions.registerUser(s, env)
		env.Define(s.Name, value.Fn(id))
		return flowContinue, nil

	case *ast.Assign:
		evaluated, err := rt.evalAssignValue(s, env)
		if err != nil {
			return flow{}, err
		}
		env.Define(s.Name, evaluated)
		return flowContinue, nil

	case *ast.If:
		condValue, err := rt.evalExpr(s.Cond, env)
		if err != nil {
			return flow{}, err
		}
		if condValue.IsTruthy() {
			return rt.execBlock(s.Then, env)
		}
		if s.Else != nil {
			return rt.execBlock(s.Else, env)
		}
		return flowContinue, nil

	case *ast.For:
		iterValue, err := rt.evalExpr(s.Iter, env)
		if err != nil {
			return flow{}, err
		}
		if iterValue.Kind != value.KindList && iterValue.Kind != value.KindTuple {
			return flow{}, diag.WithSpanf(s.SpanVal, "for-loop expects list or tuple iterable, got %s", iterValue.TypeName())
		}
		for _, item := range iterValue.List {
			if err := rt.bindPattern(s.Pattern, item, env, s.SpanVal); err != nil {
				return flow{}, err
			}
			f, err := rt.execBlock(s.Body, env)
			if err != nil {
				return flow{}, err
			}
			if f.isReturn {
				return f, nil
			}
		}
		return flowContinue, nil

	case *ast.Return:
		if s.Value == nil {
			return flowReturn(value.Nil), nil
		}
		v, err := rt.evalExpr(s.Value, env)
		if err != nil {
			return flow{}, err
		}
		return flowReturn(v), nil

	case *ast.Assert:
		v, err := rt.evalExpr(s.Expr, env)
		if err != nil {
			return flow{}, err
		}
		if !v.IsTruthy() {
			return flow{}, diag.WithSpanf(s.SpanVal, "assertion failed: expression evaluated to %s", v.String())
		}
		return flowContinue, nil

	case *ast.ExprStmt:
		if _, err := rt.evalExpr(s.Expr, env); err != nil {
			return flow{}, err
		}
		return flowContinue, nil

	default:
		return flow{}, diag.Newf("runtime: unhandled statement %T", stmt)
	}
}

func (rt *Runtime) evalAssignValue(s *ast.Assign, env *Env) (value.Value, error) {
	if s.Annotation != nil {
		if prompt, ok := s.Value.(*ast.Prompt); ok {
			return rt.evalTypedPromptAssignment(s.Name, prompt, s.Annotation, env, s.SpanVal)
		}
	}

	direct, err := rt.evalExpr(s.Value, env)
	if err != nil {
		return value.Value{}, err
	}
	if s.Annotation != nil {
		sc := schema.FromAST(s.Annotation)
		if detail := schema.Validate(direct, sc); detail != nil {
			return value.Value{}, diag.WithSpanf(s.SpanVal, "schema validation failed for '%s': %s", s.Name, detail)
		}
	}
	return direct, nil
}

func (rt *Runtime) bindPattern(pattern ast.Pattern, v value.Value, env *Env, span diag.Span) error {
	switch p := pattern.(type) {
	case ast.NamePattern:
		env.Define(p.Name, v)
		return nil
	case ast.TuplePattern:
		if v.Kind != value.KindTuple {
			return diag.WithSpan("tuple destructuring requires tuple values", span)
		}
		if len(v.List) != len(p.Names) {
			return diag.WithSpanf(span, "tuple destructuring expected %d values, got %d", len(p.Names), len(v.List))
		}
		for i, name := range p.Names {
			env.Define(name, v.List[i])
		}
		return nil
	default:
		return diag.Newf("runtime: unhandled pattern %T", pattern)
	}
}

func (rt *Runtime) evalExpr(expr ast.Expr, env *Env) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.IntLit:
		return value.Int(e.Value), nil
	case *ast.FloatLit:
		return value.Float(e.Value), nil
	case *ast.BoolLit:
		return value.Bool(e.Value), nil
	case *ast.StrLit:
		return value.Str(e.Value), nil
	case *ast.NilLit:
		return value.Nil, nil

	case *ast.Var:
		if v, ok := env.Get(e.Name); ok {
			return v, nil
		}
		return value.Value{}, diag.WithSpanf(e.SpanVal, "undefined name '%s'", e.Name)

	case *ast.ListLit:
		items := make([]value.Value, len(e.Items))
		for i, item := range e.Items {
			v, err := rt.evalExpr(item, env)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = v
		}
		return value.List(items), nil

	case *ast.TupleLit:
		items := make([]value.Value, len(e.Items))
		for i, item := range e.Items {
			v, err := rt.evalExpr(item, env)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = v
		}
		return value.Tuple(items), nil

	case *ast.ObjectLit:
		obj := value.NewObject()
		for _, f := range e.Fields {
			v, err := rt.evalExpr(f.Value, env)
			if err != nil {
				return value.Value{}, err
			}
			obj.Set(f.Name, v)
		}
		return value.Obj(obj), nil

	case *ast.Unary:
		v, err := rt.evalExpr(e.Expr, env)
		if err != nil {
			return value.Value{}, err
		}
		switch e.Op {
		case ast.Neg:
			switch v.Kind {
			case value.KindInt:
				return value.Int(-v.Int), nil
			case value.KindFloat:
				return value.Float(-v.Float), nil
			default:
				return value.Value{}, diag.WithSpanf(e.SpanVal, "unary '-' expects number, got %s", v.TypeName())
			}
		case ast.Not:
			return value.Bool(!v.IsTruthy()), nil
		default:
			return value.Value{}, diag.Newf("runtime: unhandled unary op")
		}

	case *ast.Binary:
		return rt.evalBinary(e, env)

	case *ast.Call:
		calleeValue, err := rt.evalExpr(e.Callee, env)
		if err != nil {
			return value.Value{}, err
		}
		args := make([]value.Value, len(e.Args))
		for i, arg := range e.Args {
			v, err := rt.evalExpr(arg, env)
			if err != nil {
				return value.Value{}, err
			}
			args[i] = v
		}
		if calleeValue.Kind != value.KindFunction {
			return value.Value{}, diag.WithSpanf(e.SpanVal, "attempted to call non-function value of type %s", calleeValue.TypeName())
		}
		return rt.callFunction(calleeValue.Fn, args, e.SpanVal)

	case *ast.Index:
		target, err := rt.evalExpr(e.Target, env)
		if err != nil {
			return value.Value{}, err
		}
		idx, err := rt.evalExpr(e.IndexE, env)
		if err != nil {
			return value.Value{}, err
		}
		return rt.evalIndex(target, idx, e.SpanVal)

	case *ast.Member:
		target, err := rt.evalExpr(e.Target, env)
		if err != nil {
			return value.Value{}, err
		}
		if target.Kind != value.KindObject {
			return value.Value{}, diag.WithSpanf(e.SpanVal, "member access expects object, got %s", target.TypeName())
		}
		v, ok := target.Object.Get(e.Name)
		if !ok {
			return value.Value{}, diag.WithSpanf(e.SpanVal, "object has no field '%s'", e.Name)
		}
		return v, nil

	case *ast.TupleIndex:
		target, err := rt.evalExpr(e.Target, env)
		if err != nil {
			return value.Value{}, err
		}
		if target.Kind != value.KindTuple {
			return value.Value{}, diag.WithSpanf(e.SpanVal, "tuple index expects tuple, got %s", target.TypeName())
		}
		if e.Index < 0 || e.Index >= len(target.List) {
			return value.Value{}, diag.WithSpanf(e.SpanVal, "tuple index %d out of bounds", e.Index)
		}
		return target.List[e.Index], nil

	case *ast.Prompt:
		text, err := rt.evalPrompt(e, env)
		if err != nil {
			return value.Value{}, err
		}
		return value.Str(text), nil

	default:
		return value.Value{}, diag.Newf("runtime: unhandled expression %T", expr)
	}
}

func (rt *Runtime) evalIndex(target, index value.Value, span diag.Span) (value.Value, error) {
	switch target.Kind {
	case value.KindList, value.KindTuple:
		idx, err := toListIndex(index, span)
		if err != nil {
			return value.Value{}, err
		}
		if idx < 0 || idx >= len(target.List) {
			return value.Value{}, diag.WithSpanf(span, "list index %d out of bounds", idx)
		}
		return target.List[idx], nil
	case value.KindObject:
		if index.Kind != value.KindString {
			return value.Value{}, diag.WithSpan("object index expects string key", span)
		}
		v, ok := target.Object.Get(index.Str)
		if !ok {
			return value.Value{}, diag.WithSpanf(span, "missing key '%s'", index.Str)
		}
		return v, nil
	default:
		return value.Value{}, diag.WithSpanf(span, "indexing is not supported on %s", target.TypeName())
	}
}

func toListIndex(v value.Value, span diag.Span) (int, error) {
	if v.Kind != value.KindInt {
		return 0, diag.WithSpanf(span, "index must be int, got %s", v.TypeName())
	}
	if v.Int < 0 {
		return 0, diag.WithSpan("index must be non-negative", span)
	}
	return int(v.Int), nil
}

func (rt *Runtime) callFunction(id value.FunctionID, args []value.Value, callSpan diag.Span) (value.Value, error) {
	entry, ok := rt.functions.get(id)
	if !ok {
		return value.Value{}, diag.WithSpan("unknown function reference", callSpan)
	}

	if len(args) != entry.arity() {
		return value.Value{}, diag.WithSpanf(callSpan, "function '%s' expects %d arguments, got %d", entry.displayName(), entry.arity(), len(args))
	}

	if entry.builtin != nil {
		v, err := entry.builtin.fn(args)
		if err != nil {
			return value.Value{}, diag.WithSpanf(callSpan, "%s", err.Error())
		}
		return v, nil
	}

	user := entry.user
	callEnv := NewEnv(user.closure)
	for i, param := range user.params {
		if param.Schema != nil {
			sc := schema.FromAST(param.Schema)
			if detail := schema.Validate(args[i], sc); detail != nil {
				return value.Value{}, diag.WithSpanf(callSpan, "invalid argument for parameter '%s' in '%s': %s", param.Name, user.name, detail)
			}
		}
		callEnv.Define(param.Name, args[i])
	}

	f, err := rt.execBlock(user.body, callEnv)
	if err != nil {
		return value.Value{}, err
	}
	result := value.Nil
	if f.isReturn {
		result = f.value
	}

	if user.returnSchema != nil {
		sc := schema.FromAST(user.returnSchema)
		if detail := schema.Validate(result, sc); detail != nil {
			return value.Value{}, diag.WithSpanf(callSpan, "function '%s' returned invalid value for schema %s: %s", user.name, schema.ToString(sc), detail)
		}
	}

	return result, nil
}
