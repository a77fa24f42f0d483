// Package resolver implements the pre-evaluation name-binding pass: a
// two-pass, per-block scope check ensuring every variable reference
// names a binding in some enclosing scope or a builtin.
package resolver

import (
	"fmt"

	"github.com/burnlang/saplin/pkg/ast"
	"github.com/burnlang/saplin/pkg/diag"
)

type scope map[string]bool

func cloneScope(s scope) scope {
	out := make(scope, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

// Resolver checks an ast.Program against a fixed builtin name set.
type Resolver struct {
	builtins map[string]bool
}

// New creates a Resolver with the given builtin names available in
// every scope.
func New(builtins []string) *Resolver {
	b := make(map[string]bool, len(builtins))
	for _, name := range builtins {
		b[name] = true
	}
	return &Resolver{builtins: b}
}

// Check resolves every name in program, returning the first error found.
func (r *Resolver) Check(program *ast.Program) error {
	_, err := r.resolveBlock(program.Stmts, scope{})
	return err
}

// resolveBlock runs the two-pass algorithm for one block: first collect
// every name this block declares (cloning the parent scope), then
// resolve each statement's expressions against the completed scope.
func (r *Resolver) resolveBlock(stmts []ast.Stmt, parent scope) (scope, error) {
	blockScope := cloneScope(parent)
	declaredHere := make(map[string]bool)

	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.FnDef:
			if declaredHere[s.Name] {
				return nil, diag.WithSpanf(s.SpanVal, "duplicate function definition '%s'", s.Name)
			}
			declaredHere[s.Name] = true
			blockScope[s.Name] = true
		case *ast.Assign:
			blockScope[s.Name] = true
		case *ast.For:
			for _, name := range patternNames(s.Pattern) {
				blockScope[name] = true
			}
		}
	}

	for _, stmt := range stmts {
		if err := r.resolveStmt(stmt, blockScope); err != nil {
			return nil, err
		}
	}

	return blockScope, nil
}

func patternNames(p ast.Pattern) []string {
	switch pat := p.(type) {
	case ast.NamePattern:
		return []string{pat.Name}
	case ast.TuplePattern:
		return pat.Names
	default:
		return nil
	}
}

func (r *Resolver) resolveStmt(stmt ast.Stmt, sc scope) error {
	switch s := stmt.(type) {
	case *ast.FnDef:
		fnScope := cloneScope(sc)
		seen := make(map[string]bool, len(s.Params))
		for _, p := range s.Params {
			if seen[p.Name] {
				return diag.WithSpanf(p.SpanVal, "duplicate parameter name '%s'", p.Name)
			}
			seen[p.Name] = true
			fnScope[p.Name] = true
		}
		_, err := r.resolveBlock(s.Body, fnScope)
		return err

	case *ast.Assign:
		return r.resolveExpr(s.Value, sc)

	case *ast.If:
		if err := r.resolveExpr(s.Cond, sc); err != nil {
			return err
		}
		if _, err := r.resolveBlock(s.Then, sc); err != nil {
			return err
		}
		if s.Else != nil {
			if _, err := r.resolveBlock(s.Else, sc); err != nil {
				return err
			}
		}
		return nil

	case *ast.For:
		if err := r.resolveExpr(s.Iter, sc); err != nil {
			return err
		}
		forScope := cloneScope(sc)
		for _, name := range patternNames(s.Pattern) {
			forScope[name] = true
		}
		_, err := r.resolveBlock(s.Body, forScope)
		return err

	case *ast.Return:
		if s.Value != nil {
			return r.resolveExpr(s.Value, sc)
		}
		return nil

	case *ast.Assert:
		return r.resolveExpr(s.Expr, sc)

	case *ast.ExprStmt:
		return r.resolveExpr(s.Expr, sc)

	default:
		return fmt.Errorf("resolver: unhandled statement %T", stmt)
	}
}

func (r *Resolver) resolveExpr(expr ast.Expr, sc scope) error {
	switch e := expr.(type) {
	case *ast.IntLit, *ast.FloatLit, *ast.BoolLit, *ast.StrLit, *ast.NilLit:
		return nil
	case *ast.Var:
		if sc[e.Name] || r.builtins[e.Name] {
			return nil
		}
		return diag.WithSpanf(e.SpanVal, "undefined name '%s'", e.Name)
	case *ast.ListLit:
		for _, item := range e.Items {
			if err := r.resolveExpr(item, sc); err != nil {
				return err
			}
		}
		return nil
	case *ast.TupleLit:
		for _, item := range e.Items {
			if err := r.resolveExpr(item, sc); err != nil {
				return err
			}
		}
		return nil
	case *ast.ObjectLit:
		for _, f := range e.Fields {
			if err := r.resolveExpr(f.Value, sc); err != nil {
				return err
			}
		}
		return nil
	case *ast.Unary:
		return r.resolveExpr(e.Expr, sc)
	case *ast.Binary:
		if err := r.resolveExpr(e.Left, sc); err != nil {
			return err
		}
		return r.resolveExpr(e.Right, sc)
	case *ast.Call:
		if err := r.resolveExpr(e.Callee, sc); err != nil {
			return err
		}
		for _, arg := range e.Args {
			if err := r.resolveExpr(arg, sc); err != nil {
				return err
			}
		}
		return nil
	case *ast.Index:
		if err := r.resolveExpr(e.Target, sc); err != nil {
			return err
		}
		return r.resolveExpr(e.IndexE, sc)
	case *ast.Member:
		return r.resolveExpr(e.Target, sc)
	case *ast.TupleIndex:
		return r.resolveExpr(e.Target, sc)
	case *ast.Prompt:
		for _, part := range e.Parts {
			if interp, ok := part.(ast.PromptInterpolation); ok {
				if err := r.resolveExpr(interp.Expr, sc); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		return fmt.Errorf("resolver: unhandled expression %T", expr)
	}
}
