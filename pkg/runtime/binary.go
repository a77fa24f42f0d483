package runtime

import (
	"github.com/burnlang/saplin/pkg/ast"
	"github.com/burnlang/saplin/pkg/diag"
	"github.com/burnlang/saplin/pkg/value"
)

func (rt *Runtime) evalBinary(e *ast.Binary, env *Env) (value.Value, error) {
	switch e.Op {
	case ast.And:
		left, err := rt.evalExpr(e.Left, env)
		if err != nil {
			return value.Value{}, err
		}
		if !left.IsTruthy() {
			return value.Bool(false), nil
		}
		right, err := rt.evalExpr(e.Right, env)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(right.IsTruthy()), nil

	case ast.Or:
		left, err := rt.evalExpr(e.Left, env)
		if err != nil {
			return value.Value{}, err
		}
		if left.IsTruthy() {
			return value.Bool(true), nil
		}
		right, err := rt.evalExpr(e.Right, env)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(right.IsTruthy()), nil

	default:
		left, err := rt.evalExpr(e.Left, env)
		if err != nil {
			return value.Value{}, err
		}
		right, err := rt.evalExpr(e.Right, env)
		if err != nil {
			return value.Value{}, err
		}
		return evalBinaryValues(e.Op, left, right, e.SpanVal)
	}
}

func evalBinaryValues(op ast.BinaryOp, left, right value.Value, span diag.Span) (value.Value, error) {
	switch op {
	case ast.Add:
		switch {
		case left.Kind == value.KindInt && right.Kind == value.KindInt:
			return value.Int(left.Int + right.Int), nil
		case left.Kind == value.KindFloat && right.Kind == value.KindFloat:
			return value.Float(left.Float + right.Float), nil
		case left.Kind == value.KindInt && right.Kind == value.KindFloat:
			return value.Float(float64(left.Int) + right.Float), nil
		case left.Kind == value.KindFloat && right.Kind == value.KindInt:
			return value.Float(left.Float + float64(right.Int)), nil
		case left.Kind == value.KindString && right.Kind == value.KindString:
			return value.Str(left.Str + right.Str), nil
		default:
			return value.Value{}, diag.WithSpanf(span, "operator '+' expects numeric operands or strings, got %s and %s", left.TypeName(), right.TypeName())
		}

	case ast.Sub:
		return numericBinary(left, right, span, "-", func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
	case ast.Mul:
		return numericBinary(left, right, span, "*", func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })

	case ast.Div:
		a, b, err := asFloatPair(left, right, span, "/")
		if err != nil {
			return value.Value{}, err
		}
		if b == 0 {
			return value.Value{}, diag.WithSpan("division by zero", span)
		}
		return value.Float(a / b), nil

	case ast.Mod:
		if left.Kind == value.KindInt && right.Kind == value.KindInt {
			if right.Int == 0 {
				return value.Value{}, diag.WithSpan("modulo by zero", span)
			}
			return value.Int(left.Int % right.Int), nil
		}
		return value.Value{}, diag.WithSpanf(span, "operator '%%' expects integer operands, got %s and %s", left.TypeName(), right.TypeName())

	case ast.Eq:
		return value.Bool(value.Equal(left, right)), nil
	case ast.Ne:
		return value.Bool(!value.Equal(left, right)), nil
	case ast.Lt:
		return comparison(left, right, span, "<", func(a, b float64) bool { return a < b })
	case ast.Le:
		return comparison(left, right, span, "<=", func(a, b float64) bool { return a <= b })
	case ast.Gt:
		return comparison(left, right, span, ">", func(a, b float64) bool { return a > b })
	case ast.Ge:
		return comparison(left, right, span, ">=", func(a, b float64) bool { return a >= b })

	default:
		return value.Value{}, diag.Newf("runtime: logical ops handled earlier")
	}
}

func numericBinary(left, right value.Value, span diag.Span, opName string, intOp func(a, b int64) int64, floatOp func(a, b float64) float64) (value.Value, error) {
	switch {
	case left.Kind == value.KindInt && right.Kind == value.KindInt:
		return value.Int(intOp(left.Int, right.Int)), nil
	case left.Kind == value.KindFloat && right.Kind == value.KindFloat:
		return value.Float(floatOp(left.Float, right.Float)), nil
	case left.Kind == value.KindInt && right.Kind == value.KindFloat:
		return value.Float(floatOp(float64(left.Int), right.Float)), nil
	case left.Kind == value.KindFloat && right.Kind == value.KindInt:
		return value.Float(floatOp(left.Float, float64(right.Int))), nil
	default:
		return value.Value{}, diag.WithSpanf(span, "operator '%s' expects numbers, got %s and %s", opName, left.TypeName(), right.TypeName())
	}
}

func comparison(left, right value.Value, span diag.Span, opName string, cmp func(a, b float64) bool) (value.Value, error) {
	a, b, err := asFloatPair(left, right, span, opName)
	if err != nil {
		return value.Value{}, err
	}
	return value.Bool(cmp(a, b)), nil
}

func asFloatPair(left, right value.Value, span diag.Span, opName string) (float64, float64, error) {
	a, err := asFloat(left, span, opName)
	if err != nil {
		return 0, 0, err
	}
	b, err := asFloat(right, span, opName)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func asFloat(v value.Value, span diag.Span, opName string) (float64, error) {
	switch v.Kind {
	case value.KindInt:
		return float64(v.Int), nil
	case value.KindFloat:
		return v.Float, nil
	default:
		return 0, diag.WithSpanf(span, "operator %s expects numeric operands, got %s", opName, v.TypeName())
	}
}
