package runtime

import (
	"testing"

	"github.com/burnlang/saplin/pkg/ast"
	"github.com/burnlang/saplin/pkg/diag"
	"github.com/burnlang/saplin/pkg/value"
	"github.com/stretchr/testify/require"
)

func TestIntArithmeticStaysInt(t *testing.T) {
	v, err := evalBinaryValues(ast.Add, value.Int(2), value.Int(3), diag.Span{})
	require.NoError(t, err)
	require.Equal(t, value.KindInt, v.Kind)
	require.Equal(t, int64(5), v.Int)
}

func TestMixedIntFloatPromotesToFloat(t *testing.T) {
	v, err := evalBinaryValues(ast.Add, value.Int(2), value.Float(0.5), diag.Span{})
	require.NoError(t, err)
	require.Equal(t, value.KindFloat, v.Kind)
	require.Equal(t, 2.5, v.Float)
}

func TestStringConcatenationOnlyForPlus(t *testing.T) {
	v, err := evalBinaryValues(ast.Add, value.Str("a"), value.Str("b"), diag.Span{})
	require.NoError(t, err)
	require.Equal(t, "ab", v.Str)

	_, err = evalBinaryValues(ast.Sub, value.Str("a"), value.Str("b"), diag.Span{})
	require.Error(t, err)
}

func TestModuloRequiresBothInts(t *testing.T) {
	v, err := evalBinaryValues(ast.Mod, value.Int(7), value.Int(2), diag.Span{})
	require.NoError(t, err)
	require.Equal(t, int64(1), v.Int)

	_, err = evalBinaryValues(ast.Mod, value.Float(7.5), value.Int(2), diag.Span{})
	require.Error(t, err)
}

func TestModuloByZeroErrors(t *testing.T) {
	_, err := evalBinaryValues(ast.Mod, value.Int(7), value.Int(0), diag.Span{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "modulo by zero")
}

func TestDivisionAlwaysPromotesToFloat(t *testing.T) {
	v, err := evalBinaryValues(ast.Div, value.Int(4), value.Int(2), diag.Span{})
	require.NoError(t, err)
	require.Equal(t, value.KindFloat, v.Kind)
	require.Equal(t, 2.0, v.Float)
}

func TestDivisionByZeroErrors(t *testing.T) {
	_, err := evalBinaryValues(ast.Div, value.Int(4), value.Int(0), diag.Span{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "division by zero")
}

func TestComparisonPromotesBothOperandsToFloat(t *testing.T) {
	v, err := evalBinaryValues(ast.Lt, value.Int(1), value.Float(1.5), diag.Span{})
	require.NoError(t, err)
	require.True(t, v.Bool)
}

func TestEqualityIsStrictNoPromotion(t *testing.T) {
	v, err := evalBinaryValues(ast.Eq, value.Int(1), value.Float(1.0), diag.Span{})
	require.NoError(t, err)
	require.False(t, v.Bool, "Int(1) must not equal Float(1.0)")
}
