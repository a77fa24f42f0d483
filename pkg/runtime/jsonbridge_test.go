package runtime

import (
	"math"
	"testing"

	"github.com/burnlang/saplin/pkg/diag"
	"github.com/burnlang/saplin/pkg/value"
	"github.com/stretchr/testify/require"
)

func TestValueToJSONRoundTripsThroughObject(t *testing.T) {
	obj := value.NewObject()
	obj.Set("n", value.Int(3))
	obj.Set("tags", value.List([]value.Value{value.Str("a"), value.Str("b")}))

	asJSON, err := valueToJSON(value.Obj(obj), diag.Span{})
	require.NoError(t, err)

	m, ok := asJSON.(map[string]any)
	require.True(t, ok)
	require.Equal(t, int64(3), m["n"])

	back, err := jsonToValue(m, diag.Span{})
	require.NoError(t, err)
	require.Equal(t, value.KindObject, back.Kind)

	n, ok := back.Object.Get("n")
	require.True(t, ok)
	require.Equal(t, int64(3), n.Int)
}

func TestJSONToValueDistinguishesIntAndFloat(t *testing.T) {
	v, err := jsonToValue(float64(4), diag.Span{})
	require.NoError(t, err)
	require.Equal(t, value.KindInt, v.Kind)

	v, err = jsonToValue(float64(4.5), diag.Span{})
	require.NoError(t, err)
	require.Equal(t, value.KindFloat, v.Kind)
}

func TestJSONToValueSortsObjectKeysAlphabetically(t *testing.T) {
	raw := map[string]any{"z": float64(1), "a": float64(2)}
	v, err := jsonToValue(raw, diag.Span{})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "z"}, v.Object.Keys())
}

func TestParseJSONResponseRejectsInvalidJSON(t *testing.T) {
	_, err := parseJSONResponse("not-json", diag.Span{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not valid JSON")
}

func TestFunctionValuesCannotBeSerialized(t *testing.T) {
	_, err := valueToJSON(value.Fn(0), diag.Span{})
	require.Error(t, err)
}

func TestNonFiniteFloatsCannotBeSerialized(t *testing.T) {
	_, err := valueToJSON(value.Float(math.NaN()), diag.Span{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "non-finite")

	_, err = valueToJSON(value.Float(math.Inf(1)), diag.Span{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "non-finite")

	_, err = valueToJSON(value.Float(math.Inf(-1)), diag.Span{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "non-finite")
}

func TestFiniteFloatsSerializeNormally(t *testing.T) {
	out, err := valueToJSON(value.Float(3.5), diag.Span{})
	require.NoError(t, err)
	require.Equal(t, 3.5, out)
}
