package runtime

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/burnlang/saplin/pkg/diag"
	"github.com/burnlang/saplin/pkg/value"
)

// valueToJSON converts a runtime value into a plain Go JSON-shaped tree
// (map[string]any / []any / string / float64 / int64 / bool / nil),
// suitable for encoding/json.Marshal.
func valueToJSON(v value.Value, span diag.Span) (any, error) {
	switch v.Kind {
	case value.KindInt:
		return v.Int, nil
	case value.KindFloat:
		if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
			return nil, diag.WithSpanf(span, "cannot serialize non-finite float %g to JSON", v.Float)
		}
		return v.Float, nil
	case value.KindBool:
		return v.Bool, nil
	case value.KindString:
		return v.Str, nil
	case value.KindList, value.KindTuple:
		out := make([]any, len(v.List))
		for i, item := range v.List {
			converted, err := valueToJSON(item, span)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	case value.KindObject:
		out := make(map[string]any, v.Object.Len())
		for _, key := range v.Object.Keys() {
			item, _ := v.Object.Get(key)
			converted, err := valueToJSON(item, span)
			if err != nil {
				return nil, err
			}
			out[key] = converted
		}
		return out, nil
	case value.KindNil:
		return nil, nil
	case value.KindFunction:
		return nil, diag.WithSpan("function interpolation requires tool-calling", span)
	default:
		return nil, diag.WithSpanf(span, "cannot serialize value of type %s", v.TypeName())
	}
}

// jsonToValue converts a decoded JSON tree (as produced by
// encoding/json.Unmarshal into `any`, or by valueToJSON) into a runtime
// value.
func jsonToValue(raw any, span diag.Span) (value.Value, error) {
	switch v := raw.(type) {
	case nil:
		return value.Nil, nil
	case bool:
		return value.Bool(v), nil
	case string:
		return value.Str(v), nil
	case int64:
		return value.Int(v), nil
	case int:
		return value.Int(int64(v)), nil
	case float64:
		if v == float64(int64(v)) {
			return value.Int(int64(v)), nil
		}
		return value.Float(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return value.Int(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return value.Value{}, diag.WithSpan("unsupported JSON number representation", span)
		}
		return value.Float(f), nil
	case []any:
		items := make([]value.Value, len(v))
		for i, item := range v {
			converted, err := jsonToValue(item, span)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = converted
		}
		return value.List(items), nil
	case map[string]any:
		obj := value.NewObject()
		for _, key := range sortedKeys(v) {
			converted, err := jsonToValue(v[key], span)
			if err != nil {
				return value.Value{}, err
			}
			obj.Set(key, converted)
		}
		return value.Obj(obj), nil
	default:
		return value.Value{}, diag.WithSpanf(span, "unsupported JSON value of type %T", raw)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func parseJSONResponse(raw string, span diag.Span) (value.Value, error) {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return value.Value{}, diag.WithSpanf(span, "prompt output is not valid JSON: %s", err.Error())
	}
	return jsonToValue(decoded, span)
}

func serializePromptValue(v value.Value, span diag.Span) (string, error) {
	asJSON, err := valueToJSON(v, span)
	if err != nil {
		return "", err
	}
	encoded, err := json.Marshal(asJSON)
	if err != nil {
		return "", diag.WithSpanf(span, "failed to serialize prompt interpolation: %s", err.Error())
	}
	return string(encoded), nil
}

func mustMarshalIndent(v any) string {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(encoded)
}
