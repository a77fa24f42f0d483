// Package schema implements structural validation of runtime values and
// projection of schemas to JSON-Schema, mirroring the schema mini-grammar
// the parser recognizes.
package schema

import (
	"fmt"
	"strings"

	"github.com/burnlang/saplin/pkg/ast"
	"github.com/burnlang/saplin/pkg/value"
)

// Schema is the validator/projector's own representation of the schema
// mini-grammar, built once from the parsed ast.SchemaExpr.
type Schema interface {
	isSchema()
}

type Any struct{}
type Int struct{}
type Float struct{}
type Bool struct{}
type String struct{}
type List struct{ Inner Schema }
type Tuple struct{ Items []Schema }

type Field struct {
	Name   string
	Schema Schema
}

type Object struct{ Fields []Field }
type Union struct{ Variants []Schema }
type Optional struct{ Inner Schema }

func (Any) isSchema()      {}
func (Int) isSchema()      {}
func (Float) isSchema()    {}
func (Bool) isSchema()     {}
func (String) isSchema()   {}
func (List) isSchema()     {}
func (Tuple) isSchema()    {}
func (Object) isSchema()   {}
func (Union) isSchema()    {}
func (Optional) isSchema() {}

// FromAST converts a parsed schema expression into a Schema.
func FromAST(expr ast.SchemaExpr) Schema {
	switch e := expr.(type) {
	case ast.AnySchema:
		return Any{}
	case ast.IntSchema:
		return Int{}
	case ast.FloatSchema:
		return Float{}
	case ast.BoolSchema:
		return Bool{}
	case ast.StringSchema:
		return String{}
	case ast.ListSchema:
		return List{Inner: FromAST(e.Inner)}
	case ast.TupleSchema:
		items := make([]Schema, len(e.Items))
		for i, it := range e.Items {
			items[i] = FromAST(it)
		}
		return Tuple{Items: items}
	case ast.ObjectSchema:
		fields := make([]Field, len(e.Fields))
		for i, f := range e.Fields {
			fields[i] = Field{Name: f.Name, Schema: FromAST(f.Schema)}
		}
		return Object{Fields: fields}
	case ast.UnionSchema:
		variants := make([]Schema, len(e.Variants))
		for i, v := range e.Variants {
			variants[i] = FromAST(v)
		}
		return Union{Variants: variants}
	case ast.OptionalSchema:
		return Optional{Inner: FromAST(e.Inner)}
	default:
		panic(fmt.Sprintf("schema: unhandled ast.SchemaExpr %T", expr))
	}
}

// Validate checks v against s, returning a path-qualified error on
// mismatch.
func Validate(v value.Value, s Schema) error {
	return validateInner(v, s, "value")
}

func validateInner(v value.Value, s Schema, path string) error {
	switch sc := s.(type) {
	case Any:
		return nil
	case Int:
		if v.Kind != value.KindInt {
			return typeMismatch(path, s, v)
		}
		return nil
	case Float:
		if v.Kind != value.KindFloat {
			return typeMismatch(path, s, v)
		}
		return nil
	case Bool:
		if v.Kind != value.KindBool {
			return typeMismatch(path, s, v)
		}
		return nil
	case String:
		if v.Kind != value.KindString {
			return typeMismatch(path, s, v)
		}
		return nil
	case List:
		if v.Kind != value.KindList {
			return typeMismatch(path, s, v)
		}
		for i, item := range v.List {
			if err := validateInner(item, sc.Inner, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	case Tuple:
		if v.Kind != value.KindTuple {
			return typeMismatch(path, s, v)
		}
		if len(v.List) != len(sc.Items) {
			return fmt.Errorf("%s: expected tuple length %d, got %d", path, len(sc.Items), len(v.List))
		}
		for i, item := range v.List {
			if err := validateInner(item, sc.Items[i], fmt.Sprintf("%s.%d", path, i)); err != nil {
				return err
			}
		}
		return nil
	case Object:
		if v.Kind != value.KindObject {
			return typeMismatch(path, s, v)
		}
		declared := make(map[string]bool, len(sc.Fields))
		for _, f := range sc.Fields {
			declared[f.Name] = true
			val, ok := v.Object.Get(f.Name)
			if !ok {
				return fmt.Errorf("%s: missing field '%s'", path, f.Name)
			}
			if err := validateInner(val, f.Schema, fmt.Sprintf("%s.%s", path, f.Name)); err != nil {
				return err
			}
		}
		for _, key := range v.Object.Keys() {
			if !declared[key] {
				return fmt.Errorf("%s: unexpected field '%s'", path, key)
			}
		}
		return nil
	case Union:
		var errs []string
		for _, variant := range sc.Variants {
			if err := validateInner(v, variant, path); err == nil {
				return nil
			} else {
				errs = append(errs, err.Error())
			}
		}
		return fmt.Errorf("%s: value did not match any union variant (%s)", path, strings.Join(errs, "; "))
	case Optional:
		if v.Kind == value.KindNil {
			return nil
		}
		return validateInner(v, sc.Inner, path)
	default:
		return fmt.Errorf("%s: unknown schema kind", path)
	}
}

func typeMismatch(path string, s Schema, v value.Value) error {
	return fmt.Errorf("%s: expected %s, got %s", path, ToString(s), v.TypeName())
}

// ToString renders s in its source notation (e.g. "[int]", "{a: string}?").
func ToString(s Schema) string {
	switch sc := s.(type) {
	case Any:
		return "any"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	case List:
		return "[" + ToString(sc.Inner) + "]"
	case Tuple:
		parts := make([]string, len(sc.Items))
		for i, it := range sc.Items {
			parts[i] = ToString(it)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case Object:
		parts := make([]string, len(sc.Fields))
		for i, f := range sc.Fields {
			parts[i] = fmt.Sprintf("%s: %s", f.Name, ToString(f.Schema))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case Union:
		parts := make([]string, len(sc.Variants))
		for i, v := range sc.Variants {
			parts[i] = ToString(v)
		}
		return strings.Join(parts, " | ")
	case Optional:
		return ToString(sc.Inner) + "?"
	default:
		return "?"
	}
}

// JSON is a minimal, order-preserving JSON-value tree used for
// JSON-Schema projection — preferred over map[string]any so that
// "properties" field order stays stable for prompt rendering.
type JSON struct {
	obj   []JSONField
	arr   []JSON
	str   string
	isObj bool
	isArr bool
	isStr bool
	isRaw bool
	raw   any
}

type JSONField struct {
	Key   string
	Value JSON
}

func jsonObj(fields ...JSONField) JSON { return JSON{obj: fields, isObj: true} }
func jsonArr(items ...JSON) JSON       { return JSON{arr: items, isArr: true} }
func jsonStr(s string) JSON            { return JSON{str: s, isStr: true} }
func jsonRaw(v any) JSON               { return JSON{raw: v, isRaw: true} }

// Render writes the JSON tree as compact JSON text.
func (j JSON) Render() string {
	var b strings.Builder
	j.render(&b)
	return b.String()
}

func (j JSON) render(b *strings.Builder) {
	switch {
	case j.isObj:
		b.WriteByte('{')
		for i, f := range j.obj {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(b, "%q:", f.Key)
			f.Value.render(b)
		}
		b.WriteByte('}')
	case j.isArr:
		b.WriteByte('[')
		for i, it := range j.arr {
			if i > 0 {
				b.WriteByte(',')
			}
			it.render(b)
		}
		b.WriteByte(']')
	case j.isStr:
		fmt.Fprintf(b, "%q", j.str)
	case j.isRaw:
		switch v := j.raw.(type) {
		case bool:
			fmt.Fprintf(b, "%t", v)
		case nil:
			b.WriteString("null")
		default:
			fmt.Fprintf(b, "%v", v)
		}
	}
}

func jsonType(name string) JSON {
	return jsonObj(JSONField{"type", jsonStr(name)})
}

// ToJSONSchema projects s to a JSON-Schema (2020-12 flavor) document.
func ToJSONSchema(s Schema) JSON {
	switch sc := s.(type) {
	case Any:
		return jsonObj()
	case Int:
		return jsonType("integer")
	case Float:
		return jsonType("number")
	case Bool:
		return jsonType("boolean")
	case String:
		return jsonType("string")
	case List:
		return jsonObj(
			JSONField{"type", jsonStr("array")},
			JSONField{"items", ToJSONSchema(sc.Inner)},
		)
	case Tuple:
		items := make([]JSON, len(sc.Items))
		for i, it := range sc.Items {
			items[i] = ToJSONSchema(it)
		}
		return jsonObj(
			JSONField{"type", jsonStr("array")},
			JSONField{"prefixItems", jsonArr(items...)},
			JSONField{"minItems", jsonRaw(len(sc.Items))},
			JSONField{"maxItems", jsonRaw(len(sc.Items))},
			JSONField{"items", jsonRaw(false)},
		)
	case Object:
		props := make([]JSONField, len(sc.Fields))
		required := make([]JSON, len(sc.Fields))
		for i, f := range sc.Fields {
			props[i] = JSONField{f.Name, ToJSONSchema(f.Schema)}
			required[i] = jsonStr(f.Name)
		}
		return jsonObj(
			JSONField{"type", jsonStr("object")},
			JSONField{"properties", jsonObj(props...)},
			JSONField{"required", jsonArr(required...)},
			JSONField{"additionalProperties", jsonRaw(false)},
		)
	case Union:
		variants := make([]JSON, len(sc.Variants))
		for i, v := range sc.Variants {
			variants[i] = ToJSONSchema(v)
		}
		return jsonObj(JSONField{"anyOf", jsonArr(variants...)})
	case Optional:
		return jsonObj(JSONField{"anyOf", jsonArr(ToJSONSchema(sc.Inner), jsonType("null"))})
	default:
		return jsonObj()
	}
}

// ExampleJSON produces a minimal JSON example document matching s's
// shape, used to ground a typed-prompt contract.
func ExampleJSON(s Schema) JSON {
	switch sc := s.(type) {
	case Any:
		return jsonRaw(nil)
	case Int:
		return jsonRaw(0)
	case Float:
		return jsonRaw(0.0)
	case Bool:
		return jsonRaw(false)
	case String:
		return jsonStr("")
	case List:
		return jsonArr(ExampleJSON(sc.Inner))
	case Tuple:
		items := make([]JSON, len(sc.Items))
		for i, it := range sc.Items {
			items[i] = ExampleJSON(it)
		}
		return jsonArr(items...)
	case Object:
		fields := make([]JSONField, len(sc.Fields))
		for i, f := range sc.Fields {
			fields[i] = JSONField{f.Name, ExampleJSON(f.Schema)}
		}
		return jsonObj(fields...)
	case Union:
		if len(sc.Variants) == 0 {
			return jsonRaw(nil)
		}
		return ExampleJSON(sc.Variants[0])
	case Optional:
		return ExampleJSON(sc.Inner)
	default:
		return jsonRaw(nil)
	}
}
