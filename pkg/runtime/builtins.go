package runtime

import (
	"fmt"
	"strings"

	"github.com/burnlang/saplin/pkg/value"
)

func (rt *Runtime) installBuiltins() {
	rt.registerBuiltin("upper", 1, builtinUpper)
	rt.registerBuiltin("print", 1, builtinPrint)
	rt.registerBuiltin("len", 1, builtinLen)
	rt.registerBuiltin("type", 1, builtinType)
}

func (rt *Runtime) registerBuiltin(name string, arity int, fn BuiltinFn) {
	id := rt.functions.registerBuiltin(name, arity, fn)
	rt.global.Define(name, value.Fn(id))
}

func builtinUpper(args []value.Value) (value.Value, error) {
	arg := args[0]
	if arg.Kind != value.KindString {
		return value.Value{}, fmt.Errorf("upper expects string, got %s", arg.TypeName())
	}
	return value.Str(strings.ToUpper(arg.Str)), nil
}

func builtinPrint(args []value.Value) (value.Value, error) {
	arg := args[0]
	if arg.Kind == value.KindString {
		fmt.Println(arg.Str)
	} else {
		fmt.Println(arg.String())
	}
	return value.Nil, nil
}

func builtinLen(args []value.Value) (value.Value, error) {
	arg := args[0]
	switch arg.Kind {
	case value.KindString:
		return value.Int(int64(len([]rune(arg.Str)))), nil
	case value.KindList, value.KindTuple:
		return value.Int(int64(len(arg.List))), nil
	case value.KindObject:
		return value.Int(int64(arg.Object.Len())), nil
	default:
		return value.Value{}, fmt.Errorf("len expects string/list/tuple/object, got %s", arg.TypeName())
	}
}

func builtinType(args []value.Value) (value.Value, error) {
	return value.Str(args[0].TypeName()), nil
}
