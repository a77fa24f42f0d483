package runtime

import (
	"testing"

	"github.com/burnlang/saplin/pkg/ast"
	"github.com/burnlang/saplin/pkg/value"
	"github.com/stretchr/testify/require"
)

func TestFunctionTableAppendOnlyHandles(t *testing.T) {
	var table functionTable

	id1 := table.registerBuiltin("len", 1, builtinLen)
	id2 := table.registerUser(&ast.FnDef{Name: "add", Params: []ast.FnParam{{Name: "a"}, {Name: "b"}}}, nil)

	require.NotEqual(t, id1, id2)

	entry1, ok := table.get(id1)
	require.True(t, ok)
	require.Equal(t, "len", entry1.displayName())
	require.Equal(t, 1, entry1.arity())
	require.Equal(t, []string{"arg0"}, entry1.paramNames())

	entry2, ok := table.get(id2)
	require.True(t, ok)
	require.Equal(t, "add", entry2.displayName())
	require.Equal(t, 2, entry2.arity())
	require.Equal(t, []string{"a", "b"}, entry2.paramNames())
}

func TestFunctionTableUnknownHandleFails(t *testing.T) {
	var table functionTable
	_, ok := table.get(value.FunctionID(99))
	require.False(t, ok)
}
