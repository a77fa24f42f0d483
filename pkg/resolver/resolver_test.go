package resolver

import (
	"testing"

	"github.com/burnlang/saplin/pkg/parser"
	"github.com/stretchr/testify/require"
)

var builtins = []string{"upper", "print", "len", "type"}

func check(t *testing.T, source string) error {
	t.Helper()
	program, err := parser.Parse(source)
	require.NoError(t, err)
	return New(builtins).Check(program)
}

func TestUndefinedNameRejected(t *testing.T) {
	err := check(t, "x = y + 1\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined name 'y'")
}

func TestBuiltinNamesAlwaysResolve(t *testing.T) {
	require.NoError(t, check(t, "x = upper(\"hi\")\n"))
}

func TestBlockLocalHoistingWithinSameBlock(t *testing.T) {
	// functions defined later in the same block are visible to earlier
	// statements' calls, because the resolver hoists names in a first
	// pass before resolving expressions.
	source := "x = helper()\nf helper() -> int:\n    ret 1\n"
	require.NoError(t, check(t, source))
}

func TestDuplicateFunctionDefinitionRejected(t *testing.T) {
	source := "f greet():\n    ret 1\nf greet():\n    ret 2\n"
	err := check(t, source)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate function definition 'greet'")
}

func TestDuplicateParameterNameRejected(t *testing.T) {
	source := "f add(a, a):\n    ret a\n"
	err := check(t, source)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate parameter name 'a'")
}

func TestIfElseBranchesDoNotLeakNamesToEachOther(t *testing.T) {
	source := "if true:\n    a = 1\nelse:\n    b = a\n"
	err := check(t, source)
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined name 'a'")
}

func TestForLoopPatternNamesVisibleInBody(t *testing.T) {
	require.NoError(t, check(t, "for k, v in pairs:\n    print(k)\n    print(v)\nf pairs():\n    ret []\n"))
}

func TestNamesDefinedInsideForBodyDoNotLeakOutward(t *testing.T) {
	source := "for x in items:\n    inner = x\nprint(inner)\nf items():\n    ret []\n"
	err := check(t, source)
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined name 'inner'")
}

func TestFunctionParamsScopedToItsOwnBody(t *testing.T) {
	source := "f add(a, b):\n    ret a + b\nprint(a)\n"
	err := check(t, source)
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined name 'a'")
}

func TestPromptInterpolationIsResolved(t *testing.T) {
	err := check(t, "z = $ value is {missing} $\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined name 'missing'")
}

func TestPromptInterpolationResolvesBoundName(t *testing.T) {
	require.NoError(t, check(t, "x = 1\nz = $ value is {x} $\n"))
}
