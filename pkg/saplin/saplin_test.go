package saplin

import (
	"testing"

	"github.com/burnlang/saplin/pkg/provider"
	"github.com/burnlang/saplin/pkg/runtime"
	"github.com/stretchr/testify/require"
)

// Scenario 1: core arithmetic — * binds tighter than +.
func TestArithmeticPrecedence(t *testing.T) {
	err := Run("x = 2 + 3 * 4\nassert x == 14\n", provider.NoopProvider{}, nil)
	require.NoError(t, err)
}

// Scenario 2: strict integer schema rejects a string value.
func TestStrictIntegerSchemaRejectsString(t *testing.T) {
	err := Run("x: int = \"a\"\n", provider.NoopProvider{}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "schema validation failed for 'x'")
}

// Scenario 3: multiline nested object schema.
func TestMultilineObjectSchema(t *testing.T) {
	source := "report: {score: float, meta: {title: string, tags: [string]}} = " +
		"{score: 1.5, meta: {title: \"ok\", tags: [\"a\",\"b\"]}}\n" +
		"assert report.meta.title == \"ok\"\n"
	err := Run(source, provider.NoopProvider{}, nil)
	require.NoError(t, err)
}

// Scenario 4: an untyped prompt's result is a plain string.
func TestUntypedPromptReturnsString(t *testing.T) {
	p := provider.SequenceProviderFromTexts("4")
	source := "x = 2\ny = 2\nz = $ {x} + {y} $\nassert z == \"4\"\n"
	err := Run(source, p, nil)
	require.NoError(t, err)
}

// Scenario 5: a typed prompt gets exactly one repair attempt after a
// non-JSON response, then succeeds.
func TestTypedPromptRepairSucceedsOnce(t *testing.T) {
	p := provider.SequenceProviderFromTexts("not-json", "7")
	source := "x: int = $ return 7 $\nassert x == 7\n"
	err := Run(source, p, nil)
	require.NoError(t, err)
}

// Scenario 5 (failure branch): two non-JSON responses exhaust the single
// repair attempt and report both error messages.
func TestTypedPromptRepairFailsTwice(t *testing.T) {
	p := provider.SequenceProviderFromTexts("not-json", "also-not-json")
	source := "x: int = $ return 7 $\nassert x == 7\n"
	err := Run(source, p, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "after repair attempt")
	require.Contains(t, err.Error(), "not valid JSON")
}

// Scenario 6: a prompt interpolating a user function is exposed as a
// tool; the provider drives a two-call round before returning final text.
func TestToolCallingMapOverList(t *testing.T) {
	p := provider.NewSequenceProvider(
		provider.WithToolCalls([]provider.ToolCall{
			{ID: "1", Name: "upper_case", Args: map[string]any{"arg": "a"}},
			{ID: "2", Name: "upper_case", Args: map[string]any{"arg": "b"}},
		}),
		provider.Final(`["A","B"]`),
	)

	source := "f upper_case(arg):\n    ret upper(arg)\n" +
		"result = $ Apply {upper_case} to the letters. $\n" +
		"assert result == \"[\\\"A\\\",\\\"B\\\"]\"\n"

	err := Run(source, p, nil)
	require.NoError(t, err)
}

// Resolver safety: once Check succeeds, evaluation never raises an
// undefined-name error at runtime.
func TestResolverSafetyProperty(t *testing.T) {
	source := "x = 1\nf double(n):\n    ret n * 2\nassert double(x) == 2\n"
	_, err := Check(source)
	require.NoError(t, err)

	err = Run(source, provider.NoopProvider{}, nil)
	require.NoError(t, err)
}

// Check never evaluates: a program that would divide by zero at runtime
// still passes Check because Check only parses and resolves names.
func TestCheckNeverEvaluates(t *testing.T) {
	source := "x = 1 / 0\n"
	_, err := Check(source)
	require.NoError(t, err)
}

// Tool-loop termination: a provider that always requests tool calls
// forces the loop to stop within max_tool_rounds.
func TestToolLoopTerminatesAtRoundLimit(t *testing.T) {
	p := &alwaysToolCallsProvider{}
	opts := &runtime.Options{MaxToolRounds: 2, MaxToolCalls: 100}

	source := "f identity(arg):\n    ret arg\nresult = $ loop forever with {identity}. $\n"
	err := Run(source, p, opts)
	require.Error(t, err)
	require.Contains(t, err.Error(), "tool-call round limit exceeded")
}

type alwaysToolCallsProvider struct{}

func (p *alwaysToolCallsProvider) Complete(req provider.Request) (provider.Response, error) {
	return provider.WithToolCalls([]provider.ToolCall{
		{ID: "1", Name: "identity", Args: map[string]any{"arg": "x"}},
	}), nil
}

// Scope shadowing: assigning inside a function creates/updates a local
// binding without mutating the caller's frame of the same name.
func TestScopeShadowingDoesNotMutateCallerFrame(t *testing.T) {
	source := "x = 1\n" +
		"f shadow():\n" +
		"    x = 99\n" +
		"    ret x\n" +
		"y = shadow()\n" +
		"assert y == 99\n" +
		"assert x == 1\n"
	err := Run(source, provider.NoopProvider{}, nil)
	require.NoError(t, err)
}

// Per spec.md §9: blocks (if/for) share the enclosing frame at runtime,
// so an assignment inside an if-body is visible after the block ends.
func TestIfBodyAssignmentMutatesEnclosingFrame(t *testing.T) {
	source := "x = 1\n" +
		"if true:\n" +
		"    x = 2\n" +
		"assert x == 2\n"
	err := Run(source, provider.NoopProvider{}, nil)
	require.NoError(t, err)
}
