package runtime

import (
	"testing"

	"github.com/burnlang/saplin/pkg/ast"
	"github.com/burnlang/saplin/pkg/diag"
	"github.com/burnlang/saplin/pkg/provider"
	"github.com/burnlang/saplin/pkg/schema"
	"github.com/burnlang/saplin/pkg/value"
	"github.com/stretchr/testify/require"
)

// promptExprFromAssign pulls the *ast.Prompt out of a program whose first
// statement is `name = $ ... $`.
func promptExprFromAssign(t *testing.T, program *ast.Program) *ast.Prompt {
	t.Helper()
	assign, ok := program.Stmts[0].(*ast.Assign)
	require.True(t, ok)
	prompt, ok := assign.Value.(*ast.Prompt)
	require.True(t, ok)
	return prompt
}

func TestRenderPromptInterpolatesValuesAndText(t *testing.T) {
	rt := New(provider.NoopProvider{}, DefaultOptions())
	setup := mustParseProgram(t, "x = 2\ny = 3\n")
	_, err := rt.execBlock(setup.Stmts, rt.global)
	require.NoError(t, err)

	promptProgram := mustParseProgram(t, "z = $ {x} plus {y} $\n")
	prompt := promptExprFromAssign(t, promptProgram)

	rendered, err := rt.renderPrompt(prompt, rt.global)
	require.NoError(t, err)
	require.Equal(t, " 2 plus 3 ", rendered.text)
	require.Empty(t, rendered.tools)
}

func TestRenderPromptExposesVarFunctionAsNamedTool(t *testing.T) {
	rt := New(provider.NoopProvider{}, DefaultOptions())
	setup := mustParseProgram(t, "f double(n):\n    ret n * 2\n")
	_, err := rt.execBlock(setup.Stmts, rt.global)
	require.NoError(t, err)

	promptProgram := mustParseProgram(t, "z = $ use {double} $\n")
	prompt := promptExprFromAssign(t, promptProgram)

	rendered, err := rt.renderPrompt(prompt, rt.global)
	require.NoError(t, err)
	require.Equal(t, " use double ", rendered.text)
	require.Len(t, rendered.tools, 1)
	require.Equal(t, "double", rendered.tools[0].Name)
	require.Equal(t, []string{"n"}, rendered.tools[0].ParamNames)
}

func TestRenderPromptGeneratesSyntheticToolNameForNonVarCallee(t *testing.T) {
	rt := New(provider.NoopProvider{}, DefaultOptions())
	setup := mustParseProgram(t, "f identity(n):\n    ret n\nfns = [identity]\n")
	_, err := rt.execBlock(setup.Stmts, rt.global)
	require.NoError(t, err)

	promptProgram := mustParseProgram(t, "z = $ use {fns[0]} $\n")
	prompt := promptExprFromAssign(t, promptProgram)

	rendered, err := rt.renderPrompt(prompt, rt.global)
	require.NoError(t, err)
	require.Len(t, rendered.tools, 1)
	require.Equal(t, "tool_1", rendered.tools[0].Name)
}

func TestRunPromptWithToolsReturnsFinalTextImmediately(t *testing.T) {
	rt := New(provider.SequenceProviderFromTexts("done"), DefaultOptions())
	out, err := rt.runPromptWithTools("hello", nil, map[string]value.FunctionID{}, diag.Span{})
	require.NoError(t, err)
	require.Equal(t, "done", out)
}

func TestRunPromptWithToolsRejectsToolCallsWithNoToolsExposed(t *testing.T) {
	p := provider.NewSequenceProvider(provider.WithToolCalls([]provider.ToolCall{{ID: "1", Name: "x"}}))
	rt := New(p, DefaultOptions())
	_, err := rt.runPromptWithTools("hello", nil, map[string]value.FunctionID{}, diag.Span{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no tools are exposed")
}

func TestRunPromptWithToolsEnforcesCallLimit(t *testing.T) {
	rt := New(provider.NoopProvider{}, DefaultOptions())
	setup := mustParseProgram(t, "f identity(n):\n    ret n\n")
	_, err := rt.execBlock(setup.Stmts, rt.global)
	require.NoError(t, err)

	idVal, ok := rt.global.Get("identity")
	require.True(t, ok)

	manyCalls := make([]provider.ToolCall, 10)
	for i := range manyCalls {
		manyCalls[i] = provider.ToolCall{ID: "x", Name: "identity", Args: map[string]any{"n": 1}}
	}
	p := provider.NewSequenceProvider(provider.WithToolCalls(manyCalls))
	rt2 := New(p, Options{MaxToolRounds: 8, MaxToolCalls: 5})
	toolMap := map[string]value.FunctionID{"identity": idVal.Fn}

	_, err = rt2.runPromptWithTools("go", []provider.ToolDefinition{{Name: "identity", ParamNames: []string{"n"}}}, toolMap, diag.Span{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "tool call limit exceeded")
}

func TestRunPromptWithToolsEnforcesRoundLimit(t *testing.T) {
	rt := New(provider.NoopProvider{}, DefaultOptions())
	setup := mustParseProgram(t, "f identity(n):\n    ret n\n")
	_, err := rt.execBlock(setup.Stmts, rt.global)
	require.NoError(t, err)

	idVal, ok := rt.global.Get("identity")
	require.True(t, ok)

	p := provider.NewSequenceProvider(
		provider.WithToolCalls([]provider.ToolCall{{ID: "1", Name: "identity", Args: map[string]any{"n": 1}}}),
		provider.WithToolCalls([]provider.ToolCall{{ID: "2", Name: "identity", Args: map[string]any{"n": 1}}}),
	)
	rt2 := New(p, Options{MaxToolRounds: 2, MaxToolCalls: 100})
	toolMap := map[string]value.FunctionID{"identity": idVal.Fn}

	_, err = rt2.runPromptWithTools("go", []provider.ToolDefinition{{Name: "identity", ParamNames: []string{"n"}}}, toolMap, diag.Span{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "tool-call round limit exceeded")
}

func TestUnwrapSingleFieldWrapperUnwrapsMatchingInnerValue(t *testing.T) {
	o := value.NewObject()
	o.Set("result", value.Int(7))
	wrapped := value.Obj(o)

	out := unwrapSingleFieldWrapper(wrapped, schema.Int{})
	require.Equal(t, value.KindInt, out.Kind)
	require.Equal(t, int64(7), out.Int)
}

func TestUnwrapSingleFieldWrapperLeavesNonMatchingObjectAlone(t *testing.T) {
	o := value.NewObject()
	o.Set("a", value.Int(1))
	o.Set("b", value.Int(2))
	obj := value.Obj(o)

	out := unwrapSingleFieldWrapper(obj, schema.Int{})
	require.Equal(t, value.KindObject, out.Kind)
}

func TestTruncateTextLeavesShortTextUnchanged(t *testing.T) {
	require.Equal(t, "hello", truncateText("hello", 100))
}

func TestTruncateTextCutsAtGraphemeBoundaryAndAppendsEllipsis(t *testing.T) {
	out := truncateText("abcdef", 3)
	require.Equal(t, "abc...", out)
}

func TestBuildTypedPromptContractIncludesRepairContext(t *testing.T) {
	rt := New(provider.NoopProvider{}, DefaultOptions())
	sc := schema.Int{}
	contract := rt.buildTypedPromptContract("base prompt", sc, schema.ToJSONSchema(sc), "previous error text", "bad output")
	require.Contains(t, contract, "base prompt")
	require.Contains(t, contract, "Output contract (mandatory)")
	require.Contains(t, contract, "previous error text")
	require.Contains(t, contract, "bad output")
	require.Contains(t, contract, "return the primitive JSON value directly")
}
