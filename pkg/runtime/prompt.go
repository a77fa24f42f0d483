package runtime

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/burnlang/saplin/pkg/ast"
	"github.com/burnlang/saplin/pkg/diag"
	"github.com/burnlang/saplin/pkg/provider"
	"github.com/burnlang/saplin/pkg/schema"
	"github.com/burnlang/saplin/pkg/value"
	"github.com/rivo/uniseg"
	"github.com/sirupsen/logrus"
)

// renderedPrompt is the output of walking a prompt's template parts: the
// text to send, plus every callable interpolated into it exposed as a
// tool.
type renderedPrompt struct {
	text    string
	tools   []provider.ToolDefinition
	toolMap map[string]value.FunctionID
}

func (rt *Runtime) evalPrompt(p *ast.Prompt, env *Env) (string, error) {
	rendered, err := rt.renderPrompt(p, env)
	if err != nil {
		return "", err
	}
	return rt.runPromptWithTools(rendered.text, rendered.tools, rendered.toolMap, p.SpanVal)
}

func (rt *Runtime) renderPrompt(p *ast.Prompt, env *Env) (renderedPrompt, error) {
	var text strings.Builder
	tools := []provider.ToolDefinition{}
	toolMap := map[string]value.FunctionID{}
	generatedCounter := 1

	for _, part := range p.Parts {
		switch part := part.(type) {
		case ast.PromptText:
			text.WriteString(part.Text)

		case ast.PromptInterpolation:
			v, err := rt.evalExpr(part.Expr, env)
			if err != nil {
				return renderedPrompt{}, err
			}

			if v.Kind == value.KindFunction {
				name := ""
				if varExpr, ok := part.Expr.(*ast.Var); ok {
					name = varExpr.Name
				} else {
					for {
						candidate := fmt.Sprintf("tool_%d", generatedCounter)
						generatedCounter++
						if _, exists := toolMap[candidate]; !exists {
							name = candidate
							break
						}
					}
				}

				if existing, exists := toolMap[name]; exists {
					if existing != v.Fn {
						return renderedPrompt{}, diag.WithSpanf(part.Expr.Span(), "tool name collision for '%s': maps to multiple functions", name)
					}
				} else {
					entry, ok := rt.functions.get(v.Fn)
					if !ok {
						return renderedPrompt{}, diag.WithSpan("unknown function reference", part.Expr.Span())
					}
					tools = append(tools, provider.ToolDefinition{Name: name, ParamNames: entry.paramNames()})
					toolMap[name] = v.Fn
				}

				text.WriteString(name)
			} else {
				serialized, err := serializePromptValue(v, part.Expr.Span())
				if err != nil {
					return renderedPrompt{}, err
				}
				text.WriteString(serialized)
			}

		default:
			return renderedPrompt{}, diag.Newf("runtime: unhandled prompt part %T", part)
		}
	}

	return renderedPrompt{text: text.String(), tools: tools, toolMap: toolMap}, nil
}

func (rt *Runtime) runPromptWithTools(renderedText string, tools []provider.ToolDefinition, toolMap map[string]value.FunctionID, span diag.Span) (string, error) {
	var toolResults []provider.ToolResult
	totalToolCalls := 0

	for round := 0; round < rt.options.MaxToolRounds; round++ {
		log := rt.log.WithField("round", round)
		req := provider.Request{Prompt: renderedText, Tools: tools, ToolResults: toolResults}

		log.WithField("tool_count", len(tools)).Debug("sending prompt round")
		resp, err := rt.provider.Complete(req)
		if err != nil {
			log.WithError(err).Warn("provider round failed")
			return "", diag.WithSpanf(span, "%s", err.Error())
		}

		if resp.IsFinal {
			log.Debug("received final prompt response")
			return resp.FinalText, nil
		}

		if len(resp.ToolCalls) == 0 {
			return "", diag.WithSpan("provider returned empty tool call list", span)
		}
		if len(toolMap) == 0 {
			return "", diag.WithSpan("provider attempted tool calls but no tools are exposed in prompt", span)
		}

		log.WithField("call_count", len(resp.ToolCalls)).Debug("provider requested tool calls")
		for _, call := range resp.ToolCalls {
			totalToolCalls++
			if totalToolCalls > rt.options.MaxToolCalls {
				log.WithField("total_tool_calls", totalToolCalls).Warn("tool call limit exceeded")
				return "", diag.WithSpanf(span, "tool call limit exceeded (max-tool-calls=%d)", rt.options.MaxToolCalls)
			}
			log.WithFields(logrus.Fields{"tool": call.Name, "call_id": call.ID}).Debug("executing tool call")
			result, err := rt.executeToolCall(call, toolMap, span)
			if err != nil {
				log.WithError(err).WithField("tool", call.Name).Warn("tool call failed")
				return "", err
			}
			toolResults = append(toolResults, result)
		}
	}

	rt.log.WithField("max_rounds", rt.options.MaxToolRounds).Warn("tool-call round limit exceeded")
	return "", diag.WithSpanf(span, "tool-call round limit exceeded (max-tool-rounds=%d)", rt.options.MaxToolRounds)
}

func (rt *Runtime) executeToolCall(call provider.ToolCall, toolMap map[string]value.FunctionID, span diag.Span) (provider.ToolResult, error) {
	id, ok := toolMap[call.Name]
	if !ok {
		return provider.ToolResult{}, diag.WithSpanf(span, "provider requested unknown tool '%s'", call.Name)
	}

	args, err := rt.toolArgsToValues(id, call.Args, span)
	if err != nil {
		return provider.ToolResult{}, err
	}

	output, err := rt.callFunction(id, args, span)
	if err != nil {
		return provider.ToolResult{}, err
	}
	outputJSON, err := valueToJSON(output, span)
	if err != nil {
		return provider.ToolResult{}, err
	}

	return provider.ToolResult{ID: call.ID, Name: call.Name, Args: call.Args, Output: outputJSON}, nil
}

func (rt *Runtime) toolArgsToValues(id value.FunctionID, args any, span diag.Span) ([]value.Value, error) {
	entry, ok := rt.functions.get(id)
	if !ok {
		return nil, diag.WithSpan("unknown function reference", span)
	}
	paramNames := entry.paramNames()
	name := entry.displayName()

	switch a := args.(type) {
	case []any:
		if len(a) != len(paramNames) {
			return nil, diag.WithSpanf(span, "tool '%s' expects %d arguments, got %d", name, len(paramNames), len(a))
		}
		values := make([]value.Value, len(a))
		for i, item := range a {
			v, err := jsonToValue(item, span)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return values, nil

	case map[string]any:
		if len(a) != len(paramNames) {
			return nil, diag.WithSpanf(span, "tool '%s' expects %d named arguments, got %d", name, len(paramNames), len(a))
		}
		values := make([]value.Value, len(paramNames))
		for i, paramName := range paramNames {
			item, ok := a[paramName]
			if !ok {
				return nil, diag.WithSpanf(span, "tool '%s' missing required argument '%s'", name, paramName)
			}
			v, err := jsonToValue(item, span)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return values, nil

	case nil:
		if len(paramNames) == 0 {
			return nil, nil
		}
		return nil, diag.WithSpanf(span, "tool '%s' requires object or array args", name)

	default:
		return nil, diag.WithSpanf(span, "tool '%s' requires object or array args", name)
	}
}

// evalTypedPromptAssignment implements `name: schema = prompt`: render
// the prompt, harden it with a JSON-Schema output contract, run it, and
// on validation failure give the model exactly one repair attempt before
// giving up.
func (rt *Runtime) evalTypedPromptAssignment(name string, p *ast.Prompt, schemaExpr ast.SchemaExpr, env *Env, span diag.Span) (value.Value, error) {
	rendered, err := rt.renderPrompt(p, env)
	if err != nil {
		return value.Value{}, err
	}

	sc := schema.FromAST(schemaExpr)
	schemaJSON := schema.ToJSONSchema(sc)

	hardened := rt.buildTypedPromptContract(rendered.text, sc, schemaJSON, "", "")
	firstRaw, err := rt.runPromptWithTools(hardened, rendered.tools, rendered.toolMap, span)
	if err != nil {
		return value.Value{}, err
	}

	firstValue, firstErr := rt.parseAndValidateTypedPromptOutput(firstRaw, sc, span)
	if firstErr == nil {
		return firstValue, nil
	}

	repaired := rt.buildTypedPromptContract(rendered.text, sc, schemaJSON, firstErr.Error(), firstRaw)
	secondRaw, err := rt.runPromptWithTools(repaired, rendered.tools, rendered.toolMap, span)
	if err != nil {
		return value.Value{}, err
	}

	secondValue, secondErr := rt.parseAndValidateTypedPromptOutput(secondRaw, sc, span)
	if secondErr != nil {
		return value.Value{}, diag.WithSpanf(span, "schema validation failed for '%s' after repair attempt: first error: %s; second error: %s", name, firstErr.Error(), secondErr.Error())
	}
	return secondValue, nil
}

func (rt *Runtime) parseAndValidateTypedPromptOutput(raw string, sc schema.Schema, span diag.Span) (value.Value, error) {
	parsed, err := parseJSONResponse(strings.TrimSpace(raw), span)
	if err != nil {
		return value.Value{}, err
	}
	normalized := unwrapSingleFieldWrapper(parsed, sc)
	if detail := schema.Validate(normalized, sc); detail != nil {
		return value.Value{}, fmt.Errorf("expected %s, %s", schema.ToString(sc), detail.Error())
	}
	return normalized, nil
}

func unwrapSingleFieldWrapper(v value.Value, sc schema.Schema) value.Value {
	if v.Kind != value.KindObject || v.Object.Len() != 1 {
		return v
	}
	inner, _ := v.Object.Get(v.Object.Keys()[0])
	if schema.Validate(inner, sc) == nil {
		return inner
	}
	return v
}

func (rt *Runtime) buildTypedPromptContract(basePrompt string, sc schema.Schema, schemaJSON schema.JSON, previousError, previousOutput string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(basePrompt, " \t\n"))
	b.WriteString("\n\n---\nOutput contract (mandatory):\n")
	b.WriteString("- Return ONLY valid JSON.\n")
	b.WriteString("- Do not include markdown fences.\n")
	b.WriteString("- Do not include commentary.\n")
	b.WriteString("- Output must match this JSON Schema exactly:\n")
	b.WriteString(mustMarshalIndent(schemaJSONToAny(schemaJSON)))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "\nTop-level expected type: %s.\n", schema.ToString(sc))

	if example := schema.ExampleJSON(sc).Render(); example != "" {
		b.WriteString("Example valid output JSON shape:\n")
		b.WriteString(example)
		b.WriteByte('\n')
	}

	switch sc.(type) {
	case schema.Int, schema.Float, schema.Bool, schema.String:
		b.WriteString("Important: return the primitive JSON value directly (not wrapped in an object).\n")
	}

	if previousError != "" {
		b.WriteString("\nPrevious output failed validation:\n")
		b.WriteString(previousError)
		b.WriteByte('\n')
	}
	if previousOutput != "" {
		b.WriteString("\nPrevious output (for correction):\n")
		b.WriteString(truncateText(previousOutput, 1000))
		b.WriteByte('\n')
	}

	b.WriteString("\nNow return corrected JSON only.\n")
	return b.String()
}

// schemaJSONToAny re-parses the hand-rolled schema.JSON's rendered text
// back into a Go value so json.MarshalIndent can pretty-print it; the
// order-preserving tree only matters for the prompt text, not the
// indentation pass.
func schemaJSONToAny(j schema.JSON) any {
	var decoded any
	_ = json.Unmarshal([]byte(j.Render()), &decoded)
	return decoded
}

// truncateText limits text to max grapheme clusters, grounded on the
// uniseg grapheme segmentation so truncation never splits a visible
// character in prompt-repair text.
func truncateText(text string, maxGraphemes int) string {
	if uniseg.GraphemeClusterCount(text) <= maxGraphemes {
		return text
	}

	var b strings.Builder
	count := 0
	state := -1
	remaining := text
	for len(remaining) > 0 && count < maxGraphemes {
		cluster, rest, _, newState := uniseg.FirstGraphemeClusterInString(remaining, state)
		b.WriteString(cluster)
		remaining = rest
		state = newState
		count++
	}
	b.WriteString("...")
	return b.String()
}
