package provider

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPConfigFromEnvRequiresAPIKey(t *testing.T) {
	os.Unsetenv("SAPLIN_TEST_API_KEY")
	_, err := HTTPConfigFromEnv("SAPLIN_TEST_API_KEY")
	require.Error(t, err)

	os.Setenv("SAPLIN_TEST_API_KEY", "secret")
	defer os.Unsetenv("SAPLIN_TEST_API_KEY")

	cfg, err := HTTPConfigFromEnv("SAPLIN_TEST_API_KEY")
	require.NoError(t, err)
	require.Equal(t, "secret", cfg.APIKey)
	require.Equal(t, defaultModel, cfg.Model)
}

func TestNewHTTPProviderRejectsEmptyAPIKey(t *testing.T) {
	_, err := NewHTTPProvider(HTTPConfig{})
	require.Error(t, err)
}

func TestParseChatCompletionResponseFinalText(t *testing.T) {
	parsed := map[string]any{
		"choices": []any{
			map[string]any{
				"message": map[string]any{"content": "hello there"},
			},
		},
	}
	resp, err := parseChatCompletionResponse(parsed)
	require.NoError(t, err)
	require.True(t, resp.IsFinal)
	require.Equal(t, "hello there", resp.FinalText)
}

func TestParseChatCompletionResponseToolCalls(t *testing.T) {
	parsed := map[string]any{
		"choices": []any{
			map[string]any{
				"message": map[string]any{
					"tool_calls": []any{
						map[string]any{
							"id":   "call_1",
							"type": "function",
							"function": map[string]any{
								"name":      "upper_case",
								"arguments": `{"arg0": "a"}`,
							},
						},
					},
				},
			},
		},
	}
	resp, err := parseChatCompletionResponse(parsed)
	require.NoError(t, err)
	require.False(t, resp.IsFinal)
	require.Len(t, resp.ToolCalls, 1)
	require.Equal(t, "upper_case", resp.ToolCalls[0].Name)
	require.Equal(t, "call_1", resp.ToolCalls[0].ID)
}

func TestParseChatCompletionResponseRejectsMissingChoices(t *testing.T) {
	_, err := parseChatCompletionResponse(map[string]any{})
	require.Error(t, err)
}

func TestToolDefinitionsJSONShape(t *testing.T) {
	out := toolDefinitionsJSON([]ToolDefinition{{Name: "upper_case", ParamNames: []string{"arg0"}}})
	require.Len(t, out, 1)
	fn := out[0]["function"].(map[string]any)
	require.Equal(t, "upper_case", fn["name"])
}

func TestBuildMessagesIncludesToolResults(t *testing.T) {
	messages := buildMessages("do it", []ToolResult{{ID: "1", Name: "upper_case", Args: "a", Output: "A"}})
	require.Len(t, messages, 3)
	require.Equal(t, "user", messages[0]["role"])
	require.Equal(t, "assistant", messages[1]["role"])
	require.Equal(t, "tool", messages[2]["role"])
}
