package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultChatCompletionsURL = "https://openrouter.ai/api/v1/chat/completions"
	defaultModel              = "openai/gpt-4o-mini"
	defaultTimeout            = 30 * time.Second
)

// HTTPConfig configures an HTTPProvider.
type HTTPConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	AppName     string
	Timeout     time.Duration
}

// HTTPConfigFromEnv builds an HTTPConfig by reading the API key from
// the named environment variable, applying defaults for everything else.
func HTTPConfigFromEnv(apiKeyEnv string) (HTTPConfig, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if strings.TrimSpace(apiKey) == "" {
		return HTTPConfig{}, fmt.Errorf("missing API key in env var %q for HTTP provider", apiKeyEnv)
	}
	return HTTPConfig{
		APIKey:  apiKey,
		Model:   defaultModel,
		BaseURL: defaultChatCompletionsURL,
		AppName: "saplin",
		Timeout: defaultTimeout,
	}, nil
}

// HTTPProvider talks to an OpenAI-chat-completions-compatible endpoint
// (OpenRouter and most self-hosted gateways speak this wire format) over
// net/http, including the function-calling envelope for tool rounds.
type HTTPProvider struct {
	config HTTPConfig
	client *http.Client
	log    *logrus.Entry
}

// NewHTTPProvider validates config and builds a ready-to-use provider.
func NewHTTPProvider(config HTTPConfig) (*HTTPProvider, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, fmt.Errorf("HTTP provider API key is empty")
	}
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultChatCompletionsURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	return &HTTPProvider{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		log:    logrus.WithField("component", "provider.http"),
	}, nil
}

func (p *HTTPProvider) Complete(req Request) (Response, error) {
	traceID := uuid.NewString()
	log := p.log.WithField("trace_id", traceID)

	payload := map[string]any{
		"model":       p.config.Model,
		"messages":    buildMessages(req.Prompt, req.ToolResults),
		"temperature": p.config.Temperature,
	}
	if len(req.Tools) > 0 {
		payload["tools"] = toolDefinitionsJSON(req.Tools)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode provider request: %w", err)
	}

	log.WithField("tool_count", len(req.Tools)).Debug("sending provider request")

	httpReq, err := http.NewRequest(http.MethodPost, p.config.BaseURL, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("failed to build provider request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Title", p.config.AppName)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Warn("provider returned non-200 status")
		return Response{}, fmt.Errorf("provider request failed (status %d): %s", resp.StatusCode, truncateForError(string(respBody), 500))
	}

	var parsed map[string]any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Response{}, fmt.Errorf("invalid provider JSON response: %w", err)
	}

	if errObj, ok := parsed["error"]; ok {
		return Response{}, fmt.Errorf("provider error: %s", truncateForError(fmt.Sprint(errObj), 500))
	}

	return parseChatCompletionResponse(parsed)
}

func buildMessages(prompt string, results []ToolResult) []map[string]any {
	messages := []map[string]any{
		{"role": "user", "content": prompt},
	}

	for _, result := range results {
		argsJSON, _ := json.Marshal(result.Args)
		outputJSON, _ := json.Marshal(result.Output)

		messages = append(messages, map[string]any{
			"role": "assistant",
			"tool_calls": []map[string]any{{
				"id":   result.ID,
				"type": "function",
				"function": map[string]any{
					"name":      result.Name,
					"arguments": string(argsJSON),
				},
			}},
		})
		messages = append(messages, map[string]any{
			"role":         "tool",
			"tool_call_id": result.ID,
			"name":         result.Name,
			"content":      string(outputJSON),
		})
	}

	return messages
}

func toolDefinitionsJSON(tools []ToolDefinition) []map[string]any {
	out := make([]map[string]any, len(tools))
	for i, tool := range tools {
		properties := map[string]any{}
		for _, param := range tool.ParamNames {
			properties[param] = map[string]any{}
		}
		out[i] = map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        tool.Name,
				"description": fmt.Sprintf("Interpreter function %s", tool.Name),
				"parameters": map[string]any{
					"type":                 "object",
					"properties":           properties,
					"required":             tool.ParamNames,
					"additionalProperties": false,
				},
			},
		}
	}
	return out
}

func parseChatCompletionResponse(parsed map[string]any) (Response, error) {
	choices, ok := parsed["choices"].([]any)
	if !ok || len(choices) == 0 {
		return Response{}, fmt.Errorf("provider response had no choices")
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return Response{}, fmt.Errorf("provider response choice was malformed")
	}
	message, ok := choice["message"].(map[string]any)
	if !ok {
		return Response{}, fmt.Errorf("provider response choice is missing 'message'")
	}

	if rawCalls, ok := message["tool_calls"].([]any); ok && len(rawCalls) > 0 {
		calls := make([]ToolCall, 0, len(rawCalls))
		for idx, rawCall := range rawCalls {
			call, ok := rawCall.(map[string]any)
			if !ok {
				return Response{}, fmt.Errorf("tool call %d was malformed", idx)
			}
			if callType, _ := call["type"].(string); callType != "" && callType != "function" {
				return Response{}, fmt.Errorf("unsupported tool call type from provider: %s", callType)
			}
			function, ok := call["function"].(map[string]any)
			if !ok {
				return Response{}, fmt.Errorf("tool call missing 'function' object")
			}
			name, _ := function["name"].(string)
			if name == "" {
				return Response{}, fmt.Errorf("tool call function missing 'name'")
			}

			var args any
			switch rawArgs := function["arguments"].(type) {
			case string:
				if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
					return Response{}, fmt.Errorf("invalid tool call arguments for %q: %w", name, err)
				}
			default:
				args = rawArgs
			}

			id, _ := call["id"].(string)
			if id == "" {
				id = fmt.Sprintf("tool_call_%d", idx+1)
			}

			calls = append(calls, ToolCall{ID: id, Name: name, Args: args})
		}
		return WithToolCalls(calls), nil
	}

	text := messageContentToText(message["content"])
	if strings.TrimSpace(text) == "" {
		return Response{}, fmt.Errorf("provider returned empty assistant content and no tool calls")
	}
	return Final(text), nil
}

func messageContentToText(content any) string {
	switch v := content.(type) {
	case string:
		return v
	case []any:
		var b strings.Builder
		for _, item := range v {
			if part, ok := item.(map[string]any); ok {
				if text, ok := part["text"].(string); ok {
					b.WriteString(text)
				}
			}
		}
		return b.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func truncateForError(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars]) + "..."
}
