package provider

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSequenceProviderRepliesInOrder(t *testing.T) {
	p := SequenceProviderFromTexts("first", "second")

	resp, err := p.Complete(Request{Prompt: "a"})
	require.NoError(t, err)
	require.True(t, resp.IsFinal)
	require.Equal(t, "first", resp.FinalText)

	resp, err = p.Complete(Request{Prompt: "b"})
	require.NoError(t, err)
	require.Equal(t, "second", resp.FinalText)
}

func TestSequenceProviderErrorsWhenExhausted(t *testing.T) {
	p := SequenceProviderFromTexts("only")

	_, err := p.Complete(Request{})
	require.NoError(t, err)

	_, err = p.Complete(Request{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no more responses")
}

func TestSequenceProviderCanReplyWithToolCalls(t *testing.T) {
	p := NewSequenceProvider(WithToolCalls([]ToolCall{{ID: "1", Name: "upper_case", Args: map[string]any{"arg0": "a"}}}))

	resp, err := p.Complete(Request{})
	require.NoError(t, err)
	require.False(t, resp.IsFinal)
	require.Len(t, resp.ToolCalls, 1)
	require.Equal(t, "upper_case", resp.ToolCalls[0].Name)
}
