package provider

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoopProviderAlwaysErrors(t *testing.T) {
	var p Provider = NoopProvider{}
	_, err := p.Complete(Request{Prompt: "anything"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no prompt provider configured")
}
