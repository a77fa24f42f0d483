package provider

import "fmt"

// NoopProvider rejects every request. It is the default when no
// provider has been configured, so a misconfigured run fails fast
// instead of silently inventing answers.
type NoopProvider struct{}

func (NoopProvider) Complete(Request) (Response, error) {
	return Response{}, fmt.Errorf("no prompt provider configured; pass a configured provider to run a program with prompts")
}
