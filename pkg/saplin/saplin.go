// Package saplin is the embeddable library surface over the
// interpreter pipeline: check a program for syntax/name errors without
// running it, or run it to completion against a prompt provider.
package saplin

import (
	"github.com/burnlang/saplin/pkg/ast"
	"github.com/burnlang/saplin/pkg/parser"
	"github.com/burnlang/saplin/pkg/provider"
	"github.com/burnlang/saplin/pkg/resolver"
	"github.com/burnlang/saplin/pkg/runtime"
)

// builtinNames lists every name the resolver must treat as always bound,
// kept in sync with the runtime's installBuiltins.
var builtinNames = []string{"upper", "print", "len", "type"}

// Check parses and resolves source, returning the resolved program or
// the first diagnostic error encountered. It never evaluates anything,
// so it is safe to run on untrusted or unfinished source.
func Check(source string) (*ast.Program, error) {
	program, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	if err := resolver.New(builtinNames).Check(program); err != nil {
		return nil, err
	}
	return program, nil
}

// Run checks source, then evaluates it against the given provider and
// options. Passing nil options selects runtime.DefaultOptions.
func Run(source string, p provider.Provider, options *runtime.Options) error {
	program, err := Check(source)
	if err != nil {
		return err
	}

	opts := runtime.DefaultOptions()
	if options != nil {
		opts = *options
	}

	rt := runtime.New(p, opts)
	return rt.RunProgram(program)
}
