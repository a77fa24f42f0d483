package cmd

import (
	"fmt"
	"os"

	"github.com/burnlang/saplin/pkg/diag"
	"github.com/burnlang/saplin/pkg/saplin"
	"github.com/burnlang/saplin/pkg/value"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Parse and resolve a program without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0])
		},
	}
}

func runCheck(cmd *cobra.Command, path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", path, err)
	}

	program, err := saplin.Check(string(source))
	if err != nil {
		printDiagnostic(cmd, path, string(source), err)
		return err
	}

	if verbose {
		fmt.Fprintln(cmd.OutOrStdout(), value.Repr(program))
	}

	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}

func printDiagnostic(cmd *cobra.Command, path, source string, err error) {
	if diagErr, ok := err.(*diag.Error); ok {
		fmt.Fprintln(cmd.ErrOrStderr(), diagErr.Render(path, source))
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
}
