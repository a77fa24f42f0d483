package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/burnlang/saplin/pkg/provider"
	"github.com/burnlang/saplin/pkg/saplin"
	"github.com/spf13/cobra"
)

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Read programs from stdin, one blank-line-terminated block at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd)
		},
	}
}

func runRepl(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "saplin v%s\n", version)
	fmt.Fprintln(out, "Enter a program, then a blank line to run it. Ctrl-D to exit.")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	var buf strings.Builder

	prompt := func() { fmt.Fprint(out, "> ") }
	prompt()

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if buf.Len() > 0 {
				runReplBlock(cmd, buf.String())
				buf.Reset()
			}
			prompt()
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	if buf.Len() > 0 {
		runReplBlock(cmd, buf.String())
	}
	return nil
}

func runReplBlock(cmd *cobra.Command, source string) {
	if err := saplin.Run(source, provider.NoopProvider{}, nil); err != nil {
		printDiagnostic(cmd, "<repl>", source, err)
	}
}
