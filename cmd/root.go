// Package cmd implements the command-line front-end: argument parsing,
// file I/O, and pretty-printing of diagnostics around the saplin
// library surface.
package cmd

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// verbose, set via the root command's persistent --verbose/-v flag,
// raises logrus to debug level and turns on AST/value repr dumps in
// the check/run subcommands.
var verbose bool

// Execute builds and runs the root command against args, writing to the
// given streams, and returns a process exit code. Kept as a single
// testable entry point rather than calling os.Exit directly.
func Execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "saplin",
		Short:         "saplin runs programs in the prompt-oriented scripting language",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
			logrus.SetOutput(stderr)
			logrus.WithField("component", "cmd").WithField("args", args).Debug("saplin CLI starting")
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging and AST/value repr dumps")

	root.AddCommand(newCheckCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newReplCmd())

	return root
}
