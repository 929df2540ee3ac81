// Command loxvm is the thin driver spec.md §1 calls "out of scope": it
// reads source text and hands it to the compiler/VM pair, nothing more.
// Subcommand dispatch follows the teacher's cmd/smog/main.go shape —
// run/repl/compile/disassemble/version — rebuilt on cobra per
// SPEC_FULL.md's ambient-stack decision rather than a flat switch on
// os.Args.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var trace bool
	var gcLog bool
	var stressGC bool

	root := &cobra.Command{
		Use:           "loxvm",
		Short:         "A bytecode compiler and virtual machine for the Lox language",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&trace, "trace", false, "log every instruction the VM executes")
	root.PersistentFlags().BoolVar(&gcLog, "gc-log", false, "log garbage collector cycles")
	root.PersistentFlags().BoolVar(&stressGC, "stress-gc", false, "collect before every allocation (debug)")

	root.AddCommand(
		newRunCmd(&trace, &gcLog, &stressGC),
		newReplCmd(&trace, &gcLog, &stressGC),
		newCompileCmd(),
		newDisassembleCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the loxvm version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "loxvm version %s\n", version)
			return nil
		},
	}
}
