package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kristofer/loxvm/pkg/vm"
)

func newReplCmd(trace, gcLog, stressGC *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive Lox session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runRepl(*trace, *gcLog, *stressGC)
			return nil
		},
	}
}

// runRepl keeps one VM alive across lines, so globals and classes defined
// in one statement are visible to the next — same shape as the teacher's
// smog REPL loop, minus the AST in between.
func runRepl(trace, gcLog, stressGC bool) {
	var v *vm.VM = buildVM(trace, gcLog, stressGC)
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Fprint(os.Stdout, "> ")
		}
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		v.Interpret(line)
	}
}
