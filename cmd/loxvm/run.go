package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRunCmd(trace, gcLog, stressGC *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file.lox>",
		Short: "Compile and run a Lox source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("loxvm: %w", err)
			}
			v := buildVM(*trace, *gcLog, *stressGC)
			result, _ := v.Interpret(string(data))
			os.Exit(exitCodeFor(result))
			return nil
		},
	}
}
