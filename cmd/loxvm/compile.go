package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kristofer/loxvm/pkg/chunk"
	"github.com/kristofer/loxvm/pkg/compiler"
	"github.com/kristofer/loxvm/pkg/gc"
)

func newCompileCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "compile <file.lox>",
		Short: "Compile a Lox source file to a .lxc bytecode file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("loxvm: %w", err)
			}

			collector := gc.New(nil)
			fn, ok := compiler.Compile(string(data), collector, os.Stderr)
			if !ok {
				os.Exit(exitCompileError)
			}

			dest := out
			if dest == "" {
				dest = args[0] + "c"
			}
			f, err := os.Create(dest)
			if err != nil {
				return fmt.Errorf("loxvm: %w", err)
			}
			defer f.Close()
			return chunk.Encode(f, fn)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output .lxc path (default: <input>c)")
	return cmd
}
