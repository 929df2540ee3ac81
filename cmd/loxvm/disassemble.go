package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kristofer/loxvm/pkg/chunk"
	"github.com/kristofer/loxvm/pkg/gc"
)

func newDisassembleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disassemble <file.lxc>",
		Short: "Print the disassembly of a compiled .lxc file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("loxvm: %w", err)
			}
			defer f.Close()

			collector := gc.New(nil)
			fn, err := chunk.Decode(f, collector.InternString, collector.NewFunction)
			if err != nil {
				return fmt.Errorf("loxvm: %w", err)
			}

			name := "<script>"
			if fn.Name != nil {
				name = fn.Name.Chars
			}
			fmt.Fprint(cmd.OutOrStdout(), chunk.Disassemble(&fn.Chunk, name))
			return nil
		},
	}
}
