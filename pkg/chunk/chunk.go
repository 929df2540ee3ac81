// Package chunk defines the bytecode container the compiler emits into
// and the VM executes: an append-only byte sequence, a parallel per-byte
// line table for diagnostics, and a constant pool capped at 256 entries
// (operand slots that index it are a single byte).
//
// This generalizes the teacher's pkg/bytecode (Instruction/Bytecode pairs
// plus its .sg binary framing) from smog's message-send opcode set onto
// loxvm's stack-machine opcode set; the .lxc file format and disassembler
// shape are carried forward from pkg/bytecode/format.go.
package chunk

import "github.com/kristofer/loxvm/pkg/value"

// Chunk is an alias for value.Chunk. It lives there, not here, because
// ObjFunction (defined in pkg/value) embeds one directly; aliasing avoids
// an import cycle while letting every other package spell it chunk.Chunk.
type Chunk = value.Chunk

// MaxConstants is the largest constant pool a single chunk may hold:
// OP_CONSTANT and friends address it with a single byte operand.
const MaxConstants = 256

// Write appends a byte of code and its source line to c.
func Write(c *Chunk, b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// AddConstant appends v to the constant pool and returns its index. The
// caller (the compiler) is responsible for rejecting indices >= MaxConstants
// as a compile error before emitting an operand byte for them.
func AddConstant(c *Chunk, v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}
