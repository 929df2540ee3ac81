package chunk_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/loxvm/pkg/chunk"
	"github.com/kristofer/loxvm/pkg/gc"
	"github.com/kristofer/loxvm/pkg/value"
)

func buildGreeterChunk(t *testing.T, c *gc.Collector) *value.ObjFunction {
	t.Helper()
	fn := c.NewFunction()
	fn.Arity = 0
	fn.Name = c.InternString("greet")

	idx := chunk.AddConstant(&fn.Chunk, value.FromObj(c.InternString("hi")))
	chunk.Write(&fn.Chunk, byte(chunk.OpConstant), 1)
	chunk.Write(&fn.Chunk, byte(idx), 1)
	chunk.Write(&fn.Chunk, byte(chunk.OpPrint), 1)
	chunk.Write(&fn.Chunk, byte(chunk.OpNil), 2)
	chunk.Write(&fn.Chunk, byte(chunk.OpReturn), 2)
	return fn
}

func TestDisassembleRendersEveryInstruction(t *testing.T) {
	c := gc.New(nil)
	fn := buildGreeterChunk(t, c)

	out := chunk.Disassemble(&fn.Chunk, "greet")
	require.Contains(t, out, "== greet ==")
	require.Contains(t, out, "OP_CONSTANT")
	require.Contains(t, out, "'hi'")
	require.Contains(t, out, "OP_PRINT")
	require.Contains(t, out, "OP_NIL")
	require.Contains(t, out, "OP_RETURN")
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := gc.New(nil)
	fn := buildGreeterChunk(t, c)

	var buf bytes.Buffer
	require.NoError(t, chunk.Encode(&buf, fn))

	decoded, err := chunk.Decode(&buf, c.InternString, c.NewFunction)
	require.NoError(t, err)

	require.Equal(t, fn.Arity, decoded.Arity)
	require.Equal(t, fn.Name.Chars, decoded.Name.Chars)
	require.Equal(t, fn.Chunk.Code, decoded.Chunk.Code)
	require.Equal(t, fn.Chunk.Lines, decoded.Chunk.Lines)
	require.Equal(t, len(fn.Chunk.Constants), len(decoded.Chunk.Constants))
	require.Equal(t, fn.Chunk.Constants[0].AsString().Chars, decoded.Chunk.Constants[0].AsString().Chars)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	c := gc.New(nil)
	_, err := chunk.Decode(bytes.NewReader([]byte{0, 0, 0, 0, 0, 0, 0, 1}), c.InternString, c.NewFunction)
	require.Error(t, err)
}
