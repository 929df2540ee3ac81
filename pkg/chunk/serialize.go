package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kristofer/loxvm/pkg/value"
)

// Binary .lxc format, adapted from the teacher's pkg/bytecode/format.go
// .sg container: a 4-byte magic, a version word, then a constant pool
// section followed by a code section. Functions nest recursively so a
// compiled top-level script (and every function literal reachable from
// it) round-trips in one file.
const (
	magic         = uint32(0x4C584331) // "LXC1"
	formatVersion = uint32(1)

	constNumber   = byte(0x01)
	constString   = byte(0x02)
	constBool     = byte(0x03)
	constNil      = byte(0x04)
	constFunction = byte(0x05)
)

// Encode serializes a compiled top-level function (and everything it
// transitively references) to the .lxc binary format.
func Encode(w io.Writer, fn *value.ObjFunction) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, magic); err != nil {
		return err
	}
	if err := binary.Write(&buf, binary.BigEndian, formatVersion); err != nil {
		return err
	}
	if err := encodeFunction(&buf, fn); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Decode reads a .lxc file, allocating ObjString/ObjFunction constants via
// the supplied intern/newFunction callbacks so the result is wired into
// the caller's GC and string-intern table like any other allocation.
func Decode(r io.Reader, intern func(string) *value.ObjString, newFunction func() *value.ObjFunction) (*value.ObjFunction, error) {
	br := newByteReader(r)
	var gotMagic, version uint32
	if err := binary.Read(br, binary.BigEndian, &gotMagic); err != nil {
		return nil, err
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("chunk: bad .lxc magic %#x", gotMagic)
	}
	if err := binary.Read(br, binary.BigEndian, &version); err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, fmt.Errorf("chunk: unsupported .lxc version %d", version)
	}
	return decodeFunction(br, intern, newFunction)
}

func encodeFunction(buf *bytes.Buffer, fn *value.ObjFunction) error {
	name := ""
	if fn.Name != nil {
		name = fn.Name.Chars
	}
	writeString(buf, name)
	binary.Write(buf, binary.BigEndian, uint32(fn.Arity))
	binary.Write(buf, binary.BigEndian, uint32(fn.UpvalueCount))

	binary.Write(buf, binary.BigEndian, uint32(len(fn.Chunk.Constants)))
	for _, c := range fn.Chunk.Constants {
		if err := encodeConstant(buf, c); err != nil {
			return err
		}
	}

	binary.Write(buf, binary.BigEndian, uint32(len(fn.Chunk.Code)))
	buf.Write(fn.Chunk.Code)
	for _, line := range fn.Chunk.Lines {
		binary.Write(buf, binary.BigEndian, uint32(line))
	}
	return nil
}

func encodeConstant(buf *bytes.Buffer, v value.Value) error {
	switch {
	case v.IsNil():
		buf.WriteByte(constNil)
	case v.IsBool():
		buf.WriteByte(constBool)
		if v.AsBool() {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case v.IsNumber():
		buf.WriteByte(constNumber)
		binary.Write(buf, binary.BigEndian, v.AsNumber())
	case v.IsString():
		buf.WriteByte(constString)
		writeString(buf, v.AsString().Chars)
	case v.IsFunction():
		buf.WriteByte(constFunction)
		return encodeFunction(buf, v.AsFunction())
	default:
		return fmt.Errorf("chunk: constant kind cannot be serialized")
	}
	return nil
}

func decodeFunction(br *byteReader, intern func(string) *value.ObjString, newFunction func() *value.ObjFunction) (*value.ObjFunction, error) {
	name, err := readString(br)
	if err != nil {
		return nil, err
	}
	var arity, upvalCount, constCount, codeLen uint32
	if err := binary.Read(br, binary.BigEndian, &arity); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.BigEndian, &upvalCount); err != nil {
		return nil, err
	}

	fn := newFunction()
	fn.Arity = int(arity)
	fn.UpvalueCount = int(upvalCount)
	if name != "" {
		fn.Name = intern(name)
	}

	if err := binary.Read(br, binary.BigEndian, &constCount); err != nil {
		return nil, err
	}
	fn.Chunk.Constants = make([]value.Value, constCount)
	for i := range fn.Chunk.Constants {
		v, err := decodeConstant(br, intern, newFunction)
		if err != nil {
			return nil, err
		}
		fn.Chunk.Constants[i] = v
	}

	if err := binary.Read(br, binary.BigEndian, &codeLen); err != nil {
		return nil, err
	}
	fn.Chunk.Code = make([]byte, codeLen)
	if _, err := io.ReadFull(br, fn.Chunk.Code); err != nil {
		return nil, err
	}
	fn.Chunk.Lines = make([]int, codeLen)
	for i := range fn.Chunk.Lines {
		var line uint32
		if err := binary.Read(br, binary.BigEndian, &line); err != nil {
			return nil, err
		}
		fn.Chunk.Lines[i] = int(line)
	}
	return fn, nil
}

func decodeConstant(br *byteReader, intern func(string) *value.ObjString, newFunction func() *value.ObjFunction) (value.Value, error) {
	tag, err := br.ReadByte()
	if err != nil {
		return value.Nil, err
	}
	switch tag {
	case constNil:
		return value.Nil, nil
	case constBool:
		b, err := br.ReadByte()
		if err != nil {
			return value.Nil, err
		}
		return value.Bool(b != 0), nil
	case constNumber:
		var n float64
		if err := binary.Read(br, binary.BigEndian, &n); err != nil {
			return value.Nil, err
		}
		return value.Number(n), nil
	case constString:
		s, err := readString(br)
		if err != nil {
			return value.Nil, err
		}
		return value.FromObj(intern(s)), nil
	case constFunction:
		fn, err := decodeFunction(br, intern, newFunction)
		if err != nil {
			return value.Nil, err
		}
		return value.FromObj(fn), nil
	default:
		return value.Nil, fmt.Errorf("chunk: unknown constant tag %#x", tag)
	}
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, uint32(len(s)))
	buf.WriteString(s)
}

func readString(br *byteReader) (string, error) {
	var n uint32
	if err := binary.Read(br, binary.BigEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(br, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// byteReader adapts an io.Reader to io.ByteReader so binary.Read's callers
// that need ReadByte (decoding single-byte tags) can share one reader.
type byteReader struct {
	io.Reader
}

func newByteReader(r io.Reader) *byteReader { return &byteReader{r} }

func (b *byteReader) ReadByte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(b, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}
