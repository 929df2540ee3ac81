package vm

import "github.com/kristofer/loxvm/pkg/value"

// FramesMax bounds call depth; exceeding it is the runtime error
// "Stack overflow." (spec.md §4.4). StackMax sizes the fixed operand
// stack generously enough that a full frame stack of maximum-arity
// calls still fits.
const (
	FramesMax = 64
	StackMax  = FramesMax * 256
)

// callFrame is one active invocation: the closure being run, its
// instruction pointer into that closure's chunk, and slotBase, the
// operand-stack index of local slot 0 for this call.
type callFrame struct {
	closure  *value.ObjClosure
	ip       int
	slotBase int
}

func (f *callFrame) chunk() *value.Chunk { return &f.closure.Function.Chunk }

func (f *callFrame) readByte() byte {
	b := f.chunk().Code[f.ip]
	f.ip++
	return b
}

func (f *callFrame) readShort() uint16 {
	hi := f.chunk().Code[f.ip]
	lo := f.chunk().Code[f.ip+1]
	f.ip += 2
	return uint16(hi)<<8 | uint16(lo)
}

func (f *callFrame) readConstant() value.Value {
	return f.chunk().Constants[f.readByte()]
}

func (f *callFrame) readString() *value.ObjString {
	return f.readConstant().AsString()
}

func (f *callFrame) line() int {
	if f.ip == 0 || f.ip > len(f.chunk().Lines) {
		if len(f.chunk().Lines) == 0 {
			return 0
		}
		return f.chunk().Lines[0]
	}
	return f.chunk().Lines[f.ip-1]
}

func (f *callFrame) name() string {
	if f.closure.Function.Name == nil {
		return ""
	}
	return f.closure.Function.Name.Chars
}
