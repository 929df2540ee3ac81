package vm

import (
	"fmt"

	"github.com/kristofer/loxvm/pkg/chunk"
	"github.com/kristofer/loxvm/pkg/value"
)

// run is the main dispatch loop: read a byte, switch on it, repeat
// until an OP_RETURN pops the last frame or a runtime error aborts the
// call. spec.md §4.4 permits a plain switch or computed goto with no
// observable difference; this is a switch.
func (v *VM) run() error {
	frame := v.currentFrame()

	for {
		if v.trace != nil {
			v.disassembleCurrent()
		}

		op := chunk.OpCode(frame.readByte())
		switch op {
		case chunk.OpConstant:
			v.push(frame.readConstant())

		case chunk.OpNil:
			v.push(value.Nil)
		case chunk.OpTrue:
			v.push(value.Bool(true))
		case chunk.OpFalse:
			v.push(value.Bool(false))
		case chunk.OpPop:
			v.pop()

		case chunk.OpGetLocal:
			slot := frame.readByte()
			v.push(v.stack[frame.slotBase+int(slot)])
		case chunk.OpSetLocal:
			slot := frame.readByte()
			v.stack[frame.slotBase+int(slot)] = v.peek(0)

		case chunk.OpGetGlobal:
			name := frame.readString()
			val, ok := v.globals.Get(name)
			if !ok {
				return v.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			v.push(val)
		case chunk.OpDefineGlobal:
			name := frame.readString()
			v.globals.Set(name, v.peek(0))
			v.pop()
		case chunk.OpSetGlobal:
			name := frame.readString()
			if v.globals.Set(name, v.peek(0)) {
				v.globals.Delete(name)
				return v.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case chunk.OpGetUpvalue:
			slot := frame.readByte()
			v.push(*frame.closure.Upvalues[slot].Location)
		case chunk.OpSetUpvalue:
			slot := frame.readByte()
			*frame.closure.Upvalues[slot].Location = v.peek(0)

		case chunk.OpGetProperty:
			if err := v.opGetProperty(frame); err != nil {
				return err
			}
		case chunk.OpSetProperty:
			if err := v.opSetProperty(frame); err != nil {
				return err
			}
		case chunk.OpGetSuper:
			name := frame.readString()
			superclass := v.pop().AsClass()
			if err := v.bindMethod(superclass, name); err != nil {
				return err
			}

		case chunk.OpEqual:
			b := v.pop()
			a := v.pop()
			v.push(value.Bool(value.Equal(a, b)))
		case chunk.OpGreater:
			if err := v.binaryNumberOp(func(a, b float64) value.Value { return value.Bool(a > b) }); err != nil {
				return err
			}
		case chunk.OpLess:
			if err := v.binaryNumberOp(func(a, b float64) value.Value { return value.Bool(a < b) }); err != nil {
				return err
			}
		case chunk.OpAdd:
			if err := v.opAdd(); err != nil {
				return err
			}
		case chunk.OpSubtract:
			if err := v.binaryNumberOp(func(a, b float64) value.Value { return value.Number(a - b) }); err != nil {
				return err
			}
		case chunk.OpMultiply:
			if err := v.binaryNumberOp(func(a, b float64) value.Value { return value.Number(a * b) }); err != nil {
				return err
			}
		case chunk.OpDivide:
			if err := v.binaryNumberOp(func(a, b float64) value.Value { return value.Number(a / b) }); err != nil {
				return err
			}
		case chunk.OpNot:
			v.push(value.Bool(!value.Truthy(v.pop())))
		case chunk.OpNegate:
			if !v.peek(0).IsNumber() {
				return v.runtimeError("Operand must be a number.")
			}
			v.push(value.Number(-v.pop().AsNumber()))

		case chunk.OpPrint:
			fmt.Fprintln(v.stdout, v.pop().String())

		case chunk.OpJump:
			offset := frame.readShort()
			frame.ip += int(offset)
		case chunk.OpJumpIfFalse:
			offset := frame.readShort()
			if !value.Truthy(v.peek(0)) {
				frame.ip += int(offset)
			}
		case chunk.OpLoop:
			offset := frame.readShort()
			frame.ip -= int(offset)

		case chunk.OpCall:
			argc := int(frame.readByte())
			if err := v.callValue(v.peek(argc), argc); err != nil {
				return err
			}
			frame = v.currentFrame()

		case chunk.OpInvoke:
			name := frame.readString()
			argc := int(frame.readByte())
			if err := v.invoke(name, argc); err != nil {
				return err
			}
			frame = v.currentFrame()

		case chunk.OpSuperInvoke:
			name := frame.readString()
			argc := int(frame.readByte())
			superclass := v.pop().AsClass()
			if err := v.invokeFromClass(superclass, name, argc); err != nil {
				return err
			}
			frame = v.currentFrame()

		case chunk.OpClosure:
			fn := frame.readConstant().AsFunction()
			v.maybeCollect()
			closure := v.gc.NewClosure(fn)
			v.push(value.FromObj(closure))
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := frame.readByte()
				index := frame.readByte()
				if isLocal != 0 {
					closure.Upvalues[i] = v.captureUpvalue(frame.slotBase + int(index))
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}

		case chunk.OpCloseUpvalue:
			v.closeUpvalues(v.stackTop - 1)
			v.pop()

		case chunk.OpReturn:
			result := v.pop()
			v.closeUpvalues(frame.slotBase)
			v.frameCount--
			if v.frameCount == 0 {
				v.pop()
				return nil
			}
			v.stackTop = frame.slotBase
			v.push(result)
			frame = v.currentFrame()

		case chunk.OpClass:
			name := frame.readString()
			v.maybeCollect()
			v.push(value.FromObj(v.gc.NewClass(name)))
		case chunk.OpInherit:
			if err := v.opInherit(); err != nil {
				return err
			}
		case chunk.OpMethod:
			v.defineMethod(frame.readString())

		default:
			return v.runtimeError("Unknown opcode %d.", op)
		}
	}
}
