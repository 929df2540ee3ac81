package vm

import "github.com/kristofer/loxvm/pkg/value"

func (v *VM) binaryNumberOp(op func(a, b float64) value.Value) error {
	if !v.peek(0).IsNumber() || !v.peek(1).IsNumber() {
		return v.runtimeError("Operands must be numbers.")
	}
	b := v.pop().AsNumber()
	a := v.pop().AsNumber()
	v.push(op(a, b))
	return nil
}

// opAdd implements spec.md §4.4's overloaded ADD: two strings
// concatenate into a fresh interned string, two numbers add, anything
// else is a runtime error.
func (v *VM) opAdd() error {
	switch {
	case v.peek(0).IsString() && v.peek(1).IsString():
		b := v.pop().AsString()
		a := v.pop().AsString()
		v.maybeCollect()
		v.push(value.FromObj(v.gc.InternString(a.Chars + b.Chars)))
	case v.peek(0).IsNumber() && v.peek(1).IsNumber():
		b := v.pop().AsNumber()
		a := v.pop().AsNumber()
		v.push(value.Number(a + b))
	default:
		return v.runtimeError("Operands must be two numbers or two strings.")
	}
	return nil
}

func (v *VM) opGetProperty(frame *callFrame) error {
	if !v.peek(0).IsInstance() {
		return v.runtimeError("Only instances have properties.")
	}
	inst := v.peek(0).AsInstance()
	name := frame.readString()

	if val, ok := inst.Fields[name]; ok {
		v.pop()
		v.push(val)
		return nil
	}
	return v.bindMethod(inst.Class, name)
}

func (v *VM) opSetProperty(frame *callFrame) error {
	if !v.peek(1).IsInstance() {
		return v.runtimeError("Only instances have fields.")
	}
	inst := v.peek(1).AsInstance()
	name := frame.readString()
	inst.Fields[name] = v.peek(0)

	val := v.pop()
	v.pop()
	v.push(val)
	return nil
}

func (v *VM) opInherit() error {
	if !v.peek(1).IsClass() {
		return v.runtimeError("Superclass must be a class.")
	}
	superclass := v.peek(1).AsClass()
	subclass := v.peek(0).AsClass()
	for name, method := range superclass.Methods {
		subclass.Methods[name] = method
	}
	v.pop() // pops the subclass value; the superclass (bound as local "super") stays
	return nil
}

func (v *VM) defineMethod(name *value.ObjString) {
	method := v.peek(0).AsClosure()
	class := v.peek(1).AsClass()
	class.Methods[name] = method
	v.pop()
}

// bindMethod looks up name on klass's method table and pushes a fresh
// bound method pairing it with the receiver currently on top of stack,
// replacing the receiver. Returns a runtime error if no such method
// exists.
func (v *VM) bindMethod(klass *value.ObjClass, name *value.ObjString) error {
	method, ok := klass.Methods[name]
	if !ok {
		return v.runtimeError("Undefined property '%s'.", name.Chars)
	}
	v.maybeCollect()
	bound := v.gc.NewBoundMethod(v.peek(0), method)
	v.pop()
	v.push(value.FromObj(bound))
	return nil
}

// callValue implements spec.md §4.4's calling convention dispatch: the
// callee sits at stack slot top-argc-1.
func (v *VM) callValue(callee value.Value, argc int) error {
	if callee.IsObj() {
		switch callee.AsObj().Kind() {
		case value.KindClosure:
			return v.callClosure(callee.AsClosure(), argc)
		case value.KindNative:
			return v.callNative(callee.AsNative(), argc)
		case value.KindClass:
			return v.callClass(callee.AsClass(), argc)
		case value.KindBoundMethod:
			bound := callee.AsBoundMethod()
			v.stack[v.stackTop-argc-1] = bound.Receiver
			return v.callClosure(bound.Method, argc)
		}
	}
	return v.runtimeError("Can only call functions and classes.")
}

func (v *VM) callClosure(closure *value.ObjClosure, argc int) error {
	if argc != closure.Function.Arity {
		return v.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argc)
	}
	if v.frameCount == FramesMax {
		return v.runtimeError("Stack overflow.")
	}
	frame := &v.frames[v.frameCount]
	v.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.slotBase = v.stackTop - argc - 1
	return nil
}

func (v *VM) callNative(native *value.ObjNative, argc int) error {
	args := v.stack[v.stackTop-argc : v.stackTop]
	result, err := native.Fn(args)
	if err != nil {
		return v.runtimeError("%s", err.Error())
	}
	v.stackTop -= argc + 1
	v.push(result)
	return nil
}

func (v *VM) callClass(class *value.ObjClass, argc int) error {
	v.maybeCollect()
	inst := v.gc.NewInstance(class)
	v.stack[v.stackTop-argc-1] = value.FromObj(inst)
	if initializer, ok := class.Methods[v.gc.InitString()]; ok {
		return v.callClosure(initializer, argc)
	}
	if argc != 0 {
		return v.runtimeError("Expected 0 arguments but got %d.", argc)
	}
	return nil
}

// invoke fuses GET_PROPERTY+CALL: fields shadow methods, so a callable
// stored in a field is looked up and invoked through the generic
// callValue path rather than the method table.
func (v *VM) invoke(name *value.ObjString, argc int) error {
	receiver := v.peek(argc)
	if !receiver.IsInstance() {
		return v.runtimeError("Only instances have methods.")
	}
	inst := receiver.AsInstance()

	if val, ok := inst.Fields[name]; ok {
		v.stack[v.stackTop-argc-1] = val
		return v.callValue(val, argc)
	}
	return v.invokeFromClass(inst.Class, name, argc)
}

func (v *VM) invokeFromClass(klass *value.ObjClass, name *value.ObjString, argc int) error {
	method, ok := klass.Methods[name]
	if !ok {
		return v.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return v.callClosure(method, argc)
}
