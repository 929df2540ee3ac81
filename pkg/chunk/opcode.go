package chunk

// OpCode is a single bytecode instruction's operation. The full set below
// is spec.md §4.3's opcode table; stack effects are documented per-op and
// exercised by pkg/vm's run loop.
type OpCode byte

const (
	// Stack Operations
	OpConstant OpCode = iota // idx (+1): push constant pool entry
	OpNil                    // (+1)
	OpTrue                   // (+1)
	OpFalse                  // (+1)
	OpPop                    // (-1)

	// Variable access
	OpGetLocal     // slot (+1)
	OpSetLocal     // slot (0)
	OpGetGlobal    // name-const idx (+1)
	OpDefineGlobal // name-const idx (-1)
	OpSetGlobal    // name-const idx (0)
	OpGetUpvalue   // slot (+1)
	OpSetUpvalue   // slot (0)
	OpGetProperty  // name-const idx (0): pops instance, pushes field or bound method
	OpSetProperty  // name-const idx (-1)
	OpGetSuper     // name-const idx (0): pops superclass, pushes bound method

	// Operators
	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate

	// Side effects / control flow
	OpPrint
	OpJump         // u16 (0)
	OpJumpIfFalse  // u16 (0): leaves the condition on the stack
	OpLoop         // u16 (0): backward jump
	OpCall         // argc (-argc): callee + args already on stack
	OpInvoke       // name-const idx, argc (-argc): fused GET_PROPERTY+CALL
	OpSuperInvoke  // name-const idx, argc (-argc-1): fused GET_SUPER+CALL
	OpClosure      // fn-const idx + UpvalueCount (is_local,index) pairs (+1)
	OpCloseUpvalue // (-1)
	OpReturn       // (-1, plus frame pop)

	// Classes
	OpClass   // name-const idx (+1)
	OpInherit // (-1): copies superclass methods into subclass
	OpMethod  // name-const idx (-1)
)

var names = map[OpCode]string{
	OpConstant:     "OP_CONSTANT",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpPop:          "OP_POP",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpGetUpvalue:   "OP_GET_UPVALUE",
	OpSetUpvalue:   "OP_SET_UPVALUE",
	OpGetProperty:  "OP_GET_PROPERTY",
	OpSetProperty:  "OP_SET_PROPERTY",
	OpGetSuper:     "OP_GET_SUPER",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpNot:          "OP_NOT",
	OpNegate:       "OP_NEGATE",
	OpPrint:        "OP_PRINT",
	OpJump:         "OP_JUMP",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpLoop:         "OP_LOOP",
	OpCall:         "OP_CALL",
	OpInvoke:       "OP_INVOKE",
	OpSuperInvoke:  "OP_SUPER_INVOKE",
	OpClosure:      "OP_CLOSURE",
	OpCloseUpvalue: "OP_CLOSE_UPVALUE",
	OpReturn:       "OP_RETURN",
	OpClass:        "OP_CLASS",
	OpInherit:      "OP_INHERIT",
	OpMethod:       "OP_METHOD",
}

func (op OpCode) String() string {
	if n, ok := names[op]; ok {
		return n
	}
	return "OP_UNKNOWN"
}
