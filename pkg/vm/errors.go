// Package vm is the bytecode interpreter: call frames, the operand
// stack, and the run loop that walks a compiled chunk.
package vm

import (
	"fmt"
	"strings"
)

// StackFrame captures one call frame at the moment a runtime error is
// raised, innermost call first, in the `[line N] in NAME()` / `in script`
// shape spec.md §6 requires for the trailing stack trace.
type StackFrame struct {
	Name string // function name, or "" for the top-level script
	Line int    // source line of the instruction that was executing
}

// RuntimeError is the error channel an interpret call returns when
// execution aborts mid-program. Unlike a compile error it carries no
// position of its own — Line on each StackFrame supplies that.
type RuntimeError struct {
	Message    string
	StackTrace []StackFrame
}

// Error renders the message followed by the frame trace, innermost
// first, exactly as spec.md §6 specifies for stderr diagnostics.
func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for i := len(e.StackTrace) - 1; i >= 0; i-- {
		f := e.StackTrace[i]
		b.WriteByte('\n')
		fmt.Fprintf(&b, "[line %d] in ", f.Line)
		if f.Name == "" {
			b.WriteString("script")
		} else {
			fmt.Fprintf(&b, "%s()", f.Name)
		}
	}
	return b.String()
}

func newRuntimeError(message string, trace []StackFrame) *RuntimeError {
	return &RuntimeError{Message: message, StackTrace: trace}
}

func runtimeErrorf(trace []StackFrame, format string, args ...any) *RuntimeError {
	return newRuntimeError(fmt.Sprintf(format, args...), trace)
}
