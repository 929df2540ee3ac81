package compiler_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/loxvm/pkg/chunk"
	"github.com/kristofer/loxvm/pkg/compiler"
	"github.com/kristofer/loxvm/pkg/gc"
	"github.com/kristofer/loxvm/pkg/value"
)

// compileOK returns the disassembly of the script and of every function
// compiled inside it, since chunk.Disassemble renders a single chunk.
func compileOK(t *testing.T, source string) (string, *bytes.Buffer) {
	t.Helper()
	var stderr bytes.Buffer
	fn, ok := compiler.Compile(source, gc.New(nil), &stderr)
	require.True(t, ok, "expected source to compile cleanly, stderr: %s", stderr.String())
	return disassembleAll(fn, "<script>"), &stderr
}

func disassembleAll(fn *value.ObjFunction, name string) string {
	out := chunk.Disassemble(&fn.Chunk, name)
	for _, k := range fn.Chunk.Constants {
		if k.IsFunction() {
			nested := k.AsFunction()
			out += disassembleAll(nested, nested.Name.Chars)
		}
	}
	return out
}

func compileErr(t *testing.T, source string) string {
	t.Helper()
	var stderr bytes.Buffer
	_, ok := compiler.Compile(source, gc.New(nil), &stderr)
	require.False(t, ok, "expected a compile error")
	return stderr.String()
}

func TestPrecedenceClimbsArithmeticBeforeComparison(t *testing.T) {
	dis, _ := compileOK(t, `print 1 + 2 * 3 < 10;`)
	require.Contains(t, dis, "OP_MULTIPLY")
	require.Contains(t, dis, "OP_ADD")
	require.Contains(t, dis, "OP_LESS")
	require.Less(t, strings.Index(dis, "OP_MULTIPLY"), strings.Index(dis, "OP_ADD"))
	require.Less(t, strings.Index(dis, "OP_ADD"), strings.Index(dis, "OP_LESS"))
}

func TestAssignmentIsLowestPrecedence(t *testing.T) {
	dis, _ := compileOK(t, `var a; a = 1 + 2;`)
	require.Contains(t, dis, "OP_ADD")
	require.Contains(t, dis, "OP_SET_GLOBAL")
}

func TestLocalGetSetUsesSlotOpcodes(t *testing.T) {
	dis, _ := compileOK(t, `{ var a = 1; a = a + 1; }`)
	require.Contains(t, dis, "OP_GET_LOCAL")
	require.Contains(t, dis, "OP_SET_LOCAL")
	require.NotContains(t, dis, "OP_GET_GLOBAL")
}

func TestClosureOverLocalEmitsUpvalueDescriptors(t *testing.T) {
	dis, _ := compileOK(t, `
		fun outer() {
			var x = 1;
			fun inner() {
				return x;
			}
			return inner;
		}
	`)
	require.Contains(t, dis, "OP_CLOSURE")
	// x sits in outer's slot 1; slot 0 is reserved for the callee.
	require.Contains(t, dis, "local 1")
}

func TestClassCompilesInheritAndMethods(t *testing.T) {
	dis, _ := compileOK(t, `
		class Base {
			greet() { print "hi"; }
		}
		class Derived < Base {
			greet() { super.greet(); }
		}
	`)
	require.Contains(t, dis, "OP_CLASS")
	require.Contains(t, dis, "OP_INHERIT")
	require.Contains(t, dis, "OP_METHOD")
	require.Contains(t, dis, "OP_SUPER_INVOKE")
}

func TestAndOrShortCircuitViaJumps(t *testing.T) {
	dis, _ := compileOK(t, `print true and false or true;`)
	require.Contains(t, dis, "OP_JUMP_IF_FALSE")
	require.Contains(t, dis, "OP_JUMP")
}

func TestCallSiteTracksArgumentCount(t *testing.T) {
	dis, _ := compileOK(t, `
		fun f(a, b) { return a + b; }
		f(1, 2);
	`)
	require.Contains(t, dis, "OP_CALL")
	require.Regexp(t, `OP_CALL\s+2\n`, dis)
}

func TestErrorOnTopLevelReturn(t *testing.T) {
	msg := compileErr(t, `return 1;`)
	require.Contains(t, strings.ToLower(msg), "return")
}

func TestErrorOnReturnValueFromInitializer(t *testing.T) {
	msg := compileErr(t, `
		class Foo {
			init() {
				return 1;
			}
		}
	`)
	require.Contains(t, msg, "Can't return a value from an initializer.")
}

func TestErrorOnSelfInheritance(t *testing.T) {
	msg := compileErr(t, `class Oops < Oops {}`)
	require.Contains(t, msg, "can't inherit from itself")
}

func TestErrorOnDuplicateLocalInSameScope(t *testing.T) {
	msg := compileErr(t, `{ var a = 1; var a = 2; }`)
	require.Contains(t, strings.ToLower(msg), "already a variable")
}

func TestErrorOnLocalReadInOwnInitializer(t *testing.T) {
	msg := compileErr(t, `var a = "outer"; { var a = a; }`)
	require.Contains(t, msg, "Can't read local variable in its own initializer.")
}

func TestErrorOnTooManyArguments(t *testing.T) {
	var b strings.Builder
	b.WriteString("fun f() {}\nf(")
	for i := 0; i < 256; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("1")
	}
	b.WriteString(");\n")

	msg := compileErr(t, b.String())
	require.Contains(t, strings.ToLower(msg), "arguments")
}
