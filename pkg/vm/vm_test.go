package vm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/loxvm/pkg/vm"
)

func runSource(t *testing.T, source string) (string, string, vm.InterpretResult) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	v := vm.New(vm.WithStdout(&stdout), vm.WithStderr(&stderr))
	result, _ := v.Interpret(source)
	return stdout.String(), stderr.String(), result
}

func TestArithmeticAndPrint(t *testing.T) {
	out, _, result := runSource(t, `print 1 + 2 * 3;`)
	require.Equal(t, vm.InterpretOK, result)
	require.Equal(t, "7\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out, _, result := runSource(t, `print "foo" + "bar";`)
	require.Equal(t, vm.InterpretOK, result)
	require.Equal(t, "foobar\n", out)
}

func TestGlobalAndLocalVariables(t *testing.T) {
	out, _, result := runSource(t, `
		var a = "global";
		{
			var a = "local";
			print a;
		}
		print a;
	`)
	require.Equal(t, vm.InterpretOK, result)
	require.Equal(t, "local\nglobal\n", out)
}

func TestClosureCapturesUpvalue(t *testing.T) {
	out, _, result := runSource(t, `
		fun makeCounter() {
			var i = 0;
			fun count() {
				i = i + 1;
				print i;
			}
			return count;
		}
		var counter = makeCounter();
		counter();
		counter();
	`)
	require.Equal(t, vm.InterpretOK, result)
	require.Equal(t, "1\n2\n", out)
}

func TestClassesMethodsAndInheritance(t *testing.T) {
	out, _, result := runSource(t, `
		class Animal {
			speak() {
				print "...";
			}
		}
		class Dog < Animal {
			init(name) {
				this.name = name;
			}
			speak() {
				print this.name + " says woof";
				super.speak();
			}
		}
		var d = Dog("Rex");
		d.speak();
	`)
	require.Equal(t, vm.InterpretOK, result)
	require.Equal(t, "Rex says woof\n...\n", out)
}

func TestForLoopDesugaring(t *testing.T) {
	out, _, result := runSource(t, `
		for (var i = 0; i < 3; i = i + 1) {
			print i;
		}
	`)
	require.Equal(t, vm.InterpretOK, result)
	require.Equal(t, "0\n1\n2\n", out)
}

func TestRuntimeErrorAddingNumberAndString(t *testing.T) {
	_, errOut, result := runSource(t, `print 1 + "a";`)
	require.Equal(t, vm.InterpretRuntimeError, result)
	require.Contains(t, errOut, "Operands must be two numbers or two strings.")
}

func TestRuntimeErrorUndefinedVariable(t *testing.T) {
	_, errOut, result := runSource(t, `print missing;`)
	require.Equal(t, vm.InterpretRuntimeError, result)
	require.Contains(t, errOut, "Undefined variable 'missing'.")
}

func TestCompileErrorTopLevelReturn(t *testing.T) {
	_, _, result := runSource(t, `return 1;`)
	require.Equal(t, vm.InterpretCompileError, result)
}

func TestCompileErrorSelfInheritingClass(t *testing.T) {
	_, _, result := runSource(t, `class Oops < Oops {}`)
	require.Equal(t, vm.InterpretCompileError, result)
}

func TestCompileErrorReturnValueFromInitializer(t *testing.T) {
	_, _, result := runSource(t, `
		class Foo {
			init() {
				return 1;
			}
		}
	`)
	require.Equal(t, vm.InterpretCompileError, result)
}

func TestVMStateSurvivesAcrossInterpretCalls(t *testing.T) {
	var stdout bytes.Buffer
	v := vm.New(vm.WithStdout(&stdout))

	result, _ := v.Interpret(`var counter = 0;`)
	require.Equal(t, vm.InterpretOK, result)

	result, _ = v.Interpret(`counter = counter + 1; print counter;`)
	require.Equal(t, vm.InterpretOK, result)
	require.Equal(t, "1\n", stdout.String())
}

func TestStressGCDoesNotCorruptLiveState(t *testing.T) {
	var stdout bytes.Buffer
	v := vm.New(vm.WithStdout(&stdout), vm.WithStressGC())
	result, _ := v.Interpret(`
		fun makeCounter() {
			var i = 0;
			fun count() {
				i = i + 1;
				return i;
			}
			return count;
		}
		var counter = makeCounter();
		print counter();
		print counter();
		print counter();
	`)
	require.Equal(t, vm.InterpretOK, result)
	require.Equal(t, "1\n2\n3\n", stdout.String())
}
