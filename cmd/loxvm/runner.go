package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/kristofer/loxvm/pkg/vm"
)

// Exit codes mirror spec.md §6's conventional driver codes.
const (
	exitOK           = 0
	exitCompileError = 65
	exitRuntimeError = 70
)

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.DebugLevel)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return log
}

func buildVM(trace, gcLog, stressGC bool) *vm.VM {
	opts := []vm.Option{
		vm.WithStdout(os.Stdout),
		vm.WithStderr(os.Stderr),
	}
	if trace {
		opts = append(opts, vm.WithTrace(newLogger()))
	}
	if gcLog {
		opts = append(opts, vm.WithGCLog(newLogger()))
	}
	if stressGC {
		opts = append(opts, vm.WithStressGC())
	}
	return vm.New(opts...)
}

// exitCodeFor maps an InterpretResult onto the process exit code
// spec.md §6 specifies for it.
func exitCodeFor(result vm.InterpretResult) int {
	switch result {
	case vm.InterpretOK:
		return exitOK
	case vm.InterpretCompileError:
		return exitCompileError
	default:
		return exitRuntimeError
	}
}
