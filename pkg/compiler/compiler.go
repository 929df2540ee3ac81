// Package compiler is loxvm's single-pass compiler: a Pratt-style
// expression parser fused directly with bytecode emission, with no
// intermediate AST. It resolves lexical scope — locals, upvalues,
// globals — as it parses, exactly as spec.md §4.3 describes, which is a
// different shape than the teacher's lexer → pkg/parser (AST) →
// pkg/compiler (bytecode) pipeline for smog. The precedence-climbing
// structure and scope/upvalue bookkeeping below are adapted from
// original_source/compiler.c; the panic-mode recovery and emit-helper
// naming follow the teacher's own error-handling idiom
// (pkg/vm/errors.go's StackFrame/RuntimeError pairing).
package compiler

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/kristofer/loxvm/pkg/chunk"
	"github.com/kristofer/loxvm/pkg/gc"
	"github.com/kristofer/loxvm/pkg/lexer"
	"github.com/kristofer/loxvm/pkg/value"
)

const maxLocals = 256
const maxUpvalues = 256
const maxArgs = 255

// FuncType distinguishes the four shapes of compiled callable: it governs
// what slot 0 means, what an implicit return pushes, and whether `this`/
// `return value;` are legal.
type FuncType int

const (
	TypeFunction FuncType = iota
	TypeInitializer
	TypeMethod
	TypeScript
)

type local struct {
	name     string
	depth    int // -1 means declared but not yet initialized
	captured bool
}

type upvalueRef struct {
	index   byte
	isLocal bool
}

// funcCompiler tracks the lexical scope of one function body being
// compiled. Compilers nest via enclosing, one per function literal
// currently being parsed — the chain the GC must walk as roots while a
// compile is in flight (spec.md §4.5).
type funcCompiler struct {
	enclosing *funcCompiler
	function  *value.ObjFunction
	fnType    FuncType

	locals     []local
	scopeDepth int
	upvalues   []upvalueRef
}

type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

// Compiler drives one compile of a single source string into a top-level
// ObjFunction. It is not reused across compiles.
type Compiler struct {
	lex     *lexer.Lexer
	current lexer.Token
	prev    lexer.Token

	hadError   bool
	panicMode  bool
	stderr     io.Writer

	gc    *gc.Collector
	fc    *funcCompiler
	class *classCompiler
}

// MarkRoots marks every ObjFunction in the enclosing chain, the root set
// the GC needs while compilation itself allocates heap objects (function
// constants, interned string literals) that aren't yet reachable from any
// VM root.
func (c *Compiler) MarkRoots(mark func(value.Value)) {
	for fc := c.fc; fc != nil; fc = fc.enclosing {
		mark(value.FromObj(fc.function))
	}
}

// Compile parses source and emits a top-level script function. ok is
// false if any compile error was reported (to stderr in the
// `[line N] Error at 'X': message` format of spec.md §6); the caller
// should treat the returned function as unusable in that case.
func Compile(source string, collector *gc.Collector, stderr io.Writer) (fn *value.ObjFunction, ok bool) {
	c := &Compiler{
		lex:    lexer.New(source),
		stderr: stderr,
		gc:     collector,
	}
	c.pushFuncCompiler(TypeScript, "")
	c.advance()
	for !c.match(lexer.TokenEOF) {
		c.declaration()
	}
	fn = c.endCompiler()
	return fn, !c.hadError
}

func (c *Compiler) pushFuncCompiler(t FuncType, name string) {
	c.gc.MaybeCollect(c)
	fn := c.gc.NewFunction()
	if name != "" {
		fn.Name = c.gc.InternString(name)
	}
	next := &funcCompiler{enclosing: c.fc, function: fn, fnType: t}
	// Slot 0 is reserved: `this` for methods/initializers, the callee
	// itself (unnamed) for top-level/free functions.
	slotName := ""
	if t == TypeMethod || t == TypeInitializer {
		slotName = "this"
	}
	next.locals = append(next.locals, local{name: slotName, depth: 0})
	c.fc = next
}

func (c *Compiler) endCompiler() *value.ObjFunction {
	c.emitReturn()
	fn := c.fc.function
	c.fc = c.fc.enclosing
	return fn
}

// --- token stream plumbing ---

func (c *Compiler) advance() {
	c.prev = c.current
	for {
		c.current = c.lex.NextToken()
		if c.current.Type != lexer.TokenError {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(t lexer.TokenType) bool { return c.current.Type == t }

func (c *Compiler) match(t lexer.TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t lexer.TokenType, msg string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.prev, msg) }

func (c *Compiler) errorAt(tok lexer.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	if c.stderr == nil {
		return
	}
	where := fmt.Sprintf(" at '%s'", tok.Lexeme)
	if tok.Type == lexer.TokenEOF {
		where = " at end"
	} else if tok.Type == lexer.TokenError {
		where = ""
	}
	fmt.Fprintf(c.stderr, "[line %d] Error%s: %s\n", tok.Line, where, msg)
}

// synchronize recovers from a syntax error by discarding tokens until a
// likely statement boundary, so one mistake doesn't cascade into a wall
// of spurious diagnostics (spec.md §4.3).
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != lexer.TokenEOF {
		if c.prev.Type == lexer.TokenSemicolon {
			return
		}
		switch c.current.Type {
		case lexer.TokenClass, lexer.TokenFun, lexer.TokenVar, lexer.TokenFor,
			lexer.TokenIf, lexer.TokenWhile, lexer.TokenPrint, lexer.TokenReturn:
			return
		}
		c.advance()
	}
}

// --- emit helpers ---

func (c *Compiler) curChunk() *chunk.Chunk { return &c.fc.function.Chunk }

func (c *Compiler) emitByte(b byte) {
	chunk.Write(c.curChunk(), b, c.prev.Line)
}

func (c *Compiler) emitOp(op chunk.OpCode) { c.emitByte(byte(op)) }

func (c *Compiler) emitBytes(a, b byte) {
	c.emitByte(a)
	c.emitByte(b)
}

func (c *Compiler) emitReturn() {
	if c.fc.fnType == TypeInitializer {
		c.emitOp(chunk.OpGetLocal)
		c.emitByte(0)
	} else {
		c.emitOp(chunk.OpNil)
	}
	c.emitOp(chunk.OpReturn)
}

func (c *Compiler) makeConstant(v value.Value) byte {
	idx := chunk.AddConstant(c.curChunk(), v)
	if idx > chunk.MaxConstants-1 {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitOp(chunk.OpConstant)
	c.emitByte(c.makeConstant(v))
}

// emitJump writes opcode + two placeholder bytes and returns the offset
// to later back-patch with patchJump.
func (c *Compiler) emitJump(op chunk.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.curChunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.curChunk().Code) - offset - 2
	if jump > 0xffff {
		c.error("Too much code to jump over.")
		return
	}
	c.curChunk().Code[offset] = byte(jump >> 8)
	c.curChunk().Code[offset+1] = byte(jump)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(chunk.OpLoop)
	offset := len(c.curChunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

func (c *Compiler) identifierConstant(name string) byte {
	c.gc.MaybeCollect(c)
	return c.makeConstant(value.FromObj(c.gc.InternString(name)))
}

func parseNumber(lexeme string) (float64, error) {
	n, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "compiler: invalid number literal %q", lexeme)
	}
	return n, nil
}
