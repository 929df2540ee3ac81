package compiler

import "github.com/kristofer/loxvm/pkg/chunk"

func (c *Compiler) beginScope() { c.fc.scopeDepth++ }

// endScope pops every local declared in the scope just exited, emitting
// OP_CLOSE_UPVALUE instead of a plain OP_POP for any local a closure
// captured, so the upvalue survives the frame going away.
func (c *Compiler) endScope() {
	c.fc.scopeDepth--
	locals := c.fc.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > c.fc.scopeDepth {
		if locals[len(locals)-1].captured {
			c.emitOp(chunk.OpCloseUpvalue)
		} else {
			c.emitOp(chunk.OpPop)
		}
		locals = locals[:len(locals)-1]
	}
	c.fc.locals = locals
}

// declareVariable registers the identifier just consumed as a local (at
// scope depth > 0) or leaves it to be defined as a global. Redeclaring a
// name already present at the same depth is an error.
func (c *Compiler) declareVariable(name string) {
	if c.fc.scopeDepth == 0 {
		return
	}
	for i := len(c.fc.locals) - 1; i >= 0; i-- {
		l := c.fc.locals[i]
		if l.depth != -1 && l.depth < c.fc.scopeDepth {
			break
		}
		if l.name == name {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name string) {
	if len(c.fc.locals) >= maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.fc.locals = append(c.fc.locals, local{name: name, depth: -1})
}

func (c *Compiler) markInitialized() {
	if c.fc.scopeDepth == 0 {
		return
	}
	c.fc.locals[len(c.fc.locals)-1].depth = c.fc.scopeDepth
}

// resolveLocal walks fc's locals bottom-up (innermost declaration wins)
// looking for name, returning its slot or -1. A local whose depth is
// still -1 is mid-declaration — its own initializer expression referring
// to it is the "Can't read local variable in its own initializer" error
// spec.md §3 documents (original_source/compiler.c's resolveLocal).
func (c *Compiler) resolveLocal(fc *funcCompiler, name string) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name == name {
			if fc.locals[i].depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue implements spec.md §4.3's three-step name resolution's
// second step: if name is a local in some enclosing compiler, mark it
// captured and install a chain of upvalues down to fc, deduplicating by
// (index, isLocal) at every level.
func (c *Compiler) resolveUpvalue(fc *funcCompiler, name string) int {
	if fc.enclosing == nil {
		return -1
	}
	if slot := c.resolveLocal(fc.enclosing, name); slot != -1 {
		fc.enclosing.locals[slot].captured = true
		return addUpvalue(fc, byte(slot), true)
	}
	if up := c.resolveUpvalue(fc.enclosing, name); up != -1 {
		return addUpvalue(fc, byte(up), false)
	}
	return -1
}

func addUpvalue(fc *funcCompiler, index byte, isLocal bool) int {
	for i, uv := range fc.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fc.upvalues) >= maxUpvalues {
		return 0
	}
	fc.upvalues = append(fc.upvalues, upvalueRef{index: index, isLocal: isLocal})
	fc.function.UpvalueCount = len(fc.upvalues)
	return len(fc.upvalues) - 1
}
