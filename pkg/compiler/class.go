package compiler

import (
	"github.com/kristofer/loxvm/pkg/chunk"
	"github.com/kristofer/loxvm/pkg/lexer"
)

// classDeclaration compiles `class Name [< Super] { methods }`. The class
// itself is emitted as a global (or local) variable binding, then each
// method is compiled as a closure and attached with OP_METHOD — methods
// are not stored as fields on the runtime class until OP_METHOD runs, so
// the body can reference the class's own name inside the superclass
// clause without forward-declaration trouble.
func (c *Compiler) classDeclaration() {
	c.consume(lexer.TokenIdentifier, "Expect class name.")
	nameTok := c.prev
	nameConst := c.identifierConstant(nameTok.Lexeme)
	c.declareVariable(nameTok.Lexeme)

	c.emitOp(chunk.OpClass)
	c.emitByte(nameConst)
	c.defineVariable(nameConst)

	cc := &classCompiler{enclosing: c.class}
	c.class = cc

	if c.match(lexer.TokenLess) {
		c.consume(lexer.TokenIdentifier, "Expect superclass name.")
		c.variable(false)
		if c.prev.Lexeme == nameTok.Lexeme {
			c.error("A class can't inherit from itself.")
		}

		c.beginScope()
		c.addLocal("super")
		c.defineVariable(0)

		c.namedVariable(nameTok.Lexeme, false)
		c.emitOp(chunk.OpInherit)
		cc.hasSuperclass = true
	}

	c.namedVariable(nameTok.Lexeme, false)
	c.consume(lexer.TokenLeftBrace, "Expect '{' before class body.")
	for !c.check(lexer.TokenRightBrace) && !c.check(lexer.TokenEOF) {
		c.method()
	}
	c.consume(lexer.TokenRightBrace, "Expect '}' after class body.")
	c.emitOp(chunk.OpPop) // the class pushed by namedVariable above

	if cc.hasSuperclass {
		c.endScope()
	}
	c.class = cc.enclosing
}

func (c *Compiler) method() {
	c.consume(lexer.TokenIdentifier, "Expect method name.")
	name := c.prev.Lexeme
	nameConst := c.identifierConstant(name)

	t := TypeMethod
	if name == "init" {
		t = TypeInitializer
	}
	c.function(t)

	c.emitOp(chunk.OpMethod)
	c.emitByte(nameConst)
}
