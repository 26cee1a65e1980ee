// Package compiler implements a single-pass Pratt-parser compiler: it
// scans, parses, and emits bytecode in one pass with no intermediate
// AST. A two-token lookahead (current/previous) is enough for the
// grammar's prefix/infix parse rules, and code generation happens
// directly from the parse instead of walking a tree a separate pass
// would have built.
package compiler

import (
	"fmt"
	"os"
	"strconv"

	"github.com/kristofer/vela/pkg/bytecode"
	"github.com/kristofer/vela/pkg/scanner"
)

// DebugPrintCode, when true, prints a "== name ==" header to stderr as
// each function finishes compiling; the chunk's instructions are not
// disassembled. A build-time constant rather than a config flag
// since it's a compiler-development aid, not something a program
// running the language should ever need to toggle.
const DebugPrintCode = false

type functionType int

const (
	typeFunction functionType = iota
	typeInitializer
	typeMethod
	typeScript
)

// local is a stack slot reserved for a declared local variable or a
// synthetic one ("this", "super"). depth -1 means "declared but not
// yet defined": the name is visible to the resolver but its
// initializer hasn't run, so `var a = a;` can't read the shadowing
// outer `a` by walking past an uninitialized local of the same name.
type local struct {
	name       scanner.Token
	depth      int
	isCaptured bool
}

type upvalueDesc struct {
	index   byte
	isLocal bool
}

type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// Compiler holds one function's compilation context. Compiling a
// nested function or method pushes a new Compiler with enclosing set
// to the current one; resolveUpvalue walks that chain.
type Compiler struct {
	heap  bytecode.Heap
	roots bytecode.RootRegistrar

	scan     *scanner.Scanner
	current  scanner.Token
	previous scanner.Token
	hadError bool
	panicMode bool

	enclosing *Compiler
	function  *bytecode.ObjFunction
	fnType    functionType

	locals     [256]local
	localCount int
	upvalues   [256]upvalueDesc
	scopeDepth int

	class *classState
}

// Compile compiles source into a top-level script function, returning
// the function and whether compilation succeeded. heap is used to
// intern string constants and allocate ObjFunctions for every function
// literal and method the source declares; roots lets nested function
// compilation protect its in-progress function objects from collection
// before they're stored anywhere the VM's root scan would find them.
func Compile(source string, heap bytecode.Heap, roots bytecode.RootRegistrar) (*bytecode.ObjFunction, bool) {
	c := newCompiler(nil, heap, roots, typeScript)
	c.scan = scanner.New(source)
	c.advance()

	for !c.match(scanner.TokenEOF) {
		c.declaration()
	}

	fn := c.endCompiler()
	return fn, !c.hadError
}

func newCompiler(enclosing *Compiler, heap bytecode.Heap, roots bytecode.RootRegistrar, fnType functionType) *Compiler {
	c := &Compiler{
		heap:      heap,
		roots:     roots,
		enclosing: enclosing,
		fnType:    fnType,
		function:  heap.NewFunction(),
	}
	if enclosing != nil {
		c.scan = enclosing.scan
		c.class = enclosing.class
	}
	roots.PushCompilerRoot(c.function)

	// Slot 0 is reserved: "this" for methods/initializers, an
	// unnamed synthetic slot otherwise (so CALL's argument-shifting
	// math is uniform whether or not the callee is a method).
	slotName := ""
	if fnType != typeFunction && fnType != typeScript {
		slotName = "this"
	}
	c.locals[0] = local{name: scanner.Token{Lexeme: slotName}, depth: 0}
	c.localCount = 1

	if fnType != typeScript {
		c.function.Name = heap.InternString(c.previousNameOrEmpty())
	}
	return c
}

// previousNameOrEmpty reads the function name off c.previous at the
// point newCompiler is invoked for a named function/method. A compiler
// with no enclosing context has no such token, so it returns "".
func (c *Compiler) previousNameOrEmpty() string {
	if c.enclosing == nil {
		return ""
	}
	return c.enclosing.previous.Lexeme
}

func (c *Compiler) endCompiler() *bytecode.ObjFunction {
	c.emitReturn()
	fn := c.function
	if DebugPrintCode && !c.hadError {
		name := "<script>"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		fmt.Fprintf(os.Stderr, "== %s ==\n", name)
	}
	c.roots.PopCompilerRoot()
	return fn
}

func (c *Compiler) chunk() *bytecode.Chunk { return &c.function.Chunk }

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scan.ScanToken()
		if c.current.Type != scanner.TokenError {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(t scanner.TokenType) bool { return c.current.Type == t }

func (c *Compiler) match(t scanner.TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t scanner.TokenType, msg string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

// --- error reporting ----------------------------------------------------

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.previous, msg) }

func (c *Compiler) errorAt(tok scanner.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	if tok.Type == scanner.TokenEOF {
		fmt.Fprintf(os.Stderr, "[line %d] Error at end: %s\n", tok.Line, msg)
	} else if tok.Type == scanner.TokenError {
		fmt.Fprintf(os.Stderr, "[line %d] Error: %s\n", tok.Line, msg)
	} else {
		fmt.Fprintf(os.Stderr, "[line %d] Error at '%s': %s\n", tok.Line, tok.Lexeme, msg)
	}
	c.hadError = true
}

func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != scanner.TokenEOF {
		if c.previous.Type == scanner.TokenSemicolon {
			return
		}
		switch c.current.Type {
		case scanner.TokenClass, scanner.TokenFun, scanner.TokenVar, scanner.TokenFor,
			scanner.TokenIf, scanner.TokenWhile, scanner.TokenPrint, scanner.TokenReturn:
			return
		}
		c.advance()
	}
}

// --- emission -----------------------------------------------------------

func (c *Compiler) emitByte(b byte)         { c.chunk().Write(b, c.previous.Line) }
func (c *Compiler) emitOp(op bytecode.Opcode) { c.chunk().WriteOp(op, c.previous.Line) }

func (c *Compiler) emitOpByte(op bytecode.Opcode, b byte) {
	c.emitOp(op)
	c.emitByte(b)
}

func (c *Compiler) emitReturn() {
	if c.fnType == typeInitializer {
		c.emitOpByte(bytecode.OpGetLocal, 0)
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.emitOp(bytecode.OpReturn)
}

func (c *Compiler) emitConstant(v bytecode.Value) {
	idx := c.makeConstant(v)
	c.emitOpByte(bytecode.OpConstant, idx)
}

func (c *Compiler) makeConstant(v bytecode.Value) byte {
	idx := c.chunk().AddConstant(v)
	if idx == -1 {
		c.error("Too many constants in one chunk.")
		return 0
	}
	c.heap.TrackBytes(constantSize)
	return byte(idx)
}

// constantSize is the heap-growth charge for one constant-pool slot,
// keeping a function literal's string/number constants counted against
// the same nextGC heuristic object allocation is, even though a
// constant pool slot is a Go value rather than a heap Obj.
const constantSize = 24

func (c *Compiler) identifierConstant(tok scanner.Token) byte {
	return c.makeConstant(bytecode.ObjVal(wrapString(c.heap.InternString(tok.Lexeme))))
}

// wrapString returns the Obj header InternString already allocated for
// s. Every ObjString the heap hands out is pre-wrapped so its identity
// (and therefore its place in the GC object list and the intern
// table's liveness check) is fixed at allocation time; nothing outside
// the heap implementation is allowed to mint a second wrapper for the
// same string.
func wrapString(s *bytecode.ObjString) *bytecode.Obj {
	return s.Owner()
}

func (c *Compiler) emitJump(op bytecode.Opcode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > 65535 {
		c.error("Too much code to jump over.")
		return
	}
	c.chunk().Code[offset] = byte((jump >> 8) & 0xff)
	c.chunk().Code[offset+1] = byte(jump & 0xff)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(bytecode.OpLoop)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > 65535 {
		c.error("Loop body too large.")
	}
	c.emitByte(byte((offset >> 8) & 0xff))
	c.emitByte(byte(offset & 0xff))
}

// --- scopes and locals ----------------------------------------------------

func (c *Compiler) beginScope() { c.scopeDepth++ }

func (c *Compiler) endScope() {
	c.scopeDepth--
	for c.localCount > 0 && c.locals[c.localCount-1].depth > c.scopeDepth {
		if c.locals[c.localCount-1].isCaptured {
			c.emitOp(bytecode.OpCloseUpvalue)
		} else {
			c.emitOp(bytecode.OpPop)
		}
		c.localCount--
	}
}

func (c *Compiler) addLocal(name scanner.Token) {
	if c.localCount == 256 {
		c.error("Too many local variables in function.")
		return
	}
	c.locals[c.localCount] = local{name: name, depth: -1}
	c.localCount++
}

func (c *Compiler) declareVariable() {
	if c.scopeDepth == 0 {
		return
	}
	name := c.previous
	for i := c.localCount - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth != -1 && l.depth < c.scopeDepth {
			break
		}
		if l.name.Lexeme == name.Lexeme {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) markInitialized() {
	if c.scopeDepth == 0 {
		return
	}
	c.locals[c.localCount-1].depth = c.scopeDepth
}

// resolveLocal returns the slot index of name in this function's
// locals, or -1 if not found.
func (c *Compiler) resolveLocal(name scanner.Token) int {
	for i := c.localCount - 1; i >= 0; i-- {
		if c.locals[i].name.Lexeme == name.Lexeme {
			if c.locals[i].depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue resolves name against enclosing functions, adding an
// upvalue descriptor to every compiler context between the defining
// function and this one. The defining local is marked captured before
// addUpvalue records the descriptor, so the enclosing function's
// endScope emits CLOSE_UPVALUE rather than POP for its slot.
func (c *Compiler) resolveUpvalue(name scanner.Token) int {
	if c.enclosing == nil {
		return -1
	}
	if local := c.enclosing.resolveLocal(name); local != -1 {
		c.enclosing.locals[local].isCaptured = true
		return c.addUpvalue(byte(local), true)
	}
	if up := c.enclosing.resolveUpvalue(name); up != -1 {
		return c.addUpvalue(byte(up), false)
	}
	return -1
}

func (c *Compiler) addUpvalue(index byte, isLocal bool) int {
	count := c.function.UpvalueCount
	for i := 0; i < count; i++ {
		u := c.upvalues[i]
		if u.index == index && u.isLocal == isLocal {
			return i
		}
	}
	if count == 256 {
		c.error("Too many closure variables in function.")
		return 0
	}
	c.upvalues[count] = upvalueDesc{index: index, isLocal: isLocal}
	c.function.UpvalueCount++
	return count
}

// --- declarations and statements -----------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(scanner.TokenClass):
		c.classDeclaration()
	case c.match(scanner.TokenFun):
		c.funDeclaration()
	case c.match(scanner.TokenVar):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) classDeclaration() {
	c.consume(scanner.TokenIdentifier, "Expect class name.")
	nameTok := c.previous
	nameConst := c.identifierConstant(nameTok)
	c.declareVariable()

	c.emitOpByte(bytecode.OpClass, nameConst)
	c.defineVariable(nameConst)

	cs := &classState{enclosing: c.class}
	c.class = cs

	if c.match(scanner.TokenLess) {
		c.consume(scanner.TokenIdentifier, "Expect superclass name.")
		c.variable(false)
		if nameTok.Lexeme == c.previous.Lexeme {
			c.error("A class can't inherit from itself.")
		}

		c.beginScope()
		c.addLocal(scanner.Token{Lexeme: "super"})
		c.defineVariable(0)

		c.namedVariable(nameTok, false)
		c.emitOp(bytecode.OpInherit)
		cs.hasSuperclass = true
	}

	c.namedVariable(nameTok, false)
	c.consume(scanner.TokenLeftBrace, "Expect '{' before class body.")
	for !c.check(scanner.TokenRightBrace) && !c.check(scanner.TokenEOF) {
		c.method()
	}
	c.consume(scanner.TokenRightBrace, "Expect '}' after class body.")
	c.emitOp(bytecode.OpPop) // the class itself, pushed again above for METHOD targeting

	if cs.hasSuperclass {
		c.endScope()
	}
	c.class = cs.enclosing
}

func (c *Compiler) method() {
	c.consume(scanner.TokenIdentifier, "Expect method name.")
	nameTok := c.previous
	nameConst := c.identifierConstant(nameTok)

	fnType := typeMethod
	if nameTok.Lexeme == "init" {
		fnType = typeInitializer
	}
	c.function2(fnType)
	c.emitOpByte(bytecode.OpMethod, nameConst)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function2(typeFunction)
	c.defineVariable(global)
}

// function2 compiles a function's parameter list and body into a
// fresh nested Compiler, then emits CLOSURE for the result followed
// by each upvalue's (isLocal, index) descriptor pair inline, matching
// clox's layout so the VM can read them straight out of the code
// stream when it executes CLOSURE.
func (c *Compiler) function2(fnType functionType) {
	fc := newCompiler(c, c.heap, c.roots, fnType)
	fc.current = c.current
	fc.previous = c.previous
	fc.beginScope()

	fc.consume(scanner.TokenLeftParen, "Expect '(' after function name.")
	if !fc.check(scanner.TokenRightParen) {
		for {
			fc.function.Arity++
			if fc.function.Arity > 255 {
				fc.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := fc.parseVariable("Expect parameter name.")
			fc.defineVariable(constant)
			if !fc.match(scanner.TokenComma) {
				break
			}
		}
	}
	fc.consume(scanner.TokenRightParen, "Expect ')' after parameters.")
	fc.consume(scanner.TokenLeftBrace, "Expect '{' before function body.")
	fc.block()

	fn := fc.endCompiler()
	if fc.hadError {
		c.hadError = true
	}
	c.current = fc.current
	c.previous = fc.previous
	c.panicMode = fc.panicMode

	idx := c.makeConstant(bytecode.ObjVal(fn.Obj))
	c.emitOpByte(bytecode.OpClosure, idx)
	for i := 0; i < fn.UpvalueCount; i++ {
		u := fc.upvalues[i]
		if u.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(u.index)
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(scanner.TokenEqual) {
		c.expression()
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.consume(scanner.TokenSemicolon, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) parseVariable(msg string) byte {
	c.consume(scanner.TokenIdentifier, msg)
	c.declareVariable()
	if c.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous)
}

func (c *Compiler) defineVariable(global byte) {
	if c.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(bytecode.OpDefineGlobal, global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(scanner.TokenPrint):
		c.printStatement()
	case c.match(scanner.TokenFor):
		c.forStatement()
	case c.match(scanner.TokenIf):
		c.ifStatement()
	case c.match(scanner.TokenReturn):
		c.returnStatement()
	case c.match(scanner.TokenWhile):
		c.whileStatement()
	case c.match(scanner.TokenLeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(scanner.TokenRightBrace) && !c.check(scanner.TokenEOF) {
		c.declaration()
	}
	c.consume(scanner.TokenRightBrace, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(scanner.TokenSemicolon, "Expect ';' after value.")
	c.emitOp(bytecode.OpPrint)
}

func (c *Compiler) returnStatement() {
	if c.fnType == typeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(scanner.TokenSemicolon) {
		c.emitReturn()
		return
	}
	if c.fnType == typeInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(scanner.TokenSemicolon, "Expect ';' after return value.")
	c.emitOp(bytecode.OpReturn)
}

func (c *Compiler) ifStatement() {
	c.consume(scanner.TokenLeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(scanner.TokenRightParen, "Expect ')' after condition.")

	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()

	elseJump := c.emitJump(bytecode.OpJump)
	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop)

	if c.match(scanner.TokenElse) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(scanner.TokenLeftParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(scanner.TokenRightParen, "Expect ')' after condition.")

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(scanner.TokenLeftParen, "Expect '(' after 'for'.")
	switch {
	case c.match(scanner.TokenSemicolon):
		// no initializer
	case c.match(scanner.TokenVar):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.match(scanner.TokenSemicolon) {
		c.expression()
		c.consume(scanner.TokenSemicolon, "Expect ';' after loop condition.")
		exitJump = c.emitJump(bytecode.OpJumpIfFalse)
		c.emitOp(bytecode.OpPop)
	}

	if !c.match(scanner.TokenRightParen) {
		bodyJump := c.emitJump(bytecode.OpJump)
		incrStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(bytecode.OpPop)
		c.consume(scanner.TokenRightParen, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(bytecode.OpPop)
	}
	c.endScope()
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(scanner.TokenSemicolon, "Expect ';' after expression.")
	c.emitOp(bytecode.OpPop)
}

// --- expressions ----------------------------------------------------------

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := getRule(c.previous.Type).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= getRule(c.current.Type).precedence {
		c.advance()
		infix := getRule(c.previous.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(scanner.TokenEqual) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) number(canAssign bool) {
	n, _ := strconv.ParseFloat(c.previous.Lexeme, 64)
	c.emitConstant(bytecode.Number(n))
}

func (c *Compiler) string(canAssign bool) {
	raw := c.previous.Lexeme[1 : len(c.previous.Lexeme)-1]
	s := c.heap.InternString(raw)
	c.emitConstant(bytecode.ObjVal(wrapString(s)))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.previous.Type {
	case scanner.TokenFalse:
		c.emitOp(bytecode.OpFalse)
	case scanner.TokenTrue:
		c.emitOp(bytecode.OpTrue)
	case scanner.TokenNil:
		c.emitOp(bytecode.OpNil)
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(scanner.TokenRightParen, "Expect ')' after expression.")
}

func (c *Compiler) unary(canAssign bool) {
	opType := c.previous.Type
	c.parsePrecedence(precUnary)
	switch opType {
	case scanner.TokenBang:
		c.emitOp(bytecode.OpNot)
	case scanner.TokenMinus:
		c.emitOp(bytecode.OpNegate)
	}
}

func (c *Compiler) binary(canAssign bool) {
	opType := c.previous.Type
	rule := getRule(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case scanner.TokenBangEqual:
		c.emitOp(bytecode.OpEqual)
		c.emitOp(bytecode.OpNot)
	case scanner.TokenEqualEqual:
		c.emitOp(bytecode.OpEqual)
	case scanner.TokenGreater:
		c.emitOp(bytecode.OpGreater)
	case scanner.TokenGreaterEqual:
		c.emitOp(bytecode.OpLess)
		c.emitOp(bytecode.OpNot)
	case scanner.TokenLess:
		c.emitOp(bytecode.OpLess)
	case scanner.TokenLessEqual:
		c.emitOp(bytecode.OpGreater)
		c.emitOp(bytecode.OpNot)
	case scanner.TokenPlus:
		c.emitOp(bytecode.OpAdd)
	case scanner.TokenMinus:
		c.emitOp(bytecode.OpSubtract)
	case scanner.TokenStar:
		c.emitOp(bytecode.OpMultiply)
	case scanner.TokenSlash:
		c.emitOp(bytecode.OpDivide)
	}
}

func (c *Compiler) and(canAssign bool) {
	endJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or(canAssign bool) {
	elseJump := c.emitJump(bytecode.OpJumpIfFalse)
	endJump := c.emitJump(bytecode.OpJump)
	c.patchJump(elseJump)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(canAssign bool) {
	argCount := c.argumentList()
	c.emitOpByte(bytecode.OpCall, argCount)
}

func (c *Compiler) argumentList() byte {
	var count int
	if !c.check(scanner.TokenRightParen) {
		for {
			c.expression()
			if count == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			count++
			if !c.match(scanner.TokenComma) {
				break
			}
		}
	}
	c.consume(scanner.TokenRightParen, "Expect ')' after arguments.")
	return byte(count)
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(scanner.TokenIdentifier, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous)

	if canAssign && c.match(scanner.TokenEqual) {
		c.expression()
		c.emitOpByte(bytecode.OpSetProperty, name)
	} else if c.match(scanner.TokenLeftParen) {
		argCount := c.argumentList()
		c.emitOpByte(bytecode.OpInvoke, name)
		c.emitByte(argCount)
	} else {
		c.emitOpByte(bytecode.OpGetProperty, name)
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) namedVariable(name scanner.Token, canAssign bool) {
	var getOp, setOp bytecode.Opcode
	arg := c.resolveLocal(name)
	if arg != -1 {
		getOp, setOp = bytecode.OpGetLocal, bytecode.OpSetLocal
	} else if arg = c.resolveUpvalue(name); arg != -1 {
		getOp, setOp = bytecode.OpGetUpvalue, bytecode.OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = bytecode.OpGetGlobal, bytecode.OpSetGlobal
	}

	if canAssign && c.match(scanner.TokenEqual) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}

func (c *Compiler) this(canAssign bool) {
	if c.class == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.variable(false)
}

func (c *Compiler) super(canAssign bool) {
	if c.class == nil {
		c.error("Can't use 'super' outside of a class.")
	} else if !c.class.hasSuperclass {
		c.error("Can't use 'super' in a class with no superclass.")
	}

	c.consume(scanner.TokenDot, "Expect '.' after 'super'.")
	c.consume(scanner.TokenIdentifier, "Expect superclass method name.")
	name := c.identifierConstant(c.previous)

	c.namedVariable(scanner.Token{Type: scanner.TokenThis, Lexeme: "this"}, false)
	if c.match(scanner.TokenLeftParen) {
		argCount := c.argumentList()
		c.namedVariable(scanner.Token{Type: scanner.TokenSuper, Lexeme: "super"}, false)
		c.emitOpByte(bytecode.OpSuperInvoke, name)
		c.emitByte(argCount)
	} else {
		c.namedVariable(scanner.Token{Type: scanner.TokenSuper, Lexeme: "super"}, false)
		c.emitOpByte(bytecode.OpGetSuper, name)
	}
}
