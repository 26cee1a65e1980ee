// Package vm implements the stack-based bytecode interpreter: call
// frames, the value and globals stacks, upvalue closing, property and
// method dispatch, and the mark-sweep collector that backs it all.
// One big VM struct holds all of it, with a switch-dispatched run loop
// and small push/pop/peek stack primitives, and helper methods grouped
// by opcode family so each opcode's handling stays close to the others
// it composes with.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/kristofer/vela/pkg/bytecode"
	"github.com/kristofer/vela/pkg/compiler"
	"github.com/kristofer/vela/pkg/debug"
)

const (
	framesMax = 64
	stackMax  = framesMax * 256
)

// DebugTraceExecution, when true, prints the stack and the current
// instruction before every dispatch. Gated behind a build-time
// constant rather than a runtime flag so the tracing branch compiles
// out of the hot loop entirely in normal builds.
const DebugTraceExecution = false

// DebugStressGC, when true, runs a collection before every allocation
// instead of waiting for the heap to grow past nextGC, to shake out
// roots the mark phase forgot to walk.
const DebugStressGC = false

type callFrame struct {
	closure *bytecode.ObjClosure
	ip      int
	slots   int // base index into vm.stack for this frame's locals
}

// VM is one interpreter instance: its value stack, call frames,
// globals, string interning table, heap object list, and GC
// bookkeeping. A VM is single-use per program the way clox's global vm
// is single-instance, but nothing here is package-level state, so
// tests can run many VMs concurrently.
type VM struct {
	stack     [stackMax]bytecode.Value
	stackTop  int
	frames    [framesMax]callFrame
	frameCount int

	globals bytecode.Table
	strings bytecode.Table

	openUpvalues *bytecode.Upvalue
	objects      *bytecode.Obj
	grayStack    []*bytecode.Obj

	bytesAllocated int
	nextGC         int

	initString *bytecode.ObjString

	compilerRoots []*bytecode.ObjFunction

	stdout io.Writer
	stderr io.Writer
}

// New creates a VM that writes `print` output to stdout and
// diagnostics to stderr (os.Stdout/os.Stderr by default, kept as
// separate writers so the two can be redirected independently); tests
// swap in a strings.Builder for stdout to assert on program output without
// touching the real console.
func New() *VM {
	vm := &VM{nextGC: 1024 * 1024, stdout: os.Stdout, stderr: os.Stderr}
	vm.initString = vm.InternString("init")
	vm.defineNative("clock", nativeClock)
	vm.defineNative("str", vm.strNative)
	return vm
}

// SetOutput redirects `print` output, used by tests that want to
// capture a program's stdout into a buffer.
func (vm *VM) SetOutput(w io.Writer) { vm.stdout = w }

// SetErrorOutput redirects runtime diagnostics. Compile errors are
// written by package compiler straight to os.Stderr and are not
// redirected.
func (vm *VM) SetErrorOutput(w io.Writer) { vm.stderr = w }

// Interpret compiles and runs source in one call, the shape both the
// REPL (one line at a time) and run-file mode use.
func (vm *VM) Interpret(source string) InterpretResult {
	fn, ok := compiler.Compile(source, vm, vm)
	if !ok {
		return InterpretCompileError
	}

	closure := vm.newClosure(fn)
	vm.push(bytecode.ObjVal(vm.wrapClosure(closure)))
	vm.callClosure(closure, 0)

	if err := vm.run(); err != nil {
		fmt.Fprintln(vm.stderr, err.Error())
		return InterpretRuntimeError
	}
	return InterpretOK
}

// CompileOnly compiles source without running it, returning the
// top-level script function's chunk for `smog compile` to serialize.
func (vm *VM) CompileOnly(source string) (*bytecode.Chunk, bool) {
	fn, ok := compiler.Compile(source, vm, vm)
	if !ok {
		return nil, false
	}
	return &fn.Chunk, true
}

// --- stack primitives -----------------------------------------------------

func (vm *VM) push(v bytecode.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() bytecode.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) bytecode.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

// --- object wrapping --------------------------------------------------

func (vm *VM) wrapClosure(c *bytecode.ObjClosure) *bytecode.Obj {
	return vm.allocate(bytecode.ObjTypeClosure, c)
}

func (vm *VM) wrapInstance(i *bytecode.ObjInstance) *bytecode.Obj {
	return vm.allocate(bytecode.ObjTypeInstance, i)
}

func (vm *VM) wrapClass(c *bytecode.ObjClass) *bytecode.Obj {
	obj := vm.allocate(bytecode.ObjTypeClass, c)
	c.Obj = obj
	return obj
}

func (vm *VM) wrapBoundMethod(b *bytecode.ObjBoundMethod) *bytecode.Obj {
	return vm.allocate(bytecode.ObjTypeBoundMethod, b)
}

func (vm *VM) newClosure(fn *bytecode.ObjFunction) *bytecode.ObjClosure {
	return &bytecode.ObjClosure{Function: fn, Upvalues: make([]*bytecode.Upvalue, fn.UpvalueCount)}
}

// --- runtime errors ---------------------------------------------------

func (vm *VM) runtimeError(format string, args ...interface{}) *RuntimeError {
	msg := fmt.Sprintf(format, args...)
	trace := captureTrace(vm.frames[:vm.frameCount])
	vm.resetStack()
	return newRuntimeError(msg, trace)
}

// --- run loop -----------------------------------------------------------

func (vm *VM) run() *RuntimeError {
	frame := &vm.frames[vm.frameCount-1]

	readByte := func() byte {
		b := frame.closure.Function.Chunk.Code[frame.ip]
		frame.ip++
		return b
	}
	readShort := func() int {
		hi := frame.closure.Function.Chunk.Code[frame.ip]
		lo := frame.closure.Function.Chunk.Code[frame.ip+1]
		frame.ip += 2
		return int(hi)<<8 | int(lo)
	}
	readConstant := func() bytecode.Value {
		return frame.closure.Function.Chunk.Constants[readByte()]
	}
	readString := func() *bytecode.ObjString {
		return readConstant().AsString()
	}

	for {
		if DebugTraceExecution {
			vm.traceInstruction(frame)
		}

		op := bytecode.Opcode(readByte())
		switch op {
		case bytecode.OpConstant:
			vm.push(readConstant())

		case bytecode.OpNil:
			vm.push(bytecode.Nil)
		case bytecode.OpTrue:
			vm.push(bytecode.Bool(true))
		case bytecode.OpFalse:
			vm.push(bytecode.Bool(false))
		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpGetLocal:
			slot := readByte()
			vm.push(vm.stack[frame.slots+int(slot)])
		case bytecode.OpSetLocal:
			slot := readByte()
			vm.stack[frame.slots+int(slot)] = vm.peek(0)

		case bytecode.OpGetGlobal:
			name := readString()
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.push(v)
		case bytecode.OpDefineGlobal:
			name := readString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case bytecode.OpSetGlobal:
			name := readString()
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case bytecode.OpGetUpvalue:
			slot := readByte()
			vm.push(*frame.closure.Upvalues[slot].Location)
		case bytecode.OpSetUpvalue:
			slot := readByte()
			*frame.closure.Upvalues[slot].Location = vm.peek(0)

		case bytecode.OpGetProperty:
			if !vm.peek(0).IsInstance() {
				return vm.runtimeError("Only instances have properties.")
			}
			inst := vm.peek(0).AsInstance()
			name := readString()
			if v, ok := inst.Fields.Get(name); ok {
				vm.pop()
				vm.push(v)
				break
			}
			if !vm.bindMethod(inst.Class, name) {
				return vm.runtimeError("Undefined property '%s'.", name.Chars)
			}

		case bytecode.OpSetProperty:
			if !vm.peek(1).IsInstance() {
				return vm.runtimeError("Only instances have fields.")
			}
			inst := vm.peek(1).AsInstance()
			name := readString()
			inst.Fields.Set(name, vm.peek(0))
			v := vm.pop()
			vm.pop()
			vm.push(v)

		case bytecode.OpGetSuper:
			name := readString()
			superclass := vm.pop().AsClass()
			if !vm.bindMethod(superclass, name) {
				return vm.runtimeError("Undefined property '%s'.", name.Chars)
			}

		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(bytecode.Bool(a.Equal(b)))
		case bytecode.OpGreater:
			if err := vm.binaryNumeric(func(a, b float64) bytecode.Value { return bytecode.Bool(a > b) }); err != nil {
				return err
			}
		case bytecode.OpLess:
			if err := vm.binaryNumeric(func(a, b float64) bytecode.Value { return bytecode.Bool(a < b) }); err != nil {
				return err
			}

		case bytecode.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case bytecode.OpSubtract:
			if err := vm.binaryNumeric(func(a, b float64) bytecode.Value { return bytecode.Number(a - b) }); err != nil {
				return err
			}
		case bytecode.OpMultiply:
			if err := vm.binaryNumeric(func(a, b float64) bytecode.Value { return bytecode.Number(a * b) }); err != nil {
				return err
			}
		case bytecode.OpDivide:
			if err := vm.binaryNumeric(func(a, b float64) bytecode.Value { return bytecode.Number(a / b) }); err != nil {
				return err
			}

		case bytecode.OpNot:
			vm.push(bytecode.Bool(!vm.pop().Truthy()))
		case bytecode.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(bytecode.Number(-vm.pop().Number))

		case bytecode.OpPrint:
			fmt.Fprintln(vm.stdout, vm.pop().String())

		case bytecode.OpJump:
			offset := readShort()
			frame.ip += offset
		case bytecode.OpJumpIfFalse:
			offset := readShort()
			if !vm.peek(0).Truthy() {
				frame.ip += offset
			}
		case bytecode.OpLoop:
			offset := readShort()
			frame.ip -= offset

		case bytecode.OpCall:
			argCount := int(readByte())
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpInvoke:
			method := readString()
			argCount := int(readByte())
			if err := vm.invoke(method, argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpSuperInvoke:
			method := readString()
			argCount := int(readByte())
			superclass := vm.pop().AsClass()
			if err := vm.invokeFromClass(superclass, method, argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpClosure:
			fn := readConstant().AsFunction()
			closure := vm.newClosure(fn)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := readByte()
				index := readByte()
				if isLocal == 1 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.slots + int(index))
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
			vm.push(bytecode.ObjVal(vm.wrapClosure(closure)))

		case bytecode.OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case bytecode.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.slots)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.stackTop = frame.slots
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpClass:
			name := readString()
			vm.push(bytecode.ObjVal(vm.wrapClass(&bytecode.ObjClass{Name: name})))

		case bytecode.OpInherit:
			superVal := vm.peek(1)
			if !superVal.IsClass() {
				return vm.runtimeError("Superclass must be a class.")
			}
			subclass := vm.peek(0).AsClass()
			subclass.Methods.AddAll(&superVal.AsClass().Methods)
			vm.pop()

		case bytecode.OpMethod:
			name := readString()
			vm.defineMethod(name)

		default:
			return vm.runtimeError("Unknown opcode %d.", op)
		}
	}
}

func (vm *VM) binaryNumeric(f func(a, b float64) bytecode.Value) *RuntimeError {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := vm.pop().Number
	a := vm.pop().Number
	vm.push(f(a, b))
	return nil
}

func (vm *VM) add() *RuntimeError {
	switch {
	case vm.peek(0).IsString() && vm.peek(1).IsString():
		b := vm.pop().AsString()
		a := vm.pop().AsString()
		vm.push(bytecode.ObjVal(vm.wrapString(vm.InternString(a.Chars + b.Chars))))
	case vm.peek(0).IsNumber() && vm.peek(1).IsNumber():
		b := vm.pop().Number
		a := vm.pop().Number
		vm.push(bytecode.Number(a + b))
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
	return nil
}

func (vm *VM) wrapString(s *bytecode.ObjString) *bytecode.Obj {
	if s.Owner() != nil {
		return s.Owner()
	}
	return vm.allocate(bytecode.ObjTypeString, s)
}

// --- calling ------------------------------------------------------------

func (vm *VM) callValue(callee bytecode.Value, argCount int) *RuntimeError {
	if callee.IsObj() {
		switch callee.Obj.Type {
		case bytecode.ObjTypeClosure:
			return vm.callClosure(callee.AsClosure(), argCount)
		case bytecode.ObjTypeNative:
			native := callee.AsNative()
			args := vm.stack[vm.stackTop-argCount : vm.stackTop]
			result := native.Fn(args)
			vm.stackTop -= argCount + 1
			vm.push(result)
			return nil
		case bytecode.ObjTypeClass:
			class := callee.AsClass()
			inst := &bytecode.ObjInstance{Class: class}
			vm.stack[vm.stackTop-argCount-1] = bytecode.ObjVal(vm.wrapInstance(inst))
			if init, ok := class.Methods.Get(vm.initString); ok {
				return vm.callClosure(init.AsClosure(), argCount)
			}
			if argCount != 0 {
				return vm.runtimeError("Expected 0 arguments but got %d.", argCount)
			}
			return nil
		case bytecode.ObjTypeBoundMethod:
			bound := callee.AsBoundMethod()
			vm.stack[vm.stackTop-argCount-1] = bound.Receiver
			return vm.callClosure(bound.Method, argCount)
		}
	}
	return vm.runtimeError("Can only call functions and classes.")
}

func (vm *VM) callClosure(closure *bytecode.ObjClosure, argCount int) *RuntimeError {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if vm.frameCount == framesMax {
		return vm.runtimeError("Stack overflow.")
	}
	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.slots = vm.stackTop - argCount - 1
	return nil
}

func (vm *VM) invoke(name *bytecode.ObjString, argCount int) *RuntimeError {
	receiver := vm.peek(argCount)
	if !receiver.IsInstance() {
		return vm.runtimeError("Only instances have methods.")
	}
	inst := receiver.AsInstance()
	if v, ok := inst.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argCount-1] = v
		return vm.callValue(v, argCount)
	}
	return vm.invokeFromClass(inst.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *bytecode.ObjClass, name *bytecode.ObjString, argCount int) *RuntimeError {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return vm.callClosure(method.AsClosure(), argCount)
}

func (vm *VM) bindMethod(class *bytecode.ObjClass, name *bytecode.ObjString) bool {
	method, ok := class.Methods.Get(name)
	if !ok {
		return false
	}
	bound := &bytecode.ObjBoundMethod{Receiver: vm.peek(0), Method: method.AsClosure()}
	vm.pop()
	vm.push(bytecode.ObjVal(vm.wrapBoundMethod(bound)))
	return true
}

func (vm *VM) defineMethod(name *bytecode.ObjString) {
	method := vm.peek(0)
	class := vm.peek(1).AsClass()
	class.Methods.Set(name, method)
	vm.pop()
}

// --- upvalues -------------------------------------------------------------

// captureUpvalue returns an open upvalue pointing at stack index,
// reusing an existing one if this exact slot is already captured.
// vm.openUpvalues is kept sorted by descending stack index so the
// search and the later close-above-a-boundary sweep can both stop
// early.
func (vm *VM) captureUpvalue(slotIndex int) *bytecode.Upvalue {
	var prev *bytecode.Upvalue
	cur := vm.openUpvalues
	for cur != nil && cur.SlotIndex > slotIndex {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.SlotIndex == slotIndex {
		return cur
	}
	created := &bytecode.Upvalue{Location: &vm.stack[slotIndex], SlotIndex: slotIndex}
	created.Next = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

func (vm *VM) closeUpvalues(fromSlot int) {
	for vm.openUpvalues != nil && vm.openUpvalues.SlotIndex >= fromSlot {
		u := vm.openUpvalues
		u.Closed = *u.Location
		u.Location = &u.Closed
		vm.openUpvalues = u.Next
	}
}

// --- debug trace ---------------------------------------------------------

func (vm *VM) traceInstruction(frame *callFrame) {
	fmt.Fprint(vm.stderr, "          ")
	for i := 0; i < vm.stackTop; i++ {
		fmt.Fprintf(vm.stderr, "[ %s ]", vm.stack[i].String())
	}
	fmt.Fprintln(vm.stderr)
	debug.DisassembleInstruction(vm.stderr, &frame.closure.Function.Chunk, frame.ip)
}
