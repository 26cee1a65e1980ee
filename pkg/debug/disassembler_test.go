package debug_test

import (
	"strings"
	"testing"

	"github.com/kristofer/vela/pkg/bytecode"
	"github.com/kristofer/vela/pkg/debug"
)

func TestFprintChunkConstant(t *testing.T) {
	var c bytecode.Chunk
	idx := c.AddConstant(bytecode.Number(42))
	c.WriteOp(bytecode.OpConstant, 1)
	c.Write(byte(idx), 1)
	c.WriteOp(bytecode.OpReturn, 1)

	var out strings.Builder
	debug.FprintChunk(&out, &c, "test")

	text := out.String()
	if !strings.Contains(text, "== test ==") {
		t.Errorf("missing header: %q", text)
	}
	if !strings.Contains(text, "OP_CONSTANT") {
		t.Errorf("missing OP_CONSTANT: %q", text)
	}
	if !strings.Contains(text, "42") {
		t.Errorf("missing constant value: %q", text)
	}
	if !strings.Contains(text, "OP_RETURN") {
		t.Errorf("missing OP_RETURN: %q", text)
	}
}

func TestDisassembleInstructionReturnsNextOffset(t *testing.T) {
	var c bytecode.Chunk
	c.WriteOp(bytecode.OpNil, 3)
	c.WriteOp(bytecode.OpReturn, 3)

	var out strings.Builder
	next := debug.DisassembleInstruction(&out, &c, 0)
	if next != 1 {
		t.Errorf("offset after a zero-operand instruction = %d, want 1", next)
	}
	next = debug.DisassembleInstruction(&out, &c, next)
	if next != 2 {
		t.Errorf("offset after OP_RETURN = %d, want 2", next)
	}
}

func TestJumpInstructionShowsTarget(t *testing.T) {
	var c bytecode.Chunk
	c.WriteOp(bytecode.OpJump, 1)
	c.Write(0, 1)
	c.Write(2, 1) // jump forward 2 past the 3-byte instruction
	c.WriteOp(bytecode.OpNil, 1)
	c.WriteOp(bytecode.OpNil, 1)

	var out strings.Builder
	debug.DisassembleInstruction(&out, &c, 0)
	if !strings.Contains(out.String(), "-> 5") {
		t.Errorf("jump target missing or wrong: %q", out.String())
	}
}

func TestClosureInstructionListsUpvalues(t *testing.T) {
	var outer bytecode.Chunk
	inner := &bytecode.ObjFunction{UpvalueCount: 1}
	inner.Obj = &bytecode.Obj{Type: bytecode.ObjTypeFunction, Data: inner}
	idx := outer.AddConstant(bytecode.ObjVal(inner.Obj))

	outer.WriteOp(bytecode.OpClosure, 1)
	outer.Write(byte(idx), 1)
	outer.Write(1, 1) // isLocal = true
	outer.Write(0, 1) // captured slot 0

	var out strings.Builder
	debug.FprintChunk(&out, &outer, "closure")
	text := out.String()
	if !strings.Contains(text, "OP_CLOSURE") {
		t.Errorf("missing OP_CLOSURE: %q", text)
	}
	if !strings.Contains(text, "local 0") {
		t.Errorf("missing upvalue descriptor line: %q", text)
	}
}
