// Package debug prints a Chunk's instructions in human-readable form,
// one formatter per opcode's operand shape: none, a single byte index,
// a two-byte jump offset, or the paired operands OP_INVOKE and
// OP_CLOSURE need.
package debug

import (
	"fmt"
	"io"
	"os"

	"github.com/kristofer/vela/pkg/bytecode"
)

// DisassembleChunk prints every instruction in chunk, with name used
// as a header, to stdout.
func DisassembleChunk(chunk *bytecode.Chunk, name string) {
	FprintChunk(os.Stdout, chunk, name)
}

// FprintChunk is DisassembleChunk with an explicit writer, used by
// tests that want to assert on disassembly output.
func FprintChunk(w io.Writer, chunk *bytecode.Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		offset = disassembleInstruction(w, chunk, offset)
	}
}

// DisassembleInstruction prints the single instruction at offset and
// returns the offset of the instruction following it, letting the VM's
// execution tracer print one line per dispatch without re-deriving the
// opcode table's operand widths itself.
func DisassembleInstruction(w io.Writer, chunk *bytecode.Chunk, offset int) int {
	return disassembleInstruction(w, chunk, offset)
}

func disassembleInstruction(w io.Writer, chunk *bytecode.Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", chunk.Lines[offset])
	}

	op := bytecode.Opcode(chunk.Code[offset])
	switch op {
	case bytecode.OpConstant, bytecode.OpGetGlobal, bytecode.OpDefineGlobal,
		bytecode.OpSetGlobal, bytecode.OpClass, bytecode.OpGetProperty,
		bytecode.OpSetProperty, bytecode.OpMethod, bytecode.OpGetSuper:
		return constantInstruction(w, op, chunk, offset)
	case bytecode.OpGetLocal, bytecode.OpSetLocal, bytecode.OpGetUpvalue,
		bytecode.OpSetUpvalue, bytecode.OpCall:
		return byteInstruction(w, op, chunk, offset)
	case bytecode.OpInvoke, bytecode.OpSuperInvoke:
		return invokeInstruction(w, op, chunk, offset)
	case bytecode.OpJump, bytecode.OpJumpIfFalse:
		return jumpInstruction(w, op, chunk, offset, 1)
	case bytecode.OpLoop:
		return jumpInstruction(w, op, chunk, offset, -1)
	case bytecode.OpClosure:
		return closureInstruction(w, chunk, offset)
	default:
		fmt.Fprintln(w, op.String())
		return offset + 1
	}
}

func constantInstruction(w io.Writer, op bytecode.Opcode, chunk *bytecode.Chunk, offset int) int {
	idx := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op, idx, chunk.Constants[idx].String())
	return offset + 2
}

func byteInstruction(w io.Writer, op bytecode.Opcode, chunk *bytecode.Chunk, offset int) int {
	slot := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d\n", op, slot)
	return offset + 2
}

func invokeInstruction(w io.Writer, op bytecode.Opcode, chunk *bytecode.Chunk, offset int) int {
	idx := chunk.Code[offset+1]
	argCount := chunk.Code[offset+2]
	fmt.Fprintf(w, "%-16s (%d args) %4d '%s'\n", op, argCount, idx, chunk.Constants[idx].String())
	return offset + 3
}

func jumpInstruction(w io.Writer, op bytecode.Opcode, chunk *bytecode.Chunk, offset, sign int) int {
	jump := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
	fmt.Fprintf(w, "%-16s %4d -> %d\n", op, offset, offset+3+sign*jump)
	return offset + 3
}

func closureInstruction(w io.Writer, chunk *bytecode.Chunk, offset int) int {
	offset++
	idx := chunk.Code[offset]
	offset++
	fmt.Fprintf(w, "%-16s %4d '%s'\n", bytecode.OpClosure, idx, chunk.Constants[idx].String())

	fn := chunk.Constants[idx].AsFunction()
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := chunk.Code[offset]
		offset++
		index := chunk.Code[offset]
		offset++
		kind := "upvalue"
		if isLocal == 1 {
			kind = "local"
		}
		fmt.Fprintf(w, "%04d      |                     %s %d\n", offset-2, kind, index)
	}
	return offset
}
