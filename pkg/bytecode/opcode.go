// Package bytecode defines the data the rest of the virtual machine is
// built around: the tagged Value type, the heap object variants, the
// open-addressed Table used for globals/fields/interning, the Chunk a
// function compiles into, and the Opcode set the VM dispatches on.
//
// These five concerns share one package (rather than five) because in a
// tagged-union bytecode VM they are mutually recursive: a Chunk's constant
// pool holds Values, a Value may reference an Obj, an ObjFunction owns a
// Chunk, and a Table's Value slots hold arbitrary Values too. Splitting
// them across packages would require them to import each other in a
// cycle; Go resolves that the way C resolves it with forward-declared
// structs in a shared header — by keeping the mutually dependent types
// in one translation unit.
package bytecode

// Opcode identifies a single bytecode instruction. Opcodes are one byte,
// keeping instructions compact and dispatch a plain switch on a byte.
type Opcode byte

// The full instruction set. Operands are documented on each constant;
// multi-byte operands are big-endian and read directly out of the code
// stream by the VM (see vm.readShort).
const (
	OpConstant     Opcode = iota // const-idx:1 -- push constants[idx]
	OpNil                        // push nil
	OpTrue                       // push true
	OpFalse                      // push false
	OpPop                        // pop 1
	OpGetLocal                   // slot:1 -- push frame.slots[slot]
	OpSetLocal                   // slot:1 -- frame.slots[slot] = peek(0)
	OpGetGlobal                  // name-const:1 -- push globals[name] or runtime error
	OpDefineGlobal               // name-const:1 -- globals[name] = pop()
	OpSetGlobal                  // name-const:1 -- runtime error if absent
	OpGetUpvalue                 // slot:1 -- via closure.Upvalues[slot]
	OpSetUpvalue                 // slot:1
	OpGetProperty                // name-const:1 -- field read, falls through to method bind
	OpSetProperty                // name-const:1
	OpGetSuper                   // name-const:1 -- bind method from explicit superclass
	OpEqual                      // pop 2, push bool
	OpGreater                    // pop 2, push bool
	OpLess                       // pop 2, push bool
	OpAdd                        // numbers sum, strings concat, else runtime error
	OpSubtract
	OpMultiply
	OpDivide
	OpNot    // push !isFalsey(pop())
	OpNegate // numeric negation
	OpPrint  // pop, print
	OpJump        // offset:2 -- ip += offset
	OpJumpIfFalse // offset:2 -- non-popping; ip += offset if falsey(peek(0))
	OpLoop        // offset:2 -- ip -= offset
	OpCall        // argc:1
	OpInvoke      // name-const:1, argc:1 -- fused get+call on an instance
	OpSuperInvoke // name-const:1, argc:1 -- fused super-get+call
	OpClosure     // fn-const:1, then upvalueCount * (isLocal:1, index:1)
	OpCloseUpvalue
	OpReturn
	OpClass        // name-const:1
	OpInherit      // copy methods peek(1)->peek(0), pop top (subclass ref)
	OpMethod       // name-const:1 -- attach top (closure) to peek(1) (class)
)

// String renders an opcode mnemonic for disassembly and trace output.
func (op Opcode) String() string {
	switch op {
	case OpConstant:
		return "OP_CONSTANT"
	case OpNil:
		return "OP_NIL"
	case OpTrue:
		return "OP_TRUE"
	case OpFalse:
		return "OP_FALSE"
	case OpPop:
		return "OP_POP"
	case OpGetLocal:
		return "OP_GET_LOCAL"
	case OpSetLocal:
		return "OP_SET_LOCAL"
	case OpGetGlobal:
		return "OP_GET_GLOBAL"
	case OpDefineGlobal:
		return "OP_DEFINE_GLOBAL"
	case OpSetGlobal:
		return "OP_SET_GLOBAL"
	case OpGetUpvalue:
		return "OP_GET_UPVALUE"
	case OpSetUpvalue:
		return "OP_SET_UPVALUE"
	case OpGetProperty:
		return "OP_GET_PROPERTY"
	case OpSetProperty:
		return "OP_SET_PROPERTY"
	case OpGetSuper:
		return "OP_GET_SUPER"
	case OpEqual:
		return "OP_EQUAL"
	case OpGreater:
		return "OP_GREATER"
	case OpLess:
		return "OP_LESS"
	case OpAdd:
		return "OP_ADD"
	case OpSubtract:
		return "OP_SUBTRACT"
	case OpMultiply:
		return "OP_MULTIPLY"
	case OpDivide:
		return "OP_DIVIDE"
	case OpNot:
		return "OP_NOT"
	case OpNegate:
		return "OP_NEGATE"
	case OpPrint:
		return "OP_PRINT"
	case OpJump:
		return "OP_JUMP"
	case OpJumpIfFalse:
		return "OP_JUMP_IF_FALSE"
	case OpLoop:
		return "OP_LOOP"
	case OpCall:
		return "OP_CALL"
	case OpInvoke:
		return "OP_INVOKE"
	case OpSuperInvoke:
		return "OP_SUPER_INVOKE"
	case OpClosure:
		return "OP_CLOSURE"
	case OpCloseUpvalue:
		return "OP_CLOSE_UPVALUE"
	case OpReturn:
		return "OP_RETURN"
	case OpClass:
		return "OP_CLASS"
	case OpInherit:
		return "OP_INHERIT"
	case OpMethod:
		return "OP_METHOD"
	default:
		return "OP_UNKNOWN"
	}
}
