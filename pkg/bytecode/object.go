package bytecode

import "strings"

// ObjType tags which concrete variant an Obj carries in Data.
type ObjType byte

const (
	ObjTypeString ObjType = iota
	ObjTypeFunction
	ObjTypeNative
	ObjTypeClosure
	ObjTypeClass
	ObjTypeInstance
	ObjTypeBoundMethod
)

// Obj is the header every heap-allocated value shares: a type tag, the
// GC mark bit, an intrusive next-pointer threading every live object
// into one list (so the collector can sweep without a side table), and
// the variant payload itself. Inside the VM, every Obj is created by
// VM.allocate (see vm/gc.go's Heap implementation), which links new
// objects into its object list as it creates them.
type Obj struct {
	Type   ObjType
	Marked bool
	Next   *Obj
	Data   interface{}
}

// String renders an object's display form, used by Value.String and by
// the `+` operator's string-concatenation path.
func (o *Obj) String() string {
	switch o.Type {
	case ObjTypeString:
		return o.Data.(*ObjString).Chars
	case ObjTypeFunction:
		fn := o.Data.(*ObjFunction)
		if fn.Name == nil {
			return "<script>"
		}
		return "<fn " + fn.Name.Chars + ">"
	case ObjTypeNative:
		return "<native fn>"
	case ObjTypeClosure:
		return o.Data.(*ObjClosure).Function.Obj.String()
	case ObjTypeClass:
		return o.Data.(*ObjClass).Name.Chars
	case ObjTypeInstance:
		return o.Data.(*ObjInstance).Class.Name.Chars + " instance"
	case ObjTypeBoundMethod:
		return o.Data.(*ObjBoundMethod).Method.Function.Obj.String()
	default:
		return "<obj>"
	}
}

// ObjString is an interned, immutable Go string plus its precomputed
// hash, so the intern table never rehashes on lookup.
type ObjString struct {
	Chars string
	Hash  uint32
	owner *Obj // the Obj header wrapping this string, for GC mark lookups
}

// Owner returns the Obj header wrapping this string, or nil if it was
// never wrapped (for example a function name read back by Decode).
func (s *ObjString) Owner() *Obj { return s.owner }

// SetOwner records the Obj header wrapping this string. Called once,
// immediately after VM.allocate creates that header.
func (s *ObjString) SetOwner(o *Obj) { s.owner = o }

// HashString is FNV-1a over raw bytes, matching the hash every string
// constant and every interned runtime string is keyed by.
func HashString(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

// ObjFunction is a compiled function body: its arity, the upvalue count
// its closures must allocate, the bytecode chunk, and an optional name
// (nil for the top-level script function).
type ObjFunction struct {
	Arity        int
	UpvalueCount int
	Chunk        Chunk
	Name         *ObjString
	Obj          *Obj // back-reference so Obj.String can render "<fn name>"
}

// NativeFn is the signature every built-in function implements.
// args is the slice of arguments VM.callValue passed; the native returns
// its result value. Natives have no error channel: they always
// succeed with some Value.
type NativeFn func(args []Value) Value

// ObjNative wraps a Go function exposed to Lox code as a callable.
type ObjNative struct {
	Name string
	Fn   NativeFn
}

// Upvalue is a single captured-variable cell. Location points either
// into a live call frame's slot (while open) or at Closed (once the
// variable's frame has returned and the value was hoisted out).
type Upvalue struct {
	Location  *Value
	Closed    Value
	SlotIndex int // stack slot Location points into, while open
	Next      *Upvalue // intrusive link in the VM's open-upvalue list
}

// ObjClosure pairs a compiled function with the upvalues it captured
// at the point its CLOSURE instruction ran.
type ObjClosure struct {
	Function *ObjFunction
	Upvalues []*Upvalue
}

// ObjClass is a runtime class: its name and its method table, keyed by
// interned method-name string and holding ObjClosure values.
type ObjClass struct {
	Name    *ObjString
	Methods Table
	Obj     *Obj // back-reference to the Obj header wrapping this class
}

// ObjInstance is an instance of a class: the class it was constructed
// from and its field table, keyed by interned field-name string.
type ObjInstance struct {
	Class  *ObjClass
	Fields Table
}

// ObjBoundMethod pairs a receiver with a method closure looked up off
// it, produced by GET_PROPERTY when the property name resolves to a
// method rather than a field.
type ObjBoundMethod struct {
	Receiver Value
	Method   *ObjClosure
}

// FunctionSignature renders a function's name for stack traces and
// disassembly headers, matching clox's distinction between the
// implicit top-level script frame and named function frames.
func FunctionSignature(fn *ObjFunction) string {
	if fn.Name == nil {
		return "script"
	}
	var b strings.Builder
	b.WriteString(fn.Name.Chars)
	b.WriteString("()")
	return b.String()
}
