package bytecode

import (
	"fmt"
	"math"
	"strconv"
)

// ValueType tags the payload a Value carries. Values are a small tagged
// union rather than an interface{} so that copying a Value (pushing it
// onto the stack, storing it in a slot) never allocates.
type ValueType byte

const (
	ValNil ValueType = iota
	ValBool
	ValNumber
	ValObj
)

// Value is every runtime datum the VM manipulates: nil, a bool, a
// float64 number, or a pointer to a heap Obj (string, function,
// closure, class, instance, bound method, native).
type Value struct {
	Type   ValueType
	Bool   bool
	Number float64
	Obj    *Obj
}

// Nil is the canonical nil value.
var Nil = Value{Type: ValNil}

// Bool constructs a boolean Value.
func Bool(b bool) Value { return Value{Type: ValBool, Bool: b} }

// Number constructs a numeric Value.
func Number(n float64) Value { return Value{Type: ValNumber, Number: n} }

// ObjVal wraps a heap object as a Value.
func ObjVal(o *Obj) Value { return Value{Type: ValObj, Obj: o} }

func (v Value) IsNil() bool    { return v.Type == ValNil }
func (v Value) IsBool() bool   { return v.Type == ValBool }
func (v Value) IsNumber() bool { return v.Type == ValNumber }
func (v Value) IsObj() bool    { return v.Type == ValObj }

func (v Value) IsObjType(t ObjType) bool {
	return v.Type == ValObj && v.Obj.Type == t
}

func (v Value) IsString() bool   { return v.IsObjType(ObjTypeString) }
func (v Value) IsFunction() bool { return v.IsObjType(ObjTypeFunction) }
func (v Value) IsClosure() bool  { return v.IsObjType(ObjTypeClosure) }
func (v Value) IsClass() bool    { return v.IsObjType(ObjTypeClass) }
func (v Value) IsInstance() bool { return v.IsObjType(ObjTypeInstance) }
func (v Value) IsNative() bool   { return v.IsObjType(ObjTypeNative) }
func (v Value) IsBoundMethod() bool { return v.IsObjType(ObjTypeBoundMethod) }

func (v Value) AsString() *ObjString           { return v.Obj.Data.(*ObjString) }
func (v Value) AsFunction() *ObjFunction       { return v.Obj.Data.(*ObjFunction) }
func (v Value) AsClosure() *ObjClosure         { return v.Obj.Data.(*ObjClosure) }
func (v Value) AsClass() *ObjClass             { return v.Obj.Data.(*ObjClass) }
func (v Value) AsInstance() *ObjInstance       { return v.Obj.Data.(*ObjInstance) }
func (v Value) AsNative() *ObjNative           { return v.Obj.Data.(*ObjNative) }
func (v Value) AsBoundMethod() *ObjBoundMethod { return v.Obj.Data.(*ObjBoundMethod) }

// Truthy implements Lox's falsiness rule: nil and false are falsey,
// everything else (including 0 and "") is truthy.
func (v Value) Truthy() bool {
	switch v.Type {
	case ValNil:
		return false
	case ValBool:
		return v.Bool
	default:
		return true
	}
}

// Equal implements value equality. Numbers compare by IEEE-754 bit
// value (so NaN != NaN, matching Go's == on float64). Strings compare
// by pointer because they are interned: two equal strings are always
// the same object. Other heap objects compare by identity.
func (a Value) Equal(b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case ValNil:
		return true
	case ValBool:
		return a.Bool == b.Bool
	case ValNumber:
		return a.Number == b.Number
	case ValObj:
		return a.Obj == b.Obj
	default:
		return false
	}
}

// String renders a Value the way `print` and the REPL do.
func (v Value) String() string {
	switch v.Type {
	case ValNil:
		return "nil"
	case ValBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ValNumber:
		return formatNumber(v.Number)
	case ValObj:
		return v.Obj.String()
	default:
		return "<invalid value>"
	}
}

func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	if math.IsNaN(n) {
		return "nan"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return fmt.Sprintf("%g", n)
}
