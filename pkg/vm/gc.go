package vm

import "github.com/kristofer/vela/pkg/bytecode"

// DebugLogGC is a build-time debug switch that no code in this package
// reads; setting it prints nothing and changes no behavior.
const DebugLogGC = false

const gcHeapGrowFactor = 2

// allocate wraps data in a fresh Obj, links it at the head of the
// VM's object list, and charges its size against bytesAllocated. This
// is the single path every heap object is created through, so the
// collector's sweep can walk vm.objects and find everything the
// program has ever allocated.
func (vm *VM) allocate(t bytecode.ObjType, data interface{}) *bytecode.Obj {
	if DebugStressGC {
		vm.collectGarbage()
	} else if vm.bytesAllocated > vm.nextGC {
		vm.collectGarbage()
	}
	obj := &bytecode.Obj{Type: t, Data: data, Next: vm.objects}
	vm.objects = obj
	vm.bytesAllocated += objSize(t)
	return obj
}

func objSize(t bytecode.ObjType) int {
	// Rough per-kind sizes; exactness doesn't matter, only that the
	// heap's apparent size grows with allocation so nextGC is reached.
	switch t {
	case bytecode.ObjTypeString:
		return 32
	case bytecode.ObjTypeFunction:
		return 96
	case bytecode.ObjTypeClosure:
		return 48
	case bytecode.ObjTypeClass, bytecode.ObjTypeInstance:
		return 64
	default:
		return 24
	}
}

// InternString implements bytecode.Heap. It returns the single
// canonical ObjString for chars, allocating and registering a new one
// only the first time chars is seen.
func (vm *VM) InternString(chars string) *bytecode.ObjString {
	hash := bytecode.HashString(chars)
	if existing := vm.strings.FindString(chars, hash); existing != nil {
		return existing
	}
	s := &bytecode.ObjString{Chars: chars, Hash: hash}
	obj := vm.allocate(bytecode.ObjTypeString, s)
	s.SetOwner(obj)
	vm.strings.Set(s, bytecode.Nil)
	return s
}

// NewFunction implements bytecode.Heap, allocating an empty
// ObjFunction the compiler fills in as it compiles a function body.
func (vm *VM) NewFunction() *bytecode.ObjFunction {
	fn := &bytecode.ObjFunction{}
	obj := vm.allocate(bytecode.ObjTypeFunction, fn)
	fn.Obj = obj
	return fn
}

// TrackBytes implements bytecode.Heap, letting the compiler's constant
// pool growth count against the same heap-size heuristic object
// allocation does.
func (vm *VM) TrackBytes(n int) {
	vm.bytesAllocated += n
	if vm.bytesAllocated > vm.nextGC {
		vm.collectGarbage()
	}
}

// PushCompilerRoot and PopCompilerRoot implement bytecode.RootRegistrar.
func (vm *VM) PushCompilerRoot(fn *bytecode.ObjFunction) {
	vm.compilerRoots = append(vm.compilerRoots, fn)
}

func (vm *VM) PopCompilerRoot() {
	vm.compilerRoots = vm.compilerRoots[:len(vm.compilerRoots)-1]
}

func (vm *VM) defineNative(name string, fn bytecode.NativeFn) {
	nameStr := vm.InternString(name)
	native := &bytecode.ObjNative{Name: name, Fn: fn}
	obj := vm.allocate(bytecode.ObjTypeNative, native)
	vm.push(bytecode.ObjVal(obj))
	vm.globals.Set(nameStr, vm.peek(0))
	vm.pop()
}

// --- mark-sweep collection -------------------------------------------

// collectGarbage runs one full mark-sweep cycle: mark every root
// reachable object, blacken the gray worklist until it's empty, drop
// interned strings nothing marked (the intern table holds only weak
// references), sweep every unmarked object off vm.objects, then double
// nextGC against the surviving heap size.
func (vm *VM) collectGarbage() {
	vm.markRoots()
	vm.traceReferences()
	vm.strings.RemoveWhiteStrings()
	vm.sweep()
	vm.nextGC = vm.bytesAllocated * gcHeapGrowFactor
	if vm.nextGC < 1024*1024 {
		vm.nextGC = 1024 * 1024
	}
}

func (vm *VM) markRoots() {
	for i := 0; i < vm.stackTop; i++ {
		vm.markValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		vm.markObjectData(vm.frames[i].closure)
	}
	for u := vm.openUpvalues; u != nil; u = u.Next {
		vm.markValue(*u.Location)
	}
	vm.markTable(&vm.globals)
	for _, fn := range vm.compilerRoots {
		if fn.Obj != nil {
			vm.markObject(fn.Obj)
		}
	}
}

func (vm *VM) markValue(v bytecode.Value) {
	if v.IsObj() {
		vm.markObject(v.Obj)
	}
}

// markObjectData marks what a closure payload references: its
// function's Obj and the values its upvalues point at. It does not mark
// the closure's own Obj wrapper, since an ObjClosure has no
// back-pointer to it; callers holding the wrapper use markObject.
func (vm *VM) markObjectData(c *bytecode.ObjClosure) {
	if c == nil {
		return
	}
	// Closures are reached from the value stack / frame list as
	// Values already, so this only needs to reach the function and
	// upvalues a frame's closure doesn't otherwise expose as a Value.
	if c.Function != nil && c.Function.Obj != nil {
		vm.markObject(c.Function.Obj)
	}
	for _, u := range c.Upvalues {
		if u != nil {
			vm.markValue(*u.Location)
		}
	}
}

func (vm *VM) markObject(o *bytecode.Obj) {
	if o == nil || o.Marked {
		return
	}
	o.Marked = true
	vm.grayStack = append(vm.grayStack, o)
}

func (vm *VM) markTable(t *bytecode.Table) {
	t.Walk(func(key *bytecode.ObjString, value bytecode.Value) {
		if key.Owner() != nil {
			vm.markObject(key.Owner())
		}
		vm.markValue(value)
	})
}

func (vm *VM) traceReferences() {
	for len(vm.grayStack) > 0 {
		o := vm.grayStack[len(vm.grayStack)-1]
		vm.grayStack = vm.grayStack[:len(vm.grayStack)-1]
		vm.blacken(o)
	}
}

func (vm *VM) blacken(o *bytecode.Obj) {
	switch o.Type {
	case bytecode.ObjTypeFunction:
		fn := o.Data.(*bytecode.ObjFunction)
		if fn.Name != nil && fn.Name.Owner() != nil {
			vm.markObject(fn.Name.Owner())
		}
		for _, c := range fn.Chunk.Constants {
			vm.markValue(c)
		}
	case bytecode.ObjTypeClosure:
		vm.markObjectData(o.Data.(*bytecode.ObjClosure))
	case bytecode.ObjTypeClass:
		class := o.Data.(*bytecode.ObjClass)
		if class.Name.Owner() != nil {
			vm.markObject(class.Name.Owner())
		}
		vm.markTable(&class.Methods)
	case bytecode.ObjTypeInstance:
		inst := o.Data.(*bytecode.ObjInstance)
		if inst.Class != nil && inst.Class.Obj != nil {
			vm.markObject(inst.Class.Obj)
		}
		vm.markTable(&inst.Fields)
	case bytecode.ObjTypeBoundMethod:
		bound := o.Data.(*bytecode.ObjBoundMethod)
		vm.markValue(bound.Receiver)
		if bound.Method.Function.Obj != nil {
			vm.markObject(bound.Method.Function.Obj)
		}
		for _, u := range bound.Method.Upvalues {
			if u != nil {
				vm.markValue(*u.Location)
			}
		}
	}
}

func (vm *VM) sweep() {
	var prev *bytecode.Obj
	obj := vm.objects
	for obj != nil {
		if obj.Marked {
			obj.Marked = false
			prev = obj
			obj = obj.Next
			continue
		}
		unreached := obj
		obj = obj.Next
		if prev == nil {
			vm.objects = obj
		} else {
			prev.Next = obj
		}
		vm.bytesAllocated -= objSize(unreached.Type)
		freeObject(unreached)
	}
}

func freeObject(o *bytecode.Obj) {
	// Go's GC reclaims the memory once nothing references o; this
	// exists as the hook clox's freeObject occupies, in case a future
	// object kind needs explicit teardown (an open file handle, say).
	_ = o
}
