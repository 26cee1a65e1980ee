package vm

import (
	"testing"

	"github.com/kristofer/vela/pkg/bytecode"
)

// objectsContain reports whether target is still linked into vm.objects,
// the list collectGarbage's sweep walks and prunes.
func objectsContain(vm *VM, target *bytecode.Obj) bool {
	for o := vm.objects; o != nil; o = o.Next {
		if o == target {
			return true
		}
	}
	return false
}

func TestCollectGarbageFreesUnreachableObjectsAndKeepsRootedOnes(t *testing.T) {
	vm := New()

	kept := vm.InternString("kept")
	vm.push(bytecode.ObjVal(vm.wrapString(kept)))

	orphan := &bytecode.ObjInstance{Class: &bytecode.ObjClass{Name: vm.InternString("Widget")}}
	orphanObj := vm.wrapInstance(orphan)

	if !objectsContain(vm, orphanObj) {
		t.Fatal("newly allocated instance should be on the object list before collection")
	}

	vm.collectGarbage()

	if objectsContain(vm, orphanObj) {
		t.Error("collectGarbage left an object alive with no reachable root")
	}
	if !objectsContain(vm, kept.Owner()) {
		t.Error("collectGarbage freed a string still referenced from the value stack")
	}

	vm.pop()
}

func TestCollectGarbageKeepsClosureAndItsClosedUpvalueAlive(t *testing.T) {
	vm := New()

	fn := vm.NewFunction()
	fn.Name = vm.InternString("counter")
	fn.UpvalueCount = 1

	vm.push(bytecode.Number(41))
	up := vm.captureUpvalue(vm.stackTop - 1)
	vm.closeUpvalues(vm.stackTop - 1)
	vm.pop()

	closure := vm.newClosure(fn)
	closure.Upvalues[0] = up
	closureObj := vm.wrapClosure(closure)
	vm.push(bytecode.ObjVal(closureObj))

	vm.collectGarbage()

	if !objectsContain(vm, closureObj) {
		t.Fatal("a closure referenced from the stack should survive collection")
	}
	if !objectsContain(vm, fn.Obj) {
		t.Error("a reachable closure's function should survive collection")
	}
	if up.Location != &up.Closed || up.Closed.Number != 41 {
		t.Error("a reachable closure's closed-over upvalue should survive collection unchanged")
	}

	vm.pop()
}

func TestCollectGarbageDropsUnmarkedInternedStrings(t *testing.T) {
	vm := New()

	vm.InternString("throwaway")
	hash := bytecode.HashString("throwaway")

	if found := vm.strings.FindString("throwaway", hash); found == nil {
		t.Fatal("InternString should have registered the string in the intern table")
	}

	vm.collectGarbage()

	if found := vm.strings.FindString("throwaway", hash); found != nil {
		t.Error("collectGarbage should drop an interned string nothing references anymore")
	}
}
