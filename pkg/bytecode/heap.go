package bytecode

// Heap is the allocation surface the compiler needs from the VM
// without importing it: interning strings (so two equal literals
// become one object), allocating function objects, and letting the
// collector account for bytes the compiler causes to be allocated.
// vm.VM implements Heap; compiler.Compile accepts one as a parameter,
// which keeps package compiler free of any import on package vm while
// still letting compilation and execution share one object graph and
// one intern table.
type Heap interface {
	InternString(chars string) *ObjString
	NewFunction() *ObjFunction
	TrackBytes(n int)
}

// RootRegistrar lets the compiler register its in-progress function
// objects as GC roots for the duration of compilation. A nested
// function literal allocates before its enclosing function has finished
// compiling and been stored anywhere the collector would otherwise find
// it, so the compiler pushes/pops each function object it is currently
// building onto this stack.
type RootRegistrar interface {
	PushCompilerRoot(fn *ObjFunction)
	PopCompilerRoot()
}
