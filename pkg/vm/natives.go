package vm

import (
	"time"

	"github.com/kristofer/vela/pkg/bytecode"
)

// nativeClock returns seconds elapsed since the Unix epoch as a
// float64, matching clox's clock()/CLOCKS_PER_SEC native closely
// enough for benchmark scripts that only care about elapsed deltas.
func nativeClock(args []bytecode.Value) bytecode.Value {
	return bytecode.Number(float64(time.Now().UnixNano()) / 1e9)
}

// strNative builds the "str" native bound to vm, so it can intern its
// result the same way every other string in the program is interned.
// Supplements the core native surface (spec names only clock) with a
// way for scripts and tests to turn a value into a string without
// relying on capturing print's stdout.
func (vm *VM) strNative(args []bytecode.Value) bytecode.Value {
	if len(args) == 0 {
		return bytecode.Nil
	}
	s := vm.InternString(args[0].String())
	return bytecode.ObjVal(vm.wrapString(s))
}
