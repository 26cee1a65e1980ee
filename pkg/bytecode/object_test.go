package bytecode

import "testing"

func TestFunctionSignature(t *testing.T) {
	script := &ObjFunction{}
	if got := FunctionSignature(script); got != "script" {
		t.Errorf("script signature = %q, want %q", got, "script")
	}
	named := &ObjFunction{Name: &ObjString{Chars: "greet"}}
	if got := FunctionSignature(named); got != "greet()" {
		t.Errorf("named signature = %q, want %q", got, "greet()")
	}
}

func TestObjStringDisplay(t *testing.T) {
	fn := &ObjFunction{Name: &ObjString{Chars: "add"}}
	wrapper := &Obj{Type: ObjTypeFunction, Data: fn}
	fn.Obj = wrapper
	if got := wrapper.String(); got != "<fn add>" {
		t.Errorf("function display = %q", got)
	}

	script := &ObjFunction{}
	scriptWrapper := &Obj{Type: ObjTypeFunction, Data: script}
	if got := scriptWrapper.String(); got != "<script>" {
		t.Errorf("script display = %q", got)
	}

	class := &ObjClass{Name: &ObjString{Chars: "Cat"}}
	classWrapper := &Obj{Type: ObjTypeClass, Data: class}
	if got := classWrapper.String(); got != "Cat" {
		t.Errorf("class display = %q", got)
	}

	inst := &ObjInstance{Class: class}
	instWrapper := &Obj{Type: ObjTypeInstance, Data: inst}
	if got := instWrapper.String(); got != "Cat instance" {
		t.Errorf("instance display = %q", got)
	}
}

func TestHashStringIsDeterministic(t *testing.T) {
	if HashString("abc") != HashString("abc") {
		t.Error("HashString should be deterministic for the same input")
	}
	if HashString("abc") == HashString("abd") {
		t.Error("different strings hashing to the same value (unlucky but worth flagging)")
	}
}
