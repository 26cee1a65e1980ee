package bytecode

import (
	"math"
	"testing"
)

func TestTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"nil", Nil, false},
		{"false", Bool(false), false},
		{"true", Bool(true), true},
		{"zero", Number(0), true},
		{"negative", Number(-1), true},
	}
	for _, c := range cases {
		if got := c.v.Truthy(); got != c.want {
			t.Errorf("%s: Truthy() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestEqualNumbers(t *testing.T) {
	if !Number(1).Equal(Number(1)) {
		t.Error("1 should equal 1")
	}
	if Number(1).Equal(Number(2)) {
		t.Error("1 should not equal 2")
	}
	nan := Number(math.NaN())
	if nan.Equal(nan) {
		t.Error("NaN should not equal itself")
	}
}

func TestEqualDifferentTypes(t *testing.T) {
	if Nil.Equal(Bool(false)) {
		t.Error("nil should not equal false")
	}
	if Bool(false).Equal(Number(0)) {
		t.Error("false should not equal 0")
	}
}

func TestEqualObjIdentity(t *testing.T) {
	a := &Obj{Type: ObjTypeString, Data: &ObjString{Chars: "hi"}}
	b := &Obj{Type: ObjTypeString, Data: &ObjString{Chars: "hi"}}
	if !ObjVal(a).Equal(ObjVal(a)) {
		t.Error("an object should equal itself")
	}
	if ObjVal(a).Equal(ObjVal(b)) {
		t.Error("two distinct, non-interned wrappers with equal contents must not compare equal")
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		n    float64
		want string
	}{
		{3, "3"},
		{3.5, "3.5"},
		{-0.5, "-0.5"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), "nan"},
	}
	for _, c := range cases {
		if got := formatNumber(c.n); got != c.want {
			t.Errorf("formatNumber(%v) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestValueStringDispatchesToObj(t *testing.T) {
	s := &ObjString{Chars: "hello"}
	wrapper := &Obj{Type: ObjTypeString, Data: s}
	s.SetOwner(wrapper)
	v := ObjVal(wrapper)
	if got := v.String(); got != "hello" {
		t.Errorf("String() = %q, want %q", got, "hello")
	}
	if v.AsString() != s {
		t.Error("AsString should return the same ObjString pointer")
	}
}
