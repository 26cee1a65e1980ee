package compiler_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kristofer/vela/pkg/compiler"
	"github.com/kristofer/vela/pkg/vm"
)

func compileOK(t *testing.T, source string) bool {
	t.Helper()
	v := vm.New()
	var errBuf strings.Builder
	v.SetErrorOutput(&errBuf)
	_, ok := compiler.Compile(source, v, v)
	if !ok {
		t.Logf("compile errors for %q:\n%s", source, errBuf.String())
	}
	return ok
}

func TestCompileSimpleExpressions(t *testing.T) {
	sources := []string{
		`print 1 + 2 * 3;`,
		`var a = 1; a = a + 1; print a;`,
		`if (true) { print "yes"; } else { print "no"; }`,
		`for (var i = 0; i < 3; i = i + 1) { print i; }`,
		`fun f(a, b) { return a + b; } print f(1, 2);`,
		`class A {} class B < A {} print B;`,
		`class A { greet() { return "hi"; } } var a = A(); print a.greet();`,
		`class A { init(x) { this.x = x; } } var a = A(1); print a.x;`,
		`class A { m() { return 1; } } class B < A { m() { return super.m() + 1; } } print B().m();`,
	}
	for _, src := range sources {
		if !compileOK(t, src) {
			t.Errorf("expected %q to compile cleanly", src)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	cases := []string{
		`print 1 +;`,
		`{ var a = a; }`,
		`this;`,
		`super.m();`,
		`class A { m() { super.m(); } }`,
		`fun f() { return 1; } class A { init() { return 1; } }`,
		`1 = 2;`,
		`return 1;`,
		`{ var a = 1; var a = 2; }`,
		`class A < A {}`,
	}
	for _, src := range cases {
		if compileOK(t, src) {
			t.Errorf("expected %q to fail to compile", src)
		}
	}
}

func TestCompileTooManyLocals(t *testing.T) {
	var b strings.Builder
	b.WriteString("{\n")
	for i := 0; i < 257; i++ {
		fmt.Fprintf(&b, "var v%d = %d;\n", i, i)
	}
	b.WriteString("}\n")
	if compileOK(t, b.String()) {
		t.Error("expected more than 256 locals in one scope to fail to compile")
	}
}

func TestCompileTooManyArguments(t *testing.T) {
	var b strings.Builder
	b.WriteString("fun f() {}\nf(")
	for i := 0; i < 256; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("1")
	}
	b.WriteString(");\n")
	if compileOK(t, b.String()) {
		t.Error("expected more than 255 call arguments to fail to compile")
	}
}

func TestCompileAcceptsMaxArguments(t *testing.T) {
	var b strings.Builder
	b.WriteString("fun f() {}\nf(")
	for i := 0; i < 255; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("1")
	}
	b.WriteString(");\n")
	if !compileOK(t, b.String()) {
		t.Error("expected exactly 255 call arguments to compile")
	}
}

func TestPanicModeRecoversAtNextStatement(t *testing.T) {
	v := vm.New()
	var errBuf strings.Builder
	v.SetErrorOutput(&errBuf)
	// The first statement is malformed; synchronize() should recover in
	// time to still report the second statement's own, distinct error,
	// proving the compiler kept going after the first instead of
	// cascading failures from lost sync.
	_, ok := compiler.Compile(`print 1 +; this;`, v, v)
	if ok {
		t.Fatal("expected compilation to fail")
	}
	out := errBuf.String()
	if !strings.Contains(out, "Expect expression.") {
		t.Errorf("expected the first error to be reported, got:\n%s", out)
	}
	if !strings.Contains(out, "Can't use 'this' outside of a class.") {
		t.Errorf("expected synchronize() to let the second statement's own error surface, got:\n%s", out)
	}
}
