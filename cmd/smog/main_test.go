package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/kristofer/vela/pkg/bytecode"
	"github.com/kristofer/vela/pkg/debug"
	"github.com/kristofer/vela/pkg/vm"
)

func TestRunFileExitCodes(t *testing.T) {
	dir := t.TempDir()

	ok := writeScript(t, dir, "ok.lox", `print 1 + 1;`)
	if code := runFile(ok); code != exitOK {
		t.Errorf("well-formed script: exit = %d, want %d", code, exitOK)
	}

	badCompile := writeScript(t, dir, "bad_compile.lox", `print 1 +;`)
	if code := runFile(badCompile); code != exitCompile {
		t.Errorf("compile error script: exit = %d, want %d", code, exitCompile)
	}

	badRuntime := writeScript(t, dir, "bad_runtime.lox", `print undefinedVar;`)
	if code := runFile(badRuntime); code != exitRuntime {
		t.Errorf("runtime error script: exit = %d, want %d", code, exitRuntime)
	}
}

func TestRunFileMissingPathIsUsageError(t *testing.T) {
	if code := runFile("/nonexistent/path/for/sure.lox"); code != exitUsage {
		t.Errorf("missing file: exit = %d, want %d", code, exitUsage)
	}
}

func TestCompileThenDisassembleRoundTrip(t *testing.T) {
	interp := vm.New()
	chunk, ok := interp.CompileOnly(`print 1 + 2;`)
	if !ok {
		t.Fatal("CompileOnly failed on a well-formed script")
	}

	var buf bytes.Buffer
	if err := bytecode.EncodeGzip(chunk, &buf); err != nil {
		t.Fatalf("EncodeGzip: %v", err)
	}

	decoded, err := bytecode.DecodeGzip(&buf)
	if err != nil {
		t.Fatalf("DecodeGzip: %v", err)
	}

	var out bytes.Buffer
	debug.FprintChunk(&out, decoded, "roundtrip")
	if out.Len() == 0 {
		t.Error("disassembly of a round-tripped chunk produced no output")
	}
}

func writeScript(t *testing.T, dir, name, source string) string {
	t.Helper()
	path := dir + "/" + name
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
	return path
}
