package vm

import (
	"fmt"
	"strings"

	"github.com/kristofer/vela/pkg/bytecode"
)

// InterpretResult classifies how Interpret finished, mapped straight
// onto the CLI's exit codes (0 success / 65 compile error / 70 runtime
// error).
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// frameTrace is one line of a runtime stack trace, captured from a
// CallFrame at the moment an error is raised. The VM walks its live
// call frames into a slice of these before unwinding them, since by
// the time RuntimeError.Error() is called to render the message the
// frames themselves are already gone.
type frameTrace struct {
	name string
	line int
}

// RuntimeError is returned by VM.run when Lox code hits an error that
// has no compile-time equivalent (type mismatch, undefined variable,
// wrong arity, stack overflow). Error() renders the exact format
// diagnostics expect: the message, then one "[line L] in <name>" line
// per frame, innermost first.
type RuntimeError struct {
	Message string
	Trace   []frameTrace
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, f := range e.Trace {
		b.WriteByte('\n')
		fmt.Fprintf(&b, "[line %d] in %s", f.line, f.name)
	}
	return b.String()
}

func newRuntimeError(msg string, trace []frameTrace) *RuntimeError {
	return &RuntimeError{Message: msg, Trace: trace}
}

// captureTrace walks frames from innermost (top of frames) to
// outermost, pairing each with the source line its current
// instruction pointer sits on (ip-1, since ip has already advanced
// past the opcode that's erroring).
func captureTrace(frames []callFrame) []frameTrace {
	trace := make([]frameTrace, 0, len(frames))
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		fn := f.closure.Function
		line := 0
		if f.ip-1 >= 0 && f.ip-1 < len(fn.Chunk.Lines) {
			line = fn.Chunk.Lines[f.ip-1]
		}
		trace = append(trace, frameTrace{name: bytecode.FunctionSignature(fn), line: line})
	}
	return trace
}
