// Command smog is the language's CLI: no arguments starts a REPL, one
// argument runs that file, the compile and disassemble subcommands
// write and read .sgc files, and anything else is a usage error.
// Dispatch reads raw os.Args rather than going through the flag
// package, since the subcommands (compile, disassemble) are
// positional rather than flag-driven.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/kristofer/vela/pkg/bytecode"
	"github.com/kristofer/vela/pkg/debug"
	"github.com/kristofer/vela/pkg/vm"
)

const (
	exitOK      = 0
	exitUsage   = 64
	exitCompile = 65
	exitRuntime = 70
)

func main() {
	args := os.Args[1:]

	if len(args) > 0 {
		switch args[0] {
		case "compile":
			if len(args) < 2 {
				fmt.Fprintln(os.Stderr, "Usage: smog compile <input> [output.sgc]")
				os.Exit(exitUsage)
			}
			compileFile(args[1], secondOrDefault(args, 2, ""))
			return
		case "disassemble", "disasm":
			if len(args) != 2 {
				fmt.Fprintln(os.Stderr, "Usage: smog disassemble <file.sgc>")
				os.Exit(exitUsage)
			}
			disassembleFile(args[1])
			return
		}
	}

	switch len(args) {
	case 0:
		runREPL()
	case 1:
		os.Exit(runFile(args[0]))
	default:
		fmt.Fprintln(os.Stderr, "Usage: smog [script]")
		os.Exit(exitUsage)
	}
}

func secondOrDefault(args []string, i int, def string) string {
	if i < len(args) {
		return args[i]
	}
	return def
}

func runFile(path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not open file \"%s\".\n", path)
		return exitUsage
	}
	interp := vm.New()
	switch interp.Interpret(string(source)) {
	case vm.InterpretCompileError:
		return exitCompile
	case vm.InterpretRuntimeError:
		return exitRuntime
	default:
		return exitOK
	}
}

// runREPL reads one line at a time, feeding each line to the same
// long-lived VM so globals and function/class definitions persist
// across lines, exactly as the original interpreter's REPL does: a
// line must be a complete statement on its own.
func runREPL() {
	interp := vm.New()
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if line == "" && err != nil {
			fmt.Println()
			return
		}
		interp.Interpret(line)
	}
}

func compileFile(inputPath, outputPath string) {
	if outputPath == "" {
		outputPath = inputPath + "c"
	}
	source, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not open file \"%s\".\n", inputPath)
		os.Exit(exitUsage)
	}
	interp := vm.New()
	chunk, ok := interp.CompileOnly(string(source))
	if !ok {
		os.Exit(exitCompile)
	}
	out, err := os.Create(outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not create file \"%s\": %v\n", outputPath, err)
		os.Exit(exitUsage)
	}
	defer out.Close()
	if err := bytecode.EncodeGzip(chunk, out); err != nil {
		fmt.Fprintf(os.Stderr, "Could not write \"%s\": %v\n", outputPath, err)
		os.Exit(exitUsage)
	}
	fmt.Printf("Compiled %s -> %s\n", inputPath, outputPath)
}

func disassembleFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not open file \"%s\".\n", path)
		os.Exit(exitUsage)
	}
	defer f.Close()
	chunk, err := bytecode.DecodeGzip(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not read \"%s\": %v\n", path, err)
		os.Exit(exitUsage)
	}
	debug.DisassembleChunk(chunk, path)
}
