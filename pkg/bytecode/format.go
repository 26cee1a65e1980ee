// Package bytecode's format.go implements the on-disk .sgc bytecode
// file: a compiled Chunk serialized with encoding/binary and wrapped
// in compress/gzip, behind an "SGC2" magic number plus a version
// header, with length-prefixed constants/instructions sections
// and a recursive encoding for nested function chunks. Classes and
// methods are never baked into the constant pool — OP_CLASS/OP_METHOD
// build them at runtime — so String and Function are the only two
// object constant kinds a compiled chunk can hold.
package bytecode

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	magicNumber  uint32 = 0x53474332 // "SGC2"
	formatVersion uint32 = 1
)

const (
	constNil byte = iota
	constBool
	constNumber
	constString
	constFunction
)

// Encode writes chunk in the raw (non-gzipped) wire format.
func Encode(chunk *Chunk, w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, magicNumber); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, formatVersion); err != nil {
		return err
	}
	return writeChunk(w, chunk)
}

// Decode reads a chunk written by Encode.
func Decode(r io.Reader) (*Chunk, error) {
	var magic, version uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, err
	}
	if magic != magicNumber {
		return nil, fmt.Errorf("bytecode: bad magic number %#x", magic)
	}
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, fmt.Errorf("bytecode: unsupported format version %d", version)
	}
	return readChunk(r)
}

// EncodeGzip writes chunk gzip-compressed, the format `smog compile`
// produces and `smog disassemble` consumes.
func EncodeGzip(chunk *Chunk, w io.Writer) error {
	gz := gzip.NewWriter(w)
	if err := Encode(chunk, gz); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

// DecodeGzip reads a chunk written by EncodeGzip.
func DecodeGzip(r io.Reader) (*Chunk, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return Decode(gz)
}

func writeChunk(w io.Writer, chunk *Chunk) error {
	if err := writeConstants(w, chunk.Constants); err != nil {
		return err
	}
	return writeInstructions(w, chunk)
}

func readChunk(r io.Reader) (*Chunk, error) {
	constants, err := readConstants(r)
	if err != nil {
		return nil, err
	}
	chunk := &Chunk{Constants: constants}
	if err := readInstructions(r, chunk); err != nil {
		return nil, err
	}
	return chunk, nil
}

func writeConstants(w io.Writer, constants []Value) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(constants))); err != nil {
		return err
	}
	for _, v := range constants {
		if err := writeConstant(w, v); err != nil {
			return err
		}
	}
	return nil
}

func writeConstant(w io.Writer, v Value) error {
	switch {
	case v.IsNil():
		return writeByte(w, constNil)
	case v.IsBool():
		if err := writeByte(w, constBool); err != nil {
			return err
		}
		b := byte(0)
		if v.Bool {
			b = 1
		}
		return writeByte(w, b)
	case v.IsNumber():
		if err := writeByte(w, constNumber); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, v.Number)
	case v.IsString():
		if err := writeByte(w, constString); err != nil {
			return err
		}
		return writeString(w, v.AsString().Chars)
	case v.IsFunction():
		if err := writeByte(w, constFunction); err != nil {
			return err
		}
		return writeFunctionConstant(w, v.AsFunction())
	default:
		return fmt.Errorf("bytecode: value kind not representable in a compiled chunk")
	}
}

func writeFunctionConstant(w io.Writer, fn *ObjFunction) error {
	if err := binary.Write(w, binary.BigEndian, uint32(fn.Arity)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(fn.UpvalueCount)); err != nil {
		return err
	}
	name := ""
	if fn.Name != nil {
		name = fn.Name.Chars
	}
	if err := writeString(w, name); err != nil {
		return err
	}
	return writeChunk(w, &fn.Chunk)
}

func readConstants(r io.Reader) ([]Value, error) {
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	constants := make([]Value, count)
	for i := range constants {
		v, err := readConstant(r)
		if err != nil {
			return nil, err
		}
		constants[i] = v
	}
	return constants, nil
}

func readConstant(r io.Reader) (Value, error) {
	tag, err := readByte(r)
	if err != nil {
		return Nil, err
	}
	switch tag {
	case constNil:
		return Nil, nil
	case constBool:
		b, err := readByte(r)
		if err != nil {
			return Nil, err
		}
		return Bool(b != 0), nil
	case constNumber:
		var n float64
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return Nil, err
		}
		return Number(n), nil
	case constString:
		s, err := readString(r)
		if err != nil {
			return Nil, err
		}
		obj := &ObjString{Chars: s, Hash: HashString(s)}
		wrapper := &Obj{Type: ObjTypeString, Data: obj}
		obj.SetOwner(wrapper)
		return ObjVal(wrapper), nil
	case constFunction:
		fn, err := readFunctionConstant(r)
		if err != nil {
			return Nil, err
		}
		return ObjVal(fn.Obj), nil
	default:
		return Nil, fmt.Errorf("bytecode: unknown constant tag %d", tag)
	}
}

func readFunctionConstant(r io.Reader) (*ObjFunction, error) {
	var arity, upvalues uint32
	if err := binary.Read(r, binary.BigEndian, &arity); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &upvalues); err != nil {
		return nil, err
	}
	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	chunk, err := readChunk(r)
	if err != nil {
		return nil, err
	}
	fn := &ObjFunction{Arity: int(arity), UpvalueCount: int(upvalues), Chunk: *chunk}
	if name != "" {
		fn.Name = &ObjString{Chars: name, Hash: HashString(name)}
	}
	fn.Obj = &Obj{Type: ObjTypeFunction, Data: fn}
	return fn, nil
}

func writeInstructions(w io.Writer, chunk *Chunk) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(chunk.Code))); err != nil {
		return err
	}
	if _, err := w.Write(chunk.Code); err != nil {
		return err
	}
	for _, line := range chunk.Lines {
		if err := binary.Write(w, binary.BigEndian, uint32(line)); err != nil {
			return err
		}
	}
	return nil
}

func readInstructions(r io.Reader, chunk *Chunk) error {
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return err
	}
	chunk.Code = make([]byte, count)
	if _, err := io.ReadFull(r, chunk.Code); err != nil {
		return err
	}
	chunk.Lines = make([]int, count)
	for i := range chunk.Lines {
		var line uint32
		if err := binary.Read(r, binary.BigEndian, &line); err != nil {
			return err
		}
		chunk.Lines[i] = int(line)
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}
