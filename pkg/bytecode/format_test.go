package bytecode

import (
	"bytes"
	"testing"
)

func buildSampleChunk() *Chunk {
	var c Chunk
	idx := c.AddConstant(Number(3.5))
	c.WriteOp(OpConstant, 1)
	c.Write(byte(idx), 1)
	c.WriteOp(OpReturn, 1)
	return &c
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := buildSampleChunk()
	var buf bytes.Buffer
	if err := Encode(c, &buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got.Code, c.Code) {
		t.Errorf("Code = %v, want %v", got.Code, c.Code)
	}
	if len(got.Constants) != 1 || got.Constants[0].Number != 3.5 {
		t.Errorf("Constants = %v", got.Constants)
	}
}

func TestEncodeDecodeGzipRoundTrip(t *testing.T) {
	c := buildSampleChunk()
	var buf bytes.Buffer
	if err := EncodeGzip(c, &buf); err != nil {
		t.Fatalf("EncodeGzip: %v", err)
	}
	got, err := DecodeGzip(&buf)
	if err != nil {
		t.Fatalf("DecodeGzip: %v", err)
	}
	if !bytes.Equal(got.Code, c.Code) {
		t.Errorf("Code = %v, want %v", got.Code, c.Code)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0, 0, 0, 0, 0, 0, 0, 1})
	if _, err := Decode(buf); err == nil {
		t.Error("expected an error for a bad magic number")
	}
}

func TestEncodeDecodeStringAndFunctionConstants(t *testing.T) {
	var c Chunk
	s := &ObjString{Chars: "hello", Hash: HashString("hello")}
	s.SetOwner(&Obj{Type: ObjTypeString, Data: s})
	c.AddConstant(ObjVal(s.Owner()))

	inner := &ObjFunction{Arity: 2, UpvalueCount: 1, Name: &ObjString{Chars: "f"}}
	inner.Obj = &Obj{Type: ObjTypeFunction, Data: inner}
	c.AddConstant(ObjVal(inner.Obj))

	var buf bytes.Buffer
	if err := Encode(&c, &buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Constants) != 2 {
		t.Fatalf("got %d constants, want 2", len(got.Constants))
	}
	if !got.Constants[0].IsString() || got.Constants[0].AsString().Chars != "hello" {
		t.Errorf("constant 0 = %v", got.Constants[0])
	}
	fn := got.Constants[1].AsFunction()
	if fn.Arity != 2 || fn.UpvalueCount != 1 || fn.Name.Chars != "f" {
		t.Errorf("decoded function = %+v", fn)
	}
}
