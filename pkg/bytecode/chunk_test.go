package bytecode

import "testing"

func TestChunkWriteRecordsLine(t *testing.T) {
	var c Chunk
	c.WriteOp(OpNil, 7)
	c.Write(0xFF, 7)
	if len(c.Code) != 2 || c.Code[0] != byte(OpNil) || c.Code[1] != 0xFF {
		t.Fatalf("unexpected code stream: %v", c.Code)
	}
	if c.Lines[0] != 7 || c.Lines[1] != 7 {
		t.Fatalf("unexpected line table: %v", c.Lines)
	}
}

func TestAddConstantReturnsIndex(t *testing.T) {
	var c Chunk
	i0 := c.AddConstant(Number(1))
	i1 := c.AddConstant(Number(2))
	if i0 != 0 || i1 != 1 {
		t.Fatalf("AddConstant indices = %d, %d; want 0, 1", i0, i1)
	}
}

func TestAddConstantOverflow(t *testing.T) {
	var c Chunk
	for i := 0; i < MaxConstants; i++ {
		if idx := c.AddConstant(Number(float64(i))); idx == -1 {
			t.Fatalf("AddConstant %d should have succeeded within MaxConstants", i)
		}
	}
	if idx := c.AddConstant(Number(999)); idx != -1 {
		t.Fatalf("the %dth AddConstant should overflow and return -1, got %d", MaxConstants+1, idx)
	}
}
