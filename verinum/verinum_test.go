package verinum

import "testing"

func TestParseDecimal(t *testing.T) {
	v, err := Parse("42")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !v.IsConstant() {
		t.Fatalf("expected constant vector")
	}
	if v.Int64() != 42 {
		t.Fatalf("got %d, want 42", v.Int64())
	}
}

func TestParseSizedHex(t *testing.T) {
	v, err := Parse("8'hFF")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v.Width() != 8 {
		t.Fatalf("width = %d, want 8", v.Width())
	}
	if v.Int64() != 255 {
		t.Fatalf("got %d, want 255", v.Int64())
	}
}

func TestParseUnknownBits(t *testing.T) {
	v, err := Parse("4'b10x1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v.IsConstant() {
		t.Fatalf("expected non-constant vector with x bit")
	}
	if v.Bits[1] != Bx {
		t.Fatalf("bit 1 = %v, want x", v.Bits[1])
	}
}

func TestAndOrXor(t *testing.T) {
	a, _ := Parse("4'b1100")
	b, _ := Parse("4'b1010")
	if And(a, b).String() != "1000" {
		t.Fatalf("And = %s", And(a, b))
	}
	if Or(a, b).String() != "1110" {
		t.Fatalf("Or = %s", Or(a, b))
	}
	if Xor(a, b).String() != "0110" {
		t.Fatalf("Xor = %s", Xor(a, b))
	}
}

func TestAddMul(t *testing.T) {
	a := FromInt64(3, 8)
	b := FromInt64(4, 8)
	if Add(a, b).Int64() != 7 {
		t.Fatalf("Add = %d", Add(a, b).Int64())
	}
	if Mul(a, b).Int64() != 12 {
		t.Fatalf("Mul = %d", Mul(a, b).Int64())
	}
}

func TestConcat(t *testing.T) {
	a := FromInt64(0x1, 4)
	b := FromInt64(0x2, 4)
	c := Concat(a, b)
	if c.Width() != 8 {
		t.Fatalf("width = %d", c.Width())
	}
	if c.Int64() != 0x12 {
		t.Fatalf("got %x, want 0x12", c.Int64())
	}
}

func TestLogicalEqWithUnknown(t *testing.T) {
	a, _ := Parse("4'b1010")
	b, _ := Parse("4'b10x0")
	eq := LogicalEq(a, b)
	if eq.Bits[0] != Bx {
		t.Fatalf("expected x result, got %v", eq)
	}
}

func TestFoldingIdempotence(t *testing.T) {
	v, _ := Parse("8'hAB")
	once := Add(v, FromInt64(0, 8))
	twice := Add(once, FromInt64(0, 8))
	if !Eq(once, twice) {
		t.Fatalf("folding not idempotent: %v vs %v", once, twice)
	}
}
