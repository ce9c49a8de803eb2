package db

import "testing"

func TestVectorCodec(t *testing.T) {
	in := []float32{1.5, -0.25, 0, 3.4028235e38}
	b := EncodeVector(in)
	if len(b) != 16 {
		t.Fatalf("expected 16 bytes, got %d", len(b))
	}
	out, err := DecodeVector(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("index %d: expected %v, got %v", i, in[i], out[i])
		}
	}
}

func TestDecodeVector_BadLength(t *testing.T) {
	if _, err := DecodeVector([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error")
	}
}
