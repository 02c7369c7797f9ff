package utils

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

func TestUVarInt64Size(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 16383, 16384, 1 << 32, 1<<64 - 1} {
		if expected := len(binary.AppendUvarint(nil, v)); UVarInt64Size(v) != expected {
			t.Fatalf("expected %d, got %d for %d", expected, UVarInt64Size(v), v)
		}
	}
}

func TestVarString(t *testing.T) {
	for _, s := range []string{"", "node/1.0", strings.Repeat("x", 300)} {
		buf := AppendVarString(nil, s)
		if len(buf) != VarStringSize(s) {
			t.Fatalf("expected size %d, got %d", VarStringSize(s), len(buf))
		}
		r, err := ReadVarString(bytes.NewReader(buf), uint64(len(buf)))
		if err != nil {
			t.Fatal(err)
		}
		if r != s {
			t.Fatalf("expected %q, got %q", s, r)
		}
	}
}

func TestReadVarBytesLimit(t *testing.T) {
	buf := AppendVarBytes(nil, make([]byte, 32))
	if _, err := ReadVarBytes(bytes.NewReader(buf), 16); err == nil {
		t.Fatal("expected error on oversize length")
	}
	// declared length larger than what follows
	if _, err := ReadVarBytes(bytes.NewReader(buf[:10]), 64); err == nil {
		t.Fatal("expected error on short buffer")
	}
}
