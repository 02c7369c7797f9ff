package types

import (
	"strings"
	"testing"
)

func TestHash(t *testing.T) {
	hexHash := strings.Repeat("aa", HashSize)
	h, err := HashFromString(hexHash)
	if err != nil {
		t.Fatal(err)
	}

	if h.String() != hexHash {
		t.Fatalf("expected %s, got %s", hexHash, h)
	}

	if _, err = HashFromString("aabb"); err == nil {
		t.Fatal("expected error on short hash")
	}
}

func TestHashJSON(t *testing.T) {
	h := MustHashFromString(strings.Repeat("0f", HashSize))
	buf, err := h.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}

	var h2 Hash
	if err = h2.UnmarshalJSON(buf); err != nil {
		t.Fatal(err)
	}

	if !h.Equals(h2) {
		t.Fatalf("expected %s, got %s", h, h2)
	}
}

func TestWork(t *testing.T) {
	// larger than 2^128
	decimalWork := "680564733841876926926749214863536422912000"
	w, err := WorkFromString(decimalWork)
	if err != nil {
		t.Fatal(err)
	}

	if w.String() != decimalWork {
		t.Fatalf("expected %s, got %s", decimalWork, w)
	}

	if w.Cmp(WorkFrom64(100)) <= 0 {
		t.Fatal("expected larger work")
	}

	if WorkFrom64(99).Add64(1).String() != "100" {
		t.Fatal("wrong addition")
	}

	if _, err = WorkFromString("-1"); err == nil {
		t.Fatal("expected error on negative work")
	}
	if _, err = WorkFromString("0x10"); err == nil {
		t.Fatal("expected error on hex work")
	}
}

func TestChainHeadJSON(t *testing.T) {
	head := ChainHead{
		Hash:     MustHashFromString(strings.Repeat("01", HashSize)),
		Sequence: 5,
		Work:     WorkFrom64(100),
	}
	buf, err := head.Work.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(buf) != `"100"` {
		t.Fatalf("unexpected work encoding %s", buf)
	}
}
