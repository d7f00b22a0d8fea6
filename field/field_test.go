//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package field

import (
	"crypto/rand"
	"math/big"
	"testing"
)

func TestArithmetic(t *testing.T) {
	a := New(Modulus - 1)
	b := New(5)

	if got := a.Add(b); got != 4 {
		t.Errorf("(p-1)+5: got %v, expected 4", got)
	}
	if got := b.Sub(a); got != 6 {
		t.Errorf("5-(p-1): got %v, expected 6", got)
	}
	if got := a.Mul(a); got != 1 {
		t.Errorf("(-1)*(-1): got %v, expected 1", got)
	}
	if got := NewInt(-3).Add(New(3)); !got.IsZero() {
		t.Errorf("-3+3: got %v, expected 0", got)
	}
	if got := New(Modulus + 7); got != 7 {
		t.Errorf("reduce p+7: got %v, expected 7", got)
	}
	if got := New(2).Exp(61); got != 1 {
		t.Errorf("2^61: got %v, expected 1", got)
	}
}

func TestMulNearModulus(t *testing.T) {
	p := new(big.Int).SetUint64(Modulus)
	values := []uint64{
		Modulus - 1, Modulus - 2, Modulus - 12345, 1 << 60, (1 << 60) + 1,
		0xffffffff, 3,
	}
	for _, x := range values {
		for _, y := range values {
			expected := new(big.Int).Mul(new(big.Int).SetUint64(x),
				new(big.Int).SetUint64(y))
			expected.Mod(expected, p)

			got := New(x).Mul(New(y))
			if got.Uint64() != expected.Uint64() {
				t.Errorf("%d*%d: got %v, expected %v", x, y, got, expected)
			}
		}
	}
	for _, v := range []uint64{Modulus, Modulus + 1, 1<<64 - 1} {
		expected := new(big.Int).Mod(new(big.Int).SetUint64(v), p)
		if got := New(v); got.Uint64() != expected.Uint64() {
			t.Errorf("New(%d): got %v, expected %v", v, got, expected)
		}
	}
}

func TestInverse(t *testing.T) {
	for i := 0; i < 100; i++ {
		e, err := Random(rand.Reader)
		if err != nil {
			t.Fatalf("Random: %v", err)
		}
		if e.IsZero() {
			continue
		}
		inv, err := e.Inverse()
		if err != nil {
			t.Fatalf("Inverse: %v", err)
		}
		if got := e.Mul(inv); got != One() {
			t.Errorf("%v*%v=%v, expected 1", e, inv, got)
		}
	}
	if _, err := Zero().Inverse(); err == nil {
		t.Errorf("inverse of zero succeeded")
	}
}

func TestBytes(t *testing.T) {
	values := []Element{0, 1, 2500, New(Modulus - 1)}
	decoded, err := Unmarshal(Marshal(values))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for i, v := range values {
		if decoded[i] != v {
			t.Errorf("element %d: got %v, expected %v", i, decoded[i], v)
		}
	}

	var e Element
	if err := e.SetBytes([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}); err == nil {
		t.Errorf("non-canonical element accepted")
	}
	if _, err := Unmarshal(make([]byte, 9)); err == nil {
		t.Errorf("truncated vector accepted")
	}
}
