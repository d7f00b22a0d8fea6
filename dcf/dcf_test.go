//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package dcf

import (
	"crypto/rand"
	"testing"

	"github.com/markkurossi/quickpool/field"
)

func randomElement(t *testing.T) field.Element {
	v, err := field.Random(rand.Reader)
	if err != nil {
		t.Fatalf("field.Random: %v", err)
	}
	return v
}

func TestSmallDomain(t *testing.T) {
	const bits = 6
	beta := field.New(12345)

	for _, alpha := range []uint64{0, 1, 17, 32, 63} {
		k0, k1, err := Gen(alpha, beta, bits, rand.Reader)
		if err != nil {
			t.Fatalf("Gen: %v", err)
		}
		for x := uint64(0); x < 1<<bits; x++ {
			got := k0.Eval(x).Add(k1.Eval(x))
			var expected field.Element
			if x < alpha {
				expected = beta
			}
			if got != expected {
				t.Errorf("alpha=%d, x=%d: got %v, expected %v",
					alpha, x, got, expected)
			}
		}
	}
	if _, _, err := Gen(64, beta, bits, rand.Reader); err == nil {
		t.Errorf("Gen accepted alpha outside domain")
	}
}

func TestFieldDomain(t *testing.T) {
	for i := 0; i < 10; i++ {
		alpha := randomElement(t).Uint64()
		k0, k1, err := Gen(alpha, field.One(), field.Bits, rand.Reader)
		if err != nil {
			t.Fatalf("Gen: %v", err)
		}
		points := []uint64{
			0, alpha, field.Modulus - 1, randomElement(t).Uint64(),
		}
		if alpha > 0 {
			points = append(points, alpha-1)
		}
		if alpha+1 < field.Modulus {
			points = append(points, alpha+1)
		}
		for _, x := range points {
			got := k0.Eval(x).Add(k1.Eval(x))
			var expected field.Element
			if x < alpha {
				expected = field.One()
			}
			if got != expected {
				t.Errorf("alpha=%d, x=%d: got %v, expected %v",
					alpha, x, got, expected)
			}
		}
	}
}

func TestKeyMarshal(t *testing.T) {
	alpha := randomElement(t).Uint64() | 1
	k0, k1, err := Gen(alpha, field.One(), field.Bits, rand.Reader)
	if err != nil {
		t.Fatalf("Gen: %v", err)
	}
	data, err := k1.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(data) != Size(field.Bits) {
		t.Errorf("key size: got %d, expected %d", len(data), Size(field.Bits))
	}
	var decoded Key
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	x := alpha - 1
	if got := k0.Eval(x).Add(decoded.Eval(x)); got != field.One() {
		t.Errorf("decoded key: got %v, expected 1", got)
	}
	if err := decoded.UnmarshalBinary(data[:len(data)-1]); err == nil {
		t.Errorf("truncated key accepted")
	}
}

func evalInterval(t *testing.T, keys [2]*IntervalKey, masked field.Element) (
	field.Element) {

	var result field.Element
	for _, key := range keys {
		data, err := key.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary: %v", err)
		}
		var k IntervalKey
		if err := k.UnmarshalBinary(data); err != nil {
			t.Fatalf("UnmarshalBinary: %v", err)
		}
		result = result.Add(k.Eval(masked))
	}
	return result
}

func TestInterval(t *testing.T) {
	const width = 100
	for _, lo := range []field.Element{
		field.New(1000), field.New(field.Modulus - 50), field.Zero(),
	} {
		for i := 0; i < 4; i++ {
			r := randomElement(t)
			keys, err := NewIntervalKeys(r, lo, width, rand.Reader)
			if err != nil {
				t.Fatalf("NewIntervalKeys: %v", err)
			}
			cases := map[field.Element]field.Element{
				lo.Sub(field.One()):          field.Zero(),
				lo:                           field.One(),
				lo.Add(field.New(width - 1)): field.One(),
				lo.Add(field.New(width)):     field.Zero(),
				lo.Add(field.New(width / 2)): field.One(),
			}
			for x, expected := range cases {
				got := evalInterval(t, keys, x.Add(r))
				if got != expected {
					t.Errorf("lo=%v, r=%v, x=%v: got %v, expected %v",
						lo, r, x, got, expected)
				}
			}
		}
	}
}

func TestThresholdBoundary(t *testing.T) {
	const threshold = 50

	cases := []struct {
		d     uint64
		match bool
	}{
		{0, true},
		{1, true},
		{2499, true},
		{2500, true},
		{2501, false},
		{1000000, false},
	}
	for _, c := range cases {
		r := randomElement(t)
		keys, err := ThresholdKeys(r, threshold, rand.Reader)
		if err != nil {
			t.Fatalf("ThresholdKeys: %v", err)
		}
		masked := field.New(c.d).Add(r)
		got := evalInterval(t, keys, ThresholdInput(masked, threshold))

		var expected field.Element
		if c.match {
			expected = field.One()
		}
		if got != expected {
			t.Errorf("d=%d: got %v, expected %v", c.d, got, expected)
		}
	}
}

func BenchmarkEval(b *testing.B) {
	k0, _, err := Gen(1<<40, field.One(), field.Bits, rand.Reader)
	if err != nil {
		b.Fatalf("Gen: %v", err)
	}
	for b.Loop() {
		k0.Eval(12345)
	}
}
