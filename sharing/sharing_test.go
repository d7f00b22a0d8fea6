//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package sharing

import (
	"crypto/rand"
	"testing"

	"github.com/markkurossi/quickpool/field"
	"github.com/markkurossi/quickpool/party"
)

func random(t *testing.T) field.Element {
	v, err := field.Random(rand.Reader)
	if err != nil {
		t.Fatalf("field.Random: %v", err)
	}
	return v
}

func shares(t *testing.T, secret field.Element) []AddShare {
	result, err := GenerateAddShares(secret, 2, rand.Reader)
	if err != nil {
		t.Fatalf("GenerateAddShares: %v", err)
	}
	return result
}

func TestAddShares(t *testing.T) {
	for i := 0; i < 50; i++ {
		a := random(t)
		b := random(t)
		sa := shares(t, a)
		sb := shares(t, b)

		if got := Reconstruct(sa...); got != a {
			t.Fatalf("Reconstruct: got %v, expected %v", got, a)
		}
		sum := []AddShare{sa[0].Add(sb[0]), sa[1].Add(sb[1])}
		if got := Reconstruct(sum...); got != a.Add(b) {
			t.Errorf("a+b: got %v, expected %v", got, a.Add(b))
		}
		diff := []AddShare{sa[0].Sub(sb[0]), sa[1].Sub(sb[1])}
		if got := Reconstruct(diff...); got != a.Sub(b) {
			t.Errorf("a-b: got %v, expected %v", got, a.Sub(b))
		}
		c := random(t)
		prod := []AddShare{sa[0].Mul(c), sa[1].Mul(c)}
		if got := Reconstruct(prod...); got != a.Mul(c) {
			t.Errorf("a*c: got %v, expected %v", got, a.Mul(c))
		}
	}
}

func TestAddConst(t *testing.T) {
	secret := field.New(100)
	sa := shares(t, secret)
	c := field.New(7)

	var result []AddShare
	for id, s := range sa {
		result = append(result, s.AddConst(c, party.ID(id+1), 1))
	}
	if got := Reconstruct(result...); got != field.New(107) {
		t.Errorf("AddConst: got %v, expected 107", got)
	}
}

func TestShift(t *testing.T) {
	s := NewAddShare(field.New(5))
	if got := s.Shl(3).Value(); got != field.New(40) {
		t.Errorf("Shl: got %v, expected 40", got)
	}
	if got := s.Shl(3).Shr(2).Value(); got != field.New(10) {
		t.Errorf("Shr: got %v, expected 10", got)
	}
}

func TestTPShare(t *testing.T) {
	a := NewTPShare(field.New(10), field.New(20))
	b := NewTPShare(field.New(1), field.New(2))

	if a.Secret() != field.New(30) {
		t.Errorf("Secret: got %v", a.Secret())
	}
	if got := a.Sub(b).Secret(); got != field.New(27) {
		t.Errorf("Sub: got %v, expected 27", got)
	}
	if got := a.Add(b).Mul(field.New(2)).Secret(); got != field.New(66) {
		t.Errorf("Add+Mul: got %v, expected 66", got)
	}
	sum := a.AddConst(field.New(5), RiderComponent)
	if sum.Component(RiderComponent).Value() != field.New(15) ||
		sum.Component(DriverComponent).Value() != field.New(20) {
		t.Errorf("AddConst: %v", sum)
	}
	if !a.Component(CoordinatorComponent).Value().IsZero() {
		t.Errorf("coordinator component is not zero")
	}
}
