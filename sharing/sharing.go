//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package sharing implements additive secret shares. An AddShare is
// one party's additive contribution to a secret. A TPShare is the
// trusted dealer's view of a rider-driver sharing: it holds every
// party's component and can reconstruct the secret.
package sharing

import (
	"io"

	"github.com/markkurossi/quickpool/field"
	"github.com/markkurossi/quickpool/party"
)

// AddShare is an additive share of a secret.
type AddShare struct {
	value field.Element
}

// NewAddShare creates a share with the value.
func NewAddShare(v field.Element) AddShare {
	return AddShare{
		value: v,
	}
}

// Value returns the share value.
func (s AddShare) Value() field.Element {
	return s.value
}

// Add returns s+o.
func (s AddShare) Add(o AddShare) AddShare {
	return AddShare{
		value: s.value.Add(o.value),
	}
}

// Sub returns s-o.
func (s AddShare) Sub(o AddShare) AddShare {
	return AddShare{
		value: s.value.Sub(o.value),
	}
}

// Mul returns c*s.
func (s AddShare) Mul(c field.Element) AddShare {
	return AddShare{
		value: s.value.Mul(c),
	}
}

// Shl shifts the share value left by n bits.
func (s AddShare) Shl(n uint) AddShare {
	return AddShare{
		value: s.value.Mul(field.New(2).Exp(uint64(n))),
	}
}

// Shr shifts the canonical share value right by n bits.
func (s AddShare) Shr(n uint) AddShare {
	return AddShare{
		value: field.New(s.value.Uint64() >> n),
	}
}

// AddConst adds the public constant c to the share if id is the
// adder party. Exactly one party of a sharing must add public
// constants.
func (s AddShare) AddConst(c field.Element, id, adder party.ID) AddShare {
	if id != adder {
		return s
	}
	return AddShare{
		value: s.value.Add(c),
	}
}

// Reconstruct returns the sum of the shares.
func Reconstruct(shares ...AddShare) field.Element {
	var result field.Element
	for _, s := range shares {
		result = result.Add(s.value)
	}
	return result
}

// GenerateAddShares splits the secret into n additive shares.
func GenerateAddShares(secret field.Element, n int, rand io.Reader) (
	[]AddShare, error) {

	result := make([]AddShare, n)
	sum := field.Zero()
	for i := 1; i < n; i++ {
		v, err := field.Random(rand)
		if err != nil {
			return nil, err
		}
		result[i] = NewAddShare(v)
		sum = sum.Add(v)
	}
	if n > 0 {
		result[0] = NewAddShare(secret.Sub(sum))
	}
	return result, nil
}

// NumComponents is the number of TPShare components.
const NumComponents = 3

// Component indices of TPShare values.
const (
	CoordinatorComponent = 0
	RiderComponent       = 1
	DriverComponent      = 2
)

// TPShare holds all components of a rider-driver sharing. The
// coordinator's component is always zero and arithmetic operates on
// the rider and driver components only.
type TPShare struct {
	values [NumComponents]field.Element
}

// NewTPShare creates a sharing from the rider and driver components.
func NewTPShare(rider, driver field.Element) TPShare {
	var s TPShare
	s.values[RiderComponent] = rider
	s.values[DriverComponent] = driver
	return s
}

// Component returns the share of the component index.
func (s TPShare) Component(i int) AddShare {
	return NewAddShare(s.values[i])
}

// Secret returns the shared secret.
func (s TPShare) Secret() field.Element {
	var result field.Element
	for _, v := range s.values {
		result = result.Add(v)
	}
	return result
}

// Add returns s+o.
func (s TPShare) Add(o TPShare) TPShare {
	for i := 1; i < NumComponents; i++ {
		s.values[i] = s.values[i].Add(o.values[i])
	}
	return s
}

// Sub returns s-o.
func (s TPShare) Sub(o TPShare) TPShare {
	for i := 1; i < NumComponents; i++ {
		s.values[i] = s.values[i].Sub(o.values[i])
	}
	return s
}

// Mul returns c*s.
func (s TPShare) Mul(c field.Element) TPShare {
	for i := 1; i < NumComponents; i++ {
		s.values[i] = s.values[i].Mul(c)
	}
	return s
}

// AddConst adds the public constant c to the adder component.
func (s TPShare) AddConst(c field.Element, adder int) TPShare {
	s.values[adder] = s.values[adder].Add(c)
	return s
}
