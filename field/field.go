//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package field implements arithmetic in the prime field Z_p with the
// Mersenne prime p = 2^61-1.
package field

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"

	"github.com/cockroachdb/errors"
	"github.com/tuneinsight/lattigo/v4/ring"
)

const (
	// Modulus is the field prime.
	Modulus uint64 = (1 << 61) - 1

	// Size is the size of the serialized field element in bytes.
	Size = 8
)

var (
	// Bits is the bit length of the modulus.
	Bits = bits.Len64(Modulus)

	bredConstant = ring.BRedParams(Modulus)
)

// Element is a field element in its canonical form [0, Modulus).
type Element uint64

// New creates a field element from the value v. The value is reduced
// modulo Modulus.
func New(v uint64) Element {
	return Element(ring.BRedAdd(v, Modulus, bredConstant))
}

// NewInt creates a field element from a signed integer.
func NewInt(v int64) Element {
	if v < 0 {
		return New(uint64(-v)).Neg()
	}
	return New(uint64(v))
}

// Zero returns the additive identity.
func Zero() Element {
	return 0
}

// One returns the multiplicative identity.
func One() Element {
	return 1
}

// Uint64 returns the canonical value of the element.
func (e Element) Uint64() uint64 {
	return uint64(e)
}

// IsZero tests if the element is zero.
func (e Element) IsZero() bool {
	return e == 0
}

// Equal tests if the elements are equal.
func (e Element) Equal(o Element) bool {
	return e == o
}

// Add returns e+o.
func (e Element) Add(o Element) Element {
	return Element(ring.CRed(uint64(e)+uint64(o), Modulus))
}

// Sub returns e-o.
func (e Element) Sub(o Element) Element {
	return Element(ring.CRed(uint64(e)+Modulus-uint64(o), Modulus))
}

// Neg returns -e.
func (e Element) Neg() Element {
	if e == 0 {
		return 0
	}
	return Element(Modulus - uint64(e))
}

// Mul returns e*o.
func (e Element) Mul(o Element) Element {
	return Element(ring.BRed(uint64(e), uint64(o), Modulus, bredConstant))
}

// Exp returns e^n.
func (e Element) Exp(n uint64) Element {
	return Element(ring.ModExp(uint64(e), n, Modulus))
}

// Inverse returns the multiplicative inverse of e. The function
// returns an error if e is zero.
func (e Element) Inverse() (Element, error) {
	if e == 0 {
		return 0, errors.New("field: inverse of zero")
	}
	return e.Exp(Modulus - 2), nil
}

// Bytes returns the fixed-size big-endian encoding of the element.
func (e Element) Bytes() []byte {
	var buf [Size]byte
	e.PutBytes(buf[:])
	return buf[:]
}

// PutBytes encodes the element into buf which must be at least Size
// bytes long.
func (e Element) PutBytes(buf []byte) {
	binary.BigEndian.PutUint64(buf, uint64(e))
}

// SetBytes decodes the element from buf.
func (e *Element) SetBytes(buf []byte) error {
	if len(buf) < Size {
		return errors.Newf("field: truncated element: %d bytes", len(buf))
	}
	v := binary.BigEndian.Uint64(buf)
	if v >= Modulus {
		return errors.Newf("field: non-canonical element %x", v)
	}
	*e = Element(v)
	return nil
}

func (e Element) String() string {
	return fmt.Sprintf("%d", uint64(e))
}

// FromRandomBytes maps 8 uniformly random bytes into a field
// element. The value is masked to Bits bits before reduction.
func FromRandomBytes(buf []byte) Element {
	v := binary.BigEndian.Uint64(buf) & Modulus
	return New(v)
}

// Random samples a uniformly random element from the reader.
func Random(r io.Reader) (Element, error) {
	var buf [Size]byte
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		v := binary.BigEndian.Uint64(buf[:]) & Modulus
		if v < Modulus {
			return Element(v), nil
		}
	}
}

// Sum returns the sum of the elements.
func Sum(values ...Element) Element {
	var result Element
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// Marshal encodes the elements into a byte slice.
func Marshal(values []Element) []byte {
	buf := make([]byte, len(values)*Size)
	for i, v := range values {
		v.PutBytes(buf[i*Size:])
	}
	return buf
}

// Unmarshal decodes elements from the byte slice.
func Unmarshal(buf []byte) ([]Element, error) {
	if len(buf)%Size != 0 {
		return nil, errors.Newf("field: invalid vector length %d", len(buf))
	}
	result := make([]Element, len(buf)/Size)
	for i := range result {
		if err := result[i].SetBytes(buf[i*Size:]); err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
	}
	return result, nil
}
