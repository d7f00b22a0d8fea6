//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package dcf

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/quickpool/field"
)

// IntervalKey is one party's key for the masked interval test
// x ∈ [lo, lo+width) mod p. The evaluator holds the masked value x+r
// and the two parties' results sum to the 0/1 test result.
type IntervalKey struct {
	Lower  *Key
	Upper  *Key
	Offset field.Element
}

// NewIntervalKeys creates the key pair for the interval [lo,
// lo+width) with the input mask r. With a=r+lo and e=a+width the test
// is computed as 1{ŵ<e} - 1{ŵ<a} + 1{a>e} for the masked input ŵ.
func NewIntervalKeys(r, lo field.Element, width uint64, rand io.Reader) (
	[2]*IntervalKey, error) {

	var result [2]*IntervalKey

	if width == 0 || width >= field.Modulus {
		return result, errors.Newf("dcf: invalid interval width %d", width)
	}
	a := r.Add(lo)
	e := a.Add(field.New(width))

	lower0, lower1, err := Gen(a.Uint64(), field.One(), field.Bits, rand)
	if err != nil {
		return result, err
	}
	upper0, upper1, err := Gen(e.Uint64(), field.One(), field.Bits, rand)
	if err != nil {
		return result, err
	}
	var wrap field.Element
	if a.Uint64() > e.Uint64() {
		wrap = field.One()
	}
	offset, err := field.Random(rand)
	if err != nil {
		return result, errors.Wrap(err, "dcf: offset")
	}

	result[0] = &IntervalKey{
		Lower:  lower0,
		Upper:  upper0,
		Offset: offset,
	}
	result[1] = &IntervalKey{
		Lower:  lower1,
		Upper:  upper1,
		Offset: wrap.Sub(offset),
	}
	return result, nil
}

// Eval evaluates the key at the masked input. The result is the
// party's additive share of the interval test.
func (k *IntervalKey) Eval(masked field.Element) field.Element {
	x := masked.Uint64()
	return k.Upper.Eval(x).Sub(k.Lower.Eval(x)).Add(k.Offset)
}

// MarshalBinary encodes the key.
func (k *IntervalKey) MarshalBinary() ([]byte, error) {
	lower, err := k.Lower.MarshalBinary()
	if err != nil {
		return nil, err
	}
	upper, err := k.Upper.MarshalBinary()
	if err != nil {
		return nil, err
	}
	result := make([]byte, 0, len(lower)+len(upper)+field.Size)
	result = append(result, lower...)
	result = append(result, upper...)
	return append(result, k.Offset.Bytes()...), nil
}

// UnmarshalBinary decodes the key.
func (k *IntervalKey) UnmarshalBinary(data []byte) error {
	if len(data) < field.Size || (len(data)-field.Size)%2 != 0 {
		return errors.Newf("dcf: invalid interval key length %d", len(data))
	}
	half := (len(data) - field.Size) / 2

	k.Lower = new(Key)
	if err := k.Lower.UnmarshalBinary(data[:half]); err != nil {
		return err
	}
	k.Upper = new(Key)
	if err := k.Upper.UnmarshalBinary(data[half : 2*half]); err != nil {
		return err
	}
	return k.Offset.SetBytes(data[2*half:])
}

// ThresholdKeys creates the key pair testing if the squared distance
// d is within the threshold, d ≤ threshold². The keys are evaluated
// on ThresholdInput(d+r) where r is the output wire mask.
func ThresholdKeys(r field.Element, threshold uint64, rand io.Reader) (
	[2]*IntervalKey, error) {

	limit := field.New(threshold).Mul(field.New(threshold))
	return NewIntervalKeys(r, limit.Neg(), limit.Uint64()+1, rand)
}

// ThresholdInput returns the threshold key input for the masked
// squared distance: the masked value minus threshold².
func ThresholdInput(masked field.Element, threshold uint64) field.Element {
	limit := field.New(threshold).Mul(field.New(threshold))
	return masked.Sub(limit)
}
