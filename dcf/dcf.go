//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package dcf implements distributed comparison functions. A DCF key
// pair shares the function f(x) = β if x < α and 0 otherwise, such
// that the evaluations of the two keys at x sum to f(x) while each key
// alone reveals nothing about α or β. The construction follows Boyle
// et al., "Function Secret Sharing for Mixed-Mode and Fixed-Point
// Secure Computation", with the prime field as the output group.
package dcf

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/quickpool/field"
)

// CorrectionWord is the per-level correction word of a key.
type CorrectionWord struct {
	Seed Seed
	V    field.Element
	TL   bool
	TR   bool
}

// Key is one party's DCF key.
type Key struct {
	Party byte
	Seed  Seed
	CW    []CorrectionWord
	Final field.Element
}

// Bits returns the domain size of the key in bits.
func (k *Key) Bits() int {
	return len(k.CW)
}

func sign(t bool, v field.Element) field.Element {
	if t {
		return v.Neg()
	}
	return v
}

func bit(x uint64, bits, i int) bool {
	return (x>>(bits-1-i))&1 != 0
}

// Gen creates a key pair for the comparison function 1{x<alpha}·beta
// over the bits-bit input domain.
func Gen(alpha uint64, beta field.Element, bits int, rand io.Reader) (
	*Key, *Key, error) {

	if bits <= 0 || bits > 64 || (bits < 64 && alpha>>bits != 0) {
		return nil, nil, errors.Newf("dcf: alpha %x outside %d-bit domain",
			alpha, bits)
	}

	var s [2]Seed
	for b := 0; b < 2; b++ {
		if _, err := io.ReadFull(rand, s[b][:]); err != nil {
			return nil, nil, errors.Wrap(err, "dcf: seed")
		}
	}
	k0 := &Key{
		Party: 0,
		Seed:  s[0],
		CW:    make([]CorrectionWord, bits),
	}
	k1 := &Key{
		Party: 1,
		Seed:  s[1],
		CW:    make([]CorrectionWord, bits),
	}

	t := [2]bool{false, true}
	var vAlpha field.Element

	for i := 0; i < bits; i++ {
		e := [2]expansion{expand(s[0]), expand(s[1])}

		keep, lose := 0, 1
		ai := bit(alpha, bits, i)
		if ai {
			keep, lose = 1, 0
		}

		cw := &k0.CW[i]
		cw.Seed = e[0].s[lose].xor(e[1].s[lose])

		v := convert(e[1].v[lose]).Sub(convert(e[0].v[lose])).Sub(vAlpha)
		if lose == 0 {
			v = v.Add(beta)
		}
		cw.V = sign(t[1], v)

		vAlpha = vAlpha.Sub(convert(e[1].v[keep])).
			Add(convert(e[0].v[keep])).
			Add(sign(t[1], cw.V))

		cw.TL = !(e[0].t[0] != e[1].t[0] != ai)
		cw.TR = e[0].t[1] != e[1].t[1] != ai

		tKeep := cw.TL
		if keep == 1 {
			tKeep = cw.TR
		}
		for b := 0; b < 2; b++ {
			next := e[b].s[keep]
			if t[b] {
				next = next.xor(cw.Seed)
			}
			s[b] = next
			t[b] = e[b].t[keep] != (t[b] && tKeep)
		}
	}
	final := sign(t[1], convert(s[1]).Sub(convert(s[0])).Sub(vAlpha))

	copy(k1.CW, k0.CW)
	k0.Final = final
	k1.Final = final

	return k0, k1, nil
}

// Eval evaluates the key at x. The result is the party's additive
// share of the comparison function value.
func (k *Key) Eval(x uint64) field.Element {
	bits := len(k.CW)
	party := k.Party != 0

	s := k.Seed
	t := party
	var v field.Element

	for i := 0; i < bits; i++ {
		cw := &k.CW[i]
		e := expand(s)
		if t {
			e.s[0] = e.s[0].xor(cw.Seed)
			e.s[1] = e.s[1].xor(cw.Seed)
			e.t[0] = e.t[0] != cw.TL
			e.t[1] = e.t[1] != cw.TR
		}
		dir := 0
		if bit(x, bits, i) {
			dir = 1
		}
		term := convert(e.v[dir])
		if t {
			term = term.Add(cw.V)
		}
		v = v.Add(sign(party, term))
		s = e.s[dir]
		t = e.t[dir]
	}
	term := convert(s)
	if t {
		term = term.Add(k.Final)
	}
	return v.Add(sign(party, term))
}

const cwSize = SeedSize + field.Size + 1

// MarshalBinary encodes the key.
func (k *Key) MarshalBinary() ([]byte, error) {
	buf := make([]byte, Size(len(k.CW)))
	buf[0] = k.Party
	buf[1] = byte(len(k.CW))
	ofs := 2
	ofs += copy(buf[ofs:], k.Seed[:])
	for _, cw := range k.CW {
		ofs += copy(buf[ofs:], cw.Seed[:])
		cw.V.PutBytes(buf[ofs:])
		ofs += field.Size
		var flags byte
		if cw.TL {
			flags |= 1
		}
		if cw.TR {
			flags |= 2
		}
		buf[ofs] = flags
		ofs++
	}
	k.Final.PutBytes(buf[ofs:])
	return buf, nil
}

// UnmarshalBinary decodes the key.
func (k *Key) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return errors.New("dcf: truncated key")
	}
	bits := int(data[1])
	if len(data) != Size(bits) {
		return errors.Newf("dcf: invalid key length %d for %d bits",
			len(data), bits)
	}
	if data[0] > 1 {
		return errors.Newf("dcf: invalid key party %d", data[0])
	}
	k.Party = data[0]
	ofs := 2
	ofs += copy(k.Seed[:], data[ofs:])
	k.CW = make([]CorrectionWord, bits)
	for i := range k.CW {
		cw := &k.CW[i]
		ofs += copy(cw.Seed[:], data[ofs:])
		if err := cw.V.SetBytes(data[ofs:]); err != nil {
			return errors.Wrapf(err, "dcf: correction word %d", i)
		}
		ofs += field.Size
		cw.TL = data[ofs]&1 != 0
		cw.TR = data[ofs]&2 != 0
		ofs++
	}
	return errors.Wrap(k.Final.SetBytes(data[ofs:]), "dcf: final word")
}

// Size returns the encoded size of a key over the bits-bit domain.
func Size(bits int) int {
	return 2 + SeedSize + bits*cwSize + field.Size
}
