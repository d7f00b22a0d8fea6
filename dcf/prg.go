//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

package dcf

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/markkurossi/quickpool/field"
)

// SeedSize is the size of the tree node seed in bytes.
const SeedSize = 16

// Seed is a tree node seed.
type Seed [SeedSize]byte

func (s Seed) xor(o Seed) Seed {
	for i := range s {
		s[i] ^= o[i]
	}
	return s
}

// convert maps a seed or a value block into the output group.
func convert(s Seed) field.Element {
	return field.FromRandomBytes(s[:8])
}

// expansion holds one node's expanded children.
type expansion struct {
	s [2]Seed
	v [2]Seed
	t [2]bool
}

const expansionSize = 4*SeedSize + 1

// expand is the length-doubling PRG G(s) = sL||vL||tL||sR||vR||tR. It
// runs AES-128 in counter mode keyed with the seed.
func expand(seed Seed) expansion {
	block, err := aes.NewCipher(seed[:])
	if err != nil {
		panic(err)
	}

	var iv [16]byte
	stream := cipher.NewCTR(block, iv[:])

	var buf [expansionSize]byte
	stream.XORKeyStream(buf[:], buf[:])

	var e expansion
	copy(e.s[0][:], buf[0:])
	copy(e.v[0][:], buf[SeedSize:])
	copy(e.s[1][:], buf[2*SeedSize:])
	copy(e.v[1][:], buf[3*SeedSize:])
	e.t[0] = buf[4*SeedSize]&1 != 0
	e.t[1] = buf[4*SeedSize]&2 != 0

	return e
}
