//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package prg

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/curve25519"
)

// KeyPair is an X25519 key pair for agreeing on pair stream keys.
type KeyPair struct {
	private [curve25519.ScalarSize]byte
	Public  [curve25519.PointSize]byte
}

// NewKeyPair creates a new key pair from the random source.
func NewKeyPair(rand io.Reader) (*KeyPair, error) {
	kp := new(KeyPair)
	if _, err := io.ReadFull(rand, kp.private[:]); err != nil {
		return nil, errors.Wrap(err, "prg: key pair")
	}
	pub, err := curve25519.X25519(kp.private[:], curve25519.Basepoint)
	if err != nil {
		return nil, errors.Wrap(err, "prg: key pair")
	}
	copy(kp.Public[:], pub)
	return kp, nil
}

// Agree computes the secret shared with the owner of the peer public
// key.
func (kp *KeyPair) Agree(peer []byte) ([]byte, error) {
	if len(peer) != curve25519.PointSize {
		return nil, errors.Newf("prg: invalid public key length %d",
			len(peer))
	}
	shared, err := curve25519.X25519(kp.private[:], peer)
	if err != nil {
		return nil, errors.Wrap(err, "prg: key agreement")
	}
	return shared, nil
}

// PairLabel returns the key derivation label of the stream shared by
// parties a and b.
func PairLabel(a, b int) string {
	return fmt.Sprintf("pair %d %d", min(a, b), max(a, b))
}

// RandomKey reads a random key from the random source.
func RandomKey(rand io.Reader) (Key, error) {
	var key Key
	if _, err := io.ReadFull(rand, key[:]); err != nil {
		return key, errors.Wrap(err, "prg: random key")
	}
	return key, nil
}

// Xor returns k XOR o.
func (k Key) Xor(o Key) Key {
	var result Key
	for i := range k {
		result[i] = k[i] ^ o[i]
	}
	return result
}
