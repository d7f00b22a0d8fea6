//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package prg implements the random generator pool. Each party holds
// a private stream, one stream shared with every other party, and a
// stream shared by all parties. Parties sharing a stream derive
// identical values without communication as long as they consume the
// stream in the same order.
package prg

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/quickpool/field"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the stream key size in bytes.
const KeySize = chacha20.KeySize

// Key is a stream key.
type Key [KeySize]byte

// Stream is a deterministic ChaCha20 keystream.
type Stream struct {
	cipher *chacha20.Cipher
}

// NewStream creates a new stream from the key.
func NewStream(key Key) (*Stream, error) {
	var nonce [chacha20.NonceSize]byte
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return nil, err
	}
	return &Stream{
		cipher: c,
	}, nil
}

// Read implements io.Reader. It fills data with keystream bytes.
func (s *Stream) Read(data []byte) (int, error) {
	clear(data)
	s.cipher.XORKeyStream(data, data)
	return len(data), nil
}

// Element returns the next uniformly random field element.
func (s *Stream) Element() field.Element {
	v, err := field.Random(s)
	if err != nil {
		// Stream.Read never fails.
		panic(err)
	}
	return v
}

// Elements returns the next n field elements.
func (s *Stream) Elements(n int) []field.Element {
	result := make([]field.Element, n)
	for i := range result {
		result[i] = s.Element()
	}
	return result
}

// Pool holds the party's keyed streams.
type Pool struct {
	id    int
	self  *Stream
	all   *Stream
	peers map[int]*Stream
}

// NewPool derives the streams of party id in a computation of
// numParties parties from the shared seed. All parties must use the
// same seed. Every holder of the seed can derive every stream so the
// pool is only suitable when all parties run in a single trust
// domain, such as a local simulation. Distributed parties agree on
// their keys with KeyPair and create the pool with NewPoolFromKeys.
func NewPool(id, numParties int, seed []byte) (*Pool, error) {
	if id < 0 || id >= numParties {
		return nil, errors.Newf("prg: invalid party %d/%d", id, numParties)
	}
	self, err := DeriveKey(seed, fmt.Sprintf("self %d", id))
	if err != nil {
		return nil, err
	}
	all, err := DeriveKey(seed, "all")
	if err != nil {
		return nil, err
	}
	peers := make(map[int]Key)
	for i := 0; i < numParties; i++ {
		if i == id {
			continue
		}
		peers[i], err = DeriveKey(seed, PairLabel(id, i))
		if err != nil {
			return nil, err
		}
	}
	return NewPoolFromKeys(id, self, all, peers)
}

// NewPoolFromKeys creates the pool from explicit keys.
func NewPoolFromKeys(id int, self, all Key, peers map[int]Key) (
	*Pool, error) {

	pool := &Pool{
		id:    id,
		peers: make(map[int]*Stream),
	}
	var err error

	pool.self, err = NewStream(self)
	if err != nil {
		return nil, err
	}
	pool.all, err = NewStream(all)
	if err != nil {
		return nil, err
	}
	for i, key := range peers {
		pool.peers[i], err = NewStream(key)
		if err != nil {
			return nil, err
		}
	}
	return pool, nil
}

// DeriveKey derives a stream key from the seed and the domain
// separation label.
func DeriveKey(seed []byte, label string) (Key, error) {
	var key Key
	r := hkdf.New(sha256.New, seed, []byte("quickpool prg"), []byte(label))
	if _, err := io.ReadFull(r, key[:]); err != nil {
		return key, errors.Wrap(err, "prg: derive key")
	}
	return key, nil
}

// SeedFromUint64 encodes the integer as a seed.
func SeedFromUint64(v uint64) []byte {
	var seed [8]byte
	binary.BigEndian.PutUint64(seed[:], v)
	return seed[:]
}

// ID returns the pool's party ID.
func (p *Pool) ID() int {
	return p.id
}

// Self returns the party's private stream.
func (p *Pool) Self() *Stream {
	return p.self
}

// All returns the stream shared by all parties.
func (p *Pool) All() *Stream {
	return p.all
}

// Peer returns the stream shared with the party i. The function
// panics if the pool has no stream for the party.
func (p *Pool) Peer(i int) *Stream {
	s, ok := p.peers[i]
	if !ok {
		panic(fmt.Sprintf("prg: party %d has no stream with %d", p.id, i))
	}
	return s
}
