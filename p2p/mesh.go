//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// Transport provides ordered, full-duplex connections from one party
// to its peers. Peers are addressed with integer party IDs.
type Transport interface {
	// ID returns the local party ID.
	ID() int
	// Peer returns the connection to the peer.
	Peer(id int) (*Conn, error)
	// Flush flushes the connection to the peer.
	Flush(id int) error
	// FlushAll flushes all peer connections.
	FlushAll() error
	// Stats returns the combined I/O statistics of all peers.
	Stats() IOStats
}

var (
	_ Transport = &Mesh{}
	_ Transport = &Network{}
)

// Mesh is a static set of peer connections.
type Mesh struct {
	id    int
	conns map[int]*Conn
}

// NewMesh creates a mesh for party id from the peer connections.
func NewMesh(id int, conns map[int]*Conn) *Mesh {
	return &Mesh{
		id:    id,
		conns: conns,
	}
}

// NewPipeMeshes creates fully connected in-memory meshes for n
// parties. Mesh i is the view of party i.
func NewPipeMeshes(n int) []*Mesh {
	result := make([]*Mesh, n)
	for i := range result {
		result[i] = NewMesh(i, make(map[int]*Conn))
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			ci, cj := Pipe()
			result[i].conns[j] = ci
			result[j].conns[i] = cj
		}
	}
	return result
}

// ID implements Transport.ID.
func (m *Mesh) ID() int {
	return m.id
}

// Peer implements Transport.Peer.
func (m *Mesh) Peer(id int) (*Conn, error) {
	conn, ok := m.conns[id]
	if !ok {
		return nil, errors.Newf("p2p: party %d has no peer %d", m.id, id)
	}
	return conn, nil
}

// Flush implements Transport.Flush.
func (m *Mesh) Flush(id int) error {
	conn, err := m.Peer(id)
	if err != nil {
		return err
	}
	return errors.Wrapf(conn.Flush(), "flush %d->%d", m.id, id)
}

// FlushAll implements Transport.FlushAll.
func (m *Mesh) FlushAll() error {
	for _, id := range m.Peers() {
		if err := m.Flush(id); err != nil {
			return err
		}
	}
	return nil
}

// Peers returns the peer IDs in ascending order.
func (m *Mesh) Peers() []int {
	var result []int
	for id := range m.conns {
		result = append(result, id)
	}
	sort.Ints(result)
	return result
}

// Stats implements Transport.Stats.
func (m *Mesh) Stats() IOStats {
	result := NewIOStats()
	for _, conn := range m.conns {
		result = result.Add(conn.Stats)
	}
	return result
}

// Close closes all peer connections.
func (m *Mesh) Close() error {
	var result error
	for _, id := range m.Peers() {
		if err := m.conns[id].Close(); err != nil && result == nil {
			result = errors.Wrapf(err, "close %d->%d", m.id, id)
		}
	}
	return result
}
