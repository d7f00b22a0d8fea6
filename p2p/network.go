//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"net"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Network implements peer-to-peer network over TCP.
type Network struct {
	id       int
	m        sync.Mutex
	c        *sync.Cond
	peers    map[int]*Conn
	listener net.Listener
	log      *zap.Logger
}

// NewNetwork creats a new peer-to-peer network listening at addr.
func NewNetwork(addr string, id int, log *zap.Logger) (*Network, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s", addr)
	}
	nw := &Network{
		id:       id,
		peers:    make(map[int]*Conn),
		listener: listener,
		log:      log.With(zap.Int("party", id)),
	}
	nw.c = sync.NewCond(&nw.m)
	go nw.acceptLoop()
	return nw, nil
}

// Addr returns the network listener address.
func (nw *Network) Addr() net.Addr {
	return nw.listener.Addr()
}

// Close closes the network listener and all peer connections.
func (nw *Network) Close() error {
	err := nw.listener.Close()

	nw.m.Lock()
	defer nw.m.Unlock()
	for id, conn := range nw.peers {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close peer %d", id)
		}
	}
	return err
}

// Connect connects the network to the peers. The party dials peers
// with smaller IDs and waits for peers with larger IDs to dial in.
func (nw *Network) Connect(addrs map[int]string) error {
	for id, addr := range addrs {
		if id < nw.id {
			if err := nw.AddPeer(addr, id); err != nil {
				return err
			}
		}
	}
	nw.m.Lock()
	defer nw.m.Unlock()
	for len(nw.peers) < len(addrs) {
		nw.c.Wait()
	}
	return nil
}

// AddPeer adds a peer to the network.
func (nw *Network) AddPeer(addr string, id int) error {
	for {
		// Check if we have already accepted peer `id`.
		nw.m.Lock()
		_, ok := nw.peers[id]
		nw.m.Unlock()
		if ok {
			return nil
		}

		nw.log.Debug("connecting", zap.Int("peer", id), zap.String("addr", addr))
		nc, err := net.Dial("tcp", addr)
		if err != nil {
			delay := 5 * time.Second
			nw.log.Info("connect failed, retrying",
				zap.String("addr", addr), zap.Duration("delay", delay),
				zap.Error(err))
			<-time.After(delay)
			continue
		}
		conn := NewConn(nc)

		if err := conn.SendUint32(nw.id); err != nil {
			conn.Close()
			return errors.Wrapf(err, "handshake with %d", id)
		}
		if err := conn.Flush(); err != nil {
			conn.Close()
			return errors.Wrapf(err, "handshake with %d", id)
		}
		nw.newPeer(conn, id)
	}
}

func (nw *Network) acceptLoop() {
	for {
		nc, err := nw.listener.Accept()
		if err != nil {
			nw.log.Debug("accept loop stopped", zap.Error(err))
			return
		}
		conn := NewConn(nc)

		// Read peer ID.
		id, err := conn.ReceiveUint32()
		if err != nil {
			nw.log.Warn("handshake failed", zap.Error(err))
			conn.Close()
			continue
		}
		nw.newPeer(conn, id)
	}
}

func (nw *Network) newPeer(conn *Conn, id int) {
	nw.m.Lock()
	defer nw.m.Unlock()

	if _, ok := nw.peers[id]; ok {
		nw.log.Warn("peer already connected", zap.Int("peer", id))
		conn.Close()
		return
	}
	nw.peers[id] = conn
	nw.c.Broadcast()
	nw.log.Info("peer connected", zap.Int("peer", id))
}

// ID implements Transport.ID.
func (nw *Network) ID() int {
	return nw.id
}

// Peer implements Transport.Peer.
func (nw *Network) Peer(id int) (*Conn, error) {
	nw.m.Lock()
	defer nw.m.Unlock()

	conn, ok := nw.peers[id]
	if !ok {
		return nil, errors.Newf("p2p: party %d has no peer %d", nw.id, id)
	}
	return conn, nil
}

// Flush implements Transport.Flush.
func (nw *Network) Flush(id int) error {
	conn, err := nw.Peer(id)
	if err != nil {
		return err
	}
	return errors.Wrapf(conn.Flush(), "flush %d->%d", nw.id, id)
}

// FlushAll implements Transport.FlushAll.
func (nw *Network) FlushAll() error {
	nw.m.Lock()
	var ids []int
	for id := range nw.peers {
		ids = append(ids, id)
	}
	nw.m.Unlock()

	for _, id := range ids {
		if err := nw.Flush(id); err != nil {
			return err
		}
	}
	return nil
}

// Stats implements Transport.Stats.
func (nw *Network) Stats() IOStats {
	nw.m.Lock()
	defer nw.m.Unlock()

	result := NewIOStats()
	for _, conn := range nw.peers {
		result = result.Add(conn.Stats)
	}
	return result
}
