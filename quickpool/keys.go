//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package quickpool

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/quickpool/p2p"
	"github.com/markkurossi/quickpool/party"
	"github.com/markkurossi/quickpool/prg"
)

// ExchangeKeys agrees on the party's generator keys with all other
// parties over the transport. Every pair of parties runs an X25519
// key agreement so a pair stream is known only by its two parties.
// The coordinator picks the key of the stream shared by all parties
// and sends it to each peer encrypted under their shared secret. All
// parties must call ExchangeKeys concurrently.
func ExchangeKeys(id party.ID, roles party.Roles, transport p2p.Transport,
	rand io.Reader) (*prg.Pool, error) {

	n := roles.NumParties()
	if int(id) < 0 || int(id) >= n {
		return nil, errors.Newf("invalid party %v", id)
	}
	kp, err := prg.NewKeyPair(rand)
	if err != nil {
		return nil, err
	}
	for peer := 0; peer < n; peer++ {
		if peer == int(id) {
			continue
		}
		conn, err := transport.Peer(peer)
		if err != nil {
			return nil, err
		}
		if err := conn.SendData(kp.Public[:]); err != nil {
			return nil, err
		}
	}
	if err := transport.FlushAll(); err != nil {
		return nil, err
	}

	peers := make(map[int]prg.Key)
	pads := make(map[int]prg.Key)
	for peer := 0; peer < n; peer++ {
		if peer == int(id) {
			continue
		}
		conn, err := transport.Peer(peer)
		if err != nil {
			return nil, err
		}
		pub, err := conn.ReceiveData()
		if err != nil {
			return nil, err
		}
		shared, err := kp.Agree(pub)
		if err != nil {
			return nil, errors.Wrapf(err, "party %d", peer)
		}
		peers[peer], err = prg.DeriveKey(shared, prg.PairLabel(int(id), peer))
		if err != nil {
			return nil, err
		}
		pads[peer], err = prg.DeriveKey(shared,
			fmt.Sprintf("all %d", max(int(id), peer)))
		if err != nil {
			return nil, err
		}
	}

	self, err := prg.RandomKey(rand)
	if err != nil {
		return nil, err
	}
	var all prg.Key
	if id == party.Coordinator {
		all, err = prg.RandomKey(rand)
		if err != nil {
			return nil, err
		}
		for peer := 1; peer < n; peer++ {
			conn, err := transport.Peer(peer)
			if err != nil {
				return nil, err
			}
			ct := all.Xor(pads[peer])
			if err := conn.SendData(ct[:]); err != nil {
				return nil, err
			}
		}
		if err := transport.FlushAll(); err != nil {
			return nil, err
		}
	} else {
		conn, err := transport.Peer(int(party.Coordinator))
		if err != nil {
			return nil, err
		}
		data, err := conn.ReceiveData()
		if err != nil {
			return nil, err
		}
		if len(data) != prg.KeySize {
			return nil, errors.Newf("invalid key length %d", len(data))
		}
		var ct prg.Key
		copy(ct[:], data)
		all = ct.Xor(pads[int(party.Coordinator)])
	}
	return prg.NewPoolFromKeys(int(id), self, all, peers)
}
