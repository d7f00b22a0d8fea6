//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package quickpool implements the ride-matching secure computation
// protocol. The coordinator acts as a trusted dealer for the offline
// preprocessing and every rider-driver pair evaluates its part of the
// arithmetic circuit online over masked wire values. The masked
// squared distances are compared against the thresholds with
// distributed comparison functions and the coordinator computes the
// maximum matching of the resulting match matrix.
package quickpool

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/quickpool/circuit"
	"github.com/markkurossi/quickpool/env"
	"github.com/markkurossi/quickpool/p2p"
	"github.com/markkurossi/quickpool/party"
	"go.uber.org/zap"
)

// base holds the party state common to all protocol phases.
type base struct {
	id        party.ID
	roles     party.Roles
	role      party.Role
	transport p2p.Transport
	circ      *circuit.Levelized
	config    *env.Config
	log       *zap.Logger
}

func newBase(id party.ID, roles party.Roles, transport p2p.Transport,
	circ *circuit.Levelized, config *env.Config, phase string) (base, error) {

	role := roles.Role(id)
	if role == party.RoleInvalid {
		return base{}, errors.Newf("invalid party %d for roles %d*%d",
			id, roles.Riders, roles.Drivers)
	}
	if transport.ID() != int(id) {
		return base{}, errors.Newf("transport of party %d used by party %d",
			transport.ID(), id)
	}
	if config == nil {
		config = new(env.Config)
	}
	return base{
		id:        id,
		roles:     roles,
		role:      role,
		transport: transport,
		circ:      circ,
		config:    config,
		log: config.GetLogger().With(
			zap.Int("party", int(id)),
			zap.String("role", role.String()),
			zap.String("phase", phase)),
	}, nil
}

// Debugf prints a debug trace message prefixed with the party name.
func (b *base) Debugf(format string, a ...interface{}) {
	b.config.Debugf(b.roles.Name(b.id)+": "+format, a...)
}

func (b *base) conn(peer party.ID) (*p2p.Conn, error) {
	return b.transport.Peer(int(peer))
}

// involved tests if the party takes part in the gate's pair.
func (b *base) involved(pair party.Pair) bool {
	return pair.Involves(b.id)
}

// member tests if the party is the rider or the driver of the pair.
func (b *base) member(pair party.Pair) bool {
	return pair.Member(b.id)
}

// participants returns the riders and drivers of the circuit's pairs
// in ascending order.
func participants(circ *circuit.Levelized) []party.ID {
	seen := make(map[party.ID]bool)
	for _, level := range circ.Levels {
		for _, g := range level {
			seen[g.Pair.Rider] = true
			seen[g.Pair.Driver] = true
		}
	}
	var result []party.ID
	for id := range seen {
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i] < result[j]
	})
	return result
}

// active tests if the party takes part in the circuit.
func (b *base) active() bool {
	if b.role == party.RoleCoordinator {
		return b.circ.NumGates > 0
	}
	for _, id := range participants(b.circ) {
		if id == b.id {
			return true
		}
	}
	return false
}

// sortedPeers returns the keys of the peer map in ascending order.
func sortedPeers[V any](m map[party.ID]V) []party.ID {
	var result []party.ID
	for id := range m {
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i] < result[j]
	})
	return result
}
