//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package quickpool

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/quickpool/circuit"
	"github.com/markkurossi/quickpool/env"
	"github.com/markkurossi/quickpool/field"
	"github.com/markkurossi/quickpool/p2p"
	"github.com/markkurossi/quickpool/party"
	"go.uber.org/zap"
)

// OnlineEvaluator evaluates the circuit over masked wire values. Each
// wire w holds the value x+λ where x is the plaintext value and λ is
// the wire mask from the preprocessing. Riders and drivers exchange
// masked values only with their pair peers; the coordinator takes
// part only in the output reconstruction.
type OnlineEvaluator struct {
	base
	preproc *PreprocCircuit
	wires   []field.Element
	known   []bool
}

// NewOnlineEvaluator creates a new online evaluator. The evaluator
// takes the ownership of the preprocessing.
func NewOnlineEvaluator(id party.ID, roles party.Roles,
	transport p2p.Transport, circ *circuit.Levelized,
	preproc *PreprocCircuit, config *env.Config) (*OnlineEvaluator, error) {

	b, err := newBase(id, roles, transport, circ, config, "online")
	if err != nil {
		return nil, err
	}
	if preproc == nil || len(preproc.Gates) != circ.NumWires {
		return nil, errors.Newf("preprocessing does not match circuit")
	}
	return &OnlineEvaluator{
		base:    b,
		preproc: preproc,
		wires:   make([]field.Element, circ.NumWires),
		known:   make([]bool, circ.NumWires),
	}, nil
}

// Run runs the online phase: it sets the party's inputs, evaluates
// all levels, and reconstructs the outputs.
func (ev *OnlineEvaluator) Run(inputs map[circuit.Wire]field.Element) (
	[]field.Element, error) {

	if err := ev.SetInputs(inputs); err != nil {
		return nil, err
	}
	for l := range ev.circ.Levels {
		if err := ev.EvaluateLevel(l); err != nil {
			return nil, err
		}
	}
	return ev.Outputs()
}

// SetInputs sends the party's masked input values to the pair peers
// and receives the peers' masked inputs.
func (ev *OnlineEvaluator) SetInputs(
	inputs map[circuit.Wire]field.Element) error {

	return ev.setInputs(func(w circuit.Wire) (field.Element, error) {
		v, ok := inputs[w]
		if !ok {
			return 0, errors.Newf("no value for input wire %v", w)
		}
		return v, nil
	})
}

// SetRandomInputs sets the party's inputs to random values.
func (ev *OnlineEvaluator) SetRandomInputs(rand io.Reader) error {
	return ev.setInputs(func(w circuit.Wire) (field.Element, error) {
		return field.Random(rand)
	})
}

func (ev *OnlineEvaluator) setInputs(
	value func(w circuit.Wire) (field.Element, error)) error {

	if ev.role == party.RoleCoordinator || len(ev.circ.Levels) == 0 {
		return nil
	}

	send := make(map[party.ID][]field.Element)
	recv := make(map[party.ID][]circuit.Wire)

	for _, g := range ev.circ.Levels[0] {
		if g.Op != circuit.INP || !ev.member(g.Pair) {
			continue
		}
		pg := &ev.preproc.Gates[g.Output]
		peer := g.Pair.Peer(ev.id)

		if pg.Dealer == ev.id {
			x, err := value(g.Output)
			if err != nil {
				return err
			}
			w := pg.MaskValue.Add(x)
			ev.setWire(g.Output, w)
			send[peer] = append(send[peer], w)
		} else {
			recv[peer] = append(recv[peer], g.Output)
		}
	}

	for _, peer := range sortedPeers(send) {
		conn, err := ev.conn(peer)
		if err != nil {
			return err
		}
		if err := conn.SendElements(send[peer]); err != nil {
			return errors.Wrapf(err, "send inputs to %d", peer)
		}
	}
	if err := ev.transport.FlushAll(); err != nil {
		return err
	}
	for _, peer := range sortedPeers(recv) {
		conn, err := ev.conn(peer)
		if err != nil {
			return err
		}
		values, err := conn.ReceiveElementsN(len(recv[peer]))
		if err != nil {
			return errors.Wrapf(err, "receive inputs from %d", peer)
		}
		for i, w := range recv[peer] {
			ev.setWire(w, values[i])
		}
	}
	ev.Debugf("inputs: sent to %d, received from %d peers\n",
		len(send), len(recv))

	return nil
}

func (ev *OnlineEvaluator) setWire(w circuit.Wire, v field.Element) {
	ev.wires[w] = v
	ev.known[w] = true
}

func (ev *OnlineEvaluator) wire(w circuit.Wire) (field.Element, error) {
	if !ev.known[w] {
		return 0, errors.AssertionFailedf("wire %v not evaluated", w)
	}
	return ev.wires[w], nil
}

// EvaluateLevel evaluates the circuit level. The level proceeds in
// four strictly ordered steps: the party sends its multiplication
// partials to the pair peers, flushes all connections, receives the
// peers' partials, and reconstructs the level's wire values.
func (ev *OnlineEvaluator) EvaluateLevel(l int) error {
	if ev.role == party.RoleCoordinator {
		return nil
	}
	if l < 0 || l >= len(ev.circ.Levels) {
		return errors.Newf("invalid level %d", l)
	}
	level := ev.circ.Levels[l]

	// Send.
	partials := make(map[circuit.Wire]field.Element)
	send := make(map[party.ID][]field.Element)
	order := make(map[party.ID][]circuit.Wire)

	for _, op := range []circuit.Operation{circuit.MUL, circuit.DOTP} {
		for i := range level {
			g := &level[i]
			if g.Op != op || !ev.member(g.Pair) {
				continue
			}
			q, err := ev.partial(g)
			if err != nil {
				return err
			}
			peer := g.Pair.Peer(ev.id)
			partials[g.Output] = q
			send[peer] = append(send[peer], q)
			order[peer] = append(order[peer], g.Output)
		}
	}
	for _, peer := range sortedPeers(send) {
		conn, err := ev.conn(peer)
		if err != nil {
			return err
		}
		if err := conn.SendElements(send[peer]); err != nil {
			return errors.Wrapf(err, "level %d: send to %d", l, peer)
		}
	}

	// Flush.
	if err := ev.transport.FlushAll(); err != nil {
		return errors.Wrapf(err, "level %d", l)
	}

	// Receive.
	for _, peer := range sortedPeers(order) {
		conn, err := ev.conn(peer)
		if err != nil {
			return err
		}
		values, err := conn.ReceiveElementsN(len(order[peer]))
		if err != nil {
			return errors.Wrapf(err, "level %d: receive from %d", l, peer)
		}
		for i, w := range order[peer] {
			partials[w] = partials[w].Add(values[i])
		}
	}

	// Reconstruct.
	for i := range level {
		g := &level[i]
		if !ev.member(g.Pair) {
			continue
		}
		if err := ev.reconstruct(g, partials); err != nil {
			return errors.Wrapf(err, "level %d", l)
		}
	}
	ev.log.Debug("level evaluated", zap.Int("level", l),
		zap.Int("gates", len(level)), zap.Int("peers", len(order)))

	return nil
}

// partial computes the party's share of the masked product:
//
//	λz + λxλy - Σ(λx·wy + λy·wx) [+ Σ wx·wy]
//
// where the last term is added only by the rider.
func (ev *OnlineEvaluator) partial(g *circuit.Gate) (field.Element, error) {
	pg := &ev.preproc.Gates[g.Output]
	q := pg.Mask.Add(pg.MaskProd)

	left, right := operands(g)
	var prod field.Element
	for i := range left {
		wl, err := ev.wire(left[i])
		if err != nil {
			return 0, err
		}
		wr, err := ev.wire(right[i])
		if err != nil {
			return 0, err
		}
		ml := ev.preproc.Gates[left[i]].Mask
		mr := ev.preproc.Gates[right[i]].Mask

		q = q.Sub(ml.Mul(wr)).Sub(mr.Mul(wl))
		prod = prod.Add(wl.Mul(wr))
	}
	return q.AddConst(prod, ev.id, g.Pair.Rider).Value(), nil
}

func (ev *OnlineEvaluator) reconstruct(g *circuit.Gate,
	partials map[circuit.Wire]field.Element) error {

	var result field.Element

	switch g.Op {
	case circuit.INP:
		_, err := ev.wire(g.Output)
		return err

	case circuit.ADD, circuit.SUB:
		w0, err := ev.wire(g.Input0)
		if err != nil {
			return err
		}
		w1, err := ev.wire(g.Input1)
		if err != nil {
			return err
		}
		if g.Op == circuit.ADD {
			result = w0.Add(w1)
		} else {
			result = w0.Sub(w1)
		}

	case circuit.CADD, circuit.CMUL:
		w0, err := ev.wire(g.Input0)
		if err != nil {
			return err
		}
		if g.Op == circuit.CADD {
			result = w0.Add(g.Const)
		} else {
			result = w0.Mul(g.Const)
		}

	case circuit.MUL, circuit.DOTP:
		v, ok := partials[g.Output]
		if !ok {
			return errors.AssertionFailedf("no partial for %v", g.Output)
		}
		result = v

	default:
		return errors.AssertionFailedf("invalid gate %v", g.Op)
	}
	ev.setWire(g.Output, result)
	return nil
}

// MaskedWires returns the masked values of all wires. Wires outside
// the party's pairs are zero.
func (ev *OnlineEvaluator) MaskedWires() []field.Element {
	return append([]field.Element(nil), ev.wires...)
}

// MaskedOutputs returns the masked values of the output wires in
// output order. Outputs outside the party's pairs are zero.
func (ev *OnlineEvaluator) MaskedOutputs() []field.Element {
	result := make([]field.Element, len(ev.circ.Outputs))
	for i, w := range ev.circ.Outputs {
		result[i] = ev.wires[w]
	}
	return result
}

// OutputMasks returns the plaintext output wire masks. Only the
// coordinator knows the masks.
func (ev *OnlineEvaluator) OutputMasks() ([]field.Element, error) {
	if ev.role != party.RoleCoordinator {
		return nil, errors.AssertionFailedf("%v has no output masks", ev.role)
	}
	result := make([]field.Element, len(ev.circ.Outputs))
	for i, w := range ev.circ.Outputs {
		result[i] = ev.preproc.Gates[w].TPMask.Secret()
	}
	return result, nil
}

// Outputs reconstructs the circuit outputs. The riders send their
// masked outputs to the coordinator, which removes the output masks.
// The coordinator returns the plaintext outputs and the riders and
// drivers return their masked outputs.
func (ev *OnlineEvaluator) Outputs() ([]field.Element, error) {
	owned := make(map[party.ID][]int)
	for i, w := range ev.circ.Outputs {
		rider := ev.circ.Owners[w].Rider
		owned[rider] = append(owned[rider], i)
	}

	switch ev.role {
	case party.RoleRider:
		conn, err := ev.conn(party.Coordinator)
		if err != nil {
			return nil, err
		}
		var values []field.Element
		for _, i := range owned[ev.id] {
			values = append(values, ev.wires[ev.circ.Outputs[i]])
		}
		if len(values) > 0 {
			if err := conn.SendElements(values); err != nil {
				return nil, errors.Wrap(err, "send outputs")
			}
			if err := ev.transport.Flush(int(party.Coordinator)); err != nil {
				return nil, err
			}
		}
		return ev.MaskedOutputs(), nil

	case party.RoleDriver:
		return ev.MaskedOutputs(), nil

	case party.RoleCoordinator:
		result := make([]field.Element, len(ev.circ.Outputs))
		for _, rider := range sortedPeers(owned) {
			conn, err := ev.conn(rider)
			if err != nil {
				return nil, err
			}
			values, err := conn.ReceiveElementsN(len(owned[rider]))
			if err != nil {
				return nil, errors.Wrapf(err, "receive outputs from %d",
					rider)
			}
			for j, i := range owned[rider] {
				mask := ev.preproc.Gates[ev.circ.Outputs[i]].TPMask.Secret()
				result[i] = values[j].Sub(mask)
			}
		}
		return result, nil

	default:
		return nil, errors.AssertionFailedf("party %d has role %v",
			ev.id, ev.role)
	}
}
