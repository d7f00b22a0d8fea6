//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package quickpool

import (
	"github.com/cockroachdb/errors"
	"github.com/markkurossi/quickpool/circuit"
	"github.com/markkurossi/quickpool/env"
	"github.com/markkurossi/quickpool/field"
	"github.com/markkurossi/quickpool/p2p"
	"github.com/markkurossi/quickpool/party"
	"github.com/markkurossi/quickpool/prg"
	"github.com/markkurossi/quickpool/sharing"
	"go.uber.org/zap"
)

// OfflineEvaluator runs the preprocessing phase. The coordinator
// derives every wire mask from the random streams it shares with the
// riders and the drivers. The riders derive their mask components
// from their coordinator streams. The drivers' components of input
// masks and mask products are sent in one batch per driver.
type OfflineEvaluator struct {
	base
	pool    *prg.Pool
	preproc *PreprocCircuit
	outbox  *Outbox
	inbox   *Batch
}

// NewOfflineEvaluator creates a new offline evaluator for the party.
func NewOfflineEvaluator(id party.ID, roles party.Roles,
	transport p2p.Transport, circ *circuit.Levelized, pool *prg.Pool,
	config *env.Config) (*OfflineEvaluator, error) {

	b, err := newBase(id, roles, transport, circ, config, "offline")
	if err != nil {
		return nil, err
	}
	return &OfflineEvaluator{
		base: b,
		pool: pool,
	}, nil
}

// Run runs the preprocessing with the input wire ownership. The
// returned preprocessing is owned by the caller.
func (ev *OfflineEvaluator) Run(ownership map[circuit.Wire]party.ID) (
	*PreprocCircuit, error) {

	ev.preproc = NewPreprocCircuit(ev.circ.NumWires)
	defer func() {
		ev.preproc = nil
		ev.outbox = nil
		ev.inbox = nil
	}()

	if !ev.active() {
		return ev.preproc, nil
	}
	ev.log.Info("preprocessing", zap.Int("wires", ev.circ.NumWires),
		zap.Int("levels", len(ev.circ.Levels)))

	switch ev.role {
	case party.RoleCoordinator:
		ev.outbox = NewOutbox()
		if err := ev.maskPass(ownership); err != nil {
			return nil, err
		}
		var drivers []party.ID
		for _, id := range participants(ev.circ) {
			if ev.roles.IsDriver(id) {
				drivers = append(drivers, id)
			}
		}
		if err := ev.outbox.Send(ev.transport, drivers); err != nil {
			return nil, err
		}
		for _, d := range drivers {
			ev.log.Debug("sent batch", zap.Int("driver", int(d)),
				zap.Int("products", len(ev.outbox.Batch(d).Products)),
				zap.Int("inputs", len(ev.outbox.Batch(d).Inputs)))
		}

	case party.RoleRider:
		if err := ev.maskPass(ownership); err != nil {
			return nil, err
		}

	case party.RoleDriver:
		conn, err := ev.conn(party.Coordinator)
		if err != nil {
			return nil, err
		}
		// Each gate deals at most one value to the driver.
		ev.inbox, err = ReceiveBatch(conn, ev.circ.NumGates)
		if err != nil {
			return nil, errors.Wrap(err, "receive batch from coordinator")
		}
		ev.Debugf("received batch: %d products, %d inputs\n",
			len(ev.inbox.Products), len(ev.inbox.Inputs))
		if err := ev.maskPass(ownership); err != nil {
			return nil, err
		}
		if err := ev.inbox.Done(); err != nil {
			return nil, err
		}

	default:
		return nil, errors.AssertionFailedf("party %d has role %v",
			ev.id, ev.role)
	}
	return ev.preproc, nil
}

func (ev *OfflineEvaluator) maskPass(
	ownership map[circuit.Wire]party.ID) error {

	for _, level := range ev.circ.Levels {
		for i := range level {
			g := &level[i]
			if !ev.involved(g.Pair) {
				continue
			}
			var err error
			switch g.Op {
			case circuit.INP:
				err = ev.input(g, ownership)
			case circuit.ADD, circuit.SUB, circuit.CADD, circuit.CMUL:
				err = ev.linear(g)
			case circuit.MUL, circuit.DOTP:
				err = ev.product(g)
			default:
				err = errors.AssertionFailedf("invalid gate %v", g.Op)
			}
			if err != nil {
				return errors.Wrapf(err, "gate %v", g.Output)
			}
		}
	}
	return nil
}

// randomShare creates a random sharing of a fresh mask.
func (ev *OfflineEvaluator) randomShare(pair party.Pair) (
	sharing.AddShare, sharing.TPShare) {

	if ev.role == party.RoleCoordinator {
		tp := sharing.NewTPShare(
			ev.pool.Peer(int(pair.Rider)).Element(),
			ev.pool.Peer(int(pair.Driver)).Element())
		return tp.Component(sharing.CoordinatorComponent), tp
	}
	return sharing.NewAddShare(ev.pool.Peer(0).Element()), sharing.TPShare{}
}

// randomShareSecret shares the secret known to the coordinator. The
// rider's share is random and the driver receives secret minus the
// rider's share.
func (ev *OfflineEvaluator) randomShareSecret(pair party.Pair,
	secret field.Element) (sharing.AddShare, sharing.TPShare, error) {

	switch ev.role {
	case party.RoleCoordinator:
		v := ev.pool.Peer(int(pair.Rider)).Element()
		ev.outbox.AddProduct(pair.Driver, secret.Sub(v))
		tp := sharing.NewTPShare(v, secret.Sub(v))
		return tp.Component(sharing.CoordinatorComponent), tp, nil

	case party.RoleRider:
		return sharing.NewAddShare(ev.pool.Peer(0).Element()),
			sharing.TPShare{}, nil

	default:
		v, err := ev.inbox.NextProduct()
		if err != nil {
			return sharing.AddShare{}, sharing.TPShare{}, err
		}
		return sharing.NewAddShare(v), sharing.TPShare{}, nil
	}
}

func (ev *OfflineEvaluator) input(g *circuit.Gate,
	ownership map[circuit.Wire]party.ID) error {

	dealer, ok := ownership[g.Output]
	if !ok {
		return errors.Newf("input wire %v has no owner", g.Output)
	}
	if !g.Pair.Member(dealer) {
		return errors.AssertionFailedf("dealer %d is not a member of pair %v",
			dealer, g.Pair)
	}
	pg := PreprocGate{
		Op:     g.Op,
		Pair:   g.Pair,
		Dealer: dealer,
	}

	switch ev.role {
	case party.RoleCoordinator:
		secret := ev.pool.Peer(int(dealer)).Element()
		v := ev.pool.Peer(int(g.Pair.Rider)).Element()
		ev.outbox.AddInput(g.Pair.Driver, secret.Sub(v))
		pg.TPMask = sharing.NewTPShare(v, secret.Sub(v))
		pg.MaskValue = secret

	default:
		if ev.id == dealer {
			pg.MaskValue = ev.pool.Peer(0).Element()
		}
		if ev.role == party.RoleRider {
			pg.Mask = sharing.NewAddShare(ev.pool.Peer(0).Element())
		} else {
			v, err := ev.inbox.NextInput()
			if err != nil {
				return err
			}
			pg.Mask = sharing.NewAddShare(v)
		}
	}
	ev.preproc.set(g.Output, pg)
	return nil
}

func (ev *OfflineEvaluator) inputMask(w circuit.Wire) (*PreprocGate, error) {
	if !ev.preproc.Valid(w) {
		return nil, errors.AssertionFailedf("wire %v has no mask", w)
	}
	return &ev.preproc.Gates[w], nil
}

func (ev *OfflineEvaluator) linear(g *circuit.Gate) error {
	in0, err := ev.inputMask(g.Input0)
	if err != nil {
		return err
	}
	pg := PreprocGate{
		Op:   g.Op,
		Pair: g.Pair,
	}
	switch g.Op {
	case circuit.ADD, circuit.SUB:
		in1, err := ev.inputMask(g.Input1)
		if err != nil {
			return err
		}
		if g.Op == circuit.ADD {
			pg.Mask = in0.Mask.Add(in1.Mask)
			pg.TPMask = in0.TPMask.Add(in1.TPMask)
		} else {
			pg.Mask = in0.Mask.Sub(in1.Mask)
			pg.TPMask = in0.TPMask.Sub(in1.TPMask)
		}

	case circuit.CADD:
		pg.Mask = in0.Mask
		pg.TPMask = in0.TPMask

	case circuit.CMUL:
		pg.Mask = in0.Mask.Mul(g.Const)
		pg.TPMask = in0.TPMask.Mul(g.Const)
	}
	ev.preproc.set(g.Output, pg)
	return nil
}

func (ev *OfflineEvaluator) product(g *circuit.Gate) error {
	left, right := operands(g)

	var prod field.Element
	for i := range left {
		l, err := ev.inputMask(left[i])
		if err != nil {
			return err
		}
		r, err := ev.inputMask(right[i])
		if err != nil {
			return err
		}
		if ev.role == party.RoleCoordinator {
			prod = prod.Add(l.TPMask.Secret().Mul(r.TPMask.Secret()))
		}
	}

	pg := PreprocGate{
		Op:   g.Op,
		Pair: g.Pair,
	}
	pg.Mask, pg.TPMask = ev.randomShare(g.Pair)

	var err error
	pg.MaskProd, pg.TPMaskProd, err = ev.randomShareSecret(g.Pair, prod)
	if err != nil {
		return err
	}
	ev.preproc.set(g.Output, pg)
	return nil
}

// operands returns the multiplication operands of a MUL or a DOTP
// gate.
func operands(g *circuit.Gate) ([]circuit.Wire, []circuit.Wire) {
	if g.Op == circuit.MUL {
		return []circuit.Wire{g.Input0}, []circuit.Wire{g.Input1}
	}
	return g.Left, g.Right
}
