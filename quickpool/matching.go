//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package quickpool

import (
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/quickpool/circuit"
	"github.com/markkurossi/quickpool/dcf"
	"github.com/markkurossi/quickpool/env"
	"github.com/markkurossi/quickpool/field"
	"github.com/markkurossi/quickpool/p2p"
	"github.com/markkurossi/quickpool/party"
	"github.com/markkurossi/quickpool/prg"
	"github.com/markkurossi/tabulate"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultThreshold is the default start and end distance threshold.
const DefaultThreshold = 50

// Evaluator runs the protocol phases of one party.
type Evaluator struct {
	base
	StartThreshold uint64
	EndThreshold   uint64
	Timing         *Timing

	pool *prg.Pool
}

// NewEvaluator creates a new evaluator for the party. The generator
// streams are derived from the configuration's shared seed so every
// party can compute every stream. Use it only when all parties run
// in one trust domain, such as in local simulations, and use
// NewEvaluatorWithPool with the keys from ExchangeKeys otherwise.
func NewEvaluator(id party.ID, roles party.Roles, circ *circuit.Levelized,
	transport p2p.Transport, config *env.Config) (*Evaluator, error) {

	if config == nil {
		config = new(env.Config)
	}
	pool, err := prg.NewPool(int(id), roles.NumParties(), config.GetSeed())
	if err != nil {
		return nil, err
	}
	return NewEvaluatorWithPool(id, roles, circ, transport, pool, config)
}

// NewEvaluatorWithPool creates a new evaluator for the party with the
// generator pool.
func NewEvaluatorWithPool(id party.ID, roles party.Roles,
	circ *circuit.Levelized, transport p2p.Transport, pool *prg.Pool,
	config *env.Config) (*Evaluator, error) {

	if pool.ID() != int(id) {
		return nil, errors.Newf("generator pool of party %d for party %v",
			pool.ID(), id)
	}
	b, err := newBase(id, roles, transport, circ, config, "match")
	if err != nil {
		return nil, err
	}
	return &Evaluator{
		base:           b,
		StartThreshold: DefaultThreshold,
		EndThreshold:   DefaultThreshold,
		Timing:         NewTiming(),
		pool:           pool,
	}, nil
}

func (e *Evaluator) sample(label string, before p2p.IOStats) *Sample {
	xfer := e.transport.Stats().Sub(before).Sum()
	return e.Timing.Sample(label, []string{FileSize(xfer).String()})
}

// RunOffline runs the offline preprocessing with the input ownership.
func (e *Evaluator) RunOffline(ownership map[circuit.Wire]party.ID) (
	*PreprocCircuit, error) {

	stats := e.transport.Stats()
	offline, err := NewOfflineEvaluator(e.id, e.roles, e.transport, e.circ,
		e.pool, e.config)
	if err != nil {
		return nil, err
	}
	preproc, err := offline.Run(ownership)
	if err != nil {
		return nil, errors.Wrap(err, "offline")
	}
	e.sample("Offline", stats)
	return preproc, nil
}

func (e *Evaluator) evaluate(preproc *PreprocCircuit,
	inputs map[circuit.Wire]field.Element) (*OnlineEvaluator, error) {

	online, err := NewOnlineEvaluator(e.id, e.roles, e.transport, e.circ,
		preproc, e.config)
	if err != nil {
		return nil, err
	}

	stats := e.transport.Stats()
	if err := online.SetInputs(inputs); err != nil {
		return nil, errors.Wrap(err, "online inputs")
	}
	e.sample("Input", stats)

	stats = e.transport.Stats()
	var ends []time.Time
	for l := range e.circ.Levels {
		if err := online.EvaluateLevel(l); err != nil {
			return nil, errors.Wrap(err, "online")
		}
		ends = append(ends, time.Now())
	}
	sample := e.sample("Eval", stats)
	for l, end := range ends {
		sample.SubSample(fmt.Sprintf("L%d", l), end)
	}
	return online, nil
}

// RunOnline runs the online phase with the preprocessing and the
// party's inputs. The coordinator returns the plaintext outputs and
// the riders and drivers return their masked outputs.
func (e *Evaluator) RunOnline(preproc *PreprocCircuit,
	inputs map[circuit.Wire]field.Element) ([]field.Element, error) {

	online, err := e.evaluate(preproc, inputs)
	if err != nil {
		return nil, err
	}
	stats := e.transport.Stats()
	result, err := online.Outputs()
	if err != nil {
		return nil, errors.Wrap(err, "online outputs")
	}
	e.sample("Output", stats)
	return result, nil
}

// Matching holds the matching result. The coordinator's result has
// the match matrix and the maximum matching. The riders' and drivers'
// results hold their shares of the comparison bits.
type Matching struct {
	Roles      party.Roles
	Matches    [][]bool
	Size       int
	Assignment []int
	Shares     []field.Element
}

// Matched tests if the rider and the driver matched.
func (m *Matching) Matched(rider, driver party.ID) bool {
	if m.Matches == nil {
		return false
	}
	return m.Matches[m.Roles.RiderIndex(rider)][m.Roles.DriverIndex(driver)]
}

// Print prints the match matrix and the assignment.
func (m *Matching) Print(w io.Writer) {
	if m.Matches == nil {
		return
	}
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Rider").SetAlign(tabulate.ML)
	for j := 0; j < m.Roles.Drivers; j++ {
		tab.Header(m.Roles.Name(m.Roles.Driver(j))).SetAlign(tabulate.MC)
	}
	tab.Header("Assigned").SetAlign(tabulate.ML)

	for i, row := range m.Matches {
		r := tab.Row()
		r.Column(m.Roles.Name(m.Roles.Rider(i)))
		for j, match := range row {
			switch {
			case m.Assignment[i] == j:
				r.Column("●").SetFormat(tabulate.FmtBold)
			case match:
				r.Column("○")
			default:
				r.Column("·")
			}
		}
		if m.Assignment[i] >= 0 {
			r.Column(m.Roles.Name(m.Roles.Driver(m.Assignment[i])))
		} else {
			r.Column("-")
		}
	}
	tab.Print(w)
}

// comparison describes one thresholded output.
type comparison struct {
	pair      party.Pair
	threshold uint64
}

// comparisons maps the circuit outputs into comparisons. Each pair
// must have exactly two outputs: the start distance followed by the
// end distance.
func (e *Evaluator) comparisons() ([]comparison, error) {
	count := make(map[party.Pair]int)
	var result []comparison

	for _, w := range e.circ.Outputs {
		pair := e.circ.Owners[w]
		var threshold uint64
		switch count[pair] {
		case 0:
			threshold = e.StartThreshold
		case 1:
			threshold = e.EndThreshold
		default:
			return nil, errors.Newf("pair %v has more than two outputs", pair)
		}
		count[pair]++
		result = append(result, comparison{
			pair:      pair,
			threshold: threshold,
		})
	}
	for pair, c := range count {
		if c != 2 {
			return nil, errors.Newf("pair %v has %d outputs", pair, c)
		}
	}
	return result, nil
}

// EvaluateMatching runs the offline and the online phases, compares
// the masked squared distances against the thresholds, and computes
// the maximum matching. A pair matches if both its start and its end
// squared distances are at most threshold².
func (e *Evaluator) EvaluateMatching(ownership map[circuit.Wire]party.ID,
	inputs map[circuit.Wire]field.Element) (*Matching, error) {

	cmps, err := e.comparisons()
	if err != nil {
		return nil, err
	}
	preproc, err := e.RunOffline(ownership)
	if err != nil {
		return nil, err
	}
	online, err := e.evaluate(preproc, inputs)
	if err != nil {
		return nil, err
	}

	stats := e.transport.Stats()
	var result *Matching
	if e.role == party.RoleCoordinator {
		result, err = e.coordinatorCompare(online, cmps)
	} else {
		result, err = e.partyCompare(online, cmps)
	}
	if err != nil {
		return nil, errors.Wrap(err, "compare")
	}
	e.sample("Compare", stats)

	if result.Matches != nil {
		result.Size, result.Assignment = MaxMatching(result.Matches)
		e.Timing.Sample("Match", nil)
		e.log.Info("matching computed", zap.Int("size", result.Size),
			zap.Int("pairs", len(cmps)/2))
	}
	return result, nil
}

// ownedComparisons returns the comparison indices per rider and
// driver.
func ownedComparisons(cmps []comparison) map[party.ID][]int {
	result := make(map[party.ID][]int)
	for i, c := range cmps {
		result[c.pair.Rider] = append(result[c.pair.Rider], i)
		result[c.pair.Driver] = append(result[c.pair.Driver], i)
	}
	return result
}

func (e *Evaluator) workers() *errgroup.Group {
	g := new(errgroup.Group)
	if e.config.Rand != nil {
		// The configured entropy source is not known to be safe for
		// concurrent use.
		g.SetLimit(1)
	} else {
		g.SetLimit(e.config.GetThreads())
	}
	return g
}

func (e *Evaluator) coordinatorCompare(online *OnlineEvaluator,
	cmps []comparison) (*Matching, error) {

	masks, err := online.OutputMasks()
	if err != nil {
		return nil, err
	}

	keys := make([][2]*dcf.IntervalKey, len(cmps))
	rand := e.config.GetRandom()
	g := e.workers()
	for i := range cmps {
		g.Go(func() error {
			var err error
			keys[i], err = dcf.ThresholdKeys(masks[i], cmps[i].threshold, rand)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "generate keys")
	}

	owned := ownedComparisons(cmps)
	for _, id := range sortedPeers(owned) {
		conn, err := e.conn(id)
		if err != nil {
			return nil, err
		}
		half := 0
		if e.roles.IsDriver(id) {
			half = 1
		}
		if err := conn.SendUint32(len(owned[id])); err != nil {
			return nil, errors.Wrapf(err, "send keys to %d", id)
		}
		for _, i := range owned[id] {
			data, err := keys[i][half].MarshalBinary()
			if err != nil {
				return nil, err
			}
			if err := conn.SendData(data); err != nil {
				return nil, errors.Wrapf(err, "send keys to %d", id)
			}
		}
		e.log.Debug("sent keys", zap.Int("peer", int(id)),
			zap.Int("count", len(owned[id])))
	}
	if err := e.transport.FlushAll(); err != nil {
		return nil, err
	}

	bits := make([]field.Element, len(cmps))
	for _, id := range sortedPeers(owned) {
		conn, err := e.conn(id)
		if err != nil {
			return nil, err
		}
		shares, err := conn.ReceiveElementsN(len(owned[id]))
		if err != nil {
			return nil, errors.Wrapf(err, "receive shares from %d", id)
		}
		for j, i := range owned[id] {
			bits[i] = bits[i].Add(shares[j])
		}
	}

	result := &Matching{
		Roles:   e.roles,
		Matches: make([][]bool, e.roles.Riders),
	}
	for i := range result.Matches {
		result.Matches[i] = make([]bool, e.roles.Drivers)
	}
	for i := 0; i < len(cmps); i += 2 {
		start, end := bits[i], bits[i+1]
		for _, bit := range []field.Element{start, end} {
			if bit != field.Zero() && bit != field.One() {
				return nil, errors.AssertionFailedf(
					"pair %v: comparison bit %v", cmps[i].pair, bit)
			}
		}
		pair := cmps[i].pair
		ri := e.roles.RiderIndex(pair.Rider)
		di := e.roles.DriverIndex(pair.Driver)
		result.Matches[ri][di] = start.Mul(end) == field.One()
		e.Debugf("pair %v: start=%v, end=%v\n", pair, start, end)
	}
	return result, nil
}

func (e *Evaluator) partyCompare(online *OnlineEvaluator,
	cmps []comparison) (*Matching, error) {

	result := &Matching{
		Roles: e.roles,
	}
	owned := ownedComparisons(cmps)[e.id]
	if len(owned) == 0 {
		return result, nil
	}

	conn, err := e.conn(party.Coordinator)
	if err != nil {
		return nil, err
	}
	count, err := conn.ReceiveUint32()
	if err != nil {
		return nil, errors.Wrap(err, "receive keys")
	}
	if count != len(owned) {
		return nil, errors.Newf("received %d keys, expected %d",
			count, len(owned))
	}
	var half byte
	if e.role == party.RoleDriver {
		half = 1
	}
	keys := make([]*dcf.IntervalKey, count)
	for j := range keys {
		data, err := conn.ReceiveData()
		if err != nil {
			return nil, errors.Wrap(err, "receive keys")
		}
		keys[j] = new(dcf.IntervalKey)
		if err := keys[j].UnmarshalBinary(data); err != nil {
			return nil, err
		}
		if keys[j].Lower.Party != half || keys[j].Upper.Party != half {
			return nil, errors.AssertionFailedf("%v received key half %d",
				e.role, keys[j].Lower.Party)
		}
	}

	masked := online.MaskedOutputs()
	result.Shares = make([]field.Element, len(owned))
	g := e.workers()
	for j, i := range owned {
		g.Go(func() error {
			x := dcf.ThresholdInput(masked[i], cmps[i].threshold)
			result.Shares[j] = keys[j].Eval(x)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := conn.SendElements(result.Shares); err != nil {
		return nil, errors.Wrap(err, "send shares")
	}
	if err := e.transport.Flush(int(party.Coordinator)); err != nil {
		return nil, err
	}
	return result, nil
}

// EvaluatePair runs the matching for a single rider-driver pair. Only
// the coordinator and the pair's rider and driver take part; other
// parties return an empty result immediately. If pool is nil, the
// generator streams are derived from the configuration's shared seed
// as with NewEvaluator.
func EvaluatePair(id party.ID, roles party.Roles, pair party.Pair,
	transport p2p.Transport, pool *prg.Pool, config *env.Config,
	trip circuit.Trip) (*Matching, error) {

	if !pair.Involves(id) {
		return &Matching{
			Roles: roles,
		}, nil
	}
	dc, err := circuit.NewDistanceCircuitForPairs(roles, []party.Pair{pair})
	if err != nil {
		return nil, err
	}
	var ev *Evaluator
	if pool == nil {
		ev, err = NewEvaluator(id, roles, dc.OrderGatesByLevel(), transport,
			config)
	} else {
		ev, err = NewEvaluatorWithPool(id, roles, dc.OrderGatesByLevel(),
			transport, pool, config)
	}
	if err != nil {
		return nil, err
	}
	inputs, err := dc.PartyInputs(id, trip)
	if err != nil {
		return nil, err
	}
	return ev.EvaluateMatching(dc.Ownership(), inputs)
}
