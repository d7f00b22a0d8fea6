//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package quickpool

import (
	"crypto/rand"
	"fmt"
	mrand "math/rand"
	"testing"

	"github.com/markkurossi/quickpool/circuit"
	"github.com/markkurossi/quickpool/field"
	"github.com/markkurossi/quickpool/p2p"
	"github.com/markkurossi/quickpool/party"
)

func randomTrips(rnd *mrand.Rand, n int) []circuit.Trip {
	point := func() circuit.Point {
		return circuit.Point{
			rnd.Int63n(20000) - 10000,
			rnd.Int63n(20000) - 10000,
		}
	}
	result := make([]circuit.Trip, n)
	for i := range result {
		result[i] = circuit.Trip{
			Start: point(),
			End:   point(),
		}
	}
	return result
}

func partyTrip(roles party.Roles, id party.ID,
	riders, drivers []circuit.Trip) circuit.Trip {

	switch roles.Role(id) {
	case party.RoleRider:
		return riders[roles.RiderIndex(id)]
	case party.RoleDriver:
		return drivers[roles.DriverIndex(id)]
	default:
		return circuit.Trip{}
	}
}

func TestOnlineDistances(t *testing.T) {
	tests := []party.Roles{
		{Riders: 1, Drivers: 1},
		{Riders: 2, Drivers: 3},
		{Riders: 3, Drivers: 2},
	}
	rnd := mrand.New(mrand.NewSource(42))

	for _, roles := range tests {
		t.Run(fmt.Sprintf("%dx%d", roles.Riders, roles.Drivers),
			func(t *testing.T) {
				testOnlineDistances(t, roles, rnd)
			})
	}
}

func testOnlineDistances(t *testing.T, roles party.Roles, rnd *mrand.Rand) {
	dc, err := circuit.NewDistanceCircuit(roles)
	if err != nil {
		t.Fatal(err)
	}
	circ := dc.OrderGatesByLevel()
	riders := randomTrips(rnd, roles.Riders)
	drivers := randomTrips(rnd, roles.Drivers)

	inputs, err := dc.Inputs(riders, drivers)
	if err != nil {
		t.Fatal(err)
	}
	expected, err := dc.Evaluate(inputs)
	if err != nil {
		t.Fatal(err)
	}

	outputs := make([][]field.Element, roles.NumParties())
	runParties(t, roles, func(id party.ID, transport p2p.Transport) error {
		ev, err := NewEvaluator(id, roles, circ, transport, testConfig())
		if err != nil {
			return err
		}
		preproc, err := ev.RunOffline(dc.Ownership())
		if err != nil {
			return err
		}
		inputs, err := dc.PartyInputs(id, partyTrip(roles, id, riders, drivers))
		if err != nil {
			return err
		}
		outputs[id], err = ev.RunOnline(preproc, inputs)
		return err
	})

	got := outputs[party.Coordinator]
	if len(got) != len(expected) {
		t.Fatalf("got %d outputs, expected %d", len(got), len(expected))
	}
	for i := range got {
		if !got[i].Equal(expected[i]) {
			t.Errorf("output %d: got %v, expected %v", i, got[i], expected[i])
		}
	}
	for _, dw := range dc.Pairs {
		rider := riders[roles.RiderIndex(dw.Pair.Rider)]
		driver := drivers[roles.DriverIndex(dw.Pair.Driver)]

		start := circuit.SquaredDistance(rider.Start, driver.Start)
		end := circuit.SquaredDistance(rider.End, driver.End)
		idx := 2 * (roles.RiderIndex(dw.Pair.Rider)*roles.Drivers +
			roles.DriverIndex(dw.Pair.Driver))

		if got[idx].Uint64() != start {
			t.Errorf("pair %v: start: got %v, expected %v",
				dw.Pair, got[idx], start)
		}
		if got[idx+1].Uint64() != end {
			t.Errorf("pair %v: end: got %v, expected %v",
				dw.Pair, got[idx+1], end)
		}
	}

	// Riders and drivers agree on the masked outputs of their pairs.
	for i, w := range circ.Outputs {
		pair := circ.Owners[w]
		r := outputs[pair.Rider][i]
		d := outputs[pair.Driver][i]
		if !r.Equal(d) {
			t.Errorf("pair %v: masked output %d differs: %v != %v",
				pair, i, r, d)
		}
	}
}

func TestOnlineRandomInputs(t *testing.T) {
	roles := party.Roles{
		Riders:  2,
		Drivers: 2,
	}
	dc, circ, preproc := runOffline(t, roles)

	masked := make([][]field.Element, roles.NumParties())
	outputs := make([][]field.Element, roles.NumParties())
	runParties(t, roles, func(id party.ID, transport p2p.Transport) error {
		ev, err := NewOnlineEvaluator(id, roles, transport, circ,
			preproc[id], testConfig())
		if err != nil {
			return err
		}
		if err := ev.SetRandomInputs(rand.Reader); err != nil {
			return err
		}
		for l := range circ.Levels {
			if err := ev.EvaluateLevel(l); err != nil {
				return err
			}
		}
		masked[id] = ev.MaskedWires()
		outputs[id], err = ev.Outputs()
		return err
	})

	// Recover the random inputs from the riders' masked input wires.
	coord := preproc[party.Coordinator]
	inputs := make(map[circuit.Wire]field.Element)
	for _, g := range circ.Levels[0] {
		if g.Op != circuit.INP {
			continue
		}
		r := masked[g.Pair.Rider][g.Output]
		d := masked[g.Pair.Driver][g.Output]
		if !r.Equal(d) {
			t.Errorf("%v: masked input differs", g.Output)
		}
		inputs[g.Output] = r.Sub(coord.Gates[g.Output].TPMask.Secret())
	}
	expected, err := dc.Evaluate(inputs)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range outputs[party.Coordinator] {
		if !v.Equal(expected[i]) {
			t.Errorf("output %d: got %v, expected %v", i, v, expected[i])
		}
	}
}

func TestOnlineMissingInput(t *testing.T) {
	roles := party.Roles{
		Riders:  1,
		Drivers: 1,
	}
	_, circ, preproc := runOffline(t, roles)
	meshes := p2p.NewPipeMeshes(roles.NumParties())

	ev, err := NewOnlineEvaluator(1, roles, meshes[1], circ, preproc[1], nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := ev.SetInputs(nil); err == nil {
		t.Errorf("missing inputs accepted")
	}
	if _, err := NewOnlineEvaluator(1, roles, meshes[1], circ,
		NewPreprocCircuit(1), nil); err == nil {
		t.Errorf("mismatching preprocessing accepted")
	}
}

// mixedCircuit builds a circuit that uses every gate type for each
// rider-driver pair. The rider deals inputs a and b, and the driver
// deals c and d.
func mixedCircuit(t *testing.T, roles party.Roles) (*circuit.Circuit,
	map[circuit.Wire]party.ID) {

	c := circuit.New()
	ownership := make(map[circuit.Wire]party.ID)

	must := func(w circuit.Wire, err error) circuit.Wire {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		return w
	}

	for _, pair := range roles.Pairs() {
		a := c.NewInputWire(pair)
		b := c.NewInputWire(pair)
		cw := c.NewInputWire(pair)
		d := c.NewInputWire(pair)
		ownership[a] = pair.Rider
		ownership[b] = pair.Rider
		ownership[cw] = pair.Driver
		ownership[d] = pair.Driver

		m1 := must(c.AddGate(circuit.MUL, a, cw, pair))
		s1 := must(c.AddGate(circuit.ADD, m1, b, pair))
		k1 := must(c.AddConstOpGate(circuit.CADD, s1, field.New(17), pair))
		k2 := must(c.AddConstOpGate(circuit.CMUL, k1, field.NewInt(-3), pair))
		m2 := must(c.AddGate(circuit.MUL, k2, d, pair))
		dp := must(c.AddDotGate([]circuit.Wire{m2, a},
			[]circuit.Wire{k1, cw}, pair))
		out := must(c.AddGate(circuit.SUB, dp, b, pair))

		for _, w := range []circuit.Wire{k2, m2, out} {
			if err := c.SetAsOutput(w, pair); err != nil {
				t.Fatal(err)
			}
		}
	}
	return c, ownership
}

func TestOnlineMixedGates(t *testing.T) {
	roles := party.Roles{
		Riders:  2,
		Drivers: 2,
	}
	c, ownership := mixedCircuit(t, roles)
	circ := c.OrderGatesByLevel()
	if circ.Depth() < 3 {
		t.Fatalf("circuit depth %d, expected at least 3", circ.Depth())
	}

	rnd := mrand.New(mrand.NewSource(7))
	values := make(map[circuit.Wire]field.Element)
	partyInputs := make([]map[circuit.Wire]field.Element, roles.NumParties())
	for i := range partyInputs {
		partyInputs[i] = make(map[circuit.Wire]field.Element)
	}
	for w, dealer := range ownership {
		// Cover negative values and values near the modulus.
		var v field.Element
		switch rnd.Intn(3) {
		case 0:
			v = field.NewInt(rnd.Int63n(2000) - 1000)
		case 1:
			v = field.New(field.Modulus - 1 - uint64(rnd.Intn(100)))
		default:
			v = field.New(rnd.Uint64())
		}
		values[w] = v
		partyInputs[dealer][w] = v
	}
	expected, err := c.Evaluate(values)
	if err != nil {
		t.Fatal(err)
	}

	outputs := make([][]field.Element, roles.NumParties())
	runParties(t, roles, func(id party.ID, transport p2p.Transport) error {
		ev, err := NewEvaluator(id, roles, circ, transport, testConfig())
		if err != nil {
			return err
		}
		preproc, err := ev.RunOffline(ownership)
		if err != nil {
			return err
		}
		outputs[id], err = ev.RunOnline(preproc, partyInputs[id])
		return err
	})

	got := outputs[party.Coordinator]
	if len(got) != len(expected) {
		t.Fatalf("got %d outputs, expected %d", len(got), len(expected))
	}
	for i := range got {
		if !got[i].Equal(expected[i]) {
			t.Errorf("output %d: got %v, expected %v", i, got[i], expected[i])
		}
	}
}
