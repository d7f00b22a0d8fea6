//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package quickpool

import (
	"testing"

	"github.com/markkurossi/quickpool/circuit"
	"github.com/markkurossi/quickpool/field"
	"github.com/markkurossi/quickpool/p2p"
	"github.com/markkurossi/quickpool/party"
	"github.com/markkurossi/quickpool/prg"
	"github.com/markkurossi/quickpool/sharing"
)

func TestOfflineMasks(t *testing.T) {
	roles := party.Roles{
		Riders:  2,
		Drivers: 3,
	}
	_, circ, preproc := runOffline(t, roles)
	coord := preproc[party.Coordinator]

	for _, level := range circ.Levels {
		for _, g := range level {
			w := g.Output
			if !coord.Valid(w) {
				t.Fatalf("coordinator: no preprocessing for %v", w)
			}
			rider := preproc[g.Pair.Rider]
			driver := preproc[g.Pair.Driver]
			if !rider.Valid(w) || !driver.Valid(w) {
				t.Fatalf("pair %v: no preprocessing for %v", g.Pair, w)
			}
			cg := coord.Gates[w]
			rg := rider.Gates[w]
			dg := driver.Gates[w]

			if !rg.Mask.Value().Equal(
				cg.TPMask.Component(sharing.RiderComponent).Value()) {
				t.Errorf("%v: rider mask mismatch", w)
			}
			if !dg.Mask.Value().Equal(
				cg.TPMask.Component(sharing.DriverComponent).Value()) {
				t.Errorf("%v: driver mask mismatch", w)
			}
			if !cg.Mask.Value().IsZero() {
				t.Errorf("%v: coordinator mask share not zero", w)
			}

			// Parties outside the pair have no preprocessing.
			for id := 1; id < roles.NumParties(); id++ {
				if g.Pair.Member(party.ID(id)) {
					continue
				}
				if preproc[id].Valid(w) {
					t.Errorf("%v: party %d has preprocessing", w, id)
				}
			}

			switch g.Op {
			case circuit.INP:
				dealer := preproc[cg.Dealer]
				if !dealer.Gates[w].MaskValue.Equal(cg.MaskValue) {
					t.Errorf("%v: dealer mask value mismatch", w)
				}
				if !cg.MaskValue.Equal(cg.TPMask.Secret()) {
					t.Errorf("%v: mask value is not the mask", w)
				}

			case circuit.DOTP, circuit.MUL:
				var expected field.Element
				left, right := operands(&g)
				for i := range left {
					l := coord.Gates[left[i]].TPMask.Secret()
					r := coord.Gates[right[i]].TPMask.Secret()
					expected = expected.Add(l.Mul(r))
				}
				got := rg.MaskProd.Value().Add(dg.MaskProd.Value())
				if !got.Equal(expected) {
					t.Errorf("%v: mask product: got %v, expected %v",
						w, got, expected)
				}
				if !cg.TPMaskProd.Secret().Equal(expected) {
					t.Errorf("%v: coordinator mask product mismatch", w)
				}
			}
		}
	}
}

func TestOfflineDeterministic(t *testing.T) {
	roles := party.Roles{
		Riders:  1,
		Drivers: 2,
	}
	_, _, a := runOffline(t, roles)
	_, _, b := runOffline(t, roles)

	for id := range a {
		for w := range a[id].Gates {
			if a[id].Gates[w] != b[id].Gates[w] {
				t.Errorf("party %d: wire %d differs", id, w)
			}
		}
	}
}

func TestOfflineOwnership(t *testing.T) {
	roles := party.Roles{
		Riders:  1,
		Drivers: 1,
	}
	dc, err := circuit.NewDistanceCircuit(roles)
	if err != nil {
		t.Fatal(err)
	}
	circ := dc.OrderGatesByLevel()
	ownership := dc.Ownership()

	// Assign an input to the coordinator.
	for w := range ownership {
		ownership[w] = party.Coordinator
		break
	}
	meshes := p2p.NewPipeMeshes(roles.NumParties())
	defer meshes[0].Close()
	config := testConfig()
	pool, err := prg.NewPool(0, roles.NumParties(), config.GetSeed())
	if err != nil {
		t.Fatal(err)
	}
	ev, err := NewOfflineEvaluator(party.Coordinator, roles, meshes[0],
		circ, pool, config)
	if err != nil {
		t.Fatal(err)
	}
	ev.preproc = NewPreprocCircuit(circ.NumWires)
	ev.outbox = NewOutbox()
	err = ev.maskPass(ownership)
	if err == nil {
		t.Fatalf("coordinator accepted as dealer")
	}
}
