//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package quickpool

import (
	"github.com/markkurossi/quickpool/circuit"
	"github.com/markkurossi/quickpool/field"
	"github.com/markkurossi/quickpool/party"
	"github.com/markkurossi/quickpool/sharing"
)

// PreprocGate holds the preprocessing of one wire. The Mask is the
// party's share of the wire mask and the TPMask is the coordinator's
// decomposition of it. The fields in use depend on the gate
// operation:
//
//	INP      Dealer, MaskValue
//	MUL DOTP MaskProd, TPMaskProd
type PreprocGate struct {
	Op     circuit.Operation
	Pair   party.Pair
	Mask   sharing.AddShare
	TPMask sharing.TPShare

	// Dealer is the party providing the input value.
	Dealer party.ID
	// MaskValue is the plaintext input mask known to the dealer and to
	// the coordinator.
	MaskValue field.Element

	// MaskProd is the party's share of the product of the input masks.
	MaskProd   sharing.AddShare
	TPMaskProd sharing.TPShare
}

// PreprocCircuit holds the preprocessing of all circuit wires. It is
// produced by the offline phase and consumed by the online phase.
type PreprocCircuit struct {
	Gates []PreprocGate
	valid []bool
}

// NewPreprocCircuit creates an empty preprocessing for numWires wires.
func NewPreprocCircuit(numWires int) *PreprocCircuit {
	return &PreprocCircuit{
		Gates: make([]PreprocGate, numWires),
		valid: make([]bool, numWires),
	}
}

// Valid tests if the wire has preprocessing.
func (p *PreprocCircuit) Valid(w circuit.Wire) bool {
	return int(w) < len(p.valid) && p.valid[w]
}

func (p *PreprocCircuit) set(w circuit.Wire, g PreprocGate) {
	p.Gates[w] = g
	p.valid[w] = true
}
