//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"github.com/cockroachdb/errors"
	"github.com/markkurossi/quickpool/field"
)

// Evaluate evaluates the circuit in plaintext with the input wire
// values. It returns the values of the output wires in output order.
func (c *Circuit) Evaluate(inputs map[Wire]field.Element) (
	[]field.Element, error) {

	wires := make([]field.Element, len(c.Gates))

	for idx, gate := range c.Gates {
		var result field.Element

		switch gate.Op {
		case INP:
			v, ok := inputs[Wire(idx)]
			if !ok {
				return nil, errors.Mark(
					errors.Newf("no value for input wire w%d", idx),
					ErrInvalidArgument)
			}
			result = v

		case ADD:
			result = wires[gate.Input0].Add(wires[gate.Input1])

		case SUB:
			result = wires[gate.Input0].Sub(wires[gate.Input1])

		case CADD:
			result = wires[gate.Input0].Add(gate.Const)

		case CMUL:
			result = wires[gate.Input0].Mul(gate.Const)

		case MUL:
			result = wires[gate.Input0].Mul(wires[gate.Input1])

		case DOTP:
			for i := range gate.Left {
				result = result.Add(wires[gate.Left[i]].Mul(wires[gate.Right[i]]))
			}

		default:
			return nil, errors.Newf("invalid gate %s", gate.Op)
		}
		wires[idx] = result
	}

	result := make([]field.Element, len(c.Outputs))
	for i, w := range c.Outputs {
		result[i] = wires[w]
	}
	return result, nil
}
