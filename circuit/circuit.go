//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

// Package circuit implements arithmetic circuits over the prime field
// where every gate is owned by a rider-driver pair.
package circuit

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/quickpool/field"
	"github.com/markkurossi/quickpool/party"
)

// ErrInvalidArgument marks circuit construction errors.
var ErrInvalidArgument = errors.New("circuit: invalid argument")

// Operation specifies gate function.
type Operation byte

// Gate functions.
const (
	INP Operation = iota
	ADD
	SUB
	CADD
	CMUL
	MUL
	DOTP
)

// Stats holds statistics about circuit operations.
type Stats [DOTP + 1]int

func (op Operation) String() string {
	switch op {
	case INP:
		return "INP"
	case ADD:
		return "ADD"
	case SUB:
		return "SUB"
	case CADD:
		return "CADD"
	case CMUL:
		return "CMUL"
	case MUL:
		return "MUL"
	case DOTP:
		return "DOTP"
	default:
		return fmt.Sprintf("{Operation %d}", op)
	}
}

// Multiplicative tests if the operation consumes one multiplicative
// level.
func (op Operation) Multiplicative() bool {
	return op == MUL || op == DOTP
}

func (stats Stats) String() string {
	var result string
	for k := INP; k <= DOTP; k++ {
		if len(result) > 0 {
			result += " "
		}
		result += fmt.Sprintf("%s=%d", k, stats[k])
	}
	return result
}

// Wire specifies a wire ID.
type Wire uint32

// ID returns the wire ID as integer.
func (w Wire) ID() int {
	return int(w)
}

func (w Wire) String() string {
	return fmt.Sprintf("w%d", w)
}

// Gate specifies an arithmetic gate. The fields in use depend on the
// gate operation:
//
//	INP         -
//	ADD SUB MUL Input0, Input1
//	CADD CMUL   Input0, Const
//	DOTP        Left, Right
type Gate struct {
	Op     Operation
	Output Wire
	Pair   party.Pair
	Input0 Wire
	Input1 Wire
	Const  field.Element
	Left   []Wire
	Right  []Wire
}

func (g Gate) String() string {
	switch g.Op {
	case CADD, CMUL:
		return fmt.Sprintf("%v %v %v %v %v", g.Pair, g.Inputs(), g.Const, g.Op,
			g.Output)
	default:
		return fmt.Sprintf("%v %v %v %v", g.Pair, g.Inputs(), g.Op, g.Output)
	}
}

// Inputs returns gate input wires.
func (g Gate) Inputs() []Wire {
	switch g.Op {
	case INP:
		return nil
	case ADD, SUB, MUL:
		return []Wire{g.Input0, g.Input1}
	case CADD, CMUL:
		return []Wire{g.Input0}
	case DOTP:
		result := make([]Wire, 0, len(g.Left)+len(g.Right))
		result = append(result, g.Left...)
		return append(result, g.Right...)
	default:
		panic(fmt.Sprintf("unsupported gate type %s", g.Op))
	}
}

// Circuit specifies an arithmetic circuit. Gates are stored in
// construction order and gate i produces wire i.
type Circuit struct {
	Gates   []Gate
	Outputs []Wire
	Owners  map[Wire]party.Pair
	Stats   Stats
}

// New creates a new empty circuit.
func New() *Circuit {
	return &Circuit{
		Owners: make(map[Wire]party.Pair),
	}
}

// NumWires returns the number of wires in the circuit.
func (c *Circuit) NumWires() int {
	return len(c.Gates)
}

func (c *Circuit) String() string {
	return fmt.Sprintf("#gates=%d (%s) #out=%d", len(c.Gates), c.Stats,
		len(c.Outputs))
}

// Dump prints a debug dump of the circuit.
func (c *Circuit) Dump() {
	fmt.Printf("circuit %s\n", c)
	for id, gate := range c.Gates {
		fmt.Printf("%04d\t%s\n", id, gate)
	}
}

// Gate returns the gate producing the wire.
func (c *Circuit) Gate(w Wire) (*Gate, error) {
	if int(w) >= len(c.Gates) {
		return nil, errors.Mark(errors.Newf("unknown wire %v", w),
			ErrInvalidArgument)
	}
	return &c.Gates[w], nil
}

func (c *Circuit) add(g Gate) Wire {
	g.Output = Wire(len(c.Gates))
	c.Gates = append(c.Gates, g)
	c.Stats[g.Op]++
	return g.Output
}

func (c *Circuit) checkWire(w Wire) error {
	if int(w) >= len(c.Gates) {
		return errors.Mark(errors.Newf("unknown input wire %v", w),
			ErrInvalidArgument)
	}
	return nil
}

// NewInputWire allocates a new input wire for the pair.
func (c *Circuit) NewInputWire(pair party.Pair) Wire {
	return c.add(Gate{
		Op:   INP,
		Pair: pair,
	})
}

// AddGate adds a binary ADD, SUB, or MUL gate.
func (c *Circuit) AddGate(op Operation, in0, in1 Wire, pair party.Pair) (
	Wire, error) {

	switch op {
	case ADD, SUB, MUL:
	default:
		return 0, errors.Mark(errors.Newf("%v is not a binary gate", op),
			ErrInvalidArgument)
	}
	if err := c.checkWire(in0); err != nil {
		return 0, err
	}
	if err := c.checkWire(in1); err != nil {
		return 0, err
	}
	return c.add(Gate{
		Op:     op,
		Pair:   pair,
		Input0: in0,
		Input1: in1,
	}), nil
}

// AddConstOpGate adds a CADD or CMUL gate with the constant value.
func (c *Circuit) AddConstOpGate(op Operation, in Wire, cval field.Element,
	pair party.Pair) (Wire, error) {

	switch op {
	case CADD, CMUL:
	default:
		return 0, errors.Mark(errors.Newf("%v is not a constant gate", op),
			ErrInvalidArgument)
	}
	if err := c.checkWire(in); err != nil {
		return 0, err
	}
	return c.add(Gate{
		Op:     op,
		Pair:   pair,
		Input0: in,
		Const:  cval,
	}), nil
}

// AddDotGate adds a dot product gate computing Σ left[i]*right[i].
func (c *Circuit) AddDotGate(left, right []Wire, pair party.Pair) (
	Wire, error) {

	if len(left) == 0 || len(left) != len(right) {
		return 0, errors.Mark(
			errors.Newf("invalid dot product arity %d*%d",
				len(left), len(right)),
			ErrInvalidArgument)
	}
	for i := range left {
		if err := c.checkWire(left[i]); err != nil {
			return 0, err
		}
		if err := c.checkWire(right[i]); err != nil {
			return 0, err
		}
	}
	return c.add(Gate{
		Op:    DOTP,
		Pair:  pair,
		Left:  append([]Wire(nil), left...),
		Right: append([]Wire(nil), right...),
	}), nil
}

// SetAsOutput registers the wire as a circuit output owned by the
// pair.
func (c *Circuit) SetAsOutput(w Wire, pair party.Pair) error {
	if err := c.checkWire(w); err != nil {
		return err
	}
	if _, ok := c.Owners[w]; ok {
		return errors.Mark(errors.Newf("wire %v already an output", w),
			ErrInvalidArgument)
	}
	c.Outputs = append(c.Outputs, w)
	c.Owners[w] = pair
	return nil
}
