//
// parser.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/quickpool/field"
)

// ErrFormat marks malformed circuit files.
var ErrFormat = errors.New("circuit: invalid format")

type parser struct {
	in *bufio.Reader
}

func (p *parser) uint32() (uint32, error) {
	var v uint32
	if err := binary.Read(p.in, bo, &v); err != nil {
		return 0, errors.Mark(errors.Wrap(err, "read"), ErrFormat)
	}
	return v, nil
}

func (p *parser) wire() (Wire, error) {
	v, err := p.uint32()
	return Wire(v), err
}

// Parse parses a circuit in the binary circuit format. The parsed
// gates are validated like the circuit builders validate them.
func Parse(in io.Reader) (*Circuit, error) {
	p := &parser{
		in: bufio.NewReader(in),
	}
	magic, err := p.uint32()
	if err != nil {
		return nil, err
	}
	if magic != MAGIC {
		return nil, errors.Mark(errors.Newf("invalid magic 0x%08x", magic),
			ErrFormat)
	}
	numGates, err := p.uint32()
	if err != nil {
		return nil, err
	}
	numOutputs, err := p.uint32()
	if err != nil {
		return nil, err
	}

	c := New()
	for i := 0; i < int(numGates); i++ {
		op, err := p.in.ReadByte()
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "read"), ErrFormat)
		}
		rider, err := p.uint32()
		if err != nil {
			return nil, err
		}
		driver, err := p.uint32()
		if err != nil {
			return nil, err
		}
		pair := pairOf(rider, driver)

		var w Wire
		switch Operation(op) {
		case INP:
			w = c.NewInputWire(pair)

		case ADD, SUB, MUL:
			in0, err := p.wire()
			if err != nil {
				return nil, err
			}
			in1, err := p.wire()
			if err != nil {
				return nil, err
			}
			w, err = c.AddGate(Operation(op), in0, in1, pair)
			if err != nil {
				return nil, err
			}

		case CADD, CMUL:
			in, err := p.wire()
			if err != nil {
				return nil, err
			}
			var v uint64
			if err := binary.Read(p.in, bo, &v); err != nil {
				return nil, errors.Mark(errors.Wrap(err, "read"), ErrFormat)
			}
			if v >= field.Modulus {
				return nil, errors.Mark(errors.Newf("invalid constant %d", v),
					ErrFormat)
			}
			w, err = c.AddConstOpGate(Operation(op), in, field.New(v), pair)
			if err != nil {
				return nil, err
			}

		case DOTP:
			n, err := p.uint32()
			if err != nil {
				return nil, err
			}
			if n > numGates {
				return nil, errors.Mark(errors.Newf("invalid DOTP size %d", n),
					ErrFormat)
			}
			left := make([]Wire, n)
			right := make([]Wire, n)
			for j := range left {
				if left[j], err = p.wire(); err != nil {
					return nil, err
				}
				if right[j], err = p.wire(); err != nil {
					return nil, err
				}
			}
			w, err = c.AddDotGate(left, right, pair)
			if err != nil {
				return nil, err
			}

		default:
			return nil, errors.Mark(errors.Newf("invalid operation %d", op),
				ErrFormat)
		}
		if int(w) != i {
			return nil, errors.AssertionFailedf("gate %d produced %v", i, w)
		}
	}

	for i := 0; i < int(numOutputs); i++ {
		w, err := p.wire()
		if err != nil {
			return nil, err
		}
		rider, err := p.uint32()
		if err != nil {
			return nil, err
		}
		driver, err := p.uint32()
		if err != nil {
			return nil, err
		}
		if err := c.SetAsOutput(w, pairOf(rider, driver)); err != nil {
			return nil, err
		}
	}
	return c, nil
}
