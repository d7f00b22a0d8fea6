//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/quickpool/party"
)

const (
	// MAGIC is a magic number for the arithmetic circuit format
	// version 0.
	MAGIC = 0x71706300 // qpc0
)

var (
	bo = binary.BigEndian
)

// MarshalFormat marshals circuit in the specified format.
func (c *Circuit) MarshalFormat(out io.Writer, format string) error {
	switch format {
	case "qpc":
		return c.Marshal(out)
	case "text":
		return c.MarshalText(out)
	default:
		return errors.Mark(errors.Newf("unsupported circuit format: %s",
			format), ErrInvalidArgument)
	}
}

// Marshal marshals circuit in the binary circuit format. The format
// has a header with the gate and output counts, followed by the gates
// in wire order and the outputs with their owner pairs.
func (c *Circuit) Marshal(out io.Writer) error {
	var data = []interface{}{
		uint32(MAGIC),
		uint32(len(c.Gates)),
		uint32(len(c.Outputs)),
	}
	if err := write(out, data); err != nil {
		return err
	}
	for _, g := range c.Gates {
		data = []interface{}{
			byte(g.Op),
			uint32(g.Pair.Rider), uint32(g.Pair.Driver),
		}
		switch g.Op {
		case INP:
		case ADD, SUB, MUL:
			data = append(data, uint32(g.Input0), uint32(g.Input1))
		case CADD, CMUL:
			data = append(data, uint32(g.Input0), g.Const.Uint64())
		case DOTP:
			data = append(data, uint32(len(g.Left)))
			for i := range g.Left {
				data = append(data, uint32(g.Left[i]), uint32(g.Right[i]))
			}
		default:
			return errors.Newf("unsupported gate type %s", g.Op)
		}
		if err := write(out, data); err != nil {
			return err
		}
	}
	for _, w := range c.Outputs {
		pair := c.Owners[w]
		data = []interface{}{
			uint32(w), uint32(pair.Rider), uint32(pair.Driver),
		}
		if err := write(out, data); err != nil {
			return err
		}
	}
	return nil
}

func write(out io.Writer, data []interface{}) error {
	for _, v := range data {
		if err := binary.Write(out, bo, v); err != nil {
			return err
		}
	}
	return nil
}

// MarshalText marshals the circuit in a line-oriented text format:
// one gate per line with the owner pair, input wires, operation, and
// output wire.
func (c *Circuit) MarshalText(out io.Writer) error {
	fmt.Fprintf(out, "%d %d\n", len(c.Gates), len(c.Outputs))
	for _, g := range c.Gates {
		fmt.Fprintf(out, "%d %d %d", g.Pair.Rider, g.Pair.Driver,
			len(g.Inputs()))
		for _, w := range g.Inputs() {
			fmt.Fprintf(out, " %d", w)
		}
		if g.Op == CADD || g.Op == CMUL {
			fmt.Fprintf(out, " %v", g.Const)
		}
		fmt.Fprintf(out, " %d %s\n", g.Output, g.Op)
	}
	for _, w := range c.Outputs {
		fmt.Fprintf(out, "out %d %v\n", w, c.Owners[w])
	}
	return nil
}

func pairOf(rider, driver uint32) party.Pair {
	return party.Pair{
		Rider:  party.ID(rider),
		Driver: party.ID(driver),
	}
}
