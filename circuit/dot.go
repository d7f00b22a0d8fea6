//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"
	"io"
)

// Dot creates graphviz dot output of the circuit. Input wires are
// ranked on the first row and output wires on the last row.
func (c *Circuit) Dot(out io.Writer) {
	fmt.Fprintf(out, "digraph circuit\n{\n")
	fmt.Fprintf(out, "  overlap=scale;\n")
	fmt.Fprintf(out, "  node\t[fontname=\"Helvetica\"];\n")

	fmt.Fprintf(out, "  {\n    node [shape=box];\n")
	for idx, gate := range c.Gates {
		label := gate.Op.String()
		switch gate.Op {
		case INP:
			label = fmt.Sprintf("%s %v", gate.Op, gate.Pair)
		case CADD, CMUL:
			label = fmt.Sprintf("%s %v", gate.Op, gate.Const)
		}
		fmt.Fprintf(out, "    g%d\t[label=\"%s\"];\n", idx, label)
	}
	fmt.Fprintf(out, "  }\n")

	fmt.Fprintf(out, "  {  rank=same")
	for idx, gate := range c.Gates {
		if gate.Op == INP {
			fmt.Fprintf(out, "; g%d", idx)
		}
	}
	fmt.Fprintf(out, ";}\n")

	fmt.Fprintf(out, "  {  rank=same")
	for _, w := range c.Outputs {
		fmt.Fprintf(out, "; g%d", w)
	}
	fmt.Fprintf(out, ";}\n")

	for idx, gate := range c.Gates {
		for _, i := range gate.Inputs() {
			fmt.Fprintf(out, "  g%d -> g%d;\n", i, idx)
		}
	}
	fmt.Fprintf(out, "}\n")
}
