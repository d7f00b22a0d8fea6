//
// Copyright (c) 2021-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"
	"io"

	"github.com/markkurossi/quickpool/party"
	"github.com/markkurossi/tabulate"
)

// Analyze prints the per-level gate statistics of the circuit. For
// each level it lists the gate counts and the number of rider-driver
// pairs exchanging messages in the level.
func (l *Levelized) Analyze(out io.Writer) {
	fmt.Fprintf(out, "analyzing circuit %v\n", l)

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Level").SetAlign(tabulate.MR)
	tab.Header("Gates").SetAlign(tabulate.MR)
	tab.Header("Linear").SetAlign(tabulate.MR)
	tab.Header("MUL").SetAlign(tabulate.MR)
	tab.Header("DOTP").SetAlign(tabulate.MR)
	tab.Header("Pairs").SetAlign(tabulate.MR)

	for idx, level := range l.Levels {
		var stats Stats
		pairs := make(map[party.Pair]bool)
		for _, g := range level {
			stats[g.Op]++
			if g.Op.Multiplicative() {
				pairs[g.Pair] = true
			}
		}
		linear := stats[ADD] + stats[SUB] + stats[CADD] + stats[CMUL]

		row := tab.Row()
		row.Column(fmt.Sprintf("%d", idx))
		row.Column(fmt.Sprintf("%d", len(level)))
		row.Column(fmt.Sprintf("%d", linear))
		row.Column(fmt.Sprintf("%d", stats[MUL]))
		row.Column(fmt.Sprintf("%d", stats[DOTP]))
		row.Column(fmt.Sprintf("%d", len(pairs)))
	}
	tab.Print(out)
}
