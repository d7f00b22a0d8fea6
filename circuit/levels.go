//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"

	"github.com/markkurossi/quickpool/party"
)

// Levelized is a circuit with gates grouped by their multiplicative
// depth. Gates inside a level are independent of each other's
// multiplications, and levels must be evaluated in order.
type Levelized struct {
	NumWires int
	NumGates int
	Stats    Stats
	Levels   [][]Gate
	Depths   []int
	Outputs  []Wire
	Owners   map[Wire]party.Pair
}

// OrderGatesByLevel groups the circuit gates into depth levels. Depth
// is 1+max(input depths) for MUL and DOTP gates and max(input depths)
// for all other gates. Gates keep their construction order within a
// level. The function does not modify the circuit.
func (c *Circuit) OrderGatesByLevel() *Levelized {
	depths := make([]int, len(c.Gates))
	var maxDepth int

	for idx, g := range c.Gates {
		var d int
		for _, in := range g.Inputs() {
			d = max(d, depths[in])
		}
		if g.Op.Multiplicative() {
			d++
		}
		depths[idx] = d
		maxDepth = max(maxDepth, d)
	}

	result := &Levelized{
		NumWires: len(c.Gates),
		NumGates: len(c.Gates),
		Stats:    c.Stats,
		Depths:   depths,
		Outputs:  append([]Wire(nil), c.Outputs...),
		Owners:   make(map[Wire]party.Pair),
	}
	if len(c.Gates) > 0 {
		result.Levels = make([][]Gate, maxDepth+1)
	}
	for idx, g := range c.Gates {
		result.Levels[depths[idx]] = append(result.Levels[depths[idx]], g)
	}
	for w, pair := range c.Owners {
		result.Owners[w] = pair
	}
	return result
}

// Depth returns the multiplicative depth of the circuit.
func (l *Levelized) Depth() int {
	if len(l.Levels) == 0 {
		return 0
	}
	return len(l.Levels) - 1
}

func (l *Levelized) String() string {
	return fmt.Sprintf("#gates=%d (%s) #levels=%d #out=%d",
		l.NumGates, l.Stats, len(l.Levels), len(l.Outputs))
}

// Pairs returns the distinct output owner pairs in output order.
func (l *Levelized) Pairs() []party.Pair {
	seen := make(map[party.Pair]bool)
	var result []party.Pair
	for _, w := range l.Outputs {
		pair := l.Owners[w]
		if !seen[pair] {
			seen[pair] = true
			result = append(result, pair)
		}
	}
	return result
}
