//
// Copyright (c) 2022-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/quickpool/field"
	"github.com/markkurossi/quickpool/party"
)

var testPair = party.Pair{
	Rider:  1,
	Driver: 2,
}

func TestBuilderErrors(t *testing.T) {
	c := New()
	a := c.NewInputWire(testPair)
	b := c.NewInputWire(testPair)

	if _, err := c.AddGate(CADD, a, b, testPair); !errors.Is(err,
		ErrInvalidArgument) {
		t.Errorf("AddGate(CADD): got %v, expected invalid argument", err)
	}
	if _, err := c.AddGate(ADD, a, 42, testPair); !errors.Is(err,
		ErrInvalidArgument) {
		t.Errorf("AddGate(unknown wire): got %v", err)
	}
	if _, err := c.AddConstOpGate(MUL, a, field.One(), testPair); !errors.Is(
		err, ErrInvalidArgument) {
		t.Errorf("AddConstOpGate(MUL): got %v", err)
	}
	if _, err := c.AddDotGate([]Wire{a, b}, []Wire{a}, testPair); !errors.Is(
		err, ErrInvalidArgument) {
		t.Errorf("AddDotGate(arity): got %v", err)
	}
	if _, err := c.AddDotGate(nil, nil, testPair); !errors.Is(err,
		ErrInvalidArgument) {
		t.Errorf("AddDotGate(empty): got %v", err)
	}
	if err := c.SetAsOutput(a, testPair); err != nil {
		t.Fatalf("SetAsOutput: %v", err)
	}
	if err := c.SetAsOutput(a, testPair); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("SetAsOutput(duplicate): got %v", err)
	}
	if c.NumWires() != 2 {
		t.Errorf("failed gates allocated wires: %d", c.NumWires())
	}
}

func TestLevels(t *testing.T) {
	c := New()
	a := c.NewInputWire(testPair)
	b := c.NewInputWire(testPair)

	sum, _ := c.AddGate(ADD, a, b, testPair)
	prod, _ := c.AddGate(MUL, sum, b, testPair)
	cadd, _ := c.AddConstOpGate(CADD, prod, field.New(3), testPair)
	dot, _ := c.AddDotGate([]Wire{cadd, a}, []Wire{prod, b}, testPair)
	cmul, _ := c.AddConstOpGate(CMUL, dot, field.New(2), testPair)
	c.SetAsOutput(cmul, testPair)

	lc := c.OrderGatesByLevel()
	expected := []int{0, 0, 0, 1, 1, 2, 2}
	for w, d := range expected {
		if lc.Depths[w] != d {
			t.Errorf("depth of w%d: got %d, expected %d", w, lc.Depths[w], d)
		}
	}
	if lc.Depth() != 2 {
		t.Errorf("Depth: got %d, expected 2", lc.Depth())
	}
	if lc.Stats[MUL] != 1 || lc.Stats[DOTP] != 1 || lc.Stats[INP] != 2 {
		t.Errorf("Stats: %v", lc.Stats)
	}

	values, err := c.Evaluate(map[Wire]field.Element{
		a: field.New(2),
		b: field.New(5),
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// ((2+5)*5 + 3) * 35 + 2*5 = 1340, doubled.
	if len(values) != 1 || values[0] != field.New(2680) {
		t.Errorf("Evaluate: got %v, expected [2680]", values)
	}
	if _, err := c.Evaluate(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Evaluate without inputs: got %v", err)
	}
}

func TestLevelsDeterministic(t *testing.T) {
	dc, err := NewDistanceCircuit(party.Roles{
		Riders:  3,
		Drivers: 2,
	})
	if err != nil {
		t.Fatalf("NewDistanceCircuit: %v", err)
	}
	l0 := dc.OrderGatesByLevel()
	l1 := dc.OrderGatesByLevel()

	if l0.Stats != l1.Stats || l0.NumGates != l1.NumGates {
		t.Fatalf("stats differ: %v, %v", l0, l1)
	}
	if len(l0.Levels) != 2 || len(l1.Levels) != 2 {
		t.Fatalf("expected 2 levels, got %d and %d",
			len(l0.Levels), len(l1.Levels))
	}
	for l := range l0.Levels {
		if len(l0.Levels[l]) != len(l1.Levels[l]) {
			t.Fatalf("level %d size differs", l)
		}
		for i := range l0.Levels[l] {
			if l0.Levels[l][i].Output != l1.Levels[l][i].Output {
				t.Errorf("level %d gate %d differs", l, i)
			}
		}
	}
}

func TestDistanceCircuit(t *testing.T) {
	roles := party.Roles{
		Riders:  2,
		Drivers: 2,
	}
	dc, err := NewDistanceCircuit(roles)
	if err != nil {
		t.Fatalf("NewDistanceCircuit: %v", err)
	}
	if dc.NumWires() != 4*14 {
		t.Errorf("NumWires: got %d, expected %d", dc.NumWires(), 4*14)
	}
	if dc.Stats[INP] != 32 || dc.Stats[SUB] != 16 || dc.Stats[DOTP] != 8 {
		t.Errorf("Stats: %v", dc.Stats)
	}
	if len(dc.Ownership()) != 32 {
		t.Errorf("Ownership: %d inputs", len(dc.Ownership()))
	}

	riders := []Trip{
		{Start: Point{0, 0}, End: Point{100, 100}},
		{Start: Point{-30, 40}, End: Point{7, -9}},
	}
	drivers := []Trip{
		{Start: Point{3, 4}, End: Point{100, 100}},
		{Start: Point{1000, 0}, End: Point{-5, 3}},
	}
	inputs, err := dc.Inputs(riders, drivers)
	if err != nil {
		t.Fatalf("Inputs: %v", err)
	}
	values, err := dc.Evaluate(inputs)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	for i, r := range riders {
		for j, d := range drivers {
			idx := (i*len(drivers) + j) * 2
			start := SquaredDistance(r.Start, d.Start)
			end := SquaredDistance(r.End, d.End)
			if values[idx] != field.New(start) {
				t.Errorf("pair %d,%d start: got %v, expected %v",
					i, j, values[idx], start)
			}
			if values[idx+1] != field.New(end) {
				t.Errorf("pair %d,%d end: got %v, expected %v",
					i, j, values[idx+1], end)
			}
		}
	}

	if _, err := NewDistanceCircuit(party.Roles{Riders: 1}); !errors.Is(err,
		ErrInvalidArgument) {
		t.Errorf("empty roles: got %v", err)
	}
}

func TestCoordinateBound(t *testing.T) {
	roles := party.Roles{
		Riders:  1,
		Drivers: 1,
	}
	dc, err := NewDistanceCircuit(roles)
	if err != nil {
		t.Fatal(err)
	}
	rider := Trip{
		Start: Point{-MaxCoordinate, -MaxCoordinate},
		End:   Point{MaxCoordinate, -MaxCoordinate},
	}
	driver := Trip{
		Start: Point{MaxCoordinate, MaxCoordinate},
		End:   Point{-MaxCoordinate, MaxCoordinate},
	}
	inputs, err := dc.Inputs([]Trip{rider}, []Trip{driver})
	if err != nil {
		t.Fatalf("Inputs: %v", err)
	}
	values, err := dc.Evaluate(inputs)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	start := SquaredDistance(rider.Start, driver.Start)
	if start >= field.Modulus {
		t.Fatalf("squared distance %d wraps the field", start)
	}
	if values[0] != field.New(start) {
		t.Errorf("start: got %v, expected %v", values[0], start)
	}
	end := SquaredDistance(rider.End, driver.End)
	if values[1] != field.New(end) {
		t.Errorf("end: got %v, expected %v", values[1], end)
	}

	far := Trip{
		Start: Point{0, 0},
		End:   Point{3_000_000_000, 0},
	}
	if err := far.Validate(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Validate: got %v", err)
	}
	if _, err := dc.PartyInputs(roles.Driver(0), far); !errors.Is(err,
		ErrInvalidArgument) {
		t.Errorf("PartyInputs: got %v", err)
	}
	if _, err := dc.Inputs([]Trip{far}, []Trip{driver}); !errors.Is(err,
		ErrInvalidArgument) {
		t.Errorf("Inputs: got %v", err)
	}
	edge := Trip{
		Start: Point{MaxCoordinate + 1, 0},
	}
	if err := edge.Validate(); err == nil {
		t.Errorf("Validate accepted %v", edge.Start)
	}
}

func TestDot(t *testing.T) {
	dc, err := NewDistanceCircuit(party.Roles{
		Riders:  1,
		Drivers: 1,
	})
	if err != nil {
		t.Fatalf("NewDistanceCircuit: %v", err)
	}
	var buf bytes.Buffer
	dc.Dot(&buf)
	out := buf.String()
	if !strings.HasPrefix(out, "digraph circuit") {
		t.Errorf("unexpected dot output: %s", out)
	}
	if !strings.Contains(out, "g8 -> g12;") {
		t.Errorf("missing SUB->DOTP edge: %s", out)
	}
}

func TestDistanceCircuitForPairs(t *testing.T) {
	roles := party.Roles{
		Riders:  2,
		Drivers: 2,
	}
	pair := party.Pair{
		Rider:  2,
		Driver: 3,
	}
	dc, err := NewDistanceCircuitForPairs(roles, []party.Pair{pair})
	if err != nil {
		t.Fatalf("NewDistanceCircuitForPairs: %v", err)
	}
	if len(dc.Outputs) != 2 || dc.Owners[dc.Outputs[0]] != pair {
		t.Errorf("unexpected outputs %v", dc.Outputs)
	}
	inputs, err := dc.PartyInputs(1, Trip{})
	if err != nil || len(inputs) != 0 {
		t.Errorf("rider 1 has inputs: %v", err)
	}
	inputs, err = dc.PartyInputs(3, Trip{})
	if err != nil || len(inputs) != 4 {
		t.Errorf("driver 3 inputs: %d: %v", len(inputs), err)
	}
	_, err = NewDistanceCircuitForPairs(roles, []party.Pair{{Rider: 3,
		Driver: 1}})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("invalid pair: got %v", err)
	}
}
