//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"github.com/cockroachdb/errors"
	"github.com/markkurossi/quickpool/field"
	"github.com/markkurossi/quickpool/party"
)

// Point is a planar location in integer grid coordinates.
type Point [2]int64

// MaxCoordinate is the largest absolute coordinate value. With the
// bound, a squared distance is below the field modulus and it does
// not overflow int64.
const MaxCoordinate = 1<<29 - 1

// Validate checks that the point coordinates are within the
// MaxCoordinate bound.
func (p Point) Validate() error {
	for _, v := range p {
		if v < -MaxCoordinate || v > MaxCoordinate {
			return errors.Mark(
				errors.Newf("coordinate %d out of range [%d,%d]",
					v, -MaxCoordinate, MaxCoordinate),
				ErrInvalidArgument)
		}
	}
	return nil
}

// Trip defines the start and end locations of a rider or a driver.
type Trip struct {
	Start Point
	End   Point
}

// Validate checks the trip's start and end points.
func (t Trip) Validate() error {
	if err := t.Start.Validate(); err != nil {
		return errors.Wrap(err, "start")
	}
	if err := t.End.Validate(); err != nil {
		return errors.Wrap(err, "end")
	}
	return nil
}

// DistanceWires holds the wires of one pair's distance computation.
type DistanceWires struct {
	Pair        party.Pair
	RiderStart  [2]Wire
	RiderEnd    [2]Wire
	DriverStart [2]Wire
	DriverEnd   [2]Wire
	Start       Wire
	End         Wire
}

// DistanceCircuit computes the squared euclidean distances of the
// start and end locations for all rider-driver pairs.
type DistanceCircuit struct {
	*Circuit
	Roles party.Roles
	Pairs []DistanceWires
}

// NewDistanceCircuit creates the distance circuit for all pairs of
// the roles. For each pair, in rider-major order, the circuit has
// eight input wires followed by four SUB gates and two DOTP gates. The
// pair's outputs are the squared start distance and the squared end
// distance, in this order.
func NewDistanceCircuit(roles party.Roles) (*DistanceCircuit, error) {
	if roles.Riders < 1 || roles.Drivers < 1 {
		return nil, errors.Mark(
			errors.Newf("invalid roles %d*%d", roles.Riders, roles.Drivers),
			ErrInvalidArgument)
	}
	return NewDistanceCircuitForPairs(roles, roles.Pairs())
}

// NewDistanceCircuitForPairs creates the distance circuit for the
// argument pairs.
func NewDistanceCircuitForPairs(roles party.Roles, pairs []party.Pair) (
	*DistanceCircuit, error) {

	dc := &DistanceCircuit{
		Circuit: New(),
		Roles:   roles,
	}
	for _, pair := range pairs {
		if !roles.IsRider(pair.Rider) || !roles.IsDriver(pair.Driver) {
			return nil, errors.Mark(errors.Newf("invalid pair %v", pair),
				ErrInvalidArgument)
		}
		dw, err := dc.addPair(pair)
		if err != nil {
			return nil, err
		}
		dc.Pairs = append(dc.Pairs, dw)
	}
	return dc, nil
}

func (dc *DistanceCircuit) addPair(pair party.Pair) (DistanceWires, error) {
	dw := DistanceWires{
		Pair: pair,
	}
	for i := 0; i < 2; i++ {
		dw.RiderStart[i] = dc.NewInputWire(pair)
		dw.RiderEnd[i] = dc.NewInputWire(pair)
		dw.DriverStart[i] = dc.NewInputWire(pair)
		dw.DriverEnd[i] = dc.NewInputWire(pair)
	}

	var startDiff, endDiff [2]Wire
	var err error

	for i := 0; i < 2; i++ {
		startDiff[i], err = dc.AddGate(SUB, dw.RiderStart[i],
			dw.DriverStart[i], pair)
		if err != nil {
			return dw, err
		}
		endDiff[i], err = dc.AddGate(SUB, dw.RiderEnd[i], dw.DriverEnd[i],
			pair)
		if err != nil {
			return dw, err
		}
	}
	dw.Start, err = dc.AddDotGate(startDiff[:], startDiff[:], pair)
	if err != nil {
		return dw, err
	}
	dw.End, err = dc.AddDotGate(endDiff[:], endDiff[:], pair)
	if err != nil {
		return dw, err
	}
	if err := dc.SetAsOutput(dw.Start, pair); err != nil {
		return dw, err
	}
	if err := dc.SetAsOutput(dw.End, pair); err != nil {
		return dw, err
	}
	return dw, nil
}

// Ownership returns the dealer party of each input wire.
func (dc *DistanceCircuit) Ownership() map[Wire]party.ID {
	result := make(map[Wire]party.ID)
	for _, dw := range dc.Pairs {
		for i := 0; i < 2; i++ {
			result[dw.RiderStart[i]] = dw.Pair.Rider
			result[dw.RiderEnd[i]] = dw.Pair.Rider
			result[dw.DriverStart[i]] = dw.Pair.Driver
			result[dw.DriverEnd[i]] = dw.Pair.Driver
		}
	}
	return result
}

// PartyInputs returns the input wire values the party deals from its
// trip. The trip coordinates must be within the MaxCoordinate bound.
func (dc *DistanceCircuit) PartyInputs(id party.ID, trip Trip) (
	map[Wire]field.Element, error) {

	if err := trip.Validate(); err != nil {
		return nil, errors.Wrapf(err, "party %d", id)
	}
	result := make(map[Wire]field.Element)
	for _, dw := range dc.Pairs {
		var start, end [2]Wire
		switch id {
		case dw.Pair.Rider:
			start, end = dw.RiderStart, dw.RiderEnd
		case dw.Pair.Driver:
			start, end = dw.DriverStart, dw.DriverEnd
		default:
			continue
		}
		for i := 0; i < 2; i++ {
			result[start[i]] = field.NewInt(trip.Start[i])
			result[end[i]] = field.NewInt(trip.End[i])
		}
	}
	return result, nil
}

// Inputs returns the values of all input wires for the rider and
// driver trips. The function is used with the plaintext evaluation.
func (dc *DistanceCircuit) Inputs(riders, drivers []Trip) (
	map[Wire]field.Element, error) {

	if len(riders) != dc.Roles.Riders || len(drivers) != dc.Roles.Drivers {
		return nil, errors.Mark(
			errors.Newf("got %d*%d trips, expected %d*%d",
				len(riders), len(drivers), dc.Roles.Riders, dc.Roles.Drivers),
			ErrInvalidArgument)
	}
	result := make(map[Wire]field.Element)
	for i, trip := range riders {
		inputs, err := dc.PartyInputs(dc.Roles.Rider(i), trip)
		if err != nil {
			return nil, err
		}
		for w, v := range inputs {
			result[w] = v
		}
	}
	for j, trip := range drivers {
		inputs, err := dc.PartyInputs(dc.Roles.Driver(j), trip)
		if err != nil {
			return nil, err
		}
		for w, v := range inputs {
			result[w] = v
		}
	}
	return result, nil
}

// SquaredDistance computes the squared euclidean distance of the
// points. The coordinates must be within the MaxCoordinate bound,
// otherwise the result overflows.
func SquaredDistance(a, b Point) uint64 {
	var sum uint64
	for i := 0; i < 2; i++ {
		d := a[i] - b[i]
		sum += uint64(d * d)
	}
	return sum
}
