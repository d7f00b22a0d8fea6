//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/quickpool/circuit"
	"github.com/markkurossi/quickpool/party"
)

func parseTrip(s string) (circuit.Trip, error) {
	var t circuit.Trip
	_, err := fmt.Sscanf(strings.ReplaceAll(s, ",", " "), "%d %d %d %d",
		&t.Start[0], &t.Start[1], &t.End[0], &t.End[1])
	if err != nil {
		return t, errors.Wrapf(err, "invalid trip '%s'", s)
	}
	if err := t.Validate(); err != nil {
		return t, errors.Wrapf(err, "invalid trip '%s'", s)
	}
	return t, nil
}

// readTrips reads the rider trips followed by the driver trips, one
// trip per line. Empty lines and lines starting with '#' are ignored.
func readTrips(file string, roles party.Roles) (
	riders, drivers []circuit.Trip, err error) {

	f, err := os.Open(file)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var trips []circuit.Trip
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		t, err := parseTrip(text)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "%s:%d", file, line)
		}
		trips = append(trips, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if len(trips) != roles.Riders+roles.Drivers {
		return nil, nil, errors.Newf("%s: got %d trips, expected %d",
			file, len(trips), roles.Riders+roles.Drivers)
	}
	return trips[:roles.Riders], trips[roles.Riders:], nil
}

func randomTrips(rnd *rand.Rand, n int, grid int64) []circuit.Trip {
	point := func() circuit.Point {
		return circuit.Point{rnd.Int63n(grid), rnd.Int63n(grid)}
	}
	result := make([]circuit.Trip, n)
	for i := range result {
		result[i] = circuit.Trip{
			Start: point(),
			End:   point(),
		}
	}
	return result
}

// fixedTrips creates trips on a diagonal so that rider i and driver i
// share the start and the drivers' ends are shifted by 10*offset.
func fixedTrips(n int, offset int64) []circuit.Trip {
	result := make([]circuit.Trip, n)
	for i := range result {
		d := int64(i) * 1000
		result[i] = circuit.Trip{
			Start: circuit.Point{d, d},
			End:   circuit.Point{d + 500, d + 10*offset},
		}
	}
	return result
}
