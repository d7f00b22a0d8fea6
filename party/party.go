//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package party defines the protocol party identities. Party 0 is the
// coordinator, parties 1..R are riders, and parties R+1..R+D are
// drivers.
package party

import (
	"fmt"

	"github.com/markkurossi/text/superscript"
)

// ID identifies a protocol party.
type ID int

// Coordinator is the trusted dealer and output receiver.
const Coordinator ID = 0

// Role specifies the party role.
type Role byte

// Party roles.
const (
	RoleCoordinator Role = iota
	RoleRider
	RoleDriver
	RoleInvalid
)

func (r Role) String() string {
	switch r {
	case RoleCoordinator:
		return "coordinator"
	case RoleRider:
		return "rider"
	case RoleDriver:
		return "driver"
	default:
		return fmt.Sprintf("{Role %d}", r)
	}
}

// Roles defines the party layout of a computation.
type Roles struct {
	Riders  int
	Drivers int
}

// NumParties returns the number of parties including the coordinator.
func (r Roles) NumParties() int {
	return 1 + r.Riders + r.Drivers
}

// Valid tests if the id is a party of the computation.
func (r Roles) Valid(id ID) bool {
	return id >= 0 && int(id) < r.NumParties()
}

// IsRider tests if the party is a rider.
func (r Roles) IsRider(id ID) bool {
	return id >= 1 && int(id) <= r.Riders
}

// IsDriver tests if the party is a driver.
func (r Roles) IsDriver(id ID) bool {
	return int(id) > r.Riders && int(id) <= r.Riders+r.Drivers
}

// Role returns the role of the party.
func (r Roles) Role(id ID) Role {
	switch {
	case id == Coordinator:
		return RoleCoordinator
	case r.IsRider(id):
		return RoleRider
	case r.IsDriver(id):
		return RoleDriver
	default:
		return RoleInvalid
	}
}

// Rider returns the party ID of the i:th (0-based) rider.
func (r Roles) Rider(i int) ID {
	return ID(1 + i)
}

// Driver returns the party ID of the j:th (0-based) driver.
func (r Roles) Driver(j int) ID {
	return ID(1 + r.Riders + j)
}

// RiderIndex returns the 0-based rider index of the party.
func (r Roles) RiderIndex(id ID) int {
	return int(id) - 1
}

// DriverIndex returns the 0-based driver index of the party.
func (r Roles) DriverIndex(id ID) int {
	return int(id) - 1 - r.Riders
}

// Pairs returns all rider-driver pairs in rider-major order.
func (r Roles) Pairs() []Pair {
	var result []Pair
	for i := 0; i < r.Riders; i++ {
		for j := 0; j < r.Drivers; j++ {
			result = append(result, Pair{
				Rider:  r.Rider(i),
				Driver: r.Driver(j),
			})
		}
	}
	return result
}

// Name returns a human readable name for the party.
func (r Roles) Name(id ID) string {
	switch r.Role(id) {
	case RoleCoordinator:
		return "SP"
	case RoleRider:
		return "R" + superscript.Itoa(r.RiderIndex(id))
	case RoleDriver:
		return "D" + superscript.Itoa(r.DriverIndex(id))
	default:
		return "P" + superscript.Itoa(int(id))
	}
}

// Pair is the rider-driver pair owning a gate or a mask record.
type Pair struct {
	Rider  ID
	Driver ID
}

func (p Pair) String() string {
	return fmt.Sprintf("{%d,%d}", p.Rider, p.Driver)
}

// Involves tests if the party takes part in the pair's computation.
// The coordinator is involved in all pairs.
func (p Pair) Involves(id ID) bool {
	return id == Coordinator || id == p.Rider || id == p.Driver
}

// Member tests if the party is the rider or the driver of the pair.
func (p Pair) Member(id ID) bool {
	return id == p.Rider || id == p.Driver
}

// Peer returns the other pair member for a rider or a driver. For
// other parties it returns -1.
func (p Pair) Peer(id ID) ID {
	switch id {
	case p.Rider:
		return p.Driver
	case p.Driver:
		return p.Rider
	default:
		return -1
	}
}

// Component returns the share component index of the party: 1 for
// the rider, 2 for the driver, and 0 otherwise.
func (p Pair) Component(id ID) int {
	switch id {
	case p.Rider:
		return 1
	case p.Driver:
		return 2
	default:
		return 0
	}
}
