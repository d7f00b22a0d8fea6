//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package quickpool

import (
	"testing"
)

func checkAssignment(t *testing.T, matrix [][]bool, size int,
	assignment []int) {

	used := make(map[int]bool)
	var count int
	for rider, driver := range assignment {
		if driver < 0 {
			continue
		}
		if !matrix[rider][driver] {
			t.Errorf("rider %d assigned to non-matching driver %d",
				rider, driver)
		}
		if used[driver] {
			t.Errorf("driver %d assigned twice", driver)
		}
		used[driver] = true
		count++
	}
	if count != size {
		t.Errorf("assignment has %d pairs, size %d", count, size)
	}
}

func TestMaxMatching(t *testing.T) {
	tests := []struct {
		matrix [][]bool
		size   int
	}{
		{
			matrix: [][]bool{
				{true, true},
				{true, true},
			},
			size: 2,
		},
		{
			matrix: [][]bool{
				{true, false, false, false},
				{false, true, false, false},
				{false, false, true, false},
				{false, false, false, true},
			},
			size: 4,
		},
		{
			// Greedy assignment of rider 0 to driver 0 must be
			// augmented.
			matrix: [][]bool{
				{true, true},
				{true, false},
			},
			size: 2,
		},
		{
			matrix: [][]bool{
				{true, false, false},
				{true, false, false},
			},
			size: 1,
		},
		{
			matrix: [][]bool{
				{false, false},
			},
			size: 0,
		},
		{
			matrix: nil,
			size:   0,
		},
	}
	for idx, test := range tests {
		size, assignment := MaxMatching(test.matrix)
		if size != test.size {
			t.Errorf("test %d: got size %d, expected %d",
				idx, size, test.size)
		}
		checkAssignment(t, test.matrix, size, assignment)
	}
}

func TestMaxMatchingIdentity(t *testing.T) {
	for n := 1; n <= 16; n++ {
		matrix := make([][]bool, n)
		for i := range matrix {
			matrix[i] = make([]bool, n)
			matrix[i][i] = true
		}
		size, assignment := MaxMatching(matrix)
		if size != n {
			t.Errorf("n=%d: got size %d", n, size)
		}
		checkAssignment(t, matrix, size, assignment)
	}
}
