//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package quickpool

// MaxMatching computes a maximum bipartite matching of the rider x
// driver match matrix with Kuhn's augmenting path algorithm. It
// returns the matching size and the driver index assigned to each
// rider, or -1 if the rider is unmatched.
func MaxMatching(matrix [][]bool) (int, []int) {
	var numDrivers int
	for _, row := range matrix {
		numDrivers = max(numDrivers, len(row))
	}
	riderOf := make([]int, numDrivers)
	for i := range riderOf {
		riderOf[i] = -1
	}

	var augment func(rider int, seen []bool) bool
	augment = func(rider int, seen []bool) bool {
		for driver, ok := range matrix[rider] {
			if !ok || seen[driver] {
				continue
			}
			seen[driver] = true
			if riderOf[driver] < 0 || augment(riderOf[driver], seen) {
				riderOf[driver] = rider
				return true
			}
		}
		return false
	}

	var size int
	for rider := range matrix {
		if augment(rider, make([]bool, numDrivers)) {
			size++
		}
	}

	assignment := make([]int, len(matrix))
	for i := range assignment {
		assignment[i] = -1
	}
	for driver, rider := range riderOf {
		if rider >= 0 {
			assignment[rider] = driver
		}
	}
	return size, assignment
}
