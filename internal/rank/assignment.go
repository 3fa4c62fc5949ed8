package rank

import (
	"fmt"

	"github.com/desertthunder/tunesmith/internal/shared"
)

// assign solves the minimum-cost bipartite assignment over a rectangular
// cost matrix with rows ≤ columns, using the Kuhn–Munkres algorithm with
// row/column potentials and augmenting paths. Every row is assigned exactly
// one distinct column; the returned slice maps row index to column index and
// total is the sum of the selected cells.
//
// The solution is a global optimum, not a greedy heuristic, so two rows with
// near-identical cheap columns are still paired optimally.
func assign(cost [][]int64) (total int64, rowToCol []int, err error) {
	n := len(cost)
	if n == 0 {
		return 0, nil, nil
	}
	m := len(cost[0])
	if m < n {
		return 0, nil, fmt.Errorf("%w: assignment matrix has %d rows but only %d columns", shared.ErrComputation, n, m)
	}
	for i, row := range cost {
		if len(row) != m {
			return 0, nil, fmt.Errorf("%w: assignment matrix row %d is ragged", shared.ErrComputation, i)
		}
	}

	const inf = int64(1) << 62

	// Potentials over rows (u) and columns (v); match[j] holds the row
	// currently assigned to column j. Index 0 is a sentinel.
	u := make([]int64, n+1)
	v := make([]int64, m+1)
	match := make([]int, m+1)
	way := make([]int, m+1)

	for i := 1; i <= n; i++ {
		match[0] = i
		j0 := 0
		minv := make([]int64, m+1)
		used := make([]bool, m+1)
		for j := range minv {
			minv[j] = inf
		}

		// Grow an alternating tree from row i until a free column is found.
		for {
			used[j0] = true
			i0 := match[j0]
			delta := inf
			j1 := 0
			for j := 1; j <= m; j++ {
				if used[j] {
					continue
				}
				reduced := cost[i0-1][j-1] - u[i0] - v[j]
				if reduced < minv[j] {
					minv[j] = reduced
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= m; j++ {
				if used[j] {
					u[match[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if match[j0] == 0 {
				break
			}
		}

		// Flip the matching along the augmenting path.
		for j0 != 0 {
			j1 := way[j0]
			match[j0] = match[j1]
			j0 = j1
		}
	}

	rowToCol = make([]int, n)
	for j := 1; j <= m; j++ {
		if match[j] != 0 {
			rowToCol[match[j]-1] = j - 1
		}
	}
	for i, j := range rowToCol {
		total += cost[i][j]
	}
	return total, rowToCol, nil
}
