package scenario

import (
	"github.com/ppiankov/storybias/internal/reference"
)

// Combinations returns every k-subset of reference rows, as row indexes in
// lexicographic order, whose regions are pairwise distinct and whose
// religions are pairwise distinct.
func Combinations(table *reference.Table, k int) [][]int {
	rows := table.Countries()
	n := len(rows)
	if k <= 0 || k > n {
		return nil
	}

	var out [][]int
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}

	for {
		if distinct(rows, idx) {
			out = append(out, append([]int(nil), idx...))
		}

		// advance to the next combination
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return out
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

func distinct(rows []reference.Country, idx []int) bool {
	regions := make(map[string]bool, len(idx))
	religions := make(map[string]bool, len(idx))
	for _, i := range idx {
		if regions[rows[i].Region] || religions[rows[i].Religion] {
			return false
		}
		regions[rows[i].Region] = true
		religions[rows[i].Religion] = true
	}
	return true
}
