package matrix

import (
	"sort"

	"github.com/lexkit/vectable/internal/math32"
)

// CPU is the host-memory Backend implementation.
type CPU struct{}

// NormalizeRows L2-normalizes every row of m in place.
func (CPU) NormalizeRows(m *Dense) {
	for i := 0; i < m.Rows(); i++ {
		row := m.Row(i)
		norm := math32.Norm(row)
		if norm > 0 {
			math32.ScaleInPlace(row, 1/norm)
		}
	}
}

// MatMulTransposed computes a @ b^T via per-row dot products.
func (CPU) MatMulTransposed(a, b *Dense) *Dense {
	out := NewDense(a.Rows(), b.Rows())
	for i := 0; i < a.Rows(); i++ {
		ai := a.Row(i)
		oi := out.Row(i)
		for j := 0; j < b.Rows(); j++ {
			oi[j] = math32.Dot(ai, b.Row(j))
		}
	}
	return out
}

// TopN selects the n largest scores by quickselect, O(len(scores)) expected.
func (CPU) TopN(scores []float32, n int, idxs []int32, vals []float32) {
	perm := make([]int32, len(scores))
	for i := range perm {
		perm[i] = int32(i)
	}
	if n < len(perm) {
		quickselect(scores, perm, n)
	}
	for i := 0; i < n; i++ {
		idxs[i] = perm[i]
		vals[i] = scores[perm[i]]
	}
}

// SortDesc sorts the selected (idxs, vals) pairs by descending value.
func (CPU) SortDesc(idxs []int32, vals []float32) {
	sort.Sort(&byScoreDesc{idxs: idxs, vals: vals})
}

type byScoreDesc struct {
	idxs []int32
	vals []float32
}

func (s *byScoreDesc) Len() int           { return len(s.vals) }
func (s *byScoreDesc) Less(i, j int) bool { return s.vals[i] > s.vals[j] }
func (s *byScoreDesc) Swap(i, j int) {
	s.idxs[i], s.idxs[j] = s.idxs[j], s.idxs[i]
	s.vals[i], s.vals[j] = s.vals[j], s.vals[i]
}

// quickselect partitions perm so that its first n entries index the n
// largest scores. Hoare-style partitioning with a middle pivot; the order
// within the selected prefix is unspecified.
func quickselect(scores []float32, perm []int32, n int) {
	lo, hi := 0, len(perm)-1
	for lo < hi {
		pivot := scores[perm[(lo+hi)/2]]
		i, j := lo, hi
		for i <= j {
			for scores[perm[i]] > pivot {
				i++
			}
			for scores[perm[j]] < pivot {
				j--
			}
			if i <= j {
				perm[i], perm[j] = perm[j], perm[i]
				i++
				j--
			}
		}
		switch {
		case n <= j:
			hi = j
		case n >= i:
			lo = i
		default:
			return
		}
	}
}
