package matrix

// Backend supplies the numeric primitives used by similarity search.
//
// Whichever backend allocated a table's matrix must be used for all of the
// table's math; mixing backends would force implicit data movement.
type Backend interface {
	// NormalizeRows L2-normalizes every row of m in place.
	// Zero rows are left untouched.
	NormalizeRows(m *Dense)

	// MatMulTransposed computes a @ b^T, an (a.rows x b.rows) score matrix.
	// Requires a.Dims() == b.Dims().
	MatMulTransposed(a, b *Dense) *Dense

	// TopN writes the indices and values of the n largest entries of scores
	// into idxs and vals (each of length n). The selection is a partial one:
	// the returned set is exact but its internal order is unspecified, as is
	// the tie-break between equal scores.
	TopN(scores []float32, n int, idxs []int32, vals []float32)

	// SortDesc sorts the (idxs, vals) pairs in place by descending value.
	SortDesc(idxs []int32, vals []float32)
}
