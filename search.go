package vectable

import (
	"context"

	"github.com/lexkit/vectable/matrix"
)

// SimilarityResult holds the per-query output of MostSimilar.
//
// Rows and Scores always carry exactly n entries per query. Keys carries the
// keys of the selected rows resolved through the reverse (row to key) lookup
// with the first-key-bound rule; rows with no key are dropped from Keys, so
// a query's key list can be shorter than n.
type SimilarityResult struct {
	Keys   [][]uint64
	Rows   [][]int32
	Scores [][]float32
}

// MostSimilar computes, per query row, the n table rows with the highest
// cosine similarity.
//
// Both the table and the queries are L2-normalized (on copies) before the
// dot product; zero-vector rows produce degenerate scores and are the
// caller's responsibility. Queries are processed in batches, strictly
// sequentially in ascending order, so peak memory is bounded by
// batchSize x rows scores.
//
// Selection is a partial top-n, O(rows) per query. Unless WithoutSort is
// given, each query's selected rows are additionally sorted by descending
// score; the selected set is the same either way. Tie order between equal
// scores is unspecified beyond single-call consistency.
func (t *Table) MostSimilar(ctx context.Context, queries *matrix.Dense, optFns ...SearchOption) (*SimilarityResult, error) {
	o := searchOptions{
		n:         10,
		batchSize: 1024,
		sorted:    true,
	}
	for _, fn := range optFns {
		fn(&o)
	}

	if o.n <= 0 {
		return nil, ErrInvalidN
	}
	if queries.Dims() != t.data.Dims() {
		err := &ErrDimensionMismatch{Expected: t.data.Dims(), Actual: queries.Dims()}
		t.logger.LogSearch(ctx, queries.Rows(), o.n, err)
		return nil, err
	}

	n := o.n
	if n > t.data.Rows() {
		n = t.data.Rows()
	}

	normTable := t.data.Clone()
	t.backend.NormalizeRows(normTable)

	normQueries := queries.Clone()
	t.backend.NormalizeRows(normQueries)

	total := queries.Rows()
	result := &SimilarityResult{
		Keys:   make([][]uint64, total),
		Rows:   make([][]int32, total),
		Scores: make([][]float32, total),
	}

	for start := 0; start < total; start += o.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + o.batchSize
		if end > total {
			end = total
		}
		batch := normQueries.Slice(start, end)
		scores := t.backend.MatMulTransposed(batch, normTable)

		for i := 0; i < batch.Rows(); i++ {
			idxs := make([]int32, n)
			vals := make([]float32, n)
			t.backend.TopN(scores.Row(i), n, idxs, vals)
			if o.sorted {
				t.backend.SortDesc(idxs, vals)
			}

			var ks []uint64
			for _, row := range idxs {
				if k, ok := t.index.FirstKeyForRow(row); ok {
					ks = append(ks, k)
				}
			}

			q := start + i
			result.Keys[q] = ks
			result.Rows[q] = idxs
			result.Scores[q] = vals
		}
	}

	t.logger.LogSearch(ctx, total, n, nil)
	return result, nil
}
