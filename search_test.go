package vectable

import (
	"context"
	"sort"
	"testing"

	"github.com/lexkit/vectable/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queriesOf(t *testing.T, dims int, rows ...[]float32) *matrix.Dense {
	t.Helper()
	flat := make([]float32, 0, len(rows)*dims)
	for _, r := range rows {
		flat = append(flat, r...)
	}
	q, err := matrix.NewDenseFromData(len(rows), dims, flat)
	require.NoError(t, err)
	return q
}

func TestMostSimilarExactMatch(t *testing.T) {
	table := New(3, 2)
	_, err := table.Add(10, AddVector([]float32{1, 0}))
	require.NoError(t, err)
	_, err = table.Add(11, AddVector([]float32{0, 1}))
	require.NoError(t, err)

	res, err := table.MostSimilar(context.Background(), queriesOf(t, 2, []float32{1, 0}), WithN(1))
	require.NoError(t, err)

	assert.Equal(t, [][]uint64{{10}}, res.Keys)
	assert.Equal(t, [][]int32{{0}}, res.Rows)
	assert.InDelta(t, 1.0, res.Scores[0][0], 1e-5)
}

func TestMostSimilarCosineNotMagnitude(t *testing.T) {
	table := New(2, 2)
	// Same direction, wildly different magnitude: still score 1.
	_, err := table.Add(1, AddVector([]float32{100, 0}))
	require.NoError(t, err)
	_, err = table.Add(2, AddVector([]float32{0, 0.001}))
	require.NoError(t, err)

	res, err := table.MostSimilar(context.Background(), queriesOf(t, 2, []float32{0.5, 0}), WithN(2))
	require.NoError(t, err)
	assert.Equal(t, int32(0), res.Rows[0][0])
	assert.InDelta(t, 1.0, res.Scores[0][0], 1e-5)
	assert.InDelta(t, 0.0, res.Scores[0][1], 1e-5)
}

func TestMostSimilarSortedDescending(t *testing.T) {
	table := New(4, 2)
	vecs := [][]float32{{1, 0}, {0.9, 0.1}, {0, 1}, {0.5, 0.5}}
	for i, v := range vecs {
		_, err := table.Add(uint64(i+1), AddVector(v))
		require.NoError(t, err)
	}

	res, err := table.MostSimilar(context.Background(), queriesOf(t, 2, []float32{1, 0}), WithN(3))
	require.NoError(t, err)

	scores := res.Scores[0]
	require.Len(t, scores, 3)
	assert.True(t, sort.SliceIsSorted(scores, func(i, j int) bool { return scores[i] > scores[j] }))
	assert.Equal(t, int32(0), res.Rows[0][0])
}

func TestMostSimilarUnsortedSameSet(t *testing.T) {
	table := New(5, 2)
	for i := 0; i < 5; i++ {
		_, err := table.Add(uint64(i+1), AddVector([]float32{float32(i), 1}))
		require.NoError(t, err)
	}
	q := queriesOf(t, 2, []float32{1, 0})

	sorted, err := table.MostSimilar(context.Background(), q, WithN(3))
	require.NoError(t, err)
	unsorted, err := table.MostSimilar(context.Background(), q, WithN(3), WithoutSort())
	require.NoError(t, err)

	a := append([]int32(nil), sorted.Rows[0]...)
	b := append([]int32(nil), unsorted.Rows[0]...)
	sort.Slice(a, func(i, j int) bool { return a[i] < a[j] })
	sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })
	assert.Equal(t, a, b)
}

func TestMostSimilarBatchingIsTransparent(t *testing.T) {
	table := New(8, 3)
	for i := 0; i < 8; i++ {
		vec := []float32{float32(i), float32(8 - i), 1}
		_, err := table.Add(uint64(i+100), AddVector(vec))
		require.NoError(t, err)
	}

	var qRows [][]float32
	for i := 0; i < 5; i++ {
		qRows = append(qRows, []float32{float32(i), 1, float32(i % 3)})
	}
	q := queriesOf(t, 3, qRows...)

	big, err := table.MostSimilar(context.Background(), q, WithN(2))
	require.NoError(t, err)
	small, err := table.MostSimilar(context.Background(), q, WithN(2), WithBatchSize(2))
	require.NoError(t, err)

	assert.Equal(t, big.Rows, small.Rows)
	assert.Equal(t, big.Scores, small.Scores)
	assert.Equal(t, big.Keys, small.Keys)
}

func TestMostSimilarDropsKeylessRows(t *testing.T) {
	m, err := matrix.NewDenseFromData(2, 2, []float32{1, 0, 0.99, 0.01})
	require.NoError(t, err)
	// Only row 0 has a key; row 1 is payload without a binding.
	table, err := NewFromData(m, []uint64{10})
	require.NoError(t, err)
	table.free.Remove(1) // row 1 committed, but keyless

	res, err := table.MostSimilar(context.Background(), queriesOf(t, 2, []float32{1, 0}), WithN(2))
	require.NoError(t, err)

	assert.Len(t, res.Rows[0], 2)
	assert.Len(t, res.Scores[0], 2)
	assert.Equal(t, []uint64{10}, res.Keys[0])
}

func TestMostSimilarErrors(t *testing.T) {
	table := New(2, 2)

	_, err := table.MostSimilar(context.Background(), queriesOf(t, 3, []float32{1, 0, 0}))
	var dim *ErrDimensionMismatch
	require.ErrorAs(t, err, &dim)
	assert.Equal(t, 2, dim.Expected)
	assert.Equal(t, 3, dim.Actual)

	_, err = table.MostSimilar(context.Background(), queriesOf(t, 2, []float32{1, 0}), WithN(0))
	assert.ErrorIs(t, err, ErrInvalidN)
}

func TestMostSimilarExplicitRows(t *testing.T) {
	table := New(3, 2)
	_, err := table.Add(10, AddRow(0), AddVector([]float32{1, 0}))
	require.NoError(t, err)
	_, err = table.Add(11, AddRow(1), AddVector([]float32{0, 1}))
	require.NoError(t, err)

	res, err := table.MostSimilar(context.Background(), queriesOf(t, 2, []float32{1, 0}), WithN(1))
	require.NoError(t, err)

	assert.Equal(t, [][]uint64{{10}}, res.Keys)
	assert.Equal(t, [][]int32{{0}}, res.Rows)
	assert.InDelta(t, 1.0, res.Scores[0][0], 1e-5)
}
