package glove

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeVocab(t *testing.T, dir string, terms ...string) {
	t.Helper()
	var buf []byte
	for _, term := range terms {
		buf = append(buf, term...)
		buf = append(buf, '\n')
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, VocabFileName), buf, 0o644))
}

func writeMatrixF32(t *testing.T, dir string, dims int, rows ...[]float32) {
	t.Helper()
	var buf []byte
	for _, row := range rows {
		require.Len(t, row, dims)
		for _, v := range row {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	name := filepath.Join(dir, fmt.Sprintf("vectors.%d.f32.bin", dims))
	require.NoError(t, os.WriteFile(name, buf, 0o644))
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	writeVocab(t, dir, "cat", "dog", "fish")
	writeMatrixF32(t, dir, 2, []float32{1, 0}, []float32{0, 1}, []float32{1, 1})

	table, store, err := Import(dir)
	require.NoError(t, err)

	rows, dims := table.Shape()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, dims)
	assert.Equal(t, 3, table.NKeys())
	assert.True(t, table.IsFull())

	// Term i sits at row i.
	vec, err := table.VectorForTerm("dog")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, vec)

	term, ok := store.Term(store.Key("cat"))
	assert.True(t, ok)
	assert.Equal(t, "cat", term)
}

func TestImportF64Downconverts(t *testing.T) {
	dir := t.TempDir()
	writeVocab(t, dir, "a")

	var buf []byte
	for _, v := range []float64{0.5, -2} {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vectors.2.f64.bin"), buf, 0o644))

	table, _, err := Import(dir)
	require.NoError(t, err)

	vec, err := table.VectorForTerm("a")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -2}, vec)
}

func TestImportMissingVocab(t *testing.T) {
	dir := t.TempDir()
	writeMatrixF32(t, dir, 2, []float32{1, 0})

	_, _, err := Import(dir)
	var bad *ErrImportFormat
	require.ErrorAs(t, err, &bad)
	assert.Contains(t, bad.Path, VocabFileName)
}

func TestImportMissingMatrix(t *testing.T) {
	dir := t.TempDir()
	writeVocab(t, dir, "cat")

	_, _, err := Import(dir)
	var bad *ErrImportFormat
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, dir, bad.Path)
}

func TestImportSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	writeVocab(t, dir, "cat", "dog")
	// Two terms but only one row of payload.
	writeMatrixF32(t, dir, 2, []float32{1, 0})

	_, _, err := Import(dir)
	var bad *ErrImportFormat
	require.ErrorAs(t, err, &bad)
	assert.Contains(t, bad.Reason, "2 rows")
}
