package vectable

import (
	"context"
	"testing"

	"github.com/lexkit/vectable/blobstore"
	"github.com/lexkit/vectable/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFixture returns a table with a multiply-aliased row (keys 1 and 2 on
// row 0) and an unassigned row (row 2).
func buildFixture(t *testing.T, optFns ...Option) *Table {
	t.Helper()
	table := New(3, 2, optFns...)
	_, err := table.Add(1, AddVector([]float32{1, 2}))
	require.NoError(t, err)
	_, err = table.Add(2, AddRow(0))
	require.NoError(t, err)
	_, err = table.Add(3, AddVector([]float32{3, 4}))
	require.NoError(t, err)
	return table
}

func assertFixture(t *testing.T, loaded *Table) {
	t.Helper()

	rows, dims := loaded.Shape()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, dims)
	assert.Equal(t, 3, loaded.NKeys())

	// Matrix equality.
	v, err := loaded.Vector(1)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, v)
	v, err = loaded.Vector(3)
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4}, v)

	// Alias preserved, including insertion order for reverse lookup.
	res, err := loaded.Find(FindQuery{Row: ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, res.Keys)

	// The unassigned row is free again after load.
	assert.False(t, loaded.IsFull())
	row, err := loaded.Add(9)
	require.NoError(t, err)
	assert.Equal(t, 2, row)
}

func TestBytesRoundTrip(t *testing.T) {
	table := buildFixture(t)

	data, err := table.ToBytes()
	require.NoError(t, err)

	loaded, err := FromBytes(data)
	require.NoError(t, err)
	assertFixture(t, loaded)
}

func TestBytesRoundTripCompressed(t *testing.T) {
	for _, c := range []Compression{CompressionLZ4, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			table := buildFixture(t, WithCompression(c))

			data, err := table.ToBytes()
			require.NoError(t, err)

			// Loading is self-describing; no option needed.
			loaded, err := FromBytes(data)
			require.NoError(t, err)
			assertFixture(t, loaded)
		})
	}
}

func TestToBytesExclude(t *testing.T) {
	table := buildFixture(t)

	data, err := table.ToBytes(SectionVectors)
	require.NoError(t, err)

	loaded, err := FromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.NKeys())
	assert.Equal(t, 0, loaded.Len())

	data, err = table.ToBytes(SectionKey2Row)
	require.NoError(t, err)
	loaded, err = FromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.NKeys())
	assert.Equal(t, 3, loaded.Len())
}

func TestDiskRoundTrip(t *testing.T) {
	table := buildFixture(t)
	dir := t.TempDir()

	require.NoError(t, table.ToDisk(dir))

	loaded, err := FromDisk(dir)
	require.NoError(t, err)
	assertFixture(t, loaded)
}

func TestSaveToStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	table := buildFixture(t)
	store := blobstore.NewMemoryStore()

	require.NoError(t, table.SaveTo(ctx, store))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{SectionKey2Row, SectionManifest, SectionVectors}, names)

	loaded, err := LoadFrom(ctx, store)
	require.NoError(t, err)
	assertFixture(t, loaded)
}

func TestSaveToExclude(t *testing.T) {
	ctx := context.Background()
	table := buildFixture(t)
	store := blobstore.NewMemoryStore()

	require.NoError(t, table.SaveTo(ctx, store, SectionVectors))

	_, err := store.Open(ctx, SectionVectors)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	loaded, err := LoadFrom(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.NKeys())
	assert.Equal(t, 0, loaded.Len())
}

func TestLoadLegacyKeysArtifact(t *testing.T) {
	ctx := context.Background()
	table := buildFixture(t)
	store := blobstore.NewMemoryStore()

	// Write vectors normally, but replace key2row with a legacy positional
	// key array.
	require.NoError(t, table.SaveTo(ctx, store, SectionKey2Row))
	legacy, err := codec.Default.Marshal([]uint64{1, 3})
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, SectionKeys, legacy))

	loaded, err := LoadFrom(ctx, store)
	require.NoError(t, err)

	res, err := loaded.Find(FindQuery{Keys: []uint64{1, 3}})
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 1}, res.Rows)

	// key2row takes precedence over the legacy artifact when both exist.
	require.NoError(t, table.SaveTo(ctx, store))
	loaded, err = LoadFrom(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.NKeys())
}

func TestLoadMismatchedArtifactsErrorsOnUse(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	// Vectors from a 3-row table, key2row from an 8-row table whose key 99
	// sits at row 7. Loading does not cross-validate the two artifacts.
	small := buildFixture(t)
	require.NoError(t, small.SaveTo(ctx, store, SectionKey2Row))

	big := New(8, 2)
	_, err := big.Add(99, AddRow(7), AddVector([]float32{7, 7}))
	require.NoError(t, err)
	require.NoError(t, big.SaveTo(ctx, store, SectionVectors))

	loaded, err := LoadFrom(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Len())
	assert.True(t, loaded.Contains(99))

	// The dangling binding surfaces as an out-of-range error on use, never
	// as a panic.
	var oor *ErrRowOutOfRange
	_, err = loaded.Vector(99)
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 7, oor.Row)
	assert.Equal(t, 3, oor.Rows)

	err = loaded.SetVector(99, []float32{1, 2})
	require.ErrorAs(t, err, &oor)

	// Iteration skips the dangling key instead of reading past the matrix.
	for k := range loaded.Items() {
		assert.NotEqual(t, uint64(99), k)
	}
}

func TestDecodeVectorsRejectsCorruption(t *testing.T) {
	table := buildFixture(t)
	data, err := table.encodeVectors()
	require.NoError(t, err)

	// Flip a payload byte: checksum must catch it.
	data[len(data)-1] ^= 0xFF
	_, _, _, err = decodeVectors(data)
	var bad *ErrBadArtifact
	require.ErrorAs(t, err, &bad)

	_, _, _, err = decodeVectors([]byte("short"))
	require.ErrorAs(t, err, &bad)

	_, _, _, err = decodeVectors(append([]byte("XXXX"), data[4:]...))
	require.ErrorAs(t, err, &bad)
}
