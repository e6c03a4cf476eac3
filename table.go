package vectable

import (
	"fmt"
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/lexkit/vectable/internal/container"
	"github.com/lexkit/vectable/keys"
	"github.com/lexkit/vectable/matrix"
)

// Table is a dense, key-addressable vector store.
//
// It owns three pieces of state that must stay consistent:
//
//   - the matrix, a (rows x dims) dense float32 array;
//   - the key index, an insertion-ordered mapping key -> row, where several
//     keys may share one row;
//   - the free set, the rows with no committed vector and no key that needs
//     them reserved.
//
// A row leaves the free set when a vector is written to it or when the
// allocator reserves it for a new key. It never returns to the free set
// except through Resize, which recomputes the set from surviving bindings.
//
// A Table is not safe for concurrent use; see the package documentation.
type Table struct {
	data       *matrix.Dense
	backend    matrix.Backend
	index      *container.KeyMap
	free       *roaring.Bitmap
	normalizer keys.Normalizer
	logger     *Logger

	compression Compression
}

// RemovedKey reports a key binding dropped by Resize, with the row it
// pointed at before removal.
type RemovedKey struct {
	Key uint64
	Row int
}

// New creates a zero-filled table of the given shape. All rows start free.
func New(rows, dims int, optFns ...Option) *Table {
	o := applyOptions(optFns)
	t := &Table{
		data:        matrix.NewDense(rows, dims),
		backend:     o.backend,
		index:       container.NewKeyMap(),
		free:        roaring.New(),
		normalizer:  o.normalizer,
		logger:      o.logger,
		compression: o.compression,
	}
	if rows > 0 {
		t.free.AddRange(0, uint64(rows))
	}
	return t
}

// NewFromData creates a table around an existing matrix. If ks is non-empty,
// ks[i] is bound to row i and that row is marked non-free: the matrix content
// is treated as already valid for those rows, so no payload is rewritten.
func NewFromData(data *matrix.Dense, ks []uint64, optFns ...Option) (*Table, error) {
	if len(ks) > data.Rows() {
		return nil, fmt.Errorf("vectable: %d keys for %d rows", len(ks), data.Rows())
	}

	o := applyOptions(optFns)
	t := &Table{
		data:        data,
		backend:     o.backend,
		index:       container.NewKeyMapSized(len(ks)),
		free:        roaring.New(),
		normalizer:  o.normalizer,
		logger:      o.logger,
		compression: o.compression,
	}
	if data.Rows() > 0 {
		t.free.AddRange(0, uint64(data.Rows()))
	}
	for i, k := range ks {
		t.index.Set(k, int32(i))
		t.free.Remove(uint32(i))
	}
	return t, nil
}

// Shape returns (rows, dims).
func (t *Table) Shape() (int, int) {
	return t.data.Rows(), t.data.Dims()
}

// Len returns the number of rows in the table.
func (t *Table) Len() int {
	return t.data.Rows()
}

// Dims returns the vector width.
func (t *Table) Dims() int {
	return t.data.Dims()
}

// Size returns rows*dims. Distinct from Len (rows) and NKeys (key count);
// the three are deliberately separate metrics.
func (t *Table) Size() int {
	return t.data.Size()
}

// NKeys returns the number of keys in the index. Keys aliasing the same row
// count separately.
func (t *Table) NKeys() int {
	return t.index.Len()
}

// IsFull reports whether no free row remains: the next Add without an
// explicit row will fail with ErrCapacityExhausted.
func (t *Table) IsFull() bool {
	return t.free.IsEmpty()
}

// Contains reports whether key is bound to a row.
func (t *Table) Contains(key uint64) bool {
	_, ok := t.index.Get(key)
	return ok
}

// ContainsTerm reports whether the normalized form of term is bound to a row.
func (t *Table) ContainsTerm(term string) bool {
	return t.Contains(t.normalizer.Key(term))
}

// KeyOf returns the canonical integer key for term.
func (t *Table) KeyOf(term string) uint64 {
	return t.normalizer.Key(term)
}

// Add binds key to a row and returns the row used.
//
// Without AddRow, an existing key reuses its current row; a new key takes the
// lowest-numbered free row, and ErrCapacityExhausted is returned when none
// remains (the table never grows implicitly). With AddRow, the binding goes
// to the given row regardless of its free state; keys already aliasing that
// row are left in place until overwritten or resized away.
//
// With AddVector, the row's payload is overwritten and the row is committed.
func (t *Table) Add(key uint64, optFns ...AddOption) (int, error) {
	var o addOptions
	for _, fn := range optFns {
		fn(&o)
	}

	var row int
	switch {
	case o.hasRow:
		if o.row < 0 || o.row >= t.data.Rows() {
			return -1, &ErrRowOutOfRange{Row: o.row, Rows: t.data.Rows()}
		}
		row = o.row
	default:
		if cur, ok := t.index.Get(key); ok {
			row = int(cur)
		} else {
			if t.free.IsEmpty() {
				return -1, &ErrCapacityExhausted{Rows: t.data.Rows(), Dims: t.data.Dims()}
			}
			row = int(t.free.Minimum())
			t.free.Remove(uint32(row))
		}
	}

	t.index.Set(key, int32(row))

	if o.vector != nil {
		if err := t.setRow(row, o.vector); err != nil {
			return -1, err
		}
	}

	return row, nil
}

// AddTerm normalizes term and adds it; see Add.
func (t *Table) AddTerm(term string, optFns ...AddOption) (int, error) {
	return t.Add(t.normalizer.Key(term), optFns...)
}

// Vector returns the vector bound to key, as a view into the table's matrix.
// Mutating the returned slice mutates the table.
func (t *Table) Vector(key uint64) ([]float32, error) {
	row, ok := t.index.Get(key)
	if !ok {
		return nil, &ErrKeyNotFound{Key: key}
	}
	// Loaded key mappings are not validated against the matrix shape, so a
	// binding may point past the last row.
	if int(row) >= t.data.Rows() {
		return nil, &ErrRowOutOfRange{Row: int(row), Rows: t.data.Rows()}
	}
	return t.data.Row(int(row)), nil
}

// VectorForTerm returns the vector bound to the normalized form of term.
func (t *Table) VectorForTerm(term string) ([]float32, error) {
	return t.Vector(t.normalizer.Key(term))
}

// SetVector overwrites the vector of an already-present key in place and
// commits the row. Assignment never creates a new key.
func (t *Table) SetVector(key uint64, vec []float32) error {
	row, ok := t.index.Get(key)
	if !ok {
		return &ErrKeyNotFound{Key: key}
	}
	return t.setRow(int(row), vec)
}

func (t *Table) setRow(row int, vec []float32) error {
	if row < 0 || row >= t.data.Rows() {
		return &ErrRowOutOfRange{Row: row, Rows: t.data.Rows()}
	}
	if len(vec) != t.data.Dims() {
		return &ErrDimensionMismatch{Expected: t.data.Dims(), Actual: len(vec)}
	}
	if err := t.data.SetRow(row, vec); err != nil {
		return err
	}
	t.free.Remove(uint32(row))
	return nil
}

// Keys returns an iterator over keys in insertion order.
func (t *Table) Keys() iter.Seq[uint64] {
	return t.index.Keys()
}

// Vectors returns an iterator over the committed rows' vectors (rows not in
// the free set), in ascending row order. The yielded slices are views.
func (t *Table) Vectors() iter.Seq[[]float32] {
	return func(yield func([]float32) bool) {
		for row := 0; row < t.data.Rows(); row++ {
			if t.free.Contains(uint32(row)) {
				continue
			}
			if !yield(t.data.Row(row)) {
				return
			}
		}
	}
}

// Items returns an iterator over (key, vector) pairs in key insertion order.
// Keys whose row lies outside the matrix (possible after loading mismatched
// artifacts) are skipped. The yielded slices are views.
func (t *Table) Items() iter.Seq2[uint64, []float32] {
	return func(yield func(uint64, []float32) bool) {
		for k, row := range t.index.Items() {
			if int(row) >= t.data.Rows() {
				continue
			}
			if !yield(k, t.data.Row(int(row))) {
				return
			}
		}
	}
}

// Resize changes the table shape. Existing data is preserved at overlapping
// indices and new cells are zero-filled. Any key mapped to a row beyond the
// new row count is dropped from the index and reported back; this is the
// only operation that removes key bindings. The free set is recomputed as
// exactly the rows no surviving key maps to.
//
// Resize never fails. With inPlace set, the existing buffer is mutated where
// capacity allows, which invalidates other live views onto it (Vector, Row
// and iterator results); the non-in-place form always produces a fresh
// buffer and is safe in the presence of such views.
func (t *Table) Resize(rows, dims int, inPlace bool) []RemovedKey {
	var removed []RemovedKey
	for k, row := range t.index.Items() {
		if int(row) >= rows {
			removed = append(removed, RemovedKey{Key: k, Row: int(row)})
		}
	}
	for _, r := range removed {
		t.index.Delete(r.Key)
	}

	t.data = t.data.Resize(rows, dims, inPlace)

	t.free.Clear()
	if rows > 0 {
		t.free.AddRange(0, uint64(rows))
	}
	for _, row := range t.rowsInUse() {
		t.free.Remove(uint32(row))
	}

	t.logger.LogResize(rows, dims, len(removed))
	return removed
}

func (t *Table) rowsInUse() []int32 {
	rows := make([]int32, 0, t.index.Len())
	for _, row := range t.index.Items() {
		rows = append(rows, row)
	}
	return rows
}

// Data exposes the underlying matrix for backend-level operations.
func (t *Table) Data() *matrix.Dense {
	return t.data
}
