// Package matrix provides the numeric array backend for the vector table.
//
// The table is backend-agnostic: all of its similarity math goes through the
// Backend interface, so the matrix may live in CPU memory (the Dense/CPU
// implementation here) or on an accelerator, as long as the same backend
// supplies every primitive. No implicit host/device copies are made.
package matrix

import (
	"fmt"

	"github.com/lexkit/vectable/internal/math32"
)

// Dense is a row-major float32 matrix backed by a single flat slice.
type Dense struct {
	rows int
	dims int
	data []float32
}

// NewDense creates a zero-filled matrix of the given shape.
func NewDense(rows, dims int) *Dense {
	return &Dense{
		rows: rows,
		dims: dims,
		data: make([]float32, rows*dims),
	}
}

// NewDenseFromData wraps an existing flat slice as a matrix.
// The slice is used as-is, not copied.
func NewDenseFromData(rows, dims int, data []float32) (*Dense, error) {
	if len(data) != rows*dims {
		return nil, fmt.Errorf("matrix: data length %d does not match shape (%d, %d)", len(data), rows, dims)
	}
	return &Dense{rows: rows, dims: dims, data: data}, nil
}

// Rows returns the number of rows.
func (d *Dense) Rows() int { return d.rows }

// Dims returns the number of columns.
func (d *Dense) Dims() int { return d.dims }

// Size returns rows*dims, the total element count.
func (d *Dense) Size() int { return d.rows * d.dims }

// Data returns the backing slice. Mutations are visible to the matrix.
func (d *Dense) Data() []float32 { return d.data }

// Row returns a view of row i. Mutations are visible to the matrix.
func (d *Dense) Row(i int) []float32 {
	return d.data[i*d.dims : (i+1)*d.dims]
}

// SetRow copies vec into row i.
func (d *Dense) SetRow(i int, vec []float32) error {
	if len(vec) != d.dims {
		return fmt.Errorf("matrix: vector length %d does not match dims %d", len(vec), d.dims)
	}
	copy(d.Row(i), vec)
	return nil
}

// Clone returns a deep copy of the matrix.
func (d *Dense) Clone() *Dense {
	data := make([]float32, len(d.data))
	copy(data, d.data)
	return &Dense{rows: d.rows, dims: d.dims, data: data}
}

// Slice returns a view of rows [from, to).
func (d *Dense) Slice(from, to int) *Dense {
	return &Dense{
		rows: to - from,
		dims: d.dims,
		data: d.data[from*d.dims : to*d.dims],
	}
}

// Resize returns a matrix of the new shape with existing values preserved at
// overlapping (row, col) indices and new cells zero-filled.
//
// With inPlace set, the existing backing slice is reused whenever its
// capacity allows. Other live views onto the old buffer (Row, Data, Slice
// results) then alias the resized matrix and may observe arbitrary data;
// callers accepting inPlace own that risk. Without inPlace a fresh buffer is
// always allocated.
func (d *Dense) Resize(rows, dims int, inPlace bool) *Dense {
	if rows == d.rows && dims == d.dims {
		if inPlace {
			return d
		}
		return d.Clone()
	}

	if inPlace && dims == d.dims && rows*dims <= cap(d.data) {
		old := d.rows
		d.data = d.data[:rows*dims]
		if rows > old {
			math32.Zero(d.data[old*dims:])
		}
		d.rows = rows
		return d
	}

	out := NewDense(rows, dims)
	copyRows := min(rows, d.rows)
	copyDims := min(dims, d.dims)
	for i := 0; i < copyRows; i++ {
		copy(out.Row(i)[:copyDims], d.Row(i)[:copyDims])
	}
	if inPlace {
		// Capacity did not allow reuse; adopt the new buffer so the
		// receiver still ends up with the new shape.
		*d = *out
		return d
	}
	return out
}
